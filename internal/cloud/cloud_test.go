package cloud

import (
	"errors"
	"strings"
	"testing"

	"github.com/dominicchang/pgsqlmgr/internal/config"
	"github.com/dominicchang/pgsqlmgr/internal/host"
)

func TestForHost(t *testing.T) {
	for _, provider := range []string{"supabase", "aws-rds"} {
		p, err := ForHost(config.Host{Type: config.TypeCloud, Provider: provider})
		if err != nil {
			t.Errorf("ForHost(%s): %v", provider, err)
			continue
		}
		if p.Name() != provider {
			t.Errorf("Name = %q, want %q", p.Name(), provider)
		}
	}

	_, err := ForHost(config.Host{Type: config.TypeCloud, Provider: "gcp"})
	if err == nil || !strings.Contains(err.Error(), "supported") {
		t.Errorf("unknown provider should list supported ones, got %v", err)
	}
}

func TestConnString(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.Host
		want string
	}{
		{
			name: "explicit connection string wins",
			cfg: config.Host{
				Provider:         "supabase",
				ConnectionString: "postgresql://u:p@db.supabase.co:5432/postgres",
				Host:             "ignored", User: "ignored",
			},
			want: "postgresql://u:p@db.supabase.co:5432/postgres",
		},
		{
			name: "built from fields",
			cfg: config.Host{
				Provider: "aws-rds",
				Host:     "db.rds.amazonaws.com", Port: 5432,
				User: "admin", Password: "pw", Database: "appdb",
			},
			want: "host=db.rds.amazonaws.com port=5432 user=admin dbname=appdb sslmode=require password=pw",
		},
		{
			name: "default database",
			cfg: config.Host{
				Provider: "supabase",
				Host:     "db.supabase.co", Port: 6543, User: "svc",
			},
			want: "host=db.supabase.co port=6543 user=svc dbname=postgres sslmode=require",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := ForHost(tt.cfg)
			if err != nil {
				t.Fatal(err)
			}
			got, err := p.ConnString(tt.cfg)
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("ConnString = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestConnStringIncomplete(t *testing.T) {
	p, err := ForHost(config.Host{Type: config.TypeCloud, Provider: "supabase"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := p.ConnString(config.Host{Provider: "supabase"}); err == nil {
		t.Error("expected error when neither connection string nor host/user is set")
	}
}

func TestInstallUnsupported(t *testing.T) {
	err := Install(config.Host{Type: config.TypeCloud, Provider: "supabase"})
	if !errors.Is(err, host.ErrUnsupportedHost) {
		t.Errorf("expected ErrUnsupportedHost, got %v", err)
	}
}
