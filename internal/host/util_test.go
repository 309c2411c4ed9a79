package host

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"
)

func TestParseLines(t *testing.T) {
	out := []byte("first\n\n  second  \n\nthird\n")
	got := ParseLines(out)
	want := []string{"first", "second", "third"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ParseLines = %v, want %v", got, want)
	}
}

func TestParsePipeRows(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		minFields int
		want      [][]string
	}{
		{
			name:      "simple rows",
			input:     "mydb|owner|UTF8\nother|admin|UTF8\n",
			minFields: 3,
			want:      [][]string{{"mydb", "owner", "UTF8"}, {"other", "admin", "UTF8"}},
		},
		{
			name:      "skips non-delimited noise",
			input:     "NOTICE: something\nmydb|owner|UTF8\n(1 row)\n",
			minFields: 3,
			want:      [][]string{{"mydb", "owner", "UTF8"}},
		},
		{
			name:      "skips short rows",
			input:     "a|b\nmydb|owner|UTF8\n",
			minFields: 3,
			want:      [][]string{{"mydb", "owner", "UTF8"}},
		},
		{
			name:      "trims whitespace",
			input:     " mydb | owner | UTF8 \n",
			minFields: 3,
			want:      [][]string{{"mydb", "owner", "UTF8"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParsePipeRows([]byte(tt.input), tt.minFields)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParsePipeRows = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseKeyValue(t *testing.T) {
	osRelease := `NAME="Ubuntu"
ID=ubuntu
VERSION_ID="22.04"
`
	kv := ParseKeyValue([]byte(osRelease))
	if kv["ID"] != "ubuntu" {
		t.Errorf("ID = %q, want ubuntu", kv["ID"])
	}
	if kv["VERSION_ID"] != "22.04" {
		t.Errorf("VERSION_ID = %q, want 22.04 (quotes stripped)", kv["VERSION_ID"])
	}
}

func TestShellQuote(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"simple", "simple"},
		{"with space", "'with space'"},
		{"it's", `'it'"'"'s'`},
		{"", "''"},
		{"--field-separator=|", "'--field-separator=|'"},
	}
	for _, tt := range tests {
		if got := ShellQuote(tt.in); got != tt.want {
			t.Errorf("ShellQuote(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestExecContext(t *testing.T) {
	ctx := context.Background()

	out, err := ExecContext(ctx, DefaultTimeout, nil, "echo", "hello")
	if err != nil {
		t.Fatalf("ExecContext(echo): %v", err)
	}
	if string(out) != "hello\n" {
		t.Errorf("output = %q, want %q", out, "hello\n")
	}
}

func TestExecContextBinaryNotFound(t *testing.T) {
	_, err := ExecContext(context.Background(), DefaultTimeout, nil, "definitely-not-a-real-binary-43a1f")
	if !errors.Is(err, ErrBinaryNotFound) {
		t.Errorf("expected ErrBinaryNotFound, got %v", err)
	}
}

func TestExecContextTimeout(t *testing.T) {
	_, err := ExecContext(context.Background(), 50*time.Millisecond, nil, "sleep", "5")
	if !errors.Is(err, ErrTimeout) {
		t.Errorf("expected ErrTimeout, got %v", err)
	}
}

func TestClassifyPGError(t *testing.T) {
	tests := []struct {
		stderr string
		want   error
	}{
		{"psql: error: connection to server at \"localhost\" failed: Connection refused", ErrConnectionRefused},
		{"psql: error: FATAL: password authentication failed for user \"postgres\"", ErrAuthFailed},
		{"fe_sendauth: no password supplied", ErrAuthFailed},
		{"some unrelated failure", nil},
	}
	for _, tt := range tests {
		got := ClassifyPGError(tt.stderr)
		if !errors.Is(got, tt.want) && !(got == nil && tt.want == nil) {
			t.Errorf("ClassifyPGError(%q) = %v, want %v", tt.stderr, got, tt.want)
		}
	}
}
