package host

import (
	"fmt"

	"github.com/dominicchang/pgsqlmgr/internal/config"
)

// ForHost creates the runner matching the host descriptor type.
func ForHost(name string, cfg config.Host) (Runner, error) {
	switch cfg.Type {
	case config.TypeLocal:
		return NewLocal(name, cfg), nil
	case config.TypeSSH:
		return NewSSH(name, cfg), nil
	case config.TypeCloud:
		return NewCloud(name, cfg), nil
	default:
		return nil, fmt.Errorf("%w: unknown host type %q", ErrUnsupportedHost, cfg.Type)
	}
}

// ForName looks the host up in the configuration and creates its runner.
func ForName(name string, cfg *config.Config) (Runner, error) {
	h, err := cfg.HostByName(name)
	if err != nil {
		return nil, err
	}
	return ForHost(name, h)
}
