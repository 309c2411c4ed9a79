package install

import (
	"context"
	"fmt"
	"runtime"
	"strings"

	"github.com/dominicchang/pgsqlmgr/internal/host"
)

// OSInfo identifies an operating system well enough to choose an
// installation recipe.
type OSInfo struct {
	// ID is the /etc/os-release ID (ubuntu, debian, fedora, ...) or
	// "macos".
	ID      string
	Version string
}

// DetectLocalOS identifies the operating system of this machine.
func DetectLocalOS() OSInfo {
	switch runtime.GOOS {
	case "darwin":
		return OSInfo{ID: "macos", Version: "unknown"}
	case "linux":
		return OSInfo{ID: "linux", Version: "unknown"}
	default:
		return OSInfo{ID: runtime.GOOS, Version: "unknown"}
	}
}

// DetectRemoteOS identifies the operating system of a remote host by
// reading /etc/os-release, falling back to uname for macOS.
func DetectRemoteOS(ctx context.Context, r host.Runner) (OSInfo, error) {
	out, err := r.RunShell(ctx, host.DefaultTimeout, "cat /etc/os-release 2>/dev/null || uname -s")
	if err != nil {
		return OSInfo{}, fmt.Errorf("detecting operating system on %s: %w", r.Name(), err)
	}

	return ParseOSRelease(out)
}

// ParseOSRelease parses /etc/os-release content (or bare uname output)
// into an OSInfo.
func ParseOSRelease(out []byte) (OSInfo, error) {
	text := string(out)

	if strings.Contains(text, "ID=") {
		kv := host.ParseKeyValue(out)
		id := strings.ToLower(kv["ID"])
		version := kv["VERSION_ID"]
		if version == "" {
			version = "unknown"
		}
		if id == "" {
			return OSInfo{}, fmt.Errorf("os-release output has no ID field")
		}
		return OSInfo{ID: id, Version: version}, nil
	}

	if strings.Contains(text, "Darwin") {
		return OSInfo{ID: "macos", Version: "unknown"}, nil
	}

	return OSInfo{}, fmt.Errorf("could not detect operating system from %q", strings.TrimSpace(text))
}
