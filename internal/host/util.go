package host

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"
)

// ===================
// Command Execution Utilities
// ===================

// ExecContext executes a command with timeout support and returns stdout.
// Stderr is folded into the returned error. Every invocation is traced to
// the debug log with its duration and outcome.
func ExecContext(ctx context.Context, timeout time.Duration, env []string, name string, args ...string) ([]byte, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, name, args...)
	if len(env) > 0 {
		cmd.Env = append(cmd.Environ(), env...)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start)

	slog.Debug("exec",
		"cmd", name,
		"args", strings.Join(args, " "),
		"elapsed", elapsed.Round(time.Millisecond),
		"ok", err == nil)

	if err != nil {
		return stdout.Bytes(), wrapExecError(err, ctx, name, stderr.String())
	}

	return stdout.Bytes(), nil
}

func wrapExecError(err error, ctx context.Context, name, stderr string) error {
	stderr = strings.TrimSpace(stderr)

	var execErr *exec.Error
	if errors.As(err, &execErr) && errors.Is(execErr.Err, exec.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrBinaryNotFound, name)
	}

	if ctx.Err() == context.DeadlineExceeded {
		return fmt.Errorf("%w: %s", ErrTimeout, name)
	}

	if pgErr := ClassifyPGError(stderr); pgErr != nil {
		return fmt.Errorf("%w: %s", pgErr, stderr)
	}

	if stderr != "" {
		return fmt.Errorf("%s: %w: %s", name, err, stderr)
	}
	return fmt.Errorf("%s: %w", name, err)
}

// ===================
// Output Parsing Utilities
// ===================

// ParseLines splits command output into trimmed, non-empty lines.
func ParseLines(output []byte) []string {
	if len(output) == 0 {
		return nil
	}

	lines := strings.Split(string(output), "\n")
	result := make([]string, 0, len(lines))

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			result = append(result, line)
		}
	}

	return result
}

// ParsePipeRows parses pipe-delimited psql output (--no-align
// --field-separator=|) into rows of trimmed fields. Rows with fewer than
// minFields fields are skipped; psql notices and blank lines never have
// the full field count.
func ParsePipeRows(output []byte, minFields int) [][]string {
	var rows [][]string
	for _, line := range ParseLines(output) {
		if !strings.Contains(line, "|") {
			continue
		}

		fields := strings.Split(line, "|")
		if len(fields) < minFields {
			continue
		}

		for i, f := range fields {
			fields[i] = strings.TrimSpace(f)
		}
		rows = append(rows, fields)
	}
	return rows
}

// ParseKeyValue parses "key=value" or "key: value" format output, as
// found in /etc/os-release and informational commands. Surrounding
// quotes are stripped from values.
func ParseKeyValue(output []byte) map[string]string {
	result := make(map[string]string)

	for _, line := range ParseLines(output) {
		var key, value string
		if i := strings.IndexAny(line, "=:"); i >= 0 {
			key = strings.TrimSpace(line[:i])
			value = strings.TrimSpace(line[i+1:])
		} else {
			continue
		}
		value = strings.Trim(value, `"`)
		if key != "" {
			result[key] = value
		}
	}

	return result
}

// ShellQuote quotes a string for safe inclusion in a remote shell
// command line. Single quotes are closed, escaped, and reopened.
func ShellQuote(s string) string {
	if s == "" {
		return "''"
	}
	if !strings.ContainsAny(s, " \t\n'\"\\$`|&;<>()*?[]#~%") {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'"'"'`) + "'"
}
