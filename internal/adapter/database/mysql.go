package database

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/semmidev/dumpwarden/internal/domain"
)

const (
	maxStderr = 64 * 1024
	waitDelay = 10 * time.Second
)

type MySQLDatabase struct {
	params    domain.DatabaseParams
	binary    string
	extraArgs []string
	tempDir   string
}

// NewMySQL returns a mysqldump runner. binary may be a bare name resolved on
// PATH or a path to the executable.
func NewMySQL(params domain.DatabaseParams, binary string, extraArgs []string) *MySQLDatabase {
	if binary == "" {
		binary = "mysqldump"
	}
	return &MySQLDatabase{
		params:    params,
		binary:    binary,
		extraArgs: extraArgs,
	}
}

// WithTempDir sets where the transient credentials file is created.
func (m *MySQLDatabase) WithTempDir(dir string) *MySQLDatabase {
	m.tempDir = dir
	return m
}

func (m *MySQLDatabase) Available() error {
	if _, err := exec.LookPath(m.binary); err != nil {
		return fmt.Errorf("%w: %s not found in PATH: %v", domain.ErrDumpToolUnavailable, m.binary, err)
	}
	return nil
}

// Dump runs mysqldump once and streams its stdout to w. The password is
// handed over through an option file that only lives while the process runs.
func (m *MySQLDatabase) Dump(ctx context.Context, w io.Writer) (domain.DumpOutput, error) {
	exe, err := exec.LookPath(m.binary)
	if err != nil {
		return domain.DumpOutput{}, fmt.Errorf("%w: %s not found in PATH: %v", domain.ErrDumpToolUnavailable, m.binary, err)
	}

	creds, err := writeCredentialsFile(m.tempDir, m.params.Username, m.params.Password)
	if err != nil {
		return domain.DumpOutput{}, err
	}
	defer creds.Remove()

	// --defaults-extra-file must be the first option.
	args := []string{
		"--defaults-extra-file=" + creds.Path(),
		fmt.Sprintf("--host=%s", m.params.Host),
		fmt.Sprintf("--port=%d", m.params.Port),
		"--single-transaction",
		"--quick",
		"--lock-tables=false",
		"--routines",
		"--triggers",
	}
	args = append(args, m.extraArgs...)
	args = append(args, m.params.Name)

	stderr := &limitedBuffer{limit: maxStderr}
	cmd := exec.CommandContext(ctx, exe, args...)
	cmd.Stdout = w
	cmd.Stderr = stderr
	cmd.WaitDelay = waitDelay

	err = cmd.Run()
	out := domain.DumpOutput{Stderr: strings.TrimSpace(stderr.String())}
	if err == nil {
		return out, nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return out, &domain.DumpError{Tool: m.binary, ExitCode: -1, Stderr: out.Stderr, Err: ctxErr}
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return out, &domain.DumpError{Tool: m.binary, ExitCode: exitErr.ExitCode(), Stderr: out.Stderr}
	}
	return out, &domain.DumpError{Tool: m.binary, ExitCode: -1, Stderr: out.Stderr, Err: err}
}

func (m *MySQLDatabase) GetName() string {
	return m.params.Name
}

// limitedBuffer keeps the first limit bytes written to it and drops the rest
// so a chatty tool cannot exhaust memory.
type limitedBuffer struct {
	buf   bytes.Buffer
	limit int
}

func (b *limitedBuffer) Write(p []byte) (int, error) {
	if room := b.limit - b.buf.Len(); room > 0 {
		if len(p) > room {
			b.buf.Write(p[:room])
		} else {
			b.buf.Write(p)
		}
	}
	return len(p), nil
}

func (b *limitedBuffer) String() string {
	return b.buf.String()
}

type credentialsFile struct {
	path string
}

func (c *credentialsFile) Path() string {
	return c.path
}

func (c *credentialsFile) Remove() {
	_ = os.Remove(c.path)
}

// writeCredentialsFile creates a [client] option file readable only by the
// current user.
func writeCredentialsFile(dir, user, password string) (*credentialsFile, error) {
	f, err := os.CreateTemp(dir, "mysqldump-*.cnf")
	if err != nil {
		return nil, fmt.Errorf("failed to create credentials file: %w", err)
	}
	creds := &credentialsFile{path: f.Name()}

	if err := f.Chmod(0600); err != nil {
		f.Close()
		creds.Remove()
		return nil, fmt.Errorf("failed to restrict credentials file: %w", err)
	}

	content := fmt.Sprintf("[client]\nuser=%s\npassword=%s\n", quoteOption(user), quoteOption(password))
	if _, err := f.WriteString(content); err != nil {
		f.Close()
		creds.Remove()
		return nil, fmt.Errorf("failed to write credentials file: %w", err)
	}
	if err := f.Close(); err != nil {
		creds.Remove()
		return nil, fmt.Errorf("failed to close credentials file: %w", err)
	}

	return creds, nil
}

// quoteOption renders a value for a MySQL option file, where double quotes
// allow backslash escapes.
func quoteOption(v string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`, "\r", `\r`, "\t", `\t`)
	return `"` + r.Replace(v) + `"`
}
