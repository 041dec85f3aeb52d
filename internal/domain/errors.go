package domain

import (
	"errors"
	"fmt"
)

var (
	ErrConflictingFlags        = errors.New("conflicting flags")
	ErrInvalidConfiguration    = errors.New("invalid configuration")
	ErrStorageUnavailable      = errors.New("storage unavailable")
	ErrDumpToolUnavailable     = errors.New("dump tool unavailable")
	ErrDumpProcessFailed       = errors.New("dump process failed")
	ErrBackupProducedEmptyFile = errors.New("backup produced empty file")
	ErrUnexpected              = errors.New("unexpected error")
)

// DumpError carries the diagnostics of a dump process that exited non-zero.
type DumpError struct {
	Tool     string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *DumpError) Error() string {
	msg := fmt.Sprintf("%s exited with code %d", e.Tool, e.ExitCode)
	if e.Stderr != "" {
		msg += ", output: " + e.Stderr
	}
	return msg
}

func (e *DumpError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrDumpProcessFailed}
	}
	return []error{ErrDumpProcessFailed, e.Err}
}
