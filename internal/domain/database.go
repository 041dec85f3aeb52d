package domain

import (
	"context"
	"io"
)

// DumpOutput is what a dump tool reports once it exits.
type DumpOutput struct {
	Stderr string
}

type Database interface {
	// Dump streams a logical dump to w. It runs the tool exactly once.
	Dump(ctx context.Context, w io.Writer) (DumpOutput, error)
	// Available reports ErrDumpToolUnavailable when the tool cannot be found.
	Available() error
	GetName() string
}
