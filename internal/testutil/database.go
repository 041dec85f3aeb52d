package testutil

import (
	"context"
	"io"

	"github.com/semmidev/dumpwarden/internal/domain"
)

// FakeDatabase is an in-memory stand-in for a dump tool.
type FakeDatabase struct {
	Name    string
	Output  []byte
	Stderr  string
	DumpErr error
	// Missing makes Available report the tool as absent.
	Missing bool
	Calls   int
}

func (f *FakeDatabase) Available() error {
	if f.Missing {
		return domain.ErrDumpToolUnavailable
	}
	return nil
}

func (f *FakeDatabase) Dump(ctx context.Context, w io.Writer) (domain.DumpOutput, error) {
	f.Calls++
	if f.Missing {
		return domain.DumpOutput{}, domain.ErrDumpToolUnavailable
	}
	if len(f.Output) > 0 {
		if _, err := w.Write(f.Output); err != nil {
			return domain.DumpOutput{}, err
		}
	}
	return domain.DumpOutput{Stderr: f.Stderr}, f.DumpErr
}

func (f *FakeDatabase) GetName() string {
	return f.Name
}
