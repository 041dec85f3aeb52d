package domain

import "fmt"

// RunFlags are the invocation modes of the backup command.
type RunFlags struct {
	RunOnly     bool
	DeleteOnly  bool
	AutoCleanup bool
	DeleteAll   bool
}

// Validate rejects --run combined with any deleting mode. All other
// combinations compose.
func (f RunFlags) Validate() error {
	if f.RunOnly && (f.DeleteOnly || f.AutoCleanup || f.DeleteAll) {
		return fmt.Errorf("%w: --run cannot be combined with --d, --auto or --all", ErrConflictingFlags)
	}
	return nil
}

func (f RunFlags) Sweeps() bool { return !f.RunOnly }

func (f RunFlags) Dumps() bool { return !f.DeleteOnly }

// AgeBased reports whether the sweep applies the retention window. Only
// --auto does; --d on its own selects nothing unless --all widens it.
func (f RunFlags) AgeBased() bool { return f.AutoCleanup }
