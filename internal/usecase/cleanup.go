package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/semmidev/dumpwarden/internal/domain"
)

// SweepPolicy selects which backups a sweep removes.
type SweepPolicy struct {
	Directory     string
	RetentionDays int
	// AgeBased deletes files last modified before now minus RetentionDays.
	AgeBased bool
	// DeleteAll deletes every backup regardless of age.
	DeleteAll bool
}

type SweepResult struct {
	Deleted []string
	Failed  int
	Cutoff  time.Time
}

type Cleanup struct {
	storage domain.Storage
	logger  Logger
	clock   domain.Clock
}

func NewCleanup(storage domain.Storage, logger Logger, clock domain.Clock) *Cleanup {
	return &Cleanup{
		storage: storage,
		logger:  logger,
		clock:   clock,
	}
}

// Execute runs one retention sweep. A file that cannot be deleted is
// reported in the returned error but does not stop the sweep.
func (uc *Cleanup) Execute(ctx context.Context, policy SweepPolicy) (SweepResult, error) {
	if policy.RetentionDays < 0 {
		return SweepResult{}, fmt.Errorf("%w: retention days must not be negative, got %d",
			domain.ErrInvalidConfiguration, policy.RetentionDays)
	}

	// Compared in whole seconds: with zero retention a file written during
	// the current second survives.
	cutoff := uc.clock.Now().AddDate(0, 0, -policy.RetentionDays)
	result := SweepResult{Deleted: []string{}, Cutoff: cutoff}

	if !policy.DeleteAll && !policy.AgeBased {
		return result, nil
	}

	files, err := uc.storage.List(ctx, policy.Directory)
	if err != nil {
		return result, fmt.Errorf("%w: list %s: %v", domain.ErrStorageUnavailable, policy.Directory, err)
	}

	var errs []error
	for _, file := range files {
		if !IsBackupFile(file.Path) {
			continue
		}
		if !policy.DeleteAll && file.LastModified.Unix() >= cutoff.Unix() {
			continue
		}

		if err := uc.storage.Delete(ctx, file.Path); err != nil {
			uc.logger.Errorw("Database backup: Failed to delete backup file", "file", file.Path, "error", err)
			errs = append(errs, fmt.Errorf("delete %s: %w", file.Path, err))
			result.Failed++
			continue
		}

		uc.logger.Infow("Database backup: Deleted backup file", "file", file.Path)
		result.Deleted = append(result.Deleted, file.Path)
	}

	if len(errs) > 0 {
		return result, fmt.Errorf("%w: %d of %d deletions failed: %w",
			domain.ErrStorageUnavailable, len(errs), len(errs)+len(result.Deleted), errors.Join(errs...))
	}
	return result, nil
}
