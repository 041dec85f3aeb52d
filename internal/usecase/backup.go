package usecase

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/semmidev/dumpwarden/internal/domain"
)

// LocalStorage is a storage target with a physical location on this host.
type LocalStorage interface {
	domain.Storage
	GetPath(remotePath string) string
}

type Backup struct {
	db         domain.Database
	staging    LocalStorage
	compressor domain.Compressor
	logger     Logger
	clock      domain.Clock
}

func NewBackup(
	db domain.Database,
	staging LocalStorage,
	compressor domain.Compressor,
	logger Logger,
	clock domain.Clock,
) *Backup {
	return &Backup{
		db:         db,
		staging:    staging,
		compressor: compressor,
		logger:     logger,
		clock:      clock,
	}
}

// Execute dumps the database once into {directory}/backup-<timestamp>.gz on
// the staging storage. The dump succeeds only when the tool exits cleanly and
// the file holds data.
func (uc *Backup) Execute(ctx context.Context, policy domain.BackupPolicy) (domain.Backup, error) {
	start := uc.clock.Now()
	dbName := uc.db.GetName()

	filename := BackupFilename(start, uc.compressor.Extension())
	remotePath := path.Join(policy.Directory, filename)
	finalPath := uc.staging.GetPath(remotePath)

	if err := uc.staging.MakeDirectory(ctx, policy.Directory); err != nil {
		return domain.Backup{}, fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}

	if err := uc.db.Available(); err != nil {
		uc.logger.Errorw("Database backup: mysqldump utility not found.", "error", err)
		return domain.Backup{}, err
	}

	if policy.DumpTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, policy.DumpTimeout)
		defer cancel()
	}

	tmp, err := os.CreateTemp(filepath.Dir(finalPath), "."+filename+".*.tmp")
	if err != nil {
		return domain.Backup{}, fmt.Errorf("%w: create temp file: %v", domain.ErrStorageUnavailable, err)
	}
	tmpPath := tmp.Name()
	renamed := false
	defer func() {
		if !renamed {
			os.Remove(tmpPath)
		}
	}()

	size, rawSize, out, err := uc.dumpTo(ctx, tmp)
	if err != nil {
		uc.logger.Errorw("Database backup: Dump failed", "database", dbName, "error", err)
		return domain.Backup{}, err
	}

	if rawSize == 0 || size == 0 {
		uc.logger.Errorw("Database backup: No file created", "database", dbName, "output", out.Stderr)
		return domain.Backup{}, fmt.Errorf("%w: %s wrote no data for %s", domain.ErrBackupProducedEmptyFile, dbName, filename)
	}

	if err := os.Rename(tmpPath, finalPath); err != nil {
		return domain.Backup{}, fmt.Errorf("%w: move backup into place: %v", domain.ErrStorageUnavailable, err)
	}
	renamed = true

	if out.Stderr != "" {
		uc.logger.Warnw("Database backup: mysqldump warning", "database", dbName, "output", out.Stderr)
	}

	backup := domain.Backup{
		Filename:  filename,
		FilePath:  finalPath,
		Size:      size,
		RawSize:   rawSize,
		Database:  dbName,
		CreatedAt: start,
		Duration:  uc.clock.Now().Sub(start),
		Warnings:  out.Stderr,
	}

	uc.logger.Infow("Database backup: Backup created successfully",
		"filename", backup.Filename,
		"path", backup.FilePath,
		"size", backup.Size,
		"database", backup.Database,
	)

	return backup, nil
}

// dumpTo streams the dump through the compressor into f and closes f. It
// returns the compressed size on disk and the number of bytes the tool wrote.
func (uc *Backup) dumpTo(ctx context.Context, f *os.File) (int64, int64, domain.DumpOutput, error) {
	defer f.Close()

	zw, err := uc.compressor.NewWriter(f)
	if err != nil {
		return 0, 0, domain.DumpOutput{}, fmt.Errorf("compression: %w", err)
	}

	raw := &countingWriter{w: zw}
	out, dumpErr := uc.db.Dump(ctx, raw)
	closeErr := zw.Close()

	if dumpErr != nil {
		return 0, raw.n, out, dumpErr
	}
	if closeErr != nil {
		return 0, raw.n, out, fmt.Errorf("%w: finish compression: %v", domain.ErrStorageUnavailable, closeErr)
	}
	if err := f.Sync(); err != nil {
		return 0, raw.n, out, fmt.Errorf("%w: sync backup: %v", domain.ErrStorageUnavailable, err)
	}

	info, err := f.Stat()
	if err != nil {
		return 0, raw.n, out, fmt.Errorf("%w: stat backup: %v", domain.ErrBackupProducedEmptyFile, err)
	}
	return info.Size(), raw.n, out, nil
}
