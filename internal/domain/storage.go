package domain

import (
	"context"
	"time"
)

// BackupFile is a file on a storage target. Path is relative to the target root.
type BackupFile struct {
	Path         string
	Size         int64
	LastModified time.Time
}

// Storage is a backup destination. List must return an empty slice, not an
// error, when dir does not exist.
type Storage interface {
	Upload(ctx context.Context, localPath string, remotePath string) error
	List(ctx context.Context, dir string) ([]BackupFile, error)
	Delete(ctx context.Context, path string) error
	MakeDirectory(ctx context.Context, dir string) error
	Exists(ctx context.Context, path string) (bool, error)
}
