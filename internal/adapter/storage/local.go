package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/semmidev/dumpwarden/internal/domain"
)

type LocalStorage struct {
	basePath string
}

func NewLocal(basePath string) *LocalStorage {
	return &LocalStorage{basePath: basePath}
}

// Upload copies localPath to remotePath under the storage root. Copying a
// file onto itself is a no-op, which happens when the dump was staged on this
// same disk.
func (l *LocalStorage) Upload(ctx context.Context, localPath string, remotePath string) error {
	destPath := l.GetPath(remotePath)

	if same, err := samePath(localPath, destPath); err == nil && same {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	source, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("failed to open source: %w", err)
	}
	defer source.Close()

	dest, err := os.CreateTemp(filepath.Dir(destPath), "."+filepath.Base(destPath)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create dest: %w", err)
	}
	defer os.Remove(dest.Name())

	if _, err := io.Copy(dest, source); err != nil {
		dest.Close()
		return fmt.Errorf("failed to copy: %w", err)
	}
	if err := dest.Close(); err != nil {
		return fmt.Errorf("failed to copy: %w", err)
	}

	if err := os.Rename(dest.Name(), destPath); err != nil {
		return fmt.Errorf("failed to move into place: %w", err)
	}
	return nil
}

// List returns the regular files directly inside dir. A missing directory
// yields no files.
func (l *LocalStorage) List(ctx context.Context, dir string) ([]domain.BackupFile, error) {
	entries, err := os.ReadDir(l.GetPath(dir))
	if errors.Is(err, fs.ErrNotExist) {
		return []domain.BackupFile{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	files := make([]domain.BackupFile, 0, len(entries))
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		info, err := entry.Info()
		if errors.Is(err, fs.ErrNotExist) {
			// removed since ReadDir
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to get file info for %s: %w", entry.Name(), err)
		}
		files = append(files, domain.BackupFile{
			Path:         path.Join(dir, entry.Name()),
			Size:         info.Size(),
			LastModified: info.ModTime(),
		})
	}

	return files, nil
}

func (l *LocalStorage) Delete(ctx context.Context, remotePath string) error {
	if err := os.Remove(l.GetPath(remotePath)); err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

func (l *LocalStorage) MakeDirectory(ctx context.Context, dir string) error {
	if err := os.MkdirAll(l.GetPath(dir), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	return nil
}

func (l *LocalStorage) Exists(ctx context.Context, remotePath string) (bool, error) {
	_, err := os.Stat(l.GetPath(remotePath))
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to stat %s: %w", remotePath, err)
	}
	return true, nil
}

// GetPath maps a slash-separated storage path to its location on disk.
func (l *LocalStorage) GetPath(remotePath string) string {
	return filepath.Join(l.basePath, filepath.FromSlash(remotePath))
}

func samePath(a, b string) (bool, error) {
	absA, err := filepath.Abs(a)
	if err != nil {
		return false, err
	}
	absB, err := filepath.Abs(b)
	if err != nil {
		return false, err
	}
	return absA == absB, nil
}
