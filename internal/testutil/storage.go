package testutil

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/semmidev/dumpwarden/internal/domain"
	. "github.com/smartystreets/goconvey/convey"
)

// FlakyStorage wraps a storage target and fails chosen operations.
type FlakyStorage struct {
	domain.Storage
	FailList   bool
	FailDelete map[string]bool
	Deleted    []string
}

func (s *FlakyStorage) List(ctx context.Context, dir string) ([]domain.BackupFile, error) {
	if s.FailList {
		return nil, errors.New("listing refused")
	}
	return s.Storage.List(ctx, dir)
}

func (s *FlakyStorage) Delete(ctx context.Context, p string) error {
	if s.FailDelete[p] {
		return errors.New("permission denied")
	}
	if err := s.Storage.Delete(ctx, p); err != nil {
		return err
	}
	s.Deleted = append(s.Deleted, p)
	return nil
}

// WriteAged creates dir/name with the given modification time. It must be
// called inside a Convey block.
func WriteAged(dir, name string, modified time.Time) string {
	So(os.MkdirAll(dir, 0755), ShouldBeNil)
	p := filepath.Join(dir, name)
	So(os.WriteFile(p, []byte("-- dump"), 0644), ShouldBeNil)
	So(os.Chtimes(p, modified, modified), ShouldBeNil)
	return p
}

// Exists reports whether p exists on disk.
func Exists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
