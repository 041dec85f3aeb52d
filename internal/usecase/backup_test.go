package usecase

import (
	"compress/gzip"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/semmidev/dumpwarden/internal/adapter/compressor"
	"github.com/semmidev/dumpwarden/internal/adapter/storage"
	"github.com/semmidev/dumpwarden/internal/domain"
	"github.com/semmidev/dumpwarden/internal/testutil"
	"go.uber.org/zap"

	. "github.com/smartystreets/goconvey/convey"
)

func testPolicy() domain.BackupPolicy {
	return domain.BackupPolicy{
		Disk:          "local",
		Directory:     "backup",
		RetentionDays: 15,
		Database:      domain.DatabaseParams{Host: "127.0.0.1", Port: 3306, Name: "shop"},
	}
}

func TestBackup(t *testing.T) {
	Convey("Given a Backup use case staging on a local disk", t, func() {
		root := t.TempDir()
		clock := testutil.FixedClock()
		db := &testutil.FakeDatabase{Name: "shop", Output: []byte("CREATE TABLE t (id INT);\n")}
		uc := NewBackup(db, storage.NewLocal(root), compressor.NewGzip(gzip.DefaultCompression), zap.NewNop().Sugar(), clock)
		ctx := context.Background()

		Convey("When the dump succeeds", func() {
			backup, err := uc.Execute(ctx, testPolicy())

			Convey("It should write a timestamped gzip file in the directory", func() {
				So(err, ShouldBeNil)
				So(backup.Filename, ShouldEqual, "backup-2024-01-15_10-30-00.gz")
				So(backup.FilePath, ShouldEqual, filepath.Join(root, "backup", "backup-2024-01-15_10-30-00.gz"))
				So(backup.Database, ShouldEqual, "shop")
				So(backup.RawSize, ShouldEqual, int64(len(db.Output)))
				So(backup.Size, ShouldBeGreaterThan, 0)
				So(db.Calls, ShouldEqual, 1)

				f, err := os.Open(backup.FilePath)
				So(err, ShouldBeNil)
				defer f.Close()
				r, err := gzip.NewReader(f)
				So(err, ShouldBeNil)
				content, err := io.ReadAll(r)
				So(err, ShouldBeNil)
				So(content, ShouldResemble, db.Output)

				info, _ := f.Stat()
				So(info.Size(), ShouldEqual, backup.Size)
			})

			Convey("It should leave only the final file behind", func() {
				entries, err := os.ReadDir(filepath.Join(root, "backup"))
				So(err, ShouldBeNil)
				So(len(entries), ShouldEqual, 1)
			})
		})

		Convey("When two dumps are taken more than a second apart", func() {
			first, err := uc.Execute(ctx, testPolicy())
			So(err, ShouldBeNil)
			clock.Advance(1500 * time.Millisecond)
			second, err := uc.Execute(ctx, testPolicy())
			So(err, ShouldBeNil)

			Convey("Their names are distinct and ordered", func() {
				So(first.Filename, ShouldNotEqual, second.Filename)
				So(first.Filename < second.Filename, ShouldBeTrue)
			})
		})

		Convey("When the dump tool is missing", func() {
			db.Missing = true

			_, err := uc.Execute(ctx, testPolicy())

			Convey("It fails without invoking the dump or leaving files", func() {
				So(errors.Is(err, domain.ErrDumpToolUnavailable), ShouldBeTrue)
				So(db.Calls, ShouldEqual, 0)

				entries, err := os.ReadDir(filepath.Join(root, "backup"))
				So(err, ShouldBeNil)
				So(entries, ShouldBeEmpty)
			})
		})

		Convey("When the dump exits zero but writes nothing", func() {
			db.Output = nil

			_, err := uc.Execute(ctx, testPolicy())

			Convey("It is reported as an empty backup and nothing remains", func() {
				So(errors.Is(err, domain.ErrBackupProducedEmptyFile), ShouldBeTrue)
				entries, err := os.ReadDir(filepath.Join(root, "backup"))
				So(err, ShouldBeNil)
				So(entries, ShouldBeEmpty)
			})
		})

		Convey("When the dump process fails", func() {
			db.DumpErr = &domain.DumpError{Tool: "mysqldump", ExitCode: 2, Stderr: "Access denied"}

			_, err := uc.Execute(ctx, testPolicy())

			Convey("It returns the process failure and removes the partial file", func() {
				So(errors.Is(err, domain.ErrDumpProcessFailed), ShouldBeTrue)
				entries, err := os.ReadDir(filepath.Join(root, "backup"))
				So(err, ShouldBeNil)
				So(entries, ShouldBeEmpty)
			})
		})

		Convey("When the tool warns on stderr", func() {
			db.Stderr = "Using a password on the command line interface can be insecure."

			backup, err := uc.Execute(ctx, testPolicy())

			Convey("The backup still succeeds and carries the warning", func() {
				So(err, ShouldBeNil)
				So(backup.Warnings, ShouldEqual, db.Stderr)
			})
		})

		Convey("When the directory cannot be created", func() {
			So(os.WriteFile(filepath.Join(root, "backup"), []byte("x"), 0644), ShouldBeNil)

			_, err := uc.Execute(ctx, testPolicy())

			Convey("It reports the storage as unavailable", func() {
				So(errors.Is(err, domain.ErrStorageUnavailable), ShouldBeTrue)
				So(db.Calls, ShouldEqual, 0)
			})
		})
	})
}

func TestBackupFilename(t *testing.T) {
	Convey("Given BackupFilename", t, func() {
		at := time.Date(2025, 3, 9, 7, 5, 2, 0, time.UTC)

		Convey("It is filesystem safe and second precise", func() {
			name := BackupFilename(at, ".gz")
			So(name, ShouldEqual, "backup-2025-03-09_07-05-02.gz")
			So(name, ShouldNotContainSubstring, ":")
			So(name, ShouldNotContainSubstring, " ")
		})

		Convey("IsBackupFile recognizes finished backups only", func() {
			So(IsBackupFile("backup/backup-2025-03-09_07-05-02.gz"), ShouldBeTrue)
			So(IsBackupFile("backup/.backup-2025-03-09_07-05-02.gz.1.tmp"), ShouldBeFalse)
			So(IsBackupFile("backup/readme.txt"), ShouldBeFalse)
		})
	})
}
