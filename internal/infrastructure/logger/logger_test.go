package logger

import (
	"os"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestLogger(t *testing.T) {
	Convey("Given the Logger package", t, func() {
		Convey("New function", func() {
			Convey("When creating a logger with console output only", func() {
				logger, err := New(true, "info", "")

				Convey("It should create a logger successfully", func() {
					So(err, ShouldBeNil)
					So(logger, ShouldNotBeNil)
					So(func() { logger.Infow("Test log", "file", "backup-x.gz") }, ShouldNotPanic)
				})
			})

			Convey("When creating a logger with a log file in a missing directory", func() {
				tempDir := t.TempDir()
				logFile := filepath.Join(tempDir, "logs", "backup.log")

				logger, err := New(true, "debug", logFile)

				Convey("It should create the directory and write JSON records", func() {
					So(err, ShouldBeNil)
					So(logger, ShouldNotBeNil)

					logger.Infow("Database backup: Deleted backup file", "file", "backup/backup-1.gz")
					logger.Close()

					content, err := os.ReadFile(logFile)
					So(err, ShouldBeNil)
					So(string(content), ShouldContainSubstring, `"file":"backup/backup-1.gz"`)
					So(string(content), ShouldContainSubstring, `"level":"INFO"`)
				})
			})

			Convey("When logging is disabled", func() {
				tempDir := t.TempDir()
				logFile := filepath.Join(tempDir, "backup.log")

				logger, err := New(false, "info", logFile)

				Convey("It should discard records and create no file", func() {
					So(err, ShouldBeNil)
					logger.Errorw("ignored")
					logger.Close()

					_, err := os.Stat(logFile)
					So(os.IsNotExist(err), ShouldBeTrue)
				})
			})

			Convey("When creating a logger with an invalid log level", func() {
				logger, err := New(true, "invalid", "")

				Convey("It should default to Info level and create a logger", func() {
					So(err, ShouldBeNil)
					So(logger, ShouldNotBeNil)
					So(logger.Desugar().Core().Enabled(-1), ShouldBeFalse)
				})
			})

			Convey("When the log directory cannot be created", func() {
				tempDir := t.TempDir()
				blocker := filepath.Join(tempDir, "file")
				So(os.WriteFile(blocker, []byte("x"), 0644), ShouldBeNil)

				logger, err := New(true, "info", filepath.Join(blocker, "sub", "backup.log"))

				Convey("It should return an error", func() {
					So(err, ShouldNotBeNil)
					So(err.Error(), ShouldContainSubstring, "failed to create log directory")
					So(logger, ShouldBeNil)
				})
			})
		})

		Convey("With method", func() {
			logger, err := New(true, "info", "")
			So(err, ShouldBeNil)

			child := logger.With("run_id", "abc")

			Convey("It should return a usable child logger", func() {
				So(child, ShouldNotBeNil)
				So(func() { child.Warnw("warn") }, ShouldNotPanic)
			})
		})
	})
}
