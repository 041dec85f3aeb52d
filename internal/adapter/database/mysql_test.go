package database

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/semmidev/dumpwarden/internal/domain"
	. "github.com/smartystreets/goconvey/convey"
)

// fakeDump writes an executable shell script standing in for mysqldump. The
// script records its arguments and the credentials file it was given.
func fakeDump(dir, body string) string {
	script := filepath.Join(dir, "mysqldump")
	content := "#!/bin/sh\n" +
		`echo "$@" > "` + filepath.Join(dir, "args") + `"` + "\n" +
		`for a in "$@"; do case "$a" in --defaults-extra-file=*) f="${a#--defaults-extra-file=}"; echo "$f" > "` + filepath.Join(dir, "cnfpath") + `"; cat "$f" > "` + filepath.Join(dir, "cnf") + `";; esac; done` + "\n" +
		body + "\n"
	So(os.WriteFile(script, []byte(content), 0755), ShouldBeNil)
	return script
}

func readFile(path string) string {
	b, err := os.ReadFile(path)
	So(err, ShouldBeNil)
	return strings.TrimSpace(string(b))
}

func TestMySQLDatabase(t *testing.T) {
	Convey("Given a MySQLDatabase", t, func() {
		tempDir := t.TempDir()
		params := domain.DatabaseParams{
			Host:     "db.internal",
			Port:     3307,
			Username: "backup",
			Password: `p"a ss\word`,
			Name:     "shop",
		}

		Convey("Available", func() {
			Convey("When the binary is missing", func() {
				db := NewMySQL(params, filepath.Join(tempDir, "nope"), nil)
				err := db.Available()

				So(err, ShouldNotBeNil)
				So(errors.Is(err, domain.ErrDumpToolUnavailable), ShouldBeTrue)
			})

			Convey("When the binary exists", func() {
				db := NewMySQL(params, fakeDump(tempDir, "exit 0"), nil)
				So(db.Available(), ShouldBeNil)
			})
		})

		Convey("Dump", func() {
			ctx := context.Background()

			Convey("When mysqldump succeeds", func() {
				script := fakeDump(tempDir, `echo "CREATE TABLE t (id INT);"; echo "some warning" >&2`)
				db := NewMySQL(params, script, []string{"--no-tablespaces"}).WithTempDir(tempDir)

				var out bytes.Buffer
				res, err := db.Dump(ctx, &out)

				Convey("It should stream stdout and keep the password off the command line", func() {
					So(err, ShouldBeNil)
					So(out.String(), ShouldEqual, "CREATE TABLE t (id INT);\n")
					So(res.Stderr, ShouldEqual, "some warning")

					args := readFile(filepath.Join(tempDir, "args"))
					So(args, ShouldStartWith, "--defaults-extra-file=")
					So(args, ShouldContainSubstring, "--host=db.internal")
					So(args, ShouldContainSubstring, "--port=3307")
					So(args, ShouldContainSubstring, "--no-tablespaces")
					So(args, ShouldEndWith, "shop")
					So(args, ShouldNotContainSubstring, "word")

					cnf := readFile(filepath.Join(tempDir, "cnf"))
					So(cnf, ShouldContainSubstring, "[client]")
					So(cnf, ShouldContainSubstring, `user="backup"`)
					So(cnf, ShouldContainSubstring, `password="p\"a ss\\word"`)
				})

				Convey("It should remove the credentials file", func() {
					So(err, ShouldBeNil)
					_, statErr := os.Stat(readFile(filepath.Join(tempDir, "cnfpath")))
					So(os.IsNotExist(statErr), ShouldBeTrue)
				})
			})

			Convey("When mysqldump exits non-zero", func() {
				script := fakeDump(tempDir, `echo "Access denied" >&2; exit 2`)
				db := NewMySQL(params, script, nil).WithTempDir(tempDir)

				_, err := db.Dump(ctx, &bytes.Buffer{})

				Convey("It should report the exit code and diagnostics", func() {
					So(errors.Is(err, domain.ErrDumpProcessFailed), ShouldBeTrue)

					var dumpErr *domain.DumpError
					So(errors.As(err, &dumpErr), ShouldBeTrue)
					So(dumpErr.ExitCode, ShouldEqual, 2)
					So(dumpErr.Stderr, ShouldEqual, "Access denied")
				})

				Convey("It should still remove the credentials file", func() {
					_, statErr := os.Stat(readFile(filepath.Join(tempDir, "cnfpath")))
					So(os.IsNotExist(statErr), ShouldBeTrue)
				})
			})

			Convey("When the context expires", func() {
				script := fakeDump(tempDir, "exec sleep 5")
				db := NewMySQL(params, script, nil).WithTempDir(tempDir)

				ctx, cancel := context.WithTimeout(ctx, 200*time.Millisecond)
				defer cancel()
				_, err := db.Dump(ctx, &bytes.Buffer{})

				Convey("It should fail with the deadline as cause", func() {
					So(errors.Is(err, domain.ErrDumpProcessFailed), ShouldBeTrue)
					So(errors.Is(err, context.DeadlineExceeded), ShouldBeTrue)
				})
			})

			Convey("When the binary is missing", func() {
				db := NewMySQL(params, filepath.Join(tempDir, "nope"), nil).WithTempDir(tempDir)
				_, err := db.Dump(ctx, &bytes.Buffer{})

				Convey("It should not create a credentials file", func() {
					So(errors.Is(err, domain.ErrDumpToolUnavailable), ShouldBeTrue)
					matches, _ := filepath.Glob(filepath.Join(tempDir, "mysqldump-*.cnf"))
					So(matches, ShouldBeEmpty)
				})
			})
		})
	})
}

func TestQuoteOption(t *testing.T) {
	Convey("Given option values", t, func() {
		So(quoteOption("plain"), ShouldEqual, `"plain"`)
		So(quoteOption(`a"b`), ShouldEqual, `"a\"b"`)
		So(quoteOption(`a\b`), ShouldEqual, `"a\\b"`)
		So(quoteOption("a\nb"), ShouldEqual, `"a\nb"`)
	})
}
