package usecase

import (
	"io"
	"path"
	"strings"
	"time"
)

const (
	BackupPrefix    = "backup-"
	timestampFormat = "2006-01-02_15-04-05"
)

// Logger is the structured logger the use cases report to.
type Logger interface {
	Infow(msg string, keysAndValues ...interface{})
	Warnw(msg string, keysAndValues ...interface{})
	Errorw(msg string, keysAndValues ...interface{})
}

// BackupFilename names a backup taken at t. Names sort in creation order.
func BackupFilename(t time.Time, ext string) string {
	return BackupPrefix + t.Format(timestampFormat) + ext
}

// IsBackupFile reports whether p names a finished backup. In-flight dumps
// are written to dot-prefixed temp names and never match.
func IsBackupFile(p string) bool {
	return strings.HasPrefix(path.Base(p), BackupPrefix)
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
