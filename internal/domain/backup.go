package domain

import (
	"context"
	"time"
)

// BackupPolicy is the configuration snapshot a single invocation works from.
type BackupPolicy struct {
	Disk          string
	Directory     string
	RetentionDays int
	Logging       bool
	DumpTimeout   time.Duration
	Database      DatabaseParams
}

type DatabaseParams struct {
	Host     string
	Port     int
	Username string
	Password string
	Name     string
}

// Backup describes a dump artifact written by the executor.
type Backup struct {
	Filename  string
	FilePath  string
	Size      int64
	RawSize   int64
	Database  string
	CreatedAt time.Time
	Duration  time.Duration
	Warnings  string
}

type BackupExecutor interface {
	Execute(ctx context.Context, policy BackupPolicy) (Backup, error)
}
