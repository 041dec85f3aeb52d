package storage

import (
	"context"
	"fmt"

	"github.com/semmidev/dumpwarden/internal/config"
	"github.com/semmidev/dumpwarden/internal/domain"
)

// New builds the storage target for a configured disk.
func New(ctx context.Context, disk config.DiskConfig) (domain.Storage, error) {
	switch disk.Driver {
	case "local":
		return NewLocal(disk.Root), nil
	case "s3":
		return NewS3(ctx, disk)
	case "gdrive":
		return NewGDrive(ctx, disk)
	default:
		return nil, fmt.Errorf("unknown storage driver: %s", disk.Driver)
	}
}
