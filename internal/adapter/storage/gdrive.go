package storage

import (
	"context"
	"fmt"
	"os"
	"path"
	"strings"
	"time"

	"github.com/semmidev/dumpwarden/internal/config"
	"github.com/semmidev/dumpwarden/internal/domain"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

// GDriveStorage keeps backups flat inside one Drive folder. The folder plays
// the role of the backup directory, so directory components of a path only
// namespace the returned BackupFile paths.
type GDriveStorage struct {
	service  *drive.Service
	folderID string
}

func NewGDrive(ctx context.Context, cfg config.DiskConfig) (*GDriveStorage, error) {
	service, err := drive.NewService(ctx, option.WithCredentialsFile(cfg.CredentialsFile))
	if err != nil {
		return nil, fmt.Errorf("failed to create drive service: %w", err)
	}

	return &GDriveStorage{
		service:  service,
		folderID: cfg.FolderID,
	}, nil
}

func (g *GDriveStorage) Upload(ctx context.Context, localPath string, remotePath string) error {
	file, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	fileMetadata := &drive.File{
		Name:     path.Base(remotePath),
		Parents:  []string{g.folderID},
		MimeType: "application/gzip",
	}

	_, err = g.service.Files.Create(fileMetadata).
		Media(file).
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to upload to gdrive: %w", err)
	}

	return nil
}

func (g *GDriveStorage) List(ctx context.Context, dir string) ([]domain.BackupFile, error) {
	query := fmt.Sprintf("'%s' in parents and trashed=false", g.folderID)

	files := make([]domain.BackupFile, 0)
	err := g.service.Files.List().
		Q(query).
		Fields("nextPageToken, files(id, name, size, modifiedTime)").
		Pages(ctx, func(page *drive.FileList) error {
			for _, f := range page.Files {
				modified, err := time.Parse(time.RFC3339, f.ModifiedTime)
				if err != nil {
					return fmt.Errorf("invalid modifiedTime for %s: %w", f.Name, err)
				}
				files = append(files, domain.BackupFile{
					Path:         path.Join(dir, f.Name),
					Size:         f.Size,
					LastModified: modified,
				})
			}
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}

	return files, nil
}

func (g *GDriveStorage) Delete(ctx context.Context, remotePath string) error {
	id, err := g.findID(ctx, path.Base(remotePath))
	if err != nil {
		return err
	}
	if id == "" {
		return fmt.Errorf("file not found: %s", remotePath)
	}

	if err := g.service.Files.Delete(id).Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}

	return nil
}

// MakeDirectory is a no-op: the configured folder is the directory.
func (g *GDriveStorage) MakeDirectory(ctx context.Context, dir string) error {
	return nil
}

func (g *GDriveStorage) Exists(ctx context.Context, remotePath string) (bool, error) {
	id, err := g.findID(ctx, path.Base(remotePath))
	if err != nil {
		return false, err
	}
	return id != "", nil
}

func (g *GDriveStorage) findID(ctx context.Context, name string) (string, error) {
	query := fmt.Sprintf("'%s' in parents and name='%s' and trashed=false",
		g.folderID, strings.ReplaceAll(name, "'", `\'`))

	fileList, err := g.service.Files.List().
		Q(query).
		Fields("files(id)").
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("failed to find file: %w", err)
	}

	if len(fileList.Files) == 0 {
		return "", nil
	}
	return fileList.Files[0].Id, nil
}
