package config

import (
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/semmidev/dumpwarden/internal/domain"
	"github.com/spf13/viper"
)

type Config struct {
	App      AppConfig             `mapstructure:"app"`
	Database DatabaseConfig        `mapstructure:"database"`
	Backup   BackupConfig          `mapstructure:"backup"`
	Schedule ScheduleConfig        `mapstructure:"schedule"`
	Disks    map[string]DiskConfig `mapstructure:"disks"`
	Notify   NotifyConfig          `mapstructure:"notify"`
	Metrics  MetricsConfig         `mapstructure:"metrics"`
}

type AppConfig struct {
	Name     string `mapstructure:"name"`
	LogLevel string `mapstructure:"log_level"`
	LogFile  string `mapstructure:"log_file"`
}

type DatabaseConfig struct {
	Host       string   `mapstructure:"host"`
	Port       int      `mapstructure:"port"`
	Username   string   `mapstructure:"username"`
	Password   string   `mapstructure:"password"`
	Database   string   `mapstructure:"database"`
	DumpBinary string   `mapstructure:"dump_binary"`
	ExtraArgs  []string `mapstructure:"extra_args"`
}

type BackupConfig struct {
	StorageDisk      string        `mapstructure:"storage_disk"`
	StorageDirectory string        `mapstructure:"storage_directory"`
	CleanupDays      int           `mapstructure:"cleanup_days"`
	Logging          bool          `mapstructure:"logging"`
	DumpTimeout      time.Duration `mapstructure:"dump_timeout"`
	CompressionLevel int           `mapstructure:"compression_level"`

	// Local directory dumps are written to before they reach a remote disk.
	StagingPath string `mapstructure:"staging_path"`
	KeepLocal   bool   `mapstructure:"keep_local"`
}

type ScheduleConfig struct {
	Auto      bool   `mapstructure:"auto"`
	Time      string `mapstructure:"time"`
	Frequency string `mapstructure:"frequency"`
	Day       int    `mapstructure:"day"`
}

type DiskConfig struct {
	Driver string `mapstructure:"driver"`

	// Local
	Root string `mapstructure:"root"`

	// AWS S3 or S3-compatible
	Region    string `mapstructure:"region"`
	Bucket    string `mapstructure:"bucket"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Prefix    string `mapstructure:"prefix"`

	// Google Drive
	CredentialsFile string `mapstructure:"credentials_file"`
	FolderID        string `mapstructure:"folder_id"`
}

type NotifyConfig struct {
	Telegram TelegramConfig `mapstructure:"telegram"`
}

type TelegramConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	BotToken  string `mapstructure:"bot_token"`
	ChatID    string `mapstructure:"chat_id"`
	OnSuccess bool   `mapstructure:"on_success"`
	OnFailure bool   `mapstructure:"on_failure"`
}

type MetricsConfig struct {
	Textfile string `mapstructure:"textfile"`
}

var envBindings = map[string]string{
	"backup.cleanup_days":      "BACKUP_DB_CLEANUP_DAYS",
	"backup.storage_disk":      "BACKUP_DB_STORAGE_DISK",
	"backup.storage_directory": "BACKUP_DB_STORAGE_DIRECTORY",
	"backup.logging":           "BACKUP_DB_LOGGING",
	"backup.dump_timeout":      "BACKUP_DB_DUMP_TIMEOUT",
	"schedule.auto":            "BACKUP_DB_AUTO_SCHEDULE",
	"schedule.time":            "BACKUP_DB_SCHEDULE_TIME",
	"schedule.frequency":       "BACKUP_DB_SCHEDULE_FREQUENCY",
	"schedule.day":             "BACKUP_DB_SCHEDULE_DAY",
	"database.host":            "DB_HOST",
	"database.port":            "DB_PORT",
	"database.username":        "DB_USERNAME",
	"database.password":        "DB_PASSWORD",
	"database.database":        "DB_DATABASE",
	"app.log_file":             "BACKUP_DB_LOG_FILE",
	"metrics.textfile":         "BACKUP_DB_METRICS_TEXTFILE",
}

// Load reads the optional YAML file at path and applies environment
// overrides on top of it.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "dumpwarden")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.log_file", "storage/logs/backup.log")

	v.SetDefault("database.host", "127.0.0.1")
	v.SetDefault("database.port", 3306)
	v.SetDefault("database.dump_binary", "mysqldump")

	v.SetDefault("backup.storage_disk", "local")
	v.SetDefault("backup.storage_directory", "backup")
	v.SetDefault("backup.cleanup_days", 15)
	v.SetDefault("backup.logging", true)
	v.SetDefault("backup.compression_level", 6)
	v.SetDefault("backup.staging_path", "storage/app")

	v.SetDefault("schedule.auto", true)
	v.SetDefault("schedule.time", "00:15")
	v.SetDefault("schedule.frequency", "daily")
	v.SetDefault("schedule.day", 1)

	v.SetDefault("disks.local.driver", "local")
	v.SetDefault("disks.local.root", "storage/app")

	v.SetDefault("notify.telegram.on_success", true)
	v.SetDefault("notify.telegram.on_failure", true)
}

func (c *Config) Validate() error {
	if c.Backup.CleanupDays < 0 {
		return fmt.Errorf("%w: backup.cleanup_days must not be negative, got %d",
			domain.ErrInvalidConfiguration, c.Backup.CleanupDays)
	}

	dir := c.Backup.StorageDirectory
	if path.IsAbs(dir) || strings.HasPrefix(path.Clean(dir), "..") {
		return fmt.Errorf("%w: backup.storage_directory must be relative to the disk root",
			domain.ErrInvalidConfiguration)
	}

	if c.Backup.DumpTimeout < 0 {
		return fmt.Errorf("%w: backup.dump_timeout must not be negative", domain.ErrInvalidConfiguration)
	}

	if c.Backup.CompressionLevel < -1 || c.Backup.CompressionLevel > 9 {
		return fmt.Errorf("%w: backup.compression_level must be between -1 and 9",
			domain.ErrInvalidConfiguration)
	}

	if c.Database.Database == "" {
		return fmt.Errorf("%w: database.database is required", domain.ErrInvalidConfiguration)
	}
	if c.Database.Host == "" {
		return fmt.Errorf("%w: database.host is required", domain.ErrInvalidConfiguration)
	}

	disk, ok := c.Disks[c.Backup.StorageDisk]
	if !ok {
		return fmt.Errorf("%w: disk %q is not configured", domain.ErrInvalidConfiguration, c.Backup.StorageDisk)
	}
	if err := disk.validate(); err != nil {
		return fmt.Errorf("%w: disk %q: %v", domain.ErrInvalidConfiguration, c.Backup.StorageDisk, err)
	}

	if err := c.Schedule.validate(); err != nil {
		return fmt.Errorf("%w: schedule: %v", domain.ErrInvalidConfiguration, err)
	}

	if c.Notify.Telegram.Enabled && (c.Notify.Telegram.BotToken == "" || c.Notify.Telegram.ChatID == "") {
		return fmt.Errorf("%w: notify.telegram requires bot_token and chat_id", domain.ErrInvalidConfiguration)
	}

	return nil
}

func (d DiskConfig) validate() error {
	switch d.Driver {
	case "local":
		if d.Root == "" {
			return fmt.Errorf("root is required")
		}
	case "s3":
		if d.Bucket == "" {
			return fmt.Errorf("bucket is required")
		}
	case "gdrive":
		if d.FolderID == "" || d.CredentialsFile == "" {
			return fmt.Errorf("folder_id and credentials_file are required")
		}
	default:
		return fmt.Errorf("unknown driver %q", d.Driver)
	}
	return nil
}

func (s ScheduleConfig) validate() error {
	if _, err := time.Parse("15:04", s.Time); err != nil {
		return fmt.Errorf("time %q is not HH:MM", s.Time)
	}

	switch s.Frequency {
	case "daily":
	case "weekly":
		if s.Day < 0 || s.Day > 6 {
			return fmt.Errorf("weekly day must be 0-6, got %d", s.Day)
		}
	case "monthly":
		if s.Day < 1 || s.Day > 31 {
			return fmt.Errorf("monthly day must be 1-31, got %d", s.Day)
		}
	default:
		return fmt.Errorf("unknown frequency %q", s.Frequency)
	}
	return nil
}

// StorageDisk returns the configuration of the active storage target.
func (c *Config) StorageDisk() DiskConfig {
	return c.Disks[c.Backup.StorageDisk]
}

// Policy builds the immutable snapshot handed to the sweep and dump phases.
func (c *Config) Policy() domain.BackupPolicy {
	return domain.BackupPolicy{
		Disk:          c.Backup.StorageDisk,
		Directory:     path.Clean(c.Backup.StorageDirectory),
		RetentionDays: c.Backup.CleanupDays,
		Logging:       c.Backup.Logging,
		DumpTimeout:   c.Backup.DumpTimeout,
		Database: domain.DatabaseParams{
			Host:     c.Database.Host,
			Port:     c.Database.Port,
			Username: c.Database.Username,
			Password: c.Database.Password,
			Name:     c.Database.Database,
		},
	}
}
