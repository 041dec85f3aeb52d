package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"github.com/semmidev/dumpwarden/internal/adapter/compressor"
	"github.com/semmidev/dumpwarden/internal/adapter/database"
	"github.com/semmidev/dumpwarden/internal/adapter/notifier"
	"github.com/semmidev/dumpwarden/internal/adapter/storage"
	"github.com/semmidev/dumpwarden/internal/config"
	"github.com/semmidev/dumpwarden/internal/domain"
	"github.com/semmidev/dumpwarden/internal/infrastructure/logger"
	"github.com/semmidev/dumpwarden/internal/infrastructure/metrics"
	"github.com/semmidev/dumpwarden/internal/infrastructure/scheduler"
	"github.com/semmidev/dumpwarden/internal/usecase"
)

// Notifier delivers a short run summary to operators.
type Notifier interface {
	Notify(ctx context.Context, success bool, message string) error
}

type App struct {
	config  *config.Config
	policy  domain.BackupPolicy
	logger  *logger.Logger
	clock   domain.Clock
	stdout  io.Writer
	stderr  io.Writer
	target  domain.Storage
	staging *storage.LocalStorage
	remote  bool

	cleanupUC *usecase.Cleanup
	stagingUC *usecase.Cleanup
	backupUC  domain.BackupExecutor
	notifier  Notifier
	metrics   *metrics.Collector
}

type Option func(*App)

func WithClock(clock domain.Clock) Option {
	return func(a *App) { a.clock = clock }
}

func WithOutput(stdout, stderr io.Writer) Option {
	return func(a *App) {
		a.stdout = stdout
		a.stderr = stderr
	}
}

func WithNotifier(n Notifier) Option {
	return func(a *App) { a.notifier = n }
}

// WithStorage replaces the storage target built from the configured disk.
func WithStorage(s domain.Storage) Option {
	return func(a *App) { a.target = s }
}

// Report summarizes one run of the backup command.
type Report struct {
	Sweep usecase.SweepResult
	// Staged holds deletions from the local staging directory, swept only
	// when staged copies of remote backups are kept.
	Staged usecase.SweepResult
	Backup *domain.Backup
}

func New(ctx context.Context, cfg *config.Config, opts ...Option) (*App, error) {
	a := &App{
		config: cfg,
		policy: cfg.Policy(),
		clock:  domain.RealClock{},
		stdout: os.Stdout,
		stderr: os.Stderr,
	}
	for _, opt := range opts {
		opt(a)
	}

	log, err := logger.New(cfg.Backup.Logging, cfg.App.LogLevel, cfg.App.LogFile)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	a.logger = log

	if a.target == nil {
		target, err := storage.New(ctx, cfg.StorageDisk())
		if err != nil {
			return nil, fmt.Errorf("%w: disk %s: %v", domain.ErrStorageUnavailable, cfg.Backup.StorageDisk, err)
		}
		a.target = target
	}

	// Dumps land on the target directly when it is a local disk, otherwise
	// they are staged locally and uploaded afterwards.
	if local, ok := a.target.(*storage.LocalStorage); ok {
		a.staging = local
	} else {
		a.staging = storage.NewLocal(cfg.Backup.StagingPath)
		a.remote = true
	}

	db := database.NewMySQL(a.policy.Database, cfg.Database.DumpBinary, cfg.Database.ExtraArgs)
	comp := compressor.NewGzip(cfg.Backup.CompressionLevel)

	a.cleanupUC = usecase.NewCleanup(a.target, a.logger, a.clock)
	if a.remote && cfg.Backup.KeepLocal {
		a.stagingUC = usecase.NewCleanup(a.staging, a.logger, a.clock)
	}
	a.backupUC = usecase.NewBackup(db, a.staging, comp, a.logger, a.clock)

	if a.notifier == nil && cfg.Notify.Telegram.Enabled {
		tg, err := notifier.NewTelegram(cfg.Notify.Telegram)
		if err != nil {
			a.logger.Errorw("Failed to initialize Telegram notifications", "error", err)
		} else {
			a.notifier = tg
		}
	}

	if cfg.Metrics.Textfile != "" {
		a.metrics = metrics.NewCollector(nil)
	}

	return a, nil
}

// Run performs one invocation: the retention sweep unless --run, then the
// dump unless --d. A failing phase does not prevent the other one from
// running; all failures are returned joined.
func (a *App) Run(ctx context.Context, flags domain.RunFlags) (Report, error) {
	if err := flags.Validate(); err != nil {
		fmt.Fprintln(a.stderr, err)
		return Report{}, err
	}

	start := a.clock.Now()
	runLog := a.logger.With("run_id", uuid.NewString())
	fmt.Fprintln(a.stdout, "▶️  Starting database backup")
	runLog.Infow("Database backup: Run started",
		"disk", a.policy.Disk,
		"directory", a.policy.Directory,
		"retention_days", a.policy.RetentionDays,
		"run_only", flags.RunOnly,
		"delete_only", flags.DeleteOnly,
		"auto", flags.AutoCleanup,
		"all", flags.DeleteAll,
	)

	var report Report
	var errs []error

	if flags.Sweeps() {
		err := a.guard(runLog, "sweep", func() error {
			return a.sweep(ctx, flags, &report)
		})
		if a.metrics != nil {
			a.metrics.RecordSweep(len(report.Sweep.Deleted), err)
		}
		if err != nil {
			errs = append(errs, err)
		}
	}

	if flags.Dumps() {
		err := a.guard(runLog, "dump", func() error {
			b, err := a.dump(ctx)
			if err == nil {
				report.Backup = &b
			}
			return err
		})
		if a.metrics != nil {
			var b domain.Backup
			if report.Backup != nil {
				b = *report.Backup
			}
			a.metrics.RecordDump(b.Size, b.Duration, b.CreatedAt, err)
		}
		if err != nil {
			errs = append(errs, err)
		}
	}

	err := errors.Join(errs...)
	a.finish(ctx, runLog, start, report, err)
	return report, err
}

// sweep prunes the storage target and, when staged copies are kept, the
// staging directory under the same policy.
func (a *App) sweep(ctx context.Context, flags domain.RunFlags, report *Report) error {
	policy := usecase.SweepPolicy{
		Directory:     a.policy.Directory,
		RetentionDays: a.policy.RetentionDays,
		AgeBased:      flags.AgeBased(),
		DeleteAll:     flags.DeleteAll,
	}

	var errs []error
	res, err := a.cleanupUC.Execute(ctx, policy)
	report.Sweep = res
	for _, p := range res.Deleted {
		fmt.Fprintf(a.stdout, "Deleted backup: %s\n", p)
	}
	if err != nil {
		fmt.Fprintf(a.stderr, "Cleanup failed: %v\n", err)
		errs = append(errs, fmt.Errorf("sweep: %w", err))
	}

	if a.stagingUC != nil {
		staged, err := a.stagingUC.Execute(ctx, policy)
		report.Staged = staged
		for _, p := range staged.Deleted {
			fmt.Fprintf(a.stdout, "Deleted staged backup: %s\n", p)
		}
		if err != nil {
			fmt.Fprintf(a.stderr, "Staging cleanup failed: %v\n", err)
			errs = append(errs, fmt.Errorf("sweep staging: %w", err))
		}
	}

	return errors.Join(errs...)
}

func (a *App) dump(ctx context.Context) (domain.Backup, error) {
	b, err := a.backupUC.Execute(ctx, a.policy)
	if err != nil {
		if errors.Is(err, domain.ErrDumpToolUnavailable) {
			fmt.Fprintln(a.stderr, "mysqldump utility not found in system PATH.")
		} else {
			fmt.Fprintf(a.stderr, "Backup failed: %v\n", err)
		}
		return domain.Backup{}, fmt.Errorf("dump: %w", err)
	}

	if b.Warnings != "" {
		fmt.Fprintf(a.stderr, "mysqldump warning: %s\n", b.Warnings)
	}

	if a.remote {
		if err := a.publish(ctx, b); err != nil {
			fmt.Fprintf(a.stderr, "Backup upload failed: %v\n", err)
			return domain.Backup{}, fmt.Errorf("dump: %w", err)
		}
	}

	fmt.Fprintf(a.stdout, "Backup created successfully: %s (size: %.2f KB)\n", b.Filename, float64(b.Size)/1024)
	return b, nil
}

// publish moves a staged backup onto the remote storage target.
func (a *App) publish(ctx context.Context, b domain.Backup) error {
	remotePath := path.Join(a.policy.Directory, b.Filename)

	exists, err := a.target.Exists(ctx, a.policy.Directory)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}
	if !exists {
		if err := a.target.MakeDirectory(ctx, a.policy.Directory); err != nil {
			return fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
		}
	}

	if err := a.target.Upload(ctx, b.FilePath, remotePath); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}

	uploaded, err := a.target.Exists(ctx, remotePath)
	if err != nil {
		return fmt.Errorf("%w: verify upload: %v", domain.ErrStorageUnavailable, err)
	}
	if !uploaded {
		return fmt.Errorf("%w: %s missing after upload", domain.ErrStorageUnavailable, remotePath)
	}

	a.logger.Infow("Database backup: Uploaded backup", "disk", a.policy.Disk, "path", remotePath)

	if !a.config.Backup.KeepLocal {
		if err := os.Remove(b.FilePath); err != nil {
			a.logger.Warnw("Failed to remove staged backup", "path", b.FilePath, "error", err)
		}
	}
	return nil
}

// guard runs one step of a run and turns a panic into ErrUnexpected so the
// remaining steps still happen.
func (a *App) guard(log *logger.Logger, phase string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %s: %v", domain.ErrUnexpected, phase, r)
			fmt.Fprintf(a.stderr, "Database backup %s failed with exception: %v\n", phase, r)
			log.Errorw("Database backup: Exception occurred",
				"phase", phase,
				"message", fmt.Sprint(r),
				"trace", string(debug.Stack()),
			)
		}
	}()
	return fn()
}

func (a *App) finish(ctx context.Context, log *logger.Logger, start time.Time, report Report, err error) {
	if err != nil {
		log.Errorw("Database backup: Run failed", "error", err)
	} else {
		log.Infow("Database backup: Run completed",
			"deleted", len(report.Sweep.Deleted),
			"duration", a.clock.Now().Sub(start).String(),
		)
	}

	if a.notifier != nil {
		nerr := a.guard(log, "notify", func() error {
			return a.notifier.Notify(ctx, err == nil, summary(a.policy, report, err))
		})
		if nerr != nil {
			log.Warnw("Failed to send notification", "error", nerr)
		}
	}

	if a.metrics != nil {
		werr := a.guard(log, "metrics", func() error {
			a.metrics.RecordRun(start, err)
			return a.metrics.WriteTextfile(a.config.Metrics.Textfile)
		})
		if werr != nil {
			log.Warnw("Failed to write metrics", "error", werr)
		}
	}
}

func summary(policy domain.BackupPolicy, report Report, err error) string {
	if err != nil {
		return fmt.Sprintf("❌ Backup failed\n\n🗄 Database: %s\n⚠️ %v", policy.Database.Name, err)
	}
	msg := fmt.Sprintf("✅ Backup run completed\n\n🗄 Database: %s\n🧹 Deleted: %d", policy.Database.Name, len(report.Sweep.Deleted))
	if b := report.Backup; b != nil {
		msg += fmt.Sprintf("\n📁 File: %s\n📊 Size: %.2f MB", b.Filename, float64(b.Size)/(1024*1024))
	}
	return msg
}

// Schedule runs the --auto flow on the configured cadence until ctx is
// cancelled. Runs never overlap.
func (a *App) Schedule(ctx context.Context) error {
	if !a.config.Schedule.Auto {
		return fmt.Errorf("%w: automatic scheduling is disabled", domain.ErrInvalidConfiguration)
	}

	spec, err := a.CronSpec()
	if err != nil {
		return err
	}

	sched := scheduler.New(a.logger)
	if err := sched.AddJob(spec, func(jobCtx context.Context) error {
		_, err := a.Run(jobCtx, domain.RunFlags{AutoCleanup: true})
		return err
	}); err != nil {
		return fmt.Errorf("failed to schedule backup: %w", err)
	}

	sched.Start(ctx)
	a.logger.Infow("Scheduler started", "spec", spec)
	fmt.Fprintf(a.stdout, "Scheduled backups: %s\n", spec)

	<-ctx.Done()
	sched.Stop()
	return nil
}

// CronSpec is the cron expression derived from the schedule settings.
func (a *App) CronSpec() (string, error) {
	s := a.config.Schedule
	spec, err := scheduler.CronSpec(s.Frequency, s.Time, s.Day)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrInvalidConfiguration, err)
	}
	return spec, nil
}

func (a *App) Shutdown() {
	a.logger.Close()
}
