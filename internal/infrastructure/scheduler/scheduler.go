package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// Logger is the subset of the application logger the scheduler reports to.
type Logger interface {
	Infow(msg string, keysAndValues ...interface{})
	Errorw(msg string, keysAndValues ...interface{})
}

type Scheduler struct {
	cron   *cron.Cron
	logger Logger
	ctx    context.Context
}

// New returns a scheduler whose jobs never overlap: a tick that arrives
// while the previous run is still in progress is skipped.
func New(logger Logger) *Scheduler {
	cl := cronLogger{logger}
	return &Scheduler{
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		logger: logger,
		ctx:    context.Background(),
	}
}

func (s *Scheduler) AddJob(spec string, job func(context.Context) error) error {
	_, err := s.cron.AddFunc(spec, func() {
		if err := job(s.ctx); err != nil {
			s.logger.Errorw("Scheduled job failed", "spec", spec, "error", err)
		}
	})
	return err
}

// Start begins firing jobs. Jobs receive ctx, so cancelling it interrupts a
// run in progress and lets Stop return.
func (s *Scheduler) Start(ctx context.Context) {
	s.ctx = ctx
	s.cron.Start()
}

func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

// CronSpec converts a daily/weekly/monthly cadence at HH:MM into a cron
// expression with a seconds field. For weekly schedules day is the day of
// week (0 = Sunday), for monthly ones the day of month.
func CronSpec(frequency, at string, day int) (string, error) {
	t, err := time.Parse("15:04", at)
	if err != nil {
		return "", fmt.Errorf("invalid schedule time %q: %w", at, err)
	}

	switch frequency {
	case "daily":
		return fmt.Sprintf("0 %d %d * * *", t.Minute(), t.Hour()), nil
	case "weekly":
		if day < 0 || day > 6 {
			return "", fmt.Errorf("invalid day of week %d", day)
		}
		return fmt.Sprintf("0 %d %d * * %d", t.Minute(), t.Hour(), day), nil
	case "monthly":
		if day < 1 || day > 31 {
			return "", fmt.Errorf("invalid day of month %d", day)
		}
		return fmt.Sprintf("0 %d %d %d * *", t.Minute(), t.Hour(), day), nil
	default:
		return "", fmt.Errorf("unknown schedule frequency %q", frequency)
	}
}

type cronLogger struct {
	logger Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Infow("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Errorw("cron: "+msg, append(keysAndValues, "error", err)...)
}
