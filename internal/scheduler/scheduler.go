package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/Dan9191/bank-autopay/internal/models"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Settler settles every due payment across all users
type Settler interface {
	ProcessAllDuePayments(ctx context.Context) (models.SettlementResult, error)
}

// OverdueSweeper marks overdrafts past their due date
type OverdueSweeper interface {
	CheckOverdueOverdrafts(ctx context.Context)
}

// Config holds the cron specs of the background jobs. An empty spec disables
// the job.
type Config struct {
	SettlementSchedule   string
	OverdueSweepSchedule string
}

// Scheduler runs settlement and the overdue sweep in the background. A job
// whose previous run is still in progress is skipped.
type Scheduler struct {
	cron   *cron.Cron
	log    *logrus.Logger
	ctx    context.Context
	cancel context.CancelFunc
}

func NewScheduler(settler Settler, sweeper OverdueSweeper, cfg Config, log *logrus.Logger) (*Scheduler, error) {
	cl := cronLogger{log: log}
	c := cron.New(
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{cron: c, log: log, ctx: ctx, cancel: cancel}

	if cfg.SettlementSchedule != "" {
		if _, err := c.AddFunc(cfg.SettlementSchedule, func() { s.settle(settler) }); err != nil {
			cancel()
			return nil, fmt.Errorf("invalid settlement schedule %q: %w", cfg.SettlementSchedule, err)
		}
	}
	if cfg.OverdueSweepSchedule != "" {
		if _, err := c.AddFunc(cfg.OverdueSweepSchedule, func() { sweeper.CheckOverdueOverdrafts(s.ctx) }); err != nil {
			cancel()
			return nil, fmt.Errorf("invalid overdue sweep schedule %q: %w", cfg.OverdueSweepSchedule, err)
		}
	}
	return s, nil
}

func (s *Scheduler) settle(settler Settler) {
	start := time.Now()
	result, err := settler.ProcessAllDuePayments(s.ctx)
	if err != nil {
		s.log.WithError(err).Error("Scheduled settlement failed")
		return
	}
	s.log.WithFields(logrus.Fields{
		"processed":    result.Processed,
		"successful":   result.Successful,
		"failed":       result.Failed,
		"insufficient": result.Insufficient,
		"duration":     time.Since(start).String(),
	}).Info("Scheduled settlement finished")
}

// Jobs returns the number of registered jobs
func (s *Scheduler) Jobs() int {
	return len(s.cron.Entries())
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Infof("Scheduler started with %d jobs", s.Jobs())
}

// Stop cancels running jobs and waits for them to return or for ctx to expire
func (s *Scheduler) Stop(ctx context.Context) error {
	s.cancel()
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// cronLogger adapts logrus to cron.Logger
type cronLogger struct {
	log *logrus.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.WithFields(fields(keysAndValues)).Debug(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.WithError(err).WithFields(fields(keysAndValues)).Error(msg)
}

func fields(keysAndValues []interface{}) logrus.Fields {
	f := logrus.Fields{}
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		f[fmt.Sprint(keysAndValues[i])] = keysAndValues[i+1]
	}
	return f
}
