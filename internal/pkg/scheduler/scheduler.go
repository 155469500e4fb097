// Package scheduler runs acquisition jobs on cron schedules.
package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/anicoll/energy-monitor/internal/pkg/apperr"
)

type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Scheduler triggers jobs on six field cron specs (with seconds). A job may
// still be running when its next tick fires; both invocations then run.
type Scheduler struct {
	cron   *cron.Cron
	fatal  chan error
	logger *zap.Logger
}

func New() *Scheduler {
	logger := zap.L()
	return &Scheduler{
		cron:   cron.New(cron.WithSeconds(), cron.WithLogger(cronLogger{logger.Sugar()})),
		fatal:  make(chan error, 1),
		logger: logger,
	}
}

// Add registers job under spec. Invocations use ctx.
func (s *Scheduler) Add(ctx context.Context, spec string, job Job) error {
	_, err := s.cron.AddFunc(spec, func() {
		s.run(ctx, job)
	})
	if err != nil {
		return apperr.Config("schedule "+job.Name(), err)
	}
	s.logger.Info("job scheduled", zap.String("job", job.Name()), zap.String("schedule", spec))
	return nil
}

// RunNow starts one invocation of job outside its schedule.
func (s *Scheduler) RunNow(ctx context.Context, job Job) {
	go s.run(ctx, job)
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop stops triggering jobs and waits for running ones to return.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// Fatal receives the first error a job returns that must end the process.
func (s *Scheduler) Fatal() <-chan error {
	return s.fatal
}

func (s *Scheduler) run(ctx context.Context, job Job) {
	start := time.Now()
	err := job.Run(ctx)
	logger := s.logger.With(zap.String("job", job.Name()), zap.Duration("duration", time.Since(start)))

	switch {
	case err == nil:
		logger.Info("job completed")
	case apperr.IsFatal(err):
		logger.Error("job failed fatally", zap.Error(err))
		select {
		case s.fatal <- err:
		default:
		}
	default:
		logger.Error("job failed", zap.Error(err), zap.Stringer("kind", apperr.KindOf(err)))
	}
}

type cronLogger struct {
	logger *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Errorw(msg, append(keysAndValues, "error", err)...)
}
