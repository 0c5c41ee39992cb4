// Package scheduler runs jobs on a cron schedule without overlapping runs
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ethpandaops/energy-etl/pkg/jobs"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

var (
	// ErrNoJobs is returned when the scheduler is created without jobs
	ErrNoJobs = errors.New("no jobs to schedule")
)

// Service defines the public interface for the scheduler
type Service interface {
	// Start registers the jobs and blocks until ctx is canceled
	Start(ctx context.Context) error
	// RunOnce runs every job in order and returns the first error
	RunOnce(ctx context.Context) error
}

type service struct {
	log      logrus.FieldLogger
	schedule string
	jobs     []jobs.Job

	mu sync.Mutex // serializes RunOnce with scheduled runs
}

// NewService creates a scheduler for schedule, a standard cron expression or descriptor
func NewService(logger logrus.FieldLogger, schedule string, js ...jobs.Job) (Service, error) {
	if len(js) == 0 {
		return nil, ErrNoJobs
	}

	if _, err := cron.ParseStandard(schedule); err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", schedule, err)
	}

	return &service{
		log:      logger.WithField("component", "scheduler"),
		schedule: schedule,
		jobs:     js,
	}, nil
}

func (s *service) Start(ctx context.Context) error {
	cl := &cronLogger{log: s.log}
	c := cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)))

	if _, err := c.AddFunc(s.schedule, func() {
		if err := s.RunOnce(ctx); err != nil {
			s.log.WithError(err).Error("Scheduled run failed")
		}
	}); err != nil {
		return fmt.Errorf("failed to register schedule: %w", err)
	}

	c.Start()

	s.log.WithFields(logrus.Fields{
		"schedule": s.schedule,
		"next_run": c.Entries()[0].Next,
	}).Info("Scheduler started")

	<-ctx.Done()

	s.log.Info("Stopping scheduler, waiting for the current run")
	<-c.Stop().Done()

	return nil
}

func (s *service) RunOnce(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, job := range s.jobs {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := job.Run(ctx); err != nil {
			return fmt.Errorf("%s job failed: %w", job.Name(), err)
		}
	}

	return nil
}

// cronLogger adapts logrus to the cron logger interface
type cronLogger struct {
	log logrus.FieldLogger
}

func (l *cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.WithFields(fields(keysAndValues)).Debug(msg)
}

func (l *cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.WithError(err).WithFields(fields(keysAndValues)).Error(msg)
}

func fields(keysAndValues []interface{}) logrus.Fields {
	f := make(logrus.Fields, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		f[fmt.Sprint(keysAndValues[i])] = keysAndValues[i+1]
	}
	return f
}
