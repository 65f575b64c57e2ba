package scheduler

import (
	"context"
	"fmt"
	"go-newsroom/internal/data"
	"go-newsroom/internal/lifecycle"
	"go-newsroom/internal/logger"
	"time"

	"github.com/robfig/cron/v3"
)

// Repository is the part of the content store the sweeper needs.
type Repository interface {
	DueScheduled(ctx context.Context, now time.Time) ([]*data.ContentItem, error)
	Promote(ctx context.Context, item *data.ContentItem) (bool, error)
}

// Scheduler periodically publishes scheduled items whose time has come.
type Scheduler struct {
	repo Repository
	cron *cron.Cron
	spec string
	log  logger.Logger
	now  func() time.Time
}

// New creates a scheduler that sweeps on the given cron spec.
func New(repo Repository, spec string, log logger.Logger) *Scheduler {
	return &Scheduler{
		repo: repo,
		cron: cron.New(),
		spec: spec,
		log:  log,
		now:  func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
	}
}

// Start registers the sweep job and starts the cron runner.
func (s *Scheduler) Start() error {
	_, err := s.cron.AddFunc(s.spec, func() {
		if _, err := s.Sweep(context.Background()); err != nil {
			s.log.Error(err, "Failed to publish scheduled content")
		}
	})
	if err != nil {
		return fmt.Errorf("invalid scheduler spec %q: %w", s.spec, err)
	}
	s.cron.Start()
	s.log.Info(fmt.Sprintf("Scheduler started with spec %q", s.spec))
	return nil
}

// Stop waits for a running sweep to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.log.Info("Scheduler stopped")
}

// Sweep publishes every due scheduled item and returns how many it changed.
// A failure on one item does not stop the others.
func (s *Scheduler) Sweep(ctx context.Context) (int, error) {
	now := s.now()
	items, err := s.repo.DueScheduled(ctx, now)
	if err != nil {
		return 0, err
	}

	published := 0
	for _, item := range items {
		st, ok := lifecycle.Promote(item.State(), now)
		if !ok {
			continue
		}
		item.SetState(st)
		item.UpdatedAt = now

		changed, err := s.repo.Promote(ctx, item)
		if err != nil {
			s.log.Error(err, fmt.Sprintf("Failed to publish scheduled %s %d", item.Kind, item.ID))
			continue
		}
		if changed {
			published++
			s.log.Info(fmt.Sprintf("Published scheduled %s %q", item.Kind, item.Slug))
		}
	}
	return published, nil
}
