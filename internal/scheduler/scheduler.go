// Package scheduler runs the poll loop: search, filter, dedup, notify, sleep.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"mercari_watch/internal/config"
	"mercari_watch/internal/filter"
	"mercari_watch/internal/model"
	"mercari_watch/internal/notifier"
	"mercari_watch/internal/storage"
)

// maxSleep guards against platform limits on very long timers.
const maxSleep = 1_000_000 * time.Second

// ConfigSource loads the watch configuration for one cycle.
type ConfigSource interface {
	Load() (config.Config, error)
}

// Searcher queries the marketplace for listings, newest first.
type Searcher interface {
	Search(ctx context.Context, keyword string) ([]model.Listing, error)
}

// Notifier delivers the listings found in a cycle.
type Notifier interface {
	Notify(ctx context.Context, dst notifier.Destination, items []model.Listing) error
}

// Scheduler drives one cycle at a time until its context is cancelled.
type Scheduler struct {
	source   ConfigSource
	searcher Searcher
	store    storage.Storage
	notifier Notifier
	log      *slog.Logger

	now   func() time.Time
	intn  func(n int) int
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates a Scheduler.
func New(source ConfigSource, searcher Searcher, store storage.Storage, n Notifier, log *slog.Logger) *Scheduler {
	return &Scheduler{
		source:   source,
		searcher: searcher,
		store:    store,
		notifier: n,
		log:      log,
		now:      time.Now,
		intn:     rand.IntN,
		sleep:    sleepContext,
	}
}

// Run loops until ctx is cancelled during the suspend phase, returning nil,
// or until the configuration cannot be loaded, returning that error.
func (s *Scheduler) Run(ctx context.Context) error {
	for {
		cfg, err := s.source.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		interval := config.Interval(cfg, s.intn)
		s.log.Info("next run scheduled",
			"at", s.now().Add(interval).Format(time.TimeOnly),
			"interval_minutes", int(interval/time.Minute))

		if _, err := s.RunCycle(ctx, cfg, interval); err != nil {
			s.log.Error("cycle failed", "keyword", cfg.Keyword, "error", err)
		}

		if err := s.sleep(ctx, interval); err != nil {
			s.log.Info("sleep interrupted, exiting")
			return nil
		}
	}
}

// RunCycle performs one search → filter → dedup → notify pass using the
// given interval as the lookback window.
func (s *Scheduler) RunCycle(ctx context.Context, cfg config.Config, interval time.Duration) (*model.Cycle, error) {
	now := s.now()
	cycle := &model.Cycle{
		Interval:    interval,
		WindowStart: now.Add(-interval),
	}

	results, err := s.searcher.Search(ctx, cfg.Keyword)
	if err != nil {
		return cycle, fmt.Errorf("search %q: %w", cfg.Keyword, err)
	}

	cycle.Candidates = filter.Fresh(filter.Limit(results, cfg.EntryLimit), now, interval)
	cycle.Candidates = filter.Apply(cycle.Candidates, cfg.Rules())
	for _, c := range cycle.Candidates {
		s.log.Info("candidate", "id", c.ID, "name", c.Name, "price", c.Price)
	}
	if len(cycle.Candidates) == 0 {
		s.log.Debug("no fresh listings", "keyword", cfg.Keyword, "results", len(results))
		return cycle, nil
	}

	cycle.NewItems, err = s.store.FilterUnseen(ctx, cycle.Candidates)
	if err != nil {
		return cycle, fmt.Errorf("filter seen: %w", err)
	}
	if len(cycle.NewItems) == 0 {
		s.log.Info("skipped all previously found items", "candidates", len(cycle.Candidates))
		return cycle, nil
	}
	s.log.Info("found new items", "count", len(cycle.NewItems))

	dst := notifier.Destination{Token: cfg.BotToken, ChatID: cfg.ChatID}
	if err := s.notifier.Notify(ctx, dst, cycle.NewItems); err != nil {
		return cycle, fmt.Errorf("notify: %w", err)
	}

	if err := s.store.RecordSent(ctx, cycle.NewItems); err != nil {
		return cycle, fmt.Errorf("record sent: %w", err)
	}
	return cycle, nil
}

// sleepContext waits for d, capped at maxSleep, or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(min(d, maxSleep))
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
