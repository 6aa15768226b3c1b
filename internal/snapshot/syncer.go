// Package snapshot keeps a periodically refreshed copy of every collection.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/frahmantamala/payable/internal"
	"github.com/frahmantamala/payable/internal/accessrequest"
	"github.com/frahmantamala/payable/internal/expense"
	"github.com/frahmantamala/payable/internal/user"
)

const DefaultInterval = 2 * time.Second

const (
	ResultOK      = "ok"
	ResultPartial = "partial"
	ResultFailed  = "failed"
)

// Snapshot is the last fetched state of the four collections.
type Snapshot struct {
	Users        []*user.User             `json:"users"`
	Expenses     []*expense.Expense       `json:"expenses"`
	UserRequests []*accessrequest.Request `json:"userRequests"`
	Categories   []string                 `json:"categories"`
	FetchedAt    time.Time                `json:"fetchedAt"`
}

func (s Snapshot) clone() Snapshot {
	return Snapshot{
		Users:        slices.Clone(s.Users),
		Expenses:     slices.Clone(s.Expenses),
		UserRequests: slices.Clone(s.UserRequests),
		Categories:   slices.Clone(s.Categories),
		FetchedAt:    s.FetchedAt,
	}
}

type CycleObserver interface {
	ObserveSyncCycle(result string, d time.Duration)
}

// Syncer owns the snapshot cache. Refreshes only run on the Run goroutine,
// so a slow cycle postpones the next one instead of overlapping it.
type Syncer struct {
	source   Source
	interval time.Duration
	observer CycleObserver
	logger   *slog.Logger
	now      func() time.Time

	trigger chan struct{}

	mu   sync.RWMutex
	snap Snapshot

	subMu sync.Mutex
	subs  map[chan Snapshot]struct{}
}

func NewSyncer(source Source, interval time.Duration, observer CycleObserver, logger *slog.Logger) *Syncer {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Syncer{
		source:   source,
		interval: interval,
		observer: observer,
		logger:   logger,
		now:      time.Now,
		trigger:  make(chan struct{}, 1),
		subs:     make(map[chan Snapshot]struct{}),
	}
}

// Run refreshes immediately, then on every tick and on every Trigger,
// until ctx is done.
func (s *Syncer) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("snapshot sync started", "interval", s.interval)
	_ = s.Refresh(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("snapshot sync stopped")
			return
		case <-ticker.C:
		case <-s.trigger:
		}
		_ = s.Refresh(ctx)
	}
}

// Trigger asks Run for an early refresh. Requests made while one is
// already queued collapse into it.
func (s *Syncer) Trigger() {
	select {
	case s.trigger <- struct{}{}:
	default:
	}
}

// Refresh fetches the four collections concurrently. Each successful fetch
// replaces its slot; failed slots keep their previous contents. Subscribers
// are notified only when every fetch succeeded.
func (s *Syncer) Refresh(ctx context.Context) error {
	start := s.now()
	ctx, cancel := internal.WithTimeout(ctx, 2*s.interval)
	defer cancel()

	var (
		users      []*user.User
		expenses   []*expense.Expense
		requests   []*accessrequest.Request
		categories []string
		errs       [4]error
	)

	var g errgroup.Group
	g.Go(func() error { users, errs[0] = s.source.Users(ctx); return nil })
	g.Go(func() error { expenses, errs[1] = s.source.Expenses(ctx); return nil })
	g.Go(func() error { requests, errs[2] = s.source.UserRequests(ctx); return nil })
	g.Go(func() error { categories, errs[3] = s.source.Categories(ctx); return nil })
	_ = g.Wait()

	failed := 0
	s.mu.Lock()
	if errs[0] == nil {
		s.snap.Users = users
	} else {
		failed++
	}
	if errs[1] == nil {
		s.snap.Expenses = expenses
	} else {
		failed++
	}
	if errs[2] == nil {
		s.snap.UserRequests = requests
	} else {
		failed++
	}
	if errs[3] == nil {
		s.snap.Categories = categories
	} else {
		failed++
	}
	if failed == 0 {
		s.snap.FetchedAt = s.now().UTC()
	}
	current := s.snap.clone()
	s.mu.Unlock()

	result := ResultOK
	switch {
	case failed == len(errs):
		result = ResultFailed
	case failed > 0:
		result = ResultPartial
	}
	if s.observer != nil {
		s.observer.ObserveSyncCycle(result, s.now().Sub(start))
	}

	if failed > 0 {
		err := errors.Join(
			wrapSlot("users", errs[0]),
			wrapSlot("expenses", errs[1]),
			wrapSlot("userRequests", errs[2]),
			wrapSlot("categories", errs[3]),
		)
		s.logger.Warn("snapshot refresh incomplete", "result", result, "error", err)
		return err
	}

	s.publish(current)
	return nil
}

func wrapSlot(name string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("fetch %s: %w", name, err)
}

// Snapshot returns a copy of the cached state.
func (s *Syncer) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.clone()
}

// Stale reports whether the last complete refresh is older than twice the
// interval, or never happened.
func (s *Syncer) Stale() bool {
	s.mu.RLock()
	fetchedAt := s.snap.FetchedAt
	s.mu.RUnlock()
	if fetchedAt.IsZero() {
		return true
	}
	return s.now().Sub(fetchedAt) > 2*s.interval
}

// Subscribe delivers the latest complete snapshot after each successful
// refresh. A consumer that falls behind only sees the most recent one. The
// channel is closed once ctx is done.
func (s *Syncer) Subscribe(ctx context.Context) <-chan Snapshot {
	ch := make(chan Snapshot, 1)

	s.subMu.Lock()
	s.subs[ch] = struct{}{}
	s.subMu.Unlock()

	go func() {
		<-ctx.Done()
		s.subMu.Lock()
		delete(s.subs, ch)
		close(ch)
		s.subMu.Unlock()
	}()

	return ch
}

func (s *Syncer) publish(snap Snapshot) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	for ch := range s.subs {
		select {
		case ch <- snap:
			continue
		default:
		}
		// drop the undelivered one in favour of the newer snapshot
		select {
		case <-ch:
		default:
		}
		ch <- snap
	}
}
