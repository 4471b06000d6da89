package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"CoinTerminal/internal/catalog"
	"CoinTerminal/internal/collector"
	"CoinTerminal/internal/model"
	"CoinTerminal/internal/snapshot"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/singleflight"
)

// catalogLimit is the listing size used by the daily catalog task. Wider
// than the dashboard limit so search covers coins outside the displayed set.
const catalogLimit = 500

// Scheduler drives refresh cycles: the periodic listing refresh, the manual
// refresh trigger, and the daily catalog widening task.
type Scheduler struct {
	Cron    *cron.Cron
	Fetcher collector.Fetcher
	Store   *snapshot.Store
	Catalog catalog.Catalog
	Limit   int
	Convert string
	Ctx     context.Context

	// OnSnapshot, when set, is called after each successful refresh.
	OnSnapshot func(*model.Snapshot)

	group singleflight.Group
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, f collector.Fetcher, store *snapshot.Store, cat catalog.Catalog, limit int, convert string) *Scheduler {
	return &Scheduler{
		Cron:    cron.New(cron.WithSeconds()),
		Fetcher: f,
		Store:   store,
		Catalog: cat,
		Limit:   limit,
		Convert: convert,
		Ctx:     ctx,
	}
}

// RegisterAll registers the periodic refresh and the daily catalog task.
func (s *Scheduler) RegisterAll(refreshInterval time.Duration, catalogCron string) error {
	spec := fmt.Sprintf("@every %s", refreshInterval)
	if _, err := s.Cron.AddFunc(spec, s.refreshTask); err != nil {
		return fmt.Errorf("register refresh task: %w", err)
	}
	if _, err := s.Cron.AddFunc(catalogCron, s.catalogTask); err != nil {
		return fmt.Errorf("register catalog task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler gracefully.
func (s *Scheduler) Stop() {
	s.Cron.Stop()
	log.Println("[INFO] scheduler stopped")
}

// Refresh runs one fetch-then-publish cycle. Concurrent callers (timer tick
// plus manual trigger) are coalesced into a single outbound request; all of
// them receive the same snapshot or the same error. On failure the stored
// snapshot is left untouched.
func (s *Scheduler) Refresh() (*model.Snapshot, error) {
	v, err, _ := s.group.Do("refresh", func() (interface{}, error) {
		quotes, err := s.Fetcher.FetchListings(s.Ctx, s.Limit)
		if err != nil {
			return nil, fmt.Errorf("refresh: %w", err)
		}
		snap := &model.Snapshot{
			Quotes:    quotes,
			Convert:   s.Convert,
			FetchedAt: time.Now(),
		}
		s.Store.Replace(snap)
		if err := s.Catalog.UpsertAll(catalog.FromQuotes(quotes)); err != nil {
			log.Printf("[WARN] catalog upsert: %v", err)
		}
		if s.OnSnapshot != nil {
			s.OnSnapshot(snap)
		}
		return snap, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*model.Snapshot), nil
}

func (s *Scheduler) refreshTask() {
	if _, err := s.Refresh(); err != nil {
		log.Printf("[ERROR] scheduled refresh: %v", err)
		return
	}
	log.Printf("[INFO] refresh ok: %d quotes", s.snapshotLen())
}

// catalogTask widens the coin registry beyond the dashboard limit. It never
// replaces the displayed snapshot, only the search catalog.
func (s *Scheduler) catalogTask() {
	quotes, err := s.Fetcher.FetchListings(s.Ctx, catalogLimit)
	if err != nil {
		log.Printf("[ERROR] catalog refresh: %v", err)
		return
	}
	if err := s.Catalog.UpsertAll(catalog.FromQuotes(quotes)); err != nil {
		log.Printf("[ERROR] catalog upsert: %v", err)
		return
	}
	log.Printf("[INFO] catalog refreshed: %d coins", len(quotes))
}

func (s *Scheduler) snapshotLen() int {
	if snap, ok := s.Store.Current(); ok {
		return len(snap.Quotes)
	}
	return 0
}
