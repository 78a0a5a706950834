package services

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/lessonvault/internal/logging"
	"github.com/dmitrijs2005/lessonvault/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/lessonvault/internal/server/storage"
)

const sweepBatchSize = 500

// SweepResult summarises one sweep.
type SweepResult struct {
	Scanned       int
	Orphans       int
	Deleted       int
	ExpiredTokens int64
}

// Sweeper reconciles the objects under the key root against the uploads
// table. Objects older than the grace period that no record references are
// deleted. Keys outside the root are never listed. This closes
// the gap left when a transfer succeeds but the metadata save does not.
// Expired refresh tokens are purged on the same schedule.
type Sweeper struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	store       storage.ObjectStore
	prefix      string
	interval    time.Duration
	grace       time.Duration
	now         func() time.Time
	log         logging.Logger

	mu        sync.Mutex
	inProcess bool
	cancel    context.CancelFunc
	done      chan struct{}
}

func NewSweeper(db *sql.DB, m repomanager.RepositoryManager, store storage.ObjectStore, keyRoot string, interval, grace time.Duration, log logging.Logger) *Sweeper {
	return &Sweeper{
		db:          db,
		repomanager: m,
		store:       store,
		prefix:      storage.RootPrefix(keyRoot),
		interval:    interval,
		grace:       grace,
		now:         time.Now,
		log:         log.With("module", "sweeper"),
	}
}

// Start runs RunOnce on every tick until ctx is cancelled or Stop is called.
// A non-positive interval disables the sweeper.
func (s *Sweeper) Start(ctx context.Context) {
	if s.interval <= 0 {
		s.log.Info(ctx, "orphan sweeper disabled")
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})

	go s.run(ctx)
	if s.prefix == "" {
		s.log.Warn(ctx, "orphan sweeper covers the whole bucket; set a key root to limit it")
	}
	s.log.Info(ctx, "orphan sweeper started", "prefix", s.prefix, "interval", s.interval.String(), "grace", s.grace.String())
}

// Stop cancels the loop and waits for an in-flight run to return.
func (s *Sweeper) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	s.log.Info(context.Background(), "orphan sweeper stopped")
}

func (s *Sweeper) run(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, _, err := s.RunOnce(ctx); err != nil {
				s.log.Error(ctx, "sweep failed", "error", err)
			}
		}
	}
}

// IsInProgress reports whether a sweep is running.
func (s *Sweeper) IsInProgress() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inProcess
}

// RunOnce performs one sweep. If another sweep is already running it returns
// immediately with skipped set.
func (s *Sweeper) RunOnce(ctx context.Context) (res SweepResult, skipped bool, err error) {
	s.mu.Lock()
	if s.inProcess {
		s.mu.Unlock()
		return res, true, nil
	}
	s.inProcess = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.inProcess = false
		s.mu.Unlock()
		sweeperRunsTotal.WithLabelValues(resultLabel(err)).Inc()
	}()

	cutoff := s.now().Add(-s.grace)

	n, err := s.repomanager.RefreshTokens(s.db).DeleteExpired(ctx, s.now())
	if err != nil {
		return res, false, fmt.Errorf("purge refresh tokens: %w", err)
	}
	res.ExpiredTokens = n

	batch := make([]string, 0, sweepBatchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		defer func() { batch = batch[:0] }()
		return s.deleteUntracked(ctx, batch, &res)
	}

	err = s.store.List(ctx, s.prefix, func(obj storage.ObjectInfo) error {
		res.Scanned++
		if obj.LastModified.After(cutoff) {
			return nil
		}
		batch = append(batch, obj.Key)
		if len(batch) == sweepBatchSize {
			return flush()
		}
		return nil
	})
	if err == nil {
		err = flush()
	}
	if err != nil {
		return res, false, fmt.Errorf("sweep objects: %w", err)
	}

	s.log.Info(ctx, "sweep finished",
		"scanned", res.Scanned, "orphans", res.Orphans, "deleted", res.Deleted, "expired_tokens", res.ExpiredTokens)
	return res, false, nil
}

func (s *Sweeper) deleteUntracked(ctx context.Context, keys []string, res *SweepResult) error {
	tracked, err := s.repomanager.Uploads(s.db).ExistingKeys(ctx, keys)
	if err != nil {
		return err
	}
	for _, k := range keys {
		if _, ok := tracked[k]; ok {
			continue
		}
		res.Orphans++
		if err := s.store.Delete(ctx, k); err != nil {
			s.log.Warn(ctx, "orphan was not deleted", "key", k, "error", err)
			continue
		}
		res.Deleted++
		sweeperOrphansDeletedTotal.Inc()
		s.log.Debug(ctx, "orphan deleted", "key", k)
	}
	return nil
}
