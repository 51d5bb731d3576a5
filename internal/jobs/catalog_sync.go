package jobs

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/cataloguebot/whatsapp-gate/internal/catalog"
	"github.com/cataloguebot/whatsapp-gate/internal/logger"
)

// DefaultBatchSize is the number of products read and indexed per round trip.
const DefaultBatchSize = 500

type changeSource interface {
	Changed(ctx context.Context, after catalog.Cursor, limit int) ([]catalog.Item, catalog.Cursor, error)
}

type indexer interface {
	Index(ctx context.Context, items []catalog.Item) error
}

// CatalogSyncJob copies product changes from the database into the search index.
// The first run after Start is a full sync; later runs resume from the cursor.
type CatalogSyncJob struct {
	source    changeSource
	indexer   indexer
	interval  time.Duration
	batchSize int
	log       *slog.Logger

	mu     sync.Mutex
	cursor catalog.Cursor
	cancel context.CancelFunc
	done   chan struct{}
}

// NewCatalogSyncJob creates a new catalog sync job
func NewCatalogSyncJob(source changeSource, idx indexer, interval time.Duration, log *slog.Logger) *CatalogSyncJob {
	if log == nil {
		log = logger.Discard()
	}
	return &CatalogSyncJob{
		source:    source,
		indexer:   idx,
		interval:  interval,
		batchSize: DefaultBatchSize,
		log:       log.With(logger.Component("catalog_sync")),
	}
}

// Start runs a sync immediately and then every interval until Stop or ctx is done.
func (j *CatalogSyncJob) Start(ctx context.Context) {
	j.mu.Lock()
	if j.cancel != nil {
		j.mu.Unlock()
		j.log.Warn("catalog sync already running")
		return
	}
	ctx, j.cancel = context.WithCancel(ctx)
	j.done = make(chan struct{})
	j.mu.Unlock()

	go j.loop(ctx)
	j.log.Info("catalog sync started", slog.Duration("interval", j.interval))
}

// Stop halts the job and waits for an in-flight sync to finish.
func (j *CatalogSyncJob) Stop() {
	j.mu.Lock()
	cancel, done := j.cancel, j.done
	j.cancel = nil
	j.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	j.log.Info("catalog sync stopped")
}

func (j *CatalogSyncJob) loop(ctx context.Context) {
	defer close(j.done)

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		start := time.Now()
		n, err := j.SyncOnce(ctx)
		switch {
		case err != nil && ctx.Err() == nil:
			j.log.Warn("catalog sync failed", slog.Int("indexed", n), logger.Error(err))
		case n > 0:
			j.log.Info("catalog synced", slog.Int("indexed", n), logger.Elapsed(start))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// SyncOnce indexes every change since the last successful batch and returns
// how many products were indexed. A failed batch is retried on the next call.
func (j *CatalogSyncJob) SyncOnce(ctx context.Context) (int, error) {
	j.mu.Lock()
	cursor := j.cursor
	j.mu.Unlock()

	total := 0
	for {
		items, next, err := j.source.Changed(ctx, cursor, j.batchSize)
		if err != nil {
			return total, err
		}
		if len(items) == 0 {
			return total, nil
		}
		if err := j.indexer.Index(ctx, items); err != nil {
			return total, err
		}

		total += len(items)
		cursor = next
		j.mu.Lock()
		j.cursor = cursor
		j.mu.Unlock()

		if len(items) < j.batchSize {
			return total, nil
		}
	}
}
