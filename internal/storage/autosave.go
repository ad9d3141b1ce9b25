package storage

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/marienilba/voice-dictation/internal/document"
	"github.com/marienilba/voice-dictation/internal/observability/metrics"
)

// Autosaver subscribes to the document store and persists a serialized
// snapshot after every committed update. Writes are debounced so a burst of
// mutations produces one write of the latest state.
type Autosaver struct {
	store    SnapshotStore
	debounce time.Duration
	metrics  *metrics.Metrics
	log      zerolog.Logger

	mu          sync.Mutex
	pending     []*document.BlockNode
	seenVersion uint64
	timer       *time.Timer
	closed      bool

	dispose func()
	done    sync.WaitGroup
}

// NewAutosaver starts autosaving doc into store. A zero debounce writes
// synchronously on every update, which tests rely on.
func NewAutosaver(doc *document.Store, store SnapshotStore, debounce time.Duration, log zerolog.Logger) *Autosaver {
	a := &Autosaver{
		store:    store,
		debounce: debounce,
		metrics:  metrics.DefaultMetrics,
		log:      log,
	}
	a.dispose = doc.Subscribe(func(snap document.Snapshot) {
		a.metrics.RecordDocumentUpdate()
		a.schedule(snap)
	})
	return a
}

// schedule records the snapshot for the next write. Snapshots at or below
// the last seen version are dropped so a delayed delivery can never
// overwrite a newer tree.
func (a *Autosaver) schedule(snap document.Snapshot) {
	a.mu.Lock()
	if a.closed || snap.Version <= a.seenVersion {
		a.mu.Unlock()
		return
	}
	a.seenVersion = snap.Version

	if a.debounce == 0 {
		a.mu.Unlock()
		a.write(snap.Blocks)
		return
	}

	defer a.mu.Unlock()
	a.pending = snap.Blocks
	if a.timer != nil {
		return
	}
	a.done.Add(1)
	a.timer = time.AfterFunc(a.debounce, func() {
		defer a.done.Done()
		a.mu.Lock()
		blocks := a.pending
		a.pending = nil
		a.timer = nil
		a.mu.Unlock()
		if blocks != nil {
			a.write(blocks)
		}
	})
}

func (a *Autosaver) write(blocks []*document.BlockNode) {
	data, err := document.MarshalBlocks(blocks)
	if err != nil {
		a.metrics.RecordAutosave(err)
		a.log.Error().Err(err).Msg("failed to serialize snapshot")
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err = a.store.Save(ctx, data)
	a.metrics.RecordAutosave(err)
	if err != nil {
		a.log.Warn().Err(err).Msg("autosave failed")
		return
	}
	a.log.Debug().Int("bytes", len(data)).Msg("snapshot autosaved")
}

// Close unsubscribes and flushes any pending write.
func (a *Autosaver) Close() {
	if a.dispose != nil {
		a.dispose()
		a.dispose = nil
	}

	a.mu.Lock()
	a.closed = true
	var blocks []*document.BlockNode
	if a.timer != nil && a.timer.Stop() {
		blocks = a.pending
		a.pending = nil
		a.timer = nil
		a.done.Done()
	}
	a.mu.Unlock()

	if blocks != nil {
		a.write(blocks)
	}
	a.done.Wait()
}

// Restore loads the persisted snapshot into doc. A missing snapshot leaves
// the document untouched and returns nil.
func Restore(ctx context.Context, doc *document.Store, store SnapshotStore, log zerolog.Logger) error {
	data, err := store.Load(ctx)
	if errors.Is(err, ErrNoSnapshot) {
		log.Info().Msg("no stored snapshot, starting with an empty document")
		return nil
	}
	if err != nil {
		return err
	}
	blocks, err := document.UnmarshalBlocks(data)
	if err != nil {
		return err
	}
	if err := doc.Replace(blocks); err != nil {
		return err
	}
	log.Info().Int("blocks", len(blocks)).Msg("restored document snapshot")
	return nil
}
