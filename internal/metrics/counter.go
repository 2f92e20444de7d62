package metrics

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ca-srg/footprint/internal/console"
)

var (
	mu          sync.RWMutex
	globalStore *Store
	logger      = zap.NewNop()
)

// Init opens the global store at dbPath, or at DefaultPath when dbPath is
// empty. Calling it again replaces the previous store.
func Init(dbPath string, l *zap.Logger) error {
	var (
		store *Store
		err   error
	)
	if dbPath == "" {
		store, err = NewStore()
	} else {
		store, err = NewStoreWithPath(dbPath)
	}

	mu.Lock()
	defer mu.Unlock()
	if l != nil {
		logger = l
	}
	if err != nil {
		logger.Warn("metrics: failed to initialize store", zap.Error(err))
		return err
	}
	if globalStore != nil {
		_ = globalStore.Close()
	}
	globalStore = store
	return nil
}

func currentStore() *Store {
	mu.RLock()
	defer mu.RUnlock()
	return globalStore
}

// RecordSearch counts one search attempt. Without an initialized store only
// the OTel instruments are updated.
func RecordSearch(mode Mode, outcome console.OutcomeKind, elapsed time.Duration) {
	recordInstruments(context.Background(), mode, outcome, elapsed)

	store := currentStore()
	if store == nil {
		return
	}
	if err := store.Increment(mode, outcome); err != nil {
		logger.Warn("metrics: failed to record search",
			zap.String("mode", string(mode)),
			zap.String("outcome", string(outcome)),
			zap.Error(err))
	}
}

// Tracker records searches for one mode. It implements console.Recorder.
type Tracker struct {
	mode Mode
}

// ForMode returns a Tracker for mode.
func ForMode(mode Mode) *Tracker {
	return &Tracker{mode: mode}
}

// RecordSearch implements console.Recorder.
func (t *Tracker) RecordSearch(kind console.OutcomeKind, elapsed time.Duration) {
	RecordSearch(t.mode, kind, elapsed)
}

// GetStats returns the cumulative counts, or nil if the store is not initialized.
func GetStats() Totals {
	store := currentStore()
	if store == nil {
		return nil
	}

	totals, err := store.GetAllTotals()
	if err != nil {
		logger.Warn("metrics: failed to get stats", zap.Error(err))
		return nil
	}
	return totals
}

// GetStore returns the global store, or nil.
func GetStore() *Store {
	return currentStore()
}

// Close closes the global store.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if globalStore == nil {
		return nil
	}
	err := globalStore.Close()
	globalStore = nil
	return err
}

// SetStoreForTesting sets the global store instance for testing purposes.
func SetStoreForTesting(store *Store) {
	mu.Lock()
	defer mu.Unlock()
	globalStore = store
}

// ResetForTesting resets the global state for testing purposes.
func ResetForTesting() {
	mu.Lock()
	defer mu.Unlock()
	if globalStore != nil {
		_ = globalStore.Close()
	}
	globalStore = nil
	logger = zap.NewNop()
}
