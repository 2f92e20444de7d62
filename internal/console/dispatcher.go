package console

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ca-srg/footprint/internal/logging"
	"github.com/ca-srg/footprint/internal/results"
	"github.com/ca-srg/footprint/internal/types"
)

var (
	// ErrBlankQuery rejects a query whose name is empty after trimming.
	ErrBlankQuery = errors.New("console: query name is blank")
	// ErrSearchInFlight rejects a submission while a search is loading.
	ErrSearchInFlight = errors.New("console: a search is already in flight")
	// ErrNotEnteringQuery rejects a submission before the previous results are reset.
	ErrNotEnteringQuery = errors.New("console: results must be reset before a new search")
)

// Searcher issues one request to the search service.
type Searcher interface {
	Search(ctx context.Context, q types.Query) (*results.RawResponse, error)
	Endpoint() string
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(d *Dispatcher) { d.logger = logging.OrNop(logger) }
}

// WithNotifier sets the failure notifier.
func WithNotifier(n Notifier) Option {
	return func(d *Dispatcher) { d.notifier = n }
}

// WithListener adds a state listener.
func WithListener(l Listener) Option {
	return func(d *Dispatcher) {
		if l != nil {
			d.listeners = append(d.listeners, l)
		}
	}
}

// WithRecorder sets the usage recorder.
func WithRecorder(r Recorder) Option {
	return func(d *Dispatcher) { d.recorder = r }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) {
		if now != nil {
			d.now = now
		}
	}
}

// Dispatcher owns the console state. Only one search can be in flight: Begin
// refuses anything but PhaseEnteringQuery.
type Dispatcher struct {
	mu           sync.RWMutex
	phase        Phase
	query        *types.Query
	results      results.NormalizedResults
	notification *Notification
	startedAt    time.Time
	resolvedAt   time.Time
	version      uint64

	searcher  Searcher
	notifier  Notifier
	listeners []Listener
	recorder  Recorder
	logger    *zap.Logger
	now       func() time.Time
}

// NewDispatcher creates a dispatcher in PhaseEnteringQuery.
func NewDispatcher(searcher Searcher, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		phase:    PhaseEnteringQuery,
		results:  results.Empty(),
		searcher: searcher,
		logger:   zap.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Endpoint returns the address searches are sent to.
func (d *Dispatcher) Endpoint() string {
	return d.searcher.Endpoint()
}

// Begin accepts q and moves to PhaseLoading. A blank name leaves the state
// unchanged and returns ErrBlankQuery.
func (d *Dispatcher) Begin(q types.Query) error {
	d.mu.Lock()
	if d.phase != PhaseEnteringQuery {
		phase := d.phase
		d.mu.Unlock()
		if phase == PhaseLoading {
			return ErrSearchInFlight
		}
		return ErrNotEnteringQuery
	}
	if q.Blank() {
		d.mu.Unlock()
		d.logger.Debug("Ignoring blank query")
		d.record(OutcomeRejected, 0)
		return ErrBlankQuery
	}

	query := q
	d.phase = PhaseLoading
	d.query = &query
	d.results = results.Empty()
	d.notification = nil
	d.startedAt = d.now()
	d.resolvedAt = time.Time{}
	snap := d.transitionLocked()
	d.mu.Unlock()

	d.logger.Info("Search started", zap.Bool("has_extra_info", q.ExtraInfo != ""))
	d.publish(snap)
	return nil
}

// Fetch issues exactly one request for q and normalizes the response. It does
// not touch dispatcher state, so it may run on any goroutine.
func (d *Dispatcher) Fetch(ctx context.Context, q types.Query) Outcome {
	start := d.now()
	raw, err := d.searcher.Search(ctx, q)
	outcome := Outcome{
		Query:    q,
		Endpoint: d.searcher.Endpoint(),
		Elapsed:  d.now().Sub(start),
	}
	if err != nil {
		outcome.Err = err
		outcome.Results = results.Empty()
		return outcome
	}
	outcome.Results = results.Normalize(raw)
	return outcome
}

// Resolve applies o and moves to PhaseResolved. A failed outcome resolves to
// empty results and raises a notification. It returns false, and does nothing,
// when no search is loading.
func (d *Dispatcher) Resolve(o Outcome) bool {
	d.mu.Lock()
	if d.phase != PhaseLoading {
		d.mu.Unlock()
		d.logger.Debug("Dropping outcome outside of loading phase")
		return false
	}

	now := d.now()
	d.phase = PhaseResolved
	d.resolvedAt = now
	var note *Notification
	if o.Err != nil {
		d.results = results.Empty()
		note = newNotification(o.Endpoint, o.Err, now)
		d.notification = note
	} else {
		d.results = o.Results.Clone()
	}
	snap := d.transitionLocked()
	d.mu.Unlock()

	if note != nil {
		d.logger.Warn("Search failed",
			zap.String("endpoint", note.Endpoint),
			zap.Error(o.Err))
		if d.notifier != nil {
			d.notifier.Notify(*note)
		}
	} else {
		d.logger.Info("Search resolved",
			zap.Int("categories", len(snap.Results.Categories)),
			zap.Int("items", snap.Results.TotalItems()),
			zap.Duration("elapsed", o.Elapsed))
	}
	d.record(o.Kind(), o.Elapsed)
	d.publish(snap)
	return true
}

// Submit runs Begin, Fetch and Resolve in sequence.
func (d *Dispatcher) Submit(ctx context.Context, q types.Query) (Outcome, error) {
	if err := d.Begin(q); err != nil {
		return Outcome{Query: q, Results: results.Empty()}, err
	}
	outcome := d.Fetch(ctx, q)
	d.Resolve(outcome)
	return outcome, nil
}

// Reset returns to PhaseEnteringQuery, discarding the results, the query and
// any pending notification. It returns false unless the state was resolved.
func (d *Dispatcher) Reset() bool {
	d.mu.Lock()
	if d.phase != PhaseResolved {
		d.mu.Unlock()
		return false
	}
	d.phase = PhaseEnteringQuery
	d.query = nil
	d.results = results.Empty()
	d.notification = nil
	d.startedAt = time.Time{}
	d.resolvedAt = time.Time{}
	snap := d.transitionLocked()
	d.mu.Unlock()

	d.publish(snap)
	return true
}

// Dismiss clears the pending notification.
func (d *Dispatcher) Dismiss() {
	d.mu.Lock()
	if d.notification == nil {
		d.mu.Unlock()
		return
	}
	d.notification = nil
	snap := d.transitionLocked()
	d.mu.Unlock()

	d.publish(snap)
}

// Snapshot returns a copy of the current state.
func (d *Dispatcher) Snapshot() Snapshot {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.snapshotLocked()
}

// transitionLocked bumps the version and snapshots (must be called with lock held)
func (d *Dispatcher) transitionLocked() Snapshot {
	d.version++
	return d.snapshotLocked()
}

func (d *Dispatcher) snapshotLocked() Snapshot {
	snap := Snapshot{
		Version:    d.version,
		Phase:      d.phase,
		Results:    d.results.Clone(),
		StartedAt:  d.startedAt,
		ResolvedAt: d.resolvedAt,
	}
	if d.query != nil {
		q := *d.query
		snap.Query = &q
	}
	if d.notification != nil {
		n := *d.notification
		snap.Notification = &n
	}
	return snap
}

func (d *Dispatcher) publish(s Snapshot) {
	for _, l := range d.listeners {
		l.StateChanged(s)
	}
}

func (d *Dispatcher) record(kind OutcomeKind, elapsed time.Duration) {
	if d.recorder != nil {
		d.recorder.RecordSearch(kind, elapsed)
	}
}
