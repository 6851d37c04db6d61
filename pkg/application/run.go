package application

import (
	"context"
	"sync"
	"time"

	"github.com/WangYihang/Domain-Checker/pkg/domain/entity"
	"github.com/google/uuid"
)

// Snapshot is a consistent, point-in-time copy of a run
type Snapshot struct {
	RunID      string
	State      entity.RunState
	Stats      entity.Stats
	Results    []entity.DomainResult
	Wave       int
	Waves      int
	StartedAt  time.Time
	FinishedAt time.Time
}

// Elapsed returns the wall time of the run so far
func (s Snapshot) Elapsed() time.Duration {
	if s.StartedAt.IsZero() {
		return 0
	}
	if s.FinishedAt.IsZero() {
		return time.Since(s.StartedAt)
	}
	return s.FinishedAt.Sub(s.StartedAt)
}

// RunObserver observes run progress
type RunObserver interface {
	OnRunUpdate(snapshot Snapshot)
}

// Run holds the state of one domain check, owned by the caller and handed
// to a Dispatcher
type Run struct {
	id       string
	domains  []string
	settings entity.Settings

	mu         sync.RWMutex
	state      entity.RunState
	stats      entity.Stats
	results    []entity.DomainResult
	wave       int
	waves      int
	startedAt  time.Time
	finishedAt time.Time
	cancel     context.CancelFunc
	observers  []RunObserver
}

// NewRun creates an idle run over the given domains. Repeated domains are
// kept once, in order of first appearance.
func NewRun(domains []string, settings entity.Settings) (*Run, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	domains = unique(domains)
	return &Run{
		id:       uuid.NewString(),
		domains:  domains,
		settings: settings,
		stats:    entity.Stats{Total: len(domains)},
	}, nil
}

func unique(domains []string) []string {
	seen := make(map[string]struct{}, len(domains))
	out := make([]string, 0, len(domains))
	for _, domain := range domains {
		if _, ok := seen[domain]; ok {
			continue
		}
		seen[domain] = struct{}{}
		out = append(out, domain)
	}
	return out
}

// ID returns the run id
func (r *Run) ID() string {
	return r.id
}

// Domains returns a copy of the domain list
func (r *Run) Domains() []string {
	return append([]string(nil), r.domains...)
}

// Settings returns the settings snapshot of the run
func (r *Run) Settings() entity.Settings {
	return r.settings
}

// RegisterObserver registers a run observer
func (r *Run) RegisterObserver(observer RunObserver) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.observers = append(r.observers, observer)
}

// Cancel requests cooperative cancellation. Waves already started finish;
// no new wave is scheduled. It is a no-op unless the run is running.
func (r *Run) Cancel() {
	r.mu.RLock()
	cancel := r.cancel
	r.mu.RUnlock()
	if cancel != nil {
		cancel()
	}
}

// State returns the current state
func (r *Run) State() entity.RunState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state
}

// Snapshot returns a consistent copy of the run
func (r *Run) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshotLocked()
}

func (r *Run) snapshotLocked() Snapshot {
	return Snapshot{
		RunID:      r.id,
		State:      r.state,
		Stats:      r.stats,
		Results:    append([]entity.DomainResult(nil), r.results...),
		Wave:       r.wave,
		Waves:      r.waves,
		StartedAt:  r.startedAt,
		FinishedAt: r.finishedAt,
	}
}

// begin moves the run to Running and derives its cancellation token from ctx
func (r *Run) begin(ctx context.Context, waves int) (context.Context, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state == entity.RunStateRunning {
		return nil, ErrRunInProgress
	}

	runCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.state = entity.RunStateRunning
	r.stats = r.stats.Reset()
	r.results = make([]entity.DomainResult, 0, len(r.domains))
	r.wave = 0
	r.waves = waves
	r.startedAt = time.Now()
	r.finishedAt = time.Time{}

	return runCtx, nil
}

// fold appends the results of a finished wave under one lock
func (r *Run) fold(wave int, outcomes []entity.Outcome, now func() time.Time, newID func() string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	results, stats := Aggregate(r.stats, outcomes, now, newID)
	r.results = append(r.results, results...)
	r.stats = stats
	r.wave = wave
}

// skip marks a dropped wave as resolved
func (r *Run) skip(wave int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.wave = wave
}

// finish moves the run to a terminal state and releases the token
func (r *Run) finish(state entity.RunState) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.state = state
	r.finishedAt = time.Now()
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
}

// notify hands every observer the same snapshot
func (r *Run) notify() {
	r.mu.RLock()
	snapshot := r.snapshotLocked()
	observers := append([]RunObserver(nil), r.observers...)
	r.mu.RUnlock()

	for _, observer := range observers {
		observer.OnRunUpdate(snapshot)
	}
}

// Partition splits domains into consecutive batches of at most size
func Partition(domains []string, size int) [][]string {
	return chunk(domains, size)
}

func chunk[T any](items []T, size int) [][]T {
	if size <= 0 || len(items) == 0 {
		return nil
	}
	chunks := make([][]T, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		chunks = append(chunks, items[start:end])
	}
	return chunks
}
