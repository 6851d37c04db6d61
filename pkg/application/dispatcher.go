package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/WangYihang/Domain-Checker/pkg/domain/entity"
	"golang.org/x/sync/errgroup"
)

// ErrRunInProgress is returned when a run is started while one is running
var ErrRunInProgress = errors.New("run already in progress")

// BatchRunner runs the lookups of one batch
type BatchRunner interface {
	RunBatch(ctx context.Context, domains []string, timeout time.Duration) []entity.Outcome
}

// Dispatcher schedules the batches of a run in waves
type Dispatcher struct {
	runner   BatchRunner
	logger   *slog.Logger
	recorder Recorder
	running  atomic.Bool

	now   func() time.Time
	newID func() string
}

// NewDispatcher creates a new dispatcher
func NewDispatcher(runner BatchRunner, logger *slog.Logger, recorder Recorder) *Dispatcher {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &Dispatcher{
		runner:   runner,
		logger:   logger,
		recorder: recorder,
		now:      time.Now,
		newID:    NewResultID,
	}
}

// Execute runs every batch of the run and blocks until the run reaches a
// terminal state. Cancellation, from ctx or Run.Cancel, is honoured between
// waves only.
func (d *Dispatcher) Execute(ctx context.Context, run *Run) error {
	if !d.running.CompareAndSwap(false, true) {
		return ErrRunInProgress
	}
	defer d.running.Store(false)

	settings := run.Settings()
	batches := Partition(run.domains, settings.BatchSize)
	waves := chunk(batches, settings.ConcurrentBatches)

	runCtx, err := run.begin(ctx, len(waves))
	if err != nil {
		return err
	}

	d.logger.Info("run started",
		"run", run.ID(),
		"domains", len(run.domains),
		"batches", len(batches),
		"waves", len(waves),
		"max_in_flight", settings.MaxInFlight(),
	)
	run.notify()

	state := entity.RunStateCompleted
	for i, wave := range waves {
		if runCtx.Err() != nil {
			state = entity.RunStateCancelled
			d.logger.Info("run cancelled", "run", run.ID(), "completed_waves", i, "waves", len(waves))
			break
		}

		outcomes, err := d.runWave(runCtx, i+1, wave, settings.Timeout)
		d.recorder.ObserveWave(err != nil)
		if err != nil {
			d.logger.Error("dropping wave", "run", run.ID(), "wave", i+1, "kind", entity.KindOf(err), "error", err)
			run.skip(i + 1)
			run.notify()
			continue
		}

		run.fold(i+1, outcomes, d.now, d.newID)
		run.notify()
	}

	run.finish(state)
	snapshot := run.Snapshot()
	d.logger.Info("run finished",
		"run", run.ID(),
		"state", snapshot.State,
		"processed", snapshot.Stats.Processed,
		"available", snapshot.Stats.Available,
		"registered", snapshot.Stats.Registered,
		"errors", snapshot.Stats.Errors,
		"elapsed", snapshot.Elapsed(),
	)
	run.notify()

	return nil
}

// runWave runs every batch of a wave concurrently. A panicking batch fails
// the whole wave.
func (d *Dispatcher) runWave(ctx context.Context, wave int, batches [][]string, timeout time.Duration) ([]entity.Outcome, error) {
	outcomes := make([][]entity.Outcome, len(batches))

	var g errgroup.Group
	for i, batch := range batches {
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = &entity.WaveError{Wave: wave, Err: fmt.Errorf("panic: %v", r)}
				}
			}()
			outcomes[i] = d.runner.RunBatch(ctx, batch, timeout)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var flat []entity.Outcome
	for _, batch := range outcomes {
		flat = append(flat, batch...)
	}
	return flat, nil
}
