package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/WangYihang/Domain-Checker/pkg/domain/entity"
	"github.com/WangYihang/Domain-Checker/pkg/domain/service"
)

// Recorder receives lookup and wave measurements
type Recorder interface {
	ObserveLookup(outcome entity.Outcome)
	ObserveWave(dropped bool)
}

type nopRecorder struct{}

func (nopRecorder) ObserveLookup(entity.Outcome) {}
func (nopRecorder) ObserveWave(bool)             {}

// BatchExecutor runs the lookups of one batch concurrently
type BatchExecutor struct {
	checker  service.AvailabilityChecker
	logger   *slog.Logger
	recorder Recorder
}

// NewBatchExecutor creates a new batch executor
func NewBatchExecutor(checker service.AvailabilityChecker, logger *slog.Logger, recorder Recorder) *BatchExecutor {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &BatchExecutor{
		checker:  checker,
		logger:   logger,
		recorder: recorder,
	}
}

// RunBatch looks up every domain in its own goroutine and returns the
// outcomes in input order. Each lookup is bounded by timeout; lookups are
// detached from ctx cancellation so a cancelled run lets them finish.
func (e *BatchExecutor) RunBatch(ctx context.Context, domains []string, timeout time.Duration) []entity.Outcome {
	outcomes := make([]entity.Outcome, len(domains))
	lookupCtx := context.WithoutCancel(ctx)

	var wg sync.WaitGroup
	for i, domain := range domains {
		wg.Add(1)
		go func() {
			defer wg.Done()
			outcomes[i] = e.lookup(lookupCtx, domain, timeout)
			e.recorder.ObserveLookup(outcomes[i])
		}()
	}
	wg.Wait()

	return outcomes
}

// lookup returns no later than timeout, even when the checker ignores ctx
func (e *BatchExecutor) lookup(ctx context.Context, domain string, timeout time.Duration) entity.Outcome {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan entity.Outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- entity.Outcome{
					Domain: domain,
					Err:    &entity.LookupError{Domain: domain, Kind: entity.KindNetwork, Err: fmt.Errorf("panic: %v", r)},
				}
			}
		}()
		available, err := e.checker.CheckAvailability(ctx, domain)
		done <- entity.Outcome{Domain: domain, Available: available, Err: asLookupError(domain, err)}
	}()

	var outcome entity.Outcome
	select {
	case outcome = <-done:
	case <-ctx.Done():
		outcome = entity.Outcome{
			Domain: domain,
			Err:    &entity.LookupError{Domain: domain, Kind: entity.KindTimeout, Err: ctx.Err()},
		}
	}
	outcome.Duration = time.Since(start)

	if outcome.Err != nil {
		e.logger.Debug("lookup failed", "domain", domain, "kind", entity.KindOf(outcome.Err), "error", outcome.Err)
	}
	return outcome
}

// asLookupError tags a plain error with its kind
func asLookupError(domain string, err error) error {
	if err == nil {
		return nil
	}
	var le *entity.LookupError
	if errors.As(err, &le) {
		return err
	}
	kind := entity.KindNetwork
	if errors.Is(err, context.DeadlineExceeded) {
		kind = entity.KindTimeout
	}
	return &entity.LookupError{Domain: domain, Kind: kind, Err: err}
}

// Availability collapses outcomes into a domain -> available mapping
func Availability(outcomes []entity.Outcome) map[string]bool {
	availability := make(map[string]bool, len(outcomes))
	for _, outcome := range outcomes {
		availability[outcome.Domain] = Collapse(outcome)
	}
	return availability
}
