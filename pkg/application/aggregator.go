package application

import (
	"time"

	"github.com/WangYihang/Domain-Checker/pkg/domain/entity"
	"github.com/google/uuid"
)

// Collapse maps a tagged outcome to availability. Failed lookups count as
// registered.
func Collapse(outcome entity.Outcome) bool {
	if outcome.Err != nil {
		return false
	}
	return outcome.Available
}

// NewResultID returns a random UUID for a result
func NewResultID() string {
	return uuid.NewString()
}

// Aggregate folds outcomes into results and updated stats
func Aggregate(stats entity.Stats, outcomes []entity.Outcome, now func() time.Time, newID func() string) ([]entity.DomainResult, entity.Stats) {
	results := make([]entity.DomainResult, 0, len(outcomes))

	for _, outcome := range outcomes {
		result := entity.DomainResult{
			ID:        newID(),
			Domain:    outcome.Domain,
			Status:    entity.StatusRegistered,
			Timestamp: now().UTC().Truncate(time.Millisecond),
		}

		stats.Processed++
		if Collapse(outcome) {
			result.Status = entity.StatusAvailable
			stats.Available++
		} else {
			stats.Registered++
		}

		if outcome.Err != nil {
			stats.Errors++
			result.Error = entity.KindOf(outcome.Err)
			if result.Error == "" {
				result.Error = entity.KindNetwork
			}
		}

		results = append(results, result)
	}

	return results, stats
}
