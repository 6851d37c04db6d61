package entity

import (
	"errors"
	"fmt"
	"time"
)

// Status is the availability classification of a domain
type Status string

const (
	StatusAvailable  Status = "available"
	StatusRegistered Status = "registered"
)

// ParseStatus converts a string into a Status
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusAvailable, StatusRegistered:
		return Status(s), nil
	}
	return "", fmt.Errorf("unknown status %q", s)
}

// Outcome is the tagged result of one domain lookup. Err is nil when the
// lookup completed, otherwise it carries a *LookupError.
type Outcome struct {
	Domain    string
	Available bool
	Err       error
	Duration  time.Duration
}

// Status returns the classification the outcome collapses to
func (o Outcome) Status() Status {
	if o.Err == nil && o.Available {
		return StatusAvailable
	}
	return StatusRegistered
}

// DomainResult represents the final, immutable result for one domain
type DomainResult struct {
	ID        string    `json:"id"`
	Domain    string    `json:"domain"`
	Status    Status    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Error     ErrorKind `json:"error,omitempty"`
}

// Stats holds the running counters of a run
type Stats struct {
	Total      int `json:"total"`
	Processed  int `json:"processed"`
	Available  int `json:"available"`
	Registered int `json:"registered"`
	// Errors counts failed lookups, which are also counted in Registered
	Errors int `json:"errors"`
}

// Reset zeroes every counter except Total
func (s Stats) Reset() Stats {
	return Stats{Total: s.Total}
}

// Consistent reports whether Processed == Available + Registered
func (s Stats) Consistent() bool {
	return s.Processed == s.Available+s.Registered && s.Errors <= s.Registered
}

// ErrInvalidSettings is returned for non-positive settings
var ErrInvalidSettings = errors.New("invalid settings")

const (
	DefaultBatchSize         = 100
	DefaultConcurrentBatches = 3
	DefaultTimeout           = 5000 * time.Millisecond
)

// Settings controls how a run is partitioned and scheduled
type Settings struct {
	BatchSize         int
	ConcurrentBatches int
	Timeout           time.Duration
}

// DefaultSettings returns the default settings
func DefaultSettings() Settings {
	return Settings{
		BatchSize:         DefaultBatchSize,
		ConcurrentBatches: DefaultConcurrentBatches,
		Timeout:           DefaultTimeout,
	}
}

// Validate checks that every setting is positive
func (s Settings) Validate() error {
	if s.BatchSize <= 0 {
		return fmt.Errorf("%w: batch size must be > 0, got %d", ErrInvalidSettings, s.BatchSize)
	}
	if s.ConcurrentBatches <= 0 {
		return fmt.Errorf("%w: concurrent batches must be > 0, got %d", ErrInvalidSettings, s.ConcurrentBatches)
	}
	if s.Timeout <= 0 {
		return fmt.Errorf("%w: timeout must be > 0, got %s", ErrInvalidSettings, s.Timeout)
	}
	return nil
}

// MaxInFlight is the upper bound of concurrent lookups for these settings
func (s Settings) MaxInFlight() int {
	return s.BatchSize * s.ConcurrentBatches
}

// RunState is the lifecycle state of a run
type RunState int

const (
	RunStateIdle RunState = iota
	RunStateRunning
	RunStateCompleted
	RunStateCancelled
)

func (s RunState) String() string {
	switch s {
	case RunStateIdle:
		return "idle"
	case RunStateRunning:
		return "running"
	case RunStateCompleted:
		return "completed"
	case RunStateCancelled:
		return "cancelled"
	}
	return fmt.Sprintf("RunState(%d)", int(s))
}

// Terminal reports whether the state ends a run
func (s RunState) Terminal() bool {
	return s == RunStateCompleted || s == RunStateCancelled
}
