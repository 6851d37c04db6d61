package entity

import (
	"errors"
	"fmt"
)

// ErrorKind is a coarse-grained categorization for lookup and run errors
type ErrorKind string

const (
	KindInvalidDomain     ErrorKind = "invalid_domain"
	KindTimeout           ErrorKind = "timeout"
	KindNetwork           ErrorKind = "network"
	KindMalformedResponse ErrorKind = "malformed_response"
	KindUnexpectedWave    ErrorKind = "unexpected_wave"
)

// LookupError wraps a failed availability lookup
type LookupError struct {
	Domain   string
	Resolver string // empty when the failure is not tied to one resolver
	Kind     ErrorKind
	Err      error
}

func (e *LookupError) Error() string {
	if e == nil {
		return "<nil>"
	}

	base := fmt.Sprintf("lookup %s: %s", e.Domain, e.Kind)
	if e.Resolver != "" {
		base += fmt.Sprintf(" (resolver=%s)", e.Resolver)
	}
	if e.Err != nil {
		base += fmt.Sprintf(": %v", e.Err)
	}
	return base
}

func (e *LookupError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// WaveError reports a wave that failed unexpectedly and was dropped
type WaveError struct {
	Wave int
	Err  error
}

func (e *WaveError) Error() string {
	return fmt.Sprintf("wave %d: %s: %v", e.Wave, KindUnexpectedWave, e.Err)
}

func (e *WaveError) Unwrap() error {
	return e.Err
}

// KindOf returns the ErrorKind carried by err, or "" when there is none
func KindOf(err error) ErrorKind {
	var le *LookupError
	if errors.As(err, &le) {
		return le.Kind
	}
	var we *WaveError
	if errors.As(err, &we) {
		return KindUnexpectedWave
	}
	return ""
}

// IsKind helps callers classify errors without depending on infra packages
func IsKind(err error, kind ErrorKind) bool {
	return err != nil && KindOf(err) == kind
}
