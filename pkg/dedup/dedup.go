package dedup

import (
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
)

// DefaultFalsePositiveRate is used when no valid rate is given
const DefaultFalsePositiveRate = 1e-9

// Filter implements repository.DomainFilter with a bloom filter
type Filter struct {
	filter *bloom.BloomFilter
	mu     sync.Mutex
}

// NewFilter creates a filter sized for n elements with the given false positive rate
func NewFilter(n uint, fp float64) *Filter {
	if n == 0 {
		n = 1
	}
	if fp <= 0 || fp >= 1 {
		fp = DefaultFalsePositiveRate
	}
	return &Filter{filter: bloom.NewWithEstimates(n, fp)}
}

// TestAndAdd reports whether domain was already added, and adds it
func (f *Filter) TestAndAdd(domain string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.filter.TestAndAddString(domain)
}

// Test tests membership
func (f *Filter) Test(domain string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.filter.TestString(domain)
}

// ApproximatedSize estimates the number of distinct domains added
func (f *Filter) ApproximatedSize() uint32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.filter.ApproximatedSize()
}
