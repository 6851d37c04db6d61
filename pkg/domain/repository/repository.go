package repository

import "github.com/WangYihang/Domain-Checker/pkg/domain/entity"

// DomainFilter provides deduplication capabilities
type DomainFilter interface {
	// TestAndAdd reports whether the domain was seen before and records it
	TestAndAdd(domain string) bool
}

// ResultWriter writes domain results
type ResultWriter interface {
	// Write writes a single result
	Write(result entity.DomainResult) error
	// Flush ensures all buffered data is written
	Flush() error
	// Close closes the writer
	Close() error
}
