package service

import "context"

// DomainValidator validates domain names
type DomainValidator interface {
	// IsValid checks if a string is a syntactically plausible domain name
	IsValid(domain string) bool
}

// AvailabilityChecker decides whether a single domain is available
type AvailabilityChecker interface {
	// CheckAvailability returns true when the domain appears unregistered
	CheckAvailability(ctx context.Context, domain string) (bool, error)
}

// DNSResolver queries one DNS-over-HTTPS endpoint
type DNSResolver interface {
	// Name identifies the resolver in logs, errors and metrics
	Name() string
	// Query performs a single query for the domain
	Query(ctx context.Context, domain string) (*DNSResolution, error)
}

// DNSResolution represents the answer section returned by one resolver
type DNSResolution struct {
	Domain   string
	Resolver string
	Status   int
	Answers  []DNSRecord
	RTTMs    int64
}

// DNSRecord represents a DNS answer record
type DNSRecord struct {
	Name string
	Type uint16
	TTL  uint32
	Data string
}
