package dns

import (
	"context"
	"errors"
	"fmt"

	"github.com/WangYihang/Domain-Checker/pkg/domain/entity"
	"github.com/WangYihang/Domain-Checker/pkg/domain/service"
	"golang.org/x/sync/errgroup"
)

// MinResolvers is the number of independent resolvers a lookup consults
const MinResolvers = 2

// LookupService checks availability by querying every resolver in parallel
type LookupService struct {
	resolvers []service.DNSResolver
}

// NewLookupService creates a lookup service over at least two resolvers
func NewLookupService(resolvers ...service.DNSResolver) (*LookupService, error) {
	if len(resolvers) < MinResolvers {
		return nil, fmt.Errorf("lookup needs at least %d resolvers, got %d", MinResolvers, len(resolvers))
	}
	return &LookupService{resolvers: resolvers}, nil
}

// Resolvers returns the names of the configured resolvers
func (s *LookupService) Resolvers() []string {
	names := make([]string, 0, len(s.resolvers))
	for _, r := range s.resolvers {
		names = append(names, r.Name())
	}
	return names
}

// CheckAvailability implements service.AvailabilityChecker. Any resolver
// failure fails the whole lookup.
func (s *LookupService) CheckAvailability(ctx context.Context, domain string) (bool, error) {
	resolutions := make([]*service.DNSResolution, len(s.resolvers))

	g, gctx := errgroup.WithContext(ctx)
	for i, resolver := range s.resolvers {
		g.Go(func() error {
			resolution, err := resolver.Query(gctx, domain)
			if err != nil {
				return err
			}
			resolutions[i] = resolution
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		var le *entity.LookupError
		if errors.As(err, &le) {
			return false, err
		}
		return false, &entity.LookupError{Domain: domain, Kind: classify(err), Err: err}
	}

	return IsAvailable(resolutions), nil
}

// IsAvailable reports whether every resolver gave a definitive empty
// answer. Only the answer section is considered, so an SOA record there
// marks the name as taken while an authority-section SOA does not.
func IsAvailable(resolutions []*service.DNSResolution) bool {
	if len(resolutions) == 0 {
		return false
	}
	for _, resolution := range resolutions {
		if resolution == nil || !Answered(resolution.Status) || len(resolution.Answers) > 0 {
			return false
		}
	}
	return true
}
