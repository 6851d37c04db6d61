package dns

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/WangYihang/Domain-Checker/pkg/domain/entity"
	"github.com/WangYihang/Domain-Checker/pkg/domain/service"
	"github.com/miekg/dns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubResolver struct {
	name    string
	answers []service.DNSRecord
	err     error
	calls   atomic.Int32
}

func (s *stubResolver) Name() string { return s.name }

func (s *stubResolver) Query(ctx context.Context, domain string) (*service.DNSResolution, error) {
	s.calls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	return &service.DNSResolution{Domain: domain, Resolver: s.name, Answers: s.answers}, nil
}

var (
	aRecord   = service.DNSRecord{Name: "example.com.", Type: dns.TypeA, Data: "93.184.216.34"}
	soaRecord = service.DNSRecord{Name: "example.com.", Type: dns.TypeSOA, Data: "ns.example.com. admin.example.com. 1 7200 3600 1209600 3600"}
)

func TestNewLookupService(t *testing.T) {
	_, err := NewLookupService(&stubResolver{name: "only"})
	assert.Error(t, err)

	s, err := NewLookupService(&stubResolver{name: "a"}, &stubResolver{name: "b"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, s.Resolvers())
}

func TestLookupService_CheckAvailability(t *testing.T) {
	tests := []struct {
		name      string
		first     []service.DNSRecord
		second    []service.DNSRecord
		available bool
	}{
		{"both empty", nil, nil, true},
		{"first answers", []service.DNSRecord{aRecord}, nil, false},
		{"second answers", nil, []service.DNSRecord{aRecord}, false},
		{"soa only", []service.DNSRecord{soaRecord}, nil, false},
		{"both answer", []service.DNSRecord{aRecord}, []service.DNSRecord{aRecord, soaRecord}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			first := &stubResolver{name: "first", answers: tt.first}
			second := &stubResolver{name: "second", answers: tt.second}
			s, err := NewLookupService(first, second)
			require.NoError(t, err)

			available, err := s.CheckAvailability(context.Background(), "example.com")
			require.NoError(t, err)
			assert.Equal(t, tt.available, available)
			assert.EqualValues(t, 1, first.calls.Load())
			assert.EqualValues(t, 1, second.calls.Load())
		})
	}
}

func TestLookupService_ResolverFailure(t *testing.T) {
	failing := &stubResolver{
		name: "failing",
		err:  &entity.LookupError{Domain: "example.com", Resolver: "failing", Kind: entity.KindMalformedResponse, Err: errors.New("bad json")},
	}
	s, err := NewLookupService(&stubResolver{name: "ok"}, failing)
	require.NoError(t, err)

	available, err := s.CheckAvailability(context.Background(), "example.com")
	require.Error(t, err)
	assert.False(t, available)
	assert.True(t, entity.IsKind(err, entity.KindMalformedResponse))
}

func TestLookupService_WrapsPlainErrors(t *testing.T) {
	s, err := NewLookupService(&stubResolver{name: "ok"}, &stubResolver{name: "plain", err: context.DeadlineExceeded})
	require.NoError(t, err)

	_, err = s.CheckAvailability(context.Background(), "example.com")
	require.Error(t, err)
	assert.True(t, entity.IsKind(err, entity.KindTimeout))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestIsAvailable(t *testing.T) {
	assert.False(t, IsAvailable(nil))
	assert.False(t, IsAvailable([]*service.DNSResolution{nil, {}}))
	assert.True(t, IsAvailable([]*service.DNSResolution{{}, {}}))
	assert.True(t, IsAvailable([]*service.DNSResolution{{Status: dns.RcodeNameError}, {}}))
	assert.False(t, IsAvailable([]*service.DNSResolution{{}, {Answers: []service.DNSRecord{soaRecord}}}))
	assert.False(t, IsAvailable([]*service.DNSResolution{{}, {Status: dns.RcodeServerFailure}}))
	assert.False(t, IsAvailable([]*service.DNSResolution{{Status: dns.RcodeRefused}, {}}))
}

func TestLookupService_UnansweredReplies(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"servfail", `{"Status":2}`},
		{"refused", `{"Status":5}`},
		{"null body", `null`},
		{"empty object", `{}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			s, err := NewLookupService(
				newTestResolver(t, server.URL, FormatJSON),
				newTestResolver(t, server.URL, FormatJSON),
			)
			require.NoError(t, err)

			available, err := s.CheckAvailability(context.Background(), "example.com")
			require.Error(t, err)
			assert.False(t, available)
			assert.True(t, entity.IsKind(err, entity.KindMalformedResponse), "got %v", err)
		})
	}
}
