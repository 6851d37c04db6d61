package dns

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/WangYihang/Domain-Checker/pkg/domain/entity"
	"github.com/WangYihang/Domain-Checker/pkg/domain/service"
	"github.com/WangYihang/Domain-Checker/pkg/infrastructure/http"
	"github.com/miekg/dns"
)

// Format selects the DNS-over-HTTPS flavour spoken by a resolver
type Format string

const (
	// FormatJSON is the JSON API served by Google and Cloudflare
	FormatJSON Format = "json"
	// FormatWire is RFC 8484 application/dns-message
	FormatWire Format = "wire"
)

const (
	mimeDNSJSON    = "application/dns-json"
	mimeDNSMessage = "application/dns-message"

	DefaultQueryType = "ANY"
)

// Config holds DNS resolver configuration
type Config struct {
	Name      string
	URL       string
	Format    Format
	QueryType string
	Fetcher   *http.Fetcher
}

// DisplayName returns Name, falling back to the host of URL
func (c Config) DisplayName() string {
	if c.Name != "" {
		return c.Name
	}
	if u, err := url.Parse(c.URL); err == nil && u.Host != "" {
		return u.Host
	}
	return c.URL
}

// DefaultConfigs returns the Google and Cloudflare endpoints for a format
func DefaultConfigs(format Format) []Config {
	if format == FormatWire {
		return []Config{
			{Name: "dns.google", URL: "https://dns.google/dns-query", Format: FormatWire},
			{Name: "cloudflare-dns.com", URL: "https://cloudflare-dns.com/dns-query", Format: FormatWire},
		}
	}
	return []Config{
		{Name: "dns.google", URL: "https://dns.google/resolve", Format: FormatJSON},
		{Name: "cloudflare-dns.com", URL: "https://cloudflare-dns.com/dns-query", Format: FormatJSON},
	}
}

// NewResolver creates a resolver for the configured format
func NewResolver(config Config) (service.DNSResolver, error) {
	endpoint, err := url.Parse(config.URL)
	if err != nil || endpoint.Scheme == "" || endpoint.Host == "" {
		return nil, fmt.Errorf("invalid resolver url %q", config.URL)
	}
	config.Name = config.DisplayName()
	if config.QueryType == "" {
		config.QueryType = DefaultQueryType
	}
	qtype, ok := dns.StringToType[strings.ToUpper(config.QueryType)]
	if !ok {
		return nil, fmt.Errorf("unknown query type %q", config.QueryType)
	}
	if config.Fetcher == nil {
		return nil, errors.New("resolver requires a fetcher")
	}

	base := baseResolver{
		name:     config.Name,
		endpoint: endpoint,
		qtype:    qtype,
		fetcher:  config.Fetcher,
	}

	switch config.Format {
	case FormatJSON, "":
		return &JSONResolver{baseResolver: base}, nil
	case FormatWire:
		return &WireResolver{baseResolver: base}, nil
	}
	return nil, fmt.Errorf("unknown resolver format %q", config.Format)
}

type baseResolver struct {
	name     string
	endpoint *url.URL
	qtype    uint16
	fetcher  *http.Fetcher
}

// Name implements service.DNSResolver
func (r *baseResolver) Name() string {
	return r.name
}

func (r *baseResolver) fail(domain string, kind entity.ErrorKind, err error) error {
	return &entity.LookupError{Domain: domain, Resolver: r.name, Kind: kind, Err: err}
}

// fetch issues the GET request and maps transport failures to lookup errors
func (r *baseResolver) fetch(ctx context.Context, domain string, query url.Values, accept string) (*http.Response, error) {
	u := *r.endpoint
	params := u.Query()
	for k, v := range query {
		params[k] = v
	}
	u.RawQuery = params.Encode()

	resp, err := r.fetcher.Get(ctx, u.String(), accept)
	if err != nil {
		return nil, r.fail(domain, classify(err), err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, r.fail(domain, entity.KindNetwork, fmt.Errorf("unexpected status code %d", resp.StatusCode))
	}
	return resp, nil
}

// checkRcode rejects replies where the resolver could not answer. Only
// NOERROR and NXDOMAIN say anything about registration.
func (r *baseResolver) checkRcode(domain string, rcode int) error {
	if Answered(rcode) {
		return nil
	}
	name, ok := dns.RcodeToString[rcode]
	if !ok {
		name = fmt.Sprintf("RCODE%d", rcode)
	}
	return r.fail(domain, entity.KindMalformedResponse, fmt.Errorf("resolver replied %s", name))
}

// Answered reports whether rcode is a definitive answer
func Answered(rcode int) bool {
	return rcode == dns.RcodeSuccess || rcode == dns.RcodeNameError
}

// classify maps a transport error to an error kind
func classify(err error) entity.ErrorKind {
	if errors.Is(err, context.DeadlineExceeded) {
		return entity.KindTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return entity.KindTimeout
	}
	return entity.KindNetwork
}

// JSONResolver speaks the dns-json API
type JSONResolver struct {
	baseResolver
}

type jsonMessage struct {
	Status *int         `json:"Status"`
	Answer []jsonAnswer `json:"Answer"`
}

type jsonAnswer struct {
	Name string `json:"name"`
	Type uint16 `json:"type"`
	TTL  uint32 `json:"TTL"`
	Data string `json:"data"`
}

// Query implements service.DNSResolver
func (r *JSONResolver) Query(ctx context.Context, domain string) (*service.DNSResolution, error) {
	start := time.Now()

	resp, err := r.fetch(ctx, domain, url.Values{
		"name": {domain},
		"type": {dns.TypeToString[r.qtype]},
	}, mimeDNSJSON)
	if err != nil {
		return nil, err
	}

	var msg jsonMessage
	if err := json.Unmarshal(resp.Body, &msg); err != nil {
		return nil, r.fail(domain, entity.KindMalformedResponse, err)
	}
	if msg.Status == nil {
		return nil, r.fail(domain, entity.KindMalformedResponse, errors.New("reply has no Status"))
	}
	if err := r.checkRcode(domain, *msg.Status); err != nil {
		return nil, err
	}

	resolution := &service.DNSResolution{
		Domain:   domain,
		Resolver: r.name,
		Status:   *msg.Status,
		Answers:  make([]service.DNSRecord, 0, len(msg.Answer)),
		RTTMs:    time.Since(start).Milliseconds(),
	}
	for _, answer := range msg.Answer {
		resolution.Answers = append(resolution.Answers, service.DNSRecord{
			Name: answer.Name,
			Type: answer.Type,
			TTL:  answer.TTL,
			Data: answer.Data,
		})
	}
	return resolution, nil
}

// WireResolver speaks RFC 8484 using GET and base64url-encoded messages
type WireResolver struct {
	baseResolver
}

// Query implements service.DNSResolver
func (r *WireResolver) Query(ctx context.Context, domain string) (*service.DNSResolution, error) {
	start := time.Now()

	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(domain), r.qtype)
	msg.RecursionDesired = true
	// RFC 8484 asks for ID 0 to keep responses cache friendly
	msg.Id = 0

	packed, err := msg.Pack()
	if err != nil {
		return nil, r.fail(domain, entity.KindMalformedResponse, fmt.Errorf("pack query: %w", err))
	}

	resp, err := r.fetch(ctx, domain, url.Values{
		"dns": {base64.RawURLEncoding.EncodeToString(packed)},
	}, mimeDNSMessage)
	if err != nil {
		return nil, err
	}

	reply := new(dns.Msg)
	if err := reply.Unpack(resp.Body); err != nil {
		return nil, r.fail(domain, entity.KindMalformedResponse, err)
	}
	if err := r.checkRcode(domain, reply.Rcode); err != nil {
		return nil, err
	}

	resolution := &service.DNSResolution{
		Domain:   domain,
		Resolver: r.name,
		Status:   reply.Rcode,
		Answers:  make([]service.DNSRecord, 0, len(reply.Answer)),
		RTTMs:    time.Since(start).Milliseconds(),
	}
	for _, rr := range reply.Answer {
		hdr := rr.Header()
		resolution.Answers = append(resolution.Answers, service.DNSRecord{
			Name: hdr.Name,
			Type: hdr.Rrtype,
			TTL:  hdr.Ttl,
			Data: strings.TrimSpace(strings.TrimPrefix(rr.String(), hdr.String())),
		})
	}
	return resolution, nil
}
