package dns

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/WangYihang/Domain-Checker/pkg/domain/entity"
	"github.com/WangYihang/Domain-Checker/pkg/domain/service"
	dohhttp "github.com/WangYihang/Domain-Checker/pkg/infrastructure/http"
	"github.com/miekg/dns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestResolver(t *testing.T, url string, format Format) service.DNSResolver {
	t.Helper()
	r, err := NewResolver(Config{
		URL:     url,
		Format:  format,
		Fetcher: dohhttp.NewFetcher(dohhttp.Config{Timeout: 2 * time.Second}),
	})
	require.NoError(t, err)
	return r
}

func TestNewResolver(t *testing.T) {
	fetcher := dohhttp.NewFetcher(dohhttp.Config{Timeout: time.Second})

	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{"json", Config{URL: "https://dns.google/resolve", Format: FormatJSON, Fetcher: fetcher}, false},
		{"wire", Config{URL: "https://dns.google/dns-query", Format: FormatWire, Fetcher: fetcher}, false},
		{"default format", Config{URL: "https://dns.google/resolve", Fetcher: fetcher}, false},
		{"query type", Config{URL: "https://dns.google/resolve", QueryType: "a", Fetcher: fetcher}, false},
		{"bad url", Config{URL: "not a url", Fetcher: fetcher}, true},
		{"bad query type", Config{URL: "https://dns.google/resolve", QueryType: "NOPE", Fetcher: fetcher}, true},
		{"bad format", Config{URL: "https://dns.google/resolve", Format: "xml", Fetcher: fetcher}, true},
		{"no fetcher", Config{URL: "https://dns.google/resolve"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewResolver(tt.config)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewResolverDefaultName(t *testing.T) {
	r, err := NewResolver(Config{
		URL:     "https://cloudflare-dns.com/dns-query",
		Fetcher: dohhttp.NewFetcher(dohhttp.Config{Timeout: time.Second}),
	})
	require.NoError(t, err)
	assert.Equal(t, "cloudflare-dns.com", r.Name())
}

func TestDefaultConfigs(t *testing.T) {
	for _, format := range []Format{FormatJSON, FormatWire} {
		configs := DefaultConfigs(format)
		assert.Len(t, configs, MinResolvers)
		for _, c := range configs {
			assert.Equal(t, format, c.Format)
		}
	}
}

func TestJSONResolver_Query(t *testing.T) {
	var gotName, gotType, gotAccept string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotName = r.URL.Query().Get("name")
		gotType = r.URL.Query().Get("type")
		gotAccept = r.Header.Get("Accept")
		w.Header().Set("Content-Type", mimeDNSJSON)
		w.Write([]byte(`{"Status":0,"Answer":[{"name":"example.com.","type":1,"TTL":300,"data":"93.184.216.34"}]}`))
	}))
	defer server.Close()

	r := newTestResolver(t, server.URL, FormatJSON)
	resolution, err := r.Query(context.Background(), "example.com")
	require.NoError(t, err)

	assert.Equal(t, "example.com", gotName)
	assert.Equal(t, "ANY", gotType)
	assert.Equal(t, mimeDNSJSON, gotAccept)

	require.Len(t, resolution.Answers, 1)
	assert.Equal(t, dns.TypeA, resolution.Answers[0].Type)
	assert.Equal(t, "93.184.216.34", resolution.Answers[0].Data)
	assert.Equal(t, uint32(300), resolution.Answers[0].TTL)
}

func TestJSONResolver_NoAnswer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"Status":3}`))
	}))
	defer server.Close()

	r := newTestResolver(t, server.URL, FormatJSON)
	resolution, err := r.Query(context.Background(), "zzqx-unused.com")
	require.NoError(t, err)
	assert.Equal(t, dns.RcodeNameError, resolution.Status)
	assert.Empty(t, resolution.Answers)
}

func TestJSONResolver_Errors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		kind    entity.ErrorKind
	}{
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte("<html>not json</html>"))
			},
			kind: entity.KindMalformedResponse,
		},
		{
			name: "wrong field types",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"Status":"ok","Answer":"none"}`))
			},
			kind: entity.KindMalformedResponse,
		},
		{
			name: "servfail",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"Status":2}`))
			},
			kind: entity.KindMalformedResponse,
		},
		{
			name: "refused",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"Status":5}`))
			},
			kind: entity.KindMalformedResponse,
		},
		{
			name: "null body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`null`))
			},
			kind: entity.KindMalformedResponse,
		},
		{
			name: "missing status",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{}`))
			},
			kind: entity.KindMalformedResponse,
		},
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
			kind: entity.KindNetwork,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			r := newTestResolver(t, server.URL, FormatJSON)
			_, err := r.Query(context.Background(), "example.com")
			require.Error(t, err)
			assert.True(t, entity.IsKind(err, tt.kind), "got %v", err)
		})
	}
}

func TestJSONResolver_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	r := newTestResolver(t, server.URL, FormatJSON)
	_, err := r.Query(ctx, "example.com")
	require.Error(t, err)
	assert.True(t, entity.IsKind(err, entity.KindTimeout), "got %v", err)
}

func TestJSONResolver_ConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	r := newTestResolver(t, url, FormatJSON)
	_, err := r.Query(context.Background(), "example.com")
	require.Error(t, err)
	assert.True(t, entity.IsKind(err, entity.KindNetwork), "got %v", err)
}

func wireHandler(t *testing.T, answers ...string) http.HandlerFunc {
	rcode := dns.RcodeSuccess
	if len(answers) == 0 {
		rcode = dns.RcodeNameError
	}
	return wireRcodeHandler(t, rcode, answers...)
}

func wireRcodeHandler(t *testing.T, rcode int, answers ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Accept") != mimeDNSMessage {
			w.WriteHeader(http.StatusUnsupportedMediaType)
			return
		}
		packed, err := base64.RawURLEncoding.DecodeString(r.URL.Query().Get("dns"))
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		req := new(dns.Msg)
		if err := req.Unpack(packed); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		reply := new(dns.Msg)
		reply.SetRcode(req, rcode)
		for _, answer := range answers {
			rr, err := dns.NewRR(answer)
			if err != nil {
				t.Errorf("NewRR(%q): %v", answer, err)
				continue
			}
			reply.Answer = append(reply.Answer, rr)
		}

		out, err := reply.Pack()
		if err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", mimeDNSMessage)
		w.Write(out)
	}
}

func TestWireResolver_Query(t *testing.T) {
	server := httptest.NewServer(wireHandler(t, "example.com. 300 IN A 93.184.216.34"))
	defer server.Close()

	r := newTestResolver(t, server.URL, FormatWire)
	resolution, err := r.Query(context.Background(), "example.com")
	require.NoError(t, err)

	require.Len(t, resolution.Answers, 1)
	assert.Equal(t, "example.com.", resolution.Answers[0].Name)
	assert.Equal(t, dns.TypeA, resolution.Answers[0].Type)
	assert.Equal(t, "93.184.216.34", resolution.Answers[0].Data)
}

func TestWireResolver_NXDomain(t *testing.T) {
	server := httptest.NewServer(wireHandler(t))
	defer server.Close()

	r := newTestResolver(t, server.URL, FormatWire)
	resolution, err := r.Query(context.Background(), "zzqx-unused.com")
	require.NoError(t, err)
	assert.Equal(t, dns.RcodeNameError, resolution.Status)
	assert.Empty(t, resolution.Answers)
}

func TestWireResolver_Malformed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte{0x01, 0x02})
	}))
	defer server.Close()

	r := newTestResolver(t, server.URL, FormatWire)
	_, err := r.Query(context.Background(), "example.com")
	require.Error(t, err)
	assert.True(t, entity.IsKind(err, entity.KindMalformedResponse), "got %v", err)
}

func TestWireResolver_Unanswered(t *testing.T) {
	for _, rcode := range []int{dns.RcodeServerFailure, dns.RcodeRefused, dns.RcodeNotImplemented} {
		t.Run(dns.RcodeToString[rcode], func(t *testing.T) {
			server := httptest.NewServer(wireRcodeHandler(t, rcode))
			defer server.Close()

			r := newTestResolver(t, server.URL, FormatWire)
			_, err := r.Query(context.Background(), "example.com")
			require.Error(t, err)
			assert.True(t, entity.IsKind(err, entity.KindMalformedResponse), "got %v", err)
		})
	}
}
