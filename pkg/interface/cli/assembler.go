package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/WangYihang/Domain-Checker/pkg/application"
	"github.com/WangYihang/Domain-Checker/pkg/domain/entity"
	"github.com/WangYihang/Domain-Checker/pkg/domain/service"
	"github.com/WangYihang/Domain-Checker/pkg/infrastructure/dns"
	"github.com/WangYihang/Domain-Checker/pkg/infrastructure/domainservice"
	"github.com/WangYihang/Domain-Checker/pkg/infrastructure/http"
	"github.com/WangYihang/Domain-Checker/pkg/infrastructure/metrics"
	"github.com/WangYihang/Domain-Checker/pkg/infrastructure/storage"
	"github.com/WangYihang/Domain-Checker/pkg/input"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Assembler assembles all components for the application
type Assembler struct {
	config    *Config
	logger    *slog.Logger
	registry  *prometheus.Registry
	collector *metrics.Collector
}

// NewAssembler creates a new assembler with its own metrics registry
func NewAssembler(config *Config, logger *slog.Logger) *Assembler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return &Assembler{
		config:    config,
		logger:    logger,
		registry:  registry,
		collector: metrics.NewCollector(registry),
	}
}

// Registry returns the registry the metrics are registered on
func (a *Assembler) Registry() *prometheus.Registry {
	return a.registry
}

// AssembleLookupService builds one instrumented resolver per endpoint
func (a *Assembler) AssembleLookupService() (*dns.LookupService, error) {
	timeout := a.config.Settings().Timeout

	var resolvers []service.DNSResolver
	for _, rc := range a.config.ResolverConfigs() {
		rc.Fetcher = http.NewFetcher(http.Config{
			Timeout:         timeout,
			MaxResponseSize: a.config.MaxResponseSize,
			UserAgent:       a.config.UserAgent,
			Transport:       a.collector.InstrumentRoundTripper(rc.DisplayName(), http.NewTransport(timeout)),
		})
		resolver, err := dns.NewResolver(rc)
		if err != nil {
			return nil, fmt.Errorf("resolver %s: %w", rc.URL, err)
		}
		resolvers = append(resolvers, resolver)
	}

	return dns.NewLookupService(resolvers...)
}

// AssembleDispatcher wires the lookup service, executor and dispatcher
func (a *Assembler) AssembleDispatcher() (*application.Dispatcher, error) {
	lookup, err := a.AssembleLookupService()
	if err != nil {
		return nil, err
	}
	a.logger.Info("resolvers configured", "resolvers", lookup.Resolvers(), "format", a.config.ResolverFormat, "query_type", a.config.QueryType)

	executor := application.NewBatchExecutor(lookup, a.logger, a.collector)
	return application.NewDispatcher(executor, a.logger, a.collector), nil
}

// LoadDomains reads every configured source and ingests the entries
func (a *Assembler) LoadDomains() (input.Report, error) {
	validator := domainservice.NewValidator(domainservice.ValidatorConfig{StrictTLD: a.config.StrictTLD})
	loader := input.NewLoader(validator, a.logger)

	raw := append([]string(nil), a.config.Domains...)
	if a.config.ReadsStdin() {
		entries, err := loader.ReadFile("-")
		if err != nil {
			return input.Report{}, fmt.Errorf("read stdin: %w", err)
		}
		raw = append(raw, entries...)
	} else if a.config.InputFile != "" {
		entries, err := loader.ReadFile(a.config.InputFile)
		if err != nil {
			return input.Report{}, err
		}
		raw = append(raw, entries...)
	}

	report := loader.Ingest(raw)
	a.logger.Info("domains loaded",
		"entries", len(raw),
		"accepted", len(report.Domains),
		"rejected", report.Rejected,
		"duplicates", report.Duplicates,
	)
	return report, nil
}

// AssembleRun creates the run for the loaded domains
func (a *Assembler) AssembleRun(domains []string) (*application.Run, error) {
	return application.NewRun(domains, a.config.Settings())
}

// WriteExports writes every configured export of results
func (a *Assembler) WriteExports(results []entity.DomainResult) error {
	if a.config.OutputFile != "" {
		writer, err := storage.NewCSVWriter(a.config.OutputFile)
		if err != nil {
			return fmt.Errorf("failed to create csv writer: %w", err)
		}
		if err := storage.WriteAll(writer, results); err != nil {
			return fmt.Errorf("write %s: %w", a.config.OutputFile, err)
		}
	}

	if a.config.JSONLFile != "" {
		writer, err := storage.NewJSONLWriter(a.config.JSONLFile)
		if err != nil {
			return fmt.Errorf("failed to create jsonl writer: %w", err)
		}
		if err := storage.WriteAll(writer, results); err != nil {
			return fmt.Errorf("write %s: %w", a.config.JSONLFile, err)
		}
	}

	if err := a.exportDomains(a.config.AvailableOut, results, entity.StatusAvailable); err != nil {
		return err
	}
	return a.exportDomains(a.config.RegisteredOut, results, entity.StatusRegistered)
}

func (a *Assembler) exportDomains(path string, results []entity.DomainResult, status entity.Status) error {
	if path == "" {
		return nil
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	n, err := storage.ExportDomains(file, results, status)
	if err != nil {
		file.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	a.logger.Info("domains exported", "status", status, "count", n, "path", path)
	return file.Close()
}
