package input

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/WangYihang/Domain-Checker/pkg/dedup"
	"github.com/WangYihang/Domain-Checker/pkg/domain/repository"
	"github.com/WangYihang/Domain-Checker/pkg/domain/service"
	"github.com/WangYihang/Domain-Checker/pkg/infrastructure/domainservice"
)

// Report summarizes one ingestion pass
type Report struct {
	Domains    []string
	Rejected   int
	Duplicates int
}

// Loader reads raw domain lists and filters them down to valid, unique domains
type Loader struct {
	validator service.DomainValidator
	logger    *slog.Logger
	fp        float64
}

// NewLoader creates loader
func NewLoader(validator service.DomainValidator, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Loader{
		validator: validator,
		logger:    logger,
		fp:        dedup.DefaultFalsePositiveRate,
	}
}

// ReadFile reads raw entries from a file ("-" for stdin)
func (l *Loader) ReadFile(filePath string) ([]string, error) {
	if filePath == "-" {
		return ReadLines(os.Stdin)
	}

	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", filePath, err)
	}
	defer file.Close()

	return ReadLines(file)
}

// ReadLines splits the input on newlines, commas and whitespace, skipping
// blank lines and lines starting with '#'.
func ReadLines(r io.Reader) ([]string, error) {
	var entries []string
	scanner := bufio.NewScanner(r)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		entries = append(entries, strings.FieldsFunc(line, func(r rune) bool {
			return r == ',' || r == ';' || r == ' ' || r == '\t'
		})...)
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}

// Ingest normalizes, validates and deduplicates raw entries, preserving the
// order of first appearance. Invalid entries are dropped and counted.
func (l *Loader) Ingest(raw []string) Report {
	report := Report{Domains: make([]string, 0, len(raw))}
	var seen repository.DomainFilter = dedup.NewFilter(uint(len(raw)), l.fp)

	for _, entry := range raw {
		domain := domainservice.Normalize(entry)
		if !l.validator.IsValid(domain) {
			report.Rejected++
			l.logger.Debug("dropping invalid domain", "entry", entry)
			continue
		}
		if seen.TestAndAdd(domain) {
			report.Duplicates++
			continue
		}
		report.Domains = append(report.Domains, domain)
	}

	return report
}
