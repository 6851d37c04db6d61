package storage

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/WangYihang/Domain-Checker/pkg/domain/entity"
)

// TimestampLayout is ISO-8601 UTC with millisecond precision
const TimestampLayout = "2006-01-02T15:04:05.000Z"

var csvHeader = []string{"Domain", "Status", "Timestamp"}

func csvRecord(result entity.DomainResult) []string {
	return []string{
		result.Domain,
		string(result.Status),
		result.Timestamp.UTC().Format(TimestampLayout),
	}
}

// ParseCSV reads results written by CSVWriter. Result ids are not exported
// and come back empty.
func ParseCSV(r io.Reader) ([]entity.DomainResult, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = len(csvHeader)

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("missing csv header")
	}
	if err != nil {
		return nil, err
	}
	if !slices.Equal(header, csvHeader) {
		return nil, fmt.Errorf("unexpected csv header %v", header)
	}

	var results []entity.DomainResult
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		line, _ := reader.FieldPos(0)
		status, err := entity.ParseStatus(record[1])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		timestamp, err := time.Parse(TimestampLayout, record[2])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		results = append(results, entity.DomainResult{
			Domain:    record[0],
			Status:    status,
			Timestamp: timestamp,
		})
	}

	return results, nil
}

// ExportDomains writes the domains with the given status, one per line
func ExportDomains(w io.Writer, results []entity.DomainResult, status entity.Status) (int, error) {
	buf := bufio.NewWriter(w)
	n := 0
	for _, result := range results {
		if result.Status != status {
			continue
		}
		if _, err := buf.WriteString(result.Domain + "\n"); err != nil {
			return n, err
		}
		n++
	}
	return n, buf.Flush()
}
