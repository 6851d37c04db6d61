package storage

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/WangYihang/Domain-Checker/pkg/domain/entity"
	"github.com/WangYihang/Domain-Checker/pkg/domain/repository"
)

// JSONLWriter implements repository.ResultWriter, one JSON object per line
type JSONLWriter struct {
	file    *os.File
	buf     *bufio.Writer
	encoder *json.Encoder
	mu      sync.Mutex
}

// NewJSONLWriter creates a new JSON lines writer
func NewJSONLWriter(filename string) (repository.ResultWriter, error) {
	file, err := os.Create(filename)
	if err != nil {
		return nil, err
	}

	buf := bufio.NewWriter(file)
	return &JSONLWriter{
		file:    file,
		buf:     buf,
		encoder: json.NewEncoder(buf),
	}, nil
}

// Write writes a single result
func (w *JSONLWriter) Write(result entity.DomainResult) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.encoder.Encode(result)
}

// Flush ensures all buffered data is written
func (w *JSONLWriter) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.buf.Flush(); err != nil {
		return err
	}
	return w.file.Sync()
}

// Close flushes and closes the writer
func (w *JSONLWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.buf.Flush(); err != nil {
		w.file.Close()
		return err
	}
	return w.file.Close()
}

// CSVWriter implements repository.ResultWriter in the Domain,Status,Timestamp
// format
type CSVWriter struct {
	file   *os.File
	writer *csv.Writer
	mu     sync.Mutex
}

// NewCSVWriter creates the file and writes the header row
func NewCSVWriter(filename string) (repository.ResultWriter, error) {
	file, err := os.Create(filename)
	if err != nil {
		return nil, err
	}

	writer := csv.NewWriter(file)
	if err := writer.Write(csvHeader); err != nil {
		file.Close()
		return nil, fmt.Errorf("write header: %w", err)
	}

	return &CSVWriter{
		file:   file,
		writer: writer,
	}, nil
}

// Write writes a single result row
func (w *CSVWriter) Write(result entity.DomainResult) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.writer.Write(csvRecord(result))
}

// Flush ensures all buffered rows are written
func (w *CSVWriter) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.writer.Flush()
	if err := w.writer.Error(); err != nil {
		return err
	}
	return w.file.Sync()
}

// Close flushes and closes the writer
func (w *CSVWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.writer.Flush()
	if err := w.writer.Error(); err != nil {
		w.file.Close()
		return err
	}
	return w.file.Close()
}

// WriteAll writes every result to writer, then flushes and closes it
func WriteAll(writer repository.ResultWriter, results []entity.DomainResult) error {
	for _, result := range results {
		if err := writer.Write(result); err != nil {
			writer.Close()
			return err
		}
	}
	if err := writer.Flush(); err != nil {
		writer.Close()
		return err
	}
	return writer.Close()
}
