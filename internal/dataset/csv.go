// Package dataset reads evaluation cases from CSV and writes prediction
// rows back out, one row per case in input order.
package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/lorecheck/lorecheck/internal/model"
)

// FailedLabel marks output rows for cases that could not be evaluated.
// Distinguishable from both real labels on purpose.
const FailedLabel = "failed"

var outputHeader = []string{"id", "prediction", "rationale", "book", "character"}

// ReadCases loads cases from a CSV file with header columns id,
// book_name, char, content and an optional label column. Column order is
// irrelevant; unknown columns are ignored.
func ReadCases(path string) ([]model.Case, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open cases file: %w", err)
	}
	defer func() { _ = f.Close() }()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"id", "book_name", "char", "content"} {
		if _, ok := columns[required]; !ok {
			return nil, fmt.Errorf("cases file is missing column %q", required)
		}
	}

	field := func(record []string, name string) string {
		idx, ok := columns[name]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	var cases []model.Case
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read record at line %d: %w", line, err)
		}

		c := model.Case{
			ID:        field(record, "id"),
			Book:      field(record, "book_name"),
			Character: field(record, "char"),
			Backstory: field(record, "content"),
		}
		if raw := field(record, "label"); raw != "" {
			label, err := model.ParseLabel(raw)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			c.Truth = label
		}
		cases = append(cases, c)
	}
	return cases, nil
}

// ResultWriter appends one output row per completed case. Every row is
// flushed as it is written, so an interrupted batch keeps everything
// finished so far.
type ResultWriter struct {
	file   *os.File
	writer *csv.Writer
}

// NewResultWriter creates the output file and writes the header.
func NewResultWriter(path string) (*ResultWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create results file: %w", err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(outputHeader); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("write header: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("flush header: %w", err)
	}

	return &ResultWriter{file: f, writer: w}, nil
}

// WriteDecision appends a row for a successfully decided case.
func (w *ResultWriter) WriteDecision(d *model.Decision) error {
	return w.append([]string{d.CaseID, string(d.Label), d.Rationale, d.Book, d.Character})
}

// WriteFailure appends a placeholder row for a case that failed.
func (w *ResultWriter) WriteFailure(c model.Case, cause error) error {
	return w.append([]string{c.ID, FailedLabel, fmt.Sprintf("error: %v", cause), c.Book, c.Character})
}

func (w *ResultWriter) append(record []string) error {
	if err := w.writer.Write(record); err != nil {
		return fmt.Errorf("write row: %w", err)
	}
	w.writer.Flush()
	if err := w.writer.Error(); err != nil {
		return fmt.Errorf("flush row: %w", err)
	}
	return nil
}

// Close flushes and closes the output file.
func (w *ResultWriter) Close() error {
	w.writer.Flush()
	if err := w.writer.Error(); err != nil {
		_ = w.file.Close()
		return err
	}
	return w.file.Close()
}
