package dataset

import (
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lorecheck/lorecheck/internal/model"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cases.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	return path
}

func TestReadCases_Basic(t *testing.T) {
	path := writeCSV(t, strings.Join([]string{
		"id,book_name,char,content,label",
		`1,Moby Dick,Ishmael,"He grew up by the sea, far from land.",consistent`,
		"2,Dracula,Mina,She studied law.,",
	}, "\n"))

	cases, err := ReadCases(path)
	if err != nil {
		t.Fatalf("ReadCases failed: %v", err)
	}
	if len(cases) != 2 {
		t.Fatalf("expected 2 cases, got %d", len(cases))
	}
	first := cases[0]
	if first.ID != "1" || first.Book != "Moby Dick" || first.Character != "Ishmael" {
		t.Errorf("unexpected case: %+v", first)
	}
	if first.Backstory != "He grew up by the sea, far from land." {
		t.Errorf("unexpected backstory: %q", first.Backstory)
	}
	if first.Truth != model.LabelConsistent {
		t.Errorf("unexpected truth label: %q", first.Truth)
	}
	if cases[1].Truth != "" {
		t.Errorf("missing label should stay empty, got %q", cases[1].Truth)
	}
}

func TestReadCases_ColumnOrderIrrelevant(t *testing.T) {
	path := writeCSV(t, strings.Join([]string{
		"content,char,id,book_name",
		"story text,Ada,7,Novel",
	}, "\n"))

	cases, err := ReadCases(path)
	if err != nil {
		t.Fatalf("ReadCases failed: %v", err)
	}
	if cases[0].ID != "7" || cases[0].Backstory != "story text" {
		t.Errorf("columns must be matched by header name: %+v", cases[0])
	}
}

func TestReadCases_MissingColumn(t *testing.T) {
	path := writeCSV(t, "id,book_name,char\n1,Novel,Ada")
	_, err := ReadCases(path)
	if err == nil || !strings.Contains(err.Error(), "content") {
		t.Errorf("expected missing-column error naming content, got %v", err)
	}
}

func TestReadCases_BadLabel(t *testing.T) {
	path := writeCSV(t, "id,book_name,char,content,label\n1,Novel,Ada,story,maybe")
	if _, err := ReadCases(path); err == nil {
		t.Error("expected error for invalid ground-truth label")
	}
}

func TestReadCases_MissingFile(t *testing.T) {
	if _, err := ReadCases(filepath.Join(t.TempDir(), "nope.csv")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestResultWriter_AppendAsCompleted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	w, err := NewResultWriter(path)
	if err != nil {
		t.Fatalf("NewResultWriter failed: %v", err)
	}

	decision := &model.Decision{
		CaseID:    "1",
		Book:      "Novel",
		Character: "Ada",
		Label:     model.LabelContradict,
		Rationale: "two strong contradictions",
	}
	if err := w.WriteDecision(decision); err != nil {
		t.Fatalf("WriteDecision failed: %v", err)
	}

	// Rows must be on disk before Close: append-as-completed, not
	// buffer-then-flush.
	onDisk, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read before close: %v", err)
	}
	if !strings.Contains(string(onDisk), "contradict") {
		t.Errorf("row not flushed before close: %q", onDisk)
	}

	failedCase := model.Case{ID: "2", Book: "Missing", Character: "Bo"}
	if err := w.WriteFailure(failedCase, errors.New("unknown book")); err != nil {
		t.Fatalf("WriteFailure failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open output: %v", err)
	}
	defer func() { _ = f.Close() }()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("parse output: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected header + 2 rows, got %d records", len(records))
	}
	if got := records[0]; strings.Join(got, ",") != "id,prediction,rationale,book,character" {
		t.Errorf("unexpected header: %v", got)
	}
	if records[1][1] != "contradict" || records[1][0] != "1" {
		t.Errorf("unexpected decision row: %v", records[1])
	}
	if records[2][1] != FailedLabel || !strings.Contains(records[2][2], "unknown book") {
		t.Errorf("failure row must be distinguishable with cause: %v", records[2])
	}
}
