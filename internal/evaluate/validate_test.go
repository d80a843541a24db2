package evaluate

import (
	"strings"
	"testing"

	"github.com/lorecheck/lorecheck/internal/model"
)

func TestParseVerdict_Valid(t *testing.T) {
	verdict, err := ParseVerdict(map[string]any{
		"label":        "contradict",
		"confidence":   0.8,
		"rationale":    "conflicts with chapter 3",
		"key_evidence": "He never sailed.",
	})
	if err != nil {
		t.Fatalf("ParseVerdict failed: %v", err)
	}
	if verdict.Label != model.LabelContradict {
		t.Errorf("unexpected label: %s", verdict.Label)
	}
	if verdict.Confidence != 0.8 {
		t.Errorf("unexpected confidence: %f", verdict.Confidence)
	}
	if verdict.Rationale != "conflicts with chapter 3" {
		t.Errorf("unexpected rationale: %q", verdict.Rationale)
	}
	if verdict.KeyEvidence != "He never sailed." {
		t.Errorf("unexpected key evidence: %q", verdict.KeyEvidence)
	}
}

func TestParseVerdict_LabelNormalization(t *testing.T) {
	tests := []struct {
		raw  string
		want model.Label
	}{
		{"Consistent", model.LabelConsistent},
		{"  CONTRADICT  ", model.LabelContradict},
		{"consistent", model.LabelConsistent},
	}
	for _, tt := range tests {
		verdict, err := ParseVerdict(map[string]any{"label": tt.raw, "confidence": 0.5})
		if err != nil {
			t.Errorf("ParseVerdict(%q) failed: %v", tt.raw, err)
			continue
		}
		if verdict.Label != tt.want {
			t.Errorf("ParseVerdict(%q) = %s, want %s", tt.raw, verdict.Label, tt.want)
		}
	}
}

func TestParseVerdict_LegacyFieldNames(t *testing.T) {
	verdict, err := ParseVerdict(map[string]any{
		"consistency": "consistent",
		"confidence":  0.7,
		"reasoning":   "matches his arc",
	})
	if err != nil {
		t.Fatalf("ParseVerdict failed: %v", err)
	}
	if verdict.Label != model.LabelConsistent {
		t.Errorf("unexpected label: %s", verdict.Label)
	}
	if verdict.Rationale != "matches his arc" {
		t.Errorf("unexpected rationale: %q", verdict.Rationale)
	}
}

func TestParseVerdict_ConfidenceClamping(t *testing.T) {
	tests := []struct {
		name string
		raw  any
		want float64
	}{
		{"above range", 1.7, 1.0},
		{"below range", -0.3, 0.0},
		{"in range", 0.42, 0.42},
		{"boundary low", 0.0, 0.0},
		{"boundary high", 1.0, 1.0},
		{"numeric string", "2.5", 1.0},
		{"integer", 1, 1.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verdict, err := ParseVerdict(map[string]any{"label": "consistent", "confidence": tt.raw})
			if err != nil {
				t.Fatalf("ParseVerdict failed: %v", err)
			}
			if verdict.Confidence != tt.want {
				t.Errorf("confidence = %f, want %f", verdict.Confidence, tt.want)
			}
		})
	}
}

func TestParseVerdict_MissingOptionalFields(t *testing.T) {
	verdict, err := ParseVerdict(map[string]any{"label": "consistent"})
	if err != nil {
		t.Fatalf("ParseVerdict failed: %v", err)
	}
	if verdict.Confidence != 0 {
		t.Errorf("missing confidence should default to 0, got %f", verdict.Confidence)
	}
	if verdict.Rationale != "" {
		t.Errorf("missing rationale should default to empty, got %q", verdict.Rationale)
	}
}

func TestParseVerdict_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		payload map[string]any
		errPart string
	}{
		{"nil payload", nil, "empty"},
		{"no label", map[string]any{"confidence": 0.5}, "no label"},
		{"bad label", map[string]any{"label": "maybe"}, "invalid label"},
		{"non-numeric confidence", map[string]any{"label": "consistent", "confidence": []any{}}, "not a number"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseVerdict(tt.payload)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.errPart) {
				t.Errorf("error %q should mention %q", err, tt.errPart)
			}
		})
	}
}

func TestClampConfidence_NaN(t *testing.T) {
	nan := 0.0
	nan = nan / nan
	if got := ClampConfidence(nan); got != 0 {
		t.Errorf("NaN should clamp to 0, got %f", got)
	}
}
