package decide

import (
	"strings"
	"testing"

	"github.com/lorecheck/lorecheck/internal/model"
)

func judgment(label model.Label, confidence float64) model.Judgment {
	return model.Judgment{
		Claim:      model.Claim{Text: "claim"},
		Label:      label,
		Confidence: confidence,
		Rationale:  "because",
	}
}

func TestAggregate_TwoStrongContradictions(t *testing.T) {
	agg := NewAggregator(0.65, 2)
	judgments := []model.Judgment{
		judgment(model.LabelContradict, 0.9),
		judgment(model.LabelContradict, 0.7),
		judgment(model.LabelConsistent, 0.8),
	}

	label, rationale := agg.Aggregate(judgments)
	if label != model.LabelContradict {
		t.Errorf("expected contradict, got %s", label)
	}
	if !strings.Contains(rationale, "2 high-confidence contradictions") {
		t.Errorf("rationale should count contradictions: %q", rationale)
	}
}

func TestAggregate_SecondContradictionBelowThreshold(t *testing.T) {
	agg := NewAggregator(0.65, 2)
	judgments := []model.Judgment{
		judgment(model.LabelContradict, 0.9),
		judgment(model.LabelContradict, 0.5),
		judgment(model.LabelConsistent, 0.8),
	}

	label, rationale := agg.Aggregate(judgments)
	if label != model.LabelConsistent {
		t.Errorf("expected consistent, got %s", label)
	}
	if !strings.Contains(rationale, "Only 1 high-confidence contradiction") {
		t.Errorf("rationale should explain the shortfall: %q", rationale)
	}
}

func TestAggregate_ThresholdIsStrict(t *testing.T) {
	agg := NewAggregator(0.65, 2)
	judgments := []model.Judgment{
		judgment(model.LabelContradict, 0.65), // not strictly above
		judgment(model.LabelContradict, 0.66),
	}

	label, _ := agg.Aggregate(judgments)
	if label != model.LabelConsistent {
		t.Errorf("confidence exactly at threshold must not qualify, got %s", label)
	}
}

func TestAggregate_EmptyList(t *testing.T) {
	agg := NewAggregator(0.65, 2)
	label, rationale := agg.Aggregate(nil)
	if label != model.LabelConsistent {
		t.Errorf("empty list must aggregate to consistent, got %s", label)
	}
	if !strings.Contains(rationale, "No claims were evaluated") {
		t.Errorf("rationale should note missing claims: %q", rationale)
	}
}

func TestAggregate_Deterministic(t *testing.T) {
	agg := NewAggregator(0.65, 2)
	judgments := []model.Judgment{
		judgment(model.LabelContradict, 0.9),
		judgment(model.LabelContradict, 0.8),
	}

	label1, rationale1 := agg.Aggregate(judgments)
	label2, rationale2 := agg.Aggregate(judgments)
	if label1 != label2 || rationale1 != rationale2 {
		t.Error("aggregation must be deterministic for the same input")
	}
}

func TestAggregate_RationaleStrongestFirst(t *testing.T) {
	agg := NewAggregator(0.65, 2)
	weak := judgment(model.LabelContradict, 0.7)
	weak.KeyEvidence = "weak evidence"
	strong := judgment(model.LabelContradict, 0.95)
	strong.KeyEvidence = "strong evidence"

	_, rationale := agg.Aggregate([]model.Judgment{weak, strong})
	strongIdx := strings.Index(rationale, "strong evidence")
	weakIdx := strings.Index(rationale, "weak evidence")
	if strongIdx < 0 || weakIdx < 0 {
		t.Fatalf("rationale should cite both judgments: %q", rationale)
	}
	if strongIdx > weakIdx {
		t.Errorf("strongest contradiction should come first: %q", rationale)
	}
}

func TestAggregate_AllDegraded(t *testing.T) {
	agg := NewAggregator(0.65, 2)
	j := judgment(model.LabelConsistent, 0)
	j.Degraded = true
	j.Rationale = "evaluation failed: timeout"

	label, rationale := agg.Aggregate([]model.Judgment{j, j})
	if label != model.LabelConsistent {
		t.Errorf("all-failed set must fail open to consistent, got %s", label)
	}
	if !strings.Contains(rationale, "evaluations failed") {
		t.Errorf("rationale should note the degraded evaluations: %q", rationale)
	}
}

func TestAggregate_SupportiveEvidenceCited(t *testing.T) {
	agg := NewAggregator(0.65, 2)
	j := judgment(model.LabelConsistent, 0.8)
	j.KeyEvidence = "He sailed every summer."

	_, rationale := agg.Aggregate([]model.Judgment{j})
	if !strings.Contains(rationale, "He sailed every summer.") {
		t.Errorf("rationale should cite supportive evidence: %q", rationale)
	}
}

func TestAggregate_PolicyIsConfigurable(t *testing.T) {
	agg := NewAggregator(0.3, 1)
	judgments := []model.Judgment{judgment(model.LabelContradict, 0.4)}

	label, _ := agg.Aggregate(judgments)
	if label != model.LabelContradict {
		t.Errorf("looser policy should flag a single weak contradiction, got %s", label)
	}
}

func TestNewAggregator_DefensiveDefaults(t *testing.T) {
	agg := NewAggregator(0, 0)
	if agg.threshold != 0.65 || agg.minContradictions != 2 {
		t.Errorf("invalid policy should fall back to defaults, got %f/%d", agg.threshold, agg.minContradictions)
	}
}
