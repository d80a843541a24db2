package decide

import (
	"fmt"
	"sort"
	"strings"

	"github.com/lorecheck/lorecheck/internal/model"
)

// Aggregator combines an ordered judgment list into the final verdict.
// It is a pure function of its input: no I/O, deterministic, total over
// any well-formed judgment list including the empty one.
type Aggregator struct {
	threshold         float64
	minContradictions int
}

// NewAggregator creates an aggregator with the given policy. The rule:
// the backstory contradicts the book iff at least minContradictions
// judgments say contradict with confidence strictly above threshold.
func NewAggregator(threshold float64, minContradictions int) *Aggregator {
	if threshold <= 0 || threshold >= 1 {
		threshold = 0.65
	}
	if minContradictions <= 0 {
		minContradictions = 2
	}
	return &Aggregator{
		threshold:         threshold,
		minContradictions: minContradictions,
	}
}

// Aggregate returns the final label and an aggregate rationale for the
// judgment list.
func (a *Aggregator) Aggregate(judgments []model.Judgment) (model.Label, string) {
	if len(judgments) == 0 {
		return model.LabelConsistent, "No claims were evaluated; defaulting to consistent."
	}

	qualifying := make([]model.Judgment, 0, len(judgments))
	for _, j := range judgments {
		if j.Label == model.LabelContradict && j.Confidence > a.threshold {
			qualifying = append(qualifying, j)
		}
	}

	if len(qualifying) >= a.minContradictions {
		return model.LabelContradict, a.contradictRationale(qualifying)
	}
	return model.LabelConsistent, a.consistentRationale(judgments, len(qualifying))
}

// contradictRationale cites the qualifying judgments, strongest first.
func (a *Aggregator) contradictRationale(qualifying []model.Judgment) string {
	sorted := make([]model.Judgment, len(qualifying))
	copy(sorted, qualifying)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Confidence > sorted[j].Confidence
	})

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d high-confidence contradictions.", len(sorted))
	for i, j := range sorted {
		if i >= 3 {
			break
		}
		evidence := j.KeyEvidence
		if evidence == "" {
			evidence = j.Rationale
		}
		fmt.Fprintf(&b, " [%.2f] %q: %s", j.Confidence, j.Claim.Text, evidence)
	}
	return b.String()
}

// consistentRationale explains why no contradiction verdict was reached:
// either nothing qualified, or fewer than the required minimum did.
func (a *Aggregator) consistentRationale(judgments []model.Judgment, qualified int) string {
	if qualified > 0 {
		return fmt.Sprintf(
			"Only %d high-confidence contradiction(s) found (minimum %d required); backstory treated as consistent.",
			qualified, a.minContradictions)
	}

	degraded := 0
	for _, j := range judgments {
		if j.Degraded {
			degraded++
		}
	}
	if degraded == len(judgments) {
		return "All claim evaluations failed; no contradiction established, defaulting to consistent."
	}

	for _, j := range judgments {
		if j.Label == model.LabelConsistent && !j.Degraded {
			evidence := j.KeyEvidence
			if evidence == "" {
				evidence = j.Rationale
			}
			if evidence != "" {
				return fmt.Sprintf("Backstory aligns with character actions; evidence: %s", evidence)
			}
			break
		}
	}
	return "Backstory is generally aligned with the novel."
}
