package model

import "time"

// Decision is the terminal artifact of the pipeline for one case. It is
// derived once from the complete judgment list and never mutated. The
// judgments are kept, in decomposition order, for audit and debugging.
type Decision struct {
	CaseID    string    `json:"case_id"`
	Book      string    `json:"book"`
	Character string    `json:"character"`
	Label     Label     `json:"label"`
	Rationale string    `json:"rationale"`
	Judgments []Judgment `json:"judgments"`
	DecidedAt time.Time `json:"decided_at"`
}

// Contradictions returns the judgments with label=contradict whose
// confidence is strictly above threshold.
func (d *Decision) Contradictions(threshold float64) []Judgment {
	var out []Judgment
	for _, j := range d.Judgments {
		if j.Label == LabelContradict && j.Confidence > threshold {
			out = append(out, j)
		}
	}
	return out
}
