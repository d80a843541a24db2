package model

import (
	"fmt"
	"strings"
)

// Label is a two-valued consistency verdict. Any other value coming out of
// the reasoning oracle is a validation failure, never a silently accepted
// third state.
type Label string

const (
	LabelConsistent Label = "consistent"
	LabelContradict Label = "contradict"
)

// ParseLabel normalizes an untrusted label string (trimmed,
// case-insensitive) into one of the two enumerated values.
func ParseLabel(s string) (Label, error) {
	switch Label(strings.ToLower(strings.TrimSpace(s))) {
	case LabelConsistent:
		return LabelConsistent, nil
	case LabelContradict:
		return LabelContradict, nil
	default:
		return "", fmt.Errorf("invalid label %q (expected %q or %q)", s, LabelConsistent, LabelContradict)
	}
}

// Passage is one retrieved excerpt of a book, ranked by similarity to the
// claim query. Passages live only as long as the evaluation of their claim.
type Passage struct {
	Book     string  `json:"book"`
	Position int     `json:"position"` // Chunk sequence index within the book
	Rank     int     `json:"rank"`     // 1-based similarity rank in the result set
	Score    float64 `json:"score"`    // Similarity score (higher is closer)
	Text     string  `json:"text"`
}

// Judgment is the per-claim verdict returned by the claim evaluator.
type Judgment struct {
	Claim       Claim     `json:"claim"`
	Label       Label     `json:"label"`
	Confidence  float64   `json:"confidence"` // Always within [0, 1] after validation
	Rationale   string    `json:"rationale"`
	KeyEvidence string    `json:"key_evidence,omitempty"` // Passage the oracle cited
	Evidence    []Passage `json:"evidence,omitempty"`     // Passages shown to the oracle
	Degraded    bool      `json:"degraded,omitempty"`     // True when evaluation fell back after retry exhaustion
}
