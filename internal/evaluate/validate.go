package evaluate

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/lorecheck/lorecheck/internal/model"
)

// Verdict is the validated form of an oracle judge payload.
type Verdict struct {
	Label       model.Label
	Confidence  float64
	Rationale   string
	KeyEvidence string
}

// ParseVerdict maps the untrusted judge payload to a strict Verdict. All
// defensive parsing of oracle output lives here:
//   - label: "label" or "consistency" key, trimmed, case-insensitive;
//     anything but the two enumerated values is an error
//   - confidence: any numeric shape, clamped into [0, 1]; out-of-range
//     values are a quality signal, not a failure
//   - rationale ("rationale"/"reasoning") and key_evidence default to ""
func ParseVerdict(payload map[string]any) (Verdict, error) {
	if payload == nil {
		return Verdict{}, fmt.Errorf("empty judge payload")
	}

	rawLabel, ok := firstString(payload, "label", "consistency")
	if !ok {
		return Verdict{}, fmt.Errorf("judge payload has no label field")
	}
	label, err := model.ParseLabel(rawLabel)
	if err != nil {
		return Verdict{}, err
	}

	confidence := 0.0
	if raw, ok := firstValue(payload, "confidence"); ok {
		confidence, err = toFloat(raw)
		if err != nil {
			return Verdict{}, fmt.Errorf("judge payload confidence: %w", err)
		}
	}

	rationale, _ := firstString(payload, "rationale", "reasoning")
	keyEvidence, _ := firstString(payload, "key_evidence")

	return Verdict{
		Label:       label,
		Confidence:  ClampConfidence(confidence),
		Rationale:   rationale,
		KeyEvidence: keyEvidence,
	}, nil
}

// ClampConfidence forces a confidence value into the closed [0, 1]
// interval.
func ClampConfidence(c float64) float64 {
	if c != c { // NaN
		return 0
	}
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}

func firstValue(payload map[string]any, keys ...string) (any, bool) {
	for _, key := range keys {
		if v, ok := payload[key]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

func firstString(payload map[string]any, keys ...string) (string, bool) {
	v, ok := firstValue(payload, keys...)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// toFloat accepts the numeric shapes a decoded JSON payload can carry.
func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case json.Number:
		return n.Float64()
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, fmt.Errorf("not a number: %q", n)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("not a number: %T", v)
	}
}
