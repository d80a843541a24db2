package evaluate

import (
	"context"
	"fmt"
	"time"

	"github.com/lorecheck/lorecheck/internal/model"
	"github.com/lorecheck/lorecheck/internal/oracle"
	"github.com/lorecheck/lorecheck/internal/worker"
)

// DegradedRationale marks judgments produced after retry exhaustion.
const DegradedRationale = "evaluation failed"

// sleepFunc is the sleep used between retries (injectable for tests)
var sleepFunc = sleepContext

// Retriever is the slice of the corpus index the evaluator needs.
type Retriever interface {
	Query(ctx context.Context, book, query string, topK int) ([]model.Passage, error)
}

// Evaluator scores one claim at a time: retrieve passages, ask the oracle
// for a judgment, validate the payload. It holds no mutable state, so one
// evaluator is safe to share across concurrent claim evaluations.
type Evaluator struct {
	oracle     oracle.Oracle
	index      Retriever
	topK       int
	maxRetries int
}

// NewEvaluator creates a claim evaluator.
func NewEvaluator(o oracle.Oracle, index Retriever, topK, maxRetries int) *Evaluator {
	if topK <= 0 {
		topK = 7
	}
	if maxRetries <= 0 {
		maxRetries = 3
	}
	return &Evaluator{
		oracle:     o,
		index:      index,
		topK:       topK,
		maxRetries: maxRetries,
	}
}

// Evaluate produces a judgment for one claim. It never returns an error:
// when the oracle stays unreachable or keeps answering garbage past the
// retry ceiling, the result is a degraded judgment biased toward
// consistent, so a backstory is not penalized for an inconclusive check.
func (e *Evaluator) Evaluate(ctx context.Context, claim model.Claim, book, character string) model.Judgment {
	passages := e.retrieve(ctx, claim, book, character)

	var lastErr error
	for attempt := 0; attempt < e.maxRetries; attempt++ {
		if attempt > 0 {
			if err := sleepFunc(ctx, worker.Backoff(attempt-1)); err != nil {
				lastErr = err
				break
			}
		}

		payload, err := e.oracle.Judge(ctx, oracle.JudgeRequest{
			Character: character,
			Book:      book,
			Claim:     claim.Text,
			Passages:  passages,
		})
		if err != nil {
			lastErr = err
			continue
		}

		verdict, err := ParseVerdict(payload)
		if err != nil {
			// Malformed payload is transient: the next attempt may parse
			lastErr = err
			continue
		}

		keyEvidence := verdict.KeyEvidence
		if keyEvidence == "" && len(passages) > 0 {
			keyEvidence = passages[0].Text
		}

		return model.Judgment{
			Claim:       claim,
			Label:       verdict.Label,
			Confidence:  verdict.Confidence,
			Rationale:   verdict.Rationale,
			KeyEvidence: keyEvidence,
			Evidence:    passages,
		}
	}

	return model.Judgment{
		Claim:      claim,
		Label:      model.LabelConsistent,
		Confidence: 0.0,
		Rationale:  fmt.Sprintf("%s: %v", DegradedRationale, lastErr),
		Evidence:   passages,
		Degraded:   true,
	}
}

// retrieve queries the corpus index for the claim. Zero passages, whether
// from an empty result or a failed query, degrades retrieval rather than
// failing the claim.
func (e *Evaluator) retrieve(ctx context.Context, claim model.Claim, book, character string) []model.Passage {
	query := fmt.Sprintf("%s: %s", character, claim.Text)

	var passages []model.Passage
	var err error
	for attempt := 0; attempt < e.maxRetries; attempt++ {
		if attempt > 0 {
			if sleepErr := sleepFunc(ctx, worker.Backoff(attempt-1)); sleepErr != nil {
				return nil
			}
		}
		passages, err = e.index.Query(ctx, book, query, e.topK)
		if err == nil {
			return passages
		}
	}
	return nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
