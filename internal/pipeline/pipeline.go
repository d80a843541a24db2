package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/lorecheck/lorecheck/internal/corpus"
	"github.com/lorecheck/lorecheck/internal/decide"
	"github.com/lorecheck/lorecheck/internal/evaluate"
	"github.com/lorecheck/lorecheck/internal/model"
	"github.com/lorecheck/lorecheck/internal/oracle"
	"github.com/lorecheck/lorecheck/internal/worker"
)

// sleepFunc is the sleep used between decompose retries (injectable for tests)
var sleepFunc = func(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// Pipeline orchestrates one case: backstory -> claims -> judgments ->
// decision. Data flows strictly one way; judgments never feed back into
// claim evaluation.
type Pipeline struct {
	library    *corpus.Library
	index      corpus.Index
	oracle     oracle.Oracle
	evaluator  *evaluate.Evaluator
	aggregator *decide.Aggregator
	config     *model.Config

	indexMu sync.Mutex // one book is indexed at most once per run
}

// New wires the pipeline from its collaborators.
func New(cfg *model.Config, library *corpus.Library, index corpus.Index, o oracle.Oracle) *Pipeline {
	return &Pipeline{
		library:    library,
		index:      index,
		oracle:     o,
		evaluator:  evaluate.NewEvaluator(o, index, cfg.Retrieval.TopK, cfg.Oracle.MaxRetries),
		aggregator: decide.NewAggregator(cfg.Decision.ConfidenceThreshold, cfg.Decision.MinContradictions),
		config:     cfg,
	}
}

// Run evaluates one case. The only per-case fatal error is an
// unresolvable book; everything downstream degrades instead of failing.
func (p *Pipeline) Run(ctx context.Context, c model.Case) (*model.Decision, error) {
	if err := p.ensureIndexed(ctx, c.Book); err != nil {
		return nil, err
	}

	claims := p.decompose(ctx, c)

	judgments := make([]model.Judgment, len(claims))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.claimWorkers())
	for i, claim := range claims {
		i, claim := i, claim
		g.Go(func() error {
			// Each evaluation sees only its own claim; results are
			// gathered by position, not arrival order.
			judgments[i] = p.evaluator.Evaluate(gctx, claim, c.Book, c.Character)
			return nil
		})
	}
	_ = g.Wait() // Evaluate never errors

	label, rationale := p.aggregator.Aggregate(judgments)

	return &model.Decision{
		CaseID:    c.ID,
		Book:      c.Book,
		Character: c.Character,
		Label:     label,
		Rationale: rationale,
		Judgments: judgments,
		DecidedAt: time.Now().UTC(),
	}, nil
}

// Result is the outcome of one case in a batch. Err is set only for
// per-case fatal failures (unknown book); the batch always continues.
type Result struct {
	Index    int
	Case     model.Case
	Decision *model.Decision
	Err      error
}

// RunMany evaluates cases and emits one Result per case in input order,
// as each completes. A cancelled context stops the batch at the next
// case boundary; already-emitted results stand.
func (p *Pipeline) RunMany(ctx context.Context, cases []model.Case, emit func(Result)) error {
	if emit == nil {
		emit = func(Result) {}
	}

	emitter := &orderedEmitter{pending: make(map[int]Result), emit: emit}

	var g errgroup.Group
	g.SetLimit(p.caseWorkers())
	for i, c := range cases {
		// Cooperative cancellation checkpoint between cases
		select {
		case <-ctx.Done():
			_ = g.Wait()
			return ctx.Err()
		default:
		}

		i, c := i, c
		g.Go(func() error {
			decision, err := p.Run(ctx, c)
			emitter.deliver(Result{Index: i, Case: c, Decision: decision, Err: err})
			return nil
		})
	}
	return g.Wait()
}

// ensureIndexed lazily chunks and indexes the case's book.
func (p *Pipeline) ensureIndexed(ctx context.Context, book string) error {
	p.indexMu.Lock()
	defer p.indexMu.Unlock()

	if p.index.HasBook(book) {
		return nil
	}

	text, err := p.library.Load(book)
	if err != nil {
		return err
	}

	chunks := corpus.Split(book, text, p.config.Retrieval.ChunkWords, p.config.Retrieval.OverlapWords)
	if len(chunks) == 0 {
		return fmt.Errorf("book %q contains no text to index", book)
	}
	if err := p.index.IndexBook(ctx, book, chunks); err != nil {
		return fmt.Errorf("index book %q: %w", book, err)
	}
	return nil
}

// decompose extracts claims from the backstory. A case is never dropped
// for lack of claims: when the oracle returns none (or stays unreachable
// past the retry ceiling), the whole backstory becomes a single claim.
func (p *Pipeline) decompose(ctx context.Context, c model.Case) []model.Claim {
	req := oracle.DecomposeRequest{
		Character: c.Character,
		Book:      c.Book,
		Backstory: c.Backstory,
	}

	var texts []string
	var err error
	for attempt := 0; attempt < p.maxRetries(); attempt++ {
		if attempt > 0 {
			if sleepErr := sleepFunc(ctx, worker.Backoff(attempt-1)); sleepErr != nil {
				break
			}
		}
		texts, err = p.oracle.Decompose(ctx, req)
		if err == nil {
			break
		}
	}

	if len(texts) == 0 {
		texts = []string{c.Backstory}
	}

	claims := make([]model.Claim, len(texts))
	for i, text := range texts {
		claims[i] = model.Claim{CaseID: c.ID, Ordinal: i, Text: text}
	}
	return claims
}

func (p *Pipeline) claimWorkers() int {
	if n := p.config.Concurrency.ClaimWorkers; n > 0 {
		return n
	}
	return 1
}

func (p *Pipeline) caseWorkers() int {
	if n := p.config.Concurrency.CaseWorkers; n > 0 {
		return n
	}
	return 1
}

func (p *Pipeline) maxRetries() int {
	if n := p.config.Oracle.MaxRetries; n > 0 {
		return n
	}
	return 3
}

// orderedEmitter delivers results in input order even when cases finish
// out of order.
type orderedEmitter struct {
	mu      sync.Mutex
	next    int
	pending map[int]Result
	emit    func(Result)
}

func (e *orderedEmitter) deliver(r Result) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.pending[r.Index] = r
	for {
		ready, ok := e.pending[e.next]
		if !ok {
			return
		}
		delete(e.pending, e.next)
		e.next++
		e.emit(ready)
	}
}
