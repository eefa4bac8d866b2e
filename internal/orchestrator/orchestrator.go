// Package orchestrator drives the pipeline end-to-end: intent
// recognition, query understanding, hybrid retrieval, ranking, and
// generation, emitting the event sequence from spec.md §4.6.
//
// Grounded on Tangerg-lynx ai/rag/pipeline.go's top-level Pipeline.Run,
// which sequences the same kind of stage chain (recognize -> understand
// -> retrieve -> generate) and fans independent stages out with
// errgroup, generalized here to this system's five-stage chain and its
// SSE event contract.
package orchestrator

import (
	"context"
	"errors"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hotelrag/concierge/internal/apperr"
	"github.com/hotelrag/concierge/internal/domain"
	"github.com/hotelrag/concierge/internal/generate"
	"github.com/hotelrag/concierge/internal/query"
	"github.com/hotelrag/concierge/internal/rank"
	"github.com/hotelrag/concierge/internal/retrieval"
)

// EventType identifies one of the four SSE event kinds from spec.md §4.6.
type EventType string

const (
	EventIntent     EventType = "intent"
	EventReferences EventType = "references"
	EventChunk      EventType = "chunk"
	EventDone       EventType = "done"
	EventError      EventType = "error"
)

// Event is one item in the orchestrator's output sequence.
type Event struct {
	Type EventType
	Data any
}

// IntentPayload is the intent event's data.
type IntentPayload struct {
	NeedRetrieval bool `json:"need_retrieval"`
}

// ReferencesPayload is the references event's data.
type ReferencesPayload struct {
	Comments  []domain.RankedCandidate `json:"comments"`
	Summaries []domain.CategorySummary `json:"summaries"`
}

// ChunkPayload is one chunk event's data.
type ChunkPayload struct {
	Content string `json:"content"`
}

// DonePayload is the done event's data: the full timing breakdown.
type DonePayload struct {
	Timing Timing `json:"timing"`
}

// ErrorPayload is the error event's data.
type ErrorPayload struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Timing aggregates every stage's elapsed time for one request.
type Timing struct {
	Total    time.Duration                           `json:"total"`
	Route    map[domain.Route]retrieval.RouteTiming  `json:"route,omitempty"`
	Summary  retrieval.RouteTiming                   `json:"summary"`
	Rank     rank.Timing                             `json:"rank"`
	Generate generate.Timing                         `json:"generate"`
}

// Options bounds one request's pipeline behavior; field meanings mirror
// spec.md §6's "Recognized options".
type Options struct {
	EnableExpansion bool
	EnableRanking   bool
	RankingTopK     int
	Retrieval       retrieval.Config
	Weights         rank.Weights
	Decay           rank.DecayConfig
}

// DefaultOptions returns spec.md §6's documented defaults.
func DefaultOptions() Options {
	return Options{
		EnableExpansion: true,
		EnableRanking:   true,
		RankingTopK:     10,
		Retrieval: retrieval.Config{
			PerRouteTopK:  150,
			FinalTopK:     100,
			EnableBM25:    true,
			EnableVector:  true,
			EnableReverse: true,
			EnableHyde:    true,
			EnableSummary: true,
		},
		Weights: rank.DefaultWeights(),
		Decay:   rank.DefaultDecayConfig(),
	}
}

// Orchestrator wires every pipeline stage together.
type Orchestrator struct {
	Recognizer *query.Recognizer
	Detector   *query.Detector
	Expander   *query.Expander
	Retriever  *retrieval.Retriever
	Ranker     *rank.Ranker
	Generator  *generate.Generator
}

// understanding is the product of intent recognition, detection,
// expansion, retrieval, and ranking, shared by both the SSE branch and
// the non-streaming references-only branch.
type understanding struct {
	needRetrieval bool
	subQueries    []domain.SubQuery
	constraints   domain.Constraints
	ranked        []domain.RankedCandidate
	summaries     []domain.CategorySummary
	timing        Timing
}

func (o *Orchestrator) understand(ctx context.Context, userQuery, previousTurn string, opts Options) (understanding, error) {
	needRetrieval, err := o.Recognizer.Recognize(ctx, userQuery, previousTurn)
	if err != nil {
		return understanding{}, err
	}
	u := understanding{needRetrieval: needRetrieval}
	if !needRetrieval {
		return u, nil
	}

	var constraints domain.Constraints
	var subQueries []domain.SubQuery
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		constraints = o.Detector.Detect(gctx, userQuery)
		return nil
	})
	g.Go(func() error {
		if opts.EnableExpansion {
			subQueries = o.Expander.Expand(gctx, userQuery)
		}
		return nil
	})
	_ = g.Wait() // both stages degrade to their documented fallback internally

	if len(subQueries) == 0 {
		subQueries = domain.IdentitySubQuery(userQuery)
	}
	u.subQueries = subQueries
	u.constraints = constraints.Resolve()

	result, err := o.Retriever.Retrieve(ctx, subQueries, u.constraints, opts.Retrieval)
	if err != nil {
		return understanding{}, err
	}
	u.summaries = result.Summaries
	u.timing.Route = result.Timing
	u.timing.Summary = result.SummaryTiming

	if opts.EnableRanking && o.Ranker != nil {
		ranker := *o.Ranker
		ranker.Weights = opts.Weights
		ranker.Decay = opts.Decay
		ranked, rankTiming, err := ranker.Rank(ctx, userQuery, result.Candidates, u.constraints.TimeSensitivity, time.Now(), opts.RankingTopK)
		if err != nil {
			// Rerank is an external call; its failure degrades ranking to
			// RRF order rather than failing the request (spec.md §7
			// "partial-failure tolerant by design").
			u.ranked = fallbackRank(result.Candidates, opts.RankingTopK)
		} else {
			u.ranked = ranked
			u.timing.Rank = rankTiming
		}
	} else {
		u.ranked = fallbackRank(result.Candidates, opts.RankingTopK)
	}

	return u, nil
}

// fallbackRank orders candidates by their existing RRF rank when ranking
// is disabled or the reranker fails, so the pipeline still answers.
func fallbackRank(candidates []domain.Candidate, topK int) []domain.RankedCandidate {
	sorted := make([]domain.Candidate, len(candidates))
	copy(sorted, candidates)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].RRFRank < sorted[j].RRFRank })
	if topK > 0 && len(sorted) > topK {
		sorted = sorted[:topK]
	}
	ranked := make([]domain.RankedCandidate, len(sorted))
	for i, c := range sorted {
		ranked[i] = domain.RankedCandidate{Candidate: c, FinalRank: i + 1, RerankRank: c.RRFRank}
	}
	return ranked
}

// References runs recognition through ranking only, for the
// enable_generation=false branch (spec.md §6): returns the ranked
// comments, summaries, and timing as JSON, without ever calling the
// generator.
func (o *Orchestrator) References(ctx context.Context, userQuery, previousTurn string, opts Options) (ReferencesPayload, Timing, error) {
	start := time.Now()
	u, err := o.understand(ctx, userQuery, previousTurn, opts)
	if err != nil {
		return ReferencesPayload{}, Timing{}, err
	}
	u.timing.Total = time.Since(start)
	return ReferencesPayload{Comments: u.ranked, Summaries: u.summaries}, u.timing, nil
}

// Run drives the full pipeline and emits events via emit, in the order
// from spec.md §4.6. For a DIRECT branch the sequence collapses to
// chunk...done with no references event. On fatal failure it emits a
// single error event in place of all remaining events.
func (o *Orchestrator) Run(ctx context.Context, userQuery, previousTurn string, opts Options, emit func(Event)) error {
	start := time.Now()

	u, err := o.understand(ctx, userQuery, previousTurn, opts)
	if err != nil {
		emitError(emit, err)
		return err
	}
	emit(Event{Type: EventIntent, Data: IntentPayload{NeedRetrieval: u.needRetrieval}})

	if u.needRetrieval {
		emit(Event{Type: EventReferences, Data: ReferencesPayload{Comments: u.ranked, Summaries: u.summaries}})
	}

	prompt, err := generate.BuildPrompt(generate.PromptInput{
		UserQuery:    userQuery,
		PreviousTurn: previousTurn,
		Today:        time.Now(),
		SubQueries:   u.subQueries,
		Ranked:       u.ranked,
		Summaries:    u.summaries,
	})
	if err != nil {
		genErr := apperr.New(apperr.KindFatal, "build_prompt", err)
		emitError(emit, genErr)
		return genErr
	}

	for event := range o.Generator.GenerateStream(ctx, prompt) {
		if event.Err != nil {
			genErr := apperr.New(apperr.KindFatal, "generate", event.Err)
			emitError(emit, genErr)
			return genErr
		}
		if event.Done {
			u.timing.Generate = event.Timing
			break
		}
		emit(Event{Type: EventChunk, Data: ChunkPayload{Content: event.Content}})
	}

	u.timing.Total = time.Since(start)
	emit(Event{Type: EventDone, Data: DonePayload{Timing: u.timing}})
	return nil
}

func emitError(emit func(Event), err error) {
	kind := "fatal"
	var ae *apperr.Error
	if errors.As(err, &ae) {
		kind = ae.Kind.String()
	}
	emit(Event{Type: EventError, Data: ErrorPayload{Kind: kind, Message: err.Error()}})
}
