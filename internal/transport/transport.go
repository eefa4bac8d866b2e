// Package transport exposes the orchestrator over HTTP: a health probe
// and a chat endpoint that answers either as one JSON document or as an
// SSE stream, per spec.md §6 "External interfaces".
package transport

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cast"

	"github.com/hotelrag/concierge/internal/apperr"
	"github.com/hotelrag/concierge/internal/config"
	"github.com/hotelrag/concierge/internal/orchestrator"
	"github.com/hotelrag/concierge/internal/sse"
)

// Version is set by cmd/ragserver at build time.
var Version = "dev"

// Ready reports readiness for the health endpoint.
type Ready func() bool

// Server wires an Orchestrator into the HTTP surface.
type Server struct {
	Orchestrator *orchestrator.Orchestrator
	Config       config.Config
	Log          *slog.Logger
	Ready        Ready
}

// Handler builds the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	log := s.Log
	if log == nil {
		log = slog.Default()
	}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/health", s.handleHealth)
	mux.HandleFunc("POST /api/v1/chat", s.handleChat)
	return mux
}

type healthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	RagReady bool   `json:"rag_ready"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ready := s.Ready != nil && s.Ready()
	status := "ok"
	if !ready {
		status = "starting"
	}
	writeJSON(w, http.StatusOK, healthResponse{Status: status, Version: Version, RagReady: ready})
}

type chatRequest struct {
	Query        string         `json:"query"`
	PreviousTurn string         `json:"previous_turn"`
	Options      map[string]any `json:"options"`
}

type referencesResponse struct {
	References orchestrator.ReferencesPayload `json:"references"`
	Timing     orchestrator.Timing            `json:"timing"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	log := s.Log
	if log == nil {
		log = slog.Default()
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("query: malformed request body"))
		return
	}
	if req.Query == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query: query must not be empty"))
		return
	}

	requestID := uuid.NewString()
	log = log.With("request_id", requestID)

	streaming := enableGeneration(req.Options)
	opts := s.optionsFromRequest(req.Options, streaming)

	ctx := r.Context()
	if !streaming {
		refs, timing, err := s.Orchestrator.References(ctx, req.Query, req.PreviousTurn, opts)
		if err != nil {
			writeErr(w, log, err)
			return
		}
		log.InfoContext(ctx, "chat references served", "timing", timing)
		writeJSON(w, http.StatusOK, referencesResponse{References: refs, Timing: timing})
		return
	}

	writer, err := sse.NewWriter(&sse.WriterConfig{
		Context:        ctx,
		ResponseWriter: w,
		HeartBeat:      15 * time.Second,
	})
	if err != nil {
		writeErr(w, log, apperr.New(apperr.KindFatal, "chat", err))
		return
	}
	defer writer.Close()

	w.Header().Set("X-Accel-Buffering", "no")

	runErr := s.Orchestrator.Run(ctx, req.Query, req.PreviousTurn, opts, func(evt orchestrator.Event) {
		payload, err := json.Marshal(evt.Data)
		if err != nil {
			log.ErrorContext(ctx, "chat event marshal failed", "event", evt.Type, "error", err)
			return
		}
		if sendErr := writer.Send(&sse.Message{Event: string(evt.Type), Data: payload}); sendErr != nil {
			log.WarnContext(ctx, "chat event send failed", "event", evt.Type, "error", sendErr)
		}
	})
	if runErr != nil {
		log.WarnContext(ctx, "chat stream ended with error", "error", runErr)
	}
}

// enableGeneration reads options.enable_generation, defaulting to true
// (the streaming branch) when absent or malformed.
func enableGeneration(options map[string]any) bool {
	v, ok := options["enable_generation"]
	if !ok {
		return true
	}
	b, err := cast.ToBoolE(v)
	if err != nil {
		return true
	}
	return b
}

// optionsFromRequest overlays caller-supplied options (spec.md §6
// "Recognized options") onto the server's configured defaults, coercing
// loosely-typed JSON values with spf13/cast the way the reference
// pipeline's own option builders do.
func (s *Server) optionsFromRequest(options map[string]any, streaming bool) orchestrator.Options {
	cfg := s.Config

	var hydeOverride *bool
	if v, ok := options["enable_hyde"]; ok {
		if b, err := cast.ToBoolE(v); err == nil {
			hydeOverride = &b
		}
	}

	opts := orchestrator.Options{
		EnableExpansion: boolOpt(options, "enable_expansion", cfg.EnableExpansion),
		EnableRanking:   boolOpt(options, "enable_ranking", cfg.EnableRanking),
		RankingTopK:     intOpt(options, "ranking_topk", cfg.RankingTopK),
		Retrieval:       cfg.RetrievalConfig(streaming, hydeOverride),
		Weights:         cfg.Weights(),
		Decay:           cfg.Decay(),
	}

	opts.Retrieval.PerRouteTopK = intOpt(options, "route_topk", opts.Retrieval.PerRouteTopK)
	opts.Retrieval.FinalTopK = intOpt(options, "retrieval_topk", opts.Retrieval.FinalTopK)
	opts.Retrieval.EnableBM25 = boolOpt(options, "enable_bm25", opts.Retrieval.EnableBM25)
	opts.Retrieval.EnableVector = boolOpt(options, "enable_vector", opts.Retrieval.EnableVector)
	opts.Retrieval.EnableReverse = boolOpt(options, "enable_reverse", opts.Retrieval.EnableReverse)
	opts.Retrieval.EnableSummary = boolOpt(options, "enable_summary", opts.Retrieval.EnableSummary)

	opts.Weights.Relevance = floatOpt(options, "w_relevance", opts.Weights.Relevance)
	opts.Weights.Quality = floatOpt(options, "w_quality", opts.Weights.Quality)
	opts.Weights.Length = floatOpt(options, "w_length", opts.Weights.Length)
	opts.Weights.Review = floatOpt(options, "w_review", opts.Weights.Review)
	opts.Weights.Useful = floatOpt(options, "w_useful", opts.Weights.Useful)
	opts.Weights.Recency = floatOpt(options, "w_recency", opts.Weights.Recency)

	opts.Decay.BaseDecay = floatOpt(options, "base_decay", opts.Decay.BaseDecay)
	opts.Decay.ImpliedBoost = floatOpt(options, "implied_boost", opts.Decay.ImpliedBoost)
	opts.Decay.ClearBoost = floatOpt(options, "clear_boost", opts.Decay.ClearBoost)
	opts.Decay.HalfLifeDays = floatOpt(options, "half_life_days", opts.Decay.HalfLifeDays)

	return opts
}

func boolOpt(options map[string]any, key string, fallback bool) bool {
	v, ok := options[key]
	if !ok {
		return fallback
	}
	b, err := cast.ToBoolE(v)
	if err != nil {
		return fallback
	}
	return b
}

func intOpt(options map[string]any, key string, fallback int) int {
	v, ok := options[key]
	if !ok {
		return fallback
	}
	n, err := cast.ToIntE(v)
	if err != nil {
		return fallback
	}
	return n
}

func floatOpt(options map[string]any, key string, fallback float64) float64 {
	v, ok := options[key]
	if !ok {
		return fallback
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return fallback
	}
	return f
}

type errorResponse struct {
	Error string `json:"error"`
}

func errorBody(msg string) errorResponse {
	return errorResponse{Error: msg}
}

// writeErr maps a classified error to an HTTP status per spec.md §7's
// error policy table and writes it as JSON.
func writeErr(w http.ResponseWriter, log *slog.Logger, err error) {
	status := http.StatusInternalServerError
	var ae *apperr.Error
	if errors.As(err, &ae) {
		switch ae.Kind {
		case apperr.KindInput:
			status = http.StatusBadRequest
		case apperr.KindCancelled:
			status = http.StatusRequestTimeout
		case apperr.KindFatal, apperr.KindRouteTransient, apperr.KindParseFallback:
			status = http.StatusInternalServerError
		}
	}
	log.Error("chat request failed", "error", err, "status", status)
	writeJSON(w, status, errorBody(err.Error()))
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
