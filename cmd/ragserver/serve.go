package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/qdrant/go-client/qdrant"
	"github.com/spf13/cobra"
	sqvect "github.com/liliang-cn/sqvect/v2/pkg/core"

	"github.com/hotelrag/concierge/internal/bm25"
	"github.com/hotelrag/concierge/internal/config"
	"github.com/hotelrag/concierge/internal/domain"
	"github.com/hotelrag/concierge/internal/generate"
	"github.com/hotelrag/concierge/internal/llm"
	"github.com/hotelrag/concierge/internal/orchestrator"
	"github.com/hotelrag/concierge/internal/query"
	"github.com/hotelrag/concierge/internal/rank"
	"github.com/hotelrag/concierge/internal/retrieval"
	"github.com/hotelrag/concierge/internal/transport"
	"github.com/hotelrag/concierge/internal/vectorstore"
)

// embeddingDimensions is the fixed OpenAI embedding output size used
// across vector search, reverse-query search, and category summaries.
const embeddingDimensions = 1024

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the concierge HTTP server",
	RunE:  runServe,
}

func init() {
	fs := serveCmd.Flags()
	fs.String("listen-addr", "", "address to listen on, e.g. :8080")
	fs.String("openai-api-key", "", "OpenAI API key")
	fs.String("chat-model", "", "chat completion model name")
	fs.String("embedding-model", "", "embedding model name")
	fs.String("rerank-endpoint", "", "HTTP reranker endpoint")
	fs.String("qdrant-addr", "", "Qdrant address, host:port")
	fs.String("bm25-index-path", "", "path to a saved BM25 index")
	fs.String("review-data-path", "", "path to the review corpus JSON file")
}

func runServe(cmd *cobra.Command, _ []string) error {
	log := slog.New(slog.NewJSONHandler(os.Stderr, nil))

	cfg, err := config.Load(configFile, pflagBinder{fs: cmd.Flags(), flagKeys: serveFlagKeys})
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	orch, err := buildOrchestrator(cfg, log)
	if err != nil {
		return fmt.Errorf("build orchestrator: %w", err)
	}

	ready := false
	server := &transport.Server{
		Orchestrator: orch,
		Config:       cfg,
		Log:          log,
		Ready:        func() bool { return ready },
	}
	ready = true

	httpServer := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() {
		log.Info("listening", "addr", cfg.ListenAddr)
		errc <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
	case <-ctx.Done():
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
	}
	return nil
}

// buildOrchestrator wires every configured backend into a single
// Orchestrator, following cfg's route-enablement flags so a disabled route
// never needs its backend constructed.
func buildOrchestrator(cfg config.Config, log *slog.Logger) (*orchestrator.Orchestrator, error) {
	reviews, err := domain.LoadReviews(cfg.ReviewDataPath)
	if err != nil {
		return nil, fmt.Errorf("load reviews: %w", err)
	}
	table := domain.NewTable(reviews)

	chatModel := llm.NewOpenAIChatModel(cfg.OpenAIAPIKey, cfg.ChatModel)

	retriever := &retrieval.Retriever{Reviews: table}

	if cfg.EnableBM25 {
		idx, err := bm25.Load(cfg.BM25IndexPath)
		if err != nil {
			return nil, fmt.Errorf("load bm25 index: %w", err)
		}
		retriever.BM25Index = idx
	}

	needsEmbedding := cfg.EnableVector || cfg.EnableReverse || cfg.EnableSummary
	if needsEmbedding {
		retriever.EmbeddingModel = llm.NewOpenAIEmbeddingModel(cfg.OpenAIAPIKey, cfg.EmbeddingModel, embeddingDimensions)
	}

	if cfg.EnableVector || cfg.EnableReverse {
		host, port, err := splitHostPort(cfg.QdrantAddr)
		if err != nil {
			return nil, fmt.Errorf("parse qdrant_addr: %w", err)
		}
		client, err := qdrant.NewClient(&qdrant.Config{Host: host, Port: port})
		if err != nil {
			return nil, fmt.Errorf("connect qdrant: %w", err)
		}
		if cfg.EnableVector {
			retriever.CommentStore = vectorstore.NewQdrantCommentStore(client, cfg.CommentCollection)
		}
		if cfg.EnableReverse {
			retriever.ReverseStore = vectorstore.NewQdrantReverseQueryStore(client, cfg.ReverseCollection)
		}
	}

	if cfg.EnableHyde {
		retriever.HydeGenerator = query.NewHydeGenerator(chatModel, log)
	}

	if cfg.EnableSummary {
		store, err := sqvect.New(cfg.SummaryStorePath, embeddingDimensions)
		if err != nil {
			return nil, fmt.Errorf("open summary store: %w", err)
		}
		if err := store.Init(context.Background()); err != nil {
			return nil, fmt.Errorf("init summary store: %w", err)
		}
		retriever.SummaryStore = vectorstore.NewSqvectSummaryStore(store, cfg.SummaryCollection)
	}

	var reranker llm.Reranker
	if cfg.EnableRanking {
		reranker = llm.NewHTTPReranker(cfg.RerankEndpoint, cfg.RerankTimeout)
	}

	return &orchestrator.Orchestrator{
		Recognizer: query.NewRecognizer(chatModel, log),
		Detector:   query.NewDetector(chatModel, log),
		Expander:   query.NewExpander(chatModel, log),
		Retriever:  retriever,
		Ranker:     rank.New(reranker),
		Generator:  generate.New(chatModel),
	}, nil
}

func splitHostPort(addr string) (string, int, error) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return "", 0, err
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return "", 0, fmt.Errorf("invalid port %q: %w", portStr, err)
	}
	return host, port, nil
}
