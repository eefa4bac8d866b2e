// Package config loads process configuration for the concierge server:
// a YAML file, overridable by HOTELRAG_* environment variables,
// overridable again by CLI flags bound in cmd/ragserver.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/hotelrag/concierge/internal/rank"
	"github.com/hotelrag/concierge/internal/retrieval"
)

// Config is the full set of knobs spec.md §6's "Recognized options" and
// the ambient server surface need, with their documented defaults.
type Config struct {
	// Server
	ListenAddr string `mapstructure:"listen_addr"`

	// Model identifiers and endpoints
	OpenAIAPIKey       string        `mapstructure:"openai_api_key"`
	ChatModel          string        `mapstructure:"chat_model"`
	EmbeddingModel     string        `mapstructure:"embedding_model"`
	RerankEndpoint     string        `mapstructure:"rerank_endpoint"`
	RerankTimeout      time.Duration `mapstructure:"rerank_timeout"`
	QdrantAddr         string        `mapstructure:"qdrant_addr"`
	CommentCollection  string        `mapstructure:"comment_collection"`
	ReverseCollection  string        `mapstructure:"reverse_collection"`
	SummaryStorePath   string        `mapstructure:"summary_store_path"`
	SummaryCollection  string        `mapstructure:"summary_collection"`

	// Persisted state paths
	BM25IndexPath  string `mapstructure:"bm25_index_path"`
	StopwordsPath  string `mapstructure:"stopwords_path"`
	ReviewDataPath string `mapstructure:"review_data_path"`

	// Recognized request-option defaults (spec.md §6)
	RouteTopK       int  `mapstructure:"route_topk"`
	RetrievalTopK   int  `mapstructure:"retrieval_topk"`
	RankingTopK     int  `mapstructure:"ranking_topk"`
	EnableExpansion bool `mapstructure:"enable_expansion"`
	EnableBM25      bool `mapstructure:"enable_bm25"`
	EnableVector    bool `mapstructure:"enable_vector"`
	EnableReverse   bool `mapstructure:"enable_reverse"`
	EnableHyde      bool `mapstructure:"enable_hyde"`
	EnableSummary   bool `mapstructure:"enable_summary"`
	EnableRanking   bool `mapstructure:"enable_ranking"`

	WRelevance float64 `mapstructure:"w_relevance"`
	WQuality   float64 `mapstructure:"w_quality"`
	WLength    float64 `mapstructure:"w_length"`
	WReview    float64 `mapstructure:"w_review"`
	WUseful    float64 `mapstructure:"w_useful"`
	WRecency   float64 `mapstructure:"w_recency"`

	BaseDecay    float64 `mapstructure:"base_decay"`
	ImpliedBoost float64 `mapstructure:"implied_boost"`
	ClearBoost   float64 `mapstructure:"clear_boost"`
	HalfLifeDays float64 `mapstructure:"half_life_days"`
}

// Defaults returns spec.md §6's documented option defaults plus this
// server's own ambient defaults.
func Defaults() Config {
	return Config{
		ListenAddr:        ":8080",
		ChatModel:         "gpt-4o-mini",
		EmbeddingModel:    "text-embedding-3-large",
		RerankTimeout:     5 * time.Second,
		CommentCollection: "hotel_comments",
		ReverseCollection: "hotel_comments_reverse",
		SummaryCollection: "hotel_category_summaries",
		BM25IndexPath:     "data/bm25_index.gob",
		ReviewDataPath:    "data/reviews.json",

		RouteTopK:       150,
		RetrievalTopK:   100,
		RankingTopK:     10,
		EnableExpansion: true,
		EnableBM25:      true,
		EnableVector:    true,
		EnableReverse:   true,
		EnableHyde:      true,
		EnableSummary:   true,
		EnableRanking:   true,

		WRelevance: 0.40,
		WQuality:   0.25,
		WLength:    0.05,
		WReview:    0.05,
		WUseful:    0.05,
		WRecency:   0.20,

		BaseDecay:    0.5,
		ImpliedBoost: 0.5,
		ClearBoost:   0.5,
		HalfLifeDays: 180,
	}
}

// Load reads configFile (if it exists), then HOTELRAG_* environment
// variables, layered over Defaults(). flags, if non-nil, is bound last so
// CLI overrides win (cmd/ragserver wires cobra's *pflag.FlagSet here).
func Load(configFile string, flags FlagBinder) (Config, error) {
	v := viper.New()

	defaults := Defaults()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("HOTELRAG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v, defaults)

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", configFile, err)
		}
	}

	if flags != nil {
		if err := flags.BindTo(v); err != nil {
			return Config{}, fmt.Errorf("config: bind flags: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: unmarshal: %w", err)
	}
	return cfg, nil
}

// FlagBinder lets cmd/ragserver bind its cobra flag set into viper without
// this package importing cobra/pflag directly.
type FlagBinder interface {
	BindTo(v *viper.Viper) error
}

func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("listen_addr", d.ListenAddr)
	v.SetDefault("chat_model", d.ChatModel)
	v.SetDefault("embedding_model", d.EmbeddingModel)
	v.SetDefault("rerank_timeout", d.RerankTimeout)
	v.SetDefault("comment_collection", d.CommentCollection)
	v.SetDefault("reverse_collection", d.ReverseCollection)
	v.SetDefault("summary_collection", d.SummaryCollection)
	v.SetDefault("bm25_index_path", d.BM25IndexPath)
	v.SetDefault("review_data_path", d.ReviewDataPath)

	v.SetDefault("route_topk", d.RouteTopK)
	v.SetDefault("retrieval_topk", d.RetrievalTopK)
	v.SetDefault("ranking_topk", d.RankingTopK)
	v.SetDefault("enable_expansion", d.EnableExpansion)
	v.SetDefault("enable_bm25", d.EnableBM25)
	v.SetDefault("enable_vector", d.EnableVector)
	v.SetDefault("enable_reverse", d.EnableReverse)
	v.SetDefault("enable_hyde", d.EnableHyde)
	v.SetDefault("enable_summary", d.EnableSummary)
	v.SetDefault("enable_ranking", d.EnableRanking)

	v.SetDefault("w_relevance", d.WRelevance)
	v.SetDefault("w_quality", d.WQuality)
	v.SetDefault("w_length", d.WLength)
	v.SetDefault("w_review", d.WReview)
	v.SetDefault("w_useful", d.WUseful)
	v.SetDefault("w_recency", d.WRecency)

	v.SetDefault("base_decay", d.BaseDecay)
	v.SetDefault("implied_boost", d.ImpliedBoost)
	v.SetDefault("clear_boost", d.ClearBoost)
	v.SetDefault("half_life_days", d.HalfLifeDays)
}

// Validate rejects configuration that would make the server unable to
// answer any request: zero retrieval routes enabled, or a nonsensical
// top-k (spec.md §7 "Input-invalid... zero routes enabled").
func (c Config) Validate() error {
	if !c.EnableBM25 && !c.EnableVector && !c.EnableReverse && !c.EnableHyde && !c.EnableSummary {
		return fmt.Errorf("config: at least one retrieval route must be enabled")
	}
	if c.RouteTopK <= 0 {
		return fmt.Errorf("config: route_topk must be positive, got %d", c.RouteTopK)
	}
	if c.RetrievalTopK <= 0 {
		return fmt.Errorf("config: retrieval_topk must be positive, got %d", c.RetrievalTopK)
	}
	if c.RankingTopK <= 0 {
		return fmt.Errorf("config: ranking_topk must be positive, got %d", c.RankingTopK)
	}
	return nil
}

// RetrievalConfig projects the retrieval-route portion of c into
// retrieval.Config, honoring hydeForStreaming's spec.md §6 override
// ("hyde=false in streaming" unless the caller explicitly re-enabled it).
func (c Config) RetrievalConfig(streaming bool, hydeOverride *bool) retrieval.Config {
	enableHyde := c.EnableHyde
	if streaming && hydeOverride == nil {
		enableHyde = false
	}
	if hydeOverride != nil {
		enableHyde = *hydeOverride
	}
	return retrieval.Config{
		PerRouteTopK:  c.RouteTopK,
		FinalTopK:     c.RetrievalTopK,
		EnableBM25:    c.EnableBM25,
		EnableVector:  c.EnableVector,
		EnableReverse: c.EnableReverse,
		EnableHyde:    enableHyde,
		EnableSummary: c.EnableSummary,
	}
}

// Weights projects c's per-key weight overrides into rank.Weights.
func (c Config) Weights() rank.Weights {
	return rank.Weights{
		Relevance: c.WRelevance,
		Quality:   c.WQuality,
		Length:    c.WLength,
		Review:    c.WReview,
		Useful:    c.WUseful,
		Recency:   c.WRecency,
	}
}

// Decay projects c's decay knobs into rank.DecayConfig.
func (c Config) Decay() rank.DecayConfig {
	return rank.DecayConfig{
		BaseDecay:    c.BaseDecay,
		ImpliedBoost: c.ImpliedBoost,
		ClearBoost:   c.ClearBoost,
		HalfLifeDays: c.HalfLifeDays,
	}
}
