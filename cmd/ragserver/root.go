package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:   "ragserver",
	Short: "Hotel-review concierge RAG service",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "path to a YAML config file")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(indexCmd)
}

// pflagBinder lets internal/config bind a cobra command's flags into viper
// without importing cobra or pflag itself. flagKeys maps each dash-named
// pflag to the underscore-named config key it overrides.
type pflagBinder struct {
	fs       *pflag.FlagSet
	flagKeys map[string]string
}

func (b pflagBinder) BindTo(v *viper.Viper) error {
	for flagName, key := range b.flagKeys {
		f := b.fs.Lookup(flagName)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return err
		}
	}
	return nil
}

// serveFlagKeys maps serveCmd's flags to the config keys they override.
var serveFlagKeys = map[string]string{
	"listen-addr":      "listen_addr",
	"openai-api-key":   "openai_api_key",
	"chat-model":       "chat_model",
	"embedding-model":  "embedding_model",
	"rerank-endpoint":  "rerank_endpoint",
	"qdrant-addr":      "qdrant_addr",
	"bm25-index-path":  "bm25_index_path",
	"review-data-path": "review_data_path",
}
