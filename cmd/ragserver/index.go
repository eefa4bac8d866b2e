package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hotelrag/concierge/internal/bm25"
	"github.com/hotelrag/concierge/internal/domain"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build and inspect the BM25 index",
}

var indexBuildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build a BM25 index from the review corpus and save it to disk",
	RunE:  runIndexBuild,
}

func init() {
	indexCmd.AddCommand(indexBuildCmd)

	fs := indexBuildCmd.Flags()
	fs.String("review-data-path", "data/reviews.json", "path to the review corpus JSON file")
	fs.String("bm25-index-path", "data/bm25_index.gob", "output path for the built index")
	fs.String("stopwords-path", "", "optional newline-separated stopwords file")
}

func runIndexBuild(cmd *cobra.Command, _ []string) error {
	reviewPath, _ := cmd.Flags().GetString("review-data-path")
	outPath, _ := cmd.Flags().GetString("bm25-index-path")
	stopwordsPath, _ := cmd.Flags().GetString("stopwords-path")

	reviews, err := domain.LoadReviews(reviewPath)
	if err != nil {
		return fmt.Errorf("load reviews: %w", err)
	}

	var stopwords []string
	if stopwordsPath != "" {
		data, err := os.ReadFile(stopwordsPath)
		if err != nil {
			return fmt.Errorf("read stopwords: %w", err)
		}
		stopwords = strings.Fields(string(data))
	}

	tokenizer := bm25.NewTokenizer(nil)
	builder := bm25.NewBuilder(tokenizer, stopwords, bm25.DefaultConstants())
	for _, r := range reviews {
		builder.Add(r.CommentID, r.Text)
	}
	idx := builder.Build()

	if err := idx.Save(outPath); err != nil {
		return fmt.Errorf("save index: %w", err)
	}
	fmt.Printf("built bm25 index over %d reviews -> %s\n", len(reviews), outPath)
	return nil
}
