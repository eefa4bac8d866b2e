package bm25

import (
	"math"
	"sort"
)

// Constants are the BM25 tuning parameters from spec.md §4.1.
type Constants struct {
	K1 float64
	B  float64
}

// DefaultConstants returns the spec-mandated k1=1.5, b=0.75.
func DefaultConstants() Constants {
	return Constants{K1: 1.5, B: 0.75}
}

// Hit is a single scored search result.
type Hit struct {
	CommentID string
	Score     float64
}

// Index is the BM25 inverted index: term -> postings (comment_id -> term
// frequency), plus per-document length, corpus averages, and constants.
//
// Once built (or loaded), an Index is read-only and safe for concurrent
// search from multiple goroutines (spec.md §5 "Shared resources").
type Index struct {
	constants Constants
	postings  map[string]map[string]int // term -> commentID -> tf
	docLen    map[string]int            // commentID -> token count
	avgDocLen float64
	docCount  int
	stopwords []string
	tokenizer *Tokenizer
}

// Builder accumulates documents before finalizing an Index.
type Builder struct {
	constants Constants
	tokenizer *Tokenizer
	stopwords []string
	postings  map[string]map[string]int
	docLen    map[string]int
}

// NewBuilder creates a Builder with the given tokenizer and BM25 constants.
func NewBuilder(tokenizer *Tokenizer, stopwords []string, constants Constants) *Builder {
	if constants.K1 == 0 && constants.B == 0 {
		constants = DefaultConstants()
	}
	return &Builder{
		constants: constants,
		tokenizer: tokenizer,
		stopwords: stopwords,
		postings:  make(map[string]map[string]int),
		docLen:    make(map[string]int),
	}
}

// Add indexes one document's text under commentID. Calling Add twice with
// the same commentID replaces its prior postings.
func (b *Builder) Add(commentID, text string) {
	b.removeDoc(commentID)

	tokens := b.tokenizer.Tokenize(text)
	b.docLen[commentID] = len(tokens)

	for _, tok := range tokens {
		postings, ok := b.postings[tok]
		if !ok {
			postings = make(map[string]int)
			b.postings[tok] = postings
		}
		postings[commentID]++
	}
}

func (b *Builder) removeDoc(commentID string) {
	if _, exists := b.docLen[commentID]; !exists {
		return
	}
	for term, postings := range b.postings {
		delete(postings, commentID)
		if len(postings) == 0 {
			delete(b.postings, term)
		}
	}
	delete(b.docLen, commentID)
}

// Build finalizes the accumulated documents into a queryable Index.
func (b *Builder) Build() *Index {
	total := 0
	for _, n := range b.docLen {
		total += n
	}
	avg := 0.0
	if len(b.docLen) > 0 {
		avg = float64(total) / float64(len(b.docLen))
	}

	return &Index{
		constants: b.constants,
		postings:  b.postings,
		docLen:    b.docLen,
		avgDocLen: avg,
		docCount:  len(b.docLen),
		stopwords: b.stopwords,
		tokenizer: b.tokenizer,
	}
}

// idf computes IDF(t) = max(0, ln((N - df + 0.5)/(df + 0.5) + 1)).
func (idx *Index) idf(df int) float64 {
	n := float64(idx.docCount)
	d := float64(df)
	v := math.Log((n-d+0.5)/(d+0.5) + 1)
	if v < 0 {
		return 0
	}
	return v
}

// score computes BM25 score(d,q) for a single document against the given
// term frequency map of the query (terms absent from the index contribute 0).
func (idx *Index) scoreDoc(commentID string, queryTerms map[string]int) float64 {
	docLen := float64(idx.docLen[commentID])
	score := 0.0

	for term := range queryTerms {
		postings, ok := idx.postings[term]
		if !ok {
			continue
		}
		tf, ok := postings[commentID]
		if !ok {
			continue
		}

		df := len(postings)
		idf := idx.idf(df)
		numerator := float64(tf) * (idx.constants.K1 + 1)
		denominator := float64(tf) + idx.constants.K1*(1-idx.constants.B+idx.constants.B*docLen/idx.avgDocLen)
		score += idf * numerator / denominator
	}
	return score
}

// Search tokenizes query, scores every candidate document that shares at
// least one term with it, and returns the top-K results sorted by score
// descending, ties broken by comment_id ascending. An empty token list
// after filtering returns an empty result set, never an error.
func (idx *Index) Search(query string, topK int) []Hit {
	if topK <= 0 {
		return nil
	}

	tokens := idx.tokenizer.Tokenize(query)
	if len(tokens) == 0 {
		return nil
	}

	queryTerms := make(map[string]int, len(tokens))
	for _, tok := range tokens {
		queryTerms[tok]++
	}

	candidates := make(map[string]struct{})
	for term := range queryTerms {
		for docID := range idx.postings[term] {
			candidates[docID] = struct{}{}
		}
	}

	hits := make([]Hit, 0, len(candidates))
	for docID := range candidates {
		s := idx.scoreDoc(docID, queryTerms)
		if s > 0 {
			hits = append(hits, Hit{CommentID: docID, Score: s})
		}
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].CommentID < hits[j].CommentID
	})

	if len(hits) > topK {
		hits = hits[:topK]
	}
	return hits
}

// DocCount returns the number of documents indexed.
func (idx *Index) DocCount() int { return idx.docCount }
