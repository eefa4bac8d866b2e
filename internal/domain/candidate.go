package domain

// Route identifies which retrieval channel produced a hit.
type Route string

const (
	RouteBM25    Route = "bm25"
	RouteVector  Route = "vector"
	RouteReverse Route = "reverse"
	RouteHyde    Route = "hyde"
)

// RouteHit is a single ranked result emitted by one retrieval route.
// Rank is 1-based within the (Route, QueryIdx[, HydeIdx]) scope.
type RouteHit struct {
	CommentID string
	Route     Route
	Rank      int
	QueryIdx  int
	HydeIdx   int  // meaningful only when Route == RouteHyde
	HasHyde   bool // true when HydeIdx is meaningful
}

// Candidate is the fused view of a review produced by the hybrid retriever.
type Candidate struct {
	CommentID  string
	Text       string
	RRFScore   float64
	RRFRank    int
	RouteRanks map[Route][]RouteHit
	Review     *Review
}

// RankedCandidate extends Candidate with ranker output.
type RankedCandidate struct {
	Candidate
	RerankScore   float64
	RerankRank    int
	FinalScore    float64
	FinalRank     int
	FeatureScores FeatureScores
}

// FeatureScores holds the normalized [0,1] per-feature values that fed FinalScore.
type FeatureScores struct {
	Relevance float64
	Quality   float64
	Length    float64
	Review    float64
	Useful    float64
	Recency   float64
}

// CategorySummary is a retrieved category-level summary. It is never fused
// with comment candidates; it flows straight to the generator as context.
type CategorySummary struct {
	Category           string
	Keywords           []string
	SummaryText        string
	CommentCount       int
	RetrievedByQueries []int
}
