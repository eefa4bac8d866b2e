// Package domain holds the data model shared across the retrieval,
// ranking, and generation stages of the pipeline.
package domain

import (
	"time"
)

// RoomType is one of the 15 exact room type names a review may be tagged with.
type RoomType string

// FuzzyRoomType is one of the 4 coarse room type buckets a review may be tagged with.
type FuzzyRoomType string

// TimeSensitivity classifies how much a query depends on recency.
type TimeSensitivity string

const (
	TimeSensitivityClear   TimeSensitivity = "clear"
	TimeSensitivityImplied TimeSensitivity = "implied"
	TimeSensitivityNone    TimeSensitivity = "none"
)

// ExactRoomTypes is the closed set of 15 room type names.
var ExactRoomTypes = map[RoomType]struct{}{
	"花园大床房": {}, "花园双床房": {}, "豪华大床房": {}, "豪华双床房": {},
	"行政大床房": {}, "行政双床房": {}, "套房": {}, "家庭房": {},
	"海景大床房": {}, "海景双床房": {}, "商务大床房": {}, "商务双床房": {},
	"无窗房": {}, "亲子房": {}, "总统套房": {},
}

// FuzzyRoomTypes is the closed set of 4 coarse room type buckets.
var FuzzyRoomTypes = map[FuzzyRoomType]struct{}{
	"大床房": {}, "双床房": {}, "套房": {}, "家庭房": {},
}

// IsValidRoomType reports whether rt belongs to the exact closed set.
func IsValidRoomType(rt RoomType) bool {
	_, ok := ExactRoomTypes[rt]
	return ok
}

// IsValidFuzzyRoomType reports whether rt belongs to the fuzzy closed set.
func IsValidFuzzyRoomType(rt FuzzyRoomType) bool {
	_, ok := FuzzyRoomTypes[rt]
	return ok
}

// IsValidTimeSensitivity reports whether ts is clear, implied, or none.
func IsValidTimeSensitivity(ts TimeSensitivity) bool {
	switch ts {
	case TimeSensitivityClear, TimeSensitivityImplied, TimeSensitivityNone:
		return true
	default:
		return false
	}
}

// Review is an immutable user review record.
//
// Invariants: RoomType non-empty implies it belongs to ExactRoomTypes;
// FuzzyRoomType non-empty implies it belongs to FuzzyRoomTypes;
// PublishDate must not be in the future relative to the caller's "today".
type Review struct {
	CommentID     string
	Text          string
	Score         float64 // 0-5
	PublishDate   time.Time
	QualityScore  float64 // 0-10
	ReviewCount   int
	UsefulCount   int
	RoomType      RoomType
	FuzzyRoomType FuzzyRoomType
}

// Table is a read-only, process-lifetime lookup of reviews by comment_id.
// Lookup must be O(1) average per spec.md §5.
type Table struct {
	byID map[string]*Review
}

// NewTable builds a lookup table from a slice of reviews.
func NewTable(reviews []*Review) *Table {
	byID := make(map[string]*Review, len(reviews))
	for _, r := range reviews {
		byID[r.CommentID] = r
	}
	return &Table{byID: byID}
}

// Get returns the review for id, or nil if absent.
func (t *Table) Get(id string) *Review {
	if t == nil {
		return nil
	}
	return t.byID[id]
}

// Len returns the number of reviews in the table.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.byID)
}
