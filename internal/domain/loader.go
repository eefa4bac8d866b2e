package domain

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// reviewRecord is the on-disk JSON shape for one review, loaded at
// startup into a Table (spec.md §6 "Persisted state... review table
// loaded into memory at startup").
type reviewRecord struct {
	CommentID     string  `json:"comment_id"`
	Text          string  `json:"text"`
	Score         float64 `json:"score"`
	PublishDate   string  `json:"publish_date"`
	QualityScore  float64 `json:"quality_score"`
	ReviewCount   int     `json:"review_count"`
	UsefulCount   int     `json:"useful_count"`
	RoomType      string  `json:"room_type"`
	FuzzyRoomType string  `json:"fuzzy_room_type"`
}

// LoadReviews reads a JSON array of reviews from path and returns them as
// Review values, skipping startup validation of closed-set membership
// (the detector/ranker treat an unrecognized value as absent, not fatal).
func LoadReviews(path string) ([]*Review, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("domain: read reviews %s: %w", path, err)
	}

	var records []reviewRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("domain: decode reviews %s: %w", path, err)
	}

	reviews := make([]*Review, 0, len(records))
	for _, rec := range records {
		publishDate, err := time.Parse("2006-01-02", rec.PublishDate)
		if err != nil {
			return nil, fmt.Errorf("domain: parse publish_date for %s: %w", rec.CommentID, err)
		}
		reviews = append(reviews, &Review{
			CommentID:     rec.CommentID,
			Text:          rec.Text,
			Score:         rec.Score,
			PublishDate:   publishDate,
			QualityScore:  rec.QualityScore,
			ReviewCount:   rec.ReviewCount,
			UsefulCount:   rec.UsefulCount,
			RoomType:      RoomType(rec.RoomType),
			FuzzyRoomType: FuzzyRoomType(rec.FuzzyRoomType),
		})
	}
	return reviews, nil
}
