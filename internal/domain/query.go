package domain

import "math"

// SubQuery is one weighted rewrite of the user's utterance produced by the expander.
type SubQuery struct {
	Text   string
	Weight float64
}

// AllowedSubQueryWeights is the closed set of weight quantization steps.
var AllowedSubQueryWeights = map[float64]struct{}{
	0.2: {}, 0.4: {}, 0.6: {}, 0.8: {}, 1.0: {},
}

const weightSumEpsilon = 1e-9

// ValidSubQueries reports whether qs satisfies the expander's output invariants:
// 1-3 items, weights drawn from the allowed set, weights summing to 1.0.
func ValidSubQueries(qs []SubQuery) bool {
	if len(qs) < 1 || len(qs) > 3 {
		return false
	}
	sum := 0.0
	for _, q := range qs {
		if _, ok := AllowedSubQueryWeights[q.Weight]; !ok {
			return false
		}
		sum += q.Weight
	}
	return math.Abs(sum-1.0) <= weightSumEpsilon
}

// IdentitySubQuery returns the single-element fallback substituted when
// expansion is disabled or fails.
func IdentitySubQuery(userQuery string) []SubQuery {
	return []SubQuery{{Text: userQuery, Weight: 1.0}}
}

// Constraints is the structured output of intent detection.
type Constraints struct {
	RoomType        RoomType
	FuzzyRoomType   FuzzyRoomType
	TimeSensitivity TimeSensitivity
}

// Resolve applies the "exact dominates fuzzy" rule from spec.md §3: when both
// an exact and a fuzzy room type are present, the fuzzy one is dropped.
func (c Constraints) Resolve() Constraints {
	if c.RoomType != "" && c.FuzzyRoomType != "" {
		c.FuzzyRoomType = ""
	}
	return c
}

// Filter returns the filter DSL string for this constraint set, or "" if
// neither room type is set. Values are drawn from closed sets so no
// escaping beyond single-quoting is required (spec.md §6).
func (c Constraints) Filter() string {
	resolved := c.Resolve()
	if resolved.RoomType != "" {
		return "room_type = '" + string(resolved.RoomType) + "'"
	}
	if resolved.FuzzyRoomType != "" {
		return "fuzzy_room_type = '" + string(resolved.FuzzyRoomType) + "'"
	}
	return ""
}
