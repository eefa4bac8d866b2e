package vectorstore

import (
	"fmt"
	"strings"

	"github.com/qdrant/go-client/qdrant"
)

// parseEqualityFilter converts the simple filter DSL from spec.md §6
// ("room_type = '<value>'" or "fuzzy_room_type = '<value>'") into a
// Qdrant match condition. The reference corpus's filter package
// (Tangerg-lynx ai/vectorstore/filter) implements a full boolean AST
// grammar; this system's filter is always a single closed-set equality
// comparison, so only that one shape is supported here rather than
// porting the whole expression engine.
func parseEqualityFilter(expr string) (*qdrant.Filter, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, nil
	}

	parts := strings.SplitN(expr, "=", 2)
	if len(parts) != 2 {
		return nil, fmt.Errorf("vectorstore: unsupported filter expression %q", expr)
	}

	field := strings.TrimSpace(parts[0])
	value := strings.TrimSpace(parts[1])
	value = strings.Trim(value, "'")

	return &qdrant.Filter{
		Must: []*qdrant.Condition{
			qdrant.NewMatch(field, value),
		},
	}, nil
}
