package results

import "github.com/ca-srg/footprint/internal/types"

// UncategorizedLabel is the synthetic category holding a flat response.
const UncategorizedLabel = "uncategorized"

// NormalizedResults is the single shape every renderer consumes: categories
// in server order, items in received order.
type NormalizedResults struct {
	Categories []Category `json:"categories"`
	// Flat marks results that arrived as an ungrouped sequence.
	Flat bool `json:"flat"`
}

// Empty returns results with no categories.
func Empty() NormalizedResults {
	return NormalizedResults{Categories: []Category{}}
}

// Normalize converts a classified response into NormalizedResults. It never
// fails: a nil response or NoResults payload yields Empty.
func Normalize(raw *RawResponse) NormalizedResults {
	if raw == nil {
		return Empty()
	}

	switch p := raw.Payload.(type) {
	case FlatResults:
		return NormalizedResults{
			Categories: []Category{{Label: UncategorizedLabel, Items: cloneItems(p.Items)}},
			Flat:       true,
		}
	case CategorizedResults:
		return NormalizedResults{Categories: cloneCategories(p.Categories)}
	default:
		return Empty()
	}
}

// Decode parses and normalizes body in one step.
func Decode(body []byte) (NormalizedResults, error) {
	raw, err := ParseResponse(body)
	if err != nil {
		return Empty(), err
	}
	return Normalize(raw), nil
}

// IsEmpty reports whether every category has zero items. This decides whether
// the empty state is shown, not the number of categories.
func (n NormalizedResults) IsEmpty() bool {
	for _, c := range n.Categories {
		if len(c.Items) > 0 {
			return false
		}
	}
	return true
}

// TotalItems counts items across all categories.
func (n NormalizedResults) TotalItems() int {
	total := 0
	for _, c := range n.Categories {
		total += len(c.Items)
	}
	return total
}

// VisibleCategories returns the categories that have items, in order.
func (n NormalizedResults) VisibleCategories() []Category {
	visible := make([]Category, 0, len(n.Categories))
	for _, c := range n.Categories {
		if len(c.Items) > 0 {
			visible = append(visible, c)
		}
	}
	return visible
}

// Clone returns a deep copy safe to hand to another goroutine.
func (n NormalizedResults) Clone() NormalizedResults {
	return NormalizedResults{Categories: cloneCategories(n.Categories), Flat: n.Flat}
}

func cloneCategories(in []Category) []Category {
	out := make([]Category, len(in))
	for i, c := range in {
		out[i] = Category{Label: c.Label, Items: cloneItems(c.Items)}
	}
	return out
}

func cloneItems(in []types.ResultItem) []types.ResultItem {
	out := make([]types.ResultItem, len(in))
	copy(out, in)
	return out
}
