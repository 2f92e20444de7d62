package results

import (
	"strings"

	"github.com/tidwall/gjson"

	"github.com/ca-srg/footprint/internal/types"
)

// ParseResponse checks a response body at the system boundary and classifies
// its `results` value. Only a body that is not JSON is an error; every JSON
// document yields a RawResponse, degrading unknown shapes to NoResults.
func ParseResponse(body []byte) (*RawResponse, error) {
	if !gjson.ValidBytes(body) {
		return nil, &MalformedBodyError{Snippet: snippet(body)}
	}

	root := gjson.ParseBytes(body)
	raw := &RawResponse{ServerError: serverError(root)}
	if !root.IsObject() {
		raw.Payload = NoResults{Reason: "response is not an object"}
		return raw, nil
	}

	raw.Payload = classify(root.Get("results"))
	return raw, nil
}

// classify turns the `results` value into a Payload.
func classify(value gjson.Result) Payload {
	switch {
	case !value.Exists():
		return NoResults{Reason: "results field absent"}
	case value.Type == gjson.Null:
		return NoResults{Reason: "results is null"}
	case value.IsArray():
		return FlatResults{Items: extractItems(value)}
	case value.IsObject():
		return CategorizedResults{Categories: extractCategories(value)}
	default:
		return NoResults{Reason: "results has unsupported type " + value.Type.String()}
	}
}

func extractCategories(value gjson.Result) []Category {
	categories := make([]Category, 0)
	index := make(map[string]int)

	value.ForEach(func(key, items gjson.Result) bool {
		label := key.String()
		category := Category{Label: label, Items: extractItems(items)}

		// Repeated keys keep the first position and the last value.
		if i, seen := index[label]; seen {
			categories[i] = category
			return true
		}
		index[label] = len(categories)
		categories = append(categories, category)
		return true
	})

	return categories
}

// extractItems reads a sequence of items, keeping entries that satisfy the
// ResultItem schema. A non-array value yields no items.
func extractItems(value gjson.Result) []types.ResultItem {
	items := make([]types.ResultItem, 0)
	if !value.IsArray() {
		return items
	}

	value.ForEach(func(_, item gjson.Result) bool {
		decoded := item.Value()
		if err := validateItem(decoded); err != nil {
			return true
		}
		fields, ok := decoded.(map[string]interface{})
		if !ok {
			return true
		}
		items = append(items, types.ResultItem{
			URL:          text(fields["url"]),
			Title:        text(fields["title"]),
			Description:  text(fields["description"]),
			MatchContext: text(fields["match_context"]),
		})
		return true
	})

	return items
}

func text(v interface{}) string {
	s, _ := v.(string)
	return s
}

// serverError extracts the text of an `{"error": ..., "details": ...}` envelope.
func serverError(root gjson.Result) string {
	if !root.IsObject() {
		return ""
	}
	var parts []string
	for _, key := range []string{"error", "details"} {
		if v := root.Get(key); v.Type == gjson.String && v.Str != "" {
			parts = append(parts, v.Str)
		}
	}
	return strings.Join(parts, ": ")
}
