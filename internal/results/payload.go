// Package results classifies search service payloads and normalizes them into
// the ordered category form the renderers consume.
package results

import "github.com/ca-srg/footprint/internal/types"

// Shape identifies which variant a Payload holds.
type Shape string

const (
	ShapeNone        Shape = "none"
	ShapeFlat        Shape = "flat"
	ShapeCategorized Shape = "categorized"
)

// Payload is the classified `results` value: exactly one of FlatResults,
// CategorizedResults or NoResults.
type Payload interface {
	Shape() Shape
}

// FlatResults is the legacy ungrouped sequence.
type FlatResults struct {
	Items []types.ResultItem
}

// CategorizedResults is the grouped form, in server key order.
type CategorizedResults struct {
	Categories []Category
}

// NoResults stands for an absent, null or unrecognized `results` value.
type NoResults struct {
	Reason string
}

func (FlatResults) Shape() Shape        { return ShapeFlat }
func (CategorizedResults) Shape() Shape { return ShapeCategorized }
func (NoResults) Shape() Shape          { return ShapeNone }

// Category is one labelled group of results.
type Category struct {
	Label string             `json:"label"`
	Items []types.ResultItem `json:"items"`
}

// RawResponse is a search service response that passed the boundary checks.
type RawResponse struct {
	Payload Payload
	// ServerError carries the `error`/`details` text of an error envelope, if any.
	ServerError string
}

// Shape returns the payload shape, ShapeNone for a nil response.
func (r *RawResponse) Shape() Shape {
	if r == nil || r.Payload == nil {
		return ShapeNone
	}
	return r.Payload.Shape()
}
