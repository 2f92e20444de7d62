package results

import (
	"fmt"
	"sync"

	"github.com/google/jsonschema-go/jsonschema"
)

// textField is a displayable item field; null reads as empty.
func textField() *jsonschema.Schema {
	return &jsonschema.Schema{Types: []string{"string", "null"}}
}

// itemSchema is the ResultItem contract. Unknown fields pass through; a known
// field of any other type makes the item undisplayable.
var itemSchema = &jsonschema.Schema{
	Type: "object",
	Properties: map[string]*jsonschema.Schema{
		"url":           textField(),
		"title":         textField(),
		"description":   textField(),
		"match_context": textField(),
	},
}

var (
	resolveOnce  sync.Once
	resolvedItem *jsonschema.Resolved
	resolveErr   error
)

func itemValidator() (*jsonschema.Resolved, error) {
	resolveOnce.Do(func() {
		resolvedItem, resolveErr = itemSchema.Resolve(nil)
		if resolveErr != nil {
			resolveErr = fmt.Errorf("results: failed to resolve item schema: %w", resolveErr)
		}
	})
	return resolvedItem, resolveErr
}

// validateItem checks one decoded item against the ResultItem schema.
func validateItem(item any) error {
	resolved, err := itemValidator()
	if err != nil {
		return err
	}
	return resolved.Validate(item)
}
