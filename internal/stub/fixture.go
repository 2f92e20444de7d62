// Package stub serves canned search responses for local development and tests.
package stub

import (
	_ "embed"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ca-srg/footprint/internal/types"
)

// MatchAny matches every name.
const MatchAny = "*"

//go:embed fixtures/default.yaml
var defaultFixture []byte

// Fixture is an ordered list of canned responses.
type Fixture struct {
	Cases []Case `yaml:"cases"`
}

// Case is the response for one name. Exactly one of Body, Results,
// Categories or Error shapes the payload; with none the payload is {"results": null}.
type Case struct {
	// Match is compared against the trimmed, lowercased name.
	Match      string             `yaml:"match"`
	Status     int                `yaml:"status,omitempty"`
	Delay      time.Duration      `yaml:"delay,omitempty"`
	Body       string             `yaml:"body,omitempty"`
	Results    []types.ResultItem `yaml:"results,omitempty"`
	Categories []CategoryFixture  `yaml:"categories,omitempty"`
	Error      string             `yaml:"error,omitempty"`
	Details    string             `yaml:"details,omitempty"`
}

// CategoryFixture is one category of a categorized response.
type CategoryFixture struct {
	Label string             `yaml:"label"`
	Items []types.ResultItem `yaml:"items"`
}

// DefaultFixture returns the built-in fixture.
func DefaultFixture() (*Fixture, error) {
	return ParseFixture(defaultFixture)
}

// LoadFixture reads a YAML fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture %s: %w", path, err)
	}
	fixture, err := ParseFixture(data)
	if err != nil {
		return nil, fmt.Errorf("fixture %s: %w", path, err)
	}
	return fixture, nil
}

// ParseFixture decodes and validates a YAML fixture.
func ParseFixture(data []byte) (*Fixture, error) {
	var fixture Fixture
	if err := yaml.Unmarshal(data, &fixture); err != nil {
		return nil, fmt.Errorf("failed to parse fixture: %w", err)
	}
	if err := fixture.validate(); err != nil {
		return nil, err
	}
	return &fixture, nil
}

func (f *Fixture) validate() error {
	if len(f.Cases) == 0 {
		return fmt.Errorf("fixture has no cases")
	}
	for i := range f.Cases {
		c := &f.Cases[i]
		c.Match = normalizeName(c.Match)
		if c.Match == "" {
			return fmt.Errorf("case %d: match is required", i)
		}
		if c.Status == 0 {
			c.Status = 200
		}
		if c.Status < 100 || c.Status > 599 {
			return fmt.Errorf("case %d (%s): invalid status %d", i, c.Match, c.Status)
		}
		if c.Delay < 0 {
			return fmt.Errorf("case %d (%s): delay must be non-negative", i, c.Match)
		}
		shapes := 0
		for _, set := range []bool{c.Body != "", c.Results != nil, c.Categories != nil, c.Error != ""} {
			if set {
				shapes++
			}
		}
		if shapes > 1 {
			return fmt.Errorf("case %d (%s): body, results, categories and error are exclusive", i, c.Match)
		}
	}
	return nil
}

// Lookup returns the first case matching name.
func (f *Fixture) Lookup(name string) (Case, bool) {
	key := normalizeName(name)
	for _, c := range f.Cases {
		if c.Match == MatchAny || c.Match == key {
			return c, true
		}
	}
	return Case{}, false
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// expander substitutes {name} and {slug} in fixture text.
type expander struct {
	name string
	slug string
}

func newExpander(name string) expander {
	trimmed := strings.TrimSpace(name)
	slug := strings.Join(strings.Fields(strings.ToLower(trimmed)), "-")
	return expander{name: trimmed, slug: url.PathEscape(slug)}
}

func (e expander) text(s string) string {
	return strings.NewReplacer("{name}", e.name, "{slug}", e.slug).Replace(s)
}

func (e expander) items(in []types.ResultItem) []types.ResultItem {
	out := make([]types.ResultItem, len(in))
	for i, item := range in {
		out[i] = types.ResultItem{
			URL:          e.text(item.URL),
			Title:        e.text(item.Title),
			Description:  e.text(item.Description),
			MatchContext: e.text(item.MatchContext),
		}
	}
	return out
}
