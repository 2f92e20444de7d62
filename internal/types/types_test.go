package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQueryBlank(t *testing.T) {
	tests := []struct {
		name  string
		input string
		blank bool
	}{
		{"empty", "", true},
		{"spaces", "   ", true},
		{"tabs and newlines", "\t\n ", true},
		{"name", "Jane Doe", false},
		{"padded name", "  Jane  ", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.blank, Query{Name: tt.input}.Blank())
		})
	}
}

func TestQueryRequestKeepsInput(t *testing.T) {
	req := Query{Name: "  Jane Doe ", ExtraInfo: " MIT "}.Request()
	assert.Equal(t, "  Jane Doe ", req.Name)
	assert.Equal(t, " MIT ", req.ExtraInfo)
}

func TestConfigEndpoints(t *testing.T) {
	cfg := &Config{SearchBaseURL: "https://stkl.vercel.app/", SearchPath: "/api/search", HealthPath: "api/health"}
	assert.Equal(t, "https://stkl.vercel.app/api/search", cfg.SearchEndpoint())
	assert.Equal(t, "https://stkl.vercel.app/api/health", cfg.HealthEndpoint())

	cfg.SearchPath = "http://other.example/search"
	assert.Equal(t, "http://other.example/search", cfg.SearchEndpoint())

	cfg.SearchPath = ""
	assert.Equal(t, "https://stkl.vercel.app", cfg.SearchEndpoint())
}
