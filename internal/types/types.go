package types

import "strings"

// Query is a single identity search as entered by the user.
type Query struct {
	Name      string `json:"name"`
	ExtraInfo string `json:"extra_info"`
}

// Blank reports whether the name is empty once surrounding whitespace is
// removed. Only this check trims; the query is transmitted as entered.
func (q Query) Blank() bool {
	return strings.TrimSpace(q.Name) == ""
}

// Request returns the wire body for q.
func (q Query) Request() SearchRequest {
	return SearchRequest{Name: q.Name, ExtraInfo: q.ExtraInfo}
}

// SearchRequest is the JSON body posted to the search endpoint.
type SearchRequest struct {
	Name      string `json:"name"`
	ExtraInfo string `json:"extra_info"`
}

// ResultItem is one candidate match returned by the search service.
type ResultItem struct {
	URL          string `json:"url" yaml:"url"`
	Title        string `json:"title" yaml:"title"`
	Description  string `json:"description" yaml:"description"`
	MatchContext string `json:"match_context,omitempty" yaml:"match_context,omitempty"`
}

// ErrorType classifies a failed search attempt
type ErrorType string

const (
	ErrorTypeValidation       ErrorType = "validation"
	ErrorTypeNetwork          ErrorType = "network"
	ErrorTypeTimeout          ErrorType = "timeout"
	ErrorTypeHTTPStatus       ErrorType = "http_status"
	ErrorTypeMalformedPayload ErrorType = "malformed_payload"
	ErrorTypeRateLimit        ErrorType = "rate_limit"
	ErrorTypeUnknown          ErrorType = "unknown"
)
