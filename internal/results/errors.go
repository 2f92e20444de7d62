package results

import (
	"fmt"
	"unicode/utf8"
)

const maxSnippetLength = 120

// MalformedBodyError reports a response body that is not valid JSON.
type MalformedBodyError struct {
	Snippet string
	Err     error
}

func (e *MalformedBodyError) Error() string {
	msg := "response body is not valid JSON"
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if e.Snippet != "" {
		msg = fmt.Sprintf("%s (body: %q)", msg, e.Snippet)
	}
	return msg
}

func (e *MalformedBodyError) Unwrap() error {
	return e.Err
}

func snippet(body []byte) string {
	return truncate(string(body), maxSnippetLength)
}

// truncate cuts s to at most n bytes on a rune boundary.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
