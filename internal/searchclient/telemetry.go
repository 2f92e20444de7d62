package searchclient

import (
	"crypto/sha256"
	"fmt"
	"strings"
)

func fingerprint(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return ""
	}

	sum := sha256.Sum256([]byte(trimmed))
	// 16 hex characters.
	return fmt.Sprintf("%x", sum[:8])
}
