// Package slug derives filesystem-safe directory names and entity identifiers.
package slug

import (
	"regexp"
	"strings"

	"github.com/google/uuid"
)

var invalidRe = regexp.MustCompile(`[^a-z0-9-]+`)

// Make lowercases name, turns spaces into hyphens, collapses every run of
// characters outside [a-z0-9-] into one hyphen and trims hyphens from both
// ends. An empty result falls back to a random "obj-xxxxxx" token.
func Make(name string) string {
	s := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "-")
	s = strings.Trim(invalidRe.ReplaceAllString(s, "-"), "-")
	if s == "" {
		return "obj-" + NewID()[:6]
	}
	return s
}

// NewID returns a random 32-character lowercase hex identifier.
func NewID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
