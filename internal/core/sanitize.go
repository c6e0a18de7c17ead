package core

import (
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

const invalidSegmentChars = "<>:\"/\\|?*"

// sanitizeSegment makes a single path segment safe on every common
// filesystem: compatibility-normalized, invalid characters replaced by a
// space, runs of spaces collapsed and leading or trailing dots removed.
func sanitizeSegment(name string) (string, error) {
	name = norm.NFKC.String(name)

	var b strings.Builder
	b.Grow(len(name))

	lastSpace := false
	for _, r := range name {
		if r < 32 || r == 127 || r == ' ' || strings.ContainsRune(invalidSegmentChars, r) {
			if !lastSpace {
				b.WriteRune(' ')
				lastSpace = true
			}
			continue
		}
		lastSpace = false
		b.WriteRune(r)
	}

	result := strings.Trim(strings.TrimSpace(b.String()), ".")
	result = strings.TrimSpace(result)
	if result == "" {
		return "", fmt.Errorf("segment %q is empty after sanitization", name)
	}
	return result, nil
}

// tidySegment removes the debris left by empty template tokens, such as
// "Movie (2024) []".
func tidySegment(s string) string {
	for _, empty := range []string{"[]", "()", "[ ]", "( )", "{}"} {
		s = strings.ReplaceAll(s, empty, "")
	}
	s = strings.Join(strings.Fields(s), " ")
	s = strings.ReplaceAll(s, " .", ".")
	return strings.TrimSpace(s)
}
