package core

import (
	"regexp"
	"strings"
)

var bracketTagPattern = regexp.MustCompile(`\[[^\[\]]+\]`)

// carryBracketTags appends the bracketed tags of the source leaf that the
// planned name does not already mention. A tag counts as mentioned when its
// text appears anywhere in the planned name, ignoring case.
func carryBracketTags(planned, sourceLeaf string) string {
	if sourceLeaf == "" {
		return planned
	}

	sourceTags := bracketTagPattern.FindAllString(sourceLeaf, -1)
	if len(sourceTags) == 0 {
		return planned
	}

	lowered := strings.ToLower(planned)
	seen := make(map[string]struct{}, len(sourceTags))
	result := planned
	for _, tag := range sourceTags {
		text := tagText(tag)
		if text == "" {
			continue
		}
		if _, dup := seen[text]; dup {
			continue
		}
		seen[text] = struct{}{}
		if strings.Contains(lowered, text) {
			continue
		}
		result += " " + tag
	}
	return result
}

func tagText(tag string) string {
	trimmed := strings.TrimSpace(tag)
	trimmed = strings.TrimPrefix(trimmed, "[")
	trimmed = strings.TrimSuffix(trimmed, "]")
	return strings.ToLower(strings.TrimSpace(trimmed))
}
