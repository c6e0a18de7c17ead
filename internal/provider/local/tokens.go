package local

import (
	"strconv"
	"strings"
)

// Tokenize splits s on runs of delimiter characters and drops empty tokens.
func Tokenize(s string) []string {
	parts := tokenSplitRe.Split(s, -1)
	tokens := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			tokens = append(tokens, p)
		}
	}
	return tokens
}

// StripNoise removes bracketed checksums anywhere in the stem and release
// group tags from its front. Tags in the middle or at the end are kept.
func StripNoise(stem string) string {
	for {
		next := checksumRe.ReplaceAllString(stem, "")
		if next == stem {
			break
		}
		stem = next
	}

	for {
		loc := leadingTagRe.FindStringIndex(stem)
		if loc == nil {
			return stem
		}
		stem = stem[loc[1]:]
	}
}

// span is a half-open byte range into a stem.
type span struct {
	start, end int
}

func (s span) overlaps(o span) bool {
	return s.start < o.end && o.start < s.end
}

// standaloneNumbers returns digit runs of at most four digits that are
// bounded by non-word characters. A trailing version tag such as the "v2"
// in "01v2" does not disqualify a number.
func standaloneNumbers(s string, from int) []span {
	var spans []span
	for _, loc := range digitRunRe.FindAllStringIndex(s[from:], -1) {
		sp := span{loc[0] + from, loc[1] + from}
		if sp.end-sp.start > 4 || !isBoundary(s, sp.start-1) {
			continue
		}
		if !isBoundary(s, sp.end) && !versionSuffixAt(s, sp.end) {
			continue
		}
		spans = append(spans, sp)
	}
	return spans
}

// isBoundary reports whether the byte at i is outside s or is not an ASCII
// letter or digit. Bytes of multi-byte runes count as boundaries.
func isBoundary(s string, i int) bool {
	if i < 0 || i >= len(s) {
		return true
	}
	return !isWordByte(s[i])
}

func isWordByte(b byte) bool {
	return b >= '0' && b <= '9' || b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z'
}

func isDigitByte(b byte) bool {
	return b >= '0' && b <= '9'
}

// versionSuffixAt reports whether s has a v<digits> tag starting at i.
func versionSuffixAt(s string, i int) bool {
	if i >= len(s) || (s[i] != 'v' && s[i] != 'V') {
		return false
	}
	j := i + 1
	for j < len(s) && isDigitByte(s[j]) {
		j++
	}
	return j > i+1 && isBoundary(s, j)
}

// looksLikeChannels reports whether a single digit is half of an audio
// channel layout such as 5.1 or 2.0.
func looksLikeChannels(s string, sp span) bool {
	if sp.end-sp.start != 1 {
		return false
	}
	if sp.end+1 < len(s) && s[sp.end] == '.' && isDigitByte(s[sp.end+1]) && isBoundary(s, sp.end+2) {
		return true
	}
	return sp.start >= 2 && s[sp.start-1] == '.' && isDigitByte(s[sp.start-2]) && isBoundary(s, sp.start-3)
}

// isYearLike reports whether n falls in the band treated as release years.
func isYearLike(n int) bool {
	return n >= 1900 && n <= 2099
}

// isNumeric reports whether s is a non-empty run of ASCII digits.
func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isDigitByte(s[i]) {
			return false
		}
	}
	return true
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

// hasContextKeyword reports whether any token of s is an episode keyword.
func hasContextKeyword(s string) bool {
	for _, tok := range Tokenize(s) {
		if _, ok := contextKeywords[strings.ToLower(tok)]; ok {
			return true
		}
	}
	return false
}
