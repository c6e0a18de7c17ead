package local

import (
	"strconv"
	"strings"
)

// YearTitleOverrides lists titles that are themselves plausible years. When
// one of them is the only year candidate and opens the stem, it is kept as
// title text instead of being recorded as the release year.
var YearTitleOverrides = []string{
	"1917", "1922", "1941", "1969", "1984", "1991", "2001", "2012", "2046", "2067",
}

// recognizeYear records a release year and decides whether it bounds the
// title. Numbers inside the season/episode span are never considered.
func recognizeYear(c cascade) cascade {
	if next, ok := parenthesizedYear(c); ok {
		return next
	}
	return bareYear(c)
}

func parenthesizedYear(c cascade) (cascade, bool) {
	for _, m := range parenYearRe.FindAllStringSubmatchIndex(c.stem, -1) {
		if c.insideEpisode(span{m[0], m[1]}) {
			continue
		}
		c.setYear(atoi(c.stem[m[2]:m[3]]), true)
		if m[0] > 2 {
			c.truncate(m[0])
		}
		return c, true
	}
	return c, false
}

func bareYear(c cascade) cascade {
	var candidates []span
	for _, sp := range standaloneNumbers(c.stem, 0) {
		if sp.end-sp.start != 4 || c.insideEpisode(sp) {
			continue
		}
		if isYearLike(atoi(c.stem[sp.start:sp.end])) {
			candidates = append(candidates, sp)
		}
	}
	if len(candidates) == 0 {
		return c
	}

	// Earlier candidates are title text: "2012.2009.1080p", "Blade.Runner.2049.2017".
	last := candidates[len(candidates)-1]
	year := atoi(c.stem[last.start:last.end])

	if len(candidates) == 1 && opensStem(c.stem, last) && c.overrides[strconv.Itoa(year)] {
		return c
	}

	if followedByJunk(c.stem, last) || c.lastTitleToken(last) {
		c.setYear(year, true)
		c.truncate(last.start)
		return c
	}

	// Ambiguous: keep the number in the title but still record it.
	c.setYear(year, false)
	return c
}

// opensStem reports whether only delimiters precede sp.
func opensStem(s string, sp span) bool {
	return len(Tokenize(s[:sp.start])) == 0
}

// followedByJunk reports whether the token right after sp ends a title: a
// technical or language marker, or a channel layout such as "5.1".
func followedByJunk(s string, sp span) bool {
	rest := Tokenize(s[sp.end:])
	if len(rest) == 0 {
		return false
	}
	if isStopToken(rest[0]) || isLanguageToken(rest[0]) {
		return true
	}
	next := standaloneNumbers(s, sp.end)
	return len(next) > 0 && len(Tokenize(s[sp.end:next[0].start])) == 0 && looksLikeChannels(s, next[0])
}

func overrideSet(extra []string) map[string]bool {
	set := make(map[string]bool, len(YearTitleOverrides)+len(extra))
	for _, title := range YearTitleOverrides {
		set[title] = true
	}
	for _, title := range extra {
		if title = strings.TrimSpace(title); title != "" {
			set[title] = true
		}
	}
	return set
}
