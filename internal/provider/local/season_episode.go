package local

import (
	"strings"

	"github.com/Digital-Shane/shirarium/internal/provider"
)

// recognizeSeasonEpisode runs the numbering cascade: explicit S/E or NxM
// markers first, then a bare season marker, then absolute numbering. The
// first recognizer that fires wins.
func recognizeSeasonEpisode(c cascade) cascade {
	if next, ok := explicitEpisode(c); ok {
		return next
	}
	if next, ok := bareSeason(c); ok {
		return next
	}
	if next, ok := absoluteEpisode(c); ok {
		return next
	}
	return c
}

func explicitEpisode(c cascade) (cascade, bool) {
	m := explicitEpisodeRe.FindStringSubmatchIndex(c.stem)
	if m == nil {
		return c, false
	}

	// S-form groups take priority over the NxM groups.
	season, episode := 2, 4
	if m[season] < 0 {
		season, episode = 6, 8
	}
	c.season, c.hasSeason = atoi(c.stem[m[season]:m[season+1]]), true
	c.episode, c.hasEpisode = atoi(c.stem[m[episode]:m[episode+1]]), true
	c.mediaType = provider.MediaTypeEpisode
	c.confidence += explicitEpisodeDelta
	c.episodeSpan = span{m[0], m[1]}
	c.truncate(m[0])
	return c, true
}

func bareSeason(c cascade) (cascade, bool) {
	m := bareSeasonRe.FindStringSubmatchIndex(c.stem)
	if m == nil {
		return c, false
	}

	c.season, c.hasSeason = atoi(c.stem[m[2]:m[3]]), true
	c.mediaType = provider.MediaTypeEpisode
	c.confidence += explicitEpisodeDelta
	c.episodeSpan = span{m[0], m[1]}

	// "Show S2 - 05" carries the episode after the season marker.
	for _, sp := range standaloneNumbers(c.stem, m[3]) {
		n := atoi(c.stem[sp.start:sp.end])
		if isYearLike(n) || looksLikeChannels(c.stem, sp) {
			continue
		}
		c.episode, c.hasEpisode = n, true
		c.episodeSpan.end = sp.end
		break
	}

	c.truncate(m[0])
	return c, true
}

func absoluteEpisode(c cascade) (cascade, bool) {
	keyword := hasContextKeyword(c.stem)

	for _, sp := range standaloneNumbers(c.stem, 0) {
		n := atoi(c.stem[sp.start:sp.end])
		if isYearLike(n) || looksLikeChannels(c.stem, sp) {
			continue
		}
		if !keyword && !adjacentToDash(c.stem, sp) {
			continue
		}

		c.season, c.hasSeason = 1, true
		c.episode, c.hasEpisode = n, true
		c.mediaType = provider.MediaTypeEpisode
		c.confidence += absoluteEpisodeDelta
		c.episodeSpan = sp
		c.truncate(trimNumberingWord(c.stem, sp.start))
		return c, true
	}

	return c, false
}

// trimNumberingWord moves end back over an "ep" or "episode" word that
// directly precedes it.
func trimNumberingWord(s string, end int) int {
	j := end
	for j > 0 && !isWordByte(s[j-1]) {
		j--
	}
	i := j
	for i > 0 && isWordByte(s[i-1]) {
		i--
	}
	if _, ok := numberingWords[strings.ToLower(s[i:j])]; ok {
		return i
	}
	return end
}

// adjacentToDash reports whether a " - " separator touches the number.
func adjacentToDash(s string, sp span) bool {
	return strings.HasSuffix(s[:sp.start], " - ") || strings.HasPrefix(s[sp.end:], " - ")
}
