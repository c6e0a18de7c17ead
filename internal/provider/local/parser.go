package local

import (
	"github.com/Digital-Shane/shirarium/internal/provider"
)

// cascade is the working state threaded through the recognizer stages. The
// stem is never rewritten; stages narrow the title region by lowering
// titleEnd and record what they found.
type cascade struct {
	stem      string
	titleEnd  int
	overrides map[string]bool

	mediaType   provider.MediaType
	year        int
	season      int
	episode     int
	hasSeason   bool
	hasEpisode  bool
	episodeSpan span
	confidence  float64
}

// stage consumes the accumulator and returns the next state.
type stage func(cascade) cascade

// stages run in order on every leaf.
var stages = []stage{
	recognizeSeasonEpisode,
	recognizeYear,
}

func newCascade(stem string, overrides map[string]bool) cascade {
	return cascade{
		stem:       stem,
		titleEnd:   len(stem),
		overrides:  overrides,
		mediaType:  provider.MediaTypeUnknown,
		confidence: BaseConfidence,
	}
}

// titleStem is the part of the stem that may still hold the title.
func (c cascade) titleStem() string {
	return c.stem[:c.titleEnd]
}

// truncate ends the title region at i unless it already ends earlier.
func (c *cascade) truncate(i int) {
	if i < c.titleEnd {
		c.titleEnd = i
	}
}

func (c cascade) insideEpisode(sp span) bool {
	return c.episodeSpan.end > 0 && c.episodeSpan.overlaps(sp)
}

func (c *cascade) setYear(year int, decisive bool) {
	c.year = year
	if c.mediaType == provider.MediaTypeUnknown {
		c.mediaType = provider.MediaTypeMovie
	}
	if decisive {
		c.confidence += decisiveYearDelta
	}
}

// lastTitleToken reports whether sp holds the final token of the title region.
func (c cascade) lastTitleToken(sp span) bool {
	return sp.end <= c.titleEnd && len(Tokenize(c.stem[sp.end:c.titleEnd])) == 0
}

// partial is a classification whose invariants are enforced only when it
// becomes a provider.Result. Folder context fills its gaps.
type partial struct {
	title      string
	mediaType  provider.MediaType
	year       int
	season     int
	episode    int
	hasSeason  bool
	hasEpisode bool
	confidence float64
}

// parseSegment runs the full cascade on one path segment's stem.
func (e *Engine) parseSegment(stem string) partial {
	c := newCascade(StripNoise(stem), e.overrides)
	for _, run := range stages {
		c = run(c)
	}

	return partial{
		title:      ExtractTitle(c.titleStem()),
		mediaType:  c.mediaType,
		year:       c.year,
		season:     c.season,
		episode:    c.episode,
		hasSeason:  c.hasSeason,
		hasEpisode: c.hasEpisode,
		confidence: scoreLeaf(c, e.opts.UnknownPenalty),
	}
}

// result converts a partial into a Result. An episode missing either number
// takes the defaults: season 1 for absolute numbering, episode 1 for a
// season-only marker.
func (p partial) result(rawTokens []string, attrs provider.Attributes) provider.Result {
	res := provider.Result{
		Title:      p.title,
		Confidence: p.confidence,
		Source:     provider.SourceHeuristic,
		RawTokens:  rawTokens,
		Attributes: attrs,
	}

	switch p.mediaType {
	case provider.MediaTypeEpisode:
		season, episode := 1, 1
		if p.hasSeason {
			season = p.season
		}
		if p.hasEpisode {
			episode = p.episode
		}
		res.Class = provider.Episode{Season: season, Episode: episode, Year: p.year}
	case provider.MediaTypeMovie:
		res.Class = provider.Movie{Year: p.year}
	default:
		res.Class = provider.Unknown{}
	}

	return res
}
