package local

import (
	"math"
	"strings"

	"github.com/Digital-Shane/shirarium/internal/provider"
)

// resolveContext climbs the ancestors of a weak leaf and fills the gaps it
// left. Fields the leaf established are never overwritten. Climbing stops
// once both the title and the classification are known.
//
// The decayed parent score replaces the leaf's only when classification or
// numbering came from a parent. A leaf that only borrowed a title keeps the
// better of its own score and the decayed one.
func (e *Engine) resolveContext(ctx ParseContext, leaf partial) partial {
	if !ctx.needsContext(leaf, e.opts.ShortStemThreshold) {
		return leaf
	}

	acc := leaf
	leafNumber, hasLeafNumber := numericEpisode(ctx.Stem)
	best := -1.0
	var title titleState
	evidenceTaken := false

	for i, name := range ctx.Ancestors(e.opts.MaxContextDepth) {
		parent := e.parseSegment(strings.TrimSuffix(name, ExtractExtension(name)))
		tookTitle, tookEvidence := acc.adopt(parent, title)
		if tookTitle || tookEvidence {
			if c := decayed(parent.confidence, i+1); c > best {
				best = c
			}
		}
		if tookTitle {
			title.taken = true
			title.locked = parent.backsTitle()
		}
		evidenceTaken = evidenceTaken || tookEvidence

		// A bare number under a season folder is the episode.
		if acc.mediaType == provider.MediaTypeEpisode && !acc.hasEpisode && hasLeafNumber {
			acc.episode, acc.hasEpisode = leafNumber, true
		}

		if acc.resolved(title.locked) {
			break
		}
	}

	switch {
	case best < 0:
	case evidenceTaken:
		acc.confidence = best
	default:
		acc.confidence = math.Max(acc.confidence, best)
	}
	return acc
}

// titleState tracks a title borrowed from an ancestor. A locked title is
// final; an unlocked one, such as "C" from a bare "c" folder, gives way to
// a better title further up.
type titleState struct {
	taken  bool
	locked bool
}

// adopt copies the fields of parent that acc is missing. It reports whether
// the title was taken and whether any classification or numbering was.
func (acc *partial) adopt(parent partial, title titleState) (tookTitle, tookEvidence bool) {
	if !title.locked && weakTitle(acc.title) && usableParentTitle(parent.title) &&
		(!title.taken || parent.backsTitle()) {
		acc.title = parent.title
		tookTitle = true
	}
	if acc.mediaType == provider.MediaTypeUnknown && parent.mediaType != provider.MediaTypeUnknown {
		acc.mediaType = parent.mediaType
		tookEvidence = true
	}
	if acc.year == 0 && parent.year != 0 {
		acc.year = parent.year
		tookEvidence = true
	}
	if !acc.hasSeason && parent.hasSeason {
		acc.season, acc.hasSeason = parent.season, true
		tookEvidence = true
	}
	if !acc.hasEpisode && parent.hasEpisode {
		acc.episode, acc.hasEpisode = parent.episode, true
		tookEvidence = true
	}
	return tookTitle, tookEvidence
}

// backsTitle reports whether a segment's title can be trusted on its own:
// it is a strong title, or the segment was classified, as "300 (2006)" is.
func (p partial) backsTitle() bool {
	return !weakTitle(p.title) || p.mediaType != provider.MediaTypeUnknown
}

func (acc partial) resolved(titleLocked bool) bool {
	return (titleLocked || !weakTitle(acc.title)) && acc.mediaType != provider.MediaTypeUnknown
}

// usableParentTitle accepts short and numeric folder titles such as "Up" or
// "300"; only the sentinel and placeholders are refused.
func usableParentTitle(title string) bool {
	if _, ok := placeholderStems[strings.ToLower(title)]; ok {
		return false
	}
	return title != provider.UnknownTitle && title != ""
}

// weakTitle reports whether a title is too poor to keep over a parent's.
func weakTitle(title string) bool {
	if _, ok := placeholderStems[strings.ToLower(title)]; ok {
		return true
	}
	return title == provider.UnknownTitle || len([]rune(title)) < 3 || isNumeric(title)
}

// numericEpisode returns the number of a purely numeric leaf such as "05".
func numericEpisode(stem string) (int, bool) {
	stem = strings.TrimSpace(stem)
	if !isNumeric(stem) || len(stem) > 4 {
		return 0, false
	}
	n := atoi(stem)
	if isYearLike(n) {
		return 0, false
	}
	return n, true
}
