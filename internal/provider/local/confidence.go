package local

import (
	"math"

	"github.com/Digital-Shane/shirarium/internal/provider"
)

// BaseConfidence is the score of a leaf before any recognizer fires.
const BaseConfidence = 0.4

// Confidence deltas and bounds. The values and the order in which they are
// applied are part of the scoring contract.
const (
	explicitEpisodeDelta = 0.35
	absoluteEpisodeDelta = 0.25
	decisiveYearDelta    = 0.20
	movieYearDelta       = 0.20
	unknownPenalty       = 0.08

	minConfidence = 0.05
	maxConfidence = 0.98

	// contextDecay scales evidence adopted from each ancestor level.
	contextDecay = 0.9
)

// scoreLeaf finishes the additive score of a leaf cascade.
func scoreLeaf(c cascade, penalizeUnknown bool) float64 {
	score := c.confidence
	if c.mediaType == provider.MediaTypeMovie && c.year != 0 {
		score += movieYearDelta
	}
	if c.mediaType == provider.MediaTypeUnknown && penalizeUnknown {
		score -= unknownPenalty
	}
	return clampConfidence(score)
}

// decayed returns the confidence of evidence adopted level ancestors up.
func decayed(confidence float64, level int) float64 {
	return clampConfidence(confidence * math.Pow(contextDecay, float64(level)))
}

func clampConfidence(v float64) float64 {
	return provider.RoundConfidence(math.Max(minConfidence, math.Min(maxConfidence, v)))
}
