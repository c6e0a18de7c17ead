package provider

import (
	"encoding/json"
	"errors"
	"math"
)

// UnknownTitle is the title used when no usable title tokens remain.
const UnknownTitle = "Unknown Title"

// Classification is the media classification of a Result. The concrete
// variants are Movie, Episode and Unknown; no other type implements it.
type Classification interface {
	MediaType() MediaType
	classification()
}

// Movie is a feature film. Year is zero when no release year was found.
type Movie struct {
	Year int
}

// Episode is a single episode of a series. Season and Episode are always
// meaningful; Year is zero when absent.
type Episode struct {
	Season  int
	Episode int
	Year    int
}

// Unknown carries no fields: an unclassified result has no year, season or
// episode.
type Unknown struct{}

func (Movie) MediaType() MediaType   { return MediaTypeMovie }
func (Episode) MediaType() MediaType { return MediaTypeEpisode }
func (Unknown) MediaType() MediaType { return MediaTypeUnknown }

func (Movie) classification()   {}
func (Episode) classification() {}
func (Unknown) classification() {}

// Attributes are release properties found in the leaf name. They are
// informational and never influence classification or confidence.
type Attributes struct {
	Resolution    string `json:"resolution,omitempty"`
	MediaSource   string `json:"media_source,omitempty"`
	VideoCodec    string `json:"video_codec,omitempty"`
	AudioCodec    string `json:"audio_codec,omitempty"`
	AudioChannels string `json:"audio_channels,omitempty"`
	HDR           string `json:"hdr,omitempty"`
	Edition       string `json:"edition,omitempty"`
	ReleaseGroup  string `json:"release_group,omitempty"`
}

// IsZero reports whether no attribute was detected.
func (a Attributes) IsZero() bool {
	return a == Attributes{}
}

// Result is the outcome of classifying one path.
type Result struct {
	Title      string
	Class      Classification
	Confidence float64
	Source     Source
	RawTokens  []string
	Attributes Attributes
}

// MediaType returns the classification of the result.
func (r Result) MediaType() MediaType {
	if r.Class == nil {
		return MediaTypeUnknown
	}
	return r.Class.MediaType()
}

// Year returns the release year, if one was recorded.
func (r Result) Year() (int, bool) {
	switch c := r.Class.(type) {
	case Movie:
		return c.Year, c.Year != 0
	case Episode:
		return c.Year, c.Year != 0
	}
	return 0, false
}

// SeasonEpisode returns the season and episode numbers of an Episode result.
func (r Result) SeasonEpisode() (season, episode int, ok bool) {
	if c, isEpisode := r.Class.(Episode); isEpisode {
		return c.Season, c.Episode, true
	}
	return 0, 0, false
}

// Validate checks the structural invariants of a result.
func (r Result) Validate() error {
	if r.Title == "" {
		return errors.New("title is empty")
	}
	if r.Class == nil {
		return errors.New("classification is missing")
	}
	if r.Confidence < 0 || r.Confidence > 1 || math.IsNaN(r.Confidence) {
		return errors.New("confidence out of range")
	}
	if r.Source != SourceHeuristic && r.Source != SourceExternal {
		return errors.New("unknown source")
	}
	if c, ok := r.Class.(Episode); ok && (c.Season < 0 || c.Episode < 0) {
		return errors.New("negative season or episode")
	}
	return nil
}

// RoundConfidence rounds a score to three decimals.
func RoundConfidence(v float64) float64 {
	return math.Round(v*1000) / 1000
}

// Record is the flat wire form of a Result.
type Record struct {
	Title      string      `json:"title"`
	MediaType  MediaType   `json:"media_type"`
	Year       *int        `json:"year"`
	Season     *int        `json:"season"`
	Episode    *int        `json:"episode"`
	Confidence float64     `json:"confidence"`
	Source     Source      `json:"source"`
	RawTokens  []string    `json:"raw_tokens"`
	Attributes *Attributes `json:"attributes,omitempty"`
}

// Record flattens the result into its wire form.
func (r Result) Record() Record {
	rec := Record{
		Title:      r.Title,
		MediaType:  r.MediaType(),
		Confidence: r.Confidence,
		Source:     r.Source,
		RawTokens:  append([]string{}, r.RawTokens...),
	}
	if year, ok := r.Year(); ok {
		rec.Year = intPtr(year)
	}
	if season, episode, ok := r.SeasonEpisode(); ok {
		rec.Season = intPtr(season)
		rec.Episode = intPtr(episode)
	}
	if !r.Attributes.IsZero() {
		attrs := r.Attributes
		rec.Attributes = &attrs
	}
	return rec
}

// Result rebuilds a Result from its wire form. Fields that the media type
// cannot carry are dropped, and an episode without an episode number
// degrades to Unknown.
func (rec Record) Result() Result {
	res := Result{
		Title:      rec.Title,
		Confidence: rec.Confidence,
		Source:     rec.Source,
		RawTokens:  append([]string{}, rec.RawTokens...),
	}
	if res.Title == "" {
		res.Title = UnknownTitle
	}
	if rec.Attributes != nil {
		res.Attributes = *rec.Attributes
	}

	year := derefInt(rec.Year)
	switch ParseMediaType(string(rec.MediaType)) {
	case MediaTypeMovie:
		res.Class = Movie{Year: year}
	case MediaTypeEpisode:
		if rec.Episode == nil {
			res.Class = Unknown{}
			break
		}
		season := 1
		if rec.Season != nil {
			season = *rec.Season
		}
		res.Class = Episode{Season: season, Episode: *rec.Episode, Year: year}
	default:
		res.Class = Unknown{}
	}
	return res
}

// MarshalJSON encodes the result using its wire form.
func (r Result) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Record())
}

// UnmarshalJSON decodes a wire form record.
func (r *Result) UnmarshalJSON(data []byte) error {
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return err
	}
	*r = rec.Result()
	return nil
}

func intPtr(v int) *int {
	return &v
}

func derefInt(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}
