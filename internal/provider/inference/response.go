package inference

import (
	"encoding/json"
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/Digital-Shane/shirarium/internal/provider"
	"github.com/Digital-Shane/shirarium/internal/provider/local"
)

// reasoningRe matches the scratchpad blocks some models emit before the
// answer. Go regexp has no backreferences, so each tag has its own branch.
var reasoningRe = regexp.MustCompile(`(?is)<think>.*?</think>|<thinking>.*?</thinking>|<reasoning>.*?</reasoning>`)

var (
	errNoObject     = errors.New("no JSON object in reply")
	errNoTitle      = errors.New("reply has no title string")
	errBadMediaType = errors.New("reply has no known media_type")
)

// reply is the decoded model answer before coercion. Fields stay raw so a
// wrong type degrades a single field instead of failing the whole reply.
type reply struct {
	Title      json.RawMessage `json:"title"`
	MediaType  json.RawMessage `json:"media_type"`
	Year       json.RawMessage `json:"year"`
	Season     json.RawMessage `json:"season"`
	Episode    json.RawMessage `json:"episode"`
	Confidence json.RawMessage `json:"confidence"`
}

// parseReply turns the content of a model reply into a Result. The title and
// media_type are required; the numeric fields are treated as absent when
// they have a wrong type or an out-of-range value.
func parseReply(content string) (provider.Result, error) {
	obj := extractObject(reasoningRe.ReplaceAllString(content, ""))
	if obj == "" {
		return provider.Result{}, errNoObject
	}

	var r reply
	if err := json.Unmarshal([]byte(obj), &r); err != nil {
		return provider.Result{}, err
	}

	title, ok := rawStringOK(r.Title)
	if !ok || strings.TrimSpace(title) == "" {
		return provider.Result{}, errNoTitle
	}
	mediaType, ok := rawStringOK(r.MediaType)
	mediaType = strings.ToLower(strings.TrimSpace(mediaType))
	if !ok || !knownMediaType(mediaType) {
		return provider.Result{}, errBadMediaType
	}

	rec := provider.Record{
		Title:      local.CleanTitle(title),
		MediaType:  provider.ParseMediaType(mediaType),
		Year:       rawInt(r.Year, validYear),
		Season:     rawInt(r.Season, nonNegative),
		Episode:    rawInt(r.Episode, nonNegative),
		Confidence: clamp01(rawFloat(r.Confidence)),
		Source:     provider.SourceExternal,
	}
	return rec.Result(), nil
}

// extractObject returns the first balanced {...} in s. Braces inside JSON
// strings are ignored.
func extractObject(s string) string {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return ""
	}

	depth := 0
	inString, escaped := false, false
	for i := start; i < len(s); i++ {
		ch := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}

		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}

func rawStringOK(raw json.RawMessage) (string, bool) {
	var s string
	if len(raw) == 0 || json.Unmarshal(raw, &s) != nil {
		return "", false
	}
	return s, true
}

func knownMediaType(s string) bool {
	switch provider.MediaType(s) {
	case provider.MediaTypeMovie, provider.MediaTypeEpisode, provider.MediaTypeUnknown:
		return true
	}
	return false
}

// rawNumber accepts JSON numbers and numeric strings.
func rawNumber(raw json.RawMessage) (float64, bool) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, false
	}
	var f float64
	if json.Unmarshal(raw, &f) == nil {
		return f, true
	}
	var s string
	if json.Unmarshal(raw, &s) != nil {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func rawInt(raw json.RawMessage, valid func(int) bool) *int {
	f, ok := rawNumber(raw)
	if !ok || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return nil
	}
	n := int(f)
	if !valid(n) {
		return nil
	}
	return &n
}

func rawFloat(raw json.RawMessage) float64 {
	f, ok := rawNumber(raw)
	if !ok || math.IsNaN(f) {
		return 0
	}
	return f
}

func validYear(n int) bool {
	return n >= 1800 && n <= 2200
}

func nonNegative(n int) bool {
	return n >= 0
}

func clamp01(v float64) float64 {
	return provider.RoundConfidence(math.Max(0, math.Min(1, v)))
}
