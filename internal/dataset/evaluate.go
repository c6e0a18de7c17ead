package dataset

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/Digital-Shane/shirarium/internal/core"
	"github.com/Digital-Shane/shirarium/internal/provider"
)

// DefaultBaseline is the accuracy, in percent, a run must reach to pass.
const DefaultBaseline = 80.0

// Mismatch is one field that disagreed with the label.
type Mismatch struct {
	Field    string `json:"field"`
	Expected string `json:"expected"`
	Actual   string `json:"actual"`
}

// Failure is an entry whose classification missed at least one label.
type Failure struct {
	Path       string          `json:"path"`
	Expected   Expected        `json:"expected"`
	Actual     provider.Record `json:"actual"`
	Mismatches []Mismatch      `json:"mismatches"`
}

// Evaluation summarizes a manifest run.
type Evaluation struct {
	Name          string         `json:"name"`
	Total         int            `json:"total"`
	Passed        int            `json:"passed"`
	Accuracy      float64        `json:"accuracy"`
	FieldFailures map[string]int `json:"field_failures"`
	Failures      []Failure      `json:"failures"`
}

// MeetsBaseline reports whether the accuracy reached minAccuracy percent.
func (e Evaluation) MeetsBaseline(minAccuracy float64) bool {
	return e.Accuracy >= minAccuracy
}

// Score compares a result against its labels and returns the fields that
// missed. Titles compare on letters and digits only, ignoring case.
func Score(want Expected, got provider.Result) []Mismatch {
	var misses []Mismatch

	if want.Title != "" && normalizeTitle(want.Title) != normalizeTitle(got.Title) {
		misses = append(misses, Mismatch{Field: "title", Expected: want.Title, Actual: got.Title})
	}

	year, _ := got.Year()
	season, episode, _ := got.SeasonEpisode()
	for _, f := range []struct {
		field  string
		want   *int
		actual int
	}{
		{"year", want.Year, year},
		{"season", want.Season, season},
		{"episode", want.Episode, episode},
	} {
		if f.want != nil && *f.want != f.actual {
			misses = append(misses, Mismatch{Field: f.field, Expected: strconv.Itoa(*f.want), Actual: strconv.Itoa(f.actual)})
		}
	}

	if want.MediaType != "" && want.MediaType != MediaTypeIgnored {
		actual := string(got.MediaType())
		if !strings.EqualFold(want.MediaType, actual) {
			misses = append(misses, Mismatch{Field: "mediaType", Expected: want.MediaType, Actual: actual})
		}
	}

	return misses
}

func normalizeTitle(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}

// Evaluate classifies every entry with the batch engine and scores the
// results in manifest order.
func Evaluate(ctx context.Context, m *Manifest, classifier *core.Classifier, workers int) (Evaluation, error) {
	paths := make([]string, len(m.Entries))
	for i, entry := range m.Entries {
		paths[i] = entry.RelativePath
	}

	engine := core.NewBatchEngine(core.BatchConfig{
		Classifier:  classifier,
		Paths:       paths,
		WorkerCount: workers,
	})
	results, err := engine.Run(ctx)
	if err != nil {
		return Evaluation{}, fmt.Errorf("evaluate %s: %w", m.Name, err)
	}

	eval := Evaluation{
		Name:          m.Name,
		Total:         len(m.Entries),
		FieldFailures: make(map[string]int),
	}
	for _, entry := range m.Entries {
		res := results[entry.RelativePath].Result
		misses := Score(entry.Expected, res)
		if len(misses) == 0 {
			eval.Passed++
			continue
		}
		for _, miss := range misses {
			eval.FieldFailures[miss.Field]++
		}
		eval.Failures = append(eval.Failures, Failure{
			Path:       entry.RelativePath,
			Expected:   entry.Expected,
			Actual:     res.Record(),
			Mismatches: misses,
		})
	}
	if eval.Total > 0 {
		eval.Accuracy = float64(eval.Passed) / float64(eval.Total) * 100
	}
	return eval, nil
}
