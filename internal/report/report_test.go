package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/Digital-Shane/shirarium/internal/core"
	"github.com/Digital-Shane/shirarium/internal/dataset"
	"github.com/Digital-Shane/shirarium/internal/log"
	"github.com/Digital-Shane/shirarium/internal/provider"
	"github.com/google/go-cmp/cmp"
	"github.com/mattn/go-runewidth"
)

func TestIconSetCloneCreatesIndependentCopy(t *testing.T) {
	source := IconSet{"movie": "🎬"}
	clone := source.clone()

	source["movie"] = "mutated"

	if got, want := clone["movie"], "🎬"; got != want {
		t.Errorf("IconSet.clone(%v)[%q] = %q, want %q", source, "movie", got, want)
	}
}

func TestThemeIconLookupOrder(t *testing.T) {
	theme := NewTheme(&bytes.Buffer{}, WithIconSet(IconSet{"primary": "icon"}))

	tests := []struct {
		key  string
		want string
	}{
		{"primary", "icon"},
		{"movie", "[M]"},
		{"missing", ""},
	}
	for _, tc := range tests {
		if got := theme.Icon(tc.key); got != tc.want {
			t.Errorf("Theme.Icon(%q) = %q, want %q", tc.key, got, tc.want)
		}
	}
}

func TestConfidenceBadge(t *testing.T) {
	tests := map[float64]BadgeKind{
		0.95: BadgeSuccess,
		0.9:  BadgeSuccess,
		0.75: BadgeInfo,
		0.4:  BadgeWarning,
		0.1:  BadgeError,
	}
	for confidence, want := range tests {
		if got := ConfidenceBadge(confidence); got != want {
			t.Errorf("ConfidenceBadge(%v) = %v, want %v", confidence, got, want)
		}
	}
}

func TestTableAlignsWideRunes(t *testing.T) {
	tbl := Table{Headers: []string{"TITLE", "TYPE"}}
	tbl.Append("進撃の巨人", "episode")
	tbl.Append("Noroi", "movie")

	lines := tbl.Lines()
	want := []string{
		"TITLE       TYPE",
		"----------  -------",
		"進撃の巨人  episode",
		"Noroi       movie",
	}
	if diff := cmp.Diff(want, lines); diff != "" {
		t.Errorf("Lines() mismatch (-want +got):\n%s", diff)
	}

	col := runewidth.StringWidth("進撃の巨人  ")
	if got := runewidth.StringWidth("Noroi       "); got != col {
		t.Errorf("column width %d, want %d", got, col)
	}
}

func TestTableTruncates(t *testing.T) {
	tbl := Table{Headers: []string{"A", "B"}, MaxWidth: 5}
	tbl.Append("abcdefghij", "x")

	lines := tbl.Lines()
	if got := lines[2]; got != "abcd…  x" {
		t.Errorf("truncated row = %q, want %q", got, "abcd…  x")
	}
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		res  provider.Result
		want string
	}{
		{provider.Result{Class: provider.Episode{Season: 2, Episode: 7}}, "S02E07"},
		{provider.Result{Class: provider.Episode{Season: 1, Episode: 1, Year: 2005}}, "S01E01 (2005)"},
		{provider.Result{Class: provider.Movie{Year: 2005}}, "2005"},
		{provider.Result{Class: provider.Movie{}}, "-"},
		{provider.Result{Class: provider.Unknown{}}, "-"},
	}
	for _, tt := range tests {
		if got := Describe(tt.res); got != tt.want {
			t.Errorf("Describe(%v) = %q, want %q", tt.res.Class, got, tt.want)
		}
	}
}

func TestPrinterResult(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, WithIconSet(asciiIcons))

	p.Result("My.Show.S02E07.1080p.WEBRip.mkv", provider.Result{
		Title:      "My Show",
		Class:      provider.Episode{Season: 2, Episode: 7},
		Confidence: 0.75,
		Source:     provider.SourceHeuristic,
		RawTokens:  []string{"My", "Show", "S02E07"},
		Attributes: provider.Attributes{Resolution: "1080p", MediaSource: "WEBRip"},
	})

	out := buf.String()
	for _, want := range []string{"[E] My Show", "S02E07", "0.750", "heuristic", "1080p WEBRip", "My Show S02E07"} {
		if !strings.Contains(out, want) {
			t.Errorf("Result() output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\x1b[") {
		t.Errorf("Result() wrote ANSI escapes to a non-terminal writer:\n%q", out)
	}
}

func TestPrinterScan(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, WithIconSet(asciiIcons))

	accepted := core.BatchResult{
		Path:   "/lib/Noroi (2005).mkv",
		Result: provider.Result{Title: "Noroi", Class: provider.Movie{Year: 2005}, Confidence: 0.8, Source: provider.SourceHeuristic},
	}
	rejected := core.BatchResult{
		Path:   "/lib/Random Words Here.mkv",
		Result: provider.Result{Title: "Random Words Here", Class: provider.Unknown{}, Confidence: 0.4, Source: provider.SourceHeuristic},
	}
	p.Scan(core.ScanReport{
		Root:                "/lib",
		Examined:            3,
		Attempted:           2,
		SkippedByLimit:      1,
		SkippedByConfidence: 1,
		Accepted:            []core.BatchResult{accepted},
		Rejected:            []core.BatchResult{rejected},
		SourceCounts:        map[provider.Source]int{provider.SourceHeuristic: 2},
		ConfidenceBuckets:   map[string]int{"0.8-0.9": 1, "0.4-0.5": 1},
	}, []core.PlanEntry{
		{Source: accepted.Path, Target: "/movies/Noroi (2005)/Noroi (2005).mkv", Action: core.PlanMove, Reason: "Planned"},
	})

	out := buf.String()
	for _, want := range []string{
		"Scan of /lib",
		"examined 3, attempted 2, accepted 1, skipped by limit 1, skipped by confidence 1",
		"Below confidence threshold",
		"Random Words Here",
		"0.4-0.5",
		"heuristic",
		"/movies/Noroi (2005)/Noroi (2005).mkv",
		"move 1, none 0, skip 0",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Scan() output missing %q:\n%s", want, out)
		}
	}
	if strings.Index(out, "0.4-0.5") > strings.Index(out, "0.8-0.9") {
		t.Errorf("confidence buckets not sorted:\n%s", out)
	}
}

func TestPrinterEvaluation(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.Evaluation(dataset.Evaluation{
		Name:          "tier-a-golden",
		Total:         5,
		Passed:        3,
		Accuracy:      60,
		FieldFailures: map[string]int{"year": 1, "title": 2},
		Failures: []dataset.Failure{{
			Path:       "incoming/The.Matrix.1999.mkv",
			Mismatches: []dataset.Mismatch{{Field: "year", Expected: "2003", Actual: "1999"}},
		}},
	}, dataset.DefaultBaseline)

	out := buf.String()
	for _, want := range []string{
		"tier-a-golden",
		"[FAIL] incoming/The.Matrix.1999.mkv",
		`expected "2003", got "1999"`,
		"3/5 passed (60.00%), below the 80% baseline",
		"Field failures: title 2, year 1",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Evaluation() output missing %q:\n%s", want, out)
		}
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	res := provider.Result{Title: "Noroi", Class: provider.Movie{Year: 2005}, Confidence: 0.8, Source: provider.SourceHeuristic}
	if err := WriteJSON(&buf, res); err != nil {
		t.Fatalf("WriteJSON() error = %v", err)
	}

	var rec provider.Record
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if rec.Title != "Noroi" || rec.MediaType != provider.MediaTypeMovie || rec.Year == nil || *rec.Year != 2005 {
		t.Errorf("WriteJSON() = %s", buf.String())
	}
}

func TestPrinterProviders(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).Providers([]provider.Info{
		{
			Name:        "inference",
			Description: "language model",
			Priority:    100,
			Fields: []provider.FieldInfo{
				{Name: "model", Type: "string", Value: "llama3.1:8b"},
				{Name: "api_key", Type: "password"},
			},
		},
		{Name: "local", Description: "heuristics", Enabled: true},
	})

	out := buf.String()
	for _, want := range []string{
		"inference disabled (priority 100)",
		"local enabled (priority 0)",
		"SETTING",
		"llama3.1:8b",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Providers() output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\x1b[") {
		t.Errorf("Providers() wrote ANSI escapes to a non-terminal writer:\n%q", out)
	}
}

func TestPrinterSessions(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf, WithIconSet(ASCIIIcons())).Sessions([]*log.LogSession{
		{Metadata: log.SessionMetadata{
			CommandArgs: []string{"scan", "/media"},
			Timestamp:   time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC),
			Total:       12,
			External:    3,
			Unknown:     2,
		}},
	})

	out := buf.String()
	for _, want := range []string{"[*] Recent sessions", "COMMAND", "scan /media", "12"} {
		if !strings.Contains(out, want) {
			t.Errorf("Sessions() output missing %q:\n%s", want, out)
		}
	}
}

func TestPrinterSessionsEmpty(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).Sessions(nil)
	if diff := cmp.Diff("No sessions recorded\n", buf.String()); diff != "" {
		t.Errorf("Sessions(nil) mismatch (-want +got):\n%s", diff)
	}
}

func TestASCIIIconsIsACopy(t *testing.T) {
	icons := ASCIIIcons()
	icons["movie"] = "mutated"
	if got := NewTheme(&bytes.Buffer{}, WithIconSet(ASCIIIcons())).Icon("movie"); got != "[M]" {
		t.Errorf("Icon(movie) = %q, want [M]", got)
	}
}
