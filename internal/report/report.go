package report

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/Digital-Shane/shirarium/internal/core"
	"github.com/Digital-Shane/shirarium/internal/dataset"
	"github.com/Digital-Shane/shirarium/internal/log"
	"github.com/Digital-Shane/shirarium/internal/provider"
)

const maxColumnWidth = 48

// Printer writes human readable reports.
type Printer struct {
	w     io.Writer
	theme Theme
}

// NewPrinter returns a printer for w with the default theme.
func NewPrinter(w io.Writer, opts ...Option) *Printer {
	return &Printer{w: w, theme: NewTheme(w, opts...)}
}

// WriteJSON writes v as indented JSON followed by a newline.
func WriteJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Describe summarizes the classification of a result, e.g. "S02E07",
// "2005" or "-".
func Describe(res provider.Result) string {
	switch c := res.Class.(type) {
	case provider.Episode:
		desc := fmt.Sprintf("S%02dE%02d", c.Season, c.Episode)
		if c.Year > 0 {
			desc += fmt.Sprintf(" (%d)", c.Year)
		}
		return desc
	case provider.Movie:
		if c.Year > 0 {
			return fmt.Sprintf("%d", c.Year)
		}
	}
	return "-"
}

// Result prints a single classification.
func (p *Printer) Result(path string, res provider.Result) {
	icon := p.theme.Icon(string(res.MediaType()))
	fmt.Fprintf(p.w, "%s %s\n", icon, p.theme.HeaderStyle().Render(res.Title))
	fmt.Fprintf(p.w, "  %-11s %s\n", "path", path)
	fmt.Fprintf(p.w, "  %-11s %s\n", "type", res.MediaType())
	fmt.Fprintf(p.w, "  %-11s %s\n", "details", Describe(res))
	fmt.Fprintf(p.w, "  %-11s %s\n", "confidence",
		p.theme.BadgeStyle(ConfidenceBadge(res.Confidence)).Render(fmt.Sprintf("%.3f", res.Confidence)))
	fmt.Fprintf(p.w, "  %-11s %s\n", "source", res.Source)
	if attrs := formatAttributes(res.Attributes); attrs != "" {
		fmt.Fprintf(p.w, "  %-11s %s\n", "attributes", attrs)
	}
	if len(res.RawTokens) > 0 {
		fmt.Fprintf(p.w, "  %-11s %s\n", "tokens", p.theme.MutedStyle().Render(strings.Join(res.RawTokens, " ")))
	}
}

// Results prints batch results as a table followed by the summary line.
func (p *Printer) Results(results []core.BatchResult, summary core.BatchSummary) {
	p.table(results)
	fmt.Fprintf(p.w, "\n%s %d classified, %d external, %d unknown\n",
		p.theme.Icon("stats"), len(results), summary.ExternalCount, summary.UnknownCount)
}

func (p *Printer) table(results []core.BatchResult) {
	t := Table{
		Headers:  []string{"", "TITLE", "TYPE", "DETAILS", "CONF", "SOURCE", "PATH"},
		MaxWidth: maxColumnWidth,
	}
	for _, r := range results {
		t.Append(
			p.theme.Icon(string(r.Result.MediaType())),
			r.Result.Title,
			string(r.Result.MediaType()),
			Describe(r.Result),
			fmt.Sprintf("%.3f", r.Result.Confidence),
			string(r.Result.Source),
			r.Path,
		)
	}
	for _, line := range t.Lines() {
		fmt.Fprintln(p.w, line)
	}
}

// Scan prints a scan report and, when given, the planned moves.
func (p *Printer) Scan(rep core.ScanReport, plans []core.PlanEntry) {
	fmt.Fprintln(p.w, p.theme.HeaderStyle().Render(fmt.Sprintf("%s Scan of %s", p.theme.Icon("folder"), rep.Root)))
	fmt.Fprintf(p.w, "examined %d, attempted %d, accepted %d, skipped by limit %d, skipped by confidence %d\n\n",
		rep.Examined, rep.Attempted, len(rep.Accepted), rep.SkippedByLimit, rep.SkippedByConfidence)

	if len(rep.Accepted) > 0 {
		p.table(rep.Accepted)
	}
	if len(rep.Rejected) > 0 {
		fmt.Fprintf(p.w, "\n%s\n", p.theme.BadgeStyle(BadgeWarning).Render("Below confidence threshold"))
		p.table(rep.Rejected)
	}

	if len(rep.ConfidenceBuckets) > 0 {
		fmt.Fprintf(p.w, "\n%s confidence\n", p.theme.Icon("stats"))
		for _, bucket := range sortedKeys(rep.ConfidenceBuckets) {
			fmt.Fprintf(p.w, "  %-8s %d\n", bucket, rep.ConfidenceBuckets[bucket])
		}
	}
	if len(rep.SourceCounts) > 0 {
		sources := make(map[string]int, len(rep.SourceCounts))
		for src, n := range rep.SourceCounts {
			sources[string(src)] = n
		}
		fmt.Fprintf(p.w, "%s sources\n", p.theme.Icon("stats"))
		for _, src := range sortedKeys(sources) {
			fmt.Fprintf(p.w, "  %-8s %d\n", src, sources[src])
		}
	}

	if len(plans) > 0 {
		p.Plan(plans)
	}
}

// Plan prints planned moves.
func (p *Printer) Plan(plans []core.PlanEntry) {
	t := Table{Headers: []string{"ACTION", "REASON", "SOURCE", "TARGET"}, MaxWidth: maxColumnWidth * 2}
	counts := make(map[string]int)
	for _, e := range plans {
		counts[string(e.Action)]++
		t.Append(string(e.Action), e.Reason, e.Source, e.Target)
	}
	fmt.Fprintf(p.w, "\n%s\n", p.theme.HeaderStyle().Render("Organization plan"))
	for _, line := range t.Lines() {
		fmt.Fprintln(p.w, line)
	}
	fmt.Fprintf(p.w, "move %d, none %d, skip %d\n", counts[string(core.PlanMove)], counts[string(core.PlanNone)], counts[string(core.PlanSkip)])
}

// Evaluation prints a dataset run and whether it met the baseline.
func (p *Printer) Evaluation(eval dataset.Evaluation, baseline float64) {
	fmt.Fprintln(p.w, p.theme.HeaderStyle().Render("Evaluating manifest: "+eval.Name))
	for _, f := range eval.Failures {
		fmt.Fprintf(p.w, "%s %s\n", p.theme.BadgeStyle(BadgeError).Render("[FAIL]"), f.Path)
		for _, m := range f.Mismatches {
			fmt.Fprintf(p.w, "    %-9s expected %q, got %q\n", m.Field, m.Expected, m.Actual)
		}
	}

	kind := BadgeSuccess
	verdict := "meets"
	if !eval.MeetsBaseline(baseline) {
		kind = BadgeError
		verdict = "below"
	}
	fmt.Fprintf(p.w, "\nSummary: %d/%d passed (%.2f%%), %s the %.0f%% baseline\n",
		eval.Passed, eval.Total, eval.Accuracy, p.theme.BadgeStyle(kind).Render(verdict), baseline)
	if len(eval.FieldFailures) > 0 {
		parts := make([]string, 0, len(eval.FieldFailures))
		for _, field := range sortedKeys(eval.FieldFailures) {
			parts = append(parts, fmt.Sprintf("%s %d", field, eval.FieldFailures[field]))
		}
		fmt.Fprintf(p.w, "Field failures: %s\n", strings.Join(parts, ", "))
	}
}

// Providers prints the registered providers and their settings.
func (p *Printer) Providers(infos []provider.Info) {
	for i, info := range infos {
		if i > 0 {
			fmt.Fprintln(p.w)
		}
		state, kind := "disabled", BadgeMuted
		if info.Enabled {
			state, kind = "enabled", BadgeSuccess
		}
		fmt.Fprintf(p.w, "%s %s (priority %d)\n",
			p.theme.HeaderStyle().Render(info.Name), p.theme.BadgeStyle(kind).Render(state), info.Priority)
		fmt.Fprintf(p.w, "  %s\n", info.Description)
		if len(info.Fields) == 0 {
			continue
		}

		t := Table{Headers: []string{"SETTING", "TYPE", "VALUE", "DEFAULT"}, MaxWidth: maxColumnWidth}
		for _, f := range info.Fields {
			t.Append(f.Name, f.Type, displayValue(f.Value), displayValue(f.Default))
		}
		for _, line := range t.Lines() {
			fmt.Fprintln(p.w, "  "+line)
		}
	}
}

// Sessions prints journal sessions, newest first.
func (p *Printer) Sessions(sessions []*log.LogSession) {
	if len(sessions) == 0 {
		fmt.Fprintln(p.w, p.theme.MutedStyle().Render("No sessions recorded"))
		return
	}

	t := Table{Headers: []string{"TIME", "COMMAND", "TOTAL", "EXTERNAL", "UNKNOWN", "FAILED"}, MaxWidth: maxColumnWidth}
	for _, s := range sessions {
		m := s.Metadata
		t.Append(
			m.Timestamp.Local().Format("2006-01-02 15:04:05"),
			strings.Join(m.CommandArgs, " "),
			fmt.Sprint(m.Total),
			fmt.Sprint(m.External),
			fmt.Sprint(m.Unknown),
			fmt.Sprint(m.Failed),
		)
	}
	fmt.Fprintln(p.w, p.theme.HeaderStyle().Render(fmt.Sprintf("%s Recent sessions", p.theme.Icon("stats"))))
	for _, line := range t.Lines() {
		fmt.Fprintln(p.w, line)
	}
}

func displayValue(v interface{}) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprint(v)
}

func formatAttributes(a provider.Attributes) string {
	var parts []string
	for _, v := range []string{a.Resolution, a.MediaSource, a.VideoCodec, a.AudioCodec, a.AudioChannels, a.HDR, a.Edition} {
		if v != "" {
			parts = append(parts, v)
		}
	}
	if a.ReleaseGroup != "" {
		parts = append(parts, "-"+a.ReleaseGroup)
	}
	return strings.Join(parts, " ")
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
