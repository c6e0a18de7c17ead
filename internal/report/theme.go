// Package report renders classification output for terminals.
package report

import (
	"io"
	"os"
	"runtime"

	"github.com/charmbracelet/lipgloss"
)

// IconSet maps semantic names to icons.
type IconSet map[string]string

func (s IconSet) clone() IconSet {
	if s == nil {
		return nil
	}
	clone := make(IconSet, len(s))
	for k, v := range s {
		clone[k] = v
	}
	return clone
}

// Colors is the report palette.
type Colors struct {
	Primary lipgloss.Color
	Accent  lipgloss.Color
	Muted   lipgloss.Color
	Success lipgloss.Color
	Warning lipgloss.Color
	Error   lipgloss.Color
}

// BadgeKind enumerates badge variants.
type BadgeKind int

const (
	BadgeInfo BadgeKind = iota
	BadgeSuccess
	BadgeWarning
	BadgeError
	BadgeMuted
)

// Theme holds the palette and icons, bound to one output renderer so color
// support follows the destination writer.
type Theme struct {
	renderer *lipgloss.Renderer
	colors   Colors
	icons    IconSet
	fallback IconSet
}

// Option configures a Theme during construction.
type Option func(*Theme)

// WithIconSet overrides the icon set.
func WithIconSet(set IconSet) Option {
	return func(t *Theme) {
		t.icons = set.clone()
	}
}

// ASCIIIcons returns the plain icon set used on limited terminals.
func ASCIIIcons() IconSet {
	return asciiIcons.clone()
}

// NewTheme builds a theme rendering to w.
func NewTheme(w io.Writer, opts ...Option) Theme {
	if w == nil {
		w = os.Stdout
	}
	t := Theme{
		renderer: lipgloss.NewRenderer(w),
		colors: Colors{
			Primary: lipgloss.Color("#3a6b4a"),
			Accent:  lipgloss.Color("#8fc279"),
			Muted:   lipgloss.Color("#9ba8c0"),
			Success: lipgloss.Color("#5dc796"),
			Warning: lipgloss.Color("#e5b454"),
			Error:   lipgloss.Color("#f04c56"),
		},
		icons:    defaultIconSet(),
		fallback: asciiIcons.clone(),
	}
	for _, opt := range opts {
		opt(&t)
	}
	if t.icons == nil {
		t.icons = defaultIconSet()
	}
	return t
}

// Icon returns the themed icon, falling back to ASCII.
func (t Theme) Icon(name string) string {
	if icon, ok := t.icons[name]; ok {
		return icon
	}
	if icon, ok := t.fallback[name]; ok {
		return icon
	}
	return ""
}

// ProgressGradient returns the start and end colors of progress bars.
func (t Theme) ProgressGradient() []string {
	return []string{string(t.colors.Primary), string(t.colors.Accent)}
}

// PanelStyle returns the bordered container used for statistics.
func (t Theme) PanelStyle() lipgloss.Style {
	return t.renderer.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.colors.Accent).
		Padding(0, 1)
}

// StatusBarStyle returns the footer style.
func (t Theme) StatusBarStyle() lipgloss.Style {
	return t.renderer.NewStyle().
		Foreground(t.colors.Muted).
		Italic(true)
}

// HeaderStyle is used for section headers.
func (t Theme) HeaderStyle() lipgloss.Style {
	return t.renderer.NewStyle().Bold(true).Foreground(t.colors.Primary)
}

// MutedStyle is used for secondary text.
func (t Theme) MutedStyle() lipgloss.Style {
	return t.renderer.NewStyle().Foreground(t.colors.Muted)
}

// BadgeStyle returns the badge style for kind.
func (t Theme) BadgeStyle(kind BadgeKind) lipgloss.Style {
	base := t.renderer.NewStyle().Bold(true)

	switch kind {
	case BadgeSuccess:
		return base.Foreground(t.colors.Success)
	case BadgeWarning:
		return base.Foreground(t.colors.Warning)
	case BadgeError:
		return base.Foreground(t.colors.Error)
	case BadgeMuted:
		return base.Foreground(t.colors.Muted)
	default:
		return base.Foreground(t.colors.Accent)
	}
}

// ConfidenceBadge picks a badge kind for a confidence score.
func ConfidenceBadge(confidence float64) BadgeKind {
	switch {
	case confidence >= 0.9:
		return BadgeSuccess
	case confidence >= 0.55:
		return BadgeInfo
	case confidence >= 0.3:
		return BadgeWarning
	default:
		return BadgeError
	}
}

func defaultIconSet() IconSet {
	if isLimitedTerminal() {
		return asciiIcons.clone()
	}
	return emojiIcons.clone()
}

// isLimitedTerminal detects environments where ASCII icons are preferable.
func isLimitedTerminal() bool {
	if os.Getenv("SSH_CLIENT") != "" || os.Getenv("SSH_TTY") != "" || os.Getenv("SSH_CONNECTION") != "" {
		return true
	}
	return runtime.GOOS == "windows"
}

var emojiIcons = IconSet{
	"movie":    "🎬",
	"episode":  "📺",
	"unknown":  "❓",
	"success":  "✅",
	"error":    "❌",
	"skip":     "⏭",
	"stats":    "📊",
	"folder":   "📁",
	"external": "🧠",
}

var asciiIcons = IconSet{
	"movie":    "[M]",
	"episode":  "[E]",
	"unknown":  "[?]",
	"success":  "[v]",
	"error":    "[!]",
	"skip":     "[-]",
	"stats":    "[*]",
	"folder":   "[D]",
	"external": "[X]",
}
