// Package tui shows live progress while a batch of paths is classified.
package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/Digital-Shane/shirarium/internal/core"
	"github.com/Digital-Shane/shirarium/internal/report"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

// Work runs a batch and reports every engine event through onEvent. It must
// return once ctx is canceled.
type Work func(ctx context.Context, onEvent func(core.BatchEvent)) error

// ProgressModel is a Bubble Tea model that renders batch progress until the
// work finishes or the user cancels it.
type ProgressModel struct {
	title string

	summary     core.BatchSummary
	done        bool
	interrupted bool
	err         error

	width  int
	height int

	progress progress.Model
	msgCh    chan tea.Msg
	quit     chan struct{}
	stopOnce sync.Once
	cancel   context.CancelFunc

	theme report.Theme
}

type batchEventMsg core.BatchEvent

type workDoneMsg struct{ err error }

// NewProgressModel creates a model. cancel, when set, is called if the user
// quits before the work is done.
func NewProgressModel(title string, cancel context.CancelFunc, th report.Theme) *ProgressModel {
	gradient := th.ProgressGradient()
	p := progress.New(progress.WithGradient(gradient[0], gradient[1]))
	p.Width = 50
	return &ProgressModel{
		title:    title,
		width:    80,
		height:   12,
		progress: p,
		msgCh:    make(chan tea.Msg, 64),
		quit:     make(chan struct{}),
		cancel:   cancel,
		theme:    th,
	}
}

// Report forwards an engine event to the UI. It never blocks once the UI
// has stopped.
func (m *ProgressModel) Report(ev core.BatchEvent) {
	select {
	case m.msgCh <- batchEventMsg(ev):
	case <-m.quit:
	}
}

// Finish tells the UI the work returned err.
func (m *ProgressModel) Finish(err error) {
	select {
	case m.msgCh <- workDoneMsg{err: err}:
	case <-m.quit:
	}
}

func (m *ProgressModel) stop() {
	m.stopOnce.Do(func() { close(m.quit) })
}

// Init waits for the first message from the work.
func (m *ProgressModel) Init() tea.Cmd {
	return m.waitForMsg()
}

func (m *ProgressModel) waitForMsg() tea.Cmd {
	return func() tea.Msg {
		select {
		case msg := <-m.msgCh:
			return msg
		case <-m.quit:
			return nil
		}
	}
}

// Update processes Bubble Tea messages.
func (m *ProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.progress.Width = msg.Width - 4
		return m, nil
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" || msg.String() == "esc" {
			m.interrupted = true
			if m.cancel != nil {
				m.cancel()
			}
			m.stop()
			return m, tea.Quit
		}
	case batchEventMsg:
		m.summary = msg.Summary
		if msg.Err != nil {
			m.err = msg.Err
		}
		cmd := m.progress.SetPercent(m.ratio())
		return m, tea.Batch(cmd, m.waitForMsg())
	case workDoneMsg:
		m.done = true
		if msg.err != nil {
			m.err = msg.err
		}
		m.stop()
		return m, tea.Quit
	case progress.FrameMsg:
		progressModel, cmd := m.progress.Update(msg)
		m.progress = progressModel.(progress.Model)
		return m, cmd
	}
	return m, nil
}

func (m *ProgressModel) ratio() float64 {
	if m.summary.TotalItems == 0 {
		if m.summary.Done {
			return 1
		}
		return 0
	}
	return min(float64(m.summary.ProcessedItems)/float64(m.summary.TotalItems), 1)
}

// View renders the progress UI.
func (m *ProgressModel) View() string {
	if m.err != nil && !errors.Is(m.err, context.Canceled) {
		return fmt.Sprintf("Error: %v\n", m.err)
	}
	s := m.summary

	statsLines := []string{
		fmt.Sprintf("Total: %d", s.TotalItems),
		fmt.Sprintf("Processed: %d", s.ProcessedItems),
		fmt.Sprintf("External: %d", s.ExternalCount),
		fmt.Sprintf("Unknown: %d", s.UnknownCount),
		fmt.Sprintf("Progress: %d%%", int(m.ratio()*100)),
	}

	sections := []string{
		m.theme.HeaderStyle().Width(m.width).Render(m.title),
		m.progress.View(),
		fmt.Sprintf("Classified: %d/%d  Workers: %d/%d", s.ProcessedItems, s.TotalItems, s.ActiveWorkers, s.WorkerLimit),
	}
	if s.LastItem != "" {
		last := runewidth.Truncate(s.LastItem, max(m.width-6, 10), "…")
		sections = append(sections, m.theme.MutedStyle().Render("Last: "+last))
	}

	panel := m.theme.PanelStyle()
	panelWidth := max(m.width-panel.GetHorizontalFrameSize(), 0)
	sections = append(sections, panel.Width(panelWidth).Render(strings.Join(statsLines, "\n")))

	status := "Classifying... press esc to cancel"
	switch {
	case m.interrupted || s.Canceled:
		status = "Canceled"
	case m.done:
		status = "Done"
	}
	sections = append(sections, m.theme.StatusBarStyle().Width(m.width).Render(status))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// Summary returns the last summary received.
func (m *ProgressModel) Summary() core.BatchSummary { return m.summary }

// Err returns the error reported by the work, if any.
func (m *ProgressModel) Err() error { return m.err }

// RunProgress runs work in the background while rendering its progress to
// out. Quitting the UI cancels the work. The work's error is returned.
func RunProgress(ctx context.Context, title string, out io.Writer, in io.Reader, work Work) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	model := NewProgressModel(title, cancel, report.NewTheme(out))
	errCh := make(chan error, 1)
	go func() {
		err := work(ctx, model.Report)
		model.Finish(err)
		errCh <- err
	}()

	_, runErr := tea.NewProgram(model, tea.WithOutput(out), tea.WithInput(in)).Run()
	model.stop()
	if runErr != nil {
		cancel()
		<-errCh
		return runErr
	}
	return <-errCh
}
