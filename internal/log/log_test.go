package log

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Digital-Shane/shirarium/internal/provider"
	"github.com/google/go-cmp/cmp"
	zlog "github.com/rs/zerolog/log"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestJournalSession(t *testing.T) {
	dir := t.TempDir()
	j := NewJournal(dir, true, 30)
	j.now = fixedClock(time.Date(2025, 3, 14, 9, 26, 53, 589000000, time.UTC))

	if err := j.StartSession("classify", []string{"a.mkv", "b.mkv"}); err != nil {
		t.Fatalf("StartSession() failed: %v", err)
	}
	if j.SessionID() == "" {
		t.Fatal("SessionID() is empty after StartSession()")
	}

	j.Record("My.Show.S02E07.mkv", provider.Result{
		Title:      "My Show",
		Class:      provider.Episode{Season: 2, Episode: 7},
		Confidence: 0.75,
		Source:     provider.SourceHeuristic,
	}, nil)
	j.Record("Noroi.mkv", provider.Result{
		Title:      "Noroi: The Curse",
		Class:      provider.Movie{Year: 2005},
		Confidence: 0.9,
		Source:     provider.SourceExternal,
	}, nil)
	j.Record("Random Words Here.mkv", provider.Result{
		Title:      "Random Words Here",
		Class:      provider.Unknown{},
		Confidence: 0.4,
		Source:     provider.SourceHeuristic,
	}, errors.New("backend unavailable"))

	path, err := j.EndSession()
	if err != nil {
		t.Fatalf("EndSession() failed: %v", err)
	}
	if !strings.HasPrefix(filepath.Base(path), "2025-03-14_092653.589_") {
		t.Errorf("EndSession() path = %q, want timestamped file name", path)
	}

	session, err := ReadSession(path)
	if err != nil {
		t.Fatalf("ReadSession() failed: %v", err)
	}

	meta := session.Metadata
	if diff := cmp.Diff([]string{"classify", "a.mkv", "b.mkv"}, meta.CommandArgs); diff != "" {
		t.Errorf("CommandArgs mismatch (-want +got):\n%s", diff)
	}
	if meta.Total != 3 || meta.External != 1 || meta.Unknown != 1 || meta.Failed != 1 {
		t.Errorf("stats = total %d, external %d, unknown %d, failed %d; want 3, 1, 1, 1",
			meta.Total, meta.External, meta.Unknown, meta.Failed)
	}

	wantEpisode := EntryLog{
		ID:         meta.SessionID + "_0",
		Timestamp:  j.now(),
		Path:       "My.Show.S02E07.mkv",
		Title:      "My Show",
		MediaType:  provider.MediaTypeEpisode,
		Season:     2,
		Episode:    7,
		Confidence: 0.75,
		Source:     provider.SourceHeuristic,
		Success:    true,
	}
	if diff := cmp.Diff(wantEpisode, session.Entries[0]); diff != "" {
		t.Errorf("episode entry mismatch (-want +got):\n%s", diff)
	}
	if session.Entries[1].Year != 2005 {
		t.Errorf("movie entry Year = %d, want 2005", session.Entries[1].Year)
	}
	if failed := session.Entries[2]; failed.Success || failed.Error != "backend unavailable" {
		t.Errorf("failed entry = %+v, want error recorded", failed)
	}

	if j.SessionID() != "" {
		t.Error("SessionID() should be empty after EndSession()")
	}
}

func TestJournalDisabled(t *testing.T) {
	dir := t.TempDir()
	j := NewJournal(dir, false, 30)

	if err := j.StartSession("classify", nil); err != nil {
		t.Fatalf("StartSession() error = %v", err)
	}
	j.Record("a.mkv", provider.Result{Title: "A", Class: provider.Movie{}}, nil)
	path, err := j.EndSession()
	if err != nil || path != "" {
		t.Errorf("EndSession() = (%q, %v), want no file", path, err)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("disabled journal wrote %d files", len(entries))
	}
}

func TestJournalNil(t *testing.T) {
	var j *Journal
	if j.Enabled() {
		t.Error("nil Journal reports enabled")
	}
	if err := j.StartSession("classify", nil); err != nil {
		t.Errorf("StartSession() on nil journal error = %v", err)
	}
	j.Record("a.mkv", provider.Result{}, nil)
	if path, err := j.EndSession(); err != nil || path != "" {
		t.Errorf("EndSession() on nil journal = (%q, %v)", path, err)
	}
}

func TestEndSessionWithoutStart(t *testing.T) {
	j := NewJournal(t.TempDir(), true, 0)
	path, err := j.EndSession()
	if err != nil || path != "" {
		t.Errorf("EndSession() without session = (%q, %v), want empty", path, err)
	}
}

func TestReadSessions(t *testing.T) {
	dir := t.TempDir()
	j := NewJournal(dir, true, 0)

	base := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		j.now = fixedClock(base.Add(time.Duration(i) * time.Minute))
		if err := j.StartSession("scan", []string{string(rune('a' + i))}); err != nil {
			t.Fatal(err)
		}
		if _, err := j.EndSession(); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(filepath.Join(dir, "2099-01-01_000000.000_broken.json"), []byte("{"), 0644); err != nil {
		t.Fatal(err)
	}

	sessions, err := ReadSessions(dir, 0)
	if err != nil {
		t.Fatalf("ReadSessions() error = %v", err)
	}
	var got []string
	for _, s := range sessions {
		got = append(got, s.Metadata.CommandArgs[1])
	}
	if diff := cmp.Diff([]string{"c", "b", "a"}, got); diff != "" {
		t.Errorf("ReadSessions() order mismatch (-want +got):\n%s", diff)
	}

	limited, err := ReadSessions(dir, 2)
	if err != nil {
		t.Fatalf("ReadSessions() error = %v", err)
	}
	// The corrupted file sorts first and is skipped.
	if len(limited) != 1 {
		t.Errorf("ReadSessions(limit 2) = %d sessions, want 1", len(limited))
	}
}

func TestReadSessionsMissingDir(t *testing.T) {
	sessions, err := ReadSessions(filepath.Join(t.TempDir(), "nope"), 10)
	if err != nil || len(sessions) != 0 {
		t.Errorf("ReadSessions(missing) = (%v, %v), want empty", sessions, err)
	}
}

func TestCleanup(t *testing.T) {
	dir := t.TempDir()
	oldFile := filepath.Join(dir, "old.json")
	newFile := filepath.Join(dir, "new.json")
	for _, f := range []string{oldFile, newFile} {
		if err := os.WriteFile(f, []byte("{}"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	old := time.Now().AddDate(0, 0, -45)
	if err := os.Chtimes(oldFile, old, old); err != nil {
		t.Fatal(err)
	}

	NewJournal(dir, true, 30)

	if _, err := os.Stat(oldFile); !os.IsNotExist(err) {
		t.Error("old session file was not removed")
	}
	if _, err := os.Stat(newFile); err != nil {
		t.Errorf("recent session file removed: %v", err)
	}
}

func TestDefaultDir(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	got, err := DefaultDir()
	if err != nil {
		t.Fatalf("DefaultDir() error = %v", err)
	}
	if want := filepath.Join(home, ".shirarium", "logs"); got != want {
		t.Errorf("DefaultDir() = %q, want %q", got, want)
	}
}

func TestSetup(t *testing.T) {
	original := zlog.Logger
	t.Cleanup(func() { zlog.Logger = original })

	var buf bytes.Buffer
	logger, err := Setup("warn", "json", &buf)
	if err != nil {
		t.Fatalf("Setup() error = %v", err)
	}

	logger.Info().Msg("hidden")
	zlog.Warn().Str("path", "a.mkv").Msg("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info message logged at warn level: %s", out)
	}
	if !strings.Contains(out, `"path":"a.mkv"`) || !strings.Contains(out, `"level":"warn"`) {
		t.Errorf("global logger output = %s, want warn JSON line", out)
	}
}

func TestSetupErrors(t *testing.T) {
	original := zlog.Logger
	t.Cleanup(func() { zlog.Logger = original })

	tests := []struct{ level, format string }{
		{"loud", "json"},
		{"info", "xml"},
	}
	for _, tt := range tests {
		if _, err := Setup(tt.level, tt.format, &bytes.Buffer{}); err == nil {
			t.Errorf("Setup(%q, %q) error = nil, want error", tt.level, tt.format)
		}
	}
}

func TestSetupConsole(t *testing.T) {
	original := zlog.Logger
	t.Cleanup(func() { zlog.Logger = original })

	var buf bytes.Buffer
	logger, err := Setup("", "console", &buf)
	if err != nil {
		t.Fatalf("Setup() error = %v", err)
	}
	logger.Info().Msg("scan: started")
	if !strings.Contains(buf.String(), "scan: started") {
		t.Errorf("console output = %q, want message", buf.String())
	}
}
