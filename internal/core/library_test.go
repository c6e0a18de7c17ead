package core

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"
	"testing"
	"time"

	"github.com/Digital-Shane/shirarium/internal/provider"
	"github.com/Digital-Shane/treeview"
	"github.com/google/go-cmp/cmp"
)

type fakeFileInfo struct {
	name string
	dir  bool
}

func (fi fakeFileInfo) Name() string { return fi.name }
func (fi fakeFileInfo) Size() int64  { return 0 }
func (fi fakeFileInfo) Mode() fs.FileMode {
	if fi.dir {
		return fs.ModeDir | 0o755
	}
	return 0o644
}
func (fi fakeFileInfo) ModTime() time.Time { return time.Unix(0, 0) }
func (fi fakeFileInfo) IsDir() bool        { return fi.dir }
func (fi fakeFileInfo) Sys() any           { return nil }

func newFakeNode(path string, dir bool) *treeview.Node[treeview.FileInfo] {
	name := filepath.Base(path)
	data := treeview.FileInfo{FileInfo: fakeFileInfo{name: name, dir: dir}, Path: path}
	return treeview.NewNode(path, name, data)
}

func withTreeBuilder(t *testing.T, builder treeBuilderFunc) {
	t.Helper()
	original := treeBuilder
	treeBuilder = builder
	t.Cleanup(func() {
		treeBuilder = original
	})
}

// fakeLibrary builds /lib with three videos, a text file and a season
// folder holding a numeric episode.
func fakeLibrary() *treeview.Tree[treeview.FileInfo] {
	root := newFakeNode("/lib", true)
	root.AddChild(newFakeNode("/lib/My.Show.S02E07.1080p.WEBRip.mkv", false))
	root.AddChild(newFakeNode("/lib/Random Words Here.MKV", false))
	root.AddChild(newFakeNode("/lib/notes.txt", false))
	root.AddChild(newFakeNode("/lib/Noroi (2005) 1080p BluRay x264.mp4", false))

	season := newFakeNode("/lib/Breaking Bad S02", true)
	season.AddChild(newFakeNode("/lib/Breaking Bad S02/01.mkv", false))
	root.AddChild(season)

	return treeview.NewTree([]*treeview.Node[treeview.FileInfo]{root})
}

func TestBuildExtensionSet(t *testing.T) {
	got := BuildExtensionSet([]string{"mkv", ".MP4", "  ", "", " .webm "})
	want := map[string]struct{}{".mkv": {}, ".mp4": {}, ".webm": {}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("BuildExtensionSet() mismatch (-want +got):\n%s", diff)
	}
}

func TestIsSupportedPath(t *testing.T) {
	exts := BuildExtensionSet(DefaultScanExtensions)
	tests := map[string]bool{
		"/lib/Movie.mkv":      true,
		"/lib/Movie.MKV":      true,
		"Show.S01E01.m2ts":    true,
		"/lib/notes.txt":      false,
		"/lib/no-extension":   false,
		"   ":                 false,
		"/lib/Movie.mkv.part": false,
	}
	for path, want := range tests {
		if got := IsSupportedPath(path, exts); got != want {
			t.Errorf("IsSupportedPath(%q) = %v, want %v", path, got, want)
		}
	}
}

func TestPassesConfidenceThreshold(t *testing.T) {
	tests := []struct {
		confidence, min float64
		want            bool
	}{
		{0.55, 0.55, true},
		{0.549, 0.55, false},
		{0.98, 0.55, true},
		{0.05, 0, true},
	}
	for _, tt := range tests {
		if got := PassesConfidenceThreshold(tt.confidence, tt.min); got != tt.want {
			t.Errorf("PassesConfidenceThreshold(%v, %v) = %v, want %v", tt.confidence, tt.min, got, tt.want)
		}
	}
}

func TestConfidenceBucket(t *testing.T) {
	tests := map[float64]string{
		0.75: "0.7-0.8",
		0.3:  "0.3-0.4",
		0.05: "0.0-0.1",
		-1:   "0.0-0.1",
		0.98: "0.9-1.0",
		1:    "1.0",
		1.5:  "1.0",
	}
	for confidence, want := range tests {
		if got := ConfidenceBucket(confidence); got != want {
			t.Errorf("ConfidenceBucket(%v) = %q, want %q", confidence, got, want)
		}
	}
}

func TestIndexLibrary(t *testing.T) {
	withTreeBuilder(t, func(_ context.Context, path string, _ bool, _ ...treeview.Option[treeview.FileInfo]) (*treeview.Tree[treeview.FileInfo], error) {
		if path != "/lib" {
			t.Errorf("builder path = %q, want /lib", path)
		}
		return fakeLibrary(), nil
	})

	got, err := IndexLibrary(context.Background(), "/lib", ScanConfig{})
	if err != nil {
		t.Fatalf("IndexLibrary() error = %v", err)
	}
	want := []string{
		"/lib/My.Show.S02E07.1080p.WEBRip.mkv",
		"/lib/Random Words Here.MKV",
		"/lib/Noroi (2005) 1080p BluRay x264.mp4",
		"/lib/Breaking Bad S02/01.mkv",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("IndexLibrary() mismatch (-want +got):\n%s", diff)
	}
}

func TestIndexLibraryCustomExtensions(t *testing.T) {
	withTreeBuilder(t, func(context.Context, string, bool, ...treeview.Option[treeview.FileInfo]) (*treeview.Tree[treeview.FileInfo], error) {
		return fakeLibrary(), nil
	})

	got, err := IndexLibrary(context.Background(), "/lib", ScanConfig{Extensions: []string{"mp4", "txt"}})
	if err != nil {
		t.Fatalf("IndexLibrary() error = %v", err)
	}
	want := []string{"/lib/notes.txt", "/lib/Noroi (2005) 1080p BluRay x264.mp4"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("IndexLibrary() mismatch (-want +got):\n%s", diff)
	}
}

func TestIndexLibraryDefaultFilter(t *testing.T) {
	got := make(map[string]bool)
	withTreeBuilder(t, func(_ context.Context, path string, _ bool, opts ...treeview.Option[treeview.FileInfo]) (*treeview.Tree[treeview.FileInfo], error) {
		cfg := treeview.NewMasterConfig(opts)
		files := []treeview.FileInfo{
			{FileInfo: fakeFileInfo{name: ".DS_Store"}, Path: filepath.Join(path, ".DS_Store")},
			{FileInfo: fakeFileInfo{name: "._Movie.mkv"}, Path: filepath.Join(path, "._Movie.mkv")},
			{FileInfo: fakeFileInfo{name: "Movie.mkv"}, Path: filepath.Join(path, "Movie.mkv")},
			{FileInfo: fakeFileInfo{name: "Season 01", dir: true}, Path: filepath.Join(path, "Season 01")},
		}
		for _, fi := range files {
			got[fi.Name()] = !cfg.ShouldFilter(fi)
		}
		return &treeview.Tree[treeview.FileInfo]{}, nil
	})

	if _, err := IndexLibrary(context.Background(), "/lib", ScanConfig{}); err != nil {
		t.Fatalf("IndexLibrary() error = %v", err)
	}
	want := map[string]bool{
		".DS_Store":   false,
		"._Movie.mkv": false,
		"Movie.mkv":   true,
		"Season 01":   true,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("filter decisions mismatch (-want +got):\n%s", diff)
	}
}

func TestIndexLibraryBuilderError(t *testing.T) {
	boom := errors.New("permission denied")
	withTreeBuilder(t, func(context.Context, string, bool, ...treeview.Option[treeview.FileInfo]) (*treeview.Tree[treeview.FileInfo], error) {
		return nil, boom
	})

	_, err := IndexLibrary(context.Background(), "/lib", ScanConfig{})
	if !errors.Is(err, boom) {
		t.Errorf("IndexLibrary() error = %v, want wrapped %v", err, boom)
	}
}

func TestScan(t *testing.T) {
	withTreeBuilder(t, func(context.Context, string, bool, ...treeview.Option[treeview.FileInfo]) (*treeview.Tree[treeview.FileInfo], error) {
		return fakeLibrary(), nil
	})

	report, err := Scan(context.Background(), NewClassifier(ClassifierConfig{}), "/lib", ScanConfig{
		MaxItems:      3,
		MinConfidence: DefaultMinConfidence,
		Workers:       2,
	})
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}

	if report.Examined != 4 || report.Attempted != 3 || report.SkippedByLimit != 1 {
		t.Errorf("Scan() counts = examined %d, attempted %d, limited %d; want 4, 3, 1",
			report.Examined, report.Attempted, report.SkippedByLimit)
	}
	if report.SkippedByConfidence != 1 {
		t.Errorf("SkippedByConfidence = %d, want 1", report.SkippedByConfidence)
	}

	var accepted []string
	for _, res := range report.Accepted {
		accepted = append(accepted, res.Path)
	}
	want := []string{
		"/lib/My.Show.S02E07.1080p.WEBRip.mkv",
		"/lib/Noroi (2005) 1080p BluRay x264.mp4",
	}
	if diff := cmp.Diff(want, accepted); diff != "" {
		t.Errorf("Accepted paths mismatch (-want +got):\n%s", diff)
	}
	if len(report.Rejected) != 1 || report.Rejected[0].Path != "/lib/Random Words Here.MKV" {
		t.Errorf("Rejected = %+v, want the unknown file", report.Rejected)
	}
	if diff := cmp.Diff(map[provider.Source]int{provider.SourceHeuristic: 3}, report.SourceCounts); diff != "" {
		t.Errorf("SourceCounts mismatch (-want +got):\n%s", diff)
	}
	wantBuckets := map[string]int{"0.7-0.8": 1, "0.8-0.9": 1, "0.4-0.5": 1}
	if diff := cmp.Diff(wantBuckets, report.ConfidenceBuckets); diff != "" {
		t.Errorf("ConfidenceBuckets mismatch (-want +got):\n%s", diff)
	}
}

func TestScanClampsMaxItems(t *testing.T) {
	withTreeBuilder(t, func(context.Context, string, bool, ...treeview.Option[treeview.FileInfo]) (*treeview.Tree[treeview.FileInfo], error) {
		return fakeLibrary(), nil
	})

	report, err := Scan(context.Background(), NewClassifier(ClassifierConfig{}), "/lib", ScanConfig{MaxItems: 0})
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if report.Attempted != 1 || report.SkippedByLimit != 3 {
		t.Errorf("Scan() attempted %d, limited %d; want 1, 3", report.Attempted, report.SkippedByLimit)
	}
}

func TestScanReportsEvents(t *testing.T) {
	withTreeBuilder(t, func(context.Context, string, bool, ...treeview.Option[treeview.FileInfo]) (*treeview.Tree[treeview.FileInfo], error) {
		return fakeLibrary(), nil
	})

	var events []BatchEvent
	_, err := Scan(context.Background(), NewClassifier(ClassifierConfig{}), "/lib", ScanConfig{
		MaxItems: 10,
		Workers:  1,
		OnEvent:  func(ev BatchEvent) { events = append(events, ev) },
	})
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if len(events) == 0 {
		t.Fatal("OnEvent was never called")
	}
	last := events[len(events)-1].Summary
	if !last.Done || last.ProcessedItems != 4 || last.TotalItems != 4 {
		t.Errorf("last summary = %+v, want done with 4/4", last)
	}
}
