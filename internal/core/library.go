package core

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"github.com/Digital-Shane/shirarium/internal/provider"
	"github.com/Digital-Shane/treeview"
)

// DefaultScanExtensions are the video containers considered by a scan.
var DefaultScanExtensions = []string{".mkv", ".mp4", ".avi", ".mov", ".wmv", ".m4v", ".ts", ".m2ts", ".webm"}

const (
	// DefaultMaxItems bounds the number of classifications per scan.
	DefaultMaxItems = 500
	// DefaultMinConfidence is the lowest confidence a scan accepts.
	DefaultMinConfidence = 0.55
)

type treeBuilderFunc func(context.Context, string, bool, ...treeview.Option[treeview.FileInfo]) (*treeview.Tree[treeview.FileInfo], error)

var treeBuilder treeBuilderFunc = treeview.NewTreeFromFileSystem

// ScanConfig controls which files a scan classifies and which results it
// accepts.
type ScanConfig struct {
	MaxDepth      int
	Extensions    []string
	MaxItems      int
	MinConfidence float64
	Workers       int
	Filter        func(treeview.FileInfo) bool
	// OnEvent, when set, receives every progress event of the batch.
	OnEvent func(BatchEvent)
}

// ScanReport summarizes a scan. Accepted and Rejected hold results in walk
// order.
type ScanReport struct {
	Root                string
	Examined            int
	Attempted           int
	SkippedByLimit      int
	SkippedByConfidence int
	Accepted            []BatchResult
	Rejected            []BatchResult
	SourceCounts        map[provider.Source]int
	ConfidenceBuckets   map[string]int
}

// BuildExtensionSet normalizes extensions to lower case with a leading dot.
// Blank entries are ignored.
func BuildExtensionSet(extensions []string) map[string]struct{} {
	set := make(map[string]struct{}, len(extensions))
	for _, ext := range extensions {
		ext = strings.TrimSpace(ext)
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		set[strings.ToLower(ext)] = struct{}{}
	}
	return set
}

// IsSupportedPath reports whether path has one of the allowed extensions.
func IsSupportedPath(path string, extensions map[string]struct{}) bool {
	if strings.TrimSpace(path) == "" {
		return false
	}
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return false
	}
	_, ok := extensions[ext]
	return ok
}

// PassesConfidenceThreshold reports whether confidence meets the minimum.
// The bound is inclusive.
func PassesConfidenceThreshold(confidence, minConfidence float64) bool {
	return confidence >= minConfidence
}

// ConfidenceBucket returns the tenth-wide bucket label for a confidence,
// such as "0.7-0.8". A confidence of 1 has its own bucket.
func ConfidenceBucket(confidence float64) string {
	clamped := math.Max(0, math.Min(1, confidence))
	if clamped >= 1 {
		return "1.0"
	}
	lower := math.Floor(clamped*10) / 10
	return fmt.Sprintf("%.1f-%.1f", lower, lower+0.1)
}

// IndexLibrary walks root and returns the paths of regular files with a
// supported extension in breadth first order.
func IndexLibrary(ctx context.Context, root string, cfg ScanConfig) ([]string, error) {
	extensions := BuildExtensionSet(cfg.Extensions)
	if len(extensions) == 0 {
		extensions = BuildExtensionSet(DefaultScanExtensions)
	}
	maxDepth := cfg.MaxDepth
	if maxDepth <= 0 {
		maxDepth = 6
	}

	tree, err := treeBuilder(ctx, root, false,
		treeview.WithMaxDepth[treeview.FileInfo](maxDepth),
		treeview.WithTraversalCap[treeview.FileInfo](2000000),
		treeview.WithFilterFunc(func(fi treeview.FileInfo) bool {
			if cfg.Filter != nil {
				return cfg.Filter(fi)
			}
			// Skip macOS artifacts; keep directories so the walk continues.
			if fi.Name() == ".DS_Store" || strings.HasPrefix(fi.Name(), "._") {
				return false
			}
			return fi.IsDir() || fi.FileInfo.Mode().IsRegular()
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("index %s: %w", root, err)
	}
	if tree == nil {
		return nil, nil
	}

	var paths []string
	for ni := range tree.BreadthFirst(ctx) {
		data := ni.Node.Data()
		if data.IsDir() {
			continue
		}
		if IsSupportedPath(data.Path, extensions) {
			paths = append(paths, data.Path)
		}
	}
	if err := ctx.Err(); err != nil {
		return paths, err
	}
	return paths, nil
}

// Scan indexes root, classifies up to MaxItems supported files and splits
// the results by the confidence gate.
func Scan(ctx context.Context, classifier *Classifier, root string, cfg ScanConfig) (ScanReport, error) {
	report := ScanReport{
		Root:              root,
		SourceCounts:      make(map[provider.Source]int),
		ConfidenceBuckets: make(map[string]int),
	}

	paths, err := IndexLibrary(ctx, root, cfg)
	if err != nil {
		return report, err
	}

	maxItems := cfg.MaxItems
	if maxItems < 1 {
		maxItems = 1
	}
	minConfidence := math.Max(0, math.Min(1, cfg.MinConfidence))

	report.Examined = len(paths)
	if len(paths) > maxItems {
		report.SkippedByLimit = len(paths) - maxItems
		paths = paths[:maxItems]
	}
	report.Attempted = len(paths)

	engine := NewBatchEngine(BatchConfig{
		Classifier:  classifier,
		Paths:       paths,
		WorkerCount: cfg.Workers,
	})
	for ev := range engine.Start(ctx) {
		if cfg.OnEvent != nil {
			cfg.OnEvent(ev)
		}
	}
	if err := ctx.Err(); err != nil {
		return report, err
	}

	for _, res := range engine.Ordered() {
		report.SourceCounts[res.Result.Source]++
		report.ConfidenceBuckets[ConfidenceBucket(res.Result.Confidence)]++
		if !PassesConfidenceThreshold(res.Result.Confidence, minConfidence) {
			report.SkippedByConfidence++
			report.Rejected = append(report.Rejected, res)
			continue
		}
		report.Accepted = append(report.Accepted, res)
	}
	return report, nil
}
