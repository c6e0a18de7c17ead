package local

import (
	"strings"

	"github.com/Digital-Shane/shirarium/internal/provider"
)

// ParseContext captures precomputed details about a path so the cascade and
// the folder resolver do not repeat splitting and extension removal.
type ParseContext struct {
	Path      string
	Segments  []string
	Leaf      string
	Stem      string
	Extension string
}

// NewParseContext splits a path on both separator styles. The path is an
// opaque string; nothing is read from disk.
func NewParseContext(path string) ParseContext {
	ctx := ParseContext{
		Path: path,
		Segments: strings.FieldsFunc(path, func(r rune) bool {
			return r == '/' || r == '\\'
		}),
	}
	if len(ctx.Segments) == 0 {
		return ctx
	}

	ctx.Leaf = ctx.Segments[len(ctx.Segments)-1]
	ctx.Extension = ExtractExtension(ctx.Leaf)
	ctx.Stem = strings.TrimSuffix(ctx.Leaf, ctx.Extension)
	return ctx
}

// Ancestors returns parent segments innermost first, skipping library roots
// and drive letters, up to maxDepth entries.
func (ctx ParseContext) Ancestors(maxDepth int) []string {
	if maxDepth <= 0 || len(ctx.Segments) < 2 {
		return nil
	}

	names := make([]string, 0, maxDepth)
	for i := len(ctx.Segments) - 2; i >= 0 && len(names) < maxDepth; i-- {
		name := strings.TrimSpace(ctx.Segments[i])
		if name == "" || isLibraryRoot(name) || driveLetterRe.MatchString(name) {
			continue
		}
		names = append(names, name)
	}

	return names
}

// needsContext reports whether the leaf stem alone is too weak to trust.
func (ctx ParseContext) needsContext(leaf partial, shortStem int) bool {
	stem := strings.TrimSpace(ctx.Stem)
	if len([]rune(stem)) < shortStem || isNumeric(stem) {
		return true
	}
	if _, ok := placeholderStems[strings.ToLower(stem)]; ok {
		return true
	}
	return leaf.title == provider.UnknownTitle
}

func isLibraryRoot(name string) bool {
	_, ok := libraryRoots[strings.ToLower(name)]
	return ok
}
