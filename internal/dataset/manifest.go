// Package dataset loads labelled path manifests and measures how well the
// classifier reproduces their expectations.
package dataset

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Expected media types in a manifest. "ignored" excludes the type from
// scoring.
const (
	MediaTypeMovie   = "movie"
	MediaTypeEpisode = "episode"
	MediaTypeUnknown = "unknown"
	MediaTypeIgnored = "ignored"
)

// Manifest is a named set of labelled relative paths.
type Manifest struct {
	Name          string  `json:"name"`
	Description   string  `json:"description"`
	SchemaVersion string  `json:"schemaVersion,omitempty"`
	Entries       []Entry `json:"entries"`
}

// Entry is one labelled path.
type Entry struct {
	RelativePath string   `json:"relativePath"`
	Expected     Expected `json:"expected"`
}

// Expected holds the labels for an entry. Nil and empty fields are not
// scored.
type Expected struct {
	Title     string `json:"title,omitempty"`
	Year      *int   `json:"year,omitempty"`
	Season    *int   `json:"season,omitempty"`
	Episode   *int   `json:"episode,omitempty"`
	MediaType string `json:"mediaType,omitempty"`
}

// Load reads and validates a manifest file.
func Load(path string) (*Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open manifest: %w", err)
	}
	defer f.Close()

	m, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if m.Name == "" {
		m.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return m, nil
}

// Parse decodes and validates a manifest.
func Parse(r io.Reader) (*Manifest, error) {
	var m Manifest
	if err := json.NewDecoder(r).Decode(&m); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate reports every structural problem in the manifest. Relative paths
// must be present, relative and unique ignoring case.
func (m *Manifest) Validate() error {
	var errs []error
	if len(m.Entries) == 0 {
		errs = append(errs, errors.New("manifest has no entries"))
	}

	seen := make(map[string]int, len(m.Entries))
	for i, entry := range m.Entries {
		rel := strings.TrimSpace(entry.RelativePath)
		if rel == "" {
			errs = append(errs, fmt.Errorf("entry %d: relativePath is empty", i))
			continue
		}
		if filepath.IsAbs(rel) || strings.HasPrefix(rel, "/") || strings.HasPrefix(rel, `\`) {
			errs = append(errs, fmt.Errorf("entry %d: relativePath %q is rooted", i, rel))
		}
		key := strings.ToLower(rel)
		if first, dup := seen[key]; dup {
			errs = append(errs, fmt.Errorf("entry %d: duplicate relativePath %q (first at entry %d)", i, rel, first))
		} else {
			seen[key] = i
		}

		switch entry.Expected.MediaType {
		case "", MediaTypeMovie, MediaTypeEpisode, MediaTypeUnknown, MediaTypeIgnored:
		default:
			errs = append(errs, fmt.Errorf("entry %d: unknown mediaType %q", i, entry.Expected.MediaType))
		}
	}
	return errors.Join(errs...)
}

// MediaTypeCounts tallies entries by expected media type. Entries without
// one are counted under "".
func (m *Manifest) MediaTypeCounts() map[string]int {
	counts := make(map[string]int)
	for _, entry := range m.Entries {
		counts[entry.Expected.MediaType]++
	}
	return counts
}
