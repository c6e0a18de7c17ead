package core

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Digital-Shane/shirarium/internal/provider"
)

// Default target layouts, relative to the plan root and without extension.
const (
	DefaultMovieTemplate   = "{TitleWithYear} [{Resolution}]/{TitleWithYear} [{Resolution}]"
	DefaultEpisodeTemplate = "{Title}/Season {Season2}/{Title} S{Season2}E{Episode2} [{Resolution}]"
)

// PlanAction is what applying a plan entry would do.
type PlanAction string

const (
	PlanMove PlanAction = "move"
	PlanNone PlanAction = "none"
	PlanSkip PlanAction = "skip"
)

// PlanConfig describes the target library layout.
type PlanConfig struct {
	Root              string
	MovieTemplate     string
	EpisodeTemplate   string
	NormalizeSegments bool
	PreserveTags      bool
}

// PlanEntry is the proposed destination of one classified file. Planning
// never touches the filesystem.
type PlanEntry struct {
	Source   string             `json:"source"`
	Target   string             `json:"target,omitempty"`
	Action   PlanAction         `json:"action"`
	Reason   string             `json:"reason"`
	Strategy provider.MediaType `json:"strategy"`
}

// Plan renders the target path for a classified source file.
func Plan(source string, res provider.Result, cfg PlanConfig) PlanEntry {
	entry := PlanEntry{Source: source, Strategy: res.MediaType()}

	if strings.TrimSpace(source) == "" {
		return entry.skip("MissingSourcePath")
	}
	if strings.TrimSpace(cfg.Root) == "" {
		return entry.skip("MissingRoot")
	}

	leaf := leafName(source)
	ext := filepath.Ext(leaf)
	if ext == "" || ext == leaf {
		return entry.skip("MissingFileExtension")
	}

	title := strings.TrimSpace(res.Title)
	if cfg.NormalizeSegments {
		title, _ = sanitizeSegment(title)
	}
	if title == "" {
		title = provider.UnknownTitle
	}

	var (
		template string
		tokens   map[string]string
	)
	switch c := res.Class.(type) {
	case provider.Movie:
		template = firstNonBlank(cfg.MovieTemplate, DefaultMovieTemplate)
		tokens = movieTokens(title, c.Year, res.Attributes)
	case provider.Episode:
		template = firstNonBlank(cfg.EpisodeTemplate, DefaultEpisodeTemplate)
		tokens = episodeTokens(title, c.Season, c.Episode, res.Attributes)
	default:
		return entry.skip("UnsupportedMediaType")
	}

	relative, err := renderRelativePath(template, tokens, cfg.NormalizeSegments)
	if err != nil {
		return entry.skip("InvalidTemplate")
	}

	if cfg.PreserveTags {
		dir, name := filepath.Split(relative)
		relative = dir + carryBracketTags(name, strings.TrimSuffix(leaf, ext))
	}
	if !strings.HasSuffix(strings.ToLower(relative), strings.ToLower(ext)) {
		relative += ext
	}

	entry.Target = filepath.Join(cfg.Root, relative)
	if filepath.Clean(source) == entry.Target {
		entry.Action = PlanNone
		entry.Reason = "AlreadyOrganized"
		return entry
	}
	entry.Action = PlanMove
	entry.Reason = "Planned"
	return entry
}

// ValidateTemplate reports whether a template renders for the given
// classification.
func ValidateTemplate(template string, mediaType provider.MediaType) error {
	var tokens map[string]string
	switch mediaType {
	case provider.MediaTypeMovie:
		tokens = movieTokens("Title", 2000, provider.Attributes{})
	case provider.MediaTypeEpisode:
		tokens = episodeTokens("Title", 1, 1, provider.Attributes{})
	default:
		return fmt.Errorf("no template for media type %q", mediaType)
	}
	_, err := renderRelativePath(template, tokens, true)
	return err
}

func (e PlanEntry) skip(reason string) PlanEntry {
	e.Action = PlanSkip
	e.Reason = reason
	return e
}

func movieTokens(title string, year int, attrs provider.Attributes) map[string]string {
	tokens := attributeTokens(attrs)
	tokens["title"] = title
	tokens["titlewithyear"] = title
	tokens["year"] = ""
	if year > 0 {
		tokens["titlewithyear"] = fmt.Sprintf("%s (%d)", title, year)
		tokens["year"] = strconv.Itoa(year)
	}
	return tokens
}

func episodeTokens(title string, season, episode int, attrs provider.Attributes) map[string]string {
	tokens := attributeTokens(attrs)
	tokens["title"] = title
	tokens["season"] = strconv.Itoa(season)
	tokens["season2"] = fmt.Sprintf("%02d", season)
	tokens["episode"] = strconv.Itoa(episode)
	tokens["episode2"] = fmt.Sprintf("%02d", episode)
	return tokens
}

func attributeTokens(attrs provider.Attributes) map[string]string {
	return map[string]string{
		"resolution":    attrs.Resolution,
		"videocodec":    attrs.VideoCodec,
		"audiocodec":    attrs.AudioCodec,
		"audiochannels": attrs.AudioChannels,
		"hdr":           attrs.HDR,
		"releasegroup":  attrs.ReleaseGroup,
		"mediasource":   attrs.MediaSource,
		"edition":       attrs.Edition,
	}
}

// renderRelativePath substitutes {Token} placeholders, case-insensitively,
// and cleans each resulting segment. Unknown tokens and unclosed braces are
// errors.
func renderRelativePath(template string, tokens map[string]string, normalize bool) (string, error) {
	resolved, err := resolveTokens(template, tokens)
	if err != nil {
		return "", err
	}

	var segments []string
	for _, segment := range strings.Split(strings.ReplaceAll(resolved, "\\", "/"), "/") {
		segment = tidySegment(segment)
		if normalize {
			segment, _ = sanitizeSegment(segment)
		} else {
			segment = strings.TrimSpace(strings.Trim(segment, "."))
		}
		if segment != "" {
			segments = append(segments, segment)
		}
	}
	if len(segments) == 0 {
		return "", fmt.Errorf("template %q renders an empty path", template)
	}
	return filepath.Join(segments...), nil
}

func resolveTokens(template string, tokens map[string]string) (string, error) {
	var b strings.Builder
	b.Grow(len(template))

	for i := 0; i < len(template); {
		if template[i] != '{' {
			b.WriteByte(template[i])
			i++
			continue
		}
		end := strings.IndexByte(template[i+1:], '}')
		if end < 0 {
			return "", fmt.Errorf("unclosed token at offset %d", i)
		}
		name := strings.ToLower(strings.TrimSpace(template[i+1 : i+1+end]))
		value, ok := tokens[name]
		if !ok {
			return "", fmt.Errorf("unknown token %q", name)
		}
		b.WriteString(value)
		i += end + 2
	}
	return b.String(), nil
}

// leafName returns the last segment of a path written with either
// separator style.
func leafName(path string) string {
	if i := strings.LastIndexAny(path, `/\`); i >= 0 {
		return path[i+1:]
	}
	return path
}

func firstNonBlank(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
