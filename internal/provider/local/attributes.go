package local

import (
	"strings"

	"github.com/Digital-Shane/shirarium/internal/provider"
	"github.com/moistari/rls"
)

// ExtractAttributes reads release properties from a leaf name. The values
// are informational and do not feed classification.
func ExtractAttributes(leaf string) provider.Attributes {
	name := strings.TrimSuffix(leaf, ExtractExtension(leaf))
	if strings.TrimSpace(name) == "" {
		return provider.Attributes{}
	}

	r := rls.ParseString(name)
	attrs := provider.Attributes{
		Resolution:    r.Resolution,
		MediaSource:   r.Source,
		VideoCodec:    first(r.Codec),
		AudioCodec:    first(r.Audio),
		AudioChannels: r.Channels,
		HDR:           strings.Join(r.HDR, " "),
		Edition:       strings.Join(append(append([]string{}, r.Edition...), r.Cut...), " "),
		ReleaseGroup:  r.Group,
	}

	if spacedSuffix(name, attrs.ReleaseGroup) {
		attrs.ReleaseGroup = ""
	}
	if attrs.ReleaseGroup == "" && hasStopToken(name) {
		if m := releaseGroupRe.FindStringSubmatch(leaf); m != nil && !isStopToken(m[1]) {
			attrs.ReleaseGroup = m[1]
		}
	}

	return attrs
}

// hasStopToken reports whether a name looks like a scene release.
func hasStopToken(name string) bool {
	for _, tok := range Tokenize(name) {
		if isStopToken(tok) {
			return true
		}
	}
	return false
}

// spacedSuffix reports whether word closes name after a spaced dash, as an
// episode title does in "Show - S01E01 - Pilot".
func spacedSuffix(name, word string) bool {
	if word == "" {
		return false
	}
	head, ok := strings.CutSuffix(strings.TrimSpace(name), word)
	if !ok {
		return false
	}
	head = strings.TrimRight(head, " ")
	return strings.HasSuffix(head, " -")
}

func first(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}
