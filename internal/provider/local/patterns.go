package local

import (
	"regexp"
	"strings"
)

// Pattern compilation for media path parsing. All tables are read-only after
// package initialization and shared by every classification.
var (
	// Token delimiters: . - _ ( ) [ ] and whitespace
	tokenSplitRe = regexp.MustCompile(`[.\-_()\[\]\s]+`)

	// Noise patterns
	checksumRe   = regexp.MustCompile(`\[[0-9a-fA-F]{8}\]`)
	leadingTagRe = regexp.MustCompile(`^[\[\({]([^}\)\]]+)[\]\)}]\s*`)

	// Explicit season/episode: S01E02, s1.e2, S01E01E02, 1x02
	explicitEpisodeRe = regexp.MustCompile(`(?:^|[\W_])(?:[sS](\d{1,2})[\W_]?[eE](\d{1,4})|(\d{1,2})[xX](\d{1,4}))(?:[\W_]?[eE]\d{1,4})?(?:$|[\W_])`)

	// Season without an episode marker: S2, Season 02, season_3
	bareSeasonRe = regexp.MustCompile(`(?i)(?:^|[\W_])(?:s|season[\s._-]*)(\d{1,2})(?:$|[\W_])`)

	// Parenthesized or bracketed year: (2005), [1999]
	parenYearRe = regexp.MustCompile(`[\(\[]((?:19|20)\d{2})[\)\]]`)

	// Digit runs, filtered by boundary checks in standaloneNumbers
	digitRunRe = regexp.MustCompile(`\d+`)

	// Dotted acronyms kept as a single title token: S.H.I.E.L.D, U.S.A.
	dottedAcronymRe = regexp.MustCompile(`\b(?:[A-Za-z]\.){2,}[A-Za-z]?\b`)

	// Token shapes that end a title
	versionTagRe = regexp.MustCompile(`^[vV]\d+$`)
	resolutionRe = regexp.MustCompile(`^\d{3,4}[pPiI]$`)

	// Quality markers checked against a trailing " - " title segment
	qualityRe = regexp.MustCompile(`(?i)(1080p|720p|2160p|4k|bluray|web-?dl|brrip|webrip|hdtv|divx|xvid|dvdr|dvdrip)`)

	// Release group suffix: x264-GROUP at the end of a name. A spaced
	// " - Pilot" is an episode title, not a group.
	releaseGroupRe = regexp.MustCompile(`[^\s-]-([a-zA-Z0-9]+)(?:$|\.[a-zA-Z0-9]{2,4}$)`)

	// File type patterns
	videoRe    = regexp.MustCompile(`(?i)\.(mp4|mkv|avi|mov|wmv|flv|webm|mpeg|mpg|m4v|3gp|vob|ts|mts|m2ts|rmvb|divx|iso|ogm)$`)
	subtitleRe = regexp.MustCompile(`(?i)\.(srt|sub|idx|ass|ssa|smi|vtt|sbv|sami|usf|stl|dks|pjs|jss|psb|rt|scc|cap|sup|dfxp|ttml)$`)
	nfoRe      = regexp.MustCompile(`(?i)\.nfo$`)
	imageRe    = regexp.MustCompile(`(?i)\.(jpg|jpeg|png|gif|bmp|webp|tiff?|ico|svg)$`)

	// Language pattern for subtitles
	langPattern = regexp.MustCompile(`(\.[a-zA-Z]{2,3}(?:[-_][a-zA-Z]{2,4})?)$`)

	// Drive letters in Windows paths: C:
	driveLetterRe = regexp.MustCompile(`^[A-Za-z]:$`)
)

// junkTokens are lower-cased technical markers that end a title.
var junkTokens = map[string]struct{}{
	"1080p": {}, "720p": {}, "2160p": {}, "4k": {}, "2k": {}, "uhd": {},
	"bluray": {}, "brrip": {}, "bdrip": {}, "webrip": {}, "webdl": {}, "web": {},
	"dvdrip": {}, "dvdr": {}, "hdrip": {}, "hdtv": {}, "remux": {},
	"x264": {}, "x265": {}, "h264": {}, "h265": {}, "hevc": {}, "avc": {}, "av1": {},
	"xvid": {}, "divx": {}, "10bit": {}, "8bit": {},
	"aac": {}, "ac3": {}, "eac3": {}, "ddp": {}, "dts": {}, "dts-hd": {}, "truehd": {},
	"atmos": {}, "flac": {}, "opus": {},
	"hdr": {}, "hdr10": {}, "sdr": {}, "dovi": {}, "dv": {},
	"proper": {}, "repack": {}, "internal": {}, "limited": {}, "unrated": {},
	"extended": {}, "directors": {},
	"dual": {}, "audio": {}, "multi": {},
	"nf": {}, "amzn": {}, "dnp": {}, "dsnp": {}, "hmax": {}, "hulu": {},
	"jpn": {},
	"v2": {}, "v3": {}, "v4": {},
	"complete": {}, "pack": {},
}

// languageTokens end a title only after it has begun: "En Attendant" is a
// title, "Movie EN 1080p" is a language marker.
var languageTokens = map[string]struct{}{
	"en": {}, "fr": {},
}

// codecTokens end a title even when they are not in the junk set.
var codecTokens = map[string]struct{}{
	"x264": {}, "x265": {}, "h264": {}, "h265": {}, "hevc": {}, "avc": {}, "av1": {}, "vp9": {},
}

// contextKeywords corroborate a bare number as an absolute episode.
var contextKeywords = map[string]struct{}{
	"season": {}, "ep": {}, "subs": {}, "raws": {},
}

// numberingWords introduce an absolute episode number, as in "Naruto ep 120".
// They belong to the numbering, not the title.
var numberingWords = map[string]struct{}{
	"ep": {}, "episode": {},
}

// placeholderStems are leaf names that carry no title information.
var placeholderStems = map[string]struct{}{
	"movie": {}, "video": {}, "content": {},
}

// libraryRoots are folder names that organize a library rather than name a title.
var libraryRoots = map[string]struct{}{
	"movies": {}, "tv": {}, "media": {}, "organized": {}, "incoming": {}, "downloads": {},
}

// IsVideo checks if the filename has a video extension
func IsVideo(filename string) bool {
	return videoRe.MatchString(filename)
}

// IsSubtitle checks if the filename has a subtitle extension
func IsSubtitle(filename string) bool {
	return subtitleRe.MatchString(filename)
}

// IsNFO checks if the filename has an NFO extension
func IsNFO(filename string) bool {
	return nfoRe.MatchString(filename)
}

// IsImage checks if the filename has an image extension
func IsImage(filename string) bool {
	return imageRe.MatchString(filename)
}

// ExtractExtension returns the known media extension of a name, including a
// subtitle language code. Unknown extensions are left in place because
// folder names such as "Mr. Robot" contain dots too.
func ExtractExtension(filename string) string {
	switch {
	case IsSubtitle(filename):
		return extractSubtitleSuffix(filename)
	case IsVideo(filename), IsNFO(filename), IsImage(filename):
		return filename[strings.LastIndex(filename, "."):]
	}
	return ""
}

// extractSubtitleSuffix extracts subtitle suffix including language codes
func extractSubtitleSuffix(filename string) string {
	subtitleMatch := subtitleRe.FindStringIndex(filename)
	if len(subtitleMatch) == 0 {
		return ""
	}

	beforeExt := filename[:subtitleMatch[0]]
	langMatch := langPattern.FindString(beforeExt)

	return langMatch + filename[subtitleMatch[0]:]
}

// isJunkToken reports whether a token is a technical marker.
func isJunkToken(token string) bool {
	_, ok := junkTokens[strings.ToLower(token)]
	return ok
}

// isStopToken reports whether title accumulation must end at this token.
func isStopToken(token string) bool {
	lower := strings.ToLower(token)
	if _, ok := junkTokens[lower]; ok {
		return true
	}
	if _, ok := codecTokens[lower]; ok {
		return true
	}
	return versionTagRe.MatchString(token) || resolutionRe.MatchString(token)
}

// isLanguageToken reports whether a token is a two-letter language marker.
func isLanguageToken(token string) bool {
	_, ok := languageTokens[strings.ToLower(token)]
	return ok
}
