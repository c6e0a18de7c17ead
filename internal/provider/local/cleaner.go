package local

import (
	"strings"
	"unicode"

	"github.com/Digital-Shane/shirarium/internal/provider"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// latinThreshold is the first code point left untouched by diacritic
// stripping. Everything below it is Latin-1 or Latin Extended.
const latinThreshold = 0x0300

// ExtractTitle turns the title region of a stem into a display title. Tokens
// are accumulated until the first technical marker; nothing after it is
// considered. An audio layout such as "5.1" is a marker too.
func ExtractTitle(titleStem string) string {
	var kept []string
	for _, tok := range titleTokens(cutAtChannels(titleStem)) {
		if isStopToken(tok) || (len(kept) > 0 && isLanguageToken(tok)) {
			break
		}
		kept = append(kept, tok)
	}
	if len(kept) == 0 {
		return provider.UnknownTitle
	}

	title := titleCase(strings.Join(kept, " "))
	title = StripDiacritics(title)
	return DropTrailingJunkSegment(title)
}

// cutAtChannels drops everything from the first channel layout on.
func cutAtChannels(s string) string {
	for _, sp := range standaloneNumbers(s, 0) {
		if looksLikeChannels(s, sp) {
			return s[:sp.start]
		}
	}
	return s
}

// titleTokens tokenizes s while keeping dotted acronyms whole.
func titleTokens(s string) []string {
	var tokens []string
	last := 0
	for _, loc := range dottedAcronymRe.FindAllStringIndex(s, -1) {
		tokens = append(tokens, Tokenize(s[last:loc[0]])...)
		acronym := s[loc[0]:loc[1]]
		if !strings.HasSuffix(acronym, ".") {
			acronym += "."
		}
		tokens = append(tokens, acronym)
		last = loc[1]
	}
	return append(tokens, Tokenize(s[last:])...)
}

// titleCase upper-cases the first letter of each word and leaves existing
// capitals alone, so acronyms and all-caps titles survive.
func titleCase(s string) string {
	return cases.Title(language.Und, cases.NoLower).String(s)
}

// StripDiacritics removes combining marks from Latin characters. Characters
// at or above U+0300, such as CJK or Cyrillic, pass through unchanged.
func StripDiacritics(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range norm.NFC.String(s) {
		if r >= latinThreshold {
			b.WriteRune(r)
			continue
		}
		for _, d := range norm.NFD.String(string(r)) {
			if !unicode.Is(unicode.Mn, d) {
				b.WriteRune(d)
			}
		}
	}
	return norm.NFC.String(b.String())
}

// DropTrailingJunkSegment removes a final " - " segment that only names a
// technical marker, as in "Title - 1080p".
func DropTrailingJunkSegment(title string) string {
	idx := strings.LastIndex(title, " - ")
	if idx <= 0 {
		return title
	}
	segment := strings.TrimSpace(title[idx+3:])
	if isJunkToken(segment) || qualityRe.MatchString(segment) {
		if head := strings.TrimSpace(title[:idx]); head != "" {
			return head
		}
	}
	return title
}

// CleanTitle tidies a title that did not come from the cascade, such as a
// backend answer: control characters are dropped, whitespace collapsed and
// a trailing technical segment removed.
func CleanTitle(title string) string {
	var b strings.Builder
	b.Grow(len(title))
	for _, r := range title {
		if unicode.IsControl(r) {
			b.WriteRune(' ')
			continue
		}
		b.WriteRune(r)
	}
	cleaned := strings.Join(strings.Fields(b.String()), " ")
	cleaned = strings.Trim(cleaned, "-_|: ")
	return DropTrailingJunkSegment(cleaned)
}
