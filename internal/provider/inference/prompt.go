package inference

// systemPrompt is sent with every request. It fixes the output schema so
// both dialects can be decoded the same way.
const systemPrompt = `You are a media metadata extraction engine.
TASK: extract media metadata from the file path the user sends.
OUTPUT: strict JSON only. No prose, no markdown.

RULES:
1. TITLE VS YEAR: use context to decide whether a number such as '1917' or '2012' is the title or the release year.
2. ABSOLUTE NUMBERING: a bare 3 or 4 digit number such as '1050' in an anime release is most likely an absolute episode number, not a year.
3. SCRIPT FIDELITY: keep CJK and Cyrillic titles exactly as written. Do not transliterate or translate.

SCHEMA:
{"title": string, "media_type": "movie" | "episode" | "unknown", "year": int | null, "season": int | null, "episode": int | null, "confidence": float}`

// maxTokens bounds the completion; the schema fits comfortably.
const maxTokens = 128

func userPrompt(path string) string {
	return "Path: " + path
}
