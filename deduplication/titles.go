package deduplication

import (
	"regexp"
	"strings"

	"qacurator/types"
)

// NoTitle is embedded for candidates that have neither title nor body.
const NoTitle = "no title"

// maxFallbackTitleRunes caps a title taken from the question body.
const maxFallbackTitleRunes = 100

var (
	tagRe         = regexp.MustCompile(`<[^>]+>`)
	punctRunRe    = regexp.MustCompile(`[!?]{2,}`)
	whitespaceRe  = regexp.MustCompile(`\s+`)
	lowInfoPrefix = []*regexp.Regexp{
		regexp.MustCompile(`(?i)^(how to|how do i|how can i|help with|question about)\s*`),
		regexp.MustCompile(`(?i)^(excel|vba|spreadsheet):\s*`),
		regexp.MustCompile(`^\[.*?\]\s*`),
	}
)

// ExtractTitle returns the text that represents a candidate in embedding
// space: the question title, else the first sentence of the body.
func ExtractTitle(c types.Candidate) string {
	if c.Question == nil {
		return ""
	}
	if t := strings.TrimSpace(c.Question.Title); t != "" {
		return t
	}
	body := strings.TrimSpace(c.Question.Body)
	if body == "" {
		return ""
	}
	first, _, _ := strings.Cut(body, ".")
	return truncateRunes(first, maxFallbackTitleRunes)
}

// NormalizeTitle strips markup and low-information prefixes. It never
// returns an empty string.
func NormalizeTitle(title string) string {
	if strings.TrimSpace(title) == "" {
		return NoTitle
	}
	title = tagRe.ReplaceAllString(title, " ")
	title = punctRunRe.ReplaceAllString(title, "!")
	title = strings.TrimSpace(whitespaceRe.ReplaceAllString(title, " "))
	for _, re := range lowInfoPrefix {
		title = re.ReplaceAllString(title, "")
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return NoTitle
	}
	return title
}

// EmbeddingTexts extracts and normalizes one text per candidate.
func EmbeddingTexts(candidates []types.Candidate) []string {
	out := make([]string, len(candidates))
	for i, c := range candidates {
		out[i] = NormalizeTitle(ExtractTitle(c))
	}
	return out
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
