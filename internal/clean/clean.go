// Package clean provides the text cleanup applied to quiz content before
// storage or export. It strips bracketed channel tags, URLs, and short
// links from question text, options, and explanations, and normalizes
// whitespace. Cleaning is idempotent: applying it twice yields the same
// result as applying it once.
package clean

import (
	"regexp"
	"strings"

	"github.com/dmehra/quizforge/internal/domain"
)

// Default cleanup configuration. The marker matches the channel signature
// tag the original content carries; the link tag matches the short-link
// host those signatures point at.
const (
	DefaultMarker  = "[TSS]"
	DefaultLinkTag = "t.me/"
)

// Precompiled regex patterns
var (
	// Bracketed tags such as [TSS] or [Channel Name]
	bracketTagRegex = regexp.MustCompile(`\[[^\]]+\]`)

	// URLs: scheme-prefixed and www-prefixed
	schemeURLRegex = regexp.MustCompile(`https?://\S+`)
	wwwURLRegex    = regexp.MustCompile(`www\.\S+`)

	// Repeated whitespace
	whitespaceRegex = regexp.MustCompile(`\s+`)
)

// Cleaner strips tags and links from text fields. The zero value is not
// usable; construct with New.
type Cleaner struct {
	marker       string
	linkTagRegex *regexp.Regexp
}

// New creates a Cleaner. marker is a literal tag removed even when it
// appears without brackets; linkTag is a short-link prefix (for example
// "t.me/") whose occurrences are removed together with the path that
// follows them. Empty arguments fall back to the defaults.
func New(marker, linkTag string) *Cleaner {
	if marker == "" {
		marker = DefaultMarker
	}
	if linkTag == "" {
		linkTag = DefaultLinkTag
	}

	return &Cleaner{
		marker:       marker,
		linkTagRegex: regexp.MustCompile(regexp.QuoteMeta(linkTag) + `\S*`),
	}
}

// Clean removes bracketed tags, URLs, and short links from text, collapses
// repeated whitespace to single spaces, and trims the result.
func (c *Cleaner) Clean(text string) string {
	if text == "" {
		return text
	}

	text = bracketTagRegex.ReplaceAllString(text, "")
	text = strings.ReplaceAll(text, c.marker, "")
	text = schemeURLRegex.ReplaceAllString(text, "")
	text = wwwURLRegex.ReplaceAllString(text, "")
	text = c.linkTagRegex.ReplaceAllString(text, "")
	text = whitespaceRegex.ReplaceAllString(text, " ")

	return strings.TrimSpace(text)
}

// CleanRecord applies Clean to the question, every option, and the
// explanation of a record. The correct index and type/section metadata
// pass through untouched.
func (c *Cleaner) CleanRecord(r domain.QuizRecord) domain.QuizRecord {
	cleaned := r
	cleaned.Question = c.Clean(r.Question)
	cleaned.Explanation = c.Clean(r.Explanation)

	cleaned.Options = make([]string, len(r.Options))
	for i, opt := range r.Options {
		cleaned.Options[i] = c.Clean(opt)
	}

	return cleaned
}

// CleanRecords applies CleanRecord to each record in order.
func (c *Cleaner) CleanRecords(records []domain.QuizRecord) []domain.QuizRecord {
	cleaned := make([]domain.QuizRecord, len(records))
	for i, r := range records {
		cleaned[i] = c.CleanRecord(r)
	}
	return cleaned
}
