// Package analysis turns collected posts and comments into a persona profile:
// trait confidences, interest rankings, communication metrics and behavioral
// labels. Everything here is a pure function of its inputs.
package analysis

import (
	"strings"
	"unicode/utf8"
)

// MinContentLength is the number of characters an item must exceed after
// trimming to be worth analyzing.
const MinContentLength = 10

// ContentItem is one post or comment body paired with its permalink.
type ContentItem struct {
	Text      string `json:"text"`
	SourceURL string `json:"source_url"`
}

// Length returns the item length in characters.
func (c ContentItem) Length() int {
	return utf8.RuneCountInString(c.Text)
}

// Acceptable reports whether text satisfies the ContentItem contract.
func Acceptable(text string) bool {
	return utf8.RuneCountInString(strings.TrimSpace(text)) > MinContentLength
}

// CombinedText joins all post and comment bodies with a single space and
// lowercases the result. Posts come first, each sequence in fetch order.
func CombinedText(posts, comments []ContentItem) string {
	var b strings.Builder
	first := true
	for _, seq := range [][]ContentItem{posts, comments} {
		for _, item := range seq {
			if !first {
				b.WriteByte(' ')
			}
			first = false
			b.WriteString(item.Text)
		}
	}
	return strings.ToLower(b.String())
}

// CountOccurrences counts non-overlapping occurrences of keyword in text.
// Both are expected to be lowercase already. Matches inside longer words
// count: "art" is found in "party".
func CountOccurrences(text, keyword string) int {
	if keyword == "" {
		return 0
	}
	return strings.Count(text, keyword)
}

// countAll sums CountOccurrences over keywords.
func countAll(text string, keywords []string) int {
	n := 0
	for _, kw := range keywords {
		n += CountOccurrences(text, kw)
	}
	return n
}

func totalLength(items []ContentItem) int {
	n := 0
	for _, it := range items {
		n += it.Length()
	}
	return n
}

func meanLength(items []ContentItem) float64 {
	if len(items) == 0 {
		return 0
	}
	return float64(totalLength(items)) / float64(len(items))
}
