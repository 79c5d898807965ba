package analysis

import (
	"strings"

	"github.com/kalambet/persona/internal/lexicon"
)

// Label used whenever a categorical metric has no input to work from.
const Unknown = "Unknown"

// Verbosity levels, by mean item length in characters.
const (
	VerbosityHighlyVerbose = "Highly Verbose" // > 500
	VerbosityVerbose       = "Verbose"        // > 200
	VerbosityModerate      = "Moderate"       // > 100
	VerbosityConcise       = "Concise"
)

// Engagement styles.
const (
	StyleDiscussionFocused   = "Discussion-focused"
	StyleContentCreator      = "Content Creator"
	StyleBalancedParticipant = "Balanced Participant"
)

// Sentiment tendencies.
const (
	SentimentPositive = "Generally Positive"
	SentimentCritical = "Generally Critical"
	SentimentBalanced = "Balanced"
	SentimentNeutral  = "Neutral"
)

// Formality levels.
const (
	FormalityHigh     = "High"
	FormalityModerate = "Moderate"
	FormalityLow      = "Low"
)

const (
	sentimentRatio = 1.5
	formalityRatio = 2.0
)

// CommunicationProfile describes how a user writes. The zero value is the
// empty profile produced when there is nothing to analyze.
type CommunicationProfile struct {
	AvgPostLength      float64 `json:"avg_post_length"`
	AvgCommentLength   float64 `json:"avg_comment_length"`
	TotalActivity      int     `json:"total_activity"`
	PostToCommentRatio float64 `json:"post_to_comment_ratio"`
	Verbosity          string  `json:"verbosity"`
	EngagementStyle    string  `json:"engagement_style"`
	SentimentTendency  string  `json:"sentiment_tendency"`
	Formality          string  `json:"formality"`
	QuestionFrequency  float64 `json:"question_frequency"`
	ExclamationUsage   float64 `json:"exclamation_usage"`
}

// Empty reports whether the profile was derived from no items.
func (p CommunicationProfile) Empty() bool {
	return p.TotalActivity == 0
}

// AnalyzeCommunication derives style metrics from posts and comments.
func AnalyzeCommunication(posts, comments []ContentItem, lex *lexicon.Lexicon) CommunicationProfile {
	total := len(posts) + len(comments)
	if total == 0 {
		return CommunicationProfile{}
	}

	all := make([]ContentItem, 0, total)
	all = append(all, posts...)
	all = append(all, comments...)
	text := CombinedText(posts, comments)

	return CommunicationProfile{
		AvgPostLength:      meanLength(posts),
		AvgCommentLength:   meanLength(comments),
		TotalActivity:      total,
		PostToCommentRatio: float64(len(posts)) / float64(max(len(comments), 1)),
		Verbosity:          Verbosity(all),
		EngagementStyle:    EngagementStyle(len(posts), len(comments)),
		SentimentTendency:  Sentiment(text, lex.PositiveWords, lex.NegativeWords),
		Formality:          Formality(text, lex.FormalMarkers, lex.InformalMarkers),
		QuestionFrequency:  perItem(all, '?'),
		ExclamationUsage:   perItem(all, '!'),
	}
}

// Verbosity buckets the mean length across all items.
func Verbosity(items []ContentItem) string {
	if len(items) == 0 {
		return Unknown
	}
	avg := meanLength(items)
	switch {
	case avg > 500:
		return VerbosityHighlyVerbose
	case avg > 200:
		return VerbosityVerbose
	case avg > 100:
		return VerbosityModerate
	default:
		return VerbosityConcise
	}
}

// EngagementStyle classifies the post/comment mix.
func EngagementStyle(posts, comments int) string {
	switch {
	case comments > posts*2:
		return StyleDiscussionFocused
	case posts > comments:
		return StyleContentCreator
	default:
		return StyleBalancedParticipant
	}
}

// Sentiment compares positive and negative word counts in text.
func Sentiment(text string, positive, negative []string) string {
	if text == "" {
		return SentimentNeutral
	}
	pos := float64(countAll(text, positive))
	neg := float64(countAll(text, negative))
	switch {
	case pos > neg*sentimentRatio:
		return SentimentPositive
	case neg > pos*sentimentRatio:
		return SentimentCritical
	default:
		return SentimentBalanced
	}
}

// Formality compares formal and informal marker counts in text.
func Formality(text string, formal, informal []string) string {
	if text == "" {
		return Unknown
	}
	f := float64(countAll(text, formal))
	inf := float64(countAll(text, informal))
	switch {
	case f > inf*formalityRatio:
		return FormalityHigh
	case inf > f*formalityRatio:
		return FormalityLow
	default:
		return FormalityModerate
	}
}

// perItem counts r across all items and divides by the item count.
func perItem(items []ContentItem, r rune) float64 {
	n := 0
	for _, it := range items {
		n += strings.Count(it.Text, string(r))
	}
	return float64(n) / float64(max(len(items), 1))
}
