// Package report renders a persona profile as a human-readable text report.
package report

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/kalambet/persona/internal/analysis"
	"github.com/kalambet/persona/internal/lexicon"
)

const (
	// InterestDisplayCap is the number of interests shown in a report.
	InterestDisplayCap = 10
	// CitationLimit is the number of items cited per sequence.
	CitationLimit = 5
	// PreviewLength is the maximum citation preview length in characters.
	PreviewLength = 100
	// TimeLayout formats the generation timestamp.
	TimeLayout = "2006-01-02 15:04:05"

	barSegments  = 10
	starSegments = 5
	ruleWidth    = 80
)

var rule = strings.Repeat("=", ruleWidth)

// Input is everything a report is built from.
type Input struct {
	Username    string
	Profile     analysis.Profile
	Posts       []analysis.ContentItem
	Comments    []analysis.ContentItem
	GeneratedAt time.Time
}

// Analyze profiles posts and comments with lex and renders the report.
func Analyze(username string, posts, comments []analysis.ContentItem, lex *lexicon.Lexicon, at time.Time) string {
	return Render(Input{
		Username:    username,
		Profile:     analysis.Analyze(posts, comments, lex),
		Posts:       posts,
		Comments:    comments,
		GeneratedAt: at,
	})
}

// Render builds the report text. Apart from the GENERATED line the output
// depends only on in.Username, in.Profile, in.Posts and in.Comments.
func Render(in Input) string {
	var b strings.Builder
	p := in.Profile

	b.WriteString("\n" + rule + "\n")
	b.WriteString("🧠 REDDIT PERSONA ANALYSIS REPORT\n")
	b.WriteString(rule + "\n\n")
	fmt.Fprintf(&b, "👤 USER: u/%s\n", in.Username)
	fmt.Fprintf(&b, "🔍 ANALYSIS ENGINE: Rule-based Multi-Algorithm Analysis (lexicon %s)\n", lexiconVersion(p))
	fmt.Fprintf(&b, "📊 DATA POINTS: %d posts, %d comments\n", len(in.Posts), len(in.Comments))
	fmt.Fprintf(&b, "🕒 GENERATED: %s\n", in.GeneratedAt.Format(TimeLayout))

	section(&b, "🎯 PERSONALITY TRAITS", FormatTraits(p.Traits))
	section(&b, "🔍 INTERESTS & COMMUNITIES", FormatInterests(p.Interests))
	section(&b, "💬 COMMUNICATION STYLE", FormatCommunication(p.Communication))
	section(&b, "🎭 BEHAVIORAL PATTERNS", FormatBehavior(p.Behavior))
	section(&b, "📈 QUICK INSIGHTS", FormatInsights(p))
	section(&b, "📚 CITATIONS", FormatCitations(in.Posts, in.Comments))
	section(&b, "🛡️ PRIVACY & SECURITY", privacyNotice)

	b.WriteString("\n" + rule + "\n")
	return b.String()
}

const privacyNotice = `✅ All data analyzed locally - no external AI APIs used
✅ No personal information stored beyond the saved report
✅ Analysis based only on public Reddit activity
✅ Results generated with deterministic keyword rules`

func section(b *strings.Builder, title, body string) {
	b.WriteString("\n" + rule + "\n")
	b.WriteString(title + "\n")
	b.WriteString(rule + "\n\n")
	b.WriteString(body + "\n")
}

func lexiconVersion(p analysis.Profile) string {
	if p.LexiconVersion == "" {
		return analysis.Unknown
	}
	return p.LexiconVersion
}

// FormatTraits renders one bar per trait, highest confidence first.
func FormatTraits(traits analysis.TraitScores) string {
	if len(traits) == 0 {
		return "• No significant personality traits detected from available data"
	}
	lines := make([]string, 0, len(traits))
	for _, t := range traits {
		lines = append(lines, fmt.Sprintf("• %-15s [%s] %.1f%%", t.Name, Bar(t.Confidence), t.Confidence))
	}
	return strings.Join(lines, "\n")
}

// Bar renders a confidence in [0,100] as ten segments.
func Bar(confidence float64) string {
	filled := clamp(int(confidence/10), 0, barSegments)
	return strings.Repeat("█", filled) + strings.Repeat("▒", barSegments-filled)
}

// FormatInterests renders the top interests with stars relative to the
// highest score.
func FormatInterests(interests analysis.InterestScores) string {
	if len(interests) == 0 {
		return "• No specific interests detected from available data"
	}
	maxScore := 0
	for _, in := range interests {
		maxScore = max(maxScore, in.Score)
	}
	maxScore = max(maxScore, 1)

	shown := interests
	if len(shown) > InterestDisplayCap {
		shown = shown[:InterestDisplayCap]
	}
	lines := make([]string, 0, len(shown))
	for _, in := range shown {
		lines = append(lines, fmt.Sprintf("• %-20s %s (Score: %d)", in.Label, Stars(in.Score, maxScore), in.Score))
	}
	return strings.Join(lines, "\n")
}

// Stars renders score relative to maxScore as five stars.
func Stars(score, maxScore int) string {
	if maxScore <= 0 {
		maxScore = 1
	}
	filled := clamp(int(float64(score)/float64(maxScore)*starSegments), 0, starSegments)
	return strings.Repeat("★", filled) + strings.Repeat("☆", starSegments-filled)
}

// FormatCommunication renders the communication metrics in fixed order.
func FormatCommunication(c analysis.CommunicationProfile) string {
	if c.Empty() {
		return "• No communication data available"
	}
	return strings.Join([]string{
		fmt.Sprintf("• Average Post Length: %.0f characters", c.AvgPostLength),
		fmt.Sprintf("• Average Comment Length: %.0f characters", c.AvgCommentLength),
		fmt.Sprintf("• Total Activity: %d interactions", c.TotalActivity),
		fmt.Sprintf("• Post-to-Comment Ratio: %.2f", c.PostToCommentRatio),
		fmt.Sprintf("• Verbosity Level: %s", orUnknown(c.Verbosity)),
		fmt.Sprintf("• Engagement Style: %s", orUnknown(c.EngagementStyle)),
		fmt.Sprintf("• Sentiment Tendency: %s", orUnknown(c.SentimentTendency)),
		fmt.Sprintf("• Formality: %s", orUnknown(c.Formality)),
		fmt.Sprintf("• Questions per Item: %.2f", c.QuestionFrequency),
		fmt.Sprintf("• Exclamations per Item: %.2f", c.ExclamationUsage),
	}, "\n")
}

// FormatBehavior renders the behavioral labels in fixed order.
func FormatBehavior(b analysis.BehavioralProfile) string {
	if b.Empty() {
		return "• No behavioral data available"
	}
	return strings.Join([]string{
		"• Engagement Level: " + orUnknown(b.EngagementLevel),
		"• Content Preference: " + orUnknown(b.ContentPreference),
		"• Discussion Style: " + orUnknown(b.DiscussionStyle),
		"• Activity Level: " + orUnknown(b.ActivityLevel),
		"• Interaction Pattern: " + orUnknown(b.InteractionPattern),
	}, "\n")
}

// FormatInsights summarizes the strongest signals of the profile.
func FormatInsights(p analysis.Profile) string {
	total := p.Communication.TotalActivity
	if total == 0 && len(p.Traits) == 0 && len(p.Interests) == 0 {
		return "• No insights available - no activity data detected"
	}

	var lines []string
	if len(p.Traits) > 0 {
		top := p.Traits[0]
		lines = append(lines, fmt.Sprintf("• Primary personality trait: %s (%.1f%% confidence)", top.Name, top.Confidence))
	}
	switch {
	case total > 50:
		lines = append(lines, fmt.Sprintf("• High activity user with %d total interactions", total))
	case total > 20:
		lines = append(lines, fmt.Sprintf("• Moderate activity user with %d total interactions", total))
	default:
		lines = append(lines, fmt.Sprintf("• Low activity user with %d total interactions", total))
	}
	if v := p.Communication.Verbosity; v != "" && v != analysis.Unknown {
		lines = append(lines, "• Communication style: "+v)
	}
	if len(p.Interests) > 0 {
		lines = append(lines, "• Primary interest area: "+p.Interests[0].Label)
	}
	if e := p.Behavior.EngagementLevel; e != "" && !p.Behavior.Empty() {
		lines = append(lines, "• User engagement level: "+e)
	}
	return strings.Join(lines, "\n")
}

// FormatCitations lists the first few posts and comments with their links.
func FormatCitations(posts, comments []analysis.ContentItem) string {
	return citationBlock("Posts", "posts", posts) + "\n\n" + citationBlock("Comments", "comments", comments)
}

func citationBlock(title, noun string, items []analysis.ContentItem) string {
	if len(items) == 0 {
		return fmt.Sprintf("%s:\n• No %s collected", title, noun)
	}
	lines := []string{fmt.Sprintf("%s (%d):", title, len(items))}
	for i, it := range items {
		if i == CitationLimit {
			break
		}
		lines = append(lines,
			fmt.Sprintf("  [%d] %s", i+1, Preview(it.Text)),
			"      "+it.SourceURL,
		)
	}
	if extra := len(items) - CitationLimit; extra > 0 {
		lines = append(lines, fmt.Sprintf("  ... +%d more %s", extra, noun))
	}
	return strings.Join(lines, "\n")
}

// Preview collapses whitespace and truncates text to PreviewLength
// characters, appending "..." when anything was cut.
func Preview(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	if utf8.RuneCountInString(text) <= PreviewLength {
		return text
	}
	runes := []rune(text)
	return string(runes[:PreviewLength]) + "..."
}

func orUnknown(s string) string {
	if s == "" {
		return analysis.Unknown
	}
	return s
}

func clamp(v, lo, hi int) int {
	return min(max(v, lo), hi)
}
