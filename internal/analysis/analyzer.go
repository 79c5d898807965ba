package analysis

import "github.com/kalambet/persona/internal/lexicon"

// Profile is the full persona derived from one user's content.
type Profile struct {
	LexiconVersion string               `json:"lexicon_version"`
	PostCount      int                  `json:"post_count"`
	CommentCount   int                  `json:"comment_count"`
	Traits         TraitScores          `json:"traits"`
	Interests      InterestScores       `json:"interests"`
	Communication  CommunicationProfile `json:"communication"`
	Behavior       BehavioralProfile    `json:"behavior"`
}

// Analyze runs every scorer over posts and comments.
func Analyze(posts, comments []ContentItem, lex *lexicon.Lexicon) Profile {
	text := CombinedText(posts, comments)
	return Profile{
		LexiconVersion: lex.Version,
		PostCount:      len(posts),
		CommentCount:   len(comments),
		Traits:         ScoreTraits(text, lex),
		Interests:      ExtractInterests(text, lex),
		Communication:  AnalyzeCommunication(posts, comments, lex),
		Behavior:       ClassifyBehavior(posts, comments),
	}
}
