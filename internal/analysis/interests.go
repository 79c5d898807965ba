package analysis

import (
	"regexp"
	"sort"

	"github.com/kalambet/persona/internal/lexicon"
)

// communityPattern matches subreddit mentions such as r/golang.
var communityPattern = regexp.MustCompile(`r/(\w+)`)

// Interest is a topic or community label with its relevance score.
type Interest struct {
	Label string `json:"label"`
	Score int    `json:"score"`
}

// InterestScores lists interests by non-increasing score.
type InterestScores []Interest

// Get returns the score for label and whether it is present.
func (is InterestScores) Get(label string) (int, bool) {
	for _, i := range is {
		if i.Label == label {
			return i.Score, true
		}
	}
	return 0, false
}

// Communities returns the r/<name> entries only, preserving order.
func (is InterestScores) Communities() InterestScores {
	var out InterestScores
	for _, i := range is {
		if len(i.Label) > 2 && i.Label[:2] == "r/" {
			out = append(out, i)
		}
	}
	return out
}

// ExtractInterests scores community mentions and topic keywords over the
// lowercased combined text. Ties keep insertion order: communities in order
// of first mention, then topics in lexicon order.
func ExtractInterests(text string, lex *lexicon.Lexicon) InterestScores {
	tuning := lex.Tuning
	scores := make(map[string]int)
	var order []string
	add := func(label string, n int) {
		if _, ok := scores[label]; !ok {
			order = append(order, label)
		}
		scores[label] += n
	}

	for _, m := range communityPattern.FindAllStringSubmatch(text, -1) {
		add("r/"+m[1], tuning.CommunityWeight)
	}

	for _, c := range lex.Topics {
		hits := countAll(text, c.Keywords)
		if hits > tuning.TopicThreshold {
			add(c.Name, hits*tuning.TopicMultiplier)
		}
	}

	out := make(InterestScores, 0, len(order))
	for _, label := range order {
		out = append(out, Interest{Label: label, Score: scores[label]})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	if len(out) > tuning.InterestCap {
		out = out[:tuning.InterestCap]
	}
	return out
}
