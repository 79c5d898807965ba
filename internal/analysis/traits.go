package analysis

import (
	"math"
	"sort"

	"github.com/kalambet/persona/internal/lexicon"
)

// Trait is a detected personality trait with a confidence in [0,100].
type Trait struct {
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"`
}

// TraitScores lists detected traits by descending confidence. Traits that
// did not clear the evidence threshold are absent.
type TraitScores []Trait

// Get returns the confidence for name and whether it was detected.
func (ts TraitScores) Get(name string) (float64, bool) {
	for _, t := range ts {
		if t.Name == name {
			return t.Confidence, true
		}
	}
	return 0, false
}

// RawTraitScore returns the unthresholded weighted keyword score of one
// trait category over text.
func RawTraitScore(text string, c lexicon.Category) float64 {
	return float64(countAll(text, c.Keywords)) * c.EffectiveWeight()
}

// ScoreTraits scores every trait category of lex against the lowercased
// combined text.
func ScoreTraits(text string, lex *lexicon.Lexicon) TraitScores {
	tuning := lex.Tuning
	out := TraitScores{}
	for _, c := range lex.Traits {
		score := RawTraitScore(text, c)
		if score <= tuning.TraitThreshold {
			continue
		}
		out = append(out, Trait{
			Name:       c.Name,
			Confidence: math.Min(score*tuning.TraitScale, 100),
		})
	}
	// Stable sort keeps definition order among equal confidences.
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Confidence > out[j].Confidence
	})
	return out
}
