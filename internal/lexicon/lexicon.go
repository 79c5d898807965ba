// Package lexicon holds the keyword tables that drive persona scoring.
//
// A Lexicon is the only place detection sensitivity is tuned: changing which
// words count toward a trait or topic, their weights, or the evidence
// thresholds means editing a table, never the scoring code. Values returned by
// Default and Load are not shared with any other caller and are treated as
// read-only once constructed.
package lexicon

import (
	"errors"
	"fmt"
	"strings"
)

// Category is a named keyword set with an optional weight factor.
type Category struct {
	Name     string
	Keywords []string
	Weight   float64 // 0 means 1.0
}

// EffectiveWeight returns the category weight, defaulting to 1.0.
func (c Category) EffectiveWeight() float64 {
	if c.Weight == 0 {
		return 1.0
	}
	return c.Weight
}

// Tuning groups the fixed thresholds and multipliers applied by the scorers.
type Tuning struct {
	// TraitThreshold is the minimum weighted score a trait must exceed.
	TraitThreshold float64
	// TraitScale converts a weighted score into a confidence percentage.
	TraitScale float64
	// TopicThreshold is the minimum keyword hit count a topic must exceed.
	TopicThreshold int
	// TopicMultiplier scales the topic hit count into a relevance score.
	TopicMultiplier int
	// CommunityWeight is added per r/<name> mention.
	CommunityWeight int
	// InterestCap truncates the extracted interest list.
	InterestCap int
}

// Lexicon is a versioned set of keyword tables.
type Lexicon struct {
	Version string

	Traits []Category
	Topics []Category

	PositiveWords   []string
	NegativeWords   []string
	FormalMarkers   []string
	InformalMarkers []string

	Tuning Tuning
}

// Validate reports whether the lexicon can be used for scoring.
func (l *Lexicon) Validate() error {
	if l.Version == "" {
		return errors.New("lexicon version is required")
	}
	if err := validateCategories("trait", l.Traits); err != nil {
		return err
	}
	if err := validateCategories("topic", l.Topics); err != nil {
		return err
	}
	t := l.Tuning
	if t.TraitScale <= 0 {
		return fmt.Errorf("trait scale must be positive, got %v", t.TraitScale)
	}
	if t.TopicMultiplier <= 0 {
		return fmt.Errorf("topic multiplier must be positive, got %d", t.TopicMultiplier)
	}
	if t.CommunityWeight <= 0 {
		return fmt.Errorf("community weight must be positive, got %d", t.CommunityWeight)
	}
	if t.InterestCap <= 0 {
		return fmt.Errorf("interest cap must be positive, got %d", t.InterestCap)
	}
	return nil
}

func validateCategories(kind string, cats []Category) error {
	if len(cats) == 0 {
		return fmt.Errorf("at least one %s category is required", kind)
	}
	seen := make(map[string]bool, len(cats))
	for _, c := range cats {
		if strings.TrimSpace(c.Name) == "" {
			return fmt.Errorf("%s category with empty name", kind)
		}
		if seen[c.Name] {
			return fmt.Errorf("duplicate %s category %q", kind, c.Name)
		}
		seen[c.Name] = true
		if c.Weight < 0 {
			return fmt.Errorf("%s %q: weight must not be negative", kind, c.Name)
		}
		if len(c.Keywords) == 0 {
			return fmt.Errorf("%s %q: no keywords", kind, c.Name)
		}
		for _, kw := range c.Keywords {
			if kw == "" {
				return fmt.Errorf("%s %q: empty keyword", kind, c.Name)
			}
		}
	}
	return nil
}

// TraitNames returns trait names in definition order.
func (l *Lexicon) TraitNames() []string {
	return names(l.Traits)
}

// TopicNames returns topic names in definition order.
func (l *Lexicon) TopicNames() []string {
	return names(l.Topics)
}

func names(cats []Category) []string {
	out := make([]string, len(cats))
	for i, c := range cats {
		out[i] = c.Name
	}
	return out
}

func (l *Lexicon) clone() *Lexicon {
	cp := *l
	cp.Traits = cloneCategories(l.Traits)
	cp.Topics = cloneCategories(l.Topics)
	cp.PositiveWords = cloneStrings(l.PositiveWords)
	cp.NegativeWords = cloneStrings(l.NegativeWords)
	cp.FormalMarkers = cloneStrings(l.FormalMarkers)
	cp.InformalMarkers = cloneStrings(l.InformalMarkers)
	return &cp
}

func cloneCategories(in []Category) []Category {
	if in == nil {
		return nil
	}
	out := make([]Category, len(in))
	for i, c := range in {
		out[i] = Category{Name: c.Name, Keywords: cloneStrings(c.Keywords), Weight: c.Weight}
	}
	return out
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

// normalizeKeywords lowercases, trims and de-duplicates keywords while
// preserving their first-seen order.
func normalizeKeywords(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, kw := range in {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" || seen[kw] {
			continue
		}
		seen[kw] = true
		out = append(out, kw)
	}
	return out
}
