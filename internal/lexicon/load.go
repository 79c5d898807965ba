package lexicon

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// fileFormat mirrors the YAML layout accepted by Load.
//
//	version: v1-custom
//	traits:
//	  - name: Analytical
//	    weight: 1.2
//	    keywords: [analysis, data, research]
//	topics:
//	  - name: Gaming
//	    keywords: [game, gaming]
//	sentiment:
//	  positive: [good, great]
//	  negative: [bad, awful]
//	formality:
//	  formal: [therefore]
//	  informal: [lol]
//	tuning:
//	  trait_threshold: 2
//	  trait_scale: 8
type fileFormat struct {
	Version string         `yaml:"version"`
	Traits  []fileCategory `yaml:"traits"`
	Topics  []fileCategory `yaml:"topics"`

	Sentiment struct {
		Positive []string `yaml:"positive"`
		Negative []string `yaml:"negative"`
	} `yaml:"sentiment"`

	Formality struct {
		Formal   []string `yaml:"formal"`
		Informal []string `yaml:"informal"`
	} `yaml:"formality"`

	Tuning struct {
		TraitThreshold  *float64 `yaml:"trait_threshold"`
		TraitScale      *float64 `yaml:"trait_scale"`
		TopicThreshold  *int     `yaml:"topic_threshold"`
		TopicMultiplier *int     `yaml:"topic_multiplier"`
		CommunityWeight *int     `yaml:"community_weight"`
		InterestCap     *int     `yaml:"interest_cap"`
	} `yaml:"tuning"`
}

type fileCategory struct {
	Name     string   `yaml:"name"`
	Weight   float64  `yaml:"weight,omitempty"`
	Keywords []string `yaml:"keywords"`
}

// Load reads a YAML lexicon file. Sections missing from the file are taken
// from the built-in table, so a file may override only the topics, say.
func Load(path string) (*Lexicon, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading lexicon: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML lexicon data. See Load.
func Parse(data []byte) (*Lexicon, error) {
	var f fileFormat
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing lexicon: %w", err)
	}

	lex := Default()
	if f.Version != "" {
		lex.Version = f.Version
	}
	if len(f.Traits) > 0 {
		lex.Traits = toCategories(f.Traits)
	}
	if len(f.Topics) > 0 {
		lex.Topics = toCategories(f.Topics)
	}
	if len(f.Sentiment.Positive) > 0 {
		lex.PositiveWords = normalizeKeywords(f.Sentiment.Positive)
	}
	if len(f.Sentiment.Negative) > 0 {
		lex.NegativeWords = normalizeKeywords(f.Sentiment.Negative)
	}
	if len(f.Formality.Formal) > 0 {
		lex.FormalMarkers = normalizeKeywords(f.Formality.Formal)
	}
	if len(f.Formality.Informal) > 0 {
		lex.InformalMarkers = normalizeKeywords(f.Formality.Informal)
	}

	t := f.Tuning
	if t.TraitThreshold != nil {
		lex.Tuning.TraitThreshold = *t.TraitThreshold
	}
	if t.TraitScale != nil {
		lex.Tuning.TraitScale = *t.TraitScale
	}
	if t.TopicThreshold != nil {
		lex.Tuning.TopicThreshold = *t.TopicThreshold
	}
	if t.TopicMultiplier != nil {
		lex.Tuning.TopicMultiplier = *t.TopicMultiplier
	}
	if t.CommunityWeight != nil {
		lex.Tuning.CommunityWeight = *t.CommunityWeight
	}
	if t.InterestCap != nil {
		lex.Tuning.InterestCap = *t.InterestCap
	}

	if err := lex.Validate(); err != nil {
		return nil, fmt.Errorf("invalid lexicon: %w", err)
	}
	return lex, nil
}

func toCategories(in []fileCategory) []Category {
	out := make([]Category, len(in))
	for i, c := range in {
		out[i] = Category{
			Name:     c.Name,
			Keywords: normalizeKeywords(c.Keywords),
			Weight:   c.Weight,
		}
	}
	return out
}

// Marshal encodes l in the format Load reads.
func Marshal(l *Lexicon) ([]byte, error) {
	var f fileFormat
	f.Version = l.Version
	f.Traits = fromCategories(l.Traits)
	f.Topics = fromCategories(l.Topics)
	f.Sentiment.Positive = l.PositiveWords
	f.Sentiment.Negative = l.NegativeWords
	f.Formality.Formal = l.FormalMarkers
	f.Formality.Informal = l.InformalMarkers

	t := l.Tuning
	f.Tuning.TraitThreshold = &t.TraitThreshold
	f.Tuning.TraitScale = &t.TraitScale
	f.Tuning.TopicThreshold = &t.TopicThreshold
	f.Tuning.TopicMultiplier = &t.TopicMultiplier
	f.Tuning.CommunityWeight = &t.CommunityWeight
	f.Tuning.InterestCap = &t.InterestCap

	data, err := yaml.Marshal(&f)
	if err != nil {
		return nil, fmt.Errorf("encoding lexicon: %w", err)
	}
	return data, nil
}

func fromCategories(in []Category) []fileCategory {
	out := make([]fileCategory, len(in))
	for i, c := range in {
		out[i] = fileCategory{Name: c.Name, Weight: c.Weight, Keywords: c.Keywords}
	}
	return out
}
