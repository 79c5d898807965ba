package lexicon

// DefaultVersion identifies the built-in table.
const DefaultVersion = "v1"

var builtin = Lexicon{
	Version: DefaultVersion,
	Traits: []Category{
		{
			Name:     "Analytical",
			Keywords: []string{"analysis", "data", "research", "study", "evidence", "statistics", "logic", "rational", "objective", "fact"},
			Weight:   1.2,
		},
		{
			Name:     "Creative",
			Keywords: []string{"art", "music", "design", "creative", "imagine", "beautiful", "inspiration", "original", "artistic", "aesthetic"},
			Weight:   1.1,
		},
		{
			Name:     "Social",
			Keywords: []string{"friends", "people", "social", "community", "together", "group", "team", "collaborate", "meet", "party"},
			Weight:   1.0,
		},
		{
			Name:     "Technical",
			Keywords: []string{"code", "programming", "software", "tech", "computer", "algorithm", "development", "system", "api", "database"},
			Weight:   1.3,
		},
		{
			Name:     "Intellectual",
			Keywords: []string{"learn", "knowledge", "understand", "think", "philosophy", "science", "education", "academic", "theory", "concept"},
			Weight:   1.1,
		},
		{
			Name:     "Humorous",
			Keywords: []string{"funny", "hilarious", "joke", "lol", "humor", "comedy", "laugh", "amusing", "witty", "sarcastic"},
			Weight:   0.9,
		},
		{
			Name:     "Helpful",
			Keywords: []string{"help", "advice", "suggest", "recommend", "support", "assist", "guide", "solution", "answer", "explain"},
			Weight:   1.0,
		},
	},
	Topics: []Category{
		{Name: "Gaming", Keywords: []string{"game", "gaming", "play", "player", "steam", "console", "pc", "xbox", "playstation", "nintendo"}},
		{Name: "Technology", Keywords: []string{"tech", "software", "app", "device", "digital", "internet", "mobile", "computer", "ai", "ml"}},
		{Name: "Sports", Keywords: []string{"sport", "team", "player", "game", "season", "match", "football", "basketball", "soccer", "baseball"}},
		{Name: "Entertainment", Keywords: []string{"movie", "show", "tv", "film", "series", "watch", "netflix", "youtube", "music", "band"}},
		{Name: "Finance", Keywords: []string{"money", "invest", "stock", "crypto", "bitcoin", "finance", "trading", "market", "economy", "bank"}},
		{Name: "Health & Fitness", Keywords: []string{"health", "fitness", "exercise", "diet", "medical", "doctor", "workout", "gym", "nutrition", "wellness"}},
		{Name: "Education", Keywords: []string{"learn", "study", "school", "university", "education", "course", "student", "teacher", "academic", "knowledge"}},
		{Name: "Travel", Keywords: []string{"travel", "trip", "vacation", "country", "city", "hotel", "flight", "tourism", "visit", "explore"}},
		{Name: "Food", Keywords: []string{"food", "cook", "recipe", "restaurant", "eat", "meal", "cuisine", "chef", "kitchen", "dish"}},
		{Name: "Art & Design", Keywords: []string{"art", "design", "draw", "paint", "creative", "artist", "gallery", "photography", "graphic", "visual"}},
	},
	PositiveWords: []string{"good", "great", "awesome", "amazing", "excellent", "fantastic", "wonderful", "perfect", "love", "like"},
	NegativeWords: []string{"bad", "terrible", "awful", "hate", "horrible", "worst", "stupid", "annoying", "frustrating", "disappointed"},
	FormalMarkers: []string{"therefore", "however", "furthermore", "moreover", "consequently", "regarding", "nevertheless", "additionally", "thus", "hence"},
	InformalMarkers: []string{"lol", "gonna", "wanna", "yeah", "dude", "omg", "btw", "tbh", "kinda", "lmao"},
	Tuning: Tuning{
		TraitThreshold:  2,
		TraitScale:      8,
		TopicThreshold:  2,
		TopicMultiplier: 2,
		CommunityWeight: 3,
		InterestCap:     15,
	},
}

// Default returns a private copy of the built-in lexicon.
func Default() *Lexicon {
	return builtin.clone()
}
