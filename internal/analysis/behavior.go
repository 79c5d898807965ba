package analysis

// Engagement levels, by total activity.
const (
	EngagementHighlyActive = "Highly Active" // > 80
	EngagementActive       = "Active"        // > 40
	EngagementModerate     = "Moderate"      // > 15
	EngagementCasual       = "Casual"
)

// Activity levels, by total activity.
const (
	ActivityPowerUser      = "Power User"      // > 100
	ActivityRegularUser    = "Regular User"    // > 50
	ActivityOccasionalUser = "Occasional User" // > 20
	ActivityInfrequentUser = "Infrequent User"
)

// Content preferences.
const (
	PreferComments = "Comments"
	PreferPosts    = "Posts"
	PreferBalanced = "Balanced"
)

// Discussion styles, by mean comment length.
const (
	DiscussionNonParticipant = "Non-participant"
	DiscussionDetailed       = "Detailed Contributor"   // > 300
	DiscussionThoughtful     = "Thoughtful Participant" // > 100
	DiscussionBrief          = "Brief Responder"
)

// Interaction patterns.
const (
	PatternContentCreator       = "Content Creator"
	PatternCommunityParticipant = "Community Participant"
	PatternBalancedContributor  = "Balanced Contributor"
)

// BehavioralProfile holds categorical labels derived from item counts.
type BehavioralProfile struct {
	TotalActivity      int    `json:"total_activity"`
	EngagementLevel    string `json:"engagement_level"`
	ContentPreference  string `json:"content_preference"`
	DiscussionStyle    string `json:"discussion_style"`
	ActivityLevel      string `json:"activity_level"`
	InteractionPattern string `json:"interaction_pattern"`
}

// Empty reports whether the profile was derived from no items.
func (b BehavioralProfile) Empty() bool {
	return b.TotalActivity == 0
}

// ClassifyBehavior derives the behavioral labels for posts and comments.
func ClassifyBehavior(posts, comments []ContentItem) BehavioralProfile {
	p, c := len(posts), len(comments)
	total := p + c
	return BehavioralProfile{
		TotalActivity:      total,
		EngagementLevel:    EngagementLevel(total),
		ContentPreference:  ContentPreference(p, c),
		DiscussionStyle:    DiscussionStyle(comments),
		ActivityLevel:      ActivityLevel(total),
		InteractionPattern: InteractionPattern(p, c),
	}
}

// EngagementLevel bands total activity.
func EngagementLevel(total int) string {
	switch {
	case total > 80:
		return EngagementHighlyActive
	case total > 40:
		return EngagementActive
	case total > 15:
		return EngagementModerate
	default:
		return EngagementCasual
	}
}

// ActivityLevel bands total activity on a wider scale than EngagementLevel.
func ActivityLevel(total int) string {
	switch {
	case total > 100:
		return ActivityPowerUser
	case total > 50:
		return ActivityRegularUser
	case total > 20:
		return ActivityOccasionalUser
	default:
		return ActivityInfrequentUser
	}
}

// ContentPreference reports which kind of content dominates.
func ContentPreference(posts, comments int) string {
	switch {
	case comments > posts:
		return PreferComments
	case posts > comments:
		return PreferPosts
	default:
		return PreferBalanced
	}
}

// DiscussionStyle bands the mean comment length.
func DiscussionStyle(comments []ContentItem) string {
	if len(comments) == 0 {
		return DiscussionNonParticipant
	}
	avg := meanLength(comments)
	switch {
	case avg > 300:
		return DiscussionDetailed
	case avg > 100:
		return DiscussionThoughtful
	default:
		return DiscussionBrief
	}
}

// InteractionPattern compares posts and comments with asymmetric ratios.
func InteractionPattern(posts, comments int) string {
	switch {
	case posts > comments*2:
		return PatternContentCreator
	case comments > posts*3:
		return PatternCommunityParticipant
	default:
		return PatternBalancedContributor
	}
}
