package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Progress tracks a user's advancement through one topic.
type Progress struct {
	TopicID               primitive.ObjectID   `bson:"topicId" json:"topicId"`
	CompletedLessons      []primitive.ObjectID `bson:"completedLessons" json:"completedLessons"`
	CurrentLessonIndex    int                  `bson:"currentLessonIndex" json:"currentLessonIndex"`
	LastLessonDate        time.Time            `bson:"lastLessonDate,omitempty" json:"lastLessonDate,omitempty"`
	TotalLessonsCompleted int                  `bson:"totalLessonsCompleted" json:"totalLessonsCompleted"`
}

// Badge marks a completed topic. At most one badge per topic.
type Badge struct {
	TopicID   primitive.ObjectID `bson:"topicId" json:"topicId"`
	AwardedAt time.Time          `bson:"awardedAt" json:"awardedAt"`
}

// Certificate is a badge upgraded by an active subscription. It references a
// downloadable artifact by URL and exists only alongside a badge for the same
// topic.
type Certificate struct {
	TopicID   primitive.ObjectID `bson:"topicId" json:"topicId"`
	AwardedAt time.Time          `bson:"awardedAt" json:"awardedAt"`
	URL       string             `bson:"url,omitempty" json:"url,omitempty"`
}

// User represents a learner registered via the WhatsApp bot, identified by an
// E.164 phone number.
type User struct {
	ID                 primitive.ObjectID   `bson:"_id,omitempty" json:"id,omitempty"`
	PhoneNumber        string               `bson:"phoneNumber" json:"phoneNumber"`
	Name               string               `bson:"name" json:"name"`
	PreferredTopics    []primitive.ObjectID `bson:"preferredTopics" json:"preferredTopics"`
	IsActive           bool                 `bson:"isActive" json:"isActive"`
	IsPaused           bool                 `bson:"isPaused" json:"isPaused"`
	RegistrationDate   time.Time            `bson:"registrationDate" json:"registrationDate"`
	LastActive         time.Time            `bson:"lastActive,omitempty" json:"lastActive,omitempty"`
	Progress           []Progress           `bson:"progress" json:"progress"`
	Timezone           string               `bson:"timezone" json:"timezone"`
	PreferredTime      string               `bson:"preferredTime" json:"preferredTime"` // 24-hour format, e.g. "09:00"
	TotalScore         int                  `bson:"totalScore" json:"totalScore"`
	Streak             int                  `bson:"streak" json:"streak"`
	LastStreakDate     time.Time            `bson:"lastStreakDate,omitempty" json:"lastStreakDate,omitempty"`
	IsSubscribed       bool                 `bson:"isSubscribed" json:"isSubscribed"`
	SubscriptionType   string               `bson:"subscriptionType,omitempty" json:"subscriptionType,omitempty"` // daily, weekly
	SubscriptionExpiry time.Time            `bson:"subscriptionExpiry,omitempty" json:"subscriptionExpiry,omitempty"`
	DailyLessonCount   int                  `bson:"dailyLessonCount" json:"dailyLessonCount"`
	DailyLessonDate    time.Time            `bson:"dailyLessonDate,omitempty" json:"dailyLessonDate,omitempty"`
	Badges             []Badge              `bson:"badges" json:"badges"`
	Certificates       []Certificate        `bson:"certificates" json:"certificates"`
	CreatedAt          time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt          time.Time            `bson:"updatedAt" json:"updatedAt"`
}

// SubscriptionActive reports whether the user holds a paid subscription that
// has not yet expired.
func (u *User) SubscriptionActive(now time.Time) bool {
	return u.IsSubscribed && !u.SubscriptionExpiry.IsZero() && u.SubscriptionExpiry.After(now)
}

// HasBadge reports whether the user already earned a badge for the topic.
func (u *User) HasBadge(topicID primitive.ObjectID) bool {
	for _, b := range u.Badges {
		if b.TopicID == topicID {
			return true
		}
	}
	return false
}

// ProgressFor returns the progress record for the topic, or nil if the user
// never subscribed to it.
func (u *User) ProgressFor(topicID primitive.ObjectID) *Progress {
	for i := range u.Progress {
		if u.Progress[i].TopicID == topicID {
			return &u.Progress[i]
		}
	}
	return nil
}
