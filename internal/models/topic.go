package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Topic categories
const (
	CategoryCoding              = "coding"
	CategoryHealth              = "health"
	CategoryFinance             = "finance"
	CategoryBusiness            = "business"
	CategoryPersonalDevelopment = "personal-development"
	CategoryScience             = "science"
	CategoryLanguage            = "language"
	CategoryOther               = "other"
)

// Topic difficulty levels
const (
	DifficultyBeginner     = "beginner"
	DifficultyIntermediate = "intermediate"
	DifficultyAdvanced     = "advanced"
)

// Topic represents a subject area containing an ordered sequence of lessons.
// TotalLessons and SubscriberCount are derived counters; the content
// collection and user preferences are the source of truth.
type Topic struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Name              string             `bson:"name" json:"name"`
	Description       string             `bson:"description" json:"description"`
	Category          string             `bson:"category" json:"category"`
	IsActive          bool               `bson:"isActive" json:"isActive"`
	TotalLessons      int                `bson:"totalLessons" json:"totalLessons"`
	SubscriberCount   int                `bson:"subscriberCount" json:"subscriberCount"`
	Difficulty        string             `bson:"difficulty" json:"difficulty"`
	EstimatedDuration string             `bson:"estimatedDuration,omitempty" json:"estimatedDuration,omitempty"` // per lesson
	Tags              []string           `bson:"tags,omitempty" json:"tags,omitempty"`
	Icon              string             `bson:"icon,omitempty" json:"icon,omitempty"`
	CreatedAt         time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt         time.Time          `bson:"updatedAt" json:"updatedAt"`
}
