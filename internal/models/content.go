package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Content types
const (
	ContentTypeText       = "text"
	ContentTypeQuiz       = "quiz"
	ContentTypeTip        = "tip"
	ContentTypeExercise   = "exercise"
	ContentTypeReflection = "reflection"
)

// Content represents one lesson inside a topic. LessonNumber defines the
// delivery order and must be dense from 1 within a topic.
type Content struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Title             string             `bson:"title" json:"title"`
	Body              string             `bson:"content" json:"content"`
	TopicID           primitive.ObjectID `bson:"topicId" json:"topicId"`
	LessonNumber      int                `bson:"lessonNumber" json:"lessonNumber"`
	Type              string             `bson:"type" json:"type"`
	Difficulty        string             `bson:"difficulty" json:"difficulty"`
	EstimatedReadTime int                `bson:"estimatedReadTime" json:"estimatedReadTime"` // minutes
	Tags              []string           `bson:"tags,omitempty" json:"tags,omitempty"`
	IsActive          bool               `bson:"isActive" json:"isActive"`

	// Quiz-specific fields
	Question      string   `bson:"question,omitempty" json:"question,omitempty"`
	Options       []string `bson:"options,omitempty" json:"options,omitempty"`
	CorrectAnswer int      `bson:"correctAnswer,omitempty" json:"correctAnswer,omitempty"` // index into Options
	Explanation   string   `bson:"explanation,omitempty" json:"explanation,omitempty"`

	// Engagement metrics
	ViewCount       int     `bson:"viewCount" json:"viewCount"`
	CompletionCount int     `bson:"completionCount" json:"completionCount"`
	Rating          float64 `bson:"rating" json:"rating"`
	RatingCount     int     `bson:"ratingCount" json:"ratingCount"`

	// Media attachments
	MediaURL  string `bson:"mediaUrl,omitempty" json:"mediaUrl,omitempty"`
	MediaType string `bson:"mediaType,omitempty" json:"mediaType,omitempty"` // image, video, audio

	CreatedBy string    `bson:"createdBy" json:"createdBy"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}
