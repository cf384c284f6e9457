package repositories

import (
	"context"
	"time"

	"github.com/microlearn/whatsapp-bot-backend/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserRepository defines the interface for user data operations
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	FindByPhoneNumber(ctx context.Context, phoneNumber string) (*models.User, error)
	FindAll(ctx context.Context, page, limit int) ([]*models.User, error)
	// FindActive returns users with isActive=true regardless of pause state.
	FindActive(ctx context.Context) ([]*models.User, error)
	// FindDeliverable returns users eligible for scheduled delivery
	// (isActive=true, isPaused=false).
	FindDeliverable(ctx context.Context) ([]*models.User, error)
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	Count(ctx context.Context) (int64, error)
	CountDeliverable(ctx context.Context) (int64, error)
	CountPaused(ctx context.Context) (int64, error)
	CountCreatedSince(ctx context.Context, since time.Time) (int64, error)
	CountActiveSince(ctx context.Context, since time.Time) (int64, error)
}

// TopicRepository defines the interface for topic data operations
type TopicRepository interface {
	Create(ctx context.Context, topic *models.Topic) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Topic, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]*models.Topic, error)
	// FindByName resolves an active topic by case-insensitive name.
	FindByName(ctx context.Context, name string) (*models.Topic, error)
	FindActive(ctx context.Context, limit int) ([]*models.Topic, error)
	FindAll(ctx context.Context) ([]*models.Topic, error)
	Update(ctx context.Context, topic *models.Topic) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	IncrementSubscribers(ctx context.Context, ids []primitive.ObjectID, delta int) error
	IncrementTotalLessons(ctx context.Context, id primitive.ObjectID, delta int) error
}

// ContentRepository defines the interface for lesson content data operations
type ContentRepository interface {
	Create(ctx context.Context, content *models.Content) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Content, error)
	// FindLesson returns the active lesson at the given position within a
	// topic, or mongo.ErrNoDocuments when the topic has no such lesson.
	FindLesson(ctx context.Context, topicID primitive.ObjectID, lessonNumber int) (*models.Content, error)
	FindByTopic(ctx context.Context, topicID primitive.ObjectID) ([]*models.Content, error)
	FindAll(ctx context.Context, page, limit int) ([]*models.Content, error)
	Update(ctx context.Context, content *models.Content) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	IncrementViewCount(ctx context.Context, id primitive.ObjectID) error
	Count(ctx context.Context) (int64, error)
}

// MessageLogRepository defines the interface for outbound message audit records
type MessageLogRepository interface {
	Create(ctx context.Context, entry *models.MessageLog) error
	FindByPhoneNumber(ctx context.Context, phoneNumber string, page, limit int) ([]*models.MessageLog, error)
	Count(ctx context.Context) (int64, error)
}
