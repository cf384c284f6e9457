package mongodb

import (
	"context"
	"time"

	"github.com/microlearn/whatsapp-bot-backend/internal/models"
	"github.com/microlearn/whatsapp-bot-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Compile-time check to ensure MessageLogRepository implements the interface
var _ repositories.MessageLogRepository = (*MessageLogRepository)(nil)

// MessageLogRepository handles MongoDB operations for outbound message audits
type MessageLogRepository struct {
	collection *mongo.Collection
}

// NewMessageLogRepository creates a new MessageLogRepository
func NewMessageLogRepository(db *mongo.Database) *MessageLogRepository {
	return &MessageLogRepository{
		collection: db.Collection("messageLogs"),
	}
}

// Create inserts a new message log entry
func (r *MessageLogRepository) Create(ctx context.Context, entry *models.MessageLog) error {
	entry.ID = primitive.NewObjectID()
	entry.CreatedAt = time.Now()
	_, err := r.collection.InsertOne(ctx, entry)
	return err
}

// FindByPhoneNumber retrieves message logs for a phone number, newest first
func (r *MessageLogRepository) FindByPhoneNumber(ctx context.Context, phoneNumber string, page, limit int) ([]*models.MessageLog, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	opts := options.Find().
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit)).
		SetSort(bson.M{"createdAt": -1})

	var entries []*models.MessageLog
	cursor, err := r.collection.Find(ctx, bson.M{"phoneNumber": phoneNumber}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &entries); err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []*models.MessageLog{}
	}
	return entries, nil
}

// Count returns the total number of logged messages
func (r *MessageLogRepository) Count(ctx context.Context) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{})
}
