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

// Compile-time check to ensure ContentRepository implements the interface
var _ repositories.ContentRepository = (*ContentRepository)(nil)

// ContentRepository handles MongoDB operations for lesson content
type ContentRepository struct {
	collection *mongo.Collection
}

// NewContentRepository creates a new ContentRepository
func NewContentRepository(db *mongo.Database) *ContentRepository {
	return &ContentRepository{
		collection: db.Collection("contents"),
	}
}

// Create inserts a new lesson
func (r *ContentRepository) Create(ctx context.Context, content *models.Content) error {
	content.ID = primitive.NewObjectID()
	content.CreatedAt = time.Now()
	content.UpdatedAt = time.Now()
	_, err := r.collection.InsertOne(ctx, content)
	return err
}

// FindByID finds a lesson by ID
func (r *ContentRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Content, error) {
	var content models.Content
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&content)
	if err != nil {
		return nil, err // Includes mongo.ErrNoDocuments
	}
	return &content, nil
}

// FindLesson finds the active lesson at the given position within a topic
func (r *ContentRepository) FindLesson(ctx context.Context, topicID primitive.ObjectID, lessonNumber int) (*models.Content, error) {
	var content models.Content
	filter := bson.M{
		"topicId":      topicID,
		"lessonNumber": lessonNumber,
		"isActive":     true,
	}
	err := r.collection.FindOne(ctx, filter).Decode(&content)
	if err != nil {
		return nil, err // mongo.ErrNoDocuments means the topic is exhausted
	}
	return &content, nil
}

// FindByTopic retrieves all lessons of a topic in delivery order
func (r *ContentRepository) FindByTopic(ctx context.Context, topicID primitive.ObjectID) ([]*models.Content, error) {
	opts := options.Find().SetSort(bson.M{"lessonNumber": 1})
	return r.find(ctx, bson.M{"topicId": topicID}, opts)
}

// FindAll retrieves lessons with pagination, newest first
func (r *ContentRepository) FindAll(ctx context.Context, page, limit int) ([]*models.Content, error) {
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
	return r.find(ctx, bson.M{}, opts)
}

// Update updates an existing lesson
func (r *ContentRepository) Update(ctx context.Context, content *models.Content) error {
	content.UpdatedAt = time.Now()
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": content.ID}, bson.M{"$set": content})
	return err
}

// Delete deletes a lesson by ID
func (r *ContentRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

// IncrementViewCount atomically increments a lesson's view counter
func (r *ContentRepository) IncrementViewCount(ctx context.Context, id primitive.ObjectID) error {
	update := bson.M{"$inc": bson.M{"viewCount": 1}}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// Count returns the total number of lessons
func (r *ContentRepository) Count(ctx context.Context) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{})
}

func (r *ContentRepository) find(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]*models.Content, error) {
	var contents []*models.Content
	cursor, err := r.collection.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &contents); err != nil {
		return nil, err
	}
	if contents == nil {
		contents = []*models.Content{}
	}
	return contents, nil
}
