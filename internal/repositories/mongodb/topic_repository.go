package mongodb

import (
	"context"
	"regexp"
	"time"

	"github.com/microlearn/whatsapp-bot-backend/internal/models"
	"github.com/microlearn/whatsapp-bot-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Compile-time check to ensure TopicRepository implements the interface
var _ repositories.TopicRepository = (*TopicRepository)(nil)

// TopicRepository handles MongoDB operations for Topic
type TopicRepository struct {
	collection *mongo.Collection
}

// NewTopicRepository creates a new TopicRepository
func NewTopicRepository(db *mongo.Database) *TopicRepository {
	return &TopicRepository{
		collection: db.Collection("topics"),
	}
}

// Create inserts a new topic
func (r *TopicRepository) Create(ctx context.Context, topic *models.Topic) error {
	topic.ID = primitive.NewObjectID()
	topic.CreatedAt = time.Now()
	topic.UpdatedAt = time.Now()
	_, err := r.collection.InsertOne(ctx, topic)
	return err
}

// FindByID finds a topic by ID
func (r *TopicRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Topic, error) {
	var topic models.Topic
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&topic)
	if err != nil {
		return nil, err // Includes mongo.ErrNoDocuments
	}
	return &topic, nil
}

// FindByIDs finds topics by a set of IDs
func (r *TopicRepository) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]*models.Topic, error) {
	if len(ids) == 0 {
		return []*models.Topic{}, nil
	}
	return r.find(ctx, bson.M{"_id": bson.M{"$in": ids}})
}

// FindByName resolves an active topic by case-insensitive exact name
func (r *TopicRepository) FindByName(ctx context.Context, name string) (*models.Topic, error) {
	var topic models.Topic
	filter := bson.M{
		"name":     bson.M{"$regex": "^" + regexp.QuoteMeta(name) + "$", "$options": "i"},
		"isActive": true,
	}
	err := r.collection.FindOne(ctx, filter).Decode(&topic)
	if err != nil {
		return nil, err
	}
	return &topic, nil
}

// FindActive retrieves active topics up to the given limit, sorted by name
func (r *TopicRepository) FindActive(ctx context.Context, limit int) ([]*models.Topic, error) {
	opts := options.Find().SetSort(bson.M{"name": 1})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	return r.find(ctx, bson.M{"isActive": true}, opts)
}

// FindAll retrieves all topics sorted by name
func (r *TopicRepository) FindAll(ctx context.Context) ([]*models.Topic, error) {
	return r.find(ctx, bson.M{}, options.Find().SetSort(bson.M{"name": 1}))
}

// Update updates an existing topic
func (r *TopicRepository) Update(ctx context.Context, topic *models.Topic) error {
	topic.UpdatedAt = time.Now()
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": topic.ID}, bson.M{"$set": topic})
	return err
}

// Delete deletes a topic by ID
func (r *TopicRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

// IncrementSubscribers atomically adjusts the subscriber counter cache for a
// set of topics
func (r *TopicRepository) IncrementSubscribers(ctx context.Context, ids []primitive.ObjectID, delta int) error {
	if len(ids) == 0 {
		return nil
	}
	filter := bson.M{"_id": bson.M{"$in": ids}}
	update := bson.M{"$inc": bson.M{"subscriberCount": delta}}
	_, err := r.collection.UpdateMany(ctx, filter, update)
	return err
}

// IncrementTotalLessons atomically adjusts the lesson counter cache for a topic
func (r *TopicRepository) IncrementTotalLessons(ctx context.Context, id primitive.ObjectID, delta int) error {
	update := bson.M{"$inc": bson.M{"totalLessons": delta}}
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	return err
}

func (r *TopicRepository) find(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]*models.Topic, error) {
	var topics []*models.Topic
	cursor, err := r.collection.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &topics); err != nil {
		return nil, err
	}
	if topics == nil {
		topics = []*models.Topic{}
	}
	return topics, nil
}
