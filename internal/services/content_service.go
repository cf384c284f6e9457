package services

import (
	"context"
	"errors"

	"github.com/microlearn/whatsapp-bot-backend/internal/models"
	"github.com/microlearn/whatsapp-bot-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ContentService manages topics and lessons for the dashboard.
type ContentService struct {
	topicRepo   repositories.TopicRepository
	contentRepo repositories.ContentRepository
}

// NewContentService creates a new ContentService.
func NewContentService(topicRepo repositories.TopicRepository, contentRepo repositories.ContentRepository) *ContentService {
	return &ContentService{topicRepo: topicRepo, contentRepo: contentRepo}
}

// GetTopics returns all topics, active and inactive.
func (s *ContentService) GetTopics(ctx context.Context) ([]*models.Topic, error) {
	return s.topicRepo.FindAll(ctx)
}

// CreateTopic validates and stores a new topic.
func (s *ContentService) CreateTopic(ctx context.Context, topic *models.Topic) error {
	if topic.Name == "" {
		return errors.New("topic name is required")
	}
	return s.topicRepo.Create(ctx, topic)
}

// GetContent returns a page of lessons with the total count.
func (s *ContentService) GetContent(ctx context.Context, page, limit int) ([]*models.Content, int64, error) {
	content, err := s.contentRepo.FindAll(ctx, page, limit)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.contentRepo.Count(ctx)
	if err != nil {
		return nil, 0, err
	}
	return content, total, nil
}

// CreateContent stores a lesson and keeps the topic's lesson counter in sync.
func (s *ContentService) CreateContent(ctx context.Context, content *models.Content) error {
	if content.Title == "" || content.Body == "" {
		return errors.New("title and content are required")
	}
	if content.LessonNumber < 1 {
		return errors.New("lessonNumber must be at least 1")
	}
	if _, err := s.topicRepo.FindByID(ctx, content.TopicID); err != nil {
		return errors.New("topic not found")
	}

	if err := s.contentRepo.Create(ctx, content); err != nil {
		return err
	}
	return s.topicRepo.IncrementTotalLessons(ctx, content.TopicID, 1)
}

// UpdateContent applies an admin edit to a lesson.
func (s *ContentService) UpdateContent(ctx context.Context, content *models.Content) error {
	return s.contentRepo.Update(ctx, content)
}

// DeleteContent removes a lesson and decrements the topic's lesson counter.
func (s *ContentService) DeleteContent(ctx context.Context, id primitive.ObjectID) error {
	content, err := s.contentRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.contentRepo.Delete(ctx, id); err != nil {
		return err
	}
	return s.topicRepo.IncrementTotalLessons(ctx, content.TopicID, -1)
}
