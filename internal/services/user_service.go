package services

import (
	"context"
	"fmt"
	"time"

	"github.com/microlearn/whatsapp-bot-backend/internal/models"
	"github.com/microlearn/whatsapp-bot-backend/internal/repositories"
)

// UserService exposes user administration for the dashboard.
type UserService struct {
	userRepo  repositories.UserRepository
	topicRepo repositories.TopicRepository
}

// NewUserService creates a new UserService.
func NewUserService(userRepo repositories.UserRepository, topicRepo repositories.TopicRepository) *UserService {
	return &UserService{userRepo: userRepo, topicRepo: topicRepo}
}

// GetUsers returns a page of users together with the total count.
func (s *UserService) GetUsers(ctx context.Context, page, limit int) ([]*models.User, int64, error) {
	users, err := s.userRepo.FindAll(ctx, page, limit)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.userRepo.Count(ctx)
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// GetUserByPhoneNumber returns a single user.
func (s *UserService) GetUserByPhoneNumber(ctx context.Context, phoneNumber string) (*models.User, error) {
	return s.userRepo.FindByPhoneNumber(ctx, phoneNumber)
}

// UpdateUser applies an admin edit. A user without a subscription cannot keep
// subscription metadata, so clearing the flag also clears type and expiry.
func (s *UserService) UpdateUser(ctx context.Context, user *models.User) error {
	if !user.IsSubscribed {
		user.SubscriptionType = ""
		user.SubscriptionExpiry = time.Time{}
	}
	return s.userRepo.Update(ctx, user)
}

// DeleteUser removes a user and releases their topic subscriptions.
func (s *UserService) DeleteUser(ctx context.Context, phoneNumber string) error {
	user, err := s.userRepo.FindByPhoneNumber(ctx, phoneNumber)
	if err != nil {
		return err
	}
	if err := s.userRepo.Delete(ctx, user.ID); err != nil {
		return err
	}
	if len(user.PreferredTopics) > 0 {
		if err := s.topicRepo.IncrementSubscribers(ctx, user.PreferredTopics, -1); err != nil {
			return fmt.Errorf("release topic subscriptions: %w", err)
		}
	}
	return nil
}

// Stats summarizes the user base for the dashboard.
type Stats struct {
	TotalUsers     int64   `json:"totalUsers"`
	ActiveUsers    int64   `json:"activeUsers"`
	PausedUsers    int64   `json:"pausedUsers"`
	NewToday       int64   `json:"newToday"`
	ActiveThisWeek int64   `json:"activeThisWeek"`
	EngagementRate float64 `json:"engagementRate"`
}

// GetStats computes dashboard counters.
func (s *UserService) GetStats(ctx context.Context) (*Stats, error) {
	now := time.Now()

	total, err := s.userRepo.Count(ctx)
	if err != nil {
		return nil, err
	}
	active, err := s.userRepo.CountDeliverable(ctx)
	if err != nil {
		return nil, err
	}
	paused, err := s.userRepo.CountPaused(ctx)
	if err != nil {
		return nil, err
	}
	newToday, err := s.userRepo.CountCreatedSince(ctx, startOfDay(now))
	if err != nil {
		return nil, err
	}
	activeThisWeek, err := s.userRepo.CountActiveSince(ctx, now.AddDate(0, 0, -7))
	if err != nil {
		return nil, err
	}

	stats := &Stats{
		TotalUsers:     total,
		ActiveUsers:    active,
		PausedUsers:    paused,
		NewToday:       newToday,
		ActiveThisWeek: activeThisWeek,
	}
	if total > 0 {
		stats.EngagementRate = float64(activeThisWeek) / float64(total) * 100
	}
	return stats, nil
}
