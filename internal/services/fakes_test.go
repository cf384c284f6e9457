package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/microlearn/whatsapp-bot-backend/internal/models"
	"github.com/microlearn/whatsapp-bot-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// In-memory repository fakes. Find methods return copies so a test only sees
// mutations that went through Update.

type fakeUserRepo struct {
	mu    sync.Mutex
	users []*models.User
}

var _ repositories.UserRepository = (*fakeUserRepo)(nil)

func (r *fakeUserRepo) add(user *models.User) {
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	r.users = append(r.users, user)
}

// Create enforces phone-number uniqueness like the unique index does in the
// real collection.
func (r *fakeUserRepo) Create(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.PhoneNumber == user.PhoneNumber {
			return errors.New("E11000 duplicate key error collection: users index: phoneNumber_1")
		}
	}
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	user.CreatedAt = time.Now()
	user.UpdatedAt = time.Now()
	cp := *user
	r.users = append(r.users, &cp)
	return nil
}

func (r *fakeUserRepo) FindByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (r *fakeUserRepo) FindByPhoneNumber(_ context.Context, phoneNumber string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.PhoneNumber == phoneNumber {
			cp := *u
			return &cp, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (r *fakeUserRepo) FindAll(_ context.Context, _, _ int) ([]*models.User, error) {
	return r.copies(func(*models.User) bool { return true }), nil
}

func (r *fakeUserRepo) FindActive(_ context.Context) ([]*models.User, error) {
	return r.copies(func(u *models.User) bool { return u.IsActive }), nil
}

func (r *fakeUserRepo) FindDeliverable(_ context.Context) ([]*models.User, error) {
	return r.copies(func(u *models.User) bool { return u.IsActive && !u.IsPaused }), nil
}

func (r *fakeUserRepo) copies(match func(*models.User) bool) []*models.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.User, 0, len(r.users))
	for _, u := range r.users {
		if match(u) {
			cp := *u
			out = append(out, &cp)
		}
	}
	return out
}

func (r *fakeUserRepo) Update(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, u := range r.users {
		if u.ID == user.ID {
			cp := *user
			cp.UpdatedAt = time.Now()
			r.users[i] = &cp
			return nil
		}
	}
	return mongo.ErrNoDocuments
}

func (r *fakeUserRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, u := range r.users {
		if u.ID == id {
			r.users = append(r.users[:i], r.users[i+1:]...)
			return nil
		}
	}
	return mongo.ErrNoDocuments
}

func (r *fakeUserRepo) Count(_ context.Context) (int64, error) {
	return int64(len(r.copies(func(*models.User) bool { return true }))), nil
}

func (r *fakeUserRepo) CountDeliverable(_ context.Context) (int64, error) {
	return int64(len(r.copies(func(u *models.User) bool { return u.IsActive && !u.IsPaused }))), nil
}

func (r *fakeUserRepo) CountPaused(_ context.Context) (int64, error) {
	return int64(len(r.copies(func(u *models.User) bool { return u.IsPaused }))), nil
}

func (r *fakeUserRepo) CountCreatedSince(_ context.Context, since time.Time) (int64, error) {
	return int64(len(r.copies(func(u *models.User) bool { return u.CreatedAt.After(since) }))), nil
}

func (r *fakeUserRepo) CountActiveSince(_ context.Context, since time.Time) (int64, error) {
	return int64(len(r.copies(func(u *models.User) bool { return u.LastActive.After(since) }))), nil
}

type fakeTopicRepo struct {
	mu     sync.Mutex
	topics []*models.Topic
}

var _ repositories.TopicRepository = (*fakeTopicRepo)(nil)

func (r *fakeTopicRepo) add(topic *models.Topic) {
	if topic.ID.IsZero() {
		topic.ID = primitive.NewObjectID()
	}
	r.topics = append(r.topics, topic)
}

func (r *fakeTopicRepo) Create(_ context.Context, topic *models.Topic) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if topic.ID.IsZero() {
		topic.ID = primitive.NewObjectID()
	}
	r.topics = append(r.topics, topic)
	return nil
}

func (r *fakeTopicRepo) FindByID(_ context.Context, id primitive.ObjectID) (*models.Topic, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.topics {
		if t.ID == id {
			cp := *t
			return &cp, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

// FindByIDs intentionally returns matches in reverse stored order to mimic
// the unordered result of an $in query.
func (r *fakeTopicRepo) FindByIDs(_ context.Context, ids []primitive.ObjectID) ([]*models.Topic, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	want := make(map[primitive.ObjectID]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out []*models.Topic
	for i := len(r.topics) - 1; i >= 0; i-- {
		if want[r.topics[i].ID] {
			cp := *r.topics[i]
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeTopicRepo) FindByName(_ context.Context, name string) (*models.Topic, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.topics {
		if t.IsActive && strings.EqualFold(t.Name, name) {
			cp := *t
			return &cp, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (r *fakeTopicRepo) FindActive(_ context.Context, limit int) ([]*models.Topic, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Topic
	for _, t := range r.topics {
		if !t.IsActive {
			continue
		}
		cp := *t
		out = append(out, &cp)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *fakeTopicRepo) FindAll(_ context.Context) ([]*models.Topic, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.Topic, 0, len(r.topics))
	for _, t := range r.topics {
		cp := *t
		out = append(out, &cp)
	}
	return out, nil
}

func (r *fakeTopicRepo) Update(_ context.Context, topic *models.Topic) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, t := range r.topics {
		if t.ID == topic.ID {
			cp := *topic
			r.topics[i] = &cp
			return nil
		}
	}
	return mongo.ErrNoDocuments
}

func (r *fakeTopicRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, t := range r.topics {
		if t.ID == id {
			r.topics = append(r.topics[:i], r.topics[i+1:]...)
			return nil
		}
	}
	return mongo.ErrNoDocuments
}

func (r *fakeTopicRepo) IncrementSubscribers(_ context.Context, ids []primitive.ObjectID, delta int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range ids {
		for _, t := range r.topics {
			if t.ID == id {
				t.SubscriberCount += delta
			}
		}
	}
	return nil
}

func (r *fakeTopicRepo) IncrementTotalLessons(_ context.Context, id primitive.ObjectID, delta int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.topics {
		if t.ID == id {
			t.TotalLessons += delta
		}
	}
	return nil
}

func (r *fakeTopicRepo) subscriberCount(id primitive.ObjectID) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.topics {
		if t.ID == id {
			return t.SubscriberCount
		}
	}
	return 0
}

type fakeContentRepo struct {
	mu      sync.Mutex
	lessons []*models.Content
}

var _ repositories.ContentRepository = (*fakeContentRepo)(nil)

func (r *fakeContentRepo) add(content *models.Content) {
	if content.ID.IsZero() {
		content.ID = primitive.NewObjectID()
	}
	r.lessons = append(r.lessons, content)
}

func (r *fakeContentRepo) Create(_ context.Context, content *models.Content) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if content.ID.IsZero() {
		content.ID = primitive.NewObjectID()
	}
	r.lessons = append(r.lessons, content)
	return nil
}

func (r *fakeContentRepo) FindByID(_ context.Context, id primitive.ObjectID) (*models.Content, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range r.lessons {
		if l.ID == id {
			cp := *l
			return &cp, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (r *fakeContentRepo) FindLesson(_ context.Context, topicID primitive.ObjectID, lessonNumber int) (*models.Content, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range r.lessons {
		if l.TopicID == topicID && l.LessonNumber == lessonNumber && l.IsActive {
			cp := *l
			return &cp, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (r *fakeContentRepo) FindByTopic(_ context.Context, topicID primitive.ObjectID) ([]*models.Content, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Content
	for _, l := range r.lessons {
		if l.TopicID == topicID {
			cp := *l
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeContentRepo) FindAll(_ context.Context, _, _ int) ([]*models.Content, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.Content, 0, len(r.lessons))
	for _, l := range r.lessons {
		cp := *l
		out = append(out, &cp)
	}
	return out, nil
}

func (r *fakeContentRepo) Update(_ context.Context, content *models.Content) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, l := range r.lessons {
		if l.ID == content.ID {
			cp := *content
			r.lessons[i] = &cp
			return nil
		}
	}
	return mongo.ErrNoDocuments
}

func (r *fakeContentRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, l := range r.lessons {
		if l.ID == id {
			r.lessons = append(r.lessons[:i], r.lessons[i+1:]...)
			return nil
		}
	}
	return mongo.ErrNoDocuments
}

func (r *fakeContentRepo) IncrementViewCount(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range r.lessons {
		if l.ID == id {
			l.ViewCount++
			return nil
		}
	}
	return mongo.ErrNoDocuments
}

func (r *fakeContentRepo) Count(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.lessons)), nil
}

func (r *fakeContentRepo) viewCount(id primitive.ObjectID) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range r.lessons {
		if l.ID == id {
			return l.ViewCount
		}
	}
	return 0
}

type fakeMessageLogRepo struct {
	mu      sync.Mutex
	entries []*models.MessageLog
}

var _ repositories.MessageLogRepository = (*fakeMessageLogRepo)(nil)

func (r *fakeMessageLogRepo) Create(_ context.Context, entry *models.MessageLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *entry
	r.entries = append(r.entries, &cp)
	return nil
}

func (r *fakeMessageLogRepo) FindByPhoneNumber(_ context.Context, phoneNumber string, _, _ int) ([]*models.MessageLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.MessageLog
	for _, e := range r.entries {
		if e.PhoneNumber == phoneNumber {
			cp := *e
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeMessageLogRepo) Count(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.entries)), nil
}
