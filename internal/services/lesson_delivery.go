package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/microlearn/whatsapp-bot-backend/internal/config"
	"github.com/microlearn/whatsapp-bot-backend/internal/models"
	"github.com/microlearn/whatsapp-bot-backend/internal/repositories"
	"github.com/microlearn/whatsapp-bot-backend/pkg/scheduler"
	"github.com/microlearn/whatsapp-bot-backend/pkg/whatsapp"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// LessonService drives the scheduled side of the bot: the daily lesson run
// and the weekly progress reports.
type LessonService struct {
	userRepo       repositories.UserRepository
	topicRepo      repositories.TopicRepository
	contentRepo    repositories.ContentRepository
	messageLogRepo repositories.MessageLogRepository
	gateway        whatsapp.Gateway
	clock          clockwork.Clock
	cfg            *config.Config
}

// NewLessonService creates a new LessonService.
func NewLessonService(
	userRepo repositories.UserRepository,
	topicRepo repositories.TopicRepository,
	contentRepo repositories.ContentRepository,
	messageLogRepo repositories.MessageLogRepository,
	gateway whatsapp.Gateway,
	clock clockwork.Clock,
	cfg *config.Config,
) *LessonService {
	return &LessonService{
		userRepo:       userRepo,
		topicRepo:      topicRepo,
		contentRepo:    contentRepo,
		messageLogRepo: messageLogRepo,
		gateway:        gateway,
		clock:          clock,
		cfg:            cfg,
	}
}

// RegisterJobs wires the daily and weekly runs onto the scheduler.
func (s *LessonService) RegisterJobs(sched *scheduler.Scheduler) {
	s.registerDaily(sched)
	s.registerWeekly(sched)
}

func (s *LessonService) registerDaily(sched *scheduler.Scheduler) {
	sched.Daily(s.cfg.Bot.DailyHour, s.cfg.Bot.DailyMinute, "daily-lessons", func(ctx context.Context) {
		s.DeliverDailyLessons(ctx)
	})
}

func (s *LessonService) registerWeekly(sched *scheduler.Scheduler) {
	sched.Weekly(time.Weekday(s.cfg.Bot.WeeklyWeekday), s.cfg.Bot.WeeklyHour, s.cfg.Bot.WeeklyMinute, "weekly-reports", func(ctx context.Context) {
		s.SendWeeklyReports(ctx)
	})
}

// DeliverDailyLessons sends at most one lesson to every deliverable user.
// A failure for one user is logged and never aborts the batch.
func (s *LessonService) DeliverDailyLessons(ctx context.Context) {
	users, err := s.userRepo.FindDeliverable(ctx)
	if err != nil {
		log.Printf("delivery: failed to load users: %v", err)
		return
	}
	log.Printf("delivery: starting daily run for %d users", len(users))

	for i, user := range users {
		if i > 0 {
			s.clock.Sleep(s.cfg.Bot.DeliveryDelay)
		}
		if err := s.deliverLessonToUser(ctx, user); err != nil {
			log.Printf("delivery: user %s: %v", user.PhoneNumber, err)
		}
	}
	log.Printf("delivery: daily run finished")
}

// deliverLessonToUser walks the user's preferred topics in stored order,
// sends the first available lesson and then sweeps the remaining topics for
// newly exhausted ones so completion awards are not starved by the one-lesson
// rule.
func (s *LessonService) deliverLessonToUser(ctx context.Context, user *models.User) error {
	now := s.clock.Now()
	delivered := false
	changed := false

	for _, topicID := range user.PreferredTopics {
		progress := user.ProgressFor(topicID)
		if progress == nil {
			user.Progress = append(user.Progress, models.Progress{TopicID: topicID})
			progress = &user.Progress[len(user.Progress)-1]
			changed = true
		}

		lesson, err := s.contentRepo.FindLesson(ctx, topicID, progress.CurrentLessonIndex+1)
		if err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				awarded, awardErr := s.awardTopicCompletion(ctx, user, topicID, now)
				if awardErr != nil {
					return awardErr
				}
				changed = changed || awarded
				continue
			}
			return fmt.Errorf("find lesson for topic %s: %w", topicID.Hex(), err)
		}
		if delivered {
			continue
		}

		topic, err := s.topicRepo.FindByID(ctx, topicID)
		if err != nil {
			return fmt.Errorf("find topic %s: %w", topicID.Hex(), err)
		}

		s.send(ctx, user.PhoneNumber, formatLessonMessage(topic, lesson, user.Streak), models.MessageKindLesson)

		if err := s.contentRepo.IncrementViewCount(ctx, lesson.ID); err != nil {
			log.Printf("delivery: failed to bump view count for lesson %s: %v", lesson.ID.Hex(), err)
		}

		progress.CompletedLessons = append(progress.CompletedLessons, lesson.ID)
		progress.CurrentLessonIndex++
		progress.LastLessonDate = now
		progress.TotalLessonsCompleted++
		updateStreak(user, now)
		delivered = true
		changed = true
	}

	if !changed {
		return nil
	}
	if err := s.userRepo.Update(ctx, user); err != nil {
		return fmt.Errorf("persist delivery state: %w", err)
	}
	return nil
}

// awardTopicCompletion grants the badge for an exhausted topic, plus a
// certificate when the user holds an active subscription. Awarding is
// idempotent: a user who already has the badge gets nothing, not even a
// message. Reports whether the user document changed.
func (s *LessonService) awardTopicCompletion(ctx context.Context, user *models.User, topicID primitive.ObjectID, now time.Time) (bool, error) {
	if user.HasBadge(topicID) {
		return false, nil
	}

	topic, err := s.topicRepo.FindByID(ctx, topicID)
	if err != nil {
		return false, fmt.Errorf("find completed topic %s: %w", topicID.Hex(), err)
	}

	user.Badges = append(user.Badges, models.Badge{TopicID: topicID, AwardedAt: now})

	if user.SubscriptionActive(now) {
		url := fmt.Sprintf("%s/%s/%s", strings.TrimRight(s.cfg.Bot.CertificateBaseURL, "/"), user.ID.Hex(), topicID.Hex())
		user.Certificates = append(user.Certificates, models.Certificate{TopicID: topicID, AwardedAt: now, URL: url})

		msg := fmt.Sprintf("🏆 *Congratulations, %s!*\n\n"+
			"You've completed every lesson in *%s*! You've earned a badge and your certificate is ready:\n\n"+
			"📜 %s\n\n"+
			"Amazing dedication. Keep learning! 🚀", user.Name, topic.Name, url)
		s.send(ctx, user.PhoneNumber, msg, models.MessageKindAward)
	} else {
		msg := fmt.Sprintf("🏅 *Topic Complete, %s!*\n\n"+
			"You've finished every lesson in *%s* and earned a badge!\n\n"+
			"Subscribers also receive a shareable certificate. Unlock yours here:\n"+
			"👉 %s", user.Name, topic.Name, s.cfg.Bot.SubscribeURL)
		s.send(ctx, user.PhoneNumber, msg, models.MessageKindAward)
	}
	return true, nil
}

func formatLessonMessage(topic *models.Topic, lesson *models.Content, streak int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s *%s - Lesson %d*\n\n", topic.Icon, topic.Name, lesson.LessonNumber)
	fmt.Fprintf(&b, "*%s*\n\n%s\n", lesson.Title, lesson.Body)

	if lesson.Type == models.ContentTypeQuiz && lesson.Question != "" {
		fmt.Fprintf(&b, "\n❓ *Quiz:* %s\n", lesson.Question)
		for i, option := range lesson.Options {
			fmt.Fprintf(&b, "%d. %s\n", i+1, option)
		}
		b.WriteString("\nReply with the number of your answer!\n")
	}

	fmt.Fprintf(&b, "\n⏱️ Est. time: %d min", lesson.EstimatedReadTime)
	if streak > 0 {
		fmt.Fprintf(&b, "\n🔥 Streak: %d days", streak)
	}
	return b.String()
}

// SendWeeklyReports sends every active user a summary of the trailing seven
// days, with celebratory lines for strong streaks and busy weeks.
func (s *LessonService) SendWeeklyReports(ctx context.Context) {
	users, err := s.userRepo.FindActive(ctx)
	if err != nil {
		log.Printf("reports: failed to load users: %v", err)
		return
	}
	log.Printf("reports: sending weekly reports to %d users", len(users))

	for i, user := range users {
		if i > 0 {
			s.clock.Sleep(s.cfg.Bot.ReportDelay)
		}
		report, err := s.buildWeeklyReport(ctx, user)
		if err != nil {
			log.Printf("reports: user %s: %v", user.PhoneNumber, err)
			continue
		}
		s.send(ctx, user.PhoneNumber, report, models.MessageKindReport)
	}
	log.Printf("reports: weekly run finished")
}

func (s *LessonService) buildWeeklyReport(ctx context.Context, user *models.User) (string, error) {
	now := s.clock.Now()
	weekAgo := now.AddDate(0, 0, -7)

	lessonsThisWeek := 0
	topicIDs := make([]primitive.ObjectID, 0, len(user.Progress))
	for _, p := range user.Progress {
		if p.LastLessonDate.After(weekAgo) {
			lessonsThisWeek += p.TotalLessonsCompleted
		}
		topicIDs = append(topicIDs, p.TopicID)
	}

	topics, err := s.topicRepo.FindByIDs(ctx, topicIDs)
	if err != nil {
		return "", fmt.Errorf("resolve report topics: %w", err)
	}

	var topicLines strings.Builder
	for _, t := range topics {
		fmt.Fprintf(&topicLines, "%s %s\n", t.Icon, t.Name)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📈 *Your Weekly Learning Report, %s!*\n\n", user.Name)
	fmt.Fprintf(&b, "*This Week:*\n")
	fmt.Fprintf(&b, "• Lessons completed: %d 📚\n", lessonsThisWeek)
	fmt.Fprintf(&b, "• Current streak: %d days 🔥\n", user.Streak)
	fmt.Fprintf(&b, "• Total score: %d points ⭐\n\n", user.TotalScore)
	fmt.Fprintf(&b, "*Your Topics:*\n%s", topicLines.String())

	if user.Streak >= 7 {
		b.WriteString("\n🎉 A full week streak! You're unstoppable!")
	}
	if lessonsThisWeek >= 5 {
		b.WriteString("\n💪 Five or more lessons this week, fantastic pace!")
	}
	b.WriteString("\n\nSee you tomorrow for your next lesson! 🚀")
	return b.String(), nil
}

func (s *LessonService) send(ctx context.Context, phoneNumber, body, kind string) {
	msgID, err := s.gateway.SendMessage(phoneNumber, body)
	entry := &models.MessageLog{
		PhoneNumber: phoneNumber,
		Body:        body,
		Kind:        kind,
		Status:      models.MessageStatusSent,
		MessageID:   msgID,
	}
	if err != nil {
		entry.Status = models.MessageStatusFailed
		log.Printf("delivery: failed to send message to %s: %v", phoneNumber, err)
	}
	if logErr := s.messageLogRepo.Create(ctx, entry); logErr != nil {
		log.Printf("delivery: failed to record message log for %s: %v", phoneNumber, logErr)
	}
}
