package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/microlearn/whatsapp-bot-backend/internal/config"
	"github.com/microlearn/whatsapp-bot-backend/internal/models"
	"github.com/microlearn/whatsapp-bot-backend/internal/repositories"
	"github.com/microlearn/whatsapp-bot-backend/internal/session"
	"github.com/microlearn/whatsapp-bot-backend/pkg/whatsapp"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Command tokens understood by the interpreter.
const (
	CommandHelp     = "HELP"
	CommandPause    = "PAUSE"
	CommandResume   = "RESUME"
	CommandSwitch   = "SWITCH"
	CommandProgress = "PROGRESS"
	CommandNext     = "NEXT"
)

type commandFunc func(ctx context.Context, user *models.User, arg string) error

// BotService interprets inbound WhatsApp messages: it runs the registration
// state machine for unknown phone numbers and the command interpreter for
// existing users.
type BotService struct {
	userRepo       repositories.UserRepository
	topicRepo      repositories.TopicRepository
	messageLogRepo repositories.MessageLogRepository
	sessions       session.Store
	gateway        whatsapp.Gateway
	cfg            *config.Config
	commands       map[string]commandFunc
	locks          phoneLocks
	now            func() time.Time
}

// NewBotService creates a new BotService. The command table is built and
// validated here so a missing handler fails at startup rather than on the
// first message.
func NewBotService(
	userRepo repositories.UserRepository,
	topicRepo repositories.TopicRepository,
	messageLogRepo repositories.MessageLogRepository,
	sessions session.Store,
	gateway whatsapp.Gateway,
	cfg *config.Config,
) (*BotService, error) {
	s := &BotService{
		userRepo:       userRepo,
		topicRepo:      topicRepo,
		messageLogRepo: messageLogRepo,
		sessions:       sessions,
		gateway:        gateway,
		cfg:            cfg,
		now:            time.Now,
	}

	s.commands = map[string]commandFunc{
		CommandHelp:     s.sendHelpMessage,
		CommandPause:    s.pauseLessons,
		CommandResume:   s.resumeLessons,
		CommandSwitch:   s.switchTopic,
		CommandProgress: s.sendProgressReport,
		CommandNext:     s.sendNextLesson,
	}
	for _, token := range []string{CommandHelp, CommandPause, CommandResume, CommandSwitch, CommandProgress, CommandNext} {
		if s.commands[token] == nil {
			return nil, fmt.Errorf("command table incomplete: missing handler for %s", token)
		}
	}

	return s, nil
}

// HandleIncomingMessage is the webhook entry point for one inbound message.
// Handling for a single phone number is serialized so two concurrent messages
// from the same number cannot interleave registration state transitions.
func (s *BotService) HandleIncomingMessage(ctx context.Context, phoneNumber, text string) {
	lock := s.locks.get(phoneNumber)
	lock.Lock()
	defer lock.Unlock()

	if err := s.handleMessage(ctx, phoneNumber, text); err != nil {
		log.Printf("bot: error handling message from %s: %v", phoneNumber, err)
		s.send(ctx, phoneNumber, "Sorry, something went wrong. Please try again later.", models.MessageKindCommand)
	}
}

func (s *BotService) handleMessage(ctx context.Context, phoneNumber, text string) error {
	user, err := s.userRepo.FindByPhoneNumber(ctx, phoneNumber)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return s.handleRegistration(ctx, phoneNumber, text)
		}
		return fmt.Errorf("lookup user %s: %w", phoneNumber, err)
	}
	return s.handleCommand(ctx, user, text)
}

// --- Registration state machine ---

func (s *BotService) handleRegistration(ctx context.Context, phoneNumber, text string) error {
	sess, ok := s.sessions.Get(phoneNumber)
	if !ok {
		return s.startRegistration(ctx, phoneNumber)
	}

	switch sess.Step {
	case session.StepName:
		return s.handleNameStep(ctx, sess, text)
	case session.StepTopic:
		return s.handleTopicStep(ctx, sess, text)
	default:
		return s.startRegistration(ctx, phoneNumber)
	}
}

func (s *BotService) startRegistration(ctx context.Context, phoneNumber string) error {
	welcome := fmt.Sprintf("🤖 *Welcome to MicroLearn Bot!*\n"+
		"%s! I'm here to help you learn something new every day with bite-sized lessons.\n"+
		"To get started, please tell me your name:", greeting(s.now()))

	s.send(ctx, phoneNumber, welcome, models.MessageKindRegistration)
	s.sessions.Put(&session.Session{PhoneNumber: phoneNumber, Step: session.StepName})
	return nil
}

func (s *BotService) handleNameStep(ctx context.Context, sess *session.Session, text string) error {
	name := strings.TrimSpace(text)
	if utf8.RuneCountInString(name) < 2 {
		s.send(ctx, sess.PhoneNumber, "😅 Please provide a valid name with at least 2 characters.", models.MessageKindRegistration)
		return nil
	}

	topics, err := s.topicRepo.FindActive(ctx, s.cfg.Bot.TopicListLimit)
	if err != nil {
		return fmt.Errorf("list active topics: %w", err)
	}

	var list strings.Builder
	sess.TopicIDs = sess.TopicIDs[:0]
	for i, topic := range topics {
		fmt.Fprintf(&list, "%d. %s *%s* - %s\n", i+1, topic.Icon, topic.Name, topic.Description)
		sess.TopicIDs = append(sess.TopicIDs, topic.ID)
	}

	msg := fmt.Sprintf("Nice to meet you, %s! 👋\n\n"+
		"Choose your preferred learning topic by replying with the number:\n\n"+
		"%s\nOr reply with *ALL* to receive lessons from all topics.", name, list.String())

	sess.Name = name
	sess.Step = session.StepTopic
	s.sessions.Put(sess)
	s.send(ctx, sess.PhoneNumber, msg, models.MessageKindRegistration)
	return nil
}

func (s *BotService) handleTopicStep(ctx context.Context, sess *session.Session, text string) error {
	// Resolve the selection against the snapshot taken when the list was
	// prompted, not against a fresh query. The lookup does not preserve
	// order, so reorder by the snapshot before indexing.
	found, err := s.topicRepo.FindByIDs(ctx, sess.TopicIDs)
	if err != nil {
		return fmt.Errorf("resolve prompted topics: %w", err)
	}
	byID := make(map[primitive.ObjectID]*models.Topic, len(found))
	for _, t := range found {
		byID[t.ID] = t
	}
	shown := make([]*models.Topic, 0, len(sess.TopicIDs))
	for _, id := range sess.TopicIDs {
		if t, ok := byID[id]; ok {
			shown = append(shown, t)
		}
	}

	selection := strings.ToUpper(strings.TrimSpace(text))
	var selected []*models.Topic
	if selection == "ALL" {
		selected = shown
	} else {
		index, convErr := strconv.Atoi(selection)
		if convErr != nil || index < 1 || index > len(shown) {
			s.send(ctx, sess.PhoneNumber, "Invalid selection. Please choose a number from the list or reply with ALL.", models.MessageKindRegistration)
			return nil
		}
		selected = []*models.Topic{shown[index-1]}
	}

	user := &models.User{
		PhoneNumber:      sess.PhoneNumber,
		Name:             sess.Name,
		IsActive:         true,
		RegistrationDate: s.now(),
		LastActive:       s.now(),
		Timezone:         "UTC",
		PreferredTime:    "09:00",
		Progress:         make([]models.Progress, 0, len(selected)),
	}
	topicNames := make([]string, 0, len(selected))
	for _, topic := range selected {
		user.PreferredTopics = append(user.PreferredTopics, topic.ID)
		user.Progress = append(user.Progress, models.Progress{TopicID: topic.ID})
		topicNames = append(topicNames, topic.Name)
	}

	// The user document embeds its progress records, so creation is
	// all-or-nothing. The session is only cleared after a confirmed create.
	if err := s.userRepo.Create(ctx, user); err != nil {
		return fmt.Errorf("create user %s: %w", sess.PhoneNumber, err)
	}

	if err := s.topicRepo.IncrementSubscribers(ctx, user.PreferredTopics, 1); err != nil {
		log.Printf("bot: failed to bump subscriber counts for %s: %v", sess.PhoneNumber, err)
	}

	confirm := fmt.Sprintf("✅ *Registration Complete!*\n\n"+
		"Welcome to MicroLearn, %s! 🎉\n\n"+
		"📚 *Your Topics:* %s\n"+
		"⏰ *Daily Lessons:* 9:00 AM (your timezone)\n"+
		"🔥 *Streak:* 0 days\n\n"+
		"You'll receive your first lesson tomorrow morning.\n\n"+
		"*Available Commands:*\n"+
		"• *HELP* - Show available commands\n"+
		"• *PAUSE* - Pause daily lessons\n"+
		"• *RESUME* - Resume lessons\n"+
		"• *SWITCH [topic]* - Change topic\n"+
		"• *PROGRESS* - See your progress\n\n"+
		"Ready to start learning? 🚀", sess.Name, strings.Join(topicNames, ", "))

	s.send(ctx, sess.PhoneNumber, confirm, models.MessageKindRegistration)
	s.sessions.Clear(sess.PhoneNumber)
	return nil
}

// --- Command interpreter ---

func (s *BotService) handleCommand(ctx context.Context, user *models.User, text string) error {
	fields := strings.Fields(strings.ToUpper(strings.TrimSpace(text)))
	var token, arg string
	if len(fields) > 0 {
		token = fields[0]
		arg = strings.Join(fields[1:], " ")
	}

	var cmdErr error
	if handler, ok := s.commands[token]; ok {
		cmdErr = handler(ctx, user, arg)
	} else {
		s.send(ctx, user.PhoneNumber, fmt.Sprintf("🤔 Unknown command: *%s*\nType *HELP* to see available commands.", strings.TrimSpace(text)), models.MessageKindCommand)
	}

	// Every invocation, recognized or not, stamps lastActive.
	user.LastActive = s.now()
	if err := s.userRepo.Update(ctx, user); err != nil {
		return fmt.Errorf("update user %s: %w", user.PhoneNumber, err)
	}
	return cmdErr
}

func (s *BotService) sendHelpMessage(ctx context.Context, user *models.User, _ string) error {
	status := "Active 🟢"
	if user.IsPaused {
		status = "Paused ⏸️"
	}
	msg := fmt.Sprintf("🤖 *%s, %s! Here are the MicroLearn Bot Commands*\n\n"+
		"*Learning Commands:*\n"+
		"• *NEXT* - Get next lesson immediately\n"+
		"• *PROGRESS* - View your learning progress\n\n"+
		"*Settings:*\n"+
		"• *PAUSE* - Pause daily lessons\n"+
		"• *RESUME* - Resume daily lessons\n"+
		"• *SWITCH [topic]* - Change learning topic\n\n"+
		"*Information:*\n"+
		"• *HELP* - Show this help message\n\n"+
		"📊 *Your Stats:*\n"+
		"• Streak: %d days 🔥\n"+
		"• Total Score: %d\n"+
		"• Status: %s\n"+
		"Come back tomorrow for another lesson!",
		greeting(s.now()), user.Name, user.Streak, user.TotalScore, status)

	s.send(ctx, user.PhoneNumber, msg, models.MessageKindCommand)
	return nil
}

func (s *BotService) pauseLessons(ctx context.Context, user *models.User, _ string) error {
	user.IsPaused = true
	s.send(ctx, user.PhoneNumber, "⏸️ *Lessons Paused*\n"+
		"You won't receive new lessons. Type *RESUME* at any time to start again.\n"+
		"Happy to see you back soon! 👋", models.MessageKindCommand)
	return nil
}

func (s *BotService) resumeLessons(ctx context.Context, user *models.User, _ string) error {
	if !user.IsPaused {
		s.send(ctx, user.PhoneNumber, "Your lessons are already active! Type *NEXT* to get your next lesson.", models.MessageKindCommand)
		return nil
	}
	user.IsPaused = false
	s.send(ctx, user.PhoneNumber, fmt.Sprintf("▶️ *Lessons Resumed!*\n"+
		"Welcome back, %s! You'll receive your next lesson at the scheduled time.\n"+
		"Ready to learn? Let's go! 🚀", user.Name), models.MessageKindCommand)
	return nil
}

// switchTopic reassigns the user to a single topic resolved by name. Progress
// records, badges and certificates for previous topics are kept so switching
// back resumes where the user left off.
func (s *BotService) switchTopic(ctx context.Context, user *models.User, arg string) error {
	if strings.TrimSpace(arg) == "" {
		s.send(ctx, user.PhoneNumber, "Please tell me which topic to switch to, e.g. *SWITCH Python Basics*.", models.MessageKindCommand)
		return nil
	}

	topic, err := s.topicRepo.FindByName(ctx, arg)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			s.send(ctx, user.PhoneNumber, fmt.Sprintf("I couldn't find a topic called *%s*. Type *HELP* for commands.", arg), models.MessageKindCommand)
			return nil
		}
		return fmt.Errorf("resolve topic %q: %w", arg, err)
	}

	if len(user.PreferredTopics) == 1 && user.PreferredTopics[0] == topic.ID {
		s.send(ctx, user.PhoneNumber, fmt.Sprintf("You're already learning *%s*! Type *NEXT* for your next lesson.", topic.Name), models.MessageKindCommand)
		return nil
	}

	if err := s.topicRepo.IncrementSubscribers(ctx, user.PreferredTopics, -1); err != nil {
		log.Printf("bot: failed to drop subscriber counts for %s: %v", user.PhoneNumber, err)
	}

	user.PreferredTopics = []primitive.ObjectID{topic.ID}
	if user.ProgressFor(topic.ID) == nil {
		user.Progress = append(user.Progress, models.Progress{TopicID: topic.ID})
	}

	if err := s.topicRepo.IncrementSubscribers(ctx, user.PreferredTopics, 1); err != nil {
		log.Printf("bot: failed to bump subscriber count for %s: %v", user.PhoneNumber, err)
	}

	s.send(ctx, user.PhoneNumber, fmt.Sprintf("🔄 *Topic Switched!*\n"+
		"You're now learning *%s*. Your progress on previous topics is saved.\n"+
		"Your next lesson arrives at the scheduled time.", topic.Name), models.MessageKindCommand)
	return nil
}

func (s *BotService) sendProgressReport(ctx context.Context, user *models.User, _ string) error {
	topicIDs := make([]primitive.ObjectID, 0, len(user.Progress))
	for _, p := range user.Progress {
		topicIDs = append(topicIDs, p.TopicID)
	}
	topics, err := s.topicRepo.FindByIDs(ctx, topicIDs)
	if err != nil {
		return fmt.Errorf("resolve progress topics: %w", err)
	}
	names := make(map[primitive.ObjectID]string, len(topics))
	for _, t := range topics {
		names[t.ID] = t.Name
	}

	var lines strings.Builder
	for _, p := range user.Progress {
		name := names[p.TopicID]
		if name == "" {
			name = "Unknown topic"
		}
		fmt.Fprintf(&lines, "📚 *%s*: %d lessons completed\n", name, p.TotalLessonsCompleted)
	}

	cheer := ""
	if user.Streak > 3 {
		cheer = " 🔥 Keep it up!"
	}
	msg := fmt.Sprintf("📊 *Your Progress Report, %s!*\n"+
		"*Overall:*\n"+
		"• *Current Streak:* %d days%s\n"+
		"• *Total Score:* %d points\n"+
		"*Topics:*\n"+
		"%s"+
		"Keep learning and growing! 🌱", user.Name, user.Streak, cheer, user.TotalScore, lines.String())

	s.send(ctx, user.PhoneNumber, msg, models.MessageKindCommand)
	return nil
}

func (s *BotService) sendNextLesson(ctx context.Context, user *models.User, _ string) error {
	if !consumeDailyQuota(user, s.now(), s.cfg.Bot.FreeDailyLimit) {
		s.send(ctx, user.PhoneNumber, fmt.Sprintf("🚦 *Daily Limit Reached!*\n\n"+
			"You have completed your %d free lessons for today. To unlock unlimited daily lessons and earn certificates, please subscribe:\n\n"+
			"👉 %s\n\n"+
			"Thank you for learning with MicroLearn!", s.cfg.Bot.FreeDailyLimit, s.cfg.Bot.SubscribeURL), models.MessageKindCommand)
		return nil
	}

	// On-demand delivery is a named follow-up; the scheduled run remains the
	// delivery path for now.
	s.send(ctx, user.PhoneNumber, "📚 *Next Lesson Coming Up...*\n\n"+
		"This feature will deliver your next lesson based on your progress.\n\n"+
		"Your daily lesson will be delivered at your scheduled time.", models.MessageKindCommand)
	return nil
}

// --- Admin messaging ---

// BroadcastResult records the outcome for one recipient of a broadcast.
type BroadcastResult struct {
	PhoneNumber string `json:"phoneNumber"`
	Success     bool   `json:"success"`
	MessageID   string `json:"messageId,omitempty"`
	Error       string `json:"error,omitempty"`
}

// SendDirect sends a single message to a phone number on behalf of an admin.
func (s *BotService) SendDirect(ctx context.Context, phoneNumber, message string) (string, error) {
	return s.send(ctx, phoneNumber, message, models.MessageKindBroadcast)
}

// Broadcast sends a message to every user matching the target group
// ("all", "active", "paused" or "new"), throttled between recipients.
func (s *BotService) Broadcast(ctx context.Context, message, targetGroup string) ([]BroadcastResult, error) {
	var (
		users []*models.User
		err   error
	)
	switch targetGroup {
	case "active":
		users, err = s.userRepo.FindDeliverable(ctx)
	case "new":
		users, err = s.userRepo.FindActive(ctx)
		if err == nil {
			cutoff := s.now().Add(-24 * time.Hour)
			filtered := users[:0]
			for _, u := range users {
				if u.CreatedAt.After(cutoff) {
					filtered = append(filtered, u)
				}
			}
			users = filtered
		}
	case "paused":
		users, err = s.userRepo.FindActive(ctx)
		if err == nil {
			filtered := users[:0]
			for _, u := range users {
				if u.IsPaused {
					filtered = append(filtered, u)
				}
			}
			users = filtered
		}
	default:
		users, err = s.userRepo.FindActive(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("find broadcast recipients: %w", err)
	}

	results := make([]BroadcastResult, 0, len(users))
	for i, u := range users {
		if i > 0 {
			time.Sleep(s.cfg.Bot.DeliveryDelay)
		}
		msgID, sendErr := s.send(ctx, u.PhoneNumber, message, models.MessageKindBroadcast)
		result := BroadcastResult{PhoneNumber: u.PhoneNumber, Success: sendErr == nil, MessageID: msgID}
		if sendErr != nil {
			result.Error = sendErr.Error()
		}
		results = append(results, result)
	}
	return results, nil
}

// BotStats summarizes bot activity for the dashboard.
type BotStats struct {
	TotalUsers       int64 `json:"totalUsers"`
	DeliverableUsers int64 `json:"deliverableUsers"`
	PausedUsers      int64 `json:"pausedUsers"`
	MessagesSent     int64 `json:"messagesSent"`
}

// Stats computes bot activity counters.
func (s *BotService) Stats(ctx context.Context) (*BotStats, error) {
	total, err := s.userRepo.Count(ctx)
	if err != nil {
		return nil, err
	}
	deliverable, err := s.userRepo.CountDeliverable(ctx)
	if err != nil {
		return nil, err
	}
	paused, err := s.userRepo.CountPaused(ctx)
	if err != nil {
		return nil, err
	}
	messages, err := s.messageLogRepo.Count(ctx)
	if err != nil {
		return nil, err
	}
	return &BotStats{
		TotalUsers:       total,
		DeliverableUsers: deliverable,
		PausedUsers:      paused,
		MessagesSent:     messages,
	}, nil
}

// send delivers one outbound message and records it best-effort in the
// message log. Delivery failures are logged, never fatal.
func (s *BotService) send(ctx context.Context, phoneNumber, body, kind string) (string, error) {
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
		log.Printf("bot: failed to send message to %s: %v", phoneNumber, err)
	}
	if logErr := s.messageLogRepo.Create(ctx, entry); logErr != nil {
		log.Printf("bot: failed to record message log for %s: %v", phoneNumber, logErr)
	}
	return msgID, err
}

// greeting returns a time-of-day salutation.
func greeting(now time.Time) string {
	switch hour := now.Hour(); {
	case hour < 12:
		return "Good morning"
	case hour < 18:
		return "Good afternoon"
	default:
		return "Good evening"
	}
}

// phoneLocks serializes message handling per phone number. Entries are never
// removed; the map is bounded by the number of distinct senders.
type phoneLocks struct {
	mu sync.Mutex
	m  map[string]*sync.Mutex
}

func (p *phoneLocks) get(phoneNumber string) *sync.Mutex {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.m == nil {
		p.m = make(map[string]*sync.Mutex)
	}
	lock, ok := p.m[phoneNumber]
	if !ok {
		lock = &sync.Mutex{}
		p.m[phoneNumber] = lock
	}
	return lock
}
