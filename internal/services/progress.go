package services

import (
	"time"

	"github.com/microlearn/whatsapp-bot-backend/internal/models"
)

// startOfDay truncates a time to midnight in its own location.
func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// daysBetween returns the number of whole calendar days from a to b.
func daysBetween(a, b time.Time) int {
	return int(startOfDay(b).Sub(startOfDay(a)).Hours() / 24)
}

// sameDay reports whether two times fall on the same calendar day.
func sameDay(a, b time.Time) bool {
	return !a.IsZero() && daysBetween(a, b) == 0
}

// updateStreak applies the consecutive-day streak rule after a delivered
// lesson. lastStreakDate is always stamped to now afterwards, regardless of
// branch.
func updateStreak(user *models.User, now time.Time) {
	if user.LastStreakDate.IsZero() {
		user.Streak = 1
	} else {
		switch diff := daysBetween(user.LastStreakDate, now); {
		case diff == 1:
			user.Streak++
		case diff > 1:
			user.Streak = 1
		}
		// diff == 0: already credited today, leave the streak alone
	}
	user.LastStreakDate = now
}

// consumeDailyQuota applies the free-lesson quota. The counter resets when the
// stored quota date is not today. Subscribed users bypass the cap and do not
// consume quota. Returns false when the user is over the cap for the day.
func consumeDailyQuota(user *models.User, now time.Time, limit int) bool {
	if !sameDay(user.DailyLessonDate, now) {
		user.DailyLessonCount = 0
		user.DailyLessonDate = now
	}

	if user.SubscriptionActive(now) {
		return true
	}

	if user.DailyLessonCount >= limit {
		return false
	}

	user.DailyLessonCount++
	user.DailyLessonDate = now
	return true
}
