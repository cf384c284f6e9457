package services

import (
	"testing"
	"time"

	"github.com/microlearn/whatsapp-bot-backend/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestUpdateStreak(t *testing.T) {
	now := time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)

	t.Run("first lesson starts streak at one", func(t *testing.T) {
		user := &models.User{}
		updateStreak(user, now)
		assert.Equal(t, 1, user.Streak)
		assert.Equal(t, now, user.LastStreakDate)
	})

	t.Run("consecutive day increments", func(t *testing.T) {
		user := &models.User{Streak: 4, LastStreakDate: now.AddDate(0, 0, -1)}
		updateStreak(user, now)
		assert.Equal(t, 5, user.Streak)
		assert.Equal(t, now, user.LastStreakDate)
	})

	t.Run("gap resets to one", func(t *testing.T) {
		user := &models.User{Streak: 12, LastStreakDate: now.AddDate(0, 0, -3)}
		updateStreak(user, now)
		assert.Equal(t, 1, user.Streak)
	})

	t.Run("same day leaves streak unchanged but stamps date", func(t *testing.T) {
		earlier := now.Add(-2 * time.Hour)
		user := &models.User{Streak: 7, LastStreakDate: earlier}
		updateStreak(user, now)
		assert.Equal(t, 7, user.Streak)
		assert.Equal(t, now, user.LastStreakDate)
	})

	t.Run("calendar days not 24h windows", func(t *testing.T) {
		// 23:30 yesterday to 00:30 today is one calendar day apart.
		yesterday := time.Date(2024, 3, 14, 23, 30, 0, 0, time.UTC)
		justAfterMidnight := time.Date(2024, 3, 15, 0, 30, 0, 0, time.UTC)
		user := &models.User{Streak: 2, LastStreakDate: yesterday}
		updateStreak(user, justAfterMidnight)
		assert.Equal(t, 3, user.Streak)
	})
}

func TestConsumeDailyQuota(t *testing.T) {
	now := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	const limit = 3

	t.Run("counts up to the limit", func(t *testing.T) {
		user := &models.User{}
		for i := 0; i < limit; i++ {
			assert.True(t, consumeDailyQuota(user, now, limit))
		}
		assert.Equal(t, limit, user.DailyLessonCount)
		assert.False(t, consumeDailyQuota(user, now, limit))
		assert.Equal(t, limit, user.DailyLessonCount)
	})

	t.Run("stale date resets the counter", func(t *testing.T) {
		user := &models.User{DailyLessonCount: 3, DailyLessonDate: now.AddDate(0, 0, -1)}
		assert.True(t, consumeDailyQuota(user, now, limit))
		assert.Equal(t, 1, user.DailyLessonCount)
		assert.True(t, sameDay(user.DailyLessonDate, now))
	})

	t.Run("active subscription bypasses without consuming", func(t *testing.T) {
		user := &models.User{
			IsSubscribed:       true,
			SubscriptionExpiry: now.AddDate(0, 1, 0),
			DailyLessonCount:   3,
			DailyLessonDate:    now,
		}
		assert.True(t, consumeDailyQuota(user, now, limit))
		assert.Equal(t, 3, user.DailyLessonCount)
	})

	t.Run("expired subscription is capped", func(t *testing.T) {
		user := &models.User{
			IsSubscribed:       true,
			SubscriptionExpiry: now.AddDate(0, -1, 0),
			DailyLessonCount:   3,
			DailyLessonDate:    now,
		}
		assert.False(t, consumeDailyQuota(user, now, limit))
	})
}

func TestDaysBetween(t *testing.T) {
	a := time.Date(2024, 3, 14, 23, 59, 0, 0, time.UTC)
	b := time.Date(2024, 3, 15, 0, 1, 0, 0, time.UTC)
	assert.Equal(t, 1, daysBetween(a, b))
	assert.Equal(t, 0, daysBetween(b, b))
	assert.Equal(t, 7, daysBetween(b, b.AddDate(0, 0, 7)))
}
