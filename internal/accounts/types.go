// Package accounts manages learner accounts, cookie sessions and daily
// activity streaks.
package accounts

import (
	"errors"
	"strings"
	"time"
)

// SessionCookie is the name of the cookie carrying the session token.
const SessionCookie = "yavin_session"

// SessionTTL is how long a login stays valid.
const SessionTTL = 30 * 24 * time.Hour

var (
	ErrEmailTaken         = errors.New("an account with this email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
)

// User is a registered learner. The password hash never leaves the store.
type User struct {
	ID         string    `json:"id"`
	Email      string    `json:"email"`
	Name       string    `json:"name,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	StreakDays int       `json:"streak_days"`
	TotalXP    int       `json:"total_xp"`
}

// SectionProgress is one row of a learner's progress through the course.
type SectionProgress struct {
	SectionID string `json:"section_id"`
	Completed bool   `json:"completed"`
	QuizScore *int   `json:"quiz_score"`
}

// ValidEmail applies the site's loose email check: an @ and at least five
// characters.
func ValidEmail(email string) bool {
	return len(email) >= 5 && strings.Contains(email, "@")
}

// NextStreak returns the streak after activity on today, given the date of
// the previous activity ("" if none). Activity on the same day keeps the
// streak, the next day extends it and any longer gap restarts it at 1.
func NextStreak(lastActivity string, streak int, today time.Time) int {
	if lastActivity == "" {
		return 1
	}
	last, err := time.Parse(time.DateOnly, lastActivity)
	if err != nil {
		return 1
	}
	day := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	switch int(day.Sub(last).Hours() / 24) {
	case 0:
		return streak
	case 1:
		return streak + 1
	default:
		return 1
	}
}
