package model

import (
	"strings"
	"time"
)

// TeamMember is a user profile used to resolve assignee and reviewer ids.
type TeamMember struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	FirstName  string    `json:"first_name"`
	LastName   string    `json:"last_name"`
	Email      string    `gorm:"uniqueIndex" json:"email"`
	Role       string    `json:"role,omitempty"`
	AvatarURL  string    `json:"avatar_url,omitempty"`
	TelegramID *int64    `gorm:"uniqueIndex" json:"telegram_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// DisplayName falls back to the email when no name is set.
func (m TeamMember) DisplayName() string {
	name := strings.TrimSpace(m.FirstName + " " + m.LastName)
	if name == "" {
		return m.Email
	}
	return name
}
