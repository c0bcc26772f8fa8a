// Package models defines the domain entities and the error taxonomy shared by every layer.
package models

import "time"

// User owns an append-only log of exercises.
type User struct {
	ID        string     `gorm:"primaryKey;size:36" json:"_id"`
	Username  string     `gorm:"not null" json:"username"`
	Log       []Exercise `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"log"`
	CreatedAt time.Time  `json:"-"`
}

// Summary returns the user without its log.
func (u *User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Username: u.Username}
}

// UserSummary is the list view of a user. It never carries the log.
type UserSummary struct {
	ID       string `json:"_id"`
	Username string `json:"username"`
}
