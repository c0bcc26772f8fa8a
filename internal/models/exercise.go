package models

import "time"

// DateLayout renders exercise dates the way API clients expect them, e.g. "Mon Jan 01 2024".
const DateLayout = "Mon Jan 02 2006"

// Exercise is a single logged activity. It only exists inside a User's log.
type Exercise struct {
	ID          uint      `gorm:"primaryKey" json:"-"`
	UserID      string    `gorm:"size:36;index;not null" json:"-"`
	Description string    `gorm:"not null" json:"description"`
	Duration    int       `gorm:"not null" json:"duration"`
	Date        time.Time `gorm:"not null;index" json:"date"`
}

// DateString formats the exercise date in UTC.
func (e Exercise) DateString() string {
	return e.Date.UTC().Format(DateLayout)
}
