package model

import (
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

// Meetup is a scheduled event organized by a user.
type Meetup struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Title       string    `json:"title" gorm:"size:255;not null"`
	Description string    `json:"description" gorm:"type:text;not null"`
	Location    string    `json:"location" gorm:"size:255;not null"`
	Date        time.Time `json:"date" gorm:"not null;index"`
	ImageID     uint      `json:"image_id" gorm:"not null;index"`
	UserID      uint      `json:"user_id" gorm:"not null;index"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Relations
	User  *User `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Image *File `json:"image,omitempty" gorm:"foreignKey:ImageID"`
}

// Past reports whether the meetup date is before now.
func (m *Meetup) Past(now time.Time) bool {
	return m.Date.Before(now)
}

// BeforeSave stores dates in UTC so equality and range queries compare like with like.
func (m *Meetup) BeforeSave(tx *gorm.DB) error {
	m.Date = m.Date.UTC()
	return nil
}

// MarshalJSON adds the derived past flag, evaluated at render time.
func (m Meetup) MarshalJSON() ([]byte, error) {
	type meetup Meetup
	return json.Marshal(struct {
		meetup
		Past bool `json:"past"`
	}{
		meetup: meetup(m),
		Past:   m.Past(time.Now()),
	})
}
