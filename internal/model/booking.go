package model

import (
	"time"

	"gorm.io/gorm"
)

// Booking records one user's attendance to one meetup.
// A user holds at most one booking per meetup.
type Booking struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Date      time.Time `json:"date" gorm:"not null;index"`
	UserID    uint      `json:"user_id" gorm:"not null;uniqueIndex:idx_bookings_user_meetup,priority:1"`
	MeetupID  uint      `json:"meetup_id" gorm:"not null;uniqueIndex:idx_bookings_user_meetup,priority:2;index"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Meetup *Meetup `json:"meetup,omitempty" gorm:"foreignKey:MeetupID;constraint:OnDelete:CASCADE"`
	User   *User   `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// BeforeSave stores the booking timestamp in UTC.
func (b *Booking) BeforeSave(tx *gorm.DB) error {
	b.Date = b.Date.UTC()
	return nil
}
