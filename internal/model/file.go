package model

import "time"

// File is an uploaded image referenced by meetups.
type File struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"size:255;not null"`
	Path      string    `json:"path" gorm:"size:255;uniqueIndex;not null"`
	URL       string    `json:"url" gorm:"size:512;not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
