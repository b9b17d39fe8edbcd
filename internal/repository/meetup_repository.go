package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"meetapp/internal/model"
)

// MeetupRepository defines meetup persistence operations.
type MeetupRepository interface {
	Create(ctx context.Context, meetup *model.Meetup) error
	Update(ctx context.Context, meetup *model.Meetup, fields map[string]interface{}) error
	FindByID(ctx context.Context, id uint) (*model.Meetup, error)
	FindByIDWithOwner(ctx context.Context, id uint) (*model.Meetup, error)
	ListBetween(ctx context.Context, from, to time.Time, limit, offset int) ([]model.Meetup, error)
	ListByOwner(ctx context.Context, userID uint) ([]model.Meetup, error)
	Delete(ctx context.Context, id uint) error
}

type meetupRepository struct {
	db *gorm.DB
}

// NewMeetupRepository creates a new meetup repository.
func NewMeetupRepository(db *gorm.DB) MeetupRepository {
	return &meetupRepository{db: db}
}

// ownerColumns limits the preloaded organizer to public fields.
func ownerColumns(db *gorm.DB) *gorm.DB {
	return db.Select("id", "name", "email")
}

// Create creates a new meetup.
func (r *meetupRepository) Create(ctx context.Context, meetup *model.Meetup) error {
	return r.db.WithContext(ctx).Create(meetup).Error
}

// Update writes only the given columns and reloads the meetup.
func (r *meetupRepository) Update(ctx context.Context, meetup *model.Meetup, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}
	db := r.db.WithContext(ctx)
	if err := db.Model(meetup).Updates(fields).Error; err != nil {
		return err
	}
	return db.First(meetup, meetup.ID).Error
}

// FindByID finds a meetup by ID.
func (r *meetupRepository) FindByID(ctx context.Context, id uint) (*model.Meetup, error) {
	var meetup model.Meetup
	if err := r.db.WithContext(ctx).First(&meetup, id).Error; err != nil {
		return nil, err
	}
	return &meetup, nil
}

// FindByIDWithOwner finds a meetup by ID with its organizer's name and email.
func (r *meetupRepository) FindByIDWithOwner(ctx context.Context, id uint) (*model.Meetup, error) {
	var meetup model.Meetup
	if err := r.db.WithContext(ctx).Preload("User", ownerColumns).First(&meetup, id).Error; err != nil {
		return nil, err
	}
	return &meetup, nil
}

// ListBetween lists meetups dated within [from, to], one page at a time.
func (r *meetupRepository) ListBetween(ctx context.Context, from, to time.Time, limit, offset int) ([]model.Meetup, error) {
	var meetups []model.Meetup
	err := r.db.WithContext(ctx).
		Where("date BETWEEN ? AND ?", from.UTC(), to.UTC()).
		Order("date").Order("id").
		Limit(limit).Offset(offset).
		Preload("User", ownerColumns).
		Preload("Image").
		Find(&meetups).Error
	if err != nil {
		return nil, err
	}
	return meetups, nil
}

// ListByOwner lists every meetup organized by a user, ordered by date.
func (r *meetupRepository) ListByOwner(ctx context.Context, userID uint) ([]model.Meetup, error) {
	var meetups []model.Meetup
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("date").
		Preload("Image").
		Find(&meetups).Error
	if err != nil {
		return nil, err
	}
	return meetups, nil
}

// Delete removes a meetup and its bookings in one transaction.
func (r *meetupRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("meetup_id = ?", id).Delete(&model.Booking{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&model.Meetup{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
