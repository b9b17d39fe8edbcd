package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"meetapp/internal/model"
)

// BookingRepository defines booking persistence operations.
type BookingRepository interface {
	Create(ctx context.Context, booking *model.Booking) error
	FindByID(ctx context.Context, id uint) (*model.Booking, error)
	Exists(ctx context.Context, userID, meetupID uint) (bool, error)
	HasSlotConflict(ctx context.Context, userID, meetupID uint, date time.Time) (bool, error)
	ListCreatedBetween(ctx context.Context, userID uint, from, to, now time.Time) ([]model.Booking, error)
	ListUpcoming(ctx context.Context, userID uint, now time.Time) ([]model.Booking, error)
	Delete(ctx context.Context, id uint) error
	// Transaction methods
	WithTransaction(ctx context.Context, fn func(ctx context.Context, repo BookingRepository) error) error
	LockUser(ctx context.Context, userID uint) error
}

type bookingRepository struct {
	db *gorm.DB
}

// NewBookingRepository creates a new booking repository.
func NewBookingRepository(db *gorm.DB) BookingRepository {
	return &bookingRepository{db: db}
}

// Create creates a new booking.
func (r *bookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(booking).Error
}

// FindByID finds a booking by ID.
func (r *bookingRepository) FindByID(ctx context.Context, id uint) (*model.Booking, error) {
	var booking model.Booking
	if err := r.db.WithContext(ctx).First(&booking, id).Error; err != nil {
		return nil, err
	}
	return &booking, nil
}

// Exists reports whether the user already booked the meetup.
func (r *bookingRepository) Exists(ctx context.Context, userID, meetupID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Booking{}).
		Where("user_id = ? AND meetup_id = ?", userID, meetupID).
		Count(&count).Error
	return count > 0, err
}

// HasSlotConflict reports whether the user holds a booking for another meetup
// scheduled at exactly date.
func (r *bookingRepository) HasSlotConflict(ctx context.Context, userID, meetupID uint, date time.Time) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Booking{}).
		Joins("JOIN meetups ON meetups.id = bookings.meetup_id").
		Where("bookings.user_id = ? AND bookings.meetup_id <> ? AND meetups.date = ?", userID, meetupID, date.UTC()).
		Count(&count).Error
	return count > 0, err
}

// ListCreatedBetween lists the user's bookings made within [from, to] for meetups still ahead of now.
func (r *bookingRepository) ListCreatedBetween(ctx context.Context, userID uint, from, to, now time.Time) ([]model.Booking, error) {
	var bookings []model.Booking
	err := r.db.WithContext(ctx).
		Joins("JOIN meetups ON meetups.id = bookings.meetup_id").
		Where("bookings.user_id = ?", userID).
		Where("bookings.date BETWEEN ? AND ?", from.UTC(), to.UTC()).
		Where("meetups.date > ?", now.UTC()).
		Order("meetups.date").
		Preload("Meetup").
		Find(&bookings).Error
	if err != nil {
		return nil, err
	}
	return bookings, nil
}

// ListUpcoming lists the user's bookings for meetups after now, soonest first,
// with each meetup's organizer and image.
func (r *bookingRepository) ListUpcoming(ctx context.Context, userID uint, now time.Time) ([]model.Booking, error) {
	var bookings []model.Booking
	err := r.db.WithContext(ctx).
		Joins("JOIN meetups ON meetups.id = bookings.meetup_id").
		Where("bookings.user_id = ?", userID).
		Where("meetups.date > ?", now.UTC()).
		Order("meetups.date").Order("bookings.id").
		Preload("Meetup").
		Preload("Meetup.User", ownerColumns).
		Preload("Meetup.Image").
		Find(&bookings).Error
	if err != nil {
		return nil, err
	}
	return bookings, nil
}

// Delete removes a booking.
func (r *bookingRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&model.Booking{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// WithTransaction executes a function within a database transaction.
func (r *bookingRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context, repo BookingRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, &bookingRepository{db: tx})
	})
}

// LockUser takes a row lock on the user so that concurrent bookings by the
// same user run one after another. SQLite serializes writers already and has
// no FOR UPDATE, so there it only checks the user exists.
func (r *bookingRepository) LockUser(ctx context.Context, userID uint) error {
	db := r.db.WithContext(ctx)
	if r.db.Dialector.Name() != "sqlite" {
		db = db.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var user model.User
	return db.Select("id").First(&user, userID).Error
}
