package service

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"meetapp/internal/errors"
	"meetapp/internal/model"
	"meetapp/internal/repository"
)

// BookingMailKey identifies the booking confirmation job.
const BookingMailKey = "BookingMail"

// BookingMailPayload is the job payload handed to the notification worker.
type BookingMailPayload struct {
	Meetup *model.Meetup `json:"meetup"`
	User   string        `json:"user"`
}

// Notifier submits background jobs. Add must not block on delivery and
// reports its own failures.
type Notifier interface {
	Add(key string, payload interface{})
}

// BookingService handles booking operations.
type BookingService interface {
	Create(ctx context.Context, userID uint, userName string, meetupID uint) (*model.Booking, error)
	ListByDay(ctx context.Context, userID uint, day string) ([]model.Booking, error)
	ListUpcoming(ctx context.Context, userID uint) ([]model.Booking, error)
	Delete(ctx context.Context, userID, bookingID uint) error
}

type bookingService struct {
	bookingRepo repository.BookingRepository
	meetupRepo  repository.MeetupRepository
	notifier    Notifier
	now         func() time.Time
}

// NewBookingService creates a new booking service.
func NewBookingService(
	bookingRepo repository.BookingRepository,
	meetupRepo repository.MeetupRepository,
	notifier Notifier,
) BookingService {
	return &bookingService{
		bookingRepo: bookingRepo,
		meetupRepo:  meetupRepo,
		notifier:    notifier,
		now:         time.Now,
	}
}

// Create books userID into a meetup. The duplicate and same-slot checks and
// the insert run in one transaction holding a lock on the user's row; the
// unique (user_id, meetup_id) index backs the duplicate check.
func (s *bookingService) Create(ctx context.Context, userID uint, userName string, meetupID uint) (*model.Booking, error) {
	meetup, err := s.meetupRepo.FindByIDWithOwner(ctx, meetupID)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrMeetupNotFound
		}
		return nil, fmt.Errorf("find meetup: %w", err)
	}

	now := s.now()
	if meetup.Past(now) {
		return nil, errors.ErrPastMeetup
	}

	booking := &model.Booking{
		Date:     now,
		MeetupID: meetup.ID,
		UserID:   userID,
	}

	err = s.bookingRepo.WithTransaction(ctx, func(ctx context.Context, tx repository.BookingRepository) error {
		if err := tx.LockUser(ctx, userID); err != nil {
			if stderrors.Is(err, gorm.ErrRecordNotFound) {
				return errors.ErrUserNotFound
			}
			return fmt.Errorf("lock user: %w", err)
		}

		booked, err := tx.Exists(ctx, userID, meetup.ID)
		if err != nil {
			return fmt.Errorf("check booking: %w", err)
		}
		if booked {
			return errors.ErrAlreadyBooked
		}

		conflict, err := tx.HasSlotConflict(ctx, userID, meetup.ID, meetup.Date)
		if err != nil {
			return fmt.Errorf("check time slot: %w", err)
		}
		if conflict {
			return errors.ErrTimeConflict
		}

		if err := tx.Create(ctx, booking); err != nil {
			if stderrors.Is(err, gorm.ErrDuplicatedKey) {
				return errors.ErrAlreadyBooked
			}
			return fmt.Errorf("create booking: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Add(BookingMailKey, BookingMailPayload{Meetup: meetup, User: userName})
	return booking, nil
}

// ListByDay lists the user's bookings made on the given day for meetups still to come.
func (s *bookingService) ListByDay(ctx context.Context, userID uint, day string) ([]model.Booking, error) {
	now := s.now()
	from, to, err := dayBounds(day, now)
	if err != nil {
		return nil, err
	}
	bookings, err := s.bookingRepo.ListCreatedBetween(ctx, userID, from, to, now)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	return bookings, nil
}

// ListUpcoming lists the user's bookings for future meetups, soonest first.
func (s *bookingService) ListUpcoming(ctx context.Context, userID uint) ([]model.Booking, error) {
	bookings, err := s.bookingRepo.ListUpcoming(ctx, userID, s.now())
	if err != nil {
		return nil, fmt.Errorf("list upcoming bookings: %w", err)
	}
	return bookings, nil
}

// Delete cancels a booking held by userID.
func (s *bookingService) Delete(ctx context.Context, userID, bookingID uint) error {
	booking, err := s.bookingRepo.FindByID(ctx, bookingID)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return errors.ErrBookingNotFound
		}
		return fmt.Errorf("find booking: %w", err)
	}
	if err := authorize(userID, booking.UserID); err != nil {
		return err
	}
	if err := s.bookingRepo.Delete(ctx, booking.ID); err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return errors.ErrBookingNotFound
		}
		return fmt.Errorf("delete booking: %w", err)
	}
	return nil
}
