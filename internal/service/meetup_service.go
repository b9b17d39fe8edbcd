package service

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"math"
	"time"

	"gorm.io/gorm"

	"meetapp/internal/cache"
	"meetapp/internal/errors"
	"meetapp/internal/model"
	"meetapp/internal/repository"
)

const (
	// MeetupPageSize is the number of meetups returned per page by ListByDay.
	MeetupPageSize   = 10
	ownedMeetupsTTL  = time.Minute
	ownedMeetupsKeyF = "meetups:owner:%d"
	// keeps (page-1)*MeetupPageSize from overflowing
	maxMeetupPage = math.MaxInt / MeetupPageSize
)

// CreateMeetupInput carries the fields of a new meetup.
type CreateMeetupInput struct {
	Title       string
	Description string
	Location    string
	Date        string
	ImageID     uint
}

// UpdateMeetupInput carries the fields to change; nil fields keep their value.
type UpdateMeetupInput struct {
	Title       *string
	Description *string
	Location    *string
	Date        *string
	ImageID     *uint
}

// MeetupService handles meetup operations.
type MeetupService interface {
	Create(ctx context.Context, ownerID uint, in CreateMeetupInput) (*model.Meetup, error)
	Update(ctx context.Context, ownerID, meetupID uint, in UpdateMeetupInput) (*model.Meetup, error)
	ListByDay(ctx context.Context, day string, page int) ([]model.Meetup, error)
	ListOwned(ctx context.Context, ownerID uint) ([]model.Meetup, error)
	Delete(ctx context.Context, requesterID, meetupID uint) (*model.Meetup, error)
}

type meetupService struct {
	meetupRepo repository.MeetupRepository
	fileRepo   repository.FileRepository
	cache      *cache.Client
	// offset is subtracted from client dates before they are compared or stored
	offset time.Duration
	now    func() time.Time
}

// NewMeetupService creates a new meetup service.
func NewMeetupService(
	meetupRepo repository.MeetupRepository,
	fileRepo repository.FileRepository,
	cache *cache.Client,
	dateOffset time.Duration,
) MeetupService {
	return &meetupService{
		meetupRepo: meetupRepo,
		fileRepo:   fileRepo,
		cache:      cache,
		offset:     dateOffset,
		now:        time.Now,
	}
}

func (s *meetupService) ownedKey(ownerID uint) string {
	return fmt.Sprintf(ownedMeetupsKeyF, ownerID)
}

// futureDate parses a client date, shifts it by the configured offset and
// requires the result to be strictly after now.
func (s *meetupService) futureDate(value string) (time.Time, error) {
	parsed, err := parseDateTime(value)
	if err != nil {
		return time.Time{}, err
	}
	date := parsed.Add(-s.offset).UTC()
	if !date.After(s.now()) {
		return time.Time{}, errors.ErrPastDate
	}
	return date, nil
}

func (s *meetupService) ensureImage(ctx context.Context, imageID uint) error {
	if _, err := s.fileRepo.FindByID(ctx, imageID); err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return errors.ErrFileNotFound
		}
		return fmt.Errorf("find image: %w", err)
	}
	return nil
}

// findOwned loads a meetup and checks the requester owns it.
func (s *meetupService) findOwned(ctx context.Context, requesterID, meetupID uint) (*model.Meetup, error) {
	meetup, err := s.meetupRepo.FindByID(ctx, meetupID)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrMeetupNotFound
		}
		return nil, fmt.Errorf("find meetup: %w", err)
	}
	if err := authorize(requesterID, meetup.UserID); err != nil {
		return nil, err
	}
	return meetup, nil
}

// Create validates the date and persists a meetup owned by ownerID.
func (s *meetupService) Create(ctx context.Context, ownerID uint, in CreateMeetupInput) (*model.Meetup, error) {
	date, err := s.futureDate(in.Date)
	if err != nil {
		return nil, err
	}
	if err := s.ensureImage(ctx, in.ImageID); err != nil {
		return nil, err
	}

	meetup := &model.Meetup{
		Title:       in.Title,
		Description: in.Description,
		Location:    in.Location,
		Date:        date,
		ImageID:     in.ImageID,
		UserID:      ownerID,
	}
	if err := s.meetupRepo.Create(ctx, meetup); err != nil {
		return nil, fmt.Errorf("create meetup: %w", err)
	}

	_ = s.cache.Delete(ctx, s.ownedKey(ownerID))
	return meetup, nil
}

// Update changes the supplied fields of a future meetup owned by ownerID.
func (s *meetupService) Update(ctx context.Context, ownerID, meetupID uint, in UpdateMeetupInput) (*model.Meetup, error) {
	meetup, err := s.findOwned(ctx, ownerID, meetupID)
	if err != nil {
		return nil, err
	}
	if meetup.Past(s.now()) {
		return nil, errors.ErrImmutable
	}

	fields := map[string]interface{}{}
	if in.Date != nil {
		date, err := s.futureDate(*in.Date)
		if err != nil {
			return nil, err
		}
		fields["date"] = date
	}
	if in.ImageID != nil {
		if err := s.ensureImage(ctx, *in.ImageID); err != nil {
			return nil, err
		}
		fields["image_id"] = *in.ImageID
	}
	if in.Title != nil {
		fields["title"] = *in.Title
	}
	if in.Description != nil {
		fields["description"] = *in.Description
	}
	if in.Location != nil {
		fields["location"] = *in.Location
	}

	if err := s.meetupRepo.Update(ctx, meetup, fields); err != nil {
		return nil, fmt.Errorf("update meetup: %w", err)
	}

	_ = s.cache.Delete(ctx, s.ownedKey(ownerID))
	return meetup, nil
}

// ListByDay lists one page of meetups happening on the given day.
func (s *meetupService) ListByDay(ctx context.Context, day string, page int) ([]model.Meetup, error) {
	if page < 1 {
		return nil, fmt.Errorf("%w: page must be positive", errors.ErrValidation)
	}
	if page > maxMeetupPage {
		return nil, fmt.Errorf("%w: page out of range", errors.ErrValidation)
	}
	from, to, err := dayBounds(day, s.now())
	if err != nil {
		return nil, err
	}

	meetups, err := s.meetupRepo.ListBetween(ctx, from, to, MeetupPageSize, (page-1)*MeetupPageSize)
	if err != nil {
		return nil, fmt.Errorf("list meetups: %w", err)
	}
	return meetups, nil
}

// ListOwned lists the meetups organized by ownerID with caching.
func (s *meetupService) ListOwned(ctx context.Context, ownerID uint) ([]model.Meetup, error) {
	key := s.ownedKey(ownerID)
	if data, _ := s.cache.Get(ctx, key); data != nil {
		var cached []model.Meetup
		if err := json.Unmarshal(data, &cached); err == nil {
			return cached, nil
		}
	}

	meetups, err := s.meetupRepo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list owned meetups: %w", err)
	}

	if payload, err := json.Marshal(meetups); err == nil {
		_ = s.cache.Set(ctx, key, payload, ownedMeetupsTTL)
	}
	return meetups, nil
}

// Delete removes a meetup owned by requesterID along with its bookings.
func (s *meetupService) Delete(ctx context.Context, requesterID, meetupID uint) (*model.Meetup, error) {
	meetup, err := s.findOwned(ctx, requesterID, meetupID)
	if err != nil {
		return nil, err
	}
	if err := s.meetupRepo.Delete(ctx, meetup.ID); err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrMeetupNotFound
		}
		return nil, fmt.Errorf("delete meetup: %w", err)
	}

	_ = s.cache.Delete(ctx, s.ownedKey(requesterID))
	return meetup, nil
}
