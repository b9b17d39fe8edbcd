package service

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"meetapp/internal/auth"
	"meetapp/internal/model"
	"meetapp/internal/repository"
)

// MockMeetupRepository is a mock implementation of MeetupRepository.
type MockMeetupRepository struct {
	mock.Mock
}

func (m *MockMeetupRepository) Create(ctx context.Context, meetup *model.Meetup) error {
	args := m.Called(ctx, meetup)
	return args.Error(0)
}

func (m *MockMeetupRepository) Update(ctx context.Context, meetup *model.Meetup, fields map[string]interface{}) error {
	args := m.Called(ctx, meetup, fields)
	return args.Error(0)
}

func (m *MockMeetupRepository) FindByID(ctx context.Context, id uint) (*model.Meetup, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Meetup), args.Error(1)
}

func (m *MockMeetupRepository) FindByIDWithOwner(ctx context.Context, id uint) (*model.Meetup, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Meetup), args.Error(1)
}

func (m *MockMeetupRepository) ListBetween(ctx context.Context, from, to time.Time, limit, offset int) ([]model.Meetup, error) {
	args := m.Called(ctx, from, to, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Meetup), args.Error(1)
}

func (m *MockMeetupRepository) ListByOwner(ctx context.Context, userID uint) ([]model.Meetup, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Meetup), args.Error(1)
}

func (m *MockMeetupRepository) Delete(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockFileRepository is a mock implementation of FileRepository.
type MockFileRepository struct {
	mock.Mock
}

func (m *MockFileRepository) Create(ctx context.Context, file *model.File) error {
	args := m.Called(ctx, file)
	return args.Error(0)
}

func (m *MockFileRepository) FindByID(ctx context.Context, id uint) (*model.File, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.File), args.Error(1)
}

// MockBookingRepository is a mock implementation of BookingRepository.
// WithTransaction runs the callback against the mock itself.
type MockBookingRepository struct {
	mock.Mock
}

func (m *MockBookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	args := m.Called(ctx, booking)
	return args.Error(0)
}

func (m *MockBookingRepository) FindByID(ctx context.Context, id uint) (*model.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Booking), args.Error(1)
}

func (m *MockBookingRepository) Exists(ctx context.Context, userID, meetupID uint) (bool, error) {
	args := m.Called(ctx, userID, meetupID)
	return args.Bool(0), args.Error(1)
}

func (m *MockBookingRepository) HasSlotConflict(ctx context.Context, userID, meetupID uint, date time.Time) (bool, error) {
	args := m.Called(ctx, userID, meetupID, date)
	return args.Bool(0), args.Error(1)
}

func (m *MockBookingRepository) ListCreatedBetween(ctx context.Context, userID uint, from, to, now time.Time) ([]model.Booking, error) {
	args := m.Called(ctx, userID, from, to, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Booking), args.Error(1)
}

func (m *MockBookingRepository) ListUpcoming(ctx context.Context, userID uint, now time.Time) ([]model.Booking, error) {
	args := m.Called(ctx, userID, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Booking), args.Error(1)
}

func (m *MockBookingRepository) Delete(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockBookingRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context, repo repository.BookingRepository) error) error {
	m.Called(ctx)
	return fn(ctx, m)
}

func (m *MockBookingRepository) LockUser(ctx context.Context, userID uint) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

// MockUserRepository is a mock implementation of UserRepository.
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) Update(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id uint) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

// MockTokenStore is a mock implementation of TokenStoreInterface.
type MockTokenStore struct {
	mock.Mock
}

func (m *MockTokenStore) StoreRefreshToken(ctx context.Context, tokenID string, id auth.Identity, ttl time.Duration) error {
	args := m.Called(ctx, tokenID, id, ttl)
	return args.Error(0)
}

func (m *MockTokenStore) GetRefreshToken(ctx context.Context, tokenID string) (auth.Identity, error) {
	args := m.Called(ctx, tokenID)
	return args.Get(0).(auth.Identity), args.Error(1)
}

func (m *MockTokenStore) DeleteRefreshToken(ctx context.Context, tokenID string) error {
	args := m.Called(ctx, tokenID)
	return args.Error(0)
}

// recordingNotifier captures submitted jobs.
type recordingNotifier struct {
	mu   sync.Mutex
	jobs []recordedJob
}

type recordedJob struct {
	key     string
	payload interface{}
}

func (n *recordingNotifier) Add(key string, payload interface{}) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.jobs = append(n.jobs, recordedJob{key: key, payload: payload})
}
