package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"meetapp/internal/auth"
	"meetapp/internal/cache"
	"meetapp/internal/config"
	"meetapp/internal/db"
	apperrors "meetapp/internal/errors"
	"meetapp/internal/handler"
	"meetapp/internal/model"
	"meetapp/internal/repository"
	"meetapp/internal/router"
	"meetapp/internal/service"
)

type sentJob struct {
	key     string
	payload interface{}
}

type fakeNotifier struct {
	mu   sync.Mutex
	jobs []sentJob
}

func (n *fakeNotifier) Add(key string, payload interface{}) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.jobs = append(n.jobs, sentJob{key: key, payload: payload})
}

type testApp struct {
	e        *echo.Echo
	db       *gorm.DB
	jwt      *auth.JWTService
	notifier *fakeNotifier
	meetups  repository.MeetupRepository
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{
		AppURL:           "http://localhost:8080",
		UploadDir:        filepath.Join(dir, "uploads"),
		UploadMaxSize:    "64K",
		BodyMaxSize:      "1M",
		JWTSecret:        "test-secret",
		MeetupDateOffset: 3 * time.Hour,
		AuthRateLimit:    100,
		AuthRateBurst:    100,
	}

	gormDB, err := db.NewSQLite(filepath.Join(dir, "test.db"))
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gormDB))
	t.Cleanup(func() {
		if sqlDB, err := gormDB.DB(); err == nil {
			sqlDB.Close()
		}
	})

	userRepo := repository.NewUserRepository(gormDB)
	fileRepo := repository.NewFileRepository(gormDB)
	meetupRepo := repository.NewMeetupRepository(gormDB)
	bookingRepo := repository.NewBookingRepository(gormDB)
	jwtService := auth.NewJWTService(cfg.JWTSecret)
	cacheClient := cache.New(nil)
	notifier := &fakeNotifier{}

	e := echo.New()
	router.Register(e, cfg, jwtService, router.Handlers{
		Auth:    handler.NewAuthHandler(service.NewAuthService(userRepo, jwtService, auth.NewTokenStore(cacheClient))),
		User:    handler.NewUserHandler(service.NewUserService(userRepo)),
		File:    handler.NewFileHandler(service.NewFileService(fileRepo, cfg.UploadDir, cfg.AppURL)),
		Meetup:  handler.NewMeetupHandler(service.NewMeetupService(meetupRepo, fileRepo, cacheClient, cfg.MeetupDateOffset)),
		Booking: handler.NewBookingHandler(service.NewBookingService(bookingRepo, meetupRepo, notifier)),
	})

	return &testApp{e: e, db: gormDB, jwt: jwtService, notifier: notifier, meetups: meetupRepo}
}

func (a *testApp) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

// signUp registers a user through the API and opens a session.
func (a *testApp) signUp(t *testing.T, name, email string) (uint, string) {
	t.Helper()
	rec := a.do(t, http.MethodPost, "/api/users", "", map[string]string{
		"name": name, "email": email, "password": "secret123",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var user model.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &user))

	rec = a.do(t, http.MethodPost, "/api/sessions", "", map[string]string{
		"email": email, "password": "secret123",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var session handler.AuthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &session))
	require.NotEmpty(t, session.AccessToken)
	return user.ID, session.AccessToken
}

// pngHeader is enough for content sniffing to report image/png.
var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func (a *testApp) send(t *testing.T, token, name string, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/files", &buf)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

func (a *testApp) upload(t *testing.T, token string) model.File {
	t.Helper()
	rec := a.send(t, token, "Cover.PNG", pngHeader)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var file model.File
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &file))
	return file
}

func (a *testApp) createMeetup(t *testing.T, token string, imageID uint, title string, date time.Time) meetupJSON {
	t.Helper()
	rec := a.do(t, http.MethodPost, "/api/meetups", token, map[string]interface{}{
		"meetup": map[string]interface{}{
			"title":       title,
			"description": "Talks and pizza",
			"location":    "Main Street 1",
			"date":        date.Format(time.RFC3339),
			"image_id":    imageID,
		},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var res struct {
		Meetup meetupJSON `json:"meetup"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	return res.Meetup
}

type meetupJSON struct {
	ID       uint      `json:"id"`
	Title    string    `json:"title"`
	Location string    `json:"location"`
	Date     time.Time `json:"date"`
	UserID   uint      `json:"user_id"`
	Past     bool      `json:"past"`
	User     *struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	} `json:"user"`
}

type bookingJSON struct {
	ID       uint        `json:"id"`
	MeetupID uint        `json:"meetup_id"`
	Meetup   *meetupJSON `json:"meetup"`
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) apperrors.ErrorResponse {
	t.Helper()
	var res apperrors.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res), rec.Body.String())
	return res
}

func (a *testApp) countBookings(t *testing.T) int64 {
	t.Helper()
	var count int64
	require.NoError(t, a.db.Model(&model.Booking{}).Count(&count).Error)
	return count
}

func TestBookingLifecycle(t *testing.T) {
	app := newTestApp(t)
	_, organizer := app.signUp(t, "Organizer", "org@example.com")
	_, attendee := app.signUp(t, "Attendee", "attendee@example.com")

	image := app.upload(t, organizer)
	assert.Equal(t, "Cover.PNG", image.Name)
	assert.Contains(t, image.URL, "http://localhost:8080/files/")

	requested := time.Now().Add(24 * time.Hour).Truncate(time.Second)
	meetup := app.createMeetup(t, organizer, image.ID, "Go Night", requested)
	assert.True(t, requested.Add(-3*time.Hour).Equal(meetup.Date), "stored %s", meetup.Date)
	assert.False(t, meetup.Past)

	rec := app.do(t, http.MethodPost, "/api/bookings", attendee, map[string]interface{}{"meetup_id": meetup.ID})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var created struct {
		Booking bookingJSON `json:"booking"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	require.Len(t, app.notifier.jobs, 1)
	assert.Equal(t, service.BookingMailKey, app.notifier.jobs[0].key)
	payload := app.notifier.jobs[0].payload.(service.BookingMailPayload)
	assert.Equal(t, "Attendee", payload.User)
	assert.Equal(t, "org@example.com", payload.Meetup.User.Email)

	rec = app.do(t, http.MethodPost, "/api/bookings", attendee, map[string]interface{}{"booking": map[string]interface{}{"meetup_id": meetup.ID}})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "ALREADY_BOOKED", decodeError(t, rec).Code)

	rec = app.do(t, http.MethodGet, "/api/subscriptions", attendee, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var subs struct {
		Bookings []bookingJSON `json:"bookings"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &subs))
	require.Len(t, subs.Bookings, 1)
	require.NotNil(t, subs.Bookings[0].Meetup)
	assert.Equal(t, "Go Night", subs.Bookings[0].Meetup.Title)
	assert.Equal(t, "Main Street 1", subs.Bookings[0].Meetup.Location)
	require.NotNil(t, subs.Bookings[0].Meetup.User)
	assert.Equal(t, "Organizer", subs.Bookings[0].Meetup.User.Name)

	rec = app.do(t, http.MethodGet, "/api/bookings", attendee, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var today struct {
		Bookings []bookingJSON `json:"bookings"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &today))
	assert.Len(t, today.Bookings, 1)

	// only the holder may cancel
	rec = app.do(t, http.MethodDelete, fmt.Sprintf("/api/bookings/%d", created.Booking.ID), organizer, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = app.do(t, http.MethodDelete, fmt.Sprintf("/api/bookings/%d", created.Booking.ID), attendee, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = app.do(t, http.MethodGet, "/api/subscriptions", attendee, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &subs))
	assert.Empty(t, subs.Bookings)
	assert.Zero(t, app.countBookings(t))
}

func TestBookingPastMeetupIsRejected(t *testing.T) {
	app := newTestApp(t)
	organizerID, organizer := app.signUp(t, "Organizer", "org@example.com")
	_, attendee := app.signUp(t, "Attendee", "attendee@example.com")
	image := app.upload(t, organizer)

	past := &model.Meetup{
		Title:       "Yesterday",
		Description: "over",
		Location:    "Main Street 1",
		Date:        time.Now().Add(-24 * time.Hour),
		ImageID:     image.ID,
		UserID:      organizerID,
	}
	require.NoError(t, app.meetups.Create(context.Background(), past))

	rec := app.do(t, http.MethodPost, "/api/bookings", attendee, map[string]interface{}{"meetup_id": past.ID})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "PAST_MEETUP", decodeError(t, rec).Code)
	assert.Zero(t, app.countBookings(t))
	assert.Empty(t, app.notifier.jobs)

	rec = app.do(t, http.MethodPut, fmt.Sprintf("/api/meetups/%d", past.ID), organizer, map[string]interface{}{"title": "Tomorrow"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "IMMUTABLE_MEETUP", decodeError(t, rec).Code)
}

func TestMeetupOwnership(t *testing.T) {
	app := newTestApp(t)
	_, organizer := app.signUp(t, "Organizer", "org@example.com")
	_, intruder := app.signUp(t, "Intruder", "intruder@example.com")
	image := app.upload(t, organizer)
	meetup := app.createMeetup(t, organizer, image.ID, "Mine", time.Now().Add(48*time.Hour))

	rec := app.do(t, http.MethodPut, fmt.Sprintf("/api/meetups/%d", meetup.ID), intruder, map[string]interface{}{"title": "Theirs"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "FORBIDDEN", decodeError(t, rec).Code)

	rec = app.do(t, http.MethodDelete, fmt.Sprintf("/api/meetups/%d", meetup.ID), intruder, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	stored, err := app.meetups.FindByID(context.Background(), meetup.ID)
	require.NoError(t, err)
	assert.Equal(t, "Mine", stored.Title)

	rec = app.do(t, http.MethodPut, fmt.Sprintf("/api/meetups/%d", meetup.ID), organizer, map[string]interface{}{"location": "Elsewhere"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var updated struct {
		Meetup meetupJSON `json:"meetup"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, "Mine", updated.Meetup.Title)
	assert.Equal(t, "Elsewhere", updated.Meetup.Location)

	rec = app.do(t, http.MethodGet, "/api/organizing", organizer, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var owned []meetupJSON
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &owned))
	require.Len(t, owned, 1)

	rec = app.do(t, http.MethodDelete, fmt.Sprintf("/api/meetups/%d", meetup.ID), organizer, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var msg handler.MessageResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &msg))
	assert.Equal(t, "Meetup 'Mine' removed successfully", msg.Message)

	rec = app.do(t, http.MethodDelete, fmt.Sprintf("/api/meetups/%d", meetup.ID), organizer, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "MEETUP_NOT_FOUND", decodeError(t, rec).Code)
}

func TestCreateMeetupValidation(t *testing.T) {
	app := newTestApp(t)
	_, token := app.signUp(t, "Organizer", "org@example.com")
	image := app.upload(t, token)

	rec := app.do(t, http.MethodPost, "/api/meetups", token, map[string]interface{}{
		"title": "No date", "description": "d", "location": "l", "image_id": image.ID,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", decodeError(t, rec).Code)

	rec = app.do(t, http.MethodPost, "/api/meetups", token, map[string]interface{}{
		"title": "Too soon", "description": "d", "location": "l", "image_id": image.ID,
		"date": time.Now().Add(time.Hour).Format(time.RFC3339),
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "PAST_DATE", decodeError(t, rec).Code)

	rec = app.do(t, http.MethodPost, "/api/meetups", token, map[string]interface{}{
		"title": "No image", "description": "d", "location": "l", "image_id": 999,
		"date": time.Now().Add(48 * time.Hour).Format(time.RFC3339),
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	var count int64
	require.NoError(t, app.db.Model(&model.Meetup{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestListMeetupsByDay(t *testing.T) {
	app := newTestApp(t)
	_, token := app.signUp(t, "Organizer", "org@example.com")
	image := app.upload(t, token)

	day := time.Now().UTC().AddDate(0, 0, 3)
	y, m, d := day.Date()
	noon := time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 12; i++ {
		// stored three hours earlier, 09:00 to 20:00 of the same day
		app.createMeetup(t, token, image.ID, fmt.Sprintf("m%02d", i), noon.Add(time.Duration(i)*time.Hour))
	}

	query := fmt.Sprintf("/api/meetups?date=%s", noon.Format("2006-01-02"))
	rec := app.do(t, http.MethodGet, query, "", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var first struct {
		Meetups []meetupJSON `json:"meetups"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &first))
	require.Len(t, first.Meetups, service.MeetupPageSize)
	assert.Equal(t, "m00", first.Meetups[0].Title)
	require.NotNil(t, first.Meetups[0].User)

	rec = app.do(t, http.MethodGet, query+"&page=2", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var second struct {
		Meetups []meetupJSON `json:"meetups"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &second))
	assert.Len(t, second.Meetups, 2)

	rec = app.do(t, http.MethodGet, query+"&page=abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSecuredRoutesRequireAccessToken(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(t, http.MethodGet, "/api/subscriptions", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "UNAUTHENTICATED", decodeError(t, rec).Code)

	_, refresh, err := app.jwt.GenerateRefreshToken(auth.Identity{UserID: 1, Name: "x", Email: "x@example.com"})
	require.NoError(t, err)
	rec = app.do(t, http.MethodGet, "/api/subscriptions", refresh, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	app := newTestApp(t)
	app.signUp(t, "First", "same@example.com")

	rec := app.do(t, http.MethodPost, "/api/users", "", map[string]string{
		"name": "Second", "email": "SAME@example.com", "password": "secret123",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "USER_ALREADY_EXISTS", decodeError(t, rec).Code)
}

func TestUploadAcceptsOnlyImages(t *testing.T) {
	app := newTestApp(t)
	_, token := app.signUp(t, "Organizer", "org@example.com")

	rec := app.send(t, token, "evil.html", []byte("<html><script>alert(1)</script></html>"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", decodeError(t, rec).Code)

	// right extension, wrong content
	rec = app.send(t, token, "evil.png", []byte("<html><script>alert(1)</script></html>"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var count int64
	require.NoError(t, app.db.Model(&model.File{}).Count(&count).Error)
	assert.Zero(t, count)

	image := app.upload(t, token)
	req := httptest.NewRequest(http.MethodGet, "/files/"+image.Path, nil)
	served := httptest.NewRecorder()
	app.e.ServeHTTP(served, req)
	assert.Equal(t, http.StatusOK, served.Code)
	assert.Equal(t, "image/png", served.Header().Get(echo.HeaderContentType))
}

func TestRequestBodiesAreCapped(t *testing.T) {
	app := newTestApp(t)
	_, token := app.signUp(t, "Organizer", "org@example.com")

	big := append(append([]byte{}, pngHeader...), make([]byte, 128<<10)...)
	rec := app.send(t, token, "huge.png", big)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)

	rec = app.do(t, http.MethodPost, "/api/meetups", token, map[string]interface{}{
		"title": string(bytes.Repeat([]byte("a"), 2<<20)),
	})
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestListMeetupsRejectsHugePage(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(t, http.MethodGet, "/api/meetups?page=1844674407370955162", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", decodeError(t, rec).Code)
}
