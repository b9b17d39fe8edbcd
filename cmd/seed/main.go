package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"log"
	"time"

	"meetapp/internal/auth"
	"meetapp/internal/cache"
	"meetapp/internal/config"
	"meetapp/internal/db"
	"meetapp/internal/errors"
	"meetapp/internal/model"
	"meetapp/internal/repository"
	"meetapp/internal/service"
)

type seedUser struct {
	Name     string
	Email    string
	Password string
}

type seedMeetup struct {
	Title       string
	Description string
	Location    string
	InDays      int
	Hour        int
	Organizer   int
}

var users = []seedUser{
	{Name: "Ada Organizer", Email: "ada@meetapp.com", Password: "123456"},
	{Name: "Linus Attendee", Email: "linus@meetapp.com", Password: "123456"},
}

var meetups = []seedMeetup{
	{Title: "Go Meetup", Description: "Talks about concurrency patterns.", Location: "Main Street 42", InDays: 1, Hour: 19, Organizer: 0},
	{Title: "Databases Night", Description: "Indexes, locks and transactions.", Location: "Library Hall", InDays: 3, Hour: 18, Organizer: 0},
	{Title: "Frontend Friday", Description: "Lightning talks.", Location: "Co-working 7", InDays: 5, Hour: 20, Organizer: 1},
}

func main() {
	log.Println("Starting seed script...")

	cfg := config.Load()

	gormDB, err := db.Open(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	log.Println("Connected to database")

	if err := db.Migrate(gormDB); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Database migrations completed")

	ctx := context.Background()
	userRepo := repository.NewUserRepository(gormDB)
	fileRepo := repository.NewFileRepository(gormDB)
	meetupRepo := repository.NewMeetupRepository(gormDB)
	authService := service.NewAuthService(userRepo, auth.NewJWTService(cfg.JWTSecret), auth.NewTokenStore(cache.New(nil)))

	ids, err := seedUsers(ctx, authService, userRepo)
	if err != nil {
		log.Fatalf("Failed to seed users: %v", err)
	}

	image := &model.File{Name: "placeholder.png", Path: fmt.Sprintf("seed-%d.png", time.Now().Unix())}
	image.URL = cfg.AppURL + "/files/" + image.Path
	if err := fileRepo.Create(ctx, image); err != nil {
		log.Fatalf("Failed to create placeholder image: %v", err)
	}

	today := time.Now().UTC().Truncate(24 * time.Hour)
	for _, m := range meetups {
		meetup := &model.Meetup{
			Title:       m.Title,
			Description: m.Description,
			Location:    m.Location,
			Date:        today.AddDate(0, 0, m.InDays).Add(time.Duration(m.Hour) * time.Hour),
			ImageID:     image.ID,
			UserID:      ids[m.Organizer],
		}
		if err := meetupRepo.Create(ctx, meetup); err != nil {
			log.Fatalf("Failed to create meetup %q: %v", m.Title, err)
		}
	}

	log.Printf("Seed completed successfully!")
	log.Printf("  - Users available: %d", len(ids))
	log.Printf("  - Meetups created: %d", len(meetups))
}

// seedUsers registers the demo users, reusing the ones that already exist.
func seedUsers(ctx context.Context, authService service.AuthService, repo repository.UserRepository) ([]uint, error) {
	ids := make([]uint, 0, len(users))
	for _, u := range users {
		created, err := authService.Register(ctx, u.Name, u.Email, u.Password)
		if stderrors.Is(err, errors.ErrUserAlreadyExists) {
			existing, ferr := repo.FindByEmail(ctx, u.Email)
			if ferr != nil {
				return nil, fmt.Errorf("load user %s: %w", u.Email, ferr)
			}
			ids = append(ids, existing.ID)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("register user %s: %w", u.Email, err)
		}
		ids = append(ids, created.ID)
	}
	return ids, nil
}
