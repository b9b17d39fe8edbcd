package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"meetapp/docs"
	"meetapp/internal/auth"
	"meetapp/internal/cache"
	"meetapp/internal/config"
	"meetapp/internal/db"
	"meetapp/internal/handler"
	"meetapp/internal/queue"
	"meetapp/internal/repository"
	"meetapp/internal/router"
	"meetapp/internal/service"
)

// @title Meetapp API
// @version 1.0
// @description Meetup scheduling and booking API with JWT authentication.
// @host localhost:8080
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	cfg := config.Load()

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.RequestID())

	gormDB, err := db.Open(cfg)
	if err != nil {
		log.Fatalf("database init: %v", err)
	}

	if cfg.ResetDB {
		log.Println("RESET_DB=true detected, dropping all tables...")
		db.Reset(gormDB)
		log.Println("Tables dropped")
	}
	if err := db.Migrate(gormDB); err != nil {
		log.Fatalf("%v", err)
	}

	rdb := db.NewRedis(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	cacheClient := cache.New(rdb)
	jobQueue := queue.New(rdb)

	// Initialize repositories
	userRepo := repository.NewUserRepository(gormDB)
	fileRepo := repository.NewFileRepository(gormDB)
	meetupRepo := repository.NewMeetupRepository(gormDB)
	bookingRepo := repository.NewBookingRepository(gormDB)

	// Initialize auth components
	jwtService := auth.NewJWTService(cfg.JWTSecret)
	tokenStore := auth.NewTokenStore(cacheClient)

	// Initialize services
	authService := service.NewAuthService(userRepo, jwtService, tokenStore)
	userService := service.NewUserService(userRepo)
	fileService := service.NewFileService(fileRepo, cfg.UploadDir, cfg.AppURL)
	meetupService := service.NewMeetupService(meetupRepo, fileRepo, cacheClient, cfg.MeetupDateOffset)
	bookingService := service.NewBookingService(bookingRepo, meetupRepo, jobQueue)

	router.Register(e, cfg, jwtService, router.Handlers{
		Auth:    handler.NewAuthHandler(authService),
		User:    handler.NewUserHandler(userService),
		File:    handler.NewFileHandler(fileService),
		Meetup:  handler.NewMeetupHandler(meetupService),
		Booking: handler.NewBookingHandler(bookingService),
	})

	if cfg.SwaggerHost != "" {
		docs.SwaggerInfo.Host = strings.TrimPrefix(strings.TrimPrefix(cfg.SwaggerHost, "https://"), "http://")
	}
	log.Printf("Swagger documentation available at: %s/swagger/index.html", strings.TrimRight(cfg.AppURL, "/"))

	go func() {
		addr := ":" + cfg.ServerPort
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server start: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.Printf("server shutdown: %v", err)
	}
	// let in-flight notification submissions reach redis
	jobQueue.Wait()
	if err := rdb.Close(); err != nil {
		log.Printf("redis close: %v", err)
	}
}
