package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"meetapp/internal/config"
	"meetapp/internal/db"
	"meetapp/internal/jobs"
	"meetapp/internal/mail"
	"meetapp/internal/queue"
)

func main() {
	cfg := config.Load()

	var mailer mail.Mailer = mail.LogMailer{}
	if cfg.SMTPHost != "" {
		mailer = mail.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.MailFrom)
	} else {
		log.Println("SMTP_HOST not set, emails will be logged")
	}

	rdb := db.NewRedis(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer rdb.Close()

	q := queue.New(rdb, jobs.NewBookingMail(mailer))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Println("Worker started")
	if err := q.Process(ctx); err != nil {
		log.Fatalf("worker: %v", err)
	}
	log.Println("Worker stopped")
}
