package jobs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"text/template"

	"meetapp/internal/mail"
	"meetapp/internal/service"
)

var bookingTemplate = template.Must(template.New("booking").Parse(
	`Hello {{.Organizer}},

{{.Attendee}} just booked a seat at "{{.Title}}".

When:  {{.Date}}
Where: {{.Location}}
`))

// BookingMail tells a meetup organizer that someone booked their meetup.
type BookingMail struct {
	mailer mail.Mailer
}

// NewBookingMail creates the job.
func NewBookingMail(mailer mail.Mailer) *BookingMail {
	return &BookingMail{mailer: mailer}
}

// Key returns the queue key.
func (j *BookingMail) Key() string {
	return service.BookingMailKey
}

// Handle renders and sends the email.
func (j *BookingMail) Handle(ctx context.Context, payload []byte) error {
	var p service.BookingMailPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	if p.Meetup == nil || p.Meetup.User == nil || p.Meetup.User.Email == "" {
		return fmt.Errorf("payload has no organizer")
	}

	var body bytes.Buffer
	err := bookingTemplate.Execute(&body, map[string]string{
		"Organizer": p.Meetup.User.Name,
		"Attendee":  p.User,
		"Title":     p.Meetup.Title,
		"Location":  p.Meetup.Location,
		"Date":      p.Meetup.Date.Format("Monday, January 2 2006 at 15:04 MST"),
	})
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}

	return j.mailer.Send(ctx, mail.Message{
		To:      p.Meetup.User.Email,
		Subject: "New booking",
		Body:    body.String(),
	})
}
