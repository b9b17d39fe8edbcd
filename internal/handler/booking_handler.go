package handler

import (
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"

	"meetapp/internal/auth"
	"meetapp/internal/model"
	"meetapp/internal/service"
)

// BookingHandler handles booking endpoints.
type BookingHandler struct {
	bookingService service.BookingService
}

// NewBookingHandler creates a new booking handler.
func NewBookingHandler(bookingService service.BookingService) *BookingHandler {
	return &BookingHandler{bookingService: bookingService}
}

// CreateBookingRequest represents a booking request.
type CreateBookingRequest struct {
	MeetupID json.Number `json:"meetup_id" validate:"required"`
}

// BookingResponse wraps a single booking.
type BookingResponse struct {
	Booking *model.Booking `json:"booking"`
}

// BookingsResponse wraps a list of bookings.
type BookingsResponse struct {
	Bookings []model.Booking `json:"bookings"`
}

// Create godoc
// @Summary Book a meetup
// @Description Fails for past meetups, duplicate bookings and bookings at the same time as another one.
// @Tags bookings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateBookingRequest true "Meetup to book"
// @Success 200 {object} BookingResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /bookings [post]
func (h *BookingHandler) Create(c echo.Context) error {
	user, err := auth.CurrentUser(c)
	if err != nil {
		return respondError(err)
	}

	var req CreateBookingRequest
	if err := bindEnvelope(c, "booking", &req); err != nil {
		return respondError(err)
	}
	if err := validate(c, &req); err != nil {
		return respondError(err)
	}
	meetupID, err := numberID(req.MeetupID, "meetup_id")
	if err != nil {
		return respondError(err)
	}

	booking, err := h.bookingService.Create(c.Request().Context(), user.UserID, user.Name, meetupID)
	if err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusOK, BookingResponse{Booking: booking})
}

// List godoc
// @Summary List the caller's bookings made on a day
// @Tags bookings
// @Produce json
// @Security BearerAuth
// @Param date query string false "Day (YYYY-MM-DD or RFC3339), defaults to today"
// @Success 200 {object} BookingsResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /bookings [get]
func (h *BookingHandler) List(c echo.Context) error {
	user, err := auth.CurrentUser(c)
	if err != nil {
		return respondError(err)
	}
	bookings, err := h.bookingService.ListByDay(c.Request().Context(), user.UserID, c.QueryParam("date"))
	if err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusOK, BookingsResponse{Bookings: bookings})
}

// ListUpcoming godoc
// @Summary List the caller's upcoming bookings
// @Tags bookings
// @Produce json
// @Security BearerAuth
// @Success 200 {object} BookingsResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /subscriptions [get]
func (h *BookingHandler) ListUpcoming(c echo.Context) error {
	user, err := auth.CurrentUser(c)
	if err != nil {
		return respondError(err)
	}
	bookings, err := h.bookingService.ListUpcoming(c.Request().Context(), user.UserID)
	if err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusOK, BookingsResponse{Bookings: bookings})
}

// Delete godoc
// @Summary Cancel a booking
// @Tags bookings
// @Produce json
// @Security BearerAuth
// @Param id path int true "Booking ID"
// @Success 200 {object} MessageResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /bookings/{id} [delete]
func (h *BookingHandler) Delete(c echo.Context) error {
	user, err := auth.CurrentUser(c)
	if err != nil {
		return respondError(err)
	}
	bookingID, err := pathID(c, "id")
	if err != nil {
		return respondError(err)
	}
	if err := h.bookingService.Delete(c.Request().Context(), user.UserID, bookingID); err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: "Booking removed successfully"})
}
