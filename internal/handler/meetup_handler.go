package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"meetapp/internal/auth"
	"meetapp/internal/errors"
	"meetapp/internal/model"
	"meetapp/internal/service"
)

// MeetupHandler handles meetup endpoints.
type MeetupHandler struct {
	meetupService service.MeetupService
}

// NewMeetupHandler creates a new meetup handler.
func NewMeetupHandler(meetupService service.MeetupService) *MeetupHandler {
	return &MeetupHandler{meetupService: meetupService}
}

// CreateMeetupRequest represents a new meetup. It may also be sent wrapped as {"meetup": {...}}.
type CreateMeetupRequest struct {
	Title       string      `json:"title" validate:"required"`
	Description string      `json:"description" validate:"required"`
	Location    string      `json:"location" validate:"required"`
	Date        string      `json:"date" validate:"required"`
	ImageID     json.Number `json:"image_id" validate:"required"`
}

// UpdateMeetupRequest represents a partial meetup update.
type UpdateMeetupRequest struct {
	Title       *string      `json:"title"`
	Description *string      `json:"description"`
	Location    *string      `json:"location"`
	Date        *string      `json:"date"`
	ImageID     *json.Number `json:"image_id"`
}

// MeetupResponse wraps a single meetup.
type MeetupResponse struct {
	Meetup *model.Meetup `json:"meetup"`
}

// MeetupsResponse wraps a page of meetups.
type MeetupsResponse struct {
	Meetups []model.Meetup `json:"meetups"`
}

// Create godoc
// @Summary Create a meetup
// @Tags meetups
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateMeetupRequest true "Meetup data"
// @Success 200 {object} MeetupResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /meetups [post]
func (h *MeetupHandler) Create(c echo.Context) error {
	user, err := auth.CurrentUser(c)
	if err != nil {
		return respondError(err)
	}

	var req CreateMeetupRequest
	if err := bindEnvelope(c, "meetup", &req); err != nil {
		return respondError(err)
	}
	if err := validate(c, &req); err != nil {
		return respondError(err)
	}
	imageID, err := numberID(req.ImageID, "image_id")
	if err != nil {
		return respondError(err)
	}

	meetup, err := h.meetupService.Create(c.Request().Context(), user.UserID, service.CreateMeetupInput{
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		Date:        req.Date,
		ImageID:     imageID,
	})
	if err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusOK, MeetupResponse{Meetup: meetup})
}

// Update godoc
// @Summary Update a meetup
// @Description Only the organizer may update, and only before the meetup happens.
// @Tags meetups
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Meetup ID"
// @Param request body UpdateMeetupRequest true "Fields to change"
// @Success 200 {object} MeetupResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /meetups/{id} [put]
func (h *MeetupHandler) Update(c echo.Context) error {
	user, err := auth.CurrentUser(c)
	if err != nil {
		return respondError(err)
	}
	meetupID, err := pathID(c, "id")
	if err != nil {
		return respondError(err)
	}

	var req UpdateMeetupRequest
	if err := bindEnvelope(c, "meetup", &req); err != nil {
		return respondError(err)
	}

	in := service.UpdateMeetupInput{
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		Date:        req.Date,
	}
	if req.ImageID != nil {
		imageID, err := numberID(*req.ImageID, "image_id")
		if err != nil {
			return respondError(err)
		}
		in.ImageID = &imageID
	}

	meetup, err := h.meetupService.Update(c.Request().Context(), user.UserID, meetupID, in)
	if err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusOK, MeetupResponse{Meetup: meetup})
}

// List godoc
// @Summary List meetups on a day
// @Tags meetups
// @Produce json
// @Param date query string false "Day (YYYY-MM-DD or RFC3339), defaults to today"
// @Param page query int false "Page number, 10 meetups per page"
// @Success 200 {object} MeetupsResponse
// @Failure 400 {object} errors.ErrorResponse
// @Router /meetups [get]
func (h *MeetupHandler) List(c echo.Context) error {
	page := 1
	if raw := c.QueryParam("page"); raw != "" {
		p, err := strconv.Atoi(raw)
		if err != nil {
			return respondError(fmt.Errorf("%w: invalid page", errors.ErrValidation))
		}
		page = p
	}

	meetups, err := h.meetupService.ListByDay(c.Request().Context(), c.QueryParam("date"), page)
	if err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusOK, MeetupsResponse{Meetups: meetups})
}

// ListOwned godoc
// @Summary List meetups organized by the caller
// @Tags meetups
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.Meetup
// @Failure 401 {object} errors.ErrorResponse
// @Router /organizing [get]
func (h *MeetupHandler) ListOwned(c echo.Context) error {
	user, err := auth.CurrentUser(c)
	if err != nil {
		return respondError(err)
	}
	meetups, err := h.meetupService.ListOwned(c.Request().Context(), user.UserID)
	if err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusOK, meetups)
}

// Delete godoc
// @Summary Delete a meetup
// @Description Removes the meetup and every booking for it.
// @Tags meetups
// @Produce json
// @Security BearerAuth
// @Param id path int true "Meetup ID"
// @Success 200 {object} MessageResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /meetups/{id} [delete]
func (h *MeetupHandler) Delete(c echo.Context) error {
	user, err := auth.CurrentUser(c)
	if err != nil {
		return respondError(err)
	}
	meetupID, err := pathID(c, "id")
	if err != nil {
		return respondError(err)
	}

	meetup, err := h.meetupService.Delete(c.Request().Context(), user.UserID, meetupID)
	if err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusOK, MessageResponse{
		Message: fmt.Sprintf("Meetup '%s' removed successfully", meetup.Title),
	})
}
