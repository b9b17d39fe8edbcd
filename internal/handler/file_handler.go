package handler

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"meetapp/internal/errors"
	"meetapp/internal/service"
)

// FileHandler handles image uploads.
type FileHandler struct {
	fileService service.FileService
}

// NewFileHandler creates a new file handler.
func NewFileHandler(fileService service.FileService) *FileHandler {
	return &FileHandler{fileService: fileService}
}

// Upload godoc
// @Summary Upload a meetup image
// @Tags files
// @Accept mpfd
// @Produce json
// @Security BearerAuth
// @Param file formData file true "Image"
// @Success 200 {object} model.File
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /files [post]
func (h *FileHandler) Upload(c echo.Context) error {
	header, err := c.FormFile("file")
	if err != nil {
		return respondError(fmt.Errorf("%w: file is required", errors.ErrValidation))
	}
	src, err := header.Open()
	if err != nil {
		return respondError(fmt.Errorf("open upload: %w", err))
	}
	defer src.Close()

	file, err := h.fileService.Save(c.Request().Context(), header.Filename, src)
	if err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusOK, file)
}
