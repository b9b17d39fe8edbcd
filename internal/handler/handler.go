package handler

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"meetapp/internal/errors"
)

// MessageResponse is returned by delete endpoints.
type MessageResponse struct {
	Message string `json:"message"`
}

// respondError converts a service error into an echo HTTP error. Unexpected
// errors keep their cause as the internal error so the request log shows it.
func respondError(err error) error {
	httpErr := errors.MapErrorToHTTP(err)
	he := echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	if httpErr.StatusCode >= http.StatusInternalServerError {
		he = he.SetInternal(err)
	}
	return he
}

// validate runs the echo validator and tags failures as validation errors.
func validate(c echo.Context, req interface{}) error {
	if err := c.Validate(req); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrValidation, err)
	}
	return nil
}

// pathID parses a positive numeric path parameter.
func pathID(c echo.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("%w: invalid %s", errors.ErrValidation, name)
	}
	return uint(id), nil
}

// numberID parses an id sent as a JSON number or numeric string.
func numberID(n json.Number, field string) (uint, error) {
	id, err := strconv.ParseUint(n.String(), 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("%w: invalid %s", errors.ErrValidation, field)
	}
	return uint(id), nil
}

// bindEnvelope decodes the request body into dst, unwrapping an optional
// {"<name>": {...}} envelope.
func bindEnvelope(c echo.Context, name string, dst interface{}) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return fmt.Errorf("%w: unreadable body", errors.ErrValidation)
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return fmt.Errorf("%w: invalid JSON body", errors.ErrValidation)
	}
	if inner, ok := envelope[name]; ok && string(inner) != "null" {
		body = inner
	}

	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrValidation, err)
	}
	return nil
}
