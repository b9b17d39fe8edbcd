package errors

import (
	"errors"
	"net/http"
)

var (
	// ErrValidation is returned when a request body or query fails schema checks.
	ErrValidation = errors.New("validation fails")
	// ErrPastDate is returned when a meetup date is not in the future.
	ErrPastDate = errors.New("past dates are not permitted")
	// ErrPastMeetup is returned when booking a meetup that already happened.
	ErrPastMeetup = errors.New("meetup already happened")
	// ErrImmutable is returned when modifying a meetup that already happened.
	ErrImmutable = errors.New("past meetups cannot be modified")
	// ErrForbidden is returned when the caller does not own the resource.
	ErrForbidden = errors.New("you are not authorized")
	// ErrMeetupNotFound is returned when a meetup does not exist.
	ErrMeetupNotFound = errors.New("meetup not found")
	// ErrBookingNotFound is returned when a booking does not exist.
	ErrBookingNotFound = errors.New("booking not found")
	// ErrFileNotFound is returned when an image does not exist.
	ErrFileNotFound = errors.New("file not found")
	// ErrUserNotFound is returned when a user does not exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrAlreadyBooked is returned when the user already booked the meetup.
	ErrAlreadyBooked = errors.New("already booked for this meetup")
	// ErrTimeConflict is returned when the user is booked into another meetup at the same time.
	ErrTimeConflict = errors.New("already booked for another meetup at the same time")

	// ErrInvalidCredentials is returned when email or password is incorrect.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrUserAlreadyExists is returned when trying to register an existing email.
	ErrUserAlreadyExists = errors.New("user already exists")
	// ErrInvalidRefreshToken is returned when refresh token is invalid or expired.
	ErrInvalidRefreshToken = errors.New("invalid or expired refresh token")
	// ErrUnauthenticated is returned when a request carries no usable identity.
	ErrUnauthenticated = errors.New("authentication required")
)

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTP error.
func NewHTTPError(statusCode int, message, code string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
		Code:       code,
	}
}

// ToErrorResponse converts an HTTPError to ErrorResponse.
func (e *HTTPError) ToErrorResponse() ErrorResponse {
	return ErrorResponse{
		Error: e.Message,
		Code:  e.Code,
	}
}

var mappings = []struct {
	err    error
	status int
	code   string
}{
	{ErrValidation, http.StatusBadRequest, "VALIDATION_ERROR"},
	{ErrPastDate, http.StatusBadRequest, "PAST_DATE"},
	{ErrPastMeetup, http.StatusUnauthorized, "PAST_MEETUP"},
	{ErrImmutable, http.StatusUnauthorized, "IMMUTABLE_MEETUP"},
	{ErrForbidden, http.StatusUnauthorized, "FORBIDDEN"},
	{ErrMeetupNotFound, http.StatusNotFound, "MEETUP_NOT_FOUND"},
	{ErrBookingNotFound, http.StatusNotFound, "BOOKING_NOT_FOUND"},
	{ErrFileNotFound, http.StatusNotFound, "FILE_NOT_FOUND"},
	{ErrUserNotFound, http.StatusNotFound, "USER_NOT_FOUND"},
	{ErrAlreadyBooked, http.StatusUnauthorized, "ALREADY_BOOKED"},
	{ErrTimeConflict, http.StatusUnauthorized, "TIME_CONFLICT"},
	{ErrInvalidCredentials, http.StatusUnauthorized, "INVALID_CREDENTIALS"},
	{ErrUserAlreadyExists, http.StatusConflict, "USER_ALREADY_EXISTS"},
	{ErrInvalidRefreshToken, http.StatusUnauthorized, "INVALID_REFRESH_TOKEN"},
	{ErrUnauthenticated, http.StatusUnauthorized, "UNAUTHENTICATED"},
}

// MapErrorToHTTP maps domain errors to HTTP errors.
// Wrapped errors keep their domain message so callers see e.g. which field failed validation.
func MapErrorToHTTP(err error) *HTTPError {
	for _, m := range mappings {
		if errors.Is(err, m.err) {
			return NewHTTPError(m.status, err.Error(), m.code)
		}
	}
	return NewHTTPError(http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR")
}
