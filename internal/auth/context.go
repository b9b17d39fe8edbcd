package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	apperrors "meetapp/internal/errors"
)

// ContextKey is where the echo-jwt middleware stores the parsed token.
const ContextKey = "user"

// NewClaims is handed to echo-jwt so tokens decode into Claims.
func NewClaims(c echo.Context) jwt.Claims {
	return new(Claims)
}

// CurrentUser returns the identity of the authenticated caller.
func CurrentUser(c echo.Context) (Identity, error) {
	token, ok := c.Get(ContextKey).(*jwt.Token)
	if !ok {
		return Identity{}, apperrors.ErrUnauthenticated
	}
	claims, ok := token.Claims.(*Claims)
	// refresh tokens carry a jti and are not accepted as access tokens
	if !ok || claims.UserID == 0 || claims.ID != "" {
		return Identity{}, apperrors.ErrUnauthenticated
	}
	return claims.Identity(), nil
}
