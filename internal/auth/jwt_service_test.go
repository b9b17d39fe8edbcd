package auth

import (
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTService_AccessToken(t *testing.T) {
	svc := NewJWTService("test-secret")
	id := Identity{UserID: 3, Name: "Ada", Email: "ada@example.com"}

	token, err := svc.GenerateAccessToken(id)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, id, claims.Identity())
	assert.Empty(t, claims.ID)

	_, err = NewJWTService("other-secret").ValidateToken(token)
	assert.Error(t, err)
}

func TestJWTService_RefreshTokenCarriesID(t *testing.T) {
	svc := NewJWTService("test-secret")
	tokenID, token, err := svc.GenerateRefreshToken(Identity{UserID: 3})
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, tokenID, claims.ID)
}

func TestCurrentUser(t *testing.T) {
	e := echo.New()
	newCtx := func(token interface{}) echo.Context {
		c := e.NewContext(nil, nil)
		if token != nil {
			c.Set(ContextKey, token)
		}
		return c
	}

	_, err := CurrentUser(newCtx(nil))
	assert.Error(t, err)

	access := &jwt.Token{Claims: &Claims{UserID: 3, Name: "Ada"}}
	id, err := CurrentUser(newCtx(access))
	require.NoError(t, err)
	assert.Equal(t, uint(3), id.UserID)

	refresh := &jwt.Token{Claims: &Claims{UserID: 3, RegisteredClaims: jwt.RegisteredClaims{ID: "jti"}}}
	_, err = CurrentUser(newCtx(refresh))
	assert.Error(t, err)
}
