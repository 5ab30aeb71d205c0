// Package middleware provides authentication, logging, rate limiting and tracing middleware.
package middleware

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// TokenTTL is the lifetime of issued access tokens.
const TokenTTL = 24 * time.Hour

// TokenConfig carries the JWT signing parameters.
type TokenConfig struct {
	Secret   string
	Issuer   string
	Audience string
}

var (
	errMissingToken   = errors.New("authorization required")
	errInvalidToken   = errors.New("invalid or expired token")
	errInvalidSubject = errors.New("invalid user ID in token")
)

// IssueToken signs an HS256 access token whose subject is the user ID.
func IssueToken(tc TokenConfig, userID uint, now time.Time) (string, error) {
	claims := jwt.MapClaims{
		"sub": strconv.FormatUint(uint64(userID), 10),
		"iss": tc.Issuer,
		"aud": tc.Audience,
		"iat": now.Unix(),
		"exp": now.Add(TokenTTL).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(tc.Secret))
}

// ParseToken validates the token signature, expiry, issuer and audience
// and returns the user ID carried in the subject claim.
func ParseToken(tc TokenConfig, tokenString string) (uint, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errInvalidToken
		}
		return []byte(tc.Secret), nil
	},
		jwt.WithIssuer(tc.Issuer),
		jwt.WithAudience(tc.Audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return 0, errInvalidToken
	}

	sub, err := token.Claims.GetSubject()
	if err != nil || sub == "" {
		return 0, errInvalidSubject
	}
	userID, err := strconv.ParseUint(sub, 10, 32)
	if err != nil || userID == 0 {
		return 0, errInvalidSubject
	}
	return uint(userID), nil
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header.
func BearerToken(c *fiber.Ctx) (string, error) {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return "", errMissingToken
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", errInvalidToken
	}
	return parts[1], nil
}

// UserIDFromLocals returns the authenticated user ID set by the auth middleware.
func UserIDFromLocals(c *fiber.Ctx) (uint, bool) {
	id, ok := c.Locals("userID").(uint)
	return id, ok && id != 0
}
