package models

import (
	"github.com/golang-jwt/jwt/v5"
)

// LoginRequest holds credentials for authenticating an athlete.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse returns the issued token and athlete info.
type LoginResponse struct {
	AccessToken string      `json:"access_token"`
	ExpiresIn   int64       `json:"expires_in"`
	Athlete     AthleteInfo `json:"athlete"`
}

// AthleteInfo describes the authenticated athlete in responses.
type AthleteInfo struct {
	ID       string        `json:"id"`
	Email    string        `json:"email"`
	FullName string        `json:"full_name"`
	Roles    []AthleteRole `json:"roles"`
}

// JWTClaims represents the JWT payload for access tokens. It is the
// resolved actor identity every workflow transition acts on behalf of.
type JWTClaims struct {
	AthleteID string        `json:"athlete_id"`
	Roles     []AthleteRole `json:"roles"`
	jwt.RegisteredClaims
}

// HasRole reports whether the claims carry the given role.
func (c *JWTClaims) HasRole(role AthleteRole) bool {
	if c == nil {
		return false
	}
	for _, r := range c.Roles {
		if r == role {
			return true
		}
	}
	return false
}
