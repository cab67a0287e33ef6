package model

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// UserClaims are JWT claims for a signed-in learner or admin session.
// The profile fields mirror what the hosted identity provider exposes.
type UserClaims struct {
	UID         string `json:"uid"`
	DisplayName string `json:"displayName"`
	Email       string `json:"email"`
	jwt.RegisteredClaims
}

// LoginRequest exchanges an identity-provider profile for a session token
type LoginRequest struct {
	UID         string `json:"uid"`
	DisplayName string `json:"displayName"`
	Email       string `json:"email"`
}

// LoginResponse is returned after a successful exchange
type LoginResponse struct {
	Token     string `json:"token"`
	SessionID string `json:"sessionId"`
	Admin     bool   `json:"admin"`
}

// LoginSession records one issued session for visibility while the
// token is live
type LoginSession struct {
	ID          string    `json:"id"`
	UID         string    `json:"uid"`
	DisplayName string    `json:"displayName"`
	Admin       bool      `json:"admin"`
	IssuedAt    time.Time `json:"issuedAt"`
}
