package service

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/eduwang/tmssr-250809/internal/model"
)

var (
	ErrInvalidToken = errors.New("invalid or expired token")
	ErrNotAdmin     = errors.New("admin access required")
)

// AuthService issues and validates session tokens. Sign-in itself is
// delegated to the hosted identity provider; the server exchanges the
// provider profile for a JWT and gates the admin dashboard on a uid
// allow-list.
type AuthService struct {
	jwtSecret []byte
	adminUIDs map[string]struct{}
}

// NewAuthService creates a new auth service
func NewAuthService(jwtSecret string, adminUIDs []string) *AuthService {
	admins := make(map[string]struct{}, len(adminUIDs))
	for _, uid := range adminUIDs {
		admins[uid] = struct{}{}
	}
	return &AuthService{
		jwtSecret: []byte(jwtSecret),
		adminUIDs: admins,
	}
}

// Login exchanges an identity-provider profile for a session token
func (s *AuthService) Login(req model.LoginRequest) (*model.LoginResponse, error) {
	if req.UID == "" {
		return nil, errors.New("uid is required")
	}

	sessionID := "session_" + uuid.New().String()[:8]
	claims := &model.UserClaims{
		UID:         req.UID,
		DisplayName: req.DisplayName,
		Email:       req.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sessionID,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return nil, err
	}

	return &model.LoginResponse{
		Token:     tokenString,
		SessionID: sessionID,
		Admin:     s.IsAdmin(req.UID),
	}, nil
}

// ValidateToken validates a session JWT and returns its claims
func (s *AuthService) ValidateToken(tokenString string) (*model.UserClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &model.UserClaims{}, func(token *jwt.Token) (interface{}, error) {
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*model.UserClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// IsAdmin reports whether a uid is on the admin allow-list
func (s *AuthService) IsAdmin(uid string) bool {
	_, ok := s.adminUIDs[uid]
	return ok
}
