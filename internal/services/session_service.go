package services

import (
	"errors"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/randiv7/sohrel-sri-lanka-shop-sub001/internal/models"
	"github.com/randiv7/sohrel-sri-lanka-shop-sub001/internal/utils"
)

// SessionService issues and validates anonymous guest identity tokens.
type SessionService struct {
	db  *gorm.DB
	ttl time.Duration
}

// NewSessionService constructs SessionService.
func NewSessionService(db *gorm.DB, ttl time.Duration) *SessionService {
	return &SessionService{db: db, ttl: ttl}
}

// Create generates a fresh guest token and registers it with the visitor's
// IP and user agent. When the store is unavailable the token is still handed
// to the caller; the session stays usable client-side even without
// server-side tracking.
func (s *SessionService) Create(ip, userAgent string) (string, error) {
	token, err := utils.GenerateGuestToken()
	if err != nil {
		return "", err
	}

	session := models.GuestSession{
		Token:     token,
		IPAddress: ip,
		UserAgent: userAgent,
		ExpiresAt: time.Now().Add(s.ttl),
	}

	if err := s.db.Create(&session).Error; err != nil {
		log.Printf("[Session] Registration failed, returning unregistered token: %v", err)
	}

	return token, nil
}

// Validate checks a guest token. Tokens failing the format check are rejected
// without touching the store. When the store is unreachable the token is
// treated as valid: availability over strictness.
func (s *SessionService) Validate(token string) bool {
	if !utils.ValidTokenFormat(token) {
		return false
	}

	var session models.GuestSession
	err := s.db.Where("token = ? AND expires_at > ?", token, time.Now()).First(&session).Error
	if err == nil {
		return true
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false
	}

	log.Printf("[Session] Validation lookup failed, failing open: %v", err)
	return true
}
