package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/girishiitm/synergysphere/internal/cache"
	"github.com/girishiitm/synergysphere/pkg/crypto"
	apperrors "github.com/girishiitm/synergysphere/pkg/errors"
	"github.com/girishiitm/synergysphere/pkg/mail"
)

const (
	resetTokenKeyPrefix = "pwreset:"
	resetUserKeyPrefix  = "pwresetuser:"

	defaultResetExpiry     = time.Hour
	defaultResetTokenBytes = 64
)

var (
	// ErrResetTokenInvalid covers unknown, expired, and superseded tokens alike
	// so callers cannot distinguish which a guessed token was.
	ErrResetTokenInvalid = errors.New("password reset: invalid or expired token")
)

// ResetOption customises the PasswordResetService.
type ResetOption func(*PasswordResetService)

// WithResetExpiry overrides the token lifetime.
func WithResetExpiry(d time.Duration) ResetOption {
	return func(s *PasswordResetService) {
		if d > 0 {
			s.expiry = d
		}
	}
}

// WithResetBaseURL sets the base URL used in reset links.
func WithResetBaseURL(url string) ResetOption {
	return func(s *PasswordResetService) {
		s.baseURL = strings.TrimRight(url, "/")
	}
}

// WithResetClock injects a custom time source.
func WithResetClock(clock func() time.Time) ResetOption {
	return func(s *PasswordResetService) {
		if clock != nil {
			s.now = clock
		}
	}
}

// PasswordResetService issues and consumes single-use password reset tokens.
// Tokens live only in the key-value store; issuing a new token for a user
// supersedes any outstanding one.
type PasswordResetService struct {
	store   cache.Store
	mailer  mail.Mailer
	baseURL string
	expiry  time.Duration
	now     func() time.Time
}

type resetRecord struct {
	UserID   string    `json:"user_id"`
	Email    string    `json:"email"`
	IssuedAt time.Time `json:"issued_at"`
}

// NewPasswordResetService constructs the service over the shared store.
func NewPasswordResetService(store cache.Store, mailer mail.Mailer, opts ...ResetOption) (*PasswordResetService, error) {
	if store == nil {
		return nil, errors.New("password reset service: store is required")
	}

	service := &PasswordResetService{
		store:  store,
		mailer: mailer,
		expiry: defaultResetExpiry,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service, nil
}

// Issue creates a reset token for the user, invalidating any previous one, and
// dispatches the reset email when a mailer is configured. The raw token is
// returned; only its hash is ever stored.
func (s *PasswordResetService) Issue(ctx context.Context, userID, email string) (string, error) {
	ctx = ensureContext(ctx)
	userID = strings.TrimSpace(userID)
	email = normaliseEmail(email)
	if userID == "" {
		return "", errors.New("password reset service: user id is required")
	}
	if email == "" {
		return "", errors.New("password reset service: email is required")
	}

	token, err := crypto.GenerateToken(defaultResetTokenBytes)
	if err != nil {
		return "", fmt.Errorf("password reset service: generate token: %w", err)
	}
	tokenHash := verificationHash(token)

	record := resetRecord{
		UserID:   userID,
		Email:    email,
		IssuedAt: s.now().UTC(),
	}
	data, err := json.Marshal(record)
	if err != nil {
		return "", fmt.Errorf("password reset service: marshal record: %w", err)
	}

	// Supersede: drop the user's previous token before storing the new one.
	pointerKey := resetUserKeyPrefix + userID
	if previous, found, getErr := s.store.Get(ctx, pointerKey); getErr != nil {
		return "", apperrors.ErrServiceUnavailable.WithInternal(getErr)
	} else if found {
		if delErr := s.store.Delete(ctx, resetTokenKeyPrefix+string(previous)); delErr != nil {
			return "", apperrors.ErrServiceUnavailable.WithInternal(delErr)
		}
	}

	if err := s.store.Set(ctx, resetTokenKeyPrefix+tokenHash, data, s.expiry); err != nil {
		return "", apperrors.ErrServiceUnavailable.WithInternal(err)
	}
	if err := s.store.Set(ctx, pointerKey, []byte(tokenHash), s.expiry); err != nil {
		return "", apperrors.ErrServiceUnavailable.WithInternal(err)
	}

	if s.mailer != nil {
		message := mail.Message{
			To:      []string{email},
			Subject: "Reset your SynergySphere password",
			Body:    s.resetBody(token),
		}
		if mailErr := s.mailer.Send(ctx, message); mailErr != nil && !errors.Is(mailErr, mail.ErrSMTPDisabled) {
			return "", fmt.Errorf("password reset service: send email: %w", mailErr)
		}
	}

	return token, nil
}

// Consume validates a token and removes it, returning the user it was issued
// for. A token can be consumed exactly once.
func (s *PasswordResetService) Consume(ctx context.Context, token string) (string, error) {
	ctx = ensureContext(ctx)
	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrResetTokenInvalid
	}

	tokenHash := verificationHash(token)
	data, found, err := s.store.Get(ctx, resetTokenKeyPrefix+tokenHash)
	if err != nil {
		return "", apperrors.ErrServiceUnavailable.WithInternal(err)
	}
	if !found {
		return "", ErrResetTokenInvalid
	}

	var record resetRecord
	if err := json.Unmarshal(data, &record); err != nil {
		_ = s.store.Delete(ctx, resetTokenKeyPrefix+tokenHash)
		return "", ErrResetTokenInvalid
	}

	if s.now().UTC().After(record.IssuedAt.UTC().Add(s.expiry)) {
		_ = s.store.Delete(ctx, resetTokenKeyPrefix+tokenHash, resetUserKeyPrefix+record.UserID)
		return "", ErrResetTokenInvalid
	}

	if err := s.store.Delete(ctx, resetTokenKeyPrefix+tokenHash, resetUserKeyPrefix+record.UserID); err != nil {
		return "", apperrors.ErrServiceUnavailable.WithInternal(err)
	}

	return record.UserID, nil
}

func (s *PasswordResetService) resetBody(token string) string {
	link := token
	if s.baseURL != "" {
		link = fmt.Sprintf("%s?token=%s", s.baseURL, token)
	}
	minutes := int(s.expiry / time.Minute)
	return fmt.Sprintf("A password reset was requested for your SynergySphere account.\n\nUse the link below within %d minutes to choose a new password:\n%s\n\nIf you did not request this, your password is unchanged and you can ignore this message.\n", minutes, link)
}
