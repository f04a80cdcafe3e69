package services

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/girishiitm/synergysphere/internal/cache"
	"github.com/girishiitm/synergysphere/pkg/crypto"
	apperrors "github.com/girishiitm/synergysphere/pkg/errors"
	"github.com/girishiitm/synergysphere/pkg/mail"
	"github.com/girishiitm/synergysphere/pkg/metrics"
)

const (
	otpKeyPrefix         = "otp:"
	otpAttemptsKeyPrefix = "otpattempts:"

	defaultCodeExpiry  = 10 * time.Minute
	defaultCodeDigits  = 6
	defaultMaxAttempts = 3
)

// Verification purposes. The purpose is part of the storage key, so codes
// issued for one flow can never satisfy another.
const (
	PurposeRegistration = "registration"
)

var (
	// ErrCodeNotFound indicates no live code exists for the address.
	ErrCodeNotFound = errors.New("verification: code not found or expired")
	// ErrCodeMismatch indicates the submitted code is wrong.
	ErrCodeMismatch = errors.New("verification: code mismatch")
	// ErrTooManyAttempts signals the attempt budget is spent. The code stays in
	// the store until its TTL retires it, so further submissions keep getting
	// this error rather than ErrCodeNotFound.
	ErrTooManyAttempts = errors.New("verification: too many attempts")
)

// CodeMismatchError reports a wrong submission along with how many attempts
// are left before the budget is spent. It matches ErrCodeMismatch under
// errors.Is.
type CodeMismatchError struct {
	Remaining int
}

func (e *CodeMismatchError) Error() string {
	return fmt.Sprintf("verification: code mismatch (%d attempts remaining)", e.Remaining)
}

func (e *CodeMismatchError) Is(target error) bool {
	return target == ErrCodeMismatch
}

// VerificationOption customises the VerificationService.
type VerificationOption func(*VerificationService)

// WithCodeExpiry overrides the code lifetime.
func WithCodeExpiry(d time.Duration) VerificationOption {
	return func(s *VerificationService) {
		if d > 0 {
			s.expiry = d
		}
	}
}

// WithCodeDigits adjusts the length of generated codes.
func WithCodeDigits(digits int) VerificationOption {
	return func(s *VerificationService) {
		if digits > 0 {
			s.digits = digits
		}
	}
}

// WithMaxAttempts bounds how many wrong submissions a code survives.
func WithMaxAttempts(n int) VerificationOption {
	return func(s *VerificationService) {
		if n > 0 {
			s.maxAttempts = n
		}
	}
}

// WithVerificationClock injects a custom time source.
func WithVerificationClock(clock func() time.Time) VerificationOption {
	return func(s *VerificationService) {
		if clock != nil {
			s.now = clock
		}
	}
}

// VerificationService manages short-lived numeric codes delivered by email.
// Codes live exclusively in the key-value store; when the store is down the
// service reports unavailability rather than silently accepting or rejecting,
// since a code that was never durably stored can never be checked.
type VerificationService struct {
	store       cache.Store
	mailer      mail.Mailer
	expiry      time.Duration
	digits      int
	maxAttempts int
	now         func() time.Time
}

type verificationRecord struct {
	CodeHash string          `json:"code_hash"`
	Purpose  string          `json:"purpose"`
	IssuedAt time.Time       `json:"issued_at"`
	Payload  json.RawMessage `json:"payload,omitempty"`
}

// NewVerificationService constructs the service over the shared store.
func NewVerificationService(store cache.Store, mailer mail.Mailer, opts ...VerificationOption) (*VerificationService, error) {
	if store == nil {
		return nil, errors.New("verification service: store is required")
	}

	service := &VerificationService{
		store:       store,
		mailer:      mailer,
		expiry:      defaultCodeExpiry,
		digits:      defaultCodeDigits,
		maxAttempts: defaultMaxAttempts,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service, nil
}

// Issue generates a fresh code for the address, replacing any outstanding one
// and resetting the attempt counter. The payload is held alongside the code
// and returned on successful verification, which lets registration defer
// account creation until the address is proven. The code is emailed when a
// mailer is configured, and returned for the caller's logs and tests.
func (s *VerificationService) Issue(ctx context.Context, email, purpose string, payload json.RawMessage) (string, error) {
	ctx = ensureContext(ctx)
	email = normaliseEmail(email)
	if email == "" {
		return "", errors.New("verification service: email is required")
	}
	if strings.TrimSpace(purpose) == "" {
		return "", errors.New("verification service: purpose is required")
	}

	code, err := crypto.GenerateNumericCode(s.digits)
	if err != nil {
		return "", fmt.Errorf("verification service: generate code: %w", err)
	}

	record := verificationRecord{
		CodeHash: verificationHash(code),
		Purpose:  purpose,
		IssuedAt: s.now().UTC(),
		Payload:  payload,
	}
	data, err := json.Marshal(record)
	if err != nil {
		return "", fmt.Errorf("verification service: marshal record: %w", err)
	}

	if err := s.store.Set(ctx, s.codeKey(email, purpose), data, s.expiry); err != nil {
		return "", apperrors.ErrServiceUnavailable.WithInternal(err)
	}
	// A reissued code starts with a clean attempt budget.
	if err := s.store.Delete(ctx, s.attemptsKey(email, purpose)); err != nil {
		return "", apperrors.ErrServiceUnavailable.WithInternal(err)
	}

	if s.mailer != nil {
		message := mail.Message{
			To:      []string{email},
			Subject: "Your SynergySphere verification code",
			Body:    s.codeBody(code),
		}
		if mailErr := s.mailer.Send(ctx, message); mailErr != nil && !errors.Is(mailErr, mail.ErrSMTPDisabled) {
			return "", fmt.Errorf("verification service: send email: %w", mailErr)
		}
	}

	return code, nil
}

// Resend reissues a code for an address that already has one outstanding,
// carrying the original payload forward. Callers get ErrCodeNotFound when
// there is nothing to resend, so the endpoint cannot be used to probe or
// create codes for arbitrary addresses.
func (s *VerificationService) Resend(ctx context.Context, email, purpose string) (string, error) {
	ctx = ensureContext(ctx)
	email = normaliseEmail(email)

	data, found, err := s.store.Get(ctx, s.codeKey(email, purpose))
	if err != nil {
		return "", apperrors.ErrServiceUnavailable.WithInternal(err)
	}
	if !found {
		return "", ErrCodeNotFound
	}

	var record verificationRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return "", ErrCodeNotFound
	}

	return s.Issue(ctx, email, purpose, record.Payload)
}

// Verify checks a submitted code. On success the code is consumed and the
// payload captured at issue time is returned. Each submission burns one
// attempt through an atomic counter, and the budget is checked before the
// code is compared: once it is spent, even the correct code is refused with
// ErrTooManyAttempts until the code expires or is reissued.
func (s *VerificationService) Verify(ctx context.Context, email, purpose, code string) (json.RawMessage, error) {
	ctx = ensureContext(ctx)
	email = normaliseEmail(email)
	code = strings.TrimSpace(code)
	if email == "" || code == "" {
		return nil, ErrCodeMismatch
	}

	codeKey := s.codeKey(email, purpose)
	attemptsKey := s.attemptsKey(email, purpose)

	data, found, err := s.store.Get(ctx, codeKey)
	if err != nil {
		return nil, apperrors.ErrServiceUnavailable.WithInternal(err)
	}
	if !found {
		metrics.OTPVerifications.WithLabelValues("not_found").Inc()
		return nil, ErrCodeNotFound
	}

	var record verificationRecord
	if err := json.Unmarshal(data, &record); err != nil {
		// A corrupt record cannot be verified against; discard it.
		_ = s.store.Delete(ctx, codeKey, attemptsKey)
		return nil, ErrCodeNotFound
	}

	if s.now().UTC().After(record.IssuedAt.UTC().Add(s.expiry)) {
		_ = s.store.Delete(ctx, codeKey, attemptsKey)
		metrics.OTPVerifications.WithLabelValues("expired").Inc()
		return nil, ErrCodeNotFound
	}

	attempts, _, err := s.store.IncrementWithTTL(ctx, attemptsKey, s.expiry)
	if err != nil {
		return nil, apperrors.ErrServiceUnavailable.WithInternal(err)
	}
	if attempts > int64(s.maxAttempts) {
		metrics.OTPVerifications.WithLabelValues("exhausted").Inc()
		return nil, ErrTooManyAttempts
	}

	if subtle.ConstantTimeCompare([]byte(record.CodeHash), []byte(verificationHash(code))) != 1 {
		metrics.OTPVerifications.WithLabelValues("mismatch").Inc()
		return nil, &CodeMismatchError{Remaining: s.maxAttempts - int(attempts)}
	}

	// Single use: consume before reporting success.
	if err := s.store.Delete(ctx, codeKey, attemptsKey); err != nil {
		return nil, apperrors.ErrServiceUnavailable.WithInternal(err)
	}

	metrics.OTPVerifications.WithLabelValues("success").Inc()
	return record.Payload, nil
}

func (s *VerificationService) codeKey(email, purpose string) string {
	return otpKeyPrefix + purpose + ":" + email
}

func (s *VerificationService) attemptsKey(email, purpose string) string {
	return otpAttemptsKeyPrefix + purpose + ":" + email
}

func (s *VerificationService) codeBody(code string) string {
	minutes := int(s.expiry / time.Minute)
	return fmt.Sprintf("Your SynergySphere verification code is %s.\n\nIt expires in %d minutes. If you did not request this code, you can ignore this message.\n", code, minutes)
}

func verificationHash(value string) string {
	digest := sha256.Sum256([]byte(value))
	return hex.EncodeToString(digest[:])
}
