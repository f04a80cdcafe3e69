package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/girishiitm/synergysphere/internal/api"
	iauth "github.com/girishiitm/synergysphere/internal/auth"
	"github.com/girishiitm/synergysphere/internal/cache"
	sharedtestutil "github.com/girishiitm/synergysphere/internal/database/testutil"
	"github.com/girishiitm/synergysphere/internal/middleware"
	"github.com/girishiitm/synergysphere/internal/models"
	"github.com/girishiitm/synergysphere/pkg/crypto"
	"github.com/girishiitm/synergysphere/pkg/mail"
	"github.com/girishiitm/synergysphere/pkg/response"
)

// Env encapsulates a fully-wired API instance backed by an in-memory database
// and an in-memory key-value store for handler tests.
type Env struct {
	T      *testing.T
	DB     *gorm.DB
	Store  *cache.MemoryStore
	Router *gin.Engine
	JWT    *iauth.JWTService
	Mailer *CapturingMailer
}

// NewEnv provisions a fresh handler test environment with migrations applied.
func NewEnv(t *testing.T) *Env {
	t.Helper()

	gin.SetMode(gin.TestMode)

	db := sharedtestutil.MustOpenTestDB(t, sharedtestutil.WithAutoMigrate())

	jwtSvc, err := iauth.NewJWTService(iauth.JWTConfig{
		Secret:          "test-suite-super-secret-key-32-bytes!!",
		Issuer:          "test-suite",
		AccessTokenTTL:  time.Hour,
		RefreshTokenTTL: 24 * time.Hour,
	})
	require.NoError(t, err)

	store := cache.NewMemoryStore()
	mailer := &CapturingMailer{}

	router, err := api.NewRouter(db, store, jwtSvc, api.Options{
		Mailer:    mailer,
		RateStore: middleware.NewMemoryRateStore(),
	})
	require.NoError(t, err)

	return &Env{
		T:      t,
		DB:     db,
		Store:  store,
		Router: router,
		JWT:    jwtSvc,
		Mailer: mailer,
	}
}

// CapturingMailer records outbound messages so tests can read the codes and
// tokens they carry.
type CapturingMailer struct {
	mu       sync.Mutex
	Messages []mail.Message
}

func (m *CapturingMailer) Send(_ context.Context, msg mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Messages = append(m.Messages, msg)
	return nil
}

// CreateUser inserts an active user and returns the record.
func (e *Env) CreateUser(password string) *models.User {
	e.T.Helper()

	username := "user-" + uuid.NewString()[:8]
	hashed, err := crypto.HashPassword(password)
	require.NoError(e.T, err)

	user := &models.User{
		Username: username,
		Email:    username + "@example.com",
		Password: hashed,
	}
	require.NoError(e.T, e.DB.Create(user).Error)
	return user
}

// CreateAdmin inserts an active admin user and returns the record.
func (e *Env) CreateAdmin(password string) *models.User {
	e.T.Helper()

	user := e.CreateUser(password)
	require.NoError(e.T, e.DB.Model(user).Update("is_admin", true).Error)
	user.IsAdmin = true
	return user
}

// TokenPair mirrors the token payload returned by the auth endpoints.
type TokenPair struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// LoginResult bundles the JSON response from POST /api/auth/login.
type LoginResult struct {
	Tokens TokenPair       `json:"tokens"`
	User   json.RawMessage `json:"user"`
}

// Login authenticates with email and password and returns the issued tokens.
func (e *Env) Login(email, password string) LoginResult {
	e.T.Helper()

	payload := map[string]string{
		"email":    email,
		"password": password,
	}

	w := e.Request(http.MethodPost, "/api/auth/login", payload, "")
	require.Equal(e.T, http.StatusOK, w.Code, w.Body.String())

	resp := DecodeResponse(e.T, w)
	require.True(e.T, resp.Success, w.Body.String())

	var result LoginResult
	DecodeInto(e.T, resp.Data, &result)
	require.NotEmpty(e.T, result.Tokens.AccessToken)
	require.NotEmpty(e.T, result.Tokens.RefreshToken)

	return result
}

// APIResponse represents the canonical API envelope returned by handlers.
type APIResponse struct {
	Success bool                `json:"success"`
	Data    json.RawMessage     `json:"data"`
	Error   *response.ErrorInfo `json:"error"`
	Meta    *response.Meta      `json:"meta"`
}

// DecodeResponse parses the standard API response object from a recorder.
func DecodeResponse(t *testing.T, w *httptest.ResponseRecorder) APIResponse {
	t.Helper()
	var resp APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

// DecodeInto unmarshals the data payload into the provided destination.
func DecodeInto[T any](t *testing.T, raw json.RawMessage, dest *T) {
	t.Helper()
	if dest == nil {
		t.Fatal("destination must not be nil")
	}
	require.NoError(t, json.Unmarshal(raw, dest))
}

// Request executes an HTTP request against the test router, applying JSON
// encoding and auth headers automatically.
func (e *Env) Request(method, path string, body any, token string) *httptest.ResponseRecorder {
	e.T.Helper()

	var buf *bytes.Buffer
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(e.T, err)
		buf = bytes.NewBuffer(data)
	} else {
		buf = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequest(method, path, buf)
	require.NoError(e.T, err)

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.Router.ServeHTTP(w, req)
	return w
}

var codePattern = regexp.MustCompile(`\b\d{6}\b`)

// LastVerificationCode extracts the most recent six-digit code mailed to the
// supplied address.
func (e *Env) LastVerificationCode(email string) string {
	e.T.Helper()

	e.Mailer.mu.Lock()
	defer e.Mailer.mu.Unlock()

	for i := len(e.Mailer.Messages) - 1; i >= 0; i-- {
		msg := e.Mailer.Messages[i]
		for _, to := range msg.To {
			if to == email {
				if code := codePattern.FindString(msg.Body); code != "" {
					return code
				}
			}
		}
	}

	e.T.Fatalf("no verification code mailed to %s", email)
	return ""
}

var tokenPattern = regexp.MustCompile(`[A-Za-z0-9_-]{40,}`)

// LastResetToken extracts the most recent password reset token mailed to the
// supplied address.
func (e *Env) LastResetToken(email string) string {
	e.T.Helper()

	e.Mailer.mu.Lock()
	defer e.Mailer.mu.Unlock()

	for i := len(e.Mailer.Messages) - 1; i >= 0; i-- {
		msg := e.Mailer.Messages[i]
		for _, to := range msg.To {
			if to == email {
				if token := tokenPattern.FindString(msg.Body); token != "" {
					return token
				}
			}
		}
	}

	e.T.Fatalf("no reset token mailed to %s", email)
	return ""
}
