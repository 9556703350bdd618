package router

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/learnhub/database"
	"github.com/sahilchouksey/learnhub/utils/auth"
	"github.com/sahilchouksey/learnhub/utils/middleware"
	"github.com/sahilchouksey/learnhub/utils/response"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var testSecurity = middleware.SecurityConfig{
	AllowedOrigins:    "*",
	RateLimitRequests: 1000,
	RateLimitWindow:   time.Minute,
}

func newTestJWT() *auth.JWTManager {
	return auth.NewJWTManager(auth.JWTConfig{
		Secret: "router-test-secret-router-test-secret",
		Expiry: time.Hour,
		Issuer: "learnhub-test",
	})
}

func newTestDeps(t *testing.T, models []interface{}) (ServiceDeps, *gorm.DB, *auth.JWTManager) {
	t.Helper()

	db, err := database.OpenSQLiteMemory(strings.ReplaceAll(t.Name(), "/", "_"), models...)
	require.NoError(t, err)
	store := database.NewGORMStore(db)
	t.Cleanup(func() { store.Close() })

	jwtManager := newTestJWT()
	return ServiceDeps{
		Store:    store,
		Auth:     middleware.NewAuthMiddleware(jwtManager, nil),
		Security: testSecurity,
	}, db, jwtManager
}

func newTestApp() *fiber.App {
	return fiber.New(fiber.Config{ErrorHandler: response.ErrorHandler})
}

func tokenFor(t *testing.T, jwtManager *auth.JWTManager, userID uint, role string) string {
	t.Helper()
	issued, err := jwtManager.GenerateAccessToken(userID, "user@example.com", role)
	require.NoError(t, err)
	return issued.Token
}

type envelope struct {
	Data        json.RawMessage `json:"data"`
	Message     string          `json:"message"`
	Success     bool            `json:"success"`
	Code        string          `json:"code"`
	Description string          `json:"description"`
}

func doRequest(t *testing.T, app *fiber.App, method, path, token string, body interface{}) (*http.Response, envelope) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var env envelope
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &env)
	}
	return resp, env
}
