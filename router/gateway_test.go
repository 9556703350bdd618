package router

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/learnhub/model"
	"github.com/sahilchouksey/learnhub/utils/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpstreamTarget(t *testing.T) {
	up := Upstream{Name: "lesson", Prefix: "/lessons", URL: "http://lesson:3002/"}

	tests := []struct {
		path, query, want string
	}{
		{"/lessons", "", "http://lesson:3002/"},
		{"/lessons/api/v1/lesson", "", "http://lesson:3002/api/v1/lesson"},
		{"/lessons/api/v1/lesson", "subject=MATH&page=2", "http://lesson:3002/api/v1/lesson?subject=MATH&page=2"},
		{"/lessons/api/v1/lesson/3/enroll", "userId=7", "http://lesson:3002/api/v1/lesson/3/enroll?userId=7"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, UpstreamTarget(up, tt.path, tt.query))
	}
}

type seenRequest struct {
	Method string `json:"method"`
	Path   string `json:"path"`
	Query  string `json:"query"`
}

func echoUpstream(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/healthz" {
			w.Write([]byte(`{"ok":true}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(seenRequest{Method: r.Method, Path: r.URL.Path, Query: r.URL.RawQuery})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newGateway(t *testing.T, guard *middleware.AuthMiddleware, userURL, lessonURL, achievementURL string) *fiber.App {
	t.Helper()
	app := newTestApp()
	SetupGatewayRoutes(app, GatewayConfig{
		Upstreams: DefaultUpstreams(userURL, lessonURL, achievementURL),
		Guard:     guard,
		Security:  testSecurity,
	})
	return app
}

func proxied(t *testing.T, app *fiber.App, method, path, token string) (int, seenRequest) {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var seen seenRequest
	_ = json.NewDecoder(resp.Body).Decode(&seen)
	return resp.StatusCode, seen
}

func TestGatewayProxiesWithPrefixStripped(t *testing.T) {
	lessons := echoUpstream(t)
	users := echoUpstream(t)
	app := newGateway(t, nil, users.URL, lessons.URL, users.URL)

	status, seen := proxied(t, app, http.MethodGet, "/lessons/api/v1/lesson?subject=MATH&limit=5", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "/api/v1/lesson", seen.Path)
	assert.Equal(t, "subject=MATH&limit=5", seen.Query)

	status, seen = proxied(t, app, http.MethodPost, "/users/api/v1/auth/login", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, http.MethodPost, seen.Method)
	assert.Equal(t, "/api/v1/auth/login", seen.Path)
}

func TestGatewayHealth(t *testing.T) {
	up := echoUpstream(t)
	app := newGateway(t, nil, up.URL, up.URL, up.URL)

	resp, _ := doRequest(t, app, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = doRequest(t, app, http.MethodGet, "/readyz", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestGatewayReadyzReportsDownUpstreams(t *testing.T) {
	up := echoUpstream(t)
	down := httptest.NewServer(http.NotFoundHandler())
	down.Close()

	app := newGateway(t, nil, up.URL, down.URL, up.URL)

	resp, env := doRequest(t, app, http.MethodGet, "/readyz", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "lesson", env.Description)
}

func TestGatewayGuard(t *testing.T) {
	up := echoUpstream(t)
	jwtManager := newTestJWT()
	app := newGateway(t, middleware.NewAuthMiddleware(jwtManager, nil), up.URL, up.URL, up.URL)

	student := tokenFor(t, jwtManager, 2, string(model.RoleStudent))
	admin := tokenFor(t, jwtManager, 1, string(model.RoleAdmin))

	status, _ := proxied(t, app, http.MethodGet, "/lessons/api/v1/lesson", "")
	assert.Equal(t, http.StatusOK, status)

	status, _ = proxied(t, app, http.MethodPost, "/users/api/v1/auth/register", "")
	assert.Equal(t, http.StatusOK, status)

	status, _ = proxied(t, app, http.MethodGet, "/users/api/v1/user/me", "")
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = proxied(t, app, http.MethodPost, "/lessons/api/v1/lesson/1/complete?userId=2", "")
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = proxied(t, app, http.MethodPost, "/lessons/api/v1/lesson/1/complete?userId=2", student)
	assert.Equal(t, http.StatusOK, status)

	status, _ = proxied(t, app, http.MethodPost, "/lessons/api/v1/lesson", student)
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = proxied(t, app, http.MethodPost, "/lessons/api/v1/lesson", admin)
	assert.Equal(t, http.StatusOK, status)

	status, _ = proxied(t, app, http.MethodGet, "/achievements/api/v1/achievement/me", "")
	assert.Equal(t, http.StatusUnauthorized, status)
}
