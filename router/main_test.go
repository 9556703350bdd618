package router

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/sahilchouksey/learnhub/database"
	achievement_handlers "github.com/sahilchouksey/learnhub/handlers/achievement"
	lesson_handlers "github.com/sahilchouksey/learnhub/handlers/lesson"
	user_handlers "github.com/sahilchouksey/learnhub/handlers/user"
	"github.com/sahilchouksey/learnhub/messaging"
	"github.com/sahilchouksey/learnhub/model"
	"github.com/sahilchouksey/learnhub/services"
	"github.com/sahilchouksey/learnhub/services/rules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProbeEndpoints(t *testing.T) {
	deps, _, _ := newTestDeps(t, database.UserModels)
	app := newTestApp()
	SetupUserRoutes(app, deps, user_handlers.NewUserHandler(nil, nil, nil), nil)

	for _, path := range []string{"/healthz", "/readyz", "/ping"} {
		resp, _ := doRequest(t, app, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
	}
}

func TestUserRoutes(t *testing.T) {
	deps, db, jwtManager := newTestDeps(t, database.UserModels)
	app := newTestApp()
	svc := services.NewUserService(db, jwtManager, 4)
	SetupUserRoutes(app, deps, user_handlers.NewUserHandler(svc, nil, nil), nil)

	resp, env := doRequest(t, app, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"email": "learner@example.com", "password": "password123",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "S201", env.Code)
	var registered user_handlers.UserResponse
	require.NoError(t, json.Unmarshal(env.Data, &registered))
	assert.Equal(t, model.RoleStudent, registered.Role)

	resp, env = doRequest(t, app, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"email": "learner@example.com", "password": "password123",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "Email already exists", env.Message)

	resp, env = doRequest(t, app, http.MethodPost, "/api/v1/auth/register", "", map[string]string{"password": "password123"})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, "E422", env.Code)

	resp, _ = doRequest(t, app, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"email": "other@example.com", "password": "short",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = doRequest(t, app, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email": "learner@example.com", "password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, env = doRequest(t, app, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email": "learner@example.com", "password": "password123",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var login user_handlers.LoginResponse
	require.NoError(t, json.Unmarshal(env.Data, &login))
	require.NotEmpty(t, login.AccessToken)
	assert.Equal(t, registered.ID, login.ID)

	resp, env = doRequest(t, app, http.MethodGet, "/api/v1/user/me", login.AccessToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var me user_handlers.UserResponse
	require.NoError(t, json.Unmarshal(env.Data, &me))
	assert.Equal(t, "learner@example.com", me.Email)

	resp, _ = doRequest(t, app, http.MethodGet, "/api/v1/user/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// No Redis configured, so revocation is unavailable
	resp, _ = doRequest(t, app, http.MethodPost, "/api/v1/auth/logout", login.AccessToken, nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestLessonRoutes(t *testing.T) {
	deps, db, jwtManager := newTestDeps(t, database.LessonModels)
	bus := messaging.NewInMemoryBus()
	app := newTestApp()
	SetupLessonRoutes(app, deps, lesson_handlers.NewLessonHandler(services.NewLessonService(db, bus)))

	admin := tokenFor(t, jwtManager, 1, string(model.RoleAdmin))
	student := tokenFor(t, jwtManager, 2, string(model.RoleStudent))

	resp, _ := doRequest(t, app, http.MethodGet, "/api/v1/lesson", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	newLesson := map[string]interface{}{"title": "Fractions", "subject": "MATH", "grade": 4}
	resp, _ = doRequest(t, app, http.MethodPost, "/api/v1/lesson", student, newLesson)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, env := doRequest(t, app, http.MethodPost, "/api/v1/lesson", admin, newLesson)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var lesson model.Lesson
	require.NoError(t, json.Unmarshal(env.Data, &lesson))
	assert.Equal(t, model.SubjectMath, lesson.Subject)

	resp, env = doRequest(t, app, http.MethodPost, "/api/v1/lesson", admin, map[string]interface{}{"title": "Bad", "subject": "MATH", "grade": 20})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "grade must be between 1 and 12", env.Message)

	_, err := services.NewLessonService(db, bus).CreateLesson(t.Context(), services.CreateLessonInput{Title: "Cells", Subject: model.SubjectScience, Grade: 6})
	require.NoError(t, err)

	resp, env = doRequest(t, app, http.MethodGet, "/api/v1/lesson?subject=math&page=1&limit=5", student, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var page struct {
		CurrentPage  int            `json:"currentPage"`
		PerPage      int            `json:"perPage"`
		TotalPages   int            `json:"totalPages"`
		TotalRecords int64          `json:"totalRecords"`
		Data         []model.Lesson `json:"data"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &page))
	assert.Equal(t, 1, page.CurrentPage)
	assert.Equal(t, 5, page.PerPage)
	assert.EqualValues(t, 1, page.TotalRecords)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "Fractions", page.Data[0].Title)

	resp, _ = doRequest(t, app, http.MethodGet, "/api/v1/lesson?subject=ART", student, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = doRequest(t, app, http.MethodGet, "/api/v1/lesson/999", student, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = doRequest(t, app, http.MethodPatch, "/api/v1/lesson/1", admin, map[string]interface{}{"title": "Fractions II"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = doRequest(t, app, http.MethodPost, "/api/v1/lesson/1/enroll?userId=2", student, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Empty(t, bus.PublishedOfType(messaging.EventUserEnrolled))

	resp, _ = doRequest(t, app, http.MethodPost, "/api/v1/lesson/1/enroll?userId=2", admin, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, bus.PublishedOfType(messaging.EventUserEnrolled), 1)

	resp, _ = doRequest(t, app, http.MethodPost, "/api/v1/lesson/1/complete", admin, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = doRequest(t, app, http.MethodPost, "/api/v1/lesson/999/complete?userId=2", admin, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = doRequest(t, app, http.MethodPost, "/api/v1/lesson/1/complete?userId=2", admin, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, bus.PublishedOfType(messaging.EventLessonCompleted), 1)

	bus.PublishErr = errors.New("bus down")
	resp, env = doRequest(t, app, http.MethodPost, "/api/v1/lesson/1/complete?userId=2", admin, nil)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "Failed to publish event", env.Message)
	bus.PublishErr = nil

	resp, _ = doRequest(t, app, http.MethodDelete, "/api/v1/lesson/1", admin, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = doRequest(t, app, http.MethodGet, "/api/v1/lesson/1", student, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAchievementRoutes(t *testing.T) {
	deps, db, jwtManager := newTestDeps(t, database.AchievementModels)
	svc := services.NewAchievementService(db, rules.NewRuleSet(rules.DefaultSilverThreshold), nil, nil)
	app := newTestApp()
	SetupAchievementRoutes(app, deps, achievement_handlers.NewAchievementHandler(svc))

	admin := tokenFor(t, jwtManager, 1, string(model.RoleAdmin))
	student := tokenFor(t, jwtManager, 2, string(model.RoleStudent))

	body := map[string]interface{}{
		"name": "First Steps", "description": "Complete a lesson",
		"type": "bronze", "category": "LESSON_COMPLETION", "points": 10, "threshold": 1,
	}
	resp, _ := doRequest(t, app, http.MethodPost, "/api/v1/achievement", student, body)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, env := doRequest(t, app, http.MethodPost, "/api/v1/achievement", admin, body)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created model.Achievement
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, model.AchievementBronze, created.Type)

	resp, env = doRequest(t, app, http.MethodPatch, "/api/v1/achievement/1", admin, map[string]interface{}{"points": -5})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "achievement points cannot be negative", env.Message)

	resp, _ = doRequest(t, app, http.MethodPatch, "/api/v1/achievement/42", admin, map[string]interface{}{"points": 5})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, env = doRequest(t, app, http.MethodGet, "/api/v1/achievement/me", student, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list []model.Achievement
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Len(t, list, 1)

	_, err := svc.AwardAchievement(t.Context(), 2, created.ID)
	require.NoError(t, err)

	resp, env = doRequest(t, app, http.MethodGet, "/api/v1/achievement/user/2", student, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var userAchievements achievement_handlers.UserAchievementsResponse
	require.NoError(t, json.Unmarshal(env.Data, &userAchievements))
	require.Len(t, userAchievements.Achievements, 1)
	assert.Equal(t, "First Steps", userAchievements.Achievements[0].Achievement.Name)
	assert.Equal(t, 10, userAchievements.Stats.TotalPoints)
}
