package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"exercisetracker/internal/config"
	"exercisetracker/internal/database"
	"exercisetracker/internal/models"
	"exercisetracker/internal/repository"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func testConfig() *config.Config {
	return &config.Config{Port: "3000", Env: "test", AllowedOrigins: "*"}
}

func newSQLiteServer(t *testing.T) *fiber.App {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_busy_timeout=5000", name)

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	s := NewServerWithDeps(testConfig(), repository.NewGormUserRepository(db), nil, nil)
	return s.NewApp()
}

func TestRoundTrip(t *testing.T) {
	app := newSQLiteServer(t)

	resp, err := app.Test(jsonRequest(http.MethodPost, "/api/users", `{"username":"bob"}`))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var created models.UserSummary
	decodeBody(t, resp, &created)
	_ = resp.Body.Close()
	require.NotEmpty(t, created.ID)
	assert.Equal(t, "bob", created.Username)

	for _, date := range []string{"2024-01-01", "2024-02-01", "2024-03-01"} {
		resp, err := app.Test(formRequest(http.MethodPost, "/api/users/"+created.ID+"/exercises",
			"description=run&duration=30&date="+date))
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var added exerciseResponse
		decodeBody(t, resp, &added)
		_ = resp.Body.Close()
		assert.Equal(t, created.ID, added.ID)
		assert.Equal(t, 30, added.Duration)
	}

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/users/"+created.ID+"/logs?from=2024-01-15&limit=1", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var logs logResponse
	decodeBody(t, resp, &logs)
	_ = resp.Body.Close()
	assert.Equal(t, created.ID, logs.ID)
	assert.Equal(t, 1, logs.Count)
	assert.Equal(t, []logEntry{{Description: "run", Duration: 30, Date: "Thu Feb 01 2024"}}, logs.Log)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/users", nil))
	require.NoError(t, err)
	var users []map[string]any
	decodeBody(t, resp, &users)
	_ = resp.Body.Close()
	require.Len(t, users, 1)
	assert.Equal(t, map[string]any{"_id": created.ID, "username": "bob"}, users[0])
}

func TestRoundTrip_FreshIdentifiers(t *testing.T) {
	app := newSQLiteServer(t)

	seen := map[string]bool{}
	for i := 0; i < 3; i++ {
		resp, err := app.Test(jsonRequest(http.MethodPost, "/api/users", `{"username":"bob"}`))
		require.NoError(t, err)
		var created models.UserSummary
		decodeBody(t, resp, &created)
		_ = resp.Body.Close()
		assert.False(t, seen[created.ID])
		seen[created.ID] = true
	}
}

func TestRoundTrip_UnknownAndMalformedIDs(t *testing.T) {
	app := newSQLiteServer(t)

	for _, id := range []string{"not-a-uuid", "3f2b8c1e-4a5d-4e6f-8a7b-9c0d1e2f3a4b"} {
		resp, err := app.Test(jsonRequest(http.MethodPost, "/api/users/"+id+"/exercises", `{"description":"run","duration":30}`))
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		_ = resp.Body.Close()

		resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/users/"+id+"/logs", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		_ = resp.Body.Close()
	}
}

func TestHome(t *testing.T) {
	app := newSQLiteServer(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/plain")
	assert.Equal(t, "Exercise Tracker API is running", string(body))
}

func TestUnknownRouteIsJSON(t *testing.T) {
	app := newSQLiteServer(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/nothing", nil))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	var body models.ErrorResponse
	decodeBody(t, resp, &body)
	assert.NotEmpty(t, body.Error)
}

func TestCORSHeaders(t *testing.T) {
	app := newSQLiteServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
	req.Header.Set("Origin", "http://example.com")
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestMetricsEndpoint(t *testing.T) {
	app := newSQLiteServer(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestLivenessCheck(t *testing.T) {
	app := fiber.New()
	s := &Server{}
	app.Get("/health/live", s.LivenessCheck)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health/live", nil))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestReadinessCheck(t *testing.T) {
	mr := miniredis.RunT(t)

	tests := []struct {
		name           string
		pingErr        error
		redis          func() *redis.Client
		expectedStatus int
		expectedState  string
		expectedRedis  string
	}{
		{
			name:           "Store up without Redis",
			redis:          func() *redis.Client { return nil },
			expectedStatus: http.StatusOK,
			expectedState:  "healthy",
			expectedRedis:  "disabled",
		},
		{
			name:           "Store and Redis up",
			redis:          func() *redis.Client { return redis.NewClient(&redis.Options{Addr: mr.Addr()}) },
			expectedStatus: http.StatusOK,
			expectedState:  "healthy",
			expectedRedis:  "healthy",
		},
		{
			name:           "Redis down degrades",
			redis:          func() *redis.Client { return redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"}) },
			expectedStatus: http.StatusOK,
			expectedState:  "degraded",
			expectedRedis:  "unhealthy",
		},
		{
			name:           "Store down",
			pingErr:        errors.New("no reachable servers"),
			redis:          func() *redis.Client { return nil },
			expectedStatus: http.StatusServiceUnavailable,
			expectedState:  "unhealthy",
			expectedRedis:  "disabled",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockUserRepository)
			repo.On("Ping", mock.Anything).Return(tt.pingErr)
			client := tt.redis()
			if client != nil {
				defer func() { _ = client.Close() }()
			}

			app := fiber.New()
			s := &Server{userRepo: repo, redis: client}
			app.Get("/health/ready", s.ReadinessCheck)

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health/ready", nil), 10000)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			var body struct {
				Status string            `json:"status"`
				Checks map[string]string `json:"checks"`
			}
			decodeBody(t, resp, &body)
			assert.Equal(t, tt.expectedState, body.Status)
			assert.Equal(t, tt.expectedRedis, body.Checks["redis"])
		})
	}
}
