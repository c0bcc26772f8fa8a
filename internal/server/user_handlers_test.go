package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"exercisetracker/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) List(ctx context.Context) ([]models.UserSummary, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.UserSummary), args.Error(1)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) AppendExercise(ctx context.Context, id string, exercise models.Exercise) (*models.User, error) {
	args := m.Called(ctx, id, exercise)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func newUserApp(repo *MockUserRepository) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: errorHandler})
	s := &Server{userRepo: repo}

	app.Post("/api/users", s.CreateUser)
	app.Get("/api/users", s.GetAllUsers)
	app.Post("/api/users/:_id/exercises", s.AddExercise)
	app.Get("/api/users/:_id/logs", s.GetUserLogs)
	return app
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func formRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func decodeBody(t *testing.T, resp *http.Response, dest any) {
	t.Helper()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(body, dest), string(body))
}

func day(s string) time.Time {
	d, _ := time.Parse("2006-01-02", s)
	return d
}

func TestCreateUser(t *testing.T) {
	tests := []struct {
		name           string
		req            func() *http.Request
		mockSetup      func(*MockUserRepository)
		expectedStatus int
		expectedName   string
	}{
		{
			name: "JSON body",
			req:  func() *http.Request { return jsonRequest(http.MethodPost, "/api/users", `{"username":"bob"}`) },
			mockSetup: func(m *MockUserRepository) {
				m.On("Create", mock.Anything, mock.Anything).
					Run(func(args mock.Arguments) { args.Get(1).(*models.User).ID = "u1" }).
					Return(nil)
			},
			expectedStatus: http.StatusOK,
			expectedName:   "bob",
		},
		{
			name: "Form body",
			req:  func() *http.Request { return formRequest(http.MethodPost, "/api/users", "username=alice") },
			mockSetup: func(m *MockUserRepository) {
				m.On("Create", mock.Anything, mock.Anything).
					Run(func(args mock.Arguments) { args.Get(1).(*models.User).ID = "u2" }).
					Return(nil)
			},
			expectedStatus: http.StatusOK,
			expectedName:   "alice",
		},
		{
			name:           "Missing username",
			req:            func() *http.Request { return jsonRequest(http.MethodPost, "/api/users", `{}`) },
			mockSetup:      func(*MockUserRepository) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "Blank username",
			req:            func() *http.Request { return formRequest(http.MethodPost, "/api/users", "username=+++") },
			mockSetup:      func(*MockUserRepository) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "No body",
			req:            func() *http.Request { return httptest.NewRequest(http.MethodPost, "/api/users", nil) },
			mockSetup:      func(*MockUserRepository) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "Malformed JSON",
			req:            func() *http.Request { return jsonRequest(http.MethodPost, "/api/users", `{"username":`) },
			mockSetup:      func(*MockUserRepository) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "Store error",
			req:  func() *http.Request { return jsonRequest(http.MethodPost, "/api/users", `{"username":"bob"}`) },
			mockSetup: func(m *MockUserRepository) {
				m.On("Create", mock.Anything, mock.Anything).Return(models.NewInternalError(errors.New("connection refused")))
			},
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockUserRepository)
			tt.mockSetup(repo)
			app := newUserApp(repo)

			resp, err := app.Test(tt.req())
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			var body map[string]any
			decodeBody(t, resp, &body)

			if tt.expectedStatus == http.StatusOK {
				assert.Equal(t, tt.expectedName, body["username"])
				assert.NotEmpty(t, body["_id"])
				assert.NotContains(t, body, "log")
			} else {
				assert.NotEmpty(t, body["error"])
				assert.NotContains(t, body["error"], "connection refused")
			}
			if tt.expectedStatus == http.StatusBadRequest {
				repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
			}
		})
	}
}

func TestGetAllUsers(t *testing.T) {
	t.Run("Never includes the log", func(t *testing.T) {
		repo := new(MockUserRepository)
		repo.On("List", mock.Anything).Return([]models.UserSummary{
			{ID: "u1", Username: "bob"},
			{ID: "u2", Username: "alice"},
		}, nil)
		app := newUserApp(repo)

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/users", nil))
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var users []map[string]any
		decodeBody(t, resp, &users)
		require.Len(t, users, 2)
		for _, u := range users {
			assert.NotContains(t, u, "log")
			assert.Contains(t, u, "_id")
			assert.Contains(t, u, "username")
		}
	})

	t.Run("Empty store is an empty array", func(t *testing.T) {
		repo := new(MockUserRepository)
		repo.On("List", mock.Anything).Return(nil, nil)
		app := newUserApp(repo)

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/users", nil))
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()

		body, _ := io.ReadAll(resp.Body)
		assert.Equal(t, "[]", string(body))
	})

	t.Run("Store error", func(t *testing.T) {
		repo := new(MockUserRepository)
		repo.On("List", mock.Anything).Return(nil, models.NewInternalError(errors.New("down")))
		app := newUserApp(repo)

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/users", nil))
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	})
}

func TestAddExercise(t *testing.T) {
	stored := func(duration int, date time.Time) *models.User {
		return &models.User{ID: "u1", Username: "bob", Log: []models.Exercise{
			{Description: "run", Duration: duration, Date: date},
		}}
	}
	matches := func(duration int, date time.Time) any {
		return mock.MatchedBy(func(e models.Exercise) bool {
			return e.Description == "run" && e.Duration == duration && e.Date.Equal(date)
		})
	}

	tests := []struct {
		name           string
		req            func() *http.Request
		mockSetup      func(*MockUserRepository)
		expectedStatus int
		expected       map[string]any
	}{
		{
			name: "String duration in JSON",
			req: func() *http.Request {
				return jsonRequest(http.MethodPost, "/api/users/u1/exercises", `{"description":"run","duration":"30","date":"2024-01-01"}`)
			},
			mockSetup: func(m *MockUserRepository) {
				m.On("AppendExercise", mock.Anything, "u1", matches(30, day("2024-01-01"))).Return(stored(30, day("2024-01-01")), nil)
			},
			expectedStatus: http.StatusOK,
			expected: map[string]any{
				"_id": "u1", "username": "bob", "description": "run", "duration": float64(30), "date": "Mon Jan 01 2024",
			},
		},
		{
			name: "Numeric duration in JSON",
			req: func() *http.Request {
				return jsonRequest(http.MethodPost, "/api/users/u1/exercises", `{"description":"run","duration":45,"date":"2024-02-01"}`)
			},
			mockSetup: func(m *MockUserRepository) {
				m.On("AppendExercise", mock.Anything, "u1", matches(45, day("2024-02-01"))).Return(stored(45, day("2024-02-01")), nil)
			},
			expectedStatus: http.StatusOK,
			expected: map[string]any{
				"_id": "u1", "username": "bob", "description": "run", "duration": float64(45), "date": "Thu Feb 01 2024",
			},
		},
		{
			name: "Form body",
			req: func() *http.Request {
				return formRequest(http.MethodPost, "/api/users/u1/exercises", "description=run&duration=30&date=2024-03-01")
			},
			mockSetup: func(m *MockUserRepository) {
				m.On("AppendExercise", mock.Anything, "u1", matches(30, day("2024-03-01"))).Return(stored(30, day("2024-03-01")), nil)
			},
			expectedStatus: http.StatusOK,
			expected: map[string]any{
				"_id": "u1", "username": "bob", "description": "run", "duration": float64(30), "date": "Fri Mar 01 2024",
			},
		},
		{
			name: "Unknown user",
			req: func() *http.Request {
				return jsonRequest(http.MethodPost, "/api/users/nope/exercises", `{"description":"run","duration":"30"}`)
			},
			mockSetup: func(m *MockUserRepository) {
				m.On("AppendExercise", mock.Anything, "nope", mock.Anything).Return(nil, models.NewNotFoundError("User", "nope"))
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name: "Missing description",
			req: func() *http.Request {
				return jsonRequest(http.MethodPost, "/api/users/u1/exercises", `{"duration":"30"}`)
			},
			mockSetup:      func(*MockUserRepository) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "Missing duration",
			req: func() *http.Request {
				return formRequest(http.MethodPost, "/api/users/u1/exercises", "description=run")
			},
			mockSetup:      func(*MockUserRepository) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "Null duration",
			req: func() *http.Request {
				return jsonRequest(http.MethodPost, "/api/users/u1/exercises", `{"description":"run","duration":null}`)
			},
			mockSetup:      func(*MockUserRepository) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "Non numeric duration",
			req: func() *http.Request {
				return jsonRequest(http.MethodPost, "/api/users/u1/exercises", `{"description":"run","duration":"a lot"}`)
			},
			mockSetup:      func(*MockUserRepository) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "Invalid date",
			req: func() *http.Request {
				return jsonRequest(http.MethodPost, "/api/users/u1/exercises", `{"description":"run","duration":"30","date":"not a date"}`)
			},
			mockSetup:      func(*MockUserRepository) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "Fields are checked before the user",
			req: func() *http.Request {
				return jsonRequest(http.MethodPost, "/api/users/nope/exercises", `{"description":"run"}`)
			},
			mockSetup:      func(*MockUserRepository) {},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockUserRepository)
			tt.mockSetup(repo)
			app := newUserApp(repo)

			resp, err := app.Test(tt.req())
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			var body map[string]any
			decodeBody(t, resp, &body)
			if tt.expected != nil {
				assert.Equal(t, tt.expected, body)
			}
			if tt.expectedStatus == http.StatusBadRequest {
				repo.AssertNotCalled(t, "AppendExercise", mock.Anything, mock.Anything, mock.Anything)
			}
			repo.AssertExpectations(t)
		})
	}
}

func TestAddExercise_DateDefaultsToToday(t *testing.T) {
	repo := new(MockUserRepository)
	repo.On("AppendExercise", mock.Anything, "u1", mock.Anything).
		Return(&models.User{ID: "u1", Username: "bob"}, nil)
	app := newUserApp(repo)

	before := time.Now().UTC().Format(models.DateLayout)
	resp, err := app.Test(jsonRequest(http.MethodPost, "/api/users/u1/exercises", `{"description":"run","duration":"30"}`))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	after := time.Now().UTC().Format(models.DateLayout)

	var body map[string]any
	decodeBody(t, resp, &body)
	assert.Contains(t, []string{before, after}, body["date"])
}

func TestGetUserLogs(t *testing.T) {
	user := &models.User{ID: "u1", Username: "bob", Log: []models.Exercise{
		{Description: "jan", Duration: 10, Date: day("2024-01-01")},
		{Description: "feb", Duration: 20, Date: day("2024-02-01")},
		{Description: "mar", Duration: 30, Date: day("2024-03-01")},
	}}

	tests := []struct {
		name     string
		query    string
		expected []string
	}{
		{"No filters", "", []string{"jan", "feb", "mar"}},
		{"From", "?from=2024-01-15", []string{"feb", "mar"}},
		{"To", "?to=2024-02-15", []string{"jan", "feb"}},
		{"Limit", "?limit=1", []string{"jan"}},
		{"Combined", "?from=2024-01-15&to=2024-03-15&limit=1", []string{"feb"}},
		{"Invalid values are ignored", "?from=soon&limit=many", []string{"jan", "feb", "mar"}},
		{"Limit zero", "?limit=0", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockUserRepository)
			repo.On("GetByID", mock.Anything, "u1").Return(user, nil)
			app := newUserApp(repo)

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/users/u1/logs"+tt.query, nil))
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()
			require.Equal(t, http.StatusOK, resp.StatusCode)

			var body logResponse
			decodeBody(t, resp, &body)
			assert.Equal(t, "u1", body.ID)
			assert.Equal(t, "bob", body.Username)
			require.NotNil(t, body.Log)
			assert.Equal(t, len(body.Log), body.Count)

			got := []string{}
			for _, e := range body.Log {
				got = append(got, e.Description)
			}
			assert.Equal(t, tt.expected, got)
		})
	}

	t.Run("Entries are rendered", func(t *testing.T) {
		repo := new(MockUserRepository)
		repo.On("GetByID", mock.Anything, "u1").Return(user, nil)
		app := newUserApp(repo)

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/users/u1/logs?limit=1", nil))
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()

		var body logResponse
		decodeBody(t, resp, &body)
		assert.Equal(t, []logEntry{{Description: "jan", Duration: 10, Date: "Mon Jan 01 2024"}}, body.Log)
	})

	t.Run("Unknown user", func(t *testing.T) {
		repo := new(MockUserRepository)
		repo.On("GetByID", mock.Anything, "nope").Return(nil, models.NewNotFoundError("User", "nope"))
		app := newUserApp(repo)

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/users/nope/logs", nil))
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestMapServiceError(t *testing.T) {
	assert.Equal(t, fiber.StatusBadRequest, mapServiceError(models.NewValidationError("bad")))
	assert.Equal(t, fiber.StatusNotFound, mapServiceError(models.NewNotFoundError("User", "x")))
	assert.Equal(t, fiber.StatusInternalServerError, mapServiceError(errors.New("boom")))
	assert.Equal(t, fiber.StatusGatewayTimeout, mapServiceError(models.NewInternalError(context.DeadlineExceeded)))
}
