package server

import (
	"bytes"
	"context"
	"encoding/json"
	"time"

	"exercisetracker/internal/models"
	"exercisetracker/internal/service"

	"github.com/gofiber/fiber/v2"
)

type createUserRequest struct {
	Username string `json:"username" form:"username"`
}

// addExerciseRequest accepts duration as a JSON number or string, and as a form field.
type addExerciseRequest struct {
	Description string `json:"description" form:"description"`
	Duration    string `json:"duration" form:"duration"`
	Date        string `json:"date" form:"date"`
}

func (r *addExerciseRequest) UnmarshalJSON(data []byte) error {
	var raw struct {
		Description string          `json:"description"`
		Duration    json.RawMessage `json:"duration"`
		Date        string          `json:"date"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	r.Description = raw.Description
	r.Date = raw.Date
	r.Duration = ""

	switch d := bytes.TrimSpace(raw.Duration); {
	case len(d) == 0 || bytes.Equal(d, []byte("null")):
	case d[0] == '"':
		return json.Unmarshal(d, &r.Duration)
	default:
		var n json.Number
		if err := json.Unmarshal(d, &n); err != nil {
			return err
		}
		r.Duration = n.String()
	}
	return nil
}

type exerciseResponse struct {
	ID          string `json:"_id"`
	Username    string `json:"username"`
	Date        string `json:"date"`
	Duration    int    `json:"duration"`
	Description string `json:"description"`
}

type logEntry struct {
	Description string `json:"description"`
	Duration    int    `json:"duration"`
	Date        string `json:"date"`
}

type logResponse struct {
	ID       string     `json:"_id"`
	Username string     `json:"username"`
	Count    int        `json:"count"`
	Log      []logEntry `json:"log"`
}

// CreateUser handles POST /api/users
// @Summary Create user
// @Description Create a user with an empty exercise log
// @Tags users
// @Accept json,x-www-form-urlencoded
// @Produce json
// @Param request body object{username=string} true "New user"
// @Success 200 {object} models.UserSummary
// @Failure 400 {object} models.ErrorResponse
// @Router /users [post]
func (s *Server) CreateUser(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	var req createUserRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	user, err := s.userSvc().CreateUser(ctx, req.Username)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(user.Summary())
}

// GetAllUsers handles GET /api/users
// @Summary List users
// @Description List every user without their logs
// @Tags users
// @Produce json
// @Success 200 {array} models.UserSummary
// @Failure 500 {object} models.ErrorResponse
// @Router /users [get]
func (s *Server) GetAllUsers(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	users, err := s.userSvc().ListUsers(ctx)
	if err != nil {
		return respondServiceError(c, err)
	}
	if users == nil {
		users = []models.UserSummary{}
	}

	return c.JSON(users)
}

// AddExercise handles POST /api/users/:_id/exercises
// @Summary Log an exercise
// @Description Append an exercise to a user's log. Date defaults to now.
// @Tags users
// @Accept json,x-www-form-urlencoded
// @Produce json
// @Param _id path string true "User ID"
// @Param request body object{description=string,duration=integer,date=string} true "Exercise"
// @Success 200 {object} exerciseResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /users/{_id}/exercises [post]
func (s *Server) AddExercise(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	var req addExerciseRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	user, exercise, err := s.userSvc().AddExercise(ctx, service.AddExerciseInput{
		UserID:      c.Params("_id"),
		Description: req.Description,
		Duration:    req.Duration,
		Date:        req.Date,
	})
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(exerciseResponse{
		ID:          user.ID,
		Username:    user.Username,
		Date:        exercise.DateString(),
		Duration:    exercise.Duration,
		Description: exercise.Description,
	})
}

// GetUserLogs handles GET /api/users/:_id/logs
// @Summary Get exercise log
// @Description Return a user's log filtered by date range and limited in count
// @Tags users
// @Produce json
// @Param _id path string true "User ID"
// @Param from query string false "Earliest date (YYYY-MM-DD), inclusive"
// @Param to query string false "Latest date (YYYY-MM-DD), inclusive"
// @Param limit query int false "Maximum number of entries"
// @Success 200 {object} logResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /users/{_id}/logs [get]
func (s *Server) GetUserLogs(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	user, log, err := s.userSvc().GetLog(ctx, c.Params("_id"), service.LogQuery{
		From:  c.Query("from"),
		To:    c.Query("to"),
		Limit: c.Query("limit"),
	})
	if err != nil {
		return respondServiceError(c, err)
	}

	entries := make([]logEntry, 0, len(log))
	for _, e := range log {
		entries = append(entries, logEntry{
			Description: e.Description,
			Duration:    e.Duration,
			Date:        e.DateString(),
		})
	}

	return c.JSON(logResponse{
		ID:       user.ID,
		Username: user.Username,
		Count:    len(entries),
		Log:      entries,
	})
}
