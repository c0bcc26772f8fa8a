// Package service holds the business rules between HTTP handlers and the user store.
package service

import (
	"context"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"exercisetracker/internal/events"
	"exercisetracker/internal/middleware"
	"exercisetracker/internal/models"
	"exercisetracker/internal/observability"
	"exercisetracker/internal/repository"
)

type UserService struct {
	userRepo  repository.UserRepository
	publisher events.Publisher
	now       func() time.Time
}

// AddExerciseInput carries the raw form or JSON values of an add-exercise request.
type AddExerciseInput struct {
	UserID      string
	Description string
	Duration    string
	Date        string
}

func NewUserService(userRepo repository.UserRepository, publisher events.Publisher) *UserService {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &UserService{userRepo: userRepo, publisher: publisher, now: time.Now}
}

func (s *UserService) CreateUser(ctx context.Context, username string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, models.NewValidationError("username is required")
	}

	user := &models.User{Username: username}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	observability.UsersCreated.Inc()

	s.publish(ctx, events.Event{
		Type:     events.TypeUserCreated,
		UserID:   user.ID,
		Username: user.Username,
	})
	return user, nil
}

func (s *UserService) ListUsers(ctx context.Context) ([]models.UserSummary, error) {
	return s.userRepo.List(ctx)
}

// AddExercise validates the request fields before looking the user up, then appends the exercise.
// It returns the updated user and the exercise as stored.
func (s *UserService) AddExercise(ctx context.Context, in AddExerciseInput) (*models.User, models.Exercise, error) {
	exercise, err := s.buildExercise(in)
	if err != nil {
		return nil, models.Exercise{}, err
	}

	user, err := s.userRepo.AppendExercise(ctx, in.UserID, exercise)
	if err != nil {
		return nil, models.Exercise{}, err
	}
	observability.ExercisesLogged.Inc()

	s.publish(ctx, events.Event{
		Type:     events.TypeExerciseLogged,
		UserID:   user.ID,
		Username: user.Username,
		Exercise: &events.ExercisePayload{
			Description: exercise.Description,
			Duration:    exercise.Duration,
			Date:        exercise.Date,
		},
	})
	return user, exercise, nil
}

// GetLog returns the user and the part of its log selected by q.
func (s *UserService) GetLog(ctx context.Context, userID string, q LogQuery) (*models.User, []models.Exercise, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	return user, FilterLog(user.Log, q), nil
}

func (s *UserService) buildExercise(in AddExerciseInput) (models.Exercise, error) {
	description := strings.TrimSpace(in.Description)
	rawDuration := strings.TrimSpace(in.Duration)
	if description == "" || rawDuration == "" {
		return models.Exercise{}, models.NewValidationError("description and duration are required")
	}

	duration, ok := parseDuration(rawDuration)
	if !ok {
		return models.Exercise{}, models.NewValidationError("duration must be a number of minutes")
	}

	date := s.now().UTC()
	if strings.TrimSpace(in.Date) != "" {
		parsed, ok := ParseDate(in.Date)
		if !ok {
			return models.Exercise{}, models.NewValidationError("date must be formatted as YYYY-MM-DD")
		}
		date = parsed
	}

	return models.Exercise{
		Description: description,
		Duration:    duration,
		Date:        date,
	}, nil
}

// parseDuration accepts integer or decimal minutes; decimals are truncated.
func parseDuration(s string) (int, bool) {
	if n, err := strconv.Atoi(s); err == nil {
		return n, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || math.Abs(f) > math.MaxInt32 {
		return 0, false
	}
	return int(f), true
}

func (s *UserService) publish(ctx context.Context, event events.Event) {
	event.OccurredAt = s.now().UTC()
	if err := s.publisher.Publish(ctx, event); err != nil {
		observability.EventPublishFailures.WithLabelValues(event.Type).Inc()
		middleware.Logger.WarnContext(ctx, "failed to publish event",
			slog.String("event_type", event.Type),
			slog.String("user_id", event.UserID),
			slog.String("error", err.Error()),
		)
	}
}
