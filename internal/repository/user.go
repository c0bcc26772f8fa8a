// Package repository implements the user store: users with their embedded exercise logs.
package repository

import (
	"context"

	"exercisetracker/internal/models"
)

// UserRepository defines persistence operations for users and their logs.
// Unknown and malformed identifiers both yield a NOT_FOUND AppError.
type UserRepository interface {
	// Create persists user with an empty log and sets user.ID.
	Create(ctx context.Context, user *models.User) error
	// List returns every user without logs, in the backend's natural order.
	List(ctx context.Context) ([]models.UserSummary, error)
	// GetByID returns the user with its full log in insertion order.
	GetByID(ctx context.Context, id string) (*models.User, error)
	// AppendExercise atomically appends one exercise and returns the updated user.
	AppendExercise(ctx context.Context, id string, exercise models.Exercise) (*models.User, error)
	Ping(ctx context.Context) error
}

func userNotFound(id string) error {
	return models.NewNotFoundError("User", id)
}
