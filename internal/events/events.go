// Package events publishes user and exercise activity to downstream consumers.
package events

import (
	"context"
	"time"
)

// Event types.
const (
	TypeUserCreated    = "user.created"
	TypeExerciseLogged = "exercise.logged"
)

// Event describes one successful write.
type Event struct {
	Type       string           `json:"type"`
	UserID     string           `json:"user_id"`
	Username   string           `json:"username"`
	Exercise   *ExercisePayload `json:"exercise,omitempty"`
	OccurredAt time.Time        `json:"occurred_at"`
}

// ExercisePayload is the exercise carried by an exercise.logged event.
type ExercisePayload struct {
	Description string    `json:"description"`
	Duration    int       `json:"duration"`
	Date        time.Time `json:"date"`
}

// Publisher delivers events. Implementations must not block the request path on broker I/O.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// Nop discards every event. It is used when no brokers are configured.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }

func (Nop) Close() error { return nil }
