package repository

import (
	"context"

	"exercisetracker/internal/models"
	"exercisetracker/internal/observability"
)

type instrumentedUserRepository struct {
	next    UserRepository
	backend string
}

// NewInstrumentedUserRepository records latency and a trace span for every store call.
// backend labels the metrics, e.g. "mongo" or "postgres".
func NewInstrumentedUserRepository(repo UserRepository, backend string) UserRepository {
	return &instrumentedUserRepository{next: repo, backend: backend}
}

func (r *instrumentedUserRepository) Create(ctx context.Context, user *models.User) (err error) {
	defer observability.TrackQuery(r.backend, "create")()
	ctx, span := observability.StartStoreSpan(ctx, r.backend, "create")
	defer func() { observability.EndSpan(span, err) }()

	return r.next.Create(ctx, user)
}

func (r *instrumentedUserRepository) List(ctx context.Context) (users []models.UserSummary, err error) {
	defer observability.TrackQuery(r.backend, "list")()
	ctx, span := observability.StartStoreSpan(ctx, r.backend, "list")
	defer func() { observability.EndSpan(span, err) }()

	return r.next.List(ctx)
}

func (r *instrumentedUserRepository) GetByID(ctx context.Context, id string) (user *models.User, err error) {
	defer observability.TrackQuery(r.backend, "get_by_id")()
	ctx, span := observability.StartStoreSpan(ctx, r.backend, "get_by_id")
	defer func() { observability.EndSpan(span, ignoreNotFound(err)) }()

	return r.next.GetByID(ctx, id)
}

func (r *instrumentedUserRepository) AppendExercise(ctx context.Context, id string, exercise models.Exercise) (user *models.User, err error) {
	defer observability.TrackQuery(r.backend, "append_exercise")()
	ctx, span := observability.StartStoreSpan(ctx, r.backend, "append_exercise")
	defer func() { observability.EndSpan(span, ignoreNotFound(err)) }()

	return r.next.AppendExercise(ctx, id, exercise)
}

func (r *instrumentedUserRepository) Ping(ctx context.Context) error {
	return r.next.Ping(ctx)
}

func ignoreNotFound(err error) error {
	if models.HasCode(err, models.CodeNotFound) {
		return nil
	}
	return err
}
