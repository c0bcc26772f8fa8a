package repository

import (
	"context"
	"encoding/json"

	"exercisetracker/internal/cache"
	"exercisetracker/internal/models"
	"exercisetracker/internal/observability"
)

type cachedUserRepository struct {
	UserRepository
	cache *cache.Cache
}

// NewCachedUserRepository serves GetByID through Redis cache-aside and refreshes the
// cached user whenever its log changes. Without Redis it returns repo unchanged.
func NewCachedUserRepository(repo UserRepository, c *cache.Cache) UserRepository {
	if !c.Enabled() {
		return repo
	}
	return &cachedUserRepository{UserRepository: repo, cache: c}
}

// GetByID looks the user up under the requested id but caches loads under the id the store
// returned, so every cached entry sits where AppendExercise updates it. Alternative spellings of
// an id (e.g. uppercase hex) read through to the store.
func (r *cachedUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	hit, err := r.cache.Aside(ctx, cache.UserKey(id), &user, cache.UserTTL, func() (string, error) {
		loaded, err := r.UserRepository.GetByID(ctx, id)
		if err != nil {
			return "", err
		}
		user = *loaded
		return cache.UserKey(loaded.ID), nil
	})
	if err != nil {
		return nil, err
	}
	if hit {
		observability.CacheLookups.WithLabelValues("hit").Inc()
	} else {
		observability.CacheLookups.WithLabelValues("miss").Inc()
	}
	if user.Log == nil {
		user.Log = []models.Exercise{}
	}
	return &user, nil
}

// AppendExercise writes the updated user back to the cache. The log is append-only, so its length
// orders versions: an entry is only replaced by one with a longer log.
func (r *cachedUserRepository) AppendExercise(ctx context.Context, id string, exercise models.Exercise) (*models.User, error) {
	user, err := r.UserRepository.AppendExercise(ctx, id, exercise)
	if err != nil {
		return nil, err
	}

	err = r.cache.StoreJSONIf(ctx, cache.UserKey(user.ID), user, cache.UserTTL, func(cached []byte) bool {
		var current models.User
		if json.Unmarshal(cached, &current) != nil {
			return true
		}
		return len(user.Log) > len(current.Log)
	})
	if err != nil {
		r.cache.InvalidateUser(ctx, user.ID)
	}
	return user, nil
}
