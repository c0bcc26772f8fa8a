package repository

import (
	"context"
	"errors"

	"exercisetracker/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type gormUserRepository struct {
	db *gorm.DB
}

// NewGormUserRepository returns a UserRepository over the users and exercises tables.
// Identifiers are UUID strings; the exercises primary key fixes log order.
func NewGormUserRepository(db *gorm.DB) UserRepository {
	return &gormUserRepository{db: db}
}

func (r *gormUserRepository) Create(ctx context.Context, user *models.User) error {
	user.ID = uuid.NewString()
	user.Log = []models.Exercise{}
	if err := r.db.WithContext(ctx).Omit("Log").Create(user).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *gormUserRepository) List(ctx context.Context) ([]models.UserSummary, error) {
	users := []models.UserSummary{}
	if err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Select("id", "username").
		Order("created_at, id").
		Scan(&users).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}

func (r *gormUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, userNotFound(id)
	}
	return r.loadUser(r.db.WithContext(ctx), id)
}

func (r *gormUserRepository) AppendExercise(ctx context.Context, id string, exercise models.Exercise) (*models.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, userNotFound(id)
	}

	var user *models.User
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.User{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return models.NewInternalError(err)
		}
		if count == 0 {
			return userNotFound(id)
		}

		exercise.ID = 0
		exercise.UserID = id
		if err := tx.Create(&exercise).Error; err != nil {
			return models.NewInternalError(err)
		}

		loaded, err := r.loadUser(tx, id)
		if err != nil {
			return err
		}
		user = loaded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *gormUserRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (r *gormUserRepository) loadUser(db *gorm.DB, id string) (*models.User, error) {
	var user models.User
	err := db.
		Preload("Log", func(db *gorm.DB) *gorm.DB {
			return db.Order("exercises.id ASC")
		}).
		Where("id = ?", id).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, userNotFound(id)
		}
		return nil, models.NewInternalError(err)
	}
	if user.Log == nil {
		user.Log = []models.Exercise{}
	}
	return &user, nil
}
