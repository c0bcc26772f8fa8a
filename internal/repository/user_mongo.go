package repository

import (
	"context"
	"errors"
	"time"

	"exercisetracker/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// UsersCollection holds one document per user with the log embedded.
const UsersCollection = "users"

type userDocument struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Username  string             `bson:"username"`
	Log       []exerciseDocument `bson:"log"`
	CreatedAt time.Time          `bson:"createdAt"`
}

type exerciseDocument struct {
	Description string    `bson:"description"`
	Duration    int       `bson:"duration"`
	Date        time.Time `bson:"date"`
}

func (d *userDocument) toModel() *models.User {
	user := &models.User{
		ID:        d.ID.Hex(),
		Username:  d.Username,
		Log:       make([]models.Exercise, 0, len(d.Log)),
		CreatedAt: d.CreatedAt,
	}
	for _, e := range d.Log {
		user.Log = append(user.Log, models.Exercise{
			UserID:      user.ID,
			Description: e.Description,
			Duration:    e.Duration,
			Date:        e.Date.UTC(),
		})
	}
	return user
}

type mongoUserRepository struct {
	db    *mongo.Database
	users *mongo.Collection
}

// NewMongoUserRepository returns a UserRepository storing each user as one document
// in the users collection. Identifiers are ObjectID hex strings.
func NewMongoUserRepository(db *mongo.Database) UserRepository {
	return &mongoUserRepository{db: db, users: db.Collection(UsersCollection)}
}

func (r *mongoUserRepository) Create(ctx context.Context, user *models.User) error {
	doc := userDocument{
		ID:        primitive.NewObjectID(),
		Username:  user.Username,
		Log:       []exerciseDocument{},
		CreatedAt: time.Now().UTC(),
	}
	if _, err := r.users.InsertOne(ctx, doc); err != nil {
		return models.NewInternalError(err)
	}
	user.ID = doc.ID.Hex()
	user.Log = []models.Exercise{}
	user.CreatedAt = doc.CreatedAt
	return nil
}

func (r *mongoUserRepository) List(ctx context.Context) ([]models.UserSummary, error) {
	opts := options.Find().SetProjection(bson.D{{Key: "username", Value: 1}})
	cursor, err := r.users.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	defer cursor.Close(ctx)

	users := []models.UserSummary{}
	for cursor.Next(ctx) {
		var doc userDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, models.NewInternalError(err)
		}
		users = append(users, models.UserSummary{ID: doc.ID.Hex(), Username: doc.Username})
	}
	if err := cursor.Err(); err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}

func (r *mongoUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, userNotFound(id)
	}

	var doc userDocument
	if err := r.users.FindOne(ctx, bson.D{{Key: "_id", Value: oid}}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, userNotFound(id)
		}
		return nil, models.NewInternalError(err)
	}
	return doc.toModel(), nil
}

// AppendExercise pushes onto the embedded log in a single document update, so concurrent
// appends to the same user never overwrite each other.
func (r *mongoUserRepository) AppendExercise(ctx context.Context, id string, exercise models.Exercise) (*models.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, userNotFound(id)
	}

	entry := exerciseDocument{
		Description: exercise.Description,
		Duration:    exercise.Duration,
		Date:        exercise.Date.UTC(),
	}
	update := bson.D{{Key: "$push", Value: bson.D{{Key: "log", Value: entry}}}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc userDocument
	err = r.users.FindOneAndUpdate(ctx, bson.D{{Key: "_id", Value: oid}}, update, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, userNotFound(id)
		}
		return nil, models.NewInternalError(err)
	}
	return doc.toModel(), nil
}

func (r *mongoUserRepository) Ping(ctx context.Context) error {
	return r.db.Client().Ping(ctx, readpref.Primary())
}
