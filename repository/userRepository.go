package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"civicresolve-be/config"
	"civicresolve-be/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// UserRepository stores citizen and worker accounts.
type UserRepository struct {
	col *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{col: db.Collection(config.UsersCollection)}
}

// Create inserts user. A taken email yields models.ErrDuplicate.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	count, err := r.col.CountDocuments(ctx, bson.M{"email": user.Email})
	if err != nil {
		return fmt.Errorf("check existing user: %w", err)
	}
	if count > 0 {
		return models.ErrDuplicate
	}

	now := time.Now()
	user.ID = primitive.NewObjectID()
	user.CreatedAt, user.UpdatedAt = now, now

	if _, err := r.col.InsertOne(ctx, user); err != nil {
		// The unique index catches the race the pre-check cannot.
		if mongo.IsDuplicateKeyError(err) {
			return models.ErrDuplicate
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *UserRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var user models.User
	if err := r.col.FindOne(ctx, filter).Decode(&user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &user, nil
}

// ListWorkers returns the workers of dept.
func (r *UserRepository) ListWorkers(ctx context.Context, dept models.Department) ([]models.WorkerSummary, error) {
	opts := options.Find().
		SetProjection(bson.M{"name": 1, "email": 1}).
		SetSort(bson.D{{Key: "name", Value: 1}})

	cursor, err := r.col.Find(ctx, bson.M{"role": models.RoleWorker, "department": dept}, opts)
	if err != nil {
		return nil, fmt.Errorf("find workers: %w", err)
	}
	defer cursor.Close(ctx)

	workers := make([]models.WorkerSummary, 0)
	if err := cursor.All(ctx, &workers); err != nil {
		return nil, fmt.Errorf("decode workers: %w", err)
	}
	return workers, nil
}

func (r *UserRepository) CountCitizens(ctx context.Context) (int64, error) {
	n, err := r.col.CountDocuments(ctx, bson.M{"role": models.RoleCitizen})
	if err != nil {
		return 0, fmt.Errorf("count citizens: %w", err)
	}
	return n, nil
}
