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
)

// OfficerRepository stores admin and department accounts.
type OfficerRepository struct {
	col *mongo.Collection
}

func NewOfficerRepository(db *mongo.Database) *OfficerRepository {
	return &OfficerRepository{col: db.Collection(config.OfficersCollection)}
}

func (r *OfficerRepository) Create(ctx context.Context, officer *models.Officer) error {
	count, err := r.col.CountDocuments(ctx, bson.M{"email": officer.Email})
	if err != nil {
		return fmt.Errorf("check existing officer: %w", err)
	}
	if count > 0 {
		return models.ErrDuplicate
	}

	now := time.Now()
	officer.ID = primitive.NewObjectID()
	officer.CreatedAt, officer.UpdatedAt = now, now

	if _, err := r.col.InsertOne(ctx, officer); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return models.ErrDuplicate
		}
		return fmt.Errorf("insert officer: %w", err)
	}
	return nil
}

func (r *OfficerRepository) FindByEmail(ctx context.Context, email string) (*models.Officer, error) {
	var officer models.Officer
	if err := r.col.FindOne(ctx, bson.M{"email": email}).Decode(&officer); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("find officer: %w", err)
	}
	return &officer, nil
}
