package services

import (
	"context"

	"civicresolve-be/events"
	"civicresolve-be/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// IssueStore is the persistence the issue workflow needs. ApplyChange must
// write all fields of a change and its history entry atomically.
type IssueStore interface {
	Create(ctx context.Context, issue *models.Issue) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Issue, error)
	FindByTicketID(ctx context.Context, ticketID string) (*models.Issue, error)
	List(ctx context.Context, filter models.IssueFilter) ([]models.Issue, error)
	FindNearbyActive(ctx context.Context, point models.GeoPoint, radiusMeters float64, category models.Category) ([]models.Issue, error)
	ApplyChange(ctx context.Context, id primitive.ObjectID, change *models.IssueChange) (*models.Issue, error)
	PublicMap(ctx context.Context) ([]models.MapPin, error)
	Count(ctx context.Context, statuses ...models.IssueStatus) (int64, error)
	CountByCategory(ctx context.Context) ([]models.CategoryCount, error)
}

type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	ListWorkers(ctx context.Context, dept models.Department) ([]models.WorkerSummary, error)
	CountCitizens(ctx context.Context) (int64, error)
}

type OfficerStore interface {
	Create(ctx context.Context, officer *models.Officer) error
	FindByEmail(ctx context.Context, email string) (*models.Officer, error)
}

// SessionSigner issues signed session tokens.
type SessionSigner interface {
	Sign(s models.Session) (string, error)
}

// EventPublisher receives lifecycle events after they are persisted.
type EventPublisher interface {
	Publish(ctx context.Context, ev events.IssueEvent) error
}
