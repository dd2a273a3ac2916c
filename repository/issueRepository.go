package repository

import (
	"context"
	"errors"
	"fmt"

	"civicresolve-be/config"
	"civicresolve-be/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// IssueRepository stores issues in MongoDB.
type IssueRepository struct {
	col *mongo.Collection
}

func NewIssueRepository(db *mongo.Database) *IssueRepository {
	return &IssueRepository{col: db.Collection(config.IssuesCollection)}
}

func (r *IssueRepository) Create(ctx context.Context, issue *models.Issue) error {
	if issue.ID.IsZero() {
		issue.ID = primitive.NewObjectID()
	}
	if _, err := r.col.InsertOne(ctx, issue); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("insert issue %s: %w", issue.TicketID, models.ErrDuplicate)
		}
		return fmt.Errorf("insert issue: %w", err)
	}
	return nil
}

func (r *IssueRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Issue, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *IssueRepository) FindByTicketID(ctx context.Context, ticketID string) (*models.Issue, error) {
	return r.findOne(ctx, bson.M{"ticketId": ticketID})
}

func (r *IssueRepository) findOne(ctx context.Context, filter bson.M) (*models.Issue, error) {
	var issue models.Issue
	err := r.col.FindOne(ctx, filter).Decode(&issue)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("find issue: %w", err)
	}
	return &issue, nil
}

// List returns matching issues, newest first.
func (r *IssueRepository) List(ctx context.Context, f models.IssueFilter) ([]models.Issue, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	return r.find(ctx, filterDocument(f), opts)
}

// FindNearbyActive returns active issues of category within radiusMeters of point.
func (r *IssueRepository) FindNearbyActive(ctx context.Context, point models.GeoPoint, radiusMeters float64, category models.Category) ([]models.Issue, error) {
	filter := bson.M{
		"location": bson.M{
			"$near": bson.M{
				"$geometry":    bson.M{"type": "Point", "coordinates": bson.A{point.Lng(), point.Lat()}},
				"$maxDistance": radiusMeters,
			},
		},
		"category": category,
		"status":   bson.M{"$nin": models.InactiveStatuses},
	}
	return r.find(ctx, filter)
}

func (r *IssueRepository) find(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]models.Issue, error) {
	cursor, err := r.col.Find(ctx, filter, opts...)
	if err != nil {
		return nil, fmt.Errorf("find issues: %w", err)
	}
	defer cursor.Close(ctx)

	issues := make([]models.Issue, 0)
	if err := cursor.All(ctx, &issues); err != nil {
		return nil, fmt.Errorf("decode issues: %w", err)
	}
	return issues, nil
}

// ApplyChange persists change as one atomic document update and returns the
// updated issue.
func (r *IssueRepository) ApplyChange(ctx context.Context, id primitive.ObjectID, change *models.IssueChange) (*models.Issue, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var issue models.Issue
	err := r.col.FindOneAndUpdate(ctx, changeFilter(id, change), updateDocument(change), opts).Decode(&issue)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			if change.ExpectStatus != nil || change.ExpectDepartment != nil {
				return nil, r.staleOrMissing(ctx, id)
			}
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("update issue %s: %w", id.Hex(), err)
	}
	return &issue, nil
}

func (r *IssueRepository) staleOrMissing(ctx context.Context, id primitive.ObjectID) error {
	n, err := r.col.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("count issue %s: %w", id.Hex(), err)
	}
	if n == 0 {
		return models.ErrNotFound
	}
	return models.ErrStale
}

func (r *IssueRepository) PublicMap(ctx context.Context) ([]models.MapPin, error) {
	projection := bson.M{
		"location":       1,
		"category":       1,
		"status":         1,
		"imageUrl":       1,
		"resolutionCost": 1,
	}
	cursor, err := r.col.Find(ctx, bson.M{}, options.Find().SetProjection(projection))
	if err != nil {
		return nil, fmt.Errorf("find map pins: %w", err)
	}
	defer cursor.Close(ctx)

	pins := make([]models.MapPin, 0)
	if err := cursor.All(ctx, &pins); err != nil {
		return nil, fmt.Errorf("decode map pins: %w", err)
	}
	return pins, nil
}

// Count returns the number of issues in any of statuses, or all issues when
// statuses is empty.
func (r *IssueRepository) Count(ctx context.Context, statuses ...models.IssueStatus) (int64, error) {
	filter := bson.M{}
	if len(statuses) > 0 {
		filter["status"] = bson.M{"$in": statuses}
	}
	n, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("count issues: %w", err)
	}
	return n, nil
}

func (r *IssueRepository) CountByCategory(ctx context.Context) ([]models.CategoryCount, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{"_id": "$category", "count": bson.M{"$sum": 1}}}},
		{{Key: "$sort", Value: bson.D{{Key: "count", Value: -1}, {Key: "_id", Value: 1}}}},
	}
	cursor, err := r.col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregate categories: %w", err)
	}
	defer cursor.Close(ctx)

	counts := make([]models.CategoryCount, 0)
	if err := cursor.All(ctx, &counts); err != nil {
		return nil, fmt.Errorf("decode category counts: %w", err)
	}
	return counts, nil
}

func filterDocument(f models.IssueFilter) bson.M {
	filter := bson.M{}
	if f.ReportedBy != nil {
		filter["reportedBy"] = *f.ReportedBy
	}
	if f.AssignedWorker != nil {
		filter["assignedWorker"] = *f.AssignedWorker
	}
	if f.AssignedDepartment != nil {
		filter["assignedDepartment"] = *f.AssignedDepartment
	}
	return filter
}

// changeFilter selects the issue only while the change's preconditions hold.
func changeFilter(id primitive.ObjectID, c *models.IssueChange) bson.M {
	filter := bson.M{"_id": id}
	if c.ExpectStatus != nil {
		filter["status"] = *c.ExpectStatus
	}
	if c.ExpectDepartment != nil {
		filter["assignedDepartment"] = *c.ExpectDepartment
	}
	return filter
}

// updateDocument translates an IssueChange into a single update document.
func updateDocument(c *models.IssueChange) bson.M {
	set := bson.M{}
	if c.Status != nil {
		set["status"] = *c.Status
	}
	if c.AssignedDepartment != nil {
		set["assignedDepartment"] = *c.AssignedDepartment
	}
	if c.AssignedWorker != nil {
		set["assignedWorker"] = *c.AssignedWorker
	}
	if c.ResolvedBy != nil {
		set["resolvedBy"] = *c.ResolvedBy
	}
	if c.ResolutionNote != nil {
		set["resolutionNote"] = *c.ResolutionNote
	}
	if c.ResolutionCost != nil {
		set["resolutionCost"] = *c.ResolutionCost
	}
	if c.ResolutionImageURL != nil {
		set["resolutionImageUrl"] = *c.ResolutionImageURL
	}
	if c.PreviousResolutionURL != nil {
		set["previousResolutionUrl"] = *c.PreviousResolutionURL
	}
	if c.RejectionReason != nil {
		set["rejectionReason"] = *c.RejectionReason
	}
	if c.CitizenFeedback != nil {
		set["citizenFeedback"] = *c.CitizenFeedback
	}
	if !c.UpdatedAt.IsZero() {
		set["updatedAt"] = c.UpdatedAt
	}

	update := bson.M{}
	if len(set) > 0 {
		update["$set"] = set
	}
	if c.History != nil {
		update["$push"] = bson.M{"history": *c.History}
	}
	if c.ClearAssignedWorker && c.AssignedWorker == nil {
		update["$unset"] = bson.M{"assignedWorker": ""}
	}
	return update
}
