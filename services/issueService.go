package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"civicresolve-be/events"
	"civicresolve-be/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DuplicateRadiusMeters bounds the duplicate-report search.
const DuplicateRadiusMeters = 50

const ticketAttempts = 3

// IssueService runs the issue lifecycle: reporting, triage, assignment,
// resolution and citizen feedback.
type IssueService struct {
	issues    IssueStore
	users     UserStore
	publisher EventPublisher
	log       *slog.Logger

	now         func() time.Time
	newTicketID func() string
}

func NewIssueService(issues IssueStore, users UserStore, publisher EventPublisher, log *slog.Logger) *IssueService {
	return &IssueService{
		issues:      issues,
		users:       users,
		publisher:   publisher,
		log:         log.With("component", "issues"),
		now:         time.Now,
		newTicketID: models.NewTicketID,
	}
}

// ReportInput is a validated citizen report. ImageURL must already point at
// stored content.
type ReportInput struct {
	Lng         float64
	Lat         float64
	Ward        string
	Category    models.Category
	Description string
	ImageURL    string
	IsHazard    bool
}

// ValidateCoordinates rejects points outside WGS84 bounds.
func ValidateCoordinates(lng, lat float64) error {
	if lng < -180 || lng > 180 {
		return models.NewValidationError("Invalid location", "longitude must be between -180 and 180")
	}
	if lat < -90 || lat > 90 {
		return models.NewValidationError("Invalid location", "latitude must be between -90 and 90")
	}
	return nil
}

// Report creates an issue, auto-routing it to a department when the
// category has one.
func (s *IssueService) Report(ctx context.Context, citizen models.CitizenSession, in ReportInput) (*models.Issue, error) {
	reporter, err := primitive.ObjectIDFromHex(citizen.AccountID)
	if err != nil {
		return nil, models.NewUnauthorizedError("Invalid account")
	}
	if !in.Category.Valid() {
		return nil, models.NewValidationError("Invalid category")
	}
	if strings.TrimSpace(in.Ward) == "" {
		return nil, models.NewValidationError("Ward is required")
	}
	if in.ImageURL == "" {
		return nil, models.NewValidationError("Issue image is required")
	}
	if err := ValidateCoordinates(in.Lng, in.Lat); err != nil {
		return nil, err
	}

	now := s.now()
	issue := &models.Issue{
		ReportedBy:      reporter,
		Location:        models.NewGeoPoint(in.Lng, in.Lat),
		Ward:            strings.TrimSpace(in.Ward),
		Category:        in.Category,
		Description:     in.Description,
		ImageURL:        in.ImageURL,
		Status:          models.StatusReceived,
		IsHazard:        in.IsHazard,
		Priority:        models.DerivePriority(in.Category, in.IsHazard),
		CitizenFeedback: models.FeedbackPending,
		History:         []models.HistoryEntry{},
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if dept, ok := models.RouteCategory(in.Category); ok {
		issue.Status = models.StatusAssignedToDept
		issue.AssignedDepartment = &dept
		issue.History = append(issue.History, models.HistoryEntry{
			Status:    models.StatusAssignedToDept,
			ChangedBy: models.ChangedByAutoRouting,
			Timestamp: now,
		})
	}

	for attempt := 1; ; attempt++ {
		issue.ID = primitive.NilObjectID
		issue.TicketID = s.newTicketID()
		err = s.issues.Create(ctx, issue)
		if err == nil {
			break
		}
		if !errors.Is(err, models.ErrDuplicate) || attempt == ticketAttempts {
			return nil, models.NewInternalError("Failed to create issue", err)
		}
		s.log.Warn("ticket id collision, retrying", "ticket_id", issue.TicketID, "attempt", attempt)
	}

	s.log.Info("issue reported",
		"ticket_id", issue.TicketID,
		"category", issue.Category,
		"status", issue.Status,
		"priority", issue.Priority)
	s.publish(ctx, events.TypeReported, issue)
	return issue, nil
}

// FindNearbyActive returns active issues of the same category within
// DuplicateRadiusMeters. It never returns nil.
func (s *IssueService) FindNearbyActive(ctx context.Context, lng, lat float64, category models.Category) ([]models.Issue, error) {
	issues, err := s.issues.FindNearbyActive(ctx, models.NewGeoPoint(lng, lat), DuplicateRadiusMeters, category)
	if err != nil {
		return nil, models.NewInternalError("Server Error checking duplicates", err)
	}
	if issues == nil {
		issues = []models.Issue{}
	}
	return issues, nil
}

// Track looks an issue up by its public ticket id.
func (s *IssueService) Track(ctx context.Context, ticketID string) (*models.Issue, error) {
	issue, err := s.issues.FindByTicketID(ctx, strings.TrimSpace(ticketID))
	if err != nil {
		return nil, lookupError(err)
	}
	return issue, nil
}

func (s *IssueService) ListAll(ctx context.Context) ([]models.Issue, error) {
	return s.list(ctx, models.IssueFilter{})
}

// MyIssues lists the issues a citizen reported.
func (s *IssueService) MyIssues(ctx context.Context, citizen models.CitizenSession) ([]models.Issue, error) {
	id, err := primitive.ObjectIDFromHex(citizen.AccountID)
	if err != nil {
		return nil, models.NewForbiddenError("Access Denied")
	}
	return s.list(ctx, models.IssueFilter{ReportedBy: &id})
}

// WorkerTasks lists the issues assigned to a worker.
func (s *IssueService) WorkerTasks(ctx context.Context, worker models.CitizenSession) ([]models.Issue, error) {
	id, err := primitive.ObjectIDFromHex(worker.AccountID)
	if err != nil {
		return nil, models.NewForbiddenError("Access Denied")
	}
	return s.list(ctx, models.IssueFilter{AssignedWorker: &id})
}

// DepartmentIssues lists the issues routed to the officer's department.
func (s *IssueService) DepartmentIssues(ctx context.Context, officer models.OfficerSession) ([]models.Issue, error) {
	if !officer.Department.Valid() {
		return nil, models.NewValidationError("Account has no department")
	}
	dept := officer.Department
	return s.list(ctx, models.IssueFilter{AssignedDepartment: &dept})
}

func (s *IssueService) list(ctx context.Context, filter models.IssueFilter) ([]models.Issue, error) {
	issues, err := s.issues.List(ctx, filter)
	if err != nil {
		return nil, models.NewInternalError("Failed to retrieve issues", err)
	}
	if issues == nil {
		issues = []models.Issue{}
	}
	return issues, nil
}

func (s *IssueService) WorkersByDepartment(ctx context.Context, dept models.Department) ([]models.WorkerSummary, error) {
	if !dept.Valid() {
		return nil, models.NewValidationError("Invalid department")
	}
	workers, err := s.users.ListWorkers(ctx, dept)
	if err != nil {
		return nil, models.NewInternalError("Failed to retrieve workers", err)
	}
	if workers == nil {
		workers = []models.WorkerSummary{}
	}
	return workers, nil
}

func (s *IssueService) PublicMap(ctx context.Context) ([]models.MapPin, error) {
	pins, err := s.issues.PublicMap(ctx)
	if err != nil {
		return nil, models.NewInternalError("Failed to retrieve map", err)
	}
	if pins == nil {
		pins = []models.MapPin{}
	}
	return pins, nil
}

func (s *IssueService) Stats(ctx context.Context) (*models.IssueStats, error) {
	total, err := s.issues.Count(ctx)
	if err != nil {
		return nil, models.NewInternalError("Error", err)
	}
	resolved, err := s.issues.Count(ctx, models.ResolvedCounted...)
	if err != nil {
		return nil, models.NewInternalError("Error", err)
	}
	byCategory, err := s.issues.CountByCategory(ctx)
	if err != nil {
		return nil, models.NewInternalError("Error", err)
	}
	citizens, err := s.users.CountCitizens(ctx)
	if err != nil {
		return nil, models.NewInternalError("Error", err)
	}
	if byCategory == nil {
		byCategory = []models.CategoryCount{}
	}
	return &models.IssueStats{
		Total:         total,
		Resolved:      resolved,
		Pending:       total - resolved,
		CategoryStats: byCategory,
		TotalCitizens: citizens,
	}, nil
}

// publish is best-effort: the change is already persisted.
func (s *IssueService) publish(ctx context.Context, eventType string, issue *models.Issue) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, events.NewIssueEvent(eventType, issue)); err != nil {
		s.log.Warn("publish issue event failed", "type", eventType, "ticket_id", issue.TicketID, "error", err)
	}
}

func lookupError(err error) error {
	if errors.Is(err, models.ErrNotFound) {
		return models.NewNotFoundError("Issue not found")
	}
	return models.NewInternalError("Failed to retrieve issue", err)
}

func parseIssueID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, models.NewNotFoundError("Issue not found")
	}
	return oid, nil
}
