package services

import (
	"context"
	"errors"

	"civicresolve-be/events"
	"civicresolve-be/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// StatusUpdate carries the officer-supplied fields of a generic status change.
// Nil fields are left untouched.
type StatusUpdate struct {
	Status             models.IssueStatus
	ResolutionNote     *string
	ResolutionCost     *float64
	ResolutionImageURL *string
	RejectionReason    *string
}

// Completion is what a worker submits when finishing a task.
type Completion struct {
	Note               string
	ResolutionCost     *float64
	ResolutionImageURL *string
}

// AssignDepartment routes an issue to dept by hand. Any worker is released;
// the department picks its own.
func (s *IssueService) AssignDepartment(ctx context.Context, officer models.OfficerSession, issueID string, dept models.Department) (*models.Issue, error) {
	id, err := parseIssueID(issueID)
	if err != nil {
		return nil, err
	}
	if !dept.Valid() {
		return nil, models.NewValidationError("Invalid department")
	}

	change := models.Transition(models.StatusAssignedToDept, officer.Attribution(), s.now())
	change.AssignedDepartment = &dept
	change.ClearAssignedWorker = true
	return s.apply(ctx, id, change, events.TypeStatusChanged)
}

// UpdateStatus moves an issue to any status. Reaching Resolved reopens the
// feedback loop.
func (s *IssueService) UpdateStatus(ctx context.Context, officer models.OfficerSession, issueID string, in StatusUpdate) (*models.Issue, error) {
	id, err := parseIssueID(issueID)
	if err != nil {
		return nil, err
	}
	if !in.Status.Valid() {
		return nil, models.NewValidationError("Invalid status")
	}

	change := models.Transition(in.Status, officer.Attribution(), s.now())
	change.ResolutionNote = in.ResolutionNote
	change.ResolutionCost = in.ResolutionCost
	change.ResolutionImageURL = in.ResolutionImageURL
	change.ClearAssignedWorker = !in.Status.AcceptsWorker()

	switch in.Status {
	case models.StatusResolved:
		pending := models.FeedbackPending
		change.CitizenFeedback = &pending
		if by, err := primitive.ObjectIDFromHex(officer.AccountID); err == nil {
			change.ResolvedBy = &by
		}
	case models.StatusWorkRejected:
		change.RejectionReason = in.RejectionReason
	}

	return s.apply(ctx, id, change, events.TypeStatusChanged)
}

// AssignWorker hands a triaged issue to a worker of the issue's department.
func (s *IssueService) AssignWorker(ctx context.Context, officer models.OfficerSession, issueID, workerID string) (*models.Issue, error) {
	id, err := parseIssueID(issueID)
	if err != nil {
		return nil, err
	}
	issue, err := s.issues.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err)
	}

	if officer.Role == models.RoleDepartment &&
		(issue.AssignedDepartment == nil || *issue.AssignedDepartment != officer.Department) {
		return nil, models.NewForbiddenError("Issue belongs to another department")
	}
	if issue.AssignedDepartment == nil || !issue.Status.AcceptsWorker() {
		return nil, models.NewValidationError("Issue must be assigned to a department first")
	}

	workerOID, err := primitive.ObjectIDFromHex(workerID)
	if err != nil {
		return nil, models.NewValidationError("Invalid worker id")
	}
	worker, err := s.users.FindByID(ctx, workerOID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.NewNotFoundError("Worker not found")
		}
		return nil, models.NewInternalError("Failed to retrieve worker", err)
	}
	if worker.Role != models.RoleWorker {
		return nil, models.NewValidationError("Account is not a worker")
	}
	if worker.Department != *issue.AssignedDepartment {
		return nil, models.NewValidationError("Worker belongs to a different department")
	}

	dept := *issue.AssignedDepartment
	change := models.Transition(models.StatusAssignedToWorker, officer.Attribution(), s.now())
	change.ExpectDepartment = &dept
	change.AssignedWorker = &workerOID
	return s.apply(ctx, id, change, events.TypeStatusChanged)
}

// CompleteWork marks a worker's task resolved and asks the citizen for feedback.
func (s *IssueService) CompleteWork(ctx context.Context, worker models.CitizenSession, issueID string, in Completion) (*models.Issue, error) {
	if !worker.IsWorker() {
		return nil, models.NewForbiddenError("Only workers can complete tasks")
	}
	id, err := parseIssueID(issueID)
	if err != nil {
		return nil, err
	}
	issue, err := s.issues.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err)
	}
	if issue.AssignedWorker == nil || issue.AssignedWorker.Hex() != worker.AccountID {
		return nil, models.NewForbiddenError("Task is not assigned to you")
	}
	if issue.AssignedDepartment == nil || *issue.AssignedDepartment != worker.Department {
		return nil, models.NewForbiddenError("Task belongs to another department")
	}

	note := in.Note
	pending := models.FeedbackPending
	dept := worker.Department
	change := models.Transition(models.StatusResolved, models.ChangedByWorker, s.now())
	change.ExpectDepartment = &dept
	change.CitizenFeedback = &pending
	change.ResolutionNote = &note
	change.ResolutionCost = in.ResolutionCost
	change.ResolutionImageURL = in.ResolutionImageURL
	return s.apply(ctx, id, change, events.TypeStatusChanged)
}

func (s *IssueService) apply(ctx context.Context, id primitive.ObjectID, change *models.IssueChange, eventType string) (*models.Issue, error) {
	issue, err := s.issues.ApplyChange(ctx, id, change)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.NewNotFoundError("Issue not found")
		}
		if errors.Is(err, models.ErrStale) {
			return nil, models.NewValidationError("Issue was updated by someone else, reload and try again")
		}
		return nil, models.NewInternalError("Database Error", err)
	}

	if change.History != nil {
		s.log.Info("issue transitioned",
			"ticket_id", issue.TicketID,
			"status", change.History.Status,
			"changed_by", change.History.ChangedBy)
	}
	s.publish(ctx, eventType, issue)
	return issue, nil
}
