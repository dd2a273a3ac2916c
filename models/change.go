package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// IssueChange is the full set of field writes produced by one operation on
// one issue. Stores persist it as a single atomic update. A transition sets
// both Status and History; a feedback-only change sets neither.
type IssueChange struct {
	Status  *IssueStatus
	History *HistoryEntry

	// Preconditions. When set, the store applies the change only if the
	// issue still matches, and returns ErrStale otherwise.
	ExpectStatus     *IssueStatus
	ExpectDepartment *Department

	AssignedDepartment  *Department
	AssignedWorker      *primitive.ObjectID
	ClearAssignedWorker bool
	ResolvedBy          *primitive.ObjectID

	ResolutionNote     *string
	ResolutionCost     *float64
	ResolutionImageURL *string // an empty string clears the field

	PreviousResolutionURL *string
	RejectionReason       *string
	CitizenFeedback       *CitizenFeedback

	UpdatedAt time.Time
}

// Transition starts a change that moves the issue to status and records it.
func Transition(status IssueStatus, changedBy string, at time.Time) *IssueChange {
	return &IssueChange{
		Status:    &status,
		History:   &HistoryEntry{Status: status, ChangedBy: changedBy, Timestamp: at},
		UpdatedAt: at,
	}
}

// Matches reports whether issue satisfies the change's preconditions.
func (c *IssueChange) Matches(issue *Issue) bool {
	if c.ExpectStatus != nil && issue.Status != *c.ExpectStatus {
		return false
	}
	if c.ExpectDepartment != nil && (issue.AssignedDepartment == nil || *issue.AssignedDepartment != *c.ExpectDepartment) {
		return false
	}
	return true
}

// Apply writes the change onto issue in memory, exactly as the store does.
func (c *IssueChange) Apply(issue *Issue) {
	if c.Status != nil {
		issue.Status = *c.Status
	}
	if c.AssignedDepartment != nil {
		dept := *c.AssignedDepartment
		issue.AssignedDepartment = &dept
	}
	if c.AssignedWorker != nil {
		worker := *c.AssignedWorker
		issue.AssignedWorker = &worker
	} else if c.ClearAssignedWorker {
		issue.AssignedWorker = nil
	}
	if c.ResolvedBy != nil {
		by := *c.ResolvedBy
		issue.ResolvedBy = &by
	}
	if c.ResolutionNote != nil {
		issue.ResolutionNote = *c.ResolutionNote
	}
	if c.ResolutionCost != nil {
		issue.ResolutionCost = *c.ResolutionCost
	}
	if c.ResolutionImageURL != nil {
		issue.ResolutionImageURL = *c.ResolutionImageURL
	}
	if c.PreviousResolutionURL != nil {
		issue.PreviousResolutionURL = *c.PreviousResolutionURL
	}
	if c.RejectionReason != nil {
		issue.RejectionReason = *c.RejectionReason
	}
	if c.CitizenFeedback != nil {
		issue.CitizenFeedback = *c.CitizenFeedback
	}
	if c.History != nil {
		issue.History = append(issue.History, *c.History)
	}
	if !c.UpdatedAt.IsZero() {
		issue.UpdatedAt = c.UpdatedAt
	}
}
