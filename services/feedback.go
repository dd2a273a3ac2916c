package services

import (
	"context"

	"civicresolve-be/events"
	"civicresolve-be/models"
)

// SubmitFeedback records the reporting citizen's verdict on a resolved
// issue. Unsatisfied escalates the issue and sets the resolution photo
// aside as previous evidence.
func (s *IssueService) SubmitFeedback(ctx context.Context, citizen models.CitizenSession, ticketID string, feedback models.CitizenFeedback) (*models.Issue, error) {
	if !feedback.Submittable() {
		return nil, models.NewValidationError("Feedback must be Satisfied or Unsatisfied")
	}

	issue, err := s.Track(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if issue.ReportedBy.Hex() != citizen.AccountID {
		return nil, models.NewForbiddenError("Only the reporting citizen can give feedback")
	}
	if issue.Status != models.StatusResolved {
		return nil, models.NewValidationError("Feedback is only accepted on resolved issues")
	}

	resolved := models.StatusResolved
	if feedback == models.FeedbackSatisfied {
		change := &models.IssueChange{ExpectStatus: &resolved, CitizenFeedback: &feedback, UpdatedAt: s.now()}
		return s.apply(ctx, issue.ID, change, events.TypeFeedback)
	}

	change := models.Transition(models.StatusEscalated, models.ChangedByFeedback, s.now())
	change.ExpectStatus = &resolved
	change.CitizenFeedback = &feedback
	if issue.ResolutionImageURL != "" {
		prev := issue.ResolutionImageURL
		change.PreviousResolutionURL = &prev
	}
	cleared := ""
	change.ResolutionImageURL = &cleared
	return s.apply(ctx, issue.ID, change, events.TypeEscalated)
}
