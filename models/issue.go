package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// IssueStatus enum
type IssueStatus string

const (
	StatusReceived         IssueStatus = "Received"
	StatusAssignedToDept   IssueStatus = "Assigned to Dept"
	StatusAssignedToWorker IssueStatus = "Assigned to Worker"
	StatusWorkInProgress   IssueStatus = "Work In Progress"
	StatusResolved         IssueStatus = "Resolved"
	StatusWorkRejected     IssueStatus = "Work Rejected"
	StatusClosed           IssueStatus = "Closed"
	StatusEscalated        IssueStatus = "Escalated"
)

var issueStatuses = []IssueStatus{
	StatusReceived,
	StatusAssignedToDept,
	StatusAssignedToWorker,
	StatusWorkInProgress,
	StatusResolved,
	StatusWorkRejected,
	StatusClosed,
	StatusEscalated,
}

// IssueStatuses returns every status in lifecycle order.
func IssueStatuses() []IssueStatus {
	out := make([]IssueStatus, len(issueStatuses))
	copy(out, issueStatuses)
	return out
}

func (s IssueStatus) Valid() bool {
	for _, v := range issueStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// InactiveStatuses are excluded from duplicate detection.
var InactiveStatuses = []IssueStatus{StatusResolved, StatusClosed, StatusWorkRejected}

// IsActive reports whether an issue in this status still counts as open work.
func (s IssueStatus) IsActive() bool {
	for _, v := range InactiveStatuses {
		if v == s {
			return false
		}
	}
	return true
}

// AcceptsWorker reports whether a worker may be attached to an issue in this status.
// Only Received precedes departmental triage.
func (s IssueStatus) AcceptsWorker() bool {
	return s.Valid() && s != StatusReceived
}

// ResolvedCounted is used by stats: both statuses count as resolved work.
var ResolvedCounted = []IssueStatus{StatusResolved, StatusClosed}

// Priority enum
type Priority string

const (
	PriorityLow      Priority = "Low"
	PriorityMedium   Priority = "Medium"
	PriorityHigh     Priority = "High"
	PriorityCritical Priority = "Critical"
)

// CitizenFeedback enum
type CitizenFeedback string

const (
	FeedbackPending     CitizenFeedback = "Pending"
	FeedbackSatisfied   CitizenFeedback = "Satisfied"
	FeedbackUnsatisfied CitizenFeedback = "Unsatisfied"
)

// Submittable reports whether a citizen may send this value.
func (f CitizenFeedback) Submittable() bool {
	return f == FeedbackSatisfied || f == FeedbackUnsatisfied
}

// GeoPoint is a GeoJSON point. Coordinates are [longitude, latitude].
type GeoPoint struct {
	Type        string    `bson:"type" json:"type"`
	Coordinates []float64 `bson:"coordinates" json:"coordinates"`
}

func NewGeoPoint(lng, lat float64) GeoPoint {
	return GeoPoint{Type: "Point", Coordinates: []float64{lng, lat}}
}

func (p GeoPoint) Lng() float64 {
	if len(p.Coordinates) < 2 {
		return 0
	}
	return p.Coordinates[0]
}

func (p GeoPoint) Lat() float64 {
	if len(p.Coordinates) < 2 {
		return 0
	}
	return p.Coordinates[1]
}

// HistoryEntry is one immutable step of an issue's lifecycle.
type HistoryEntry struct {
	Status    IssueStatus `bson:"status" json:"status"`
	ChangedBy string      `bson:"changedBy" json:"changedBy"`
	Timestamp time.Time   `bson:"timestamp" json:"timestamp"`
}

// Attribution strings recorded in history for non-officer actors.
const (
	ChangedByAutoRouting = "System (Auto-Routing)"
	ChangedByAdmin       = "Admin"
	ChangedByWorker      = "Worker"
	ChangedByFeedback    = "Citizen (Feedback)"
)

// Issue represents a civic issue reported by a citizen
type Issue struct {
	ID                    primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	TicketID              string              `bson:"ticketId" json:"ticketId"`
	ReportedBy            primitive.ObjectID  `bson:"reportedBy" json:"reportedBy"`
	Location              GeoPoint            `bson:"location" json:"location"`
	Ward                  string              `bson:"ward" json:"ward"`
	Category              Category            `bson:"category" json:"category"`
	Description           string              `bson:"description" json:"description"`
	ImageURL              string              `bson:"imageUrl" json:"imageUrl"`
	Status                IssueStatus         `bson:"status" json:"status"`
	AssignedDepartment    *Department         `bson:"assignedDepartment,omitempty" json:"assignedDepartment,omitempty"`
	AssignedWorker        *primitive.ObjectID `bson:"assignedWorker,omitempty" json:"assignedWorker,omitempty"`
	ResolutionNote        string              `bson:"resolutionNote,omitempty" json:"resolutionNote,omitempty"`
	ResolutionImageURL    string              `bson:"resolutionImageUrl,omitempty" json:"resolutionImageUrl,omitempty"`
	ResolutionCost        float64             `bson:"resolutionCost" json:"resolutionCost"`
	PreviousResolutionURL string              `bson:"previousResolutionUrl,omitempty" json:"previousResolutionUrl,omitempty"`
	RejectionReason       string              `bson:"rejectionReason,omitempty" json:"rejectionReason,omitempty"`
	ResolvedBy            *primitive.ObjectID `bson:"resolvedBy,omitempty" json:"resolvedBy,omitempty"`
	IsHazard              bool                `bson:"isHazard" json:"isHazard"`
	Priority              Priority            `bson:"priority" json:"priority"`
	CitizenFeedback       CitizenFeedback     `bson:"citizenFeedback" json:"citizenFeedback"`
	History               []HistoryEntry      `bson:"history" json:"history"`
	CreatedAt             time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt             time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// DerivePriority computes the priority assigned at creation. It is never recomputed.
func DerivePriority(category Category, isHazard bool) Priority {
	priority := PriorityMedium
	if isHazard {
		priority = PriorityHigh
	}
	if category == CategorySewageBlock || category == CategoryWaterLeak {
		priority = PriorityHigh
	}
	return priority
}

// MapPin is the public projection shown on the city map.
type MapPin struct {
	ID             primitive.ObjectID `bson:"_id" json:"id"`
	Location       GeoPoint           `bson:"location" json:"location"`
	Category       Category           `bson:"category" json:"category"`
	Status         IssueStatus        `bson:"status" json:"status"`
	ImageURL       string             `bson:"imageUrl" json:"imageUrl"`
	ResolutionCost float64            `bson:"resolutionCost" json:"resolutionCost"`
}

// CategoryCount is one row of the count-by-category aggregation.
type CategoryCount struct {
	Category Category `bson:"_id" json:"_id"`
	Count    int64    `bson:"count" json:"count"`
}

// IssueStats is the public dashboard summary.
type IssueStats struct {
	Total         int64           `json:"total"`
	Resolved      int64           `json:"resolved"`
	Pending       int64           `json:"pending"`
	CategoryStats []CategoryCount `json:"categoryStats"`
	TotalCitizens int64           `json:"totalCitizens"`
}

// IssueFilter narrows List. Nil fields are not filtered on.
type IssueFilter struct {
	ReportedBy         *primitive.ObjectID
	AssignedWorker     *primitive.ObjectID
	AssignedDepartment *Department
}

// Matches reports whether issue satisfies the filter.
func (f IssueFilter) Matches(issue *Issue) bool {
	if f.ReportedBy != nil && issue.ReportedBy != *f.ReportedBy {
		return false
	}
	if f.AssignedWorker != nil && (issue.AssignedWorker == nil || *issue.AssignedWorker != *f.AssignedWorker) {
		return false
	}
	if f.AssignedDepartment != nil && (issue.AssignedDepartment == nil || *issue.AssignedDepartment != *f.AssignedDepartment) {
		return false
	}
	return true
}
