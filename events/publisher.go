// Package events publishes issue lifecycle events for downstream consumers
// such as the WhatsApp bridge.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"civicresolve-be/models"

	"github.com/redis/go-redis/v9"
)

// Event types
const (
	TypeReported      = "issue.reported"
	TypeStatusChanged = "issue.status_changed"
	TypeEscalated     = "issue.escalated"
	TypeFeedback      = "issue.feedback"
)

// IssueEvent is the JSON payload published per lifecycle step.
type IssueEvent struct {
	Type       string             `json:"type"`
	TicketID   string             `json:"ticketId"`
	IssueID    string             `json:"issueId"`
	ReportedBy string             `json:"reportedBy"`
	Status     models.IssueStatus `json:"status"`
	ChangedBy  string             `json:"changedBy,omitempty"`
	At         time.Time          `json:"at"`
}

// NewIssueEvent snapshots issue after a change.
func NewIssueEvent(eventType string, issue *models.Issue) IssueEvent {
	ev := IssueEvent{
		Type:       eventType,
		TicketID:   issue.TicketID,
		IssueID:    issue.ID.Hex(),
		ReportedBy: issue.ReportedBy.Hex(),
		Status:     issue.Status,
		At:         issue.UpdatedAt,
	}
	if n := len(issue.History); n > 0 {
		ev.ChangedBy = issue.History[n-1].ChangedBy
		ev.At = issue.History[n-1].Timestamp
	}
	return ev
}

// RedisPublisher publishes events on a Redis pub/sub channel.
type RedisPublisher struct {
	client  *redis.Client
	channel string
}

func NewRedisPublisher(client *redis.Client, channel string) *RedisPublisher {
	return &RedisPublisher{client: client, channel: channel}
}

func (p *RedisPublisher) Publish(ctx context.Context, ev IssueEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := p.client.Publish(ctx, p.channel, data).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", ev.Type, err)
	}
	return nil
}

// Discard drops every event. Used when Redis is not configured.
type Discard struct{}

func (Discard) Publish(context.Context, IssueEvent) error { return nil }
