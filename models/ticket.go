package models

import (
	"strings"

	"github.com/google/uuid"
)

// TicketPrefix marks public ticket ids.
const TicketPrefix = "CIV-"

// NewTicketID returns a public ticket id such as CIV-1A2B3C4D.
// Uniqueness is enforced by the store's index; callers retry on collision.
func NewTicketID() string {
	head, _, _ := strings.Cut(uuid.NewString(), "-")
	return TicketPrefix + strings.ToUpper(head)
}
