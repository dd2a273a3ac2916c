package models

import "time"

// Session lifetimes. There is no revocation; expiry is the only cap.
const (
	OfficerSessionTTL = 8 * time.Hour
	CitizenSessionTTL = 30 * 24 * time.Hour
)

// SessionKind is the explicit principal tag carried in every token.
type SessionKind string

const (
	SessionKindCitizen SessionKind = "citizen"
	SessionKindOfficer SessionKind = "officer"
)

// Session is a decoded, verified identity. It is either a CitizenSession or
// an OfficerSession; no other implementations exist.
type Session interface {
	Kind() SessionKind
	Subject() string
	sealed()
}

// CitizenSession identifies a citizen or worker account.
type CitizenSession struct {
	AccountID  string
	Role       UserRole
	Department Department
}

func (CitizenSession) Kind() SessionKind { return SessionKindCitizen }

func (s CitizenSession) Subject() string { return s.AccountID }

func (CitizenSession) sealed() {}

func (s CitizenSession) IsWorker() bool { return s.Role == RoleWorker }

// OfficerSession identifies an admin or department account.
type OfficerSession struct {
	AccountID  string
	Name       string
	Email      string
	Role       OfficerRole
	Department Department
}

func (OfficerSession) Kind() SessionKind { return SessionKindOfficer }

func (s OfficerSession) Subject() string { return s.AccountID }

func (OfficerSession) sealed() {}

// Attribution is the changedBy value recorded for this officer's transitions.
func (s OfficerSession) Attribution() string {
	if s.Email != "" {
		return s.Email
	}
	return ChangedByAdmin
}
