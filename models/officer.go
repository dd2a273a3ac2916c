package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// OfficerRole distinguishes ward admins from department accounts.
type OfficerRole string

const (
	RoleAdmin      OfficerRole = "admin"
	RoleDepartment OfficerRole = "department"
)

func (r OfficerRole) Valid() bool {
	return r == RoleAdmin || r == RoleDepartment
}

// DefaultWard is used when an officer registers without one.
const DefaultWard = "Headquarters"

// Officer is an admin or department account.
type Officer struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name       string             `bson:"name" json:"name"`
	Email      string             `bson:"email" json:"email"`
	Password   string             `bson:"password,omitempty" json:"-"`
	Ward       string             `bson:"ward" json:"ward"`
	Role       OfficerRole        `bson:"role" json:"role"`
	Department Department         `bson:"department,omitempty" json:"department,omitempty"`
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time          `bson:"updatedAt" json:"updatedAt"`
}

func (o *Officer) HashPassword() error {
	hashed, err := hashPassword(o.Password)
	if err != nil {
		return err
	}
	o.Password = hashed
	return nil
}

func (o *Officer) ComparePassword(candidate string) bool {
	return comparePassword(o.Password, candidate)
}
