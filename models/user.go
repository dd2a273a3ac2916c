package models

import (
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

// UserRole distinguishes citizens from field workers. Both use the citizen gate.
type UserRole string

const (
	RoleCitizen UserRole = "citizen"
	RoleWorker  UserRole = "worker"
)

func (r UserRole) Valid() bool {
	return r == RoleCitizen || r == RoleWorker
}

// User is a citizen or worker account.
type User struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name       string             `bson:"name" json:"name"`
	Email      string             `bson:"email" json:"email"`
	Password   string             `bson:"password,omitempty" json:"-"`
	Role       UserRole           `bson:"role" json:"role"`
	Department Department         `bson:"department" json:"department"`
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time          `bson:"updatedAt" json:"updatedAt"`
}

func (u *User) HashPassword() error {
	hashed, err := hashPassword(u.Password)
	if err != nil {
		return err
	}
	u.Password = hashed
	return nil
}

func (u *User) ComparePassword(candidate string) bool {
	return comparePassword(u.Password, candidate)
}

// WorkerSummary is what officers see when picking a worker.
type WorkerSummary struct {
	ID    primitive.ObjectID `bson:"_id" json:"id"`
	Name  string             `bson:"name" json:"name"`
	Email string             `bson:"email" json:"email"`
}

func hashPassword(plain string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", NewValidationError("Invalid request", "password must be at most 72 bytes")
		}
		return "", err
	}
	return string(hashed), nil
}

func comparePassword(hashed, candidate string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(candidate)) == nil
}
