package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"civicresolve-be/models"
)

// IdentityService registers and authenticates both principal kinds.
type IdentityService struct {
	users    UserStore
	officers OfficerStore
	signer   SessionSigner
	log      *slog.Logger
}

func NewIdentityService(users UserStore, officers OfficerStore, signer SessionSigner, log *slog.Logger) *IdentityService {
	return &IdentityService{users: users, officers: officers, signer: signer, log: log.With("component", "identity")}
}

type CitizenRegistration struct {
	Name       string
	Email      string
	Password   string
	Role       models.UserRole
	Department models.Department
}

type OfficerRegistration struct {
	Name       string
	Email      string
	Password   string
	Ward       string
	Role       models.OfficerRole
	Department models.Department
}

// AuthResult is a profile plus a freshly signed session token.
type AuthResult struct {
	Token   string
	User    *models.User
	Officer *models.Officer
}

var errInvalidCredentials = models.NewUnauthorizedError("Invalid credentials")

// hashError keeps bcrypt's length limit a client error.
func hashError(err error) error {
	if appErr, ok := models.AsAppError(err); ok {
		return appErr
	}
	return models.NewInternalError("Something went wrong", err)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// RegisterCitizen creates a citizen or worker account and signs it in.
func (s *IdentityService) RegisterCitizen(ctx context.Context, in CitizenRegistration) (*AuthResult, error) {
	role := in.Role
	if role == "" {
		role = models.RoleCitizen
	}
	if !role.Valid() {
		return nil, models.NewValidationError("Invalid role")
	}

	dept := models.DepartmentNone
	if role == models.RoleWorker {
		if !in.Department.Valid() {
			return nil, models.NewValidationError("Workers must belong to a valid department")
		}
		dept = in.Department
	}

	user := &models.User{
		Name:       strings.TrimSpace(in.Name),
		Email:      normalizeEmail(in.Email),
		Password:   in.Password,
		Role:       role,
		Department: dept,
	}
	if err := user.HashPassword(); err != nil {
		return nil, hashError(err)
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, models.ErrDuplicate) {
			return nil, models.NewConflictError("User with this email already exists")
		}
		return nil, models.NewInternalError("Something went wrong", err)
	}
	s.log.Info("user registered", "user_id", user.ID.Hex(), "role", user.Role)

	return s.citizenResult(user)
}

// LoginCitizen verifies a citizen or worker and signs a 30 day session.
func (s *IdentityService) LoginCitizen(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, errInvalidCredentials
		}
		return nil, models.NewInternalError("Something went wrong", err)
	}
	if !user.ComparePassword(password) {
		return nil, errInvalidCredentials
	}
	return s.citizenResult(user)
}

func (s *IdentityService) citizenResult(user *models.User) (*AuthResult, error) {
	token, err := s.signer.Sign(models.CitizenSession{
		AccountID:  user.ID.Hex(),
		Role:       user.Role,
		Department: user.Department,
	})
	if err != nil {
		return nil, models.NewInternalError("Something went wrong", err)
	}
	return &AuthResult{Token: token, User: user}, nil
}

// RegisterOfficer creates an admin or department account. No session is issued.
func (s *IdentityService) RegisterOfficer(ctx context.Context, in OfficerRegistration) (*models.Officer, error) {
	role := in.Role
	if role == "" {
		role = models.RoleAdmin
	}
	if !role.Valid() {
		return nil, models.NewValidationError("Invalid role")
	}
	if role == models.RoleDepartment && !in.Department.Valid() {
		return nil, models.NewValidationError("Department accounts must name a valid department")
	}
	if role == models.RoleAdmin && in.Department != "" && !in.Department.Valid() {
		return nil, models.NewValidationError("Invalid department")
	}

	ward := strings.TrimSpace(in.Ward)
	if ward == "" {
		ward = models.DefaultWard
	}

	officer := &models.Officer{
		Name:       strings.TrimSpace(in.Name),
		Email:      normalizeEmail(in.Email),
		Password:   in.Password,
		Ward:       ward,
		Role:       role,
		Department: in.Department,
	}
	if err := officer.HashPassword(); err != nil {
		return nil, hashError(err)
	}

	if err := s.officers.Create(ctx, officer); err != nil {
		if errors.Is(err, models.ErrDuplicate) {
			return nil, models.NewConflictError("Officer/Dept with this email already exists")
		}
		return nil, models.NewInternalError("Server error during registration", err)
	}
	s.log.Info("officer registered", "officer_id", officer.ID.Hex(), "role", officer.Role, "department", officer.Department)
	return officer, nil
}

// LoginOfficer verifies an officer and signs an 8 hour session.
func (s *IdentityService) LoginOfficer(ctx context.Context, email, password string) (*AuthResult, error) {
	officer, err := s.officers.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, errInvalidCredentials
		}
		return nil, models.NewInternalError("Server error during login", err)
	}
	if !officer.ComparePassword(password) {
		return nil, errInvalidCredentials
	}

	token, err := s.signer.Sign(models.OfficerSession{
		AccountID:  officer.ID.Hex(),
		Name:       officer.Name,
		Email:      officer.Email,
		Role:       officer.Role,
		Department: officer.Department,
	})
	if err != nil {
		return nil, models.NewInternalError("Server error during login", err)
	}
	return &AuthResult{Token: token, Officer: officer}, nil
}
