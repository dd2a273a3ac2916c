package authUtils

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"civicresolve-be/models"

	"github.com/dgrijalva/jwt-go"
)

var (
	ErrInvalidToken = errors.New("invalid session token")
	ErrNoSecret     = errors.New("session secret is not configured")
)

// SessionCodec signs and verifies stateless session tokens.
type SessionCodec struct {
	secret     []byte
	officerTTL time.Duration
	citizenTTL time.Duration
}

func NewSessionCodec(secret string) (*SessionCodec, error) {
	if secret == "" {
		return nil, ErrNoSecret
	}
	return &SessionCodec{
		secret:     []byte(secret),
		officerTTL: models.OfficerSessionTTL,
		citizenTTL: models.CitizenSessionTTL,
	}, nil
}

// WithTTLs overrides session lifetimes. Used by tests.
func (c *SessionCodec) WithTTLs(officer, citizen time.Duration) *SessionCodec {
	cp := *c
	cp.officerTTL = officer
	cp.citizenTTL = citizen
	return &cp
}

// Sign issues a token for s with the lifetime of its kind.
func (c *SessionCodec) Sign(s models.Session) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"kind": string(s.Kind()),
		"sub":  s.Subject(),
		"iat":  now.Unix(),
	}

	switch v := s.(type) {
	case models.CitizenSession:
		claims["role"] = string(v.Role)
		claims["department"] = string(v.Department)
		claims["exp"] = now.Add(c.citizenTTL).Unix()
	case models.OfficerSession:
		claims["role"] = string(v.Role)
		claims["department"] = string(v.Department)
		claims["name"] = v.Name
		claims["email"] = v.Email
		claims["exp"] = now.Add(c.officerTTL).Unix()
	default:
		return "", fmt.Errorf("unsupported session kind %q", s.Kind())
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(c.secret)
}

// Verify checks signature and expiry and decodes the session variant.
func (c *SessionCodec) Verify(tokenString string) (models.Session, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return c.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	// Tokens without a numeric expiry would live forever: jwt-go skips
	// exp values it cannot read as a number.
	switch claims["exp"].(type) {
	case float64, json.Number:
	default:
		return nil, fmt.Errorf("%w: missing or malformed exp", ErrInvalidToken)
	}

	sub := stringClaim(claims, "sub")
	if sub == "" {
		return nil, fmt.Errorf("%w: missing sub", ErrInvalidToken)
	}

	switch models.SessionKind(stringClaim(claims, "kind")) {
	case models.SessionKindCitizen:
		role := models.UserRole(stringClaim(claims, "role"))
		if !role.Valid() {
			return nil, fmt.Errorf("%w: bad citizen role", ErrInvalidToken)
		}
		return models.CitizenSession{
			AccountID:  sub,
			Role:       role,
			Department: models.Department(stringClaim(claims, "department")),
		}, nil
	case models.SessionKindOfficer:
		role := models.OfficerRole(stringClaim(claims, "role"))
		if !role.Valid() {
			return nil, fmt.Errorf("%w: bad officer role", ErrInvalidToken)
		}
		return models.OfficerSession{
			AccountID:  sub,
			Name:       stringClaim(claims, "name"),
			Email:      stringClaim(claims, "email"),
			Role:       role,
			Department: models.Department(stringClaim(claims, "department")),
		}, nil
	default:
		return nil, fmt.Errorf("%w: unknown kind", ErrInvalidToken)
	}
}

func stringClaim(claims jwt.MapClaims, key string) string {
	v, _ := claims[key].(string)
	return v
}
