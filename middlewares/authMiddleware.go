package middlewares

import (
	"errors"
	"strings"

	"civicresolve-be/models"
	authUtils "civicresolve-be/utils"

	"github.com/gin-gonic/gin"
)

const sessionKey = "session"

// SessionVerifier decodes bearer tokens.
type SessionVerifier interface {
	Verify(token string) (models.Session, error)
}

// RequireCitizen admits citizen and worker sessions only.
func RequireCitizen(verifier SessionVerifier) gin.HandlerFunc {
	return requireKind(verifier, models.SessionKindCitizen)
}

// RequireOfficer admits admin and department sessions only.
func RequireOfficer(verifier SessionVerifier) gin.HandlerFunc {
	return requireKind(verifier, models.SessionKindOfficer)
}

// RequireAdmin admits admin officer sessions only.
func RequireAdmin(verifier SessionVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, ok := authenticate(c, verifier, models.SessionKindOfficer)
		if !ok {
			return
		}
		if officer, _ := session.(models.OfficerSession); officer.Role != models.RoleAdmin {
			AbortWithError(c, models.NewForbiddenError("Admin access required"))
			return
		}
		c.Next()
	}
}

func requireKind(verifier SessionVerifier, kind models.SessionKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := authenticate(c, verifier, kind); ok {
			c.Next()
		}
	}
}

// authenticate verifies the bearer token and stores the session, aborting
// the request when it is missing, invalid or of the wrong kind.
func authenticate(c *gin.Context, verifier SessionVerifier, kind models.SessionKind) (models.Session, bool) {
	tokenString, ok := bearerToken(c.GetHeader("Authorization"))
	if !ok {
		AbortWithError(c, models.NewUnauthorizedError("No authorization token provided"))
		return nil, false
	}

	session, err := verifier.Verify(tokenString)
	if err != nil {
		if !errors.Is(err, authUtils.ErrInvalidToken) {
			AbortWithError(c, models.NewInternalError("Token verification failed", err))
			return nil, false
		}
		AbortWithError(c, models.NewUnauthorizedError("Invalid authorization token"))
		return nil, false
	}
	if session.Kind() != kind {
		AbortWithError(c, models.NewForbiddenError("Access denied for this account type"))
		return nil, false
	}

	c.Set(sessionKey, session)
	c.Set("user_id", session.Subject())
	return session, true
}

// Extracting token from "Bearer <token>" format
func bearerToken(header string) (string, bool) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", false
	}
	token := header
	if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
		token = strings.TrimSpace(header[7:])
	}
	return token, token != ""
}

// CitizenFrom returns the session stored by RequireCitizen.
func CitizenFrom(c *gin.Context) (models.CitizenSession, bool) {
	v, ok := c.Get(sessionKey)
	if !ok {
		return models.CitizenSession{}, false
	}
	s, ok := v.(models.CitizenSession)
	return s, ok
}

// OfficerFrom returns the session stored by RequireOfficer.
func OfficerFrom(c *gin.Context) (models.OfficerSession, bool) {
	v, ok := c.Get(sessionKey)
	if !ok {
		return models.OfficerSession{}, false
	}
	s, ok := v.(models.OfficerSession)
	return s, ok
}
