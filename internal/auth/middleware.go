package auth

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	apperrors "github.com/spec-kit/account-service/pkg/util"
)

const subjectKey = "auth_subject"

const bearerPrefix = "Bearer "

// Rejection messages. All map to 403; they differ only to aid debugging.
const (
	MsgMissingToken = "Access forbidden: Missing or invalid token"
	MsgBadToken     = "Access forbidden: Invalid or expired token"
	MsgNoSubject    = "Access forbidden: Invalid token"
)

// SubjectVerifier decodes a bearer token into its subject id.
type SubjectVerifier interface {
	SubjectFromToken(token string) (string, error)
}

// AuthMiddleware validates bearer tokens and binds the subject to the request.
type AuthMiddleware struct {
	tokens SubjectVerifier
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens SubjectVerifier) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

// Handle enforces authentication for protected routes. It never touches the store.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	token, ok := strings.CutPrefix(c.Get(fiber.HeaderAuthorization), bearerPrefix)
	if !ok || strings.TrimSpace(token) == "" {
		return apperrors.NewForbidden(MsgMissingToken)
	}

	subject, err := m.tokens.SubjectFromToken(token)
	switch {
	case errors.Is(err, ErrMissingSubject):
		return apperrors.NewForbidden(MsgNoSubject)
	case err != nil:
		return apperrors.NewForbidden(MsgBadToken)
	}

	c.Locals(subjectKey, subject)
	return c.Next()
}

// SubjectFromContext retrieves the verified subject id bound by Handle.
func SubjectFromContext(c *fiber.Ctx) (string, bool) {
	subject, ok := c.Locals(subjectKey).(string)
	return subject, ok && subject != ""
}
