package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/hospitality-auth/internal/domain"
	apperrors "github.com/spec-kit/hospitality-auth/pkg/util/errorutil"
)

// RequireRole ensures the principal has one of the allowed roles.
func RequireRole(allowed ...domain.Role) fiber.Handler {
	allowedSet := make(map[domain.Role]struct{}, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok || principal.User == nil {
			return apperrors.NewUnauthorized("authentication required")
		}
		if len(allowedSet) == 0 {
			return c.Next()
		}
		if _, exists := allowedSet[principal.User.Role]; !exists {
			return apperrors.NewForbidden("insufficient role")
		}
		return c.Next()
	}
}

// RequireEstablishment ensures the principal belongs to a tenant.
func RequireEstablishment() fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok || principal.User == nil {
			return apperrors.NewUnauthorized("authentication required")
		}
		if principal.User.EstablishmentID == nil || *principal.User.EstablishmentID == "" {
			return apperrors.NewForbidden("establishment required")
		}
		return c.Next()
	}
}
