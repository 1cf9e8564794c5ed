package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/hospitality-auth/internal/api/dto"
	"github.com/spec-kit/hospitality-auth/internal/auth"
	"github.com/spec-kit/hospitality-auth/internal/domain"
	"github.com/spec-kit/hospitality-auth/internal/observability"
	"github.com/spec-kit/hospitality-auth/internal/service"
	apperrors "github.com/spec-kit/hospitality-auth/pkg/util/errorutil"
)

// AuthHandler exposes the credential endpoints consumed by the session manager.
type AuthHandler struct {
	auth    *service.AuthService
	metrics *observability.Metrics
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService, metrics *observability.Metrics) *AuthHandler {
	return &AuthHandler{auth: authService, metrics: metrics}
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return apperrors.NewValidationError("email and password required", nil)
	}

	res, err := h.auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		h.metrics.RecordLogin(loginOutcome(err))
		return err
	}
	h.metrics.RecordLogin("success")

	return c.JSON(dto.LoginResponse{
		Success: true,
		Token:   res.Token,
		User:    &res.Profile,
	})
}

// Register handles POST /api/auth/register.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	_, err := h.auth.RegisterEstablishment(c.UserContext(), service.RegistrationInput{
		Email:                req.Email,
		Password:             req.Password,
		Name:                 req.Name,
		EstablishmentType:    req.EstablishmentType,
		EstablishmentName:    req.EstablishmentName,
		EstablishmentAddress: req.EstablishmentAddress,
		EstablishmentPhone:   req.EstablishmentPhone,
		TINNumber:            req.TINNumber,
	})
	if err != nil {
		return err
	}

	return c.Status(http.StatusCreated).JSON(dto.RegisterResponse{
		Success: true,
		Message: service.RegistrationMessage,
	})
}

// Verify handles GET /api/auth/verify.
func (h *AuthHandler) Verify(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	profile, err := h.auth.Profile(c.UserContext(), principal.User)
	if err != nil {
		return err
	}
	return c.JSON(dto.VerifyResponse{User: *profile})
}

// RegisterEmployee handles POST /api/auth/register-employee.
func (h *AuthHandler) RegisterEmployee(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	var req dto.RegisterEmployeeRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	employee, err := h.auth.RegisterEmployee(c.UserContext(), principal.User, service.EmployeeInput{
		Email:           req.Email,
		Password:        req.Password,
		Name:            req.Name,
		Role:            req.Role,
		EstablishmentID: req.RestaurantID,
	})
	if err != nil {
		return err
	}

	profile := employee.Profile(nil)
	return c.Status(http.StatusCreated).JSON(dto.RegisterEmployeeResponse{
		Success: true,
		User:    &profile,
	})
}

// ListEmployees handles GET /api/auth/employees.
func (h *AuthHandler) ListEmployees(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	var role *domain.Role
	if r := c.Query("role"); r != "" {
		parsed := domain.Role(r)
		role = &parsed
	}

	users, err := h.auth.ListEmployees(c.UserContext(), principal.User, role, c.QueryInt("limit", 50), c.QueryInt("offset", 0))
	if err != nil {
		return err
	}

	employees := make([]domain.Profile, 0, len(users))
	for i := range users {
		employees = append(employees, users[i].Profile(nil))
	}
	return c.JSON(dto.EmployeesResponse{Success: true, Employees: employees})
}

// ApproveEstablishment handles POST /api/admin/establishments/:id/approve.
func (h *AuthHandler) ApproveEstablishment(c *fiber.Ctx) error {
	return h.reviewEstablishment(c, true)
}

// RejectEstablishment handles POST /api/admin/establishments/:id/reject.
func (h *AuthHandler) RejectEstablishment(c *fiber.Ctx) error {
	return h.reviewEstablishment(c, false)
}

func (h *AuthHandler) reviewEstablishment(c *fiber.Ctx, approve bool) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	est, err := h.auth.ReviewEstablishment(c.UserContext(), principal.User, c.Params("id"), approve)
	if err != nil {
		return err
	}
	return c.JSON(dto.EstablishmentResponse{
		Success:      true,
		ID:           est.ID,
		Name:         est.Name,
		Type:         est.Type,
		Status:       est.Status,
		Subscription: est.SubscriptionTier,
	})
}

func loginOutcome(err error) string {
	var de *apperrors.DomainError
	if !errors.As(err, &de) {
		return "error"
	}
	switch de.HTTPStatus {
	case http.StatusUnauthorized:
		return "invalid"
	case http.StatusTooManyRequests:
		return "throttled"
	case http.StatusForbidden:
		return "blocked"
	}
	return "error"
}
