package dto

import "github.com/spec-kit/hospitality-auth/internal/domain"

// LoginRequest payload for POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is returned by POST /api/auth/login.
type LoginResponse struct {
	Success bool            `json:"success"`
	Token   string          `json:"token,omitempty"`
	User    *domain.Profile `json:"user,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// VerifyResponse is returned by GET /api/auth/verify.
type VerifyResponse struct {
	User domain.Profile `json:"user"`
}

// RegisterRequest payload for POST /api/auth/register.
type RegisterRequest struct {
	Email                string                   `json:"email"`
	Password             string                   `json:"password"`
	Name                 string                   `json:"name"`
	EstablishmentType    domain.EstablishmentType `json:"establishmentType"`
	EstablishmentName    string                   `json:"establishmentName"`
	EstablishmentAddress string                   `json:"establishmentAddress"`
	EstablishmentPhone   string                   `json:"establishmentPhone"`
	TINNumber            string                   `json:"tinNumber"`
}

// RegisterResponse is returned by POST /api/auth/register.
type RegisterResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// RegisterEmployeeRequest payload for POST /api/auth/register-employee.
type RegisterEmployeeRequest struct {
	Email        string      `json:"email"`
	Password     string      `json:"password"`
	Name         string      `json:"name"`
	Role         domain.Role `json:"role"`
	RestaurantID string      `json:"restaurantId"`
}

// RegisterEmployeeResponse is returned by POST /api/auth/register-employee.
type RegisterEmployeeResponse struct {
	Success bool            `json:"success"`
	User    *domain.Profile `json:"user,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// EmployeesResponse is returned by GET /api/auth/employees.
type EmployeesResponse struct {
	Success   bool             `json:"success"`
	Employees []domain.Profile `json:"employees"`
}

// EstablishmentResponse is returned by the establishment review endpoints.
type EstablishmentResponse struct {
	Success      bool                       `json:"success"`
	ID           string                     `json:"id"`
	Name         string                     `json:"name"`
	Type         domain.EstablishmentType   `json:"type"`
	Status       domain.EstablishmentStatus `json:"status"`
	Subscription domain.SubscriptionTier    `json:"subscriptionTier"`
}

// ErrorResponse is the failure body of every endpoint.
type ErrorResponse struct {
	Success bool           `json:"success"`
	Error   string         `json:"error"`
	Code    string         `json:"code,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}
