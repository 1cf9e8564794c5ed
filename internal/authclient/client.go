// Package authclient calls the credential API on behalf of a terminal.
package authclient

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/spec-kit/hospitality-auth/internal/api/dto"
	"github.com/spec-kit/hospitality-auth/internal/domain"
)

const defaultTimeout = 15 * time.Second

const (
	pathVerify           = "/api/auth/verify"
	pathLogin            = "/api/auth/login"
	pathRegister         = "/api/auth/register"
	pathRegisterEmployee = "/api/auth/register-employee"
	pathEmployees        = "/api/auth/employees"
)

// APIError is a response the server answered with but did not accept.
// Transport failures are returned as plain errors instead.
type APIError struct {
	Status  int
	Message string
	Code    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("auth api: status %d", e.Status)
	}
	return fmt.Sprintf("auth api: status %d: %s", e.Status, e.Message)
}

// Client is a thin JSON client for the /api/auth endpoints.
type Client struct {
	http *resty.Client
}

// New returns a client rooted at baseURL. A zero timeout uses 15s.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	rc := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
	return &Client{http: rc}
}

// Verify resolves the profile behind a bearer token.
func (c *Client) Verify(ctx context.Context, token string) (*domain.Profile, error) {
	var out dto.VerifyResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetResult(&out).
		SetError(&dto.ErrorResponse{}).
		Get(pathVerify)
	if err != nil {
		return nil, fmt.Errorf("verify: %w", err)
	}
	if err := apiError(resp); err != nil {
		return nil, err
	}
	if out.User.ID == "" {
		return nil, &APIError{Status: resp.StatusCode(), Message: "verify response carried no user"}
	}
	return &out.User, nil
}

// Login exchanges credentials for a token and profile.
func (c *Client) Login(ctx context.Context, email, password string) (*dto.LoginResponse, error) {
	var out dto.LoginResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(dto.LoginRequest{Email: email, Password: password}).
		SetResult(&out).
		SetError(&dto.ErrorResponse{}).
		Post(pathLogin)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	if err := apiError(resp); err != nil {
		return nil, err
	}
	if !out.Success {
		return nil, &APIError{Status: resp.StatusCode(), Message: out.Error}
	}
	return &out, nil
}

// Register submits a new establishment for approval. No token is issued.
func (c *Client) Register(ctx context.Context, req dto.RegisterRequest) (*dto.RegisterResponse, error) {
	var out dto.RegisterResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&out).
		SetError(&dto.ErrorResponse{}).
		Post(pathRegister)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	if err := apiError(resp); err != nil {
		return nil, err
	}
	if !out.Success {
		return nil, &APIError{Status: resp.StatusCode(), Message: out.Error}
	}
	return &out, nil
}

// RegisterEmployee creates a staff account using the caller's token.
func (c *Client) RegisterEmployee(ctx context.Context, token string, req dto.RegisterEmployeeRequest) (*dto.RegisterEmployeeResponse, error) {
	var out dto.RegisterEmployeeResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetBody(req).
		SetResult(&out).
		SetError(&dto.ErrorResponse{}).
		Post(pathRegisterEmployee)
	if err != nil {
		return nil, fmt.Errorf("register employee: %w", err)
	}
	if err := apiError(resp); err != nil {
		return nil, err
	}
	if !out.Success {
		return nil, &APIError{Status: resp.StatusCode(), Message: out.Error}
	}
	return &out, nil
}

// ListEmployees returns the staff of the caller's establishment, optionally filtered by role.
func (c *Client) ListEmployees(ctx context.Context, token string, role domain.Role) ([]domain.Profile, error) {
	var out dto.EmployeesResponse
	r := c.http.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetResult(&out).
		SetError(&dto.ErrorResponse{})
	if role != "" {
		r.SetQueryParam("role", string(role))
	}
	resp, err := r.Get(pathEmployees)
	if err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}
	if err := apiError(resp); err != nil {
		return nil, err
	}
	return out.Employees, nil
}

func apiError(resp *resty.Response) error {
	if !resp.IsError() && resp.StatusCode() < http.StatusMultipleChoices {
		return nil
	}
	apiErr := &APIError{Status: resp.StatusCode()}
	if body, ok := resp.Error().(*dto.ErrorResponse); ok && body != nil {
		apiErr.Message = body.Error
		apiErr.Code = body.Code
	}
	return apiErr
}
