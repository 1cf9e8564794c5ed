package authclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/hospitality-auth/internal/api/dto"
	"github.com/spec-kit/hospitality-auth/internal/domain"
)

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func TestLogin_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, pathLogin, r.URL.Path)
		assert.Contains(t, r.Header.Get("Content-Type"), "application/json")

		var req dto.LoginRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "a@b.com", req.Email)
		assert.Equal(t, "x", req.Password)

		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"token":   "T1",
			"user":    map[string]any{"id": "1", "role": "waiter"},
		})
	}))
	defer server.Close()

	res, err := New(server.URL, time.Second).Login(context.Background(), "a@b.com", "x")
	require.NoError(t, err)
	assert.Equal(t, "T1", res.Token)
	require.NotNil(t, res.User)
	assert.Equal(t, domain.RoleWaiter, res.User.Role)
}

func TestLogin_ServerRejects(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusUnauthorized, dto.ErrorResponse{Error: "Invalid credentials", Code: "UNAUTHORIZED"})
	}))
	defer server.Close()

	_, err := New(server.URL, time.Second).Login(context.Background(), "a@b.com", "bad")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, "Invalid credentials", apiErr.Message)
	assert.Equal(t, "UNAUTHORIZED", apiErr.Code)
}

func TestLogin_SuccessFalseWithOK(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"success": false, "error": "Account locked"})
	}))
	defer server.Close()

	_, err := New(server.URL, time.Second).Login(context.Background(), "a@b.com", "x")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "Account locked", apiErr.Message)
}

func TestLogin_NonJSONError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream down"))
	}))
	defer server.Close()

	_, err := New(server.URL, time.Second).Login(context.Background(), "a@b.com", "x")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
	assert.Empty(t, apiErr.Message)
}

func TestLogin_TransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := New(url, time.Second).Login(context.Background(), "a@b.com", "x")
	require.Error(t, err)
	var apiErr *APIError
	assert.False(t, errors.As(err, &apiErr))
}

func TestVerify(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		if r.Header.Get("Authorization") != "Bearer good" {
			writeJSON(w, http.StatusUnauthorized, dto.ErrorResponse{Error: "invalid token"})
			return
		}
		writeJSON(w, http.StatusOK, dto.VerifyResponse{User: domain.Profile{
			ID: "u1", Email: "m@grand.com", Role: domain.RoleManager, EstablishmentID: "e1",
		}})
	}))
	defer server.Close()
	client := New(server.URL+"/", time.Second)

	profile, err := client.Verify(context.Background(), "good")
	require.NoError(t, err)
	assert.Equal(t, "u1", profile.ID)
	assert.Equal(t, "e1", profile.EstablishmentID)

	_, err = client.Verify(context.Background(), "bad")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
}

func TestRegister(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		for _, key := range []string{"email", "password", "name", "establishmentType", "establishmentName", "establishmentAddress", "establishmentPhone", "tinNumber"} {
			assert.Contains(t, body, key)
		}
		assert.Empty(t, r.Header.Get("Authorization"))
		writeJSON(w, http.StatusCreated, dto.RegisterResponse{Success: true, Message: "pending"})
	}))
	defer server.Close()

	res, err := New(server.URL, 0).Register(context.Background(), dto.RegisterRequest{
		Email: "o@grand.com", Password: "secret1", Name: "Owner",
		EstablishmentType: domain.EstablishmentTypeHotel, EstablishmentName: "Grand",
	})
	require.NoError(t, err)
	assert.Equal(t, "pending", res.Message)
}

func TestRegisterEmployee(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer mgr-token", r.Header.Get("Authorization"))
		var req dto.RegisterEmployeeRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "e1", req.RestaurantID)
		if req.Role == domain.RoleSuperAdmin {
			writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "invalid employee details"})
			return
		}
		writeJSON(w, http.StatusCreated, dto.RegisterEmployeeResponse{Success: true})
	}))
	defer server.Close()
	client := New(server.URL, time.Second)

	_, err := client.RegisterEmployee(context.Background(), "mgr-token", dto.RegisterEmployeeRequest{
		Email: "w@grand.com", Password: "secret1", Name: "W", Role: domain.RoleWaiter, RestaurantID: "e1",
	})
	require.NoError(t, err)

	_, err = client.RegisterEmployee(context.Background(), "mgr-token", dto.RegisterEmployeeRequest{
		Email: "x@grand.com", Password: "secret1", Name: "X", Role: domain.RoleSuperAdmin, RestaurantID: "e1",
	})
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "invalid employee details", apiErr.Message)
}

func TestListEmployees(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "chef", r.URL.Query().Get("role"))
		writeJSON(w, http.StatusOK, dto.EmployeesResponse{Success: true, Employees: []domain.Profile{{ID: "c1", Role: domain.RoleChef}}})
	}))
	defer server.Close()

	staff, err := New(server.URL, time.Second).ListEmployees(context.Background(), "tok", domain.RoleChef)
	require.NoError(t, err)
	require.Len(t, staff, 1)
	assert.Equal(t, "c1", staff[0].ID)
}

func TestAPIError_Message(t *testing.T) {
	assert.Equal(t, "auth api: status 502", (&APIError{Status: 502}).Error())
	assert.Equal(t, "auth api: status 401: nope", (&APIError{Status: 401, Message: "nope"}).Error())
}
