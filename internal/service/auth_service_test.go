package service

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/hospitality-auth/internal/auth"
	"github.com/spec-kit/hospitality-auth/internal/config"
	"github.com/spec-kit/hospitality-auth/internal/domain"
	"github.com/spec-kit/hospitality-auth/internal/events"
	"github.com/spec-kit/hospitality-auth/internal/repository"
	apperrors "github.com/spec-kit/hospitality-auth/pkg/util/errorutil"
)

// ---------- in-memory fakes ----------

type memUsers struct {
	mu    sync.Mutex
	users map[string]*domain.User
}

func newMemUsers() *memUsers { return &memUsers{users: map[string]*domain.User{}} }

func (m *memUsers) Create(_ context.Context, u *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u.ID = uuid.NewString()
	u.CreatedAt = time.Now()
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *memUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *u
	return &cp, nil
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *memUsers) List(_ context.Context, f repository.UserFilter) ([]domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.User
	for _, u := range m.users {
		if u.EstablishmentID == nil || *u.EstablishmentID != f.EstablishmentID {
			continue
		}
		if f.Role != nil && u.Role != *f.Role {
			continue
		}
		out = append(out, *u)
	}
	return out, nil
}

type memEstablishments struct {
	mu   sync.Mutex
	ests map[string]*domain.Establishment
}

func newMemEstablishments() *memEstablishments {
	return &memEstablishments{ests: map[string]*domain.Establishment{}}
}

func (m *memEstablishments) Create(_ context.Context, e *domain.Establishment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e.ID = uuid.NewString()
	cp := *e
	m.ests[e.ID] = &cp
	return nil
}

func (m *memEstablishments) GetByID(_ context.Context, id string) (*domain.Establishment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.ests[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *e
	return &cp, nil
}

func (m *memEstablishments) UpdateStatus(_ context.Context, id string, status domain.EstablishmentStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.ests[id]
	if !ok {
		return pgx.ErrNoRows
	}
	e.Status = status
	return nil
}

type passthroughTx struct{ calls int }

func (p *passthroughTx) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	p.calls++
	return fn(ctx)
}

type memLimiter struct {
	failures map[string]int
	max      int
	err      error
}

func (l *memLimiter) Allow(_ context.Context, key string) (bool, error) {
	if l.err != nil {
		return false, l.err
	}
	return l.failures[key] < l.max, nil
}

func (l *memLimiter) RecordFailure(_ context.Context, key string) error {
	l.failures[key]++
	return nil
}

func (l *memLimiter) Reset(_ context.Context, key string) error {
	delete(l.failures, key)
	return nil
}

// ---------- helpers ----------

type fixture struct {
	svc        *AuthService
	users      *memUsers
	ests       *memEstablishments
	tx         *passthroughTx
	limiter    *memLimiter
	dispatched []events.Event
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		users:   newMemUsers(),
		ests:    newMemEstablishments(),
		tx:      &passthroughTx{},
		limiter: &memLimiter{failures: map[string]int{}, max: 3},
	}
	dispatcher := events.NewInMemoryDispatcher()
	dispatcher.Subscribe(func(_ context.Context, e events.Event) error {
		f.dispatched = append(f.dispatched, e)
		return nil
	}, events.TenantEvents...)
	cfg := config.Config{Auth: config.AuthConfig{JWTSecret: "test", AccessTokenTTLMinutes: 10, BcryptCost: 4}}
	f.svc = NewAuthService(cfg, AuthDependencies{
		UserRepo:          f.users,
		EstablishmentRepo: f.ests,
		TxManager:         f.tx,
		LoginLimiter:      f.limiter,
		Dispatcher:        dispatcher,
	})
	return f
}

func (f *fixture) seedEstablishment(t *testing.T, status domain.EstablishmentStatus) *domain.Establishment {
	t.Helper()
	est := &domain.Establishment{Name: "Blue Lagoon", Type: domain.EstablishmentTypeRestaurant, Status: status, SubscriptionTier: domain.SubscriptionTierPremium}
	require.NoError(t, f.ests.Create(context.Background(), est))
	return est
}

func (f *fixture) seedUser(t *testing.T, email string, role domain.Role, estID *string) *domain.User {
	t.Helper()
	hash, err := auth.HashPassword("secret1", 4)
	require.NoError(t, err)
	u := &domain.User{Name: "Seed", Email: email, PasswordHash: hash, Role: role, EstablishmentID: estID, Status: domain.UserStatusActive}
	require.NoError(t, f.users.Create(context.Background(), u))
	stored, err := f.users.GetByEmail(context.Background(), email)
	require.NoError(t, err)
	return stored
}

func assertDomainStatus(t *testing.T, err error, status int) {
	t.Helper()
	require.Error(t, err)
	var de *apperrors.DomainError
	require.True(t, errors.As(err, &de), "expected DomainError, got %T", err)
	assert.Equal(t, status, de.HTTPStatus)
}

// ---------- tests ----------

func TestLogin_Success(t *testing.T) {
	f := newFixture(t)
	est := f.seedEstablishment(t, domain.EstablishmentStatusApproved)
	f.seedUser(t, "waiter@lagoon.com", domain.RoleWaiter, &est.ID)

	res, err := f.svc.Login(context.Background(), " Waiter@Lagoon.com ", "secret1")
	require.NoError(t, err)

	assert.NotEmpty(t, res.Token)
	assert.Equal(t, domain.RoleWaiter, res.Profile.Role)
	assert.Equal(t, est.ID, res.Profile.EstablishmentID)
	assert.Equal(t, domain.EstablishmentTypeRestaurant, res.Profile.EstablishmentType)
	assert.Equal(t, domain.SubscriptionTierPremium, res.Profile.SubscriptionTier)

	claims, err := f.svc.TokenManager().ParseToken(res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.Profile.ID, claims.Subject)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	f := newFixture(t)
	est := f.seedEstablishment(t, domain.EstablishmentStatusApproved)
	f.seedUser(t, "waiter@lagoon.com", domain.RoleWaiter, &est.ID)

	_, err := f.svc.Login(context.Background(), "waiter@lagoon.com", "wrong")
	assertDomainStatus(t, err, http.StatusUnauthorized)
	assert.Equal(t, "Invalid credentials", apperrors.ToDomainError(err).Message)

	_, err = f.svc.Login(context.Background(), "nobody@lagoon.com", "secret1")
	assertDomainStatus(t, err, http.StatusUnauthorized)
	assert.Equal(t, 1, f.limiter.failures["nobody@lagoon.com"])
}

func TestLogin_ThrottledAfterRepeatedFailures(t *testing.T) {
	f := newFixture(t)
	est := f.seedEstablishment(t, domain.EstablishmentStatusApproved)
	f.seedUser(t, "waiter@lagoon.com", domain.RoleWaiter, &est.ID)

	for i := 0; i < 3; i++ {
		_, err := f.svc.Login(context.Background(), "waiter@lagoon.com", "wrong")
		assertDomainStatus(t, err, http.StatusUnauthorized)
	}
	_, err := f.svc.Login(context.Background(), "waiter@lagoon.com", "secret1")
	assertDomainStatus(t, err, http.StatusTooManyRequests)
}

func TestLogin_LimiterOutageFailsOpen(t *testing.T) {
	f := newFixture(t)
	f.limiter.err = errors.New("redis down")
	est := f.seedEstablishment(t, domain.EstablishmentStatusApproved)
	f.seedUser(t, "waiter@lagoon.com", domain.RoleWaiter, &est.ID)

	_, err := f.svc.Login(context.Background(), "waiter@lagoon.com", "secret1")
	assert.NoError(t, err)
}

func TestLogin_EstablishmentNotApproved(t *testing.T) {
	f := newFixture(t)
	pending := f.seedEstablishment(t, domain.EstablishmentStatusPending)
	rejected := f.seedEstablishment(t, domain.EstablishmentStatusRejected)
	f.seedUser(t, "owner@pending.com", domain.RoleRestaurantAdmin, &pending.ID)
	f.seedUser(t, "owner@rejected.com", domain.RoleRestaurantAdmin, &rejected.ID)

	_, err := f.svc.Login(context.Background(), "owner@pending.com", "secret1")
	assertDomainStatus(t, err, http.StatusForbidden)
	assert.Equal(t, "Establishment pending approval", apperrors.ToDomainError(err).Message)

	_, err = f.svc.Login(context.Background(), "owner@rejected.com", "secret1")
	assertDomainStatus(t, err, http.StatusForbidden)
}

func TestLogin_PlatformOperatorWithoutEstablishment(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "ops@platform.com", domain.RoleSuperAdmin, nil)

	res, err := f.svc.Login(context.Background(), "ops@platform.com", "secret1")
	require.NoError(t, err)
	assert.Empty(t, res.Profile.EstablishmentID)
}

func TestRegisterEstablishment(t *testing.T) {
	f := newFixture(t)

	est, err := f.svc.RegisterEstablishment(context.Background(), RegistrationInput{
		Email:                "Owner@Grand.com",
		Password:             "secret1",
		Name:                 "Olga",
		EstablishmentType:    domain.EstablishmentTypeHotel,
		EstablishmentName:    "Grand Hotel",
		EstablishmentAddress: "1 Main St",
		EstablishmentPhone:   "555-0100",
		TINNumber:            "TIN-1",
	})
	require.NoError(t, err)

	assert.Equal(t, domain.EstablishmentStatusPending, est.Status)
	assert.Equal(t, 1, f.tx.calls)

	owner, err := f.users.GetByEmail(context.Background(), "owner@grand.com")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleHotelManager, owner.Role)
	require.NotNil(t, owner.EstablishmentID)
	assert.Equal(t, est.ID, *owner.EstablishmentID)

	require.Len(t, f.dispatched, 1)
	assert.Equal(t, events.EventEstablishmentRegistered, f.dispatched[0].Type)

	_, err = f.svc.Login(context.Background(), "owner@grand.com", "secret1")
	assertDomainStatus(t, err, http.StatusForbidden)
}

func TestRegisterEstablishment_Validation(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.RegisterEstablishment(context.Background(), RegistrationInput{
		Email:             "not-an-email",
		Password:          "123",
		EstablishmentType: "bar",
	})
	assertDomainStatus(t, err, http.StatusBadRequest)
	details := apperrors.ToDomainError(err).Details
	assert.Contains(t, details, "email")
	assert.Contains(t, details, "password")
	assert.Contains(t, details, "name")
	assert.Contains(t, details, "establishmentName")
	assert.Contains(t, details, "establishmentType")
	assert.Zero(t, f.tx.calls)
}

func TestRegisterEstablishment_DuplicateEmail(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "taken@grand.com", domain.RoleSuperAdmin, nil)

	_, err := f.svc.RegisterEstablishment(context.Background(), RegistrationInput{
		Email:             "taken@grand.com",
		Password:          "secret1",
		Name:              "Olga",
		EstablishmentType: domain.EstablishmentTypeRestaurant,
		EstablishmentName: "Bistro",
	})
	assertDomainStatus(t, err, http.StatusConflict)
}

func TestRegisterEmployee(t *testing.T) {
	f := newFixture(t)
	est := f.seedEstablishment(t, domain.EstablishmentStatusApproved)
	manager := f.seedUser(t, "boss@lagoon.com", domain.RoleRestaurantAdmin, &est.ID)

	emp, err := f.svc.RegisterEmployee(context.Background(), manager, EmployeeInput{
		Email:           "new@lagoon.com",
		Password:        "secret1",
		Name:            "Nina",
		Role:            domain.RoleWaiter,
		EstablishmentID: est.ID,
	})
	require.NoError(t, err)
	require.NotNil(t, emp.EstablishmentID)
	assert.Equal(t, est.ID, *emp.EstablishmentID)
	assert.Equal(t, domain.RoleWaiter, emp.Role)

	require.Len(t, f.dispatched, 1)
	assert.Equal(t, events.EventEmployeeRegistered, f.dispatched[0].Type)
	assert.Equal(t, manager.ID, f.dispatched[0].Actor.UserID)
}

func TestRegisterEmployee_Authorization(t *testing.T) {
	f := newFixture(t)
	est := f.seedEstablishment(t, domain.EstablishmentStatusApproved)
	other := f.seedEstablishment(t, domain.EstablishmentStatusApproved)
	manager := f.seedUser(t, "boss@lagoon.com", domain.RoleManager, &est.ID)
	waiter := f.seedUser(t, "waiter@lagoon.com", domain.RoleWaiter, &est.ID)
	ops := f.seedUser(t, "ops@platform.com", domain.RoleManager, nil)

	in := EmployeeInput{Email: "new@lagoon.com", Password: "secret1", Name: "Nina", Role: domain.RoleWaiter}

	_, err := f.svc.RegisterEmployee(context.Background(), nil, in)
	assertDomainStatus(t, err, http.StatusUnauthorized)

	_, err = f.svc.RegisterEmployee(context.Background(), waiter, in)
	assertDomainStatus(t, err, http.StatusForbidden)

	_, err = f.svc.RegisterEmployee(context.Background(), ops, in)
	assertDomainStatus(t, err, http.StatusForbidden)

	foreign := in
	foreign.EstablishmentID = other.ID
	_, err = f.svc.RegisterEmployee(context.Background(), manager, foreign)
	assertDomainStatus(t, err, http.StatusForbidden)

	owner := in
	owner.Role = domain.RoleRestaurantAdmin
	_, err = f.svc.RegisterEmployee(context.Background(), manager, owner)
	assertDomainStatus(t, err, http.StatusBadRequest)

	assert.Empty(t, f.dispatched)
}

func TestListEmployees(t *testing.T) {
	f := newFixture(t)
	est := f.seedEstablishment(t, domain.EstablishmentStatusApproved)
	other := f.seedEstablishment(t, domain.EstablishmentStatusApproved)
	manager := f.seedUser(t, "boss@lagoon.com", domain.RoleManager, &est.ID)
	f.seedUser(t, "w1@lagoon.com", domain.RoleWaiter, &est.ID)
	f.seedUser(t, "w2@other.com", domain.RoleWaiter, &other.ID)

	waiterRole := domain.RoleWaiter
	users, err := f.svc.ListEmployees(context.Background(), manager, &waiterRole, 0, 0)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "w1@lagoon.com", users[0].Email)

	all, err := f.svc.ListEmployees(context.Background(), manager, nil, 0, 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestReviewEstablishment(t *testing.T) {
	f := newFixture(t)
	est := f.seedEstablishment(t, domain.EstablishmentStatusPending)
	f.seedUser(t, "owner@lagoon.com", domain.RoleRestaurantAdmin, &est.ID)
	ops := f.seedUser(t, "ops@platform.com", domain.RoleSuperAdmin, nil)
	manager := f.seedUser(t, "boss@lagoon.com", domain.RoleManager, &est.ID)

	_, err := f.svc.ReviewEstablishment(context.Background(), manager, est.ID, true)
	assertDomainStatus(t, err, http.StatusForbidden)

	_, err = f.svc.ReviewEstablishment(context.Background(), ops, uuid.NewString(), true)
	assertDomainStatus(t, err, http.StatusNotFound)

	reviewed, err := f.svc.ReviewEstablishment(context.Background(), ops, est.ID, true)
	require.NoError(t, err)
	assert.Equal(t, domain.EstablishmentStatusApproved, reviewed.Status)

	_, err = f.svc.Login(context.Background(), "owner@lagoon.com", "secret1")
	assert.NoError(t, err)
}

func TestProfile(t *testing.T) {
	f := newFixture(t)
	est := f.seedEstablishment(t, domain.EstablishmentStatusApproved)
	u := f.seedUser(t, "w@lagoon.com", domain.RoleWaiter, &est.ID)

	p, err := f.svc.Profile(context.Background(), u)
	require.NoError(t, err)
	assert.Equal(t, "w@lagoon.com", p.Email)
	assert.Equal(t, domain.EstablishmentTypeRestaurant, p.EstablishmentType)

	require.NoError(t, f.ests.UpdateStatus(context.Background(), est.ID, domain.EstablishmentStatusRejected))
	_, err = f.svc.Profile(context.Background(), u)
	assertDomainStatus(t, err, http.StatusForbidden)
}
