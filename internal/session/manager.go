// Package session owns the signed-in user of a terminal: the bearer token,
// its verification at startup, the idle countdown and logout.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/hospitality-auth/internal/api/dto"
	"github.com/spec-kit/hospitality-auth/internal/authclient"
	"github.com/spec-kit/hospitality-auth/internal/clientstore"
	"github.com/spec-kit/hospitality-auth/internal/domain"
	"github.com/spec-kit/hospitality-auth/internal/events"
)

// DefaultIdleTimeout ends a session after two hours without interaction.
const DefaultIdleTimeout = 2 * time.Hour

const (
	errLoginFailed        = "Login failed"
	errRegisterFailed     = "Registration failed"
	errEmployeeFailed     = "Employee registration failed"
	errNetwork            = "Network error"
	errNotAuthorized      = "Not authorized to register employees"
	errSessionUnavailable = "Unable to save session"

	defaultApprovalMessage = "Registration submitted. Your establishment is pending approval."
)

// Reasons a session ends.
const (
	ReasonLogout             = "logout"
	ReasonExpired            = "expired"
	ReasonVerificationFailed = "verification_failed"
	ReasonStorageCleared     = "storage_cleared"
)

// Sources a session starts from.
const (
	SourceLogin     = "login"
	SourceBootstrap = "bootstrap"
)

const (
	statusIdle int32 = iota
	statusLoggingOut
)

// AuthAPI is the credential API as seen by the session manager.
type AuthAPI interface {
	Verify(ctx context.Context, token string) (*domain.Profile, error)
	Login(ctx context.Context, email, password string) (*dto.LoginResponse, error)
	Register(ctx context.Context, req dto.RegisterRequest) (*dto.RegisterResponse, error)
	RegisterEmployee(ctx context.Context, token string, req dto.RegisterEmployeeRequest) (*dto.RegisterEmployeeResponse, error)
}

// Navigator moves the operator away from authenticated views.
type Navigator interface {
	RedirectToLogin()
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func()

func (f NavigatorFunc) RedirectToLogin() { f() }

// Config tunes the manager.
type Config struct {
	IdleTimeout time.Duration
}

// Dependencies bundles the collaborators of a Manager. API and Store are required.
type Dependencies struct {
	API        AuthAPI
	Store      clientstore.Store
	Navigator  Navigator
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	Clock      Clock
}

// Result is the outcome of login and employee registration.
type Result struct {
	Success bool
	Error   string
}

// RegisterResult is the outcome of establishment registration.
type RegisterResult struct {
	Success          bool
	Message          string
	RequiresApproval bool
	Error            string
}

// EmployeeRequest describes a staff account to create in the caller's establishment.
type EmployeeRequest struct {
	Email    string
	Password string
	Name     string
	Role     domain.Role
}

// Manager is the single source of truth for who is signed in on a terminal.
// It is safe for concurrent use.
type Manager struct {
	api        AuthAPI
	store      clientstore.Store
	nav        Navigator
	dispatcher events.Dispatcher
	logger     *zap.Logger
	timer      *idleTimer

	// opMu serializes Bootstrap and Login.
	opMu sync.Mutex
	// lifeMu orders session start and end, so the idle countdown and the
	// published events never disagree with the stored session.
	lifeMu sync.Mutex

	mu    sync.RWMutex
	user  *domain.Profile
	token string
	epoch uint64

	status   atomic.Int32
	loading  atomic.Bool
	bootOnce sync.Once
}

// NewManager builds a manager. The session is loading until Bootstrap settles.
func NewManager(cfg Config, deps Dependencies) (*Manager, error) {
	if deps.API == nil {
		return nil, errors.New("session: auth api required")
	}
	if deps.Store == nil {
		return nil, errors.New("session: store required")
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = DefaultIdleTimeout
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Navigator == nil {
		deps.Navigator = NavigatorFunc(func() {})
	}
	if deps.Clock == nil {
		deps.Clock = SystemClock()
	}

	m := &Manager{
		api:        deps.API,
		store:      deps.Store,
		nav:        deps.Navigator,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
	}
	m.timer = newIdleTimer(deps.Clock, cfg.IdleTimeout, m.expire)
	m.loading.Store(true)
	return m, nil
}

// Bootstrap restores a stored session. Only the first call does any work.
// Any failure leaves the terminal signed out; nothing is returned to the caller.
func (m *Manager) Bootstrap(ctx context.Context) {
	m.bootOnce.Do(func() {
		defer m.loading.Store(false)
		m.bootstrap(ctx)
	})
}

func (m *Manager) bootstrap(ctx context.Context) {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	token, ok, err := m.store.Get(ctx, clientstore.KeyToken)
	if err != nil {
		m.logger.Warn("read stored token", zap.Error(err))
		m.clearSession(ctx, ReasonVerificationFailed)
		return
	}
	if !ok || token == "" {
		m.logger.Debug("no stored session")
		return
	}

	m.mu.Lock()
	m.token = token
	epoch := m.epoch
	m.mu.Unlock()

	profile, err := m.api.Verify(ctx, token)
	if err != nil {
		m.logger.Warn("stored session rejected", zap.Error(err))
		m.clearSession(ctx, ReasonVerificationFailed)
		return
	}

	m.lifeMu.Lock()
	m.mu.Lock()
	if m.epoch != epoch {
		// Signed out while verification was in flight.
		m.mu.Unlock()
		m.lifeMu.Unlock()
		return
	}
	err = m.persistLocked(ctx, token, *profile)
	m.mu.Unlock()
	if err != nil {
		m.lifeMu.Unlock()
		m.logger.Warn("persist verified session", zap.Error(err))
		m.clearSession(ctx, ReasonVerificationFailed)
		return
	}
	m.started(ctx, profile, SourceBootstrap)
	m.lifeMu.Unlock()
}

// Login exchanges credentials for a session. A failed attempt leaves state untouched.
func (m *Manager) Login(ctx context.Context, email, password string) Result {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	res, err := m.api.Login(ctx, email, password)
	if err != nil {
		m.logger.Info("login failed", zap.String("email", email), zap.Error(err))
		return Result{Error: failureMessage(err, errLoginFailed)}
	}
	if res.Token == "" || res.User == nil || res.User.ID == "" {
		m.logger.Warn("login response missing credentials", zap.String("email", email))
		return Result{Error: errLoginFailed}
	}
	profile := *res.User

	m.lifeMu.Lock()
	defer m.lifeMu.Unlock()

	m.mu.Lock()
	err = m.persistLocked(ctx, res.Token, profile)
	m.mu.Unlock()
	if err != nil {
		m.logger.Error("persist session", zap.Error(err))
		if derr := m.store.Delete(ctx, clientstore.KeyToken, clientstore.KeyUser); derr != nil {
			m.logger.Warn("discard partial session", zap.Error(derr))
		}
		return Result{Error: errSessionUnavailable}
	}
	m.started(ctx, &profile, SourceLogin)
	return Result{Success: true}
}

// Register submits a new establishment. It never signs the caller in.
func (m *Manager) Register(ctx context.Context, req dto.RegisterRequest) RegisterResult {
	res, err := m.api.Register(ctx, req)
	if err != nil {
		m.logger.Info("registration failed", zap.String("email", req.Email), zap.Error(err))
		return RegisterResult{Error: failureMessage(err, errRegisterFailed)}
	}
	msg := res.Message
	if msg == "" {
		msg = defaultApprovalMessage
	}
	return RegisterResult{Success: true, Message: msg, RequiresApproval: true}
}

// RegisterEmployee creates a staff account in the signed-in manager's establishment.
// Callers without a managing role are refused before any request is made.
func (m *Manager) RegisterEmployee(ctx context.Context, req EmployeeRequest) Result {
	m.mu.RLock()
	user, token := m.user, m.token
	m.mu.RUnlock()

	if user == nil || !user.HasEstablishment() || !user.Role.CanManageEmployees() {
		return Result{Error: errNotAuthorized}
	}

	_, err := m.api.RegisterEmployee(ctx, token, dto.RegisterEmployeeRequest{
		Email:        req.Email,
		Password:     req.Password,
		Name:         req.Name,
		Role:         req.Role,
		RestaurantID: user.EstablishmentID,
	})
	if err != nil {
		m.logger.Info("employee registration failed", zap.String("email", req.Email), zap.Error(err))
		return Result{Error: failureMessage(err, errEmployeeFailed)}
	}
	m.logger.Info("employee registered",
		zap.String("establishment_id", user.EstablishmentID),
		zap.String("role", string(req.Role)))
	return Result{Success: true}
}

// Logout ends the session locally. While one logout runs, further calls return immediately.
func (m *Manager) Logout() {
	if !m.status.CompareAndSwap(statusIdle, statusLoggingOut) {
		return
	}
	defer m.status.Store(statusIdle)
	m.clearSession(context.Background(), ReasonLogout)
}

// RecordActivity restarts the idle countdown for qualifying activity while signed in.
// It reports whether the countdown was restarted.
func (m *Manager) RecordActivity(a Activity) bool {
	if !a.Extends() {
		return false
	}
	m.lifeMu.Lock()
	defer m.lifeMu.Unlock()
	if !m.Authenticated() {
		return false
	}
	m.timer.Arm()
	return m.timer.Armed()
}

// FocusRegained drops the in-memory session when its stored token has disappeared.
// It never re-verifies the token.
func (m *Manager) FocusRegained(ctx context.Context) {
	if !m.Authenticated() {
		return
	}
	_, ok, err := m.store.Get(ctx, clientstore.KeyToken)
	if err != nil {
		m.logger.Warn("read stored token on focus", zap.Error(err))
		return
	}
	if !ok {
		m.clearSession(ctx, ReasonStorageCleared)
	}
}

// Close cancels the idle countdown. The stored session is kept for the next start.
func (m *Manager) Close() {
	m.timer.Close()
}

// User returns a copy of the signed-in profile, or nil.
func (m *Manager) User() *domain.Profile {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.user == nil {
		return nil
	}
	u := *m.user
	return &u
}

// Token returns the bearer token of the session.
func (m *Manager) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token
}

// Authenticated reports whether a user is signed in.
func (m *Manager) Authenticated() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.user != nil
}

// Loading reports whether Bootstrap has yet to settle.
func (m *Manager) Loading() bool {
	return m.loading.Load()
}

func (m *Manager) expire() {
	m.logger.Info("session idle timeout")
	m.clearSession(context.Background(), ReasonExpired)
}

// persistLocked writes the session to storage, then memory. Callers hold mu.
func (m *Manager) persistLocked(ctx context.Context, token string, profile domain.Profile) error {
	raw, err := json.Marshal(profile)
	if err != nil {
		return err
	}
	if err := m.store.Set(ctx, clientstore.KeyToken, token); err != nil {
		return err
	}
	if err := m.store.Set(ctx, clientstore.KeyUser, string(raw)); err != nil {
		return err
	}
	m.token = token
	m.user = &profile
	return nil
}

// started arms the countdown and announces the session. Callers hold lifeMu.
func (m *Manager) started(ctx context.Context, profile *domain.Profile, source string) {
	m.timer.Arm()
	m.logger.Info("session started",
		zap.String("user_id", profile.ID),
		zap.String("role", string(profile.Role)),
		zap.String("source", source))
	m.publish(ctx, events.EventSessionCreated, profile, events.SessionCreatedPayload{Source: source})
}

// clearSession removes the session from the timer, storage and memory as one step.
// Event handlers and the navigator run under lifeMu and must not start or end a session.
func (m *Manager) clearSession(ctx context.Context, reason string) {
	m.lifeMu.Lock()
	defer m.lifeMu.Unlock()

	m.timer.Disarm()

	m.mu.Lock()
	if err := m.store.Delete(ctx, clientstore.KeyToken, clientstore.KeyUser); err != nil {
		m.logger.Warn("clear stored session", zap.String("reason", reason), zap.Error(err))
	}
	prev, hadToken := m.user, m.token != ""
	m.user = nil
	m.token = ""
	m.epoch++
	m.mu.Unlock()

	if prev == nil && !hadToken {
		return
	}
	m.logger.Info("session ended", zap.String("reason", reason))
	if prev == nil {
		prev = &domain.Profile{}
	}
	m.publish(ctx, events.EventSessionDestroyed, prev, events.SessionDestroyedPayload{Reason: reason})
	m.nav.RedirectToLogin()
}

func (m *Manager) publish(ctx context.Context, t events.EventType, profile *domain.Profile, payload any) {
	if m.dispatcher == nil {
		return
	}
	err := m.dispatcher.Publish(ctx, events.Event{
		ID:              uuid.NewString(),
		Type:            t,
		EstablishmentID: profile.EstablishmentID,
		Actor:           events.Actor{UserID: profile.ID, Role: profile.Role},
		Timestamp:       time.Now(),
		Payload:         payload,
	})
	if err != nil {
		m.logger.Warn("session event handler failed", zap.String("event_type", string(t)), zap.Error(err))
	}
}

func failureMessage(err error, fallback string) string {
	var apiErr *authclient.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Message != "" {
			return apiErr.Message
		}
		return fallback
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return errNetwork
}
