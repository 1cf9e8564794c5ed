package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"github.com/spec-kit/hospitality-auth/internal/auth"
	"github.com/spec-kit/hospitality-auth/internal/config"
	"github.com/spec-kit/hospitality-auth/internal/domain"
	"github.com/spec-kit/hospitality-auth/internal/events"
	"github.com/spec-kit/hospitality-auth/internal/repository"
	apperrors "github.com/spec-kit/hospitality-auth/pkg/util/errorutil"
)

// RegistrationMessage is returned after an establishment has been submitted for review.
const RegistrationMessage = "Registration submitted. Your establishment will be reviewed before you can sign in."

const minPasswordLen = 6

var (
	errInvalidCredentials = apperrors.NewUnauthorized("Invalid credentials")
	errPendingApproval    = apperrors.NewForbidden("Establishment pending approval")
	errRejected           = apperrors.NewForbidden("Establishment registration was rejected")
	errEmailTaken         = apperrors.NewConflict("Email already registered", nil)
)

// TxManager runs fn inside a database transaction carried by ctx.
type TxManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

// AuthService coordinates registration, login and verification flows.
type AuthService struct {
	users          repository.UserRepository
	establishments repository.EstablishmentRepository
	tx             TxManager
	limiter        LoginLimiter
	dispatcher     events.Dispatcher
	logger         *zap.Logger
	tokenMgr       *auth.TokenManager
	bcryptCost     int
}

// AuthDependencies encapsulates requirements for the auth service.
type AuthDependencies struct {
	UserRepo          repository.UserRepository
	EstablishmentRepo repository.EstablishmentRepository
	TxManager         TxManager
	LoginLimiter      LoginLimiter
	Dispatcher        events.Dispatcher
	Logger            *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		users:          deps.UserRepo,
		establishments: deps.EstablishmentRepo,
		tx:             deps.TxManager,
		limiter:        deps.LoginLimiter,
		dispatcher:     deps.Dispatcher,
		logger:         logger,
		tokenMgr:       auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes),
		bcryptCost:     cfg.Auth.BcryptCost,
	}
}

// LoginResult carries the issued credential and the caller's profile.
type LoginResult struct {
	Profile   domain.Profile
	Token     string
	ExpiresAt time.Time
}

// RegistrationInput is the self-service establishment sign-up payload.
type RegistrationInput struct {
	Email                string
	Password             string
	Name                 string
	EstablishmentType    domain.EstablishmentType
	EstablishmentName    string
	EstablishmentAddress string
	EstablishmentPhone   string
	TINNumber            string
}

// EmployeeInput is the payload a manager submits to add staff.
type EmployeeInput struct {
	Email           string
	Password        string
	Name            string
	Role            domain.Role
	EstablishmentID string
}

// Login authenticates an account and issues a bearer token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, apperrors.NewValidationError("email and password required", nil)
	}

	if s.limiter != nil {
		allowed, err := s.limiter.Allow(ctx, email)
		if err != nil {
			s.logger.Warn("login limiter unavailable", zap.Error(err))
		} else if !allowed {
			return nil, apperrors.NewTooManyRequests("Too many failed login attempts. Try again later.")
		}
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.recordFailure(ctx, email)
			return nil, errInvalidCredentials
		}
		return nil, apperrors.MapError(err)
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		s.recordFailure(ctx, email)
		return nil, errInvalidCredentials
	}
	if user.Status != domain.UserStatusActive {
		return nil, apperrors.NewForbidden("Account suspended")
	}

	est, err := s.establishmentFor(ctx, user)
	if err != nil {
		return nil, err
	}
	if est != nil {
		switch est.Status {
		case domain.EstablishmentStatusApproved:
		case domain.EstablishmentStatusRejected:
			return nil, errRejected
		default:
			return nil, errPendingApproval
		}
	}

	if s.limiter != nil {
		if err := s.limiter.Reset(ctx, email); err != nil {
			s.logger.Warn("reset login failures", zap.Error(err))
		}
	}

	token, exp, err := s.tokenMgr.GenerateToken(user)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return &LoginResult{Profile: user.Profile(est), Token: token, ExpiresAt: exp}, nil
}

// Profile resolves the public profile of an authenticated account.
func (s *AuthService) Profile(ctx context.Context, user *domain.User) (*domain.Profile, error) {
	est, err := s.establishmentFor(ctx, user)
	if err != nil {
		return nil, err
	}
	if est != nil && !est.Approved() {
		return nil, errPendingApproval
	}
	profile := user.Profile(est)
	return &profile, nil
}

// RegisterEstablishment creates a pending establishment and its owner account.
// No token is issued: the owner signs in once the establishment is approved.
func (s *AuthService) RegisterEstablishment(ctx context.Context, in RegistrationInput) (*domain.Establishment, error) {
	in.Email = normalizeEmail(in.Email)
	in.Name = strings.TrimSpace(in.Name)
	in.EstablishmentName = strings.TrimSpace(in.EstablishmentName)

	details := validateAccount(in.Email, in.Password, in.Name)
	if in.EstablishmentName == "" {
		details["establishmentName"] = "required"
	}
	if !in.EstablishmentType.Valid() {
		details["establishmentType"] = "must be hotel or restaurant"
	}
	if len(details) > 0 {
		return nil, apperrors.NewValidationError("invalid registration", details)
	}

	if err := s.ensureEmailAvailable(ctx, in.Email); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error(), nil)
	}

	est := &domain.Establishment{
		Name:             in.EstablishmentName,
		Type:             in.EstablishmentType,
		Address:          strings.TrimSpace(in.EstablishmentAddress),
		Phone:            strings.TrimSpace(in.EstablishmentPhone),
		TINNumber:        strings.TrimSpace(in.TINNumber),
		Status:           domain.EstablishmentStatusPending,
		SubscriptionTier: domain.SubscriptionTierBasic,
	}
	owner := &domain.User{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         in.EstablishmentType.OwnerRole(),
		Status:       domain.UserStatusActive,
	}

	err = s.tx.Do(ctx, func(ctx context.Context) error {
		if err := s.establishments.Create(ctx, est); err != nil {
			return err
		}
		owner.EstablishmentID = &est.ID
		return s.users.Create(ctx, owner)
	})
	if err != nil {
		if isUniqueViolation(err) {
			return nil, errEmailTaken
		}
		return nil, apperrors.MapError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:            events.EventEstablishmentRegistered,
		EstablishmentID: est.ID,
		Actor:           events.Actor{UserID: owner.ID, Role: owner.Role},
		Payload: events.EstablishmentRegisteredPayload{
			Name:       est.Name,
			Type:       est.Type,
			OwnerEmail: owner.Email,
		},
	})
	return est, nil
}

// RegisterEmployee adds a staff account to the actor's establishment.
func (s *AuthService) RegisterEmployee(ctx context.Context, actor *domain.User, in EmployeeInput) (*domain.User, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	if !actor.Role.CanManageEmployees() || actor.EstablishmentID == nil || *actor.EstablishmentID == "" {
		return nil, apperrors.NewForbidden("Not authorized to register employees")
	}
	estID := *actor.EstablishmentID
	if in.EstablishmentID != "" && in.EstablishmentID != estID {
		return nil, apperrors.NewForbidden("Cannot register employees for another establishment")
	}

	in.Email = normalizeEmail(in.Email)
	in.Name = strings.TrimSpace(in.Name)
	details := validateAccount(in.Email, in.Password, in.Name)
	if !in.Role.IsEmployeeRole() {
		details["role"] = "invalid employee role"
	}
	if len(details) > 0 {
		return nil, apperrors.NewValidationError("invalid employee details", details)
	}

	if err := s.ensureEmailAvailable(ctx, in.Email); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error(), nil)
	}

	employee := &domain.User{
		Name:            in.Name,
		Email:           in.Email,
		PasswordHash:    hash,
		Role:            in.Role,
		EstablishmentID: &estID,
		Status:          domain.UserStatusActive,
	}
	if err := s.users.Create(ctx, employee); err != nil {
		if isUniqueViolation(err) {
			return nil, errEmailTaken
		}
		return nil, apperrors.MapError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:            events.EventEmployeeRegistered,
		EstablishmentID: estID,
		Actor:           events.Actor{UserID: actor.ID, Role: actor.Role},
		Payload: events.EmployeeRegisteredPayload{
			EmployeeID: employee.ID,
			Email:      employee.Email,
			Role:       employee.Role,
		},
	})
	return employee, nil
}

// ListEmployees returns the accounts of the actor's establishment.
func (s *AuthService) ListEmployees(ctx context.Context, actor *domain.User, role *domain.Role, limit, offset int) ([]domain.User, error) {
	if actor == nil || !actor.Role.CanManageEmployees() || actor.EstablishmentID == nil {
		return nil, apperrors.NewForbidden("Not authorized to list employees")
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	users, err := s.users.List(ctx, repository.UserFilter{
		EstablishmentID: *actor.EstablishmentID,
		Role:            role,
		Limit:           limit,
		Offset:          offset,
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return users, nil
}

// ReviewEstablishment approves or rejects a pending establishment.
func (s *AuthService) ReviewEstablishment(ctx context.Context, actor *domain.User, id string, approve bool) (*domain.Establishment, error) {
	if actor == nil || actor.Role != domain.RoleSuperAdmin {
		return nil, apperrors.NewForbidden("super admin role required")
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperrors.NewValidationError("invalid establishment id", nil)
	}

	status := domain.EstablishmentStatusRejected
	eventType := events.EventEstablishmentRejected
	if approve {
		status = domain.EstablishmentStatusApproved
		eventType = events.EventEstablishmentApproved
	}

	if err := s.establishments.UpdateStatus(ctx, id, status); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("establishment", map[string]any{"establishment_id": id})
		}
		return nil, apperrors.MapError(err)
	}
	est, err := s.establishments.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:            eventType,
		EstablishmentID: est.ID,
		Actor:           events.Actor{UserID: actor.ID, Role: actor.Role},
		Payload:         events.EstablishmentReviewedPayload{Status: est.Status},
	})
	return est, nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

func (s *AuthService) establishmentFor(ctx context.Context, user *domain.User) (*domain.Establishment, error) {
	if user.EstablishmentID == nil || *user.EstablishmentID == "" {
		return nil, nil
	}
	est, err := s.establishments.GetByID(ctx, *user.EstablishmentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewForbidden("Establishment not found")
		}
		return nil, apperrors.MapError(err)
	}
	return est, nil
}

func (s *AuthService) ensureEmailAvailable(ctx context.Context, email string) error {
	_, err := s.users.GetByEmail(ctx, email)
	if err == nil {
		return errEmailTaken
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return apperrors.MapError(err)
	}
	return nil
}

func (s *AuthService) recordFailure(ctx context.Context, email string) {
	if s.limiter == nil {
		return
	}
	if err := s.limiter.RecordFailure(ctx, email); err != nil {
		s.logger.Warn("record login failure", zap.Error(err))
	}
}

func (s *AuthService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event handler failed", zap.String("event_type", string(event.Type)), zap.Error(err))
	}
}

func validateAccount(email, password, name string) map[string]any {
	details := map[string]any{}
	if _, err := mail.ParseAddress(email); err != nil {
		details["email"] = "invalid email address"
	}
	if len(password) < minPasswordLen {
		details["password"] = "must be at least 6 characters"
	}
	if name == "" {
		details["name"] = "required"
	}
	return details
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
