package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"subgate/internal/identity/models"
	"subgate/internal/identity/store"
	"subgate/internal/identity/token"
	"subgate/internal/platform/metrics"
	"subgate/internal/sentinel"
	dErrors "subgate/pkg/domain-errors"
	"subgate/pkg/secrets"
)

// Service implements registration, login, and credential resolution.
// It owns the user store; plan transitions go through the quota transition
// handler, which shares the same store.
type Service struct {
	users   store.UserStore
	tokens  *token.Service
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// Option configures the Service.
type Option func(*Service)

// WithLogger overrides the default logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics attaches Prometheus metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// New constructs the identity service.
func New(users store.UserStore, tokens *token.Service, opts ...Option) *Service {
	svc := &Service{
		users:  users,
		tokens: tokens,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	return svc
}

// RegisterInput carries the registration request. Role and Plan are optional
// and default to customer/basic when absent.
type RegisterInput struct {
	Username string
	Password string
	Role     string
	Plan     string
}

// Register creates a new user with a hashed password.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	username := strings.TrimSpace(in.Username)
	if username == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "username is required")
	}
	if in.Password == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "password is required")
	}

	role := models.RoleCustomer
	if in.Role != "" {
		role = models.Role(in.Role)
		if !role.Valid() {
			return nil, dErrors.New(dErrors.CodeValidation, "role must be admin or customer")
		}
	}
	plan := in.Plan
	if plan == "" {
		plan = models.DefaultPlanName
	}

	hash, err := secrets.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		ID:           uuid.New(),
		Username:     username,
		PasswordHash: hash,
		Role:         role,
		PlanName:     plan,
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, sentinel.ErrDuplicate) {
			return nil, dErrors.New(dErrors.CodeConflict, "username already exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "could not create user")
	}

	s.logger.InfoContext(ctx, "user registered",
		"user_id", user.ID,
		"role", string(user.Role),
		"plan", user.PlanName,
	)
	if s.metrics != nil {
		s.metrics.UsersRegistered.Inc()
	}
	return user, nil
}

// Login verifies the password and issues a bearer token.
// Unknown usernames and wrong passwords produce the same error so the
// endpoint cannot be used to probe for accounts.
func (s *Service) Login(ctx context.Context, username, password string) (string, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			s.loginFailed(ctx, username)
			return "", dErrors.New(dErrors.CodeUnauthorized, "invalid username or password")
		}
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "could not look up user")
	}

	if err := secrets.Verify(password, user.PasswordHash); err != nil {
		if dErrors.HasCode(err, dErrors.CodeUnauthorized) {
			s.loginFailed(ctx, username)
			return "", dErrors.New(dErrors.CodeUnauthorized, "invalid username or password")
		}
		return "", err
	}

	signed, err := s.tokens.Generate(user.ID)
	if err != nil {
		return "", err
	}

	s.logger.InfoContext(ctx, "user logged in", "user_id", user.ID)
	return signed, nil
}

// Authenticate resolves a bearer token to the user it identifies.
// Used by the auth middleware on every authenticated request.
func (s *Service) Authenticate(ctx context.Context, tokenString string) (*models.User, error) {
	userID, err := s.tokens.Validate(tokenString)
	if err != nil {
		return nil, err
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "could not load user")
	}
	return user, nil
}

func (s *Service) loginFailed(ctx context.Context, username string) {
	s.logger.WarnContext(ctx, "login failed", "username", username)
	if s.metrics != nil {
		s.metrics.LoginFailures.Inc()
	}
}
