package auth

import (
	"context"
	"errors"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/bistro/internal/auth"
	"github.com/Additional-Code/bistro/internal/dto"
	"github.com/Additional-Code/bistro/internal/entity"
	"github.com/Additional-Code/bistro/internal/repository/crud"
	userrepo "github.com/Additional-Code/bistro/internal/repository/user"
	"github.com/Additional-Code/bistro/internal/validation"
	"github.com/Additional-Code/bistro/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/Additional-Code/bistro/service/auth")

// Service registers staff, checks credentials and resolves session tokens.
type Service struct {
	users    *userrepo.Repository
	tokens   *auth.TokenIssuer
	hasher   *auth.PasswordHasher
	validate *validation.Validator
	logger   *zap.Logger
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Users     *userrepo.Repository
	Tokens    *auth.TokenIssuer
	Hasher    *auth.PasswordHasher
	Validator *validation.Validator
	Logger    *zap.Logger
}

// NewService wires a new Service instance.
func NewService(p Params) *Service {
	return &Service{
		users:    p.Users,
		tokens:   p.Tokens,
		hasher:   p.Hasher,
		validate: p.Validator,
		logger:   p.Logger,
	}
}

// Register creates an account. A taken email is a conflict and creates nothing.
func (s *Service) Register(ctx context.Context, req dto.RegisterRequest) (*entity.User, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}

	ctx, span := serviceTracer.Start(ctx, "AuthService.Register")
	defer span.End()

	taken, err := s.users.EmailTaken(ctx, req.Email)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to register user", errorbank.WithCause(err))
	}
	if taken {
		return nil, errorbank.Conflict("email already registered")
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, errorbank.Internal("failed to hash password", errorbank.WithCause(err))
	}

	user := &entity.User{Name: req.Name, Email: req.Email, Password: hash}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, crud.ErrDuplicate) {
			return nil, errorbank.Conflict("email already registered")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to register user", errorbank.WithCause(err))
	}

	s.logger.Info("user registered", zap.Int64("user_id", user.ID))
	return user, nil
}

// Login verifies credentials and issues a session token. Unknown emails and
// wrong passwords fail the same way.
func (s *Service) Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}

	ctx, span := serviceTracer.Start(ctx, "AuthService.Login")
	defer span.End()

	user, err := s.users.GetByEmail(ctx, req.Email)
	if errors.Is(err, crud.ErrNotFound) {
		return nil, errorbank.Unauthorized("invalid credentials")
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to login", errorbank.WithCause(err))
	}

	if err := s.hasher.Compare(user.Password, req.Password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return nil, errorbank.Unauthorized("invalid credentials")
		}
		return nil, errorbank.Internal("failed to login", errorbank.WithCause(err))
	}

	token, expiresAt, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, errorbank.Internal("failed to issue token", errorbank.WithCause(err))
	}

	span.SetAttributes(attribute.Int64("user.id", user.ID))
	return &dto.LoginResponse{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

// Authenticate resolves a token into an identity, re-reading the user so
// deleted accounts lose access immediately.
func (s *Service) Authenticate(ctx context.Context, token string) (auth.Identity, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return auth.Identity{}, errorbank.Unauthorized("missing token")
	}

	ctx, span := serviceTracer.Start(ctx, "AuthService.Authenticate")
	defer span.End()

	userID, err := s.tokens.Parse(token)
	switch {
	case errors.Is(err, auth.ErrTokenExpired):
		return auth.Identity{}, errorbank.Unauthorized("token expired")
	case err != nil:
		return auth.Identity{}, errorbank.Unauthorized("invalid token", errorbank.WithCause(err))
	}

	span.SetAttributes(attribute.Int64("user.id", userID))
	user, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, crud.ErrNotFound) {
		return auth.Identity{}, errorbank.Unauthorized("user no longer exists")
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return auth.Identity{}, errorbank.Internal("failed to authenticate", errorbank.WithCause(err))
	}

	return auth.Identity{UserID: user.ID, Name: user.Name, Email: user.Email}, nil
}

// Profile returns the account behind id.
func (s *Service) Profile(ctx context.Context, id auth.Identity) (*entity.User, error) {
	ctx, span := serviceTracer.Start(ctx, "AuthService.Profile", trace.WithAttributes(attribute.Int64("user.id", id.UserID)))
	defer span.End()

	user, err := s.users.GetByID(ctx, id.UserID)
	if errors.Is(err, crud.ErrNotFound) {
		return nil, errorbank.NotFound("user not found")
	}
	if err != nil {
		return nil, errorbank.Internal("failed to load profile", errorbank.WithCause(err))
	}
	return user, nil
}
