package user

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"

	"github.com/Additional-Code/bistro/internal/database"
	"github.com/Additional-Code/bistro/internal/entity"
	"github.com/Additional-Code/bistro/internal/repository/crud"
)

var repoTracer = otel.Tracer("github.com/Additional-Code/bistro/repository/user")

// Repository encapsulates access to staff accounts.
type Repository struct {
	users  *crud.Store[entity.User]
	reader bun.IDB
}

// NewRepository wires a repository backed by configured database connections.
func NewRepository(conns *database.Connections) *Repository {
	return &Repository{
		users:  crud.NewStore[entity.User]("User", crud.HardDelete, conns),
		reader: conns.Reader,
	}
}

// Create persists u. A taken email yields crud.ErrDuplicate.
func (r *Repository) Create(ctx context.Context, u *entity.User) error {
	return r.users.Create(ctx, u)
}

// GetByID fetches a user by primary key.
func (r *Repository) GetByID(ctx context.Context, id int64) (*entity.User, error) {
	return r.users.Get(ctx, id)
}

// GetByEmail fetches a user by normalised email.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	ctx, span := repoTracer.Start(ctx, "UserRepository.GetByEmail")
	defer span.End()

	u := new(entity.User)
	err := r.reader.NewSelect().Model(u).
		Where("u.email = ?", strings.ToLower(strings.TrimSpace(email))).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		span.SetStatus(codes.Error, "not found")
		return nil, crud.ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return u, nil
}

// EmailTaken reports whether an account already uses email.
func (r *Repository) EmailTaken(ctx context.Context, email string) (bool, error) {
	return r.reader.NewSelect().Model((*entity.User)(nil)).
		Where("u.email = ?", strings.ToLower(strings.TrimSpace(email))).
		Exists(ctx)
}
