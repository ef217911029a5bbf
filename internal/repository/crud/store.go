package crud

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Additional-Code/bistro/internal/database"
	"github.com/Additional-Code/bistro/internal/entity"
)

var repoTracer = otel.Tracer("github.com/Additional-Code/bistro/repository/crud")

var (
	// ErrNotFound is returned when no live row matches.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a unique index rejects a write.
	ErrDuplicate = errors.New("duplicate record")
	// ErrReferenced is returned when a foreign key blocks removing a row.
	ErrReferenced = errors.New("record is still referenced")
)

// DeleteMode declares how Delete removes a row.
type DeleteMode int

const (
	// HardDelete physically removes the row.
	HardDelete DeleteMode = iota
	// SoftDelete flips the is_deleted flag and hides the row from reads.
	SoftDelete
)

func (m DeleteMode) String() string {
	if m == SoftDelete {
		return "soft"
	}
	return "hard"
}

// QueryOption customises select queries issued by the store.
type QueryOption func(*bun.SelectQuery) *bun.SelectQuery

// WithRelation joins a named bun relation, optionally filtering it.
func WithRelation(name string, apply ...func(*bun.SelectQuery) *bun.SelectQuery) QueryOption {
	return func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Relation(name, apply...)
	}
}

// OrderBy sets the ordering expression for list queries.
func OrderBy(expr string) QueryOption {
	return func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.OrderExpr(expr)
	}
}

// Where adds a filter to select queries.
func Where(query string, args ...any) QueryOption {
	return func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where(query, args...)
	}
}

// Store offers uniform persistence for one model type with a declared deletion mode.
type Store[T any] struct {
	name   string
	mode   DeleteMode
	writer bun.IDB
	reader bun.IDB
	now    func() time.Time
}

// NewStore binds a store to the configured connections.
func NewStore[T any](name string, mode DeleteMode, conns *database.Connections) *Store[T] {
	return &Store[T]{
		name:   name,
		mode:   mode,
		writer: conns.Writer,
		reader: conns.Reader,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// WithTx returns a copy of the store issuing every query on db.
func (s *Store[T]) WithTx(db bun.IDB) *Store[T] {
	clone := *s
	clone.writer = db
	clone.reader = db
	return &clone
}

// Mode reports the deletion mode of the store.
func (s *Store[T]) Mode() DeleteMode {
	return s.mode
}

// Create inserts model, stamping timestamps when the model carries them.
func (s *Store[T]) Create(ctx context.Context, model *T) error {
	if model == nil {
		return fmt.Errorf("nil %s", s.name)
	}
	ctx, span := s.start(ctx, "Create")
	defer span.End()

	if stamped, ok := any(model).(entity.Stamper); ok {
		stamped.Stamp(s.now())
	}

	if _, err := s.writer.NewInsert().Model(model).Exec(ctx); err != nil {
		return s.fail(span, "insert failed", translate(err))
	}
	return nil
}

// List returns every live row.
func (s *Store[T]) List(ctx context.Context, opts ...QueryOption) ([]T, error) {
	ctx, span := s.start(ctx, "List")
	defer span.End()

	rows := make([]T, 0)
	q := s.reader.NewSelect().Model(&rows)
	q = s.scope(q)
	for _, opt := range opts {
		q = opt(q)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, s.fail(span, "select failed", err)
	}
	return rows, nil
}

// Get fetches a live row by primary key.
func (s *Store[T]) Get(ctx context.Context, id int64, opts ...QueryOption) (*T, error) {
	ctx, span := s.start(ctx, "Get", attribute.Int64("id", id))
	defer span.End()

	model := new(T)
	q := s.reader.NewSelect().Model(model).Where("?TableAlias.id = ?", id)
	q = s.scope(q)
	for _, opt := range opts {
		q = opt(q)
	}
	err := q.Limit(1).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		span.SetStatus(codes.Error, "not found")
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, s.fail(span, "select failed", err)
	}
	return model, nil
}

// Exists reports whether a live row with id is present.
func (s *Store[T]) Exists(ctx context.Context, id int64) (bool, error) {
	ctx, span := s.start(ctx, "Exists", attribute.Int64("id", id))
	defer span.End()

	q := s.reader.NewSelect().Model((*T)(nil)).Where("?TableAlias.id = ?", id)
	ok, err := s.scope(q).Exists(ctx)
	if err != nil {
		return false, s.fail(span, "exists failed", err)
	}
	return ok, nil
}

// Update writes the named columns of model, identified by its primary key.
// updated_at is appended automatically for stamped models.
func (s *Store[T]) Update(ctx context.Context, model *T, columns ...string) error {
	if model == nil {
		return fmt.Errorf("nil %s", s.name)
	}
	ctx, span := s.start(ctx, "Update")
	defer span.End()

	if stamped, ok := any(model).(entity.Stamper); ok {
		stamped.Stamp(s.now())
		if len(columns) > 0 {
			columns = append(columns, "updated_at")
		}
	}

	q := s.writer.NewUpdate().Model(model).WherePK()
	if len(columns) > 0 {
		q = q.Column(columns...)
	} else {
		q = q.ExcludeColumn("created_at")
	}
	if s.mode == SoftDelete {
		q = q.Where("is_deleted = ?", false)
	}

	res, err := q.Exec(ctx)
	if err != nil {
		return s.fail(span, "update failed", translate(err))
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		span.SetStatus(codes.Error, "not found")
		return ErrNotFound
	}
	return nil
}

// Delete removes the row using the store's deletion mode.
func (s *Store[T]) Delete(ctx context.Context, id int64) error {
	ctx, span := s.start(ctx, "Delete", attribute.Int64("id", id), attribute.String("mode", s.mode.String()))
	defer span.End()

	var (
		res sql.Result
		err error
	)
	switch s.mode {
	case SoftDelete:
		res, err = s.writer.NewUpdate().Model((*T)(nil)).
			Set("is_deleted = ?", true).
			Set("updated_at = ?", s.now()).
			Where("id = ?", id).
			Where("is_deleted = ?", false).
			Exec(ctx)
	default:
		res, err = s.writer.NewDelete().Model((*T)(nil)).Where("id = ?", id).Exec(ctx)
	}
	if err != nil {
		return s.fail(span, "delete failed", translate(err))
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		span.SetStatus(codes.Error, "not found")
		return ErrNotFound
	}
	return nil
}

func (s *Store[T]) scope(q *bun.SelectQuery) *bun.SelectQuery {
	if s.mode == SoftDelete {
		return q.Where("?TableAlias.is_deleted = ?", false)
	}
	return q
}

func (s *Store[T]) start(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append(attrs, attribute.String("model", s.name))
	return repoTracer.Start(ctx, s.name+"Store."+op, trace.WithAttributes(attrs...))
}

func (s *Store[T]) fail(span trace.Span, msg string, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, msg)
	return err
}

func translate(err error) error {
	switch {
	case database.IsUniqueViolation(err):
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	case database.IsForeignKeyViolation(err):
		return fmt.Errorf("%w: %v", ErrReferenced, err)
	}
	return err
}
