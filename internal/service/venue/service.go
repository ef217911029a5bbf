package venue

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/bistro/internal/dto"
	"github.com/Additional-Code/bistro/internal/entity"
	"github.com/Additional-Code/bistro/internal/repository/crud"
	venuerepo "github.com/Additional-Code/bistro/internal/repository/venue"
	"github.com/Additional-Code/bistro/internal/service/svcutil"
	"github.com/Additional-Code/bistro/internal/validation"
	"github.com/Additional-Code/bistro/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/Additional-Code/bistro/service/venue")

// Service manages dining tables and reservations.
type Service struct {
	repo     *venuerepo.Repository
	validate *validation.Validator
	logger   *zap.Logger
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Repository *venuerepo.Repository
	Validator  *validation.Validator
	Logger     *zap.Logger
}

// NewService wires a new Service instance.
func NewService(p Params) *Service {
	return &Service{repo: p.Repository, validate: p.Validator, logger: p.Logger}
}

// ListTables returns every table with its current pending order id.
func (s *Service) ListTables(ctx context.Context) ([]entity.Table, error) {
	tables, err := s.repo.ListTables(ctx)
	return tables, svcutil.StoreError(err, "table", "list")
}

// GetTable loads one table.
func (s *Service) GetTable(ctx context.Context, id int64) (*entity.Table, error) {
	table, err := s.repo.Tables.Get(ctx, id)
	return table, svcutil.StoreError(err, "table", "load")
}

// CreateTable registers an available table.
func (s *Service) CreateTable(ctx context.Context, req dto.CreateTableRequest) (*entity.Table, error) {
	req.TableNo = strings.TrimSpace(req.TableNo)
	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}
	table := &entity.Table{TableNo: req.TableNo, Status: entity.TableAvailable}
	if err := s.repo.Tables.Create(ctx, table); err != nil {
		return nil, svcutil.StoreError(err, "table", "create")
	}
	s.logger.Info("table created", zap.Int64("table_id", table.ID), zap.String("table_no", table.TableNo))
	return table, nil
}

// UpdateTable renames a table or sets its status by hand. A table serving a
// pending order cannot have its status changed here; checkout and cancel own that.
func (s *Service) UpdateTable(ctx context.Context, id int64, req dto.UpdateTableRequest) (*entity.Table, error) {
	req.TableNo = svcutil.TrimPtr(req.TableNo)
	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}

	ctx, span := serviceTracer.Start(ctx, "VenueService.UpdateTable", trace.WithAttributes(attribute.Int64("table.id", id)))
	defer span.End()

	table, err := s.repo.Tables.Get(ctx, id)
	if err != nil {
		return nil, svcutil.StoreError(err, "table", "load")
	}

	var columns []string
	if req.TableNo != nil {
		table.TableNo = *req.TableNo
		columns = append(columns, "table_no")
	}
	if req.Status != nil && *req.Status != table.Status {
		if err := s.ensureIdle(ctx, id); err != nil {
			return nil, err
		}
		table.Status = *req.Status
		columns = append(columns, "status")
	}
	if len(columns) == 0 {
		return table, nil
	}

	if err := s.repo.Tables.Update(ctx, table, columns...); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
		return nil, svcutil.StoreError(err, "table", "update")
	}
	return table, nil
}

// DeleteTable removes a table that is not serving a pending order.
func (s *Service) DeleteTable(ctx context.Context, id int64) error {
	exists, err := s.repo.Tables.Exists(ctx, id)
	if err != nil {
		return svcutil.StoreError(err, "table", "load")
	}
	if !exists {
		return errorbank.NotFound("table not found")
	}
	if err := s.ensureIdle(ctx, id); err != nil {
		return err
	}
	return svcutil.StoreError(s.repo.Tables.Delete(ctx, id), "table", "delete")
}

func (s *Service) ensureIdle(ctx context.Context, tableID int64) error {
	busy, err := s.repo.HasPendingOrder(ctx, tableID)
	if err != nil {
		return errorbank.Internal("failed to check table orders", errorbank.WithCause(err))
	}
	if busy {
		return errorbank.Conflict("table has a pending order")
	}
	return nil
}

// ListReservations returns reservations by date with their table.
func (s *Service) ListReservations(ctx context.Context) ([]entity.Reservation, error) {
	reservations, err := s.repo.Reservations.List(ctx,
		crud.WithRelation("Table"),
		crud.OrderBy("r.date ASC"),
	)
	return reservations, svcutil.StoreError(err, "reservation", "list")
}

// GetReservation loads one reservation with its table.
func (s *Service) GetReservation(ctx context.Context, id int64) (*entity.Reservation, error) {
	reservation, err := s.repo.Reservations.Get(ctx, id, crud.WithRelation("Table"))
	return reservation, svcutil.StoreError(err, "reservation", "load")
}

// CreateReservation books an existing table.
func (s *Service) CreateReservation(ctx context.Context, req dto.CreateReservationRequest) (*entity.Reservation, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Phone = strings.TrimSpace(req.Phone)
	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}

	exists, err := s.repo.Tables.Exists(ctx, req.TableID)
	if err != nil {
		return nil, svcutil.StoreError(err, "table", "load")
	}
	if !exists {
		return nil, errorbank.NotFound("table not found")
	}

	reservation := &entity.Reservation{
		Name:    req.Name,
		Phone:   req.Phone,
		Date:    req.Date.UTC(),
		People:  req.People,
		TableID: req.TableID,
	}
	if err := s.repo.Reservations.Create(ctx, reservation); err != nil {
		return nil, svcutil.StoreError(err, "reservation", "create")
	}
	return s.GetReservation(ctx, reservation.ID)
}

// DeleteReservation removes a reservation.
func (s *Service) DeleteReservation(ctx context.Context, id int64) error {
	return svcutil.StoreError(s.repo.Reservations.Delete(ctx, id), "reservation", "delete")
}
