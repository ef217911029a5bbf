// Package seeder loads a starter menu, floor plan and admin account for
// local and demo environments. Every step is idempotent.
package seeder

import (
	"context"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/bistro/internal/auth"
	"github.com/Additional-Code/bistro/internal/config"
	"github.com/Additional-Code/bistro/internal/database"
	"github.com/Additional-Code/bistro/internal/entity"
)

// Module provides the Seeder.
var Module = fx.Provide(New)

// TableCount is how many tables the floor plan seeds.
const TableCount = 5

type menuItem struct {
	name     string
	price    int64
	isGram   bool
	variants []entity.ProductVariant
}

var menu = map[string][]menuItem{
	"Mains": {
		{name: "Nasi Goreng", price: 35000, variants: []entity.ProductVariant{
			{Name: "Seafood", Price: 45000},
			{Name: "Chicken", Price: 40000},
		}},
		{name: "Grilled Salmon", price: 1200, isGram: true},
	},
	"Drinks": {
		{name: "Iced Tea", price: 10000, variants: []entity.ProductVariant{{Name: "Large", Price: 14000}}},
		{name: "Espresso", price: 18000},
	},
}

var paymentMethods = []string{"Cash", "Debit Card", "QRIS"}

// Seeder performs database seeding for local/dev setups.
type Seeder struct {
	db     *bun.DB
	hasher *auth.PasswordHasher
	admin  config.Auth
	logger *zap.Logger
	now    func() time.Time
}

// New constructs a Seeder backed by the primary database connection.
func New(conns *database.Connections, hasher *auth.PasswordHasher, cfg config.Config, logger *zap.Logger) *Seeder {
	return &Seeder{
		db:     conns.Writer,
		hasher: hasher,
		admin:  cfg.Auth,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// All runs every seeder in dependency order.
func (s *Seeder) All(ctx context.Context) error {
	steps := []struct {
		name string
		fn   func(context.Context) error
	}{
		{"menu", s.Menu},
		{"tables", s.Tables},
		{"payment methods", s.PaymentMethods},
		{"buffets", s.Buffets},
		{"admin", s.Admin},
	}
	for _, step := range steps {
		if err := step.fn(ctx); err != nil {
			return fmt.Errorf("seed %s: %w", step.name, err)
		}
	}
	return nil
}

// Menu seeds categories, products and their variants.
func (s *Seeder) Menu(ctx context.Context) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		created := 0
		for categoryName, items := range menu {
			category := &entity.Category{Name: categoryName}
			found, err := s.findOrCreate(ctx, tx, category, "name = ?", categoryName)
			if err != nil {
				return err
			}
			if !found {
				created++
			}

			for _, item := range items {
				product := &entity.Product{
					Name:       item.name,
					Price:      item.price,
					IsGram:     item.isGram,
					CategoryID: category.ID,
				}
				found, err := s.findOrCreate(ctx, tx, product, "name = ? AND category_id = ?", item.name, category.ID)
				if err != nil {
					return err
				}
				if found {
					continue
				}
				created++
				for _, v := range item.variants {
					variant := v
					variant.ProductID = product.ID
					variant.Stamp(s.now())
					if _, err := tx.NewInsert().Model(&variant).Exec(ctx); err != nil {
						return err
					}
				}
			}
		}
		s.logger.Info("seeded menu", zap.Int("created", created))
		return nil
	})
}

// Tables seeds T-001 through T-005, all available.
func (s *Seeder) Tables(ctx context.Context) error {
	created := 0
	for i := 1; i <= TableCount; i++ {
		no := fmt.Sprintf("T-%03d", i)
		found, err := s.findOrCreate(ctx, s.db, &entity.Table{TableNo: no, Status: entity.TableAvailable}, "table_no = ?", no)
		if err != nil {
			return err
		}
		if !found {
			created++
		}
	}
	s.logger.Info("seeded tables", zap.Int("created", created))
	return nil
}

// PaymentMethods seeds the default payment methods without images.
func (s *Seeder) PaymentMethods(ctx context.Context) error {
	created := 0
	for _, name := range paymentMethods {
		found, err := s.findOrCreate(ctx, s.db, &entity.PaymentMethod{Name: name}, "name = ?", name)
		if err != nil {
			return err
		}
		if !found {
			created++
		}
	}
	s.logger.Info("seeded payment methods", zap.Int("created", created))
	return nil
}

// Buffets seeds a single all-you-can-eat menu.
func (s *Seeder) Buffets(ctx context.Context) error {
	buffet := &entity.Buffet{Name: "Weekend Buffet", Description: "All you can eat", Price: 150000}
	found, err := s.findOrCreate(ctx, s.db, buffet, "name = ? AND is_deleted = ?", buffet.Name, false)
	if err != nil {
		return err
	}
	if !found {
		s.logger.Info("seeded buffet", zap.String("name", buffet.Name))
	}
	return nil
}

// Admin creates the configured administrator. It is skipped when no admin
// credentials are configured.
func (s *Seeder) Admin(ctx context.Context) error {
	if s.admin.AdminEmail == "" || s.admin.AdminPass == "" {
		s.logger.Info("admin credentials not configured; skipping")
		return nil
	}

	exists, err := s.db.NewSelect().Model((*entity.User)(nil)).Where("email = ?", s.admin.AdminEmail).Exists(ctx)
	if err != nil || exists {
		return err
	}

	hashed, err := s.hasher.Hash(s.admin.AdminPass)
	if err != nil {
		return err
	}
	user := &entity.User{Name: s.admin.AdminName, Email: s.admin.AdminEmail, Password: hashed}
	user.Stamp(s.now())
	if _, err := s.db.NewInsert().Model(user).Exec(ctx); err != nil {
		return err
	}
	s.logger.Info("seeded admin", zap.String("email", user.Email))
	return nil
}

// findOrCreate loads the row matching where into model, inserting model when
// absent. It reports whether the row already existed.
func (s *Seeder) findOrCreate(ctx context.Context, db bun.IDB, model entity.Stamper, where string, args ...any) (bool, error) {
	err := db.NewSelect().Model(model).Where(where, args...).Limit(1).Scan(ctx)
	if err == nil {
		return true, nil
	}
	if !database.IsNoRows(err) {
		return false, err
	}
	model.Stamp(s.now())
	_, err = db.NewInsert().Model(model).Exec(ctx)
	return false, err
}
