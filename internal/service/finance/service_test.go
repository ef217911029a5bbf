package finance

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Additional-Code/bistro/internal/auth"
	"github.com/Additional-Code/bistro/internal/config"
	"github.com/Additional-Code/bistro/internal/database"
	"github.com/Additional-Code/bistro/internal/dto"
	"github.com/Additional-Code/bistro/internal/entity"
	financerepo "github.com/Additional-Code/bistro/internal/repository/finance"
	"github.com/Additional-Code/bistro/internal/storage"
	"github.com/Additional-Code/bistro/internal/testutil"
	"github.com/Additional-Code/bistro/internal/validation"
	"github.com/Additional-Code/bistro/pkg/errorbank"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

const baseURL = "http://pos.local"

type fixture struct {
	svc       *Service
	conns     *database.Connections
	uploadDir string
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	conns := testutil.NewConnections(t)
	cfg := config.Config{
		Upload:    config.Upload{Dir: t.TempDir(), PublicPrefix: "/public/uploads", MaxBytes: 1 << 20},
		Reporting: config.Reporting{Location: time.UTC},
	}
	svc := NewService(Params{
		Config:     cfg,
		Repository: financerepo.NewRepository(conns),
		Uploader:   storage.NewUploader(cfg, zap.NewNop()),
		Validator:  validation.New(),
		Logger:     zap.NewNop(),
	})
	return fixture{svc: svc, conns: conns, uploadDir: cfg.Upload.Dir}
}

func (f fixture) storedFiles(t *testing.T) []string {
	t.Helper()
	entries, err := os.ReadDir(f.uploadDir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestCreatePaymentMethodStoresImageURL(t *testing.T) {
	f := newFixture(t)

	method, err := f.svc.CreatePaymentMethod(context.Background(), dto.PaymentMethodRequest{Name: " Cash "}, bytes.NewReader(pngHeader), baseURL+"/")
	require.NoError(t, err)

	assert.Equal(t, "Cash", method.Name)
	assert.True(t, strings.HasPrefix(method.Image, baseURL+"/public/uploads/"), method.Image)
	assert.True(t, strings.HasSuffix(method.Image, ".png"))
	assert.Equal(t, []string{filepath.Base(method.Image)}, f.storedFiles(t))
}

func TestCreatePaymentMethodRejectsBadImages(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreatePaymentMethod(ctx, dto.PaymentMethodRequest{Name: "Cash"}, nil, baseURL)
	require.Error(t, err)
	assert.Contains(t, errorbank.From(err).Fields(), "image")

	_, err = f.svc.CreatePaymentMethod(ctx, dto.PaymentMethodRequest{Name: "Cash"}, strings.NewReader("GIF89a not allowed"), baseURL)
	require.Error(t, err)
	assert.Equal(t, errorbank.KindBadRequest, errorbank.From(err).Kind())
	assert.Contains(t, errorbank.From(err).Fields(), "image")
	assert.Empty(t, f.storedFiles(t))
}

func TestDuplicatePaymentMethodDiscardsUpload(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreatePaymentMethod(ctx, dto.PaymentMethodRequest{Name: "Online"}, bytes.NewReader(pngHeader), baseURL)
	require.NoError(t, err)

	_, err = f.svc.CreatePaymentMethod(ctx, dto.PaymentMethodRequest{Name: "Online"}, bytes.NewReader(pngHeader), baseURL)
	assert.True(t, errorbank.Is(err, errorbank.KindConflict))
	assert.Len(t, f.storedFiles(t), 1)
}

func TestUpdatePaymentMethodReplacesImage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	method, err := f.svc.CreatePaymentMethod(ctx, dto.PaymentMethodRequest{Name: "Card"}, bytes.NewReader(pngHeader), baseURL)
	require.NoError(t, err)
	original := method.Image

	renamed := "Debit Card"
	updated, err := f.svc.UpdatePaymentMethod(ctx, method.ID, dto.UpdatePaymentMethodRequest{Name: &renamed}, nil, baseURL)
	require.NoError(t, err)
	assert.Equal(t, "Debit Card", updated.Name)
	assert.Equal(t, original, updated.Image)

	updated, err = f.svc.UpdatePaymentMethod(ctx, method.ID, dto.UpdatePaymentMethodRequest{}, bytes.NewReader(pngHeader), baseURL)
	require.NoError(t, err)
	assert.NotEqual(t, original, updated.Image)
	assert.Equal(t, []string{filepath.Base(updated.Image)}, f.storedFiles(t))

	require.NoError(t, f.svc.DeletePaymentMethod(ctx, method.ID))
	assert.Empty(t, f.storedFiles(t))

	err = f.svc.DeletePaymentMethod(ctx, method.ID)
	assert.True(t, errorbank.Is(err, errorbank.KindNotFound))
}

func TestCurrentMonthTotalIsScopedToCallerAndMonth(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.svc.now = testutil.FixedClock(time.Date(2026, 5, 20, 10, 0, 0, 0, time.UTC))

	testutil.Insert(t, f.conns,
		&entity.Expense{UserID: 1, Title: "gas", Amount: 40000, Category: "utilities",
			Timestamps: entity.Timestamps{CreatedAt: time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)}},
		&entity.Expense{UserID: 1, Title: "ice", Amount: 15000, Category: "supplies",
			Timestamps: entity.Timestamps{CreatedAt: time.Date(2026, 5, 31, 23, 59, 59, 0, time.UTC)}},
		&entity.Expense{UserID: 1, Title: "rent", Amount: 900000, Category: "rent",
			Timestamps: entity.Timestamps{CreatedAt: time.Date(2026, 4, 30, 23, 59, 59, 0, time.UTC)}},
		&entity.Expense{UserID: 2, Title: "other", Amount: 5000, Category: "misc",
			Timestamps: entity.Timestamps{CreatedAt: time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC)}},
	)

	got, err := f.svc.CurrentMonthTotal(ctx, auth.Identity{UserID: 1})
	require.NoError(t, err)
	assert.Equal(t, "2026-05", got.Month)
	assert.Equal(t, int64(55000), got.Total)
}

func TestExpenseLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	caller := auth.Identity{UserID: 3}

	_, err := f.svc.CreateExpense(ctx, caller, dto.CreateExpenseRequest{Title: "napkins", Amount: 0, Category: "supplies"})
	assert.True(t, errorbank.Is(err, errorbank.KindBadRequest))

	expense, err := f.svc.CreateExpense(ctx, caller, dto.CreateExpenseRequest{Title: " napkins ", Amount: 12000, Category: "supplies"})
	require.NoError(t, err)
	assert.Equal(t, int64(3), expense.UserID)
	assert.Equal(t, "napkins", expense.Title)

	amount := int64(13000)
	updated, err := f.svc.UpdateExpense(ctx, expense.ID, dto.UpdateExpenseRequest{Amount: &amount})
	require.NoError(t, err)
	assert.Equal(t, int64(13000), updated.Amount)
	assert.Equal(t, "supplies", updated.Category)

	require.NoError(t, f.svc.DeleteExpense(ctx, expense.ID))
	_, err = f.svc.GetExpense(ctx, expense.ID)
	assert.True(t, errorbank.Is(err, errorbank.KindNotFound))
}
