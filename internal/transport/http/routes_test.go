package http

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Additional-Code/bistro/internal/auth"
	"github.com/Additional-Code/bistro/internal/cache"
	"github.com/Additional-Code/bistro/internal/config"
	"github.com/Additional-Code/bistro/internal/messaging"
	"github.com/Additional-Code/bistro/internal/presentation/http/response"
	catalogrepo "github.com/Additional-Code/bistro/internal/repository/catalog"
	financerepo "github.com/Additional-Code/bistro/internal/repository/finance"
	orderrepo "github.com/Additional-Code/bistro/internal/repository/order"
	userrepo "github.com/Additional-Code/bistro/internal/repository/user"
	venuerepo "github.com/Additional-Code/bistro/internal/repository/venue"
	authsvc "github.com/Additional-Code/bistro/internal/service/auth"
	catalogsvc "github.com/Additional-Code/bistro/internal/service/catalog"
	financesvc "github.com/Additional-Code/bistro/internal/service/finance"
	ordersvc "github.com/Additional-Code/bistro/internal/service/order"
	reportsvc "github.com/Additional-Code/bistro/internal/service/report"
	venuesvc "github.com/Additional-Code/bistro/internal/service/venue"
	"github.com/Additional-Code/bistro/internal/storage"
	"github.com/Additional-Code/bistro/internal/testutil"
	authtransport "github.com/Additional-Code/bistro/internal/transport/http/auth"
	catalogtransport "github.com/Additional-Code/bistro/internal/transport/http/catalog"
	financetransport "github.com/Additional-Code/bistro/internal/transport/http/finance"
	"github.com/Additional-Code/bistro/internal/transport/http/middleware"
	ordertransport "github.com/Additional-Code/bistro/internal/transport/http/order"
	reporttransport "github.com/Additional-Code/bistro/internal/transport/http/report"
	venuetransport "github.com/Additional-Code/bistro/internal/transport/http/venue"
	"github.com/Additional-Code/bistro/internal/validation"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

type envelope struct {
	StatusCode int               `json:"statusCode"`
	Message    string            `json:"message"`
	Data       json.RawMessage   `json:"data"`
	Errors     map[string]string `json:"errors"`
}

type client struct {
	t     *testing.T
	e     *echo.Echo
	token string
}

func newRouter(t *testing.T) *echo.Echo {
	t.Helper()
	conns := testutil.NewConnections(t)
	store := cache.NewMemory()
	cfg := config.Config{
		Auth:          config.Auth{JWTSecret: "secret", TokenTTL: time.Hour, CookieName: "jwt", BcryptCost: 4},
		Cache:         config.Cache{DefaultTTL: time.Minute},
		Upload:        config.Upload{Dir: t.TempDir(), PublicPrefix: "/public/uploads", MaxBytes: 1 << 20},
		Reporting:     config.Reporting{Location: time.UTC, CacheTTL: time.Minute},
		Observability: config.Observability{ServiceName: "bistro"},
	}
	validator := validation.New()
	logger := zap.NewNop()

	users := userrepo.NewRepository(conns)
	venues := venuerepo.NewRepository(conns)
	catalog := catalogrepo.NewRepository(conns)
	finance := financerepo.NewRepository(conns)
	orders := orderrepo.NewRepository(conns)

	authService := authsvc.NewService(authsvc.Params{
		Users:     users,
		Tokens:    auth.NewTokenIssuer(cfg),
		Hasher:    auth.NewPasswordHasher(cfg),
		Validator: validator,
		Logger:    logger,
	})
	reports := reportsvc.NewService(reportsvc.Params{Orders: orders, Cache: store, Config: cfg, Logger: logger})
	orderService := ordersvc.NewService(ordersvc.Params{
		Connections: conns,
		Orders:      orders,
		Venue:       venues,
		Catalog:     catalog,
		Finance:     finance,
		Reports:     reports,
		Cache:       store,
		Config:      cfg,
		Publisher:   messaging.Noop("bistro.orders"),
		Validator:   validator,
		Logger:      logger,
	})

	e := echo.New()
	e.HTTPErrorHandler = response.ErrorHandler
	mw := middleware.NewAuth(authService, cfg)

	authtransport.Register(e, authtransport.NewHandler(authService, mw), mw)
	venuetransport.Register(e, venuetransport.NewHandler(venuesvc.NewService(venuesvc.Params{
		Repository: venues, Validator: validator, Logger: logger,
	})), mw)
	catalogtransport.Register(e, catalogtransport.NewHandler(catalogsvc.NewService(catalogsvc.Params{
		Connections: conns, Repository: catalog, Validator: validator, Logger: logger,
	})), mw)
	financetransport.Register(e, financetransport.NewHandler(financesvc.NewService(financesvc.Params{
		Config: cfg, Repository: finance, Uploader: storage.NewUploader(cfg, logger), Validator: validator, Logger: logger,
	})), mw)
	ordertransport.Register(e, ordertransport.NewHandler(orderService), mw)
	reporttransport.Register(e, reporttransport.NewHandler(reports), mw)
	return e
}

func (c *client) do(req *http.Request) envelope {
	c.t.Helper()
	if c.token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+c.token)
	}
	rec := httptest.NewRecorder()
	c.e.ServeHTTP(rec, req)

	var env envelope
	require.NoError(c.t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	assert.Equal(c.t, rec.Code, env.StatusCode)
	return env
}

func (c *client) json(method, target string, body any) envelope {
	c.t.Helper()
	var reader *bytes.Reader
	if body == nil {
		reader = bytes.NewReader(nil)
	} else {
		raw, err := json.Marshal(body)
		require.NoError(c.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return c.do(req)
}

func decodeData[T any](t *testing.T, env envelope) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(env.Data, &out))
	return out
}

func login(t *testing.T, e *echo.Echo) *client {
	t.Helper()
	c := &client{t: t, e: e}
	env := c.json(http.MethodPost, "/register", map[string]string{
		"name": "Cashier", "email": "cashier@bistro.local", "password": "hunter22",
	})
	require.Equal(t, http.StatusCreated, env.StatusCode)

	env = c.json(http.MethodPost, "/login", map[string]string{
		"email": "cashier@bistro.local", "password": "hunter22",
	})
	require.Equal(t, http.StatusOK, env.StatusCode)
	c.token = decodeData[struct {
		Token string `json:"token"`
	}](t, env).Token
	require.NotEmpty(t, c.token)
	return c
}

func TestOrderLifecycleOverHTTP(t *testing.T) {
	c := login(t, newRouter(t))

	require.Equal(t, http.StatusCreated, c.json(http.MethodPost, "/tables", map[string]string{"table_no": "T-001"}).StatusCode)
	require.Equal(t, http.StatusCreated, c.json(http.MethodPost, "/categories", map[string]string{"name": "Mains"}).StatusCode)
	require.Equal(t, http.StatusCreated, c.json(http.MethodPost, "/products", map[string]any{
		"name": "Nasi Goreng", "price": 5000, "category_id": 1,
	}).StatusCode)

	var form bytes.Buffer
	mw := multipart.NewWriter(&form)
	require.NoError(t, mw.WriteField("name", "Cash"))
	part, err := mw.CreateFormFile("image", "cash.png")
	require.NoError(t, err)
	_, err = part.Write(pngHeader)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, "/payment-methods", &form)
	req.Header.Set(echo.HeaderContentType, mw.FormDataContentType())
	env := c.do(req)
	require.Equal(t, http.StatusCreated, env.StatusCode)
	method := decodeData[struct {
		Image string `json:"image"`
	}](t, env)
	assert.True(t, strings.HasPrefix(method.Image, "http://example.com/public/uploads/"), method.Image)

	env = c.json(http.MethodPost, "/orders", map[string]any{
		"table_id": 1, "tax": 500,
		"order_items": []map[string]any{{"product_id": 1, "quantity": 2}},
	})
	require.Equal(t, http.StatusCreated, env.StatusCode)
	order := decodeData[struct {
		ID         int64  `json:"id"`
		Status     string `json:"status"`
		GrandTotal int64  `json:"grand_total"`
	}](t, env)
	assert.Equal(t, "pending", order.Status)
	assert.Equal(t, int64(10500), order.GrandTotal)

	env = c.json(http.MethodPost, "/orders", map[string]any{
		"table_id": 1, "order_items": []map[string]any{{"product_id": 1, "quantity": 1}},
	})
	assert.Equal(t, http.StatusConflict, env.StatusCode)

	env = c.json(http.MethodPost, "/orders/checkout/1", map[string]any{"payment_method_id": 1})
	require.Equal(t, http.StatusOK, env.StatusCode)
	assert.Equal(t, "completed", decodeData[struct {
		Status string `json:"status"`
	}](t, env).Status)

	assert.Equal(t, http.StatusConflict, c.json(http.MethodPost, "/orders/checkout/1", nil).StatusCode)
	assert.Equal(t, http.StatusConflict, c.json(http.MethodDelete, "/orders/1", nil).StatusCode)

	for target, message := range map[string]string{
		"/categories/1": "category is still in use",
		"/products/1":   "product is still in use",
		"/tables/1":     "table is still in use",
	} {
		env = c.json(http.MethodDelete, target, nil)
		assert.Equal(t, http.StatusConflict, env.StatusCode, target)
		assert.Equal(t, message, env.Message, target)
	}

	env = c.json(http.MethodGet, "/histories", nil)
	require.Equal(t, http.StatusOK, env.StatusCode)
	assert.Len(t, decodeData[[]json.RawMessage](t, env), 1)

	env = c.json(http.MethodGet, "/tables/1", nil)
	require.Equal(t, http.StatusOK, env.StatusCode)
	assert.Equal(t, "available", decodeData[struct {
		Status string `json:"status"`
	}](t, env).Status)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	c := &client{t: t, e: newRouter(t)}

	for _, target := range []string{"/orders", "/histories", "/reports", "/monthly-reports", "/profile"} {
		env := c.json(http.MethodGet, target, nil)
		assert.Equal(t, http.StatusUnauthorized, env.StatusCode, target)
		assert.Equal(t, "null", string(env.Data), target)
	}
}

func TestValidationErrorsCarryFields(t *testing.T) {
	c := login(t, newRouter(t))

	env := c.json(http.MethodGet, "/reports?type=yearly", nil)
	assert.Equal(t, http.StatusBadRequest, env.StatusCode)
	assert.Contains(t, env.Errors, "type")

	env = c.json(http.MethodGet, "/reports", nil)
	require.Equal(t, http.StatusOK, env.StatusCode)
	assert.Equal(t, "daily", decodeData[struct {
		Type string `json:"type"`
	}](t, env).Type)

	env = c.json(http.MethodPost, "/categories", map[string]string{"name": "  "})
	assert.Equal(t, http.StatusBadRequest, env.StatusCode)
	assert.Contains(t, env.Errors, "name")

	env = c.json(http.MethodGet, "/products/abc", nil)
	assert.Equal(t, http.StatusBadRequest, env.StatusCode)
	assert.Contains(t, env.Errors, "id")
}
