package routes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/randiv7/sohrel-sri-lanka-shop-sub001/internal/config"
	"github.com/randiv7/sohrel-sri-lanka-shop-sub001/internal/database"
	"github.com/randiv7/sohrel-sri-lanka-shop-sub001/internal/handlers"
	"github.com/randiv7/sohrel-sri-lanka-shop-sub001/internal/models"
	"github.com/randiv7/sohrel-sri-lanka-shop-sub001/internal/queue"
	"github.com/randiv7/sohrel-sri-lanka-shop-sub001/internal/services"
)

const testAdminPassword = "correct-horse-battery"

type testApp struct {
	app *fiber.App
	db  *gorm.DB
}

func newTestApp(t *testing.T, checkoutLimit int) *testApp {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.Migrate(db))

	cfg := &config.Config{
		JWTSecret:          "test-secret",
		TokenExpires:       time.Hour,
		AdminEmail:         "admin@sohrel.lk",
		AdminPassword:      testAdminPassword,
		GuestSessionTTL:    time.Hour,
		CheckoutRateLimit:  checkoutLimit,
		CheckoutRateWindow: time.Minute,
		SessionRateLimit:   100,
		SessionRateWindow:  time.Minute,
	}
	database.SeedAdmin(db, cfg.AdminEmail, cfg.AdminPassword)

	router := services.NewTaskRouter(
		services.NewInventoryService(db, nil),
		services.NewAnalyticsService(""),
	)

	app := fiber.New(fiber.Config{ErrorHandler: handlers.ErrorHandler})
	app.Use(cors.New())

	Register(app, Deps{
		DB:         db,
		Cfg:        cfg,
		Dispatcher: queue.Sync{Handler: router.Handle},
		Limiter:    services.NewRateLimiter(),
	})

	return &testApp{app: app, db: db}
}

func (ta *testApp) request(t *testing.T, method, path string, body any, headers map[string]string) (*http.Response, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := ta.app.Test(req, -1)
	require.NoError(t, err)

	var decoded map[string]any
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &decoded))
	}
	return resp, decoded
}

func checkoutBody(orderNumber string, variantID string) map[string]any {
	return map[string]any{
		"order_number":   orderNumber,
		"guest_email":    "guest@example.lk",
		"payment_method": "cod",
		"shipping_cost":  350,
		"shipping_address": map[string]any{
			"recipient_name": "N. Perera",
			"address_line1":  "12 Galle Rd",
			"city":           "Colombo",
			"district":       "Colombo",
		},
		"items": []map[string]any{{
			"variant_id":   variantID,
			"product_name": "Batik Shirt",
			"product_size": "M",
			"quantity":     2,
			"sale_price":   2400,
		}},
	}
}

func (ta *testApp) seedVariant(t *testing.T, stock int) *models.ProductVariant {
	t.Helper()
	variant := models.ProductVariant{SKU: "SKU-1", Name: "Batik Shirt", TrackStock: true, StockQuantity: stock}
	require.NoError(t, ta.db.Create(&variant).Error)
	return &variant
}

func (ta *testApp) login(t *testing.T) string {
	t.Helper()
	resp, body := ta.request(t, http.MethodPost, "/api/admin/login", map[string]any{
		"email":    "admin@sohrel.lk",
		"password": testAdminPassword,
	}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)
	return token
}

func TestCheckoutEndToEnd(t *testing.T) {
	ta := newTestApp(t, 100)
	variant := ta.seedVariant(t, 10)

	resp, body := ta.request(t, http.MethodPost, "/api/checkout", checkoutBody("SL-9001", variant.ID.String()), nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, true, body["success"])

	data := body["data"].(map[string]any)
	assert.Equal(t, "SL-9001", data["order_number"])
	assert.Equal(t, "pending", data["status"])
	assert.Equal(t, 5150.0, data["total_amount"]) // 2 * 2400 + 350

	// The synchronous dispatcher already ran the deduct task.
	var fresh models.ProductVariant
	require.NoError(t, ta.db.First(&fresh, "id = ?", variant.ID).Error)
	assert.Equal(t, 8, fresh.StockQuantity)

	// Guest tracking read path.
	resp, body = ta.request(t, http.MethodGet, "/api/orders/SL-9001?email=guest@example.lk", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["success"])

	resp, _ = ta.request(t, http.MethodGet, "/api/orders/SL-9001?email=wrong@example.lk", nil, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// Without the guest email the number alone must not expose the order.
	resp, body = ta.request(t, http.MethodGet, "/api/orders/SL-9001", nil, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, false, body["success"])
}

func TestCheckoutDuplicateOrderNumber(t *testing.T) {
	ta := newTestApp(t, 100)
	variant := ta.seedVariant(t, 10)

	resp, _ := ta.request(t, http.MethodPost, "/api/checkout", checkoutBody("SL-9002", variant.ID.String()), nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body := ta.request(t, http.MethodPost, "/api/checkout", checkoutBody("SL-9002", variant.ID.String()), nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, false, body["success"])

	var count int64
	require.NoError(t, ta.db.Model(&models.Order{}).Where("order_number = ?", "SL-9002").Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestCheckoutMalformedBody(t *testing.T) {
	ta := newTestApp(t, 100)

	req := httptest.NewRequest(http.MethodPost, "/api/checkout", bytes.NewReader([]byte("{not-json")))
	req.Header.Set("Content-Type", "application/json")
	resp, err := ta.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCheckoutRejectsMalformedIDs(t *testing.T) {
	ta := newTestApp(t, 100)

	resp, body := ta.request(t, http.MethodPost, "/api/checkout", checkoutBody("SL-9050", "not-a-uuid"), nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, false, body["success"])

	bad := checkoutBody("SL-9051", "")
	bad["items"].([]map[string]any)[0]["product_id"] = "also-not-a-uuid"
	resp, body = ta.request(t, http.MethodPost, "/api/checkout", bad, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, false, body["success"])

	var count int64
	require.NoError(t, ta.db.Model(&models.Order{}).Count(&count).Error)
	assert.EqualValues(t, 0, count)
}

func TestCheckoutRateLimited(t *testing.T) {
	ta := newTestApp(t, 2)
	variant := ta.seedVariant(t, 100)

	for i := 0; i < 2; i++ {
		resp, _ := ta.request(t, http.MethodPost, "/api/checkout",
			checkoutBody(fmt.Sprintf("SL-91%02d", i), variant.ID.String()), nil)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}

	resp, body := ta.request(t, http.MethodPost, "/api/checkout", checkoutBody("SL-9199", variant.ID.String()), nil)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, false, body["success"])
}

func TestGuestSessionEndpoint(t *testing.T) {
	ta := newTestApp(t, 100)

	resp, body := ta.request(t, http.MethodPost, "/api/guest-session", map[string]any{"action": "create"}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)

	resp, body = ta.request(t, http.MethodPost, "/api/guest-session", map[string]any{"action": "validate", "token": token}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["valid"])

	resp, body = ta.request(t, http.MethodPost, "/api/guest-session", map[string]any{"action": "validate", "token": "short"}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, false, body["valid"])

	resp, _ = ta.request(t, http.MethodPost, "/api/guest-session", map[string]any{"action": "destroy"}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCODQuoteEndpoint(t *testing.T) {
	ta := newTestApp(t, 100)

	resp, body := ta.request(t, http.MethodGet, "/api/cod/quote?value=1000&region=Northern", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data := body["data"].(map[string]any)
	assert.Equal(t, 350.0, data["fee"])
	assert.Equal(t, true, data["eligible"])

	resp, _ = ta.request(t, http.MethodGet, "/api/cod/quote?value=abc", nil, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAdminStatusFlow(t *testing.T) {
	ta := newTestApp(t, 100)
	variant := ta.seedVariant(t, 10)
	token := ta.login(t)
	auth := map[string]string{"Authorization": "Bearer " + token}

	resp, body := ta.request(t, http.MethodPost, "/api/checkout", checkoutBody("SL-9300", variant.ID.String()), nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	orderID := body["data"].(map[string]any)["id"].(string)

	// Unauthenticated callers are rejected.
	resp, _ = ta.request(t, http.MethodPost, "/api/admin/orders/status",
		map[string]any{"order_id": orderID, "new_status": "shipped"}, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, body = ta.request(t, http.MethodPost, "/api/admin/orders/status",
		map[string]any{"order_id": orderID, "new_status": "shipped", "notes": "via courier"}, auth)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data := body["data"].(map[string]any)
	assert.Equal(t, "shipped", data["status"])
	assert.NotNil(t, data["shipped_at"])

	// Cancellation restores the deducted stock.
	resp, _ = ta.request(t, http.MethodPost, "/api/admin/orders/status",
		map[string]any{"order_id": orderID, "new_status": "cancelled", "notes": "customer request"}, auth)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var fresh models.ProductVariant
	require.NoError(t, ta.db.First(&fresh, "id = ?", variant.ID).Error)
	assert.Equal(t, 10, fresh.StockQuantity)

	// Unknown order id.
	resp, _ = ta.request(t, http.MethodPost, "/api/admin/orders/status",
		map[string]any{"order_id": "0b3e6f1a-0000-0000-0000-000000000000", "new_status": "shipped"}, auth)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// Audit trail recorded both transitions.
	resp, body = ta.request(t, http.MethodGet, "/api/admin/orders/"+orderID+"/history", nil, auth)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["data"].([]any), 2)
}

func TestAdminListOrders(t *testing.T) {
	ta := newTestApp(t, 100)
	variant := ta.seedVariant(t, 10)
	token := ta.login(t)
	auth := map[string]string{"Authorization": "Bearer " + token}

	for i := 0; i < 3; i++ {
		resp, _ := ta.request(t, http.MethodPost, "/api/checkout",
			checkoutBody(fmt.Sprintf("SL-94%02d", i), variant.ID.String()), nil)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}

	resp, body := ta.request(t, http.MethodGet, "/api/admin/orders?status=pending&limit=2", nil, auth)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["data"].([]any), 2)

	pagination := body["pagination"].(map[string]any)
	assert.Equal(t, 3.0, pagination["total_items"])
}

func TestCORSPreflight(t *testing.T) {
	ta := newTestApp(t, 100)

	req := httptest.NewRequest(http.MethodOptions, "/api/checkout", nil)
	req.Header.Set("Origin", "https://shop.example.lk")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)

	resp, err := ta.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("Access-Control-Allow-Origin"))
}
