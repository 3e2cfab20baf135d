package services

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/randiv7/sohrel-sri-lanka-shop-sub001/internal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	migrations := []interface{}{
		&models.AdminUser{},
		&models.ProductVariant{},
		&models.Order{},
		&models.OrderItem{},
		&models.OrderStatusHistory{},
		&models.InventoryMovement{},
		&models.GuestSession{},
	}
	for _, m := range migrations {
		require.NoError(t, db.AutoMigrate(m))
	}

	return db
}

func floatPtr(v float64) *float64 { return &v }

func seedVariant(t *testing.T, db *gorm.DB, stock int) *models.ProductVariant {
	t.Helper()

	variant := models.ProductVariant{
		SKU:           "SKU-" + uuid.NewString()[:8],
		Name:          "Test Variant",
		TrackStock:    true,
		StockQuantity: stock,
	}
	require.NoError(t, db.Create(&variant).Error)
	return &variant
}

func seedOrder(t *testing.T, db *gorm.DB, variant *models.ProductVariant, quantity int) *models.Order {
	t.Helper()

	checkout := NewCheckoutService(db)
	order, err := checkout.CreateOrder(CreateOrderInput{
		OrderNumber:   "SL-" + uuid.NewString()[:12],
		GuestEmail:    "guest@example.lk",
		PaymentMethod: "cod",
		ShippingCost:  350,
		Cart: []CartLine{{
			VariantID:   &variant.ID,
			ProductName: variant.Name,
			Quantity:    quantity,
			SalePrice:   floatPtr(1500),
		}},
	})
	require.NoError(t, err)
	return order
}
