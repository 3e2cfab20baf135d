package database

import (
	"database/sql"
	"log"
	"net/url"
	"strings"

	"github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/randiv7/sohrel-sri-lanka-shop-sub001/internal/models"
	"github.com/randiv7/sohrel-sri-lanka-shop-sub001/internal/utils"
)

var db *gorm.DB

// Connect initializes the database connection and runs migrations.
func Connect(dsn string) *gorm.DB {
	if db != nil {
		return db
	}

	if err := ensureDatabase(dsn); err != nil {
		log.Fatalf("failed to ensure database: %v", err)
	}

	conn, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := conn.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`).Error; err != nil {
		log.Printf("warning: failed to ensure uuid-ossp extension: %v", err)
	}

	if err := Migrate(conn); err != nil {
		log.Fatalf("database migration failed: %v", err)
	}

	db = conn
	return db
}

// DB exposes the initialized gorm.DB instance.
func DB() *gorm.DB {
	return db
}

// Migrate applies the schema for every table the core owns.
func Migrate(conn *gorm.DB) error {
	migrations := []interface{}{
		&models.AdminUser{},
		&models.ProductVariant{},
		&models.Order{},
		&models.OrderItem{},
		&models.OrderStatusHistory{},
		&models.InventoryMovement{},
		&models.GuestSession{},
	}

	for _, migration := range migrations {
		if err := conn.AutoMigrate(migration); err != nil {
			return err
		}
	}

	return nil
}

// SeedAdmin creates the bootstrap admin account when credentials are
// configured and the account does not exist yet.
func SeedAdmin(conn *gorm.DB, email, password string) {
	if email == "" || password == "" {
		log.Println("[Database] Admin credentials not configured, skipping seed")
		return
	}

	var count int64
	if err := conn.Model(&models.AdminUser{}).Where("email = ?", email).Count(&count).Error; err != nil {
		log.Printf("[Database] Admin seed lookup failed: %v", err)
		return
	}
	if count > 0 {
		return
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		log.Printf("[Database] Failed to hash admin password: %v", err)
		return
	}

	admin := models.AdminUser{Email: email, PasswordHash: hash, Name: "Store Admin"}
	if err := conn.Create(&admin).Error; err != nil {
		log.Printf("[Database] Admin seed failed: %v", err)
	}
}

func ensureDatabase(dsn string) error {
	if !strings.HasPrefix(dsn, "postgres://") && !strings.HasPrefix(dsn, "postgresql://") {
		return nil
	}

	parsed, err := url.Parse(dsn)
	if err != nil {
		return err
	}

	dbName := strings.TrimPrefix(parsed.Path, "/")
	if dbName == "" {
		return nil
	}

	parsed.Path = "/postgres"
	masterDSN := parsed.String()

	sqlDB, err := sql.Open("postgres", masterDSN)
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	if err := sqlDB.Ping(); err != nil {
		return err
	}

	var exists bool
	if err := sqlDB.QueryRow("SELECT EXISTS (SELECT 1 FROM pg_database WHERE datname = $1)", dbName).Scan(&exists); err != nil {
		return err
	}

	if exists {
		return nil
	}

	_, err = sqlDB.Exec("CREATE DATABASE " + pq.QuoteIdentifier(dbName))
	return err
}
