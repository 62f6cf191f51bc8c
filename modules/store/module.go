// Package store provides the persistence module backed by GORM + SQLite.
package store

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/go-monolith/mono"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Deekshith9238/testingfhm/domain/market"
)

// Module owns the database connection and the repositories built on it.
type Module struct {
	db     *gorm.DB
	dbPath string

	tasks         *TaskRepository
	directory     *DirectoryRepository
	notifications *NotificationRepository
	requests      *RequestRepository
}

// Compile-time interface checks.
var _ mono.Module = (*Module)(nil)
var _ mono.HealthCheckableModule = (*Module)(nil)

// NewModule creates a new store module. The database path comes from
// DB_PATH, defaulting to taskmarket.db.
func NewModule() *Module {
	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = "taskmarket.db"
	}
	return &Module{
		dbPath: dbPath,
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "store"
}

// Start opens the database connection and runs migrations.
func (m *Module) Start(_ context.Context) error {
	log.Printf("[store] Connecting to SQLite database: %s", m.dbPath)

	logLevel := logger.Silent
	if os.Getenv("DB_DEBUG") == "true" {
		logLevel = logger.Info
	}

	db, err := gorm.Open(sqlite.Open(m.dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	m.db = db

	if err := m.db.AutoMigrate(
		&market.User{},
		&market.ServiceProvider{},
		&market.Task{},
		&market.ServiceRequest{},
		&market.Notification{},
	); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	m.tasks = NewTaskRepository(m.db)
	m.directory = NewDirectoryRepository(m.db)
	m.notifications = NewNotificationRepository(m.db)
	m.requests = NewRequestRepository(m.db)

	log.Println("[store] Module started successfully")
	return nil
}

// Stop closes the database connection.
func (m *Module) Stop(_ context.Context) error {
	if m.db == nil {
		return nil
	}

	log.Println("[store] Closing database connection...")

	sqlDB, err := m.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}

	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	log.Println("[store] Database connection closed")
	return nil
}

// Health performs a health check on the store module.
func (m *Module) Health(ctx context.Context) mono.HealthStatus {
	if m.db == nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: "database not initialized",
		}
	}

	sqlDB, err := m.db.DB()
	if err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("failed to get sql.DB: %v", err),
		}
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("database ping failed: %v", err),
		}
	}

	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"driver": "sqlite",
			"path":   m.dbPath,
		},
	}
}

// Tasks returns the task repository.
func (m *Module) Tasks() *TaskRepository {
	return m.tasks
}

// Directory returns the user/provider directory repository.
func (m *Module) Directory() *DirectoryRepository {
	return m.directory
}

// Notifications returns the notification repository.
func (m *Module) Notifications() *NotificationRepository {
	return m.notifications
}

// Requests returns the service request repository.
func (m *Module) Requests() *RequestRepository {
	return m.requests
}
