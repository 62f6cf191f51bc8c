// Package api exposes the HTTP and WebSocket surface of the
// marketplace over Fiber.
package api

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/go-monolith/mono"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/Deekshith9238/testingfhm/modules/push"
	"github.com/Deekshith9238/testingfhm/modules/session"
	"github.com/Deekshith9238/testingfhm/modules/store"
	"github.com/Deekshith9238/testingfhm/modules/task"
)

// Module is the HTTP API module with WebSocket support.
type Module struct {
	app  *fiber.App
	port string

	storeModule   *store.Module
	taskModule    *task.Module
	sessionModule *session.Module
	pushModule    *push.Module

	sessions SessionValidator
	hub      *push.Hub
}

// Compile-time interface checks.
var _ mono.Module = (*Module)(nil)
var _ mono.HealthCheckableModule = (*Module)(nil)

// NewModule creates a new API module. The dependency modules must be
// registered before this one so their services exist by the time Start
// runs.
func NewModule(storeModule *store.Module, taskModule *task.Module, sessionModule *session.Module, pushModule *push.Module) *Module {
	port := os.Getenv("PORT")
	if port == "" {
		port = "3000"
	}
	return &Module{
		port:          port,
		storeModule:   storeModule,
		taskModule:    taskModule,
		sessionModule: sessionModule,
		pushModule:    pushModule,
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "api"
}

// Start initializes the Fiber HTTP server.
func (m *Module) Start(_ context.Context) error {
	if m.taskModule.Service() == nil {
		return fmt.Errorf("task service dependency not started")
	}
	if m.sessionModule.Store() == nil {
		return fmt.Errorf("session store dependency not started")
	}
	m.sessions = m.sessionModule.Store()
	m.hub = m.pushModule.Hub()

	m.app = fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          customErrorHandler,
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          60 * time.Second,
		IdleTimeout:           120 * time.Second,
	})

	m.app.Use(recover.New())
	m.app.Use(loggerMiddleware())

	m.setupRoutes()

	go func() {
		if err := m.app.Listen(":" + m.port); err != nil {
			log.Printf("[api] HTTP server error: %v", err)
		}
	}()

	log.Printf("[api] HTTP server started on :%s", m.port)
	return nil
}

// Stop shuts down the Fiber HTTP server.
func (m *Module) Stop(_ context.Context) error {
	if m.app == nil {
		return nil
	}
	log.Println("[api] Shutting down HTTP server...")
	return m.app.Shutdown()
}

// Health returns the health status.
func (m *Module) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: m.app != nil,
		Message: "operational",
		Details: map[string]any{
			"port":            m.port,
			"connected_users": m.hub.UserCount(),
		},
	}
}

// customErrorHandler handles Fiber errors.
func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	return c.Status(code).JSON(ErrorResponse{
		Error:   "server_error",
		Message: message,
	})
}
