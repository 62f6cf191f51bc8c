package push

import (
	"context"
	"log"

	"github.com/go-monolith/mono"
)

// Module runs the WebSocket hub for the lifetime of the application.
type Module struct {
	hub       *Hub
	cancelHub context.CancelFunc
}

// Compile-time interface checks.
var _ mono.Module = (*Module)(nil)
var _ mono.HealthCheckableModule = (*Module)(nil)

// NewModule creates a new push module.
func NewModule() *Module {
	return &Module{
		hub: NewHub(),
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "push"
}

// Start launches the hub's heartbeat loop.
func (m *Module) Start(_ context.Context) error {
	ctx, cancel := context.WithCancel(context.Background())
	m.cancelHub = cancel
	go m.hub.Run(ctx)
	log.Println("[push] Module started - WebSocket hub running")
	return nil
}

// Stop shuts down the hub and closes all connections.
func (m *Module) Stop(_ context.Context) error {
	connCount := m.hub.ConnectionCount()
	if m.cancelHub != nil {
		m.cancelHub()
		m.hub.Wait()
	}
	log.Printf("[push] Module stopped - %d connections were open", connCount)
	return nil
}

// Health returns the health status.
func (m *Module) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"connected_users": m.hub.UserCount(),
			"connections":     m.hub.ConnectionCount(),
		},
	}
}

// Hub returns the WebSocket hub for the API and notify modules.
func (m *Module) Hub() *Hub {
	return m.hub
}
