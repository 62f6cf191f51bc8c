// Package task implements the task lifecycle controller: creation,
// exclusive acceptance, progression, and cancellation.
package task

import (
	"context"
	"fmt"
	"log"
	"log/slog"

	"github.com/go-monolith/mono"

	"github.com/Deekshith9238/testingfhm/events"
	"github.com/Deekshith9238/testingfhm/modules/store"
)

// Module wires the lifecycle service to the store repositories and the
// event bus.
type Module struct {
	storeModule *store.Module
	service     *Service
	eventBus    mono.EventBus
}

// Compile-time interface checks.
var _ mono.Module = (*Module)(nil)
var _ mono.EventBusAwareModule = (*Module)(nil)
var _ mono.EventEmitterModule = (*Module)(nil)
var _ mono.HealthCheckableModule = (*Module)(nil)

// NewModule creates a new task module backed by the store module. The
// store must be registered (and therefore started) before this module.
func NewModule(storeModule *store.Module) *Module {
	return &Module{
		storeModule: storeModule,
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "task"
}

// SetEventBus receives the EventBus from the framework.
func (m *Module) SetEventBus(bus mono.EventBus) {
	m.eventBus = bus
}

// EmitEvents declares the events this module can emit.
func (m *Module) EmitEvents() []mono.BaseEventDefinition {
	return []mono.BaseEventDefinition{
		events.TaskCreatedV1.ToBase(),
		events.TaskAcceptedV1.ToBase(),
		events.TaskCompletedV1.ToBase(),
		events.TaskCancelledV1.ToBase(),
	}
}

// Start builds the lifecycle service over the store's repositories.
func (m *Module) Start(_ context.Context) error {
	if m.storeModule.Tasks() == nil {
		return fmt.Errorf("store module not started")
	}
	if m.eventBus == nil {
		return fmt.Errorf("event bus not set")
	}

	m.service = NewService(
		m.storeModule.Tasks(),
		m.storeModule.Directory(),
		m.storeModule.Requests(),
		&busEmitter{bus: m.eventBus},
	)

	log.Println("[task] Module started")
	return nil
}

// Stop shuts down the module.
func (m *Module) Stop(_ context.Context) error {
	log.Println("[task] Module stopped")
	return nil
}

// Health returns the health status.
func (m *Module) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: m.service != nil,
		Message: "operational",
	}
}

// Service returns the lifecycle service for the API module.
func (m *Module) Service() *Service {
	return m.service
}

// busEmitter publishes lifecycle events on the application event bus.
// Publish failures are logged and swallowed: the task state change is
// the operation of record, the event is a delivery hint.
type busEmitter struct {
	bus mono.EventBus
}

var _ Emitter = (*busEmitter)(nil)

func (e *busEmitter) TaskCreated(ev events.TaskCreatedEvent) {
	if err := events.TaskCreatedV1.Publish(e.bus, ev, nil); err != nil {
		slog.Warn("failed to publish TaskCreated event", "taskID", ev.TaskID, "error", err)
	}
}

func (e *busEmitter) TaskAccepted(ev events.TaskAcceptedEvent) {
	if err := events.TaskAcceptedV1.Publish(e.bus, ev, nil); err != nil {
		slog.Warn("failed to publish TaskAccepted event", "taskID", ev.TaskID, "error", err)
	}
}

func (e *busEmitter) TaskCompleted(ev events.TaskCompletedEvent) {
	if err := events.TaskCompletedV1.Publish(e.bus, ev, nil); err != nil {
		slog.Warn("failed to publish TaskCompleted event", "taskID", ev.TaskID, "error", err)
	}
}

func (e *busEmitter) TaskCancelled(ev events.TaskCancelledEvent) {
	if err := events.TaskCancelledV1.Publish(e.bus, ev, nil); err != nil {
		slog.Warn("failed to publish TaskCancelled event", "taskID", ev.TaskID, "error", err)
	}
}
