package notify

import (
	"context"
	"fmt"
	"log"
	"log/slog"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"

	"github.com/Deekshith9238/testingfhm/domain/market"
	"github.com/Deekshith9238/testingfhm/events"
	"github.com/Deekshith9238/testingfhm/modules/store"
)

// Module consumes task lifecycle events and turns each into a
// notification fan-out.
type Module struct {
	storeModule *store.Module
	pusher      Pusher
	fanout      *Fanout
	logger      *slog.Logger
}

// Compile-time interface checks.
var _ mono.Module = (*Module)(nil)
var _ mono.EventConsumerModule = (*Module)(nil)
var _ mono.HealthCheckableModule = (*Module)(nil)

// NewModule creates a new notify module backed by the store module.
func NewModule(storeModule *store.Module) *Module {
	return &Module{
		storeModule: storeModule,
		logger:      slog.Default().With("module", "notify"),
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "notify"
}

// SetPusher injects the push hub. Called from main before Start.
func (m *Module) SetPusher(p Pusher) {
	m.pusher = p
}

// Start builds the fan-out service.
func (m *Module) Start(_ context.Context) error {
	if m.storeModule.Notifications() == nil {
		return fmt.Errorf("store module not started")
	}
	if m.pusher == nil {
		return fmt.Errorf("pusher dependency not set")
	}

	m.fanout = NewFanout(m.storeModule.Notifications(), m.storeModule.Directory(), m.pusher)

	log.Println("[notify] Module started")
	return nil
}

// Stop shuts down the module.
func (m *Module) Stop(_ context.Context) error {
	log.Println("[notify] Module stopped")
	return nil
}

// Health returns the health status.
func (m *Module) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: m.fanout != nil,
		Message: "operational",
	}
}

// RegisterEventConsumers registers the task event handlers.
func (m *Module) RegisterEventConsumers(registry mono.EventRegistry) error {
	if err := helper.RegisterTypedEventConsumer(
		registry, events.TaskCreatedV1, m.handleTaskCreated, m,
	); err != nil {
		return fmt.Errorf("failed to register TaskCreated consumer: %w", err)
	}

	if err := helper.RegisterTypedEventConsumer(
		registry, events.TaskAcceptedV1, m.handleTaskAccepted, m,
	); err != nil {
		return fmt.Errorf("failed to register TaskAccepted consumer: %w", err)
	}

	if err := helper.RegisterTypedEventConsumer(
		registry, events.TaskCompletedV1, m.handleTaskCompleted, m,
	); err != nil {
		return fmt.Errorf("failed to register TaskCompleted consumer: %w", err)
	}

	if err := helper.RegisterTypedEventConsumer(
		registry, events.TaskCancelledV1, m.handleTaskCancelled, m,
	); err != nil {
		return fmt.Errorf("failed to register TaskCancelled consumer: %w", err)
	}

	log.Println("[notify] Registered event consumers: TaskCreated, TaskAccepted, TaskCompleted, TaskCancelled")
	return nil
}

// handleTaskCreated notifies every provider in the task's category that
// a new task is available.
func (m *Module) handleTaskCreated(ctx context.Context, event events.TaskCreatedEvent, _ *mono.Msg) error {
	providers, err := m.fanout.EligibleProviders(ctx, event.CategoryID)
	if err != nil {
		m.logger.Error("failed to resolve eligible providers",
			"taskID", event.TaskID, "categoryID", event.CategoryID, "error", err)
		return nil
	}

	recipients := make([]string, 0, len(providers))
	for _, p := range providers {
		recipients = append(recipients, p.UserID)
	}

	m.fanout.Notify(ctx, recipients, market.NotificationNewTask,
		"New task available",
		fmt.Sprintf("A new task %q was posted in your service category.", event.Title),
		PayloadData{TaskID: event.TaskID})
	return nil
}

// handleTaskAccepted notifies the client that their task was claimed,
// and every other provider in the category that the task is gone.
// Providers who registered after the task was posted are included: the
// recipient set is the category's current membership minus the winner.
func (m *Module) handleTaskAccepted(ctx context.Context, event events.TaskAcceptedEvent, _ *mono.Msg) error {
	m.fanout.Notify(ctx, []string{event.ClientID}, market.NotificationTaskAccepted,
		"Your task was accepted",
		fmt.Sprintf("A provider accepted your task %q.", event.Title),
		PayloadData{TaskID: event.TaskID, ProviderID: event.ProviderID})

	providers, err := m.fanout.EligibleProviders(ctx, event.CategoryID)
	if err != nil {
		m.logger.Error("failed to resolve eligible providers",
			"taskID", event.TaskID, "categoryID", event.CategoryID, "error", err)
		return nil
	}

	others := make([]string, 0, len(providers))
	for _, p := range providers {
		if p.ID == event.ProviderID {
			continue
		}
		others = append(others, p.UserID)
	}

	m.fanout.Notify(ctx, others, market.NotificationTaskAccepted,
		"Task no longer available",
		fmt.Sprintf("The task %q was accepted by another provider.", event.Title),
		PayloadData{TaskID: event.TaskID})
	return nil
}

// handleTaskCompleted notifies the counter-party of the actor who
// completed the task.
func (m *Module) handleTaskCompleted(ctx context.Context, event events.TaskCompletedEvent, _ *mono.Msg) error {
	for _, recipient := range counterparties(event.ActorUserID, event.ClientID, event.ProviderUserID) {
		m.fanout.Notify(ctx, []string{recipient}, market.NotificationTaskCompleted,
			"Task completed",
			fmt.Sprintf("The task %q was marked as completed.", event.Title),
			PayloadData{TaskID: event.TaskID, ProviderID: event.ProviderID})
	}
	return nil
}

// handleTaskCancelled notifies the counter-party, if one exists.
func (m *Module) handleTaskCancelled(ctx context.Context, event events.TaskCancelledEvent, _ *mono.Msg) error {
	for _, recipient := range counterparties(event.ActorUserID, event.ClientID, event.ProviderUserID) {
		m.fanout.Notify(ctx, []string{recipient}, market.NotificationTaskCancelled,
			"Task cancelled",
			fmt.Sprintf("The task %q was cancelled.", event.Title),
			PayloadData{TaskID: event.TaskID})
	}
	return nil
}

// Fanout returns the fan-out service.
func (m *Module) Fanout() *Fanout {
	return m.fanout
}

// counterparties returns the participants other than the actor.
func counterparties(actorUserID string, participants ...string) []string {
	var out []string
	for _, p := range participants {
		if p == "" || p == actorUserID {
			continue
		}
		out = append(out, p)
	}
	return out
}
