// Package events defines the typed events exchanged between the task
// lifecycle module and its consumers over the application event bus.
package events

import (
	"time"

	"github.com/go-monolith/mono/pkg/helper"
)

// TaskCreatedEvent is emitted when a client posts a new task.
type TaskCreatedEvent struct {
	TaskID     string    `json:"task_id"`
	ClientID   string    `json:"client_id"`
	CategoryID string    `json:"category_id"`
	Title      string    `json:"title"`
	Timestamp  time.Time `json:"timestamp"`
}

// TaskAcceptedEvent is emitted when a provider wins the acceptance of
// an open task. ProviderID is the accepting provider's profile id,
// ProviderUserID the user account behind it.
type TaskAcceptedEvent struct {
	TaskID         string    `json:"task_id"`
	ClientID       string    `json:"client_id"`
	CategoryID     string    `json:"category_id"`
	ProviderID     string    `json:"provider_id"`
	ProviderUserID string    `json:"provider_user_id"`
	Title          string    `json:"title"`
	Timestamp      time.Time `json:"timestamp"`
}

// TaskCompletedEvent is emitted when a task reaches the completed state.
// ActorUserID is the user who triggered the transition.
type TaskCompletedEvent struct {
	TaskID         string    `json:"task_id"`
	ClientID       string    `json:"client_id"`
	ProviderID     string    `json:"provider_id"`
	ProviderUserID string    `json:"provider_user_id"`
	ActorUserID    string    `json:"actor_user_id"`
	Title          string    `json:"title"`
	Timestamp      time.Time `json:"timestamp"`
}

// TaskCancelledEvent is emitted when a task is cancelled. The provider
// fields are empty when the task was still open.
type TaskCancelledEvent struct {
	TaskID         string    `json:"task_id"`
	ClientID       string    `json:"client_id"`
	ProviderID     string    `json:"provider_id,omitempty"`
	ProviderUserID string    `json:"provider_user_id,omitempty"`
	ActorUserID    string    `json:"actor_user_id"`
	Title          string    `json:"title"`
	Timestamp      time.Time `json:"timestamp"`
}

// Event definitions for the task domain.
var (
	TaskCreatedV1 = helper.EventDefinition[TaskCreatedEvent](
		"task",
		"TaskCreated",
		"v1",
	)

	TaskAcceptedV1 = helper.EventDefinition[TaskAcceptedEvent](
		"task",
		"TaskAccepted",
		"v1",
	)

	TaskCompletedV1 = helper.EventDefinition[TaskCompletedEvent](
		"task",
		"TaskCompleted",
		"v1",
	)

	TaskCancelledV1 = helper.EventDefinition[TaskCancelledEvent](
		"task",
		"TaskCancelled",
		"v1",
	)
)
