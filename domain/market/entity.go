// Package market provides the domain entities for the service marketplace:
// users, service providers, tasks, service requests, and notifications.
package market

import (
	"time"
)

// User represents a registered account. Authentication and profile
// management live outside this core; the entity exists so tasks and
// notifications have an owner to reference.
type User struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Email     string    `gorm:"uniqueIndex;not null;size:255" json:"email"`
	Name      string    `gorm:"size:100" json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the table name for the User entity.
func (User) TableName() string {
	return "users"
}

// ServiceProvider is a user's profile for offering services in one
// category. Rating is maintained by the review subsystem; CompletedJobs
// increments when a task the provider accepted is completed.
type ServiceProvider struct {
	ID            string    `gorm:"primaryKey;size:36" json:"id"`
	UserID        string    `gorm:"uniqueIndex;not null;size:36" json:"user_id"`
	CategoryID    string    `gorm:"index;not null;size:36" json:"category_id"`
	HourlyRate    float64   `json:"hourly_rate"`
	Bio           string    `gorm:"size:1000" json:"bio"`
	Rating        float64   `json:"rating"`
	CompletedJobs int       `gorm:"not null;default:0" json:"completed_jobs"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// TableName returns the table name for the ServiceProvider entity.
func (ServiceProvider) TableName() string {
	return "service_providers"
}

// Task is a client-posted job request awaiting provider acceptance.
//
// AcceptedByID is non-nil exactly when the status is accepted,
// in-progress, or completed, and once set it never changes: acceptance
// is an exclusive, one-shot claim enforced by a conditional update in
// the store.
type Task struct {
	ID           string     `gorm:"primaryKey;size:36" json:"id"`
	ClientID     string     `gorm:"index;not null;size:36" json:"client_id"`
	CategoryID   string     `gorm:"index;not null;size:36" json:"category_id"`
	Title        string     `gorm:"not null;size:200" json:"title"`
	Description  string     `gorm:"size:2000" json:"description"`
	Location     string     `gorm:"size:200" json:"location"`
	Budget       *float64   `json:"budget,omitempty"`
	Status       TaskStatus `gorm:"index;not null;size:20" json:"status"`
	AcceptedByID *string    `gorm:"index;size:36" json:"accepted_by_id,omitempty"`
	AcceptedAt   *time.Time `json:"accepted_at,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// TableName returns the table name for the Task entity.
func (Task) TableName() string {
	return "tasks"
}

// ServiceRequest is a negotiation artifact between a provider and a
// client, optionally tied to a task. It is distinct from task
// acceptance: accepting a ServiceRequest carries no exclusivity claim.
type ServiceRequest struct {
	ID         string        `gorm:"primaryKey;size:36" json:"id"`
	ProviderID string        `gorm:"index;not null;size:36" json:"provider_id"`
	ClientID   string        `gorm:"index;not null;size:36" json:"client_id"`
	TaskID     *string       `gorm:"index;size:36" json:"task_id,omitempty"`
	Message    string        `gorm:"size:2000" json:"message"`
	Price      *float64      `json:"price,omitempty"`
	Status     RequestStatus `gorm:"index;not null;size:20" json:"status"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

// TableName returns the table name for the ServiceRequest entity.
func (ServiceRequest) TableName() string {
	return "service_requests"
}

// Notification is a durable, per-recipient message. Rows are created
// only by the fan-out service and are never shared between recipients;
// each row carries its own read flag. Real-time push is layered on top
// of these rows as a best-effort hint.
type Notification struct {
	ID          string           `gorm:"primaryKey;size:36" json:"id"`
	RecipientID string           `gorm:"index;not null;size:36" json:"recipient_id"`
	Type        NotificationType `gorm:"not null;size:30" json:"type"`
	Title       string           `gorm:"not null;size:200" json:"title"`
	Message     string           `gorm:"size:1000" json:"message"`
	Data        []byte           `gorm:"type:text" json:"data,omitempty"`
	Read        bool             `gorm:"not null;default:false" json:"read"`
	CreatedAt   time.Time        `json:"created_at"`
}

// TableName returns the table name for the Notification entity.
func (Notification) TableName() string {
	return "notifications"
}
