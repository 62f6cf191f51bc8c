package market

// TaskStatus represents the lifecycle state of a task.
type TaskStatus string

const (
	// TaskStatusOpen indicates the task is awaiting acceptance.
	TaskStatusOpen TaskStatus = "open"
	// TaskStatusAccepted indicates a provider holds the task.
	TaskStatusAccepted TaskStatus = "accepted"
	// TaskStatusInProgress indicates work on the task has started.
	TaskStatusInProgress TaskStatus = "in-progress"
	// TaskStatusCompleted indicates the task is finished.
	TaskStatusCompleted TaskStatus = "completed"
	// TaskStatusCancelled indicates the task was cancelled.
	TaskStatusCancelled TaskStatus = "cancelled"
)

// IsValid returns true if the task status is a known value.
func (s TaskStatus) IsValid() bool {
	switch s {
	case TaskStatusOpen, TaskStatusAccepted, TaskStatusInProgress,
		TaskStatusCompleted, TaskStatusCancelled:
		return true
	default:
		return false
	}
}

// Terminal returns true if no further transitions are allowed.
func (s TaskStatus) Terminal() bool {
	return s == TaskStatusCompleted || s == TaskStatusCancelled
}

// CanTransitionTo reports whether the one-way lifecycle
// open -> accepted -> in-progress -> completed permits moving to next.
// Cancelled is reachable from any non-terminal state. There is no
// reopening of a completed or cancelled task.
func (s TaskStatus) CanTransitionTo(next TaskStatus) bool {
	if s.Terminal() {
		return false
	}
	switch next {
	case TaskStatusAccepted:
		return s == TaskStatusOpen
	case TaskStatusInProgress:
		return s == TaskStatusAccepted
	case TaskStatusCompleted:
		return s == TaskStatusAccepted || s == TaskStatusInProgress
	case TaskStatusCancelled:
		return true
	default:
		return false
	}
}

// RequestStatus represents the state of a service request.
type RequestStatus string

const (
	// RequestStatusPending indicates the request awaits a response.
	RequestStatusPending RequestStatus = "pending"
	// RequestStatusAccepted indicates the counter-party accepted.
	RequestStatusAccepted RequestStatus = "accepted"
	// RequestStatusRejected indicates the counter-party declined.
	RequestStatusRejected RequestStatus = "rejected"
	// RequestStatusInProgress indicates agreed work has started.
	RequestStatusInProgress RequestStatus = "in-progress"
	// RequestStatusCompleted indicates agreed work is finished.
	RequestStatusCompleted RequestStatus = "completed"
)

// IsValid returns true if the request status is a known value.
func (s RequestStatus) IsValid() bool {
	switch s {
	case RequestStatusPending, RequestStatusAccepted, RequestStatusRejected,
		RequestStatusInProgress, RequestStatusCompleted:
		return true
	default:
		return false
	}
}

// NotificationType identifies the event a notification reports.
type NotificationType string

const (
	// NotificationNewTask is sent to category providers when a task is posted.
	NotificationNewTask NotificationType = "new_task"
	// NotificationTaskAccepted is sent when a task is claimed: to the client
	// as a confirmation, and to the remaining eligible providers as an
	// unavailability notice.
	NotificationTaskAccepted NotificationType = "task_accepted"
	// NotificationTaskCompleted is sent when a task is completed.
	NotificationTaskCompleted NotificationType = "task_completed"
	// NotificationTaskCancelled is sent when a task is cancelled.
	NotificationTaskCancelled NotificationType = "task_cancelled"
)
