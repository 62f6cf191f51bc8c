package market

import "errors"

var (
	// ErrTaskNotFound indicates the task does not exist.
	ErrTaskNotFound = errors.New("task not found")
	// ErrProviderNotFound indicates the service provider does not exist.
	ErrProviderNotFound = errors.New("service provider not found")
	// ErrUserNotFound indicates the user does not exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrRequestNotFound indicates the service request does not exist.
	ErrRequestNotFound = errors.New("service request not found")
	// ErrNotificationNotFound indicates the notification does not exist
	// or belongs to another recipient.
	ErrNotificationNotFound = errors.New("notification not found")
	// ErrAlreadyAccepted indicates the task was claimed by another
	// provider first. This is an expected outcome of contention, not a
	// server fault.
	ErrAlreadyAccepted = errors.New("task already accepted by another provider")
	// ErrCategoryMismatch indicates the provider's category differs from
	// the task's category.
	ErrCategoryMismatch = errors.New("provider category does not match task category")
	// ErrInvalidTransition indicates the requested status change is not
	// allowed from the task's current state.
	ErrInvalidTransition = errors.New("invalid task status transition")
	// ErrForbidden indicates the actor has no rights over the entity.
	ErrForbidden = errors.New("actor is not permitted to modify this entity")
	// ErrValidation indicates a malformed or incomplete payload.
	ErrValidation = errors.New("validation failed")
)
