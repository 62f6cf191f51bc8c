package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Deekshith9238/testingfhm/domain/market"
	"github.com/Deekshith9238/testingfhm/events"
	"github.com/Deekshith9238/testingfhm/modules/store"
)

// Emitter publishes task lifecycle events. The module implements it
// over the application event bus; tests substitute a recorder.
// Emission is best-effort: a failed publish never fails the state
// change that triggered it.
type Emitter interface {
	TaskCreated(events.TaskCreatedEvent)
	TaskAccepted(events.TaskAcceptedEvent)
	TaskCompleted(events.TaskCompletedEvent)
	TaskCancelled(events.TaskCancelledEvent)
}

// Service is the task lifecycle controller. It owns the state machine
// open -> accepted -> in-progress -> completed (cancelled from any
// non-terminal state) and the exclusivity invariant on acceptance.
type Service struct {
	tasks     *store.TaskRepository
	directory *store.DirectoryRepository
	requests  *store.RequestRepository
	emitter   Emitter
	logger    *slog.Logger
}

// NewService creates a new task lifecycle service.
func NewService(tasks *store.TaskRepository, directory *store.DirectoryRepository, requests *store.RequestRepository, emitter Emitter) *Service {
	return &Service{
		tasks:     tasks,
		directory: directory,
		requests:  requests,
		emitter:   emitter,
		logger:    slog.Default().With("module", "task"),
	}
}

// Create validates and persists a new open task, then emits a
// TaskCreated event for the notification fan-out.
func (s *Service) Create(ctx context.Context, in CreateTaskInput) (*market.Task, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	now := time.Now()
	t := &market.Task{
		ID:          uuid.New().String(),
		ClientID:    in.ClientID,
		CategoryID:  in.CategoryID,
		Title:       in.Title,
		Description: in.Description,
		Location:    in.Location,
		Budget:      in.Budget,
		Status:      market.TaskStatusOpen,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.tasks.Create(ctx, t); err != nil {
		return nil, err
	}

	s.emitter.TaskCreated(events.TaskCreatedEvent{
		TaskID:     t.ID,
		ClientID:   t.ClientID,
		CategoryID: t.CategoryID,
		Title:      t.Title,
		Timestamp:  now,
	})

	s.logger.Info("task created", "taskID", t.ID, "categoryID", t.CategoryID)
	return t, nil
}

// Get retrieves a task by ID.
func (s *Service) Get(ctx context.Context, taskID string) (*market.Task, error) {
	return s.tasks.FindByID(ctx, taskID)
}

// List retrieves tasks filtered by category and status.
func (s *Service) List(ctx context.Context, categoryID string, status market.TaskStatus) ([]*market.Task, error) {
	if status != "" && !status.IsValid() {
		return nil, fmt.Errorf("%w: unknown status %q", market.ErrValidation, status)
	}
	return s.tasks.List(ctx, categoryID, status)
}

// Accept claims an open task for a provider. The category gate is
// checked against a pre-read, but the authority on exclusivity is the
// store's conditional update: concurrent acceptors serialize there, and
// the loser gets ErrAlreadyAccepted. On success a TaskAccepted event is
// emitted so the client and the remaining eligible providers can be
// informed.
func (s *Service) Accept(ctx context.Context, taskID, providerID string) (*market.Task, error) {
	provider, err := s.directory.GetProvider(ctx, providerID)
	if err != nil {
		return nil, err
	}

	t, err := s.tasks.FindByID(ctx, taskID)
	if err != nil {
		return nil, err
	}

	if provider.CategoryID != t.CategoryID {
		return nil, market.ErrCategoryMismatch
	}
	if t.AcceptedByID != nil || t.Status != market.TaskStatusOpen {
		return nil, market.ErrAlreadyAccepted
	}

	acceptedAt := time.Now()
	if err := s.tasks.Accept(ctx, taskID, providerID, acceptedAt); err != nil {
		if errors.Is(err, market.ErrAlreadyAccepted) {
			// Expected under contention; the caller refreshes its task list.
			s.logger.Debug("lost acceptance race", "taskID", taskID, "providerID", providerID)
		}
		return nil, err
	}

	t, err = s.tasks.FindByID(ctx, taskID)
	if err != nil {
		return nil, err
	}

	s.emitter.TaskAccepted(events.TaskAcceptedEvent{
		TaskID:         t.ID,
		ClientID:       t.ClientID,
		CategoryID:     t.CategoryID,
		ProviderID:     provider.ID,
		ProviderUserID: provider.UserID,
		Title:          t.Title,
		Timestamp:      acceptedAt,
	})

	s.logger.Info("task accepted", "taskID", t.ID, "providerID", provider.ID)
	return t, nil
}

// MarkInProgress moves an accepted task into the in-progress state.
// Only the task's client or the accepted provider may do so.
func (s *Service) MarkInProgress(ctx context.Context, taskID, actorUserID string) (*market.Task, error) {
	t, err := s.tasks.FindByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, t, actorUserID); err != nil {
		return nil, err
	}
	if !t.Status.CanTransitionTo(market.TaskStatusInProgress) {
		return nil, market.ErrInvalidTransition
	}

	err = s.tasks.UpdateStatus(ctx, taskID,
		[]market.TaskStatus{market.TaskStatusAccepted},
		market.TaskStatusInProgress, nil)
	if err != nil {
		return nil, err
	}

	return s.tasks.FindByID(ctx, taskID)
}

// Complete moves an accepted or in-progress task to completed, stamps
// the completion time, increments the provider's completed-job count,
// and emits a TaskCompleted event. Only the task's client or the
// accepted provider may complete.
func (s *Service) Complete(ctx context.Context, taskID, actorUserID string) (*market.Task, error) {
	t, err := s.tasks.FindByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, t, actorUserID); err != nil {
		return nil, err
	}
	if !t.Status.CanTransitionTo(market.TaskStatusCompleted) {
		return nil, market.ErrInvalidTransition
	}

	completedAt := time.Now()
	err = s.tasks.UpdateStatus(ctx, taskID,
		[]market.TaskStatus{market.TaskStatusAccepted, market.TaskStatusInProgress},
		market.TaskStatusCompleted,
		map[string]any{"completed_at": completedAt})
	if err != nil {
		return nil, err
	}

	providerUserID := ""
	if t.AcceptedByID != nil {
		if err := s.directory.IncrementCompletedJobs(ctx, *t.AcceptedByID); err != nil {
			s.logger.Error("failed to increment completed jobs",
				"taskID", taskID, "providerID", *t.AcceptedByID, "error", err)
		}
		if provider, err := s.directory.GetProvider(ctx, *t.AcceptedByID); err == nil {
			providerUserID = provider.UserID
		}
	}

	t, err = s.tasks.FindByID(ctx, taskID)
	if err != nil {
		return nil, err
	}

	acceptedBy := ""
	if t.AcceptedByID != nil {
		acceptedBy = *t.AcceptedByID
	}
	s.emitter.TaskCompleted(events.TaskCompletedEvent{
		TaskID:         t.ID,
		ClientID:       t.ClientID,
		ProviderID:     acceptedBy,
		ProviderUserID: providerUserID,
		ActorUserID:    actorUserID,
		Title:          t.Title,
		Timestamp:      completedAt,
	})

	s.logger.Info("task completed", "taskID", t.ID)
	return t, nil
}

// Cancel moves any non-terminal task to cancelled and emits a
// TaskCancelled event so the counter-party, if one exists, can be
// informed. Only the task's client or the accepted provider may cancel.
func (s *Service) Cancel(ctx context.Context, taskID, actorUserID string) (*market.Task, error) {
	t, err := s.tasks.FindByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, t, actorUserID); err != nil {
		return nil, err
	}
	if t.Status.Terminal() {
		return nil, market.ErrInvalidTransition
	}

	err = s.tasks.UpdateStatus(ctx, taskID,
		[]market.TaskStatus{market.TaskStatusOpen, market.TaskStatusAccepted, market.TaskStatusInProgress},
		market.TaskStatusCancelled, nil)
	if err != nil {
		return nil, err
	}

	providerID := ""
	providerUserID := ""
	if t.AcceptedByID != nil {
		providerID = *t.AcceptedByID
		if provider, err := s.directory.GetProvider(ctx, providerID); err == nil {
			providerUserID = provider.UserID
		}
	}

	t, err = s.tasks.FindByID(ctx, taskID)
	if err != nil {
		return nil, err
	}

	s.emitter.TaskCancelled(events.TaskCancelledEvent{
		TaskID:         t.ID,
		ClientID:       t.ClientID,
		ProviderID:     providerID,
		ProviderUserID: providerUserID,
		ActorUserID:    actorUserID,
		Title:          t.Title,
		Timestamp:      time.Now(),
	})

	s.logger.Info("task cancelled", "taskID", t.ID)
	return t, nil
}

// CreateRequest persists a new pending service request.
func (s *Service) CreateRequest(ctx context.Context, in CreateRequestInput) (*market.ServiceRequest, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.directory.GetUser(ctx, in.ClientID); err != nil {
		return nil, err
	}
	if in.TaskID != nil {
		if _, err := s.tasks.FindByID(ctx, *in.TaskID); err != nil {
			return nil, err
		}
	}

	now := time.Now()
	req := &market.ServiceRequest{
		ID:         uuid.New().String(),
		ProviderID: in.ProviderID,
		ClientID:   in.ClientID,
		TaskID:     in.TaskID,
		Message:    in.Message,
		Price:      in.Price,
		Status:     market.RequestStatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.requests.Create(ctx, req); err != nil {
		return nil, err
	}
	return req, nil
}

// RespondRequest lets the client a request was addressed to accept or
// reject it while it is still pending.
func (s *Service) RespondRequest(ctx context.Context, requestID, actorUserID string, accept bool) (*market.ServiceRequest, error) {
	req, err := s.requests.FindByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.ClientID != actorUserID {
		return nil, market.ErrForbidden
	}

	to := market.RequestStatusRejected
	if accept {
		to = market.RequestStatusAccepted
	}
	if err := s.requests.UpdateStatus(ctx, requestID, market.RequestStatusPending, to); err != nil {
		return nil, err
	}
	return s.requests.FindByID(ctx, requestID)
}

// authorize checks the actor is the task's client or the user behind
// the accepted provider profile.
func (s *Service) authorize(ctx context.Context, t *market.Task, actorUserID string) error {
	if actorUserID == t.ClientID {
		return nil
	}
	if t.AcceptedByID != nil {
		provider, err := s.directory.GetProvider(ctx, *t.AcceptedByID)
		if err == nil && provider.UserID == actorUserID {
			return nil
		}
	}
	return market.ErrForbidden
}
