package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/Deekshith9238/testingfhm/domain/market"
)

// TaskRepository provides access to task storage.
type TaskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new task repository.
func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// Create saves a new task.
func (r *TaskRepository) Create(ctx context.Context, task *market.Task) error {
	if err := r.db.WithContext(ctx).Create(task).Error; err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}
	return nil
}

// FindByID retrieves a task by its ID.
func (r *TaskRepository) FindByID(ctx context.Context, id string) (*market.Task, error) {
	var task market.Task
	if err := r.db.WithContext(ctx).First(&task, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, market.ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	return &task, nil
}

// List retrieves tasks, optionally filtered by category and status,
// newest first.
func (r *TaskRepository) List(ctx context.Context, categoryID string, status market.TaskStatus) ([]*market.Task, error) {
	q := r.db.WithContext(ctx).Order("created_at DESC")
	if categoryID != "" {
		q = q.Where("category_id = ?", categoryID)
	}
	if status != "" {
		q = q.Where("status = ?", status)
	}

	var tasks []*market.Task
	if err := q.Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

// Accept claims an open task for a provider with a single conditional
// UPDATE. The WHERE guard on accepted_by_id IS NULL makes the
// check-and-set atomic at the store level: when two providers race,
// exactly one statement affects a row and the other sees zero rows
// affected, reported as ErrAlreadyAccepted. There is no separate
// read-then-write pair to leave a race window.
func (r *TaskRepository) Accept(ctx context.Context, taskID, providerID string, acceptedAt time.Time) error {
	result := r.db.WithContext(ctx).Model(&market.Task{}).
		Where("id = ? AND status = ? AND accepted_by_id IS NULL", taskID, market.TaskStatusOpen).
		Updates(map[string]any{
			"status":         market.TaskStatusAccepted,
			"accepted_by_id": providerID,
			"accepted_at":    acceptedAt,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to accept task: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		// Distinguish a lost race from a missing task.
		if _, err := r.FindByID(ctx, taskID); err != nil {
			return err
		}
		return market.ErrAlreadyAccepted
	}
	return nil
}

// UpdateStatus transitions a task to the given status, guarded by the
// set of statuses the transition is valid from. Zero rows affected
// means the task either does not exist or was concurrently moved out of
// an allowed state, reported as ErrInvalidTransition.
func (r *TaskRepository) UpdateStatus(ctx context.Context, taskID string, from []market.TaskStatus, to market.TaskStatus, fields map[string]any) error {
	updates := map[string]any{"status": to}
	for k, v := range fields {
		updates[k] = v
	}

	result := r.db.WithContext(ctx).Model(&market.Task{}).
		Where("id = ? AND status IN ?", taskID, from).
		Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to update task status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		if _, err := r.FindByID(ctx, taskID); err != nil {
			return err
		}
		return market.ErrInvalidTransition
	}
	return nil
}
