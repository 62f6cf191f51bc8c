package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/Deekshith9238/testingfhm/domain/market"
)

// RequestRepository provides access to service request storage.
type RequestRepository struct {
	db *gorm.DB
}

// NewRequestRepository creates a new service request repository.
func NewRequestRepository(db *gorm.DB) *RequestRepository {
	return &RequestRepository{db: db}
}

// Create saves a new service request.
func (r *RequestRepository) Create(ctx context.Context, req *market.ServiceRequest) error {
	if err := r.db.WithContext(ctx).Create(req).Error; err != nil {
		return fmt.Errorf("failed to create service request: %w", err)
	}
	return nil
}

// FindByID retrieves a service request by its ID.
func (r *RequestRepository) FindByID(ctx context.Context, id string) (*market.ServiceRequest, error) {
	var req market.ServiceRequest
	if err := r.db.WithContext(ctx).First(&req, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, market.ErrRequestNotFound
		}
		return nil, fmt.Errorf("failed to find service request: %w", err)
	}
	return &req, nil
}

// ListByUser retrieves requests in which the user participates, either
// as the client or through their provider profile.
func (r *RequestRepository) ListByUser(ctx context.Context, clientID, providerID string) ([]*market.ServiceRequest, error) {
	var requests []*market.ServiceRequest
	if err := r.db.WithContext(ctx).
		Where("client_id = ? OR provider_id = ?", clientID, providerID).
		Order("created_at DESC").
		Find(&requests).Error; err != nil {
		return nil, fmt.Errorf("failed to list service requests: %w", err)
	}
	return requests, nil
}

// UpdateStatus transitions a service request out of the pending state.
// The status guard keeps a request from being answered twice.
func (r *RequestRepository) UpdateStatus(ctx context.Context, id string, from, to market.RequestStatus) error {
	result := r.db.WithContext(ctx).Model(&market.ServiceRequest{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if result.Error != nil {
		return fmt.Errorf("failed to update service request: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		if _, err := r.FindByID(ctx, id); err != nil {
			return err
		}
		return market.ErrInvalidTransition
	}
	return nil
}
