package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/Deekshith9238/testingfhm/domain/market"
)

// DirectoryRepository provides lookups over users and service
// providers. Registration and profile editing are owned by the
// out-of-scope account subsystem; the create methods here exist for
// that subsystem and for seeding.
type DirectoryRepository struct {
	db *gorm.DB
}

// NewDirectoryRepository creates a new directory repository.
func NewDirectoryRepository(db *gorm.DB) *DirectoryRepository {
	return &DirectoryRepository{db: db}
}

// CreateUser saves a new user.
func (r *DirectoryRepository) CreateUser(ctx context.Context, user *market.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// CreateProvider saves a new service provider profile.
func (r *DirectoryRepository) CreateProvider(ctx context.Context, provider *market.ServiceProvider) error {
	if err := r.db.WithContext(ctx).Create(provider).Error; err != nil {
		return fmt.Errorf("failed to create provider: %w", err)
	}
	return nil
}

// GetUser retrieves a user by ID.
func (r *DirectoryRepository) GetUser(ctx context.Context, id string) (*market.User, error) {
	var user market.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, market.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return &user, nil
}

// GetProvider retrieves a provider profile by ID.
func (r *DirectoryRepository) GetProvider(ctx context.Context, id string) (*market.ServiceProvider, error) {
	var provider market.ServiceProvider
	if err := r.db.WithContext(ctx).First(&provider, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, market.ErrProviderNotFound
		}
		return nil, fmt.Errorf("failed to find provider: %w", err)
	}
	return &provider, nil
}

// GetProviderByUserID retrieves the provider profile bound to a user.
func (r *DirectoryRepository) GetProviderByUserID(ctx context.Context, userID string) (*market.ServiceProvider, error) {
	var provider market.ServiceProvider
	if err := r.db.WithContext(ctx).First(&provider, "user_id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, market.ErrProviderNotFound
		}
		return nil, fmt.Errorf("failed to find provider by user: %w", err)
	}
	return &provider, nil
}

// ProvidersByCategory retrieves all provider profiles in a category.
func (r *DirectoryRepository) ProvidersByCategory(ctx context.Context, categoryID string) ([]*market.ServiceProvider, error) {
	var providers []*market.ServiceProvider
	if err := r.db.WithContext(ctx).
		Where("category_id = ?", categoryID).
		Find(&providers).Error; err != nil {
		return nil, fmt.Errorf("failed to list providers by category: %w", err)
	}
	return providers, nil
}

// IncrementCompletedJobs adds one to a provider's completed-job count.
func (r *DirectoryRepository) IncrementCompletedJobs(ctx context.Context, providerID string) error {
	result := r.db.WithContext(ctx).Model(&market.ServiceProvider{}).
		Where("id = ?", providerID).
		UpdateColumn("completed_jobs", gorm.Expr("completed_jobs + 1"))
	if result.Error != nil {
		return fmt.Errorf("failed to increment completed jobs: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return market.ErrProviderNotFound
	}
	return nil
}
