package task

import (
	"fmt"
	"strings"

	"github.com/Deekshith9238/testingfhm/domain/market"
)

// CreateTaskInput carries the fields a client supplies when posting a
// task. ClientID is injected from the authenticated session, never from
// the request body.
type CreateTaskInput struct {
	ClientID    string   `json:"-"`
	CategoryID  string   `json:"category_id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Location    string   `json:"location"`
	Budget      *float64 `json:"budget,omitempty"`
}

// Validate checks the required fields.
func (in *CreateTaskInput) Validate() error {
	if strings.TrimSpace(in.ClientID) == "" {
		return fmt.Errorf("%w: client id is required", market.ErrValidation)
	}
	if strings.TrimSpace(in.CategoryID) == "" {
		return fmt.Errorf("%w: category id is required", market.ErrValidation)
	}
	if strings.TrimSpace(in.Title) == "" {
		return fmt.Errorf("%w: title is required", market.ErrValidation)
	}
	if strings.TrimSpace(in.Description) == "" {
		return fmt.Errorf("%w: description is required", market.ErrValidation)
	}
	if strings.TrimSpace(in.Location) == "" {
		return fmt.Errorf("%w: location is required", market.ErrValidation)
	}
	if in.Budget != nil && *in.Budget < 0 {
		return fmt.Errorf("%w: budget cannot be negative", market.ErrValidation)
	}
	return nil
}

// CreateRequestInput carries the fields for a new service request. The
// provider is resolved from the authenticated actor.
type CreateRequestInput struct {
	ProviderID string   `json:"-"`
	ClientID   string   `json:"client_id"`
	TaskID     *string  `json:"task_id,omitempty"`
	Message    string   `json:"message"`
	Price      *float64 `json:"price,omitempty"`
}

// Validate checks the required fields.
func (in *CreateRequestInput) Validate() error {
	if strings.TrimSpace(in.ProviderID) == "" {
		return fmt.Errorf("%w: provider id is required", market.ErrValidation)
	}
	if strings.TrimSpace(in.ClientID) == "" {
		return fmt.Errorf("%w: client id is required", market.ErrValidation)
	}
	if strings.TrimSpace(in.Message) == "" {
		return fmt.Errorf("%w: message is required", market.ErrValidation)
	}
	return nil
}
