package auth

import (
	"github.com/google/uuid"

	"github.com/mraihanfauzii/marketplace-backend/pkg/db/models"
	"github.com/mraihanfauzii/marketplace-backend/pkg/enums"
)

// LoginRequest captures the credentials sent to the login endpoint.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest carries the expired access token's refresh credential.
type RefreshRequest struct {
	AccessToken  string `json:"access_token" validate:"required"`
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// UpdateProfileRequest carries the fields an account holder may change.
// Absent fields are left untouched.
type UpdateProfileRequest struct {
	Name     *string `json:"name,omitempty"`
	Email    *string `json:"email,omitempty" validate:"omitempty,email"`
	Password *string `json:"password,omitempty" validate:"omitempty,min=8"`
}

// StoreSummary describes the store attached to a seller account.
type StoreSummary struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
}

// UserSummary is the public shape of an account.
type UserSummary struct {
	ID    uuid.UUID     `json:"id"`
	Name  string        `json:"name"`
	Email string        `json:"email"`
	Role  enums.Role    `json:"role"`
	Store *StoreSummary `json:"store,omitempty"`
}

// AuthResponse contains the token pair and user produced by a
// successful login or refresh.
type AuthResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	User         *UserSummary `json:"user"`
}

// UserSummaryFromModel converts a persisted user into its public shape.
func UserSummaryFromModel(user *models.User) *UserSummary {
	if user == nil {
		return nil
	}
	summary := &UserSummary{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
		Role:  user.Role,
	}
	if user.Store != nil {
		summary.Store = &StoreSummary{
			ID:          user.Store.ID,
			Name:        user.Store.Name,
			Description: user.Store.Description,
		}
	}
	return summary
}
