package models

import "time"

// User represents a user in the system.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CreateUserRequest is the request body for creating a user.
type CreateUserRequest struct {
	Name  string `json:"name" binding:"required,min=2,max=50" example:"Ann"`
	Email string `json:"email" binding:"required,email" example:"ann@example.com"`
}

// UpdateUserRequest is the request body for a partial user update.
// Nil fields are left untouched.
type UpdateUserRequest struct {
	Name  *string `json:"name,omitempty" binding:"omitempty,min=2,max=50" example:"Ann Smith"`
	Email *string `json:"email,omitempty" binding:"omitempty,email" example:"ann.smith@example.com"`
}

// ListUsersQuery holds the pagination query parameters of GET /users.
type ListUsersQuery struct {
	Page  *int `form:"page"`
	Limit *int `form:"limit" binding:"omitempty,min=1,max=100"`
}

// UserIDParam is the :id path parameter; it must be a MongoDB ObjectID.
type UserIDParam struct {
	ID string `uri:"id" binding:"required,mongodb"`
}
