// Package users stores staff accounts. Authentication happens upstream; this
// module only keeps the accounts and their bcrypt password hashes.
package users

import "time"

type User struct {
	ID           int64     `json:"id"`
	TenantID     int64     `json:"tenant_id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Role         string    `json:"role"`
	PasswordHash string    `json:"-"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type CreateUserRequest struct {
	Email    string `json:"email" validate:"required,email,max=200"`
	Name     string `json:"name" validate:"required,max=200"`
	Role     string `json:"role" validate:"required,oneof=admin manager accountant collector viewer"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type UpdateUserRequest struct {
	Name   *string `json:"name,omitempty" validate:"omitempty,max=200"`
	Role   *string `json:"role,omitempty" validate:"omitempty,oneof=admin manager accountant collector viewer"`
	Active *bool   `json:"active,omitempty"`
}

type ChangePasswordRequest struct {
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type ListUsersRequest struct {
	Search string
	Page   int
	Limit  int
}
