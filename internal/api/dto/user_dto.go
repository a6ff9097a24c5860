package dto

import "time"

// UserResponse describes an account.
type UserResponse struct {
	ID          int64     `json:"id"`
	Firstname   string    `json:"firstname"`
	Email       string    `json:"email"`
	Role        string    `json:"role"`
	Authorities []string  `json:"authorities"`
	Editable    bool      `json:"editable"`
	Deletable   bool      `json:"deletable"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// UpdateUserRequest payload.
type UpdateUserRequest struct {
	Firstname string `json:"firstname"`
	Email     string `json:"email"`
	Role      string `json:"role"`
}

// ResetPasswordRequest payload. Both fields must match.
type ResetPasswordRequest struct {
	UpdatePassword  string `json:"updatePassword"`
	ConfirmPassword string `json:"confirmPassword"`
}
