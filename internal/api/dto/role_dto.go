package dto

import "time"

// RoleRequest payload for creating or updating a role.
type RoleRequest struct {
	Name        string   `json:"name"`
	Authorities []string `json:"authorities"`
}

// DeleteRoleRequest names the role users are moved to.
type DeleteRoleRequest struct {
	ReplacementID int64 `json:"replacement_id"`
}

// RoleResponse describes a role with its grants.
type RoleResponse struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Authorities []string  `json:"authorities"`
	Editable    bool      `json:"editable"`
	Deletable   bool      `json:"deletable"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// AuthorityResponse is one grantable authority token.
type AuthorityResponse struct {
	ID    int64  `json:"id"`
	Token string `json:"token"`
}
