package domain

import "time"

// User is an authenticated account. Firstname doubles as the public display
// name and is unique; email is the login identity. The bootstrap admin is
// the one account with Deletable=false.
type User struct {
	ID           int64
	Firstname    string
	Email        string
	PasswordHash string
	RoleID       int64
	Role         *Role
	Editable     bool
	Deletable    bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// EffectiveAuthorities returns the role's authority tokens plus the role
// name itself, so simple endpoints can gate on the role name directly.
func (u *User) EffectiveAuthorities() []string {
	if u.Role == nil {
		return nil
	}
	tokens := make([]string, 0, len(u.Role.Authorities)+1)
	tokens = append(tokens, u.Role.Authorities...)
	tokens = append(tokens, u.Role.Name)
	return tokens
}

// HasAuthority reports membership of token in the effective authority set.
// Evaluated fresh from the loaded role; role changes apply on next load.
func (u *User) HasAuthority(token string) bool {
	for _, candidate := range u.EffectiveAuthorities() {
		if candidate == token {
			return true
		}
	}
	return false
}

// Ref returns a borrowed reference suitable for embedding in other
// aggregates without creating entity cycles.
func (u *User) Ref() *UserRef {
	if u == nil {
		return nil
	}
	return &UserRef{ID: u.ID, Firstname: u.Firstname, Email: u.Email}
}

// UserRef is a light reference to a user resolved by the store.
type UserRef struct {
	ID        int64
	Firstname string
	Email     string
}
