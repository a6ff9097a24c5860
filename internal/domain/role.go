package domain

import "time"

// Role groups authority tokens under a unique name. Seeded roles carry
// editable/deletable=false and cannot be changed or removed.
type Role struct {
	ID          int64
	Name        string
	Authorities []string
	Editable    bool
	Deletable   bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
