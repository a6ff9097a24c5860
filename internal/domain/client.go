package domain

import "time"

// Client is a simple reference entity tickets may point at.
type Client struct {
	ID        int64
	Name      string
	Email     string
	Phone     string
	Deletable bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
