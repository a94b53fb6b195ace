package entity

import "time"

// Tenant is an isolated organization; every other record carries its id
type Tenant struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Slug       string    `json:"slug"`
	InviteCode string    `json:"invite_code,omitempty"`
	Active     bool      `json:"active"`
	CreatedAt  time.Time `json:"created_at"`
}
