package entity

import "time"

// User is a member of exactly one tenant
type User struct {
	ID         string    `json:"id"`
	TenantID   string    `json:"tenant_id"`
	Email      string    `json:"email"`
	Name       string    `json:"name"`
	Department string    `json:"department,omitempty"`
	Role       Role      `json:"role"`
	Active     bool      `json:"active"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Principal builds the request actor for this user
func (u *User) Principal() *Principal {
	return &Principal{
		UserID:     u.ID,
		TenantID:   u.TenantID,
		Name:       u.Name,
		Department: u.Department,
		Role:       u.Role,
		Active:     u.Active,
	}
}
