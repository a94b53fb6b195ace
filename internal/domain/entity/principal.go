package entity

// Principal is the authenticated actor of one request. It is resolved by the
// identity provider and passed explicitly to every workflow call; the tenant
// it carries is the only tenant a request may touch.
type Principal struct {
	UserID     string `json:"user_id"`
	TenantID   string `json:"tenant_id"`
	Name       string `json:"name"`
	Department string `json:"department,omitempty"`
	Role       Role   `json:"role"`
	Active     bool   `json:"active"`
}

// HasRole reports whether the principal holds any of roles
func (p *Principal) HasRole(roles ...Role) bool {
	return p != nil && p.Role.In(roles...)
}
