package entity

import "time"

// Category classifies expenses within one tenant
type Category struct {
	ID          string    `json:"id"`
	TenantID    string    `json:"tenant_id"`
	Name        string    `json:"name"`
	Icon        string    `json:"icon,omitempty"`
	Description string    `json:"description,omitempty"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
}

// DefaultCategories are seeded into a tenant that has none
func DefaultCategories() []Category {
	return []Category{
		{Name: "Travel", Icon: "✈️", Description: "Flights, hotels, and transport"},
		{Name: "Meals", Icon: "🍽️", Description: "Business meals and entertainment"},
		{Name: "Office Supplies", Icon: "📦", Description: "Stationery, equipment, and supplies"},
		{Name: "Software", Icon: "💻", Description: "Software subscriptions and licenses"},
		{Name: "Transport", Icon: "🚕", Description: "Taxi, uber, and local transport"},
		{Name: "Training", Icon: "📚", Description: "Courses, books, and learning materials"},
		{Name: "Equipment", Icon: "🖥️", Description: "Hardware and office equipment"},
		{Name: "Other", Icon: "📋", Description: "Miscellaneous expenses"},
	}
}
