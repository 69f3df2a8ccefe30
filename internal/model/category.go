package model

import "time"

// Category groups requests by diligence area (financial, legal, tax, etc.).
type Category struct {
	ID            uint          `gorm:"primaryKey" json:"id"`
	Name          string        `gorm:"uniqueIndex" json:"name"`
	Icon          string        `json:"icon,omitempty"`
	Color         string        `json:"color,omitempty"`
	OrderIndex    *int          `json:"order_index,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
	Subcategories []Subcategory `gorm:"foreignKey:CategoryID" json:"subcategories,omitempty"`
}

// Subcategory is nested under exactly one category.
type Subcategory struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	CategoryID uint      `gorm:"not null;uniqueIndex:idx_category_subcategory_name" json:"category_id"`
	Name       string    `gorm:"uniqueIndex:idx_category_subcategory_name" json:"name"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
