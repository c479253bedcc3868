package models

import "time"

// Location represents a city the platform operates in
type Location struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	State     string    `json:"state" db:"state"`
	IsActive  bool      `json:"is_active" db:"is_active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// ServiceCategory is a top-level taxonomy node (e.g. "Home Services")
type ServiceCategory struct {
	ID          int64      `json:"id" db:"id"`
	Name        string     `json:"name" db:"name"`
	Icon        string     `json:"icon" db:"icon"`
	Description NullString `json:"description" db:"description"`
	IsActive    bool       `json:"is_active" db:"is_active"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
}

// ServiceType belongs to exactly one category
type ServiceType struct {
	ID           int64     `json:"id" db:"id"`
	CategoryID   int64     `json:"category_id" db:"category_id"`
	CategoryName string    `json:"category_name,omitempty" db:"category_name"`
	Name         string    `json:"name" db:"name"`
	IsActive     bool      `json:"is_active" db:"is_active"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// ServiceArea is a geographic zone inside a location
type ServiceArea struct {
	ID         int64     `json:"id" db:"id"`
	LocationID int64     `json:"location_id" db:"location_id"`
	Name       string    `json:"name" db:"name"`
	IsActive   bool      `json:"is_active" db:"is_active"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}
