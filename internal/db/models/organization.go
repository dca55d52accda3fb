package models

import "time"

// Organization is a sponsoring entity under which needs are grouped.
//
// Slug is URL-safe, globally unique, and immutable after creation; it is the
// only lookup key exposed to organization pages, so renaming an organization
// never breaks published links.
type Organization struct {
	ID           string    `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Slug         string    `json:"slug" db:"slug"`
	Location     string    `json:"location" db:"location"`
	Region       string    `json:"region" db:"region"`
	Description  string    `json:"description,omitempty" db:"description"`
	ContactEmail string    `json:"contactEmail" db:"contact_email"`
	Website      string    `json:"website,omitempty" db:"website"`
	IsActive     bool      `json:"isActive" db:"is_active"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
}
