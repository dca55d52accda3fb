// Package models defines the persistent record types for the Friend Indeed
// marketplace: organizations that sponsor needs, and the needs themselves.
package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// NeedCategory classifies what kind of help a need is asking for.
type NeedCategory string

const (
	CategoryTransport     NeedCategory = "transport"
	CategoryMeals         NeedCategory = "meals"
	CategoryCompanionship NeedCategory = "companionship"
	CategoryOther         NeedCategory = "other"
)

// Valid reports whether c is one of the defined categories.
func (c NeedCategory) Valid() bool {
	switch c {
	case CategoryTransport, CategoryMeals, CategoryCompanionship, CategoryOther:
		return true
	}
	return false
}

// NeedStatus is the lifecycle state of a need.
//
// Transitions are monotonic: open → claimed → completed. Cancelled is reachable
// from open or claimed. A need never moves backwards and a completed or
// cancelled need is terminal.
type NeedStatus string

const (
	StatusOpen      NeedStatus = "open"
	StatusClaimed   NeedStatus = "claimed"
	StatusCompleted NeedStatus = "completed"
	StatusCancelled NeedStatus = "cancelled"
)

// Valid reports whether s is one of the defined statuses.
func (s NeedStatus) Valid() bool {
	switch s {
	case StatusOpen, StatusClaimed, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// TimeSlot is a single window during which the requester is available.
type TimeSlot struct {
	Start time.Time `json:"start" db:"-"`
	End   time.Time `json:"end" db:"-"`
}

// TimeSlots is stored as a JSONB column so the slot list stays a single
// document value, mirroring how the records are shaped on the wire.
type TimeSlots []TimeSlot

// Value implements driver.Valuer for writing the slot list as JSONB.
func (ts TimeSlots) Value() (driver.Value, error) {
	return json.Marshal(ts)
}

// Scan implements sql.Scanner for reading the JSONB slot list.
func (ts *TimeSlots) Scan(src interface{}) error {
	if src == nil {
		*ts = nil
		return nil
	}
	b, ok := src.([]byte)
	if !ok {
		return fmt.Errorf("cannot scan %T into TimeSlots", src)
	}
	return json.Unmarshal(b, ts)
}

// Need is a task a requester posts for volunteer help.
//
// VolunteerID and ClaimedAt are set together by a successful claim and are
// never present independently; both are nil while the need is open.
type Need struct {
	ID             string       `json:"id" db:"id"`
	Title          string       `json:"title" db:"title"`
	Description    string       `json:"description" db:"description"`
	Category       NeedCategory `json:"category" db:"category"`
	Location       string       `json:"location" db:"location"`
	TimeSlots      TimeSlots    `json:"timeSlots" db:"time_slots"`
	Status         NeedStatus   `json:"status" db:"status"`
	OrganizationID string       `json:"organizationId" db:"organization_id"`
	RequesterID    string       `json:"requesterId" db:"requester_id"`
	RequesterEmail string       `json:"requesterEmail" db:"requester_email"`
	RequesterName  string       `json:"requesterName,omitempty" db:"requester_name"`
	VolunteerID    *string      `json:"volunteerId,omitempty" db:"volunteer_id"`
	CreatedAt      time.Time    `json:"createdAt" db:"created_at"`
	ClaimedAt      *time.Time   `json:"claimedAt,omitempty" db:"claimed_at"`
}
