// Package store defines the persistence interfaces for needs and
// organizations, along with the typed query specification used to filter
// need listings.
//
// The service and HTTP layers depend only on these interfaces; the postgres
// subpackage implements them against the real database and the memory
// subpackage implements them in-process for tests and the self-contained demo
// mode. All cross-instance coordination happens inside the store: the claim,
// complete, and cancel operations are conditional writes keyed on the record's
// current status, so two service instances can never both win the same
// transition.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/friendindeed/friendindeed/internal/db/models"
)

// Sentinel errors returned by store implementations. Callers classify
// failures with errors.Is; anything else is treated as a store outage.
var (
	// ErrNotFound is returned when the referenced record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrConflict is returned when a conditional status transition fails
	// because the record is not in the expected current status.
	ErrConflict = errors.New("status conflict")

	// ErrDuplicate is returned when a unique constraint (need ID or
	// organization slug) is violated on create.
	ErrDuplicate = errors.New("duplicate record")
)

// NeedFilter is the typed query specification for listing needs. Zero-valued
// fields are not applied; supplied predicates are ANDed. Each adapter
// translates the filter into its native query form, so no caller ever builds
// query strings from user input.
type NeedFilter struct {
	// OrganizationID matches exactly.
	OrganizationID string
	// Location matches as a case-insensitive substring.
	Location string
	// Category matches exactly.
	Category models.NeedCategory
	// Status matches exactly.
	Status models.NeedStatus
	// Limit bounds the result set; implementations treat <= 0 as "no bound".
	Limit int
	// Offset skips that many records for pagination.
	Offset int
}

// NeedStore is the persistence contract for needs. List returns records
// ordered by creation time, newest first.
type NeedStore interface {
	List(ctx context.Context, filter NeedFilter) ([]models.Need, error)
	Get(ctx context.Context, id string) (*models.Need, error)
	Create(ctx context.Context, need *models.Need) error

	// Claim transitions the need from open to claimed, recording the
	// volunteer and claim time, and returns the updated record. It succeeds
	// only if the current status is exactly open: concurrent claims against
	// the same need yield exactly one success, the rest ErrConflict.
	Claim(ctx context.Context, id, volunteerID string, at time.Time) (*models.Need, error)

	// Complete transitions the need from claimed to completed.
	Complete(ctx context.Context, id string) (*models.Need, error)

	// Cancel transitions the need from open or claimed to cancelled.
	Cancel(ctx context.Context, id string) (*models.Need, error)
}

// OrganizationStore is the persistence contract for organizations.
type OrganizationStore interface {
	// ListActive returns all active organizations ordered by name.
	ListActive(ctx context.Context) ([]models.Organization, error)
	Get(ctx context.Context, id string) (*models.Organization, error)
	GetBySlug(ctx context.Context, slug string) (*models.Organization, error)
	Create(ctx context.Context, org *models.Organization) error
}
