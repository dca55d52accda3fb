// Package needs holds the marketplace service logic: listing and creating
// needs, and driving the conditional status transitions (claim, complete,
// cancel). Handlers stay thin; every business rule lives here so the same
// behavior runs against the postgres and memory stores.
package needs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/friendindeed/friendindeed/internal/db/models"
	"github.com/friendindeed/friendindeed/internal/identity"
	"github.com/friendindeed/friendindeed/internal/store"
	"github.com/friendindeed/friendindeed/internal/telemetry"
)

// Pagination bounds for need listings. Callers asking for more than MaxLimit
// are clamped rather than rejected.
const (
	DefaultLimit = 50
	MaxLimit     = 200
)

// ValidationError describes a rejected request payload or filter. Handlers
// map it to a 400 response with the message as the body.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string { return e.msg }

func validationf(format string, args ...interface{}) error {
	return &ValidationError{msg: fmt.Sprintf(format, args...)}
}

// Service implements the need operations on top of the injected stores.
type Service struct {
	needs  store.NeedStore
	orgs   store.OrganizationStore
	logger *slog.Logger

	// Injectable for tests.
	now   func() time.Time
	newID func() string
}

// NewService creates a need service backed by the given stores.
func NewService(needStore store.NeedStore, orgStore store.OrganizationStore, logger *slog.Logger) *Service {
	return &Service{
		needs:  needStore,
		orgs:   orgStore,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
		newID:  uuid.NewString,
	}
}

// List returns needs matching the filter. When the caller is anonymous and no
// status filter was supplied, the listing is restricted to open needs so
// claimed and completed records are not exposed to the public by default.
// Authenticated callers omitting status see every status, since volunteers
// need to find the needs they have already claimed.
func (s *Service) List(ctx context.Context, filter store.NeedFilter, authenticated bool) ([]models.Need, error) {
	if filter.Category != "" && !filter.Category.Valid() {
		return nil, validationf("invalid category: %s", filter.Category)
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, validationf("invalid status: %s", filter.Status)
	}
	if filter.Status == "" && !authenticated {
		filter.Status = models.StatusOpen
	}
	if filter.Limit <= 0 {
		filter.Limit = DefaultLimit
	}
	if filter.Limit > MaxLimit {
		filter.Limit = MaxLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return s.needs.List(ctx, filter)
}

// Get retrieves a single need by ID.
func (s *Service) Get(ctx context.Context, id string) (*models.Need, error) {
	return s.needs.Get(ctx, id)
}

// CreateInput is the client-supplied portion of a new need. ID, status, and
// creation time are always assigned server-side; anything the client sends
// for those fields is ignored.
type CreateInput struct {
	Title          string              `json:"title"`
	Description    string              `json:"description"`
	Category       models.NeedCategory `json:"category"`
	Location       string              `json:"location"`
	TimeSlots      models.TimeSlots    `json:"timeSlots"`
	OrganizationID string              `json:"organizationId"`
}

func (in *CreateInput) validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return validationf("title is required")
	}
	if strings.TrimSpace(in.Description) == "" {
		return validationf("description is required")
	}
	if !in.Category.Valid() {
		return validationf("invalid category: %s", in.Category)
	}
	if strings.TrimSpace(in.Location) == "" {
		return validationf("location is required")
	}
	if len(in.TimeSlots) == 0 {
		return validationf("at least one time slot is required")
	}
	for i, slot := range in.TimeSlots {
		if slot.Start.IsZero() || slot.End.IsZero() {
			return validationf("time slot %d is missing start or end", i)
		}
		if !slot.End.After(slot.Start) {
			return validationf("time slot %d ends before it starts", i)
		}
	}
	if strings.TrimSpace(in.OrganizationID) == "" {
		return validationf("organizationId is required")
	}
	return nil
}

// Create validates the payload, verifies the referenced organization, and
// persists a new open need attributed to the authenticated principal.
func (s *Service) Create(ctx context.Context, in CreateInput, p *identity.Principal) (*models.Need, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	org, err := s.orgs.Get(ctx, in.OrganizationID)
	if err != nil {
		return nil, err
	}
	if !org.IsActive {
		return nil, validationf("organization %s is not active", org.Slug)
	}

	need := &models.Need{
		ID:             s.newID(),
		Title:          strings.TrimSpace(in.Title),
		Description:    strings.TrimSpace(in.Description),
		Category:       in.Category,
		Location:       strings.TrimSpace(in.Location),
		TimeSlots:      in.TimeSlots,
		Status:         models.StatusOpen,
		OrganizationID: in.OrganizationID,
		RequesterID:    p.UserID,
		RequesterEmail: p.Email(),
		RequesterName:  p.Name(),
		CreatedAt:      s.now(),
	}

	if err := s.needs.Create(ctx, need); err != nil {
		return nil, err
	}

	telemetry.NeedsCreatedTotal.WithLabelValues(string(need.Category)).Inc()
	s.logger.Info("need created",
		"need_id", need.ID,
		"category", need.Category,
		"organization_id", need.OrganizationID)
	return need, nil
}

// Claim attempts the open→claimed transition for the authenticated volunteer.
// The store performs the transition conditionally, so when several volunteers
// race for the same need exactly one succeeds and the rest get ErrConflict.
func (s *Service) Claim(ctx context.Context, id string, p *identity.Principal) (*models.Need, error) {
	need, err := s.needs.Claim(ctx, id, p.UserID, s.now())
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			telemetry.NeedClaimConflictsTotal.Inc()
		}
		return nil, err
	}

	telemetry.NeedsClaimedTotal.Inc()
	s.logger.Info("need claimed", "need_id", need.ID, "volunteer_id", p.UserID)
	return need, nil
}

// Complete marks a claimed need as done.
func (s *Service) Complete(ctx context.Context, id string) (*models.Need, error) {
	need, err := s.needs.Complete(ctx, id)
	if err != nil {
		return nil, err
	}
	s.logger.Info("need completed", "need_id", need.ID)
	return need, nil
}

// Cancel withdraws an open or claimed need.
func (s *Service) Cancel(ctx context.Context, id string) (*models.Need, error) {
	need, err := s.needs.Cancel(ctx, id)
	if err != nil {
		return nil, err
	}
	s.logger.Info("need cancelled", "need_id", need.ID)
	return need, nil
}
