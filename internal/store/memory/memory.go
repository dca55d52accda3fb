// Package memory implements the store interfaces in process. It backs the
// unit tests and the self-contained demo mode, and preserves the same
// conditional-transition semantics as the postgres adapter: claim, complete,
// and cancel check the record's current status under the store lock.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/friendindeed/friendindeed/internal/db/models"
	"github.com/friendindeed/friendindeed/internal/store"
)

// Store holds all records behind a single mutex. Records are copied on the
// way in and out so callers can never mutate shared state.
type Store struct {
	mu    sync.Mutex
	needs map[string]models.Need
	orgs  map[string]models.Organization
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		needs: make(map[string]models.Need),
		orgs:  make(map[string]models.Organization),
	}
}

// List returns needs matching every supplied filter predicate, newest first.
func (s *Store) List(ctx context.Context, filter store.NeedFilter) ([]models.Need, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	matched := make([]models.Need, 0)
	for _, need := range s.needs {
		if filter.OrganizationID != "" && need.OrganizationID != filter.OrganizationID {
			continue
		}
		if filter.Location != "" && !strings.Contains(strings.ToLower(need.Location), strings.ToLower(filter.Location)) {
			continue
		}
		if filter.Category != "" && need.Category != filter.Category {
			continue
		}
		if filter.Status != "" && need.Status != filter.Status {
			continue
		}
		matched = append(matched, need)
	}

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID > matched[j].ID
	})

	if filter.Offset > 0 {
		if filter.Offset >= len(matched) {
			return []models.Need{}, nil
		}
		matched = matched[filter.Offset:]
	}
	if filter.Limit > 0 && len(matched) > filter.Limit {
		matched = matched[:filter.Limit]
	}
	return matched, nil
}

// Get retrieves a need by ID.
func (s *Store) Get(ctx context.Context, id string) (*models.Need, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	need, ok := s.needs[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &need, nil
}

// Create inserts a new need.
func (s *Store) Create(ctx context.Context, need *models.Need) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.needs[need.ID]; exists {
		return store.ErrDuplicate
	}
	s.needs[need.ID] = *need
	return nil
}

// Claim transitions the need from open to claimed. The status check and the
// write happen under the same lock, so concurrent claims against the same
// need yield exactly one success.
func (s *Store) Claim(ctx context.Context, id, volunteerID string, at time.Time) (*models.Need, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	need, ok := s.needs[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if need.Status != models.StatusOpen {
		return nil, store.ErrConflict
	}
	need.Status = models.StatusClaimed
	need.VolunteerID = &volunteerID
	need.ClaimedAt = &at
	s.needs[id] = need
	return &need, nil
}

// Complete transitions the need from claimed to completed.
func (s *Store) Complete(ctx context.Context, id string) (*models.Need, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	need, ok := s.needs[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if need.Status != models.StatusClaimed {
		return nil, store.ErrConflict
	}
	need.Status = models.StatusCompleted
	s.needs[id] = need
	return &need, nil
}

// Cancel transitions the need from open or claimed to cancelled.
func (s *Store) Cancel(ctx context.Context, id string) (*models.Need, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	need, ok := s.needs[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if need.Status != models.StatusOpen && need.Status != models.StatusClaimed {
		return nil, store.ErrConflict
	}
	need.Status = models.StatusCancelled
	s.needs[id] = need
	return &need, nil
}

// ListActive returns all active organizations ordered by name.
func (s *Store) ListActive(ctx context.Context) ([]models.Organization, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	orgs := make([]models.Organization, 0)
	for _, org := range s.orgs {
		if org.IsActive {
			orgs = append(orgs, org)
		}
	}
	sort.Slice(orgs, func(i, j int) bool { return orgs[i].Name < orgs[j].Name })
	return orgs, nil
}

// GetOrganization retrieves an organization by ID. The method is named to
// avoid colliding with the need Get on the combined store type.
func (s *Store) GetOrganization(ctx context.Context, id string) (*models.Organization, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	org, ok := s.orgs[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &org, nil
}

// GetBySlug retrieves an organization by its URL slug.
func (s *Store) GetBySlug(ctx context.Context, slug string) (*models.Organization, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, org := range s.orgs {
		if org.Slug == slug {
			o := org
			return &o, nil
		}
	}
	return nil, store.ErrNotFound
}

// CreateOrganization inserts a new organization.
func (s *Store) CreateOrganization(ctx context.Context, org *models.Organization) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.orgs[org.ID]; exists {
		return store.ErrDuplicate
	}
	for _, existing := range s.orgs {
		if existing.Slug == org.Slug {
			return store.ErrDuplicate
		}
	}
	s.orgs[org.ID] = *org
	return nil
}

// Needs adapts the store to the store.NeedStore interface.
func (s *Store) Needs() store.NeedStore { return s }

// Organizations adapts the store to the store.OrganizationStore interface.
func (s *Store) Organizations() store.OrganizationStore {
	return organizationView{s}
}

// organizationView renames the organization methods onto the
// store.OrganizationStore method set.
type organizationView struct {
	s *Store
}

func (v organizationView) ListActive(ctx context.Context) ([]models.Organization, error) {
	return v.s.ListActive(ctx)
}

func (v organizationView) Get(ctx context.Context, id string) (*models.Organization, error) {
	return v.s.GetOrganization(ctx, id)
}

func (v organizationView) GetBySlug(ctx context.Context, slug string) (*models.Organization, error) {
	return v.s.GetBySlug(ctx, slug)
}

func (v organizationView) Create(ctx context.Context, org *models.Organization) error {
	return v.s.CreateOrganization(ctx, org)
}
