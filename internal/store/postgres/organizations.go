package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/friendindeed/friendindeed/internal/db/models"
	"github.com/friendindeed/friendindeed/internal/store"
)

const organizationColumns = `id, name, slug, location, region, description,
	contact_email, website, is_active, created_at`

// OrganizationStore is the PostgreSQL implementation of store.OrganizationStore.
type OrganizationStore struct {
	db *sqlx.DB
}

// NewOrganizationStore creates an organization store backed by the given
// database handle.
func NewOrganizationStore(db *sqlx.DB) *OrganizationStore {
	return &OrganizationStore{db: db}
}

// ListActive returns every active organization ordered by name.
func (s *OrganizationStore) ListActive(ctx context.Context) ([]models.Organization, error) {
	orgs := make([]models.Organization, 0)
	query := "SELECT " + organizationColumns + " FROM organizations WHERE is_active = true ORDER BY name ASC"
	if err := s.db.SelectContext(ctx, &orgs, query); err != nil {
		return nil, fmt.Errorf("failed to list organizations: %w", err)
	}
	return orgs, nil
}

// Get retrieves an organization by ID.
func (s *OrganizationStore) Get(ctx context.Context, id string) (*models.Organization, error) {
	var org models.Organization
	err := s.db.GetContext(ctx, &org,
		"SELECT "+organizationColumns+" FROM organizations WHERE id = $1", id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get organization: %w", err)
	}
	return &org, nil
}

// GetBySlug retrieves an organization by its URL slug.
func (s *OrganizationStore) GetBySlug(ctx context.Context, slug string) (*models.Organization, error) {
	var org models.Organization
	err := s.db.GetContext(ctx, &org,
		"SELECT "+organizationColumns+" FROM organizations WHERE slug = $1", slug)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get organization by slug: %w", err)
	}
	return &org, nil
}

// Create inserts a new organization.
func (s *OrganizationStore) Create(ctx context.Context, org *models.Organization) error {
	query := `
		INSERT INTO organizations (id, name, slug, location, region, description,
			contact_email, website, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := s.db.ExecContext(ctx, query,
		org.ID, org.Name, org.Slug, org.Location, org.Region, org.Description,
		org.ContactEmail, org.Website, org.IsActive, org.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrDuplicate
		}
		return fmt.Errorf("failed to create organization: %w", err)
	}
	return nil
}
