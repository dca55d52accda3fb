// Package postgres implements the store interfaces against PostgreSQL using
// sqlx. Needs keep their time slot list in a JSONB column; everything else is
// plain relational columns so the filter predicates stay indexable.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/friendindeed/friendindeed/internal/db/models"
	"github.com/friendindeed/friendindeed/internal/store"
)

const needColumns = `id, title, description, category, location, time_slots, status,
	organization_id, requester_id, requester_email, requester_name,
	volunteer_id, created_at, claimed_at`

// NeedStore is the PostgreSQL implementation of store.NeedStore.
type NeedStore struct {
	db *sqlx.DB
}

// NewNeedStore creates a need store backed by the given database handle.
func NewNeedStore(db *sqlx.DB) *NeedStore {
	return &NeedStore{db: db}
}

// List returns needs matching every supplied filter predicate, newest first.
func (s *NeedStore) List(ctx context.Context, filter store.NeedFilter) ([]models.Need, error) {
	var (
		conds []string
		args  []interface{}
	)

	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.OrganizationID != "" {
		conds = append(conds, "organization_id = "+arg(filter.OrganizationID))
	}
	if filter.Location != "" {
		conds = append(conds, "location ILIKE "+arg("%"+escapeLike(filter.Location)+"%"))
	}
	if filter.Category != "" {
		conds = append(conds, "category = "+arg(string(filter.Category)))
	}
	if filter.Status != "" {
		conds = append(conds, "status = "+arg(string(filter.Status)))
	}

	query := "SELECT " + needColumns + " FROM needs"
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC"
	if filter.Limit > 0 {
		query += " LIMIT " + arg(filter.Limit)
	}
	if filter.Offset > 0 {
		query += " OFFSET " + arg(filter.Offset)
	}

	needs := make([]models.Need, 0)
	if err := s.db.SelectContext(ctx, &needs, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list needs: %w", err)
	}
	return needs, nil
}

// Get retrieves a need by ID.
func (s *NeedStore) Get(ctx context.Context, id string) (*models.Need, error) {
	var need models.Need
	err := s.db.GetContext(ctx, &need,
		"SELECT "+needColumns+" FROM needs WHERE id = $1", id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get need: %w", err)
	}
	return &need, nil
}

// Create inserts a new need.
func (s *NeedStore) Create(ctx context.Context, need *models.Need) error {
	query := `
		INSERT INTO needs (id, title, description, category, location, time_slots,
			status, organization_id, requester_id, requester_email, requester_name,
			volunteer_id, created_at, claimed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	_, err := s.db.ExecContext(ctx, query,
		need.ID, need.Title, need.Description, need.Category, need.Location,
		need.TimeSlots, need.Status, need.OrganizationID,
		need.RequesterID, need.RequesterEmail, need.RequesterName,
		need.VolunteerID, need.CreatedAt, need.ClaimedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrDuplicate
		}
		return fmt.Errorf("failed to create need: %w", err)
	}
	return nil
}

// Claim performs the conditional open→claimed transition. The WHERE clause on
// the current status is what makes concurrent claims safe: the database
// applies the row update atomically, so only one of N racing requests sees an
// open row and every other one falls through to the conflict check.
func (s *NeedStore) Claim(ctx context.Context, id, volunteerID string, at time.Time) (*models.Need, error) {
	var need models.Need
	query := `
		UPDATE needs
		SET status = 'claimed', volunteer_id = $2, claimed_at = $3
		WHERE id = $1 AND status = 'open'
		RETURNING ` + needColumns
	err := s.db.GetContext(ctx, &need, query, id, volunteerID, at)
	if err == nil {
		return &need, nil
	}
	if err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to claim need: %w", err)
	}
	return nil, s.transitionFailure(ctx, id)
}

// Complete performs the conditional claimed→completed transition.
func (s *NeedStore) Complete(ctx context.Context, id string) (*models.Need, error) {
	var need models.Need
	query := `
		UPDATE needs
		SET status = 'completed'
		WHERE id = $1 AND status = 'claimed'
		RETURNING ` + needColumns
	err := s.db.GetContext(ctx, &need, query, id)
	if err == nil {
		return &need, nil
	}
	if err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to complete need: %w", err)
	}
	return nil, s.transitionFailure(ctx, id)
}

// Cancel performs the conditional open|claimed→cancelled transition.
func (s *NeedStore) Cancel(ctx context.Context, id string) (*models.Need, error) {
	var need models.Need
	query := `
		UPDATE needs
		SET status = 'cancelled'
		WHERE id = $1 AND status IN ('open', 'claimed')
		RETURNING ` + needColumns
	err := s.db.GetContext(ctx, &need, query, id)
	if err == nil {
		return &need, nil
	}
	if err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to cancel need: %w", err)
	}
	return nil, s.transitionFailure(ctx, id)
}

// transitionFailure distinguishes "no such need" from "need exists but is in
// the wrong status" after a conditional update matched zero rows.
func (s *NeedStore) transitionFailure(ctx context.Context, id string) error {
	var exists bool
	err := s.db.GetContext(ctx, &exists, "SELECT EXISTS (SELECT 1 FROM needs WHERE id = $1)", id)
	if err != nil {
		return fmt.Errorf("failed to check need existence: %w", err)
	}
	if !exists {
		return store.ErrNotFound
	}
	return store.ErrConflict
}

// escapeLike neutralises LIKE wildcards in user input so a location filter of
// "100%" matches the literal text rather than everything.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "%", `\%`)
	s = strings.ReplaceAll(s, "_", `\_`)
	return s
}

func isUniqueViolation(err error) bool {
	if pqErr, ok := err.(*pq.Error); ok {
		return pqErr.Code == "23505"
	}
	return false
}
