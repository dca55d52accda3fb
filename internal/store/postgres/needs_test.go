package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"

	"github.com/friendindeed/friendindeed/internal/db/models"
	"github.com/friendindeed/friendindeed/internal/store"
)

var needCols = []string{
	"id", "title", "description", "category", "location", "time_slots", "status",
	"organization_id", "requester_id", "requester_email", "requester_name",
	"volunteer_id", "created_at", "claimed_at",
}

func newTestNeedStore(t *testing.T) (*NeedStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewNeedStore(sqlx.NewDb(db, "sqlmock")), mock
}

func needRow(id, status string, createdAt time.Time) []driverValue {
	return []driverValue{
		id, "Meal delivery driver", "Deliver meals to patients", "transport",
		"Dunedin", []byte(`[{"start":"2026-03-01T09:00:00Z","end":"2026-03-01T12:00:00Z"}]`),
		status, "org-hospice", "user-1", "coordinator@example.org", "Pat Coordinator",
		nil, createdAt, nil,
	}
}

type driverValue = driver.Value

func TestNeedStoreList_NoFilters(t *testing.T) {
	s, mock := newTestNeedStore(t)

	now := time.Now().UTC()
	rows := sqlmock.NewRows(needCols).
		AddRow(needRow("need-2", "open", now)...).
		AddRow(needRow("need-1", "open", now.Add(-time.Hour))...)

	mock.ExpectQuery(`SELECT (.+) FROM needs ORDER BY created_at DESC`).
		WillReturnRows(rows)

	needs, err := s.List(context.Background(), store.NeedFilter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(needs) != 2 {
		t.Fatalf("expected 2 needs, got %d", len(needs))
	}
	if needs[0].ID != "need-2" {
		t.Errorf("expected newest need first, got %s", needs[0].ID)
	}
	if len(needs[0].TimeSlots) != 1 {
		t.Errorf("expected time slots to unmarshal, got %d", len(needs[0].TimeSlots))
	}
}

func TestNeedStoreList_AllFilters(t *testing.T) {
	s, mock := newTestNeedStore(t)

	mock.ExpectQuery(`SELECT (.+) FROM needs WHERE organization_id = \$1 AND location ILIKE \$2 AND category = \$3 AND status = \$4 ORDER BY created_at DESC LIMIT \$5 OFFSET \$6`).
		WithArgs("org-hospice", "%dunedin%", "transport", "open", 50, 10).
		WillReturnRows(sqlmock.NewRows(needCols))

	needs, err := s.List(context.Background(), store.NeedFilter{
		OrganizationID: "org-hospice",
		Location:       "dunedin",
		Category:       models.CategoryTransport,
		Status:         models.StatusOpen,
		Limit:          50,
		Offset:         10,
	})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(needs) != 0 {
		t.Errorf("expected empty slice, got %d needs", len(needs))
	}
	if needs == nil {
		t.Error("expected non-nil slice for empty result")
	}
}

func TestNeedStoreList_EscapesLikeWildcards(t *testing.T) {
	s, mock := newTestNeedStore(t)

	mock.ExpectQuery(`SELECT (.+) FROM needs WHERE location ILIKE \$1`).
		WithArgs(`%100\% Central\_Otago%`).
		WillReturnRows(sqlmock.NewRows(needCols))

	if _, err := s.List(context.Background(), store.NeedFilter{Location: "100% Central_Otago"}); err != nil {
		t.Fatalf("List: %v", err)
	}
}

func TestNeedStoreGet(t *testing.T) {
	s, mock := newTestNeedStore(t)

	mock.ExpectQuery(`SELECT (.+) FROM needs WHERE id = \$1`).
		WithArgs("need-1").
		WillReturnRows(sqlmock.NewRows(needCols).AddRow(needRow("need-1", "open", time.Now())...))

	need, err := s.Get(context.Background(), "need-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if need.ID != "need-1" || need.Status != models.StatusOpen {
		t.Errorf("unexpected need: %+v", need)
	}
}

func TestNeedStoreGet_NotFound(t *testing.T) {
	s, mock := newTestNeedStore(t)

	mock.ExpectQuery(`SELECT (.+) FROM needs WHERE id = \$1`).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := s.Get(context.Background(), "missing")
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestNeedStoreCreate(t *testing.T) {
	s, mock := newTestNeedStore(t)

	now := time.Now().UTC()
	need := &models.Need{
		ID:             "need-1",
		Title:          "Meal delivery driver",
		Description:    "Deliver meals to patients",
		Category:       models.CategoryTransport,
		Location:       "Dunedin",
		TimeSlots:      models.TimeSlots{{Start: now, End: now.Add(3 * time.Hour)}},
		Status:         models.StatusOpen,
		OrganizationID: "org-hospice",
		RequesterID:    "user-1",
		RequesterEmail: "coordinator@example.org",
		RequesterName:  "Pat Coordinator",
		CreatedAt:      now,
	}

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO needs")).
		WithArgs(need.ID, need.Title, need.Description, need.Category, need.Location,
			need.TimeSlots, need.Status, need.OrganizationID,
			need.RequesterID, need.RequesterEmail, need.RequesterName,
			nil, need.CreatedAt, nil).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := s.Create(context.Background(), need); err != nil {
		t.Fatalf("Create: %v", err)
	}
}

func TestNeedStoreClaim_Success(t *testing.T) {
	s, mock := newTestNeedStore(t)

	at := time.Now().UTC()
	row := needRow("need-1", "claimed", at.Add(-time.Hour))
	row[11] = "vol-9" // volunteer_id
	row[13] = at      // claimed_at

	mock.ExpectQuery(`UPDATE needs\s+SET status = 'claimed', volunteer_id = \$2, claimed_at = \$3\s+WHERE id = \$1 AND status = 'open'`).
		WithArgs("need-1", "vol-9", at).
		WillReturnRows(sqlmock.NewRows(needCols).AddRow(row...))

	need, err := s.Claim(context.Background(), "need-1", "vol-9", at)
	if err != nil {
		t.Fatalf("Claim: %v", err)
	}
	if need.Status != models.StatusClaimed {
		t.Errorf("expected status claimed, got %s", need.Status)
	}
	if need.VolunteerID == nil || *need.VolunteerID != "vol-9" {
		t.Errorf("expected volunteer vol-9, got %v", need.VolunteerID)
	}
}

func TestNeedStoreClaim_AlreadyClaimed(t *testing.T) {
	s, mock := newTestNeedStore(t)

	at := time.Now().UTC()
	mock.ExpectQuery(`UPDATE needs`).
		WithArgs("need-1", "vol-9", at).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("need-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	_, err := s.Claim(context.Background(), "need-1", "vol-9", at)
	if !errors.Is(err, store.ErrConflict) {
		t.Errorf("expected ErrConflict, got %v", err)
	}
}

func TestNeedStoreClaim_NotFound(t *testing.T) {
	s, mock := newTestNeedStore(t)

	at := time.Now().UTC()
	mock.ExpectQuery(`UPDATE needs`).
		WithArgs("missing", "vol-9", at).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	_, err := s.Claim(context.Background(), "missing", "vol-9", at)
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestNeedStoreComplete_WrongStatus(t *testing.T) {
	s, mock := newTestNeedStore(t)

	mock.ExpectQuery(`UPDATE needs\s+SET status = 'completed'\s+WHERE id = \$1 AND status = 'claimed'`).
		WithArgs("need-1").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("need-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	_, err := s.Complete(context.Background(), "need-1")
	if !errors.Is(err, store.ErrConflict) {
		t.Errorf("expected ErrConflict, got %v", err)
	}
}

func TestNeedStoreCancel_Success(t *testing.T) {
	s, mock := newTestNeedStore(t)

	row := needRow("need-1", "cancelled", time.Now())
	mock.ExpectQuery(`UPDATE needs\s+SET status = 'cancelled'\s+WHERE id = \$1 AND status IN \('open', 'claimed'\)`).
		WithArgs("need-1").
		WillReturnRows(sqlmock.NewRows(needCols).AddRow(row...))

	need, err := s.Cancel(context.Background(), "need-1")
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if need.Status != models.StatusCancelled {
		t.Errorf("expected status cancelled, got %s", need.Status)
	}
}
