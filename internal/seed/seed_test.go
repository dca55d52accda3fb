package seed

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/friendindeed/friendindeed/internal/db/models"
	"github.com/friendindeed/friendindeed/internal/store"
	"github.com/friendindeed/friendindeed/internal/store/memory"
)

func TestLoadIsIdempotent(t *testing.T) {
	mem := memory.New()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := context.Background()

	if err := Load(ctx, mem.Needs(), mem.Organizations(), logger); err != nil {
		t.Fatalf("first Load: %v", err)
	}
	if err := Load(ctx, mem.Needs(), mem.Organizations(), logger); err != nil {
		t.Fatalf("second Load: %v", err)
	}

	orgs, err := mem.Organizations().ListActive(ctx)
	if err != nil {
		t.Fatalf("ListActive: %v", err)
	}
	if len(orgs) != len(Organizations()) {
		t.Errorf("expected %d organizations, got %d", len(Organizations()), len(orgs))
	}

	needs, err := mem.Needs().List(ctx, store.NeedFilter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(needs) != len(Needs()) {
		t.Errorf("expected %d needs, got %d", len(Needs()), len(needs))
	}
}

func TestFixturesAreInternallyConsistent(t *testing.T) {
	orgIDs := make(map[string]bool)
	for _, org := range Organizations() {
		orgIDs[org.ID] = true
	}

	for _, need := range Needs() {
		if !need.Category.Valid() {
			t.Errorf("need %s: invalid category %s", need.ID, need.Category)
		}
		if !need.Status.Valid() {
			t.Errorf("need %s: invalid status %s", need.ID, need.Status)
		}
		if !orgIDs[need.OrganizationID] {
			t.Errorf("need %s: unknown organization %s", need.ID, need.OrganizationID)
		}
		if len(need.TimeSlots) == 0 {
			t.Errorf("need %s: no time slots", need.ID)
		}
		claimed := need.Status == models.StatusClaimed || need.Status == models.StatusCompleted
		if claimed != (need.VolunteerID != nil) || claimed != (need.ClaimedAt != nil) {
			t.Errorf("need %s: volunteer/claim fields inconsistent with status %s", need.ID, need.Status)
		}
	}
}
