package models

import (
	"encoding/json"
	"testing"
	"time"
)

// ---------------------------------------------------------------------------
// Enum validation
// ---------------------------------------------------------------------------

func TestNeedCategoryValid(t *testing.T) {
	valid := []NeedCategory{CategoryTransport, CategoryMeals, CategoryCompanionship, CategoryOther}
	for _, c := range valid {
		if !c.Valid() {
			t.Errorf("category %q should be valid", c)
		}
	}
	for _, c := range []NeedCategory{"", "errands", "MEALS"} {
		if c.Valid() {
			t.Errorf("category %q should be invalid", c)
		}
	}
}

func TestNeedStatusValid(t *testing.T) {
	valid := []NeedStatus{StatusOpen, StatusClaimed, StatusCompleted, StatusCancelled}
	for _, s := range valid {
		if !s.Valid() {
			t.Errorf("status %q should be valid", s)
		}
	}
	for _, s := range []NeedStatus{"", "pending", "Open"} {
		if s.Valid() {
			t.Errorf("status %q should be invalid", s)
		}
	}
}

// ---------------------------------------------------------------------------
// TimeSlots JSONB round trip
// ---------------------------------------------------------------------------

func TestTimeSlotsValueScan(t *testing.T) {
	start := time.Date(2025, 8, 14, 10, 0, 0, 0, time.UTC)
	in := TimeSlots{{Start: start, End: start.Add(2 * time.Hour)}}

	v, err := in.Value()
	if err != nil {
		t.Fatalf("Value: %v", err)
	}

	var out TimeSlots
	if err := out.Scan(v.([]byte)); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("len = %d, want 1", len(out))
	}
	if !out[0].Start.Equal(start) {
		t.Errorf("Start = %v, want %v", out[0].Start, start)
	}
	if !out[0].End.Equal(start.Add(2 * time.Hour)) {
		t.Errorf("End = %v, want %v", out[0].End, start.Add(2*time.Hour))
	}
}

func TestTimeSlotsScanNil(t *testing.T) {
	ts := TimeSlots{{Start: time.Now(), End: time.Now()}}
	if err := ts.Scan(nil); err != nil {
		t.Fatalf("Scan(nil): %v", err)
	}
	if ts != nil {
		t.Errorf("expected nil slots after scanning NULL, got %v", ts)
	}
}

func TestTimeSlotsScanRejectsNonBytes(t *testing.T) {
	var ts TimeSlots
	if err := ts.Scan(42); err == nil {
		t.Error("expected error scanning int into TimeSlots")
	}
}

// ---------------------------------------------------------------------------
// JSON shape
// ---------------------------------------------------------------------------

// The SPA consumes these records directly, so the JSON field names are part of
// the API contract: camelCase, with claim fields omitted while a need is open.
func TestNeedJSONShape(t *testing.T) {
	n := Need{
		ID:             "1",
		Title:          "Grocery Shopping Help",
		Category:       CategoryMeals,
		Status:         StatusOpen,
		OrganizationID: "1",
		RequesterID:    "1",
		CreatedAt:      time.Date(2025, 8, 10, 0, 0, 0, 0, time.UTC),
	}

	b, err := json.Marshal(n)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var m map[string]interface{}
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	for _, key := range []string{"id", "title", "category", "status", "organizationId", "requesterId", "createdAt"} {
		if _, ok := m[key]; !ok {
			t.Errorf("missing JSON key %q", key)
		}
	}
	for _, key := range []string{"volunteerId", "claimedAt"} {
		if _, ok := m[key]; ok {
			t.Errorf("open need must not serialize %q", key)
		}
	}
}

func TestOrganizationJSONShape(t *testing.T) {
	o := Organization{
		ID:           "1",
		Name:         "Otago Community Hospice",
		Slug:         "otago-hospice",
		ContactEmail: "volunteer@otagohospice.co.nz",
		IsActive:     true,
	}

	b, err := json.Marshal(o)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var m map[string]interface{}
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	if m["slug"] != "otago-hospice" {
		t.Errorf("slug = %v, want otago-hospice", m["slug"])
	}
	if m["contactEmail"] != "volunteer@otagohospice.co.nz" {
		t.Errorf("contactEmail = %v", m["contactEmail"])
	}
	if _, ok := m["website"]; ok {
		t.Error("empty website must be omitted")
	}
}
