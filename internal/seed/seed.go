// Package seed loads the demonstration fixtures: the Otago Community Hospice
// organization and its volunteer needs. Used by the `server seed` subcommand
// against Postgres and by the memory driver at startup so local demo mode is
// never empty.
package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/friendindeed/friendindeed/internal/db/models"
	"github.com/friendindeed/friendindeed/internal/store"
)

func date(year int, month time.Month, day, hour, minute int) time.Time {
	return time.Date(year, month, day, hour, minute, 0, 0, time.UTC)
}

func strptr(s string) *string { return &s }

func timeptr(t time.Time) *time.Time { return &t }

// Organizations returns the fixture organizations.
func Organizations() []models.Organization {
	return []models.Organization{
		{
			ID:           "1",
			Name:         "Otago Community Hospice",
			Slug:         "otago-hospice",
			Location:     "Dunedin",
			Region:       "Otago",
			Description:  "Supporting families through end-of-life care with compassion and dignity.",
			ContactEmail: "volunteer@otagohospice.co.nz",
			Website:      "https://otagohospice.co.nz",
			IsActive:     true,
			CreatedAt:    date(2025, time.January, 1, 0, 0),
		},
	}
}

// Needs returns the fixture needs. The set deliberately spans every category
// and the open, claimed, and completed statuses so filters have something to
// bite on.
func Needs() []models.Need {
	const (
		orgID          = "1"
		requesterID    = "1"
		requesterEmail = "volunteer@otagohospice.co.nz"
		requesterName  = "Hospice Volunteer Coordinator"
		volunteerID    = "2"
	)

	return []models.Need{
		{
			ID:          "1",
			Title:       "Grocery Shopping Help",
			Description: "Need someone to help with weekly grocery shopping. I have mobility issues and would appreciate assistance picking up items from the local supermarket.",
			Category:    models.CategoryMeals,
			Location:    "George Street, Dunedin",
			TimeSlots: models.TimeSlots{
				{Start: date(2025, time.August, 14, 10, 0), End: date(2025, time.August, 14, 12, 0)},
			},
			Status:         models.StatusOpen,
			OrganizationID: orgID,
			RequesterID:    requesterID,
			RequesterEmail: requesterEmail,
			RequesterName:  requesterName,
			CreatedAt:      date(2025, time.August, 10, 0, 0),
		},
		{
			ID:          "2",
			Title:       "Transport to Medical Appointment",
			Description: "Looking for a ride to my oncology appointment at Dunedin Hospital. The appointment is important for my ongoing treatment.",
			Category:    models.CategoryTransport,
			Location:    "North Dunedin to Dunedin Hospital",
			TimeSlots: models.TimeSlots{
				{Start: date(2025, time.August, 16, 14, 0), End: date(2025, time.August, 16, 16, 0)},
			},
			Status:         models.StatusOpen,
			OrganizationID: orgID,
			RequesterID:    requesterID,
			RequesterEmail: requesterEmail,
			RequesterName:  requesterName,
			CreatedAt:      date(2025, time.August, 11, 0, 0),
		},
		{
			ID:          "3",
			Title:       "Afternoon Companionship",
			Description: "Would love some company for tea and conversation. I live alone and enjoy meeting new people and sharing stories about Dunedin.",
			Category:    models.CategoryCompanionship,
			Location:    "St Clair, Dunedin",
			TimeSlots: models.TimeSlots{
				{Start: date(2025, time.August, 15, 15, 0), End: date(2025, time.August, 15, 17, 0)},
			},
			Status:         models.StatusClaimed,
			OrganizationID: orgID,
			RequesterID:    requesterID,
			RequesterEmail: requesterEmail,
			RequesterName:  requesterName,
			VolunteerID:    strptr(volunteerID),
			CreatedAt:      date(2025, time.August, 9, 0, 0),
			ClaimedAt:      timeptr(date(2025, time.August, 12, 0, 0)),
		},
		{
			ID:          "4",
			Title:       "Help with Technology",
			Description: "Need assistance setting up my new tablet and learning how to video call with family members overseas.",
			Category:    models.CategoryOther,
			Location:    "Roslyn, Dunedin",
			TimeSlots: models.TimeSlots{
				{Start: date(2025, time.August, 17, 13, 0), End: date(2025, time.August, 17, 15, 0)},
			},
			Status:         models.StatusOpen,
			OrganizationID: orgID,
			RequesterID:    requesterID,
			RequesterEmail: requesterEmail,
			RequesterName:  requesterName,
			CreatedAt:      date(2025, time.August, 11, 0, 0),
		},
		{
			ID:          "5",
			Title:       "Meal Delivery Support",
			Description: "Help needed to deliver prepared meals to families in our care. This is a meaningful way to support families during difficult times.",
			Category:    models.CategoryMeals,
			Location:    "Central Dunedin",
			TimeSlots: models.TimeSlots{
				{Start: date(2025, time.August, 18, 11, 0), End: date(2025, time.August, 18, 14, 0)},
			},
			Status:         models.StatusOpen,
			OrganizationID: orgID,
			RequesterID:    requesterID,
			RequesterEmail: requesterEmail,
			RequesterName:  requesterName,
			CreatedAt:      date(2025, time.August, 12, 0, 0),
		},
		{
			ID:          "6",
			Title:       "Garden Maintenance",
			Description: "Help maintain our peaceful memorial garden. Light gardening work including weeding and planting seasonal flowers.",
			Category:    models.CategoryOther,
			Location:    "Hospice Grounds, Dunedin",
			TimeSlots: models.TimeSlots{
				{Start: date(2025, time.August, 19, 9, 0), End: date(2025, time.August, 19, 12, 0)},
			},
			Status:         models.StatusCompleted,
			OrganizationID: orgID,
			RequesterID:    requesterID,
			RequesterEmail: requesterEmail,
			RequesterName:  requesterName,
			VolunteerID:    strptr(volunteerID),
			CreatedAt:      date(2025, time.August, 5, 0, 0),
			ClaimedAt:      timeptr(date(2025, time.August, 6, 0, 0)),
		},
		{
			ID:          "7",
			Title:       "Family Transport Support",
			Description: "Provide transport for family members visiting patients. Help ensure families can spend precious time together.",
			Category:    models.CategoryTransport,
			Location:    "Various Dunedin locations",
			TimeSlots: models.TimeSlots{
				{Start: date(2025, time.August, 20, 14, 0), End: date(2025, time.August, 20, 17, 0)},
			},
			Status:         models.StatusOpen,
			OrganizationID: orgID,
			RequesterID:    requesterID,
			RequesterEmail: requesterEmail,
			RequesterName:  requesterName,
			CreatedAt:      date(2025, time.August, 13, 0, 0),
		},
		{
			ID:          "8",
			Title:       "Administrative Support",
			Description: "Help with filing, data entry, and general office tasks. Perfect for someone who enjoys helping behind the scenes.",
			Category:    models.CategoryOther,
			Location:    "Hospice Office, Dunedin",
			TimeSlots: models.TimeSlots{
				{Start: date(2025, time.August, 21, 10, 0), End: date(2025, time.August, 21, 13, 0)},
			},
			Status:         models.StatusOpen,
			OrganizationID: orgID,
			RequesterID:    requesterID,
			RequesterEmail: requesterEmail,
			RequesterName:  requesterName,
			CreatedAt:      date(2025, time.August, 14, 0, 0),
		},
	}
}

// Load writes the fixtures through the store interfaces. Records that already
// exist are skipped, so running the seeder twice is harmless.
func Load(ctx context.Context, needStore store.NeedStore, orgStore store.OrganizationStore, logger *slog.Logger) error {
	var seeded, skipped int

	for _, org := range Organizations() {
		o := org
		switch err := orgStore.Create(ctx, &o); {
		case err == nil:
			seeded++
		case errors.Is(err, store.ErrDuplicate):
			skipped++
		default:
			return fmt.Errorf("failed to seed organization %s: %w", org.ID, err)
		}
	}

	for _, need := range Needs() {
		n := need
		switch err := needStore.Create(ctx, &n); {
		case err == nil:
			seeded++
		case errors.Is(err, store.ErrDuplicate):
			skipped++
		default:
			return fmt.Errorf("failed to seed need %s: %w", need.ID, err)
		}
	}

	logger.Info("seed complete", "seeded", seeded, "skipped", skipped)
	return nil
}
