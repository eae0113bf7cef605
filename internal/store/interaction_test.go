package store

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
)

// Helper to create a test company
func createTestCompany(t *testing.T, testDB *TestDB) Company {
	t.Helper()
	company, err := testDB.Store.CreateCompany(context.Background(), CreateCompanyParams{
		Name:         "Test Company",
		Email:        "company-" + uuid.New().String()[:8] + "@example.com",
		PasswordHash: "not-a-real-hash",
	})
	if err != nil {
		t.Fatalf("failed to create test company: %v", err)
	}
	return company
}

// Helper to create a test campaign
func createTestCampaign(t *testing.T, testDB *TestDB, companyID int64) Campaign {
	t.Helper()
	start := time.Now().AddDate(0, 0, 1)
	campaign, err := testDB.Store.CreateCampaign(context.Background(), CreateCampaignParams{
		CompanyID: companyID,
		Type:      CampaignTypePhishing,
		StartDate: start,
		EndDate:   start.AddDate(0, 1, 0),
	})
	if err != nil {
		t.Fatalf("failed to create test campaign: %v", err)
	}
	return campaign
}

func TestStore_RecordInteractionAction(t *testing.T) {
	testDB := SetupTestDB(t, TestDBTypePostgres)
	defer testDB.Close()
	testDB.Truncate(t)

	ctx := context.Background()
	company := createTestCompany(t, testDB)

	tests := []struct {
		name         string
		priorActions []string
		action       string
		wantAdvanced bool
	}{
		{
			name:         "first event advances",
			priorActions: nil,
			action:       ActionOpened,
			wantAdvanced: true,
		},
		{
			name:         "repeat action is a no-op",
			priorActions: []string{ActionOpened},
			action:       ActionOpened,
			wantAdvanced: false,
		},
		{
			name:         "lower rank after higher is a no-op",
			priorActions: []string{ActionOpened, ActionClicked},
			action:       ActionOpened,
			wantAdvanced: false,
		},
		{
			name:         "higher rank appends",
			priorActions: []string{ActionOpened, ActionClicked},
			action:       ActionSubmitted,
			wantAdvanced: true,
		},
		{
			name:         "sent after opened is a no-op",
			priorActions: []string{ActionSent, ActionOpened},
			action:       ActionSent,
			wantAdvanced: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			campaign := createTestCampaign(t, testDB, company.ID)
			email := "target-" + uuid.New().String()[:8] + "@example.com"

			for _, prior := range tt.priorActions {
				if _, _, err := testDB.Store.RecordInteractionAction(ctx, campaign.ID, email, prior); err != nil {
					t.Fatalf("failed to record prior action %s: %v", prior, err)
				}
			}

			interaction, advanced, err := testDB.Store.RecordInteractionAction(ctx, campaign.ID, email, tt.action)
			if err != nil {
				t.Fatalf("RecordInteractionAction() error = %v", err)
			}
			if advanced != tt.wantAdvanced {
				t.Errorf("RecordInteractionAction() advanced = %v, want %v", advanced, tt.wantAdvanced)
			}

			if tt.wantAdvanced {
				if interaction.ID == 0 {
					t.Error("expected interaction ID to be set")
				}
				if interaction.ActionType != tt.action {
					t.Errorf("expected action %s, got %s", tt.action, interaction.ActionType)
				}
			} else if interaction.ID != 0 {
				t.Errorf("expected zero interaction on no-op, got ID %d", interaction.ID)
			}

			// The event log only grows by the events that advanced the stage.
			events, err := testDB.Store.ListInteractionsByCampaign(ctx, campaign.ID)
			if err != nil {
				t.Fatalf("failed to list interactions: %v", err)
			}
			wantEvents := len(tt.priorActions)
			if tt.wantAdvanced {
				wantEvents++
			}
			if len(events) != wantEvents {
				t.Errorf("expected %d events in log, got %d", wantEvents, len(events))
			}
		})
	}
}

func TestStore_RecordInteractionActionRejectsUnknownAction(t *testing.T) {
	testDB := SetupTestDB(t, TestDBTypePostgres)
	defer testDB.Close()

	_, _, err := testDB.Store.RecordInteractionAction(context.Background(), 1, "x@example.com", "deleted")
	if err == nil {
		t.Fatal("expected error for unknown action")
	}
}

// Concurrent identical callbacks race past the NOT EXISTS check; the partial
// unique index must let exactly one row through.
func TestStore_RecordInteractionActionConcurrentDuplicates(t *testing.T) {
	testDB := SetupTestDB(t, TestDBTypePostgres)
	defer testDB.Close()
	testDB.Truncate(t)

	ctx := context.Background()
	company := createTestCompany(t, testDB)
	campaign := createTestCampaign(t, testDB, company.ID)
	email := "raced@example.com"

	const callers = 8
	advancedCount := make(chan bool, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, advanced, err := testDB.Store.RecordInteractionAction(ctx, campaign.ID, email, ActionOpened)
			if err != nil {
				t.Errorf("RecordInteractionAction() error = %v", err)
				return
			}
			advancedCount <- advanced
		}()
	}
	wg.Wait()
	close(advancedCount)

	advances := 0
	for advanced := range advancedCount {
		if advanced {
			advances++
		}
	}
	if advances != 1 {
		t.Errorf("expected exactly 1 caller to advance, got %d", advances)
	}

	counts, err := testDB.Store.GetCampaignActionCounts(ctx, campaign.ID)
	if err != nil {
		t.Fatalf("failed to get action counts: %v", err)
	}
	if counts.Opened != 1 {
		t.Errorf("expected 1 opened event, got %d", counts.Opened)
	}
}

func TestStore_InteractionStageIndexRejectsDuplicates(t *testing.T) {
	testDB := SetupTestDB(t, TestDBTypePostgres)
	defer testDB.Close()
	testDB.Truncate(t)

	ctx := context.Background()
	company := createTestCompany(t, testDB)
	campaign := createTestCampaign(t, testDB, company.ID)
	email := "indexed@example.com"

	if _, _, err := testDB.Store.RecordInteractionAction(ctx, campaign.ID, email, ActionClicked); err != nil {
		t.Fatalf("failed to record clicked: %v", err)
	}

	// A raw duplicate insert bypassing the guard must hit the unique index.
	_, err := testDB.GetDB().Exec(
		"INSERT INTO interactions (campaign_id, email, action_type) VALUES ($1, $2, $3)",
		campaign.ID, email, ActionClicked)
	if err == nil {
		t.Fatal("expected unique violation for duplicate clicked event")
	}
	if !strings.Contains(err.Error(), "uniq_interactions_stage") {
		t.Errorf("expected uniq_interactions_stage violation, got: %v", err)
	}
}

func TestStore_CreateInteractionAllowsRepeatedSent(t *testing.T) {
	testDB := SetupTestDB(t, TestDBTypePostgres)
	defer testDB.Close()
	testDB.Truncate(t)

	ctx := context.Background()
	company := createTestCompany(t, testDB)
	campaign := createTestCampaign(t, testDB, company.ID)
	email := "resent@example.com"

	// Resends append a fresh sent event each time.
	for i := 0; i < 2; i++ {
		if _, err := testDB.Store.CreateInteraction(ctx, campaign.ID, email, ActionSent); err != nil {
			t.Fatalf("failed to create sent interaction %d: %v", i, err)
		}
	}

	counts, err := testDB.Store.GetCampaignActionCounts(ctx, campaign.ID)
	if err != nil {
		t.Fatalf("failed to get action counts: %v", err)
	}
	if counts.Sent != 2 {
		t.Errorf("expected 2 sent events, got %d", counts.Sent)
	}
}

func TestStore_UpdateInteractionActionFlipsSentToFailed(t *testing.T) {
	testDB := SetupTestDB(t, TestDBTypePostgres)
	defer testDB.Close()
	testDB.Truncate(t)

	ctx := context.Background()
	company := createTestCompany(t, testDB)
	campaign := createTestCampaign(t, testDB, company.ID)

	sent, err := testDB.Store.CreateInteraction(ctx, campaign.ID, "bounce@example.com", ActionSent)
	if err != nil {
		t.Fatalf("failed to create sent interaction: %v", err)
	}

	failed, err := testDB.Store.UpdateInteractionAction(ctx, sent.ID, ActionFailed)
	if err != nil {
		t.Fatalf("UpdateInteractionAction() error = %v", err)
	}
	if failed.ID != sent.ID {
		t.Errorf("expected the same row to be updated, got ID %d want %d", failed.ID, sent.ID)
	}
	if failed.ActionType != ActionFailed {
		t.Errorf("expected action %s, got %s", ActionFailed, failed.ActionType)
	}

	counts, err := testDB.Store.GetCampaignActionCounts(ctx, campaign.ID)
	if err != nil {
		t.Fatalf("failed to get action counts: %v", err)
	}
	if counts.Sent != 0 || counts.Failed != 1 {
		t.Errorf("expected 0 sent and 1 failed, got %d sent and %d failed", counts.Sent, counts.Failed)
	}
}
