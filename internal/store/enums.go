package store

// Campaign ENUMs
const (
	CampaignStatusDraft     = "draft"
	CampaignStatusActive    = "active"
	CampaignStatusPaused    = "paused"
	CampaignStatusStopped   = "stopped"
	CampaignStatusSent      = "sent"
	CampaignStatusCompleted = "completed"
	CampaignStatusCancelled = "cancelled"
)

const (
	CampaignTypePhishing  = "phishing"
	CampaignTypeAwareness = "awareness"
	CampaignTypeTraining  = "training"
)

// ValidCampaignTypes lists the accepted campaign types.
var ValidCampaignTypes = []string{
	CampaignTypePhishing,
	CampaignTypeAwareness,
	CampaignTypeTraining,
}

// IsValidCampaignType reports whether t is a known campaign type.
func IsValidCampaignType(t string) bool {
	for _, valid := range ValidCampaignTypes {
		if t == valid {
			return true
		}
	}
	return false
}

// Interaction ENUMs
const (
	ActionSent      = "sent"
	ActionOpened    = "opened"
	ActionClicked   = "clicked"
	ActionSubmitted = "submitted"
	ActionFailed    = "failed"
)

// actionRanks orders interaction actions by how far a target has progressed.
// A later action never regresses to an earlier one.
var actionRanks = map[string]int{
	ActionSent:      0,
	ActionOpened:    1,
	ActionClicked:   2,
	ActionSubmitted: 3,
	ActionFailed:    4,
}

// ActionRank returns the progression rank of an interaction action, or -1
// for an unknown action.
func ActionRank(action string) int {
	rank, ok := actionRanks[action]
	if !ok {
		return -1
	}
	return rank
}

// IsValidAction reports whether action is a known interaction action.
func IsValidAction(action string) bool {
	_, ok := actionRanks[action]
	return ok
}

// Payment ENUMs
const (
	PaymentStatusPending   = "pending"
	PaymentStatusCompleted = "completed"
	PaymentStatusFailed    = "failed"
	PaymentStatusCancelled = "cancelled"
)
