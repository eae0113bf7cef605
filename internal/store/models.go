package store

import (
	"time"
)

// Company is the tenant that owns campaigns, targets and payments.
type Company struct {
	ID           int64     `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	PlanID       *int64    `db:"plan_id" json:"plan_id,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// Plan is a subscription tier a company can purchase.
type Plan struct {
	ID         int64     `db:"id" json:"id"`
	Name       string    `db:"name" json:"name"`
	Price      int64     `db:"price" json:"price"` // cents
	MaxTargets int       `db:"max_targets" json:"max_targets"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// Payment records a simulated purchase of a plan.
type Payment struct {
	ID            int64     `db:"id" json:"id"`
	CompanyID     int64     `db:"company_id" json:"company_id"`
	PlanID        int64     `db:"plan_id" json:"plan_id"`
	Amount        int64     `db:"amount" json:"amount"` // cents
	Status        string    `db:"status" json:"status"`
	TransactionID string    `db:"transaction_id" json:"transaction_id"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// Campaign is a time-boxed phishing/awareness/training exercise.
type Campaign struct {
	ID        int64     `db:"id" json:"id"`
	CompanyID int64     `db:"company_id" json:"company_id"`
	Type      string    `db:"type" json:"type"`
	Status    string    `db:"status" json:"status"`
	StartDate time.Time `db:"start_date" json:"start_date"`
	EndDate   time.Time `db:"end_date" json:"end_date"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Target is an employee enrolled in a campaign. Targets are immutable once
// created.
type Target struct {
	ID         int64     `db:"id" json:"id"`
	CampaignID int64     `db:"campaign_id" json:"campaign_id"`
	Name       string    `db:"name" json:"name"`
	Email      string    `db:"email" json:"email"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// Interaction is one row of the append-only interaction event log.
type Interaction struct {
	ID         int64     `db:"id" json:"id"`
	CampaignID int64     `db:"campaign_id" json:"campaign_id"`
	Email      string    `db:"email" json:"email"`
	ActionType string    `db:"action_type" json:"action_type"`
	OccurredAt time.Time `db:"occurred_at" json:"occurred_at"`
}

// EmailTemplate is the HTML body sent to targets, matched to campaigns by
// type. Placeholders are substituted literally at dispatch time.
type EmailTemplate struct {
	ID          int64     `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Type        string    `db:"type" json:"type"`
	Subject     string    `db:"subject" json:"subject"`
	HTMLContent string    `db:"html_content" json:"html_content"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}
