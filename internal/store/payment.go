package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"phishsim-server/internal/observability"
)

// CreatePaymentParams holds the inputs for recording a checkout attempt.
type CreatePaymentParams struct {
	CompanyID     int64
	PlanID        int64
	Amount        int64
	Status        string
	TransactionID string
}

const sqlCreatePayment = `
INSERT INTO payments (company_id, plan_id, amount, status, transaction_id, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
RETURNING id, company_id, plan_id, amount, status, transaction_id, created_at, updated_at
`

// CreatePayment records a payment attempt.
func (s *Store) CreatePayment(ctx context.Context, params CreatePaymentParams) (Payment, error) {
	ctx = observability.WithFields(ctx,
		observability.Field{Key: "company_id", Value: params.CompanyID},
		observability.Field{Key: "transaction_id", Value: params.TransactionID},
	)

	var payment Payment
	err := s.db.GetContext(ctx, &payment, sqlCreatePayment,
		params.CompanyID, params.PlanID, params.Amount, params.Status, params.TransactionID)
	if err != nil {
		s.logger.Error(ctx, "failed to create payment", err)
		return Payment{}, fmt.Errorf("failed to create payment: %w", err)
	}

	s.logger.Info(ctx, "payment created")
	return payment, nil
}

const sqlGetPaymentByTransactionID = `
SELECT id, company_id, plan_id, amount, status, transaction_id, created_at, updated_at
FROM payments
WHERE transaction_id = $1
`

// GetPaymentByTransactionID retrieves a payment by its gateway transaction id.
func (s *Store) GetPaymentByTransactionID(ctx context.Context, transactionID string) (Payment, error) {
	var payment Payment
	err := s.db.GetContext(ctx, &payment, sqlGetPaymentByTransactionID, transactionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Payment{}, ErrNotFound
		}
		s.logger.Error(ctx, "failed to get payment by transaction id", err)
		return Payment{}, fmt.Errorf("failed to get payment by transaction id: %w", err)
	}
	return payment, nil
}

const sqlUpdatePaymentStatus = `
UPDATE payments
SET status = $2, updated_at = CURRENT_TIMESTAMP
WHERE id = $1
RETURNING id, company_id, plan_id, amount, status, transaction_id, created_at, updated_at
`

// UpdatePaymentStatus transitions a payment to a new status.
func (s *Store) UpdatePaymentStatus(ctx context.Context, paymentID int64, status string) (Payment, error) {
	ctx = observability.WithFields(ctx,
		observability.Field{Key: "payment_id", Value: paymentID},
		observability.Field{Key: "status", Value: status},
	)

	var payment Payment
	err := s.db.GetContext(ctx, &payment, sqlUpdatePaymentStatus, paymentID, status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Payment{}, ErrNotFound
		}
		s.logger.Error(ctx, "failed to update payment status", err)
		return Payment{}, fmt.Errorf("failed to update payment status: %w", err)
	}

	s.logger.Info(ctx, "payment status updated")
	return payment, nil
}

const sqlListPaymentsByCompany = `
SELECT id, company_id, plan_id, amount, status, transaction_id, created_at, updated_at
FROM payments
WHERE company_id = $1
ORDER BY created_at DESC
`

// ListPaymentsByCompany retrieves a company's payment history, newest first.
func (s *Store) ListPaymentsByCompany(ctx context.Context, companyID int64) ([]Payment, error) {
	var payments []Payment
	err := s.db.SelectContext(ctx, &payments, sqlListPaymentsByCompany, companyID)
	if err != nil {
		s.logger.Error(ctx, "failed to list payments by company", err)
		return nil, fmt.Errorf("failed to list payments by company: %w", err)
	}
	return payments, nil
}
