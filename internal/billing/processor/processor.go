package processor

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"phishsim-server/internal/observability"
	"phishsim-server/internal/store"
)

var (
	ErrPlanNotFound      = errors.New("plan not found")
	ErrPaymentNotFound   = errors.New("payment not found")
	ErrPaymentDeclined   = errors.New("payment declined by gateway")
	ErrPaymentNotPending = errors.New("payment is not pending")
)

// Gateway verifies a transaction with the payment provider. The production
// implementation is simulated; tests inject a deterministic double.
type Gateway interface {
	VerifyPayment(ctx context.Context, transactionID string) (bool, error)
}

// BillingStore is the narrow store surface the billing processor needs.
type BillingStore interface {
	ListPlans(ctx context.Context) ([]store.Plan, error)
	GetPlanByID(ctx context.Context, planID int64) (store.Plan, error)
	CreatePayment(ctx context.Context, params store.CreatePaymentParams) (store.Payment, error)
	GetPaymentByTransactionID(ctx context.Context, transactionID string) (store.Payment, error)
	UpdatePaymentStatus(ctx context.Context, paymentID int64, status string) (store.Payment, error)
	ListPaymentsByCompany(ctx context.Context, companyID int64) ([]store.Payment, error)
	UpdateCompanyPlan(ctx context.Context, companyID, planID int64) (store.Company, error)
}

type BillingProcessor struct {
	billingStore BillingStore
	gateway      Gateway
	checkoutBase string
	logger       *observability.Logger
}

func New(billingStore BillingStore, gateway Gateway, appBaseURL string, logger *observability.Logger) BillingProcessor {
	return BillingProcessor{
		billingStore: billingStore,
		gateway:      gateway,
		checkoutBase: strings.TrimRight(appBaseURL, "/"),
		logger:       logger,
	}
}

// Checkout is the initiated payment handed back to the client.
type Checkout struct {
	PaymentID     int64      `json:"payment_id"`
	TransactionID string     `json:"transaction_id"`
	CheckoutURL   string     `json:"checkout_url"`
	Amount        int64      `json:"amount"`
	Plan          store.Plan `json:"plan"`
}

// History is a company's payment list with the completed total.
type History struct {
	Payments      []store.Payment `json:"payments"`
	TotalPayments int             `json:"total_payments"`
	TotalAmount   int64           `json:"total_amount"`
}

func (p *BillingProcessor) ListPlans(ctx context.Context) ([]store.Plan, error) {
	plans, err := p.billingStore.ListPlans(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}
	return plans, nil
}

// InitiateCheckout creates a pending payment for the plan and returns a
// simulated checkout URL keyed by a fresh transaction id.
func (p *BillingProcessor) InitiateCheckout(ctx context.Context, companyID, planID int64) (Checkout, error) {
	plan, err := p.billingStore.GetPlanByID(ctx, planID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Checkout{}, ErrPlanNotFound
		}
		return Checkout{}, fmt.Errorf("failed to load plan: %w", err)
	}

	transactionID := newTransactionID()
	payment, err := p.billingStore.CreatePayment(ctx, store.CreatePaymentParams{
		CompanyID:     companyID,
		PlanID:        planID,
		Amount:        plan.Price,
		Status:        store.PaymentStatusPending,
		TransactionID: transactionID,
	})
	if err != nil {
		return Checkout{}, fmt.Errorf("failed to create payment: %w", err)
	}

	p.logger.Info(observability.WithFields(ctx,
		observability.Field{Key: "transaction_id", Value: transactionID},
		observability.Field{Key: "plan_id", Value: planID},
	), "checkout initiated")

	return Checkout{
		PaymentID:     payment.ID,
		TransactionID: transactionID,
		CheckoutURL:   fmt.Sprintf("%s/checkout/%s?plan=%s&amount=%d", p.checkoutBase, transactionID, plan.Name, plan.Price),
		Amount:        plan.Price,
		Plan:          plan,
	}, nil
}

// ConfirmPayment verifies a pending transaction with the gateway. On
// success the payment completes and the company moves to the purchased
// plan; on decline the payment is marked failed and the plan is untouched.
func (p *BillingProcessor) ConfirmPayment(ctx context.Context, companyID int64, transactionID string) (store.Payment, error) {
	payment, err := p.pendingPayment(ctx, companyID, transactionID)
	if err != nil {
		return store.Payment{}, err
	}

	verified, err := p.gateway.VerifyPayment(ctx, transactionID)
	if err != nil {
		return store.Payment{}, fmt.Errorf("gateway verification failed: %w", err)
	}

	if !verified {
		failed, err := p.billingStore.UpdatePaymentStatus(ctx, payment.ID, store.PaymentStatusFailed)
		if err != nil {
			return store.Payment{}, fmt.Errorf("failed to mark payment failed: %w", err)
		}
		p.logger.Info(observability.WithFields(ctx,
			observability.Field{Key: "transaction_id", Value: transactionID},
		), "payment declined by gateway")
		return failed, ErrPaymentDeclined
	}

	completed, err := p.billingStore.UpdatePaymentStatus(ctx, payment.ID, store.PaymentStatusCompleted)
	if err != nil {
		return store.Payment{}, fmt.Errorf("failed to mark payment completed: %w", err)
	}

	if _, err := p.billingStore.UpdateCompanyPlan(ctx, payment.CompanyID, payment.PlanID); err != nil {
		return store.Payment{}, fmt.Errorf("failed to update company plan: %w", err)
	}

	p.logger.Info(observability.WithFields(ctx,
		observability.Field{Key: "transaction_id", Value: transactionID},
		observability.Field{Key: "plan_id", Value: payment.PlanID},
	), "payment confirmed, company plan updated")

	return completed, nil
}

// PaymentStatus returns the company's payment for a transaction id.
func (p *BillingProcessor) PaymentStatus(ctx context.Context, companyID int64, transactionID string) (store.Payment, error) {
	payment, err := p.billingStore.GetPaymentByTransactionID(ctx, transactionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.Payment{}, ErrPaymentNotFound
		}
		return store.Payment{}, fmt.Errorf("failed to load payment: %w", err)
	}
	if payment.CompanyID != companyID {
		return store.Payment{}, ErrPaymentNotFound
	}
	return payment, nil
}

// CancelPayment cancels a pending transaction.
func (p *BillingProcessor) CancelPayment(ctx context.Context, companyID int64, transactionID string) (store.Payment, error) {
	payment, err := p.pendingPayment(ctx, companyID, transactionID)
	if err != nil {
		return store.Payment{}, err
	}

	cancelled, err := p.billingStore.UpdatePaymentStatus(ctx, payment.ID, store.PaymentStatusCancelled)
	if err != nil {
		return store.Payment{}, fmt.Errorf("failed to cancel payment: %w", err)
	}
	return cancelled, nil
}

// PaymentHistory lists a company's payments newest first with the sum of
// completed amounts.
func (p *BillingProcessor) PaymentHistory(ctx context.Context, companyID int64) (History, error) {
	payments, err := p.billingStore.ListPaymentsByCompany(ctx, companyID)
	if err != nil {
		return History{}, fmt.Errorf("failed to list payments: %w", err)
	}

	var total int64
	for _, payment := range payments {
		if payment.Status == store.PaymentStatusCompleted {
			total += payment.Amount
		}
	}

	return History{
		Payments:      payments,
		TotalPayments: len(payments),
		TotalAmount:   total,
	}, nil
}

func (p *BillingProcessor) pendingPayment(ctx context.Context, companyID int64, transactionID string) (store.Payment, error) {
	payment, err := p.billingStore.GetPaymentByTransactionID(ctx, transactionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.Payment{}, ErrPaymentNotFound
		}
		return store.Payment{}, fmt.Errorf("failed to load payment: %w", err)
	}
	if payment.CompanyID != companyID {
		return store.Payment{}, ErrPaymentNotFound
	}
	if payment.Status != store.PaymentStatusPending {
		return store.Payment{}, ErrPaymentNotPending
	}
	return payment, nil
}
