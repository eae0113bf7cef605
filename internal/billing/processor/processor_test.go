package processor

import (
	"context"
	"strings"
	"testing"

	"phishsim-server/internal/observability"
	"phishsim-server/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockBillingStore is a mock implementation of BillingStore
type MockBillingStore struct {
	mock.Mock
}

func (m *MockBillingStore) ListPlans(ctx context.Context) ([]store.Plan, error) {
	args := m.Called(ctx)
	return args.Get(0).([]store.Plan), args.Error(1)
}

func (m *MockBillingStore) GetPlanByID(ctx context.Context, planID int64) (store.Plan, error) {
	args := m.Called(ctx, planID)
	return args.Get(0).(store.Plan), args.Error(1)
}

func (m *MockBillingStore) CreatePayment(ctx context.Context, params store.CreatePaymentParams) (store.Payment, error) {
	args := m.Called(ctx, params)
	return args.Get(0).(store.Payment), args.Error(1)
}

func (m *MockBillingStore) GetPaymentByTransactionID(ctx context.Context, transactionID string) (store.Payment, error) {
	args := m.Called(ctx, transactionID)
	return args.Get(0).(store.Payment), args.Error(1)
}

func (m *MockBillingStore) UpdatePaymentStatus(ctx context.Context, paymentID int64, status string) (store.Payment, error) {
	args := m.Called(ctx, paymentID, status)
	return args.Get(0).(store.Payment), args.Error(1)
}

func (m *MockBillingStore) ListPaymentsByCompany(ctx context.Context, companyID int64) ([]store.Payment, error) {
	args := m.Called(ctx, companyID)
	return args.Get(0).([]store.Payment), args.Error(1)
}

func (m *MockBillingStore) UpdateCompanyPlan(ctx context.Context, companyID, planID int64) (store.Company, error) {
	args := m.Called(ctx, companyID, planID)
	return args.Get(0).(store.Company), args.Error(1)
}

// stubGateway answers verification deterministically.
type stubGateway struct {
	verified bool
	err      error
}

func (g stubGateway) VerifyPayment(_ context.Context, _ string) (bool, error) {
	return g.verified, g.err
}

func newBillingProcessor(mockStore *MockBillingStore, gateway Gateway) BillingProcessor {
	return New(mockStore, gateway, "https://app.example.com", observability.NewLogger())
}

func pendingPaymentFixture() store.Payment {
	return store.Payment{
		ID:            5,
		CompanyID:     1,
		PlanID:        2,
		Amount:        4900,
		Status:        store.PaymentStatusPending,
		TransactionID: "txn_abc",
	}
}

func TestInitiateCheckout(t *testing.T) {
	mockStore := new(MockBillingStore)
	p := newBillingProcessor(mockStore, stubGateway{verified: true})

	plan := store.Plan{ID: 2, Name: "pro", Price: 4900}
	mockStore.On("GetPlanByID", mock.Anything, int64(2)).Return(plan, nil)
	mockStore.On("CreatePayment", mock.Anything, mock.MatchedBy(func(params store.CreatePaymentParams) bool {
		return params.CompanyID == 1 &&
			params.PlanID == 2 &&
			params.Amount == 4900 &&
			params.Status == store.PaymentStatusPending &&
			strings.HasPrefix(params.TransactionID, "txn_")
	})).Return(store.Payment{ID: 5, TransactionID: "txn_abc"}, nil)

	checkout, err := p.InitiateCheckout(context.Background(), 1, 2)

	assert.NoError(t, err)
	assert.Equal(t, int64(5), checkout.PaymentID)
	assert.Equal(t, int64(4900), checkout.Amount)
	assert.Contains(t, checkout.CheckoutURL, "https://app.example.com/checkout/")
	assert.Contains(t, checkout.CheckoutURL, "plan=pro")
	mockStore.AssertExpectations(t)
}

func TestInitiateCheckoutUnknownPlan(t *testing.T) {
	mockStore := new(MockBillingStore)
	p := newBillingProcessor(mockStore, stubGateway{verified: true})

	mockStore.On("GetPlanByID", mock.Anything, int64(9)).Return(store.Plan{}, store.ErrNotFound)

	_, err := p.InitiateCheckout(context.Background(), 1, 9)

	assert.ErrorIs(t, err, ErrPlanNotFound)
	mockStore.AssertNotCalled(t, "CreatePayment", mock.Anything, mock.Anything)
}

func TestConfirmPaymentSuccess(t *testing.T) {
	mockStore := new(MockBillingStore)
	p := newBillingProcessor(mockStore, stubGateway{verified: true})

	payment := pendingPaymentFixture()
	completed := payment
	completed.Status = store.PaymentStatusCompleted

	mockStore.On("GetPaymentByTransactionID", mock.Anything, "txn_abc").Return(payment, nil)
	mockStore.On("UpdatePaymentStatus", mock.Anything, payment.ID, store.PaymentStatusCompleted).Return(completed, nil)
	mockStore.On("UpdateCompanyPlan", mock.Anything, payment.CompanyID, payment.PlanID).Return(store.Company{ID: 1}, nil)

	got, err := p.ConfirmPayment(context.Background(), 1, "txn_abc")

	assert.NoError(t, err)
	assert.Equal(t, store.PaymentStatusCompleted, got.Status)
	mockStore.AssertExpectations(t)
}

func TestConfirmPaymentDeclined(t *testing.T) {
	mockStore := new(MockBillingStore)
	p := newBillingProcessor(mockStore, stubGateway{verified: false})

	payment := pendingPaymentFixture()
	failed := payment
	failed.Status = store.PaymentStatusFailed

	mockStore.On("GetPaymentByTransactionID", mock.Anything, "txn_abc").Return(payment, nil)
	mockStore.On("UpdatePaymentStatus", mock.Anything, payment.ID, store.PaymentStatusFailed).Return(failed, nil)

	got, err := p.ConfirmPayment(context.Background(), 1, "txn_abc")

	assert.ErrorIs(t, err, ErrPaymentDeclined)
	assert.Equal(t, store.PaymentStatusFailed, got.Status)
	// A declined payment never touches the company plan.
	mockStore.AssertNotCalled(t, "UpdateCompanyPlan", mock.Anything, mock.Anything, mock.Anything)
}

func TestConfirmPaymentNotPending(t *testing.T) {
	mockStore := new(MockBillingStore)
	p := newBillingProcessor(mockStore, stubGateway{verified: true})

	payment := pendingPaymentFixture()
	payment.Status = store.PaymentStatusCompleted
	mockStore.On("GetPaymentByTransactionID", mock.Anything, "txn_abc").Return(payment, nil)

	_, err := p.ConfirmPayment(context.Background(), 1, "txn_abc")

	assert.ErrorIs(t, err, ErrPaymentNotPending)
}

func TestConfirmPaymentWrongCompany(t *testing.T) {
	mockStore := new(MockBillingStore)
	p := newBillingProcessor(mockStore, stubGateway{verified: true})

	mockStore.On("GetPaymentByTransactionID", mock.Anything, "txn_abc").Return(pendingPaymentFixture(), nil)

	_, err := p.ConfirmPayment(context.Background(), 2, "txn_abc")

	assert.ErrorIs(t, err, ErrPaymentNotFound)
}

func TestCancelPayment(t *testing.T) {
	mockStore := new(MockBillingStore)
	p := newBillingProcessor(mockStore, stubGateway{verified: true})

	payment := pendingPaymentFixture()
	cancelled := payment
	cancelled.Status = store.PaymentStatusCancelled

	mockStore.On("GetPaymentByTransactionID", mock.Anything, "txn_abc").Return(payment, nil)
	mockStore.On("UpdatePaymentStatus", mock.Anything, payment.ID, store.PaymentStatusCancelled).Return(cancelled, nil)

	got, err := p.CancelPayment(context.Background(), 1, "txn_abc")

	assert.NoError(t, err)
	assert.Equal(t, store.PaymentStatusCancelled, got.Status)
}

func TestCancelPaymentRequiresPending(t *testing.T) {
	mockStore := new(MockBillingStore)
	p := newBillingProcessor(mockStore, stubGateway{verified: true})

	payment := pendingPaymentFixture()
	payment.Status = store.PaymentStatusCancelled
	mockStore.On("GetPaymentByTransactionID", mock.Anything, "txn_abc").Return(payment, nil)

	_, err := p.CancelPayment(context.Background(), 1, "txn_abc")

	assert.ErrorIs(t, err, ErrPaymentNotPending)
}

func TestPaymentHistoryTotals(t *testing.T) {
	mockStore := new(MockBillingStore)
	p := newBillingProcessor(mockStore, stubGateway{verified: true})

	payments := []store.Payment{
		{ID: 1, CompanyID: 1, Amount: 4900, Status: store.PaymentStatusCompleted},
		{ID: 2, CompanyID: 1, Amount: 9900, Status: store.PaymentStatusCompleted},
		{ID: 3, CompanyID: 1, Amount: 4900, Status: store.PaymentStatusFailed},
		{ID: 4, CompanyID: 1, Amount: 4900, Status: store.PaymentStatusPending},
	}
	mockStore.On("ListPaymentsByCompany", mock.Anything, int64(1)).Return(payments, nil)

	history, err := p.PaymentHistory(context.Background(), 1)

	assert.NoError(t, err)
	assert.Equal(t, 4, history.TotalPayments)
	assert.Equal(t, int64(14800), history.TotalAmount)
}

func TestPaymentStatusUnknownTransaction(t *testing.T) {
	mockStore := new(MockBillingStore)
	p := newBillingProcessor(mockStore, stubGateway{verified: true})

	mockStore.On("GetPaymentByTransactionID", mock.Anything, "txn_missing").Return(store.Payment{}, store.ErrNotFound)

	_, err := p.PaymentStatus(context.Background(), 1, "txn_missing")

	assert.ErrorIs(t, err, ErrPaymentNotFound)
}
