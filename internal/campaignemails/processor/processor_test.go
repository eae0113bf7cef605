package processor

import (
	"context"
	"errors"
	"testing"

	"phishsim-server/internal/email"
	"phishsim-server/internal/observability"
	"phishsim-server/internal/store"
	"phishsim-server/internal/token"
	"phishsim-server/internal/workers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockDispatchStore is a mock implementation of DispatchStore
type MockDispatchStore struct {
	mock.Mock
}

func (m *MockDispatchStore) GetCampaignForCompany(ctx context.Context, campaignID, companyID int64) (store.Campaign, error) {
	args := m.Called(ctx, campaignID, companyID)
	return args.Get(0).(store.Campaign), args.Error(1)
}

func (m *MockDispatchStore) ListTargetsByCampaign(ctx context.Context, campaignID int64) ([]store.Target, error) {
	args := m.Called(ctx, campaignID)
	return args.Get(0).([]store.Target), args.Error(1)
}

func (m *MockDispatchStore) GetTargetByID(ctx context.Context, targetID int64) (store.Target, error) {
	args := m.Called(ctx, targetID)
	return args.Get(0).(store.Target), args.Error(1)
}

func (m *MockDispatchStore) GetEmailTemplateByType(ctx context.Context, campaignType string) (store.EmailTemplate, error) {
	args := m.Called(ctx, campaignType)
	return args.Get(0).(store.EmailTemplate), args.Error(1)
}

func (m *MockDispatchStore) CreateInteraction(ctx context.Context, campaignID int64, email, action string) (store.Interaction, error) {
	args := m.Called(ctx, campaignID, email, action)
	return args.Get(0).(store.Interaction), args.Error(1)
}

func (m *MockDispatchStore) UpdateCampaignStatus(ctx context.Context, campaignID int64, status string) (store.Campaign, error) {
	args := m.Called(ctx, campaignID, status)
	return args.Get(0).(store.Campaign), args.Error(1)
}

// MockJobQueue is a mock implementation of JobQueue
type MockJobQueue struct {
	mock.Mock
}

func (m *MockJobQueue) Submit(ctx context.Context, job workers.DeliveryJob) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}

func newDispatchProcessor(mockStore *MockDispatchStore, queue *MockJobQueue) DispatchProcessor {
	logger := observability.NewLogger()
	codec := token.NewCodec(0)
	renderer := email.NewService("https://track.example.com")
	return New(mockStore, queue, codec, renderer, logger)
}

func activeCampaign() store.Campaign {
	return store.Campaign{ID: 3, CompanyID: 1, Type: store.CampaignTypePhishing, Status: store.CampaignStatusActive}
}

func validTemplate() store.EmailTemplate {
	return store.EmailTemplate{
		ID:          1,
		Type:        store.CampaignTypePhishing,
		HTMLContent: "<p>Hi {{name}}, click {{fake_link}}</p><img src=\"{{tracking_pixel}}\">",
	}
}

func TestSendCampaignEmailsRequiresActiveCampaign(t *testing.T) {
	for _, status := range []string{
		store.CampaignStatusDraft,
		store.CampaignStatusPaused,
		store.CampaignStatusStopped,
		store.CampaignStatusSent,
	} {
		t.Run(status, func(t *testing.T) {
			mockStore := new(MockDispatchStore)
			queue := new(MockJobQueue)
			p := newDispatchProcessor(mockStore, queue)

			campaign := activeCampaign()
			campaign.Status = status
			mockStore.On("GetCampaignForCompany", mock.Anything, int64(3), int64(1)).Return(campaign, nil)

			_, err := p.SendCampaignEmails(context.Background(), 3, 1)
			assert.ErrorIs(t, err, ErrCampaignNotActive)
			queue.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything)
		})
	}
}

func TestSendCampaignEmailsRequiresTargets(t *testing.T) {
	mockStore := new(MockDispatchStore)
	queue := new(MockJobQueue)
	p := newDispatchProcessor(mockStore, queue)

	mockStore.On("GetCampaignForCompany", mock.Anything, int64(3), int64(1)).Return(activeCampaign(), nil)
	mockStore.On("ListTargetsByCampaign", mock.Anything, int64(3)).Return([]store.Target{}, nil)

	_, err := p.SendCampaignEmails(context.Background(), 3, 1)
	assert.ErrorIs(t, err, ErrNoTargets)
}

func TestSendCampaignEmailsRequiresTemplate(t *testing.T) {
	mockStore := new(MockDispatchStore)
	queue := new(MockJobQueue)
	p := newDispatchProcessor(mockStore, queue)

	mockStore.On("GetCampaignForCompany", mock.Anything, int64(3), int64(1)).Return(activeCampaign(), nil)
	mockStore.On("ListTargetsByCampaign", mock.Anything, int64(3)).Return([]store.Target{
		{ID: 5, CampaignID: 3, Name: "A", Email: "a@corp.example"},
	}, nil)
	mockStore.On("GetEmailTemplateByType", mock.Anything, store.CampaignTypePhishing).
		Return(store.EmailTemplate{}, store.ErrNotFound)

	_, err := p.SendCampaignEmails(context.Background(), 3, 1)
	assert.ErrorIs(t, err, ErrTemplateNotFound)
}

func TestSendCampaignEmailsQueuesEveryTargetAndMarksSent(t *testing.T) {
	mockStore := new(MockDispatchStore)
	queue := new(MockJobQueue)
	p := newDispatchProcessor(mockStore, queue)

	targets := []store.Target{
		{ID: 5, CampaignID: 3, Name: "A", Email: "a@corp.example"},
		{ID: 6, CampaignID: 3, Name: "B", Email: "b@corp.example"},
		{ID: 7, CampaignID: 3, Name: "C", Email: "c@corp.example"},
	}

	mockStore.On("GetCampaignForCompany", mock.Anything, int64(3), int64(1)).Return(activeCampaign(), nil)
	mockStore.On("ListTargetsByCampaign", mock.Anything, int64(3)).Return(targets, nil)
	mockStore.On("GetEmailTemplateByType", mock.Anything, store.CampaignTypePhishing).Return(validTemplate(), nil)
	mockStore.On("CreateInteraction", mock.Anything, int64(3), mock.AnythingOfType("string"), store.ActionSent).
		Return(store.Interaction{ID: 100, CampaignID: 3, ActionType: store.ActionSent}, nil)
	mockStore.On("UpdateCampaignStatus", mock.Anything, int64(3), store.CampaignStatusSent).
		Return(store.Campaign{ID: 3, Status: store.CampaignStatusSent}, nil)
	queue.On("Submit", mock.Anything, mock.AnythingOfType("workers.DeliveryJob")).Return(nil)

	result, err := p.SendCampaignEmails(context.Background(), 3, 1)

	assert.NoError(t, err)
	assert.Equal(t, 3, result.Success)
	assert.Equal(t, 0, result.Failed)
	assert.Empty(t, result.Errors)
	queue.AssertNumberOfCalls(t, "Submit", 3)
	mockStore.AssertNumberOfCalls(t, "CreateInteraction", 3)
	mockStore.AssertExpectations(t)
}

func TestSendCampaignEmailsCollectsPerTargetFailures(t *testing.T) {
	mockStore := new(MockDispatchStore)
	queue := new(MockJobQueue)
	p := newDispatchProcessor(mockStore, queue)

	targets := []store.Target{
		{ID: 5, CampaignID: 3, Name: "A", Email: "a@corp.example"},
		{ID: 6, CampaignID: 3, Name: "B", Email: "b@corp.example"},
	}

	mockStore.On("GetCampaignForCompany", mock.Anything, int64(3), int64(1)).Return(activeCampaign(), nil)
	mockStore.On("ListTargetsByCampaign", mock.Anything, int64(3)).Return(targets, nil)
	mockStore.On("GetEmailTemplateByType", mock.Anything, store.CampaignTypePhishing).Return(validTemplate(), nil)
	mockStore.On("CreateInteraction", mock.Anything, int64(3), "a@corp.example", store.ActionSent).
		Return(store.Interaction{}, errors.New("insert failed"))
	mockStore.On("CreateInteraction", mock.Anything, int64(3), "b@corp.example", store.ActionSent).
		Return(store.Interaction{ID: 101, CampaignID: 3}, nil)
	mockStore.On("UpdateCampaignStatus", mock.Anything, int64(3), store.CampaignStatusSent).
		Return(store.Campaign{ID: 3, Status: store.CampaignStatusSent}, nil)
	queue.On("Submit", mock.Anything, mock.AnythingOfType("workers.DeliveryJob")).Return(nil)

	result, err := p.SendCampaignEmails(context.Background(), 3, 1)

	assert.NoError(t, err)
	assert.Equal(t, 1, result.Success)
	assert.Equal(t, 1, result.Failed)
	assert.Len(t, result.Errors, 1)
	assert.Equal(t, "a@corp.example", result.Errors[0].TargetEmail)
	queue.AssertNumberOfCalls(t, "Submit", 1)
}

func TestSendCampaignEmailsRenderFailureLeavesNoSentEvent(t *testing.T) {
	mockStore := new(MockDispatchStore)
	queue := new(MockJobQueue)
	p := newDispatchProcessor(mockStore, queue)

	mockStore.On("GetCampaignForCompany", mock.Anything, int64(3), int64(1)).Return(activeCampaign(), nil)
	mockStore.On("ListTargetsByCampaign", mock.Anything, int64(3)).Return([]store.Target{
		{ID: 5, CampaignID: 3, Name: "A", Email: "a@corp.example"},
	}, nil)
	mockStore.On("GetEmailTemplateByType", mock.Anything, store.CampaignTypePhishing).
		Return(store.EmailTemplate{ID: 1, Type: store.CampaignTypePhishing, HTMLContent: "   "}, nil)
	mockStore.On("UpdateCampaignStatus", mock.Anything, int64(3), store.CampaignStatusSent).
		Return(store.Campaign{ID: 3, Status: store.CampaignStatusSent}, nil)

	result, err := p.SendCampaignEmails(context.Background(), 3, 1)

	assert.NoError(t, err)
	assert.Equal(t, 0, result.Success)
	assert.Equal(t, 1, result.Failed)
	mockStore.AssertNotCalled(t, "CreateInteraction", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	queue.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything)
}

func TestResendEmailChecksTargetBelongsToCampaign(t *testing.T) {
	mockStore := new(MockDispatchStore)
	queue := new(MockJobQueue)
	p := newDispatchProcessor(mockStore, queue)

	mockStore.On("GetCampaignForCompany", mock.Anything, int64(3), int64(1)).Return(activeCampaign(), nil)
	mockStore.On("GetTargetByID", mock.Anything, int64(99)).
		Return(store.Target{ID: 99, CampaignID: 4, Email: "x@corp.example"}, nil)

	err := p.ResendEmail(context.Background(), 3, 1, 99)
	assert.ErrorIs(t, err, ErrTargetNotFound)
	queue.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything)
}

func TestResendEmailQueuesFreshJob(t *testing.T) {
	mockStore := new(MockDispatchStore)
	queue := new(MockJobQueue)
	p := newDispatchProcessor(mockStore, queue)

	mockStore.On("GetCampaignForCompany", mock.Anything, int64(3), int64(1)).Return(activeCampaign(), nil)
	mockStore.On("GetTargetByID", mock.Anything, int64(5)).
		Return(store.Target{ID: 5, CampaignID: 3, Name: "A", Email: "a@corp.example"}, nil)
	mockStore.On("GetEmailTemplateByType", mock.Anything, store.CampaignTypePhishing).Return(validTemplate(), nil)
	mockStore.On("CreateInteraction", mock.Anything, int64(3), "a@corp.example", store.ActionSent).
		Return(store.Interaction{ID: 102, CampaignID: 3}, nil)
	queue.On("Submit", mock.Anything, mock.AnythingOfType("workers.DeliveryJob")).Return(nil)

	err := p.ResendEmail(context.Background(), 3, 1, 5)
	assert.NoError(t, err)
	queue.AssertNumberOfCalls(t, "Submit", 1)
}

func TestCancelCampaignEmails(t *testing.T) {
	mockStore := new(MockDispatchStore)
	queue := new(MockJobQueue)
	p := newDispatchProcessor(mockStore, queue)

	mockStore.On("GetCampaignForCompany", mock.Anything, int64(3), int64(1)).Return(activeCampaign(), nil)
	mockStore.On("UpdateCampaignStatus", mock.Anything, int64(3), store.CampaignStatusCancelled).
		Return(store.Campaign{ID: 3, Status: store.CampaignStatusCancelled}, nil)

	campaign, err := p.CancelCampaignEmails(context.Background(), 3, 1)
	assert.NoError(t, err)
	assert.Equal(t, store.CampaignStatusCancelled, campaign.Status)
}
