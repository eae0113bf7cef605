package processor

import (
	"context"
	"testing"

	"phishsim-server/internal/observability"
	"phishsim-server/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"golang.org/x/crypto/bcrypt"
)

// MockAuthStore is a mock implementation of AuthStore
type MockAuthStore struct {
	mock.Mock
}

func (m *MockAuthStore) CheckIfCompanyEmailExists(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *MockAuthStore) CreateCompany(ctx context.Context, params store.CreateCompanyParams) (store.Company, error) {
	args := m.Called(ctx, params)
	return args.Get(0).(store.Company), args.Error(1)
}

func (m *MockAuthStore) GetCompanyByEmail(ctx context.Context, email string) (store.Company, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(store.Company), args.Error(1)
}

func (m *MockAuthStore) GetCompanyByID(ctx context.Context, companyID int64) (store.Company, error) {
	args := m.Called(ctx, companyID)
	return args.Get(0).(store.Company), args.Error(1)
}

func (m *MockAuthStore) UpdateCompanyPassword(ctx context.Context, companyID int64, passwordHash string) error {
	args := m.Called(ctx, companyID, passwordHash)
	return args.Error(0)
}

func hashFor(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	assert.NoError(t, err)
	return string(hash)
}

func TestSignupRejectsDuplicateEmail(t *testing.T) {
	mockStore := new(MockAuthStore)
	logger := observability.NewLogger()
	p := New(mockStore, "secret", logger)

	mockStore.On("CheckIfCompanyEmailExists", mock.Anything, "acme@example.com").Return(true, nil)

	_, err := p.Signup(context.Background(), "Acme", "acme@example.com", "hunter2hunter2")

	assert.ErrorIs(t, err, ErrEmailAlreadyExists)
	mockStore.AssertNotCalled(t, "CreateCompany", mock.Anything, mock.Anything)
}

func TestSignupCreatesCompanyWithHashedPassword(t *testing.T) {
	mockStore := new(MockAuthStore)
	logger := observability.NewLogger()
	p := New(mockStore, "secret", logger)

	mockStore.On("CheckIfCompanyEmailExists", mock.Anything, "acme@example.com").Return(false, nil)
	mockStore.On("CreateCompany", mock.Anything, mock.MatchedBy(func(params store.CreateCompanyParams) bool {
		if params.PasswordHash == "hunter2hunter2" {
			return false
		}
		return bcrypt.CompareHashAndPassword([]byte(params.PasswordHash), []byte("hunter2hunter2")) == nil
	})).Return(store.Company{ID: 1, Name: "Acme", Email: "acme@example.com"}, nil)

	company, err := p.Signup(context.Background(), "Acme", "acme@example.com", "hunter2hunter2")

	assert.NoError(t, err)
	assert.Equal(t, int64(1), company.ID)
	mockStore.AssertExpectations(t)
}

func TestLoginReturnsTokenForValidCredentials(t *testing.T) {
	mockStore := new(MockAuthStore)
	logger := observability.NewLogger()
	p := New(mockStore, "secret", logger)

	mockStore.On("GetCompanyByEmail", mock.Anything, "acme@example.com").Return(store.Company{
		ID:           7,
		Email:        "acme@example.com",
		PasswordHash: hashFor(t, "hunter2hunter2"),
	}, nil)

	token, err := p.Login(context.Background(), "acme@example.com", "hunter2hunter2")
	assert.NoError(t, err)
	assert.NotEmpty(t, token)

	claims, err := p.ValidateJWTToken(context.Background(), token)
	assert.NoError(t, err)
	subject, err := claims.GetSubject()
	assert.NoError(t, err)
	companyID, err := CompanyIDFromSubject(subject)
	assert.NoError(t, err)
	assert.Equal(t, int64(7), companyID)
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	mockStore := new(MockAuthStore)
	logger := observability.NewLogger()
	p := New(mockStore, "secret", logger)

	mockStore.On("GetCompanyByEmail", mock.Anything, "acme@example.com").Return(store.Company{
		ID:           7,
		Email:        "acme@example.com",
		PasswordHash: hashFor(t, "hunter2hunter2"),
	}, nil)

	_, err := p.Login(context.Background(), "acme@example.com", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginRejectsUnknownEmail(t *testing.T) {
	mockStore := new(MockAuthStore)
	logger := observability.NewLogger()
	p := New(mockStore, "secret", logger)

	mockStore.On("GetCompanyByEmail", mock.Anything, "ghost@example.com").Return(store.Company{}, store.ErrNotFound)

	_, err := p.Login(context.Background(), "ghost@example.com", "hunter2hunter2")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestValidateJWTTokenRejectsWrongSecret(t *testing.T) {
	mockStore := new(MockAuthStore)
	logger := observability.NewLogger()
	p := New(mockStore, "secret", logger)
	other := New(mockStore, "different-secret", logger)

	mockStore.On("GetCompanyByEmail", mock.Anything, "acme@example.com").Return(store.Company{
		ID:           7,
		Email:        "acme@example.com",
		PasswordHash: hashFor(t, "hunter2hunter2"),
	}, nil)

	token, err := p.Login(context.Background(), "acme@example.com", "hunter2hunter2")
	assert.NoError(t, err)

	_, err = other.ValidateJWTToken(context.Background(), token)
	assert.ErrorIs(t, err, ErrParseJWTToken)
}

func TestChangePasswordVerifiesCurrentPassword(t *testing.T) {
	mockStore := new(MockAuthStore)
	logger := observability.NewLogger()
	p := New(mockStore, "secret", logger)

	mockStore.On("GetCompanyByID", mock.Anything, int64(7)).Return(store.Company{
		ID:           7,
		PasswordHash: hashFor(t, "old-password-1"),
	}, nil)

	err := p.ChangePassword(context.Background(), 7, "not-the-password", "new-password-1")
	assert.ErrorIs(t, err, ErrIncorrectPassword)
	mockStore.AssertNotCalled(t, "UpdateCompanyPassword", mock.Anything, mock.Anything, mock.Anything)

	mockStore.On("UpdateCompanyPassword", mock.Anything, int64(7), mock.AnythingOfType("string")).Return(nil)
	err = p.ChangePassword(context.Background(), 7, "old-password-1", "new-password-1")
	assert.NoError(t, err)
}
