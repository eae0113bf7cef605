package processor

import (
	"context"
	"errors"
	"strconv"

	"phishsim-server/internal/observability"
	"phishsim-server/internal/store"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrEmailAlreadyExists = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrIncorrectPassword  = errors.New("incorrect password")
	ErrCompanyNotFound    = errors.New("company not found")
)

// AuthStore defines the database operations required by AuthProcessor.
type AuthStore interface {
	CheckIfCompanyEmailExists(ctx context.Context, email string) (bool, error)
	CreateCompany(ctx context.Context, params store.CreateCompanyParams) (store.Company, error)
	GetCompanyByEmail(ctx context.Context, email string) (store.Company, error)
	GetCompanyByID(ctx context.Context, companyID int64) (store.Company, error)
	UpdateCompanyPassword(ctx context.Context, companyID int64, passwordHash string) error
}

type AuthProcessor struct {
	store     AuthStore
	jwtSecret string
	logger    *observability.Logger
}

func New(authStore AuthStore, jwtSecret string, logger *observability.Logger) AuthProcessor {
	return AuthProcessor{
		store:     authStore,
		jwtSecret: jwtSecret,
		logger:    logger,
	}
}

// CompanyProfile is the account representation returned to API clients.
type CompanyProfile struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	PlanID *int64 `json:"plan_id,omitempty"`
}

func (p *AuthProcessor) Signup(ctx context.Context, name, email, password string) (CompanyProfile, error) {
	ctx = observability.WithFields(ctx, observability.Field{Key: "email", Value: email})

	exists, err := p.store.CheckIfCompanyEmailExists(ctx, email)
	if err != nil {
		p.logger.Error(ctx, "failed to check if email exists", err)
		return CompanyProfile{}, err
	}
	if exists {
		return CompanyProfile{}, ErrEmailAlreadyExists
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		p.logger.Error(ctx, "failed to hash password", err)
		return CompanyProfile{}, err
	}

	company, err := p.store.CreateCompany(ctx, store.CreateCompanyParams{
		Name:         name,
		Email:        email,
		PasswordHash: string(hashedPassword),
	})
	if err != nil {
		p.logger.Error(ctx, "failed to create company", err)
		return CompanyProfile{}, err
	}

	return CompanyProfile{
		ID:    company.ID,
		Name:  company.Name,
		Email: company.Email,
	}, nil
}

func (p *AuthProcessor) Login(ctx context.Context, email, password string) (string, error) {
	ctx = observability.WithFields(ctx, observability.Field{Key: "email", Value: email})

	company, err := p.store.GetCompanyByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", ErrInvalidCredentials
		}
		p.logger.Error(ctx, "failed to get company by email", err)
		return "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(company.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	token, err := p.generateJWTToken(ctx, company)
	if err != nil {
		p.logger.Error(ctx, "failed to generate jwt token", err)
		return "", err
	}
	return token, nil
}

func (p *AuthProcessor) Me(ctx context.Context, companyID int64) (CompanyProfile, error) {
	company, err := p.store.GetCompanyByID(ctx, companyID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return CompanyProfile{}, ErrCompanyNotFound
		}
		p.logger.Error(ctx, "failed to get company by id", err)
		return CompanyProfile{}, err
	}
	return CompanyProfile{
		ID:     company.ID,
		Name:   company.Name,
		Email:  company.Email,
		PlanID: company.PlanID,
	}, nil
}

func (p *AuthProcessor) ChangePassword(ctx context.Context, companyID int64, currentPassword, newPassword string) error {
	company, err := p.store.GetCompanyByID(ctx, companyID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrCompanyNotFound
		}
		p.logger.Error(ctx, "failed to get company by id", err)
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(company.PasswordHash), []byte(currentPassword)); err != nil {
		return ErrIncorrectPassword
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		p.logger.Error(ctx, "failed to hash password", err)
		return err
	}

	if err := p.store.UpdateCompanyPassword(ctx, companyID, string(hashedPassword)); err != nil {
		p.logger.Error(ctx, "failed to update password", err)
		return err
	}
	return nil
}

// CompanyIDFromSubject decodes the JWT subject back into a company id.
func CompanyIDFromSubject(subject string) (int64, error) {
	return strconv.ParseInt(subject, 10, 64)
}
