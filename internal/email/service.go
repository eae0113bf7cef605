// Package email renders campaign email content. Templates are stored in the
// database with literal placeholders, substituted per target at dispatch
// time.
package email

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"

	"phishsim-server/internal/store"
)

var ErrEmptyTemplate = errors.New("email template is empty")

// Subject lines are drawn at random from a pool matching the campaign type.
// Unknown types fall back to the phishing pool.
var subjectPools = map[string][]string{
	store.CampaignTypePhishing: {
		"Urgent: Verify Your Account Security",
		"Action Required: Suspicious Activity Detected",
		"Important: Update Your Password Immediately",
		"Security Alert: Unauthorized Login Attempt",
		"Account Verification Required",
	},
	store.CampaignTypeAwareness: {
		"Security Training: Phishing Awareness",
		"Monthly Security Update",
		"Cybersecurity Best Practices",
		"Security Awareness Training",
		"Protect Your Digital Identity",
	},
	store.CampaignTypeTraining: {
		"Security Training Module Available",
		"Complete Your Security Training",
		"New Security Training Content",
		"Security Education Update",
		"Training Reminder: Cybersecurity",
	},
}

// Service renders personalized email content from stored templates.
type Service struct {
	trackingBaseURL string
}

func NewService(trackingBaseURL string) *Service {
	return &Service{trackingBaseURL: strings.TrimRight(trackingBaseURL, "/")}
}

// RenderParams identifies the target and token a rendering is for.
type RenderParams struct {
	TargetName   string
	TargetEmail  string
	CampaignType string
	Token        string
}

// Rendered is a fully personalized email ready for delivery.
type Rendered struct {
	Subject     string
	HTMLContent string
	FakeLink    string
	PixelLink   string
}

// Render substitutes the template placeholders for one target. All link
// placeholders resolve to the same tokenized campaign URL and the pixel
// placeholder resolves to the open-tracking URL.
func (s *Service) Render(template store.EmailTemplate, params RenderParams) (Rendered, error) {
	if strings.TrimSpace(template.HTMLContent) == "" {
		return Rendered{}, ErrEmptyTemplate
	}

	fakeLink := fmt.Sprintf("%s/campaign/%s", s.trackingBaseURL, params.Token)
	pixelLink := fmt.Sprintf("%s/track/%s/opened", s.trackingBaseURL, params.Token)

	replacer := strings.NewReplacer(
		"{{name}}", params.TargetName,
		"{{email}}", params.TargetEmail,
		"{{fake_link}}", fakeLink,
		"{{reset_link}}", fakeLink,
		"{{login_link}}", fakeLink,
		"{{verify_link}}", fakeLink,
		"{{tracking_pixel}}", pixelLink,
		"{{campaign_name}}", params.CampaignType,
	)

	return Rendered{
		Subject:     randomSubject(params.CampaignType),
		HTMLContent: replacer.Replace(template.HTMLContent),
		FakeLink:    fakeLink,
		PixelLink:   pixelLink,
	}, nil
}

func randomSubject(campaignType string) string {
	pool, ok := subjectPools[campaignType]
	if !ok {
		pool = subjectPools[store.CampaignTypePhishing]
	}
	return pool[rand.Intn(len(pool))]
}
