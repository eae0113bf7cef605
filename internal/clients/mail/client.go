// Package mail sends simulation emails through Resend. It is the only
// outbound transport; the delivery worker owns retries and rate limiting,
// so this client does a single attempt per call.
package mail

import (
	"context"
	"errors"
	"fmt"

	"phishsim-server/internal/observability"

	"github.com/resendlabs/resend-go"
)

var ErrMissingRecipient = errors.New("recipient address is empty")

type ResendClient struct {
	client *resend.Client
	logger *observability.Logger
}

func NewResendClient(apiKey string, logger *observability.Logger) (*ResendClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("resend api key is empty")
	}
	client := resend.NewClient(apiKey)
	if client == nil {
		return nil, fmt.Errorf("failed to create resend client")
	}

	return &ResendClient{
		client: client,
		logger: logger,
	}, nil
}

// SendEmail delivers one rendered simulation email and returns the provider
// message id. Content arrives fully personalized; nothing is templated here.
func (c *ResendClient) SendEmail(ctx context.Context, from, to, subject, htmlContent string) (string, error) {
	if to == "" {
		return "", ErrMissingRecipient
	}

	ctx = observability.WithFields(ctx,
		observability.Field{Key: "email_to", Value: to},
		observability.Field{Key: "email_subject", Value: subject},
	)

	res, err := c.client.Emails.Send(&resend.SendEmailRequest{
		From:    from,
		To:      []string{to},
		Subject: subject,
		Html:    htmlContent,
	})
	if err != nil {
		c.logger.Error(ctx, "failed to send simulation email", err)
		return "", fmt.Errorf("failed to send simulation email: %w", err)
	}

	c.logger.Info(observability.WithFields(ctx,
		observability.Field{Key: "provider_message_id", Value: res.Id},
	), "simulation email accepted by provider")
	return res.Id, nil
}
