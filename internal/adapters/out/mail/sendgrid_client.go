// internal/adapters/out/mail/sendgrid_client.go
package mail

import (
	"context"
	"errors"
	"fmt"
	"html"

	"github.com/rs/zerolog"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// EmailClient sends one plain-text mail.
type EmailClient interface {
	Send(ctx context.Context, from, to, subject, body string) error
}

// SendGridClient implements EmailClient
type SendGridClient struct {
	apiKey string
	log    zerolog.Logger
}

func NewSendGridClient(apiKey string, logger zerolog.Logger) *SendGridClient {
	return &SendGridClient{
		apiKey: apiKey,
		log:    logger.With().Str("component", "sendgrid").Logger(),
	}
}

// Send sends an email using SendGrid
func (c *SendGridClient) Send(ctx context.Context, from, to, subject, body string) error {
	if c.apiKey == "" {
		return errors.New("sendgrid api key is empty")
	}
	if from == "" {
		return errors.New("from address is empty")
	}
	if to == "" {
		return errors.New("to address is empty")
	}

	fromEmail := mail.NewEmail("HanaMi", from)
	toEmail := mail.NewEmail("", to)

	// HTML は最低限整形
	message := mail.NewSingleEmail(
		fromEmail,
		subject,
		toEmail,
		body,
		fmt.Sprintf("<pre>%s</pre>", html.EscapeString(body)),
	)

	response, err := sendgrid.NewSendClient(c.apiKey).SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("sendgrid send error: %w", err)
	}
	if response.StatusCode >= 400 {
		c.log.Error().Int("status", response.StatusCode).Str("body", response.Body).Msg("send failed")
		return fmt.Errorf("sendgrid send failed: status=%d", response.StatusCode)
	}

	c.log.Info().Int("status", response.StatusCode).Str("to", to).Str("subject", subject).Msg("mail sent")
	return nil
}
