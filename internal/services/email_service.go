package services

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	sesv2 "github.com/aws/aws-sdk-go-v2/service/sesv2"
	sestypes "github.com/aws/aws-sdk-go-v2/service/sesv2/types"
)

// SESSender is the subset of the SESv2 client used for email
type SESSender interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// EmailService handles email sending via AWS SES (SESv2 API)
type EmailService struct {
	sesClient SESSender
	fromEmail string
}

// NewEmailService creates a new email service instance using the ambient AWS credentials
func NewEmailService(cfg aws.Config, fromEmail string) *EmailService {
	if cfg.Region == "" {
		cfg.Region = "eu-central-1"
	}
	return &EmailService{
		sesClient: sesv2.NewFromConfig(cfg),
		fromEmail: fromEmail,
	}
}

// NewEmailServiceWithClient wraps an existing SESv2 client.
func NewEmailServiceWithClient(client SESSender, fromEmail string) *EmailService {
	return &EmailService{sesClient: client, fromEmail: fromEmail}
}

// SendEmail sends a simple HTML email. The body is plain text and is escaped.
func (e *EmailService) SendEmail(ctx context.Context, toEmail, subject, body string) error {
	if e.fromEmail == "" {
		return fmt.Errorf("email sender not configured")
	}
	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(e.fromEmail),
		Destination:      &sestypes.Destination{ToAddresses: []string{toEmail}},
		Content: &sestypes.EmailContent{
			Simple: &sestypes.Message{
				Subject: &sestypes.Content{Data: aws.String(subject)},
				Body: &sestypes.Body{
					Text: &sestypes.Content{Data: aws.String(body)},
					Html: &sestypes.Content{Data: aws.String(renderEmailHTML(subject, body))},
				},
			},
		},
	}
	if _, err := e.sesClient.SendEmail(ctx, input); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

// renderEmailHTML wraps a plain-text body in the order receipt template
func renderEmailHTML(subject, body string) string {
	paragraphs := strings.Split(strings.TrimSpace(body), "\n")
	var sb strings.Builder
	for _, p := range paragraphs {
		if p = strings.TrimSpace(p); p != "" {
			sb.WriteString("<p>" + html.EscapeString(p) + "</p>\n")
		}
	}
	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <title>%s</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; color: #333; max-width: 600px; margin: 0 auto; padding: 20px; }
        .logo { font-size: 24px; font-weight: bold; color: #8d6e33; margin-bottom: 16px; }
        .footer { margin-top: 24px; border-top: 1px solid #eee; color: #666; font-size: 13px; }
    </style>
</head>
<body>
    <div class="logo">Teff Market</div>
    %s
    <div class="footer">This is an automated message about your order.</div>
</body>
</html>`, html.EscapeString(subject), sb.String())
}
