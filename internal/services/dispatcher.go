// Package services sends merchant alerts and customer receipts over AWS SNS and SES.
package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/megbaru-hub/teffexpo/internal/models"
)

// SMSSender delivers a text message to a phone number
type SMSSender interface {
	SendSMS(ctx context.Context, phoneNumber, message string) error
}

// EmailSender delivers an email
type EmailSender interface {
	SendEmail(ctx context.Context, toEmail, subject, body string) error
}

// Dispatcher mirrors inbox notifications to merchants by SMS and sends customer receipts by email.
// Either channel may be nil, in which case it is skipped.
type Dispatcher struct {
	sms   SMSSender
	email EmailSender
}

// NewDispatcher creates a dispatcher over the given channels
func NewDispatcher(sms SMSSender, email EmailSender) *Dispatcher {
	return &Dispatcher{sms: sms, email: email}
}

// AlertMerchant texts the notification to the merchant's phone when one is on file.
func (d *Dispatcher) AlertMerchant(ctx context.Context, merchant *models.User, n *models.Notification) error {
	if d.sms == nil || merchant == nil || merchant.Phone == nil || strings.TrimSpace(*merchant.Phone) == "" {
		return nil
	}
	return d.sms.SendSMS(ctx, strings.TrimSpace(*merchant.Phone), FormatSMS(n))
}

// AlertCustomer emails the customer when the order carries an email address.
func (d *Dispatcher) AlertCustomer(ctx context.Context, o *models.Order, subject, body string) error {
	if d.email == nil || o == nil || o.Customer.Email == "" {
		return nil
	}
	return d.email.SendEmail(ctx, o.Customer.Email, subject, body)
}

// FormatSMS renders a notification as a single SMS line
func FormatSMS(n *models.Notification) string {
	return fmt.Sprintf("%s: %s", n.Title, n.Message)
}
