package services

import (
	"context"
	"fmt"
	"log"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
)

// SNSPublisher is the subset of the SNS client used for SMS
type SNSPublisher interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SmsService handles sending SMS messages via AWS SNS.
type SmsService struct {
	client SNSPublisher
}

// NewSmsService creates a new SMS service client.
func NewSmsService(cfg aws.Config) *SmsService {
	return &SmsService{client: sns.NewFromConfig(cfg)}
}

// NewSmsServiceWithClient wraps an existing SNS client.
func NewSmsServiceWithClient(client SNSPublisher) *SmsService {
	return &SmsService{client: client}
}

// SendSMS sends a message to a phone number in E.164 format (e.g. +251911000000).
func (s *SmsService) SendSMS(ctx context.Context, phoneNumber, message string) error {
	log.Printf("Attempting to send SMS to %s", phoneNumber)

	messageAttributes := map[string]types.MessageAttributeValue{
		"AWS.SNS.SMS.SMSType": {
			DataType:    aws.String("String"),
			StringValue: aws.String("Transactional"),
		},
	}

	input := &sns.PublishInput{
		Message:           aws.String(message),
		PhoneNumber:       aws.String(phoneNumber),
		MessageAttributes: messageAttributes,
	}

	result, err := s.client.Publish(ctx, input)
	if err != nil {
		log.Printf("Failed to send SMS to %s: %v", phoneNumber, err)
		return fmt.Errorf("failed to send sms: %w", err)
	}

	log.Printf("Successfully sent SMS. Message ID: %s", aws.ToString(result.MessageId))
	return nil
}
