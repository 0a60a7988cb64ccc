package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/BradenHooton/landing/internal/models"
	pkglogger "github.com/BradenHooton/landing/pkg/logger"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

const ownerNotificationSubject = "New contact request"

// OwnerNotifier tells the site owner about a new lead
type OwnerNotifier interface {
	NotifyNewContact(ctx context.Context, c *models.ContactSubmission) error
}

// SESClient is the part of the SES API the notifier uses
type SESClient interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// SESOwnerNotifier sends owner notifications through AWS SES
type SESOwnerNotifier struct {
	sesClient    SESClient
	fromAddress  string
	ownerAddress string
	logger       *slog.Logger
}

// NewSESOwnerNotifier loads the default AWS credential chain for region
func NewSESOwnerNotifier(ctx context.Context, region, fromAddress, ownerAddress string, logger *slog.Logger) (*SESOwnerNotifier, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return NewSESOwnerNotifierWithClient(ses.NewFromConfig(cfg), fromAddress, ownerAddress, logger), nil
}

func NewSESOwnerNotifierWithClient(client SESClient, fromAddress, ownerAddress string, logger *slog.Logger) *SESOwnerNotifier {
	return &SESOwnerNotifier{
		sesClient:    client,
		fromAddress:  fromAddress,
		ownerAddress: ownerAddress,
		logger:       logger,
	}
}

func (s *SESOwnerNotifier) NotifyNewContact(ctx context.Context, c *models.ContactSubmission) error {
	input := &ses.SendEmailInput{
		Source: aws.String(s.fromAddress),
		Destination: &types.Destination{
			ToAddresses: []string{s.ownerAddress},
		},
		ReplyToAddresses: []string{c.Email},
		Message: &types.Message{
			Subject: &types.Content{
				Data:    aws.String(ownerNotificationSubject),
				Charset: aws.String("UTF-8"),
			},
			Body: &types.Body{
				Text: &types.Content{
					Data:    aws.String(contactNotificationBody(c)),
					Charset: aws.String("UTF-8"),
				},
			},
		},
	}

	result, err := s.sesClient.SendEmail(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Info("owner notified of contact request",
		slog.String("contact_id", c.ID),
		slog.String("message_id", aws.ToString(result.MessageId)))

	return nil
}

func contactNotificationBody(c *models.ContactSubmission) string {
	return fmt.Sprintf("Name: %s\nEmail: %s\nPhone: %s\n", c.FullName, c.Email, c.Phone)
}

// NoopNotifier only logs; used when owner notification is disabled
type NoopNotifier struct {
	logger *slog.Logger
}

func NewNoopNotifier(logger *slog.Logger) *NoopNotifier {
	return &NoopNotifier{logger: logger}
}

func (n *NoopNotifier) NotifyNewContact(ctx context.Context, c *models.ContactSubmission) error {
	n.logger.DebugContext(ctx, "owner notification disabled",
		slog.String("contact_id", c.ID),
		slog.String("email", pkglogger.SanitizedEmail(c.Email)))
	return nil
}
