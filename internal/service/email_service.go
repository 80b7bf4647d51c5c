package service

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"shikshaleap/internal/logger"
	"shikshaleap/internal/models"
)

// sesSender is the part of the SES client used to send mail
type sesSender interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// EmailService sends OTP codes via Amazon SES
type EmailService struct {
	client    sesSender
	fromEmail string
	fromName  string
	enabled   bool
	debug     bool
	log       *logger.Logger
}

// NewEmailService creates a new email service. An empty fromEmail yields a
// disabled service that never contacts AWS.
func NewEmailService(ctx context.Context, awsRegion, fromEmail, fromName string, debug bool, log *logger.Logger) (*EmailService, error) {
	if fromEmail == "" {
		log.Info("email service disabled: SES_FROM_EMAIL not configured")
		return &EmailService{enabled: false, debug: debug, log: log}, nil
	}

	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(awsRegion))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	log.Info("email service enabled", "from", fromEmail, "region", awsRegion)

	return &EmailService{
		client:    sesv2.NewFromConfig(cfg),
		fromEmail: fromEmail,
		fromName:  fromName,
		enabled:   true,
		debug:     debug,
		log:       log,
	}, nil
}

// IsEnabled returns whether the email service is enabled
func (s *EmailService) IsEnabled() bool {
	return s != nil && s.enabled
}

// Deliver emails the code to an email contact
func (s *EmailService) Deliver(ctx context.Context, contact models.Contact, code string, ttl time.Duration) error {
	if !contact.IsEmail() {
		return fmt.Errorf("cannot email a %s contact", contact.Kind)
	}
	return s.SendOTPEmail(ctx, contact.Value, code, ttl)
}

// SendOTPEmail sends a login code
func (s *EmailService) SendOTPEmail(ctx context.Context, toEmail, code string, ttl time.Duration) error {
	if !s.IsEnabled() {
		s.log.Warn("skipping email send (service disabled)", "email", toEmail)
		return nil
	}

	minutes := int(ttl.Minutes())
	subject := "Your Shiksha Leap login code"
	htmlBody := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
	<meta charset="UTF-8">
	<style>
		body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
		.container { max-width: 600px; margin: 0 auto; padding: 20px; }
		.header { background-color: #2e7d32; color: white; padding: 20px; text-align: center; border-radius: 5px 5px 0 0; }
		.content { background-color: #f9f9f9; padding: 30px; border-radius: 0 0 5px 5px; }
		.code { font-size: 32px; letter-spacing: 8px; font-weight: bold; text-align: center; margin: 20px 0; }
		.footer { text-align: center; margin-top: 20px; font-size: 12px; color: #666; }
	</style>
</head>
<body>
	<div class="container">
		<div class="header">
			<h1>Shiksha Leap</h1>
		</div>
		<div class="content">
			<p>Use this code to sign in:</p>
			<p class="code">%s</p>
			<p><strong>The code expires in %d minutes.</strong></p>
			<p>If you did not try to sign in, you can ignore this email.</p>
		</div>
		<div class="footer">
			<p>This is an automated email from Shiksha Leap. Please do not reply.</p>
		</div>
	</div>
</body>
</html>
`, code, minutes)

	textBody := fmt.Sprintf(`Use this code to sign in to Shiksha Leap:

%s

The code expires in %d minutes.

If you did not try to sign in, you can ignore this email.
`, code, minutes)

	return s.sendEmail(ctx, toEmail, subject, htmlBody, textBody)
}

// sendEmail sends an email using Amazon SES
func (s *EmailService) sendEmail(ctx context.Context, toEmail, subject, htmlBody, textBody string) error {
	fromAddress := s.fromEmail
	if s.fromName != "" {
		fromAddress = fmt.Sprintf("%s <%s>", s.fromName, s.fromEmail)
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(fromAddress),
		Destination: &types.Destination{
			ToAddresses: []string{toEmail},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{
					Data:    aws.String(subject),
					Charset: aws.String("UTF-8"),
				},
				Body: &types.Body{
					Html: &types.Content{
						Data:    aws.String(htmlBody),
						Charset: aws.String("UTF-8"),
					},
					Text: &types.Content{
						Data:    aws.String(textBody),
						Charset: aws.String("UTF-8"),
					},
				},
			},
		},
	}

	result, err := s.client.SendEmail(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	if s.debug && result.MessageId != nil {
		s.log.Debug("SES message accepted", "message_id", *result.MessageId)
	}
	s.log.Info("email sent", "email", toEmail, "subject", subject)
	return nil
}
