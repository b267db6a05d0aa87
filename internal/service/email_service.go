package service

import (
	"context"
	"fmt"
	"log"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"nursescript/internal/models"
)

// EmailService handles sending emails via Amazon SES
type EmailService struct {
	client     *sesv2.Client
	fromEmail  string
	fromName   string
	appBaseURL string
	enabled    bool
	debug      bool
}

// NewEmailService creates a new email service. An empty fromEmail yields a
// disabled service that logs instead of sending, so local development never
// needs AWS credentials.
func NewEmailService(awsRegion, fromEmail, fromName, appBaseURL string, debug bool) (*EmailService, error) {
	if fromEmail == "" {
		log.Println("Email service disabled: SES_FROM_EMAIL not configured")
		return &EmailService{enabled: false, debug: debug}, nil
	}

	cfg, err := config.LoadDefaultConfig(context.TODO(),
		config.WithRegion(awsRegion),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := sesv2.NewFromConfig(cfg)
	log.Printf("Email service enabled: from=%s, region=%s", fromEmail, awsRegion)

	return &EmailService{
		client:     client,
		fromEmail:  fromEmail,
		fromName:   fromName,
		appBaseURL: appBaseURL,
		enabled:    true,
		debug:      debug,
	}, nil
}

// IsEnabled returns whether the email service is enabled
func (s *EmailService) IsEnabled() bool {
	return s.enabled
}

// SendTeacherWelcomeEmail sends the credentials email for a newly created
// teacher account.
func (s *EmailService) SendTeacherWelcomeEmail(ctx context.Context, toEmail, toName, tempPassword string) error {
	if !s.enabled {
		log.Printf("Skipping email send (service disabled): teacher welcome to %s", toEmail)
		return nil
	}

	subject := "Your NurseScript Teacher Account"
	htmlBody := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
	<meta charset="UTF-8">
	<style>
		body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
		.container { max-width: 600px; margin: 0 auto; padding: 20px; }
		.header { background-color: #2c7a7b; color: white; padding: 20px; text-align: center; border-radius: 5px 5px 0 0; }
		.content { background-color: #f9f9f9; padding: 30px; border-radius: 0 0 5px 5px; }
		.credentials { background-color: #fff; border: 1px solid #ddd; padding: 15px; border-radius: 5px; font-family: monospace; }
		.button { display: inline-block; padding: 12px 30px; background-color: #2c7a7b; color: white; text-decoration: none; border-radius: 5px; margin: 20px 0; }
		.footer { text-align: center; margin-top: 20px; font-size: 12px; color: #666; }
	</style>
</head>
<body>
	<div class="container">
		<div class="header">
			<h1>Welcome to NurseScript</h1>
		</div>
		<div class="content">
			<p>Hi %s,</p>
			<p>A teacher account has been created for you on NurseScript. Sign in with the temporary credentials below and change your password on first login.</p>
			<div class="credentials">
				<p>Email: %s</p>
				<p>Temporary password: %s</p>
			</div>
			<p style="text-align: center;">
				<a href="%s/login" class="button">Sign In</a>
			</p>
			<p>If you were not expecting this account, please contact your administrator.</p>
		</div>
		<div class="footer">
			<p>This is an automated email from NurseScript. Please do not reply.</p>
		</div>
	</div>
</body>
</html>
`, toName, toEmail, tempPassword, s.appBaseURL)

	textBody := fmt.Sprintf(`Hi %s,

A teacher account has been created for you on NurseScript.

Email: %s
Temporary password: %s

Sign in at %s/login and change your password on first login.

If you were not expecting this account, please contact your administrator.

---
This is an automated email from NurseScript. Please do not reply.
`, toName, toEmail, tempPassword, s.appBaseURL)

	return s.sendEmail(ctx, toEmail, subject, htmlBody, textBody)
}

// SendResultsEmail sends a student their typing test result summary
func (s *EmailService) SendResultsEmail(ctx context.Context, toEmail, toName string, result *models.TypingResult) error {
	if !s.enabled {
		log.Printf("Skipping email send (service disabled): results to %s", toEmail)
		return nil
	}

	subject := "Your NurseScript Typing Results"
	htmlBody := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
	<meta charset="UTF-8">
	<style>
		body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
		.container { max-width: 600px; margin: 0 auto; padding: 20px; }
		.header { background-color: #2c7a7b; color: white; padding: 20px; text-align: center; border-radius: 5px 5px 0 0; }
		.content { background-color: #f9f9f9; padding: 30px; border-radius: 0 0 5px 5px; }
		.stat { display: inline-block; margin: 10px 20px; text-align: center; }
		.stat .value { font-size: 28px; font-weight: bold; color: #2c7a7b; }
		.footer { text-align: center; margin-top: 20px; font-size: 12px; color: #666; }
	</style>
</head>
<body>
	<div class="container">
		<div class="header">
			<h1>Typing Test Results</h1>
		</div>
		<div class="content">
			<p>Hi %s,</p>
			<p>Here is your result for "%s":</p>
			<div style="text-align: center;">
				<div class="stat"><div class="value">%.0f</div><div>WPM</div></div>
				<div class="stat"><div class="value">%.0f%%</div><div>Accuracy</div></div>
				<div class="stat"><div class="value">%d</div><div>Errors</div></div>
			</div>
			<p>Keep practicing to improve your clinical documentation speed.</p>
		</div>
		<div class="footer">
			<p>This is an automated email from NurseScript. Please do not reply.</p>
		</div>
	</div>
</body>
</html>
`, toName, result.Content.Topic, result.WPM, result.Accuracy, result.ErrorsCount)

	textBody := fmt.Sprintf(`Hi %s,

Here is your result for "%s":

WPM: %.0f
Accuracy: %.0f%%
Errors: %d

Keep practicing to improve your clinical documentation speed.

---
This is an automated email from NurseScript. Please do not reply.
`, toName, result.Content.Topic, result.WPM, result.Accuracy, result.ErrorsCount)

	return s.sendEmail(ctx, toEmail, subject, htmlBody, textBody)
}

// sendEmail sends an email using Amazon SES
func (s *EmailService) sendEmail(ctx context.Context, toEmail, subject, htmlBody, textBody string) error {
	fromAddress := s.fromEmail
	if s.fromName != "" {
		fromAddress = fmt.Sprintf("%s <%s>", s.fromName, s.fromEmail)
	}

	if s.debug {
		log.Printf("[DEBUG] Sending email: from=%s, to=%s, subject=%s", fromAddress, toEmail, subject)
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
		return fmt.Errorf("failed to send email to %s: %w", toEmail, err)
	}

	if s.debug && result.MessageId != nil {
		log.Printf("[DEBUG] Message ID: %s", *result.MessageId)
	}

	log.Printf("Email sent successfully: to=%s, subject=%s", toEmail, subject)
	return nil
}
