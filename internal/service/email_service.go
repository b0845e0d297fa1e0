package service

import (
	"bytes"
	"context"
	"fmt"
	htmltemplate "html/template"
	"text/template"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"learnlens/internal/logger"
)

// sesAPI is the part of the SES client the service uses
type sesAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// EmailService handles sending emails via Amazon SES
type EmailService struct {
	client     sesAPI
	fromEmail  string
	fromName   string
	appBaseURL string
	enabled    bool
	log        *logger.Logger
}

// NewEmailService creates a new email service. An empty fromEmail yields
// a disabled service that logs and skips every send.
func NewEmailService(ctx context.Context, awsRegion, fromEmail, fromName, appBaseURL string, log *logger.Logger) (*EmailService, error) {
	if fromEmail == "" {
		log.Info("email service disabled: SES_FROM_EMAIL not configured")
		return &EmailService{appBaseURL: appBaseURL, log: log}, nil
	}

	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(awsRegion))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	log.Info("email service enabled", "from", fromEmail, "region", awsRegion)
	return newEmailService(sesv2.NewFromConfig(cfg), fromEmail, fromName, appBaseURL, log), nil
}

func newEmailService(client sesAPI, fromEmail, fromName, appBaseURL string, log *logger.Logger) *EmailService {
	return &EmailService{
		client:     client,
		fromEmail:  fromEmail,
		fromName:   fromName,
		appBaseURL: appBaseURL,
		enabled:    client != nil,
		log:        log,
	}
}

// IsEnabled returns whether the email service is enabled
func (s *EmailService) IsEnabled() bool {
	return s.enabled
}

const emailStyle = `
		body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
		.container { max-width: 600px; margin: 0 auto; padding: 20px; }
		.header { background-color: #4a90e2; color: white; padding: 20px; text-align: center; border-radius: 5px 5px 0 0; }
		.content { background-color: #f9f9f9; padding: 30px; border-radius: 0 0 5px 5px; }
		.footer { text-align: center; margin-top: 20px; font-size: 12px; color: #666; }
		table { border-collapse: collapse; width: 100%; }
		td, th { padding: 4px 8px; border-bottom: 1px solid #ddd; text-align: left; }`

var digestHTML = htmltemplate.Must(htmltemplate.New("digest").Parse(`<!DOCTYPE html>
<html>
<head>
	<meta charset="UTF-8">
	<style>` + emailStyle + `</style>
</head>
<body>
	<div class="container">
		<div class="header">
			<h1>{{.Digest.KidName}}'s learning digest</h1>
		</div>
		<div class="content">
			<p>Hi {{.Name}},</p>
			<p>{{.Digest.Total}} activities{{if .Digest.Scored}}, {{.Digest.Scored}} scored with an average of {{printf "%.0f" .Digest.AverageScore}}%{{end}}.</p>
			{{if .Digest.BySubject}}<h3>By subject</h3>
			<table>{{range .Digest.BySubject}}<tr><td>{{.Name}}</td><td>{{.Count}}</td></tr>{{end}}</table>{{end}}
			{{if .Digest.ByAssistant}}<h3>By assistant</h3>
			<table>{{range .Digest.ByAssistant}}<tr><td>{{.Name}}</td><td>{{.Count}}</td></tr>{{end}}</table>{{end}}
			{{if .Digest.Lines}}<h3>Activities</h3>
			<table>
				<tr><th>Date</th><th>Activity</th><th>Score</th></tr>
				{{range .Digest.Lines}}<tr><td>{{.Date}}</td><td>{{.Title}}</td><td>{{.Score}}</td></tr>{{end}}
			</table>{{end}}
			<p><a href="{{.AppBaseURL}}">Open LearnLens</a></p>
		</div>
		<div class="footer">
			<p>This is an automated email from LearnLens. Please do not reply.</p>
		</div>
	</div>
</body>
</html>
`))

var digestText = template.Must(template.New("digest").Parse(`Hi {{.Name}},

{{.Digest.KidName}}'s learning digest: {{.Digest.Total}} activities{{if .Digest.Scored}}, {{.Digest.Scored}} scored with an average of {{printf "%.0f" .Digest.AverageScore}}%{{end}}.
{{if .Digest.BySubject}}
By subject:
{{range .Digest.BySubject}}- {{.Name}}: {{.Count}}
{{end}}{{end}}{{if .Digest.ByAssistant}}
By assistant:
{{range .Digest.ByAssistant}}- {{.Name}}: {{.Count}}
{{end}}{{end}}{{if .Digest.Lines}}
Activities:
{{range .Digest.Lines}}- {{.Date}} {{.Title}}{{if .Score}} ({{.Score}}){{end}}
{{end}}{{end}}
Open LearnLens: {{.AppBaseURL}}

---
This is an automated email from LearnLens. Please do not reply.
`))

// SendDigest emails a learning digest to a parent
func (s *EmailService) SendDigest(ctx context.Context, toEmail, toName string, d Digest) error {
	if !s.enabled {
		s.log.Info("skipping email send (service disabled)", "kind", "digest", "to", toEmail)
		return nil
	}

	data := struct {
		Name       string
		AppBaseURL string
		Digest     Digest
	}{Name: toName, AppBaseURL: s.appBaseURL, Digest: d}

	var html, text bytes.Buffer
	if err := digestHTML.Execute(&html, data); err != nil {
		return fmt.Errorf("failed to render digest: %w", err)
	}
	if err := digestText.Execute(&text, data); err != nil {
		return fmt.Errorf("failed to render digest: %w", err)
	}

	subject := fmt.Sprintf("%s's learning digest", d.KidName)
	return s.sendEmail(ctx, toEmail, subject, html.String(), text.String())
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
		return fmt.Errorf("failed to send email to %s: %w", toEmail, err)
	}

	messageID := ""
	if result != nil && result.MessageId != nil {
		messageID = *result.MessageId
	}
	s.log.Info("email sent", "to", toEmail, "subject", subject, "message_id", messageID)
	return nil
}
