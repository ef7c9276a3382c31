package email

import (
	"bytes"
	"fmt"
	"html/template"
	"net/smtp"
	"strings"

	"recruitment-portal/config"
	"recruitment-portal/internal/models"

	"go.uber.org/zap"
)

type EmailService struct {
	config *config.Config
	logger *zap.Logger
	auth   smtp.Auth
}

type EmailData struct {
	To       []string
	Subject  string
	Template string
	Data     interface{}
}

// NewApplicationData feeds the notification sent to the hiring team
// when a candidate submits an application
type NewApplicationData struct {
	Email     string
	Phone     string
	JobTitle  string
	CvFileURL string
	Submitted string
}

func NewEmailService(config *config.Config, logger *zap.Logger) *EmailService {
	var auth smtp.Auth
	if config.Email.SMTPUser != "" && config.Email.SMTPPassword != "" {
		auth = smtp.PlainAuth("", config.Email.SMTPUser, config.Email.SMTPPassword, config.Email.SMTPHost)
	}

	return &EmailService{
		config: config,
		logger: logger,
		auth:   auth,
	}
}

// SendNewApplicationNotification notifies the configured recipient that
// a new application arrived. A nil receiver or disabled config is a
// no-op so callers never have to guard.
func (e *EmailService) SendNewApplicationNotification(app *models.Application) error {
	if e == nil || !e.config.Email.Enabled || e.config.Email.NotifyTo == "" {
		return nil
	}

	data := NewApplicationData{
		Email:     app.Email,
		JobTitle:  app.JobTitle,
		Submitted: app.CreatedAt.Format("02.01.2006 15:04"),
	}
	if app.Phone != nil {
		data.Phone = *app.Phone
	}
	if app.CvFileURL != nil {
		data.CvFileURL = *app.CvFileURL
	}

	emailData := EmailData{
		To:       []string{e.config.Email.NotifyTo},
		Subject:  fmt.Sprintf("New application: %s", app.JobTitle),
		Template: "new_application",
		Data:     data,
	}

	return e.sendEmail(emailData)
}

// sendEmail sends an email using the configured SMTP settings
func (e *EmailService) sendEmail(emailData EmailData) error {
	// In development mode, just log the email instead of sending
	if e.config.IsDevelopment() {
		e.logger.Info("Email would be sent in production",
			zap.Strings("to", emailData.To),
			zap.String("subject", emailData.Subject),
			zap.String("template", emailData.Template))
		return nil
	}

	body, err := e.renderTemplate(emailData.Template, emailData.Data)
	if err != nil {
		return fmt.Errorf("failed to render email template: %w", err)
	}

	message := e.buildMessage(emailData.To, emailData.Subject, body)

	addr := fmt.Sprintf("%s:%d", e.config.Email.SMTPHost, e.config.Email.SMTPPort)

	err = smtp.SendMail(addr, e.auth, e.config.Email.From, emailData.To, []byte(message))
	if err != nil {
		e.logger.Error("Failed to send email",
			zap.Error(err),
			zap.Strings("to", emailData.To),
			zap.String("subject", emailData.Subject))
		return fmt.Errorf("failed to send email: %w", err)
	}

	e.logger.Info("Email sent successfully",
		zap.Strings("to", emailData.To),
		zap.String("subject", emailData.Subject))

	return nil
}

// renderTemplate renders an email template with the provided data
func (e *EmailService) renderTemplate(templateName string, data interface{}) (string, error) {
	templates := map[string]string{
		"new_application": `
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>New application</title>
</head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
    <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
        <h1 style="color: #2c5aa0;">New application received</h1>
        <p>A candidate just applied for <strong>{{.JobTitle}}</strong>.</p>
        <div style="background-color: #f8f9fa; padding: 20px; border-radius: 8px; margin: 20px 0;">
            <p><strong>Email:</strong> {{.Email}}</p>
            <p><strong>Phone:</strong> {{.Phone}}</p>
            <p><strong>Submitted:</strong> {{.Submitted}}</p>
            {{if .CvFileURL}}<p><strong>CV:</strong> <a href="{{.CvFileURL}}">{{.CvFileURL}}</a></p>{{end}}
        </div>
        <p>Open the admin dashboard to review and rank this application.</p>
    </div>
</body>
</html>`,
	}

	templateStr, exists := templates[templateName]
	if !exists {
		return "", fmt.Errorf("template %s not found", templateName)
	}

	tmpl, err := template.New(templateName).Parse(templateStr)
	if err != nil {
		return "", fmt.Errorf("failed to parse template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}

	return buf.String(), nil
}

// buildMessage builds the email message with headers
func (e *EmailService) buildMessage(to []string, subject, body string) string {
	headers := make(map[string]string)
	headers["From"] = e.config.Email.From
	headers["To"] = strings.Join(to, ", ")
	headers["Subject"] = subject
	headers["MIME-Version"] = "1.0"
	headers["Content-Type"] = "text/html; charset=UTF-8"

	message := ""
	for k, v := range headers {
		message += fmt.Sprintf("%s: %s\r\n", k, v)
	}
	message += "\r\n" + body

	return message
}
