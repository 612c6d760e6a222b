// email.go - SMTP delivery of verification mail.
package server

import (
	"fmt"
	"log"
	"net/smtp"
	"os"
)

// EmailConfig holds SMTP settings read from the environment. With
// Enabled false the service logs instead of sending, which is what local
// dev and tests want.
type EmailConfig struct {
	SMTPHost     string
	SMTPPort     string
	SMTPUser     string
	SMTPPassword string
	FromEmail    string
	Enabled      bool
}

// LoadEmailConfig reads email configuration from environment variables.
func LoadEmailConfig() EmailConfig {
	cfg := EmailConfig{
		SMTPHost:     os.Getenv("SDS_SMTP_HOST"),
		SMTPPort:     os.Getenv("SDS_SMTP_PORT"),
		SMTPUser:     os.Getenv("SDS_SMTP_USER"),
		SMTPPassword: os.Getenv("SDS_SMTP_PASSWORD"),
		FromEmail:    os.Getenv("SDS_FROM_EMAIL"),
		Enabled:      os.Getenv("SDS_EMAIL_ENABLED") == "true",
	}
	if cfg.SMTPPort == "" {
		cfg.SMTPPort = "587"
	}
	if cfg.FromEmail == "" {
		cfg.FromEmail = cfg.SMTPUser
	}
	return cfg
}

// EmailService sends mail for the service.
type EmailService struct {
	config EmailConfig
}

func NewEmailService(cfg EmailConfig) *EmailService {
	return &EmailService{config: cfg}
}

// SendVerificationEmail mails the verification link to a new client user.
func (s *EmailService) SendVerificationEmail(to, verificationURL string) error {
	body := fmt.Sprintf(
		"<h2>Welcome to the document sharing service!</h2>"+
			"<p>Please open the link below to verify your email address:</p>"+
			"<p><a href=%q>Verify Email</a></p>"+
			"<p>Or copy and paste this link into your browser:</p>"+
			"<p>%s</p>"+
			"<p>This link will expire in 24 hours.</p>"+
			"<p>If you did not create an account, please ignore this email.</p>",
		verificationURL, verificationURL,
	)
	return s.send(to, "Verify Your Email - Document Sharing Service", body)
}

func (s *EmailService) send(to, subject, body string) error {
	if !s.config.Enabled {
		log.Printf("service=email msg=%q to=%s subject=%q", "disabled_logging_only", to, subject)
		return nil
	}

	if s.config.SMTPHost == "" || s.config.SMTPUser == "" || s.config.SMTPPassword == "" {
		return fmt.Errorf("smtp not configured")
	}

	message := []byte(fmt.Sprintf(
		"From: %s\r\n"+
			"To: %s\r\n"+
			"Subject: %s\r\n"+
			"MIME-Version: 1.0\r\n"+
			"Content-Type: text/html; charset=UTF-8\r\n"+
			"\r\n"+
			"%s\r\n",
		s.config.FromEmail, to, subject, body,
	))

	auth := smtp.PlainAuth("", s.config.SMTPUser, s.config.SMTPPassword, s.config.SMTPHost)
	addr := s.config.SMTPHost + ":" + s.config.SMTPPort
	if err := smtp.SendMail(addr, auth, s.config.FromEmail, []string{to}, message); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}
