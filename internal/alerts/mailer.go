package alerts

import (
	"bytes"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/smtp"
	"strings"

	"github.com/plateful-app/plateful/internal/config"
)

// Mailer delivers a single email. Provider routing supports direct SMTP over
// TLS and the Plunk HTTP API.
type Mailer struct {
	cfg config.Mail
}

func NewMailer(cfg config.Mail) (*Mailer, error) {
	switch cfg.Provider {
	case "plunk":
		if cfg.PlunkAPIKey == "" {
			return nil, fmt.Errorf("mail provider plunk requires PLUNK_API_KEY")
		}
	case "smtp":
		if cfg.SMTPHost == "" || cfg.SMTPUsername == "" || cfg.SMTPPassword == "" || cfg.From == "" {
			return nil, fmt.Errorf("smtp not configured: set SMTP_HOST, SMTP_USER, SMTP_PASS, SMTP_FROM")
		}
	default:
		return nil, fmt.Errorf("unknown mail provider %q", cfg.Provider)
	}
	return &Mailer{cfg: cfg}, nil
}

func (m *Mailer) Send(to, subject, body string) error {
	if m.cfg.Provider == "plunk" {
		return m.sendViaPlunk(to, subject, body)
	}
	return m.sendViaSMTP(to, subject, body)
}

func (m *Mailer) sendViaSMTP(to, subject, body string) error {
	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", m.cfg.From)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	if m.cfg.ReplyTo != "" {
		fmt.Fprintf(&msg, "Reply-To: %s\r\n", m.cfg.ReplyTo)
	}
	msg.WriteString("MIME-Version: 1.0\r\n")
	contentType := "text/plain"
	if lb := strings.ToLower(body); strings.Contains(lb, "<html") || strings.Contains(lb, "<p") || strings.Contains(lb, "<h2") {
		contentType = "text/html"
	}
	fmt.Fprintf(&msg, "Content-Type: %s; charset=\"utf-8\"\r\n\r\n%s\r\n", contentType, body)

	addr := m.cfg.SMTPHost + ":" + m.cfg.SMTPPort
	conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: m.cfg.SMTPHost})
	if err != nil {
		return fmt.Errorf("smtp dial: %w", err)
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, m.cfg.SMTPHost)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}
	defer client.Close()

	auth := smtp.PlainAuth("", m.cfg.SMTPUsername, m.cfg.SMTPPassword, m.cfg.SMTPHost)
	if err := client.Auth(auth); err != nil {
		return fmt.Errorf("smtp auth: %w", err)
	}
	if err := client.Mail(m.cfg.From); err != nil {
		return fmt.Errorf("smtp mail from: %w", err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("smtp rcpt to: %w", err)
	}
	wc, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp data: %w", err)
	}
	if _, err := wc.Write([]byte(msg.String())); err != nil {
		return fmt.Errorf("smtp write: %w", err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("smtp close: %w", err)
	}
	return client.Quit()
}

type plunkSendBody struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
	From    string `json:"from,omitempty"`
	Reply   string `json:"reply,omitempty"`
}

func (m *Mailer) sendViaPlunk(to, subject, body string) error {
	payload, _ := json.Marshal(plunkSendBody{
		To:      to,
		Subject: subject,
		Body:    body,
		From:    m.cfg.From,
		Reply:   m.cfg.ReplyTo,
	})
	req, err := http.NewRequest(http.MethodPost, m.cfg.PlunkAPIURL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+m.cfg.PlunkAPIKey)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if b, readErr := io.ReadAll(resp.Body); readErr == nil && len(b) > 0 {
			return fmt.Errorf("plunk send failed: status=%d body=%s", resp.StatusCode, b)
		}
		return fmt.Errorf("plunk send failed: status=%d", resp.StatusCode)
	}
	return nil
}
