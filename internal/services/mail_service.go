package services

import (
	"bytes"
	"context"
	"crypto/tls"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"mime"
	"net"
	"net/mail"
	"net/smtp"
	"strings"
)

var ErrMailDisabled = errors.New("mail transport disabled")

//go:embed templates/*.html
var mailTemplates embed.FS

var templates = template.Must(template.ParseFS(mailTemplates, "templates/*.html"))

type MailConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
	FromName string
}

// Message is a single HTML email.
type Message struct {
	To      []string
	Subject string
	HTML    string
}

// Mailer is the outbound mail transport.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

type MailerFunc func(ctx context.Context, msg Message) error

func (f MailerFunc) Send(ctx context.Context, msg Message) error { return f(ctx, msg) }

// MailService delivers mail over SMTP, upgrading to TLS when the server offers STARTTLS.
type MailService struct {
	cfg     MailConfig
	Enabled bool
	log     *slog.Logger
}

func NewMailService(cfg MailConfig, log *slog.Logger) *MailService {
	enabled := cfg.Host != "" && cfg.Port != "" && cfg.From != ""
	log = log.With("component", "mail")
	if !enabled {
		log.Warn("mail disabled: SMTP_HOST, SMTP_PORT and SMTP_FROM are required")
	}
	return &MailService{cfg: cfg, Enabled: enabled, log: log}
}

func (s *MailService) Send(ctx context.Context, msg Message) error {
	if !s.Enabled {
		return ErrMailDisabled
	}
	if len(msg.To) == 0 {
		return errors.New("mail has no recipients")
	}

	addr := net.JoinHostPort(s.cfg.Host, s.cfg.Port)
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	c, err := smtp.NewClient(conn, s.cfg.Host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("smtp handshake: %w", err)
	}
	defer c.Close()

	if ok, _ := c.Extension("STARTTLS"); ok {
		if err := c.StartTLS(&tls.Config{ServerName: s.cfg.Host}); err != nil {
			return fmt.Errorf("starttls: %w", err)
		}
	}
	if s.cfg.Username != "" {
		if ok, _ := c.Extension("AUTH"); ok {
			if err := c.Auth(smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)); err != nil {
				return fmt.Errorf("smtp auth: %w", err)
			}
		}
	}

	if err := c.Mail(s.cfg.From); err != nil {
		return fmt.Errorf("smtp MAIL FROM: %w", err)
	}
	for _, rcpt := range msg.To {
		if err := c.Rcpt(rcpt); err != nil {
			return fmt.Errorf("smtp RCPT TO %s: %w", rcpt, err)
		}
	}
	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("smtp DATA: %w", err)
	}
	if _, err := w.Write(s.compose(msg)); err != nil {
		return fmt.Errorf("write message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finish message: %w", err)
	}
	if err := c.Quit(); err != nil {
		s.log.WarnContext(ctx, "smtp quit failed", "error", err)
	}
	s.log.InfoContext(ctx, "mail sent", "to", msg.To, "subject", msg.Subject)
	return nil
}

func (s *MailService) compose(msg Message) []byte {
	from := (&mail.Address{Name: s.cfg.FromName, Address: s.cfg.From}).String()
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "From: %s\r\n", from)
	fmt.Fprintf(&buf, "To: %s\r\n", strings.Join(msg.To, ", "))
	fmt.Fprintf(&buf, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", headerSafe(msg.Subject)))
	buf.WriteString("MIME-Version: 1.0\r\n")
	buf.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	buf.WriteString("\r\n")
	buf.WriteString(msg.HTML)
	return buf.Bytes()
}

func headerSafe(s string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(s)
}

// CommentNotification is the data behind the new-comment email.
type CommentNotification struct {
	AuthorName  string
	PostTitle   string
	CommentHTML template.HTML
	PostLink    string
}

func RenderCommentNotification(data CommentNotification) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, "comment_notification.html", data); err != nil {
		return "", fmt.Errorf("render comment notification: %w", err)
	}
	return buf.String(), nil
}
