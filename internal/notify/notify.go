// Package notify delivers best-effort contact notifications by email.
package notify

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

// Notification describes a conversation turn that asked for a follow-up.
type Notification struct {
	ClientID    string
	SessionID   string
	Keyword     string
	UserMessage string
	Reply       string
}

// Notifier delivers notifications.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// Nop drops notifications, logging why.
type Nop struct {
	Reason string
}

func (n Nop) Notify(_ context.Context, note Notification) error {
	log.WithFields(log.Fields{"client": note.ClientID, "session": note.SessionID}).
		Warnf("notify: trigger %q detected but notifications are off (%s)", note.Keyword, n.Reason)
	return nil
}

// SMTPConfig holds the mail transport settings.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       string
	Timeout  time.Duration
}

func (c SMTPConfig) addr() string {
	port := c.Port
	if port == 0 {
		port = 587
	}
	return net.JoinHostPort(c.Host, strconv.Itoa(port))
}

func (c SMTPConfig) sender() string {
	if c.From != "" {
		return c.From
	}
	return c.Username
}

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// Mailer sends notifications through an SMTP relay.
type Mailer struct {
	cfg  SMTPConfig
	send sendFunc
	now  func() time.Time
}

// NewMailer returns a mailer for cfg.
func NewMailer(cfg SMTPConfig) *Mailer {
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &Mailer{cfg: cfg, send: smtp.SendMail, now: time.Now}
}

func (m *Mailer) auth() smtp.Auth {
	if m.cfg.Username == "" {
		return nil
	}
	return smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
}

// Verify connects to the relay, negotiates STARTTLS when offered and
// authenticates, without sending anything.
func (m *Mailer) Verify(ctx context.Context) error {
	if m.cfg.Host == "" || m.cfg.To == "" {
		return errors.New("smtp host or recipient not configured")
	}

	d := net.Dialer{Timeout: m.cfg.Timeout}
	conn, err := d.DialContext(ctx, "tcp", m.cfg.addr())
	if err != nil {
		return fmt.Errorf("dial smtp: %w", err)
	}
	c, err := smtp.NewClient(conn, m.cfg.Host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("smtp handshake: %w", err)
	}
	defer c.Close()

	if ok, _ := c.Extension("STARTTLS"); ok {
		if err := c.StartTLS(&tls.Config{ServerName: m.cfg.Host}); err != nil {
			return fmt.Errorf("starttls: %w", err)
		}
	}
	if a := m.auth(); a != nil {
		if err := c.Auth(a); err != nil {
			return fmt.Errorf("smtp auth: %w", err)
		}
	}
	return c.Quit()
}

// Notify sends one notification email.
func (m *Mailer) Notify(ctx context.Context, n Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := Compose(n, m.cfg.sender(), m.cfg.To, m.now())
	if err := m.send(m.cfg.addr(), m.auth(), m.cfg.sender(), []string{m.cfg.To}, msg); err != nil {
		return fmt.Errorf("send notification: %w", err)
	}
	log.WithField("client", n.ClientID).Info("notify: notification email sent")
	return nil
}

// Subject is the notification subject line.
func Subject(n Notification) string {
	kw := n.Keyword
	if kw == "" {
		kw = "contatto"
	}
	return fmt.Sprintf("🔔 PoolyAI - Nuovo %s da %s", kw, n.ClientID)
}

// Body is the plain-text notification body.
func Body(n Notification) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Nuova conversazione triggerata da %s (Session: %s)\n\n", n.ClientID, n.SessionID)
	fmt.Fprintf(&b, "CLIENT: %s\n", n.UserMessage)
	fmt.Fprintf(&b, "POOLYAI: %s\n\n", n.Reply)
	b.WriteString("---\nLog completo disponibile nello store delle sessioni")
	return b.String()
}

// Compose builds the RFC 5322 message.
func Compose(n Notification, from, to string, date time.Time) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", mime.QEncoding.Encode("utf-8", "PoolyAI Notifications")+" <"+from+">")
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", Subject(n)))
	fmt.Fprintf(&b, "Date: %s\r\n", date.Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("Content-Transfer-Encoding: 8bit\r\n\r\n")
	b.WriteString(strings.ReplaceAll(Body(n), "\n", "\r\n"))
	b.WriteString("\r\n")
	return []byte(b.String())
}
