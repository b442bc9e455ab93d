package notify

import (
	"context"
	"errors"
	"mime"
	"net/smtp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sample = Notification{
	ClientID:    "web-42",
	SessionID:   "s-1",
	Keyword:     "preventivo",
	UserMessage: "Vorrei un preventivo",
	Reply:       "Certo! Ecco i contatti.",
}

func TestSubject(t *testing.T) {
	assert.Equal(t, "🔔 PoolyAI - Nuovo preventivo da web-42", Subject(sample))

	n := sample
	n.Keyword = ""
	assert.Contains(t, Subject(n), "Nuovo contatto da web-42")
}

func TestCompose(t *testing.T) {
	date := time.Date(2025, 10, 1, 10, 0, 0, 0, time.UTC)
	raw := string(Compose(sample, "bot@example.com", "owner@example.com", date))

	assert.Contains(t, raw, "To: owner@example.com\r\n")
	assert.Contains(t, raw, "<bot@example.com>")
	assert.Contains(t, raw, "Content-Type: text/plain; charset=utf-8")
	assert.Contains(t, raw, "CLIENT: Vorrei un preventivo\r\n")
	assert.Contains(t, raw, "POOLYAI: Certo! Ecco i contatti.\r\n")
	assert.Contains(t, raw, "(Session: s-1)")

	var subject string
	for _, line := range strings.Split(raw, "\r\n") {
		if strings.HasPrefix(line, "Subject: ") {
			subject = strings.TrimPrefix(line, "Subject: ")
		}
	}
	decoded, err := new(mime.WordDecoder).DecodeHeader(subject)
	require.NoError(t, err)
	assert.Equal(t, Subject(sample), decoded)
}

func TestMailer_Notify(t *testing.T) {
	m := NewMailer(SMTPConfig{Host: "smtp.example.com", Port: 2525, Username: "bot@example.com", Password: "x", To: "owner@example.com"})

	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg []byte
	m.send = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, msg
		return nil
	}

	require.NoError(t, m.Notify(context.Background(), sample))
	assert.Equal(t, "smtp.example.com:2525", gotAddr)
	assert.Equal(t, "bot@example.com", gotFrom)
	assert.Equal(t, []string{"owner@example.com"}, gotTo)
	assert.Contains(t, string(gotMsg), "Vorrei un preventivo")
}

func TestMailer_NotifyError(t *testing.T) {
	m := NewMailer(SMTPConfig{Host: "smtp.example.com", To: "owner@example.com"})
	m.send = func(string, smtp.Auth, string, []string, []byte) error {
		return errors.New("535 authentication failed")
	}

	err := m.Notify(context.Background(), sample)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "535")
}

func TestMailer_VerifyRequiresConfig(t *testing.T) {
	err := NewMailer(SMTPConfig{}).Verify(context.Background())
	assert.Error(t, err)
}

func TestSMTPConfig_Defaults(t *testing.T) {
	cfg := SMTPConfig{Host: "smtp.office365.com", Username: "bot@example.com"}
	assert.Equal(t, "smtp.office365.com:587", cfg.addr())
	assert.Equal(t, "bot@example.com", cfg.sender())

	cfg.From = "noreply@example.com"
	assert.Equal(t, "noreply@example.com", cfg.sender())
}

func TestNop(t *testing.T) {
	assert.NoError(t, Nop{Reason: "disabled"}.Notify(context.Background(), sample))
}
