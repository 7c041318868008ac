package mail

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/config"
)

func TestNewFallsBackToLogMailer(t *testing.T) {
	if _, ok := New(config.MailConfig{}, zap.NewNop()).(*LogMailer); !ok {
		t.Fatalf("expected log mailer without SMTP host")
	}
	if _, ok := New(config.MailConfig{Host: "smtp.example.com", Port: 25}, zap.NewNop()).(*SMTPMailer); !ok {
		t.Fatalf("expected SMTP mailer with host")
	}
}

func TestSendWithoutRecipient(t *testing.T) {
	mailers := []Mailer{
		NewLogMailer(zap.NewNop()),
		NewSMTPMailer(config.MailConfig{Host: "127.0.0.1", Port: 1}),
	}
	for _, m := range mailers {
		if err := m.Send(context.Background(), Message{Subject: "x"}); !errors.Is(err, ErrNoRecipient) {
			t.Fatalf("%T: expected ErrNoRecipient, got %v", m, err)
		}
	}
}

func TestBuildMessageHeaders(t *testing.T) {
	var buf bytes.Buffer
	msg := build(Message{From: "test@test.tld", To: "owner@example.com", Subject: "[#4] New follow-up", Body: "Hi,"})
	if _, err := msg.WriteTo(&buf); err != nil {
		t.Fatalf("write message: %v", err)
	}
	raw := buf.String()
	for _, want := range []string{"From: test@test.tld", "To: owner@example.com", "Subject: [#4] New follow-up", "Hi,"} {
		if !strings.Contains(raw, want) {
			t.Fatalf("message missing %q:\n%s", want, raw)
		}
	}
}
