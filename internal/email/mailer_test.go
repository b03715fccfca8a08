package email

import (
	"context"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestMessages(t *testing.T) {
	w := welcome("Ann")
	if w.subject != "Welcome, Ann" {
		t.Errorf("welcome subject = %q", w.subject)
	}
	if !strings.Contains(w.text, "Welcome to Task Manager") {
		t.Errorf("welcome text = %q", w.text)
	}

	c := cancellation("Ann")
	if c.subject != "Thank you, Ann" {
		t.Errorf("cancellation subject = %q", c.subject)
	}
	if !strings.Contains(c.text, "before we part ways") {
		t.Errorf("cancellation text = %q", c.text)
	}
}

func TestLogMailer(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	m := NewLogMailer(zap.New(core))

	if err := m.SendWelcome(context.Background(), "ann@example.com", "Ann"); err != nil {
		t.Fatal(err)
	}
	if err := m.SendCancellation(context.Background(), "ann@example.com", "Ann"); err != nil {
		t.Fatal(err)
	}

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("got %d log entries, want 2", len(entries))
	}
	if got := entries[0].ContextMap()["subject"]; got != "Welcome, Ann" {
		t.Errorf("subject field = %v", got)
	}
	if got := entries[1].ContextMap()["to"]; got != "ann@example.com" {
		t.Errorf("to field = %v", got)
	}
}
