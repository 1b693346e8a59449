package connectors

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func testSMTPConfig() SMTPConfig {
	return SMTPConfig{
		Host:     "smtp.example.com",
		Port:     587,
		From:     "executor@example.com",
		Password: "secret",
		To:       []string{"oncall@example.com", "sre@example.com"},
	}
}

func TestSMTPSink_SendsRenderedAlert(t *testing.T) {
	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg []byte

	sink := NewSMTPSink(testSMTPConfig(), zap.NewNop())
	sink.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, msg
		return nil
	}

	payload := []byte(`{"event_type":"disk_full_prediction","resource":"db-server-01","severity":"HIGH","decision":"EXECUTE_IMMEDIATE","risk_score":95,"message":"Alert: disk_full_prediction detected on db-server-01"}`)
	resp, err := sink.Emit(context.Background(), payload)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotAddr != "smtp.example.com:587" {
		t.Errorf("addr = %q", gotAddr)
	}
	if gotFrom != "executor@example.com" || len(gotTo) != 2 {
		t.Errorf("from/to = %q / %v", gotFrom, gotTo)
	}

	msg := string(gotMsg)
	if !strings.Contains(msg, "Subject: [ALERT-HIGH] disk_full_prediction on db-server-01") {
		t.Errorf("subject line missing or wrong:\n%s", msg)
	}
	if !strings.Contains(msg, "Content-Type: text/html") {
		t.Error("message must be HTML")
	}
	if !strings.Contains(msg, "db-server-01") {
		t.Error("body must mention the resource")
	}

	if !strings.Contains(string(resp), `"recipients": 2`) {
		t.Errorf("unexpected response: %s", resp)
	}
}

func TestSMTPSink_NoRecipients(t *testing.T) {
	cfg := testSMTPConfig()
	cfg.To = nil
	sink := NewSMTPSink(cfg, zap.NewNop())
	sink.send = func(string, smtp.Auth, string, []string, []byte) error {
		t.Fatal("send must not be called without recipients")
		return nil
	}

	if _, err := sink.Emit(context.Background(), []byte(`{}`)); err == nil {
		t.Fatal("expected error when no recipients are configured")
	}
}

func TestSMTPSink_DeliveryFailure(t *testing.T) {
	sink := NewSMTPSink(testSMTPConfig(), zap.NewNop())
	sink.send = func(string, smtp.Auth, string, []string, []byte) error {
		return errors.New("connection refused")
	}

	_, err := sink.Emit(context.Background(), []byte(`{"severity":"HIGH"}`))
	if err == nil || !strings.Contains(err.Error(), "connection refused") {
		t.Fatalf("expected delivery error, got %v", err)
	}
}

func TestSMTPSink_MalformedPayload(t *testing.T) {
	sink := NewSMTPSink(testSMTPConfig(), zap.NewNop())
	if _, err := sink.Emit(context.Background(), []byte("not-json")); err == nil {
		t.Fatal("expected error for malformed payload")
	}
}
