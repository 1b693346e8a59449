package connectors

import (
	"context"
	"encoding/json"
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"go.uber.org/zap"
)

// SMTPConfig — настройки доставки алертов почтой.
type SMTPConfig struct {
	Host     string
	Port     int
	From     string
	Password string
	To       []string
}

// SMTPSink — реальный канал доставки алертов: рендерит HTML-письмо из
// payload алерта и отправляет его по SMTP (STARTTLS, совместимо с Gmail).
// Это такой же EmitPort, как и остальные: хендлер алерта не знает,
// симуляция за ним или живая почта.
type SMTPSink struct {
	cfg    SMTPConfig
	logger *zap.Logger

	// Подменяется в тестах, чтобы не ходить в сеть
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTPSink(cfg SMTPConfig, logger *zap.Logger) *SMTPSink {
	return &SMTPSink{
		cfg:    cfg,
		logger: logger.With(zap.String("mod", "smtp-sink")),
		send:   smtp.SendMail,
	}
}

func (s *SMTPSink) Emit(ctx context.Context, payload []byte) ([]byte, error) {
	if len(s.cfg.To) == 0 {
		return nil, fmt.Errorf("smtp: no recipients configured")
	}

	var alert map[string]any
	if err := json.Unmarshal(payload, &alert); err != nil {
		return nil, fmt.Errorf("smtp: malformed alert payload: %w", err)
	}

	subject := fmt.Sprintf("[ALERT-%s] %s on %s",
		field(alert, "severity"), field(alert, "event_type"), field(alert, "resource"))

	msg := s.buildMessage(subject, alert)

	auth := smtp.PlainAuth("", s.cfg.From, s.cfg.Password, s.cfg.Host)
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	if err := s.send(addr, auth, s.cfg.From, s.cfg.To, msg); err != nil {
		return nil, fmt.Errorf("smtp delivery failed: %w", err)
	}

	s.logger.Info("alert email sent",
		zap.Int("recipients", len(s.cfg.To)),
		zap.String("subject", subject),
	)
	return []byte(fmt.Sprintf(`{"status": "sent", "recipients": %d}`, len(s.cfg.To))), nil
}

func (s *SMTPSink) buildMessage(subject string, alert map[string]any) []byte {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("From: %s\r\n", s.cfg.From))
	b.WriteString(fmt.Sprintf("To: %s\r\n", strings.Join(s.cfg.To, ", ")))
	b.WriteString(fmt.Sprintf("Subject: %s\r\n", subject))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")

	timestamp := time.Now().UTC().Format("2006-01-02 15:04:05 UTC")
	b.WriteString("<html><body style=\"font-family: Arial, sans-serif\">")
	b.WriteString("<h2>Autoremedy Alert</h2>")
	b.WriteString(fmt.Sprintf("<p><b>Timestamp:</b> %s</p>", timestamp))
	b.WriteString("<h3>Event Details</h3><ul>")
	for _, key := range []string{"event_type", "resource", "severity", "decision"} {
		b.WriteString(fmt.Sprintf("<li><b>%s:</b> %s</li>", key, field(alert, key)))
	}
	b.WriteString(fmt.Sprintf("<li><b>risk_score:</b> %v</li>", alert["risk_score"]))
	b.WriteString("</ul>")
	b.WriteString(fmt.Sprintf("<p>%s</p>", field(alert, "message")))
	b.WriteString("<hr><p style=\"font-size: 12px; color: #6c757d\">This alert was generated automatically by the autoremedy executor.</p>")
	b.WriteString("</body></html>")

	return []byte(b.String())
}

func field(m map[string]any, key string) string {
	if v, ok := m[key].(string); ok && v != "" {
		return v
	}
	return "UNKNOWN"
}
