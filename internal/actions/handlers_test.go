package actions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/xela07ax/autoremedy/internal/connectors"
	"github.com/xela07ax/autoremedy/internal/domain"
	"go.uber.org/zap"
)

// fakePort captures emitted payloads and optionally fails.
type fakePort struct {
	payloads [][]byte
	err      error
}

func (p *fakePort) Emit(ctx context.Context, payload []byte) ([]byte, error) {
	p.payloads = append(p.payloads, payload)
	if p.err != nil {
		return nil, p.err
	}
	return []byte(`{"status":"ok"}`), nil
}

func (p *fakePort) lastPayload(t *testing.T) map[string]any {
	t.Helper()
	if len(p.payloads) == 0 {
		t.Fatal("port received no payload")
	}
	var m map[string]any
	if err := json.Unmarshal(p.payloads[len(p.payloads)-1], &m); err != nil {
		t.Fatalf("payload is not valid JSON: %v", err)
	}
	return m
}

func TestAlertHandler_Payload(t *testing.T) {
	port := &fakePort{}
	h := NewAlertHandler(port, zap.NewNop())

	out := h.Execute(context.Background(), testContext())
	if out.Result != domain.ResultSuccess {
		t.Fatalf("Result = %q, want SUCCESS: %s", out.Result, out.Message)
	}
	if out.Message != "Alert sent for disk_full_prediction on db-server-01" {
		t.Errorf("unexpected message: %q", out.Message)
	}

	alert := port.lastPayload(t)
	if alert["alert_type"] != "SYSTEM_ALERT" {
		t.Errorf("alert_type = %v, want SYSTEM_ALERT", alert["alert_type"])
	}
	if alert["decision"] != "EXECUTE_IMMEDIATE" {
		t.Errorf("decision = %v, want EXECUTE_IMMEDIATE", alert["decision"])
	}
	if alert["risk_score"] != 95.0 {
		t.Errorf("risk_score = %v, want 95", alert["risk_score"])
	}
	if alert["message"] != "Alert: disk_full_prediction detected on db-server-01" {
		t.Errorf("unexpected alert message: %v", alert["message"])
	}
}

func TestAlertHandler_PortFailure(t *testing.T) {
	port := &fakePort{err: errors.New("smtp connection refused")}
	h := NewAlertHandler(port, zap.NewNop())

	out := h.Execute(context.Background(), testContext())
	if out.Result != domain.ResultFailure {
		t.Fatalf("Result = %q, want FAILURE", out.Result)
	}
	if !strings.Contains(out.Message, "smtp connection refused") {
		t.Errorf("message must carry the cause: %q", out.Message)
	}
}

// A silenced resource suppresses delivery but the payload was built: PARTIAL.
func TestAlertHandler_SilencedIsPartial(t *testing.T) {
	port := &fakePort{err: fmt.Errorf("%w: db-server-01", connectors.ErrSilenced)}
	h := NewAlertHandler(port, zap.NewNop())

	out := h.Execute(context.Background(), testContext())
	if out.Result != domain.ResultPartial {
		t.Fatalf("Result = %q, want PARTIAL", out.Result)
	}
	if out.Message != "Alert suppressed: resource db-server-01 is silenced" {
		t.Errorf("unexpected message: %q", out.Message)
	}
	if out.Details["alert_data"] == nil {
		t.Error("suppressed alert must still carry the built payload in details")
	}
}

func TestAlertHandler_MissingFieldsDefaulted(t *testing.T) {
	port := &fakePort{}
	h := NewAlertHandler(port, zap.NewNop())

	actx := testContext()
	actx.Event = map[string]any{} // log_error path carries whatever arrived

	out := h.Execute(context.Background(), actx)
	if out.Result != domain.ResultSuccess {
		t.Fatalf("Result = %q, want SUCCESS", out.Result)
	}
	alert := port.lastPayload(t)
	if alert["event_type"] != "UNKNOWN" || alert["resource"] != "UNKNOWN" {
		t.Errorf("missing fields must default to UNKNOWN, got %v / %v", alert["event_type"], alert["resource"])
	}
}

func TestTicketHandler_Payload(t *testing.T) {
	port := &fakePort{}
	h := NewTicketHandler(port, zap.NewNop())

	out := h.Execute(context.Background(), testContext())
	if out.Result != domain.ResultSuccess {
		t.Fatalf("Result = %q, want SUCCESS: %s", out.Result, out.Message)
	}

	ticket := port.lastPayload(t)
	id, _ := ticket["ticket_id"].(string)
	if !strings.HasPrefix(id, "TK-") {
		t.Errorf("ticket_id = %q, want TK- prefix", id)
	}
	if ticket["title"] != "Incident: disk_full_prediction on db-server-01" {
		t.Errorf("unexpected title: %v", ticket["title"])
	}
	if ticket["status"] != "OPEN" {
		t.Errorf("status = %v, want OPEN", ticket["status"])
	}
	if ticket["priority"] != "CRITICAL" {
		t.Errorf("priority = %v, want CRITICAL for score 95", ticket["priority"])
	}
	if out.Message != fmt.Sprintf("Ticket %s created successfully", id) {
		t.Errorf("unexpected message: %q", out.Message)
	}
}

func TestTicketPriority(t *testing.T) {
	tests := []struct {
		score float64
		want  string
	}{
		{95, "CRITICAL"},
		{80, "CRITICAL"},
		{79.9, "HIGH"},
		{50, "HIGH"},
		{49.9, "MEDIUM"},
		{0, "MEDIUM"},
	}
	for _, tc := range tests {
		if got := ticketPriority(tc.score); got != tc.want {
			t.Errorf("ticketPriority(%v) = %q, want %q", tc.score, got, tc.want)
		}
	}
}

func TestScriptHandler_Payload(t *testing.T) {
	port := &fakePort{}
	h := NewScriptHandler(port, zap.NewNop())

	out := h.Execute(context.Background(), testContext())
	if out.Result != domain.ResultSuccess {
		t.Fatalf("Result = %q, want SUCCESS: %s", out.Result, out.Message)
	}

	exec := port.lastPayload(t)
	if exec["script_name"] != "remediate_disk_full_prediction" {
		t.Errorf("script_name = %v, want remediate_disk_full_prediction", exec["script_name"])
	}
	id, _ := exec["execution_id"].(string)
	if !strings.HasPrefix(id, "EXEC-") {
		t.Errorf("execution_id = %q, want EXEC- prefix", id)
	}
	if out.Message != "Script remediate_disk_full_prediction executed on db-server-01" {
		t.Errorf("unexpected message: %q", out.Message)
	}
}

func TestLogEventHandler(t *testing.T) {
	port := &fakePort{}
	h := NewLogEventHandler(port, zap.NewNop())

	out := h.Execute(context.Background(), testContext())
	if out.Result != domain.ResultSuccess {
		t.Fatalf("Result = %q, want SUCCESS: %s", out.Result, out.Message)
	}
	if out.Message != "Event logged: disk_full_prediction on db-server-01" {
		t.Errorf("unexpected message: %q", out.Message)
	}
}

func TestLogErrorHandler(t *testing.T) {
	port := &fakePort{}
	h := NewLogErrorHandler(port, zap.NewNop())

	actx := domain.ActionContext{
		Event:     map[string]any{"event_type": "x"},
		Decision:  domain.DecisionLogOnly,
		Reasoning: "Processing error: event validation failed",
	}

	out := h.Execute(context.Background(), actx)
	if out.Result != domain.ResultSuccess {
		t.Fatalf("Result = %q, want SUCCESS: %s", out.Result, out.Message)
	}

	entry := port.lastPayload(t)
	if entry["error_type"] != "PROCESSING_ERROR" {
		t.Errorf("error_type = %v, want PROCESSING_ERROR", entry["error_type"])
	}
	if entry["message"] != actx.Reasoning {
		t.Errorf("message = %v, want the reasoning text", entry["message"])
	}
	if entry["severity"] != "HIGH" {
		t.Errorf("severity = %v, want HIGH", entry["severity"])
	}
}

func TestReviewHandler_Payload(t *testing.T) {
	port := &fakePort{}
	h := NewReviewHandler(port, zap.NewNop())

	actx := testContext()
	actx.Decision = domain.DecisionHumanReview

	out := h.Execute(context.Background(), actx)
	if out.Result != domain.ResultSuccess {
		t.Fatalf("Result = %q, want SUCCESS: %s", out.Result, out.Message)
	}

	flag := port.lastPayload(t)
	id, _ := flag["review_id"].(string)
	if !strings.HasPrefix(id, "RV-") {
		t.Errorf("review_id = %q, want RV- prefix", id)
	}
	if flag["status"] != "PENDING_REVIEW" {
		t.Errorf("status = %v, want PENDING_REVIEW", flag["status"])
	}
	if flag["reason"] != "Low confidence" {
		t.Errorf("reason = %v, want Low confidence", flag["reason"])
	}
}

func TestHandlerNames_MatchActionTable(t *testing.T) {
	port := &fakePort{}
	logger := zap.NewNop()

	handlers := []Handler{
		NewAlertHandler(port, logger),
		NewTicketHandler(port, logger),
		NewScriptHandler(port, logger),
		NewLogEventHandler(port, logger),
		NewLogErrorHandler(port, logger),
		NewReviewHandler(port, logger),
	}
	want := []string{
		domain.ActionSendAlert,
		domain.ActionCreateTicket,
		domain.ActionExecuteScript,
		domain.ActionLogEvent,
		domain.ActionLogError,
		domain.ActionFlagForReview,
	}
	for i, h := range handlers {
		if h.Name() != want[i] {
			t.Errorf("handler[%d].Name() = %q, want %q", i, h.Name(), want[i])
		}
	}
}
