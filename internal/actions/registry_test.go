package actions

import (
	"context"
	"testing"

	"github.com/xela07ax/autoremedy/internal/domain"
	"github.com/xela07ax/autoremedy/internal/engine"
	"go.uber.org/zap"
)

// stubHandler lets tests control an outcome or force a panic.
type stubHandler struct {
	name    string
	outcome domain.ActionOutcome
	panics  bool
}

func (h *stubHandler) Name() string { return h.name }

func (h *stubHandler) Execute(ctx context.Context, actx domain.ActionContext) domain.ActionOutcome {
	if h.panics {
		panic("integration blew up")
	}
	return h.outcome
}

func newTestRegistry() *Registry {
	return NewRegistry(engine.NewMetrics(nil), zap.NewNop())
}

func testContext() domain.ActionContext {
	return domain.ActionContext{
		Event: map[string]any{
			"event_type":      "disk_full_prediction",
			"severity":        "HIGH",
			"resource":        "db-server-01",
			"business_impact": "CRITICAL",
			"confidence":      0.95,
		},
		Decision:  domain.DecisionExecuteImmediate,
		Score:     95,
		Reasoning: "test",
	}
}

func TestDispatch_PreservesOrderAndLength(t *testing.T) {
	r := newTestRegistry()
	r.Register(&stubHandler{name: "a", outcome: domain.ActionOutcome{Action: "a", Result: domain.ResultSuccess}})
	r.Register(&stubHandler{name: "b", outcome: domain.ActionOutcome{Action: "b", Result: domain.ResultSuccess}})
	r.Register(&stubHandler{name: "c", outcome: domain.ActionOutcome{Action: "c", Result: domain.ResultSuccess}})

	names := []string{"c", "a", "b"}
	results := r.Dispatch(context.Background(), names, testContext())

	if len(results) != len(names) {
		t.Fatalf("got %d results, want %d", len(results), len(names))
	}
	for i, name := range names {
		if results[i].Action != name {
			t.Errorf("result[%d].Action = %q, want %q", i, results[i].Action, name)
		}
	}
}

func TestDispatch_UnknownActionSkipped(t *testing.T) {
	r := newTestRegistry()
	r.Register(&stubHandler{name: "known", outcome: domain.ActionOutcome{Action: "known", Result: domain.ResultSuccess}})

	results := r.Dispatch(context.Background(), []string{"known", "ghost", "known"}, testContext())

	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}
	if results[1].Result != domain.ResultSkipped {
		t.Errorf("unknown action Result = %q, want SKIPPED", results[1].Result)
	}
	if results[1].Message != `Action "ghost" not found` {
		t.Errorf("unexpected skip message: %q", results[1].Message)
	}
	// The batch continues past the skip
	if results[2].Result != domain.ResultSuccess {
		t.Errorf("action after skip Result = %q, want SUCCESS", results[2].Result)
	}
}

// A failing or panicking handler must never abort the batch.
func TestDispatch_FailureIsolation(t *testing.T) {
	r := newTestRegistry()
	r.Register(&stubHandler{name: "first", outcome: domain.ActionOutcome{Action: "first", Result: domain.ResultFailure, Message: "boom"}})
	r.Register(&stubHandler{name: "second", outcome: domain.ActionOutcome{Action: "second", Result: domain.ResultSuccess}})

	results := r.Dispatch(context.Background(), []string{"first", "second"}, testContext())

	if results[0].Result != domain.ResultFailure {
		t.Errorf("result[0] = %q, want FAILURE", results[0].Result)
	}
	if results[1].Result != domain.ResultSuccess {
		t.Errorf("failure aborted the batch: result[1] = %q", results[1].Result)
	}
}

func TestDispatch_PanicBecomesFailure(t *testing.T) {
	r := newTestRegistry()
	r.Register(&stubHandler{name: "bomb", panics: true})
	r.Register(&stubHandler{name: "after", outcome: domain.ActionOutcome{Action: "after", Result: domain.ResultSuccess}})

	results := r.Dispatch(context.Background(), []string{"bomb", "after"}, testContext())

	if results[0].Result != domain.ResultFailure {
		t.Fatalf("panic outcome = %q, want FAILURE", results[0].Result)
	}
	if results[0].Message != "Unexpected error: integration blew up" {
		t.Errorf("unexpected panic message: %q", results[0].Message)
	}
	if results[1].Result != domain.ResultSuccess {
		t.Error("panic aborted the batch")
	}
}

func TestDispatch_EmptyList(t *testing.T) {
	r := newTestRegistry()
	results := r.Dispatch(context.Background(), nil, testContext())
	if len(results) != 0 {
		t.Errorf("got %d results for empty input, want 0", len(results))
	}
}

func TestAvailable_Sorted(t *testing.T) {
	r := newTestRegistry()
	r.Register(&stubHandler{name: "zulu"})
	r.Register(&stubHandler{name: "alpha"})
	r.Register(&stubHandler{name: "mike"})

	got := r.Available()
	want := []string{"alpha", "mike", "zulu"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}
