package audit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/xela07ax/autoremedy/internal/domain"
	"go.uber.org/zap"
)

// fakeStorage collects batches and can simulate a slow backend.
type fakeStorage struct {
	mu      sync.Mutex
	batches [][]domain.DecisionRecord
}

func (s *fakeStorage) WriteBatch(ctx context.Context, recs []domain.DecisionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	batch := make([]domain.DecisionRecord, len(recs))
	copy(batch, recs)
	s.batches = append(s.batches, batch)
	return nil
}

func (s *fakeStorage) total() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, b := range s.batches {
		n += len(b)
	}
	return n
}

func makeRecord(id string) domain.DecisionRecord {
	return domain.DecisionRecord{
		ID:        id,
		Decision:  domain.DecisionLogOnly,
		Actions:   []string{domain.ActionLogEvent},
		Status:    domain.RecordCompleted,
		Timestamp: time.Now().UTC(),
	}
}

func TestTrail_FlushOnInterval(t *testing.T) {
	store := &fakeStorage{}
	trail := NewTrail(store, zap.NewNop(), 100, 20*time.Millisecond, nil)
	trail.Start()
	defer trail.Stop()

	trail.Record(makeRecord("a"))
	trail.Record(makeRecord("b"))

	deadline := time.Now().Add(2 * time.Second)
	for store.total() < 2 {
		if time.Now().After(deadline) {
			t.Fatalf("records not flushed within deadline, got %d", store.total())
		}
		time.Sleep(10 * time.Millisecond)
	}
}

// Stop must drain everything still sitting in the buffer (final flush).
func TestTrail_DrainOnStop(t *testing.T) {
	store := &fakeStorage{}
	// Long interval: ticker will not fire, only the drain can save the records
	trail := NewTrail(store, zap.NewNop(), 1000, time.Hour, nil)
	trail.Start()

	for i := 0; i < 250; i++ {
		trail.Record(makeRecord("rec"))
	}
	trail.Stop()

	if got := store.total(); got != 250 {
		t.Errorf("drained %d records, want 250", got)
	}
}

func TestTrail_RecordAfterStopDropped(t *testing.T) {
	store := &fakeStorage{}
	trail := NewTrail(store, zap.NewNop(), 10, time.Hour, nil)
	trail.Start()
	trail.Stop()

	// Must not panic on a closed channel, the record is simply dropped
	trail.Record(makeRecord("late"))

	if got := store.total(); got != 0 {
		t.Errorf("stored %d records, want 0", got)
	}
}

func TestTrail_FillsMissingTimestamp(t *testing.T) {
	store := &fakeStorage{}
	trail := NewTrail(store, zap.NewNop(), 10, time.Hour, nil)
	trail.Start()

	rec := makeRecord("x")
	rec.Timestamp = time.Time{}
	trail.Record(rec)
	trail.Stop()

	if store.total() != 1 {
		t.Fatalf("stored %d records, want 1", store.total())
	}
	if store.batches[0][0].Timestamp.IsZero() {
		t.Error("trail must stamp records that arrive without a timestamp")
	}
}
