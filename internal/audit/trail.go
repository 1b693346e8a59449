package audit

/*
Файл trail.go реализует Decision Trail — асинхронную персистентность записей
решений. Движок держит в памяти только окно истории; системой записи служит
внешнее хранилище, в которое записи уходят пачками.

Ключевые свойства:
- Non-blocking: Record никогда не блокирует Hot Path обработки события.
- Batching: накопление в памяти и пакетная запись (Bulk Insert) по таймеру
  или при достижении лимита пачки.
- Drain Pattern: при остановке буфер вычитывается до конца (Final Flush),
  записи не теряются при штатном перезапуске.
- Load Shedding: при переполнении буфера запись сбрасывается с ошибкой в лог,
  но обработка событий не останавливается.
*/

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/xela07ax/autoremedy/internal/domain"
	"go.uber.org/zap"
)

// StorageInterface определяет, куда физически сохраняются записи решений
type StorageInterface interface {
	// WriteBatch сохраняет пачку записей за один раз
	WriteBatch(ctx context.Context, recs []domain.DecisionRecord) error
}

const batchLimit = 100

type Trail struct {
	ch     chan domain.DecisionRecord
	repo   StorageInterface
	logger *zap.Logger
	wg     sync.WaitGroup

	flushInterval time.Duration
	bufferFill    prometheus.Gauge // опционален

	// Атомарный флаг (0 - открыт, 1 - закрыт): защита от Record после остановки
	isClosed int32
}

func NewTrail(repo StorageInterface, logger *zap.Logger, bufSize int, flushInterval time.Duration, bufferFill prometheus.Gauge) *Trail {
	if bufSize <= 0 {
		bufSize = 10000
	}
	if flushInterval <= 0 {
		flushInterval = 500 * time.Millisecond
	}
	return &Trail{
		ch:            make(chan domain.DecisionRecord, bufSize),
		repo:          repo,
		logger:        logger.With(zap.String("mod", "trail")),
		flushInterval: flushInterval,
		bufferFill:    bufferFill,
	}
}

func (t *Trail) Start() {
	t.wg.Add(1)
	go t.worker()
}

// Stop «запирает» вход и ждет, пока воркер допишет остатки буфера.
func (t *Trail) Stop() {
	atomic.StoreInt32(&t.isClosed, 1)

	// Крошечная пауза, чтобы конкурентные Record успели проскочить до close
	time.Sleep(10 * time.Millisecond)

	t.logger.Info("stopping decision trail: closing channel and flushing buffer...")
	close(t.ch)
	t.wg.Wait()
	t.logger.Info("decision trail stopped gracefully")
}

// Record реализует engine.Recorder.
func (t *Trail) Record(rec domain.DecisionRecord) {
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}

	if atomic.LoadInt32(&t.isClosed) == 1 {
		t.logger.Warn("decision record dropped: trail is stopping", zap.String("id", rec.ID))
		return
	}

	// Load Shedding: при переполнении буфера жертвуем персистентностью записи,
	// но не задержкой обработки события
	select {
	case t.ch <- rec:
		if t.bufferFill != nil {
			t.bufferFill.Set(float64(len(t.ch)))
		}
	default:
		t.logger.Error("trail_buffer_overflow",
			zap.String("id", rec.ID),
			zap.String("decision", string(rec.Decision)),
		)
	}
}

func (t *Trail) worker() {
	defer t.wg.Done()

	batch := make([]domain.DecisionRecord, 0, batchLimit)
	ticker := time.NewTicker(t.flushInterval)
	defer ticker.Stop()

	flush := func() {
		if len(batch) > 0 {
			// Background: основной контекст на shutdown уже может быть закрыт
			if err := t.repo.WriteBatch(context.Background(), batch); err != nil {
				t.logger.Error("trail flush failed", zap.Error(err))
			}
			batch = batch[:0]
		}
	}

	for {
		select {
		case rec, ok := <-t.ch:
			if !ok {
				// Закрытие канала в Stop() — самодостаточный сигнал завершения:
				// воркер сначала вычитает очередь, потом получит ok == false,
				// сделает финальный flush и выйдет.
				flush()
				t.logger.Info("trail worker finished")
				return
			}
			batch = append(batch, rec)
			if len(batch) >= batchLimit {
				flush()
			}
		case <-ticker.C:
			flush()
		}
	}
}
