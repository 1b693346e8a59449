package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/xela07ax/autoremedy/internal/domain"

	_ "github.com/jackc/pgx/v5/stdlib" // Драйвер Postgres
)

// DecisionRepo — хранилище decision trail в PostgreSQL.
type DecisionRepo struct {
	db *sql.DB
}

func NewDecisionRepo(connString string) (*DecisionRepo, error) {
	db, err := sql.Open("pgx", connString)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)
	return &DecisionRepo{db: db}, nil
}

func (r *DecisionRepo) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// WriteBatch пакетно вставляет записи решений (вызывается воркером trail).
func (r *DecisionRepo) WriteBatch(ctx context.Context, recs []domain.DecisionRecord) error {
	if len(recs) == 0 {
		return nil
	}

	// Количество колонок в таблице decision_log
	numFields := 7
	placeholderStr := ""
	vals := make([]interface{}, 0, len(recs)*numFields)

	// Динамически строим запрос для пакетной вставки
	for i, rec := range recs {
		p := i * numFields
		placeholderStr += fmt.Sprintf("($%d, $%d, $%d, $%d, $%d, $%d, $%d),",
			p+1, p+2, p+3, p+4, p+5, p+6, p+7)

		actions, _ := json.Marshal(rec.Actions)

		vals = append(vals,
			rec.ID, string(rec.Decision), rec.Score, actions,
			rec.Status, rec.Reasoning, rec.Timestamp,
		)
	}

	query := fmt.Sprintf(
		"INSERT INTO decision_log (id, decision, score, actions, status, reasoning, created_at) VALUES %s",
		strings.TrimSuffix(placeholderStr, ","),
	)

	_, err := r.db.ExecContext(ctx, query, vals...)
	return err
}

// FetchRecent возвращает последние записи в хронологическом порядке,
// опционально фильтруя по категории решения.
func (r *DecisionRepo) FetchRecent(ctx context.Context, limit int, decision string) ([]domain.DecisionRecord, error) {
	if limit <= 0 {
		limit = 10
	}

	query := `SELECT id, decision, score, actions, status, reasoning, created_at
		FROM decision_log`
	args := []interface{}{}
	if decision != "" {
		query += " WHERE decision = $1"
		args = append(args, decision)
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT %d", limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query decision log: %w", err)
	}
	defer rows.Close()

	recs := make([]domain.DecisionRecord, 0, limit)
	for rows.Next() {
		var rec domain.DecisionRecord
		var dec string
		var actions []byte
		if err := rows.Scan(&rec.ID, &dec, &rec.Score, &actions, &rec.Status, &rec.Reasoning, &rec.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan decision record: %w", err)
		}
		rec.Decision = domain.Decision(dec)
		if err := json.Unmarshal(actions, &rec.Actions); err != nil {
			rec.Actions = nil
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Запрос шел DESC ради LIMIT; наружу отдаем старейшие первыми
	for i, j := 0, len(recs)-1; i < j; i, j = i+1, j-1 {
		recs[i], recs[j] = recs[j], recs[i]
	}
	return recs, nil
}
