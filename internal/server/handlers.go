package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/xela07ax/autoremedy/internal/domain"
	"go.uber.org/zap"
)

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("failed to encode response", zap.Error(err))
	}
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	token, err := s.issuer.IssueToken(req.Username, req.Password)
	if err != nil {
		// Детали не раскрываем: и неверный логин, и неверный пароль — 401
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}

	s.writeJSON(w, http.StatusOK, token)
}

// processResponse — структурированный результат обработки события:
// запись решения плюс исходы всех выполненных действий.
type processResponse struct {
	Decision        string                 `json:"decision"`
	Score           float64                `json:"score"`
	ActionsExecuted []string               `json:"actions_executed"`
	ActionResults   []domain.ActionOutcome `json:"action_results"`
	Status          string                 `json:"status"`
	Reasoning       string                 `json:"reasoning"`
	Timestamp       time.Time              `json:"timestamp"`
	TraceID         string                 `json:"trace_id"`
}

// handleProcessEvent — главный эндпоинт: событие -> решение -> действия.
// POST /v1/events
func (s *Server) handleProcessEvent(w http.ResponseWriter, r *http.Request) {
	var raw map[string]any
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		// Синтаксически битый JSON не доходит до движка: нечего записывать
		// в историю решений, если мы даже не смогли прочитать вход
		s.writeJSON(w, http.StatusBadRequest, map[string]any{
			"status":           "error",
			"message":          "invalid JSON format: " + err.Error(),
			"decision":         string(domain.DecisionLogOnly),
			"score":            0.0,
			"actions_executed": []string{},
			"reasoning":        "JSON parsing error",
		})
		return
	}

	rec := s.engine.Process(raw)

	actx := domain.ActionContext{
		Event:     raw,
		Decision:  rec.Decision,
		Score:     rec.Score,
		Reasoning: rec.Reasoning,
	}
	outcomes := s.registry.Dispatch(r.Context(), rec.Actions, actx)

	executed := make([]string, 0, len(outcomes))
	for _, o := range outcomes {
		executed = append(executed, o.Action)
	}

	s.writeJSON(w, http.StatusOK, processResponse{
		Decision:        string(rec.Decision),
		Score:           rec.Score,
		ActionsExecuted: executed,
		ActionResults:   outcomes,
		Status:          rec.Status,
		Reasoning:       rec.Reasoning,
		Timestamp:       rec.Timestamp,
		TraceID:         extractTraceID(r.Context()),
	})
}

// handleScore — explain-режим: что решил бы движок, не исполняя действий.
// POST /v1/score
func (s *Server) handleScore(w http.ResponseWriter, r *http.Request) {
	var raw map[string]any
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]any{
			"status":  "error",
			"message": "invalid JSON format: " + err.Error(),
			"score":   0.0,
		})
		return
	}

	ev, err := domain.EventFromMap(raw)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]any{
			"status":  "error",
			"message": err.Error(),
			"score":   0.0,
		})
		return
	}

	policy := s.engine.PolicySnapshot()
	score := s.engine.Score(ev)
	decision := s.engine.Decide(ev)

	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":            "success",
		"score":             score,
		"expected_decision": string(decision),
		"expected_actions":  s.engine.ActionsFor(decision),
		"breakdown": map[string]any{
			"severity_weight":   policy.SeverityWeights[ev.Severity],
			"impact_weight":     policy.ImpactWeights[ev.BusinessImpact],
			"urgency_weight":    policy.UrgencyWeight,
			"confidence_factor": ev.Confidence,
			"thresholds": map[string]float64{
				"immediate":  policy.ImmediateThreshold,
				"alert":      policy.AlertThreshold,
				"confidence": policy.ConfidenceThreshold,
			},
		},
		"event": ev,
	})
}

// handleHistory отдает окно истории из памяти движка.
// GET /v1/history?limit=10
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 10)
	records := s.engine.History(limit)

	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":  "success",
		"count":   len(records),
		"history": records,
	})
}

// handleTrail отдает персистентные записи из Postgres.
// GET /v1/trail?limit=50&decision=EXECUTE_IMMEDIATE
func (s *Server) handleTrail(w http.ResponseWriter, r *http.Request) {
	if s.trail == nil {
		http.Error(w, "decision trail storage is not configured", http.StatusServiceUnavailable)
		return
	}

	limit := queryInt(r, "limit", 50)
	decision := r.URL.Query().Get("decision")

	records, err := s.trail.FetchRecent(r.Context(), limit, decision)
	if err != nil {
		s.logger.Error("failed to fetch decision trail", zap.Error(err))
		http.Error(w, "failed to fetch decision trail", http.StatusInternalServerError)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":  "success",
		"count":   len(records),
		"records": records,
	})
}

// handleActions — discovery доступных действий.
// GET /v1/actions
func (s *Server) handleActions(w http.ResponseWriter, r *http.Request) {
	names := s.registry.Available()
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":  "success",
		"count":   len(names),
		"actions": names,
	})
}

// handleThresholds — действующая политика движка (read-only).
// GET /v1/thresholds
func (s *Server) handleThresholds(w http.ResponseWriter, r *http.Request) {
	policy := s.engine.PolicySnapshot()
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":     "success",
		"thresholds": policy,
	})
}

// handleReviews — очередь флагов ручной проверки.
// GET /v1/reviews?limit=10
func (s *Server) handleReviews(w http.ResponseWriter, r *http.Request) {
	if s.reviews == nil {
		http.Error(w, "review queue is not configured", http.StatusServiceUnavailable)
		return
	}

	limit := int64(queryInt(r, "limit", 10))
	flags, err := s.reviews.Pending(r.Context(), limit)
	if err != nil {
		s.logger.Error("failed to fetch review queue", zap.Error(err))
		http.Error(w, "failed to fetch review queue", http.StatusInternalServerError)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":  "success",
		"count":   len(flags),
		"reviews": flags,
	})
}

func (s *Server) handleListSilences(w http.ResponseWriter, r *http.Request) {
	if s.silences == nil {
		http.Error(w, "silence manager is not configured", http.StatusServiceUnavailable)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":    "success",
		"resources": s.silences.Snapshot(),
	})
}

func (s *Server) handleSilence(w http.ResponseWriter, r *http.Request) {
	if s.silences == nil {
		http.Error(w, "silence manager is not configured", http.StatusServiceUnavailable)
		return
	}
	resource := chi.URLParam(r, "resource")
	if resource == "" {
		http.Error(w, "resource is required", http.StatusBadRequest)
		return
	}
	if err := s.silences.Silence(r.Context(), resource); err != nil {
		s.logger.Error("failed to silence resource", zap.String("resource", resource), zap.Error(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleUnsilence(w http.ResponseWriter, r *http.Request) {
	if s.silences == nil {
		http.Error(w, "silence manager is not configured", http.StatusServiceUnavailable)
		return
	}
	resource := chi.URLParam(r, "resource")
	if err := s.silences.Unsilence(r.Context(), resource); err != nil {
		s.logger.Error("failed to unsilence resource", zap.String("resource", resource), zap.Error(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func queryInt(r *http.Request, key string, def int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}
