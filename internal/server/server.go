package server

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/xela07ax/autoremedy/internal/actions"
	"github.com/xela07ax/autoremedy/internal/control"
	"github.com/xela07ax/autoremedy/internal/domain"
	"github.com/xela07ax/autoremedy/internal/engine"
	"github.com/xela07ax/autoremedy/internal/infra"
	"github.com/xela07ax/autoremedy/internal/infra/auth"
	"go.uber.org/zap"
)

// RecordProvider — чтение персистентного decision trail (Postgres).
type RecordProvider interface {
	FetchRecent(ctx context.Context, limit int, decision string) ([]domain.DecisionRecord, error)
}

// ReviewProvider — чтение очереди флагов ручной проверки (Redis).
type ReviewProvider interface {
	Pending(ctx context.Context, limit int64) ([]map[string]any, error)
}

// Server — HTTP-транспорт движка. Сам решений не принимает: только
// десериализует вход, дергает движок с диспетчером и сериализует ответ.
// Decision превращается в строку только здесь, на границе.
type Server struct {
	router *chi.Mux
	logger *zap.Logger
	cfg    *infra.Config

	engine   *engine.Engine
	registry *actions.Registry

	trail    RecordProvider          // nil, если Postgres не подключен
	reviews  ReviewProvider          // nil, если Redis не подключен
	silences *control.SilenceManager // nil, если Redis не подключен

	issuer    *auth.Issuer
	validator auth.TokenValidator
}

func New(
	cfg *infra.Config,
	logger *zap.Logger,
	eng *engine.Engine,
	registry *actions.Registry,
	trail RecordProvider,
	reviews ReviewProvider,
	silences *control.SilenceManager,
	issuer *auth.Issuer,
	validator auth.TokenValidator,
) *Server {
	s := &Server{
		router:    chi.NewRouter(),
		logger:    logger.Named("api"),
		cfg:       cfg,
		engine:    eng,
		registry:  registry,
		trail:     trail,
		reviews:   reviews,
		silences:  silences,
		issuer:    issuer,
		validator: validator,
	}

	s.routes()
	return s
}

func (s *Server) routes() {
	r := s.router

	// --- 1. Глобальные инфраструктурные Middleware (для всех) ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(TracingMiddleware)

	// --- 2. ПУБЛИЧНЫЕ РОУТЫ ---
	r.Group(func(r chi.Router) {
		r.Post("/auth/token", s.handleLogin)

		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})
	})

	// --- 3. ЗАЩИЩЕННЫЙ ПЕРИМЕТР (Требуют RS256 токен) ---
	r.Group(func(r chi.Router) {
		r.Use(auth.NewMiddleware(s.validator, s.logger))

		// Обработка события: решение + исполнение действий
		r.Post("/v1/events", s.handleProcessEvent)

		// Explain-режим: score и ожидаемое решение без исполнения
		r.Post("/v1/score", s.handleScore)

		// История решений (окно в памяти движка) и персистентный trail
		r.Get("/v1/history", s.handleHistory)
		r.Get("/v1/trail", s.handleTrail)

		// Discovery: действия и действующая политика
		r.Get("/v1/actions", s.handleActions)
		r.Get("/v1/thresholds", s.handleThresholds)

		// Human-in-the-loop: очередь флагов и глушение алертов
		r.Get("/v1/reviews", s.handleReviews)
		r.Route("/v1/silences", func(r chi.Router) {
			r.Get("/", s.handleListSilences)
			r.Route("/{resource}", func(r chi.Router) {
				r.Post("/", s.handleSilence)
				r.Delete("/", s.handleUnsilence)
			})
		})
	})
}

// ServeHTTP позволяет использовать Server как стандартный http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
