package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/xela07ax/autoremedy/internal/actions"
	"github.com/xela07ax/autoremedy/internal/audit"
	"github.com/xela07ax/autoremedy/internal/connectors"
	"github.com/xela07ax/autoremedy/internal/control"
	"github.com/xela07ax/autoremedy/internal/domain"
	"github.com/xela07ax/autoremedy/internal/engine"
	"github.com/xela07ax/autoremedy/internal/infra"
	"github.com/xela07ax/autoremedy/internal/infra/auth"
	"github.com/xela07ax/autoremedy/internal/repository/postgres"
	"github.com/xela07ax/autoremedy/internal/server"
)

func main() {
	// 1. Конфигурация и логгер
	cfg, err := infra.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := infra.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync()

	// Контекст для управления жизненным циклом фоновых горутин
	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 2. Инфраструктура и ресурсы
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	// Метрики
	reg := prometheus.NewRegistry()
	metrics := engine.NewMetrics(reg)

	// Экспортируем метрики для Prometheus
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		addr := fmt.Sprintf(":%d", cfg.Server.MetricsPort)
		logger.Info("metrics exporter started", zap.String("addr", addr))
		if err := http.ListenAndServe(addr, mux); err != nil {
			logger.Error("metrics exporter failed", zap.Error(err))
		}
	}()

	// 3. Decision Trail (Postgres). БД опциональна: без нее движок живет
	// на окне истории в памяти, эндпоинт /v1/trail вернет 503.
	var trail *audit.Trail
	var trailStore server.RecordProvider
	var recorder engine.Recorder
	if cfg.Database.URL != "" {
		repo, err := postgres.NewDecisionRepo(cfg.Database.URL)
		if err != nil {
			log.Fatalf("failed to init decision repo: %v", err)
		}
		pingCtx, pingCancel := context.WithTimeout(appCtx, 5*time.Second)
		if err := repo.Ping(pingCtx); err != nil {
			pingCancel()
			log.Fatalf("postgres is unreachable: %v", err)
		}
		pingCancel()

		trail = audit.NewTrail(repo, logger, cfg.Engine.TrailBufferSize, cfg.Engine.TrailFlushInterval, metrics.TrailBufferFill)
		trail.Start()
		defer trail.Stop()

		trailStore = repo
		recorder = trail
	} else {
		logger.Warn("database.url is empty: decision trail persistence disabled")
	}

	// 4. Control Plane: глушения алертов (источник правды — Redis)
	silences := control.NewSilenceManager(rdb, logger)
	if err := silences.Init(appCtx); err != nil {
		log.Fatalf("failed to init silence manager: %v", err)
	}
	go silences.StartListener(appCtx)

	// 5. Ядро: движок решений
	eng := engine.New(policyFromConfig(cfg.Engine), recorder, metrics, logger)

	// 6. Execution Layer: порты эффектов + Надежность (Retries, Circuit Breaker)
	// Алертинг: почта или Pub/Sub канал, поверх — надежность, снаружи — глушение.
	// SilencedSink оборачивается ПОСЛЕДНИМ: заглушенный алерт не должен
	// тратить попытки ретраев и не должен дергать предохранитель.
	var alertBase actions.EmitPort
	if cfg.Email.Enabled {
		alertBase = connectors.NewSMTPSink(connectors.SMTPConfig{
			Host:     cfg.Email.SMTPHost,
			Port:     cfg.Email.SMTPPort,
			From:     cfg.Email.From,
			Password: cfg.Email.Password,
			To:       cfg.Email.To,
		}, logger)
	} else {
		alertBase = connectors.NewRedisPublisher(rdb, infra.RedisChanAlerts, logger)
	}
	alertSink := connectors.NewSilencedSink(
		actions.NewReliableSink("alerting", alertBase, metrics),
		silences,
	)

	ticketSink := actions.NewReliableSink("ticketing", connectors.NewMockSink("ticketing"), metrics)
	scriptSink := actions.NewReliableSink("automation", connectors.NewMockSink("automation"), metrics)
	logSink := connectors.NewLogSink(logger)

	reviewQueue := connectors.NewReviewQueue(rdb, infra.RedisKeyPendingReviews, logger)
	reviewSink := actions.NewReliableSink("reviews", reviewQueue, metrics)

	registry := actions.NewRegistry(metrics, logger)
	registry.Register(actions.NewAlertHandler(alertSink, logger))
	registry.Register(actions.NewTicketHandler(ticketSink, logger))
	registry.Register(actions.NewScriptHandler(scriptSink, logger))
	registry.Register(actions.NewLogEventHandler(logSink, logger))
	registry.Register(actions.NewLogErrorHandler(logSink, logger))
	registry.Register(actions.NewReviewHandler(reviewSink, logger))

	// 7. ИБ-слой: RS256 ключи, выпуск и проверка токенов
	publicKey, err := auth.ParseRSAPublicKey(cfg.Auth.PublicKey)
	if err != nil {
		log.Fatalf("failed to parse RSA public key: %v", err)
	}
	privateKey, err := auth.ParseRSAPrivateKey(cfg.Auth.PrivateKey)
	if err != nil {
		log.Fatalf("failed to parse RSA private key: %v", err)
	}

	validator := auth.NewBaseValidator(publicKey)
	issuer := auth.NewIssuer(privateKey, cfg.Auth.TokenTTL, cfg.Auth.OperatorUser, cfg.Auth.OperatorHash)

	// 8. HTTP Server
	api := server.New(cfg, logger, eng, registry, trailStore, reviewQueue, silences, issuer, validator)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      api,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// 9. Graceful Shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("remediation engine started", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	<-stop // Ждем сигнал
	logger.Info("remediation engine stopping...")

	// Даем 5 секунд на завершение запросов; trail дольет буфер через defer Stop()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", zap.Error(err))
	}
	logger.Info("remediation engine exited properly")
}

// policyFromConfig переводит строковые ключи конфига в доменные enum-ы.
// Незнакомые ключи отбрасываются: вес для несуществующей серьезности
// никогда не сработает и только маскирует опечатку в конфиге.
func policyFromConfig(cfg infra.EngineConfig) engine.Policy {
	p := engine.DefaultPolicy()

	if len(cfg.SeverityWeights) > 0 {
		p.SeverityWeights = make(map[domain.Severity]float64, len(cfg.SeverityWeights))
		for k, v := range cfg.SeverityWeights {
			if sev, err := domain.ParseSeverity(k); err == nil {
				p.SeverityWeights[sev] = v
			}
		}
	}
	if len(cfg.ImpactWeights) > 0 {
		p.ImpactWeights = make(map[domain.BusinessImpact]float64, len(cfg.ImpactWeights))
		for k, v := range cfg.ImpactWeights {
			if imp, err := domain.ParseBusinessImpact(k); err == nil {
				p.ImpactWeights[imp] = v
			}
		}
	}

	if cfg.UrgencyWeight > 0 {
		p.UrgencyWeight = cfg.UrgencyWeight
	}
	if cfg.ImmediateThreshold > 0 {
		p.ImmediateThreshold = cfg.ImmediateThreshold
	}
	if cfg.AlertThreshold > 0 {
		p.AlertThreshold = cfg.AlertThreshold
	}
	if cfg.ConfidenceThreshold > 0 {
		p.ConfidenceThreshold = cfg.ConfidenceThreshold
	}
	if cfg.HistoryLimit > 0 {
		p.HistoryLimit = cfg.HistoryLimit
	}
	return p
}
