// API entrypoint: loads configuration, wires dependencies and serves HTTP.
package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bramvdmeulen/tegenstem/internal/app/httpapi"
	"github.com/bramvdmeulen/tegenstem/internal/app/results"
	"github.com/bramvdmeulen/tegenstem/internal/app/voting"
	"github.com/bramvdmeulen/tegenstem/internal/domain"
	"github.com/bramvdmeulen/tegenstem/internal/platform/antifraud"
	"github.com/bramvdmeulen/tegenstem/internal/platform/challenge"
	"github.com/bramvdmeulen/tegenstem/internal/platform/clock"
	"github.com/bramvdmeulen/tegenstem/internal/platform/config"
	"github.com/bramvdmeulen/tegenstem/internal/platform/health"
	"github.com/bramvdmeulen/tegenstem/internal/platform/ids"
	"github.com/bramvdmeulen/tegenstem/internal/platform/logger"
	"github.com/bramvdmeulen/tegenstem/internal/platform/migrations"
	postgresstorage "github.com/bramvdmeulen/tegenstem/internal/platform/storage/postgres"
	redisstorage "github.com/bramvdmeulen/tegenstem/internal/platform/storage/redis"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("invalid configuration", "err", err)
	}

	db, err := postgresstorage.Open(ctx, cfg.PostgresDSN())
	if err != nil {
		logger.Fatal("postgres connection failed", "err", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("could not unwrap sql.DB", "err", err)
	}
	defer sqlDB.Close()

	if cfg.AutoMigrate {
		if err := migrations.Run(db); err != nil {
			logger.Fatal("automatic migration failed", "err", err)
		}
	}

	redisClient, err := redisstorage.NewClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		logger.Fatal("redis connection failed", "err", err)
	}
	defer redisClient.Close()

	partyRepo := postgresstorage.NewPartyRepository(db)
	candidateRepo := postgresstorage.NewCandidateRepository(db)
	voteRepo := postgresstorage.NewVoteRepository(db)
	settingsRepo := postgresstorage.NewSettingsRepository(db)
	systemClock := clock.NewSystemClock()
	idGen := ids.NewGenerator()

	var antifraudSvc domain.Antifraud = antifraud.NewNoop()
	if cfg.RateLimitEnabled {
		window := time.Duration(cfg.RateLimitWindowSeconds) * time.Second
		antifraudSvc = antifraud.NewRedisRateLimiter(redisClient, cfg.RateLimitMaxActions, window, cfg.RateLimitKeyPrefix)
	}

	var verifier domain.ChallengeVerifier = challenge.NewNoop()
	if cfg.TurnstileSecret != "" {
		verifier = challenge.NewTurnstile(cfg.TurnstileSecret)
	}

	votingSvc := voting.NewService(
		partyRepo,
		candidateRepo,
		voteRepo,
		settingsRepo,
		verifier,
		antifraudSvc,
		systemClock,
		idGen,
	)
	resultsSvc := results.NewService(partyRepo, candidateRepo, voteRepo, settingsRepo, cfg.TotalSeats)

	mux := http.NewServeMux()
	checker := health.NewChecker(sqlDB, redisClient)

	api := httpapi.New(votingSvc, resultsSvc, settingsRepo, cfg.AdminToken, logger.L())
	api.Register(mux)
	mux.HandleFunc("/readyz", checker.ReadyHandler())
	mux.Handle("/metrics", promhttp.Handler())

	logger.Info("api listening", "addr", cfg.HTTPAddress, "seats", cfg.TotalSeats)
	if err := http.ListenAndServe(cfg.HTTPAddress, mux); err != nil {
		logger.Fatal("server error", "err", err)
	}
}
