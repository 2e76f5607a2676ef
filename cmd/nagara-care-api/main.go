package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/yuta0709/nagara-care-api/internal/auth"
	"github.com/yuta0709/nagara-care-api/internal/common/database"
	"github.com/yuta0709/nagara-care-api/internal/common/logger"
	rediscommon "github.com/yuta0709/nagara-care-api/internal/common/redis"
	"github.com/yuta0709/nagara-care-api/internal/config"
	httpapi "github.com/yuta0709/nagara-care-api/internal/http"
	"github.com/yuta0709/nagara-care-api/internal/metrics"
	"github.com/yuta0709/nagara-care-api/internal/migrations"
	"github.com/yuta0709/nagara-care-api/internal/policy"
	"github.com/yuta0709/nagara-care-api/internal/service"
	"github.com/yuta0709/nagara-care-api/internal/store"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	log, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, "nagara-care-api")
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	if cfg.Auth.JWTSecret == "" {
		log.Fatal("JWT_SECRET is required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	table := policy.DefaultCapabilityTable()
	if cfg.CapabilityTableFile != "" {
		if table, err = policy.LoadCapabilityOverrides(cfg.CapabilityTableFile, table); err != nil {
			log.Fatal("Invalid capability table", zap.Error(err))
		}
		log.Info("Capability table overrides loaded", zap.String("path", cfg.CapabilityTableFile))
	}
	coord := policy.NewCoordinator(table)
	m := metrics.NewRegistry()

	// DB 不可用时回退到内存 repo（仅用于本地联调）
	var db *sql.DB
	if cfg.DBEnabled {
		if d, err := database.NewPostgresDB(&cfg.Database); err == nil {
			db = d
			if err := migrations.Up(ctx, db); err != nil {
				log.Fatal("Failed to apply migrations", zap.Error(err))
			}
			log.Info("DB enabled for nagara-care-api")
		} else {
			log.Warn("DB enabled but connection failed, falling back to memory", zap.Error(err))
		}
	}
	repos := newRepos(db)

	// Redis: login limiter + index stream. Unreachable Redis degrades to in-process state.
	var redisClient *redis.Client
	kv := store.KV(store.NewMemoryKV())
	rc := rediscommon.NewRedisClient(&cfg.Redis)
	if err := rediscommon.Ping(ctx, rc); err == nil {
		redisClient = rc
		kv = store.NewRedisKV(rc)
	} else {
		log.Warn("Redis unavailable, using in-memory limiter", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		_ = rc.Close()
	}
	limiter := store.NewKVLimiter(kv, store.DefaultMaxFailures, store.DefaultFailWindow)

	ext := newExternal(ctx, cfg, log)
	defer ext.close()

	hooks := service.RecordHooks{Notifier: ext.notifier, Metrics: m}
	consumer := wireIndexer(cfg, repos, ext, redisClient, &hooks, log)

	deps := service.RecordDeps{Coordinator: coord, Residents: repos.residents, Hooks: hooks, Logger: log}
	svcs := httpapi.Services{
		Auth:          service.NewAuthService(repos.users, auth.NewTokens(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL), limiter, log),
		Tenants:       service.NewTenantService(repos.tenants, repos.users, log),
		Users:         service.NewUserService(repos.users, repos.tenants, log),
		Residents:     service.NewResidentService(repos.residents, repos.tenants, log),
		Subjects:      service.NewSubjectService(repos.subjects, repos.tenants, log),
		Food:          service.NewFoodRecordService(deps, repos.food, ext.foodExtractor),
		Bath:          service.NewBathRecordService(deps, repos.bath, ext.bathExtractor),
		Elimination:   service.NewEliminationRecordService(deps, repos.elimination, ext.eliminationExtractor),
		Beverage:      service.NewBeverageRecordService(deps, repos.beverage, ext.beverageExtractor),
		Daily:         service.NewDailyRecordService(deps, repos.daily, ext.dailyExtractor),
		Assessments:   service.NewAssessmentService(coord, repos.assessments, repos.subjects, ext.assessmentExtractor, ext.summarizer, m, log),
		Chat:          service.NewChatService(coord, repos.chat, ext.searcher, ext.chatModel, m, log),
		QA:            service.NewQAService(repos.qa, ext.pairExtractor, m, log),
		Transcription: service.NewTranscriptionService(ext.transcriber, ext.diarizer, ext.archive, m, log),
		Export: service.NewExportService(coord, repos.residents, repos.users, service.ExportRepos{
			Food:        repos.food,
			Bath:        repos.bath,
			Elimination: repos.elimination,
			Beverage:    repos.beverage,
			Daily:       repos.daily,
		}, log),
	}
	handler := httpapi.NewAPI(svcs, httpapi.Options{CORSOrigin: cfg.HTTP.CORSOrigin, Metrics: m}, log)

	if consumer != nil {
		go func() {
			if err := consumer.Start(ctx); err != nil {
				log.Error("Index consumer stopped", zap.Error(err))
			}
		}()
	}

	srv := service.NewServer(cfg.HTTP.Addr, handler, log)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
		cancel()
	case err := <-errCh:
		log.Error("HTTP server exited", zap.Error(err))
		cancel()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = srv.Stop(shutdownCtx)
	if redisClient != nil {
		_ = redisClient.Close()
	}
	_ = database.Close(db)
}
