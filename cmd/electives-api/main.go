package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	_ "github.com/makeyourchoice/electives-api/api/swagger"
	"github.com/makeyourchoice/electives-api/internal/handler"
	"github.com/makeyourchoice/electives-api/internal/repository"
	"github.com/makeyourchoice/electives-api/internal/router"
	"github.com/makeyourchoice/electives-api/internal/service"
	"github.com/makeyourchoice/electives-api/pkg/cache"
	"github.com/makeyourchoice/electives-api/pkg/config"
	"github.com/makeyourchoice/electives-api/pkg/database"
	"github.com/makeyourchoice/electives-api/pkg/jobs"
	"github.com/makeyourchoice/electives-api/pkg/logger"
	"github.com/makeyourchoice/electives-api/pkg/storage"
)

// @title Make Your Choice API
// @version 1.0.0
// @description Course catalogue and elective voting for university students
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	var redisClient *redis.Client
	if cfg.Cache.Enabled {
		redisClient, err = cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, caching disabled", zap.Error(err))
			redisClient = nil
		}
	}

	courseRepo := repository.NewCourseRepository(db)
	programRepo := repository.NewProgramRepository(db)
	semesterRepo := repository.NewSemesterRepository(db)
	priorityRepo := repository.NewPriorityRepository(db)
	suggestionRepo := repository.NewSuggestionRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	authRepo := repository.NewAuthRepository(db)

	var cacheRepo *repository.CacheRepository
	if redisClient != nil {
		cacheRepo = repository.NewCacheRepository(redisClient, logr)
		defer cacheRepo.Close()
	}

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	var semesterCache, catalogueCache service.CacheStore
	if cacheRepo != nil {
		semesterCache = cacheRepo
		catalogueCache = cacheRepo
	}

	semesterSvc := service.NewSemesterService(semesterRepo, semesterCache, cfg.Cache.ActiveSemesterTTL, validate, logr)
	eligibilitySvc := service.NewEligibilityService(studentRepo, semesterSvc, logr)
	catalogueSvc := service.NewCatalogueService(courseRepo, studentRepo, catalogueCache, cfg.Cache.CatalogueTTL, validate, logr)
	programSvc := service.NewProgramService(programRepo, validate, logr)
	votingSvc := service.NewVotingService(priorityRepo, eligibilitySvc, programRepo, catalogueSvc, validate, logr)
	suggestionSvc := service.NewSuggestionService(suggestionRepo, courseRepo, catalogueCache, validate, logr)

	authSvc := service.NewAuthService(authRepo, studentRepo, &service.LogCodeSender{Logger: logr}, validate, logr, service.AuthConfig{
		AllowedEmailDomain: cfg.Auth.AllowedEmailDomain,
		CodeTTL:            cfg.Auth.CodeTTL,
		CodeLength:         cfg.Auth.CodeLength,
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "electives-api",
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	exportStorage, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
	if err != nil {
		logr.Fatal("failed to init export storage", zap.Error(err))
	}
	signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)
	exportSvc := service.NewExportService(votingSvc, exportStorage, signer, logr)

	if cfg.Exports.Enabled {
		queue := jobs.NewQueue("exports", exportSvc.Process, jobs.QueueConfig{
			Workers:    cfg.Exports.WorkerConcurrency,
			MaxRetries: cfg.Exports.WorkerRetries,
			Logger:     logr,
		})
		queue.Start(ctx)
		defer queue.Stop()
		exportSvc.AttachQueue(queue)
	}

	engine := router.New(router.Dependencies{
		Config:      cfg,
		Logger:      logr,
		Metrics:     metricsSvc,
		AuthService: authSvc,
		AuthRepo:    authRepo,
		Auth:        handler.NewAuthHandler(authSvc),
		Courses:     handler.NewCourseHandler(catalogueSvc, eligibilitySvc),
		Programs:    handler.NewProgramHandler(programSvc),
		Semesters:   handler.NewSemesterHandler(semesterSvc),
		Voting:      handler.NewVotingHandler(votingSvc, metricsSvc),
		Suggestions: handler.NewSuggestionHandler(suggestionSvc),
		Exports:     handler.NewExportHandler(exportSvc, metricsSvc, logr),
		MetricsH:    handler.NewMetricsHandler(metricsSvc),
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", server.Addr, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	go cleanupLoop(ctx, exportSvc, cfg.Exports.SignedURLTTL)

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logr.Warn("graceful shutdown failed", zap.Error(err))
	}
}

func cleanupLoop(ctx context.Context, exports *service.ExportService, ttl time.Duration) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			exports.Cleanup(ttl)
		}
	}
}
