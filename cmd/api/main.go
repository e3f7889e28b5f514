package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"portfolio/internal/api"
	"portfolio/internal/auth"
	"portfolio/internal/config"
	"portfolio/internal/database"
	"portfolio/internal/pdf"
	"portfolio/internal/render"
	"portfolio/internal/resume"
	"portfolio/internal/storage"
)

func main() {
	cfg := config.MustLoad()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	db, err := database.InitDatabase(cfg.Database)
	if err != nil {
		log.Fatalf("init database: %v", err)
	}
	log.Println("database connection ready")

	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("auto migrate: %v", err)
	}
	log.Println("database migrated")

	if err := seedTemplates(db); err != nil {
		log.Fatalf("seed resume templates: %v", err)
	}

	storageClient, err := storage.NewClient(cfg.MinIO)
	if err != nil {
		log.Fatalf("init storage client: %v", err)
	}
	log.Printf("storage client ready, bucket=%s", cfg.MinIO.Bucket)

	redisAddr := cfg.Redis.Addr()
	redisClient := redis.NewClient(&redis.Options{Addr: redisAddr})
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error("close redis client failed", slog.Any("error", err))
		}
	}()
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		log.Fatalf("ping redis: %v", err)
	}

	asynqClient := asynq.NewClient(asynq.RedisClientOpt{Addr: redisAddr})
	defer func() {
		if err := asynqClient.Close(); err != nil {
			logger.Error("close asynq client failed", slog.Any("error", err))
		}
	}()

	verifier, err := auth.NewVerifier(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.Audience)
	if err != nil {
		log.Fatalf("init token verifier: %v", err)
	}

	registry := render.NewRegistry()
	engine := pdf.NewEngine()
	store := resume.NewVersionStore(db, storageClient, logger)
	pipeline := resume.NewPipeline(db, registry, engine, store, redisClient, asynqClient, logger)

	router := api.NewRouter(logger)
	api.RegisterRoutes(
		router,
		db,
		pipeline,
		verifier,
		redisClient,
		logger,
		storageClient,
		cfg.Clamd.Addr,
		cfg.API.AllowedOrigins,
	)

	address := fmt.Sprintf(":%d", cfg.API.Port)
	logger.Info("api listening", slog.String("address", address))
	if err := router.Run(address); err != nil {
		log.Fatalf("failed to start api server: %v", err)
	}
}

// seedTemplates 确保内置模板在数据库里有对应行，管理端才能选用。
// 已存在的行不覆盖，管理员对默认样式的调整得以保留。
func seedTemplates(db *gorm.DB) error {
	builtins := []struct {
		key      string
		name     string
		pageSize string
		style    resume.StylePatch
	}{
		{
			key:      render.TemplateClassic,
			name:     "Classic",
			pageSize: string(resume.PageA4),
			style:    resume.StylePatch{},
		},
		{
			key:      render.TemplateModern,
			name:     "Modern",
			pageSize: string(resume.PageA4),
			style: resume.StylePatch{
				AccentColor: strPtr("#0d9488"),
			},
		},
	}

	for _, tpl := range builtins {
		var existing database.ResumeTemplate
		switch err := db.Where("key = ?", tpl.key).First(&existing).Error; {
		case err == nil:
			continue
		case errors.Is(err, gorm.ErrRecordNotFound):
		default:
			return fmt.Errorf("query template %q: %w", tpl.key, err)
		}

		styleJSON, err := json.Marshal(tpl.style)
		if err != nil {
			return fmt.Errorf("marshal style for template %q: %w", tpl.key, err)
		}

		row := database.ResumeTemplate{
			Key:         tpl.key,
			Name:        tpl.name,
			StyleConfig: datatypes.JSON(styleJSON),
			PageSize:    tpl.pageSize,
		}
		if err := db.Create(&row).Error; err != nil {
			return fmt.Errorf("create template %q: %w", tpl.key, err)
		}
		log.Printf("seeded resume template %q", tpl.key)
	}

	return nil
}

func strPtr(s string) *string {
	return &s
}
