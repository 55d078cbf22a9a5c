package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"

	googleauth "github.com/KunalSingh5431/smartPDF/internal/auth"
	"github.com/KunalSingh5431/smartPDF/internal/documents"
	"github.com/KunalSingh5431/smartPDF/internal/events"
	"github.com/KunalSingh5431/smartPDF/internal/extract"
	"github.com/KunalSingh5431/smartPDF/internal/shared/auth"
	"github.com/KunalSingh5431/smartPDF/internal/shared/config"
	"github.com/KunalSingh5431/smartPDF/internal/shared/lock"
	"github.com/KunalSingh5431/smartPDF/internal/shared/server"
	"github.com/KunalSingh5431/smartPDF/internal/shared/storage/db"
	mongostore "github.com/KunalSingh5431/smartPDF/internal/shared/storage/mongo"
	"github.com/KunalSingh5431/smartPDF/internal/shared/storage/object"
	localstore "github.com/KunalSingh5431/smartPDF/internal/shared/storage/object/local"
	miniostore "github.com/KunalSingh5431/smartPDF/internal/shared/storage/object/minio"
	s3store "github.com/KunalSingh5431/smartPDF/internal/shared/storage/object/s3"
	"github.com/KunalSingh5431/smartPDF/internal/shared/telemetry"
	"github.com/KunalSingh5431/smartPDF/internal/summaries"
	"github.com/KunalSingh5431/smartPDF/internal/summarizer"
	"github.com/KunalSingh5431/smartPDF/internal/summarizer/anthropic"
	"github.com/KunalSingh5431/smartPDF/internal/summarizer/gemini"
	"github.com/KunalSingh5431/smartPDF/internal/summarizer/openai"
	"github.com/KunalSingh5431/smartPDF/internal/users"
)

// App holds shared dependencies and the wired router.
type App struct {
	Config config.Config
	Router *gin.Engine

	DB     *sql.DB
	Mongo  *mongo.Database
	Store  object.ObjectStore
	Locker lock.Locker
	Events events.Publisher

	DocumentsRepo    documents.DocumentsRepo
	UsersRepo        users.Repo
	DocumentsService *documents.Service
	SummaryService   *summaries.Service
	UsersService     *users.Service
	GoogleAuth       *googleauth.GoogleService

	closers []func(context.Context) error
}

// Build connects backing services and wires handlers into a router.
// Dev-like environments fall back to in-memory stores when a backend is unreachable.
func Build(ctx context.Context, cfg config.Config) (*App, error) {
	cfg.Normalize()
	auth.Configure(cfg.JWTSecret, cfg.JWTTTL)

	app := &App{Config: cfg}
	fail := func(err error) (*App, error) {
		_ = app.Close(context.Background())
		return nil, err
	}

	if err := app.buildRecordStore(ctx); err != nil {
		return fail(err)
	}
	store, err := buildStore(ctx, cfg)
	if err != nil {
		return fail(err)
	}
	app.Store = store

	client, err := buildSummarizer(cfg)
	if err != nil {
		return fail(err)
	}
	if err := app.buildLocker(ctx); err != nil {
		return fail(err)
	}
	if err := app.buildPublisher(); err != nil {
		return fail(err)
	}

	app.DocumentsService = &documents.Service{
		Store:  app.Store,
		Repo:   app.DocumentsRepo,
		Events: app.Events,
	}
	app.SummaryService = &summaries.Service{
		Repo:           app.DocumentsRepo,
		Store:          app.Store,
		Extractor:      extract.PDFExtractor{},
		Summarizer:     client,
		Locker:         app.Locker,
		Events:         app.Events,
		ComputeTimeout: cfg.SummaryTimeout,
	}
	app.UsersService = users.NewService(app.UsersRepo)
	app.GoogleAuth = googleauth.NewGoogleService(
		cfg.GoogleClientID,
		cfg.GoogleClientSecret,
		cfg.GoogleRedirectURL,
		cfg.UIRedirectURL,
		app.UsersService,
	)

	app.Router = server.NewRouter(server.RouterDeps{
		Config:          cfg,
		UserHandler:     users.NewHandler(app.UsersService),
		DocumentHandler: documents.NewHandler(app.DocumentsService, cfg.MaxUploadBytes, cfg.PublicBaseURL),
		SummaryHandler:  summaries.NewHandler(app.SummaryService),
		GoogleAuth:      app.GoogleAuth,
		HealthChecks:    app.healthChecks(),
	})
	return app, nil
}

// Close releases connections in reverse order of acquisition.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func (a *App) onClose(fn func(context.Context) error) {
	a.closers = append(a.closers, fn)
}

func (a *App) useMemory(reason string, err error) {
	fields := map[string]any{"record_store": a.Config.RecordStore, "reason": reason}
	if err != nil {
		fields["error"] = err.Error()
	}
	telemetry.Warn("bootstrap.memory_fallback", fields)
	a.DocumentsRepo = documents.NewMemoryRepo()
	a.UsersRepo = users.NewMemoryRepo()
}

func (a *App) buildRecordStore(ctx context.Context) error {
	cfg := a.Config
	switch cfg.RecordStore {
	case "memory":
		a.DocumentsRepo = documents.NewMemoryRepo()
		a.UsersRepo = users.NewMemoryRepo()
		return nil
	case "mongo":
		if strings.TrimSpace(cfg.MongoURI) == "" {
			if cfg.IsDevLike() {
				a.useMemory("MONGO_URI empty", nil)
				return nil
			}
			return fmt.Errorf("MONGO_URI is required")
		}
		database, err := mongostore.Connect(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			if cfg.IsDevLike() {
				a.useMemory("mongo connect failed", err)
				return nil
			}
			return err
		}
		a.Mongo = database
		a.onClose(func(ctx context.Context) error { return mongostore.Disconnect(ctx, database) })

		docRepo := documents.NewMongoRepo(database)
		userRepo := users.NewMongoRepo(database)
		if err := docRepo.EnsureIndexes(ctx); err != nil {
			return fmt.Errorf("documents indexes: %w", err)
		}
		if err := userRepo.EnsureIndexes(ctx); err != nil {
			return fmt.Errorf("users indexes: %w", err)
		}
		a.DocumentsRepo = docRepo
		a.UsersRepo = userRepo
		return nil
	default:
		sqlDB, err := buildDB(ctx, cfg)
		if err != nil {
			if cfg.IsDevLike() {
				a.useMemory("database connect failed", err)
				return nil
			}
			return err
		}
		if sqlDB == nil {
			a.useMemory("DATABASE_URL empty", nil)
			return nil
		}
		if !db.IsLambdaRuntime() {
			a.onClose(func(context.Context) error { return sqlDB.Close() })
		}
		if err := db.RunMigrations(ctx, sqlDB); err != nil {
			return err
		}
		a.DB = sqlDB
		a.DocumentsRepo = &documents.PGRepo{DB: sqlDB}
		a.UsersRepo = &users.PGRepo{DB: sqlDB}
		return nil
	}
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if cfg.IsDevLike() {
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if db.IsLambdaRuntime() {
		return db.GetSingleton(ctx, cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultLambdaOptions()))
	}
	return db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultServerOptions()))
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		return s3store.New(ctx, s3store.Options{
			Region:   cfg.AWSRegion,
			Bucket:   cfg.S3Bucket,
			Prefix:   cfg.S3Prefix,
			KMSKeyID: cfg.SSEKMSKeyID,
			Endpoint: cfg.S3Endpoint,
		})
	case "minio":
		return miniostore.New(ctx, miniostore.Options{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			UseSSL:    cfg.MinioUseSSL,
		})
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

// buildSummarizer returns the configured provider. Outside production a missing
// key yields a client that fails each call, so the rest of the API still serves.
func buildSummarizer(cfg config.Config) (summarizer.Client, error) {
	var (
		client summarizer.Client
		err    error
	)
	switch cfg.SummarizerProvider {
	case "openai":
		client, err = openai.NewClient(openai.Options{
			APIKey:  cfg.OpenAIAPIKey,
			Model:   cfg.SummarizerModel,
			BaseURL: cfg.SummarizerBaseURL,
			Timeout: cfg.SummarizerTimeout,
		})
	case "anthropic":
		client, err = anthropic.NewClient(anthropic.Options{
			APIKey:  cfg.AnthropicAPIKey,
			Model:   cfg.SummarizerModel,
			BaseURL: cfg.SummarizerBaseURL,
			Timeout: cfg.SummarizerTimeout,
		})
	default:
		client, err = gemini.NewClient(gemini.Options{
			APIKey:  cfg.GeminiAPIKey,
			Model:   cfg.SummarizerModel,
			BaseURL: cfg.SummarizerBaseURL,
			Timeout: cfg.SummarizerTimeout,
		})
	}
	if err != nil {
		if errors.Is(err, summarizer.ErrNotConfigured) && !cfg.IsProduction() {
			telemetry.Warn("bootstrap.summarizer_unconfigured", map[string]any{"provider": cfg.SummarizerProvider})
			return summarizer.Unconfigured{Provider: cfg.SummarizerProvider}, nil
		}
		return nil, err
	}
	return client, nil
}

func (a *App) buildLocker(ctx context.Context) error {
	if strings.TrimSpace(a.Config.RedisURL) == "" {
		a.Locker = lock.Nop{}
		return nil
	}
	client, err := lock.Connect(ctx, a.Config.RedisURL)
	if err != nil {
		if a.Config.IsDevLike() {
			telemetry.Warn("bootstrap.redis_unavailable", map[string]any{"error": err.Error()})
			a.Locker = lock.Nop{}
			return nil
		}
		return err
	}
	a.onClose(func(context.Context) error { return client.Close() })
	a.Locker = lock.NewRedis(client, a.Config.SummaryLockTTL)
	return nil
}

func (a *App) buildPublisher() error {
	if len(a.Config.KafkaBrokers) == 0 {
		a.Events = events.Nop{}
		return nil
	}
	pub, err := events.NewKafkaPublisher(a.Config.KafkaBrokers, a.Config.KafkaTopic)
	if err != nil {
		return err
	}
	a.onClose(func(context.Context) error { return pub.Close() })
	a.Events = pub
	return nil
}

func (a *App) healthChecks() map[string]server.HealthCheck {
	checks := map[string]server.HealthCheck{}
	if a.DB != nil {
		checks["postgres"] = a.DB.PingContext
	}
	if a.Mongo != nil {
		database := a.Mongo
		checks["mongo"] = func(ctx context.Context) error { return database.Client().Ping(ctx, nil) }
	}
	return checks
}
