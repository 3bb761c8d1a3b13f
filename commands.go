package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"kaleidorium/config"
	"kaleidorium/database"
	aiapi "kaleidorium/internal/api/ai"
	routes "kaleidorium/internal/app/http"
	"kaleidorium/internal/domain/profiles"
	"kaleidorium/internal/infra/mail"
	"kaleidorium/internal/infra/openai"
	"kaleidorium/internal/infra/storage"
	"kaleidorium/internal/infra/stripe"
	"kaleidorium/internal/logger"
	"kaleidorium/internal/security/ratelimit"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const shutdownTimeout = 10 * time.Second

func setup() zerolog.Logger {
	config.LoadEnv()
	l := logger.Setup(config.IsDev(), config.LOG_LEVEL, config.LOG_FILE)
	log.Logger = l
	zerolog.DefaultContextLogger = &l
	return l
}

type MigrateCmd struct{}

func (m *MigrateCmd) Run(ctx context.Context) error {
	l := setup()
	if err := database.InitDB(config.DB_URL); err != nil {
		return err
	}
	if err := database.Migrate(database.DB); err != nil {
		return err
	}
	l.Info().Msg("schema migrated")
	return nil
}

type ServeCmd struct {
	NoMigrate bool `help:"Skip the schema migration on startup."`
}

func (s *ServeCmd) Run(ctx context.Context) error {
	l := setup()
	if !config.IsDev() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := database.InitDB(config.DB_URL); err != nil {
		return err
	}
	if !s.NoMigrate {
		if err := database.Migrate(database.DB); err != nil {
			return err
		}
	}

	deps := routes.Deps{
		Limiter:  newLimiter(ctx, l),
		Mailer:   newMailer(),
		Founding: profiles.NewFoundingCache(database.DB, config.FOUNDING_ARTIST_LIMIT, profiles.DefaultFoundingTTL),
		AI:       newLLM(),
	}

	store, uploadDir, err := newStore(ctx, l)
	if err != nil {
		return err
	}
	deps.Store = store
	deps.UploadDir = uploadDir

	if config.STRIPE_SECRET_KEY != "" {
		deps.Billing = stripe.NewAPI(config.STRIPE_SECRET_KEY, config.APP_ENV)
	} else {
		l.Warn().Msg("STRIPE_SECRET_KEY not set, billing disabled")
	}

	r := routes.NewEngine(config.CORS_ORIGIN)
	routes.RegisterRoutes(r, deps)

	srv := &http.Server{
		Addr:              ":" + config.PORT,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       2 * time.Minute,
		WriteTimeout:      2 * time.Minute,
		IdleTimeout:       2 * time.Minute,
	}

	errc := make(chan error, 1)
	go func() {
		l.Info().Str("addr", srv.Addr).Str("version", version).Str("env", config.APP_ENV).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	l.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newLimiter(ctx context.Context, l zerolog.Logger) *ratelimit.Limiter {
	if err := database.ConnectRedis(ctx, config.REDIS_ADDR, config.REDIS_PASSWORD, config.REDIS_DB); err != nil {
		l.Warn().Err(err).Msg("redis unavailable, rate limits are per process")
	}
	if database.Rdb != nil {
		return ratelimit.NewLimiter(ratelimit.NewRedisStore(database.Rdb))
	}

	mem := ratelimit.NewMemoryStore()
	go mem.Run(ctx, time.Minute)
	return ratelimit.NewLimiter(mem)
}

func newMailer() mail.Mailer {
	if config.SMTP_HOST == "" {
		return mail.LogMailer{}
	}
	return mail.NewSMTPMailer(mail.SMTPConfig{
		Host:     config.SMTP_HOST,
		Port:     config.SMTP_PORT,
		From:     config.SMTP_FROM,
		Password: config.SMTP_PASSWORD,
	})
}

func newLLM() aiapi.LLM {
	return openai.NewClient(openai.Config{
		APIKey:  config.OPENAI_API_KEY,
		BaseURL: config.OPENAI_BASE_URL,
		Model:   config.OPENAI_MODEL,
	})
}

// newStore prefers Supabase storage with local disk as fallback. The local
// directory is returned so it can be served.
func newStore(ctx context.Context, l zerolog.Logger) (storage.Store, string, error) {
	local := storage.NewLocalStore(config.UPLOAD_DIR, config.PUBLIC_BASE_URL)
	if config.SUPABASE_URL == "" || config.STORAGE_ACCESS_KEY_ID == "" {
		l.Info().Str("dir", config.UPLOAD_DIR).Msg("object storage not configured, using local disk")
		return local, config.UPLOAD_DIR, nil
	}

	s3, err := storage.NewS3Store(ctx, storage.S3Config{
		ProjectURL:      config.SUPABASE_URL,
		Region:          config.STORAGE_REGION,
		AccessKeyID:     config.STORAGE_ACCESS_KEY_ID,
		SecretAccessKey: config.STORAGE_SECRET_ACCESS_KEY,
	})
	if err != nil {
		return nil, "", err
	}
	return &storage.FallbackStore{Primary: s3, Secondary: local}, config.UPLOAD_DIR, nil
}
