package main

import (
	"context"
	"crypto/rand"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/runease-api/internal/application/auth"
	"github.com/runease-api/internal/application/statistics"
	"github.com/runease-api/internal/application/user"
	"github.com/runease-api/internal/application/verification"
	"github.com/runease-api/internal/config"
	"github.com/runease-api/internal/domain"
	"github.com/runease-api/internal/infrastructure/dynamo"
	jwtinfra "github.com/runease-api/internal/infrastructure/jwt"
	"github.com/runease-api/internal/infrastructure/postgres"
	redisinfra "github.com/runease-api/internal/infrastructure/redis"
	"github.com/runease-api/internal/infrastructure/smtp"
	"github.com/runease-api/internal/pkg/logger"
	transporthttp "github.com/runease-api/internal/transport/http"
)

// userStore is what both persistence backends provide to the services.
type userStore interface {
	verification.UserStore
	Get(ctx context.Context, userID string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	Create(ctx context.Context, u *domain.User) error
}

type trainingLogStore interface {
	ListByAthlete(ctx context.Context, athleteID string) ([]domain.TrainingLog, error)
}

func main() {
	envErr := godotenv.Load()

	cfg := config.Load()
	lg := logger.New(cfg.LogLevel, cfg.LogFormat, cfg.LogFile)
	if envErr != nil {
		lg.Info().Msg("no .env file found, reading from environment")
	}
	if err := cfg.Validate(); err != nil {
		lg.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx := context.Background()

	users, logs, closeStore := openStore(ctx, cfg, lg)
	defer closeStore()

	var mailer smtp.Mailer
	if cfg.MailDriver == config.MailLog {
		lg.Warn().Msg("MAIL_DRIVER=log: verification codes are written to the debug log, not emailed")
		mailer = smtp.NewLogMailer(lg)
	} else {
		mailer = smtp.NewMailer(cfg, lg)
	}

	// Redis is optional; without it resends are only limited per IP.
	var cooldown verification.Cooldown
	if cfg.RedisAddr != "" {
		rdb := redisinfra.NewClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			lg.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unreachable, cooldown fails open until it recovers")
		}
		cooldown = redisinfra.NewCooldown(rdb)
	}

	verifySvc := verification.NewService(verification.ServiceDeps{
		Users:          users,
		Mailer:         mailer,
		Cooldown:       cooldown,
		TTL:            cfg.OTPTTL,
		ResendCooldown: cfg.OTPResendCooldown,
		Logger:         lg,
	})
	tokens, err := jwtinfra.NewProvider(jwtSecret(cfg, lg), cfg.JWTExpiry)
	if err != nil {
		lg.Fatal().Err(err).Msg("jwt provider")
	}

	deps := &transporthttp.Deps{
		Verification: verifySvc,
		Users:        user.NewService(user.ServiceDeps{UserRepo: users, Codes: verifySvc, Logger: lg}),
		Auth:         auth.NewService(users, tokens, lg),
		Tokens:       tokens,
		Statistics:   statistics.NewService(logs, lg),
		Logger:       lg,
	}

	router, limiter := transporthttp.NewRouter(cfg, deps)
	defer limiter.Close()

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15*time.Second + cfg.SMTPTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		lg.Info().Str("addr", srv.Addr).Str("env", cfg.AppEnv).Str("store", cfg.StoreDriver).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	lg.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		lg.Error().Err(err).Msg("forced shutdown")
	}
	lg.Info().Msg("server stopped")
}

// jwtSecret returns JWT_SECRET, or a random secret for local runs. Tokens
// signed with a random secret die with the process.
func jwtSecret(cfg *config.Config, lg zerolog.Logger) []byte {
	if cfg.JWTSecret != "" {
		return []byte(cfg.JWTSecret)
	}
	b := make([]byte, jwtinfra.MinSecretLen)
	if _, err := rand.Read(b); err != nil {
		lg.Fatal().Err(err).Msg("generate jwt secret")
	}
	lg.Warn().Msg("JWT_SECRET not set, using a random secret; tokens will not survive a restart")
	return b
}

func openStore(ctx context.Context, cfg *config.Config, lg zerolog.Logger) (userStore, trainingLogStore, func()) {
	switch cfg.StoreDriver {
	case config.StorePostgres:
		pool, err := postgres.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			lg.Fatal().Err(err).Msg("postgres connect failed")
		}
		if err := postgres.Migrate(ctx, pool); err != nil {
			lg.Fatal().Err(err).Msg("postgres migrations failed")
		}
		return postgres.NewUserRepo(pool), postgres.NewTrainingLogRepo(pool), pool.Close
	default:
		client, err := dynamo.NewClient(ctx, cfg)
		if err != nil {
			lg.Fatal().Err(err).Msg("dynamodb client failed")
		}
		// Creates the tables if they don't exist.
		dynamo.Bootstrap(ctx, client, cfg.DynamoTables, lg)
		return dynamo.NewUserRepo(client, cfg.DynamoTables.Users),
			dynamo.NewTrainingLogRepo(client, cfg.DynamoTables.TrainingLogs),
			func() {}
	}
}
