package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/pathakanu/memobot/internal/bot"
	"github.com/pathakanu/memobot/internal/config"
	"github.com/pathakanu/memobot/internal/database"
	"github.com/pathakanu/memobot/internal/notes"
	myopenai "github.com/pathakanu/memobot/internal/openai"
	"github.com/pathakanu/memobot/internal/session"
	"github.com/pathakanu/memobot/internal/twilio"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "memobot",
		Short:        "WhatsApp note keeper with 24h and 1h reminders",
		SilenceUsage: true,
	}
	serve := newServeCmd()
	root.RunE = serve.RunE
	root.AddCommand(serve, newMigrateCmd(), newRemindCmd())
	return root
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the webhook server and the reminder scheduler",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			db, err := database.New(cfg.DatabaseURL, cfg.SQLitePath, logger)
			if err != nil {
				return fmt.Errorf("database init failed: %w", err)
			}

			sessions, closeSessions, err := newSessionStore(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer closeSessions()

			app := newApp(cfg, db, sessions, logger)
			if err := app.StartScheduler(); err != nil {
				return fmt.Errorf("scheduler start: %w", err)
			}

			server := &http.Server{
				Addr:              ":" + cfg.Port,
				Handler:           app.Handler(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			go func() {
				logger.Info().Str("addr", server.Addr).Msg("server starting")
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Fatal().Err(err).Msg("server error")
				}
			}()

			waitForShutdown(server, app, logger)
			return nil
		},
	}
}

func newMigrateCmd() *cobra.Command {
	var rollback bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			db, err := database.Open(cfg.DatabaseURL, cfg.SQLitePath)
			if err != nil {
				return fmt.Errorf("database open: %w", err)
			}
			if rollback {
				if err := database.RollbackLast(db); err != nil {
					return err
				}
				logger.Info().Msg("rolled back last migration")
				return nil
			}
			if err := database.Migrate(db); err != nil {
				return err
			}
			logger.Info().Msg("migrations applied")
			return nil
		},
	}
	cmd.Flags().BoolVar(&rollback, "rollback", false, "undo the most recent migration")
	return cmd
}

func newRemindCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remind",
		Short: "Run a single reminder scan and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			db, err := database.New(cfg.DatabaseURL, cfg.SQLitePath, logger)
			if err != nil {
				return fmt.Errorf("database init failed: %w", err)
			}

			app := newApp(cfg, db, session.NewMemoryStore(cfg.SessionTTL), logger)
			report := app.RunReminders(cmd.Context())
			logger.Info().
				Int("checked", report.Checked).
				Int("sent", report.Sent).
				Int("failed", report.Failed).
				Int("skipped", report.Skipped).
				Msg("reminder scan finished")
			return nil
		},
	}
}

func setup() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	return cfg, newLogger(cfg), nil
}

func newLogger(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil || cfg.LogLevel == "" {
		level = zerolog.InfoLevel
	}
	var logger zerolog.Logger
	if cfg.LogFormat == "console" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	} else {
		logger = zerolog.New(os.Stdout)
	}
	return logger.Level(level).With().Timestamp().Str("service", "memobot").Logger()
}

func newSessionStore(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (session.Store, func(), error) {
	if cfg.RedisURL == "" {
		return session.NewMemoryStore(cfg.SessionTTL), func() {}, nil
	}
	store, err := session.NewRedisStore(ctx, cfg.RedisURL, cfg.SessionTTL)
	if err != nil {
		return nil, nil, fmt.Errorf("session store: %w", err)
	}
	logger.Info().Msg("sessions stored in redis")
	return store, func() {
		if err := store.Close(); err != nil {
			logger.Warn().Err(err).Msg("close redis")
		}
	}, nil
}

func newApp(cfg *config.Config, db *gorm.DB, sessions session.Store, logger zerolog.Logger) *bot.App {
	repo := notes.NewGormRepository(db, cfg.LocalTimezone)
	twilioClient := twilio.New(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioWhatsAppNumber, logger)
	openAIClient := myopenai.New(cfg.OpenAIAPIKey)

	deps := bot.Deps{
		Notes:      repo,
		Sessions:   sessions,
		Notifier:   twilioClient,
		Summarizer: openAIClient,
		Validator:  twilioClient,
		Logger:     logger,
		Ping: func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}
	if openAIClient.Enabled() {
		deps.Classifier = openAIClient
	}
	return bot.New(cfg, deps)
}

func waitForShutdown(server *http.Server, app *bot.App, logger zerolog.Logger) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	logger.Info().Msg("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("server shutdown error")
	}
	app.StopScheduler()
}
