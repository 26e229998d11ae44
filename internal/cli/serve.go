package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"folio/internal/booking"
	"folio/internal/config"
	"folio/internal/contact"
	"folio/internal/httpapi"
	"folio/internal/journal"
	"folio/internal/messaging"
	"folio/internal/metrics"
	"folio/internal/ratelimit"
	"folio/internal/slots"

	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	logger := zerolog.New(output).With().Timestamp().Logger()

	cfg, err := config.Load(config.ResolvePath(configPath))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.Server.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
		gin.SetMode(gin.ReleaseMode)
	}

	labels, err := slots.Labels(cfg.Schedule())
	if err != nil {
		return fmt.Errorf("booking schedule: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	j, err := journal.Open(cfg.Journal.Path)
	if err != nil {
		return err
	}
	defer j.Close()

	var rdb *redis.Client
	if cfg.Redis.Address != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.Redis.Address, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		defer rdb.Close()
	}

	messenger, err := buildMessenger(ctx, cfg, j, &logger)
	if err != nil {
		return err
	}

	store := booking.NewStore(cfg.SessionTTL(), func(locale booking.Locale) *booking.Controller {
		return booking.NewController(booking.Options{
			Locale:        locale,
			Messenger:     messenger,
			Slots:         labels,
			SubmitTimeout: cfg.SubmitTimeout(),
			Logger:        &logger,
		})
	})

	router := httpapi.New(httpapi.Deps{
		Store:           store,
		Contact:         contact.NewService(messenger, cfg.SubmitTimeout(), &logger),
		Limiter:         ratelimit.NewLimiter(rdb, cfg.RateLimitConfig()),
		Slots:           labels,
		DefaultTimezone: cfg.Booking.Timezone,
		CORSOrigins:     cfg.Server.CORSOrigins,
		Logger:          &logger,
	})

	go startHealthServer(ctx, cfg.HealthPort(), j, rdb, &logger)

	if cfg.Monitoring.PrometheusEnabled {
		metrics.Register()
		go startMetricsServer(ctx, cfg.PrometheusPort(), &logger)
	}

	go runHousekeeping(ctx, store, j, cfg.JournalRetention(), &logger)
	go journal.NewBackupService(j, cfg.BackupConfig(), &logger).Start(ctx)

	srv := &http.Server{
		Addr:              cfg.ServerAddress(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), cfg.SubmitTimeout()+5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()

	logger.Info().Str("addr", srv.Addr).Int("slots", len(labels)).Msg("folio api started")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("api server: %w", err)
	}
	logger.Info().Msg("folio api stopped")
	return nil
}

// buildMessenger sends through EmailJS, mirrors to Telegram and Sheets when
// configured and journals every attempt.
func buildMessenger(ctx context.Context, cfg *config.Config, j *journal.Journal, logger *zerolog.Logger) (messaging.Messenger, error) {
	primary := messaging.NewEmailJS(cfg.EmailJSConfig(), logger)

	var mirrors []messaging.Messenger
	if cfg.Telegram.BotToken != "" && cfg.Telegram.ChatID != 0 {
		bot, err := tgbotapi.NewBotAPI(cfg.Telegram.BotToken)
		if err != nil {
			return nil, fmt.Errorf("telegram bot: %w", err)
		}
		mirrors = append(mirrors, messaging.NewTelegram(bot, cfg.Telegram.ChatID))
		logger.Info().Str("bot", bot.Self.UserName).Msg("telegram notifications enabled")
	}
	if cfg.Sheets.CredentialsFile != "" && cfg.Sheets.SpreadsheetID != "" {
		api, err := messaging.NewSheetsAPI(ctx, cfg.Sheets.CredentialsFile)
		if err != nil {
			return nil, err
		}
		mirrors = append(mirrors, messaging.NewSheets(api, cfg.Sheets.SpreadsheetID, cfg.Sheets.Range))
		logger.Info().Msg("sheets mirror enabled")
	}

	return journal.NewJournaled(messaging.NewFanout(primary, logger, mirrors...), j, logger), nil
}

// runHousekeeping drops idle booking dialogs and prunes the journal.
func runHousekeeping(ctx context.Context, store *booking.Store, j *journal.Journal, retention time.Duration, logger *zerolog.Logger) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	lastPrune := time.Time{}
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := store.Cleanup(); n > 0 {
				logger.Debug().Int("removed", n).Msg("booking sessions cleaned up")
			}
			if retention <= 0 || now.Sub(lastPrune) < time.Hour {
				continue
			}
			lastPrune = now
			n, err := j.DeleteOlderThan(ctx, now.Add(-retention))
			if err != nil {
				logger.Error().Err(err).Msg("journal prune failed")
			} else if n > 0 {
				logger.Info().Int64("removed", n).Msg("journal pruned")
			}
		}
	}
}

func startHealthServer(ctx context.Context, port int, j *journal.Journal, rdb *redis.Client, logger *zerolog.Logger) {
	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: healthMux(ctx, j, rdb), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("health server error")
	}
}

func healthMux(ctx context.Context, j *journal.Journal, rdb *redis.Client) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		ctxPing, cancel := context.WithTimeout(ctx, time.Second)
		defer cancel()
		if err := j.PingContext(ctxPing); err != nil {
			http.Error(w, "journal not ready", http.StatusServiceUnavailable)
			return
		}
		if rdb != nil {
			if err := rdb.Ping(ctxPing).Err(); err != nil {
				http.Error(w, "redis not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})
	return mux
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
