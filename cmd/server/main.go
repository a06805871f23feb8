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

	"camrent/internal/api"
	"camrent/internal/booking"
	"camrent/internal/cache"
	"camrent/internal/config"
	"camrent/internal/database"
	"camrent/internal/events"
	"camrent/internal/google"
	"camrent/internal/metrics"
	"camrent/internal/notify"
	"camrent/internal/postgres"
	"camrent/internal/pricing"
	"camrent/internal/report"
	"camrent/internal/repository"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// storeHandle bundles the selected backend with its optional capabilities.
type storeHandle struct {
	booking.Store
	pinger   booking.Pinger
	snapshot database.Snapshotter
	close    func()
}

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load(os.Getenv("CAMRENT_CONFIG_PATH"))
	if err != nil {
		boot := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).With().Timestamp().Logger()
		boot.Fatal().Err(err).Msg("failed to load config")
	}
	logger := newLogger(cfg.Logging)

	loc, err := cfg.Location()
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid timezone")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg, &logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("open store error")
	}
	defer store.close()

	if err := seedItems(ctx, store.Store, cfg.Items); err != nil {
		logger.Fatal().Err(err).Msg("seed items error")
	}

	catalog, err := newCatalog(cfg, &logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("load promotions error")
	}
	err = config.WatchPromotions(ctx, cfg.PromotionsFile(), 5*time.Second, func(promos []pricing.Promotion) {
		if err := catalog.Replace(promos); err != nil {
			logger.Error().Err(err).Msg("promotions reload rejected")
			return
		}
		logger.Debug().Int("count", len(promos)).Msg("promotions loaded")
	}, func(err error) {
		logger.Error().Err(err).Msg("promotions file invalid, keeping previous set")
	})
	if err != nil {
		logger.Warn().Err(err).Msg("promotions hot reload disabled")
	}

	bus := events.NewEventBus()
	bus.OnError(func(e events.Event, err error) {
		logger.Warn().Err(err).Str("event", e.Type).Int64("event_id", e.ID).Msg("event handler failed")
	})

	var finder booking.AvailabilityFinder = booking.NewFinder(store, store)
	var rdb *redis.Client
	if cfg.Redis.Address != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.Redis.Address, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		defer rdb.Close()
		cacheLogger := logger.With().Str("component", "cache").Logger()
		cached := cache.NewAvailabilityCache(finder, rdb, cfg.CacheTTL(), &cacheLogger)
		cached.Subscribe(bus)
		finder = cached
	}

	if cfg.Monitoring.PrometheusEnabled {
		metrics.Register()
		metrics.Subscribe(bus)
		go startMetricsServer(ctx, cfg.PrometheusPort(), &logger)
	}
	go startHealthServer(ctx, cfg.HealthCheckPort(), store.pinger, rdb, &logger)

	if cfg.Telegram.Enabled {
		if err := startNotifier(ctx, cfg, store, bus, loc, &logger); err != nil {
			logger.Fatal().Err(err).Msg("telegram notifier error")
		}
	}

	if cfg.GoogleSheets.Enabled {
		values, err := google.NewValuesWriter(ctx, cfg.GoogleSheets.CredentialsFile)
		if err != nil {
			logger.Fatal().Err(err).Msg("google sheets client error")
		}
		sheetsLogger := logger.With().Str("component", "sheets").Logger()
		sheets := google.NewSheetsService(values, store, cfg.GoogleSheets.SpreadsheetID, cfg.SheetName(), loc, &sheetsLogger)
		sheets.Subscribe(bus)
		go sheets.Run(ctx)
	}

	if store.snapshot != nil {
		backupLogger := logger.With().Str("component", "backup").Logger()
		go database.NewBackupService(store.snapshot, cfg, &backupLogger).Start(ctx)
	}

	feedLogger := logger.With().Str("component", "feed").Logger()
	feed := api.NewFeed(&feedLogger)
	feed.Subscribe(bus)
	go feed.Run(ctx)

	rps, burst := cfg.RateLimit()
	apiLogger := logger.With().Str("component", "api").Logger()
	e := api.NewServer(&api.Controller{
		Bookings: booking.NewManager(store, bus),
		Store:    store,
		Finder:   finder,
		Catalog:  catalog,
		Reports:  report.NewService(store, loc),
		Footer:   cfg.Report.SummaryFooter,
		BaseURL:  cfg.Report.ReceiptBaseURL,
		Log:      &apiLogger,
	}, feed, api.Options{
		RateLimitRPS:   rps,
		RateLimitBurst: burst,
		CORSOrigins:    cfg.CORSOrigins(),
	})

	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := e.Shutdown(ctxShutdown); err != nil {
			logger.Error().Err(err).Msg("api shutdown error")
		}
	}()

	logger.Info().
		Int("port", cfg.ServerPort()).
		Str("driver", cfg.Database.Driver).
		Str("timezone", loc.String()).
		Msg("camrent started")
	if err := e.Start(fmt.Sprintf(":%d", cfg.ServerPort())); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error().Err(err).Msg("api server error")
	}
	logger.Info().Msg("camrent stopped")
}

func newLogger(cfg config.LoggingConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	var logger zerolog.Logger
	if cfg.Format == "json" {
		logger = zerolog.New(os.Stdout)
	} else {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	}
	return logger.Level(level).With().Timestamp().Logger()
}

func openStore(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*storeHandle, error) {
	switch cfg.Database.Driver {
	case config.DriverPostgres:
		db, err := postgres.New(ctx, cfg.Database.DSN, logger)
		if err != nil {
			return nil, err
		}
		return &storeHandle{Store: db, pinger: db, close: db.Close}, nil
	case config.DriverMemory:
		logger.Warn().Msg("using in-memory store, data is lost on exit")
		mem := repository.NewMemoryStore()
		return &storeHandle{Store: mem, pinger: mem, close: func() {}}, nil
	default:
		db, err := database.NewDB(cfg.Database.Path, logger)
		if err != nil {
			return nil, err
		}
		return &storeHandle{Store: db, pinger: db, snapshot: db, close: func() { _ = db.Close() }}, nil
	}
}

func seedItems(ctx context.Context, store booking.Store, items []config.ItemConfig) error {
	seeder, ok := store.(booking.ItemSeeder)
	if !ok {
		return nil
	}
	for _, it := range items {
		if err := seeder.UpsertItem(ctx, it.ID, it.Name); err != nil {
			return fmt.Errorf("seed item %d: %w", it.ID, err)
		}
	}
	return nil
}

// newCatalog loads promotions from file, falling back to the built-in list
// when the file does not exist.
func newCatalog(cfg *config.Config, logger *zerolog.Logger) (*pricing.Catalog, error) {
	promos, err := config.LoadPromotions(cfg.PromotionsFile())
	if errors.Is(err, os.ErrNotExist) {
		logger.Warn().Str("path", cfg.PromotionsFile()).Msg("promotions file missing, using defaults")
		promos, err = pricing.DefaultPromotions, nil
	}
	if err != nil {
		return nil, err
	}
	return pricing.NewCatalog(cfg.Pricing, promos)
}

func startNotifier(ctx context.Context, cfg *config.Config, store booking.Store, bus *events.EventBus, loc *time.Location, logger *zerolog.Logger) error {
	bot, err := tgbotapi.NewBotAPI(cfg.Telegram.BotToken)
	if err != nil {
		return fmt.Errorf("telegram bot: %w", err)
	}
	notifyLogger := logger.With().Str("component", "notify").Logger()
	n := notify.NewNotifier(bot, store, notify.Config{
		ChatIDs:       cfg.Telegram.ChatIDs,
		RatePerSecond: cfg.TelegramRate(),
		MaxRetries:    3,
		Footer:        cfg.Report.SummaryFooter,
		Location:      loc,
	}, notify.NewMetrics(prometheus.DefaultRegisterer, "camrent"), &notifyLogger)
	n.Subscribe(bus)
	go n.Run(ctx)

	digest, err := newDigest(cfg, store, n, loc, logger)
	if err != nil {
		return err
	}
	if digest != nil {
		go digest.Start(ctx)
	}
	return nil
}

// newDigest returns nil when no digest time is configured.
func newDigest(cfg *config.Config, bookings notify.BookingLister, out notify.Enqueuer, loc *time.Location, logger *zerolog.Logger) (*notify.Digest, error) {
	hour, minute, ok, err := cfg.DigestTime()
	if err != nil {
		return nil, fmt.Errorf("digest: %w", err)
	}
	if !ok {
		return nil, nil
	}
	digestLogger := logger.With().Str("component", "digest").Logger()
	logger.Info().Int("hour", hour).Int("minute", minute).Msg("handover digest scheduled")
	return notify.NewDigest(notify.DigestConfig{Hour: hour, Minute: minute, Location: loc}, bookings, out, &digestLogger), nil
}

func startHealthServer(ctx context.Context, port int, store booking.Pinger, rdb *redis.Client, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		ctxPing, cancel := context.WithTimeout(ctx, time.Second)
		defer cancel()
		if err := store.PingContext(ctxPing); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
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

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
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

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
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
