// Command server runs the Pill Mate Home Assistant add-on backend: the REST
// API behind ingress and the reminder scheduler that notifies phones and
// plays the alarm sound.
//
//	@title			Pill Mate API
//	@version		1.0
//	@description	Medication stock and reminder API of the Pill Mate add-on.
//	@BasePath		/api
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/pill-mate/internal/config"
	"github.com/tbourn/pill-mate/internal/homeassistant"
	httpapi "github.com/tbourn/pill-mate/internal/http"
	"github.com/tbourn/pill-mate/internal/observability"
	"github.com/tbourn/pill-mate/internal/repo"
	"github.com/tbourn/pill-mate/internal/scheduler"
	"github.com/tbourn/pill-mate/internal/sysutil"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

const (
	shutdownTimeout = 15 * time.Second
	purgeEvery      = time.Hour
)

// hub is what the process needs from Home Assistant: reminder side effects,
// the device list and a signal when the connection is gone.
type hub interface {
	scheduler.Notifier
	MobileAppDevices(ctx context.Context) ([]homeassistant.Device, error)
}

func main() {
	// .env is optional; the add-on container gets its environment from the
	// Supervisor.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		sysutil.SetupLogger(os.Stderr, false)
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	sysutil.SetupLogger(os.Stdout, cfg.LogPretty)
	sysutil.SetLogLevel(cfg.LogLevel)
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	otelShutdown, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("otel setup failed")
	}

	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("open database")
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrate database")
	}

	var (
		notifier hub
		haDone   <-chan struct{}
		haClient *homeassistant.Client
	)
	if cfg.HomeAssistant.Enabled {
		haClient, err = homeassistant.Connect(ctx, homeassistant.Config{
			WebSocketURL:   cfg.HomeAssistant.WebSocketURL,
			AddonInfoURL:   cfg.HomeAssistant.AddonInfoURL,
			Token:          cfg.HomeAssistant.Token,
			MaxRetry:       cfg.HomeAssistant.MaxRetry,
			RetryDelay:     cfg.HomeAssistant.RetryDelay,
			RequestTimeout: cfg.HomeAssistant.RequestTimeout,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("connect to Home Assistant")
		}
		notifier, haDone = haClient, haClient.Done()
	} else {
		log.Warn().Msg("Home Assistant disabled, notifications are only logged")
		notifier = homeassistant.NewLogNotifier()
	}

	store := repo.NewReminderStore(db)
	sched := scheduler.New(store, notifier, scheduler.Options{
		Location:       cfg.Location(),
		AlarmURL:       cfg.Scheduler.AlarmMediaURL,
		MediaPlayer:    cfg.Scheduler.AlarmMediaPlayer,
		Locale:         cfg.LocaleTag(),
		TriggerTimeout: cfg.Scheduler.TriggerTimeout,
	})
	store.Observe(sched)
	if err := sched.Bootstrap(ctx); err != nil {
		log.Fatal().Err(err).Msg("load reminders")
	}
	log.Info().Int("armed", sched.Armed()).Msg("reminders scheduled")

	idem := repo.NewIdempotencyStore(db, cfg.IdempotencyTTL)
	go purgeIdempotency(ctx, idem)

	r := gin.New()
	httpapi.RegisterRoutes(r, httpapi.Deps{
		DB:          db,
		Reminders:   store,
		Idempotency: idem,
		Devices:     notifier,
		Location:    cfg.Location(),
	}, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("version", version).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case <-haDone:
		log.Error().Err(haClient.Err()).Msg("Home Assistant connection lost")
	case err := <-serveErr:
		log.Error().Err(err).Msg("http server failed")
	}

	shutdown(srv, sched, haClient, otelShutdown)
}

// shutdown stops accepting requests, clears every timer, then closes the
// Home Assistant connection and flushes traces.
func shutdown(srv *http.Server, sched *scheduler.Scheduler, ha *homeassistant.Client, otelShutdown observability.ShutdownFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	if err := sched.Stop(ctx); err != nil {
		log.Error().Err(err).Msg("scheduler stop")
	}
	if ha != nil {
		if err := ha.Close(); err != nil {
			log.Warn().Err(err).Msg("close Home Assistant connection")
		}
	}
	if err := otelShutdown(ctx); err != nil {
		log.Warn().Err(err).Msg("otel shutdown")
	}
	log.Info().Msg("stopped")
}

// purgeIdempotency drops expired Idempotency-Key records until ctx ends.
func purgeIdempotency(ctx context.Context, s *repo.IdempotencyStore) {
	t := time.NewTicker(purgeEvery)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := s.Purge(ctx)
			if err != nil {
				log.Warn().Err(err).Msg("idempotency purge failed")
				continue
			}
			if n > 0 {
				log.Debug().Int64("purged", n).Msg("expired idempotency keys removed")
			}
		}
	}
}
