package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"roombook/internal/bookingapi"
	"roombook/internal/config"
	"roombook/internal/metrics"
	"roombook/internal/session"
	"roombook/internal/web"
)

func main() {
	// Initialize logger
	output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	logger := zerolog.New(output).With().Timestamp().Logger()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Warn().Err(err).Msg("failed to read .env")
	}

	cfg, err := config.Load(os.Getenv("ROOMBOOK_CONFIG_PATH"))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	logger = logger.Level(cfg.LogLevel())

	loc, err := cfg.Location()
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid booking timezone")
	}

	client := bookingapi.NewClient(cfg.API.BaseURL, cfg.APITimeout(), cfg.API.ForwardCookies)
	var rdb *redis.Client
	if cfg.Redis.Address != "" && cfg.CacheTTL() > 0 {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.Redis.Address, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		defer rdb.Close()
		client.UseRedisCache(rdb, cfg.CacheTTL())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rooms := new(atomic.Pointer[config.RoomsConfig])
	if cfg.RoomsConfigPath != "" {
		err := config.WatchRooms(ctx, cfg.RoomsConfigPath, 30*time.Second,
			func(c *config.RoomsConfig) {
				rooms.Store(c)
				logger.Info().Str("rooms", c.String()).Msg("rooms config loaded")
			},
			func(err error) {
				logger.Error().Err(err).Msg("rooms config reload failed")
			})
		if err != nil {
			logger.Fatal().Err(err).Str("path", cfg.RoomsConfigPath).Msg("failed to load rooms config")
		}
	}

	perSecond, burst := cfg.RateLimit()
	sessions := session.NewStore(cfg.SessionTTL(), rate.Limit(perSecond), burst, &logger)
	go sessions.Run(ctx, cfg.RefreshInterval())

	srv, err := web.NewServer(web.Deps{
		Client:         client,
		Sessions:       sessions,
		Rooms:          rooms,
		Location:       loc,
		MaxAdvanceDays: cfg.MaxAdvanceDays(),
		LoginURL:       cfg.API.LoginURL,
		LogoutURL:      cfg.API.LogoutURL,
		PublicURL:      cfg.HTTP.PublicURL,
		CORSOrigins:    cfg.HTTP.CORSAllowedOrigins,
		SecureCookies:  cfg.HTTP.SecureCookies,
		Logger:         &logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("create web server error")
	}

	if cfg.Monitoring.HealthCheckPort == 0 {
		cfg.Monitoring.HealthCheckPort = 8090
	}
	go startHealthServer(ctx, cfg.Monitoring.HealthCheckPort, client, rdb, &logger)

	if cfg.Monitoring.PrometheusEnabled {
		if cfg.Monitoring.PrometheusPort == 0 {
			cfg.Monitoring.PrometheusPort = 9090
		}
		metrics.Register()
		go startMetricsServer(ctx, cfg.Monitoring.PrometheusPort, &logger)
	}

	httpSrv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(ctxShutdown); err != nil {
			logger.Error().Err(err).Msg("web server shutdown error")
		}
	}()

	logger.Info().Str("addr", cfg.HTTP.Addr).Str("api", cfg.API.BaseURL).Msg("room booking web started")
	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("web server error")
	}
	logger.Info().Msg("room booking web stopped")
}

func startHealthServer(ctx context.Context, port int, client *bookingapi.Client, rdb *redis.Client, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := client.HealthCheck(ctxPing); err != nil {
			http.Error(w, "booking service not ready", http.StatusServiceUnavailable)
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

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux, ReadHeaderTimeout: 5 * time.Second}
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
