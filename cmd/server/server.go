package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"fenrir/internal/config"
	"fenrir/internal/engine"
	"fenrir/internal/events"
	"fenrir/internal/net"
	"fenrir/internal/persistence"
	"fenrir/internal/transport"
)

func main() {
	configPath := flag.String("config", "configs/fenrir.yaml", "path to config file")
	flag.Parse()

	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGTERM,
		syscall.SIGINT,
	)
	defer stop()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	level, err := zerolog.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	out := zerolog.ConsoleWriter{Out: os.Stderr}
	logger := log.Logger.Level(level)
	if cfg.Logging.Pretty {
		logger = logger.Output(out)
	}

	persist := persistence.NewMemory(logger)
	publisher := events.New(logger)
	eng := engine.New(logger, persist, publisher)

	hub := transport.NewHub(logger)
	hub.Subscribe(publisher)

	router := transport.NewHTTP(logger, eng)
	router.GET("/stream", hub.Handler())

	httpSrv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.HTTP.Address, cfg.HTTP.Port),
		Handler: router,
	}

	tcpSrv := net.New(cfg.TCP.Address, cfg.TCP.Port, eng)
	publisher.Subscribe(events.Trade, tcpSrv)

	go func() {
		logger.Info().Str("addr", httpSrv.Addr).Msg("http transport listening")
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("http transport stopped")
		}
	}()
	go tcpSrv.Run(ctx)

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http transport shutdown error")
	}
	tcpSrv.Shutdown()
}
