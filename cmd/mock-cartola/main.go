package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/cartola/internal/mockmarket"
	"github.com/okian/cartola/pkg/logger"
)

const (
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 5 * time.Second
)

func main() {
	defaults := mockmarket.DefaultConfig()
	var (
		addr     = flag.String("addr", ":9090", "Listen address")
		seed     = flag.Int64("seed", defaults.Seed, "Random seed of the generated dataset")
		clubs    = flag.Int("clubs", defaults.Clubs, "Number of clubs")
		athletes = flag.Int("athletes", defaults.AthletesPerClub, "Athletes per club")
		round    = flag.Int("round", defaults.Round, "Current round")
		closed   = flag.Bool("closed", false, "Serve a closed market")
		failRate = flag.Float64("fail-rate", 0, "Share of requests answered with 503")
		latency  = flag.Duration("latency", 0, "Delay added to every response")
		help     = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		mockmarket.ShowHelp()
		return
	}

	if err := logger.Init(); err != nil {
		_, _ = os.Stderr.WriteString("Failed to initialize logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	log := logger.Get().Named("mock-cartola")

	cfg := mockmarket.Config{
		Seed:            *seed,
		Clubs:           *clubs,
		AthletesPerClub: *athletes,
		Round:           *round,
		Open:            !*closed,
		FailRate:        *failRate,
		Latency:         *latency,
	}
	srv := &http.Server{
		Addr:              *addr,
		Handler:           mockmarket.NewServer(cfg, log).Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info(ctx, "mock market listening",
			logger.String("addr", *addr),
			logger.Int("clubs", cfg.Clubs),
			logger.Float64("failRate", cfg.FailRate))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error(ctx, "server error", logger.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(shutdownCtx, "shutdown failed", logger.Error(err))
	}
}
