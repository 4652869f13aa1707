package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/skyfeed/adsb-ingest/internal/engine"
	"github.com/skyfeed/adsb-ingest/internal/logging"
	"github.com/skyfeed/adsb-ingest/internal/poll"

	// sink drivers self-register
	_ "github.com/skyfeed/adsb-ingest/sink/kafka"
	_ "github.com/skyfeed/adsb-ingest/sink/stdout"
)

func main() {
	specPath := flag.String("spec", "ingest.yml", "path to the ingest spec (optional)")
	flag.Parse()

	logging.InitFromEnv()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	e, err := engine.Bootstrap(ctx, engine.Config{SpecPath: *specPath})
	if err != nil {
		logging.L().Error("bootstrap", "err", err)
		os.Exit(2)
	}

	if err := e.Run(ctx); err != nil {
		if errors.Is(err, poll.ErrBudgetExceeded) {
			logging.L().Error("exiting", "err", err)
		} else {
			logging.L().Error("engine", "err", err)
		}
		os.Exit(1)
	}
	logging.L().Info("shut down gracefully")
}
