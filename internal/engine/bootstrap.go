package engine

import (
	"context"
	"fmt"
	"os"

	"github.com/skyfeed/adsb-ingest/internal/config"
	"github.com/skyfeed/adsb-ingest/internal/telemetry"
	"github.com/skyfeed/adsb-ingest/sink"
	"github.com/skyfeed/adsb-ingest/sink/stdout"
	"github.com/skyfeed/adsb-ingest/source"
)

type Config struct {
	SpecPath string // optional ingest.yml
}

// Bootstrap loads config, constructs the chosen source adapter and sink
// driver, and exposes metrics. It does not reach the broker yet; the
// blocking Connect happens inside Run, after the startup settle.
func Bootstrap(ctx context.Context, cfg Config) (*Engine, error) {
	// 1. config layers
	sp, srcPath, sinkPath, err := config.LoadIngestSpec(cfg.SpecPath)
	if err != nil {
		return nil, fmt.Errorf("spec: %w", err)
	}
	srcCfg, err := config.LoadSourceConfig(srcPath, sp.Source.Kind)
	if err != nil {
		return nil, fmt.Errorf("source: %w", err)
	}
	loopCfg, err := config.LoadLoopConfig(cfg.SpecPath, srcCfg.Kind)
	if err != nil {
		return nil, fmt.Errorf("loop: %w", err)
	}

	// 2. source adapter
	src, err := source.NewAdapter(srcCfg.Kind)
	if err != nil {
		return nil, err
	}
	if err := src.Configure(srcCfg); err != nil {
		return nil, err
	}

	// 3. sink driver
	driver := sp.Sink.Driver
	if v := os.Getenv("ADSB_SINK__DRIVER"); v != "" {
		driver = v
	}
	if driver == "" {
		driver = "kafka"
	}
	pub, err := sink.NewPublisher(driver)
	if err != nil {
		return nil, err
	}
	switch driver {
	case "kafka":
		kc, kerr := config.LoadKafkaConfig(sinkPath)
		if kerr != nil {
			return nil, fmt.Errorf("sink: %w", kerr)
		}
		err = pub.Configure(kc)
	case "stdout":
		err = pub.Configure(stdout.Config{
			PrintCounter:  sp.Debug.PrintCounter,
			PrintRecords:  sp.Debug.PrintRecords,
			ValueMaxBytes: sp.Debug.ValueMaxBytes,
		})
	default:
		err = fmt.Errorf("no config block for sink %q", driver)
	}
	if err != nil {
		return nil, err
	}

	// 4. metrics
	telemetry.Expose(loopCfg.MetricsPort)

	return &Engine{
		loopCfg: loopCfg,
		src:     src,
		pub:     pub,
	}, nil
}
