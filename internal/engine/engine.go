package engine

import (
	"context"
	"time"

	"github.com/skyfeed/adsb-ingest/internal/config"
	"github.com/skyfeed/adsb-ingest/internal/logging"
	"github.com/skyfeed/adsb-ingest/internal/poll"
	"github.com/skyfeed/adsb-ingest/sink"
	"github.com/skyfeed/adsb-ingest/source"
)

const closeTimeout = 10 * time.Second

type Engine struct {
	loopCfg config.Loop
	src     source.Adapter
	pub     sink.Publisher
}

// Run walks the startup sequence — settle, broker connect, settle again —
// then hands control to the poll loop. Both settle phases exist to keep a
// process supervisor from restarting the ingester into a thundering herd.
// Returns nil on graceful interrupt; the error budget surfaces as
// poll.ErrBudgetExceeded.
func (e *Engine) Run(ctx context.Context) error {
	logging.L().Info("initial startup settle", "sleep", e.loopCfg.StartupSettle())
	if sleepCtx(ctx, e.loopCfg.StartupSettle()) != nil {
		return nil
	}

	if err := e.pub.Connect(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}
	defer e.teardown()

	logging.L().Info("post-connect settle", "sleep", e.loopCfg.PostConnectSettle())
	if sleepCtx(ctx, e.loopCfg.PostConnectSettle()) != nil {
		return nil
	}

	loop := poll.New(poll.Options{
		Source:    e.src,
		Publisher: e.pub,
		Topic:     e.loopCfg.Topic,
		Interval:  e.loopCfg.PollInterval(),
		MaxErrors: e.loopCfg.MaxConsecutiveErrors,
	})
	return loop.Run(ctx)
}

// teardown is the single exit path for graceful and fatal termination:
// flush and close the publisher, bounded so a wedged broker cannot hang
// shutdown.
func (e *Engine) teardown() {
	done := make(chan error, 1)
	go func() { done <- e.pub.Close() }()
	select {
	case err := <-done:
		if err != nil {
			logging.L().Error("publisher close", "err", err)
		}
	case <-time.After(closeTimeout):
		logging.L().Warn("publisher close timed out", "timeout", closeTimeout)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
