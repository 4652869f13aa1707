package poll

import (
	"context"
	"errors"
	"time"

	"github.com/skyfeed/adsb-ingest/internal/logging"
	"github.com/skyfeed/adsb-ingest/internal/telemetry"
	"github.com/skyfeed/adsb-ingest/source"
)

// Fetcher is the one-fetch capability the loop schedules.
type Fetcher interface {
	Fetch(context.Context) (source.Batch, error)
	Name() string
}

// Publisher delivers one batch to the configured topic, atomically from
// the loop's point of view.
type Publisher interface {
	Publish(ctx context.Context, topic string, batch source.Batch) error
}

// ErrBudgetExceeded is returned once the consecutive recoverable-failure
// budget is spent. The process exits non-zero on it.
var ErrBudgetExceeded = errors.New("poll: too many consecutive errors")

// Computed backoff never exceeds this, bounding worst-case staleness.
const maxBackoff = 300 * time.Second

type Options struct {
	Source    Fetcher
	Publisher Publisher
	Topic     string
	Interval  time.Duration
	MaxErrors int
}

// Loop runs strictly sequential fetch → publish → sleep cycles and owns
// the whole backoff state: the consecutive error count and the backoff
// that a rate-limit failure defers to the top of the next cycle.
type Loop struct {
	src       Fetcher
	pub       Publisher
	topic     string
	interval  time.Duration
	maxErrors int

	consecutive    int
	pendingBackoff time.Duration

	sleep func(context.Context, time.Duration) error
}

func New(o Options) *Loop {
	return &Loop{
		src:       o.Source,
		pub:       o.Publisher,
		topic:     o.Topic,
		interval:  o.Interval,
		maxErrors: o.MaxErrors,
		sleep:     sleepCtx,
	}
}

// Run cycles until the context is cancelled (graceful, nil) or the error
// budget is spent (ErrBudgetExceeded).
func (l *Loop) Run(ctx context.Context) error {
	logging.L().Info("poll loop started",
		"source", l.src.Name(), "topic", l.topic,
		"interval", l.interval, "max_errors", l.maxErrors)

	for {
		// A backoff computed by the previous rate-limited cycle is
		// consumed here, before the next attempt.
		if l.pendingBackoff > 0 {
			logging.L().Info("rate limit backoff", "sleep", l.pendingBackoff)
			telemetry.BackoffSeconds.Add(l.pendingBackoff.Seconds())
			if l.sleep(ctx, l.pendingBackoff) != nil {
				return nil
			}
			l.pendingBackoff = 0
		}

		batch, err := l.src.Fetch(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			telemetry.Fetches.WithLabelValues(l.src.Name(), source.ClassOf(err).String()).Inc()
			if stop, terr := l.onFailure(ctx, err); stop {
				return terr
			}
			continue
		}

		if len(batch) == 0 {
			// Valid, excluded from the error budget.
			logging.L().Warn("no data fetched", "source", l.src.Name())
			telemetry.Fetches.WithLabelValues(l.src.Name(), "empty").Inc()
		} else {
			telemetry.Fetches.WithLabelValues(l.src.Name(), "ok").Inc()
			if perr := l.pub.Publish(ctx, l.topic, batch); perr != nil {
				if ctx.Err() != nil {
					return nil
				}
				if stop, terr := l.onFailure(ctx, perr); stop {
					return terr
				}
				continue
			}
			l.consecutive = 0
			telemetry.ConsecutiveErrors.Set(0)
		}

		if l.sleep(ctx, l.interval) != nil {
			return nil
		}
	}
}

// onFailure applies the two recovery branches. Rate-limit failures defer
// the computed backoff to the next cycle and sleep the normal interval
// now; everything else backs off immediately. The asymmetry is load
// bearing: a 429 is a signal to slow the next window down, other faults
// back off before retrying the same window.
func (l *Loop) onFailure(ctx context.Context, cause error) (stop bool, err error) {
	l.consecutive++
	telemetry.ConsecutiveErrors.Set(float64(l.consecutive))

	rateLimited := source.IsRateLimit(cause)
	delay := backoffFor(l.interval, l.consecutive)

	if rateLimited {
		logging.L().Error("rate limit error", "err", cause, "consecutive", l.consecutive)
		l.pendingBackoff = delay
		logging.L().Warn("will apply backoff on next cycle", "backoff", delay)
	} else {
		logging.L().Error("cycle error", "err", cause, "consecutive", l.consecutive)
	}

	if l.consecutive >= l.maxErrors {
		logging.L().Error("too many consecutive errors, exiting", "count", l.consecutive)
		return true, ErrBudgetExceeded
	}

	sleepFor := l.interval
	if !rateLimited {
		sleepFor = delay
		telemetry.BackoffSeconds.Add(delay.Seconds())
		logging.L().Info("sleeping before retry", "sleep", delay)
	}
	if l.sleep(ctx, sleepFor) != nil {
		return true, nil
	}
	return false, nil
}

// backoffFor is min(interval * 2^n, 300s), monotone in n.
func backoffFor(interval time.Duration, n int) time.Duration {
	if n > 20 {
		return maxBackoff
	}
	d := interval * (1 << n)
	if d <= 0 || d > maxBackoff {
		return maxBackoff
	}
	return d
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
