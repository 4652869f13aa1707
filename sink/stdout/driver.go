package stdout

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"

	"github.com/skyfeed/adsb-ingest/sink"
	"github.com/skyfeed/adsb-ingest/source"
)

/* ────────── public config ────────── */

type Config struct {
	PrintCounter  bool `koanf:"print_counter"`   // prepend batch seq#
	PrintRecords  bool `koanf:"print_records"`   // dump each record as JSON
	ValueMaxBytes int  `koanf:"value_max_bytes"` // 0 = unlimited
}

/* ────────── driver ────────── */

// driver is the debug sink: no broker, every batch goes to stdout.
type driver struct {
	cfg Config
}

var seq uint64

func (d *driver) Configure(raw any) error {
	c, ok := raw.(Config)
	if !ok {
		return fmt.Errorf("stdout-sink: expected Config, got %T", raw)
	}
	d.cfg = c
	return nil
}

func (d *driver) Connect(context.Context) error { return nil }

func (d *driver) Publish(_ context.Context, topic string, batch source.Batch) error {
	if d.cfg.PrintCounter {
		fmt.Printf("[sink %06d] %s: %d record(s)\n", atomic.AddUint64(&seq, 1), topic, len(batch))
	} else {
		fmt.Printf("%s: %d record(s)\n", topic, len(batch))
	}
	if !d.cfg.PrintRecords {
		return nil
	}
	for _, rec := range batch {
		b, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		if d.cfg.ValueMaxBytes > 0 && len(b) > d.cfg.ValueMaxBytes {
			b = b[:d.cfg.ValueMaxBytes]
		}
		fmt.Printf("  %s\n", b)
	}
	return nil
}

func (d *driver) Close() error { return nil }

/* ────────── auto-register ────────── */
func init() {
	sink.Register("stdout", func() sink.Publisher { return &driver{} })
}
