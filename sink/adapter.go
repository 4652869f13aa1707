package sink

import (
	"context"
	"fmt"

	"github.com/skyfeed/adsb-ingest/source"
)

// Publisher is the common behaviour every sink exposes. Connect is the
// blocking capability-acquisition step: once it returns nil the poll loop
// may assume every Publish either durably hands the batch to the broker
// or fails as a whole.
type Publisher interface {
	Configure(any) error // driver-specific config ⇒ struct
	Connect(context.Context) error
	Publish(ctx context.Context, topic string, batch source.Batch) error
	Close() error // idempotent
}

/*──────── registry ───────*/

type factory = func() Publisher

var reg = map[string]factory{}

func Register(name string, f factory) { reg[name] = f }

func NewPublisher(name string) (Publisher, error) {
	if f, ok := reg[name]; ok {
		return f(), nil
	}
	return nil, fmt.Errorf("unknown sink %q", name)
}
