package source

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/skyfeed/adsb-ingest/internal/logging"
)

// feedShape is the per-kind variation between the aircraft-list feeds:
// which top-level key holds the list, how the position filter reads, and
// which mapping function applies. Control flow is identical across kinds.
type feedShape struct {
	listKey   string
	strictPos bool // position filter on key presence vs. non-null value
	mapEntry  func(doc) Record
}

var feedShapes = map[string]feedShape{
	KindLocal:        {listKey: "aircraft", strictPos: true, mapEntry: mapLocal},
	KindRegional:     {listKey: "ac", strictPos: true, mapEntry: mapRegional},
	KindGlobalStream: {listKey: "aircraft", strictPos: false, mapEntry: mapGlobalStream},
}

type aircraftAdapter struct {
	feed
	shape feedShape
}

func newAircraftAdapter(kind string) Adapter {
	return &aircraftAdapter{shape: feedShapes[kind]}
}

func (a *aircraftAdapter) Configure(cfg Config) error {
	if _, ok := feedShapes[cfg.Kind]; !ok {
		return fmt.Errorf("source: %q is not an aircraft-list feed", cfg.Kind)
	}
	a.shape = feedShapes[cfg.Kind]
	a.init(cfg)
	return nil
}

func (a *aircraftAdapter) Fetch(ctx context.Context) (Batch, error) {
	url := a.nextURL()
	logging.L().Debug("fetching", "kind", a.cfg.Kind, "url", url)

	body, err := a.get(ctx, url, "")
	if err != nil {
		return nil, err
	}

	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, &Error{Class: Transient, URL: url, Err: fmt.Errorf("decode payload: %w", err)}
	}
	var entries []doc
	if raw, ok := payload[a.shape.listKey]; ok {
		if err := json.Unmarshal(raw, &entries); err != nil {
			return nil, &Error{Class: Transient, URL: url, Err: fmt.Errorf("decode %s list: %w", a.shape.listKey, err)}
		}
	}

	stamp := scrapeTime(time.Now())
	batch := make(Batch, 0, len(entries))
	for _, e := range entries {
		if !e.hasPosition(a.shape.strictPos) {
			continue
		}
		rec := a.shape.mapEntry(e)
		rec["source"] = a.cfg.Name
		rec["scrape_time"] = stamp
		batch = append(batch, rec)
	}
	return batch, nil
}

func init() {
	for _, kind := range []string{KindLocal, KindRegional, KindGlobalStream} {
		k := kind
		Register(k, func() Adapter { return newAircraftAdapter(k) })
	}
}
