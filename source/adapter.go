package source

import (
	"context"
	"fmt"
	"time"
)

// Record is one aircraft state at the scrape instant, keyed by the
// per-feed field schema plus the injected source / scrape_time metadata.
type Record map[string]any

// Batch is the ordered output of a single Fetch. May be empty.
type Batch []Record

// Adapter is the common behaviour every feed exposes.
type Adapter interface {
	Configure(Config) error
	Fetch(context.Context) (Batch, error)
	Name() string
}

// Known feed kinds.
const (
	KindLocal        = "local"
	KindRegional     = "regional"
	KindGlobalStream = "global-stream"
	KindOpenSky      = "global-opensky"
)

/*──────── registry ───────*/

// Factory builds an Adapter for one feed kind.
type Factory func() Adapter

var registry = map[string]Factory{}

// Register is called from each driver's init() or main() factory map.
func Register(kind string, f Factory) { registry[kind] = f }

// NewAdapter returns a driver by kind ("local", "regional", …).
func NewAdapter(kind string) (Adapter, error) {
	if f, ok := registry[kind]; ok {
		return f(), nil
	}
	return nil, fmt.Errorf("source: unsupported kind %q", kind)
}

const scrapeTimeLayout = "2006-01-02 15:04:05"

// scrapeTime formats the shared per-batch timestamp. One value is stamped
// onto every record produced by the same Fetch.
func scrapeTime(t time.Time) string { return t.UTC().Format(scrapeTimeLayout) }
