package source

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/skyfeed/adsb-ingest/internal/logging"
)

// State-vector indexes per the OpenSky /states/all response.
const (
	svICAO24 = iota
	svCallsign
	svOriginCountry
	svTimePosition
	svLastContact
	svLongitude
	svLatitude
	svBaroAltitude
	svOnGround
	svVelocity
	svTrueTrack
	svVerticalRate
	svSensors
	svGeoAltitude
	svSquawk
	svSPI
	svPositionSource
)

// openskyAdapter polls the OAuth2-gated OpenSky API. Unlike the other
// feeds the payload is an array-of-arrays of state vectors, and every
// request needs a valid bearer token first.
type openskyAdapter struct {
	feed
	tokens TokenProvider
}

func newOpenSkyAdapter() Adapter { return &openskyAdapter{} }

func (a *openskyAdapter) Configure(cfg Config) error {
	if cfg.Kind != KindOpenSky {
		return fmt.Errorf("source: opensky adapter got kind %q", cfg.Kind)
	}
	a.forbiddenOn401 = true
	a.init(cfg)
	if a.tokens == nil {
		a.tokens = NewClientCredentials(cfg.OAuth, cfg.Timeout)
	}
	return nil
}

func (a *openskyAdapter) Fetch(ctx context.Context) (Batch, error) {
	url := a.nextURL()

	tok, err := a.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}
	logging.L().Debug("fetching", "kind", a.cfg.Kind, "url", url)

	body, err := a.get(ctx, url, tok)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Time   int64   `json:"time"`
		States [][]any `json:"states"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, &Error{Class: Transient, URL: url, Err: fmt.Errorf("decode states: %w", err)}
	}

	stamp := scrapeTime(time.Now())
	batch := make(Batch, 0, len(payload.States))
	for _, sv := range payload.States {
		if svVal(sv, svLatitude) == nil || svVal(sv, svLongitude) == nil {
			continue
		}
		rec := mapStateVector(sv, payload.Time)
		rec["source"] = a.cfg.Name
		rec["scrape_time"] = stamp
		batch = append(batch, rec)
	}
	return batch, nil
}

func mapStateVector(sv []any, fetchTime int64) Record {
	return Record{
		"icao24":          strings.ToLower(svStr(sv, svICAO24)),
		"callsign":        strings.TrimSpace(svStr(sv, svCallsign)),
		"origin_country":  svStr(sv, svOriginCountry),
		"time_position":   svVal(sv, svTimePosition),
		"last_contact":    svVal(sv, svLastContact),
		"lon":             svVal(sv, svLongitude),
		"lat":             svVal(sv, svLatitude),
		"baro_altitude":   svVal(sv, svBaroAltitude),
		"on_ground":       svVal(sv, svOnGround),
		"velocity":        svVal(sv, svVelocity),
		"true_track":      svVal(sv, svTrueTrack),
		"vertical_rate":   svVal(sv, svVerticalRate),
		"geo_altitude":    svVal(sv, svGeoAltitude),
		"squawk":          svStr(sv, svSquawk),
		"spi":             svVal(sv, svSPI),
		"position_source": svVal(sv, svPositionSource),
		"fetch_time":      fetchTime,
	}
}

func svVal(sv []any, i int) any {
	if i < len(sv) {
		return sv[i]
	}
	return nil
}

func svStr(sv []any, i int) string {
	if s, ok := svVal(sv, i).(string); ok {
		return s
	}
	return ""
}

func init() { Register(KindOpenSky, newOpenSkyAdapter) }
