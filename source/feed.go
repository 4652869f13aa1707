package source

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-resty/resty/v2"

	"github.com/skyfeed/adsb-ingest/internal/logging"
)

// feed carries the plumbing shared by every HTTP adapter: the configured
// URL list with its rotation cursor, the bounded-timeout client, and the
// status classification rules.
//
// The cursor is owned by the single-threaded poll loop; no locking.
type feed struct {
	cfg            Config
	client         *resty.Client
	cursor         int
	forbiddenOn401 bool
}

func (f *feed) init(cfg Config) {
	f.cfg = cfg
	f.client = resty.New().SetTimeout(cfg.Timeout)
	logging.L().Info("initialized source", "kind", cfg.Kind, "name", cfg.Name, "urls", len(cfg.URLs))
}

func (f *feed) Name() string { return f.cfg.Name }

// nextURL advances the round-robin cursor: one fetch, one URL.
func (f *feed) nextURL() string {
	u := f.cfg.URLs[f.cursor%len(f.cfg.URLs)]
	f.cursor++
	return u
}

// get issues one bounded GET and classifies the outcome. bearer is empty
// for feeds that need no auth.
func (f *feed) get(ctx context.Context, url, bearer string) ([]byte, error) {
	req := f.client.R().SetContext(ctx)
	if bearer != "" {
		req.SetAuthToken(bearer)
	}
	resp, err := req.Get(url)
	if err != nil {
		return nil, &Error{Class: Transient, URL: url, Err: err}
	}

	switch code := resp.StatusCode(); {
	case code == http.StatusTooManyRequests:
		logging.L().Warn("rate limited by feed", "url", url)
		return nil, &Error{Class: RateLimited, URL: url}
	case code == http.StatusForbidden:
		logging.L().Warn("forbidden response from feed", "url", url)
		return nil, &Error{Class: Forbidden, URL: url}
	case code == http.StatusUnauthorized && f.forbiddenOn401:
		logging.L().Warn("unauthorized response from feed", "url", url)
		return nil, &Error{Class: Forbidden, URL: url}
	case code < 200 || code > 299:
		return nil, &Error{Class: Transient, URL: url, Err: fmt.Errorf("unexpected status %d", code)}
	}
	return resp.Body(), nil
}
