package source

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// TokenProvider yields a bearer token valid for the next request.
// Implementations cache tokens for less than their real lifetime.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}

// oauthTokens caches the last token and refetches through the caller's
// ctx with a bounded HTTP client, so a hung token endpoint can never
// outlive the fetch deadline or an interrupt.
type oauthTokens struct {
	cc     *clientcredentials.Config
	client *http.Client

	mu  sync.Mutex
	tok *oauth2.Token
}

// NewClientCredentials builds a TokenProvider on the client-credentials
// grant. timeout bounds each token-endpoint round trip.
func NewClientCredentials(cfg OAuthConfig, timeout time.Duration) TokenProvider {
	return &oauthTokens{
		cc: &clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     cfg.TokenURL,
		},
		client: &http.Client{Timeout: timeout},
	}
}

func (t *oauthTokens) Token(ctx context.Context) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.tok.Valid() {
		return t.tok.AccessToken, nil
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, t.client)
	tok, err := t.cc.Token(ctx)
	if err != nil {
		return "", classifyTokenErr(err)
	}
	t.tok = tok
	return tok.AccessToken, nil
}

// classifyTokenErr maps token-endpoint failures onto the fetch taxonomy:
// a 429 means slow down, anything else means the credentials are bad or
// access is denied.
func classifyTokenErr(err error) error {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) {
		if re.Response != nil && re.Response.StatusCode == http.StatusTooManyRequests {
			return &Error{Class: RateLimited, URL: "token endpoint", Err: err}
		}
		return &Error{Class: Forbidden, URL: "token endpoint", Err: err}
	}
	return &Error{Class: Transient, URL: "token endpoint", Err: err}
}
