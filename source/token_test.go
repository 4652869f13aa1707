package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func tokenProvider(url string, timeout time.Duration) TokenProvider {
	return NewClientCredentials(OAuthConfig{
		ClientID:     "id",
		ClientSecret: "secret",
		TokenURL:     url,
	}, timeout)
}

// A token endpoint that never answers must not wedge the fetch: the
// caller's ctx cancels the request.
func TestClientCredentials_HangingEndpointHonorsContext(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	tp := tokenProvider(srv.URL, time.Minute)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := tp.Token(ctx)
	if err == nil {
		t.Fatal("want error from cancelled token fetch")
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("token fetch ignored cancellation, blocked %s", elapsed)
	}
	if ClassOf(err) != Transient {
		t.Fatalf("cancellation must classify transient, got %v", err)
	}
}

// The client timeout bounds the round trip even with a background ctx.
func TestClientCredentials_ClientTimeoutBoundsFetch(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	tp := tokenProvider(srv.URL, 50*time.Millisecond)
	start := time.Now()
	_, err := tp.Token(context.Background())
	if err == nil {
		t.Fatal("want timeout error")
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("client timeout not applied, blocked %s", elapsed)
	}
}

func TestClientCredentials_CachesTokenUntilExpiry(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits++
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"tok-1","token_type":"bearer","expires_in":3600}`))
	}))
	defer srv.Close()

	tp := tokenProvider(srv.URL, 2*time.Second)
	for i := 0; i < 3; i++ {
		tok, err := tp.Token(context.Background())
		if err != nil {
			t.Fatalf("token %d: %v", i, err)
		}
		if tok != "tok-1" {
			t.Fatalf("token %d: %q", i, tok)
		}
	}
	if hits != 1 {
		t.Fatalf("want a single token endpoint hit, got %d", hits)
	}
}

func TestClassifyTokenErr_RetrieveStatuses(t *testing.T) {
	for _, tc := range []struct {
		status int
		class  Class
	}{
		{http.StatusTooManyRequests, RateLimited},
		{http.StatusUnauthorized, Forbidden},
		{http.StatusBadRequest, Forbidden},
	} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(tc.status)
		}))
		tp := tokenProvider(srv.URL, 2*time.Second)
		_, err := tp.Token(context.Background())
		srv.Close()
		if err == nil {
			t.Fatalf("status %d: want error", tc.status)
		}
		if got := ClassOf(err); got != tc.class {
			t.Fatalf("status %d: want %s, got %s", tc.status, tc.class, got)
		}
	}
}
