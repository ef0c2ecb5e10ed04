package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFetchJSON_ReturnsBody(t *testing.T) {
	var gotAccept, gotCacheControl string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAccept = r.Header.Get("Accept")
		gotCacheControl = r.Header.Get("Cache-Control")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"id":"S1"}]`))
	}))
	defer srv.Close()

	c := NewClient(2 * time.Second)
	body, err := c.FetchJSON(context.Background(), srv.URL)
	require.NoError(t, err)
	require.JSONEq(t, `[{"id":"S1"}]`, string(body))
	require.Equal(t, "application/json", gotAccept)
	require.Equal(t, "no-cache", gotCacheControl)
}

func TestFetchJSON_NonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "backend exploded", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(2 * time.Second)
	_, err := c.FetchJSON(context.Background(), srv.URL)
	require.Error(t, err)
	require.Contains(t, err.Error(), "status 502")
	require.Contains(t, err.Error(), "backend exploded")
}

func TestFetchJSON_ContextCancellation(t *testing.T) {
	started := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(started)
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
	}()

	c := NewClient(5 * time.Second)
	_, err := c.FetchJSON(ctx, srv.URL)
	require.Error(t, err)
	require.ErrorIs(t, err, context.Canceled)
}

func TestFetchJSON_BadURL(t *testing.T) {
	c := NewClient(time.Second)
	_, err := c.FetchJSON(context.Background(), "http://127.0.0.1:1/nothing-here")
	require.Error(t, err)
}
