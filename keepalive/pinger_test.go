package keepalive

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"twitch-redeploy-bot/apierr"
)

func TestPingAllContinuesAfterFailure(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Equal(t, http.MethodGet, r.Method)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	dead := httptest.NewServer(http.NotFoundHandler())
	deadURL := dead.URL
	dead.Close()

	pinger := New(nil, []string{deadURL, srv.URL}, time.Minute)
	results := pinger.PingAll(context.Background())

	require.Len(t, results, 2)
	assert.Equal(t, apierr.OpPing, apierr.OpOf(results[0].Err))
	assert.NoError(t, results[1].Err)
	assert.Equal(t, http.StatusServiceUnavailable, results[1].StatusCode)
	assert.Equal(t, int32(1), hits.Load())
}

func TestRunIsInertWithoutURLs(t *testing.T) {
	pinger := New(nil, nil, time.Millisecond)
	assert.False(t, pinger.Enabled())

	done := make(chan struct{})
	go func() {
		pinger.Run(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("inert pinger must return immediately")
	}
}

func TestRunPingsUntilCancelled(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		New(srv.Client(), []string{srv.URL}, 10*time.Millisecond).Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return hits.Load() >= 3 }, 2*time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("pinger did not stop after cancel")
	}
}
