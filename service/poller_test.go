package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"twitch-redeploy-bot/apierr"
	"twitch-redeploy-bot/auth"
	"twitch-redeploy-bot/model"
	"twitch-redeploy-bot/redeploy"
	"twitch-redeploy-bot/tokens"
	"twitch-redeploy-bot/twitch"
)

type stubTokens struct {
	err         error
	invalidated int
}

func (s *stubTokens) Access(context.Context) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return "tok", nil
}

func (s *stubTokens) Invalidate() { s.invalidated++ }

// scriptedStreams отдаёт заранее заданные ответы по одному на тик.
type scriptedStreams struct {
	responses []response
	calls     int
}

type response struct {
	live []string
	err  error
}

func (s *scriptedStreams) LiveStreams(_ context.Context, _ string, _ []string) (model.LiveSet, error) {
	r := s.responses[s.calls]
	s.calls++
	if r.err != nil {
		return nil, r.err
	}
	return model.NewLiveSet(r.live...), nil
}

type countingRedeployer struct {
	calls int
	err   error
}

func (c *countingRedeployer) Trigger(context.Context) (redeploy.Outcome, error) {
	c.calls++
	if c.err != nil {
		return redeploy.Outcome{StatusCode: http.StatusBadGateway}, c.err
	}
	return redeploy.Outcome{StatusCode: http.StatusOK, Success: true}, nil
}

func runTicks(t *testing.T, poller *Poller, n int) []error {
	t.Helper()
	errs := make([]error, 0, n)
	for i := 0; i < n; i++ {
		_, err := poller.Tick(context.Background())
		errs = append(errs, err)
	}
	return errs
}

func TestPollerFiresOnlyOnEmptyToNonEmpty(t *testing.T) {
	streams := &scriptedStreams{responses: []response{
		{live: nil},
		{live: []string{"A"}},
		{live: []string{"A", "B"}},
		{live: nil},
		{live: []string{"B"}},
	}}
	redeployer := &countingRedeployer{}
	poller := NewPoller(&stubTokens{}, streams, redeployer, []string{"A", "B"}, time.Minute)

	expected := []int{0, 1, 1, 1, 2}
	for i, want := range expected {
		_, err := poller.Tick(context.Background())
		require.NoError(t, err)
		assert.Equal(t, want, redeployer.calls, "after tick %d", i+1)
	}
}

func TestPollerNeverFiresOnConsecutiveNonEmptyTicks(t *testing.T) {
	streams := &scriptedStreams{responses: []response{
		{live: []string{"a"}},
		{live: []string{"b"}},
		{live: []string{"a", "b"}},
		{live: []string{"a"}},
	}}
	redeployer := &countingRedeployer{}
	poller := NewPoller(&stubTokens{}, streams, redeployer, []string{"a", "b"}, time.Minute)

	runTicks(t, poller, 4)

	assert.Equal(t, 1, redeployer.calls)
}

func TestPollerPreservesStateOnQueryError(t *testing.T) {
	queryErr := apierr.Transport(apierr.OpQuery, errors.New("connection reset"))
	streams := &scriptedStreams{responses: []response{
		{live: []string{"a"}},
		{err: queryErr},
		{live: []string{"a"}},
		{live: nil},
		{err: queryErr},
		{live: []string{"b"}},
	}}
	redeployer := &countingRedeployer{}
	poller := NewPoller(&stubTokens{}, streams, redeployer, []string{"a", "b"}, time.Minute)

	errs := runTicks(t, poller, 6)

	assert.ErrorIs(t, errs[1], queryErr)
	assert.ErrorIs(t, errs[4], queryErr)
	// recovery on tick 3 is compared with tick 1, so no second redeploy;
	// tick 6 is compared with the empty tick 4 and fires.
	assert.Equal(t, 2, redeployer.calls)
	assert.True(t, poller.Previous().Has("b"))
}

func TestPollerAuthErrorIsNoOp(t *testing.T) {
	tokenSource := &stubTokens{err: apierr.Status(apierr.OpAuth, http.StatusBadRequest, "invalid client")}
	streams := &scriptedStreams{}
	redeployer := &countingRedeployer{}
	poller := NewPoller(tokenSource, streams, redeployer, []string{"a"}, time.Minute)

	_, err := poller.Tick(context.Background())

	require.Error(t, err)
	assert.Equal(t, apierr.OpAuth, apierr.OpOf(err))
	assert.Zero(t, streams.calls)
	assert.Zero(t, redeployer.calls)
	assert.True(t, poller.Previous().Empty())
}

func TestPollerInvalidatesTokenOnUnauthorized(t *testing.T) {
	tokenSource := &stubTokens{}
	streams := &scriptedStreams{responses: []response{
		{err: apierr.Status(apierr.OpQuery, http.StatusUnauthorized, "invalid oauth token")},
	}}
	poller := NewPoller(tokenSource, streams, &countingRedeployer{}, []string{"a"}, time.Minute)

	_, err := poller.Tick(context.Background())

	require.Error(t, err)
	assert.Equal(t, 1, tokenSource.invalidated)
}

func TestPollerRedeployFailureDoesNotFailTick(t *testing.T) {
	streams := &scriptedStreams{responses: []response{
		{live: []string{"a"}},
		{live: []string{"a"}},
	}}
	redeployer := &countingRedeployer{err: apierr.Status(apierr.OpRedeploy, http.StatusBadGateway, "")}
	poller := NewPoller(&stubTokens{}, streams, redeployer, []string{"a"}, time.Minute)

	result, err := poller.Tick(context.Background())
	require.NoError(t, err)
	assert.True(t, result.Triggered)
	assert.Error(t, result.RedeployErr)

	result, err = poller.Tick(context.Background())
	require.NoError(t, err)
	assert.False(t, result.Triggered)
	assert.Equal(t, 1, redeployer.calls)
}

// fakeTwitch поднимает token endpoint, Helix и вебхук на одном httptest.Server.
type fakeTwitch struct {
	mu          sync.Mutex
	live        []string
	tokenCalls  atomic.Int32
	streamCalls atomic.Int32
	deployCalls atomic.Int32
}

func (f *fakeTwitch) setLive(logins ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.live = logins
}

func (f *fakeTwitch) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		f.tokenCalls.Add(1)
		_, _ = w.Write([]byte(`{"access_token":"fresh","expires_in":3600}`))
	})
	mux.HandleFunc("/helix/streams", func(w http.ResponseWriter, r *http.Request) {
		f.streamCalls.Add(1)
		assert.Equal(t, "Bearer fresh", r.Header.Get("Authorization"))
		f.mu.Lock()
		defer f.mu.Unlock()
		body := `{"data":[`
		for i, login := range f.live {
			if i > 0 {
				body += ","
			}
			body += `{"user_login":"` + login + `"}`
		}
		body += `]}`
		_, _ = w.Write([]byte(body))
	})
	mux.HandleFunc("/deploy", func(w http.ResponseWriter, r *http.Request) {
		f.deployCalls.Add(1)
		w.WriteHeader(http.StatusOK)
	})
	return mux
}

func TestPollerEndToEndAgainstFakeTwitch(t *testing.T) {
	fake := &fakeTwitch{}
	srv := httptest.NewServer(fake.handler(t))
	defer srv.Close()

	authClient := auth.NewClient(srv.Client(), srv.URL+"/oauth2/token", "id", "secret")
	manager := tokens.NewAppTokenManager(nil, authClient.AppToken)
	helix := twitch.NewClient(srv.Client(), srv.URL+"/helix", "id")
	trigger := redeploy.New(srv.Client(), srv.URL+"/deploy")
	poller := NewPoller(manager, helix, trigger, []string{"GranaDyy", "Shengar"}, time.Minute)

	runTicks(t, poller, 1)
	fake.setLive("GranaDyy")
	result, err := poller.Tick(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"granadyy"}, result.Live.Names())
	fake.setLive("GranaDyy", "Shengar")
	runTicks(t, poller, 1)

	assert.Equal(t, int32(1), fake.tokenCalls.Load())
	assert.Equal(t, int32(3), fake.streamCalls.Load())
	assert.Equal(t, int32(1), fake.deployCalls.Load())
}

func TestPollerRunStopsOnCancel(t *testing.T) {
	var ticks atomic.Int32
	streams := queryFunc(func() (model.LiveSet, error) {
		ticks.Add(1)
		return model.NewLiveSet(), nil
	})
	poller := NewPoller(&stubTokens{}, streams, &countingRedeployer{}, []string{"a"}, 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		poller.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return ticks.Load() >= 3 }, 2*time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("poller did not stop")
	}
}

type queryFunc func() (model.LiveSet, error)

func (f queryFunc) LiveStreams(context.Context, string, []string) (model.LiveSet, error) {
	return f()
}
