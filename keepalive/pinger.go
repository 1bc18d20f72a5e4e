// Package keepalive периодически пингует внешние адреса, чтобы хостинг не усыплял процесс.
package keepalive

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"twitch-redeploy-bot/apierr"
)

// Result — исход пинга одного адреса.
type Result struct {
	URL        string
	StatusCode int
	Err        error
}

// Pinger не хранит состояния между раундами.
type Pinger struct {
	http     *http.Client
	urls     []string
	interval time.Duration
}

// New создаёт Pinger. Без адресов он ничего не делает.
func New(httpClient *http.Client, urls []string, interval time.Duration) *Pinger {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Pinger{http: httpClient, urls: urls, interval: interval}
}

// Enabled сообщает, есть ли что пинговать.
func (p *Pinger) Enabled() bool {
	return len(p.urls) > 0
}

// Run пингует все адреса сразу и затем раз в interval до отмены контекста.
func (p *Pinger) Run(ctx context.Context) {
	if !p.Enabled() {
		log.Info().Msg("keepalive: no LINK set, skipping keep-alive pings")
		return
	}

	log.Info().Strs("urls", p.urls).Dur("interval", p.interval).Msg("keepalive: pinging started")

	for {
		p.PingAll(ctx)

		select {
		case <-ctx.Done():
			return
		case <-time.After(p.interval):
		}
	}
}

// PingAll пингует каждый адрес по очереди; сбой одного не мешает остальным.
func (p *Pinger) PingAll(ctx context.Context) []Result {
	results := make([]Result, 0, len(p.urls))
	for _, url := range p.urls {
		status, err := p.ping(ctx, url)
		if err != nil {
			log.Warn().Err(err).Str("url", url).Msg("keepalive: ping failed")
		} else {
			log.Info().Str("url", url).Int("status", status).Msg("keepalive: pinged")
		}
		results = append(results, Result{URL: url, StatusCode: status, Err: err})
	}
	return results
}

// ping считает любой HTTP-ответ успехом: важен сам факт запроса.
func (p *Pinger) ping(ctx context.Context, url string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, apierr.Transport(apierr.OpPing, fmt.Errorf("create request: %w", err))
	}

	resp, err := p.http.Do(req)
	if err != nil {
		return 0, apierr.Transport(apierr.OpPing, fmt.Errorf("request failed: %w", err))
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	return resp.StatusCode, nil
}
