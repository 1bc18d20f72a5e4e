// Package redeploy дергает вебхук передеплоя хостинга.
package redeploy

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"twitch-redeploy-bot/apierr"
)

// Outcome — результат одного вызова вебхука.
type Outcome struct {
	StatusCode int
	Success    bool
}

// Trigger отправляет POST на вебхук передеплоя. Повторов внутри вызова нет.
type Trigger struct {
	http *http.Client
	url  string
}

// New создаёт Trigger для заданного URL.
func New(httpClient *http.Client, url string) *Trigger {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Trigger{http: httpClient, url: url}
}

// Trigger выполняет один вызов вебхука. Неуспех логируется как предупреждение
// и возвращается как *apierr.Error с Op == apierr.OpRedeploy; паники нет.
func (t *Trigger) Trigger(ctx context.Context) (Outcome, error) {
	log.Info().Msg("redeploy: triggering redeploy")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, nil)
	if err != nil {
		return t.fail(Outcome{}, apierr.Transport(apierr.OpRedeploy, fmt.Errorf("create request: %w", err)))
	}

	resp, err := t.http.Do(req)
	if err != nil {
		return t.fail(Outcome{}, apierr.Transport(apierr.OpRedeploy, fmt.Errorf("request failed: %w", err)))
	}
	defer resp.Body.Close()

	outcome := Outcome{StatusCode: resp.StatusCode}
	if !apierr.IsSuccess(resp.StatusCode) {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return t.fail(outcome, apierr.Status(apierr.OpRedeploy, resp.StatusCode, strings.TrimSpace(string(body))))
	}
	_, _ = io.Copy(io.Discard, resp.Body)

	outcome.Success = true
	log.Info().Int("status", resp.StatusCode).Msg("redeploy: successfully triggered redeploy")
	return outcome, nil
}

func (t *Trigger) fail(outcome Outcome, err error) (Outcome, error) {
	log.Warn().Err(err).Int("status", outcome.StatusCode).Msg("redeploy: failed")
	return outcome, err
}
