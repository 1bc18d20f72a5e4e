package service

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"twitch-redeploy-bot/apierr"
	"twitch-redeploy-bot/model"
	"twitch-redeploy-bot/redeploy"
)

// TokenSource выдаёт действующий токен приложения.
type TokenSource interface {
	Access(ctx context.Context) (string, error)
	Invalidate()
}

// StreamQuerier узнаёт, кто из логинов сейчас в эфире.
type StreamQuerier interface {
	LiveStreams(ctx context.Context, accessToken string, logins []string) (model.LiveSet, error)
}

// Redeployer дергает вебхук передеплоя.
type Redeployer interface {
	Trigger(ctx context.Context) (redeploy.Outcome, error)
}

// TickResult описывает один успешный проход опроса.
type TickResult struct {
	Live        model.LiveSet
	Triggered   bool
	RedeployErr error
}

// Poller раз в interval проверяет стримеров и передеплоивает сервис,
// когда кто-то из них выходит в эфир после того, как в эфире не было никого.
//
// Ошибка тика не меняет сохранённый LiveSet: следующий тик сравнивается
// с последним успешно полученным состоянием.
type Poller struct {
	tokens    TokenSource
	streams   StreamQuerier
	redeploy  Redeployer
	streamers []string
	interval  time.Duration

	previous model.LiveSet
}

// NewPoller собирает Poller. streamers копируется и дальше не меняется.
func NewPoller(tokens TokenSource, streams StreamQuerier, redeployer Redeployer, streamers []string, interval time.Duration) *Poller {
	return &Poller{
		tokens:    tokens,
		streams:   streams,
		redeploy:  redeployer,
		streamers: append([]string(nil), streamers...),
		interval:  interval,
		previous:  model.NewLiveSet(),
	}
}

// Run опрашивает до отмены контекста. Ошибки тиков только логируются.
func (p *Poller) Run(ctx context.Context) {
	log.Info().Strs("streamers", p.streamers).Dur("interval", p.interval).Msg("poller: twitch auto-redeploy monitor started")

	for {
		if _, err := p.Tick(ctx); err != nil && ctx.Err() == nil {
			log.Error().Err(err).Str("op", string(apierr.OpOf(err))).Str("kind", apierr.KindOf(err).String()).Msg("poller: error checking streams")
		}

		select {
		case <-ctx.Done():
			log.Info().Msg("poller: stopped")
			return
		case <-time.After(p.interval):
		}
	}
}

// Tick выполняет один проход: токен, запрос статуса, проверка перехода,
// при необходимости передеплой. Ошибка передеплоя не считается ошибкой тика.
func (p *Poller) Tick(ctx context.Context) (TickResult, error) {
	token, err := p.tokens.Access(ctx)
	if err != nil {
		return TickResult{}, err
	}

	current, err := p.streams.LiveStreams(ctx, token, p.streamers)
	if err != nil {
		if apierr.IsUnauthorized(err) {
			p.tokens.Invalidate()
		}
		return TickResult{}, err
	}

	result := TickResult{Live: current}

	if current.Empty() {
		log.Info().Msg("poller: no streamers live")
	} else {
		log.Info().Str("live", strings.Join(current.Names(), ", ")).Msg("poller: streamers live now")
	}

	if model.WentLive(p.previous, current) {
		result.Triggered = true
		_, result.RedeployErr = p.redeploy.Trigger(ctx)
	}

	p.previous = current
	return result, nil
}

// Previous возвращает LiveSet последнего успешного тика.
func (p *Poller) Previous() model.LiveSet {
	return p.previous
}
