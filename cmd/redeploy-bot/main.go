package main

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"twitch-redeploy-bot/auth"
	"twitch-redeploy-bot/config"
	"twitch-redeploy-bot/health"
	"twitch-redeploy-bot/keepalive"
	"twitch-redeploy-bot/logging"
	"twitch-redeploy-bot/redeploy"
	"twitch-redeploy-bot/service"
	"twitch-redeploy-bot/tokens"
	"twitch-redeploy-bot/twitch"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Warn().Err(err).Msg("could not load .env")
	}
	logging.Setup()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	httpClient := &http.Client{Timeout: cfg.HTTP.Timeout}

	authClient := auth.NewClient(httpClient, cfg.Twitch.TokenURL, cfg.Twitch.ClientID, cfg.Twitch.ClientSecret)
	manager := tokens.NewAppTokenManager(&tokens.MemoryTokenStore{}, authClient.AppToken)
	helix := twitch.NewClient(httpClient, cfg.Twitch.HelixURL, cfg.Twitch.ClientID)
	trigger := redeploy.New(httpClient, cfg.Redeploy.URL)

	poller := service.NewPoller(manager, helix, trigger, cfg.Twitch.Streamers, cfg.Twitch.CheckInterval)
	pinger := keepalive.New(httpClient, cfg.KeepAlive.URLs, cfg.KeepAlive.Interval)
	srv := service.New(poller, pinger, health.NewServer(cfg.HTTP.Addr()))

	if err := srv.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal().Err(err).Msg("service run failed")
	}

	log.Info().Msg("shutting down...")
}
