package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"twitch-redeploy-bot/auth"
	"twitch-redeploy-bot/config"
	"twitch-redeploy-bot/logging"
	"twitch-redeploy-bot/tokens"
	"twitch-redeploy-bot/twitch"
)

// twitch-auth проверяет учётные данные приложения и один раз опрашивает стримеров.
func main() {
	if len(os.Args) < 2 || (os.Args[1] != "app" && os.Args[1] != "check") {
		fmt.Fprintln(os.Stderr, "usage: twitch-auth app|check")
		os.Exit(1)
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Warn().Err(err).Msg("could not load .env")
	}
	logging.Setup()

	clientID := strings.TrimSpace(os.Getenv("TWITCH_CLIENT_ID"))
	if clientID == "" {
		log.Fatal().Msg("TWITCH_CLIENT_ID is required")
	}

	clientSecret := strings.TrimSpace(os.Getenv("TWITCH_CLIENT_SECRET"))
	if clientSecret == "" {
		log.Fatal().Msg("TWITCH_CLIENT_SECRET is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	httpClient := &http.Client{Timeout: 10 * time.Second}
	authClient := auth.NewClient(httpClient, os.Getenv("TWITCH_TOKEN_URL"), clientID, clientSecret)
	manager := tokens.NewAppTokenManager(nil, authClient.AppToken)

	token, err := manager.Get(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("get app token")
	}
	fmt.Printf("ok, expires at %s\n", token.ExpiresAt.Format(time.RFC3339))

	if os.Args[1] != "check" {
		return
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}

	helix := twitch.NewClient(httpClient, cfg.Twitch.HelixURL, clientID)
	live, err := helix.LiveStreams(ctx, token.Access, cfg.Twitch.Streamers)
	if err != nil {
		log.Fatal().Err(err).Msg("query streams")
	}
	if live.Empty() {
		fmt.Println("no streamers live")
		return
	}
	fmt.Printf("live now: %s\n", strings.Join(live.Names(), ", "))
}
