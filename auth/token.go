package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"twitch-redeploy-bot/apierr"
)

// DefaultTokenURL — эндпоинт client-credentials у Twitch.
const DefaultTokenURL = "https://id.twitch.tv/oauth2/token"

// Client обменивает client_id/client_secret на OAuth токен приложения.
type Client struct {
	HTTP         *http.Client
	TokenURL     string
	ClientID     string
	ClientSecret string
}

// NewClient создаёт Client; пустой tokenURL заменяется на DefaultTokenURL.
func NewClient(httpClient *http.Client, tokenURL, clientID, clientSecret string) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if strings.TrimSpace(tokenURL) == "" {
		tokenURL = DefaultTokenURL
	}
	return &Client{
		HTTP:         httpClient,
		TokenURL:     tokenURL,
		ClientID:     strings.TrimSpace(clientID),
		ClientSecret: strings.TrimSpace(clientSecret),
	}
}

// AppToken запрашивает OAuth токен приложения у Twitch.
// Любая ошибка возвращается как *apierr.Error с Op == apierr.OpAuth.
func (c *Client) AppToken(ctx context.Context) (accessToken string, expiresIn time.Duration, err error) {
	form := url.Values{}
	form.Set("client_id", c.ClientID)
	form.Set("client_secret", c.ClientSecret)
	form.Set("grant_type", "client_credentials")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", 0, apierr.Transport(apierr.OpAuth, fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return "", 0, apierr.Transport(apierr.OpAuth, fmt.Errorf("request failed: %w", err))
	}
	defer resp.Body.Close()

	if !apierr.IsSuccess(resp.StatusCode) {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", 0, apierr.Status(apierr.OpAuth, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var payload struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   *int64 `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", 0, apierr.Decode(apierr.OpAuth, fmt.Errorf("decode response: %w", err))
	}
	if payload.AccessToken == "" {
		return "", 0, apierr.Decode(apierr.OpAuth, errors.New("response has no access_token"))
	}
	if payload.ExpiresIn == nil {
		return "", 0, apierr.Decode(apierr.OpAuth, errors.New("response has no expires_in"))
	}

	return payload.AccessToken, time.Duration(*payload.ExpiresIn) * time.Second, nil
}
