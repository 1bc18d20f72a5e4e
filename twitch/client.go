package twitch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"twitch-redeploy-bot/apierr"
	"twitch-redeploy-bot/model"
)

// DefaultHelixURL — базовый адрес Helix API.
const DefaultHelixURL = "https://api.twitch.tv/helix"

// Client обращается к Helix /streams от имени приложения.
type Client struct {
	http     *http.Client
	baseURL  string
	clientID string
}

// NewClient создаёт Helix-клиент; пустой baseURL заменяется на DefaultHelixURL.
func NewClient(httpClient *http.Client, baseURL, clientID string) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultHelixURL
	}
	return &Client{
		http:     httpClient,
		baseURL:  strings.TrimRight(baseURL, "/"),
		clientID: strings.TrimSpace(clientID),
	}
}

type streamsResponse struct {
	Data *[]model.Stream `json:"data"`
}

// LiveStreams одним запросом спрашивает статус всех логинов и возвращает тех,
// кто в эфире. Логины, о которых не спрашивали, отбрасываются.
// Ошибки возвращаются как *apierr.Error с Op == apierr.OpQuery.
func (c *Client) LiveStreams(ctx context.Context, accessToken string, logins []string) (model.LiveSet, error) {
	live := model.NewLiveSet()
	if len(logins) == 0 {
		return live, nil
	}

	query := url.Values{}
	for _, login := range logins {
		query.Add("user_login", normalizeChannel(login))
	}
	query.Set("first", "100")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/streams?"+query.Encode(), nil)
	if err != nil {
		return nil, apierr.Transport(apierr.OpQuery, fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Client-ID", c.clientID)
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, apierr.Transport(apierr.OpQuery, fmt.Errorf("request failed: %w", err))
	}
	defer resp.Body.Close()

	if !apierr.IsSuccess(resp.StatusCode) {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, apierr.Status(apierr.OpQuery, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var payload streamsResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, apierr.Decode(apierr.OpQuery, fmt.Errorf("decode response: %w", err))
	}
	if payload.Data == nil {
		return nil, apierr.Decode(apierr.OpQuery, fmt.Errorf("response has no data array"))
	}

	wanted := model.NewLiveSet(logins...)
	for _, stream := range *payload.Data {
		if wanted.Has(stream.UserLogin) {
			live.Add(stream.UserLogin)
		}
	}

	return live, nil
}

func normalizeChannel(ch string) string {
	return model.Normalize(strings.TrimPrefix(strings.TrimSpace(ch), "#"))
}
