package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultStreamers     = "GranaDyy,Shengar,jxliano"
	defaultPort          = 5000
	defaultCheckInterval = 3 * time.Minute
	defaultPingInterval  = 5 * time.Minute
	defaultHTTPTimeout   = 10 * time.Second
	defaultTokenURL      = "https://id.twitch.tv/oauth2/token"
	defaultHelixURL      = "https://api.twitch.tv/helix"

	// Helix принимает не больше 100 user_login в одном запросе.
	maxStreamers = 100
)

// Config агрегирует значения конфигурации из переменных окружения.
type Config struct {
	Twitch    TwitchConfig
	Redeploy  RedeployConfig
	KeepAlive KeepAliveConfig
	HTTP      HTTPConfig
}

// TwitchConfig содержит учётные данные приложения и список отслеживаемых стримеров.
type TwitchConfig struct {
	ClientID      string
	ClientSecret  string
	Streamers     []string
	CheckInterval time.Duration
	TokenURL      string
	HelixURL      string
}

// RedeployConfig задаёт вебхук, который дергается при выходе стримера в эфир.
type RedeployConfig struct {
	URL string
}

// KeepAliveConfig задаёт адреса для самопинга. Пустой список выключает пингер.
type KeepAliveConfig struct {
	URLs     []string
	Interval time.Duration
}

// Enabled сообщает, настроен ли хотя бы один адрес для пинга.
func (k KeepAliveConfig) Enabled() bool {
	return len(k.URLs) > 0
}

// HTTPConfig хранит порт health-сервера и таймаут исходящих запросов.
type HTTPConfig struct {
	Port    int
	Timeout time.Duration
}

// Addr собирает адрес для net/http.Server.
func (h HTTPConfig) Addr() string {
	return fmt.Sprintf("0.0.0.0:%d", h.Port)
}

// Load читает переменные окружения и возвращает валидированную Config.
func Load() (Config, error) {
	streamers := os.Getenv("TWITCH_STREAMERS")
	if strings.TrimSpace(streamers) == "" {
		streamers = defaultStreamers
	}

	cfg := Config{
		Twitch: TwitchConfig{
			ClientID:     setting("TWITCH_CLIENT_ID"),
			ClientSecret: setting("TWITCH_CLIENT_SECRET"),
			Streamers:    splitAndTrim(streamers),
			TokenURL:     settingOr("TWITCH_TOKEN_URL", defaultTokenURL),
			HelixURL:     strings.TrimRight(settingOr("TWITCH_HELIX_URL", defaultHelixURL), "/"),
		},
		Redeploy: RedeployConfig{
			URL: setting("REDEPLOY_URL"),
		},
		KeepAlive: KeepAliveConfig{
			URLs: nonEmpty(setting("LINK"), setting("LINKTWO")),
		},
		HTTP: HTTPConfig{
			Port: defaultPort,
		},
	}

	var err error
	if cfg.Twitch.CheckInterval, err = durationEnv("CHECK_INTERVAL", defaultCheckInterval); err != nil {
		return Config{}, err
	}
	if cfg.KeepAlive.Interval, err = durationEnv("PING_INTERVAL", defaultPingInterval); err != nil {
		return Config{}, err
	}
	if cfg.HTTP.Timeout, err = durationEnv("HTTP_TIMEOUT", defaultHTTPTimeout); err != nil {
		return Config{}, err
	}
	if raw := setting("PORT"); raw != "" {
		if cfg.HTTP.Port, err = strconv.Atoi(raw); err != nil {
			return Config{}, fmt.Errorf("PORT: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) validate() error {
	if c.Twitch.ClientID == "" {
		return fmt.Errorf("требуется TWITCH_CLIENT_ID")
	}
	if c.Twitch.ClientSecret == "" {
		return fmt.Errorf("требуется TWITCH_CLIENT_SECRET")
	}
	if len(c.Twitch.Streamers) == 0 {
		return fmt.Errorf("требуется хотя бы один стример в TWITCH_STREAMERS")
	}
	if len(c.Twitch.Streamers) > maxStreamers {
		return fmt.Errorf("TWITCH_STREAMERS: не больше %d стримеров, получено %d", maxStreamers, len(c.Twitch.Streamers))
	}
	if c.Redeploy.URL == "" {
		return fmt.Errorf("требуется REDEPLOY_URL")
	}

	if c.Twitch.CheckInterval <= 0 {
		return fmt.Errorf("CHECK_INTERVAL должен быть больше нуля")
	}
	if c.KeepAlive.Interval <= 0 {
		return fmt.Errorf("PING_INTERVAL должен быть больше нуля")
	}
	if c.HTTP.Timeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT должен быть больше нуля")
	}
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("PORT вне диапазона: %d", c.HTTP.Port)
	}

	return nil
}

// setting возвращает значение переменной, считая шаблоны вида "<your_...>" незаданными.
func setting(key string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if strings.HasPrefix(v, "<") {
		return ""
	}
	return v
}

func settingOr(key, fallback string) string {
	if v := setting(key); v != "" {
		return v
	}
	return fallback
}

// durationEnv принимает как "90s"/"3m", так и голое число секунд.
func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	raw := setting(key)
	if raw == "" {
		return fallback, nil
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func nonEmpty(values ...string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(p), "#"))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
