package tokens

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// SafetyMargin вычитается из времени жизни токена, полученного от сервера.
const SafetyMargin = 60 * time.Second

// AppTokenFetcher запрашивает токен приложения.
type AppTokenFetcher func(ctx context.Context) (accessToken string, expiresIn time.Duration, err error)

// AppTokenManager управляет OAuth токеном приложения.
type AppTokenManager struct {
	store    TokenStore
	getToken AppTokenFetcher
	now      func() time.Time
	mu       sync.Mutex
}

// NewAppTokenManager создает менеджер токенов приложения.
// Если store равен nil, используется MemoryTokenStore.
func NewAppTokenManager(store TokenStore, getToken AppTokenFetcher) *AppTokenManager {
	if store == nil {
		store = &MemoryTokenStore{}
	}
	return &AppTokenManager{
		store:    store,
		getToken: getToken,
		now:      time.Now,
	}
}

// Get возвращает OAuth токен приложения, обновляя его при необходимости.
// Проверка и обновление выполняются под одной блокировкой, поэтому
// параллельные вызовы не делают лишних обменов.
func (manager *AppTokenManager) Get(ctx context.Context) (Token, error) {
	if err := ctx.Err(); err != nil {
		return Token{}, err
	}

	manager.mu.Lock()
	defer manager.mu.Unlock()

	token, err := manager.store.LoadAppToken()
	if err != nil {
		return Token{}, err
	}

	if token != nil && !token.Expired(manager.now()) {
		return *token, nil
	}

	if err := ctx.Err(); err != nil {
		return Token{}, err
	}

	log.Info().Msg("tokens: requesting new twitch app token")
	accessToken, expiresIn, err := manager.getToken(ctx)
	if err != nil {
		return Token{}, err
	}

	newToken := Token{
		Access:    accessToken,
		ExpiresAt: manager.now().Add(expiresIn - SafetyMargin),
	}

	if err := manager.store.SaveAppToken(newToken); err != nil {
		return Token{}, err
	}

	log.Info().Time("expires_at", newToken.ExpiresAt).Msg("tokens: got app token")
	return newToken, nil
}

// Access возвращает только строку токена.
func (manager *AppTokenManager) Access(ctx context.Context) (string, error) {
	token, err := manager.Get(ctx)
	if err != nil {
		return "", err
	}
	return token.Access, nil
}

// Invalidate сбрасывает закешированный токен, например после 401 от Helix.
func (manager *AppTokenManager) Invalidate() {
	manager.mu.Lock()
	defer manager.mu.Unlock()

	if err := manager.store.ClearAppToken(); err != nil {
		log.Warn().Err(err).Msg("tokens: clear app token")
	}
}
