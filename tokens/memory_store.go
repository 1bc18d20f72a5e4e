package tokens

import "sync"

// MemoryTokenStore хранит единственный токен в памяти процесса.
type MemoryTokenStore struct {
	mu    sync.RWMutex
	token *Token
}

// LoadAppToken возвращает копию сохранённого токена или nil, если его ещё нет.
func (store *MemoryTokenStore) LoadAppToken() (*Token, error) {
	store.mu.RLock()
	defer store.mu.RUnlock()

	if store.token == nil {
		return nil, nil
	}
	token := *store.token
	return &token, nil
}

// SaveAppToken целиком заменяет сохранённый токен.
func (store *MemoryTokenStore) SaveAppToken(token Token) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	store.token = &token
	return nil
}

// ClearAppToken забывает токен.
func (store *MemoryTokenStore) ClearAppToken() error {
	store.mu.Lock()
	defer store.mu.Unlock()

	store.token = nil
	return nil
}
