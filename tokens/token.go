package tokens

import "time"

// Token описывает OAuth токен приложения.
// ExpiresAt уже учитывает запас SafetyMargin.
type Token struct {
	Access    string
	ExpiresAt time.Time
}

// Expired сообщает, что токен нельзя использовать в момент now.
func (t Token) Expired(now time.Time) bool {
	return t.Access == "" || now.After(t.ExpiresAt)
}

// TokenStore описывает хранилище токенов приложения.
type TokenStore interface {
	LoadAppToken() (*Token, error)
	SaveAppToken(Token) error
	ClearAppToken() error
}
