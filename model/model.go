package model

import (
	"sort"
	"strings"
)

// Stream — запись из ответа Helix /streams, которая нужна боту.
type Stream struct {
	UserLogin string `json:"user_login"`
	UserName  string `json:"user_name"`
	Type      string `json:"type"`
}

// LiveSet — множество логинов в нижнем регистре, которые сейчас в эфире.
type LiveSet map[string]struct{}

// NewLiveSet собирает LiveSet, нормализуя логины.
func NewLiveSet(logins ...string) LiveSet {
	set := make(LiveSet, len(logins))
	for _, login := range logins {
		set.Add(login)
	}
	return set
}

// Normalize приводит логин к виду, в котором он хранится в LiveSet.
func Normalize(login string) string {
	return strings.ToLower(strings.TrimSpace(login))
}

// Add добавляет логин; пустые строки игнорируются.
func (s LiveSet) Add(login string) {
	if login = Normalize(login); login != "" {
		s[login] = struct{}{}
	}
}

// Has проверяет логин без учёта регистра.
func (s LiveSet) Has(login string) bool {
	_, ok := s[Normalize(login)]
	return ok
}

// Empty безопасен и для nil.
func (s LiveSet) Empty() bool {
	return len(s) == 0
}

// Names возвращает отсортированный список логинов для логов.
func (s LiveSet) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// WentLive — переход "никого нет в эфире" → "кто-то в эфире".
func WentLive(previous, current LiveSet) bool {
	return previous.Empty() && !current.Empty()
}
