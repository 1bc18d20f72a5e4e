package service

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
)

// Loop — фоновый цикл, который живёт до отмены контекста.
type Loop interface {
	Run(ctx context.Context)
}

// Listener — HTTP-сервер, который может упасть сам.
type Listener interface {
	Run(ctx context.Context) error
}

// Service управляет жизненным циклом поллера, пингера и health-сервера.
type Service struct {
	poller Loop
	pinger Loop
	health Listener
}

// New создаёт Service; pinger может быть nil.
func New(poller Loop, pinger Loop, health Listener) *Service {
	return &Service{poller: poller, pinger: pinger, health: health}
}

// Run запускает все компоненты и блокируется до отмены контекста или падения
// health-сервера. В последнем случае остальные циклы тоже останавливаются.
func (s *Service) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	start := func(name string, loop Loop) {
		if loop == nil {
			return
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			loop.Run(ctx)
			log.Debug().Str("loop", name).Msg("service: loop finished")
		}()
	}

	start("poller", s.poller)
	start("keepalive", s.pinger)

	err := s.health.Run(ctx)
	if err != nil {
		log.Error().Err(err).Msg("service: health server failed")
	}

	cancel()
	wg.Wait()

	if err != nil {
		return err
	}
	return ctx.Err()
}
