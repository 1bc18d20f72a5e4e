// Package health отвечает хостингу, что процесс жив.
package health

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
)

// Message — тело ответа на GET /.
const Message = "Twitch Auto-Redeploy Bot is running!"

const shutdownTimeout = 5 * time.Second

// NewRouter регистрирует единственный маршрут GET /.
func NewRouter() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/", HandleHome).Methods(http.MethodGet, http.MethodHead)
	return r
}

// HandleHome отдаёт статичную строку со статусом 200.
func HandleHome(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, Message)
}

// Server — обёртка над http.Server с остановкой по контексту.
type Server struct {
	srv *http.Server
}

// NewServer создаёт сервер на addr.
func NewServer(addr string) *Server {
	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           NewRouter(),
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// Run слушает addr до отмены контекста; ошибка возвращается только если
// сервер упал сам.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		log.Info().Str("addr", s.srv.Addr).Msg("health: listening")
		errCh <- s.srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("health: shutdown")
		}
		<-errCh
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
