package http

import (
	"context"
	"net/http"
	"time"

	"github.com/dropDatabas3/hellolti/internal/observability/logger"
)

// Server envuelve el http.Server con apagado ordenado.
type Server struct {
	inner *http.Server
}

// NewServer crea el servidor sobre el handler dado.
func NewServer(addr string, handler http.Handler) *Server {
	return &Server{
		inner: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Start sirve hasta que el contexto se cancele, luego apaga con gracia.
func (s *Server) Start(ctx context.Context) error {
	log := logger.Named("http.server")
	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", logger.String("addr", s.inner.Addr))
		errCh <- s.inner.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	log.Info("shutting down")
	return s.inner.Shutdown(shutdownCtx)
}
