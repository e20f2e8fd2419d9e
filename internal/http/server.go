// README: API gateway; holds handler dependencies and the HTTP server lifecycle.
package http

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"homeserve/internal/http/handlers"
	"homeserve/internal/infra"
)

type ServerDeps struct {
	Booking  handlers.BookingService
	Location handlers.LocationService
	Verifier infra.TokenVerifier
}

type Server struct {
	booking  handlers.BookingService
	location handlers.LocationService
	verifier infra.TokenVerifier
}

func NewServer(deps ServerDeps) *Server {
	return &Server{
		booking:  deps.Booking,
		location: deps.Location,
		verifier: deps.Verifier,
	}
}

// ListenAndServe serves until ctx is cancelled, then drains in-flight
// requests for up to ten seconds.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Printf("[http] listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
