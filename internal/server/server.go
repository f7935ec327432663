// package server hosts the temporary localhost HTTP server used during
// authentication.
//
// When the user starts the login flow, a server binds the configured redirect
// address, serves exactly one OAuth callback, and shuts down once the token
// exchange has resolved.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spindleapp/spindle/internal/shared"
)

const shutdownTimeout = 5 * time.Second

// CallbackServer is a single-purpose HTTP server for the OAuth redirect.
type CallbackServer struct {
	server *http.Server
	logger *log.Logger
}

// NewCallbackServer builds a server listening on redirectURI's host and
// port, routing its path to handler.
func NewCallbackServer(redirectURI string, handler *OAuthHandler, logger *log.Logger) (*CallbackServer, error) {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	parsed, err := url.Parse(redirectURI)
	if err != nil {
		return nil, err
	}
	path := parsed.Path
	if path == "" {
		path = "/"
	}

	mux := http.NewServeMux()
	mux.Handle(path, handler)

	return &CallbackServer{
		server: &http.Server{Addr: parsed.Host, Handler: mux},
		logger: logger,
	}, nil
}

// Start begins serving in a background goroutine. Bind failures are
// reported on the returned channel.
func (s *CallbackServer) Start() <-chan error {
	errs := make(chan error, 1)
	listener, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		errs <- err
		return errs
	}
	s.logger.Debugf("callback server listening on %s", s.server.Addr)

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- err
		}
	}()
	return errs
}

// Stop shuts the server down gracefully.
func (s *CallbackServer) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.server.Shutdown(ctx); err != nil {
		s.logger.Warnf("callback server shutdown: %v", err)
	}
}
