package api

import (
	"context"
	"crypto/tls"
	"errors"
	"net"
	"net/http"
	"time"

	"code.cloudfoundry.org/tlsconfig"

	bosherr "github.com/cloudfoundry/bosh-multidigest/errors"
	boshlog "github.com/cloudfoundry/bosh-multidigest/logger"
)

const serverLogTag = "apiServer"

const shutdownTimeout = 5 * time.Second

type TLSFiles struct {
	CertPath string
	KeyPath  string
	CAPath   string
}

type Server struct {
	addr     string
	handler  http.Handler
	tlsFiles TLSFiles
	logger   boshlog.Logger

	listener net.Listener
}

func NewServer(addr string, handler http.Handler, tlsFiles TLSFiles, logger boshlog.Logger) *Server {
	return &Server{
		addr:     addr,
		handler:  handler,
		tlsFiles: tlsFiles,
		logger:   logger,
	}
}

// Listen binds the address. With a CA configured, clients must present a
// certificate signed by it.
func (s *Server) Listen() (net.Addr, error) {
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return nil, bosherr.WrapErrorf(err, "Listening on '%s'", s.addr)
	}

	if s.tlsFiles.CertPath != "" {
		tlsConfig, err := s.serverTLSConfig()
		if err != nil {
			_ = listener.Close()
			return nil, err
		}

		listener = tls.NewListener(listener, tlsConfig)
	}

	s.listener = listener
	s.logger.Info(serverLogTag, "Listening on '%s'", listener.Addr())

	return listener.Addr(), nil
}

// Serve blocks until ctx is done and the in-flight requests drained.
func (s *Server) Serve(ctx context.Context) error {
	if s.listener == nil {
		return bosherr.Error("Serving before listening")
	}

	httpServer := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.Serve(s.listener)
	}()

	select {
	case err := <-errCh:
		return bosherr.WrapError(err, "Serving requests")
	case <-ctx.Done():
	}

	s.logger.Info(serverLogTag, "Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err := httpServer.Shutdown(shutdownCtx)
	if err != nil {
		return bosherr.WrapError(err, "Shutting down server")
	}

	err = <-errCh
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return bosherr.WrapError(err, "Serving requests")
	}

	return nil
}

func (s *Server) serverTLSConfig() (*tls.Config, error) {
	serverOpts := []tlsconfig.ServerOption{}
	if s.tlsFiles.CAPath != "" {
		serverOpts = append(serverOpts, tlsconfig.WithClientAuthenticationFromFile(s.tlsFiles.CAPath))
	}

	tlsConfig, err := tlsconfig.Build(
		tlsconfig.WithInternalServiceDefaults(),
		tlsconfig.WithIdentityFromFile(s.tlsFiles.CertPath, s.tlsFiles.KeyPath),
	).Server(serverOpts...)
	if err != nil {
		return nil, bosherr.WrapError(err, "Building server TLS config")
	}

	return tlsConfig, nil
}
