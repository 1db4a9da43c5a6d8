// Package httpapi exposes the blocklist engine as a JSON HTTP API.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/alharis/haris/internal/haris/common/log"
)

// Path pattern constants.
const (
	PathHealthz        = "/healthz"
	PathReadyz         = "/readyz"
	PathCategories     = "/v1/categories"
	PathStatus         = "/v1/status"
	PathRefresh        = "/v1/refresh"
	PathAccounts       = "/v1/accounts"
	PathSettings       = "/v1/accounts/{id}/settings"
	PathAccountCats    = "/v1/accounts/{id}/categories"
	PathBlockURL       = "/v1/accounts/{id}/block-url"
	PathAllowURL       = "/v1/accounts/{id}/allow-url"
	PathCheck          = "/v1/accounts/{id}/check"
	PathChildren       = "/v1/accounts/{id}/children"
	PathChildBlocklist = "/v1/children/{id}/blocklist"
)

// Config configures a Server.
type Config struct {
	Addr      string
	Service   Service
	Refresher Refresher // optional; enables POST /v1/refresh
	Logger    log.Logger
}

// Server is the HTTP front of the engine.
type Server struct {
	http   *http.Server
	svc    Service
	refr   Refresher
	logger log.Logger
}

// New returns a Server with every route registered.
func New(c Config) *Server {
	if c.Logger == nil {
		c.Logger = log.NewNoopLogger()
	}
	s := &Server{svc: c.Service, refr: c.Refresher, logger: c.Logger}
	s.http = &http.Server{
		Addr:              c.Addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.http.Handler }

// Start listens on the configured address and serves in the background.
// A listen failure is returned; later serve errors are logged.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.http.Addr)
	if err != nil {
		return fmt.Errorf("httpapi: listening on %s: %w", s.http.Addr, err)
	}
	s.logger.Info(map[string]any{"addr": ln.Addr().String()}, "http api listening")
	go func() {
		if err := s.http.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error(map[string]any{"error": err}, "http api stopped")
		}
	}()
	return nil
}

// Shutdown stops the server, waiting for in-flight requests until ctx ends.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.http.Shutdown(ctx); err != nil {
		return fmt.Errorf("httpapi: shutdown: %w", err)
	}
	s.logger.Info(nil, "http api shut down")
	return nil
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(http.MethodGet+" "+PathHealthz, s.handleHealthz)
	mux.HandleFunc(http.MethodGet+" "+PathReadyz, s.handleReadyz)
	mux.HandleFunc(http.MethodGet+" "+PathCategories, s.handleCategories)
	mux.HandleFunc(http.MethodGet+" "+PathStatus, s.handleStatus)
	mux.HandleFunc(http.MethodPost+" "+PathRefresh, s.handleRefresh)
	mux.HandleFunc(http.MethodPost+" "+PathAccounts, s.handleCreateAccount)
	mux.HandleFunc(http.MethodGet+" "+PathSettings, s.handleSettings)
	mux.HandleFunc(http.MethodPut+" "+PathAccountCats, s.handleUpdateCategories)
	mux.HandleFunc(http.MethodPost+" "+PathBlockURL, s.handleBlockURL)
	mux.HandleFunc(http.MethodPost+" "+PathAllowURL, s.handleAllowURL)
	mux.HandleFunc(http.MethodGet+" "+PathCheck, s.handleCheck)
	mux.HandleFunc(http.MethodPost+" "+PathChildren, s.handleCreateChild)
	mux.HandleFunc(http.MethodGet+" "+PathChildren, s.handleListChildren)
	mux.HandleFunc(http.MethodGet+" "+PathChildBlocklist, s.handleChildFeed)
	return s.middleware(mux)
}

// middleware logs every request with its status and recovers panics.
func (s *Server) middleware(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &codeRecorderResponseWriter{ResponseWriter: w, code: http.StatusOK}
		defer func() {
			if v := recover(); v != nil {
				s.logger.Error(map[string]any{"path": r.URL.Path, "panic": fmt.Sprint(v)}, "http handler panic")
				writeError(rw, http.StatusInternalServerError, "internal error")
			}
			s.logger.Debug(map[string]any{
				"method":   r.Method,
				"path":     r.URL.Path,
				"code":     rw.code,
				"duration": time.Since(start).String(),
			}, "http request")
		}()
		h.ServeHTTP(rw, r)
	})
}

// codeRecorderResponseWriter remembers the response code for logging.
type codeRecorderResponseWriter struct {
	http.ResponseWriter
	code int
}

func (w *codeRecorderResponseWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}
