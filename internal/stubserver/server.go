// Package stubserver is an in-memory implementation of the storage service
// HTTP contract, used by integration tests and for local runs of the client.
package stubserver

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Project-Sylos/Harbor/internal/logging"
	"github.com/Project-Sylos/Harbor/internal/types"
)

// DefaultPolicy is the upload policy served unless WithPolicy overrides it
var DefaultPolicy = types.UploadPolicy{
	MaxFilesizeMB:            100,
	ChunkSizeMB:              5,
	DefaultExpirationMinutes: 60,
	MaxExpirationMinutes:     1440,
}

// Option configures a Server
type Option func(*Server)

// WithPolicy sets the served upload policy
func WithPolicy(p types.UploadPolicy) Option {
	return func(s *Server) { s.policy = p }
}

// WithChecksumDelay delays checksum processing so clients can observe the
// pending state
func WithChecksumDelay(d time.Duration) Option {
	return func(s *Server) { s.checksumDelay = d }
}

// WithLogger sets the logger
func WithLogger(l logging.Logger) Option {
	return func(s *Server) { s.logger = logging.OrNop(l) }
}

// Server represents the stub HTTP server
type Server struct {
	router        *chi.Mux
	store         *Store
	config        types.StubConfig
	policy        types.UploadPolicy
	checksumDelay time.Duration
	logger        logging.Logger

	httpServer *http.Server
	wg         sync.WaitGroup
	done       chan struct{}
	closeOnce  sync.Once
}

// New creates a new stub server
func New(cfg types.StubConfig, opts ...Option) *Server {
	s := &Server{
		config: cfg,
		policy: DefaultPolicy,
		logger: logging.Nop(),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "stubserver")
	s.store = NewStore(s.policy)
	s.router = s.setupRoutes()
	return s
}

// Handler returns the configured router
func (s *Server) Handler() http.Handler {
	return s.router
}

// Store exposes the item tree
func (s *Server) Store() *Store {
	return s.store
}

// Addr is the listen address from the config
func (s *Server) Addr() string {
	return fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
}

// Start listens on Addr and serves until Shutdown
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:         s.Addr(),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	s.logger.Info(context.Background(), "stub server listening", "addr", s.Addr())
	return s.httpServer.ListenAndServe()
}

// Shutdown stops the HTTP server and background checksum work
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	if s.httpServer != nil {
		err = s.httpServer.Shutdown(ctx)
	}
	s.Close()
	return err
}

// Close stops background checksum work and waits for it to exit
func (s *Server) Close() {
	s.closeOnce.Do(func() { close(s.done) })
	s.wg.Wait()
}
