// Package sdk is the public entry point to the Harbor client: it wires the
// policy fetcher, navigation, item actions and uploads into one Session.
package sdk

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Project-Sylos/Harbor/internal/actions"
	"github.com/Project-Sylos/Harbor/internal/api"
	"github.com/Project-Sylos/Harbor/internal/config"
	"github.com/Project-Sylos/Harbor/internal/dispatch"
	"github.com/Project-Sylos/Harbor/internal/logging"
	"github.com/Project-Sylos/Harbor/internal/nav"
	"github.com/Project-Sylos/Harbor/internal/policy"
	"github.com/Project-Sylos/Harbor/internal/state"
	"github.com/Project-Sylos/Harbor/internal/types"
	"github.com/Project-Sylos/Harbor/internal/upload"
	"github.com/Project-Sylos/Harbor/internal/view"
)

// Option configures Open
type Option func(*options)

type options struct {
	location   nav.Location
	view       nav.View
	reporter   upload.Reporter
	logger     logging.Logger
	httpClient *http.Client
	registerer prometheus.Registerer
}

// WithLocation sets where the current folder fragment is kept
func WithLocation(l Location) Option {
	return func(o *options) { o.location = l }
}

// WithView receives listing updates
func WithView(v View) Option {
	return func(o *options) { o.view = v }
}

// WithReporter receives upload progress events
func WithReporter(r upload.Reporter) Option {
	return func(o *options) { o.reporter = r }
}

// WithLogger sets the logger
func WithLogger(l logging.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithHTTPClient replaces the HTTP client built from the config
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// WithMetrics registers upload metrics with reg
func WithMetrics(reg prometheus.Registerer) Option {
	return func(o *options) { o.registerer = reg }
}

// Session is one running client
type Session struct {
	cfg        types.Config
	app        *state.App
	svc        *api.Service
	nav        *nav.Controller
	actions    *actions.Dispatcher
	uploads    *upload.Orchestrator
	uploadErr  error
	dispatcher *dispatch.Dispatcher
	logger     logging.Logger
}

// Open loads the upload policy, restores the location and returns a ready
// Session. A failed policy load only disables uploads; a failed initial
// listing is left to the view. Open fails only on an invalid config.
func Open(ctx context.Context, cfg types.Config, opts ...Option) (*Session, error) {
	if err := config.Validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	logger := logging.OrNop(o.logger)
	hc := o.httpClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Server.Timeout.Std()}
	}

	s := &Session{
		cfg:    cfg,
		app:    state.New(),
		svc:    api.NewService(cfg.Server.BaseURL, hc),
		logger: logger,
	}

	fetcher, err := policy.NewFetcher(s.svc, s.app, logger)
	if err != nil {
		return nil, err
	}
	s.nav, err = nav.New(s.svc, s.app, o.location, o.view, logger)
	if err != nil {
		return nil, err
	}
	s.actions = actions.New(s.svc, s.nav, logger)

	if _, err := fetcher.Load(ctx); err != nil {
		logger.Warn(ctx, "uploads disabled", "error", err)
	}

	uploadOpts := []upload.Option{
		upload.WithConcurrency(cfg.Upload.Concurrency),
		upload.WithSettleDelay(cfg.Upload.SettleDelay.Std()),
		upload.WithMaxAttempts(cfg.Upload.MaxChunkAttempts),
		upload.WithRetryInterval(cfg.Upload.RetryInitialInterval.Std()),
		upload.WithLogger(logger),
	}
	if o.reporter != nil {
		uploadOpts = append(uploadOpts, upload.WithReporter(o.reporter))
	}
	if o.registerer != nil {
		uploadOpts = append(uploadOpts, upload.WithMetrics(upload.MustNewMetrics(o.registerer)))
	}

	dispatchOpts := []dispatch.Option{dispatch.WithLogger(logger)}
	// New fails with ErrNoPolicy when the load above did
	s.uploads, s.uploadErr = upload.New(s.svc, s.app, s.nav, uploadOpts...)
	if s.uploadErr != nil {
		dispatchOpts = append(dispatchOpts, dispatch.WithUploadError(s.uploadErr))
	} else {
		dispatchOpts = append(dispatchOpts, dispatch.WithUploads(s.uploads))
	}
	s.dispatcher = dispatch.New(s.nav, s.actions, dispatchOpts...)

	if err := s.nav.RestoreFromLocation(ctx); err != nil && !errors.Is(err, api.ErrStaleResponse) {
		logger.Warn(ctx, "initial listing failed", "error", err)
	}
	return s, nil
}

// Dispatch runs one user intent
func (s *Session) Dispatch(ctx context.Context, in Intent) (Result, error) {
	return s.dispatcher.Dispatch(ctx, in)
}

// Navigator returns the navigation controller
func (s *Session) Navigator() *nav.Controller { return s.nav }

// Actions returns the item action dispatcher
func (s *Session) Actions() *actions.Dispatcher { return s.actions }

// Uploads returns the orchestrator, or the reason uploads are disabled
func (s *Session) Uploads() (*upload.Orchestrator, error) {
	if s.uploads == nil {
		return nil, s.uploadErr
	}
	return s.uploads, nil
}

// Policy returns the loaded upload policy
func (s *Session) Policy() (*UploadPolicy, error) {
	p, err := s.app.Policy()
	if p == nil && err == nil {
		err = policy.ErrPolicyUnavailable
	}
	return p, err
}

// Config returns the session configuration
func (s *Session) Config() Config { return s.cfg }

// Parent returns the folder above the current one, or the root
func (s *Session) Parent() FolderID {
	snap := s.nav.Snapshot()
	if snap.Listing == nil {
		return Root
	}
	crumbs := snap.Listing.Breadcrumbs
	if len(crumbs) < 2 {
		return Root
	}
	return FolderID(crumbs[len(crumbs)-2].ID)
}

// Prompt renders the current trail as a path, e.g. "/docs/2024"
func (s *Session) Prompt() string {
	snap := s.nav.Snapshot()
	if snap.Listing == nil {
		if snap.Folder.IsRoot() {
			return "/"
		}
		return "/?" + string(snap.Folder)
	}
	trail := view.Trail(snap.Listing.Breadcrumbs)
	names := make([]string, 0, len(trail))
	for _, c := range trail[1:] {
		names = append(names, c.Name)
	}
	return "/" + strings.Join(names, "/")
}

// Close stops pending post-upload refreshes
func (s *Session) Close() error {
	if s.uploads != nil {
		s.uploads.Close()
	}
	return nil
}

// Re-export types for convenience
type (
	Config       = types.Config
	Item         = types.Item
	Listing      = types.Listing
	Breadcrumb   = types.Breadcrumb
	FolderID     = types.FolderID
	ItemID       = types.ItemID
	UploadPolicy = types.UploadPolicy
	Intent       = dispatch.Intent
	Result       = dispatch.Result
	Expiration   = dispatch.Expiration
	File         = upload.File
	Event        = upload.Event
	Location     = nav.Location
	View         = nav.View
)

// Re-export constants
const (
	Root = types.Root

	KindNavigate        = dispatch.KindNavigate
	KindRefresh         = dispatch.KindRefresh
	KindCreateDirectory = dispatch.KindCreateDirectory
	KindRename          = dispatch.KindRename
	KindDelete          = dispatch.KindDelete
	KindUpload          = dispatch.KindUpload

	UnitMinutes = upload.UnitMinutes
	UnitHours   = upload.UnitHours
	UnitDays    = upload.UnitDays
)

// DefaultConfig returns the built-in configuration
func DefaultConfig() Config { return config.DefaultConfig() }

// LoadConfig reads a JSON or YAML config file over the defaults
func LoadConfig(path string) (*Config, error) { return config.LoadFromFile(path) }

// BytesFile wraps an in-memory payload for upload
func BytesFile(name string, data []byte) File { return upload.BytesFile(name, data) }
