// Package nav owns the current folder: it keeps the location fragment in
// sync, requests listings and hands complete listings to the view.
package nav

import (
	"context"
	"fmt"
	"sync"

	"github.com/Project-Sylos/Harbor/internal/api"
	"github.com/Project-Sylos/Harbor/internal/logging"
	"github.com/Project-Sylos/Harbor/internal/state"
	"github.com/Project-Sylos/Harbor/internal/types"
)

// Status is the listing state of the controller
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusLoaded
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusLoaded:
		return "loaded"
	case StatusFailed:
		return "failed"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Lister fetches one folder listing
type Lister interface {
	ListItems(ctx context.Context, folder types.FolderID) (*types.Listing, error)
}

// View receives listing updates. Calls are serialized and never carry a
// superseded response. Implementations may read the controller but must
// not navigate from inside a callback.
type View interface {
	ShowLoading(folder types.FolderID)
	ShowListing(folder types.FolderID, listing types.Listing)
	ShowError(folder types.FolderID, err error)
}

// Snapshot is the last state handed to the view
type Snapshot struct {
	Folder  types.FolderID
	Status  Status
	Listing *types.Listing
	Err     error
}

// Controller is the single writer of the current folder.
//
// Every listing request is tagged with the folder it targets and a sequence
// number. A response is applied only when its folder is still current and no
// newer response has been applied.
type Controller struct {
	lister Lister
	loc    Location
	view   View
	folder *state.FolderWriter
	logger logging.Logger

	renderMu sync.Mutex

	mu      sync.Mutex
	issued  uint64
	applied uint64
	snap    Snapshot
}

// New claims the folder slot of app. A nil view discards renders.
func New(lister Lister, app *state.App, loc Location, view View, logger logging.Logger) (*Controller, error) {
	w, err := app.ClaimFolder()
	if err != nil {
		return nil, fmt.Errorf("navigation controller: %w", err)
	}
	if loc == nil {
		loc = NewMemoryLocation("")
	}
	if view == nil {
		view = nopView{}
	}
	return &Controller{
		lister: lister,
		loc:    loc,
		view:   view,
		folder: w,
		logger: logging.OrNop(logger).With("component", "nav"),
		snap:   Snapshot{Folder: w.Get(), Status: StatusIdle},
	}, nil
}

// Navigate makes id the current folder, updates the fragment and loads the
// listing. The folder stays current even when loading fails, so Refresh
// retries the same target. Returns api.ErrStaleResponse when a newer
// request won the race.
func (c *Controller) Navigate(ctx context.Context, id types.FolderID) error {
	c.renderMu.Lock()
	c.mu.Lock()
	c.folder.Set(id)
	c.loc.SetFragment(FormatFragment(id))
	seq := c.begin(id)
	c.mu.Unlock()
	c.view.ShowLoading(id)
	c.renderMu.Unlock()

	c.logger.Debug(ctx, "navigate", "folder", id.String(), "seq", seq)
	return c.load(ctx, id, seq)
}

// RestoreFromLocation navigates to the folder named by the fragment, or to
// the root when the fragment is absent or malformed.
func (c *Controller) RestoreFromLocation(ctx context.Context) error {
	id, ok := ParseFragment(c.loc.Fragment())
	if !ok {
		id = types.Root
	}
	return c.Navigate(ctx, id)
}

// Refresh reloads the current folder without changing it
func (c *Controller) Refresh(ctx context.Context) error {
	c.mu.Lock()
	id := c.folder.Get()
	seq := c.begin(id)
	c.mu.Unlock()

	c.logger.Debug(ctx, "refresh", "folder", id.String(), "seq", seq)
	return c.load(ctx, id, seq)
}

// Current returns the current folder
func (c *Controller) Current() types.FolderID {
	return c.folder.Get()
}

// Status returns the listing state
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snap.Status
}

// Snapshot returns a copy of the last applied state
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.snap
	if s.Listing != nil {
		l := cloneListing(*s.Listing)
		s.Listing = &l
	}
	return s
}

// begin issues a new sequence number. Caller holds c.mu.
func (c *Controller) begin(id types.FolderID) uint64 {
	c.issued++
	if c.snap.Folder != id {
		c.snap = Snapshot{Folder: id}
	}
	c.snap.Status = StatusLoading
	return c.issued
}

func (c *Controller) load(ctx context.Context, id types.FolderID, seq uint64) error {
	listing, err := c.lister.ListItems(ctx, id)

	c.renderMu.Lock()
	defer c.renderMu.Unlock()

	c.mu.Lock()
	current := c.folder.Get()
	if id != current || seq < c.applied {
		c.mu.Unlock()
		c.logger.Debug(ctx, "discarding stale listing",
			"folder", id.String(), "current", current.String(), "seq", seq, "applied", c.applied)
		return api.ErrStaleResponse
	}
	c.applied = seq

	status := StatusLoaded
	if err != nil {
		status = StatusFailed
	}
	if seq < c.issued {
		// a newer request for this folder is still in flight
		status = StatusLoading
	}

	if err != nil {
		c.snap = Snapshot{Folder: id, Status: status, Err: err}
		c.mu.Unlock()
		c.logger.Warn(ctx, "listing failed", "folder", id.String(), "error", err)
		c.view.ShowError(id, err)
		return err
	}

	c.checkTrail(ctx, id, listing.Breadcrumbs)
	stored := cloneListing(*listing)
	c.snap = Snapshot{Folder: id, Status: status, Listing: &stored}
	c.mu.Unlock()

	c.logger.Debug(ctx, "listing applied", "folder", id.String(), "items", len(listing.Items))
	c.view.ShowListing(id, cloneListing(*listing))
	return nil
}

// checkTrail logs when the breadcrumb trail does not end at the folder
func (c *Controller) checkTrail(ctx context.Context, id types.FolderID, trail []types.Breadcrumb) {
	var last types.FolderID
	if n := len(trail); n > 0 {
		last = types.FolderID(trail[n-1].ID)
	}
	if last != id {
		c.logger.Warn(ctx, "breadcrumb trail does not end at current folder",
			"folder", id.String(), "last", last.String())
	}
}

func cloneListing(l types.Listing) types.Listing {
	out := types.Listing{
		Items:       make([]types.Item, len(l.Items)),
		Breadcrumbs: make([]types.Breadcrumb, len(l.Breadcrumbs)),
	}
	copy(out.Items, l.Items)
	copy(out.Breadcrumbs, l.Breadcrumbs)
	return out
}

type nopView struct{}

func (nopView) ShowLoading(types.FolderID)                {}
func (nopView) ShowListing(types.FolderID, types.Listing) {}
func (nopView) ShowError(types.FolderID, error)           {}
