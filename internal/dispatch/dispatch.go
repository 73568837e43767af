// Package dispatch maps user intents to the controller that handles them.
package dispatch

import (
	"context"
	"errors"
	"fmt"

	"github.com/Project-Sylos/Harbor/internal/api"
	"github.com/Project-Sylos/Harbor/internal/logging"
	"github.com/Project-Sylos/Harbor/internal/types"
	"github.com/Project-Sylos/Harbor/internal/upload"
)

// ErrUnknownIntent is returned for an intent kind with no handler
var ErrUnknownIntent = errors.New("unknown intent")

// Kind enumerates user intents
type Kind int

const (
	KindNavigate Kind = iota
	KindRefresh
	KindCreateDirectory
	KindRename
	KindDelete
	KindUpload
)

func (k Kind) String() string {
	switch k {
	case KindNavigate:
		return "navigate"
	case KindRefresh:
		return "refresh"
	case KindCreateDirectory:
		return "create-directory"
	case KindRename:
		return "rename"
	case KindDelete:
		return "delete"
	case KindUpload:
		return "upload"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Expiration is a user-entered lifetime
type Expiration struct {
	Value float64
	Unit  upload.Unit
}

// Intent is one user request. Fields not used by Kind are ignored.
type Intent struct {
	Kind Kind

	// Folder is the navigation target
	Folder types.FolderID
	Item   types.ItemID
	Name   string
	Files  []upload.File

	// Expiration of uploaded files; nil uses the policy default
	Expiration *Expiration
}

// Result carries what a handler produced
type Result struct {
	Item     *types.Item
	Summary  *upload.Summary
	Rejected []*upload.Rejection
}

// Handler runs one intent
type Handler func(ctx context.Context, in Intent) (Result, error)

// Navigator is the navigation controller
type Navigator interface {
	Navigate(ctx context.Context, id types.FolderID) error
	Refresh(ctx context.Context) error
	Current() types.FolderID
}

// ItemActions runs create, rename and delete
type ItemActions interface {
	CreateDirectory(ctx context.Context, name string, parent types.FolderID) (*types.Item, error)
	Rename(ctx context.Context, id types.ItemID, newName string) (*types.Item, error)
	Delete(ctx context.Context, id types.ItemID) error
}

// Uploads is the upload orchestrator
type Uploads interface {
	Policy() types.UploadPolicy
	Enqueue(files []upload.File, expirationMinutes int64) ([]*upload.Task, []*upload.Rejection)
	Process(ctx context.Context) (upload.Summary, error)
}

// Option configures a Dispatcher
type Option func(*Dispatcher)

// WithUploads enables upload intents
func WithUploads(u Uploads) Option {
	return func(d *Dispatcher) { d.uploads = u }
}

// WithUploadError records why uploads are disabled
func WithUploadError(err error) Option {
	return func(d *Dispatcher) { d.uploadErr = err }
}

// WithLogger sets the logger
func WithLogger(l logging.Logger) Option {
	return func(d *Dispatcher) { d.logger = logging.OrNop(l) }
}

// Dispatcher routes intents through its handler table
type Dispatcher struct {
	nav       Navigator
	actions   ItemActions
	uploads   Uploads
	uploadErr error
	logger    logging.Logger
	handlers  map[Kind]Handler
}

// New builds the dispatch table
func New(nav Navigator, actions ItemActions, opts ...Option) *Dispatcher {
	d := &Dispatcher{nav: nav, actions: actions, logger: logging.Nop()}
	for _, opt := range opts {
		opt(d)
	}
	d.logger = d.logger.With("component", "dispatch")
	d.handlers = map[Kind]Handler{
		KindNavigate:        d.navigate,
		KindRefresh:         d.refresh,
		KindCreateDirectory: d.createDirectory,
		KindRename:          d.rename,
		KindDelete:          d.delete,
		KindUpload:          d.upload,
	}
	return d
}

// Dispatch runs in. A superseded navigation is not an error for the caller.
func (d *Dispatcher) Dispatch(ctx context.Context, in Intent) (Result, error) {
	h, ok := d.handlers[in.Kind]
	if !ok {
		return Result{}, fmt.Errorf("%w: %s", ErrUnknownIntent, in.Kind)
	}
	d.logger.Debug(ctx, "dispatch", "intent", in.Kind.String())
	res, err := h(ctx, in)
	if errors.Is(err, api.ErrStaleResponse) {
		return res, nil
	}
	return res, err
}

func (d *Dispatcher) navigate(ctx context.Context, in Intent) (Result, error) {
	return Result{}, d.nav.Navigate(ctx, in.Folder)
}

func (d *Dispatcher) refresh(ctx context.Context, _ Intent) (Result, error) {
	return Result{}, d.nav.Refresh(ctx)
}

func (d *Dispatcher) createDirectory(ctx context.Context, in Intent) (Result, error) {
	item, err := d.actions.CreateDirectory(ctx, in.Name, d.nav.Current())
	return Result{Item: item}, err
}

func (d *Dispatcher) rename(ctx context.Context, in Intent) (Result, error) {
	item, err := d.actions.Rename(ctx, in.Item, in.Name)
	return Result{Item: item}, err
}

func (d *Dispatcher) delete(ctx context.Context, in Intent) (Result, error) {
	return Result{}, d.actions.Delete(ctx, in.Item)
}

func (d *Dispatcher) upload(ctx context.Context, in Intent) (Result, error) {
	if d.uploads == nil {
		if d.uploadErr != nil {
			return Result{}, d.uploadErr
		}
		return Result{}, upload.ErrNoPolicy
	}

	minutes := d.uploads.Policy().DefaultExpirationMinutes
	if in.Expiration != nil {
		var err error
		minutes, err = upload.ComputeExpirationMinutes(in.Expiration.Value, in.Expiration.Unit)
		if err != nil {
			return Result{}, err
		}
	}

	_, rejected := d.uploads.Enqueue(in.Files, minutes)
	summary, err := d.uploads.Process(ctx)
	return Result{Summary: &summary, Rejected: rejected}, err
}
