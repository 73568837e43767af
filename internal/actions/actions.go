// Package actions executes create-directory, rename and delete intents.
//
// Each action is one request. Names are checked before anything is sent,
// nothing is retried, and a success refreshes the current folder.
package actions

import (
	"context"
	"errors"
	"strings"

	"github.com/Project-Sylos/Harbor/internal/api"
	"github.com/Project-Sylos/Harbor/internal/api/models"
	"github.com/Project-Sylos/Harbor/internal/logging"
	"github.com/Project-Sylos/Harbor/internal/types"
)

// Service is the subset of the storage API the actions use
type Service interface {
	CreateDirectory(ctx context.Context, req *models.CreateDirectoryRequest) (*types.Item, error)
	Rename(ctx context.Context, id types.ItemID, name string) (*types.Item, error)
	Delete(ctx context.Context, id types.ItemID) error
}

// Refresher reloads whatever folder is current
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Dispatcher runs item actions
type Dispatcher struct {
	svc       Service
	refresher Refresher
	logger    logging.Logger
}

// New creates a Dispatcher
func New(svc Service, refresher Refresher, logger logging.Logger) *Dispatcher {
	return &Dispatcher{
		svc:       svc,
		refresher: refresher,
		logger:    logging.OrNop(logger).With("component", "actions"),
	}
}

// CreateDirectory creates name under parent
func (d *Dispatcher) CreateDirectory(ctx context.Context, name string, parent types.FolderID) (*types.Item, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, &api.ValidationError{Field: "name", Reason: "directory name must not be empty"}
	}

	item, err := d.svc.CreateDirectory(ctx, models.NewCreateDirectoryRequest(name, parent))
	if err != nil {
		d.logger.Warn(ctx, "create directory failed", "name", name, "parent", parent.String(), "error", err)
		return nil, err
	}
	d.logger.Info(ctx, "directory created", "name", name, "parent", parent.String())
	d.refresh(ctx)
	return item, nil
}

// Rename gives item id the name newName
func (d *Dispatcher) Rename(ctx context.Context, id types.ItemID, newName string) (*types.Item, error) {
	if id == "" {
		return nil, &api.ValidationError{Field: "id", Reason: "no item selected"}
	}
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return nil, &api.ValidationError{Field: "name", Reason: "new name must not be empty"}
	}

	item, err := d.svc.Rename(ctx, id, newName)
	if err != nil {
		d.logger.Warn(ctx, "rename failed", "id", id, "name", newName, "error", err)
		return nil, err
	}
	d.logger.Info(ctx, "item renamed", "id", id, "name", newName)
	d.refresh(ctx)
	return item, nil
}

// Delete removes item id. There is no undo.
func (d *Dispatcher) Delete(ctx context.Context, id types.ItemID) error {
	if id == "" {
		return &api.ValidationError{Field: "id", Reason: "no item selected"}
	}
	if err := d.svc.Delete(ctx, id); err != nil {
		d.logger.Warn(ctx, "delete failed", "id", id, "error", err)
		return err
	}
	d.logger.Info(ctx, "item deleted", "id", id)
	d.refresh(ctx)
	return nil
}

// refresh reloads the current folder. A failed reload is shown by the
// navigation view and does not undo the action.
func (d *Dispatcher) refresh(ctx context.Context) {
	if d.refresher == nil {
		return
	}
	if err := d.refresher.Refresh(ctx); err != nil && !errors.Is(err, api.ErrStaleResponse) {
		d.logger.Warn(ctx, "refresh after action failed", "error", err)
	}
}
