// Package state holds the process-wide client state: the current folder
// and the upload policy.
//
// Each piece of state has exactly one writer. The writer obtains a handle
// by claiming it once; every other component only gets read access. A
// second claim fails, so single ownership holds by construction.
package state

import (
	"errors"
	"sync"

	"github.com/Project-Sylos/Harbor/internal/types"
)

// ErrAlreadyClaimed is returned when a writer handle is claimed twice
var ErrAlreadyClaimed = errors.New("state writer already claimed")

// App is the shared application state passed by reference to each controller
type App struct {
	mu sync.RWMutex

	folder        types.FolderID
	folderClaimed bool

	policy        *types.UploadPolicy
	policyErr     error
	policyClaimed bool
}

// New returns an App positioned at the root with no policy loaded
func New() *App {
	return &App{}
}

// CurrentFolder returns the folder being viewed
func (a *App) CurrentFolder() types.FolderID {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.folder
}

// Policy returns the loaded upload policy, or nil with the load error
// (nil as well while nothing has been loaded yet).
func (a *App) Policy() (*types.UploadPolicy, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.policy == nil {
		return nil, a.policyErr
	}
	p := *a.policy
	return &p, nil
}

// FolderWriter is the single write handle for the current folder
type FolderWriter struct {
	app *App
}

// ClaimFolder hands out the folder writer; only the first call succeeds.
func (a *App) ClaimFolder() (*FolderWriter, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.folderClaimed {
		return nil, ErrAlreadyClaimed
	}
	a.folderClaimed = true
	return &FolderWriter{app: a}, nil
}

// Set changes the current folder and returns the previous one
func (w *FolderWriter) Set(id types.FolderID) types.FolderID {
	w.app.mu.Lock()
	defer w.app.mu.Unlock()
	prev := w.app.folder
	w.app.folder = id
	return prev
}

// Get reads the current folder
func (w *FolderWriter) Get() types.FolderID {
	return w.app.CurrentFolder()
}

// PolicyWriter is the single write handle for the upload policy
type PolicyWriter struct {
	app *App
}

// ClaimPolicy hands out the policy writer; only the first call succeeds.
func (a *App) ClaimPolicy() (*PolicyWriter, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.policyClaimed {
		return nil, ErrAlreadyClaimed
	}
	a.policyClaimed = true
	return &PolicyWriter{app: a}, nil
}

// Store records the outcome of the one-shot policy load. A policy that has
// been stored successfully is immutable: later calls are ignored.
func (w *PolicyWriter) Store(p *types.UploadPolicy, err error) {
	w.app.mu.Lock()
	defer w.app.mu.Unlock()
	if w.app.policy != nil {
		return
	}
	if p != nil && err == nil {
		cp := *p
		w.app.policy = &cp
		w.app.policyErr = nil
		return
	}
	w.app.policyErr = err
}
