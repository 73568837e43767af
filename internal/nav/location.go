package nav

import (
	"context"
	"errors"
	"io/fs"
	"net/url"
	"os"
	"strings"
	"sync"

	"github.com/Project-Sylos/Harbor/internal/logging"
	"github.com/Project-Sylos/Harbor/internal/types"
	"github.com/Project-Sylos/Harbor/internal/utils"
)

const folderSegment = "folder"

// Location is the address fragment holder, the only persisted client state.
type Location interface {
	Fragment() string
	SetFragment(fragment string)
}

// FormatFragment renders the fragment for id: "#/folder/<id>", or "" at root.
func FormatFragment(id types.FolderID) string {
	if id.IsRoot() {
		return ""
	}
	return "#" + utils.JoinPath(folderSegment, url.PathEscape(string(id)))
}

// ParseFragment extracts a folder id from a fragment. ok is false when the
// fragment does not match the folder pattern, in which case id is the root.
func ParseFragment(fragment string) (id types.FolderID, ok bool) {
	segments := utils.SplitPath(strings.TrimPrefix(fragment, "#"))
	if len(segments) != 2 || segments[0] != folderSegment {
		return types.Root, false
	}
	raw, err := url.PathUnescape(segments[1])
	if err != nil || raw == "" {
		return types.Root, false
	}
	return types.FolderID(raw), true
}

// MemoryLocation keeps the fragment in memory
type MemoryLocation struct {
	mu       sync.Mutex
	fragment string
}

// NewMemoryLocation returns a Location starting at fragment
func NewMemoryLocation(fragment string) *MemoryLocation {
	return &MemoryLocation{fragment: fragment}
}

func (l *MemoryLocation) Fragment() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.fragment
}

func (l *MemoryLocation) SetFragment(fragment string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.fragment = fragment
}

// FileLocation persists the fragment in a file so a later run can resume
// at the same folder. Write failures are logged and otherwise ignored:
// losing the deep link must not break navigation.
type FileLocation struct {
	mu     sync.Mutex
	path   string
	logger logging.Logger
}

// NewFileLocation returns a Location backed by path
func NewFileLocation(path string, logger logging.Logger) *FileLocation {
	return &FileLocation{
		path:   path,
		logger: logging.OrNop(logger).With("component", "location", "path", path),
	}
}

func (l *FileLocation) Fragment() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	data, err := os.ReadFile(l.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			l.logger.Warn(context.Background(), "could not read saved location", "error", err)
		}
		return ""
	}
	return strings.TrimSpace(string(data))
}

func (l *FileLocation) SetFragment(fragment string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if fragment == "" {
		if err := os.Remove(l.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			l.logger.Warn(context.Background(), "could not clear saved location", "error", err)
		}
		return
	}
	if err := os.WriteFile(l.path, []byte(fragment+"\n"), 0o600); err != nil {
		l.logger.Warn(context.Background(), "could not save location", "fragment", fragment, "error", err)
	}
}
