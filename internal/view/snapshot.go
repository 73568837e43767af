// Package view turns listings into display rows and renders them to a terminal.
package view

import (
	"strings"
	"time"

	"github.com/Project-Sylos/Harbor/internal/api"
	"github.com/Project-Sylos/Harbor/internal/types"
	"github.com/Project-Sylos/Harbor/internal/utils"
)

// RootName labels the synthetic root crumb
const RootName = "Home"

// checksumPrefix is how many checksum characters a row shows
const checksumPrefix = 12

// Crumb is one entry of the displayed trail
type Crumb struct {
	ID   types.FolderID
	Name string
}

// Trail prepends the synthetic root to the server breadcrumbs
func Trail(breadcrumbs []types.Breadcrumb) []Crumb {
	trail := make([]Crumb, 0, len(breadcrumbs)+1)
	trail = append(trail, Crumb{ID: types.Root, Name: RootName})
	for _, b := range breadcrumbs {
		trail = append(trail, Crumb{ID: types.FolderID(b.ID), Name: b.Name})
	}
	return trail
}

// Row is one display line of a listing
type Row struct {
	ID            types.ItemID
	Name          string
	IsDir         bool
	Size          string
	Checksum      string
	FullChecksum  string
	Created       string
	Expires       string
	DownloadURL   string
	RenameDefault string
}

// Rows builds display rows. baseURL prefixes the download links.
func Rows(items []types.Item, baseURL string) []Row {
	rows := make([]Row, 0, len(items))
	for _, it := range items {
		row := Row{
			ID:            it.ID,
			Name:          it.Name,
			IsDir:         it.IsDir(),
			Created:       formatTime(it.CreatedAt),
			Expires:       "never",
			RenameDefault: RenameDefault(it.Name),
		}
		if it.ExpiresAt != nil {
			row.Expires = formatTime(*it.ExpiresAt)
		}
		if !row.IsDir {
			row.Size = it.SizeHuman
			if row.Size == "" && it.SizeBytes != nil {
				row.Size = utils.HumanSize(*it.SizeBytes)
			}
			row.Checksum, row.FullChecksum = ChecksumLabel(it.Checksum)
			row.DownloadURL = strings.TrimRight(baseURL, "/") + api.DownloadPath(it.ID)
		}
		rows = append(rows, row)
	}
	return rows
}

// ChecksumLabel returns the short label and the full checksum of a status
func ChecksumLabel(s types.ChecksumStatus) (label, full string) {
	switch s.State {
	case types.ChecksumPending:
		return "pending", ""
	case types.ChecksumError:
		return "error", ""
	case types.ChecksumReady:
		if len(s.Checksum) <= checksumPrefix {
			return s.Checksum, s.Checksum
		}
		return s.Checksum[:checksumPrefix] + "...", s.Checksum
	}
	return "", ""
}

// RenameDefault is the name offered when renaming: the name without its
// last extension, or the whole name when it has none or starts with the
// only dot.
func RenameDefault(name string) string {
	if i := strings.LastIndexByte(name, '.'); i > 0 {
		return name[:i]
	}
	return name
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format("2006-01-02 15:04")
}
