package view

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"golang.org/x/term"

	"github.com/Project-Sylos/Harbor/internal/api"
	"github.com/Project-Sylos/Harbor/internal/types"
	"github.com/Project-Sylos/Harbor/internal/upload"
)

// Terminal renders listings as tables and reports upload progress.
// It satisfies the navigation view and the upload reporter.
type Terminal struct {
	mu      sync.Mutex
	out     io.Writer
	baseURL string

	dir  func(a ...any) string
	ok   func(a ...any) string
	warn func(a ...any) string
	bad  func(a ...any) string
	dim  func(a ...any) string
}

// NewTerminal writes to out. Colors are enabled only when out is a terminal.
func NewTerminal(out io.Writer, baseURL string) *Terminal {
	return newTerminal(out, baseURL, isTerminal(out))
}

func newTerminal(out io.Writer, baseURL string, colors bool) *Terminal {
	mk := func(attrs ...color.Attribute) func(a ...any) string {
		c := color.New(attrs...)
		if colors {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
		return c.SprintFunc()
	}
	return &Terminal{
		out:     out,
		baseURL: baseURL,
		dir:     mk(color.FgBlue, color.Bold),
		ok:      mk(color.FgGreen),
		warn:    mk(color.FgYellow),
		bad:     mk(color.FgRed),
		dim:     mk(color.FgHiBlack),
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func (t *Terminal) ShowLoading(folder types.FolderID) {
	t.printf("%s\n", t.dim("loading ", folder.String(), "..."))
}

func (t *Terminal) ShowListing(_ types.FolderID, listing types.Listing) {
	t.mu.Lock()
	defer t.mu.Unlock()

	names := make([]string, 0, len(listing.Breadcrumbs)+1)
	for _, c := range Trail(listing.Breadcrumbs) {
		names = append(names, c.Name)
	}
	fmt.Fprintf(t.out, "%s\n", t.dir(strings.Join(names, " / ")))

	if len(listing.Items) == 0 {
		fmt.Fprintln(t.out, t.dim("(empty folder)"))
		return
	}

	table := tablewriter.NewWriter(t.out)
	table.SetHeader([]string{"ID", "Name", "Size", "Checksum", "Created", "Expires"})
	table.SetBorder(false)
	table.SetAutoWrapText(false)
	for _, r := range Rows(listing.Items, t.baseURL) {
		name := r.Name
		if r.IsDir {
			name = t.dir(r.Name + "/")
		}
		table.Append([]string{string(r.ID), name, r.Size, t.checksum(r.Checksum), r.Created, r.Expires})
	}
	table.Render()
}

func (t *Terminal) checksum(label string) string {
	switch label {
	case "pending":
		return t.warn(label)
	case "error":
		return t.bad(label)
	}
	return label
}

func (t *Terminal) ShowError(folder types.FolderID, err error) {
	t.printf("%s\n", t.bad("could not load ", folder.String(), ": ", api.Message(err)))
}

// Report prints upload progress
func (t *Terminal) Report(e upload.Event) {
	switch e.Kind {
	case upload.EventStarted:
		t.printf("%s %s (%d chunks)\n", t.dim("uploading"), e.Name, e.Chunks)
	case upload.EventChunk:
		t.printf("  %s chunk %d/%d\n", e.Name, e.Chunk+1, e.Chunks)
	case upload.EventDone:
		t.printf("%s %s\n", t.ok("uploaded"), e.Name)
	case upload.EventFailed:
		t.printf("%s\n", t.bad("upload ", e.Name, ": ", api.Message(e.Err)))
	}
}

// Notify prints an informational line
func (t *Terminal) Notify(msg string) {
	t.printf("%s\n", t.ok(msg))
}

// Error prints the user-facing message of err
func (t *Terminal) Error(err error) {
	t.printf("%s\n", t.bad(api.Message(err)))
}

func (t *Terminal) printf(format string, args ...any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintf(t.out, format, args...)
}
