package view

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Project-Sylos/Harbor/internal/api"
	"github.com/Project-Sylos/Harbor/internal/types"
	"github.com/Project-Sylos/Harbor/internal/upload"
)

func TestTerminal_ShowListing(t *testing.T) {
	var buf bytes.Buffer
	term := newTerminal(&buf, "http://x", false)

	term.ShowListing("2", types.Listing{
		Breadcrumbs: []types.Breadcrumb{{ID: "1", Name: "docs"}, {ID: "2", Name: "2024"}},
		Items: []types.Item{
			{ID: "5", Name: "photos", Type: types.ItemTypeDirectory},
			{ID: "6", Name: "notes.txt", Type: types.ItemTypeFile, SizeHuman: "12.0 B",
				Checksum: types.ChecksumStatus{State: types.ChecksumReady, Checksum: "abcdefabcdefabcdef"}},
		},
	})

	out := buf.String()
	assert.Contains(t, out, "Home / docs / 2024")
	assert.Contains(t, out, "photos/")
	assert.Contains(t, out, "notes.txt")
	assert.Contains(t, out, "abcdefabcdef...")
	assert.NotContains(t, out, "\x1b[", "no escapes when colors are off")
}

func TestTerminal_EmptyAndError(t *testing.T) {
	var buf bytes.Buffer
	term := newTerminal(&buf, "", false)

	term.ShowListing(types.Root, types.Listing{})
	assert.Contains(t, buf.String(), "(empty folder)")

	buf.Reset()
	term.ShowError("9", &api.ServerError{Status: 404, Message: "Folder not found"})
	assert.Equal(t, "could not load 9: Folder not found\n", buf.String())
}

func TestTerminal_Report(t *testing.T) {
	var buf bytes.Buffer
	term := newTerminal(&buf, "", false)

	term.Report(upload.Event{Kind: upload.EventStarted, Name: "a.bin", Chunks: 3})
	term.Report(upload.Event{Kind: upload.EventChunk, Name: "a.bin", Chunk: 0, Chunks: 3})
	term.Report(upload.Event{Kind: upload.EventFailed, Name: "a.bin", Err: &api.ServerError{Status: 500}})
	term.Error(errors.New("boom"))

	assert.Equal(t, "uploading a.bin (3 chunks)\n"+
		"  a.bin chunk 1/3\n"+
		"upload a.bin: unknown error\n"+
		"boom\n", buf.String())
}
