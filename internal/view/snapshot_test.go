package view

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Project-Sylos/Harbor/internal/types"
)

func TestTrail(t *testing.T) {
	got := Trail([]types.Breadcrumb{{ID: "1", Name: "docs"}, {ID: "2", Name: "2024"}})
	want := []Crumb{{ID: types.Root, Name: RootName}, {ID: "1", Name: "docs"}, {ID: "2", Name: "2024"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Trail mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []Crumb{{ID: types.Root, Name: RootName}}, Trail(nil))
}

func TestRenameDefault(t *testing.T) {
	tests := map[string]string{
		"report.pdf":     "report",
		"archive.tar.gz": "archive.tar",
		"README":         "README",
		".bashrc":        ".bashrc",
		"":               "",
	}
	for in, want := range tests {
		assert.Equal(t, want, RenameDefault(in), in)
	}
}

func TestChecksumLabel(t *testing.T) {
	label, full := ChecksumLabel(types.ChecksumStatus{State: types.ChecksumReady, Checksum: "0123456789abcdef0123"})
	assert.Equal(t, "0123456789ab...", label)
	assert.Equal(t, "0123456789abcdef0123", full)

	label, _ = ChecksumLabel(types.ChecksumStatus{State: types.ChecksumPending})
	assert.Equal(t, "pending", label)
	label, _ = ChecksumLabel(types.ChecksumStatus{State: types.ChecksumError})
	assert.Equal(t, "error", label)
	label, full = ChecksumLabel(types.ChecksumStatus{})
	assert.Empty(t, label)
	assert.Empty(t, full)
}

func TestRows(t *testing.T) {
	size := int64(2048)
	expires := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	items := []types.Item{
		{ID: "1", Name: "docs", Type: types.ItemTypeDirectory},
		{ID: "2", Name: "a.txt", Type: types.ItemTypeFile, SizeBytes: &size,
			Checksum: types.ChecksumStatus{State: types.ChecksumReady, Checksum: "ffffffffffffffffff"}},
		{ID: "3", Name: "b.bin", Type: types.ItemTypeFile, SizeHuman: "1.0 MB", ExpiresAt: &expires,
			Checksum: types.ChecksumStatus{State: types.ChecksumPending}},
	}

	rows := Rows(items, "http://files.local/")
	require.Len(t, rows, 3)

	dir := rows[0]
	assert.True(t, dir.IsDir)
	assert.Empty(t, dir.Checksum)
	assert.Empty(t, dir.DownloadURL)
	assert.Equal(t, "never", dir.Expires)

	a := rows[1]
	assert.Equal(t, "2.0 kB", a.Size)
	assert.Equal(t, "ffffffffffff...", a.Checksum)
	assert.Equal(t, "http://files.local/api/download/2", a.DownloadURL)
	assert.Equal(t, "a", a.RenameDefault)

	b := rows[2]
	assert.Equal(t, "1.0 MB", b.Size, "server size_human wins")
	assert.Equal(t, "pending", b.Checksum)
	assert.NotEqual(t, "never", b.Expires)
}
