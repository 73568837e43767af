package stubserver

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Project-Sylos/Harbor/internal/types"
	"github.com/Project-Sylos/Harbor/internal/utils"
)

func TestComputeChecksum(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want string
	}{
		{name: "empty", data: nil, want: "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"},
		{name: "hello world", data: []byte("hello world"), want: "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ComputeChecksum(tt.data))
		})
	}
}

func TestValidateSeed(t *testing.T) {
	tests := []struct {
		name    string
		cfg     types.SeedConfig
		wantErr bool
	}{
		{name: "empty", cfg: types.SeedConfig{}},
		{name: "valid", cfg: types.SeedConfig{MaxDepth: 2, MinFolders: 1, MaxFolders: 2, MaxFiles: 3, FileBytes: 16}},
		{name: "negative depth", cfg: types.SeedConfig{MaxDepth: -1}, wantErr: true},
		{name: "inverted folders", cfg: types.SeedConfig{MinFolders: 3, MaxFolders: 1}, wantErr: true},
		{name: "inverted files", cfg: types.SeedConfig{MinFiles: 2, MaxFiles: 1}, wantErr: true},
		{name: "negative size", cfg: types.SeedConfig{FileBytes: -1}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSeed(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

// walk flattens the tree into path -> checksum ("" for directories)
func walk(t *testing.T, s *Store, folder types.FolderID, prefix string, out map[string]string) {
	t.Helper()
	listing, err := s.List(folder)
	require.NoError(t, err)
	for _, it := range listing.Items {
		p := utils.JoinPath(prefix, it.Name)
		out[p] = it.Checksum.Checksum
		if it.IsDir() {
			walk(t, s, types.FolderID(it.ID), p, out)
		}
	}
}

func TestSeed_Deterministic(t *testing.T) {
	cfg := types.SeedConfig{Seed: 7, MaxDepth: 2, MinFolders: 1, MaxFolders: 3, MinFiles: 1, MaxFiles: 2, FileBytes: 64}

	first, second := NewStore(DefaultPolicy), NewStore(DefaultPolicy)
	require.NoError(t, Seed(first, cfg))
	require.NoError(t, Seed(second, cfg))

	a, b := map[string]string{}, map[string]string{}
	walk(t, first, types.Root, "", a)
	walk(t, second, types.Root, "", b)

	assert.NotEmpty(t, a)
	assert.Contains(t, a, "/file_1.txt")
	assert.Contains(t, a, "/folder_1")
	if diff := cmp.Diff(a, b); diff != "" {
		t.Errorf("seeded trees differ (-first +second):\n%s", diff)
	}
	assert.Len(t, a["/file_1.txt"], 64, "seeded files are processed")
}

func TestSeed_ZeroDepthIsEmpty(t *testing.T) {
	s := NewStore(DefaultPolicy)
	require.NoError(t, Seed(s, types.SeedConfig{MaxFolders: 2, MaxFiles: 2}))
	listing, err := s.List(types.Root)
	require.NoError(t, err)
	assert.Empty(t, listing.Items)
}
