package nav

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/Project-Sylos/Harbor/internal/logging"
	"github.com/Project-Sylos/Harbor/internal/types"
	"github.com/stretchr/testify/assert"
)

func TestFormatFragment(t *testing.T) {
	assert.Equal(t, "", FormatFragment(types.Root))
	assert.Equal(t, "#/folder/42", FormatFragment("42"))
	assert.Equal(t, "#/folder/a%2Fb", FormatFragment("a/b"))
}

func TestParseFragment(t *testing.T) {
	tests := []struct {
		fragment string
		want     types.FolderID
		ok       bool
	}{
		{fragment: "#/folder/42", want: "42", ok: true},
		{fragment: "/folder/42", want: "42", ok: true},
		{fragment: "#/folder/a%2Fb", want: "a/b", ok: true},
		{fragment: "", want: types.Root},
		{fragment: "#", want: types.Root},
		{fragment: "#/folder/", want: types.Root},
		{fragment: "#/files/42", want: types.Root},
		{fragment: "#/folder/42/extra", want: types.Root},
		{fragment: "#/folder/%zz", want: types.Root},
	}

	for _, tt := range tests {
		t.Run(tt.fragment, func(t *testing.T) {
			got, ok := ParseFragment(tt.fragment)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.ok, ok)
		})
	}
}

func TestFragmentRoundTrip(t *testing.T) {
	for _, id := range []types.FolderID{"1", "9f1c-uuid", "with space", "x/y"} {
		got, ok := ParseFragment(FormatFragment(id))
		assert.True(t, ok, id)
		assert.Equal(t, id, got)
	}
}

func TestFileLocation(t *testing.T) {
	var logs bytes.Buffer
	loc := NewFileLocation(filepath.Join(t.TempDir(), "location"), logging.New(types.LogConfig{}, &logs))
	assert.Equal(t, "", loc.Fragment())

	loc.SetFragment("#/folder/7")
	assert.Equal(t, "#/folder/7", loc.Fragment())

	again := NewFileLocation(loc.path, nil)
	assert.Equal(t, "#/folder/7", again.Fragment())

	loc.SetFragment("")
	assert.Equal(t, "", loc.Fragment())
	loc.SetFragment("")
	assert.Empty(t, logs.String(), "a missing file is not a failure")
}

func TestFileLocation_WriteFailureIsLogged(t *testing.T) {
	var logs bytes.Buffer
	path := filepath.Join(t.TempDir(), "missing-dir", "location")
	loc := NewFileLocation(path, logging.New(types.LogConfig{}, &logs))

	loc.SetFragment("#/folder/7")
	assert.Equal(t, "", loc.Fragment())
	assert.Contains(t, logs.String(), "could not save location")
	assert.Contains(t, logs.String(), "#/folder/7")
}
