package state

import (
	"errors"
	"testing"

	"github.com/Project-Sylos/Harbor/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFolderWriter_SingleClaim(t *testing.T) {
	app := New()
	assert.Equal(t, types.Root, app.CurrentFolder())

	w, err := app.ClaimFolder()
	require.NoError(t, err)

	_, err = app.ClaimFolder()
	assert.ErrorIs(t, err, ErrAlreadyClaimed)

	prev := w.Set("42")
	assert.Equal(t, types.Root, prev)
	assert.Equal(t, types.FolderID("42"), app.CurrentFolder())
	assert.Equal(t, types.FolderID("42"), w.Get())
}

func TestPolicyWriter(t *testing.T) {
	app := New()

	p, err := app.Policy()
	assert.Nil(t, p)
	assert.NoError(t, err, "nothing loaded yet")

	w, err := app.ClaimPolicy()
	require.NoError(t, err)
	_, err = app.ClaimPolicy()
	assert.ErrorIs(t, err, ErrAlreadyClaimed)

	loadErr := errors.New("unreachable")
	w.Store(nil, loadErr)
	p, err = app.Policy()
	assert.Nil(t, p)
	assert.ErrorIs(t, err, loadErr)

	want := types.UploadPolicy{MaxFilesizeMB: 100, ChunkSizeMB: 5, MaxExpirationMinutes: 1440}
	w.Store(&want, nil)
	p, err = app.Policy()
	require.NoError(t, err)
	assert.Equal(t, want, *p)

	// immutable once stored
	w.Store(&types.UploadPolicy{MaxFilesizeMB: 1}, nil)
	p, _ = app.Policy()
	assert.Equal(t, int64(100), p.MaxFilesizeMB)

	// readers get a copy
	p.MaxFilesizeMB = 9
	p2, _ := app.Policy()
	assert.Equal(t, int64(100), p2.MaxFilesizeMB)
}
