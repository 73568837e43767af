package policy

import (
	"context"
	"errors"
	"testing"

	"github.com/Project-Sylos/Harbor/internal/state"
	"github.com/Project-Sylos/Harbor/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	policy *types.UploadPolicy
	err    error
	calls  int
}

func (f *fakeSource) PublicConfig(context.Context) (*types.UploadPolicy, error) {
	f.calls++
	return f.policy, f.err
}

func TestLoad(t *testing.T) {
	good := &types.UploadPolicy{MaxFilesizeMB: 100, ChunkSizeMB: 5, DefaultExpirationMinutes: 60, MaxExpirationMinutes: 1440}

	tests := []struct {
		name    string
		src     *fakeSource
		wantErr bool
	}{
		{name: "ok", src: &fakeSource{policy: good}},
		{name: "transport failure", src: &fakeSource{err: errors.New("connection refused")}, wantErr: true},
		{name: "zero chunk size", src: &fakeSource{policy: &types.UploadPolicy{MaxFilesizeMB: 100, MaxExpirationMinutes: 10}}, wantErr: true},
		{name: "zero max size", src: &fakeSource{policy: &types.UploadPolicy{ChunkSizeMB: 5, MaxExpirationMinutes: 10}}, wantErr: true},
		{name: "default above max", src: &fakeSource{policy: &types.UploadPolicy{
			MaxFilesizeMB: 1, ChunkSizeMB: 1, DefaultExpirationMinutes: 20, MaxExpirationMinutes: 10}}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := state.New()
			f, err := NewFetcher(tt.src, app, nil)
			require.NoError(t, err)

			p, err := f.Load(context.Background())
			stored, storedErr := app.Policy()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrPolicyUnavailable)
				assert.Nil(t, p)
				assert.Nil(t, stored, "no defaults are guessed")
				assert.ErrorIs(t, storedErr, ErrPolicyUnavailable)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, *good, *p)
			require.NotNil(t, stored)
			assert.Equal(t, *good, *stored)
		})
	}
}

func TestNewFetcher_SingleWriter(t *testing.T) {
	app := state.New()
	_, err := NewFetcher(&fakeSource{}, app, nil)
	require.NoError(t, err)

	_, err = NewFetcher(&fakeSource{}, app, nil)
	assert.ErrorIs(t, err, state.ErrAlreadyClaimed)
}
