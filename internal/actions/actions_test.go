package actions

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Project-Sylos/Harbor/internal/api"
	"github.com/Project-Sylos/Harbor/internal/api/models"
	"github.com/Project-Sylos/Harbor/internal/nav"
	"github.com/Project-Sylos/Harbor/internal/state"
	"github.com/Project-Sylos/Harbor/internal/types"
)

type call struct {
	Op     string
	ID     types.ItemID
	Name   string
	Parent *types.ItemID
}

type fakeService struct {
	calls []call
	err   error
}

func (f *fakeService) CreateDirectory(_ context.Context, req *models.CreateDirectoryRequest) (*types.Item, error) {
	f.calls = append(f.calls, call{Op: "mkdir", Name: req.Name, Parent: req.ParentID})
	if f.err != nil {
		return nil, f.err
	}
	return &types.Item{ID: "new", Name: req.Name, Type: types.ItemTypeDirectory}, nil
}

func (f *fakeService) Rename(_ context.Context, id types.ItemID, name string) (*types.Item, error) {
	f.calls = append(f.calls, call{Op: "rename", ID: id, Name: name})
	if f.err != nil {
		return nil, f.err
	}
	return &types.Item{ID: id, Name: name}, nil
}

func (f *fakeService) Delete(_ context.Context, id types.ItemID) error {
	f.calls = append(f.calls, call{Op: "delete", ID: id})
	return f.err
}

type recordingLister struct {
	mu     sync.Mutex
	listed []types.FolderID
}

func (l *recordingLister) ListItems(_ context.Context, folder types.FolderID) (*types.Listing, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.listed = append(l.listed, folder)
	return &types.Listing{Items: []types.Item{}}, nil
}

func newNav(t *testing.T, at types.FolderID) (*nav.Controller, *recordingLister) {
	t.Helper()
	lister := &recordingLister{}
	c, err := nav.New(lister, state.New(), nil, nil, nil)
	require.NoError(t, err)
	require.NoError(t, c.Navigate(context.Background(), at))
	lister.listed = nil
	return c, lister
}

func TestRename_EmptyNameSendsNothing(t *testing.T) {
	svc := &fakeService{}
	navc, lister := newNav(t, "Y")
	d := New(svc, navc, nil)

	for _, name := range []string{"", "   "} {
		_, err := d.Rename(context.Background(), "report.pdf", name)
		require.Error(t, err)
		assert.True(t, api.IsValidation(err))
	}
	assert.Empty(t, svc.calls, "no request for an empty name")
	assert.Empty(t, lister.listed, "no refresh either")
}

func TestCreateDirectory_EmptyNameSendsNothing(t *testing.T) {
	svc := &fakeService{}
	d := New(svc, nil, nil)
	_, err := d.CreateDirectory(context.Background(), " ", types.Root)
	assert.True(t, api.IsValidation(err))
	assert.Empty(t, svc.calls)
}

func TestDelete_RefreshesCurrentFolderNotTarget(t *testing.T) {
	svc := &fakeService{}
	navc, lister := newNav(t, "Y")
	d := New(svc, navc, nil)

	require.NoError(t, d.Delete(context.Background(), "X"))
	assert.Equal(t, []call{{Op: "delete", ID: "X"}}, svc.calls)
	assert.Equal(t, []types.FolderID{"Y"}, lister.listed)
	assert.Equal(t, types.FolderID("Y"), navc.Current())
}

func TestCreateDirectory(t *testing.T) {
	svc := &fakeService{}
	navc, lister := newNav(t, "7")
	d := New(svc, navc, nil)

	item, err := d.CreateDirectory(context.Background(), "  reports ", navc.Current())
	require.NoError(t, err)
	assert.Equal(t, "reports", item.Name)

	require.Len(t, svc.calls, 1)
	assert.Equal(t, "reports", svc.calls[0].Name)
	require.NotNil(t, svc.calls[0].Parent)
	assert.Equal(t, types.ItemID("7"), *svc.calls[0].Parent)
	assert.Equal(t, []types.FolderID{"7"}, lister.listed)
}

func TestRename(t *testing.T) {
	svc := &fakeService{}
	navc, lister := newNav(t, types.Root)
	d := New(svc, navc, nil)

	item, err := d.Rename(context.Background(), "5", "summary.pdf")
	require.NoError(t, err)
	assert.Equal(t, "summary.pdf", item.Name)
	assert.Equal(t, []types.FolderID{types.Root}, lister.listed)
}

func TestServerErrorsSurfaceVerbatim(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "structured", err: &api.ServerError{Status: 409, Message: "A folder named reports already exists"},
			want: "A folder named reports already exists"},
		{name: "no message", err: &api.ServerError{Status: 500}, want: api.UnknownErrorMessage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeService{err: tt.err}
			navc, lister := newNav(t, "1")
			d := New(svc, navc, nil)

			_, err := d.CreateDirectory(context.Background(), "reports", "1")
			assert.Equal(t, tt.want, api.Message(err))
			_, err = d.Rename(context.Background(), "2", "x")
			assert.Equal(t, tt.want, api.Message(err))
			err = d.Delete(context.Background(), "2")
			assert.Equal(t, tt.want, api.Message(err))

			assert.Len(t, svc.calls, 3, "no automatic retry")
			assert.Empty(t, lister.listed, "no refresh on failure")
		})
	}
}

func TestMissingID(t *testing.T) {
	svc := &fakeService{}
	d := New(svc, nil, nil)
	assert.True(t, api.IsValidation(d.Delete(context.Background(), "")))
	_, err := d.Rename(context.Background(), "", "x")
	assert.True(t, api.IsValidation(err))
	assert.Empty(t, svc.calls)
}
