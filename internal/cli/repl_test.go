package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Project-Sylos/Harbor/internal/api"
	"github.com/Project-Sylos/Harbor/internal/dispatch"
	"github.com/Project-Sylos/Harbor/internal/types"
	"github.com/Project-Sylos/Harbor/internal/upload"
)

type stubShell struct {
	intents []dispatch.Intent
	result  dispatch.Result
	err     error
}

func (s *stubShell) Dispatch(_ context.Context, in dispatch.Intent) (dispatch.Result, error) {
	s.intents = append(s.intents, in)
	return s.result, s.err
}

func (s *stubShell) Parent() types.FolderID { return "parent" }
func (s *stubShell) Prompt() string         { return "/docs" }

func captureOutput(t *testing.T) *[]string {
	t.Helper()
	var lines []string
	orig := printlnFn
	printlnFn = func(a ...any) (int, error) {
		lines = append(lines, strings.TrimSuffix(fmt.Sprintln(a...), "\n"))
		return 0, nil
	}
	t.Cleanup(func() { printlnFn = orig })
	return &lines
}

func TestRun_DispatchesAndKeepsGoing(t *testing.T) {
	out := captureOutput(t)
	sh := &stubShell{err: &api.ServerError{Status: 409, Message: "name taken"}}

	Run(context.Background(), sh, strings.NewReader("mkdir a\n\ncd ..\nbogus\nexit\nls\n"))

	require.Len(t, sh.intents, 2, "commands after exit are not read")
	assert.Equal(t, dispatch.KindCreateDirectory, sh.intents[0].Kind)
	assert.Equal(t, dispatch.Intent{Kind: dispatch.KindNavigate, Folder: "parent"}, sh.intents[1])

	assert.Contains(t, *out, "harbor:/docs> ")
	assert.Contains(t, *out, "name taken")
	assert.Contains(t, *out, "unknown command: bogus")
	assert.Equal(t, "Bye!", (*out)[len(*out)-1])
}

func TestRun_Help(t *testing.T) {
	out := captureOutput(t)
	sh := &stubShell{}
	Run(context.Background(), sh, strings.NewReader("help\n"))
	assert.Empty(t, sh.intents)
	assert.Contains(t, strings.Join(*out, "\n"), "put [-e 1d]")
}

func TestExecute_Upload(t *testing.T) {
	out := captureOutput(t)
	origOpen := openFileFn
	t.Cleanup(func() { openFileFn = origOpen })
	openFileFn = func(path string) (upload.File, io.Closer, error) {
		if path == "missing.txt" {
			return upload.File{}, nil, errors.New("no such file")
		}
		return upload.BytesFile(path, []byte("data")), io.NopCloser(nil), nil
	}

	sh := &stubShell{result: dispatch.Result{
		Summary:  &upload.Summary{Succeeded: []*upload.Task{{}}},
		Rejected: []*upload.Rejection{{Name: "big.iso", Err: &api.ValidationError{Field: "file", Reason: "too big"}}},
	}}

	ok := Execute(context.Background(), sh, dispatch.Intent{Kind: dispatch.KindUpload}, []string{"a.txt", "missing.txt"})
	assert.False(t, ok)
	require.Len(t, sh.intents, 1)
	require.Len(t, sh.intents[0].Files, 1)
	assert.Equal(t, "a.txt", sh.intents[0].Files[0].Name)

	assert.Equal(t, []string{
		"upload missing.txt: no such file",
		"upload big.iso: file: too big",
		"1 uploaded, 0 failed, 1 rejected",
	}, *out)
}

func TestExecute_NothingToUpload(t *testing.T) {
	captureOutput(t)
	origOpen := openFileFn
	t.Cleanup(func() { openFileFn = origOpen })
	openFileFn = func(string) (upload.File, io.Closer, error) { return upload.File{}, nil, os.ErrNotExist }

	sh := &stubShell{}
	assert.False(t, Execute(context.Background(), sh, dispatch.Intent{Kind: dispatch.KindUpload}, []string{"x"}))
	assert.Empty(t, sh.intents)
}

func TestOpenFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hello.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o600))

	f, c, err := OpenFile(path)
	require.NoError(t, err)
	defer c.Close()
	assert.Equal(t, "hello.txt", f.Name)
	assert.Equal(t, int64(5), f.Size)

	_, _, err = OpenFile(dir)
	assert.Error(t, err)
}
