// Package cli implements the interactive shell.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/Project-Sylos/Harbor/internal/api"
	"github.com/Project-Sylos/Harbor/internal/dispatch"
	"github.com/Project-Sylos/Harbor/internal/types"
	"github.com/Project-Sylos/Harbor/internal/upload"
)

// printlnFn is a test seam for user-facing output
var printlnFn = fmt.Println

// openFileFn is a test seam for reading upload sources
var openFileFn = OpenFile

const helpText = `Commands:
  cd <id> | cd .. | cd /     change folder
  ls                         reload the current folder
  mkdir <name>               create a directory here
  rename <id> <new name>     rename an item
  rm <id>                    delete an item
  put [-e 1d] <path>...      upload files (expiration: 90m, 12h, 1d)
  exit                       leave the shell`

// Dispatcher runs intents
type Dispatcher interface {
	Dispatch(ctx context.Context, in dispatch.Intent) (dispatch.Result, error)
}

// Shell is what the REPL needs from a session
type Shell interface {
	Dispatcher
	// Parent returns the folder above the current one
	Parent() types.FolderID
	// Prompt describes the current location
	Prompt() string
}

// Run reads commands from in until EOF, "exit" or ctx ends. Command
// failures are printed and the loop goes on.
func Run(ctx context.Context, sh Shell, in io.Reader) {
	scanner := bufio.NewScanner(in)
	for {
		if ctx.Err() != nil {
			return
		}
		printlnFn(fmt.Sprintf("harbor:%s> ", sh.Prompt()))
		if !scanner.Scan() {
			return
		}

		cmd, err := parseCommand(scanner.Text())
		if errors.Is(err, errEmpty) {
			continue
		}
		if err != nil {
			printlnFn(err.Error())
			continue
		}

		switch {
		case cmd.exit:
			printlnFn("Bye!")
			return
		case cmd.help:
			printlnFn(helpText)
			continue
		case cmd.up:
			cmd.intent.Folder = sh.Parent()
		}

		Execute(ctx, sh, cmd.intent, cmd.paths)
	}
}

// Execute runs one intent, opening paths as upload files first, and prints
// the outcome. It reports whether everything succeeded.
func Execute(ctx context.Context, d Dispatcher, in dispatch.Intent, paths []string) bool {
	var closers []io.Closer
	defer func() {
		for _, c := range closers {
			_ = c.Close()
		}
	}()

	ok := true
	for _, p := range paths {
		f, c, err := openFileFn(p)
		if err != nil {
			printlnFn(fmt.Sprintf("upload %s: %v", filepath.Base(p), err))
			ok = false
			continue
		}
		closers = append(closers, c)
		in.Files = append(in.Files, f)
	}
	if in.Kind == dispatch.KindUpload && len(in.Files) == 0 {
		return false
	}

	res, err := d.Dispatch(ctx, in)
	if err != nil {
		printlnFn(api.Message(err))
		return false
	}
	return report(in, res) && ok
}

func report(in dispatch.Intent, res dispatch.Result) bool {
	switch in.Kind {
	case dispatch.KindCreateDirectory:
		printlnFn("created", in.Name)
	case dispatch.KindRename:
		printlnFn("renamed to", in.Name)
	case dispatch.KindDelete:
		printlnFn("deleted", in.Item)
	case dispatch.KindUpload:
		for _, r := range res.Rejected {
			printlnFn(r.Error())
		}
		if res.Summary != nil {
			printlnFn(fmt.Sprintf("%d uploaded, %d failed, %d rejected",
				len(res.Summary.Succeeded), len(res.Summary.Failed), len(res.Rejected)))
			return len(res.Summary.Failed) == 0 && len(res.Rejected) == 0
		}
	}
	return true
}

// OpenFile opens path as an upload source. The caller closes the returned Closer.
func OpenFile(path string) (upload.File, io.Closer, error) {
	f, err := os.Open(path)
	if err != nil {
		return upload.File{}, nil, err
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return upload.File{}, nil, err
	}
	if info.IsDir() {
		_ = f.Close()
		return upload.File{}, nil, fmt.Errorf("%s is a directory", path)
	}
	return upload.File{Name: filepath.Base(path), Size: info.Size(), Payload: f}, f, nil
}
