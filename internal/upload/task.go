package upload

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/Project-Sylos/Harbor/internal/api"
	"github.com/Project-Sylos/Harbor/internal/types"
)

// File is one user-selected file
type File struct {
	Name    string
	Size    int64
	Payload io.ReaderAt
}

// BytesFile wraps an in-memory payload
func BytesFile(name string, data []byte) File {
	return File{Name: name, Size: int64(len(data)), Payload: bytes.NewReader(data)}
}

// TaskState is the lifecycle stage of a Task
type TaskState int

const (
	TaskQueued TaskState = iota
	TaskUploading
	TaskDone
	TaskFailed
)

func (s TaskState) String() string {
	switch s {
	case TaskQueued:
		return "queued"
	case TaskUploading:
		return "uploading"
	case TaskDone:
		return "done"
	case TaskFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Task is one file being uploaded. Target folder and expiration are fixed
// when the task is created.
type Task struct {
	ID                string
	File              File
	Chunks            []Range
	Target            types.FolderID
	ExpirationMinutes int64

	mu       sync.Mutex
	cursor   int
	attempts []int
	state    TaskState
	err      error
}

func newTask(id string, f File, chunkSize int64, target types.FolderID, minutes int64) *Task {
	chunks := Split(f.Size, chunkSize)
	return &Task{
		ID:                id,
		File:              f,
		Chunks:            chunks,
		Target:            target,
		ExpirationMinutes: minutes,
		attempts:          make([]int, len(chunks)),
	}
}

// Cursor is the index of the next chunk to send
func (t *Task) Cursor() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cursor
}

// Attempts returns how many times chunk i has been sent
func (t *Task) Attempts(i int) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	if i < 0 || i >= len(t.attempts) {
		return 0
	}
	return t.attempts[i]
}

// State returns the lifecycle stage
func (t *Task) State() TaskState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Err returns the terminal error of a failed task
func (t *Task) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

func (t *Task) setState(s TaskState, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state = s
	t.err = err
}

func (t *Task) attempt() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.attempts[t.cursor]++
	return t.attempts[t.cursor]
}

func (t *Task) advance() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cursor++
}

// readChunk loads the bytes of chunk i
func (t *Task) readChunk(i int) ([]byte, error) {
	r := t.Chunks[i]
	buf := make([]byte, r.Length)
	if r.Length == 0 {
		return buf, nil
	}
	n, err := t.File.Payload.ReadAt(buf, r.Offset)
	if err != nil && !(errors.Is(err, io.EOF) && int64(n) == r.Length) {
		return nil, fmt.Errorf("read %s at %d: %w", t.File.Name, r.Offset, err)
	}
	return buf, nil
}

// Rejection is a file refused before any chunk was sent
type Rejection struct {
	Name string
	Err  error
}

func (r *Rejection) Error() string {
	return fmt.Sprintf("upload %s: %s", r.Name, api.Message(r.Err))
}

func (r *Rejection) Unwrap() error { return r.Err }
