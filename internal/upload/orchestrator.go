// Package upload splits files into chunks and sends them to the server.
//
// Chunks of one task go out strictly in order, each retried a bounded number
// of times. Tasks run concurrently up to a ceiling and fail independently.
// When a queue run finishes, exactly one listing refresh is scheduled after
// a settling delay.
package upload

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Project-Sylos/Harbor/internal/api"
	"github.com/Project-Sylos/Harbor/internal/api/models"
	"github.com/Project-Sylos/Harbor/internal/logging"
	"github.com/Project-Sylos/Harbor/internal/state"
	"github.com/Project-Sylos/Harbor/internal/types"
)

// ErrNoPolicy is returned by New when no upload policy has been loaded
var ErrNoPolicy = errors.New("upload disabled: no upload policy")

const (
	defaultConcurrency   = 20
	defaultSettleDelay   = 1500 * time.Millisecond
	defaultMaxAttempts   = 3
	defaultRetryInterval = 250 * time.Millisecond
)

// Uploader sends one chunk
type Uploader interface {
	UploadChunk(ctx context.Context, chunk *models.ChunkUpload) error
}

// Refresher reloads the current listing
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Timer is a pending AfterFunc call
type Timer interface {
	Stop() bool
}

// Clock schedules delayed calls
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

func (realClock) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// EventKind identifies a per-task progress event
type EventKind int

const (
	EventStarted EventKind = iota
	EventChunk
	EventDone
	EventFailed
)

// Event reports task progress. Chunk is the acknowledged chunk index for
// EventChunk; Err is set for EventFailed.
type Event struct {
	Kind   EventKind
	TaskID string
	Name   string
	Chunk  int
	Chunks int
	Err    error
}

// Reporter receives task events; it may be called from several goroutines
type Reporter interface {
	Report(Event)
}

// ReporterFunc adapts a function to Reporter
type ReporterFunc func(Event)

func (f ReporterFunc) Report(e Event) { f(e) }

// Summary is the outcome of one queue run
type Summary struct {
	Succeeded []*Task
	Failed    []*Task
}

// Option configures an Orchestrator
type Option func(*Orchestrator)

// WithConcurrency caps how many tasks send chunks at once
func WithConcurrency(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.concurrency = n
		}
	}
}

// WithSettleDelay sets the pause between queue completion and the refresh
func WithSettleDelay(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d >= 0 {
			o.settle = d
		}
	}
}

// WithMaxAttempts bounds the sends of a single chunk, first attempt included
func WithMaxAttempts(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.maxAttempts = n
		}
	}
}

// WithRetryInterval sets the initial backoff between attempts
func WithRetryInterval(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.retryInterval = d
		}
	}
}

// WithClock replaces the timer source
func WithClock(c Clock) Option {
	return func(o *Orchestrator) { o.clock = c }
}

// WithLogger sets the logger
func WithLogger(l logging.Logger) Option {
	return func(o *Orchestrator) { o.logger = logging.OrNop(l) }
}

// WithMetrics records upload activity
func WithMetrics(m *Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// WithReporter receives per-task events
func WithReporter(r Reporter) Option {
	return func(o *Orchestrator) { o.reporter = r }
}

// Orchestrator owns the pending-upload queue
type Orchestrator struct {
	up        Uploader
	app       *state.App
	refresher Refresher
	policy    types.UploadPolicy

	concurrency   int
	settle        time.Duration
	maxAttempts   int
	retryInterval time.Duration
	clock         Clock
	logger        logging.Logger
	metrics       *Metrics
	reporter      Reporter

	runMu sync.Mutex

	mu     sync.Mutex
	queue  []*Task
	timers []Timer
}

// New builds an Orchestrator from the policy loaded into app. Without a
// policy there are no limits to enforce, so New fails with ErrNoPolicy.
func New(up Uploader, app *state.App, refresher Refresher, opts ...Option) (*Orchestrator, error) {
	p, err := app.Policy()
	if p == nil {
		if err == nil {
			return nil, ErrNoPolicy
		}
		return nil, fmt.Errorf("%w: %w", ErrNoPolicy, err)
	}

	o := &Orchestrator{
		up:            up,
		app:           app,
		refresher:     refresher,
		policy:        *p,
		concurrency:   defaultConcurrency,
		settle:        defaultSettleDelay,
		maxAttempts:   defaultMaxAttempts,
		retryInterval: defaultRetryInterval,
		clock:         realClock{},
		logger:        logging.Nop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	o.logger = o.logger.With("component", "upload")
	return o, nil
}

// Policy returns the limits the orchestrator enforces
func (o *Orchestrator) Policy() types.UploadPolicy { return o.policy }

// Enqueue validates files and queues the accepted ones against the current
// folder. Each rejected file gets its own Rejection; siblings are unaffected.
// A task whose expiration is invalid is rejected here, so none of its
// chunks is ever sent.
func (o *Orchestrator) Enqueue(files []File, expirationMinutes int64) ([]*Task, []*Rejection) {
	target := o.app.CurrentFolder()
	expErr := ValidateExpiration(expirationMinutes, o.policy.MaxExpirationMinutes)

	var accepted []*Task
	var rejected []*Rejection
	for _, f := range files {
		if err := o.validate(f, expErr); err != nil {
			o.metrics.taskRejected()
			o.logger.Warn(context.Background(), "file rejected", "file", f.Name, "error", err)
			rejected = append(rejected, &Rejection{Name: f.Name, Err: err})
			continue
		}
		t := newTask(uuid.NewString(), f, o.policy.ChunkBytes(), target, expirationMinutes)
		accepted = append(accepted, t)
	}

	o.mu.Lock()
	o.queue = append(o.queue, accepted...)
	o.mu.Unlock()
	return accepted, rejected
}

func (o *Orchestrator) validate(f File, expErr error) error {
	if f.Payload == nil || f.Size < 0 {
		return &api.ValidationError{Field: "file", Reason: "unreadable"}
	}
	if f.Size > o.policy.MaxFileBytes() {
		return &api.ValidationError{
			Field:  "file",
			Reason: fmt.Sprintf("file is too big (%d bytes), max filesize is %d MiB", f.Size, o.policy.MaxFilesizeMB),
		}
	}
	return expErr
}

// Pending returns the queued tasks that no run has picked up yet
func (o *Orchestrator) Pending() []*Task {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]*Task(nil), o.queue...)
}

// Process runs every queued task and waits for all of them to terminate.
// The queue is then cleared and one refresh is scheduled after the settling
// delay. Task failures are reported in the Summary, not as an error; the
// error is non-nil only when ctx ended the run.
func (o *Orchestrator) Process(ctx context.Context) (Summary, error) {
	o.runMu.Lock()
	defer o.runMu.Unlock()

	o.mu.Lock()
	tasks := o.queue
	o.queue = nil
	o.mu.Unlock()

	var summary Summary
	if len(tasks) == 0 {
		return summary, nil
	}

	o.logger.Info(ctx, "processing upload queue", "tasks", len(tasks), "concurrency", o.concurrency)

	var g errgroup.Group
	g.SetLimit(o.concurrency)
	for _, t := range tasks {
		t := t
		g.Go(func() error {
			o.run(ctx, t)
			return nil
		})
	}
	_ = g.Wait()

	for _, t := range tasks {
		if t.State() == TaskDone {
			summary.Succeeded = append(summary.Succeeded, t)
		} else {
			summary.Failed = append(summary.Failed, t)
		}
	}
	o.logger.Info(ctx, "upload queue complete",
		"succeeded", len(summary.Succeeded), "failed", len(summary.Failed))

	o.scheduleRefresh(ctx)
	return summary, ctx.Err()
}

// Close stops refreshes that have not fired yet
func (o *Orchestrator) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, t := range o.timers {
		t.Stop()
	}
	o.timers = nil
}

func (o *Orchestrator) scheduleRefresh(ctx context.Context) {
	if o.refresher == nil {
		return
	}
	rctx := context.WithoutCancel(ctx)
	o.mu.Lock()
	defer o.mu.Unlock()
	o.timers = append(o.timers, o.clock.AfterFunc(o.settle, func() {
		err := o.refresher.Refresh(rctx)
		if err != nil && !errors.Is(err, api.ErrStaleResponse) {
			o.logger.Warn(rctx, "post-upload refresh failed", "error", err)
		}
	}))
}

// run sends the chunks of t in order. The first chunk that exhausts its
// attempts fails the task; later chunks are not sent.
func (o *Orchestrator) run(ctx context.Context, t *Task) {
	start := time.Now()
	log := o.logger.With("task", t.ID, "file", t.File.Name)

	t.setState(TaskUploading, nil)
	o.metrics.taskStarted()
	o.report(Event{Kind: EventStarted, TaskID: t.ID, Name: t.File.Name, Chunks: len(t.Chunks)})

	for i := range t.Chunks {
		if err := o.sendChunk(ctx, t, i); err != nil {
			err = fmt.Errorf("chunk %d/%d: %w", i+1, len(t.Chunks), err)
			t.setState(TaskFailed, err)
			o.metrics.taskFinished("failed", time.Since(start))
			log.Error(ctx, "upload failed", "chunk", i, "attempts", t.Attempts(i), "error", err)
			o.report(Event{Kind: EventFailed, TaskID: t.ID, Name: t.File.Name, Chunk: i, Chunks: len(t.Chunks), Err: err})
			return
		}
		t.advance()
		o.report(Event{Kind: EventChunk, TaskID: t.ID, Name: t.File.Name, Chunk: i, Chunks: len(t.Chunks)})
	}

	t.setState(TaskDone, nil)
	o.metrics.taskFinished("done", time.Since(start))
	log.Info(ctx, "upload complete", "chunks", len(t.Chunks), "bytes", t.File.Size)
	o.report(Event{Kind: EventDone, TaskID: t.ID, Name: t.File.Name, Chunks: len(t.Chunks)})
}

func (o *Orchestrator) sendChunk(ctx context.Context, t *Task, i int) error {
	data, err := t.readChunk(i)
	if err != nil {
		return err
	}
	r := t.Chunks[i]
	req := &models.ChunkUpload{
		UploadID:          t.ID,
		FileName:          t.File.Name,
		Index:             i,
		TotalChunks:       len(t.Chunks),
		ChunkSize:         o.policy.ChunkBytes(),
		TotalSize:         t.File.Size,
		Offset:            r.Offset,
		ParentID:          t.Target,
		ExpirationMinutes: t.ExpirationMinutes,
		Data:              data,
	}

	op := func() error {
		n := t.attempt()
		err := o.up.UploadChunk(ctx, req)
		if err == nil {
			o.metrics.chunkSent(len(data))
			return nil
		}
		retry := retryableChunkError(err) && n < o.maxAttempts
		o.metrics.chunkFailed(retry)
		o.logger.Debug(ctx, "chunk attempt failed",
			"task", t.ID, "chunk", i, "attempt", n, "retry", retry, "error", err)
		if !retryableChunkError(err) {
			return backoff.Permanent(err)
		}
		return err
	}
	return backoff.Retry(op, backoff.WithContext(o.newBackOff(), ctx))
}

// retryableChunkError reports whether a failed chunk is sent again. Any
// server response counts, 4xx included; cancellation does not.
func retryableChunkError(err error) bool {
	var se *api.ServerError
	return api.IsRetryable(err) || errors.As(err, &se)
}

func (o *Orchestrator) newBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = o.retryInterval
	b.MaxElapsedTime = 0
	return backoff.WithMaxRetries(b, uint64(o.maxAttempts-1))
}

func (o *Orchestrator) report(e Event) {
	if o.reporter != nil {
		o.reporter.Report(e)
	}
}
