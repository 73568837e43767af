// Package policy loads the server's upload policy once at startup.
package policy

import (
	"context"
	"errors"
	"fmt"

	"github.com/Project-Sylos/Harbor/internal/logging"
	"github.com/Project-Sylos/Harbor/internal/state"
	"github.com/Project-Sylos/Harbor/internal/types"
)

// ErrPolicyUnavailable is returned when the policy could not be loaded or is
// unusable. There is no fallback: uploads stay disabled.
var ErrPolicyUnavailable = errors.New("upload policy unavailable")

// Source fetches the raw policy from the server
type Source interface {
	PublicConfig(ctx context.Context) (*types.UploadPolicy, error)
}

// Fetcher is the only writer of the policy slot in state.App
type Fetcher struct {
	src    Source
	writer *state.PolicyWriter
	logger logging.Logger
}

// NewFetcher claims the policy slot of app
func NewFetcher(src Source, app *state.App, logger logging.Logger) (*Fetcher, error) {
	w, err := app.ClaimPolicy()
	if err != nil {
		return nil, fmt.Errorf("policy fetcher: %w", err)
	}
	return &Fetcher{
		src:    src,
		writer: w,
		logger: logging.OrNop(logger).With("component", "policy"),
	}, nil
}

// Load fetches and validates the policy and records the outcome in state.
// Any failure wraps ErrPolicyUnavailable.
func (f *Fetcher) Load(ctx context.Context) (*types.UploadPolicy, error) {
	p, err := f.src.PublicConfig(ctx)
	if err == nil {
		err = Validate(p)
	}
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrPolicyUnavailable, err)
		f.writer.Store(nil, err)
		f.logger.Error(ctx, "policy load failed", "error", err)
		return nil, err
	}

	f.writer.Store(p, nil)
	f.logger.Info(ctx, "policy loaded",
		"max_filesize_mb", p.MaxFilesizeMB,
		"chunk_size_mb", p.ChunkSizeMB,
		"max_expiration_minutes", p.MaxExpirationMinutes)
	return p, nil
}

// Validate rejects a policy that cannot drive an upload
func Validate(p *types.UploadPolicy) error {
	if p == nil {
		return errors.New("empty policy")
	}
	if p.MaxFilesizeMB <= 0 {
		return fmt.Errorf("max_filesize_mb must be positive, got %d", p.MaxFilesizeMB)
	}
	if p.ChunkSizeMB <= 0 {
		return fmt.Errorf("chunk_size_mb must be positive, got %d", p.ChunkSizeMB)
	}
	if p.MaxExpirationMinutes <= 0 {
		return fmt.Errorf("max_expiration_minutes must be positive, got %d", p.MaxExpirationMinutes)
	}
	if p.DefaultExpirationMinutes < 0 || p.DefaultExpirationMinutes > p.MaxExpirationMinutes {
		return fmt.Errorf("default_expiration_minutes %d outside [0, %d]",
			p.DefaultExpirationMinutes, p.MaxExpirationMinutes)
	}
	return nil
}
