package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete configuration for the Harbor client
type Config struct {
	Server  ServerConfig  `json:"server" yaml:"server"`
	Upload  UploadConfig  `json:"upload" yaml:"upload"`
	Log     LogConfig     `json:"log" yaml:"log"`
	Metrics MetricsConfig `json:"metrics" yaml:"metrics"`
	Stub    StubConfig    `json:"stub" yaml:"stub"`
}

// ServerConfig points the client at the storage service
type ServerConfig struct {
	BaseURL string   `json:"base_url" yaml:"base_url"`
	Timeout Duration `json:"timeout" yaml:"timeout"`
}

// UploadConfig holds client-side knobs of the upload orchestrator.
// Size and chunk limits are not here: they come from the server policy.
type UploadConfig struct {
	Concurrency          int      `json:"concurrency" yaml:"concurrency"`
	SettleDelay          Duration `json:"settle_delay" yaml:"settle_delay"`
	MaxChunkAttempts     int      `json:"max_chunk_attempts" yaml:"max_chunk_attempts"`
	RetryInitialInterval Duration `json:"retry_initial_interval" yaml:"retry_initial_interval"`
}

// LogConfig selects the log level and handler format ("text" or "json")
type LogConfig struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"`
}

// MetricsConfig enables the Prometheus endpoint when Addr is set
type MetricsConfig struct {
	Addr string `json:"addr" yaml:"addr"`
}

// StubConfig represents the HTTP configuration of the local stub server
type StubConfig struct {
	Host string     `json:"host" yaml:"host"`
	Port int        `json:"port" yaml:"port"`
	Seed SeedConfig `json:"seed" yaml:"seed"`
}

// SeedConfig shapes the sample tree the stub server starts with.
// A MaxDepth of 0 starts empty.
type SeedConfig struct {
	Seed       int64 `json:"seed" yaml:"seed"`
	MaxDepth   int   `json:"max_depth" yaml:"max_depth"`
	MinFolders int   `json:"min_folders" yaml:"min_folders"`
	MaxFolders int   `json:"max_folders" yaml:"max_folders"`
	MinFiles   int   `json:"min_files" yaml:"min_files"`
	MaxFiles   int   `json:"max_files" yaml:"max_files"`
	FileBytes  int   `json:"file_bytes" yaml:"file_bytes"`
}

// Duration is a time.Duration that decodes from "1500ms"-style strings
// or from integer nanoseconds.
type Duration time.Duration

// Std returns the value as a time.Duration
func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		return d.parse(s)
	}
	var n int64
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("invalid duration %s", string(b))
	}
	*d = Duration(n)
	return nil
}

func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	if n, err := strconv.ParseInt(node.Value, 10, 64); err == nil {
		*d = Duration(n)
		return nil
	}
	return d.parse(node.Value)
}

func (d *Duration) parse(s string) error {
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(v)
	return nil
}

// FolderID identifies a directory. The zero value is the root.
type FolderID string

// Root is the folder identity used when no directory is selected
const Root FolderID = ""

// IsRoot reports whether f designates the root
func (f FolderID) IsRoot() bool { return f == Root }

// QueryValue renders f the way the listing endpoint expects it
func (f FolderID) QueryValue() string {
	if f.IsRoot() {
		return "root"
	}
	return string(f)
}

func (f FolderID) String() string {
	if f.IsRoot() {
		return "<root>"
	}
	return string(f)
}

// ItemID is an opaque item identifier. The server may send it as a
// JSON number or a JSON string; it is always held as a string.
type ItemID string

func (id *ItemID) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*id = ItemID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("invalid item id %s", string(b))
	}
	*id = ItemID(n.String())
	return nil
}

// ItemType is the node variant of an Item
type ItemType string

// ItemType constants
const (
	ItemTypeFile      ItemType = "file"
	ItemTypeDirectory ItemType = "directory"
)

// ChecksumState is the server-side checksum processing state of a file
type ChecksumState string

// ChecksumState constants
const (
	ChecksumNone    ChecksumState = ""
	ChecksumPending ChecksumState = "pending"
	ChecksumError   ChecksumState = "error"
	ChecksumReady   ChecksumState = "ready"
)

// Wire values of the item "status" field
const (
	StatusPending   = "pending"
	StatusError     = "error"
	StatusProcessed = "processed"
)

// ChecksumStatus is {pending, error, ready(checksum)}. Directories carry ChecksumNone.
type ChecksumStatus struct {
	State    ChecksumState
	Checksum string
}

// Item represents a file or directory node as listed by the server
type Item struct {
	ID        ItemID         `json:"id"`
	Name      string         `json:"name"`
	Type      ItemType       `json:"item_type"`
	SizeBytes *int64         `json:"size_bytes,omitempty"`
	SizeHuman string         `json:"size_human,omitempty"`
	Checksum  ChecksumStatus `json:"-"`
	CreatedAt time.Time      `json:"created_at"`
	ExpiresAt *time.Time     `json:"expires_at,omitempty"`
	ParentID  *ItemID        `json:"parent_id,omitempty"`
}

// IsDir reports whether the item is a directory
func (i Item) IsDir() bool { return i.Type == ItemTypeDirectory }

// wireItem mirrors the listing JSON, including the raw status/sha256 pair
type wireItem struct {
	ID        ItemID     `json:"id"`
	Name      string     `json:"name"`
	Type      ItemType   `json:"item_type"`
	SizeBytes *int64     `json:"size_bytes,omitempty"`
	SizeHuman string     `json:"size_human,omitempty"`
	Status    string     `json:"status,omitempty"`
	SHA256    *string    `json:"sha256,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	ParentID  *ItemID    `json:"parent_id,omitempty"`
}

func (i *Item) UnmarshalJSON(b []byte) error {
	var w wireItem
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	*i = Item{
		ID:        w.ID,
		Name:      w.Name,
		Type:      w.Type,
		SizeBytes: w.SizeBytes,
		SizeHuman: w.SizeHuman,
		CreatedAt: w.CreatedAt,
		ExpiresAt: w.ExpiresAt,
		ParentID:  w.ParentID,
	}
	if w.Type == ItemTypeFile {
		i.Checksum = checksumFromWire(w.Status, w.SHA256)
	}
	return nil
}

func (i Item) MarshalJSON() ([]byte, error) {
	w := wireItem{
		ID:        i.ID,
		Name:      i.Name,
		Type:      i.Type,
		SizeBytes: i.SizeBytes,
		SizeHuman: i.SizeHuman,
		CreatedAt: i.CreatedAt,
		ExpiresAt: i.ExpiresAt,
		ParentID:  i.ParentID,
	}
	if i.Type == ItemTypeFile {
		switch i.Checksum.State {
		case ChecksumPending:
			w.Status = StatusPending
		case ChecksumError:
			w.Status = StatusError
		case ChecksumReady:
			w.Status = StatusProcessed
			sum := i.Checksum.Checksum
			w.SHA256 = &sum
		}
	}
	return json.Marshal(w)
}

func checksumFromWire(status string, sum *string) ChecksumStatus {
	switch strings.ToLower(status) {
	case StatusPending:
		return ChecksumStatus{State: ChecksumPending}
	case StatusError:
		return ChecksumStatus{State: ChecksumError}
	}
	if sum != nil && *sum != "" {
		return ChecksumStatus{State: ChecksumReady, Checksum: *sum}
	}
	// processed but no digest yet: still waiting on the server
	return ChecksumStatus{State: ChecksumPending}
}

// Breadcrumb is one segment of the path from root to the current folder
type Breadcrumb struct {
	ID   ItemID `json:"id"`
	Name string `json:"name"`
}

// Listing is the result of GET /api/items
type Listing struct {
	Items       []Item       `json:"items"`
	Breadcrumbs []Breadcrumb `json:"breadcrumbs"`
}

// UploadPolicy is the server-side upload constraint set, fetched once
type UploadPolicy struct {
	MaxFilesizeMB            int64 `json:"max_filesize_mb"`
	ChunkSizeMB              int64 `json:"chunk_size_mb"`
	DefaultExpirationMinutes int64 `json:"default_expiration_minutes"`
	MaxExpirationMinutes     int64 `json:"max_expiration_minutes"`
}

// MiB is the byte multiplier applied to the *_mb policy fields
const MiB int64 = 1024 * 1024

// MaxFileBytes returns the largest accepted file size in bytes
func (p UploadPolicy) MaxFileBytes() int64 { return p.MaxFilesizeMB * MiB }

// ChunkBytes returns the negotiated chunk size in bytes
func (p UploadPolicy) ChunkBytes() int64 { return p.ChunkSizeMB * MiB }

// ErrorResponse is the {error} body returned on failures
type ErrorResponse struct {
	Error string `json:"error,omitempty"`
}

// MessageResponse is the {message} body returned on success by some endpoints
type MessageResponse struct {
	Message string `json:"message,omitempty"`
	FileID  ItemID `json:"file_id,omitempty"`
}
