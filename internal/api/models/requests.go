package models

import (
	"net/url"
	"strconv"

	"github.com/Project-Sylos/Harbor/internal/types"
)

// CreateDirectoryRequest is the body of POST /api/directories.
// A nil ParentID creates the directory at the root.
type CreateDirectoryRequest struct {
	Name     string        `json:"name"`
	ParentID *types.ItemID `json:"parent_id"`
}

// RenameRequest is the body of PUT /api/items/{id}/rename
type RenameRequest struct {
	Name string `json:"name"`
}

// NewCreateDirectoryRequest builds a CreateDirectoryRequest under parent
func NewCreateDirectoryRequest(name string, parent types.FolderID) *CreateDirectoryRequest {
	req := &CreateDirectoryRequest{Name: name}
	if !parent.IsRoot() {
		id := types.ItemID(parent)
		req.ParentID = &id
	}
	return req
}

// Multipart field names of a chunk upload
const (
	FieldFile              = "file"
	FieldUUID              = "dzuuid"
	FieldChunkIndex        = "dzchunkindex"
	FieldTotalChunkCount   = "dztotalchunkcount"
	FieldChunkSize         = "dzchunksize"
	FieldTotalFileSize     = "dztotalfilesize"
	FieldChunkByteOffset   = "dzchunkbyteoffset"
	FieldParentID          = "parent_id"
	FieldExpirationMinutes = "expiration_minutes"
)

// ChunkUpload is one chunk of one file plus the per-upload metadata
// attached to every chunk.
type ChunkUpload struct {
	UploadID          string
	FileName          string
	Index             int
	TotalChunks       int
	ChunkSize         int64
	TotalSize         int64
	Offset            int64
	ParentID          types.FolderID
	ExpirationMinutes int64
	Data              []byte
}

// Fields returns the multipart form fields of the chunk, excluding the file part
func (c *ChunkUpload) Fields() url.Values {
	v := url.Values{}
	v.Set(FieldUUID, c.UploadID)
	v.Set(FieldChunkIndex, strconv.Itoa(c.Index))
	v.Set(FieldTotalChunkCount, strconv.Itoa(c.TotalChunks))
	v.Set(FieldChunkSize, strconv.FormatInt(c.ChunkSize, 10))
	v.Set(FieldTotalFileSize, strconv.FormatInt(c.TotalSize, 10))
	v.Set(FieldChunkByteOffset, strconv.FormatInt(c.Offset, 10))
	if !c.ParentID.IsRoot() {
		v.Set(FieldParentID, string(c.ParentID))
	}
	v.Set(FieldExpirationMinutes, strconv.FormatInt(c.ExpirationMinutes, 10))
	return v
}
