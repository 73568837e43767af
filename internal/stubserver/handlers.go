package stubserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/Project-Sylos/Harbor/internal/api/models"
	"github.com/Project-Sylos/Harbor/internal/types"
)

// maxChunkMemory bounds the in-memory part of a multipart chunk form
const maxChunkMemory = 32 << 20

// sendJSON sends a JSON response with the given status code and data
func (s *Server) sendJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// sendError sends an {error} body with the given status code
func (s *Server) sendError(w http.ResponseWriter, statusCode int, message string) {
	s.sendJSON(w, statusCode, types.ErrorResponse{Error: message})
}

// sendStoreError maps a store error to its status code
func (s *Server) sendStoreError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, ErrInvalid):
		status = http.StatusBadRequest
	case errors.Is(err, ErrTooLarge):
		status = http.StatusRequestEntityTooLarge
	}
	s.sendError(w, status, err.Error())
}

// HealthCheck handles the health check endpoint
func (s *Server) HealthCheck(w http.ResponseWriter, req *http.Request) {
	s.sendJSON(w, http.StatusOK, types.MessageResponse{Message: "Harbor stub server is healthy"})
}

// PublicConfig serves the upload policy
func (s *Server) PublicConfig(w http.ResponseWriter, req *http.Request) {
	s.sendJSON(w, http.StatusOK, s.store.Policy())
}

// ListItems handles GET /api/items?parent_id=<id|root>
func (s *Server) ListItems(w http.ResponseWriter, req *http.Request) {
	listing, err := s.store.List(folderParam(req.URL.Query().Get(models.FieldParentID)))
	if err != nil {
		s.sendStoreError(w, err)
		return
	}
	s.sendJSON(w, http.StatusOK, listing)
}

// CreateDirectory handles POST /api/directories
func (s *Server) CreateDirectory(w http.ResponseWriter, req *http.Request) {
	var request models.CreateDirectoryRequest
	if err := json.NewDecoder(req.Body).Decode(&request); err != nil {
		s.sendError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	parent := types.Root
	if request.ParentID != nil {
		parent = types.FolderID(*request.ParentID)
	}
	item, err := s.store.CreateDirectory(parent, request.Name)
	if err != nil {
		s.sendStoreError(w, err)
		return
	}
	s.logger.Info(req.Context(), "directory created", "id", item.ID, "name", item.Name)
	s.sendJSON(w, http.StatusCreated, item)
}

// RenameItem handles PUT /api/items/{id}/rename
func (s *Server) RenameItem(w http.ResponseWriter, req *http.Request) {
	var request models.RenameRequest
	if err := json.NewDecoder(req.Body).Decode(&request); err != nil {
		s.sendError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	item, err := s.store.Rename(types.ItemID(chi.URLParam(req, "id")), request.Name)
	if err != nil {
		s.sendStoreError(w, err)
		return
	}
	s.logger.Info(req.Context(), "item renamed", "id", item.ID, "name", item.Name)
	s.sendJSON(w, http.StatusOK, item)
}

// DeleteItem handles DELETE /api/items/{id}
func (s *Server) DeleteItem(w http.ResponseWriter, req *http.Request) {
	id := types.ItemID(chi.URLParam(req, "id"))
	if err := s.store.Delete(id); err != nil {
		s.sendStoreError(w, err)
		return
	}
	s.logger.Info(req.Context(), "item deleted", "id", id)
	s.sendJSON(w, http.StatusOK, types.MessageResponse{Message: "Item deleted"})
}

// Upload handles one multipart chunk of POST /api/upload
func (s *Server) Upload(w http.ResponseWriter, req *http.Request) {
	if err := req.ParseMultipartForm(maxChunkMemory); err != nil {
		s.sendError(w, http.StatusBadRequest, "Invalid multipart body")
		return
	}

	file, header, err := req.FormFile(models.FieldFile)
	if err != nil {
		s.sendError(w, http.StatusBadRequest, "No file part")
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		s.sendError(w, http.StatusBadRequest, "Unreadable file part")
		return
	}

	chunk := Chunk{
		UploadID: req.FormValue(models.FieldUUID),
		Name:     header.Filename,
		Parent:   folderParam(req.FormValue(models.FieldParentID)),
		Data:     data,
	}
	fields := []struct {
		key string
		dst any
	}{
		{models.FieldChunkIndex, &chunk.Index},
		{models.FieldTotalChunkCount, &chunk.Total},
		{models.FieldTotalFileSize, &chunk.TotalSize},
		{models.FieldChunkByteOffset, &chunk.Offset},
		{models.FieldExpirationMinutes, &chunk.ExpirationMinutes},
	}
	for _, f := range fields {
		if err := parseIntField(req.FormValue(f.key), f.dst); err != nil {
			s.sendError(w, http.StatusBadRequest, fmt.Sprintf("Invalid %s", f.key))
			return
		}
	}

	item, err := s.store.PutChunk(chunk)
	if err != nil {
		s.sendStoreError(w, err)
		return
	}
	if item == nil {
		s.sendJSON(w, http.StatusOK, types.MessageResponse{Message: "Chunk received"})
		return
	}

	s.logger.Info(req.Context(), "upload complete", "id", item.ID, "name", item.Name, "bytes", *item.SizeBytes)
	s.processChecksum(item.ID)
	s.sendJSON(w, http.StatusCreated, types.MessageResponse{
		Message: "File uploaded, processing started",
		FileID:  item.ID,
	})
}

// Download handles GET /api/download/{id}
func (s *Server) Download(w http.ResponseWriter, req *http.Request) {
	name, data, err := s.store.Content(types.ItemID(chi.URLParam(req, "id")))
	if err != nil {
		s.sendStoreError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Write(data)
}

// folderParam decodes a parent_id value; "" and "root" are the root
func folderParam(v string) types.FolderID {
	if v == "" || v == "root" {
		return types.Root
	}
	return types.FolderID(v)
}

// parseIntField parses v into dst, which is *int or *int64. Empty means zero.
func parseIntField(v string, dst any) error {
	if v == "" {
		return nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return err
	}
	switch d := dst.(type) {
	case *int:
		*d = int(n)
	case *int64:
		*d = n
	}
	return nil
}
