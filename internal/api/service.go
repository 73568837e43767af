package api

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/url"

	"github.com/Project-Sylos/Harbor/internal/api/models"
	"github.com/Project-Sylos/Harbor/internal/types"
	"github.com/Project-Sylos/Harbor/internal/utils"
)

// Service binds the storage service endpoints to a Client
type Service struct {
	srv *Client
}

// NewService creates a Service rooted at baseURL
func NewService(baseURL string, httpClient *http.Client) *Service {
	return &Service{srv: NewClient(httpClient).SetRoot(baseURL)}
}

// Client exposes the underlying REST client
func (s *Service) Client() *Client { return s.srv }

// PublicConfig fetches the upload policy
func (s *Service) PublicConfig(ctx context.Context) (*types.UploadPolicy, error) {
	var policy types.UploadPolicy
	opts := Opts{Method: http.MethodGet, Path: "/api/public-config"}
	if _, err := s.srv.CallJSON(ctx, &opts, nil, &policy); err != nil {
		return nil, err
	}
	return &policy, nil
}

// ListItems fetches the items and breadcrumbs of folder
func (s *Service) ListItems(ctx context.Context, folder types.FolderID) (*types.Listing, error) {
	var listing types.Listing
	opts := Opts{
		Method:     http.MethodGet,
		Path:       "/api/items",
		Parameters: url.Values{"parent_id": {folder.QueryValue()}},
	}
	if _, err := s.srv.CallJSON(ctx, &opts, nil, &listing); err != nil {
		return nil, err
	}
	if listing.Items == nil {
		listing.Items = []types.Item{}
	}
	return &listing, nil
}

// CreateDirectory creates a directory. The returned item may be empty
// when the server acknowledges without echoing it.
func (s *Service) CreateDirectory(ctx context.Context, req *models.CreateDirectoryRequest) (*types.Item, error) {
	var item types.Item
	opts := Opts{Method: http.MethodPost, Path: "/api/directories"}
	if _, err := s.srv.CallJSON(ctx, &opts, req, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// Rename renames an item
func (s *Service) Rename(ctx context.Context, id types.ItemID, name string) (*types.Item, error) {
	var item types.Item
	opts := Opts{
		Method: http.MethodPut,
		Path:   utils.JoinPath("api", "items", url.PathEscape(string(id)), "rename"),
	}
	if _, err := s.srv.CallJSON(ctx, &opts, &models.RenameRequest{Name: name}, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// Delete removes an item
func (s *Service) Delete(ctx context.Context, id types.ItemID) error {
	opts := Opts{
		Method:     http.MethodDelete,
		Path:       utils.JoinPath("api", "items", url.PathEscape(string(id))),
		NoResponse: true,
	}
	_, err := s.srv.Call(ctx, &opts)
	return err
}

// UploadChunk sends one chunk as a multipart form. The body is rebuilt on
// every call so a retry sends identical bytes.
func (s *Service) UploadChunk(ctx context.Context, chunk *models.ChunkUpload) error {
	body, contentType, err := encodeChunk(chunk)
	if err != nil {
		return &TransportError{Op: "encode chunk", Err: err}
	}
	opts := Opts{
		Method:      http.MethodPost,
		Path:        "/api/upload",
		Body:        body,
		ContentType: contentType,
		NoResponse:  true,
	}
	_, err = s.srv.Call(ctx, &opts)
	return err
}

func encodeChunk(chunk *models.ChunkUpload) (*bytes.Buffer, string, error) {
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	for key, vals := range chunk.Fields() {
		for _, val := range vals {
			if err := w.WriteField(key, val); err != nil {
				return nil, "", err
			}
		}
	}
	part, err := w.CreateFormFile(models.FieldFile, chunk.FileName)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(chunk.Data); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf, w.FormDataContentType(), nil
}

// DownloadPath is the direct retrieval path of an item
func DownloadPath(id types.ItemID) string {
	return utils.JoinPath("api", "download", url.PathEscape(string(id)))
}
