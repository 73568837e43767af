// Package api implements the HTTP client for the storage service.
//
// All methods are safe for concurrent calling.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/Project-Sylos/Harbor/internal/types"
)

// maxErrorBody bounds how much of an error response is read
const maxErrorBody = 64 << 10

// Client contains the info to sustain the API
type Client struct {
	mu           sync.RWMutex
	c            *http.Client
	rootURL      string
	errorHandler func(resp *http.Response) error
	headers      map[string]string
}

// NewClient wraps c. A nil c uses http.DefaultClient.
func NewClient(c *http.Client) *Client {
	if c == nil {
		c = http.DefaultClient
	}
	return &Client{
		c:            c,
		errorHandler: defaultErrorHandler,
		headers:      make(map[string]string),
	}
}

// SetRoot sets the base URL every Opts.Path is appended to
func (api *Client) SetRoot(rootURL string) *Client {
	api.mu.Lock()
	defer api.mu.Unlock()
	api.rootURL = strings.TrimRight(rootURL, "/")
	return api
}

// SetHeader sets a header for all requests
func (api *Client) SetHeader(key, value string) *Client {
	api.mu.Lock()
	defer api.mu.Unlock()
	api.headers[key] = value
	return api
}

// SetErrorHandler sets the handler to decode an error response when
// the HTTP status code is not 2xx. The handler should close resp.Body.
func (api *Client) SetErrorHandler(fn func(resp *http.Response) error) *Client {
	api.mu.Lock()
	defer api.mu.Unlock()
	api.errorHandler = fn
	return api
}

// Opts contains parameters for Call and CallJSON
type Opts struct {
	Method       string // GET, POST, etc.
	Path         string // relative to the root URL
	Parameters   url.Values
	Body         io.Reader
	ContentType  string
	NoResponse   bool // close the body after a successful call
	IgnoreStatus bool // don't turn non-2xx into errors
}

// defaultErrorHandler decodes the {error} body into a ServerError, closing resp.Body
func defaultErrorHandler(resp *http.Response) error {
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var payload types.ErrorResponse
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error != "" {
		return &ServerError{Status: resp.StatusCode, Message: payload.Error}
	}
	// plain-text error bodies are surfaced verbatim as well
	msg := strings.TrimSpace(string(body))
	if strings.HasPrefix(msg, "{") || strings.HasPrefix(msg, "<") {
		msg = ""
	}
	return &ServerError{Status: resp.StatusCode, Message: msg}
}

// DecodeJSON decodes resp.Body into result, closing the body
func DecodeJSON(resp *http.Response, result any) error {
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil && !errors.Is(err, io.EOF) {
		return &TransportError{Op: "decode response", Err: err}
	}
	return nil
}

// Call makes the call and returns the http.Response.
//
// If err == nil then resp.Body must be closed unless opts.NoResponse is set.
// If err != nil then resp.Body has already been closed.
func (api *Client) Call(ctx context.Context, opts *Opts) (*http.Response, error) {
	if opts == nil {
		return nil, errors.New("call() called with nil opts")
	}

	api.mu.RLock()
	root := api.rootURL
	headers := make(map[string]string, len(api.headers))
	for k, v := range api.headers {
		headers[k] = v
	}
	client := api.c
	errorHandler := api.errorHandler
	api.mu.RUnlock()

	if root == "" {
		return nil, errors.New("root URL not set")
	}
	target := root + opts.Path
	if len(opts.Parameters) > 0 {
		target += "?" + opts.Parameters.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, opts.Method, target, opts.Body)
	if err != nil {
		return nil, &TransportError{Op: opts.Method + " " + opts.Path, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	if opts.ContentType != "" {
		req.Header.Set("Content-Type", opts.ContentType)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, &TransportError{Op: opts.Method + " " + opts.Path, Err: err}
	}
	if !opts.IgnoreStatus && (resp.StatusCode < 200 || resp.StatusCode > 299) {
		return resp, errorHandler(resp)
	}
	if opts.NoResponse {
		return resp, resp.Body.Close()
	}
	return resp, nil
}

// CallJSON runs Call with request JSON-encoded as the body (if not nil)
// and decodes the response into response (if not nil).
func (api *Client) CallJSON(ctx context.Context, opts *Opts, request, response any) (*http.Response, error) {
	o := *opts
	if request != nil {
		buf, err := json.Marshal(request)
		if err != nil {
			return nil, err
		}
		o.Body = bytes.NewReader(buf)
		o.ContentType = "application/json"
	}
	o.NoResponse = response == nil
	resp, err := api.Call(ctx, &o)
	if err != nil || response == nil {
		return resp, err
	}
	return resp, DecodeJSON(resp, response)
}
