// Package client is a typed Go client for the lyric manager API. It
// keeps the session cookie issued by login, so one client value can run
// the whole authenticated lifecycle.
package client

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"time"

	keelhttp "github.com/foomo/keel/net/http"
	jsoniter "github.com/json-iterator/go"
	"github.com/lyricnext/lyricserver/pkg/api"
	"github.com/pkg/errors"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type (
	// Client a lyric manager client
	Client struct {
		baseURL    string
		httpClient *http.Client
	}
	Option func(*Client)
)

// ------------------------------------------------------------------------------------------------
// ~ Options
// ------------------------------------------------------------------------------------------------

func WithHTTPClient(v *http.Client) Option {
	return func(o *Client) {
		o.httpClient = v
	}
}

// ------------------------------------------------------------------------------------------------
// ~ Constructor
// ------------------------------------------------------------------------------------------------

func New(baseURL string, opts ...Option) (*Client, error) {
	inst := &Client{
		baseURL: baseURL,
		httpClient: keelhttp.NewHTTPClient(
			keelhttp.HTTPClientWithTimeout(30 * time.Second),
		),
	}

	for _, opt := range opts {
		opt(inst)
	}

	if inst.httpClient.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, errors.Wrap(err, "failed to create cookie jar")
		}
		inst.httpClient.Jar = jar
	}

	return inst, nil
}

// ------------------------------------------------------------------------------------------------
// ~ Public methods
// ------------------------------------------------------------------------------------------------

// Login authenticates with the shared admin password.
func (c *Client) Login(ctx context.Context, password string) error {
	return c.call(ctx, http.MethodPost, "/api/auth/login", &api.LoginRequest{Password: password}, nil)
}

// Logout destroys the current session.
func (c *Client) Logout(ctx context.Context) error {
	return c.call(ctx, http.MethodPost, "/api/auth/logout", nil, nil)
}

// Status reports whether the client currently holds an authenticated session.
func (c *Client) Status(ctx context.Context) (bool, error) {
	response := &api.StatusResponse{}
	if err := c.call(ctx, http.MethodGet, "/api/auth/status", nil, response); err != nil {
		return false, err
	}
	return response.Authenticated, nil
}

// List returns one page of the sorted record listing.
func (c *Client) List(ctx context.Context, page, pageSize int) (*api.ListResponse, error) {
	query := url.Values{}
	if page > 0 {
		query.Set("page", strconv.Itoa(page))
	}
	if pageSize > 0 {
		query.Set("pageSize", strconv.Itoa(pageSize))
	}
	response := &api.ListResponse{}
	err := c.call(ctx, http.MethodGet, "/api/lyrics?"+query.Encode(), nil, response)
	return response, err
}

// Get returns a single record with its full content.
func (c *Client) Get(ctx context.Context, name string) (*api.Lyric, error) {
	response := &api.Lyric{}
	err := c.call(ctx, http.MethodGet, "/api/lyrics/"+url.PathEscape(name), nil, response)
	return response, err
}

// Create writes a new record and returns its final, suffixed name.
func (c *Client) Create(ctx context.Context, filename, content string) (string, error) {
	response := &api.MessageResponse{}
	err := c.call(ctx, http.MethodPost, "/api/lyrics", &api.CreateRequest{
		Filename: filename,
		Content:  content,
	}, response)
	return response.Filename, err
}

// Update replaces a record's content.
func (c *Client) Update(ctx context.Context, name, content string) error {
	return c.call(ctx, http.MethodPut, "/api/lyrics/"+url.PathEscape(name), &api.UpdateRequest{Content: content}, nil)
}

// Delete removes a record.
func (c *Client) Delete(ctx context.Context, name string) error {
	return c.call(ctx, http.MethodDelete, "/api/lyrics/"+url.PathEscape(name), nil, nil)
}

// Rename changes a record's name and returns the final new name.
func (c *Client) Rename(ctx context.Context, name, newName string) (string, error) {
	response := &api.MessageResponse{}
	err := c.call(ctx, http.MethodPatch, "/api/lyrics/"+url.PathEscape(name)+"/rename", &api.RenameRequest{
		NewFilename: newName,
	}, response)
	return response.NewFilename, err
}

// Search runs a full-text search over all records.
func (c *Client) Search(ctx context.Context, query string) ([]api.SearchResult, error) {
	var response []api.SearchResult
	err := c.call(ctx, http.MethodGet, "/api/search?q="+url.QueryEscape(query), nil, &response)
	return response, err
}

// ------------------------------------------------------------------------------------------------
// ~ Private methods
// ------------------------------------------------------------------------------------------------

func (c *Client) call(ctx context.Context, method, path string, request, response interface{}) error {
	var body io.Reader
	if request != nil {
		data, err := json.Marshal(request)
		if err != nil {
			return errors.Wrap(err, "failed to encode request")
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return errors.Wrap(err, "failed to create request")
	}
	if request != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "request failed")
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, "failed to read response")
	}

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := &api.Error{}
		if err := json.Unmarshal(data, apiErr); err == nil && apiErr.Message != "" {
			return errors.Wrap(apiErr, resp.Status)
		}
		return errors.Errorf("unexpected response %s", resp.Status)
	}

	if response != nil {
		if err := json.Unmarshal(data, response); err != nil {
			return errors.Wrap(err, "failed to decode response")
		}
	}
	return nil
}
