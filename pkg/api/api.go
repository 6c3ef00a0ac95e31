// Package api holds the request and response shapes of the lyric
// manager HTTP API, shared between the server handler and the client.
package api

import (
	"github.com/lyricnext/lyricserver/pkg/paging"
)

// CreateRequest creates a new lyric file
type CreateRequest struct {
	Filename string `json:"filename"`
	Content  string `json:"content"`
}

// UpdateRequest replaces the content of an existing lyric file
type UpdateRequest struct {
	Content string `json:"content"`
}

// RenameRequest renames a lyric file
type RenameRequest struct {
	NewFilename string `json:"newFilename"`
}

// LoginRequest carries the shared admin password
type LoginRequest struct {
	Password string `json:"password"`
}

// Lyric is a single named record and its full content
type Lyric struct {
	Filename string `json:"filename"`
	Content  string `json:"content"`
}

// SearchResult is one search hit: the matching file and a content snippet
type SearchResult struct {
	Filename string `json:"filename"`
	Content  string `json:"content"`
}

// ListResponse is one page of the sorted record listing
type ListResponse struct {
	Files      []string          `json:"files"`
	Previews   map[string]string `json:"previews,omitempty"`
	Pagination paging.Info       `json:"pagination"`
}

// MessageResponse acknowledges a successful mutation
type MessageResponse struct {
	Message     string `json:"message"`
	Filename    string `json:"filename,omitempty"`
	NewFilename string `json:"newFilename,omitempty"`
}

// StatusResponse reports the authentication state of the caller's session
type StatusResponse struct {
	Authenticated bool `json:"authenticated"`
}
