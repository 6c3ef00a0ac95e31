package store

import (
	"context"
	"os"
	"strings"

	"github.com/lyricnext/lyricserver/pkg/api"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

const (
	// SnippetLimit caps the content returned per search hit
	SnippetLimit = 200
	// PreviewLimit caps the per-record preview in the listing
	PreviewLimit = 100

	ellipsis = "..."

	searchConcurrency = 8
)

// Search matches the query case-insensitively as a substring against each
// record's name and full content. Results keep listing order, so they are
// deterministic. The scan is linear over all records, which is fine at the
// scale of a personal lyric collection.
func (s *Store) Search(ctx context.Context, query string) ([]api.SearchResult, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil, ErrInvalidInput
	}

	names, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	// reads run concurrently, hits stay index-aligned with the sorted listing
	hits := make([]*api.SearchResult, len(names))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(searchConcurrency)
	for i, name := range names {
		g.Go(func() error {
			data, err := s.storage.Read(gctx, name)
			if errors.Is(err, os.ErrNotExist) {
				// deleted between List and Read
				return nil
			}
			if err != nil {
				return errors.Wrapf(err, "failed to read record %q", name)
			}
			content := string(data)
			if strings.Contains(strings.ToLower(name), q) ||
				strings.Contains(strings.ToLower(content), q) {
				hits[i] = &api.SearchResult{
					Filename: name,
					Content:  Snippet(content),
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, s.fail("search", err)
	}

	results := make([]api.SearchResult, 0, len(hits))
	for _, hit := range hits {
		if hit != nil {
			results = append(results, *hit)
		}
	}
	return results, nil
}

// Snippet truncates content for display in search results.
func Snippet(content string) string {
	return truncate(content, SnippetLimit)
}

// Preview truncates content for display in the listing.
func Preview(content string) string {
	return truncate(content, PreviewLimit)
}

// truncate limits content to the given number of characters, appending an
// ellipsis marker when anything was cut off. Counted in runes, not bytes,
// so multi-byte text is never split in the middle of a character.
func truncate(content string, limit int) string {
	runes := []rune(content)
	if len(runes) <= limit {
		return content
	}
	return string(runes[:limit]) + ellipsis
}
