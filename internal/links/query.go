// ABOUTME: Query, view and draft types for the link list
// ABOUTME: Parses batch submissions into individual URLs

package links

import (
	"strings"

	"github.com/Mujtaba-Asif/indexing-nest/internal/client"
)

// DefaultPageSize matches the page size of the web dashboard
const DefaultPageSize = 10

// Query selects one page of the link collection
type Query struct {
	Status   client.LinkStatus // empty means any status
	Search   string            // substring of the URL, empty means no filter
	Page     int               // 1-indexed
	PageSize int
}

// params converts the query into request parameters
func (q Query) params() client.ListLinksParams {
	return client.ListLinksParams{
		Page:   q.Page,
		Limit:  q.PageSize,
		Status: q.Status,
		Search: q.Search,
	}
}

// QueryPatch is a partial query change. Nil fields are left alone.
type QueryPatch struct {
	Status *client.LinkStatus
	Search *string
}

// WithStatus returns a patch that sets the status filter
func WithStatus(status client.LinkStatus) QueryPatch {
	return QueryPatch{Status: &status}
}

// WithSearch returns a patch that sets the search term
func WithSearch(term string) QueryPatch {
	return QueryPatch{Search: &term}
}

// Draft is the pending batch submission
type Draft struct {
	Text     string
	Priority client.Priority
	Open     bool
}

// View is a copy of the list state handed to callers
type View struct {
	Query         Query
	Items         []client.Link
	TotalPages    int
	Total         int
	Loading       bool
	LastSyncError string
	Draft         Draft
}

// Item returns the cached link with the given id
func (v View) Item(id string) (client.Link, bool) {
	for _, link := range v.Items {
		if link.ID == id {
			return link, true
		}
	}
	return client.Link{}, false
}

// ParseURLs splits text on line breaks, trims each line and drops empty ones
func ParseURLs(text string) []string {
	lines := strings.Split(text, "\n")
	urls := make([]string, 0, len(lines))
	for _, line := range lines {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			urls = append(urls, trimmed)
		}
	}
	return urls
}
