// ABOUTME: Link and dashboard endpoints of the link-indexing API
// ABOUTME: Listing, submission, retry, deletion and account statistics

package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// ListLinks calls GET /links
func (c *Client) ListLinks(ctx context.Context, params ListLinksParams) (*LinkPage, error) {
	query := url.Values{}
	if params.Page > 0 {
		query.Set("page", strconv.Itoa(params.Page))
	}
	if params.Limit > 0 {
		query.Set("limit", strconv.Itoa(params.Limit))
	}
	if params.Status != "" {
		query.Set("status", string(params.Status))
	}
	if params.Search != "" {
		query.Set("search", params.Search)
	}

	var page LinkPage
	if err := c.do(ctx, http.MethodGet, "/links", query, nil, &page); err != nil {
		return nil, err
	}
	if page.Links == nil {
		page.Links = []Link{}
	}
	return &page, nil
}

// SubmitLinks calls POST /links
func (c *Client) SubmitLinks(ctx context.Context, urls []string, priority Priority) (*SubmitResult, error) {
	var result SubmitResult
	if err := c.do(ctx, http.MethodPost, "/links", nil, SubmitRequest{URLs: urls, Priority: priority}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// RetryLink calls POST /links/{id}/retry
func (c *Client) RetryLink(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPost, "/links/"+escape(id)+"/retry", nil, nil, nil)
}

// DeleteLink calls DELETE /links/{id}
func (c *Client) DeleteLink(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/links/"+escape(id), nil, nil, nil)
}

// DashboardStats calls GET /dashboard/stats. The counters are read from
// data.stats, or from data itself when the server sends them flat.
func (c *Client) DashboardStats(ctx context.Context) (*Stats, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/dashboard/stats", nil, nil, &raw); err != nil {
		return nil, err
	}

	var nested struct {
		Stats *Stats `json:"stats"`
	}
	if err := json.Unmarshal(raw, &nested); err != nil {
		return nil, &Error{Kind: KindDecode, Err: fmt.Errorf("invalid response from backend: %w", err)}
	}
	if nested.Stats != nil {
		return nested.Stats, nil
	}

	var flat Stats
	if err := json.Unmarshal(raw, &flat); err != nil {
		return nil, &Error{Kind: KindDecode, Err: fmt.Errorf("invalid response from backend: %w", err)}
	}
	return &flat, nil
}
