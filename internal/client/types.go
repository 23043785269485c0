// ABOUTME: Wire types for the link-indexing API
// ABOUTME: Users, API keys, links, pagination and dashboard statistics

package client

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// User is the authenticated principal as reported by the API.
// The bearer token is never part of it.
type User struct {
	ID               string    `json:"_id"`
	Email            string    `json:"email"`
	FirstName        string    `json:"firstName,omitempty"`
	LastName         string    `json:"lastName,omitempty"`
	Credits          int       `json:"credits"`
	SubscriptionTier string    `json:"subscriptionTier,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// DisplayName returns the user's first name, falling back to the email
func (u *User) DisplayName() string {
	if u.FirstName != "" {
		return u.FirstName
	}
	return u.Email
}

// Tier returns the subscription tier, "free" when unset
func (u *User) Tier() string {
	if u.SubscriptionTier == "" {
		return "free"
	}
	return u.SubscriptionTier
}

// authResponse is the login/register payload: a token plus the principal
type authResponse struct {
	Token string `json:"token"`
	User
}

// LoginRequest is the body of POST /auth/login
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterRequest is the body of POST /auth/register
type RegisterRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
}

// ProfileUpdate is the body of PUT /auth/profile
type ProfileUpdate struct {
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
}

// APIKeyRequest is the body of POST /auth/api-key
type APIKeyRequest struct {
	Name        string   `json:"name"`
	Permissions []string `json:"permissions"`
}

// DefaultPermissions are granted to new API keys when none are requested
var DefaultPermissions = []string{"read", "write"}

// APIKey describes an API key. Key is only populated in the generation
// response and cannot be retrieved again.
type APIKey struct {
	ID          string     `json:"_id,omitempty"`
	Name        string     `json:"name"`
	Key         string     `json:"key,omitempty"`
	Permissions []string   `json:"permissions"`
	CreatedAt   time.Time  `json:"createdAt"`
	LastUsed    *time.Time `json:"lastUsed,omitempty"`
}

// LinkStatus is the server-owned indexing status of a link
type LinkStatus string

const (
	StatusPending    LinkStatus = "pending"
	StatusProcessing LinkStatus = "processing"
	StatusIndexed    LinkStatus = "indexed"
	StatusFailed     LinkStatus = "failed"
)

// LinkStatuses lists every status in lifecycle order
var LinkStatuses = []LinkStatus{StatusPending, StatusProcessing, StatusIndexed, StatusFailed}

// ParseLinkStatus validates s as a link status. The empty string means "any".
func ParseLinkStatus(s string) (LinkStatus, error) {
	if s == "" {
		return "", nil
	}
	for _, st := range LinkStatuses {
		if string(st) == s {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown status %q (expected pending, processing, indexed or failed)", s)
}

// Priority is the client-chosen submission priority
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Priorities lists every priority from lowest to highest
var Priorities = []Priority{PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent}

// ParsePriority validates s as a priority. The empty string means normal.
func ParsePriority(s string) (Priority, error) {
	if s == "" {
		return PriorityNormal, nil
	}
	for _, p := range Priorities {
		if string(p) == s {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown priority %q (expected low, normal, high or urgent)", s)
}

// Link is a submitted URL tracked by the indexing service
type Link struct {
	ID          string     `json:"_id"`
	URL         string     `json:"url"`
	Status      LinkStatus `json:"status"`
	Priority    Priority   `json:"priority"`
	SubmittedAt time.Time  `json:"submittedAt"`
}

// Pagination is the paging block of GET /links
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

// LinkPage is one page of GET /links
type LinkPage struct {
	Links      []Link     `json:"links"`
	Pagination Pagination `json:"pagination"`
}

// ListLinksParams are the query parameters of GET /links.
// Zero values are omitted from the request.
type ListLinksParams struct {
	Page   int
	Limit  int
	Status LinkStatus
	Search string
}

// SubmitRequest is the body of POST /links
type SubmitRequest struct {
	URLs     []string `json:"urls"`
	Priority Priority `json:"priority"`
}

// SubmitResult is the payload of POST /links
type SubmitResult struct {
	Submitted int `json:"submitted"`
}

// Percent is a percentage the API may encode as a number or a string
type Percent float64

// UnmarshalJSON accepts 85.5, "85.5" and "85.5%"
func (p *Percent) UnmarshalJSON(data []byte) error {
	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		*p = Percent(f)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("invalid percent %s", string(data))
	}
	if s == "" {
		*p = 0
		return nil
	}
	if s[len(s)-1] == '%' {
		s = s[:len(s)-1]
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("invalid percent %q: %w", s, err)
	}
	*p = Percent(f)
	return nil
}

// Stats are the account-wide link counters of GET /dashboard/stats
type Stats struct {
	TotalLinks   int     `json:"totalLinks"`
	IndexedLinks int     `json:"indexedLinks"`
	PendingLinks int     `json:"pendingLinks"`
	SuccessRate  Percent `json:"successRate"`
}
