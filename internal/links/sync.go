// ABOUTME: Keeps a filtered, paginated link list consistent with the server
// ABOUTME: Applies only the newest fetch and re-fetches after every mutation

package links

import (
	"context"
	"log/slog"
	"sync"

	"github.com/Mujtaba-Asif/indexing-nest/internal/client"
)

// Fallback and local messages
const (
	MsgFetchFailed     = "Failed to load links"
	MsgSubmitFailed    = "Failed to submit links"
	MsgRetryFailed     = "Failed to retry link"
	MsgDeleteFailed    = "Failed to delete link"
	MsgEmptySubmission = "Please enter at least one URL"
	MsgRetryNotFailed  = "Only failed links can be retried"
	MsgSuperseded      = "superseded by a newer request"
)

// Op names a list operation for busy tracking
type Op string

const (
	OpFetch  Op = "fetch"
	OpSubmit Op = "submit"
	OpRetry  Op = "retry"
	OpRemove Op = "remove"
)

// API is the slice of the transport the list drives
type API interface {
	ListLinks(ctx context.Context, params client.ListLinksParams) (*client.LinkPage, error)
	SubmitLinks(ctx context.Context, urls []string, priority client.Priority) (*client.SubmitResult, error)
	RetryLink(ctx context.Context, id string) error
	DeleteLink(ctx context.Context, id string) error
}

// SessionGuard is told when the server rejects the credential. Generation
// is read before each request so only a rejection of the credential still
// attached ends the session.
type SessionGuard interface {
	Generation() uint64
	ExpireGeneration(gen uint64)
}

// Sync owns the link list view. It never touches the credential.
type Sync struct {
	api      API
	guard    SessionGuard
	pageSize int

	mu            sync.Mutex
	query         Query
	items         []client.Link
	totalPages    int
	total         int
	lastSyncError string
	draft         Draft

	// generation identifies the newest fetch; older responses are dropped
	generation uint64
	settled    uint64

	busy    map[Op]int
	subs    map[int]func(View)
	nextSub int

	// notifyMu delivers views one at a time, in the order they were taken
	notifyMu sync.Mutex
}

// NewSync creates an empty list on page 1. guard may be nil.
func NewSync(api API, guard SessionGuard, pageSize int) *Sync {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Sync{
		api:        api,
		guard:      guard,
		pageSize:   pageSize,
		query:      Query{Page: 1, PageSize: pageSize},
		items:      []client.Link{},
		totalPages: 1,
		draft:      Draft{Priority: client.PriorityNormal},
		busy:       make(map[Op]int),
		subs:       make(map[int]func(View)),
	}
}

// View returns a copy of the current list state
func (s *Sync) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

func (s *Sync) viewLocked() View {
	items := make([]client.Link, len(s.items))
	copy(items, s.items)
	return View{
		Query:         s.query,
		Items:         items,
		TotalPages:    s.totalPages,
		Total:         s.total,
		Loading:       s.settled != s.generation,
		LastSyncError: s.lastSyncError,
		Draft:         s.draft,
	}
}

// Subscribe registers fn to receive the view after every change. Views
// arrive in order; fn must not call methods that change the list. The
// returned func removes the subscription.
func (s *Sync) Subscribe(fn func(View)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

func (s *Sync) notify() {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	view := s.viewLocked()
	subs := make([]func(View), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(view)
	}
}

// IsBusy reports whether an operation of the given kind is in flight
func (s *Sync) IsBusy(op Op) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if op == OpFetch {
		return s.settled != s.generation
	}
	return s.busy[op] > 0
}

// Load replaces the whole query and fetches it. The page is clamped once the
// server reports how many pages exist.
func (s *Sync) Load(ctx context.Context, q Query) client.Result {
	s.mu.Lock()
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize <= 0 {
		q.PageSize = s.query.PageSize
	}
	s.query = q
	s.mu.Unlock()
	return s.fetch(ctx)
}

// SetQuery merges patch into the query and fetches. Changing the status
// filter or the search term returns to page 1.
func (s *Sync) SetQuery(ctx context.Context, patch QueryPatch) client.Result {
	s.mu.Lock()
	if patch.Status != nil {
		s.query.Status = *patch.Status
		s.query.Page = 1
	}
	if patch.Search != nil {
		s.query.Search = *patch.Search
		s.query.Page = 1
	}
	s.mu.Unlock()
	return s.fetch(ctx)
}

// SetPage moves to page n, clamped into [1, TotalPages], keeping the filters
func (s *Sync) SetPage(ctx context.Context, n int) client.Result {
	s.mu.Lock()
	s.query.Page = clamp(n, 1, s.totalPages)
	s.mu.Unlock()
	return s.fetch(ctx)
}

// Refresh re-fetches the current query and page
func (s *Sync) Refresh(ctx context.Context) client.Result {
	return s.fetch(ctx)
}

// fetch issues one list request. Only the response to the most recently
// issued fetch is applied; a failed fetch keeps the previous items.
func (s *Sync) fetch(ctx context.Context) client.Result {
	s.mu.Lock()
	s.generation++
	gen := s.generation
	q := s.query
	s.mu.Unlock()
	s.notify()

	cred := s.credential()
	page, err := s.api.ListLinks(ctx, q.params())

	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		slog.Debug("Dropped stale link page", "generation", gen, "page", q.Page)
		return client.LocalFailure(MsgSuperseded)
	}

	if err != nil {
		res := client.Failure(err, MsgFetchFailed)
		s.settled = gen
		s.lastSyncError = res.Error
		s.mu.Unlock()
		s.notify()
		s.checkCredential(cred, err)
		return res
	}

	pages := max(1, page.Pagination.Pages)
	if q.Page > pages {
		// The page no longer exists, fetch the last one instead
		s.query.Page = pages
		s.totalPages = pages
		s.mu.Unlock()
		return s.fetch(ctx)
	}

	s.settled = gen
	s.items = page.Links
	s.totalPages = pages
	s.total = page.Pagination.Total
	s.lastSyncError = ""
	s.mu.Unlock()
	s.notify()
	return client.OK()
}

// SubmitBatch submits one URL per non-blank line of text. On failure the
// draft keeps the text so the user can correct it.
func (s *Sync) SubmitBatch(ctx context.Context, text string, priority client.Priority) (int, client.Result) {
	if priority == "" {
		priority = client.PriorityNormal
	}
	s.mu.Lock()
	s.draft.Text = text
	s.draft.Priority = priority
	s.mu.Unlock()

	urls := ParseURLs(text)
	if len(urls) == 0 {
		return 0, client.LocalFailure(MsgEmptySubmission)
	}
	if _, err := client.ParsePriority(string(priority)); err != nil {
		return 0, client.LocalFailure(err.Error())
	}

	s.begin(OpSubmit)
	cred := s.credential()
	result, err := s.api.SubmitLinks(ctx, urls, priority)
	s.end(OpSubmit)

	if err != nil {
		s.checkCredential(cred, err)
		return 0, client.Failure(err, MsgSubmitFailed)
	}

	s.mu.Lock()
	s.draft = Draft{Priority: client.PriorityNormal}
	s.mu.Unlock()
	s.notify()

	slog.Debug("Submitted links", "count", result.Submitted, "priority", string(priority))
	s.Refresh(ctx)
	return result.Submitted, client.OK()
}

// Retry asks the server to retry a failed link. Links whose cached status is
// not failed are rejected without a request; unknown ids go to the server.
func (s *Sync) Retry(ctx context.Context, id string) client.Result {
	s.mu.Lock()
	for _, link := range s.items {
		if link.ID == id && link.Status != client.StatusFailed {
			s.mu.Unlock()
			return client.LocalFailure(MsgRetryNotFailed)
		}
	}
	s.mu.Unlock()

	s.begin(OpRetry)
	cred := s.credential()
	err := s.api.RetryLink(ctx, id)
	s.end(OpRetry)

	if err != nil {
		s.checkCredential(cred, err)
		return client.Failure(err, MsgRetryFailed)
	}
	s.Refresh(ctx)
	return client.OK()
}

// Remove deletes a link. The caller is responsible for confirmation.
func (s *Sync) Remove(ctx context.Context, id string) client.Result {
	s.begin(OpRemove)
	cred := s.credential()
	err := s.api.DeleteLink(ctx, id)
	s.end(OpRemove)

	if err != nil {
		s.checkCredential(cred, err)
		return client.Failure(err, MsgDeleteFailed)
	}
	s.Refresh(ctx)
	return client.OK()
}

// Draft returns the pending submission
func (s *Sync) Draft() Draft {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft
}

// OpenForm marks the submission form as open
func (s *Sync) OpenForm() {
	s.mu.Lock()
	s.draft.Open = true
	s.mu.Unlock()
	s.notify()
}

// CloseForm closes the submission form, keeping its contents
func (s *Sync) CloseForm() {
	s.mu.Lock()
	s.draft.Open = false
	s.mu.Unlock()
	s.notify()
}

// SetDraft replaces the draft text and priority
func (s *Sync) SetDraft(text string, priority client.Priority) {
	s.mu.Lock()
	s.draft.Text = text
	s.draft.Priority = priority
	s.mu.Unlock()
	s.notify()
}

func (s *Sync) begin(op Op) {
	s.mu.Lock()
	s.busy[op]++
	s.mu.Unlock()
	s.notify()
}

func (s *Sync) end(op Op) {
	s.mu.Lock()
	s.busy[op]--
	s.mu.Unlock()
	s.notify()
}

// Reset returns the list to its initial state for a new session. Responses
// to fetches issued before the reset are dropped.
func (s *Sync) Reset() {
	s.mu.Lock()
	s.generation++
	s.settled = s.generation
	s.query = Query{Page: 1, PageSize: s.pageSize}
	s.items = []client.Link{}
	s.totalPages = 1
	s.total = 0
	s.lastSyncError = ""
	s.draft = Draft{Priority: client.PriorityNormal}
	s.mu.Unlock()
	s.notify()
}

// credential returns the guard's generation before a request
func (s *Sync) credential() uint64 {
	if s.guard == nil {
		return 0
	}
	return s.guard.Generation()
}

func (s *Sync) checkCredential(gen uint64, err error) {
	if s.guard != nil && client.IsUnauthorized(err) {
		s.guard.ExpireGeneration(gen)
	}
}

func clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}
