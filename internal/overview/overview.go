// ABOUTME: Dashboard overview combining account statistics and recent links
// ABOUTME: Fetches both concurrently and fails as a unit

package overview

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/Mujtaba-Asif/indexing-nest/internal/client"
)

// RecentLimit is the number of recent links shown on the dashboard
const RecentLimit = 5

// MsgLoadFailed is the fallback when the server gives no reason
const MsgLoadFailed = "Failed to load dashboard"

// API is the slice of the transport the overview needs
type API interface {
	DashboardStats(ctx context.Context) (*client.Stats, error)
	ListLinks(ctx context.Context, params client.ListLinksParams) (*client.LinkPage, error)
}

// SessionGuard is told when the server rejects the credential it handed out
type SessionGuard interface {
	Generation() uint64
	ExpireGeneration(gen uint64)
}

// Overview is the account summary shown on the dashboard
type Overview struct {
	Stats  client.Stats
	Recent []client.Link
}

// Loader loads the overview
type Loader struct {
	api   API
	guard SessionGuard
}

// NewLoader creates a loader. guard may be nil.
func NewLoader(api API, guard SessionGuard) *Loader {
	return &Loader{api: api, guard: guard}
}

// Load fetches statistics and the most recent links in parallel
func (l *Loader) Load(ctx context.Context) (*Overview, client.Result) {
	var (
		stats *client.Stats
		page  *client.LinkPage
	)

	var gen uint64
	if l.guard != nil {
		gen = l.guard.Generation()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		stats, err = l.api.DashboardStats(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		page, err = l.api.ListLinks(gctx, client.ListLinksParams{Limit: RecentLimit})
		return err
	})

	if err := g.Wait(); err != nil {
		if l.guard != nil && client.IsUnauthorized(err) {
			l.guard.ExpireGeneration(gen)
		}
		return nil, client.Failure(err, MsgLoadFailed)
	}

	recent := page.Links
	if len(recent) > RecentLimit {
		recent = recent[:RecentLimit]
	}
	return &Overview{Stats: *stats, Recent: recent}, client.OK()
}
