// ABOUTME: Test helpers for the TUI app
// ABOUTME: Fake indexing backend and an app wired to real core services

package tui

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/Mujtaba-Asif/indexing-nest/internal/client"
	"github.com/Mujtaba-Asif/indexing-nest/internal/links"
	"github.com/Mujtaba-Asif/indexing-nest/internal/overview"
	"github.com/Mujtaba-Asif/indexing-nest/internal/session"
	"github.com/Mujtaba-Asif/indexing-nest/internal/tokenstore"
)

func respond(w http.ResponseWriter, status int, data any, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	body := map[string]any{"success": status < 300}
	if data != nil {
		body["data"] = data
	}
	if msg != "" {
		body["error"] = msg
	}
	json.NewEncoder(w).Encode(body)
}

// backend is a minimal indexing API
type backend struct {
	mu       sync.Mutex
	credits  int
	links    []map[string]any
	deleted  []string
	failWith map[string]int // "METHOD path" -> status
}

func newBackend() *backend {
	return &backend{
		credits: 20,
		links: []map[string]any{
			{"_id": "l1", "url": "https://example.com/one", "status": "indexed", "priority": "normal"},
			{"_id": "l2", "url": "https://example.com/two", "status": "failed", "priority": "high"},
		},
		failWith: map[string]int{},
	}
}

func (b *backend) user() map[string]any {
	return map[string]any{"_id": "u1", "email": "ada@example.com", "firstName": "Ada", "credits": b.credits}
}

func (b *backend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	route := r.Method + " " + r.URL.Path
	if status, ok := b.failWith[route]; ok {
		msg := ""
		if status != http.StatusUnauthorized {
			msg = "Insufficient credits"
		}
		respond(w, status, nil, msg)
		return
	}

	switch route {
	case "POST /api/auth/login":
		var req map[string]string
		json.NewDecoder(r.Body).Decode(&req)
		if req["password"] != "secret" {
			respond(w, http.StatusUnauthorized, nil, "Invalid credentials")
			return
		}
		u := b.user()
		u["token"] = "tok"
		respond(w, http.StatusOK, u, "")
	case "GET /api/auth/me":
		respond(w, http.StatusOK, b.user(), "")
	case "GET /api/dashboard/stats":
		respond(w, http.StatusOK, map[string]any{"stats": map[string]any{
			"totalLinks": len(b.links), "indexedLinks": 1, "pendingLinks": 0, "successRate": "50.0",
		}}, "")
	case "GET /api/links":
		respond(w, http.StatusOK, map[string]any{
			"links":      b.links,
			"pagination": map[string]any{"page": 1, "limit": 10, "total": len(b.links), "pages": 1},
		}, "")
	case "POST /api/links":
		var req struct {
			URLs []string `json:"urls"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		for _, u := range req.URLs {
			b.links = append(b.links, map[string]any{"_id": u, "url": u, "status": "pending", "priority": "normal"})
		}
		b.credits -= len(req.URLs)
		respond(w, http.StatusCreated, map[string]any{"submitted": len(req.URLs)}, "")
	case "DELETE /api/links/l1":
		b.deleted = append(b.deleted, "l1")
		b.links = b.links[1:]
		respond(w, http.StatusOK, nil, "")
	default:
		respond(w, http.StatusNotFound, nil, "not found")
	}
}

func (b *backend) fail(route string, status int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failWith[route] = status
}

// newTestApp builds an app over b; the stored credential is empty
func newTestApp(t *testing.T, b *backend) *App {
	t.Helper()
	srv := httptest.NewServer(b)
	t.Cleanup(srv.Close)

	api := client.New(srv.URL + "/api")
	mgr := session.NewManager(api, tokenstore.NewMemory())
	app := New(Deps{
		Session:  mgr,
		Links:    links.NewSync(api, mgr, 10),
		Overview: overview.NewLoader(api, mgr),
		BaseURL:  srv.URL + "/api",
	})
	app.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	app.Update(app.restore()())
	return app
}

// run executes cmd and feeds its message back into the app
func run(t *testing.T, a *App, cmd tea.Cmd) tea.Cmd {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a command")
	}
	_, next := a.Update(cmd())
	return next
}

// signIn logs the app in and leaves it on the menu
func signIn(t *testing.T, a *App) {
	t.Helper()
	_, cmd := a.Update(loginMsg("secret"))
	run(t, a, cmd)
	if a.screen != ScreenMenu {
		t.Fatalf("expected menu after sign-in, got %d (err %q)", a.screen, a.err)
	}
}
