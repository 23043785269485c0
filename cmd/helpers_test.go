// ABOUTME: Test helpers for CLI commands
// ABOUTME: Fake indexing backend and a runtime wired to it

package cmd

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/Mujtaba-Asif/indexing-nest/internal/config"
	"github.com/Mujtaba-Asif/indexing-nest/internal/tokenstore"
)

const testToken = "test-token"

// fakeBackend is an in-memory indexing API
type fakeBackend struct {
	mu       sync.Mutex
	links    []map[string]any
	stats    map[string]any
	credits  int
	submits  [][]string
	deleted  []string
	retried  []string
	keys     []map[string]any
	failWith map[string]int // path -> status to fail with
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		credits: 50,
		stats: map[string]any{
			"totalLinks": 10, "indexedLinks": 9, "pendingLinks": 1, "successRate": "90.0",
		},
		failWith: map[string]int{},
	}
}

func (f *fakeBackend) user() map[string]any {
	return map[string]any{
		"_id": "u1", "email": "ada@example.com", "firstName": "Ada",
		"credits": f.credits, "subscriptionTier": "pro",
	}
}

func writeEnvelope(w http.ResponseWriter, status int, data any, msg string) {
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

func (f *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	path := r.URL.Path
	if status, ok := f.failWith[path]; ok {
		writeEnvelope(w, status, nil, "forced failure")
		return
	}

	if path == "/api/auth/login" {
		var req map[string]string
		json.NewDecoder(r.Body).Decode(&req)
		if req["password"] != "secret" {
			writeEnvelope(w, http.StatusUnauthorized, nil, "Invalid credentials")
			return
		}
		user := f.user()
		user["token"] = testToken
		writeEnvelope(w, http.StatusOK, user, "")
		return
	}

	if r.Header.Get("Authorization") != "Bearer "+testToken {
		writeEnvelope(w, http.StatusUnauthorized, nil, "Not authorized")
		return
	}

	switch {
	case path == "/api/auth/me":
		writeEnvelope(w, http.StatusOK, f.user(), "")
	case path == "/api/auth/profile":
		var patch map[string]string
		json.NewDecoder(r.Body).Decode(&patch)
		user := f.user()
		user["firstName"] = patch["firstName"]
		writeEnvelope(w, http.StatusOK, user, "")
	case path == "/api/dashboard/stats":
		writeEnvelope(w, http.StatusOK, map[string]any{"stats": f.stats}, "")
	case path == "/api/links" && r.Method == http.MethodGet:
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		items := f.links
		if limit > 0 && len(items) > limit {
			items = items[:limit]
		}
		writeEnvelope(w, http.StatusOK, map[string]any{
			"links":      items,
			"pagination": map[string]any{"page": 1, "limit": limit, "total": len(f.links), "pages": 1},
		}, "")
	case path == "/api/links" && r.Method == http.MethodPost:
		var req struct {
			URLs []string `json:"urls"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		f.submits = append(f.submits, req.URLs)
		f.credits -= len(req.URLs)
		writeEnvelope(w, http.StatusCreated, map[string]any{"submitted": len(req.URLs)}, "")
	case r.Method == http.MethodPost && strings.HasSuffix(path, "/retry"):
		f.retried = append(f.retried, strings.TrimSuffix(strings.TrimPrefix(path, "/api/links/"), "/retry"))
		writeEnvelope(w, http.StatusOK, nil, "")
	case r.Method == http.MethodDelete && strings.HasPrefix(path, "/api/links/"):
		f.deleted = append(f.deleted, strings.TrimPrefix(path, "/api/links/"))
		writeEnvelope(w, http.StatusOK, nil, "")
	case path == "/api/auth/api-key":
		var req map[string]any
		json.NewDecoder(r.Body).Decode(&req)
		writeEnvelope(w, http.StatusCreated, map[string]any{
			"_id": "k1", "name": req["name"], "key": "ink_live_123", "permissions": req["permissions"],
		}, "")
	case path == "/api/auth/api-keys":
		writeEnvelope(w, http.StatusOK, f.keys, "")
	case r.Method == http.MethodDelete && strings.HasPrefix(path, "/api/auth/api-keys/"):
		writeEnvelope(w, http.StatusOK, nil, "")
	default:
		writeEnvelope(w, http.StatusNotFound, nil, "Route not found")
	}
}

// newTestRuntime returns a runtime against the fake backend. When signedIn is
// true the token store already holds a valid credential.
func newTestRuntime(t *testing.T, backend *fakeBackend, signedIn bool) *runtime {
	t.Helper()
	server := httptest.NewServer(backend)
	t.Cleanup(server.Close)

	cfg := config.Default()
	cfg.APIURL = server.URL + "/api"
	store := tokenstore.NewMemory()
	if signedIn {
		store.Set(context.Background(), testToken)
	}
	rt := newRuntimeWith(cfg, store)
	t.Cleanup(rt.Close)
	return rt
}

// setJSON toggles JSON output for the duration of a test
func setJSON(t *testing.T, on bool) {
	t.Helper()
	prev := jsonOutput
	jsonOutput = on
	t.Cleanup(func() { jsonOutput = prev })
}
