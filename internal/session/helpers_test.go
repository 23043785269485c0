// ABOUTME: Test helpers for the session manager
// ABOUTME: Fake backend with request counting and JSON envelope writers

package session

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Mujtaba-Asif/indexing-nest/internal/client"
	"github.com/Mujtaba-Asif/indexing-nest/internal/tokenstore"
)

// respond writes a success envelope wrapping data
func respond(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{"success": status < 300, "data": data})
}

// respondError writes an error envelope
func respondError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{"success": false, "error": msg})
}

func testUser(email string) map[string]any {
	return map[string]any{
		"_id":       "u-" + email,
		"email":     email,
		"firstName": "Ada",
		"lastName":  "Lovelace",
		"credits":   100,
	}
}

// testBackend wraps an httptest server and counts requests
type testBackend struct {
	server   *httptest.Server
	requests atomic.Int32
}

func newTestBackend(t *testing.T, handler http.HandlerFunc) *testBackend {
	t.Helper()
	b := &testBackend{}
	b.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.requests.Add(1)
		handler(w, r)
	}))
	t.Cleanup(b.server.Close)
	return b
}

// newManager builds a manager against the backend with an in-memory store
func newManager(t *testing.T, b *testBackend) (*Manager, *client.Client, *tokenstore.Memory) {
	t.Helper()
	api := client.New(b.server.URL + "/api")
	store := tokenstore.NewMemory()
	return NewManager(api, store), api, store
}

// signedToken returns an HS256 JWT expiring at exp
func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "u-1",
		"exp": exp.Unix(),
	})
	signed, err := token.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return signed
}

// checkInvariant fails when a principal is held outside Authenticated
func checkInvariant(t *testing.T, snap Snapshot) {
	t.Helper()
	if (snap.Principal != nil) != (snap.State == Authenticated) {
		t.Errorf("invariant violated: state=%s principal=%v", snap.State, snap.Principal)
	}
}

// blockingStore holds Clear until release is closed
type blockingStore struct {
	*tokenstore.Memory
	entered     chan struct{}
	release     chan struct{}
	hadDeadline atomic.Bool
}

func newBlockingStore() *blockingStore {
	return &blockingStore{
		Memory:  tokenstore.NewMemory(),
		entered: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
}

func (s *blockingStore) Clear(ctx context.Context) error {
	_, ok := ctx.Deadline()
	s.hadDeadline.Store(ok)
	s.entered <- struct{}{}
	<-s.release
	return s.Memory.Clear(ctx)
}
