// ABOUTME: Tests for the session manager lifecycle
// ABOUTME: Covers restore, login ordering, logout and the principal invariant

package session

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Mujtaba-Asif/indexing-nest/internal/client"
	"github.com/Mujtaba-Asif/indexing-nest/internal/tokenstore"
)

func TestRestore_NoStoredCredential(t *testing.T) {
	b := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request to %s", r.URL.Path)
	})
	m, _, _ := newManager(t, b)

	res := m.Restore(context.Background())

	if res.Success {
		t.Error("expected restore without credential to report no session")
	}
	snap := m.Snapshot()
	if snap.State != Unauthenticated {
		t.Errorf("expected unauthenticated, got %s", snap.State)
	}
	if snap.Principal != nil || snap.LastError != "" {
		t.Errorf("expected empty session, got %+v", snap)
	}
	if n := b.requests.Load(); n != 0 {
		t.Errorf("expected 0 requests, got %d", n)
	}
}

func TestRestore_ValidCredential(t *testing.T) {
	b := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/auth/me" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer stored-token" {
			t.Errorf("expected stored bearer, got %q", got)
		}
		respond(w, http.StatusOK, testUser("ada@example.com"))
	})
	m, api, store := newManager(t, b)
	store.Set(context.Background(), "stored-token")

	var states []State
	m.Subscribe(func(s Snapshot) {
		checkInvariant(t, s)
		states = append(states, s.State)
	})

	res := m.Restore(context.Background())

	if !res.Success {
		t.Fatalf("expected success, got %+v", res)
	}
	snap := m.Snapshot()
	if snap.State != Authenticated || snap.Principal == nil {
		t.Fatalf("expected authenticated with principal, got %+v", snap)
	}
	if snap.Principal.Email != "ada@example.com" {
		t.Errorf("unexpected principal %+v", snap.Principal)
	}
	if !api.HasCredential() {
		t.Error("expected credential attached to client")
	}
	if len(states) != 2 || states[0] != Authenticating || states[1] != Authenticated {
		t.Errorf("expected authenticating then authenticated, got %v", states)
	}
}

func TestRestore_FailureDiscardsCredential(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"unauthorized", func(w http.ResponseWriter, r *http.Request) {
			respondError(w, http.StatusUnauthorized, "Token expired")
		}},
		{"server error", func(w http.ResponseWriter, r *http.Request) {
			respondError(w, http.StatusInternalServerError, "boom")
		}},
		{"malformed payload", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("<html>"))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newTestBackend(t, tt.handler)
			m, api, store := newManager(t, b)
			store.Set(context.Background(), "stale")

			res := m.Restore(context.Background())

			if res.Success {
				t.Error("expected failure")
			}
			snap := m.Snapshot()
			if snap.State != Unauthenticated || snap.Principal != nil {
				t.Errorf("expected unauthenticated, got %+v", snap)
			}
			if snap.LastError != "" {
				t.Errorf("restore must not surface an error, got %q", snap.LastError)
			}
			if _, err := store.Get(context.Background()); !errors.Is(err, tokenstore.ErrNotFound) {
				t.Errorf("expected stored credential discarded, got %v", err)
			}
			if api.HasCredential() {
				t.Error("expected credential detached")
			}
		})
	}
}

func TestRestore_NetworkFailure(t *testing.T) {
	b := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {})
	m, _, store := newManager(t, b)
	store.Set(context.Background(), "tok")
	b.server.Close()

	res := m.Restore(context.Background())

	if res.Success || res.Kind != client.KindNetwork {
		t.Errorf("expected network failure, got %+v", res)
	}
	if m.Snapshot().State != Unauthenticated {
		t.Errorf("expected unauthenticated, got %s", m.Snapshot().State)
	}
}

func TestRestore_ExpiredJWTSkipsNetwork(t *testing.T) {
	b := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request to %s", r.URL.Path)
	})
	m, _, store := newManager(t, b)
	store.Set(context.Background(), signedToken(t, time.Now().Add(-time.Hour)))

	m.Restore(context.Background())

	if m.Snapshot().State != Unauthenticated {
		t.Errorf("expected unauthenticated, got %s", m.Snapshot().State)
	}
	if b.requests.Load() != 0 {
		t.Errorf("expected no requests, got %d", b.requests.Load())
	}
	if _, err := store.Get(context.Background()); !errors.Is(err, tokenstore.ErrNotFound) {
		t.Error("expected expired credential discarded")
	}
}

func TestExpiredToken(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name  string
		token string
		want  bool
	}{
		{"opaque", "abc123", false},
		{"future exp", signedToken(t, now.Add(time.Hour)), false},
		{"past exp", signedToken(t, now.Add(-time.Minute)), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := expiredToken(tt.token, now); got != tt.want {
				t.Errorf("expiredToken() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLogin_Success(t *testing.T) {
	b := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/auth/login":
			var req client.LoginRequest
			json.NewDecoder(r.Body).Decode(&req)
			if req.Email != "ada@example.com" || req.Password != "secret" {
				t.Errorf("unexpected credentials %+v", req)
			}
			user := testUser(req.Email)
			user["token"] = "fresh-token"
			respond(w, http.StatusOK, user)
		case "/api/auth/me":
			if got := r.Header.Get("Authorization"); got != "Bearer fresh-token" {
				t.Errorf("expected fresh bearer, got %q", got)
			}
			respond(w, http.StatusOK, testUser("ada@example.com"))
		}
	})
	m, _, store := newManager(t, b)

	res := m.Login(context.Background(), "ada@example.com", "secret")

	if !res.Success {
		t.Fatalf("expected success, got %+v", res)
	}
	snap := m.Snapshot()
	if snap.State != Authenticated || snap.Principal == nil || snap.Principal.Email != "ada@example.com" {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
	if tok, _ := store.Get(context.Background()); tok != "fresh-token" {
		t.Errorf("expected token persisted, got %q", tok)
	}
	if res := m.Reload(context.Background()); !res.Success {
		t.Errorf("expected reload with attached credential to succeed, got %+v", res)
	}
}

func TestLogin_Failure(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		wantMsg string
	}{
		{"server message", func(w http.ResponseWriter, r *http.Request) {
			respondError(w, http.StatusBadRequest, "Invalid credentials")
		}, "Invalid credentials"},
		{"no message", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}, MsgLoginFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newTestBackend(t, tt.handler)
			m, _, store := newManager(t, b)
			store.Set(context.Background(), "previous")

			res := m.Login(context.Background(), "ada@example.com", "bad")

			if res.Success || res.Error != tt.wantMsg {
				t.Errorf("expected failure %q, got %+v", tt.wantMsg, res)
			}
			snap := m.Snapshot()
			if snap.State != AuthFailed || snap.Reason != tt.wantMsg || snap.LastError != tt.wantMsg {
				t.Errorf("unexpected snapshot %+v", snap)
			}
			checkInvariant(t, snap)
			if tok, _ := store.Get(context.Background()); tok != "previous" {
				t.Errorf("stored credential must be untouched, got %q", tok)
			}
		})
	}
}

func TestRegister_Success(t *testing.T) {
	b := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/auth/register" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req client.RegisterRequest
		json.NewDecoder(r.Body).Decode(&req)
		user := testUser(req.Email)
		user["token"] = "new-account"
		respond(w, http.StatusCreated, user)
	})
	m, _, store := newManager(t, b)

	res := m.Register(context.Background(), &client.RegisterRequest{
		Email: "grace@example.com", Password: "pw", FirstName: "Grace",
	})

	if !res.Success {
		t.Fatalf("expected success, got %+v", res)
	}
	if m.Snapshot().Principal.Email != "grace@example.com" {
		t.Errorf("unexpected principal %+v", m.Snapshot().Principal)
	}
	if tok, _ := store.Get(context.Background()); tok != "new-account" {
		t.Errorf("expected token persisted, got %q", tok)
	}
}

func TestRegister_FailureFallback(t *testing.T) {
	b := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	m, _, _ := newManager(t, b)

	res := m.Register(context.Background(), &client.RegisterRequest{Email: "x@example.com"})

	if res.Error != MsgRegisterFailed {
		t.Errorf("expected %q, got %q", MsgRegisterFailed, res.Error)
	}
}

// gatedLogins returns a handler whose login responses wait for the test to
// release them, keyed by email
func gatedLogins(gates map[string]chan struct{}) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req client.LoginRequest
		json.NewDecoder(r.Body).Decode(&req)
		<-gates[req.Email]
		if req.Password == "bad" {
			respondError(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		user := testUser(req.Email)
		user["token"] = "tok-" + req.Email
		respond(w, http.StatusOK, user)
	}
}

func TestLogin_LastCompletedWins(t *testing.T) {
	gates := map[string]chan struct{}{
		"a@example.com": make(chan struct{}),
		"b@example.com": make(chan struct{}),
	}
	b := newTestBackend(t, gatedLogins(gates))
	m, _, store := newManager(t, b)

	var wg sync.WaitGroup
	start := func(email string) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.Login(context.Background(), email, "pw")
		}()
	}
	waitBusy := func() {
		for i := 0; i < 200 && !m.IsBusy(OpLogin); i++ {
			time.Sleep(time.Millisecond)
		}
	}

	start("a@example.com")
	waitBusy()
	start("b@example.com")

	// b completes first, a completes last
	close(gates["b@example.com"])
	for i := 0; i < 500; i++ {
		if tok, _ := store.Get(context.Background()); tok == "tok-b@example.com" {
			break
		}
		time.Sleep(time.Millisecond)
	}
	close(gates["a@example.com"])
	wg.Wait()

	snap := m.Snapshot()
	if snap.Principal == nil || snap.Principal.Email != "a@example.com" {
		t.Errorf("expected last completed login (a) to win, got %+v", snap.Principal)
	}
	if tok, _ := store.Get(context.Background()); tok != "tok-a@example.com" {
		t.Errorf("expected a's token stored, got %q", tok)
	}
	if m.IsBusy(OpLogin) {
		t.Error("expected no login in flight")
	}
}

func TestLogin_FailureKeepsExistingSession(t *testing.T) {
	gates := map[string]chan struct{}{"a@example.com": make(chan struct{})}
	close(gates["a@example.com"])
	b := newTestBackend(t, gatedLogins(gates))
	m, _, _ := newManager(t, b)

	m.Login(context.Background(), "a@example.com", "pw")
	res := m.Login(context.Background(), "a@example.com", "bad")

	if res.Success {
		t.Fatal("expected failure")
	}
	snap := m.Snapshot()
	if snap.State != Authenticated || snap.Principal == nil {
		t.Errorf("expected existing session kept, got %+v", snap)
	}
	if snap.LastError != "Invalid credentials" {
		t.Errorf("expected last error recorded, got %q", snap.LastError)
	}
}

func TestLogout_DropsInflightLogin(t *testing.T) {
	gates := map[string]chan struct{}{"a@example.com": make(chan struct{})}
	b := newTestBackend(t, gatedLogins(gates))
	m, api, store := newManager(t, b)

	done := make(chan client.Result)
	go func() {
		done <- m.Login(context.Background(), "a@example.com", "pw")
	}()
	for i := 0; i < 200 && !m.IsBusy(OpLogin); i++ {
		time.Sleep(time.Millisecond)
	}
	if !m.IsBusy(OpLogin) {
		t.Fatal("expected login to be in flight")
	}

	m.Logout()
	close(gates["a@example.com"])
	res := <-done

	if !res.IsLocal() {
		t.Errorf("expected superseded login to fail locally, got %+v", res)
	}
	snap := m.Snapshot()
	if snap.State != Unauthenticated || snap.Principal != nil {
		t.Errorf("expected logout to stick, got %+v", snap)
	}
	if api.HasCredential() {
		t.Error("expected no credential attached")
	}
	if _, err := store.Get(context.Background()); !errors.Is(err, tokenstore.ErrNotFound) {
		t.Error("expected nothing stored")
	}
}

func TestLogout_FromAnyState(t *testing.T) {
	b := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusUnauthorized, "nope")
	})
	m, _, _ := newManager(t, b)

	m.Logout()
	m.Login(context.Background(), "a@example.com", "pw")
	if m.Snapshot().State != AuthFailed {
		t.Fatalf("expected auth failed, got %s", m.Snapshot().State)
	}
	m.Logout()

	if snap := m.Snapshot(); snap != (Snapshot{State: Unauthenticated}) {
		t.Errorf("expected clean state, got %+v", snap)
	}
}

func TestLogoutRestoreRoundTrip(t *testing.T) {
	b := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		user := testUser("a@example.com")
		user["token"] = "tok"
		respond(w, http.StatusOK, user)
	})
	m, _, _ := newManager(t, b)
	initial := m.Snapshot()

	m.Login(context.Background(), "a@example.com", "pw")
	m.Logout()
	before := b.requests.Load()
	m.Restore(context.Background())

	if got := m.Snapshot(); got != initial {
		t.Errorf("expected %+v, got %+v", initial, got)
	}
	if b.requests.Load() != before {
		t.Error("restore without credential must not hit the network")
	}
}

func TestInvariantAcrossLifecycle(t *testing.T) {
	var failLogin atomic.Bool
	b := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/auth/login":
			if failLogin.Load() {
				respondError(w, http.StatusUnauthorized, "Invalid credentials")
				return
			}
			user := testUser("a@example.com")
			user["token"] = "tok"
			respond(w, http.StatusOK, user)
		case "/api/auth/profile":
			respondError(w, http.StatusUnauthorized, "Token expired")
		default:
			respond(w, http.StatusOK, testUser("a@example.com"))
		}
	})
	m, _, store := newManager(t, b)

	count := 0
	unsubscribe := m.Subscribe(func(s Snapshot) {
		count++
		checkInvariant(t, s)
	})
	defer unsubscribe()

	ctx := context.Background()
	store.Set(ctx, "tok")
	m.Restore(ctx)
	m.Logout()
	failLogin.Store(true)
	m.Login(ctx, "a@example.com", "pw")
	m.ClearError()
	failLogin.Store(false)
	m.Login(ctx, "a@example.com", "pw")
	m.UpdateProfile(ctx, &client.ProfileUpdate{FirstName: "Ada"})
	m.Logout()

	if count == 0 {
		t.Error("expected notifications")
	}
}

func TestClearError(t *testing.T) {
	b := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusUnauthorized, "Invalid credentials")
	})
	m, _, _ := newManager(t, b)
	m.Login(context.Background(), "a@example.com", "pw")

	m.ClearError()

	snap := m.Snapshot()
	if snap.LastError != "" {
		t.Errorf("expected error cleared, got %q", snap.LastError)
	}
	if snap.State != AuthFailed {
		t.Errorf("ClearError must not change state, got %s", snap.State)
	}
}

func TestSubscribe_Unsubscribe(t *testing.T) {
	b := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {})
	m, _, _ := newManager(t, b)

	calls := 0
	unsubscribe := m.Subscribe(func(Snapshot) { calls++ })
	m.Logout()
	unsubscribe()
	m.Logout()

	if calls != 1 {
		t.Errorf("expected 1 notification, got %d", calls)
	}
}

func TestLoginFailure_OutlivesPendingRestore(t *testing.T) {
	meGate := make(chan struct{})
	b := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/auth/me":
			<-meGate
			respondError(w, http.StatusUnauthorized, "Token expired")
		case "/api/auth/login":
			respondError(w, http.StatusUnauthorized, "Invalid credentials")
		}
	})
	m, api, store := newManager(t, b)
	store.Set(context.Background(), "stored")

	done := make(chan client.Result)
	go func() { done <- m.Restore(context.Background()) }()
	for i := 0; i < 200 && b.requests.Load() == 0; i++ {
		time.Sleep(time.Millisecond)
	}

	m.Login(context.Background(), "a@example.com", "bad")
	close(meGate)
	<-done

	snap := m.Snapshot()
	if snap.State != AuthFailed || snap.LastError != "Invalid credentials" {
		t.Errorf("expected login failure to stand, got %+v", snap)
	}
	if api.HasCredential() {
		t.Error("expected no credential attached after a failed login")
	}
	if tok, _ := store.Get(context.Background()); tok != "stored" {
		t.Errorf("failed login must not touch the stored credential, got %q", tok)
	}
}

func TestLogout_StoreWriteOutsideLock(t *testing.T) {
	b := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		user := testUser("a@example.com")
		user["token"] = "tok"
		respond(w, http.StatusOK, user)
	})
	store := newBlockingStore()
	m := NewManager(client.New(b.server.URL+"/api"), store)
	m.Login(context.Background(), "a@example.com", "pw")

	loggedOut := make(chan struct{})
	go func() {
		m.Logout()
		close(loggedOut)
	}()
	<-store.entered

	snapped := make(chan Snapshot)
	go func() { snapped <- m.Snapshot() }()
	select {
	case snap := <-snapped:
		if snap.State != Unauthenticated {
			t.Errorf("expected unauthenticated while the store clears, got %s", snap.State)
		}
	case <-time.After(time.Second):
		t.Fatal("Snapshot blocked behind the token store")
	}

	close(store.release)
	<-loggedOut
	if !store.hadDeadline.Load() {
		t.Error("expected the store write to carry a deadline")
	}
	if _, err := store.Get(context.Background()); !errors.Is(err, tokenstore.ErrNotFound) {
		t.Errorf("expected credential cleared, got %v", err)
	}
}

func TestExpireGeneration_IgnoresOlderCredential(t *testing.T) {
	var n atomic.Int32
	b := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		user := testUser("a@example.com")
		user["token"] = "tok-" + string(rune('0'+n.Add(1)))
		respond(w, http.StatusOK, user)
	})
	m, _, _ := newManager(t, b)

	m.Login(context.Background(), "a@example.com", "pw")
	old := m.Generation()
	m.Login(context.Background(), "a@example.com", "pw")

	m.ExpireGeneration(old)
	if m.Snapshot().State != Authenticated {
		t.Fatal("a rejection of the previous credential must not end the new session")
	}

	m.Expire()
	if m.Snapshot().State != Unauthenticated {
		t.Error("expected the current credential's rejection to end the session")
	}
}

func TestSubscribe_DeliversInOrder(t *testing.T) {
	b := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		var req client.LoginRequest
		json.NewDecoder(r.Body).Decode(&req)
		respondError(w, http.StatusUnauthorized, "rejected "+req.Email)
	})
	m, _, _ := newManager(t, b)

	var mu sync.Mutex
	var last string
	unsubscribe := m.Subscribe(func(s Snapshot) {
		mu.Lock()
		last = s.LastError
		mu.Unlock()
	})
	defer unsubscribe()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			m.Login(context.Background(), string(rune('a'+i))+"@example.com", "pw")
		}(i)
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	if want := m.Snapshot().LastError; last != want {
		t.Errorf("expected last delivered snapshot to match the session (%q), got %q", want, last)
	}
}
