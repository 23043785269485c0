// ABOUTME: Session manager owning the authentication lifecycle
// ABOUTME: Acquires, persists, attaches and discards the bearer credential

package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Mujtaba-Asif/indexing-nest/internal/client"
	"github.com/Mujtaba-Asif/indexing-nest/internal/tokenstore"
)

// Fallback messages used when the server does not supply an error
const (
	MsgLoginFailed     = "Login failed"
	MsgRegisterFailed  = "Registration failed"
	MsgProfileFailed   = "Profile update failed"
	MsgKeyFailed       = "API key generation failed"
	MsgListKeysFailed  = "Failed to load API keys"
	MsgDeleteKeyFailed = "Failed to delete API key"
	MsgReloadFailed    = "Failed to load profile"
	MsgNotSignedIn     = "not signed in"
	MsgSignedOut       = "signed out before the request completed"
)

// API is the slice of the transport the manager drives
type API interface {
	SetCredential(token string)
	ClearCredential()
	Me(ctx context.Context) (*client.User, error)
	Login(ctx context.Context, email, password string) (string, *client.User, error)
	Register(ctx context.Context, req *client.RegisterRequest) (string, *client.User, error)
	UpdateProfile(ctx context.Context, update *client.ProfileUpdate) (*client.User, error)
	GenerateAPIKey(ctx context.Context, name string, permissions []string) (*client.APIKey, error)
	ListAPIKeys(ctx context.Context) ([]client.APIKey, error)
	DeleteAPIKey(ctx context.Context, id string) error
}

// storeTimeout bounds every token store write
const storeTimeout = 5 * time.Second

// Manager owns the session. It is safe for concurrent use; network calls and
// token store writes run outside the lock.
type Manager struct {
	api   API
	store tokenstore.Store
	now   func() time.Time

	mu        sync.Mutex
	state     State
	principal *client.User
	lastError string
	reason    string

	// epoch is bumped whenever the session is torn down; responses to
	// requests issued under an older epoch are dropped.
	epoch uint64
	// restoreID identifies the restore in flight, 0 when none is pending
	// or a login has superseded it.
	restoreID uint64
	seq       uint64
	// gen changes whenever a different credential is attached or detached
	gen uint64

	// storeMu orders token store writes; storeGen names the newest one so
	// an older write that lost the race is skipped
	storeMu  sync.Mutex
	storeGen uint64

	// notifyMu delivers snapshots one at a time, in the order they were taken
	notifyMu sync.Mutex

	busy    map[Op]int
	subs    map[int]func(Snapshot)
	nextSub int
}

// NewManager creates a manager in the Unauthenticated state
func NewManager(api API, store tokenstore.Store) *Manager {
	return &Manager{
		api:   api,
		store: store,
		now:   time.Now,
		busy:  make(map[Op]int),
		subs:  make(map[int]func(Snapshot)),
	}
}

// Snapshot returns a copy of the current session
func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

func (m *Manager) snapshotLocked() Snapshot {
	snap := Snapshot{
		State:     m.state,
		LastError: m.lastError,
		Reason:    m.reason,
	}
	if m.principal != nil {
		p := *m.principal
		snap.Principal = &p
	}
	return snap
}

// Subscribe registers fn to receive a snapshot after every change.
// Snapshots arrive in order; fn must not call methods that change the
// session. The returned func removes the subscription.
func (m *Manager) Subscribe(fn func(Snapshot)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = fn
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.subs, id)
	}
}

func (m *Manager) notify() {
	m.notifyMu.Lock()
	defer m.notifyMu.Unlock()

	m.mu.Lock()
	snap := m.snapshotLocked()
	subs := make([]func(Snapshot), 0, len(m.subs))
	for _, fn := range m.subs {
		subs = append(subs, fn)
	}
	m.mu.Unlock()

	for _, fn := range subs {
		fn(snap)
	}
}

// IsBusy reports whether an operation of the given kind is in flight
func (m *Manager) IsBusy(op Op) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.busy[op] > 0
}

// Restore is called once at startup. It settles Authenticated when the stored
// credential is accepted by the server and Unauthenticated otherwise. It
// never sets LastError.
func (m *Manager) Restore(ctx context.Context) client.Result {
	m.mu.Lock()
	epoch := m.epoch
	m.seq++
	id := m.seq
	m.restoreID = id
	m.busy[OpRestore]++
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.busy[OpRestore]--
		m.mu.Unlock()
	}()

	token, err := m.store.Get(ctx)
	if err != nil {
		if !errors.Is(err, tokenstore.ErrNotFound) {
			slog.Warn("Failed to read stored credential", "error", err)
		}
		return m.settleRestoreFailure(id, epoch, client.LocalFailure(MsgNotSignedIn))
	}

	if expiredToken(token, m.now()) {
		slog.Info("Stored credential has expired")
		return m.settleRestoreFailure(id, epoch, client.LocalFailure("session expired"))
	}

	m.mu.Lock()
	if m.restoreID != id || m.epoch != epoch {
		m.mu.Unlock()
		return client.LocalFailure(MsgSignedOut)
	}
	m.state = Authenticating
	m.principal = nil
	m.api.SetCredential(token)
	m.gen++
	m.mu.Unlock()
	m.notify()

	user, err := m.api.Me(ctx)
	if err != nil {
		slog.Info("Stored credential rejected", "kind", client.KindOf(err).String(), "error", err)
		return m.settleRestoreFailure(id, epoch, client.Failure(err, "session expired"))
	}

	m.mu.Lock()
	if m.restoreID != id || m.epoch != epoch {
		m.mu.Unlock()
		return client.LocalFailure(MsgSignedOut)
	}
	m.restoreID = 0
	m.state = Authenticated
	m.principal = user
	m.lastError = ""
	m.reason = ""
	m.mu.Unlock()
	m.notify()

	slog.Debug("Session restored", "user", user.ID)
	return client.OK()
}

// settleRestoreFailure discards the stored credential, unless a login or
// logout has taken over the session since the restore began
func (m *Manager) settleRestoreFailure(id, epoch uint64, res client.Result) client.Result {
	m.mu.Lock()
	if m.restoreID != id || m.epoch != epoch {
		m.mu.Unlock()
		return res
	}
	m.restoreID = 0
	clearStore := m.resetLocked()
	m.mu.Unlock()
	clearStore()
	m.notify()
	return res
}

// expiredToken reports whether token is a JWT whose exp claim has passed.
// Opaque tokens are never considered expired locally.
func expiredToken(token string, now time.Time) bool {
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return false
	}
	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return !exp.After(now)
}

// Login exchanges credentials for a token
func (m *Manager) Login(ctx context.Context, email, password string) client.Result {
	return m.authenticate(ctx, OpLogin, MsgLoginFailed, func(ctx context.Context) (string, *client.User, error) {
		return m.api.Login(ctx, email, password)
	})
}

// Register creates an account and signs in with it
func (m *Manager) Register(ctx context.Context, req *client.RegisterRequest) client.Result {
	return m.authenticate(ctx, OpRegister, MsgRegisterFailed, func(ctx context.Context) (string, *client.User, error) {
		return m.api.Register(ctx, req)
	})
}

// authenticate runs a credential exchange. Overlapping calls are not
// coalesced: the last response to complete decides the session.
func (m *Manager) authenticate(ctx context.Context, op Op, fallback string, exchange func(context.Context) (string, *client.User, error)) client.Result {
	m.mu.Lock()
	epoch := m.epoch
	m.busy[op]++
	// A credential exchange replaces any stored-credential check in flight
	m.restoreID = 0
	if m.state != Authenticated {
		m.state = Authenticating
		m.principal = nil
		m.reason = ""
	}
	m.mu.Unlock()
	m.notify()

	token, user, err := exchange(ctx)

	m.mu.Lock()
	m.busy[op]--
	if m.epoch != epoch {
		m.mu.Unlock()
		m.notify()
		return client.LocalFailure(MsgSignedOut)
	}

	if err != nil {
		res := client.Failure(err, fallback)
		m.lastError = res.Error
		if m.state != Authenticated {
			m.state = AuthFailed
			m.reason = res.Error
			m.principal = nil
			if m.api.HasCredential() {
				// left behind by a superseded restore
				m.api.ClearCredential()
				m.gen++
			}
		}
		m.mu.Unlock()
		m.notify()
		slog.Debug("Authentication failed", "op", string(op), "kind", res.Kind.String())
		return res
	}

	m.api.SetCredential(token)
	m.gen++
	m.state = Authenticated
	m.principal = user
	m.lastError = ""
	m.reason = ""
	persist := m.storeWriteLocked("set", func(ctx context.Context) error {
		return m.store.Set(ctx, token)
	})
	m.mu.Unlock()
	// A failed write only costs the next process its session
	persist()
	m.notify()

	slog.Debug("Authenticated", "op", string(op), "user", user.ID)
	return client.OK()
}

// Logout erases the credential and settles Unauthenticated. It always succeeds.
func (m *Manager) Logout() {
	m.mu.Lock()
	clearStore := m.resetLocked()
	m.mu.Unlock()
	clearStore()
	m.notify()
}

// Generation identifies the credential currently attached. Callers record it
// before a request so a late rejection of an older credential can be told
// apart from one of the current session.
func (m *Manager) Generation() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.gen
}

// Expire performs a silent logout after the server rejected the credential
// during an authenticated operation. It does nothing when not signed in.
func (m *Manager) Expire() {
	m.ExpireGeneration(m.Generation())
}

// ExpireGeneration is Expire for a request issued under generation gen. It
// does nothing when another credential has been attached since.
func (m *Manager) ExpireGeneration(gen uint64) {
	m.mu.Lock()
	if m.state != Authenticated || m.gen != gen {
		m.mu.Unlock()
		return
	}
	slog.Info("Session expired")
	clearStore := m.resetLocked()
	m.mu.Unlock()
	clearStore()
	m.notify()
}

// resetLocked tears the session down. Caller holds m.mu and runs the
// returned store write after releasing it.
func (m *Manager) resetLocked() func() {
	m.epoch++
	m.gen++
	m.restoreID = 0
	m.api.ClearCredential()
	m.state = Unauthenticated
	m.principal = nil
	m.lastError = ""
	m.reason = ""
	return m.storeWriteLocked("clear", m.store.Clear)
}

// storeWriteLocked queues fn as the newest token store write. Caller holds
// m.mu. The returned func performs the write unless a newer one has been
// queued meanwhile.
func (m *Manager) storeWriteLocked(op string, fn func(context.Context) error) func() {
	m.storeGen++
	gen := m.storeGen
	return func() {
		m.storeMu.Lock()
		defer m.storeMu.Unlock()

		m.mu.Lock()
		stale := m.storeGen != gen
		m.mu.Unlock()
		if stale {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			slog.Warn("Failed to update stored credential", "op", op, "error", err)
		}
	}
}

// ClearError dismisses LastError
func (m *Manager) ClearError() {
	m.mu.Lock()
	if m.lastError == "" {
		m.mu.Unlock()
		return
	}
	m.lastError = ""
	m.mu.Unlock()
	m.notify()
}
