// ABOUTME: Authenticated account operations on the session manager
// ABOUTME: Profile updates, principal reload and API key management

package session

import (
	"context"
	"strings"

	"github.com/Mujtaba-Asif/indexing-nest/internal/client"
)

// ticket records the session an account operation started in
type ticket struct {
	epoch uint64
	gen   uint64
}

// begin checks the session is authenticated and marks op busy
func (m *Manager) begin(op Op) (ticket, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != Authenticated {
		return ticket{}, false
	}
	m.busy[op]++
	return ticket{epoch: m.epoch, gen: m.gen}, true
}

// finish clears the busy mark and turns a rejected credential into a silent
// logout. Reports whether the session is still the one the call started in.
func (m *Manager) finish(op Op, t ticket, err error) bool {
	m.mu.Lock()
	m.busy[op]--
	current := m.epoch == t.epoch
	m.mu.Unlock()

	if current && client.IsUnauthorized(err) {
		m.ExpireGeneration(t.gen)
		return false
	}
	return current
}

// UpdateProfile replaces the principal with the server's updated copy.
// It never changes State other than a silent logout on 401.
func (m *Manager) UpdateProfile(ctx context.Context, update *client.ProfileUpdate) client.Result {
	t, ok := m.begin(OpUpdateProfile)
	if !ok {
		return client.LocalFailure(MsgNotSignedIn)
	}

	user, err := m.api.UpdateProfile(ctx, update)
	current := m.finish(OpUpdateProfile, t, err)
	if err != nil {
		return client.Failure(err, MsgProfileFailed)
	}
	if !current {
		return client.LocalFailure(MsgSignedOut)
	}

	m.setPrincipal(t.epoch, user)
	return client.OK()
}

// Reload re-reads the principal so the credit balance matches the server
func (m *Manager) Reload(ctx context.Context) client.Result {
	t, ok := m.begin(OpReload)
	if !ok {
		return client.LocalFailure(MsgNotSignedIn)
	}

	user, err := m.api.Me(ctx)
	current := m.finish(OpReload, t, err)
	if err != nil {
		return client.Failure(err, MsgReloadFailed)
	}
	if !current {
		return client.LocalFailure(MsgSignedOut)
	}

	m.setPrincipal(t.epoch, user)
	return client.OK()
}

func (m *Manager) setPrincipal(epoch uint64, user *client.User) {
	m.mu.Lock()
	if m.epoch != epoch || m.state != Authenticated {
		m.mu.Unlock()
		return
	}
	m.principal = user
	m.mu.Unlock()
	m.notify()
}

// GenerateAPIKey creates a key. The returned key value is delivered only
// here and cannot be fetched again.
func (m *Manager) GenerateAPIKey(ctx context.Context, name string, permissions []string) (*client.APIKey, client.Result) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, client.LocalFailure("API key name is required")
	}
	t, ok := m.begin(OpGenerateKey)
	if !ok {
		return nil, client.LocalFailure(MsgNotSignedIn)
	}

	key, err := m.api.GenerateAPIKey(ctx, name, permissions)
	m.finish(OpGenerateKey, t, err)
	if err != nil {
		return nil, client.Failure(err, MsgKeyFailed)
	}
	return key, client.OK()
}

// APIKeys lists key metadata. Key values are never included.
func (m *Manager) APIKeys(ctx context.Context) ([]client.APIKey, client.Result) {
	t, ok := m.begin(OpListKeys)
	if !ok {
		return nil, client.LocalFailure(MsgNotSignedIn)
	}

	keys, err := m.api.ListAPIKeys(ctx)
	m.finish(OpListKeys, t, err)
	if err != nil {
		return nil, client.Failure(err, MsgListKeysFailed)
	}
	if keys == nil {
		keys = []client.APIKey{}
	}
	return keys, client.OK()
}

// DeleteAPIKey revokes a key by id
func (m *Manager) DeleteAPIKey(ctx context.Context, id string) client.Result {
	if strings.TrimSpace(id) == "" {
		return client.LocalFailure("API key id is required")
	}
	t, ok := m.begin(OpDeleteKey)
	if !ok {
		return client.LocalFailure(MsgNotSignedIn)
	}

	err := m.api.DeleteAPIKey(ctx, id)
	m.finish(OpDeleteKey, t, err)
	if err != nil {
		return client.Failure(err, MsgDeleteKeyFailed)
	}
	return client.OK()
}
