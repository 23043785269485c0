// ABOUTME: Session states and the snapshot handed to subscribers
// ABOUTME: A snapshot is a copy, safe to read after the manager moves on

package session

import "github.com/Mujtaba-Asif/indexing-nest/internal/client"

// State is the authentication lifecycle state
type State int

const (
	Unauthenticated State = iota
	Authenticating
	Authenticated
	AuthFailed
)

// String returns the string representation of a State
func (s State) String() string {
	switch s {
	case Unauthenticated:
		return "unauthenticated"
	case Authenticating:
		return "authenticating"
	case Authenticated:
		return "authenticated"
	case AuthFailed:
		return "auth_failed"
	default:
		return "unknown"
	}
}

// Op names a manager operation for busy tracking
type Op string

const (
	OpRestore       Op = "restore"
	OpLogin         Op = "login"
	OpRegister      Op = "register"
	OpReload        Op = "reload"
	OpUpdateProfile Op = "update_profile"
	OpGenerateKey   Op = "generate_api_key"
	OpListKeys      Op = "list_api_keys"
	OpDeleteKey     Op = "delete_api_key"
)

// Snapshot is a point-in-time copy of the session.
// Principal is non-nil exactly when State is Authenticated.
type Snapshot struct {
	State     State
	Principal *client.User
	LastError string
	Reason    string // set when State is AuthFailed
}

// SignedIn reports whether the snapshot holds an authenticated session
func (s Snapshot) SignedIn() bool {
	return s.State == Authenticated
}
