package session

import (
	"context"
	"encoding/json"
	"time"

	"github.com/frahmantamala/inventory-management/internal/permission"
	"github.com/frahmantamala/inventory-management/internal/user"
)

type State string

const (
	StateAnonymous     State = "anonymous"
	StateAuthenticated State = "authenticated"
	StateExpired       State = "expired"
	StateLoggedOut     State = "logged_out"
)

// Snapshot maps permission names to capabilities in grant order. A name
// that is absent is different from a name whose bit is false.
type Snapshot struct {
	names []string
	caps  map[string]permission.Capabilities
}

func NewSnapshot() *Snapshot {
	return &Snapshot{caps: make(map[string]permission.Capabilities)}
}

// Add records caps under name, OR-merging with any earlier entry of the
// same name. The first insertion fixes the position.
func (s *Snapshot) Add(name string, caps permission.Capabilities) {
	if existing, ok := s.caps[name]; ok {
		s.caps[name] = existing.Merge(caps)
		return
	}
	s.names = append(s.names, name)
	s.caps[name] = caps
}

func (s *Snapshot) Lookup(name string) (permission.Capabilities, bool) {
	if s == nil {
		return permission.Capabilities{}, false
	}
	caps, ok := s.caps[name]
	return caps, ok
}

func (s *Snapshot) Names() []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.names)
}

// SnapshotEntry is the wire form of one snapshot row.
type SnapshotEntry struct {
	Name string `json:"name"`
	permission.Capabilities
}

func (s *Snapshot) Entries() []SnapshotEntry {
	if s == nil {
		return nil
	}
	out := make([]SnapshotEntry, 0, len(s.names))
	for _, name := range s.names {
		out = append(out, SnapshotEntry{Name: name, Capabilities: s.caps[name]})
	}
	return out
}

// MarshalJSON writes the snapshot as an array so the order survives.
func (s *Snapshot) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Entries())
}

func (s *Snapshot) UnmarshalJSON(data []byte) error {
	var entries []SnapshotEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return err
	}
	*s = *NewSnapshot()
	for _, e := range entries {
		s.Add(e.Name, e.Capabilities)
	}
	return nil
}

// Session is the typed value each request carries. Snapshot is nil for
// stateless bearer sessions.
type Session struct {
	ID          int64     `json:"id"`
	Token       string    `json:"token"`
	UserID      int64     `json:"user_id"`
	Username    string    `json:"username"`
	DisplayName string    `json:"display_name"`
	Role        user.Role `json:"role"`
	State       State     `json:"state"`
	Snapshot    *Snapshot `json:"snapshot,omitempty"`
	IssuedAt    time.Time `json:"issued_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}

func Anonymous() *Session {
	return &Session{State: StateAnonymous}
}

func (s *Session) IsAuthenticated() bool {
	return s != nil && s.State == StateAuthenticated
}

func (s *Session) IsAdmin() bool {
	return s != nil && s.Role == user.RoleAdmin
}

// Logout drops the snapshot and moves the session to LoggedOut. Calling it
// again is a no-op.
func (s *Session) Logout() {
	if s == nil {
		return
	}
	s.State = StateLoggedOut
	s.Snapshot = nil
}

// View is the client-facing shape of a session; it never carries the token.
type View struct {
	UserID      int64           `json:"user_id"`
	Username    string          `json:"username"`
	DisplayName string          `json:"display_name"`
	Role        user.Role       `json:"role"`
	State       State           `json:"state"`
	Permissions []SnapshotEntry `json:"permissions"`
	ExpiresAt   time.Time       `json:"expires_at"`
}

func (s *Session) View() View {
	perms := s.Snapshot.Entries()
	if perms == nil {
		perms = []SnapshotEntry{}
	}
	return View{
		UserID:      s.UserID,
		Username:    s.Username,
		DisplayName: s.DisplayName,
		Role:        s.Role,
		State:       s.State,
		Permissions: perms,
		ExpiresAt:   s.ExpiresAt,
	}
}

type contextKey struct{}

func NewContext(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, contextKey{}, sess)
}

// FromContext returns the request's session, or an anonymous one.
func FromContext(ctx context.Context) *Session {
	if sess, ok := ctx.Value(contextKey{}).(*Session); ok && sess != nil {
		return sess
	}
	return Anonymous()
}
