package session

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/frahmantamala/inventory-management/internal"
	userDatamodel "github.com/frahmantamala/inventory-management/internal/core/datamodel/user"
	"github.com/frahmantamala/inventory-management/internal/core/events"
	"github.com/frahmantamala/inventory-management/internal/grant"
	"github.com/frahmantamala/inventory-management/internal/permission"
	"github.com/frahmantamala/inventory-management/internal/user"
	"golang.org/x/sync/singleflight"
)

type RepositoryAPI interface {
	Create(ctx context.Context, s *userDatamodel.UserSession) error
	GetByToken(ctx context.Context, token string) (*userDatamodel.UserSession, error)
	Deactivate(ctx context.Context, id int64) (bool, error)
}

type Authenticator interface {
	Authenticate(ctx context.Context, username, password string) (*user.Identity, error)
	GetByID(ctx context.Context, id int64) (*user.User, error)
}

type Catalog interface {
	ListActive(ctx context.Context) ([]*permission.Permission, error)
}

type GrantLister interface {
	ListActiveForUser(ctx context.Context, userID int64) ([]*grant.ActiveGrant, error)
}

type Dependencies struct {
	Repo      RepositoryAPI
	Store     Store
	Users     Authenticator
	Catalog   Catalog
	Grants    GrantLister
	Tokens    TokenGenerator
	Publisher events.Publisher
}

// Authority logs users in and turns tokens back into sessions.
type Authority struct {
	Dependencies
	ttl     time.Duration
	logger  *slog.Logger
	catalog singleflight.Group
	now     func() time.Time
}

func NewAuthority(deps Dependencies, ttl time.Duration, logger *slog.Logger) *Authority {
	if ttl <= 0 {
		ttl = 8 * time.Hour
	}
	return &Authority{
		Dependencies: deps,
		ttl:          ttl,
		logger:       logger,
		now:          time.Now,
	}
}

func (a *Authority) TTL() time.Duration {
	return a.ttl
}

// Login authenticates the caller, freezes their permission snapshot and
// starts a session. The snapshot is not refreshed until the next login.
func (a *Authority) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	identity, err := a.Users.Authenticate(ctx, req.Username, req.Password)
	if err != nil {
		a.logger.WarnContext(ctx, "login rejected", "username", req.Username, "ip_address", req.IPAddress, "error", err)
		return nil, a.passThrough("failed to authenticate", err)
	}

	snapshot, err := a.buildSnapshot(ctx, identity)
	if err != nil {
		return nil, a.internal("failed to build permission snapshot", err)
	}

	token, err := GenerateRandomToken()
	if err != nil {
		return nil, a.internal("failed to generate session token", err)
	}

	now := a.now()
	row := &userDatamodel.UserSession{
		UserID:       identity.UserID,
		SessionToken: token,
		LoginTime:    now,
		ExpiryTime:   now.Add(a.ttl),
		IPAddress:    req.IPAddress,
		UserAgent:    req.UserAgent,
		IsActive:     true,
	}
	if err := a.Repo.Create(ctx, row); err != nil {
		return nil, a.internal("failed to persist session", err)
	}

	sess := &Session{
		ID:          row.ID,
		Token:       token,
		UserID:      identity.UserID,
		Username:    identity.Username,
		DisplayName: identity.DisplayName,
		Role:        identity.Role,
		State:       StateAuthenticated,
		Snapshot:    snapshot,
		IssuedAt:    now,
		ExpiresAt:   row.ExpiryTime,
	}
	if err := a.Store.Save(ctx, sess, a.ttl); err != nil {
		if _, derr := a.Repo.Deactivate(ctx, row.ID); derr != nil {
			a.logger.WarnContext(ctx, "failed to deactivate orphaned session", "session_id", row.ID, "error", derr)
		}
		return nil, a.internal("failed to store session", err)
	}

	accessToken, tokenExpiresAt, err := a.Tokens.GenerateAccessToken(identity)
	if err != nil {
		return nil, a.internal("failed to issue access token", err)
	}

	a.logger.InfoContext(ctx, "user logged in",
		"user_id", identity.UserID,
		"session_id", row.ID,
		"role", identity.Role,
		"permissions", snapshot.Len())
	a.publish(ctx, events.NewSessionLoginEvent(identity.UserID, row.ID))

	return &LoginResult{
		Session:        sess,
		AccessToken:    accessToken,
		TokenExpiresAt: tokenExpiresAt,
	}, nil
}

func (a *Authority) buildSnapshot(ctx context.Context, identity *user.Identity) (*Snapshot, error) {
	snapshot := NewSnapshot()

	if identity.Role == user.RoleAdmin {
		// The load is shared by concurrent admin logins; one caller going
		// away must not fail the others.
		shared := context.WithoutCancel(ctx)
		v, err, _ := a.catalog.Do("catalog", func() (interface{}, error) {
			return a.Catalog.ListActive(shared)
		})
		if err != nil {
			return nil, err
		}
		for _, p := range v.([]*permission.Permission) {
			snapshot.Add(p.Name, permission.FullCapabilities())
		}
		return snapshot, nil
	}

	grants, err := a.Grants.ListActiveForUser(ctx, identity.UserID)
	if err != nil {
		return nil, err
	}
	for _, g := range grants {
		snapshot.Add(g.PermissionName, g.Capabilities())
	}
	return snapshot, nil
}

// Resolve turns a session token into a session. Unknown tokens resolve to
// an anonymous session; lapsed ones to an expired session.
func (a *Authority) Resolve(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return Anonymous(), nil
	}

	row, err := a.Repo.GetByToken(ctx, token)
	if err != nil {
		return nil, a.internal("failed to load session", err)
	}
	if row == nil {
		return Anonymous(), nil
	}

	sess, err := a.Store.Load(ctx, token)
	if err != nil {
		return nil, a.internal("failed to load session", err)
	}

	now := a.now()
	if sess == nil {
		return expired(row), nil
	}
	if !row.Live(now) || !now.Before(sess.ExpiresAt) {
		if err := a.Store.Delete(ctx, token); err != nil {
			a.logger.WarnContext(ctx, "failed to drop expired session", "session_id", row.ID, "error", err)
		}
		return expired(row), nil
	}
	return sess, nil
}

func expired(row *userDatamodel.UserSession) *Session {
	return &Session{
		ID:        row.ID,
		Token:     row.SessionToken,
		UserID:    row.UserID,
		State:     StateExpired,
		IssuedAt:  row.LoginTime,
		ExpiresAt: row.ExpiryTime,
	}
}

// ResolveBearer validates a stateless access token. The resulting session
// has no snapshot, so every check against it reads the ledger live.
func (a *Authority) ResolveBearer(ctx context.Context, raw string) (*Session, error) {
	claims, err := a.Tokens.ValidateToken(raw)
	if err != nil {
		return Anonymous(), nil
	}

	u, err := a.Users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, internal.ErrUserNotFound) {
			return Anonymous(), nil
		}
		return nil, a.passThrough("failed to load user", err)
	}

	sess := &Session{
		UserID:      u.ID,
		Username:    u.Username,
		DisplayName: u.DisplayName,
		Role:        u.Role,
		State:       StateAuthenticated,
	}
	if claims.IssuedAt != nil {
		sess.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		sess.ExpiresAt = claims.ExpiresAt.Time
	}
	if !u.IsActive || u.Archived {
		sess.State = StateExpired
	}
	return sess, nil
}

// Logout ends the session. It is safe to call more than once.
func (a *Authority) Logout(ctx context.Context, sess *Session) error {
	if sess == nil {
		return nil
	}
	if sess.Token == "" {
		sess.Logout()
		return nil
	}

	if err := a.Store.Delete(ctx, sess.Token); err != nil {
		return a.internal("failed to delete session", err)
	}

	row, err := a.Repo.GetByToken(ctx, sess.Token)
	if err != nil {
		return a.internal("failed to load session", err)
	}
	if row != nil {
		changed, err := a.Repo.Deactivate(ctx, row.ID)
		if err != nil {
			return a.internal("failed to deactivate session", err)
		}
		if changed {
			a.logger.InfoContext(ctx, "user logged out", "user_id", row.UserID, "session_id", row.ID)
			a.publish(ctx, events.NewSessionLogoutEvent(row.UserID, row.ID))
		}
	}

	sess.Logout()
	return nil
}

func (a *Authority) publish(ctx context.Context, event events.Event) {
	if a.Publisher == nil {
		return
	}
	if err := a.Publisher.PublishSync(ctx, event); err != nil {
		a.logger.WarnContext(ctx, "failed to publish session event", "event_type", event.EventType(), "error", err)
	}
}

func (a *Authority) passThrough(message string, err error) error {
	var appErr *internal.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return a.internal(message, err)
}

func (a *Authority) internal(message string, err error) error {
	a.logger.Error(message, "error", err)
	return internal.NewInternalError(message, err)
}
