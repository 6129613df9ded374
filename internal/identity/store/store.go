package store

import (
	"context"
	"errors"

	"github.com/lorikeetchat/lorikeet/internal/identity/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite for
// now) implement this. Sub-repositories keep concerns tidy and let a
// transaction expose the same surface as the root store.
type Store interface {
	Sessions() Sessions
	RefreshGrants() RefreshGrants
	TicketReplays() TicketReplays

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction, rolling back if fn returns
	// an error and committing otherwise. Use it for multi-step operations
	// that must be atomic (refresh rotation, ticket redemption).
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds
// Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Sessions interface {
	// CreateSession inserts a new session record (id supplied by caller).
	CreateSession(ctx context.Context, s domain.Session) error

	// GetSessionByID returns a session by its opaque id.
	GetSessionByID(ctx context.Context, id string) (domain.Session, error)

	// TouchSession bumps last_seen_at to now.
	TouchSession(ctx context.Context, id string) error

	// RevokeSession flips revoked=1. Revocation is the only mutation a
	// live session ever sees besides touch.
	RevokeSession(ctx context.Context, id string) error

	// RevokeAllUserSessions bulk revocation for a user (password reset
	// in the wider app).
	RevokeAllUserSessions(ctx context.Context, userID string) error

	// DeleteExpiredSessions is housekeeping.
	DeleteExpiredSessions(ctx context.Context) error
}

type RefreshGrants interface {
	// CreateRefreshGrant stores the ledger row for a freshly issued
	// refresh token.
	CreateRefreshGrant(ctx context.Context, g domain.RefreshGrant) error

	// GetRefreshGrantByHash returns the grant by the hashed jti.
	GetRefreshGrantByHash(ctx context.Context, hash string) (domain.RefreshGrant, error)

	// RevokeRefreshGrant flips revoked=1 for the hashed jti.
	RevokeRefreshGrant(ctx context.Context, hash string) error

	// RevokeAllUserRefreshGrants bulk revocation for a user.
	RevokeAllUserRefreshGrants(ctx context.Context, userID string) error

	// DeleteExpiredRefreshGrants is housekeeping.
	DeleteExpiredRefreshGrants(ctx context.Context) error
}

type TicketReplays interface {
	// ConsumeTicket records an SSO ticket jti as redeemed. Returns
	// ErrAlreadyExists when the jti has been seen before, which is the
	// replay signal.
	ConsumeTicket(ctx context.Context, t domain.TicketReplay) error

	// DeleteExpiredTicketReplays is housekeeping; rows are useless once
	// the ticket itself would no longer verify.
	DeleteExpiredTicketReplays(ctx context.Context) error
}
