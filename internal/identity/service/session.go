package service

import (
	"context"
	"errors"
	"time"

	"github.com/lorikeetchat/lorikeet/internal/identity/domain"
	"github.com/lorikeetchat/lorikeet/internal/identity/store"
	"github.com/lorikeetchat/lorikeet/pkg/cryptox"
)

// SessionService tracks server-side session records alongside the
// stateless cookies. Sessions let the app enumerate and revoke devices
// without waiting for token expiry.
type SessionService struct {
	Store store.Store
	TTL   time.Duration
}

// Establish creates a session record bound to the device fingerprint
// and returns it. The session id doubles as the sid cookie value, so it
// is an unguessable random token rather than a ULID.
func (s *SessionService) Establish(ctx context.Context, userID, fingerprint, ip string) (domain.Session, error) {
	id, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return domain.Session{}, err
	}

	now := time.Now().UTC()
	session := domain.Session{
		ID:                id,
		UserID:            userID,
		DeviceFingerprint: fingerprint,
		IP:                ip,
		CreatedAt:         now,
		LastSeenAt:        now,
		ExpiresAt:         now.Add(s.TTL),
	}
	if err := s.Store.Sessions().CreateSession(ctx, session); err != nil {
		return domain.Session{}, err
	}
	return session, nil
}

// Validate looks up a session by sid and checks it is live and bound to
// the presented fingerprint, bumping last_seen_at on success.
func (s *SessionService) Validate(ctx context.Context, sid, fingerprint string) (domain.Session, error) {
	session, err := s.Store.Sessions().GetSessionByID(ctx, sid)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Session{}, ErrUnauthenticated
		}
		return domain.Session{}, err
	}
	if !session.Usable(time.Now().UTC(), fingerprint) {
		return domain.Session{}, ErrUnauthenticated
	}
	if err := s.Store.Sessions().TouchSession(ctx, sid); err != nil {
		return domain.Session{}, err
	}
	return session, nil
}

// Revoke marks a single session dead. Missing sessions are not an
// error; logout must be idempotent.
func (s *SessionService) Revoke(ctx context.Context, sid string) error {
	err := s.Store.Sessions().RevokeSession(ctx, sid)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	return err
}

// RevokeAllForUser kills every session a user holds, alongside their
// refresh grants. Used for the sign-out-everywhere path.
func (s *SessionService) RevokeAllForUser(ctx context.Context, userID string) error {
	return s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Sessions().RevokeAllUserSessions(ctx, userID); err != nil {
			return err
		}
		return tx.RefreshGrants().RevokeAllUserRefreshGrants(ctx, userID)
	})
}
