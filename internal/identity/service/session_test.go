package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSessionLifecycle(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := &SessionService{Store: st, TTL: time.Hour}

	session, err := svc.Establish(ctx, "user-1", testFP, "203.0.113.7")
	require.NoError(t, err)
	require.NotEmpty(t, session.ID)
	require.Equal(t, "user-1", session.UserID)

	t.Run("validate succeeds on the same device", func(t *testing.T) {
		got, err := svc.Validate(ctx, session.ID, testFP)
		require.NoError(t, err)
		require.Equal(t, session.ID, got.ID)
	})

	t.Run("validate rejects a different device", func(t *testing.T) {
		_, err := svc.Validate(ctx, session.ID, otherFP)
		require.ErrorIs(t, err, ErrUnauthenticated)
	})

	t.Run("validate rejects an unknown sid", func(t *testing.T) {
		_, err := svc.Validate(ctx, "no-such-session", testFP)
		require.ErrorIs(t, err, ErrUnauthenticated)
	})

	t.Run("revoked session stops validating", func(t *testing.T) {
		require.NoError(t, svc.Revoke(ctx, session.ID))

		_, err := svc.Validate(ctx, session.ID, testFP)
		require.ErrorIs(t, err, ErrUnauthenticated)
	})

	t.Run("revoking twice is fine", func(t *testing.T) {
		require.NoError(t, svc.Revoke(ctx, session.ID))
	})
}

func TestSessionExpiry(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	// Negative TTL writes an already-expired session.
	svc := &SessionService{Store: st, TTL: -time.Minute}

	session, err := svc.Establish(ctx, "user-1", testFP, "")
	require.NoError(t, err)

	_, err = svc.Validate(ctx, session.ID, testFP)
	require.ErrorIs(t, err, ErrUnauthenticated)
}

func TestRevokeAllForUser(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	sessions := &SessionService{Store: st, TTL: time.Hour}
	tokens := newTestTokenService(t, st)

	s1, err := sessions.Establish(ctx, "user-1", testFP, "")
	require.NoError(t, err)
	s2, err := sessions.Establish(ctx, "user-1", otherFP, "")
	require.NoError(t, err)
	other, err := sessions.Establish(ctx, "user-2", testFP, "")
	require.NoError(t, err)

	pair, err := tokens.IssuePair(ctx, testIdentity, testFP)
	require.NoError(t, err)

	require.NoError(t, sessions.RevokeAllForUser(ctx, "user-1"))

	_, err = sessions.Validate(ctx, s1.ID, testFP)
	require.ErrorIs(t, err, ErrUnauthenticated)
	_, err = sessions.Validate(ctx, s2.ID, otherFP)
	require.ErrorIs(t, err, ErrUnauthenticated)

	// Refresh grants for the user die with the sessions.
	_, err = tokens.Refresh(ctx, pair.RefreshToken, testFP)
	require.ErrorIs(t, err, ErrUnauthenticated)

	// Other users are untouched.
	_, err = sessions.Validate(ctx, other.ID, testFP)
	require.NoError(t, err)
}
