package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lorikeetchat/lorikeet/internal/identity/store"
	"github.com/lorikeetchat/lorikeet/internal/identity/store/drivers/sqlite"
	"github.com/lorikeetchat/lorikeet/pkg/cryptox"
	"github.com/lorikeetchat/lorikeet/pkg/jwtx"
)

var (
	testKey      = []byte("0123456789abcdef0123456789abcdef")
	testIdentity = jwtx.Identity{UserID: "user-1", Username: "alice", Name: "Alice"}
	testFP       = cryptox.DeviceFingerprint("Mozilla/5.0 (X11; Linux x86_64)", "en-AU")
	otherFP      = cryptox.DeviceFingerprint("curl/8.0", "")
)

func newTestStore(t *testing.T) store.Store {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	require.NoError(t, st.ApplyMigrations())
	return st
}

func newTestTokenService(t *testing.T, st store.Store) *TokenService {
	t.Helper()

	signer, err := jwtx.NewSignerHS256(testKey)
	require.NoError(t, err)

	return &TokenService{
		Signer:     signer,
		Verifier:   jwtx.NewVerifierHS256(testKey, 0),
		Store:      st,
		Issuer:     "test-issuer",
		AccessTTL:  time.Minute,
		RefreshTTL: time.Hour,
	}
}

func TestIssuePairAndVerifyAccess(t *testing.T) {
	ctx := context.Background()
	svc := newTestTokenService(t, newTestStore(t))

	pair, err := svc.IssuePair(ctx, testIdentity, testFP)
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	require.NotEqual(t, pair.AccessToken, pair.RefreshToken)
	require.Equal(t, time.Minute, pair.ExpiresIn)

	claims, err := svc.VerifyAccess(ctx, pair.AccessToken, testFP)
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.SubjectID())
	require.Equal(t, "alice", claims.Username)
}

func TestVerifyAccessGates(t *testing.T) {
	ctx := context.Background()
	svc := newTestTokenService(t, newTestStore(t))

	pair, err := svc.IssuePair(ctx, testIdentity, testFP)
	require.NoError(t, err)

	t.Run("refresh token rejected as access", func(t *testing.T) {
		_, err := svc.VerifyAccess(ctx, pair.RefreshToken, testFP)
		require.ErrorIs(t, err, ErrUnauthenticated)
	})

	t.Run("different device rejected", func(t *testing.T) {
		_, err := svc.VerifyAccess(ctx, pair.AccessToken, otherFP)
		require.ErrorIs(t, err, ErrUnauthenticated)
	})

	t.Run("garbage rejected", func(t *testing.T) {
		_, err := svc.VerifyAccess(ctx, "not-a-token", testFP)
		require.ErrorIs(t, err, ErrUnauthenticated)
	})
}

func TestRefreshRotatesPair(t *testing.T) {
	ctx := context.Background()
	svc := newTestTokenService(t, newTestStore(t))

	pair, err := svc.IssuePair(ctx, testIdentity, testFP)
	require.NoError(t, err)

	rotated, err := svc.Refresh(ctx, pair.RefreshToken, testFP)
	require.NoError(t, err)
	require.NotEmpty(t, rotated.AccessToken)
	require.NotEqual(t, pair.RefreshToken, rotated.RefreshToken)

	claims, err := svc.VerifyAccess(ctx, rotated.AccessToken, testFP)
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.SubjectID())
	require.Equal(t, "alice", claims.Username)

	t.Run("consumed refresh token is dead", func(t *testing.T) {
		_, err := svc.Refresh(ctx, pair.RefreshToken, testFP)
		require.ErrorIs(t, err, ErrUnauthenticated)
	})

	t.Run("successor still rotates", func(t *testing.T) {
		again, err := svc.Refresh(ctx, rotated.RefreshToken, testFP)
		require.NoError(t, err)
		require.NotEqual(t, rotated.RefreshToken, again.RefreshToken)
	})
}

func TestRefreshGates(t *testing.T) {
	ctx := context.Background()
	svc := newTestTokenService(t, newTestStore(t))

	pair, err := svc.IssuePair(ctx, testIdentity, testFP)
	require.NoError(t, err)

	t.Run("access token rejected as refresh", func(t *testing.T) {
		_, err := svc.Refresh(ctx, pair.AccessToken, testFP)
		require.ErrorIs(t, err, ErrUnauthenticated)
	})

	t.Run("different device rejected", func(t *testing.T) {
		_, err := svc.Refresh(ctx, pair.RefreshToken, otherFP)
		require.ErrorIs(t, err, ErrUnauthenticated)
	})

	t.Run("refresh token without a ledger row rejected", func(t *testing.T) {
		// Signed with our key but never persisted, as if minted by a
		// process whose writes were lost.
		orphan := jwtx.NewRefreshClaims(testIdentity, testFP, time.Hour, "test-issuer", time.Now().UTC())
		raw, err := svc.Signer.Sign(orphan)
		require.NoError(t, err)

		_, err = svc.Refresh(ctx, raw, testFP)
		require.ErrorIs(t, err, ErrUnauthenticated)
	})

	t.Run("expired refresh token rejected", func(t *testing.T) {
		stale := jwtx.NewRefreshClaims(testIdentity, testFP, time.Hour, "test-issuer", time.Now().UTC().Add(-2*time.Hour))
		raw, err := svc.Signer.Sign(stale)
		require.NoError(t, err)

		_, err = svc.Refresh(ctx, raw, testFP)
		require.ErrorIs(t, err, ErrUnauthenticated)
	})
}

func TestRevokeRefresh(t *testing.T) {
	ctx := context.Background()
	svc := newTestTokenService(t, newTestStore(t))

	pair, err := svc.IssuePair(ctx, testIdentity, testFP)
	require.NoError(t, err)

	require.NoError(t, svc.RevokeRefresh(ctx, pair.RefreshToken))

	_, err = svc.Refresh(ctx, pair.RefreshToken, testFP)
	require.ErrorIs(t, err, ErrUnauthenticated)

	t.Run("revoking garbage is a no-op", func(t *testing.T) {
		require.NoError(t, svc.RevokeRefresh(ctx, "not-a-token"))
	})
}
