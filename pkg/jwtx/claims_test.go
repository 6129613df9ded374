package jwtx_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/lorikeetchat/lorikeet/pkg/jwtx"
)

var testIdentity = jwtx.Identity{
	UserID:   "user-1",
	Username: "alice",
	Name:     "Alice",
}

func TestNewAccessClaims(t *testing.T) {
	now := time.Now().UTC()
	c := jwtx.NewAccessClaims(testIdentity, "fp-abc", time.Hour, "identity-service", now)

	require.Equal(t, "user-1", c.Subject)
	require.Equal(t, "user-1", c.UserID)
	require.Equal(t, "alice", c.Username)
	require.Equal(t, "Alice", c.Name)
	require.Equal(t, "fp-abc", c.FP)
	require.Equal(t, jwtx.PurposeAccess, c.Purpose)
	require.NotEmpty(t, c.ID)
	require.Equal(t, now.Unix(), c.IssuedAt.Unix())
	require.Equal(t, now.Add(time.Hour).Unix(), c.ExpiresAt.Unix())
}

func TestNewTicketClaimsAudience(t *testing.T) {
	now := time.Now().UTC()
	c := jwtx.NewTicketClaims(testIdentity, "fp-abc", "chat.example.com", time.Minute, "identity-service", now)

	require.Equal(t, jwtx.PurposeTicket, c.Purpose)
	require.Equal(t, jwt.ClaimStrings{"chat.example.com"}, c.Audience)
}

func TestSubjectIDFallsBackToLegacyID(t *testing.T) {
	c := &jwtx.Claims{UserID: "legacy-1"}
	require.Equal(t, "legacy-1", c.SubjectID())

	c.Subject = "sub-1"
	require.Equal(t, "sub-1", c.SubjectID())
}

func TestValidatePurpose(t *testing.T) {
	t.Run("matching purpose", func(t *testing.T) {
		c := &jwtx.Claims{Purpose: jwtx.PurposeRefresh}
		require.NoError(t, c.ValidatePurpose(jwtx.PurposeRefresh))
	})

	t.Run("access token is the zero purpose", func(t *testing.T) {
		c := &jwtx.Claims{}
		require.NoError(t, c.ValidatePurpose(jwtx.PurposeAccess))
	})

	t.Run("refresh token rejected as access", func(t *testing.T) {
		c := &jwtx.Claims{Purpose: jwtx.PurposeRefresh}
		require.ErrorIs(t, c.ValidatePurpose(jwtx.PurposeAccess), jwtx.ErrPurpose)
	})

	t.Run("ticket rejected as refresh", func(t *testing.T) {
		c := &jwtx.Claims{Purpose: jwtx.PurposeTicket}
		require.ErrorIs(t, c.ValidatePurpose(jwtx.PurposeRefresh), jwtx.ErrPurpose)
	})
}

func TestValidateAudienceHost(t *testing.T) {
	c := &jwtx.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Audience: jwt.ClaimStrings{"chat.example.com"},
		},
	}

	t.Run("matching host", func(t *testing.T) {
		require.NoError(t, c.ValidateAudienceHost("chat.example.com"))
	})

	t.Run("wrong host", func(t *testing.T) {
		require.ErrorIs(t, c.ValidateAudienceHost("media.example.com"), jwtx.ErrAudience)
	})

	t.Run("unscoped token accepts any host", func(t *testing.T) {
		unscoped := &jwtx.Claims{}
		require.NoError(t, unscoped.ValidateAudienceHost("anywhere.example.com"))
	})
}

func TestValidateFingerprint(t *testing.T) {
	c := &jwtx.Claims{FP: "fp-abc"}

	require.NoError(t, c.ValidateFingerprint("fp-abc"))
	require.ErrorIs(t, c.ValidateFingerprint("fp-other"), jwtx.ErrFingerprint)
	require.ErrorIs(t, c.ValidateFingerprint(""), jwtx.ErrFingerprint)
}

func TestValidateExpiry(t *testing.T) {
	now := time.Now().UTC()

	t.Run("live token", func(t *testing.T) {
		c := &jwtx.Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(now.Add(time.Minute)),
			},
		}
		require.NoError(t, c.ValidateExpiry())
	})

	t.Run("expired token", func(t *testing.T) {
		c := &jwtx.Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(now.Add(-time.Minute)),
			},
		}
		require.ErrorIs(t, c.ValidateExpiry(), jwtx.ErrExpired)
	})

	t.Run("no exp claim", func(t *testing.T) {
		c := &jwtx.Claims{}
		require.NoError(t, c.ValidateExpiry())
	})
}

func TestNewJTIUnique(t *testing.T) {
	seen := make(map[string]bool)
	for range 64 {
		jti := jwtx.NewJTI()
		require.NotEmpty(t, jti)
		require.False(t, seen[jti])
		seen[jti] = true
	}
}
