package service

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/lorikeetchat/lorikeet/internal/identity/domain"
	"github.com/lorikeetchat/lorikeet/internal/identity/store"
	"github.com/lorikeetchat/lorikeet/pkg/jwtx"
	"github.com/lorikeetchat/lorikeet/pkg/slogx"
)

// ErrFingerprintMismatch marks the one SSO failure the redeem handler
// treats differently: the ticket is genuine but was opened on a device
// other than the one that requested it. Everything else collapses into
// ErrUnauthenticated.
var ErrFingerprintMismatch = errors.New("ticket fingerprint mismatch")

// SSOService exchanges a live session on one domain for a session on a
// sibling domain, via a short-lived single-use ticket carried in the
// redirect URL.
type SSOService struct {
	Tokens *TokenService
	Store  store.Store
	Issuer string

	TicketTTL time.Duration
}

// IssueTicket mints an SSO ticket for the holder of a valid access
// token. The ticket inherits the caller's identity and device
// fingerprint and is scoped to the target audience host.
func (s *SSOService) IssueTicket(ctx context.Context, accessRaw, audience, fingerprint string) (string, error) {
	claims, err := s.Tokens.VerifyAccess(ctx, accessRaw, fingerprint)
	if err != nil {
		return "", err
	}

	ttl := s.TicketTTL
	if ttl <= 0 {
		ttl = jwtx.DefaultTicketTTL
	}

	ticketClaims := jwtx.NewTicketClaims(claims.Identity(), fingerprint, audience, ttl, s.Issuer, time.Now().UTC())
	return s.Tokens.Signer.Sign(ticketClaims)
}

// ComposeRedirect appends the ticket to the target URL, picking the
// right joiner for URLs that already carry a query string.
func ComposeRedirect(target, ticket string) string {
	joiner := "?"
	if strings.Contains(target, "?") {
		joiner = "&"
	}
	return target + joiner + "ticket=" + url.QueryEscape(ticket)
}

// RedeemTicket validates an SSO ticket presented on the target domain,
// burns its jti, and returns a fresh access token for the subject.
// Check order matters: the fingerprint gate runs before the replay
// burn, so a ticket opened on the wrong device stays redeemable by the
// device that asked for it.
func (s *SSOService) RedeemTicket(ctx context.Context, rawTicket, fingerprint, hostname string) (string, jwtx.Identity, error) {
	l := slogx.FromContext(ctx)

	claims, err := s.Tokens.Verifier.Verify(rawTicket)
	if err != nil {
		l.Warn("sso ticket rejected", "err", err)
		return "", jwtx.Identity{}, ErrUnauthenticated
	}
	if err := claims.ValidatePurpose(jwtx.PurposeTicket); err != nil {
		l.Warn("sso ticket rejected: wrong purpose", "sub", claims.SubjectID())
		return "", jwtx.Identity{}, ErrUnauthenticated
	}
	if err := claims.ValidateAudienceHost(hostname); err != nil {
		l.Warn("sso ticket rejected: audience mismatch", "sub", claims.SubjectID(), "host", hostname)
		return "", jwtx.Identity{}, ErrUnauthenticated
	}
	if claims.SubjectID() == "" || claims.ID == "" {
		return "", jwtx.Identity{}, ErrUnauthenticated
	}
	if err := claims.ValidateFingerprint(fingerprint); err != nil {
		l.Warn("sso ticket opened on a different device", "sub", claims.SubjectID())
		return "", jwtx.Identity{}, ErrFingerprintMismatch
	}

	now := time.Now().UTC()
	expiresAt := now.Add(jwtx.DefaultTicketTTL)
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	replay := domain.TicketReplay{
		JTI:        claims.ID,
		UserID:     claims.SubjectID(),
		ExpiresAt:  expiresAt,
		RedeemedAt: now,
	}
	if err := s.Store.TicketReplays().ConsumeTicket(ctx, replay); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			l.Warn("sso ticket replayed", "sub", claims.SubjectID(), "jti", claims.ID)
			return "", jwtx.Identity{}, ErrUnauthenticated
		}
		return "", jwtx.Identity{}, err
	}

	id := claims.Identity()
	access, err := s.Tokens.Signer.Sign(jwtx.NewAccessClaims(id, fingerprint, s.Tokens.AccessTTL, s.Issuer, time.Now().UTC()))
	if err != nil {
		return "", jwtx.Identity{}, err
	}
	return access, id, nil
}
