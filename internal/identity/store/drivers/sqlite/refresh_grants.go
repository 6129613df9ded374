package sqlite

import (
	"context"
	"time"

	"github.com/lorikeetchat/lorikeet/internal/identity/domain"
)

type refreshGrantsRepo struct {
	q dbtx
}

func (r *refreshGrantsRepo) CreateRefreshGrant(ctx context.Context, g domain.RefreshGrant) error {
	now := time.Now().UTC()
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO refresh_grants (id, user_id, token_hash, fingerprint, expires_at, revoked, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, 0, ?, ?)`,
		g.ID, g.UserID, g.TokenHash, g.Fingerprint, g.ExpiresAt, now, now,
	)
	return err
}

func (r *refreshGrantsRepo) GetRefreshGrantByHash(ctx context.Context, hash string) (domain.RefreshGrant, error) {
	row := r.q.QueryRowContext(ctx, `
		SELECT id, user_id, token_hash, fingerprint, expires_at, revoked, created_at, updated_at
		FROM refresh_grants WHERE token_hash = ?`, hash)

	var g domain.RefreshGrant
	err := row.Scan(&g.ID, &g.UserID, &g.TokenHash, &g.Fingerprint,
		&g.ExpiresAt, &g.Revoked, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		return domain.RefreshGrant{}, mapNotFound(err)
	}
	return g, nil
}

func (r *refreshGrantsRepo) RevokeRefreshGrant(ctx context.Context, hash string) error {
	_, err := r.q.ExecContext(ctx,
		`UPDATE refresh_grants SET revoked = 1, updated_at = ? WHERE token_hash = ?`,
		time.Now().UTC(), hash,
	)
	return err
}

func (r *refreshGrantsRepo) RevokeAllUserRefreshGrants(ctx context.Context, userID string) error {
	_, err := r.q.ExecContext(ctx,
		`UPDATE refresh_grants SET revoked = 1, updated_at = ? WHERE user_id = ?`,
		time.Now().UTC(), userID,
	)
	return err
}

func (r *refreshGrantsRepo) DeleteExpiredRefreshGrants(ctx context.Context) error {
	_, err := r.q.ExecContext(ctx,
		`DELETE FROM refresh_grants WHERE expires_at < ?`, time.Now().UTC())
	return err
}
