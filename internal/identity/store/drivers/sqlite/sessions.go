package sqlite

import (
	"context"
	"time"

	"github.com/lorikeetchat/lorikeet/internal/identity/domain"
)

type sessionsRepo struct {
	q dbtx
}

func (r *sessionsRepo) CreateSession(ctx context.Context, s domain.Session) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO sessions (id, user_id, device_fingerprint, ip, created_at, last_seen_at, expires_at, revoked)
		VALUES (?, ?, ?, ?, ?, ?, ?, 0)`,
		s.ID, s.UserID, s.DeviceFingerprint, s.IP, s.CreatedAt, s.LastSeenAt, s.ExpiresAt,
	)
	return err
}

func (r *sessionsRepo) GetSessionByID(ctx context.Context, id string) (domain.Session, error) {
	row := r.q.QueryRowContext(ctx, `
		SELECT id, user_id, device_fingerprint, ip, created_at, last_seen_at, expires_at, revoked
		FROM sessions WHERE id = ?`, id)

	var s domain.Session
	err := row.Scan(&s.ID, &s.UserID, &s.DeviceFingerprint, &s.IP,
		&s.CreatedAt, &s.LastSeenAt, &s.ExpiresAt, &s.Revoked)
	if err != nil {
		return domain.Session{}, mapNotFound(err)
	}
	return s, nil
}

func (r *sessionsRepo) TouchSession(ctx context.Context, id string) error {
	_, err := r.q.ExecContext(ctx,
		`UPDATE sessions SET last_seen_at = ? WHERE id = ?`,
		time.Now().UTC(), id,
	)
	return err
}

func (r *sessionsRepo) RevokeSession(ctx context.Context, id string) error {
	_, err := r.q.ExecContext(ctx,
		`UPDATE sessions SET revoked = 1 WHERE id = ?`, id)
	return err
}

func (r *sessionsRepo) RevokeAllUserSessions(ctx context.Context, userID string) error {
	_, err := r.q.ExecContext(ctx,
		`UPDATE sessions SET revoked = 1 WHERE user_id = ?`, userID)
	return err
}

func (r *sessionsRepo) DeleteExpiredSessions(ctx context.Context) error {
	_, err := r.q.ExecContext(ctx,
		`DELETE FROM sessions WHERE expires_at < ?`, time.Now().UTC())
	return err
}
