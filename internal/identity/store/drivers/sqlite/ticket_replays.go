package sqlite

import (
	"context"
	"time"

	"github.com/lorikeetchat/lorikeet/internal/identity/domain"
	"github.com/lorikeetchat/lorikeet/internal/identity/store"
)

type ticketReplaysRepo struct {
	q dbtx
}

// ConsumeTicket records the jti. INSERT OR IGNORE plus a rows-affected
// check avoids matching on driver error strings for the uniqueness
// violation.
func (r *ticketReplaysRepo) ConsumeTicket(ctx context.Context, t domain.TicketReplay) error {
	res, err := r.q.ExecContext(ctx, `
		INSERT OR IGNORE INTO ticket_replays (jti, user_id, expires_at, redeemed_at)
		VALUES (?, ?, ?, ?)`,
		t.JTI, t.UserID, t.ExpiresAt, t.RedeemedAt,
	)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrAlreadyExists
	}
	return nil
}

func (r *ticketReplaysRepo) DeleteExpiredTicketReplays(ctx context.Context) error {
	_, err := r.q.ExecContext(ctx,
		`DELETE FROM ticket_replays WHERE expires_at < ?`, time.Now().UTC())
	return err
}
