package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"breed_site_backend/internal/notifications/transport"
	"breed_site_backend/platform/apperr"
)

const (
	opCreate         = "notifications.repository.create"
	opGet            = "notifications.repository.get"
	opList           = "notifications.repository.list"
	opMarkSent       = "notifications.repository.mark_sent"
	opMarkFailed     = "notifications.repository.mark_failed"
	opIncrementRetry = "notifications.repository.increment_retry"
	opProviderStatus = "notifications.repository.apply_provider_status"
	opRetryList      = "notifications.repository.retry_candidates"
	opPurge          = "notifications.repository.purge"
	opStats          = "notifications.repository.stats"

	errRepoNotConfigured = "notification repository not configured"
)

// Postgres stores the notification log in the notification_log table.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (r *Postgres) Create(ctx context.Context, rec transport.Record) error {
	if r == nil || r.pool == nil {
		return apperr.Internal(errRepoNotConfigured).WithOp(opCreate)
	}

	data, err := json.Marshal(rec.Data)
	if err != nil {
		return apperr.Internal(fmt.Sprintf("marshal notification data: %v", err)).WithOp(opCreate)
	}

	_, err = r.pool.Exec(ctx,
		`INSERT INTO notification_log (id, type, data, recipient, status, message_id, error, retry_count, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), NULLIF($7, ''), $8, $9, $9)`,
		rec.ID, rec.Type, data, rec.Recipient, rec.Status, rec.MessageID, rec.Error, rec.RetryCount, rec.CreatedAt,
	)
	if err != nil {
		return apperr.Internal(fmt.Sprintf("create notification failed: %v", err)).WithOp(opCreate)
	}
	return nil
}

func (r *Postgres) GetByID(ctx context.Context, id string) (transport.Record, error) {
	if r == nil || r.pool == nil {
		return transport.Record{}, apperr.Internal(errRepoNotConfigured).WithOp(opGet)
	}

	row := r.pool.QueryRow(ctx, selectColumns+` FROM notification_log WHERE id = $1`, id)
	rec, err := scanRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return transport.Record{}, apperr.NotFound("notification not found").WithOp(opGet)
	}
	if err != nil {
		return transport.Record{}, apperr.Internal(fmt.Sprintf("get notification failed: %v", err)).WithOp(opGet)
	}
	return rec, nil
}

func (r *Postgres) List(ctx context.Context, status, notifType string, limit, offset int) ([]transport.Record, int, error) {
	if r == nil || r.pool == nil {
		return nil, 0, apperr.Internal(errRepoNotConfigured).WithOp(opList)
	}

	var total int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM notification_log
		 WHERE ($1 = '' OR status = $1) AND ($2 = '' OR type = $2)`,
		status, notifType,
	).Scan(&total)
	if err != nil {
		return nil, 0, apperr.Internal(fmt.Sprintf("count notifications failed: %v", err)).WithOp(opList)
	}

	rows, err := r.pool.Query(ctx,
		selectColumns+` FROM notification_log
		 WHERE ($1 = '' OR status = $1) AND ($2 = '' OR type = $2)
		 ORDER BY created_at DESC
		 LIMIT $3 OFFSET $4`,
		status, notifType, limit, offset,
	)
	if err != nil {
		return nil, 0, apperr.Internal(fmt.Sprintf("list notifications failed: %v", err)).WithOp(opList)
	}
	defer rows.Close()

	items, err := collectRecords(rows)
	if err != nil {
		return nil, 0, apperr.Internal(fmt.Sprintf("scan notifications failed: %v", err)).WithOp(opList)
	}
	return items, total, nil
}

func (r *Postgres) MarkSent(ctx context.Context, id, messageID string) error {
	if r == nil || r.pool == nil {
		return apperr.Internal(errRepoNotConfigured).WithOp(opMarkSent)
	}
	_, err := r.pool.Exec(ctx,
		`UPDATE notification_log
		 SET status = 'sent', message_id = NULLIF($2, ''), error = NULL, updated_at = now()
		 WHERE id = $1`,
		id, messageID,
	)
	if err != nil {
		return apperr.Internal(fmt.Sprintf("mark notification sent failed: %v", err)).WithOp(opMarkSent)
	}
	return nil
}

func (r *Postgres) MarkFailed(ctx context.Context, id, errMsg string) error {
	if r == nil || r.pool == nil {
		return apperr.Internal(errRepoNotConfigured).WithOp(opMarkFailed)
	}
	_, err := r.pool.Exec(ctx,
		`UPDATE notification_log
		 SET status = 'failed', error = $2, updated_at = now()
		 WHERE id = $1`,
		id, errMsg,
	)
	if err != nil {
		return apperr.Internal(fmt.Sprintf("mark notification failed failed: %v", err)).WithOp(opMarkFailed)
	}
	return nil
}

func (r *Postgres) IncrementRetry(ctx context.Context, id string) error {
	if r == nil || r.pool == nil {
		return apperr.Internal(errRepoNotConfigured).WithOp(opIncrementRetry)
	}
	_, err := r.pool.Exec(ctx,
		`UPDATE notification_log
		 SET retry_count = retry_count + 1, updated_at = now()
		 WHERE id = $1`,
		id,
	)
	if err != nil {
		return apperr.Internal(fmt.Sprintf("increment retry failed: %v", err)).WithOp(opIncrementRetry)
	}
	return nil
}

func (r *Postgres) ApplyProviderStatus(ctx context.Context, messageID, status string) (transport.Record, error) {
	if r == nil || r.pool == nil {
		return transport.Record{}, apperr.Internal(errRepoNotConfigured).WithOp(opProviderStatus)
	}

	var query string
	switch status {
	case transport.StatusFailed:
		query = guardedUpdate(`status = 'failed'`, `status NOT IN ('delivered', 'read')`)
	case transport.StatusDelivered:
		query = guardedUpdate(`status = 'delivered'`, `status = 'sent'`)
	case transport.StatusRead:
		query = guardedUpdate(`status = 'read'`, `status IN ('sent', 'delivered')`)
	case transport.StatusSent:
		// Providers replay "sent" receipts; the record is already sent, so
		// this is a no-op lookup.
		row := r.pool.QueryRow(ctx, selectColumns+` FROM notification_log WHERE message_id = $1`, messageID)
		rec, err := scanRecord(row)
		if errors.Is(err, pgx.ErrNoRows) {
			return transport.Record{}, apperr.NotFound("no notification for message id").WithOp(opProviderStatus)
		}
		if err != nil {
			return transport.Record{}, apperr.Internal(fmt.Sprintf("lookup by message id failed: %v", err)).WithOp(opProviderStatus)
		}
		return rec, nil
	default:
		return transport.Record{}, apperr.Validation(fmt.Sprintf("unknown provider status: %s", status)).WithOp(opProviderStatus)
	}

	row := r.pool.QueryRow(ctx, query, messageID)
	rec, err := scanRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return transport.Record{}, apperr.NotFound("no notification for message id").WithOp(opProviderStatus)
	}
	if err != nil {
		return transport.Record{}, apperr.Internal(fmt.Sprintf("apply provider status failed: %v", err)).WithOp(opProviderStatus)
	}
	return rec, nil
}

func (r *Postgres) RetryCandidates(ctx context.Context, maxRetry, limit int) ([]transport.Record, error) {
	if r == nil || r.pool == nil {
		return nil, apperr.Internal(errRepoNotConfigured).WithOp(opRetryList)
	}
	if limit < 1 {
		limit = 50
	}

	rows, err := r.pool.Query(ctx,
		selectColumns+` FROM notification_log
		 WHERE status = 'failed' AND retry_count < $1
		 ORDER BY created_at ASC
		 LIMIT $2`,
		maxRetry, limit,
	)
	if err != nil {
		return nil, apperr.Internal(fmt.Sprintf("list retry candidates failed: %v", err)).WithOp(opRetryList)
	}
	defer rows.Close()

	items, err := collectRecords(rows)
	if err != nil {
		return nil, apperr.Internal(fmt.Sprintf("scan retry candidates failed: %v", err)).WithOp(opRetryList)
	}
	return items, nil
}

func (r *Postgres) Purge(ctx context.Context, before time.Time) (int64, error) {
	if r == nil || r.pool == nil {
		return 0, apperr.Internal(errRepoNotConfigured).WithOp(opPurge)
	}
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM notification_log WHERE created_at < $1`, before,
	)
	if err != nil {
		return 0, apperr.Internal(fmt.Sprintf("purge notifications failed: %v", err)).WithOp(opPurge)
	}
	return tag.RowsAffected(), nil
}

func (r *Postgres) Stats(ctx context.Context) (map[string]int, error) {
	if r == nil || r.pool == nil {
		return nil, apperr.Internal(errRepoNotConfigured).WithOp(opStats)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT status, COUNT(*) FROM notification_log GROUP BY status`,
	)
	if err != nil {
		return nil, apperr.Internal(fmt.Sprintf("notification stats failed: %v", err)).WithOp(opStats)
	}
	defer rows.Close()

	stats := make(map[string]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, apperr.Internal(fmt.Sprintf("scan notification stats failed: %v", err)).WithOp(opStats)
		}
		stats[status] = count
	}
	if rows.Err() != nil {
		return nil, apperr.Internal(fmt.Sprintf("iterate notification stats failed: %v", rows.Err())).WithOp(opStats)
	}
	return stats, nil
}

const selectColumns = `SELECT id, type, data, recipient, status, COALESCE(message_id, ''), COALESCE(error, ''), retry_count, created_at, updated_at`

// guardedUpdate builds an UPDATE ... RETURNING statement that applies a
// provider receipt only when the guard condition holds.
func guardedUpdate(set, guard string) string {
	return fmt.Sprintf(
		`WITH updated AS (
			UPDATE notification_log
			SET %s, updated_at = now()
			WHERE message_id = $1 AND %s
			RETURNING *
		)
		`+selectColumns+` FROM updated`, set, guard)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (transport.Record, error) {
	var rec transport.Record
	var data []byte
	err := row.Scan(&rec.ID, &rec.Type, &data, &rec.Recipient, &rec.Status,
		&rec.MessageID, &rec.Error, &rec.RetryCount, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return transport.Record{}, err
	}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &rec.Data); err != nil {
			return transport.Record{}, fmt.Errorf("unmarshal notification data: %w", err)
		}
	}
	return rec, nil
}

func collectRecords(rows pgx.Rows) ([]transport.Record, error) {
	items := make([]transport.Record, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, rec)
	}
	return items, rows.Err()
}
