package ads

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nitehive/backend/internal/models"
)

// LogRepository handles impression log and ad audit log persistence.
type LogRepository struct {
	pool *pgxpool.Pool
}

// NewLogRepository creates an impression/audit log repository.
func NewLogRepository(pool *pgxpool.Pool) *LogRepository {
	return &LogRepository{pool: pool}
}

// Append inserts a delivered-impression row and fills in the generated ID.
func (r *LogRepository) Append(ctx context.Context, entry *models.ImpressionLog) error {
	const q = `INSERT INTO impression_logs (id, venue_id, zone_id, ad_id, decision_type, score)
		VALUES (gen_random_uuid(), $1, NULLIF($2,''), $3, $4, $5)
		RETURNING id, created_at`
	return r.pool.QueryRow(ctx, q, entry.VenueID, entry.ZoneID, entry.AdID, string(entry.DecisionType), entry.Score).
		Scan(&entry.ID, &entry.CreatedAt)
}

// CountByTypeBetween returns dynamic and static impression counts in [start, end].
func (r *LogRepository) CountByTypeBetween(ctx context.Context, start, end time.Time) (int64, int64, error) {
	const q = `SELECT
		COUNT(*) FILTER (WHERE decision_type = 'dynamic'),
		COUNT(*) FILTER (WHERE decision_type = 'static')
		FROM impression_logs WHERE created_at >= $1 AND created_at <= $2`
	var dynamic, static int64
	if err := r.pool.QueryRow(ctx, q, start, end).Scan(&dynamic, &static); err != nil {
		return 0, 0, err
	}
	return dynamic, static, nil
}

// AppendAudit inserts an ad audit log row.
func (r *LogRepository) AppendAudit(ctx context.Context, entry *models.AdAuditLog) error {
	const q = `INSERT INTO ad_audit_logs (id, ad_id, action, impressions_delta, clicks_delta, success, reason)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, NULLIF($6,''))
		RETURNING id, created_at`
	return r.pool.QueryRow(ctx, q, entry.AdID, entry.Action, entry.ImpressionsDelta, entry.ClicksDelta, entry.Success, entry.Reason).
		Scan(&entry.ID, &entry.CreatedAt)
}

// ListAuditByAd returns audit rows for an ad, newest first.
func (r *LogRepository) ListAuditByAd(ctx context.Context, adID uuid.UUID, limit int) ([]models.AdAuditLog, error) {
	const q = `SELECT id, ad_id, action, impressions_delta, clicks_delta, success, COALESCE(reason,''), created_at
		FROM ad_audit_logs WHERE ad_id = $1 ORDER BY created_at DESC LIMIT $2`
	rows, err := r.pool.Query(ctx, q, adID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.AdAuditLog
	for rows.Next() {
		var e models.AdAuditLog
		if err := rows.Scan(&e.ID, &e.AdID, &e.Action, &e.ImpressionsDelta, &e.ClicksDelta, &e.Success, &e.Reason, &e.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, e)
	}
	return list, rows.Err()
}
