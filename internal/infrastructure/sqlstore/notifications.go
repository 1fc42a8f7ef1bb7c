package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/parcel-notify/internal/domain"
)

const notificationColumns = `id, apartment_no, count, note, status, error, sent_at`

// AddNotification appends a ledger row and fills in rec.ID. SentAt defaults
// to the current time and is always stored in UTC.
func (s *Store) AddNotification(ctx context.Context, rec *domain.NotificationRecord) error {
	if rec.SentAt.IsZero() {
		rec.SentAt = s.now()
	}
	rec.SentAt = rec.SentAt.UTC()

	var apt sql.NullString
	if rec.ApartmentKey != nil {
		apt = nullString(string(*rec.ApartmentKey))
	}
	var count sql.NullInt64
	if rec.Count != nil {
		count = sql.NullInt64{Int64: int64(*rec.Count), Valid: true}
	}
	var note, errText sql.NullString
	if rec.Note != nil {
		note = sql.NullString{String: *rec.Note, Valid: true}
	}
	if rec.Error != nil {
		errText = sql.NullString{String: *rec.Error, Valid: true}
	}

	var id int64
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO notifications (apartment_no, count, note, status, error, sent_at)
		 VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		apt, count, note, string(rec.Status), errText, rec.SentAt,
	).Scan(&id)
	if err != nil {
		return fmt.Errorf("add notification: %w", err)
	}
	rec.ID = strconv.FormatInt(id, 10)
	return nil
}

func (s *Store) ListNotificationsBefore(ctx context.Context, cutoff time.Time) ([]domain.NotificationRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+notificationColumns+` FROM notifications WHERE sent_at < $1 ORDER BY id`,
		cutoff.UTC())
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var out []domain.NotificationRecord
	for rows.Next() {
		rec, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return out, nil
}

func (s *Store) PurgeNotificationsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM notifications WHERE sent_at < $1`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("purge notifications: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("purge notifications: %w", err)
	}
	return n, nil
}

func scanNotification(rows *sql.Rows) (domain.NotificationRecord, error) {
	var (
		rec     domain.NotificationRecord
		id      int64
		apt     sql.NullString
		count   sql.NullInt64
		note    sql.NullString
		status  string
		errText sql.NullString
	)
	if err := rows.Scan(&id, &apt, &count, &note, &status, &errText, &rec.SentAt); err != nil {
		return rec, fmt.Errorf("scan notification: %w", err)
	}
	rec.ID = strconv.FormatInt(id, 10)
	rec.Status = domain.NotificationStatus(status)
	rec.SentAt = rec.SentAt.UTC()
	if apt.Valid {
		k := domain.ApartmentKey(apt.String)
		rec.ApartmentKey = &k
	}
	if count.Valid {
		c := int(count.Int64)
		rec.Count = &c
	}
	if note.Valid {
		rec.Note = &note.String
	}
	if errText.Valid {
		rec.Error = &errText.String
	}
	return rec, nil
}
