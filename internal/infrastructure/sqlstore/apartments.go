package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/parcel-notify/internal/domain"
)

func (s *Store) ListApartments(ctx context.Context) ([]domain.Apartment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT apartment_no, COALESCE(display_name, apartment_no) FROM apartments`)
	if err != nil {
		return nil, fmt.Errorf("list apartments: %w", err)
	}
	defer rows.Close()

	var out []domain.Apartment
	for rows.Next() {
		var a domain.Apartment
		if err := rows.Scan(&a.Key, &a.DisplayName); err != nil {
			return nil, fmt.Errorf("scan apartment: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list apartments: %w", err)
	}
	domain.SortApartments(out)
	return out, nil
}

func (s *Store) CountApartments(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM apartments`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count apartments: %w", err)
	}
	return n, nil
}

func (s *Store) ApartmentExists(ctx context.Context, key domain.ApartmentKey) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM apartments WHERE apartment_no = $1`, string(key)).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("apartment exists: %w", err)
	}
	return true, nil
}

// UpsertApartment inserts apt unless the key already exists. An existing row,
// display name included, is left untouched.
func (s *Store) UpsertApartment(ctx context.Context, apt domain.Apartment) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO apartments (apartment_no, display_name) VALUES ($1, $2)
		 ON CONFLICT (apartment_no) DO NOTHING`,
		string(apt.Key), nullString(apt.DisplayName))
	if err != nil {
		return false, fmt.Errorf("upsert apartment: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("upsert apartment: %w", err)
	}
	return n == 1, nil
}

// DeleteApartment relies on the foreign keys to drop bindings and detach
// ledger rows.
func (s *Store) DeleteApartment(ctx context.Context, key domain.ApartmentKey) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM apartments WHERE apartment_no = $1`, string(key))
	if err != nil {
		return false, fmt.Errorf("delete apartment: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete apartment: %w", err)
	}
	return n > 0, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
