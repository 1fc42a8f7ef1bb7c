package sqlstore

import (
	"context"
	"fmt"

	"github.com/parcel-notify/internal/domain"
)

// BindApartmentToUser links userID to key. The existence check and insert run
// as one statement so a concurrent delete cannot leave an orphan binding.
// Returns false when the apartment is not registered; rebinding is a no-op.
func (s *Store) BindApartmentToUser(ctx context.Context, key domain.ApartmentKey, userID string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO apartment_members (apartment_no, line_user_id)
		 SELECT $1, $2 WHERE EXISTS (SELECT 1 FROM apartments WHERE apartment_no = $1)
		 ON CONFLICT (apartment_no, line_user_id) DO NOTHING`,
		string(key), userID)
	if err != nil {
		return false, fmt.Errorf("bind apartment: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("bind apartment: %w", err)
	}
	if n > 0 {
		return true, nil
	}
	// Nothing inserted: either already bound or the apartment is unknown.
	return s.ApartmentExists(ctx, key)
}

func (s *Store) GetUserIDsByApartment(ctx context.Context, key domain.ApartmentKey) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT line_user_id FROM apartment_members WHERE apartment_no = $1 ORDER BY line_user_id`,
		string(key))
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	return ids, nil
}
