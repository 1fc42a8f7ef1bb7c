package apartment

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/parcel-notify/internal/domain"
)

// DefaultApartments is seeded into an empty directory so a fresh install can
// be exercised end to end.
var DefaultApartments = []domain.ApartmentKey{"A-14-1", "A-1-1", "A-1-2", "B-1-1"}

type SeedResult struct {
	Inserted int      `json:"inserted"`
	Existing int      `json:"existing"`
	Skipped  []string `json:"skipped,omitempty"`
}

type Service interface {
	List(ctx context.Context) ([]domain.Apartment, error)
	Seed(ctx context.Context, apts []domain.Apartment) (*SeedResult, error)
	SeedDefaults(ctx context.Context) (*SeedResult, error)
	LoadSeedFile(ctx context.Context, path string) (*SeedResult, error)
	Remove(ctx context.Context, raw string) error
}

type store interface {
	ListApartments(ctx context.Context) ([]domain.Apartment, error)
	CountApartments(ctx context.Context) (int, error)
	UpsertApartment(ctx context.Context, apt domain.Apartment) (bool, error)
	DeleteApartment(ctx context.Context, key domain.ApartmentKey) (bool, error)
}

type service struct {
	store store
	log   *zap.Logger
}

func NewService(st store, log *zap.Logger) Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &service{store: st, log: log}
}

func (s *service) List(ctx context.Context) ([]domain.Apartment, error) {
	apts, err := s.store.ListApartments(ctx)
	if err != nil {
		return nil, fmt.Errorf("list apartments: %w", err)
	}
	return apts, nil
}

// Seed registers apartments that are not yet known. Keys are normalized;
// keys outside the accepted grammar are skipped. Existing rows keep their
// display name.
func (s *service) Seed(ctx context.Context, apts []domain.Apartment) (*SeedResult, error) {
	res := &SeedResult{}
	for _, a := range apts {
		key := domain.NormalizeApartmentKey(string(a.Key))
		if !key.Valid() {
			res.Skipped = append(res.Skipped, string(a.Key))
			continue
		}
		inserted, err := s.store.UpsertApartment(ctx, domain.Apartment{Key: key, DisplayName: strings.TrimSpace(a.DisplayName)})
		if err != nil {
			return res, fmt.Errorf("seed %s: %w", key, err)
		}
		if inserted {
			res.Inserted++
		} else {
			res.Existing++
		}
	}
	if len(res.Skipped) > 0 {
		s.log.Warn("seed skipped invalid apartment numbers", zap.Strings("skipped", res.Skipped))
	}
	return res, nil
}

// SeedDefaults fills an empty directory with DefaultApartments and leaves a
// populated one alone.
func (s *service) SeedDefaults(ctx context.Context) (*SeedResult, error) {
	n, err := s.store.CountApartments(ctx)
	if err != nil {
		return nil, fmt.Errorf("count apartments: %w", err)
	}
	if n > 0 {
		return &SeedResult{}, nil
	}
	apts := make([]domain.Apartment, len(DefaultApartments))
	for i, k := range DefaultApartments {
		apts[i] = domain.Apartment{Key: k, DisplayName: string(k)}
	}
	res, err := s.Seed(ctx, apts)
	if err != nil {
		return nil, err
	}
	s.log.Info("seeded default apartments", zap.Int("inserted", res.Inserted))
	return res, nil
}

func (s *service) LoadSeedFile(ctx context.Context, path string) (*SeedResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()
	apts, err := ParseSeedCSV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s.Seed(ctx, apts)
}

// Remove deletes an apartment with its bindings. Ledger rows are kept with
// the apartment reference cleared.
func (s *service) Remove(ctx context.Context, raw string) error {
	key, err := domain.ParseApartmentKey(raw)
	if err != nil {
		return err
	}
	ok, err := s.store.DeleteApartment(ctx, key)
	if err != nil {
		return fmt.Errorf("delete apartment: %w", err)
	}
	if !ok {
		return fmt.Errorf("apartment %s: %w", key, domain.ErrApartmentNotFound)
	}
	s.log.Info("apartment removed", zap.String("apartment", string(key)))
	return nil
}

// ParseSeedCSV reads "apartment_no[,display_name]" rows. Blank lines, lines
// starting with '#' and an apartment_no header row are ignored.
func ParseSeedCSV(r io.Reader) ([]domain.Apartment, error) {
	cr := csv.NewReader(r)
	cr.Comment = '#'
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var out []domain.Apartment
	for line := 1; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("seed csv: %w", err)
		}
		key := strings.TrimSpace(rec[0])
		if key == "" || (line == 1 && strings.EqualFold(key, "apartment_no")) {
			continue
		}
		a := domain.Apartment{Key: domain.ApartmentKey(key)}
		if len(rec) > 1 {
			a.DisplayName = strings.TrimSpace(rec[1])
		}
		out = append(out, a)
	}
}
