package apartment

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parcel-notify/internal/domain"
	"github.com/parcel-notify/internal/infrastructure/memory"
)

func TestSeedDefaults_OnlyWhenEmpty(t *testing.T) {
	st := memory.NewStore()
	svc := NewService(st, nil)
	ctx := context.Background()

	res, err := svc.SeedDefaults(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, res.Inserted)

	apts, err := svc.List(ctx)
	require.NoError(t, err)
	var keys []domain.ApartmentKey
	for _, a := range apts {
		keys = append(keys, a.Key)
	}
	assert.Equal(t, []domain.ApartmentKey{"A-1-1", "A-1-2", "A-14-1", "B-1-1"}, keys)

	res, err = svc.SeedDefaults(ctx)
	require.NoError(t, err)
	assert.Zero(t, res.Inserted)
}

func TestSeed_NormalizesAndSkipsInvalid(t *testing.T) {
	st := memory.NewStore()
	svc := NewService(st, nil)
	ctx := context.Background()

	res, err := svc.Seed(ctx, []domain.Apartment{
		{Key: "a14-1", DisplayName: " Corner "},
		{Key: "14f-2"},
		{Key: "lobby"},
		{Key: "A-14-1", DisplayName: "Renamed"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Inserted)
	assert.Equal(t, 1, res.Existing)
	assert.Equal(t, []string{"lobby"}, res.Skipped)

	apts, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, apts, 2)
	assert.Equal(t, domain.Apartment{Key: "14F-2", DisplayName: "14F-2"}, apts[0])
	assert.Equal(t, domain.Apartment{Key: "A-14-1", DisplayName: "Corner"}, apts[1])
}

func TestParseSeedCSV(t *testing.T) {
	in := "apartment_no,display_name\n# tower A\nA-1-1,Lobby side\n\nb2-3\n 14F-1 , Penthouse\n"
	apts, err := ParseSeedCSV(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, []domain.Apartment{
		{Key: "A-1-1", DisplayName: "Lobby side"},
		{Key: "b2-3"},
		{Key: "14F-1", DisplayName: "Penthouse"},
	}, apts)
}

func TestLoadSeedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "apartments.csv")
	require.NoError(t, os.WriteFile(path, []byte("A-2-1\nA-10-1\n"), 0o600))

	svc := NewService(memory.NewStore(), nil)
	res, err := svc.LoadSeedFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Inserted)

	_, err = svc.LoadSeedFile(context.Background(), filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}

func TestRemove(t *testing.T) {
	st := memory.NewStore()
	svc := NewService(st, nil)
	ctx := context.Background()
	_, err := svc.Seed(ctx, []domain.Apartment{{Key: "A-1-1"}})
	require.NoError(t, err)
	_, err = st.BindApartmentToUser(ctx, "A-1-1", "U1")
	require.NoError(t, err)

	require.NoError(t, svc.Remove(ctx, "a1-1"))
	assert.Empty(t, st.Bindings())

	assert.ErrorIs(t, svc.Remove(ctx, "A-1-1"), domain.ErrApartmentNotFound)
	assert.ErrorIs(t, svc.Remove(ctx, "nope"), domain.ErrInvalidApartment)
}
