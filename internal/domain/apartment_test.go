package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeApartmentKey(t *testing.T) {
	cases := map[string]ApartmentKey{
		"A-14-1":       "A-14-1",
		"  a-14-1 ":    "A-14-1",
		"a14-1":        "A-14-1",
		"B 1 - 2":      "B-1-2",
		"14f-1":        "14F-1",
		"14 F - 1":     "14F-1",
		"":             "",
		"hello world":  "HELLOWORLD",
		"AA1-1":        "AA1-1",
		"A123-1":       "A123-1",
		"c\t9-10\n":    "C-9-10",
		"Ａ14-1":        "Ａ14-1",
		"x\u30001-1":  "X-1-1",
		"A-14":         "A-14",
		"14-1":         "14-1",
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizeApartmentKey(in), "input %q", in)
	}
}

func TestNormalizeApartmentKey_Idempotent(t *testing.T) {
	inputs := []string{"a14-1", "A-14-1", " 14f-1", "b1-1", "junk", "", "A 1 4 - 1", "z99-99", "AA-1-1"}
	for _, in := range inputs {
		once := NormalizeApartmentKey(in)
		assert.Equal(t, once, NormalizeApartmentKey(string(once)), "input %q", in)
	}
}

func TestNormalizeApartmentKey_InsertsSingleHyphenAfterBlock(t *testing.T) {
	for _, in := range []string{"a1-1", "A14-1", "z99-99", "q5-12"} {
		got := string(NormalizeApartmentKey(in))
		assert.Equal(t, byte('-'), got[1], "input %q", in)
		assert.Equal(t, len(in)+1, len(got), "input %q", in)
		assert.True(t, IsValidApartmentKey(got), "input %q", in)
	}
}

func TestIsValidApartmentKey(t *testing.T) {
	for _, ok := range []string{"14F-1", "A-14-1", "b-1-1", "a14-1", "1f-1", "Z-99-99"} {
		assert.True(t, IsValidApartmentKey(ok), "expected %q valid", ok)
	}
	for _, bad := range []string{"14-1", "AA-1-1", "", "A-14", "A-123-1", "123F-1", "F-1", "A--1-1", "1-A-1"} {
		assert.False(t, IsValidApartmentKey(bad), "expected %q invalid", bad)
	}
}

func TestParseApartmentKey(t *testing.T) {
	k, err := ParseApartmentKey(" a14-1")
	require.NoError(t, err)
	assert.Equal(t, ApartmentKey("A-14-1"), k)

	_, err = ParseApartmentKey("A-14")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidApartment))
}

func TestSortApartments_NumericFloorAndUnit(t *testing.T) {
	apts := []Apartment{
		{Key: "A-10-1"}, {Key: "B-1-1"}, {Key: "A-2-1"}, {Key: "A-2-10"}, {Key: "A-2-9"},
	}
	SortApartments(apts)
	assert.Equal(t, []ApartmentKey{"A-2-1", "A-2-9", "A-2-10", "A-10-1", "B-1-1"}, keys(apts))
}

func TestSortApartments_UnparseableLast(t *testing.T) {
	apts := []Apartment{
		{Key: "ZZZ"}, {Key: "A-1-1"}, {Key: "LOBBY"}, {Key: "3F-2"}, {Key: "12F-1"},
	}
	SortApartments(apts)
	assert.Equal(t, []ApartmentKey{"3F-2", "12F-1", "A-1-1", "LOBBY", "ZZZ"}, keys(apts))
}

func TestApartment_Label(t *testing.T) {
	assert.Equal(t, "A-1-1", Apartment{Key: "A-1-1"}.Label())
	assert.Equal(t, "Penthouse", Apartment{Key: "A-1-1", DisplayName: "Penthouse"}.Label())
}

func keys(apts []Apartment) []ApartmentKey {
	out := make([]ApartmentKey, len(apts))
	for i, a := range apts {
		out[i] = a.Key
	}
	return out
}
