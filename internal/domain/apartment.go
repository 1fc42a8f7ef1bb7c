package domain

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// ApartmentKey is the canonical identifier of one dwelling unit, e.g. "A-14-1" or "14F-1".
// Values produced by NormalizeApartmentKey are uppercase and contain no whitespace.
type ApartmentKey string

var (
	missingHyphenRe = regexp.MustCompile(`^([A-Z])(\d{1,2})-(\d{1,2})$`)
	floorUnitRe     = regexp.MustCompile(`^(\d{1,2})F-(\d{1,2})$`)
	blockFloorRe    = regexp.MustCompile(`^([A-Z])-(\d{1,2})-(\d{1,2})$`)
)

// NormalizeApartmentKey turns free text into a canonical key. It never fails:
// input that matches no grammar comes back trimmed and uppercased.
func NormalizeApartmentKey(raw string) ApartmentKey {
	s := strings.Join(strings.Fields(strings.ToUpper(raw)), "")
	if m := missingHyphenRe.FindStringSubmatch(s); m != nil {
		return ApartmentKey(m[1] + "-" + m[2] + "-" + m[3])
	}
	return ApartmentKey(s)
}

// IsValidApartmentKey normalizes raw and reports whether it matches the
// floor-unit ("14F-1") or block-floor-unit ("A-14-1") grammar.
func IsValidApartmentKey(raw string) bool {
	return NormalizeApartmentKey(raw).Valid()
}

// ParseApartmentKey normalizes and validates raw in one step.
func ParseApartmentKey(raw string) (ApartmentKey, error) {
	k := NormalizeApartmentKey(raw)
	if !k.Valid() {
		return k, fmt.Errorf("apartment %q: %w", raw, ErrInvalidApartment)
	}
	return k, nil
}

// Valid reports whether k is exactly one of the accepted shapes.
// It does not normalize; call NormalizeApartmentKey first for user input.
func (k ApartmentKey) Valid() bool {
	s := string(k)
	return floorUnitRe.MatchString(s) || blockFloorRe.MatchString(s)
}

func (k ApartmentKey) String() string { return string(k) }

// Apartment is a registered dwelling unit.
type Apartment struct {
	Key         ApartmentKey `json:"apartment_no" dynamodbav:"apartment_no"`
	DisplayName string       `json:"display_name" dynamodbav:"display_name,omitempty"`
}

// Label returns the display name, falling back to the key.
func (a Apartment) Label() string {
	if a.DisplayName == "" {
		return string(a.Key)
	}
	return a.DisplayName
}

type sortKey struct {
	parsed bool
	block  string
	floor  int
	unit   int
}

// apartmentSortKey splits a key into block, floor and unit. Floor-unit keys
// have an empty block, so they sort ahead of lettered blocks.
func apartmentSortKey(k ApartmentKey) sortKey {
	s := string(k)
	if m := blockFloorRe.FindStringSubmatch(s); m != nil {
		floor, _ := strconv.Atoi(m[2])
		unit, _ := strconv.Atoi(m[3])
		return sortKey{parsed: true, block: m[1], floor: floor, unit: unit}
	}
	if m := floorUnitRe.FindStringSubmatch(s); m != nil {
		floor, _ := strconv.Atoi(m[1])
		unit, _ := strconv.Atoi(m[2])
		return sortKey{parsed: true, floor: floor, unit: unit}
	}
	return sortKey{}
}

// SortApartments orders apartments by block, then numeric floor, then numeric
// unit. Keys that match no grammar go last, in lexical order.
func SortApartments(apts []Apartment) {
	sort.SliceStable(apts, func(i, j int) bool {
		a, b := apartmentSortKey(apts[i].Key), apartmentSortKey(apts[j].Key)
		if a.parsed != b.parsed {
			return a.parsed
		}
		if !a.parsed {
			return apts[i].Key < apts[j].Key
		}
		if a.block != b.block {
			return a.block < b.block
		}
		if a.floor != b.floor {
			return a.floor < b.floor
		}
		if a.unit != b.unit {
			return a.unit < b.unit
		}
		return apts[i].Key < apts[j].Key
	})
}
