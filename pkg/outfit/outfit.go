// Package outfit describes character outfit colour selections and the
// fixed HSI palette they index into.
package outfit

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Addon bits.
const (
	AddonFirst  uint8 = 1 << 0
	AddonSecond uint8 = 1 << 1
	AddonAll          = AddonFirst | AddonSecond
)

// ErrInvalidOutfit is returned when an outfit string cannot be parsed.
var ErrInvalidOutfit = errors.New("invalid outfit")

// Data holds the four colour selections of an outfit, each an index into
// the palette, plus the addon bitmask.
type Data struct {
	Head   int
	Body   int
	Legs   int
	Feet   int
	Addons uint8
}

// HasAddon reports whether addon layer n (1-based) is enabled.
func (d Data) HasAddon(n int) bool {
	if n <= 0 || n > 8 {
		return false
	}
	return d.Addons&(1<<(n-1)) != 0
}

// String formats the outfit as "head,body,legs,feet,addons".
func (d Data) String() string {
	return fmt.Sprintf("%d,%d,%d,%d,%d", d.Head, d.Body, d.Legs, d.Feet, d.Addons)
}

// Parse reads "head,body,legs,feet" with an optional fifth addons field.
func Parse(s string) (Data, error) {
	parts := strings.Split(strings.TrimSpace(s), ",")
	if len(parts) != 4 && len(parts) != 5 {
		return Data{}, fmt.Errorf("%w: %q: expected 4 or 5 fields", ErrInvalidOutfit, s)
	}

	var vals [5]int
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return Data{}, fmt.Errorf("%w: field %d: %v", ErrInvalidOutfit, i+1, err)
		}
		if i < 4 && (v < 0 || v >= PaletteSize) {
			return Data{}, fmt.Errorf("%w: colour %d out of range [0,%d)", ErrInvalidOutfit, v, PaletteSize)
		}
		if i == 4 && (v < 0 || v > 255) {
			return Data{}, fmt.Errorf("%w: addons %d out of range", ErrInvalidOutfit, v)
		}
		vals[i] = v
	}

	return Data{
		Head:   vals[0],
		Body:   vals[1],
		Legs:   vals[2],
		Feet:   vals[3],
		Addons: uint8(vals[4]),
	}, nil
}
