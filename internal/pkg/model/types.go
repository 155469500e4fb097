package model

import (
	"errors"
	"fmt"
)

var ErrUnknownPriceLevel = errors.New("unknown price level")

// PriceLevel classifies the current price relative to the trailing average.
type PriceLevel string

func (pl PriceLevel) String() string {
	return string(pl)
}

const (
	PriceLevelVeryCheap     PriceLevel = "VeryCheap"
	PriceLevelCheap         PriceLevel = "Cheap"
	PriceLevelNormal        PriceLevel = "Normal"
	PriceLevelExpensive     PriceLevel = "Expensive"
	PriceLevelVeryExpensive PriceLevel = "VeryExpensive"
	PriceLevelNone          PriceLevel = "None"
)

var PriceLevels = []PriceLevel{
	PriceLevelVeryCheap,
	PriceLevelCheap,
	PriceLevelNormal,
	PriceLevelExpensive,
	PriceLevelVeryExpensive,
	PriceLevelNone,
}

func (pl PriceLevel) Valid() bool {
	for _, l := range PriceLevels {
		if l == pl {
			return true
		}
	}
	return false
}

// ParsePriceLevel only accepts the wire tags of the enumeration.
func ParsePriceLevel(s string) (PriceLevel, error) {
	pl := PriceLevel(s)
	if !pl.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownPriceLevel, s)
	}
	return pl, nil
}

func (pl *PriceLevel) UnmarshalText(text []byte) error {
	parsed, err := ParsePriceLevel(string(text))
	if err != nil {
		return err
	}
	*pl = parsed
	return nil
}
