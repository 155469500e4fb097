package model

import (
	"fmt"
	"math"
)

type PriceInformation struct {
	Total float64    `json:"total"` // incl. tax, in the account currency
	Level PriceLevel `json:"level"`
}

func (p PriceInformation) Validate() error {
	if math.IsNaN(p.Total) || math.IsInf(p.Total, 0) {
		return fmt.Errorf("total: %w", ErrNotFinite)
	}
	if !p.Level.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownPriceLevel, p.Level)
	}
	return nil
}

func (p *PriceInformation) UnmarshalJSON(data []byte) error {
	var wire struct {
		Total *float64    `json:"total"`
		Level *PriceLevel `json:"level"`
	}
	if err := StrictUnmarshal(data, &wire); err != nil {
		return err
	}
	if wire.Total == nil {
		return missingField("total")
	}
	if wire.Level == nil {
		return missingField("level")
	}
	p.Total = *wire.Total
	p.Level = *wire.Level
	return nil
}
