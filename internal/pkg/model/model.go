package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

var (
	ErrMissingField = errors.New("missing field")
	ErrTrailingData = errors.New("unexpected data after payload")
	ErrNotFinite    = errors.New("value is not finite")
	ErrNullPayload  = errors.New("payload is null")
)

// Consumption is the instantaneous power draw measured at the meter.
// Negative values mean export.
type Consumption struct {
	Watts int `json:"consumption"`
}

func (c *Consumption) UnmarshalJSON(data []byte) error {
	var wire struct {
		Watts *int `json:"consumption"`
	}
	if err := StrictUnmarshal(data, &wire); err != nil {
		return err
	}
	if wire.Watts == nil {
		return missingField("consumption")
	}
	c.Watts = *wire.Watts
	return nil
}

// StrictUnmarshal rejects unknown fields, null and anything trailing the value.
func StrictUnmarshal(data []byte, v any) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return ErrNullPayload
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return ErrTrailingData
	}
	return nil
}

func missingField(name string) error {
	return fmt.Errorf("%w: %s", ErrMissingField, name)
}
