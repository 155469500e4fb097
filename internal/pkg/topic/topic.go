// Package topic binds a literal bus topic name to exactly one payload type,
// turning the untyped byte stream of the bus into typed events.
package topic

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"

	"github.com/anicoll/energy-monitor/internal/pkg/model"
)

var ErrRoundTrip = errors.New("round trip mismatch")

// DecodeError is returned when bytes on a topic do not parse as the bound payload.
type DecodeError struct {
	Topic string
	Err   error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.Topic, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

type validator interface {
	Validate() error
}

// Topic is an immutable (name, payload type) pair. The sample is a known good
// payload used for the startup self check.
type Topic[T any] struct {
	name   string
	sample T
}

func New[T any](name string, sample T) Topic[T] {
	return Topic[T]{name: name, sample: sample}
}

func (t Topic[T]) Name() string {
	return t.name
}

func (t Topic[T]) String() string {
	return t.name
}

func (t Topic[T]) Encode(v T) ([]byte, error) {
	if val, ok := any(v).(validator); ok {
		if err := val.Validate(); err != nil {
			return nil, fmt.Errorf("encode %s: %w", t.name, err)
		}
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", t.name, err)
	}
	return data, nil
}

// Decode never returns a partially populated value: on error the zero value is returned.
func (t Topic[T]) Decode(data []byte) (T, error) {
	var v T
	if err := model.StrictUnmarshal(data, &v); err != nil {
		var zero T
		return zero, &DecodeError{Topic: t.name, Err: err}
	}
	if val, ok := any(v).(validator); ok {
		if err := val.Validate(); err != nil {
			var zero T
			return zero, &DecodeError{Topic: t.name, Err: err}
		}
	}
	return v, nil
}

// SelfCheck encodes and decodes the sample and compares the result.
func (t Topic[T]) SelfCheck() error {
	data, err := t.Encode(t.sample)
	if err != nil {
		return err
	}
	got, err := t.Decode(data)
	if err != nil {
		return err
	}
	if !reflect.DeepEqual(got, t.sample) {
		return fmt.Errorf("%w on %s: sent %+v, got %+v", ErrRoundTrip, t.name, t.sample, got)
	}
	return nil
}

func (t Topic[T]) payloadType() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}
