package topic

import (
	"errors"
	"fmt"
	"reflect"
)

var ErrAlreadyRegistered = errors.New("topic already registered")

// Binding is implemented by Topic only.
type Binding interface {
	Name() string
	SelfCheck() error
	payloadType() reflect.Type
}

// Registry holds every binding of a process. A name can be bound once.
type Registry struct {
	bindings map[string]Binding
	names    []string
}

func NewRegistry() *Registry {
	return &Registry{
		bindings: make(map[string]Binding),
	}
}

func (r *Registry) Register(bindings ...Binding) error {
	for _, b := range bindings {
		if existing, ok := r.bindings[b.Name()]; ok {
			return fmt.Errorf("%w: %s is bound to %s, cannot bind %s", ErrAlreadyRegistered, b.Name(), existing.payloadType(), b.payloadType())
		}
		r.bindings[b.Name()] = b
		r.names = append(r.names, b.Name())
	}
	return nil
}

// Check round-trips the sample of every binding.
func (r *Registry) Check() error {
	var errs []error
	for _, name := range r.names {
		if err := r.bindings[name].SelfCheck(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (r *Registry) Names() []string {
	return append([]string(nil), r.names...)
}

// PayloadType returns the type bound to name, or nil when name is unknown.
func (r *Registry) PayloadType(name string) reflect.Type {
	b, ok := r.bindings[name]
	if !ok {
		return nil
	}
	return b.payloadType()
}
