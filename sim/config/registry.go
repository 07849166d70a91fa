package config

import (
	"fmt"
	"sort"

	"github.com/overlay-sim/overlay-sim/sim"
)

// ProtocolFactory builds the prototype instance of a protocol. It runs at
// every network reset, so it must not hold state across calls.
type ProtocolFactory func(p Params) (sim.Protocol, error)

// ControlFactory builds an initializer or a control.
type ControlFactory func(p Params) (sim.Control, error)

// Registry maps component type names to factories. The embedding
// application fills it at startup; nothing registers itself implicitly.
type Registry struct {
	protocols map[string]ProtocolFactory
	controls  map[string]ControlFactory
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		protocols: make(map[string]ProtocolFactory),
		controls:  make(map[string]ControlFactory),
	}
}

// RegisterProtocol binds typ to f. Panics on a duplicate or nil factory.
func (r *Registry) RegisterProtocol(typ string, f ProtocolFactory) {
	if f == nil {
		panic(fmt.Sprintf("RegisterProtocol(%q): nil factory", typ))
	}
	if _, dup := r.protocols[typ]; dup {
		panic(fmt.Sprintf("RegisterProtocol(%q): already registered", typ))
	}
	r.protocols[typ] = f
}

// RegisterControl binds typ to f. Panics on a duplicate or nil factory.
func (r *Registry) RegisterControl(typ string, f ControlFactory) {
	if f == nil {
		panic(fmt.Sprintf("RegisterControl(%q): nil factory", typ))
	}
	if _, dup := r.controls[typ]; dup {
		panic(fmt.Sprintf("RegisterControl(%q): already registered", typ))
	}
	r.controls[typ] = f
}

// Protocol returns the factory registered for typ.
func (r *Registry) Protocol(typ string) (ProtocolFactory, error) {
	f, ok := r.protocols[typ]
	if !ok {
		return nil, fmt.Errorf("%w: protocol %q; valid: %v", ErrUnknownComponent, typ, r.ProtocolTypes())
	}
	return f, nil
}

// Control returns the factory registered for typ.
func (r *Registry) Control(typ string) (ControlFactory, error) {
	f, ok := r.controls[typ]
	if !ok {
		return nil, fmt.Errorf("%w: control %q; valid: %v", ErrUnknownComponent, typ, r.ControlTypes())
	}
	return f, nil
}

// ProtocolTypes lists the registered protocol types, sorted.
func (r *Registry) ProtocolTypes() []string { return sortedKeys(r.protocols) }

// ControlTypes lists the registered control types, sorted.
func (r *Registry) ControlTypes() []string { return sortedKeys(r.controls) }

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
