package config

import "errors"

var (
	// ErrMissingParameter is returned when a required component parameter is absent.
	ErrMissingParameter = errors.New("missing parameter")
	// ErrIllegalParameter is returned when a parameter has the wrong type or an out-of-range value.
	ErrIllegalParameter = errors.New("illegal parameter")
	// ErrUnknownComponent is returned when a component type has no registered factory.
	ErrUnknownComponent = errors.New("unknown component type")
)
