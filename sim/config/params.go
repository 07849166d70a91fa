package config

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/overlay-sim/overlay-sim/sim"
)

// env carries what factories may resolve by name while an experiment is built.
type env struct {
	pids  map[string]int
	inits map[string]sim.Control
}

// Params gives typed access to the free-form params block of one component.
type Params struct {
	component string
	values    map[string]any
	env       *env
}

// NewParams wraps values for the component called name. Params built this
// way cannot resolve protocol or initializer names.
func NewParams(name string, values map[string]any) Params {
	if values == nil {
		values = map[string]any{}
	}
	return Params{component: name, values: values}
}

// Component returns the configured name of the component.
func (p Params) Component() string { return p.component }

// Has reports whether key is set.
func (p Params) Has(key string) bool {
	_, ok := p.values[key]
	return ok
}

func (p Params) missing(key string) error {
	return fmt.Errorf("%s.params.%s: %w", p.component, key, ErrMissingParameter)
}

func (p Params) illegal(key string, v any, want string) error {
	return fmt.Errorf("%s.params.%s: %w: %v is not %s", p.component, key, ErrIllegalParameter, v, want)
}

// Int returns the required integer parameter key.
func (p Params) Int(key string) (int64, error) {
	v, ok := p.values[key]
	if !ok {
		return 0, p.missing(key)
	}
	switch x := v.(type) {
	case int:
		return int64(x), nil
	case int64:
		return x, nil
	case uint64:
		if x > math.MaxInt64 {
			return 0, p.illegal(key, v, "an int64")
		}
		return int64(x), nil
	case float64:
		if x != math.Trunc(x) || math.IsInf(x, 0) || math.IsNaN(x) {
			return 0, p.illegal(key, v, "an integer")
		}
		return int64(x), nil
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64)
		if err != nil {
			return 0, p.illegal(key, v, "an integer")
		}
		return n, nil
	}
	return 0, p.illegal(key, v, "an integer")
}

// IntOr returns the integer parameter key, or def when unset.
func (p Params) IntOr(key string, def int64) (int64, error) {
	if !p.Has(key) {
		return def, nil
	}
	return p.Int(key)
}

// Float returns the required numeric parameter key.
func (p Params) Float(key string) (float64, error) {
	v, ok := p.values[key]
	if !ok {
		return 0, p.missing(key)
	}
	switch x := v.(type) {
	case int:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case uint64:
		return float64(x), nil
	case float64:
		if math.IsNaN(x) {
			return 0, p.illegal(key, v, "a number")
		}
		return x, nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, p.illegal(key, v, "a number")
		}
		return f, nil
	}
	return 0, p.illegal(key, v, "a number")
}

// FloatOr returns the numeric parameter key, or def when unset.
func (p Params) FloatOr(key string, def float64) (float64, error) {
	if !p.Has(key) {
		return def, nil
	}
	return p.Float(key)
}

// BoolOr returns the boolean parameter key, or def when unset.
func (p Params) BoolOr(key string, def bool) (bool, error) {
	v, ok := p.values[key]
	if !ok {
		return def, nil
	}
	switch x := v.(type) {
	case bool:
		return x, nil
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(x))
		if err != nil {
			return false, p.illegal(key, v, "a boolean")
		}
		return b, nil
	}
	return false, p.illegal(key, v, "a boolean")
}

// String returns the required string parameter key.
func (p Params) String(key string) (string, error) {
	v, ok := p.values[key]
	if !ok {
		return "", p.missing(key)
	}
	s, ok := v.(string)
	if !ok {
		return "", p.illegal(key, v, "a string")
	}
	return s, nil
}

// StringOr returns the string parameter key, or def when unset.
func (p Params) StringOr(key, def string) (string, error) {
	if !p.Has(key) {
		return def, nil
	}
	return p.String(key)
}

// Strings returns a list parameter given either as a YAML sequence or as a
// space or comma separated string. An unset key yields an empty list.
func (p Params) Strings(key string) ([]string, error) {
	v, ok := p.values[key]
	if !ok {
		return nil, nil
	}
	switch x := v.(type) {
	case string:
		return strings.FieldsFunc(x, func(r rune) bool { return r == ',' || r == ' ' }), nil
	case []any:
		out := make([]string, 0, len(x))
		for _, item := range x {
			s, ok := item.(string)
			if !ok {
				return nil, p.illegal(key, v, "a list of names")
			}
			out = append(out, s)
		}
		return out, nil
	}
	return nil, p.illegal(key, v, "a list of names")
}

// PID resolves the protocol named by the required parameter key.
func (p Params) PID(key string) (int, error) {
	name, err := p.String(key)
	if err != nil {
		return 0, err
	}
	if p.env == nil {
		return 0, fmt.Errorf("%s.params.%s: %w: no protocols in scope", p.component, key, ErrIllegalParameter)
	}
	pid, ok := p.env.pids[name]
	if !ok {
		return 0, fmt.Errorf("%s.params.%s: %w: %q", p.component, key, sim.ErrInvalidProtocolID, name)
	}
	return pid, nil
}

// NodeInitializers resolves the initializers named by parameter key. Each
// must have been declared earlier and must be able to initialize single nodes.
func (p Params) NodeInitializers(key string) ([]sim.NodeInitializer, error) {
	names, err := p.Strings(key)
	if err != nil {
		return nil, err
	}
	out := make([]sim.NodeInitializer, 0, len(names))
	for _, name := range names {
		var c sim.Control
		if p.env != nil {
			c = p.env.inits[name]
		}
		if c == nil {
			return nil, fmt.Errorf("%s.params.%s: %w: no initializer %q", p.component, key, ErrIllegalParameter, name)
		}
		ni, ok := c.(sim.NodeInitializer)
		if !ok {
			return nil, fmt.Errorf("%s.params.%s: %w: %q cannot initialize single nodes", p.component, key, ErrIllegalParameter, name)
		}
		out = append(out, ni)
	}
	return out, nil
}
