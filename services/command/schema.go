package command

import (
	"math"

	"voicebox-go/errcode"
)

// PropertyType is the wire type of a command parameter.
type PropertyType uint8

const (
	TypeBool PropertyType = iota + 1
	TypeInt
	TypeString
)

func (t PropertyType) String() string {
	switch t {
	case TypeBool:
		return "boolean"
	case TypeInt:
		return "integer"
	case TypeString:
		return "string"
	default:
		return "invalid"
	}
}

// Property describes one named parameter. A property without a default is
// required.
type Property struct {
	Name     string
	Type     PropertyType
	Default  any
	HasRange bool
	Min, Max int
}

func BoolProp(name string) Property   { return Property{Name: name, Type: TypeBool} }
func IntProp(name string) Property    { return Property{Name: name, Type: TypeInt} }
func StringProp(name string) Property { return Property{Name: name, Type: TypeString} }

// IntRange is an integer property constrained to [min, max].
func IntRange(name string, min, max int) Property {
	return Property{Name: name, Type: TypeInt, HasRange: true, Min: min, Max: max}
}

// WithDefault makes the property optional.
func (p Property) WithDefault(v any) Property {
	p.Default = v
	return p
}

func (p Property) Required() bool { return p.Default == nil }

// Schema is the ordered parameter list of a command. The zero value takes no
// parameters.
type Schema []Property

// Args are the decoded parameters of one invocation, as they arrive from the
// dispatcher (JSON numbers decode as float64).
type Args map[string]any

func (a Args) Bool(name string) bool     { v, _ := a[name].(bool); return v }
func (a Args) Int(name string) int       { v, _ := a[name].(int); return v }
func (a Args) String(name string) string { v, _ := a[name].(string); return v }

// Validate checks args against the schema and returns a normalised copy with
// defaults filled in and integers converted to int.
func (s Schema) Validate(args Args) (Args, error) {
	out := make(Args, len(s))
	known := make(map[string]struct{}, len(s))
	for _, p := range s {
		known[p.Name] = struct{}{}
		raw, ok := args[p.Name]
		if !ok {
			if p.Required() {
				return nil, &errcode.E{C: errcode.InvalidParams, Msg: "missing " + p.Name}
			}
			raw = p.Default
		}
		v, err := p.coerce(raw)
		if err != nil {
			return nil, err
		}
		out[p.Name] = v
	}
	for name := range args {
		if _, ok := known[name]; !ok {
			return nil, &errcode.E{C: errcode.InvalidParams, Msg: "unknown parameter " + name}
		}
	}
	return out, nil
}

func (p Property) coerce(raw any) (any, error) {
	bad := &errcode.E{C: errcode.InvalidParams, Msg: p.Name + ": want " + p.Type.String()}
	switch p.Type {
	case TypeBool:
		if v, ok := raw.(bool); ok {
			return v, nil
		}
	case TypeString:
		if v, ok := raw.(string); ok {
			return v, nil
		}
	case TypeInt:
		n, ok := asInt(raw)
		if !ok {
			return nil, bad
		}
		if p.HasRange && (n < p.Min || n > p.Max) {
			return nil, &errcode.E{C: errcode.InvalidParams, Msg: p.Name + ": out of range"}
		}
		return n, nil
	}
	return nil, bad
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case float64:
		if n != math.Trunc(n) || n > math.MaxInt32 || n < math.MinInt32 {
			return 0, false
		}
		return int(n), true
	default:
		return 0, false
	}
}

// ---- JSON schema view (for tool listings) ----

type InputSchema struct {
	Type       string                    `json:"type"`
	Properties map[string]PropertySchema `json:"properties"`
	Required   []string                  `json:"required,omitempty"`
}

type PropertySchema struct {
	Type    string `json:"type"`
	Default any    `json:"default,omitempty"`
	Minimum *int   `json:"minimum,omitempty"`
	Maximum *int   `json:"maximum,omitempty"`
}

func (s Schema) JSON() InputSchema {
	in := InputSchema{Type: "object", Properties: make(map[string]PropertySchema, len(s))}
	for _, p := range s {
		ps := PropertySchema{Type: p.Type.String(), Default: p.Default}
		if p.HasRange {
			lo, hi := p.Min, p.Max
			ps.Minimum, ps.Maximum = &lo, &hi
		}
		in.Properties[p.Name] = ps
		if p.Required() {
			in.Required = append(in.Required, p.Name)
		}
	}
	return in
}

// ---- Typed parameters ----

// Params ties a parameter struct to its schema. Bind receives args that
// already passed Schema().Validate.
type Params interface {
	Schema() Schema
	Bind(args Args) error
}

// NoParams is the parameter type of commands that take no arguments.
type NoParams struct{}

func (NoParams) Schema() Schema        { return nil }
func (*NoParams) Bind(args Args) error { return nil }
