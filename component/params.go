package component

import (
	"fmt"
	"net"
	"strconv"
)

// ParamType constrains how a parameter value is validated.
type ParamType int

const (
	// ParamString is free text, optionally bounded by MaxLength and Allowed.
	ParamString ParamType = iota
	// ParamInt is an integer, optionally bounded by Min and Max.
	ParamInt
	// ParamFloat is a floating point number, optionally bounded by Min and Max.
	ParamFloat
	// ParamBool parses "true"/"false"/"1"/"0".
	ParamBool
	// ParamPort is an integer in 1..65535.
	ParamPort
	// ParamIPAddress is a textual IPv4 or IPv6 address.
	ParamIPAddress
)

// Param declares one configuration parameter a component accepts.
type Param struct {
	Name        string
	Type        ParamType
	Default     string
	Description string
	Required    bool

	// Numeric bounds, honored for ParamInt and ParamFloat.
	Min float64
	Max float64
	// HasBounds marks Min/Max as meaningful; the zero bounds are not.
	HasBounds bool

	// MaxLength bounds ParamString values when positive.
	MaxLength int
	// Allowed restricts ParamString values to a fixed set when non-empty.
	Allowed []string
}

// ValidationResult reports the outcome of validating a parameter set.
type ValidationResult struct {
	Status  Status
	Param   string
	Message string
}

// OK reports whether validation passed.
func (v ValidationResult) OK() bool {
	return v.Status.OK()
}

// Params holds a component's declared parameters and their current values.
// Values are stored as strings and parsed on access, matching how they arrive
// from config files and provisioning interfaces.
type Params struct {
	defs   map[string]Param
	order  []string
	values map[string]string
}

// NewParams creates an empty parameter set.
func NewParams() *Params {
	return &Params{
		defs:   make(map[string]Param),
		values: make(map[string]string),
	}
}

// Define declares a parameter. Redefining a name overwrites the previous
// declaration but keeps its declaration position.
func (p *Params) Define(param Param) {
	if param.Name == "" {
		return
	}
	if _, exists := p.defs[param.Name]; !exists {
		p.order = append(p.order, param.Name)
	}
	p.defs[param.Name] = param
}

// Set assigns a raw value. Unknown names are accepted and flagged later by
// Validate, so load order between definitions and config files is free.
func (p *Params) Set(name, value string) {
	if name == "" {
		return
	}
	p.values[name] = value
}

// Has reports whether the parameter has an explicit value set.
func (p *Params) Has(name string) bool {
	_, ok := p.values[name]
	return ok
}

// Value returns the raw string value, falling back to the declared default.
func (p *Params) Value(name string) string {
	if v, ok := p.values[name]; ok {
		return v
	}
	if def, ok := p.defs[name]; ok {
		return def.Default
	}
	return ""
}

// Int returns the value parsed as an integer, or the fallback on any
// parse failure.
func (p *Params) Int(name string, fallback int) int {
	v := p.Value(name)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

// Float returns the value parsed as a float, or the fallback on any
// parse failure.
func (p *Params) Float(name string, fallback float64) float64 {
	v := p.Value(name)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

// Bool returns the value parsed as a boolean, or the fallback on any
// parse failure.
func (p *Params) Bool(name string, fallback bool) bool {
	switch p.Value(name) {
	case "true", "1", "yes", "on":
		return true
	case "false", "0", "no", "off":
		return false
	default:
		return fallback
	}
}

// Defined returns the declared parameters in declaration order.
func (p *Params) Defined() []Param {
	out := make([]Param, 0, len(p.order))
	for _, name := range p.order {
		out = append(out, p.defs[name])
	}
	return out
}

// Validate checks every declared parameter against its constraints and every
// set value against the declarations. The first violation is returned;
// a passing set returns a StatusSuccess result.
func (p *Params) Validate() ValidationResult {
	for _, name := range p.order {
		def := p.defs[name]
		raw, set := p.values[name]
		if !set {
			if def.Required && def.Default == "" {
				return fail(StatusConfigError, name, "required parameter not set")
			}
			raw = def.Default
			if raw == "" {
				continue
			}
		}
		if res := validateValue(def, raw); !res.OK() {
			return res
		}
	}

	for name := range p.values {
		if _, ok := p.defs[name]; !ok {
			return fail(StatusConfigError, name, "unknown parameter")
		}
	}
	return ValidationResult{Status: StatusSuccess}
}

func validateValue(def Param, raw string) ValidationResult {
	switch def.Type {
	case ParamString:
		if def.MaxLength > 0 && len(raw) > def.MaxLength {
			return fail(StatusConfigError, def.Name,
				fmt.Sprintf("value exceeds max length %d", def.MaxLength))
		}
		if len(def.Allowed) > 0 {
			for _, a := range def.Allowed {
				if raw == a {
					return ValidationResult{Status: StatusSuccess}
				}
			}
			return fail(StatusConfigError, def.Name, "value not in allowed set")
		}

	case ParamInt:
		n, err := strconv.Atoi(raw)
		if err != nil {
			return fail(StatusConfigError, def.Name, "value is not an integer")
		}
		if def.HasBounds && (float64(n) < def.Min || float64(n) > def.Max) {
			return fail(StatusConfigError, def.Name,
				fmt.Sprintf("value %d outside range [%g, %g]", n, def.Min, def.Max))
		}

	case ParamFloat:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fail(StatusConfigError, def.Name, "value is not a number")
		}
		if def.HasBounds && (f < def.Min || f > def.Max) {
			return fail(StatusConfigError, def.Name,
				fmt.Sprintf("value %g outside range [%g, %g]", f, def.Min, def.Max))
		}

	case ParamBool:
		switch raw {
		case "true", "false", "1", "0", "yes", "no", "on", "off":
		default:
			return fail(StatusConfigError, def.Name, "value is not a boolean")
		}

	case ParamPort:
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 65535 {
			return fail(StatusConfigError, def.Name, "value is not a valid port")
		}

	case ParamIPAddress:
		if net.ParseIP(raw) == nil {
			return fail(StatusConfigError, def.Name, "value is not a valid IP address")
		}
	}
	return ValidationResult{Status: StatusSuccess}
}

func fail(st Status, param, msg string) ValidationResult {
	return ValidationResult{Status: st, Param: param, Message: msg}
}
