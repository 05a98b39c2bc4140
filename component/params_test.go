package component

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParamsDefaults(t *testing.T) {
	p := NewParams()
	p.Define(Param{Name: "host", Type: ParamString, Default: "localhost"})

	assert.Equal(t, "localhost", p.Value("host"))
	assert.False(t, p.Has("host"))

	p.Set("host", "example.org")
	assert.True(t, p.Has("host"))
	assert.Equal(t, "example.org", p.Value("host"))
}

func TestParamsTypedAccess(t *testing.T) {
	p := NewParams()
	p.Set("port", "8080")
	p.Set("ratio", "0.75")
	p.Set("enabled", "true")
	p.Set("broken", "not-a-number")

	assert.Equal(t, 8080, p.Int("port", 0))
	assert.Equal(t, 0.75, p.Float("ratio", 0))
	assert.True(t, p.Bool("enabled", false))

	assert.Equal(t, 42, p.Int("broken", 42))
	assert.Equal(t, 1.5, p.Float("broken", 1.5))
	assert.True(t, p.Bool("broken", true))
	assert.Equal(t, 7, p.Int("missing", 7))
}

func TestParamsValidate(t *testing.T) {
	tests := []struct {
		name   string
		def    Param
		value  string
		wantOK bool
	}{
		{"int in range", Param{Name: "p", Type: ParamInt, Min: 1, Max: 10, HasBounds: true}, "5", true},
		{"int below range", Param{Name: "p", Type: ParamInt, Min: 1, Max: 10, HasBounds: true}, "0", false},
		{"int not a number", Param{Name: "p", Type: ParamInt}, "abc", false},
		{"float in range", Param{Name: "p", Type: ParamFloat, Min: 0, Max: 1, HasBounds: true}, "0.5", true},
		{"float above range", Param{Name: "p", Type: ParamFloat, Min: 0, Max: 1, HasBounds: true}, "1.5", false},
		{"bool true", Param{Name: "p", Type: ParamBool}, "true", true},
		{"bool junk", Param{Name: "p", Type: ParamBool}, "maybe", false},
		{"port valid", Param{Name: "p", Type: ParamPort}, "443", true},
		{"port zero", Param{Name: "p", Type: ParamPort}, "0", false},
		{"port too high", Param{Name: "p", Type: ParamPort}, "70000", false},
		{"ipv4", Param{Name: "p", Type: ParamIPAddress}, "192.168.1.10", true},
		{"ipv6", Param{Name: "p", Type: ParamIPAddress}, "fe80::1", true},
		{"bad ip", Param{Name: "p", Type: ParamIPAddress}, "256.0.0.1", false},
		{"string max length ok", Param{Name: "p", Type: ParamString, MaxLength: 5}, "abc", true},
		{"string too long", Param{Name: "p", Type: ParamString, MaxLength: 5}, "abcdef", false},
		{"string allowed", Param{Name: "p", Type: ParamString, Allowed: []string{"a", "b"}}, "b", true},
		{"string not allowed", Param{Name: "p", Type: ParamString, Allowed: []string{"a", "b"}}, "c", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewParams()
			p.Define(tt.def)
			p.Set(tt.def.Name, tt.value)

			res := p.Validate()
			if tt.wantOK {
				assert.True(t, res.OK(), "unexpected failure: %s", res.Message)
			} else {
				require.False(t, res.OK())
				assert.Equal(t, StatusConfigError, res.Status)
				assert.Equal(t, tt.def.Name, res.Param)
			}
		})
	}
}

func TestParamsRequired(t *testing.T) {
	p := NewParams()
	p.Define(Param{Name: "ssid", Type: ParamString, Required: true})

	res := p.Validate()
	require.False(t, res.OK())
	assert.Equal(t, "ssid", res.Param)

	p.Set("ssid", "bench")
	assert.True(t, p.Validate().OK())
}

func TestParamsRequiredWithDefault(t *testing.T) {
	p := NewParams()
	p.Define(Param{Name: "mode", Type: ParamString, Required: true, Default: "auto"})

	assert.True(t, p.Validate().OK(), "a declared default satisfies a required parameter")
}

func TestParamsUnknownValueRejected(t *testing.T) {
	p := NewParams()
	p.Define(Param{Name: "known", Type: ParamString})
	p.Set("typo", "x")

	res := p.Validate()
	require.False(t, res.OK())
	assert.Equal(t, "typo", res.Param)
}

func TestParamsDefinedOrder(t *testing.T) {
	p := NewParams()
	p.Define(Param{Name: "b", Type: ParamString})
	p.Define(Param{Name: "a", Type: ParamString})
	p.Define(Param{Name: "b", Type: ParamInt}) // redefinition keeps position

	defs := p.Defined()
	require.Len(t, defs, 2)
	assert.Equal(t, "b", defs[0].Name)
	assert.Equal(t, ParamInt, defs[0].Type)
	assert.Equal(t, "a", defs[1].Name)
}
