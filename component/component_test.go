package component

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusString(t *testing.T) {
	assert.Equal(t, "Success", StatusSuccess.String())
	assert.Equal(t, "Configuration Error", StatusConfigError.String())
	assert.Equal(t, "Hardware Error", StatusHardwareError.String())
	assert.Equal(t, "Dependency Error", StatusDependencyError.String())
	assert.Equal(t, "Unknown Error", Status(99).String())

	assert.True(t, StatusSuccess.OK())
	assert.False(t, StatusHardwareError.OK())
}

func TestNewBaseDefaultsVersion(t *testing.T) {
	b := NewBase(Metadata{Name: "x"})
	assert.Equal(t, "1.0.0", b.Meta().Version)

	b = NewBase(Metadata{Name: "x", Version: "2.1.0"})
	assert.Equal(t, "2.1.0", b.Meta().Version)
}

func TestBaseOwnerIsStable(t *testing.T) {
	a := NewBase(Metadata{Name: "same"})
	b := NewBase(Metadata{Name: "same"})
	other := NewBase(Metadata{Name: "other"})
	// Owner tokens derive from the name, so two instances with the same name
	// share one token and a replacement inherits its predecessor's scope.
	assert.Equal(t, a.Owner(), b.Owner())
	assert.NotEqual(t, a.Owner(), other.Owner())
}

func TestDependencyConstructors(t *testing.T) {
	r := Require("store")
	assert.Equal(t, "store", r.Name)
	assert.True(t, r.Required)

	o := Optional("display")
	assert.Equal(t, "display", o.Name)
	assert.False(t, o.Required)
}

func TestTypedOnAndEmit(t *testing.T) {
	r := NewRegistry()
	f := newFake("emitter", nil)
	require.True(t, r.Register(f))
	require.True(t, r.InitializeAll().OK())
	r.Bus().Poll(0)

	var got []float64
	id := On(f, "sensor/temp", func(v float64) { got = append(got, v) }, false)
	require.NotZero(t, id)

	Emit(f, "sensor/temp", 21.5, false)
	Emit(f, "sensor/temp", "wrong type", false)
	r.Bus().Poll(0)

	// Mismatched payloads are dropped, not delivered as zero values.
	assert.Equal(t, []float64{21.5}, got)
}

func TestTypedEmitSticky(t *testing.T) {
	r := NewRegistry()
	f := newFake("emitter", nil)
	require.True(t, r.Register(f))
	require.True(t, r.InitializeAll().OK())
	r.Bus().Poll(0)

	Emit(f, "state/mode", "eco", true)
	r.Bus().Poll(0)

	var got string
	On(f, "state/mode", func(v string) { got = v }, true)
	assert.Equal(t, "eco", got)
}

func TestTypedOnBeforeBusInjection(t *testing.T) {
	f := newFake("early", nil)
	// Not registered: no bus yet, subscription must be refused.
	assert.Zero(t, On(f, "t", func(any) {}, false))
}

func TestNotify(t *testing.T) {
	r := NewRegistry()
	f := newFake("notifier", nil)
	require.True(t, r.Register(f))
	require.True(t, r.InitializeAll().OK())
	r.Bus().Poll(0)

	called := false
	On(f, "ping", func(v any) {
		called = true
		assert.Nil(t, v)
	}, false)

	Notify(f, "ping")
	r.Bus().Poll(0)
	assert.True(t, called)
}
