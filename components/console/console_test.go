package console

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/devicekit/component"
)

func TestConformance(t *testing.T) {
	component.StandardComponentTests(t, func() component.Component {
		return New()
	})
}

func TestMirrorsAllTraffic(t *testing.T) {
	r := component.NewRegistry()
	c := New()
	require.True(t, r.Register(c))
	require.True(t, r.InitializeAll().OK())
	r.Bus().Poll(0) // readiness events count too; clear them first

	before := c.Seen()
	r.Bus().Publish("sensor/temp", 21.5)
	r.Bus().Publish("actuator/relay", "on")
	r.Bus().Poll(0)

	assert.Equal(t, before+2, c.Seen())
}

func TestPatternScopesMirroring(t *testing.T) {
	r := component.NewRegistry()
	c := NewWithPattern("sensor/*")
	require.True(t, r.Register(c))
	require.True(t, r.InitializeAll().OK())
	r.Bus().Poll(0)

	before := c.Seen()
	r.Bus().Publish("sensor/temp", 1)
	r.Bus().Publish("actuator/relay", 2)
	r.Bus().Poll(0)

	assert.Equal(t, before+1, c.Seen())
}

func TestShutdownStopsMirroring(t *testing.T) {
	r := component.NewRegistry()
	c := New()
	require.True(t, r.Register(c))
	require.True(t, r.InitializeAll().OK())
	r.Bus().Poll(0)

	r.ShutdownAll()
	before := c.Seen()
	r.Bus().Publish("sensor/temp", 1)
	r.Bus().Poll(0)
	assert.Equal(t, before, c.Seen())
}
