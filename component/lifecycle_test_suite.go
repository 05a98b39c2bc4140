package component

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Factory creates a fresh component instance for conformance testing.
type Factory func() Component

// StandardComponentTests runs the lifecycle conformance suite against any
// component. Component packages call this from their own tests so every
// implementation honors the same contract.
func StandardComponentTests(t *testing.T, factory Factory) {
	t.Run("BringUp", func(t *testing.T) {
		testBringUp(t, factory)
	})
	t.Run("LoopWhileActive", func(t *testing.T) {
		testLoopWhileActive(t, factory)
	})
	t.Run("Shutdown", func(t *testing.T) {
		testShutdown(t, factory)
	})
	t.Run("Reinitialize", func(t *testing.T) {
		testReinitialize(t, factory)
	})
	t.Run("Metadata", func(t *testing.T) {
		testMetadata(t, factory)
	})
}

func testBringUp(t *testing.T, factory Factory) {
	c := factory()
	r := NewRegistry()
	require.True(t, r.Register(c))

	assert.False(t, c.Active(), "component must not be active before bring-up")

	st := r.InitializeAll()
	require.True(t, st.OK(), "bring-up failed: %s", st)
	assert.True(t, c.Active())
	assert.True(t, c.Status().OK())
}

func testLoopWhileActive(t *testing.T, factory Factory) {
	c := factory()
	r := NewRegistry()
	require.True(t, r.Register(c))
	require.True(t, r.InitializeAll().OK())

	// Loop must tolerate repeated calls without blocking or panicking.
	for i := 0; i < 10; i++ {
		r.LoopAll()
	}
}

func testShutdown(t *testing.T, factory Factory) {
	c := factory()
	r := NewRegistry()
	require.True(t, r.Register(c))
	require.True(t, r.InitializeAll().OK())

	r.ShutdownAll()
	assert.False(t, c.Active(), "component must be inactive after shutdown")
	assert.False(t, r.IsInitialized())
}

func testReinitialize(t *testing.T, factory Factory) {
	c := factory()
	r := NewRegistry()
	require.True(t, r.Register(c))

	require.True(t, r.InitializeAll().OK())
	r.ShutdownAll()
	require.True(t, r.InitializeAll().OK(), "component must survive a full down/up cycle")
	assert.True(t, c.Active())
}

func testMetadata(t *testing.T, factory Factory) {
	c := factory()
	meta := c.Meta()
	assert.NotEmpty(t, meta.Name, "component must declare a name")
	assert.NotEmpty(t, meta.Version, "component must declare a version")

	for _, dep := range c.Dependencies() {
		assert.NotEmpty(t, dep.Name, "dependency edges must name a component")
		assert.NotEqual(t, meta.Name, dep.Name, "component must not depend on itself")
	}
}
