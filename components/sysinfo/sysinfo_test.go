package sysinfo

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

func TestHeartbeatPublishedSticky(t *testing.T) {
	r := component.NewRegistry()
	si := New()
	require.True(t, r.Register(si))
	require.True(t, r.InitializeAll().OK())

	// The interval fires on the first loop after bring-up.
	r.LoopAll()
	assert.Equal(t, uint64(1), si.Beats())

	v, ok := r.Bus().Sticky(TopicHeartbeat)
	require.True(t, ok, "heartbeat must be retained for late subscribers")
	snap, ok := v.(Snapshot)
	require.True(t, ok)
	assert.Positive(t, snap.NumGoroutines)

	// Within the same period no second heartbeat is published.
	r.LoopAll()
	assert.Equal(t, uint64(1), si.Beats())
}

func TestLateSubscriberReplay(t *testing.T) {
	r := component.NewRegistry()
	si := New()
	require.True(t, r.Register(si))
	require.True(t, r.InitializeAll().OK())
	r.LoopAll()
	r.Bus().Poll(0)

	var got []Snapshot
	r.Bus().Subscribe(TopicHeartbeat, func(p any) {
		if s, ok := p.(Snapshot); ok {
			got = append(got, s)
		}
	}, "test", true)
	require.Len(t, got, 1, "late subscriber must see the retained heartbeat")
}

func TestConfiguredPeriodValidated(t *testing.T) {
	si := New()
	si.Configure(map[string]string{"period": "0"})

	r := component.NewRegistry()
	require.True(t, r.Register(si))
	assert.Equal(t, component.StatusConfigError, r.InitializeAll())
}

func TestUnknownParameterRejected(t *testing.T) {
	si := New()
	si.Configure(map[string]string{"cadence": "5"})

	r := component.NewRegistry()
	require.True(t, r.Register(si))
	assert.Equal(t, component.StatusConfigError, r.InitializeAll())
}
