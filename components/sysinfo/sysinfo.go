// Package sysinfo provides a component that periodically publishes runtime
// health snapshots on the event bus.
package sysinfo

import (
	"runtime"
	"time"

	"github.com/c360/devicekit/component"
	"github.com/c360/devicekit/core"
)

// Name is the component name used for registration and dependency edges.
const Name = "sysinfo"

// TopicHeartbeat carries a Snapshot, retained sticky so late subscribers see
// the latest reading immediately.
const TopicHeartbeat = "sysinfo/heartbeat"

// DefaultPeriod is the heartbeat interval when not configured.
const DefaultPeriod = 5 * time.Second

// Snapshot is one health reading.
type Snapshot struct {
	Uptime        time.Duration `json:"uptime"`
	HeapAllocKB   uint64        `json:"heap_alloc_kb"`
	HeapSysKB     uint64        `json:"heap_sys_kb"`
	NumGC         uint32        `json:"num_gc"`
	NumGoroutines int           `json:"num_goroutines"`
}

// Component publishes heartbeat snapshots.
type Component struct {
	component.Base

	params   *component.Params
	interval *core.Interval
	started  time.Time
	beats    uint64
}

// New creates a sysinfo component with the default period.
func New() *Component {
	p := component.NewParams()
	p.Define(component.Param{
		Name:        "period",
		Type:        component.ParamInt,
		Default:     "5",
		Description: "heartbeat period in seconds",
		Min:         1,
		Max:         3600,
		HasBounds:   true,
	})
	return &Component{
		Base: component.NewBase(component.Metadata{
			Name:        Name,
			Description: "periodic runtime health snapshots",
			Category:    "system",
		}),
		params: p,
	}
}

// Configure applies raw parameter values before Begin.
func (c *Component) Configure(values map[string]string) {
	for k, v := range values {
		c.params.Set(k, v)
	}
}

// Begin validates parameters and arms the heartbeat interval.
func (c *Component) Begin() component.Status {
	if res := c.params.Validate(); !res.OK() {
		c.Logger().Error("invalid parameter",
			"param", res.Param,
			"reason", res.Message)
		return res.Status
	}
	period := time.Duration(c.params.Int("period", 5)) * time.Second
	c.interval = core.NewInterval(period)
	c.started = time.Now()
	return component.StatusSuccess
}

// Loop publishes one sticky heartbeat per period.
func (c *Component) Loop() {
	if !c.interval.Ready() {
		return
	}
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	c.beats++
	component.Emit(c, TopicHeartbeat, Snapshot{
		Uptime:        time.Since(c.started),
		HeapAllocKB:   m.HeapAlloc / 1024,
		HeapSysKB:     m.HeapSys / 1024,
		NumGC:         m.NumGC,
		NumGoroutines: runtime.NumGoroutine(),
	}, true)
}

// Shutdown releases nothing; the component holds no external resources.
func (c *Component) Shutdown() component.Status {
	return component.StatusSuccess
}

// OnComponentsReady logs the component census once the whole set is up.
func (c *Component) OnComponentsReady(registry *component.Registry) {
	c.Logger().Info("system census",
		"components", registry.ComponentCount())
}

// Beats returns the number of heartbeats published so far.
func (c *Component) Beats() uint64 {
	return c.beats
}
