// Package console provides a diagnostics component that mirrors event bus
// traffic into the structured log.
package console

import (
	"github.com/c360/devicekit/component"
)

// Name is the component name used for registration and dependency edges.
const Name = "console"

// Component subscribes to a wildcard pattern and logs every matching event.
// Intended for bench debugging; leave it unregistered in production builds.
type Component struct {
	component.Base

	pattern string
	subID   uint64
	seen    uint64
}

// New creates a console component watching every topic.
func New() *Component {
	return NewWithPattern("*")
}

// NewWithPattern creates a console component watching one wildcard pattern,
// e.g. "sensor/*".
func NewWithPattern(pattern string) *Component {
	return &Component{
		Base: component.NewBase(component.Metadata{
			Name:        Name,
			Description: "mirrors bus traffic into the log",
			Category:    "diagnostics",
		}),
		pattern: pattern,
	}
}

// Begin installs the wildcard subscription.
func (c *Component) Begin() component.Status {
	c.subID = component.On(c, c.pattern, func(payload any) {
		c.seen++
		c.Logger().Info("event",
			"pattern", c.pattern,
			"payload", payload)
	}, false)
	if c.subID == 0 {
		return component.StatusInvalidState
	}
	return component.StatusSuccess
}

// Loop does nothing; delivery happens during the registry's bus drain.
func (c *Component) Loop() {}

// Shutdown drops the subscription. The registry's owner-scoped cleanup would
// catch it anyway; dropping here keeps the component self-contained.
func (c *Component) Shutdown() component.Status {
	if bus := c.Bus(); bus != nil {
		bus.Unsubscribe(c.subID)
	}
	return component.StatusSuccess
}

// AfterAllComponentsReady marks the log once the system is fully up, giving
// bench sessions a clean delimiter.
func (c *Component) AfterAllComponentsReady() {
	c.Logger().Info("console attached", "pattern", c.pattern)
}

// Seen returns the number of events mirrored so far.
func (c *Component) Seen() uint64 {
	return c.seen
}
