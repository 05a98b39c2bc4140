// Package component defines the Component lifecycle contract and the Registry
// that owns components, resolves their bring-up order from declared
// dependencies, and drives the three lifecycle phases.
package component

import (
	"log/slog"

	"github.com/c360/devicekit/eventbus"
)

// Status is the result of a lifecycle operation, consumed and produced at the
// component boundary. Collaborating subsystems report their failures through
// this taxonomy; the kernel merely propagates the non-local ones.
type Status int

const (
	// StatusSuccess indicates the operation completed normally
	StatusSuccess Status = iota
	// StatusConfigError indicates bad or missing configuration
	StatusConfigError
	// StatusHardwareError indicates a peripheral or storage init failure
	StatusHardwareError
	// StatusDependencyError indicates an unresolved or cyclic dependency
	StatusDependencyError
	// StatusNetworkError is reported by connectivity components
	StatusNetworkError
	// StatusMemoryError indicates allocation or capacity exhaustion
	StatusMemoryError
	// StatusTimeoutError is reported by components that track deadlines
	StatusTimeoutError
	// StatusInvalidState indicates an operation attempted out of lifecycle order
	StatusInvalidState
	// StatusNotSupported indicates the platform lacks a capability
	StatusNotSupported
)

// String returns a stable human-readable name for logging
func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "Success"
	case StatusConfigError:
		return "Configuration Error"
	case StatusHardwareError:
		return "Hardware Error"
	case StatusDependencyError:
		return "Dependency Error"
	case StatusNetworkError:
		return "Network Error"
	case StatusMemoryError:
		return "Memory Error"
	case StatusTimeoutError:
		return "Timeout Error"
	case StatusInvalidState:
		return "Invalid State"
	case StatusNotSupported:
		return "Not Supported"
	default:
		return "Unknown Error"
	}
}

// OK reports whether the status is StatusSuccess
func (s Status) OK() bool {
	return s == StatusSuccess
}

// Metadata describes what a component is
type Metadata struct {
	Name        string   `json:"name"`
	Version     string   `json:"version"`
	Author      string   `json:"author,omitempty"`
	Description string   `json:"description,omitempty"`
	Category    string   `json:"category,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// Dependency names another component this one needs. Missing optional
// providers are legal; missing required providers abort bring-up.
type Dependency struct {
	Name     string
	Required bool
}

// Require declares a hard dependency edge
func Require(name string) Dependency {
	return Dependency{Name: name, Required: true}
}

// Optional declares a soft dependency edge
func Optional(name string) Dependency {
	return Dependency{Name: name, Required: false}
}

// Component is the contract every pluggable subsystem implements.
//
// Begin performs one-time, self-contained bring-up; no sibling component is
// guaranteed to exist yet. Loop is called once per host tick while the
// component is active and must not block. Shutdown releases resources and is
// called in reverse bring-up order.
//
// The unexported methods are provided by Base, which concrete components
// embed; they keep lifecycle mutation (the active flag, runtime injection)
// exclusive to the Registry.
type Component interface {
	Begin() Status
	Loop()
	Shutdown() Status

	Meta() Metadata
	Dependencies() []Dependency
	Active() bool
	Status() Status
	SetStatus(Status)

	setActive(bool)
	attachRegistry(*Registry)
	attachBus(*eventbus.Bus, *slog.Logger)
}

// ComponentsReadyHook is invoked on every component after the entire set has
// reached StatusSuccess. Cross-component discovery is safe here, unlike in
// Begin.
type ComponentsReadyHook interface {
	OnComponentsReady(registry *Registry)
}

// AllReadyHook runs strictly after every ComponentsReadyHook, once every
// declared dependency (including framework-provided ones) exists.
type AllReadyHook interface {
	AfterAllComponentsReady()
}

// ownerToken is the opaque value used to key owner-scoped bus unsubscription.
// It is derived from the component name, never from a pointer, so removing a
// component cannot leave a dangling key.
type ownerToken string

// Base carries the state common to all components: metadata, declared
// dependencies, the active flag, the last observed status, and non-owning
// references to the Registry and Bus injected by the framework. Concrete
// components embed Base and implement Begin, Loop, and Shutdown.
type Base struct {
	meta   Metadata
	deps   []Dependency
	active bool
	status Status

	// Non-owning back-references for lazy service lookup. Never used to
	// extend or control the Registry's lifetime.
	registry *Registry
	bus      *eventbus.Bus
	logger   *slog.Logger
}

// NewBase creates the embedded base for a component
func NewBase(meta Metadata, deps ...Dependency) Base {
	if meta.Version == "" {
		meta.Version = "1.0.0"
	}
	return Base{meta: meta, deps: deps}
}

// Meta returns the component metadata
func (b *Base) Meta() Metadata {
	return b.meta
}

// Dependencies returns the declared dependency list
func (b *Base) Dependencies() []Dependency {
	return b.deps
}

// Active reports whether the Registry currently drives this component's Loop
func (b *Base) Active() bool {
	return b.active
}

// Status returns the last observed status
func (b *Base) Status() Status {
	return b.status
}

// SetStatus records the component's own status. This is the only mutation a
// component performs on its record; everything else belongs to the Registry.
func (b *Base) SetStatus(s Status) {
	b.status = s
}

// Bus returns the shared event bus, or nil before the framework injects it
func (b *Base) Bus() *eventbus.Bus {
	return b.bus
}

// Registry returns the owning registry for lookup of sibling components,
// or nil before registration
func (b *Base) Registry() *Registry {
	return b.registry
}

// Logger returns the component-scoped logger
func (b *Base) Logger() *slog.Logger {
	if b.logger != nil {
		return b.logger
	}
	return slog.Default()
}

// Owner returns the opaque token under which this component's bus
// subscriptions are installed
func (b *Base) Owner() any {
	return ownerToken(b.meta.Name)
}

func (b *Base) setActive(v bool) {
	b.active = v
}

func (b *Base) attachRegistry(r *Registry) {
	b.registry = r
}

func (b *Base) attachBus(bus *eventbus.Bus, logger *slog.Logger) {
	b.bus = bus
	if logger != nil {
		b.logger = logger
	}
}
