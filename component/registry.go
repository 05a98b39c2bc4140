package component

import (
	"log/slog"
	"sort"
	"time"

	"github.com/c360/devicekit/eventbus"
	"github.com/c360/devicekit/metric"
)

// Registry owns the component set. It resolves bring-up order from declared
// dependencies, drives the three lifecycle phases, and keeps the shared event
// bus drained once per host tick.
//
// Like the bus it carries, the Registry is single-threaded: every method must
// be called from the host loop's goroutine.
type Registry struct {
	components map[string]Component
	// order is the resolved bring-up order; valid only while initialized.
	order []Component
	// regOrder remembers registration order so dependency resolution is
	// deterministic across runs.
	regOrder []string

	initialized bool
	pollBudget  int

	bus     *eventbus.Bus
	logger  *slog.Logger
	metrics *metric.Metrics

	added   []func(Component)
	removed []func(Component)
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithLogger sets the structured logger for lifecycle diagnostics.
func WithLogger(logger *slog.Logger) RegistryOption {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithMetrics attaches kernel metrics to the registry and its bus.
func WithMetrics(m *metric.Metrics) RegistryOption {
	return func(r *Registry) {
		r.metrics = m
	}
}

// WithBus replaces the registry's event bus. Used when the host wants to
// configure queue capacity or share a bus across registries in tests.
func WithBus(bus *eventbus.Bus) RegistryOption {
	return func(r *Registry) {
		if bus != nil {
			r.bus = bus
		}
	}
}

// WithPollBudget sets the number of queued events drained per tick.
// Values below 1 are ignored.
func WithPollBudget(n int) RegistryOption {
	return func(r *Registry) {
		if n > 0 {
			r.pollBudget = n
		}
	}
}

// NewRegistry creates an empty Registry with a fresh event bus.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		components: make(map[string]Component),
		pollBudget: eventbus.DefaultPollBudget,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.bus == nil {
		busOpts := []eventbus.Option{eventbus.WithLogger(r.logger)}
		if r.metrics != nil {
			busOpts = append(busOpts, eventbus.WithMetrics(r.metrics))
		}
		r.bus = eventbus.New(busOpts...)
	}
	return r
}

// Register adds a component to the set. Registration only records the
// component; Begin is not called until InitializeAll. Returns false for a nil
// component, an empty name, or a duplicate name.
//
// Registering after InitializeAll is legal: the new component is simply not
// active until the next full bring-up.
func (r *Registry) Register(c Component) bool {
	if c == nil {
		r.logger.Warn("rejecting nil component registration")
		return false
	}
	name := c.Meta().Name
	if name == "" {
		r.logger.Warn("rejecting component with empty name")
		return false
	}
	if _, exists := r.components[name]; exists {
		r.logger.Warn("rejecting duplicate component registration", "component", name)
		return false
	}

	r.components[name] = c
	r.regOrder = append(r.regOrder, name)
	c.attachRegistry(r)

	if r.metrics != nil {
		r.metrics.ComponentsRegistered.Set(float64(len(r.components)))
	}
	r.logger.Debug("component registered",
		"component", name,
		"version", c.Meta().Version,
		"dependencies", len(c.Dependencies()))

	for _, fn := range r.added {
		fn(c)
	}
	return true
}

// InitializeAll resolves the dependency graph and brings every component up
// in topological order. The pass is fail-fast: the first component whose
// Begin does not return StatusSuccess aborts the pass, and the failing status
// is returned. Already-active components are skipped, so a partially failed
// bring-up can be retried after the operator fixes the cause.
//
// Unresolvable graphs (a missing required provider, or a cycle) return
// StatusDependencyError before any Begin runs.
//
// On full success the registry publishes one component/ready event per
// component plus a single system/ready event, then runs the two post-bring-up
// hook phases in bring-up order.
func (r *Registry) InitializeAll() Status {
	if r.initialized {
		return StatusSuccess
	}
	start := time.Now()

	order, status := r.resolveOrder()
	if !status.OK() {
		return status
	}

	for _, c := range order {
		name := c.Meta().Name
		if c.Active() {
			continue
		}

		c.attachBus(r.bus, r.logger.With("component", name))

		r.logger.Info("initializing component", "component", name)
		st := c.Begin()
		c.SetStatus(st)
		if r.metrics != nil {
			r.metrics.RecordComponentStatus(name, int(st))
		}
		if !st.OK() {
			r.logger.Error("component initialization failed",
				"component", name,
				"status", st.String())
			return st
		}

		c.setActive(true)
		r.logger.Info("component initialized", "component", name)
	}

	r.order = order
	r.initialized = true
	if r.metrics != nil {
		r.metrics.ComponentsActive.Set(float64(len(order)))
		r.metrics.RecordBringUp(time.Since(start))
	}

	// Readiness is broadcast only after the whole set is up, so a subscriber
	// can trust that every named component exists and is active.
	for _, c := range order {
		r.bus.Publish(eventbus.TopicComponentReady, c.Meta().Name)
	}
	r.bus.Publish(eventbus.TopicSystemReady, nil)

	for _, c := range order {
		if hook, ok := c.(ComponentsReadyHook); ok {
			hook.OnComponentsReady(r)
		}
	}
	for _, c := range order {
		if hook, ok := c.(AllReadyHook); ok {
			hook.AfterAllComponentsReady()
		}
	}

	r.logger.Info("all components initialized",
		"count", len(order),
		"duration", time.Since(start))
	return StatusSuccess
}

// resolveOrder builds the bring-up order with a queue-based topological sort.
// The zero-indegree frontier starts sorted by name and is consumed FIFO, so
// the order is stable for a given component set regardless of registration
// order among independent components.
func (r *Registry) resolveOrder() ([]Component, Status) {
	// Missing required providers abort before any graph work.
	for _, name := range r.regOrder {
		c := r.components[name]
		for _, dep := range c.Dependencies() {
			if _, ok := r.components[dep.Name]; ok {
				continue
			}
			if dep.Required {
				r.logger.Error("missing required dependency",
					"component", name,
					"dependency", dep.Name)
				c.SetStatus(StatusDependencyError)
				return nil, StatusDependencyError
			}
			r.logger.Debug("skipping missing optional dependency",
				"component", name,
				"dependency", dep.Name)
		}
	}

	indegree := make(map[string]int, len(r.components))
	dependents := make(map[string][]string, len(r.components))
	for _, name := range r.regOrder {
		indegree[name] = 0
	}
	for _, name := range r.regOrder {
		for _, dep := range r.components[name].Dependencies() {
			if _, ok := r.components[dep.Name]; !ok {
				continue
			}
			indegree[name]++
			dependents[dep.Name] = append(dependents[dep.Name], name)
		}
	}

	frontier := make([]string, 0, len(r.components))
	for _, name := range r.regOrder {
		if indegree[name] == 0 {
			frontier = append(frontier, name)
		}
	}
	sort.Strings(frontier)

	order := make([]Component, 0, len(r.components))
	for len(frontier) > 0 {
		name := frontier[0]
		frontier = frontier[1:]
		order = append(order, r.components[name])

		next := dependents[name]
		sort.Strings(next)
		for _, dep := range next {
			indegree[dep]--
			if indegree[dep] == 0 {
				frontier = append(frontier, dep)
			}
		}
	}

	if len(order) != len(r.components) {
		cyclic := make([]string, 0)
		for name, deg := range indegree {
			if deg > 0 {
				cyclic = append(cyclic, name)
			}
		}
		sort.Strings(cyclic)
		r.logger.Error("dependency cycle detected", "components", cyclic)
		for _, name := range cyclic {
			r.components[name].SetStatus(StatusDependencyError)
		}
		return nil, StatusDependencyError
	}
	return order, StatusSuccess
}

// LoopAll runs one host tick: each active component's Loop in bring-up order,
// then one bounded drain of the event bus. A no-op before InitializeAll.
func (r *Registry) LoopAll() {
	if !r.initialized {
		return
	}
	start := time.Now()

	for _, c := range r.order {
		if c.Active() {
			c.Loop()
		}
	}
	r.bus.Poll(r.pollBudget)

	if r.metrics != nil {
		r.metrics.RecordTick(time.Since(start))
	}
}

// ShutdownAll tears the system down in reverse bring-up order. A
// shutdown/start event is published and the queue fully drained first, so
// listeners observe it while every component is still up. Individual Shutdown
// failures are logged and do not stop the pass. A no-op before InitializeAll.
func (r *Registry) ShutdownAll() {
	if !r.initialized {
		return
	}

	r.bus.Publish(eventbus.TopicShutdownStart, nil)
	r.bus.Poll(0)

	for i := len(r.order) - 1; i >= 0; i-- {
		c := r.order[i]
		name := c.Meta().Name

		if c.Active() {
			r.logger.Info("shutting down component", "component", name)
			st := c.Shutdown()
			if !st.OK() {
				r.logger.Error("component shutdown failed",
					"component", name,
					"status", st.String())
			}
			// The failure record survives the sweep.
			c.SetStatus(st)
		}

		r.bus.UnsubscribeOwner(ownerToken(name))
		c.setActive(false)
		if r.metrics != nil {
			r.metrics.RecordComponentStatus(name, int(c.Status()))
		}
	}

	r.order = nil
	r.initialized = false
	if r.metrics != nil {
		r.metrics.ComponentsActive.Set(0)
	}
	r.logger.Info("all components shut down")
}

// Remove shuts down and deregisters a single component at runtime. Its bus
// subscriptions are revoked with it. Components that depend on the removed
// one keep running; hot removal trusts the operator to know the graph.
// Returns false if the name is unknown.
func (r *Registry) Remove(name string) bool {
	c, ok := r.components[name]
	if !ok {
		return false
	}

	if c.Active() {
		if st := c.Shutdown(); !st.OK() {
			r.logger.Error("component shutdown failed during removal",
				"component", name,
				"status", st.String())
		}
		c.setActive(false)
	}
	r.bus.UnsubscribeOwner(ownerToken(name))

	delete(r.components, name)
	for i, n := range r.regOrder {
		if n == name {
			r.regOrder = append(r.regOrder[:i], r.regOrder[i+1:]...)
			break
		}
	}
	for i, oc := range r.order {
		if oc == c {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}

	if r.metrics != nil {
		r.metrics.ComponentsRegistered.Set(float64(len(r.components)))
		r.metrics.ComponentsActive.Set(float64(r.activeCount()))
	}
	r.logger.Info("component removed", "component", name)

	for _, fn := range r.removed {
		fn(c)
	}
	return true
}

// Component returns the registered component with the given name.
func (r *Registry) Component(name string) (Component, bool) {
	c, ok := r.components[name]
	return c, ok
}

// Components returns the component set. The order is bring-up order when
// initialized, registration order otherwise.
func (r *Registry) Components() []Component {
	if r.initialized {
		out := make([]Component, len(r.order))
		copy(out, r.order)
		return out
	}
	out := make([]Component, 0, len(r.components))
	for _, name := range r.regOrder {
		out = append(out, r.components[name])
	}
	return out
}

// ComponentCount returns the number of registered components.
func (r *Registry) ComponentCount() int {
	return len(r.components)
}

// IsInitialized reports whether a full bring-up has completed.
func (r *Registry) IsInitialized() bool {
	return r.initialized
}

// Bus returns the shared event bus.
func (r *Registry) Bus() *eventbus.Bus {
	return r.bus
}

// OnAdded registers a listener invoked after each successful registration.
func (r *Registry) OnAdded(fn func(Component)) {
	if fn != nil {
		r.added = append(r.added, fn)
	}
}

// OnRemoved registers a listener invoked after each successful removal.
func (r *Registry) OnRemoved(fn func(Component)) {
	if fn != nil {
		r.removed = append(r.removed, fn)
	}
}

func (r *Registry) activeCount() int {
	n := 0
	for _, c := range r.components {
		if c.Active() {
			n++
		}
	}
	return n
}
