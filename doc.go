// Package devicekit provides a cooperative orchestration kernel for
// resource-constrained device runtimes: a component lifecycle contract, a
// dependency-ordered registry, and a bounded in-process event bus, tied
// together by a small core façade.
//
// # Philosophy: Cooperative Single-Threaded Kernel
//
// DeviceKit targets firmware-style hosts where one goroutine drives
// everything. There are no locks in the kernel because there is no
// concurrency: components run their Loop once per tick, the bus drains a
// bounded budget of events per tick, and handlers run synchronously to
// completion. Blocking anywhere blocks the device, so every operation is
// designed to return immediately.
//
// # Architecture
//
//	┌─────────────────────────────────────┐
//	│              Core                   │  Config, identity,
//	│   (begin, tick, shutdown, lookup)   │  typed pub/sub helpers
//	└─────────────────────────────────────┘
//	           ↓ owns
//	┌─────────────────────────────────────┐
//	│            Registry                 │  Dependency-ordered
//	│  (register, bring-up, loop, remove) │  lifecycle driver
//	└─────────────────────────────────────┘
//	           ↓ coordinates          ↓ drains
//	┌──────────────────┐    ┌──────────────────┐
//	│    Components    │ ←→ │    Event Bus     │
//	│ (begin/loop/...) │    │ (bounded, sticky,│
//	│                  │    │  wildcard topics)│
//	└──────────────────┘    └──────────────────┘
//
// # Framework Packages
//
// Kernel:
//   - component: lifecycle contract, registry, parameter validation
//   - eventbus: topic and type addressed pub/sub with drop-oldest queueing
//   - core: façade wiring config, registry, and bus together
//
// Infrastructure:
//   - config: YAML configuration with environment overrides
//   - metric: Prometheus metrics and the optional HTTP endpoint
//   - errors: classified error handling
//
// Bundled components:
//   - components/sysinfo: periodic runtime health heartbeats
//   - components/console: bus traffic mirrored into the log
//
// # Usage
//
// Basic host setup:
//
//	cfg, _ := config.Load("config.yaml")
//	c := core.New(cfg, core.WithLogger(logger))
//	c.AddComponent(sysinfo.New())
//	if st := c.Begin(); !st.OK() {
//		log.Fatalf("bring-up failed: %s", st)
//	}
//	for range time.Tick(cfg.TickInterval) {
//		c.Tick()
//	}
//
// Custom component:
//
//	type Relay struct {
//		component.Base
//	}
//
//	func NewRelay() *Relay {
//		return &Relay{Base: component.NewBase(
//			component.Metadata{Name: "relay"},
//			component.Require("gpio"),
//		)}
//	}
//
//	func (r *Relay) Begin() component.Status {
//		component.On(r, "relay/set", r.onSet, true)
//		return component.StatusSuccess
//	}
//
// # Design Principles
//
// Fail-fast bring-up:
//   - Dependency graphs are resolved before any component starts
//   - The first failing component aborts the pass with its status
//   - Shutdown is always the exact reverse of bring-up
//
// Bounded everything:
//   - The event queue has a fixed capacity and evicts the oldest entry
//   - Each tick drains at most a configured budget of events
//   - Sticky values are bounded by the number of topics, not traffic
//
// Testability:
//   - Explicit dependencies (no globals)
//   - The conformance suite in component verifies any implementation
package devicekit
