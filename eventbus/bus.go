package eventbus

import (
	"log/slog"
	"sort"
	"strings"

	"github.com/c360/devicekit/metric"
)

// DefaultQueueCapacity bounds the delivery queue when no capacity is configured.
const DefaultQueueCapacity = 32

// DefaultPollBudget is the number of queued events drained per host tick.
const DefaultPollBudget = 8

// Type tags an event that is addressed by kind rather than by topic string.
// Collaborating subsystems may define their own tags above TypeCustom.
type Type uint8

// TypeCustom is the base tag for application-defined typed events.
const TypeCustom Type = 1

// Handler receives the event payload. The payload is a type-tagged boxed
// value owned by the bus; handlers must not retain references past the call.
type Handler func(payload any)

// subscription ties a handler to an id and the opaque owner token that
// installed it. The owner is used only for scoped bulk-removal.
type subscription struct {
	id      uint64
	owner   any
	handler Handler
}

// queuedEvent is either a typed event or a topic event. A non-empty topic
// takes precedence over the type tag.
type queuedEvent struct {
	eventType Type
	topic     string
	payload   any
}

// Bus is a topic and type addressed publish/subscribe channel with a bounded
// FIFO delivery queue, wildcard topic matching, and sticky last-value replay.
//
// The bus is single-threaded by design: every method must be called from the
// host loop's goroutine. Queued handlers run synchronously inside Poll and
// run to completion before control returns. This mirrors the cooperative
// scheduling model of the whole runtime; there is no locking because there
// is no concurrency.
type Bus struct {
	typeSubs     map[Type][]subscription
	topicSubs    map[string][]subscription
	wildcardSubs map[string][]subscription

	queue    []queuedEvent
	capacity int
	nextID   uint64

	// Sticky last payload per topic, independent of the delivery queue.
	sticky map[string]any
	// Pending counts per topic, used to suppress sticky replay while a
	// fresher event for the same topic is already queued.
	pending map[string]int

	logger  *slog.Logger
	metrics *metric.Metrics
}

// Option configures a Bus.
type Option func(*Bus)

// WithCapacity sets the delivery queue capacity. Values below 1 are ignored.
func WithCapacity(n int) Option {
	return func(b *Bus) {
		if n > 0 {
			b.capacity = n
		}
	}
}

// WithLogger sets the structured logger used for drop diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Bus) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithMetrics attaches kernel metrics. A nil metrics value keeps the bus
// uninstrumented.
func WithMetrics(m *metric.Metrics) Option {
	return func(b *Bus) {
		b.metrics = m
	}
}

// New creates an empty Bus.
func New(opts ...Option) *Bus {
	b := &Bus{
		typeSubs:     make(map[Type][]subscription),
		topicSubs:    make(map[string][]subscription),
		wildcardSubs: make(map[string][]subscription),
		capacity:     DefaultQueueCapacity,
		nextID:       1,
		sticky:       make(map[string]any),
		pending:      make(map[string]int),
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.queue = make([]queuedEvent, 0, b.capacity)
	return b
}

// Subscribe registers a handler for a topic. Topics containing a '*' are
// treated as wildcard patterns ("sensor/*" matches "sensor/temp").
//
// If replayLast is true, the topic is exact, a sticky value exists for it,
// and no event for that topic is currently queued, the handler is invoked
// synchronously once with the sticky value before Subscribe returns. The
// pending-event check prevents double delivery when a publish for the same
// topic is already in flight.
//
// The owner token identifies which component installed the handler; it is
// compared by equality in UnsubscribeOwner and never used for anything else.
// Returns the subscription id, or 0 if the topic is empty or the handler nil.
func (b *Bus) Subscribe(topic string, handler Handler, owner any, replayLast bool) uint64 {
	if handler == nil || topic == "" {
		return 0
	}

	id := b.nextID
	b.nextID++
	sub := subscription{id: id, owner: owner, handler: handler}

	if isWildcard(topic) {
		b.wildcardSubs[topic] = append(b.wildcardSubs[topic], sub)
		b.recordSubscriptions()
		return id
	}

	b.topicSubs[topic] = append(b.topicSubs[topic], sub)
	b.recordSubscriptions()

	if replayLast {
		if last, ok := b.sticky[topic]; ok && b.pending[topic] <= 0 {
			handler(last)
		}
	}
	return id
}

// SubscribeType registers a handler for a typed event tag.
// Returns the subscription id, or 0 if the handler is nil.
func (b *Bus) SubscribeType(t Type, handler Handler, owner any) uint64 {
	if handler == nil {
		return 0
	}
	id := b.nextID
	b.nextID++
	b.typeSubs[t] = append(b.typeSubs[t], sub(id, owner, handler))
	b.recordSubscriptions()
	return id
}

func sub(id uint64, owner any, handler Handler) subscription {
	return subscription{id: id, owner: owner, handler: handler}
}

// Unsubscribe removes the subscription with the given id from every index.
func (b *Bus) Unsubscribe(id uint64) {
	if id == 0 {
		return
	}
	match := func(s subscription) bool { return s.id == id }
	removeMatching(b.typeSubs, match)
	removeMatching(b.topicSubs, match)
	removeMatching(b.wildcardSubs, match)
	b.recordSubscriptions()
}

// UnsubscribeOwner removes every subscription installed with the given owner
// token. Component teardown uses this to guarantee no stale handler is ever
// invoked after the component is gone.
func (b *Bus) UnsubscribeOwner(owner any) {
	if owner == nil {
		return
	}
	match := func(s subscription) bool { return s.owner == owner }
	removeMatching(b.typeSubs, match)
	removeMatching(b.topicSubs, match)
	removeMatching(b.wildcardSubs, match)
	b.recordSubscriptions()
}

func removeMatching[K comparable](index map[K][]subscription, match func(subscription) bool) {
	for key, subs := range index {
		kept := subs[:0]
		for _, s := range subs {
			if !match(s) {
				kept = append(kept, s)
			}
		}
		if len(kept) == 0 {
			delete(index, key)
		} else {
			index[key] = kept
		}
	}
}

// Publish enqueues a topic event. The payload is carried as a boxed value;
// publishers must not mutate it after the call. A nil payload is legal and
// is delivered as nil.
func (b *Bus) Publish(topic string, payload any) {
	if topic == "" {
		return
	}
	b.enqueue(queuedEvent{topic: topic, payload: payload})
}

// PublishSticky overwrites the topic's retained last value and then enqueues
// a normal event. The retained value satisfies late-subscriber replay and is
// independent of the delivery queue's capacity and eviction.
func (b *Bus) PublishSticky(topic string, payload any) {
	if topic == "" {
		return
	}
	b.sticky[topic] = payload
	b.enqueue(queuedEvent{topic: topic, payload: payload})
}

// PublishType enqueues a typed event, delivered only to type subscribers.
func (b *Bus) PublishType(t Type, payload any) {
	b.enqueue(queuedEvent{eventType: t, payload: payload})
}

// enqueue applies the bounded-capacity admission policy: once the queue is
// full the single oldest entry is evicted, never the newest.
func (b *Bus) enqueue(qe queuedEvent) {
	if len(b.queue) >= b.capacity {
		dropped := b.queue[0]
		copy(b.queue, b.queue[1:])
		b.queue = b.queue[:len(b.queue)-1]
		if dropped.topic != "" && b.pending[dropped.topic] > 0 {
			b.pending[dropped.topic]--
		}
		if b.metrics != nil {
			b.metrics.EventsDropped.Inc()
		}
		b.logger.Debug("event queue full, dropped oldest",
			"dropped_topic", dropped.topic,
			"capacity", b.capacity)
	}
	b.queue = append(b.queue, qe)
	if qe.topic != "" {
		b.pending[qe.topic]++
	}
	if b.metrics != nil {
		b.metrics.EventsPublished.Inc()
		b.metrics.QueueDepth.Set(float64(len(b.queue)))
	}
}

// Poll dequeues up to maxEvents queued events and dispatches each to its
// subscribers. maxEvents <= 0 drains everything queued at the time of the
// call (events published by handlers during this Poll stay queued for the
// next one).
//
// Dispatch order per event: exact-topic subscribers first, then wildcard
// subscribers; within each list, subscription order. Subscriber lists are
// snapshotted before iteration so handlers may subscribe or unsubscribe
// freely during dispatch.
//
// Returns the number of events dispatched.
func (b *Bus) Poll(maxEvents int) int {
	budget := maxEvents
	if budget <= 0 {
		budget = len(b.queue)
	}

	processed := 0
	for processed < budget && len(b.queue) > 0 {
		qe := b.queue[0]
		copy(b.queue, b.queue[1:])
		b.queue = b.queue[:len(b.queue)-1]
		processed++

		if qe.topic != "" {
			b.dispatchTopic(qe)
		} else {
			b.dispatchType(qe)
		}
	}

	if b.metrics != nil && processed > 0 {
		b.metrics.EventsDispatched.Add(float64(processed))
		b.metrics.QueueDepth.Set(float64(len(b.queue)))
	}
	return processed
}

func (b *Bus) dispatchTopic(qe queuedEvent) {
	// Snapshot for safe iteration; handlers may mutate the indices.
	if subs, ok := b.topicSubs[qe.topic]; ok {
		for _, s := range snapshot(subs) {
			s.handler(qe.payload)
		}
	}

	// Wildcard patterns in lexical order for deterministic cross-pattern
	// dispatch; within a pattern, subscription order.
	if len(b.wildcardSubs) > 0 {
		patterns := make([]string, 0, len(b.wildcardSubs))
		for pattern := range b.wildcardSubs {
			if matchesWildcard(qe.topic, pattern) {
				patterns = append(patterns, pattern)
			}
		}
		sort.Strings(patterns)
		for _, pattern := range patterns {
			for _, s := range snapshot(b.wildcardSubs[pattern]) {
				s.handler(qe.payload)
			}
		}
	}

	if b.pending[qe.topic] > 0 {
		b.pending[qe.topic]--
	}
}

func (b *Bus) dispatchType(qe queuedEvent) {
	if subs, ok := b.typeSubs[qe.eventType]; ok {
		for _, s := range snapshot(subs) {
			s.handler(qe.payload)
		}
	}
}

func snapshot(subs []subscription) []subscription {
	out := make([]subscription, len(subs))
	copy(out, subs)
	return out
}

// Reset clears the queue, all subscription indices, sticky values, and
// pending counters. Used only for full-system reinitialization and tests.
// The id counter is not rewound: subscription ids stay unique for the
// lifetime of the Bus.
func (b *Bus) Reset() {
	b.queue = b.queue[:0]
	b.typeSubs = make(map[Type][]subscription)
	b.topicSubs = make(map[string][]subscription)
	b.wildcardSubs = make(map[string][]subscription)
	b.sticky = make(map[string]any)
	b.pending = make(map[string]int)
	if b.metrics != nil {
		b.metrics.QueueDepth.Set(0)
		b.metrics.Subscriptions.Set(0)
	}
}

// Len returns the number of events currently queued.
func (b *Bus) Len() int {
	return len(b.queue)
}

// Sticky returns the retained last value for a topic, if any.
func (b *Bus) Sticky(topic string) (any, bool) {
	v, ok := b.sticky[topic]
	return v, ok
}

func (b *Bus) recordSubscriptions() {
	if b.metrics == nil {
		return
	}
	n := 0
	for _, subs := range b.typeSubs {
		n += len(subs)
	}
	for _, subs := range b.topicSubs {
		n += len(subs)
	}
	for _, subs := range b.wildcardSubs {
		n += len(subs)
	}
	b.metrics.Subscriptions.Set(float64(n))
}

func isWildcard(topic string) bool {
	return strings.Contains(topic, "*")
}

// matchesWildcard tests a concrete topic against a pattern holding a single
// '*'. "foo/*" matches any topic with the "foo/" prefix; "foo/*bar" also
// requires the "bar" suffix.
func matchesWildcard(topic, pattern string) bool {
	star := strings.IndexByte(pattern, '*')
	if star < 0 {
		return false
	}
	prefix := pattern[:star]
	suffix := pattern[star+1:]
	if len(topic) < len(prefix)+len(suffix) {
		return false
	}
	return strings.HasPrefix(topic, prefix) && strings.HasSuffix(topic, suffix)
}
