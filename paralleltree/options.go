package paralleltree

import (
	"time"

	"github.com/parago-go/parago/compactor"
)

// EventKind categorizes a node's state-machine transition.
type EventKind int

const (
	// EventExpanding fires when a node's expand function is about to run.
	EventExpanding EventKind = iota
	// EventDispatched fires once a node's children have been partitioned
	// and its Node children handed to the compactor.
	EventDispatched
	// EventYielded fires when a node has emitted all of its leaves (or is
	// a childless node, which yields immediately).
	EventYielded
	// EventCancelled fires when a node's expansion failed and its
	// enclosing group was cancelled.
	EventCancelled
)

// Event is a single node-state-machine observation.
type Event struct {
	Kind     EventKind
	Children int
}

// Tracer receives diagnostic events from a Tree. Implementations must not
// block.
type Tracer interface {
	Trace(Event)
}

// TracerFunc adapts a plain function to a Tracer. A nil TracerFunc
// discards events.
type TracerFunc func(Event)

func (f TracerFunc) Trace(e Event) {
	if f != nil {
		f(e)
	}
}

type config struct {
	orderMatters  bool
	noGroups      bool
	nodeLimit     int
	compactorOpts []compactor.Option
	tracer        Tracer
}

func defaultConfig() config {
	return config{orderMatters: true, tracer: TracerFunc(nil)}
}

// Option configures a Tree at construction.
type Option func(*config)

// WithOrderMatters selects ordered (default, true) vs unordered (false)
// leaf emission: ordered concatenates each child's yields in position
// order; unordered emits whichever child subtree finishes first.
func WithOrderMatters(v bool) Option {
	return func(c *config) { c.orderMatters = v }
}

// WithNoGroups disables per-node cancellation groups: every node shares
// the Tree's single top-level group instead of getting its own child
// group, so a failure anywhere cancels the whole traversal rather than
// just the failing subtree.
func WithNoGroups(v bool) Option {
	return func(c *config) { c.noGroups = v }
}

// WithNodeLimit caps, per level, how many Node children are dispatched to
// the compactor/scheduler in parallel; any remainder is recursed into
// sequentially in the caller's own goroutine instead. Zero (default)
// means no cap.
func WithNodeLimit(n int) Option {
	return func(c *config) { c.nodeLimit = n }
}

// WithCompactorOptions passes additional options through to the internal
// Compactor used to batch each level's Node children.
func WithCompactorOptions(opts ...compactor.Option) Option {
	return func(c *config) { c.compactorOpts = append(c.compactorOpts, opts...) }
}

// WithEstimator sets the target per-batch run time for the internal
// Compactor, switching it into dynamic mode.
func WithEstimator(target time.Duration) Option {
	return func(c *config) { c.compactorOpts = append(c.compactorOpts, compactor.WithTarget(target)) }
}

// WithTracer attaches a Tracer to receive the Tree's diagnostic events.
func WithTracer(t Tracer) Option {
	return func(c *config) {
		if t != nil {
			c.tracer = t
		}
	}
}
