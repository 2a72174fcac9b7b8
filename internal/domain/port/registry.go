package port

import (
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/portbridge/internal/infrastructure/monitoring"
)

// Factory constructs the wrapper for a port seen for the first time
type Factory func(ext External) *Wrapper

// slot is the table entry for one handle. It is installed before the wrapper
// exists so that racing callers agree on the slot first and then share one
// construction through once.
type slot struct {
	once    sync.Once
	src     External
	factory Factory
	wrapper *Wrapper
}

func (s *slot) get() *Wrapper {
	s.once.Do(func() {
		s.wrapper = s.factory(s.src)
	})
	return s.wrapper
}

// Registry maps native handles to their wrappers
type Registry struct {
	entries sync.Map // map[Handle]*slot
	factory Factory
	metrics *monitoring.Metrics
	logger  *zap.Logger
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		factory: NewWrapper,
		logger:  zap.NewNop(),
	}
}

// WithFactory replaces the wrapper constructor
func (r *Registry) WithFactory(factory Factory) *Registry {
	if factory != nil {
		r.factory = factory
	}
	return r
}

// WithMetrics adds metrics tracking to the registry
func (r *Registry) WithMetrics(metrics *monitoring.Metrics) *Registry {
	r.metrics = metrics
	return r
}

// WithLogger sets the logger
func (r *Registry) WithLogger(logger *zap.Logger) *Registry {
	if logger != nil {
		r.logger = logger.Named("port-registry")
	}
	return r
}

// Lookup returns the wrapper registered for h. The caller must know the
// handle is registered; a missing entry panics with *ContractViolation.
func (r *Registry) Lookup(h Handle) *Wrapper {
	if r.metrics != nil {
		r.metrics.RecordLookup()
	}

	v, ok := r.entries.Load(h)
	if !ok {
		if r.metrics != nil {
			r.metrics.RecordContractViolation()
		}
		r.logger.Error("Lookup of unregistered port handle", zap.Stringer("handle", h))
		panic(&ContractViolation{Op: "lookup", Handle: h})
	}
	return v.(*slot).get()
}

// GetOrCreate returns the wrapper for the port carried by ext, constructing
// it on first contact. Concurrent callers for the same handle all receive
// the installed wrapper and the constructor runs once.
func (r *Registry) GetOrCreate(ext External) *Wrapper {
	h := ext.Handle()

	// Fast-path.
	if v, ok := r.entries.Load(h); ok {
		return v.(*slot).get()
	}

	candidate := &slot{src: ext, factory: r.factory}
	actual, loaded := r.entries.LoadOrStore(h, candidate)
	s := actual.(*slot)
	if loaded {
		if r.metrics != nil {
			r.metrics.RecordCreateRaceLost()
		}
		return s.get()
	}

	w := s.get()
	if r.metrics != nil {
		r.metrics.RecordWrapperCreated()
	}
	r.logger.Debug("Port wrapper created", zap.Stringer("handle", h))
	return w
}

// Dispose removes the entry for the port carried by ext. Unknown and already
// disposed handles are ignored. The wrapper itself stays usable by anyone
// still holding it.
func (r *Registry) Dispose(ext External) {
	r.Evict(ext)
}

// Evict removes the entry for the port carried by ext and returns the wrapper
// that was registered, if any.
func (r *Registry) Evict(ext External) (*Wrapper, bool) {
	h := ext.Handle()

	v, ok := r.entries.LoadAndDelete(h)
	if !ok {
		return nil, false
	}

	if r.metrics != nil {
		r.metrics.RecordWrapperDisposed()
	}
	r.logger.Debug("Port wrapper disposed", zap.Stringer("handle", h))
	return v.(*slot).get(), true
}

// Contains reports whether h is registered. Diagnostics only: a true result
// may be stale by the time the caller acts on it.
func (r *Registry) Contains(h Handle) bool {
	_, ok := r.entries.Load(h)
	return ok
}

// Find returns the wrapper registered for h, if any. It is the probing
// counterpart to Lookup for admin and diagnostic callers that cannot know
// whether h is registered.
func (r *Registry) Find(h Handle) (*Wrapper, bool) {
	v, ok := r.entries.Load(h)
	if !ok {
		return nil, false
	}
	return v.(*slot).get(), true
}

// Len returns the number of registered handles
func (r *Registry) Len() int {
	count := 0
	r.entries.Range(func(_, _ any) bool {
		count++
		return true
	})
	return count
}

// Snapshot summarizes every registered wrapper, ordered by handle
func (r *Registry) Snapshot() []WrapperInfo {
	var infos []WrapperInfo
	r.entries.Range(func(_, value any) bool {
		infos = append(infos, value.(*slot).get().Info())
		return true
	})

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].Handle < infos[j].Handle
	})
	return infos
}
