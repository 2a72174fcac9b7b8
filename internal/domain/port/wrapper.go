package port

import (
	"sync"
	"sync/atomic"
	"time"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// RefID identifies a managed reference parked in a Wrapper
type RefID uint64

// Wrapper is the managed-side representation of one native message port.
// Messages addressed to the port park their managed references here; the
// receiver takes them back by id while decoding.
type Wrapper struct {
	handle  Handle
	source  External
	created time.Time

	nextRef atomic.Uint64

	mu   sync.Mutex
	refs *orderedmap.OrderedMap[RefID, any] // Protected by mu
}

// WrapperInfo is a point-in-time summary of a Wrapper
type WrapperInfo struct {
	Handle    Handle    `json:"handle"`
	Pending   int       `json:"pending_refs"`
	CreatedAt time.Time `json:"created_at"`
}

// NewWrapper creates the wrapper for the port carried by ext
func NewWrapper(ext External) *Wrapper {
	return &Wrapper{
		handle:  ext.Handle(),
		source:  ext,
		created: time.Now(),
		refs:    orderedmap.New[RefID, any](),
	}
}

// Handle returns the native handle of the port
func (w *Wrapper) Handle() Handle {
	return w.handle
}

// Source returns the object that first carried the handle into managed code
func (w *Wrapper) Source() External {
	return w.source
}

// CreatedAt returns the construction time
func (w *Wrapper) CreatedAt() time.Time {
	return w.created
}

// Park stores a managed reference and returns the id the receiver uses to take it
func (w *Wrapper) Park(v any) RefID {
	id := RefID(w.nextRef.Add(1))

	w.mu.Lock()
	w.refs.Set(id, v)
	w.mu.Unlock()

	return id
}

// Take removes and returns a parked reference
func (w *Wrapper) Take(id RefID) (any, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.refs.Delete(id)
}

// Pending returns the number of parked references
func (w *Wrapper) Pending() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.refs.Len()
}

// PendingIDs returns parked reference ids in the order they were parked
func (w *Wrapper) PendingIDs() []RefID {
	w.mu.Lock()
	defer w.mu.Unlock()

	ids := make([]RefID, 0, w.refs.Len())
	for pair := w.refs.Oldest(); pair != nil; pair = pair.Next() {
		ids = append(ids, pair.Key)
	}
	return ids
}

// Drain removes every parked reference and returns them oldest first
func (w *Wrapper) Drain() []any {
	w.mu.Lock()
	defer w.mu.Unlock()

	values := make([]any, 0, w.refs.Len())
	for pair := w.refs.Oldest(); pair != nil; pair = pair.Next() {
		values = append(values, pair.Value)
	}
	w.refs = orderedmap.New[RefID, any]()
	return values
}

// Info summarizes the wrapper
func (w *Wrapper) Info() WrapperInfo {
	return WrapperInfo{
		Handle:    w.handle,
		Pending:   w.Pending(),
		CreatedAt: w.created,
	}
}
