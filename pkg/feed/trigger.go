package feed

import "sync"

// Observer reports when an observed node becomes visible.
// Implementations may call onVisible any number of times while the node is
// observed and must stop after Unobserve.
type Observer[N comparable] interface {
	Observe(node N, onVisible func())
	Unobserve(node N)
}

// Status is the part of the controller state a Trigger consults.
type Status interface {
	Loading() bool
	HasMore() bool
}

// Trigger binds the "last rendered item" to an Observer and requests the
// next page when that item becomes visible.
type Trigger[N comparable] struct {
	observer Observer[N]
	status   Status
	load     func()

	mu    sync.Mutex
	node  N
	bound bool
}

// NewTrigger creates a trigger. load is called on visibility while the
// status reports neither loading nor exhaustion.
func NewTrigger[N comparable](observer Observer[N], status Status, load func()) *Trigger[N] {
	return &Trigger[N]{
		observer: observer,
		status:   status,
		load:     load,
	}
}

// Ref binds the trigger to node, releasing the previously observed node.
// The zero node only releases.
func (t *Trigger[N]) Ref(node N) {
	t.mu.Lock()
	defer t.mu.Unlock()

	var zero N
	if t.bound {
		if t.node == node {
			return
		}
		t.observer.Unobserve(t.node)
		t.bound = false
		t.node = zero
	}
	if node == zero {
		return
	}

	t.node = node
	t.bound = true
	t.observer.Observe(node, t.fire)
}

// Close releases the current observation.
func (t *Trigger[N]) Close() {
	var zero N
	t.Ref(zero)
}

func (t *Trigger[N]) fire() {
	if t.status.Loading() || !t.status.HasMore() {
		return
	}
	t.load()
}
