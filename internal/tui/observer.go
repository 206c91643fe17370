package tui

import "sync"

// ViewportObserver reports list rows entering the visible window. Nodes are
// 1-based row numbers. A node fires once each time it goes from hidden to
// visible, so a row that stays on screen does not fire again.
type ViewportObserver struct {
	mu      sync.Mutex
	watched map[int]*watch
	first   int
	last    int
}

type watch struct {
	onVisible func()
	visible   bool
}

// NewViewportObserver creates an observer with nothing visible.
func NewViewportObserver() *ViewportObserver {
	return &ViewportObserver{watched: make(map[int]*watch)}
}

// Observe starts watching node. It fires on the next Reveal that shows it.
func (o *ViewportObserver) Observe(node int, onVisible func()) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.watched[node] = &watch{onVisible: onVisible}
}

// Unobserve stops watching node.
func (o *ViewportObserver) Unobserve(node int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.watched, node)
}

// Reveal sets the visible window to rows first..last inclusive and fires
// the watched rows that just became visible.
func (o *ViewportObserver) Reveal(first, last int) {
	o.mu.Lock()
	o.first, o.last = first, last

	var fire []func()
	for node, w := range o.watched {
		in := node >= first && node <= last
		if in && !w.visible {
			fire = append(fire, w.onVisible)
		}
		w.visible = in
	}
	o.mu.Unlock()

	for _, fn := range fire {
		fn()
	}
}

// Window returns the last revealed rows.
func (o *ViewportObserver) Window() (first, last int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.first, o.last
}
