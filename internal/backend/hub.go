package backend

import (
	"sync"

	"incidencias-cli/internal/model"
)

// hub fans incident snapshots out to subscribers. Callbacks run on a
// dedicated goroutine per publish so a slow consumer never blocks a write.
type hub struct {
	mu     sync.Mutex
	nextID int
	seq    int
	subs   map[int]func(Snapshot)
	closed bool
}

func newHub() *hub {
	return &hub{subs: map[int]func(Snapshot){}}
}

func (h *hub) subscribe(fn func(Snapshot)) (cancel func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return func() {}
	}
	id := h.nextID
	h.nextID++
	h.subs[id] = fn
	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.subs, id)
	}
}

// prime delivers the current collection to one subscriber only, so joining
// does not replay a snapshot to everyone already subscribed. It still
// advances seq, keeping the per-consumer ordering monotonic.
func (h *hub) prime(fn func(Snapshot), ins []model.Incident) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.seq++
	snap := Snapshot{Seq: h.seq, Incidents: ins}
	h.mu.Unlock()

	go fn(snap)
}

func (h *hub) publish(ins []model.Incident) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.seq++
	snap := Snapshot{Seq: h.seq, Incidents: ins}
	fns := make([]func(Snapshot), 0, len(h.subs))
	for _, fn := range h.subs {
		fns = append(fns, fn)
	}
	h.mu.Unlock()

	go func() {
		for _, fn := range fns {
			fn(snap)
		}
	}()
}

func (h *hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	h.subs = map[int]func(Snapshot){}
}
