package signaling

import "sync"

// Presence tracks which socket connections are currently registered as
// doctors. One instance is constructed at server start and shared by
// the hub and the event router; it holds no state beyond the live set,
// so its lifetime is the process.
type Presence struct {
	mu      sync.RWMutex
	doctors map[string]struct{}
}

func NewPresence() *Presence {
	return &Presence{doctors: make(map[string]struct{})}
}

// Register adds a connection to the doctor set. Idempotent.
func (p *Presence) Register(socketID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.doctors[socketID] = struct{}{}
}

// Unregister removes a connection. Safe to call for connections that
// never registered; every disconnect goes through here.
func (p *Presence) Unregister(socketID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.doctors, socketID)
}

func (p *Presence) Contains(socketID string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.doctors[socketID]
	return ok
}

func (p *Presence) Size() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.doctors)
}

func (p *Presence) IsEmpty() bool {
	return p.Size() == 0
}

// IDs returns a snapshot of the registered socket ids.
func (p *Presence) IDs() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	ids := make([]string, 0, len(p.doctors))
	for id := range p.doctors {
		ids = append(ids, id)
	}
	return ids
}
