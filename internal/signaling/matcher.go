package signaling

import "sync"

type requestState int

const (
	statePending requestState = iota
	stateAccepted
)

type pendingRequest struct {
	patientSocketID string
	state           requestState
}

// Matcher arbitrates the doctor accept race. Every consultation id has
// at most one accepting doctor: the pending→accepted transition happens
// under the matcher's lock, so concurrent accepts from different
// connections resolve to exactly one winner regardless of interleaving.
//
// Entries live only for the in-memory phase of a request. There is no
// timeout: a request nobody accepts stays tracked until the patient's
// connection goes away.
type Matcher struct {
	mu       sync.Mutex
	requests map[string]*pendingRequest
}

func NewMatcher() *Matcher {
	return &Matcher{requests: make(map[string]*pendingRequest)}
}

// Track records a broadcast request awaiting acceptance. Re-tracking an
// id that was already accepted is ignored so a re-broadcast cannot
// reopen a settled race.
func (m *Matcher) Track(consultationID, patientSocketID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if r, ok := m.requests[consultationID]; ok && r.state == stateAccepted {
		return
	}
	m.requests[consultationID] = &pendingRequest{patientSocketID: patientSocketID}
}

// TryAccept attempts the pending→accepted transition and reports
// whether this caller won. An id the matcher never saw (e.g. the accept
// raced a server restart) is registered and accepted in one step, so
// the at-most-one guarantee still holds for later attempts.
func (m *Matcher) TryAccept(consultationID, patientSocketID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.requests[consultationID]
	if !ok {
		m.requests[consultationID] = &pendingRequest{
			patientSocketID: patientSocketID,
			state:           stateAccepted,
		}
		return true
	}
	if r.state == stateAccepted {
		return false
	}
	r.state = stateAccepted
	return true
}

// DropByPatient discards all requests belonging to a patient socket.
// Called on disconnect.
func (m *Matcher) DropByPatient(patientSocketID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, r := range m.requests {
		if r.patientSocketID == patientSocketID {
			delete(m.requests, id)
		}
	}
}

func (m *Matcher) tracked() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}
