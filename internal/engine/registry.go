package engine

import "sync"

// Registry maps participants to the one session they are currently bound to.
type Registry struct {
	mu            sync.Mutex
	byParticipant map[string]string
	bySession     map[string]map[string]struct{}
}

func NewRegistry() *Registry {
	return &Registry{
		byParticipant: map[string]string{},
		bySession:     map[string]map[string]struct{}{},
	}
}

// Register binds every participant to sessionID. Nothing is written if any of them is
// already bound to a different session.
func (r *Registry) Register(sessionID string, participants []Participant) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range participants {
		if current, ok := r.byParticipant[p.ID]; ok && current != sessionID {
			return &AlreadyInSessionError{ParticipantID: p.ID, SessionID: current}
		}
	}
	members := r.bySession[sessionID]
	if members == nil {
		members = map[string]struct{}{}
		r.bySession[sessionID] = members
	}
	for _, p := range participants {
		r.byParticipant[p.ID] = sessionID
		members[p.ID] = struct{}{}
	}
	return nil
}

func (r *Registry) Unregister(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id := range r.bySession[sessionID] {
		if r.byParticipant[id] == sessionID {
			delete(r.byParticipant, id)
		}
	}
	delete(r.bySession, sessionID)
}

// Release drops a single participant's binding, used when they leave a running session.
func (r *Registry) Release(sessionID, participantID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.byParticipant[participantID] == sessionID {
		delete(r.byParticipant, participantID)
	}
	if members := r.bySession[sessionID]; members != nil {
		delete(members, participantID)
		if len(members) == 0 {
			delete(r.bySession, sessionID)
		}
	}
}

func (r *Registry) SessionFor(participantID string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byParticipant[participantID]
	return id, ok
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byParticipant)
}
