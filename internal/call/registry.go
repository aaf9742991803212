package call

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/daktari-health/telecall/internal/domain"
)

// Conn is the transport endpoint for one participant. Owned by the
// adapter; the adapter must Close() it.
type Conn interface {
	TrySend([]byte) error
	Close()
}

// Participant is the server-side record of one connection's presence in
// a room. Immutable after registration; mute/video flags are ephemeral
// and only ever carried in relay payloads.
type Participant struct {
	SocketID      string
	UserID        string
	Name          string
	Role          domain.Role
	RoomKey       string // canonical room key: the appointment id
	AppointmentID string
	Conn          Conn
}

// room bundles the participant set with the call state. Its mutex
// serializes every conflicting operation on the room, including the
// read-then-mutate sequence of start-call; the coordinator holds it
// across the whole handler section, not just the mutation.
type room struct {
	mu           sync.Mutex
	key          string
	participants []*Participant // join order
	state        CallState
	evicted      bool // set under mu when the registry drops the room
}

// add appends in join order. Caller holds r.mu.
func (r *room) add(p *Participant) {
	r.participants = append(r.participants, p)
}

// remove is a no-op for unknown socket ids: disconnects race with
// cleanup from the other side. Caller holds r.mu.
func (r *room) remove(socketID string) *Participant {
	for i, p := range r.participants {
		if p.SocketID == socketID {
			r.participants = append(r.participants[:i], r.participants[i+1:]...)
			return p
		}
	}
	return nil
}

// snapshot copies the membership so sends can outlive the lock. Caller
// holds r.mu.
func (r *room) snapshot() []*Participant {
	out := make([]*Participant, len(r.participants))
	copy(out, r.participants)
	return out
}

// Registry is the explicit room table: room key -> live room, socket id
// -> participant. Constructed once at process start and passed to the
// coordinator; there is no ambient singleton.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*room
	conns map[string]*Participant
}

func NewRegistry() *Registry {
	return &Registry{
		rooms: make(map[string]*room),
		conns: make(map[string]*Participant),
	}
}

// getOrCreate lazily materializes a room on first reference.
func (reg *Registry) getOrCreate(key string) *room {
	reg.mu.RLock()
	r, ok := reg.rooms[key]
	reg.mu.RUnlock()
	if ok {
		return r
	}
	reg.mu.Lock()
	defer reg.mu.Unlock()
	if r, ok = reg.rooms[key]; ok {
		return r
	}
	r = &room{key: key, state: Inactive{}}
	reg.rooms[key] = r
	log.Debug().Str("module", "call.registry").Str("room", key).Msg("room created")
	return r
}

// lockRoom returns the live room for key with its mutex held. A handle
// fetched from the table can be evicted by a concurrent last-member
// leave before the caller acquires its mutex; the evicted mark exposes
// that race and the lookup is retried until handle and table agree.
func (reg *Registry) lockRoom(key string) *room {
	for {
		r := reg.getOrCreate(key)
		r.mu.Lock()
		if !r.evicted {
			return r
		}
		r.mu.Unlock()
	}
}

func (reg *Registry) roomOf(key string) (*room, bool) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	r, ok := reg.rooms[key]
	return r, ok
}

// Participant returns the handle bound to a socket id.
func (reg *Registry) Participant(socketID string) (*Participant, bool) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	p, ok := reg.conns[socketID]
	return p, ok
}

func (reg *Registry) bind(p *Participant) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	reg.conns[p.SocketID] = p
}

func (reg *Registry) unbind(socketID string) *Participant {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	p := reg.conns[socketID]
	delete(reg.conns, socketID)
	return p
}

// evictIfIdle drops a room once it is both empty and inactive. A room
// with an active call is never evicted, even momentarily empty, so a
// brief all-disconnect-then-rejoin gap keeps its call state. The room is
// marked evicted under its own mutex in the same step that removes it
// from the table, so a joiner holding a pre-eviction handle can tell the
// handle went stale.
func (reg *Registry) evictIfIdle(key string) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	r, ok := reg.rooms[key]
	if !ok {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, active := r.state.(Active); active || len(r.participants) > 0 {
		return
	}
	r.evicted = true
	delete(reg.rooms, key)
	log.Debug().Str("module", "call.registry").Str("room", key).Msg("idle room evicted")
}

// CallState reports a room's activity for inspection and tests.
func (reg *Registry) CallState(key string) (isActive bool, startedBy string) {
	r, ok := reg.roomOf(key)
	if !ok {
		return false, ""
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return stateInfo(r.state)
}

// ParticipantCount reports a room's membership size; zero for unknown rooms.
func (reg *Registry) ParticipantCount(key string) int {
	r, ok := reg.roomOf(key)
	if !ok {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.participants)
}

// RoomInfo is a read-only view for the inspection API.
type RoomInfo struct {
	Key          string `json:"key"`
	Participants int    `json:"participant_count"`
	CallActive   bool   `json:"call_active"`
}

func (reg *Registry) RoomInfos() []RoomInfo {
	reg.mu.RLock()
	rooms := make([]*room, 0, len(reg.rooms))
	for _, r := range reg.rooms {
		rooms = append(rooms, r)
	}
	reg.mu.RUnlock()

	out := make([]RoomInfo, 0, len(rooms))
	for _, r := range rooms {
		r.mu.Lock()
		active, _ := stateInfo(r.state)
		out = append(out, RoomInfo{Key: r.key, Participants: len(r.participants), CallActive: active})
		r.mu.Unlock()
	}
	return out
}
