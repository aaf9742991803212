package call

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/daktari-health/telecall/internal/domain"
	"github.com/daktari-health/telecall/internal/store"
)

// Coordinator runs the per-room session state machine: join, start, end,
// point-to-point relays, status broadcasts and disconnect cleanup. All
// room mutation goes through the Registry under the room's mutex, so
// events on the same room are observed in one total order.
type Coordinator struct {
	reg      *Registry
	gate     *Gate
	resolver *store.Resolver
	appts    store.AppointmentStore
}

func NewCoordinator(reg *Registry, gate *Gate, resolver *store.Resolver, appts store.AppointmentStore) *Coordinator {
	return &Coordinator{reg: reg, gate: gate, resolver: resolver, appts: appts}
}

// Join resolves the room key, authorizes the (user, role, appointment)
// triple and registers the connection in the room. The joiner always
// learns the current call state; the rest of the room learns of the
// joiner, and the joiner gets the roster of everyone already there.
func (c *Coordinator) Join(ctx context.Context, conn Conn, socketID string, ident domain.Identity, req JoinRequest) {
	userID, name, role, err := c.effectiveIdentity(ident, req)
	if err != nil {
		c.sendError(conn, CodeForbidden, err.Error())
		return
	}

	appt, err := c.resolver.Resolve(ctx, req.RoomID)
	if errors.Is(err, domain.ErrAppointmentNotFound) {
		c.sendError(conn, CodeNotFound, "no appointment matches this room")
		return
	}
	if err != nil {
		log.Error().Err(err).Str("module", "call.coordinator").Str("socket", socketID).Msg("appointment lookup failed")
		c.sendError(conn, CodeInternal, "appointment lookup failed")
		return
	}

	if err := c.gate.CanJoin(appt, userID, role); err != nil {
		c.sendError(conn, denyCode(err), err.Error())
		return
	}

	// A connection joining a second room is first removed from its old
	// one, exactly like a disconnect would.
	if old, ok := c.reg.Participant(socketID); ok {
		c.leaveRoom(old)
	}

	p := &Participant{
		SocketID:      socketID,
		UserID:        userID,
		Name:          name,
		Role:          role,
		RoomKey:       appt.ID,
		AppointmentID: appt.ID,
		Conn:          conn,
	}
	c.reg.bind(p)
	r := c.reg.lockRoom(appt.ID)
	defer r.mu.Unlock()
	r.add(p)

	isActive, startedBy := stateInfo(r.state)
	c.sendJSON(conn, callStateEvent{Type: EventCallState, IsActive: isActive, StartedBy: startedBy})

	joined := presenceEvent{Type: EventUserJoined, UserID: p.UserID, UserName: p.Name, SocketID: p.SocketID}
	roster := make([]RoomUser, 0, len(r.participants)-1)
	for _, other := range r.participants {
		if other.SocketID == p.SocketID {
			continue
		}
		c.sendJSON(other.Conn, joined)
		roster = append(roster, RoomUser{SocketID: other.SocketID, UserID: other.UserID, UserName: other.Name})
	}
	c.sendJSON(conn, roomUsersEvent{Type: EventRoomUsers, Users: roster})

	log.Info().Str("module", "call.coordinator").Str("socket", socketID).
		Str("user", userID).Str("role", string(role)).Str("room", appt.ID).Msg("joined room")
}

// StartCall flips the room to active. The appointment is re-read inside
// the room's critical section: a status changed through the CRUD layer
// since join must be seen here, and no conflicting event on this room
// may interleave with the read-then-mutate sequence.
func (c *Coordinator) StartCall(ctx context.Context, conn Conn, socketID string) {
	p, r, ok := c.boundRoom(socketID)
	if !ok {
		c.sendError(conn, CodeForbidden, "join a room before starting a call")
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	appt, err := c.appts.AppointmentByID(ctx, p.AppointmentID)
	if errors.Is(err, domain.ErrAppointmentNotFound) {
		c.sendError(conn, CodeNotFound, "appointment no longer exists")
		return
	}
	if err != nil {
		log.Error().Err(err).Str("module", "call.coordinator").Str("socket", socketID).Msg("appointment re-read failed")
		c.sendError(conn, CodeInternal, "appointment lookup failed")
		return
	}
	if err := c.gate.CanStart(appt, p.UserID, p.Role); err != nil {
		c.sendError(conn, denyCode(err), err.Error())
		return
	}

	// Idempotent re-start: an already-active call keeps its original
	// starter; re-broadcasting is fine, corrupting startedBy is not.
	active, ok := r.state.(Active)
	if !ok {
		active = Active{StartedBy: p.UserID, StartedByName: p.Name}
		r.state = active
	}

	started := callStartedEvent{Type: EventCallStarted, StartedBy: active.StartedBy, StartedByName: active.StartedByName}
	roster := make([]RoomUser, 0, len(r.participants))
	for _, m := range r.participants {
		roster = append(roster, RoomUser{SocketID: m.SocketID, UserID: m.UserID, UserName: m.Name})
	}
	users := roomUsersEvent{Type: EventRoomUsers, Users: roster}
	for _, m := range r.participants {
		c.sendJSON(m.Conn, started)
		c.sendJSON(m.Conn, users)
	}

	log.Info().Str("module", "call.coordinator").Str("room", r.key).
		Str("started_by", active.StartedBy).Msg("call started")
}

// EndCall flips the room back to inactive and tells everyone who ended it.
func (c *Coordinator) EndCall(conn Conn, socketID string) {
	p, r, ok := c.boundRoom(socketID)
	if !ok {
		c.sendError(conn, CodeForbidden, "join a room before ending a call")
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := c.gate.CanEnd(p.Role); err != nil {
		c.sendError(conn, denyCode(err), err.Error())
		return
	}

	r.state = Inactive{}
	ended := callEndedEvent{Type: EventCallEnded, EndedBy: p.UserID, EndedByName: p.Name}
	for _, m := range r.participants {
		c.sendJSON(m.Conn, ended)
	}

	log.Info().Str("module", "call.coordinator").Str("room", r.key).Str("ended_by", p.UserID).Msg("call ended")
}

// Offer relays an SDP offer to exactly one target connection.
func (c *Coordinator) Offer(socketID string, req OfferRequest) {
	c.relay(socketID, EventOffer, "offer", req.Target, req.Offer)
}

// Answer relays an SDP answer to exactly one target connection.
func (c *Coordinator) Answer(socketID string, req AnswerRequest) {
	c.relay(socketID, EventAnswer, "answer", req.Target, req.Answer)
}

// ICECandidate relays an ICE candidate to exactly one target connection.
func (c *Coordinator) ICECandidate(socketID string, req ICECandidateRequest) {
	c.relay(socketID, EventICE, "candidate", req.Target, req.Candidate)
}

// relay forwards an opaque negotiation payload, stamping the sender. A
// vanished target is a normal race with disconnect: drop silently, the
// other side already saw user-left.
func (c *Coordinator) relay(socketID, eventType, payloadKey, target string, payload json.RawMessage) {
	sender, ok := c.reg.Participant(socketID)
	if !ok {
		return
	}
	to, ok := c.reg.Participant(target)
	if !ok {
		log.Debug().Str("module", "call.coordinator").Str("type", eventType).
			Str("target", target).Msg("relay target gone, dropping")
		return
	}
	c.sendBestEffort(to.Conn, map[string]any{
		"type":       eventType,
		payloadKey:   payload,
		"sender":     sender.SocketID,
		"senderId":   sender.UserID,
		"senderName": sender.Name,
	})
}

// AudioStatus broadcasts the caller's mute flag to the rest of the room.
func (c *Coordinator) AudioStatus(socketID string, req AudioStatusRequest) {
	c.broadcastStatus(socketID, EventAudioStatus, "isMuted", req.IsMuted)
}

// VideoStatus broadcasts the caller's camera flag to the rest of the room.
func (c *Coordinator) VideoStatus(socketID string, req VideoStatusRequest) {
	c.broadcastStatus(socketID, EventVideoStatus, "isVideoOff", req.IsVideoOff)
}

func (c *Coordinator) broadcastStatus(socketID, eventType, flagKey string, flag bool) {
	p, r, ok := c.boundRoom(socketID)
	if !ok {
		return
	}
	msg := map[string]any{
		"type":     eventType,
		flagKey:    flag,
		"userId":   p.UserID,
		"userName": p.Name,
		"socketId": p.SocketID,
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.participants {
		if m.SocketID == p.SocketID {
			continue
		}
		c.sendJSON(m.Conn, msg)
	}
}

// Disconnect removes the connection from its room and tells the
// remaining participants. It never touches call state: a starter's
// transient network drop must not silently end the session for the
// patient; only an explicit end-call does.
func (c *Coordinator) Disconnect(socketID string) {
	p := c.reg.unbind(socketID)
	if p == nil {
		return
	}
	c.leaveRoom(p)
}

func (c *Coordinator) leaveRoom(p *Participant) {
	r, ok := c.reg.roomOf(p.RoomKey)
	if !ok {
		return
	}

	r.mu.Lock()
	if removed := r.remove(p.SocketID); removed != nil {
		left := presenceEvent{Type: EventUserLeft, UserID: p.UserID, UserName: p.Name, SocketID: p.SocketID}
		for _, m := range r.participants {
			c.sendJSON(m.Conn, left)
		}
	}
	r.mu.Unlock()

	c.reg.evictIfIdle(p.RoomKey)
	log.Info().Str("module", "call.coordinator").Str("socket", p.SocketID).Str("room", p.RoomKey).Msg("left room")
}

// effectiveIdentity reconciles the verified connection identity with the
// join payload. The verified value always wins; a mismatching payload is
// logged and ignored rather than rejected, so clients replaying a stale
// join after reconnect keep working.
func (c *Coordinator) effectiveIdentity(ident domain.Identity, req JoinRequest) (userID, name string, role domain.Role, err error) {
	userID = req.UserID
	name = req.UserName
	role, roleErr := domain.ParseRole(req.UserRole)

	if ident.Verified() {
		if req.UserID != "" && req.UserID != ident.UserID {
			log.Warn().Str("module", "call.coordinator").Str("claimed", req.UserID).
				Str("verified", ident.UserID).Msg("join payload user id differs from verified identity")
		}
		userID = ident.UserID
		if ident.Name != "" {
			name = ident.Name
		}
		if ident.Role != "" {
			role, roleErr = ident.Role, nil
		}
	}
	if roleErr != nil {
		return "", "", "", roleErr
	}
	if userID == "" {
		return "", "", "", errors.New("missing user id")
	}
	return userID, name, role, nil
}

func (c *Coordinator) boundRoom(socketID string) (*Participant, *room, bool) {
	p, ok := c.reg.Participant(socketID)
	if !ok || p.RoomKey == "" {
		return nil, nil, false
	}
	r, ok := c.reg.roomOf(p.RoomKey)
	if !ok {
		return nil, nil, false
	}
	return p, r, true
}

func denyCode(err error) string {
	switch {
	case errors.Is(err, domain.ErrAppointmentCompleted):
		return CodeInvalidState
	case errors.Is(err, domain.ErrForbidden):
		return CodeForbidden
	default:
		return CodeInternal
	}
}

func (c *Coordinator) sendError(conn Conn, code, message string) {
	c.sendJSON(conn, errorEvent{Type: EventError, Code: code, Message: message})
}

// sendJSON delivers a state or presence event. A member whose send
// buffer cannot take the write has fallen behind the ordered event
// stream; its connection is closed so the client resynchronizes with a
// fresh join instead of running on a stale view of the room.
func (c *Coordinator) sendJSON(conn Conn, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "call.coordinator").Msg("sendJSON marshal")
		return
	}
	if err := conn.TrySend(b); err != nil {
		log.Warn().Err(err).Str("module", "call.coordinator").Msg("state send failed, closing connection")
		conn.Close()
	}
}

// sendBestEffort is for negotiation relays. The peers re-negotiate end
// to end on their own, so a dropped frame costs a retry, not a kick.
func (c *Coordinator) sendBestEffort(conn Conn, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "call.coordinator").Msg("sendBestEffort marshal")
		return
	}
	if err := conn.TrySend(b); err != nil {
		log.Debug().Err(err).Str("module", "call.coordinator").Msg("relay send dropped")
	}
}
