package call

import "encoding/json"

// Wire protocol: every message is a flat JSON object with a "type"
// discriminator. Field names mirror what the web and mobile clients
// already speak.

// Client -> server event types.
const (
	EventJoinRoom    = "join-room"
	EventStartCall   = "start-call"
	EventEndCall     = "end-call"
	EventOffer       = "offer"
	EventAnswer      = "answer"
	EventICE         = "ice-candidate"
	EventAudioStatus = "user-audio-status"
	EventVideoStatus = "user-video-status"
)

// Server -> client event types.
const (
	EventCallState   = "call-state"
	EventUserJoined  = "user-joined"
	EventRoomUsers   = "room-users"
	EventCallStarted = "call-started"
	EventCallEnded   = "call-ended"
	EventUserLeft    = "user-left"
	EventError       = "error"
)

// Error codes surfaced in error events.
const (
	CodeNotFound     = "not_found"
	CodeForbidden    = "forbidden"
	CodeInvalidState = "invalid_state"
	CodeInternal     = "internal"
)

type JoinRequest struct {
	RoomID   string `json:"roomId"`
	UserID   string `json:"userId"`
	UserName string `json:"userName"`
	UserRole string `json:"userRole"`
}

type OfferRequest struct {
	Target string          `json:"target"`
	Offer  json.RawMessage `json:"offer"`
}

type AnswerRequest struct {
	Target string          `json:"target"`
	Answer json.RawMessage `json:"answer"`
}

type ICECandidateRequest struct {
	Target    string          `json:"target"`
	Candidate json.RawMessage `json:"candidate"`
}

type AudioStatusRequest struct {
	IsMuted bool `json:"isMuted"`
}

type VideoStatusRequest struct {
	IsVideoOff bool `json:"isVideoOff"`
}

type errorEvent struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type callStateEvent struct {
	Type      string `json:"type"`
	IsActive  bool   `json:"isActive"`
	StartedBy string `json:"startedBy,omitempty"`
}

type presenceEvent struct {
	Type     string `json:"type"` // user-joined / user-left
	UserID   string `json:"userId"`
	UserName string `json:"userName"`
	SocketID string `json:"socketId"`
}

type RoomUser struct {
	SocketID string `json:"socketId"`
	UserID   string `json:"userId"`
	UserName string `json:"userName"`
}

type roomUsersEvent struct {
	Type  string     `json:"type"`
	Users []RoomUser `json:"users"`
}

type callStartedEvent struct {
	Type          string `json:"type"`
	StartedBy     string `json:"startedBy"`
	StartedByName string `json:"startedByName"`
}

type callEndedEvent struct {
	Type        string `json:"type"`
	EndedBy     string `json:"endedBy"`
	EndedByName string `json:"endedByName"`
}
