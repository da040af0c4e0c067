package protocol

import (
	"bytes"
	"encoding/json"
)

// Message types the server routes.
const (
	TypeListRooms     = "list-rooms"
	TypeSetName       = "set-name"
	TypeCreateRoom    = "create-room"
	TypeJoinRoom      = "join-room"
	TypeLeaveRoom     = "leave-room"
	TypeRaiseHand     = "raise-hand"
	TypeAllowSpeak    = "allow-speak"
	TypeHostMuteAudio = "host-mute-audio"
	TypeHostHideVideo = "host-hide-video"
	TypeChatMessage   = "chat-message"
	TypeOffer         = "offer"
	TypeAnswer        = "answer"
	TypeICECandidate  = "ice-candidate"
)

// Message types the server emits. Acks reuse the request type
// (create-room, join-room, leave-room, chat-message, list-rooms).
const (
	TypeWelcome                = "welcome"
	TypeNameUpdated            = "name-updated"
	TypeRoomPeers              = "room-peers"
	TypePeerJoined             = "peer-joined"
	TypeHandUpdated            = "hand-updated"
	TypeSpeakPermission        = "speak-permission"
	TypeSpeakPermissionUpdated = "speak-permission-updated"
	TypeRemoteAudioControl     = "remote-audio-control"
	TypeRemoteVideoControl     = "remote-video-control"
)

// Envelope is one inbound frame. Beyond Type, only the fields the routed
// operation reads are meaningful; everything else rides along in the raw
// frame so offer/answer/ice-candidate payloads stay opaque to the relay.
type Envelope struct {
	Type    string   `json:"type"`
	RoomID  string   `json:"roomId,omitempty"`
	Title   string   `json:"title,omitempty"`
	Tags    []string `json:"tags,omitempty"`
	Tag     string   `json:"tag,omitempty"`
	Name    string   `json:"name,omitempty"`
	UserID  string   `json:"userId,omitempty"`
	To      string   `json:"to,omitempty"`
	Text    string   `json:"text,omitempty"`
	Raised  *bool    `json:"raised,omitempty"`
	Allowed *bool    `json:"allowed,omitempty"`

	raw json.RawMessage
}

// DecodeEnvelope parses an inbound frame, retaining the original bytes for
// relay. A frame that is not a JSON object is an error; an empty or unknown
// Type is left for the router to reject.
func DecodeEnvelope(data []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, err
	}
	env.raw = append(json.RawMessage(nil), data...)
	return env, nil
}

// WithFrom returns the original frame with the sender id spliced in as
// "from". Field values other than "from" are preserved; numeric literals
// round-trip as json.Number so 64-bit ids and timestamps survive the splice.
// A frame that cannot be reshaped is forwarded as received.
func (e Envelope) WithFrom(id string) []byte {
	dec := json.NewDecoder(bytes.NewReader(e.raw))
	dec.UseNumber()
	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		return e.raw
	}
	fields["from"] = id
	out, err := json.Marshal(fields)
	if err != nil {
		return e.raw
	}
	return out
}

// ICEServer describes STUN/TURN servers advertised to clients.
type ICEServer struct {
	URLs       []string `json:"urls"`
	Username   string   `json:"username,omitempty"`
	Credential string   `json:"credential,omitempty"`
}

// Welcome is the first frame a connection receives: its assigned id plus
// the ICE servers to dial peers through.
type Welcome struct {
	Type       string      `json:"type"`
	UserID     string      `json:"userId"`
	ICEServers []ICEServer `json:"iceServers"`
	ICEMode    string      `json:"iceMode,omitempty"`
}

// RoomSummary is one discovery entry, also the unit the directory mirror
// publishes.
type RoomSummary struct {
	RoomID           string   `json:"roomId"`
	Title            string   `json:"title"`
	Tags             []string `json:"tags"`
	ParticipantCount int      `json:"participantCount"`
}

// RoomList replies to list-rooms.
type RoomList struct {
	Type  string        `json:"type"`
	Rooms []RoomSummary `json:"rooms"`
}

// RoomCreated acks create-room with the room's settled metadata.
type RoomCreated struct {
	Type   string   `json:"type"`
	RoomID string   `json:"roomId"`
	Title  string   `json:"title"`
	Tags   []string `json:"tags"`
}

// RoomJoined acks join-room; the peer snapshot follows separately.
type RoomJoined struct {
	Type   string `json:"type"`
	RoomID string `json:"roomId"`
}

// PeerInfo identifies one existing member handed to a joiner.
type PeerInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// RoomPeers carries the membership snapshot taken before the join.
type RoomPeers struct {
	Type  string     `json:"type"`
	Peers []PeerInfo `json:"peers"`
}

// PeerJoined announces a newcomer to the members that preceded it.
type PeerJoined struct {
	Type   string `json:"type"`
	UserID string `json:"userId"`
	Name   string `json:"name"`
}

// RoomLeft tells remaining members their room lost a participant.
type RoomLeft struct {
	Type   string `json:"type"`
	RoomID string `json:"roomId"`
}

// NameUpdated announces a display-name change to the whole room.
type NameUpdated struct {
	Type   string `json:"type"`
	UserID string `json:"userId"`
	Name   string `json:"name"`
}

// HandUpdated is fanned out to hosts when a member raises or lowers a hand.
type HandUpdated struct {
	Type   string `json:"type"`
	UserID string `json:"userId"`
	Raised bool   `json:"raised"`
}

// SpeakPermission notifies the target of its new speak grant.
type SpeakPermission struct {
	Type    string `json:"type"`
	Allowed bool   `json:"allowed"`
}

// SpeakPermissionUpdated acks the host that issued allow-speak. The
// host-mute-audio path reuses this shape for its ack as well.
type SpeakPermissionUpdated struct {
	Type    string `json:"type"`
	UserID  string `json:"userId"`
	Allowed bool   `json:"allowed"`
}

// RemoteMediaControl asks a target to mute its audio or hide its video,
// depending on Type.
type RemoteMediaControl struct {
	Type    string `json:"type"`
	Allowed bool   `json:"allowed"`
}

// ChatMessage is echoed to the entire room, sender included.
type ChatMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
	Name string `json:"name"`
}
