package signaling

import (
	"github.com/dk59mh974z-afk/open-podcast-lobby/pkg/metrics"
	"github.com/dk59mh974z-afk/open-podcast-lobby/pkg/protocol"
)

// Drop reasons, mirrored into the dropped-messages metric. A dropped frame
// never produces an error reply; the connection stays open.
const (
	dropMalformed     = "malformed"
	dropUnknownType   = "unknown-type"
	dropPrecondition  = "precondition"
	dropTargetMissing = "target-not-found"
)

// route applies exactly one operation for one inbound envelope. It runs
// under the registry mutex, so each message observes and mutates room state
// atomically with respect to every other connection.
func (h *Hub) route(c *Conn, env protocol.Envelope) {
	h.reg.mu.Lock()
	defer h.reg.mu.Unlock()

	handled := true
	switch env.Type {
	case protocol.TypeListRooms:
		h.listRooms(c, env)
	case protocol.TypeSetName:
		h.setName(c, env)
	case protocol.TypeCreateRoom:
		h.createRoom(c, env)
	case protocol.TypeJoinRoom:
		h.joinRoom(c, env)
	case protocol.TypeLeaveRoom:
		h.leaveRoom(c, env)
	case protocol.TypeRaiseHand:
		h.raiseHand(c, env)
	case protocol.TypeAllowSpeak:
		h.allowSpeak(c, env)
	case protocol.TypeHostMuteAudio:
		h.hostMuteAudio(c, env)
	case protocol.TypeHostHideVideo:
		h.hostHideVideo(c, env)
	case protocol.TypeChatMessage:
		h.chat(c, env)
	case protocol.TypeOffer, protocol.TypeAnswer, protocol.TypeICECandidate:
		h.relaySignal(c, env)
	default:
		handled = false
	}

	if handled {
		metrics.MessagesRouted.WithLabelValues(env.Type).Inc()
		return
	}
	h.drop(c, env.Type, dropUnknownType)
}

// drop records a silently discarded frame.
func (h *Hub) drop(c *Conn, typ, reason string) {
	metrics.MessagesDropped.WithLabelValues(reason).Inc()
	h.log.Debug("ws.drop", "conn", c.id, "type", typ, "reason", reason)
}

func (h *Hub) listRooms(c *Conn, env protocol.Envelope) {
	c.sendJSON(protocol.RoomList{
		Type:  protocol.TypeListRooms,
		Rooms: h.reg.summaries(env.Tag),
	})
}

func (h *Hub) setName(c *Conn, env protocol.Envelope) {
	c.name = sanitizeName(env.Name)
	if c.room == nil {
		return
	}
	deliver(c.room, protocol.NameUpdated{
		Type:   protocol.TypeNameUpdated,
		UserID: c.id,
		Name:   c.name,
	}, toAll)
}

// createRoom puts the sender into the named room as a host. Creating a room
// that already exists simply adds another host; title and tags stick from
// whichever create came first. A sender already in some other room is
// detached from it first, with full departure side effects.
func (h *Hub) createRoom(c *Conn, env protocol.Envelope) {
	if env.RoomID == "" {
		h.drop(c, env.Type, dropMalformed)
		return
	}
	h.detach(c)

	rm := h.reg.ensure(env.RoomID, env.Title, env.Tags)
	rm.addMember(c)
	c.room = rm
	c.role = RoleHost
	c.canSpeak = true
	c.handRaised = false

	c.sendJSON(protocol.RoomCreated{
		Type:   protocol.TypeCreateRoom,
		RoomID: rm.id,
		Title:  rm.title,
		Tags:   append([]string{}, rm.tags...),
	})
	h.log.Info("room.create", "room", rm.id, "host", c.id, "members", len(rm.members))
	h.mirrorRoom(rm)
}

// joinRoom puts the sender into the named room as a listener, creating the
// room on the fly when it does not exist yet. The peer snapshot is taken
// before the join, so the joiner never appears in its own list.
func (h *Hub) joinRoom(c *Conn, env protocol.Envelope) {
	if env.RoomID == "" {
		h.drop(c, env.Type, dropMalformed)
		return
	}
	h.detach(c)

	rm := h.reg.ensure(env.RoomID, "", nil)

	peers := make([]protocol.PeerInfo, 0, len(rm.members))
	for _, m := range rm.members {
		peers = append(peers, protocol.PeerInfo{ID: m.id, Name: m.name})
	}

	rm.addMember(c)
	c.room = rm
	c.role = RoleListener
	c.canSpeak = false
	c.handRaised = false

	c.sendJSON(protocol.RoomJoined{Type: protocol.TypeJoinRoom, RoomID: rm.id})
	c.sendJSON(protocol.RoomPeers{Type: protocol.TypeRoomPeers, Peers: peers})
	deliver(rm, protocol.PeerJoined{
		Type:   protocol.TypePeerJoined,
		UserID: c.id,
		Name:   c.name,
	}, toAllExcept(c.id))
	h.log.Info("room.join", "room", rm.id, "conn", c.id, "members", len(rm.members))
	h.mirrorRoom(rm)
}

// leaveRoom detaches the sender from its current room. The explicit roomId
// only satisfies the precondition for clients that track membership
// themselves; the server removes the sender from the room it actually holds
// it in, which is the only membership it can have.
func (h *Hub) leaveRoom(c *Conn, env protocol.Envelope) {
	if c.room == nil && env.RoomID == "" {
		h.drop(c, env.Type, dropPrecondition)
		return
	}
	h.detach(c)
}

// detach severs c's current membership: the room either announces the
// departure to its remaining members or, when c was the last one out, is
// deleted. c ends up with listener defaults. No-op when c is in no room.
func (h *Hub) detach(c *Conn) {
	rm := c.room
	c.resetToListener()
	if rm == nil {
		return
	}
	rm.removeMember(c)
	if len(rm.members) == 0 {
		h.reg.remove(rm.id)
		h.log.Info("room.delete", "room", rm.id)
		h.mirrorForget(rm.id)
		return
	}
	deliver(rm, protocol.RoomLeft{Type: protocol.TypeLeaveRoom, RoomID: rm.id}, toAll)
	h.log.Info("room.leave", "room", rm.id, "conn", c.id, "members", len(rm.members))
	h.mirrorRoom(rm)
}

func (h *Hub) raiseHand(c *Conn, env protocol.Envelope) {
	if c.room == nil {
		h.drop(c, env.Type, dropPrecondition)
		return
	}
	c.handRaised = env.Raised != nil && *env.Raised
	deliver(c.room, protocol.HandUpdated{
		Type:   protocol.TypeHandUpdated,
		UserID: c.id,
		Raised: c.handRaised,
	}, toRole(RoleHost))
}

// allowSpeak grants or revokes a member's speak permission. Hosts only.
func (h *Hub) allowSpeak(c *Conn, env protocol.Envelope) {
	if c.room == nil || c.role != RoleHost {
		h.drop(c, env.Type, dropPrecondition)
		return
	}
	target := c.room.member(env.UserID)
	if target == nil {
		h.drop(c, env.Type, dropTargetMissing)
		return
	}
	allowed := env.Allowed != nil && *env.Allowed
	target.canSpeak = allowed
	target.sendJSON(protocol.SpeakPermission{
		Type:    protocol.TypeSpeakPermission,
		Allowed: allowed,
	})
	c.sendJSON(protocol.SpeakPermissionUpdated{
		Type:    protocol.TypeSpeakPermissionUpdated,
		UserID:  target.id,
		Allowed: allowed,
	})
}

// hostMuteAudio tells a member to mute or unmute. The ack back to the host
// reuses the speak-permission-updated shape; the target's speak grant
// itself is untouched.
func (h *Hub) hostMuteAudio(c *Conn, env protocol.Envelope) {
	if c.room == nil || c.role != RoleHost {
		h.drop(c, env.Type, dropPrecondition)
		return
	}
	target := c.room.member(env.UserID)
	if target == nil {
		h.drop(c, env.Type, dropTargetMissing)
		return
	}
	allowed := env.Allowed != nil && *env.Allowed
	target.sendJSON(protocol.RemoteMediaControl{
		Type:    protocol.TypeRemoteAudioControl,
		Allowed: allowed,
	})
	c.sendJSON(protocol.SpeakPermissionUpdated{
		Type:    protocol.TypeSpeakPermissionUpdated,
		UserID:  target.id,
		Allowed: allowed,
	})
}

// hostHideVideo tells a member to hide or show its video. Unlike the audio
// path, the host gets no ack.
func (h *Hub) hostHideVideo(c *Conn, env protocol.Envelope) {
	if c.room == nil || c.role != RoleHost {
		h.drop(c, env.Type, dropPrecondition)
		return
	}
	target := c.room.member(env.UserID)
	if target == nil {
		h.drop(c, env.Type, dropTargetMissing)
		return
	}
	target.sendJSON(protocol.RemoteMediaControl{
		Type:    protocol.TypeRemoteVideoControl,
		Allowed: env.Allowed != nil && *env.Allowed,
	})
}

// chat echoes a message to the whole room, sender included. The name
// resolves from the frame first, then the sender's stored name.
func (h *Hub) chat(c *Conn, env protocol.Envelope) {
	if c.room == nil {
		h.drop(c, env.Type, dropPrecondition)
		return
	}
	name := env.Name
	if name == "" {
		name = c.name
	}
	if name == "" {
		name = defaultName
	}
	deliver(c.room, protocol.ChatMessage{
		Type: protocol.TypeChatMessage,
		Text: env.Text,
		Name: name,
	}, toAll)
}

// relaySignal forwards an offer, answer, or ice-candidate frame unmodified
// except for the injected sender id. A "to" field routes it to that one
// member; without it the frame fans out to every other member.
func (h *Hub) relaySignal(c *Conn, env protocol.Envelope) {
	if c.room == nil {
		h.drop(c, env.Type, dropPrecondition)
		return
	}
	frame := env.WithFrom(c.id)
	if env.To != "" {
		if c.room.member(env.To) == nil {
			h.drop(c, env.Type, dropTargetMissing)
			return
		}
		deliverRaw(c.room, frame, toPeer(env.To))
		return
	}
	deliverRaw(c.room, frame, toAllExcept(c.id))
}
