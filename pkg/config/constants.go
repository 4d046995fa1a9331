package config

// WebsocketChannel is the Redis pub/sub channel used to distribute
// realtime events between server instances.
const WebsocketChannel = "tasktrial-websocket"

// DeletedMessagePlaceholder replaces the content of a soft-deleted chat message.
const DeletedMessagePlaceholder = "This message has been deleted"

// BroadcastWorkers is the size of the worker pool used for event fan-out.
const BroadcastWorkers = 10

// inbound socket events (client -> server)
const (
	EventChatJoin     = "chat:join"
	EventChatLeave    = "chat:leave"
	EventChatMessage  = "chat:message"
	EventChatRead     = "chat:read"
	EventChatReaction = "chat:reaction"
	EventChatTyping   = "chat:typing"
	EventChatEdit     = "chat:edit"
	EventChatDelete   = "chat:delete"

	EventJoinVideoRoom           = "join_video_room"
	EventLeaveVideoRoom          = "leave_video_room"
	EventSignal                  = "signal"
	EventUpdateMediaStatus       = "update_media_status"
	EventUpdateConnectionQuality = "update_connection_quality"
	EventRequestPresenterRole    = "request_presenter_role"
	EventUpdateScreenSharing     = "update_screen_sharing"
	EventSendVideoMessage        = "send_video_message"
)

// outbound socket events (server -> client/room)
const (
	EventChatUserJoined     = "chat:user-joined"
	EventChatUserLeft       = "chat:user-left"
	EventChatMessageEdited  = "chat:message-edited"
	EventChatMessageDeleted = "chat:message-deleted"
	EventUserStatus         = "user:status"

	EventParticipantJoined       = "participant_joined"
	EventParticipantLeft         = "participant_left"
	EventMediaStatusUpdate       = "media_status_update"
	EventConnectionQualityUpdate = "connection_quality_update"
	EventPresenterRoleRequest    = "presenter_role_request"
	EventScreenSharingUpdate     = "screen_sharing_update"
	EventVideoChatMessage        = "video_chat_message"

	EventVideoCreated          = "video:created"
	EventVideoEnded            = "video:ended"
	EventVideoEndedByHost      = "video:ended-by-host"
	EventVideoRecordingStarted = "video:recording-started"
	EventVideoRecordingStopped = "video:recording-stopped"
	EventVideoWaitingUser      = "video:waiting-participant"
	EventVideoAdmissionUpdate  = "video:admission-update"
	EventVideoRoleChanged      = "video:role-changed"

	EventError = "error"
)
