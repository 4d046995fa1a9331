package config

const (
	RequestedRoomNotExist       = "requested chat room does not exist"
	RequestedSessionNotExist    = "requested video session does not exist"
	RequestedMessageNotExist    = "requested message does not exist"
	UserNotRoomParticipant      = "user is not a participant of this chat room"
	UserNotSessionParticipant   = "user is not a participant of this video session"
	OnlyHostOrCoHostCanRequest  = "only host or co-host can send this request"
	OnlySenderCanEdit           = "only the original sender can edit a message"
	OnlySenderOrAdminCanDelete  = "only the sender or a room admin can delete a message"
	CanNotEditDeletedMessage    = "a deleted message cannot be edited"
	ChatRoomNotActive           = "chat room is no longer active"
	ActiveSessionAlreadyExists  = "an active video session already exists for this chat room"
	RecordingAlreadyInProgress  = "a recording is already in progress for this session"
	NoActiveRecordingFound      = "no active recording found for this session"
	ParticipantNotWaiting       = "participant is not in the waiting room"
	InvalidRoleRequested        = "invalid participant role requested"
	OnlyHostCanDemoteSelf       = "only the host may change their own role away from host"
	SessionNotJoinable          = "video session has already ended or was cancelled"
	ParticipantDeniedPreviously = "participant was denied entry, a fresh join is required"
	RecordingNotAllowed         = "recording is not allowed for this session"
	SessionFull                 = "video session has reached its participant limit"
	HostMustPromoteFirst        = "promote another participant to host before changing your own role"

	AuthHeaderMissing = "authorization header is missing"
	InvalidToken      = "invalid auth token"
	TokenExpired      = "auth token has expired"
	UserNotActive     = "user account is inactive or deleted"
)
