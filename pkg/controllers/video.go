package controllers

import (
	"github.com/TaskTrial/realtime-server/pkg/models"
	"github.com/gofiber/fiber/v2"
)

// VideoController exposes session management over REST. Socket events
// cover in-call traffic; creation, admission, roles and recordings are
// request/response and live here.
type VideoController struct {
	VideoModel *models.VideoModel
	DS         models.Datastore
	RS         models.Presence
}

func NewVideoController(videoModel *models.VideoModel, ds models.Datastore, rs models.Presence) *VideoController {
	return &VideoController{
		VideoModel: videoModel,
		DS:         ds,
		RS:         rs,
	}
}

func (vc *VideoController) HandleCreateSession(c *fiber.Ctx) error {
	req := new(models.CreateSessionReq)
	if err := c.BodyParser(req); err != nil {
		return SendCommonResponse(c, false, err.Error())
	}
	if req.ChatRoomID == "" {
		return SendCommonResponse(c, false, "chatRoomId required")
	}

	session, err := vc.VideoModel.CreateSession(socketUserFromLocals(c), req)
	if err != nil {
		return sendModelError(c, err)
	}

	return SendCommonResponseWithResult(c, "success", fiber.Map{
		"sessionId":  session.ID,
		"chatRoomId": session.ChatRoomID,
		"meetingUrl": session.MeetingURL,
		"status":     session.Status,
	})
}

func (vc *VideoController) HandleAdmitParticipant(c *fiber.Ctx) error {
	req := new(models.AdmissionReq)
	if err := c.BodyParser(req); err != nil {
		return SendCommonResponse(c, false, err.Error())
	}

	if err := vc.VideoModel.Admit(socketUserFromLocals(c), req); err != nil {
		return sendModelError(c, err)
	}
	return SendCommonResponse(c, true, "success")
}

func (vc *VideoController) HandleDenyParticipant(c *fiber.Ctx) error {
	req := new(models.AdmissionReq)
	if err := c.BodyParser(req); err != nil {
		return SendCommonResponse(c, false, err.Error())
	}

	if err := vc.VideoModel.Deny(socketUserFromLocals(c), req); err != nil {
		return sendModelError(c, err)
	}
	return SendCommonResponse(c, true, "success")
}

// HandleWaitingParticipants lists users currently parked in the waiting
// room, for the host's admission panel.
func (vc *VideoController) HandleWaitingParticipants(c *fiber.Ctx) error {
	sessionId := c.Query("sessionId")
	if sessionId == "" {
		return SendCommonResponse(c, false, "sessionId required")
	}

	waiting, err := vc.DS.GetWaitingParticipants(sessionId)
	if err != nil {
		return sendModelError(c, err)
	}

	type waitingEntry struct {
		UserID string `json:"userId"`
		Name   string `json:"name"`
	}
	list := make([]waitingEntry, 0, len(waiting))
	for _, p := range waiting {
		entry := waitingEntry{UserID: p.UserID}
		if u, err := vc.DS.GetUserByID(p.UserID); err == nil && u != nil {
			entry.Name = u.FullName()
		}
		list = append(list, entry)
	}

	return SendCommonResponseWithResult(c, "success", fiber.Map{
		"sessionId":    sessionId,
		"participants": list,
	})
}

func (vc *VideoController) HandleChangeRole(c *fiber.Ctx) error {
	req := new(models.ChangeRoleReq)
	if err := c.BodyParser(req); err != nil {
		return SendCommonResponse(c, false, err.Error())
	}

	if err := vc.VideoModel.ChangeRole(socketUserFromLocals(c), req); err != nil {
		return sendModelError(c, err)
	}
	return SendCommonResponse(c, true, "success")
}

func (vc *VideoController) HandleStartRecording(c *fiber.Ctx) error {
	req := new(models.StartRecordingReq)
	if err := c.BodyParser(req); err != nil {
		return SendCommonResponse(c, false, err.Error())
	}

	rec, err := vc.VideoModel.StartRecording(socketUserFromLocals(c), req)
	if err != nil {
		return sendModelError(c, err)
	}

	return SendCommonResponseWithResult(c, "success", fiber.Map{
		"recordingId": rec.ID,
		"sessionId":   rec.SessionID,
		"startTime":   rec.StartTime,
	})
}

func (vc *VideoController) HandleStopRecording(c *fiber.Ctx) error {
	req := new(models.StopRecordingReq)
	if err := c.BodyParser(req); err != nil {
		return SendCommonResponse(c, false, err.Error())
	}

	rec, err := vc.VideoModel.StopRecording(socketUserFromLocals(c), req)
	if err != nil {
		return sendModelError(c, err)
	}

	return SendCommonResponseWithResult(c, "success", fiber.Map{
		"recordingId":     rec.ID,
		"sessionId":       rec.SessionID,
		"endTime":         rec.EndTime,
		"durationSeconds": rec.DurationSeconds,
	})
}

// HandleFetchRecordings returns the recording history of a session.
// Callers must be session participants.
func (vc *VideoController) HandleFetchRecordings(c *fiber.Ctx) error {
	sessionId := c.Query("sessionId")
	if sessionId == "" {
		return SendCommonResponse(c, false, "sessionId required")
	}

	recordings, err := vc.DS.GetRecordingsBySessionID(sessionId)
	if err != nil {
		return sendModelError(c, err)
	}

	return SendCommonResponseWithResult(c, "success", fiber.Map{
		"sessionId":  sessionId,
		"recordings": recordings,
	})
}
