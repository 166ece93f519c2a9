package counselors

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/anirudh-svg/Peer-Lift/database"
	"github.com/anirudh-svg/Peer-Lift/models"
	"github.com/anirudh-svg/Peer-Lift/utils"

	"github.com/gorilla/mux"
)

// WaitingSessionsHandler lists unclaimed sessions for verified counselors.
func WaitingSessionsHandler(w http.ResponseWriter, r *http.Request) {
	accountID, ok := utils.GetAccountID(r)
	if !ok {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{Success: false, Message: "Unauthorized"})
		return
	}

	counselor, err := models.GetCounselorByAccountID(database.DB, accountID)
	if err != nil {
		utils.WriteJSON(w, http.StatusNotFound, utils.APIResponse{
			Success: false,
			Message: "Counselor profile not found",
		})
		return
	}
	if !counselor.IsVerified {
		utils.WriteJSON(w, http.StatusForbidden, utils.APIResponse{
			Success: false,
			Message: "Counselor not verified",
		})
		return
	}

	var sessions []models.ChatSession
	if err := database.DB.
		Where("status = ?", models.SessionWaiting).
		Order("created_at ASC").
		Find(&sessions).Error; err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{
			Success: false,
			Message: "Failed to load waiting sessions",
		})
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Waiting sessions",
		Data:    sessions,
	})
}

// ClaimSessionHandler assigns a waiting session to the counselor. Capacity
// and verification checks run inside the claim transaction.
func ClaimSessionHandler(w http.ResponseWriter, r *http.Request) {
	accountID, ok := utils.GetAccountID(r)
	if !ok {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{Success: false, Message: "Unauthorized"})
		return
	}

	sessionID := pathSessionID(r)
	if sessionID == 0 {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{
			Success: false,
			Message: "Invalid session id",
		})
		return
	}

	err := models.ClaimSession(database.DB, sessionID, accountID)
	switch {
	case err == nil:
	case errors.Is(err, models.ErrSessionNotFound):
		utils.WriteJSON(w, http.StatusNotFound, utils.APIResponse{
			Success: false,
			Message: "Chat session not found",
		})
		return
	case errors.Is(err, models.ErrSessionNotAvailable):
		utils.WriteJSON(w, http.StatusConflict, utils.APIResponse{
			Success: false,
			Message: "Session already claimed or ended",
		})
		return
	case errors.Is(err, models.ErrCounselorUnverified):
		utils.WriteJSON(w, http.StatusForbidden, utils.APIResponse{
			Success: false,
			Message: "Counselor not verified",
		})
		return
	case errors.Is(err, models.ErrCapacityExceeded):
		utils.WriteJSON(w, http.StatusConflict, utils.APIResponse{
			Success: false,
			Message: "Maximum concurrent sessions reached",
		})
		return
	default:
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{
			Success: false,
			Message: "Failed to claim session",
		})
		return
	}

	var session models.ChatSession
	if err := database.DB.First(&session, sessionID).Error; err == nil {
		utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
			Success: true,
			Message: "Session claimed",
			Data:    session,
		})
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Session claimed",
	})
}

// MySessionsHandler lists the counselor's active sessions.
func MySessionsHandler(w http.ResponseWriter, r *http.Request) {
	accountID, ok := utils.GetAccountID(r)
	if !ok {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{Success: false, Message: "Unauthorized"})
		return
	}

	var sessions []models.ChatSession
	if err := database.DB.
		Where("counselor_id = ? AND status = ?", accountID, models.SessionActive).
		Order("last_activity DESC").
		Find(&sessions).Error; err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{
			Success: false,
			Message: "Failed to load sessions",
		})
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Active sessions",
		Data:    sessions,
	})
}

// counselorSession loads the addressed session and verifies the counselor
// owns it. Returns nil after writing the error response.
func counselorSession(w http.ResponseWriter, r *http.Request, accountID uint) *models.ChatSession {
	sessionID := pathSessionID(r)
	if sessionID == 0 {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{
			Success: false,
			Message: "Invalid session id",
		})
		return nil
	}
	var session models.ChatSession
	if err := database.DB.First(&session, sessionID).Error; err != nil {
		utils.WriteJSON(w, http.StatusNotFound, utils.APIResponse{
			Success: false,
			Message: "Chat session not found",
		})
		return nil
	}
	if session.CounselorID == nil || *session.CounselorID != accountID {
		utils.WriteJSON(w, http.StatusForbidden, utils.APIResponse{
			Success: false,
			Message: "Session does not belong to this counselor",
		})
		return nil
	}
	return &session
}

// SessionMessagesHandler returns the full message history with analysis
// fields included. This is the only read surface where analysis is visible.
func SessionMessagesHandler(w http.ResponseWriter, r *http.Request) {
	accountID, ok := utils.GetAccountID(r)
	if !ok {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{Success: false, Message: "Unauthorized"})
		return
	}
	session := counselorSession(w, r, accountID)
	if session == nil {
		return
	}

	var messages []models.Message
	if err := database.DB.
		Where("session_id = ?", session.ID).
		Order("timestamp ASC").
		Find(&messages).Error; err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{
			Success: false,
			Message: "Failed to load messages",
		})
		return
	}

	views := make([]models.MessageView, 0, len(messages))
	for _, m := range messages {
		views = append(views, m.View(true))
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Messages",
		Data: map[string]interface{}{
			"session":  session,
			"messages": views,
		},
	})
}

// SendCounselorMessageHandler appends a counselor reply to an owned session.
// Counselor messages are never analyzed and carry no daily quota.
func SendCounselorMessageHandler(w http.ResponseWriter, r *http.Request) {
	accountID, ok := utils.GetAccountID(r)
	if !ok {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{Success: false, Message: "Unauthorized"})
		return
	}
	session := counselorSession(w, r, accountID)
	if session == nil {
		return
	}
	if session.Status != models.SessionActive {
		utils.WriteJSON(w, http.StatusConflict, utils.APIResponse{
			Success: false,
			Message: "Chat session is not active",
		})
		return
	}

	var req struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Content == "" {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{
			Success: false,
			Message: "Message content is required",
		})
		return
	}

	now := time.Now()
	msg := models.Message{
		SessionID:  session.ID,
		SenderID:   strconv.FormatUint(uint64(accountID), 10),
		SenderType: models.SenderCounselor,
		Content:    req.Content,
		Timestamp:  now,
		ExpiresAt:  now.Add(models.MessageRetention),
	}
	if err := database.DB.Create(&msg).Error; err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{
			Success: false,
			Message: "Failed to send message",
		})
		return
	}

	if err := models.ExtendSession(database.DB, session.ID, now); err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{
			Success: false,
			Message: "Failed to extend session",
		})
		return
	}

	utils.WriteJSON(w, http.StatusCreated, utils.APIResponse{
		Success: true,
		Message: "Message sent",
		Data:    msg.View(true),
	})
}

// EndSessionHandler lets the counselor end an owned session.
func EndSessionHandler(w http.ResponseWriter, r *http.Request) {
	accountID, ok := utils.GetAccountID(r)
	if !ok {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{Success: false, Message: "Unauthorized"})
		return
	}
	session := counselorSession(w, r, accountID)
	if session == nil {
		return
	}

	if err := models.EndSession(database.DB, session.ID); err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{
			Success: false,
			Message: "Failed to end session",
		})
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Chat session ended",
	})
}

func pathSessionID(r *http.Request) uint {
	idStr := mux.Vars(r)["id"]
	var id uint
	for _, c := range idStr {
		if c < '0' || c > '9' {
			return 0
		}
		id = id*10 + uint(c-'0')
	}
	return id
}
