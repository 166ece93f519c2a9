package controllers

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/anirudh-svg/Peer-Lift/database"
	"github.com/anirudh-svg/Peer-Lift/models"
	"github.com/anirudh-svg/Peer-Lift/tasks"
	"github.com/anirudh-svg/Peer-Lift/utils"

	"github.com/gorilla/mux"
	"gorm.io/gorm"
)

// analyzer is injected at router construction so message sends can enqueue
// classification work without importing the tasks wiring here.
var analyzer *tasks.Analyzer

func InitChat(a *tasks.Analyzer) {
	analyzer = a
}

const anonymousHeader = "X-Anonymous-Session"

type anonymousSessionRequest struct {
	SessionToken string `json:"session_token" validate:"required,token64"`
}

type sendMessageRequest struct {
	Content string `json:"content" validate:"required"`
}

// resolveAnonymousUser loads the visitor identity from the X-Anonymous-Session
// header. Returns nil after writing the error response.
func resolveAnonymousUser(w http.ResponseWriter, r *http.Request) *models.AnonymousUser {
	token := r.Header.Get(anonymousHeader)
	if token == "" {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{
			Success: false,
			Message: "Missing anonymous session header",
		})
		return nil
	}
	var user models.AnonymousUser
	if err := database.DB.Where("session_token = ?", token).First(&user).Error; err != nil {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{
			Success: false,
			Message: "Unknown anonymous session",
		})
		return nil
	}
	return &user
}

func hashClientIP(r *http.Request) *string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	if host == "" {
		return nil
	}
	sum := sha256.Sum256([]byte(host))
	s := hex.EncodeToString(sum[:])
	return &s
}

// CreateAnonymousSessionHandler creates or refreshes the visitor identity for
// a client-generated session token. Re-presenting a known token refreshes
// activity and resets the daily counter across a day boundary.
func CreateAnonymousSessionHandler(w http.ResponseWriter, r *http.Request) {
	var req anonymousSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{
			Success: false,
			Message: "Invalid request body",
		})
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{
			Success: false,
			Message: err.Error(),
		})
		return
	}

	now := time.Now()
	var user models.AnonymousUser
	err := database.DB.Where("session_token = ?", req.SessionToken).First(&user).Error
	switch {
	case err == nil:
		updates := map[string]interface{}{
			"is_active":     true,
			"last_activity": now,
			"ip_hash":       hashClientIP(r),
		}
		if !models.SameLocalDay(user.LastActivity, now) {
			updates["message_count"] = 0
			user.MessageCount = 0
		}
		if err := database.DB.Model(&user).Updates(updates).Error; err != nil {
			utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{
				Success: false,
				Message: "Failed to refresh anonymous session",
			})
			return
		}
		user.IsActive = true
		user.LastActivity = now
	case errors.Is(err, gorm.ErrRecordNotFound):
		user = models.AnonymousUser{
			SessionToken: req.SessionToken,
			IsActive:     true,
			MessageCount: 0,
			LastActivity: now,
			IPHash:       hashClientIP(r),
		}
		if err := database.DB.Create(&user).Error; err != nil {
			utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{
				Success: false,
				Message: "Failed to create anonymous session",
			})
			return
		}
	default:
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{
			Success: false,
			Message: "Database error",
		})
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Anonymous session ready",
		Data: map[string]interface{}{
			"session_token":       user.SessionToken,
			"messages_sent_today": user.MessagesSentToday(now),
			"daily_limit":         models.DailyMessageLimit,
		},
	})
}

// StartChatSessionHandler opens a new waiting chat session for the visitor.
// A visitor with a non-ended session gets that session back instead of a
// second one.
func StartChatSessionHandler(w http.ResponseWriter, r *http.Request) {
	user := resolveAnonymousUser(w, r)
	if user == nil {
		return
	}

	var existing models.ChatSession
	err := database.DB.
		Where("anonymous_user_id = ? AND status <> ?", user.ID, models.SessionEnded).
		Order("created_at DESC").
		First(&existing).Error
	if err == nil {
		utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
			Success: true,
			Message: "Existing session",
			Data:    existing,
		})
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{
			Success: false,
			Message: "Database error",
		})
		return
	}

	now := time.Now()
	session := models.ChatSession{
		AnonymousUserID: user.ID,
		Status:          models.SessionWaiting,
		LastActivity:    now,
		ExpiresAt:       now.Add(models.SessionIdleWindow),
	}
	if err := database.DB.Create(&session).Error; err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{
			Success: false,
			Message: "Failed to start chat session",
		})
		return
	}

	utils.WriteJSON(w, http.StatusCreated, utils.APIResponse{
		Success: true,
		Message: "Chat session started",
		Data:    session,
	})
}

// GetCurrentSessionHandler returns the visitor's most recent non-ended session.
func GetCurrentSessionHandler(w http.ResponseWriter, r *http.Request) {
	user := resolveAnonymousUser(w, r)
	if user == nil {
		return
	}

	var session models.ChatSession
	err := database.DB.
		Where("anonymous_user_id = ? AND status <> ?", user.ID, models.SessionEnded).
		Order("created_at DESC").
		First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		utils.WriteJSON(w, http.StatusNotFound, utils.APIResponse{
			Success: false,
			Message: "No active session",
		})
		return
	}
	if err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{
			Success: false,
			Message: "Database error",
		})
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Current session",
		Data:    session,
	})
}

// sessionFromPath loads the session addressed by the {id} path variable.
func sessionFromPath(w http.ResponseWriter, r *http.Request) *models.ChatSession {
	idStr := mux.Vars(r)["id"]
	var session models.ChatSession
	if err := database.DB.First(&session, "id = ?", idStr).Error; err != nil {
		utils.WriteJSON(w, http.StatusNotFound, utils.APIResponse{
			Success: false,
			Message: "Chat session not found",
		})
		return nil
	}
	return &session
}

// SendMessageHandler appends a visitor message to the session. It enforces
// the daily quota, rejects ended sessions, extends the session keep-alive
// and enqueues async analysis.
func SendMessageHandler(w http.ResponseWriter, r *http.Request) {
	user := resolveAnonymousUser(w, r)
	if user == nil {
		return
	}
	session := sessionFromPath(w, r)
	if session == nil {
		return
	}
	if session.AnonymousUserID != user.ID {
		utils.WriteJSON(w, http.StatusForbidden, utils.APIResponse{
			Success: false,
			Message: "Session does not belong to this visitor",
		})
		return
	}
	if session.Status == models.SessionEnded {
		utils.WriteJSON(w, http.StatusConflict, utils.APIResponse{
			Success: false,
			Message: "Chat session has ended",
		})
		return
	}

	var req sendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Content == "" {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{
			Success: false,
			Message: "Message content is required",
		})
		return
	}

	// Quota check, message insert, counter charge and keep-alive run in one
	// locked transaction so concurrent sends at the quota boundary serialize.
	msg, sentToday, err := models.AppendVisitorMessage(database.DB, user.ID, session.ID, req.Content, time.Now())
	if errors.Is(err, models.ErrDailyQuotaExceeded) {
		utils.WriteJSON(w, http.StatusTooManyRequests, utils.APIResponse{
			Success: false,
			Message: "Daily message limit reached",
			Data: map[string]interface{}{
				"daily_limit": models.DailyMessageLimit,
			},
		})
		return
	}
	if err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{
			Success: false,
			Message: "Failed to send message",
		})
		return
	}

	if analyzer != nil {
		analyzer.Enqueue(msg.ID)
	}

	utils.WriteJSON(w, http.StatusCreated, utils.APIResponse{
		Success: true,
		Message: "Message sent",
		Data: map[string]interface{}{
			"message":             msg.View(false),
			"messages_sent_today": sentToday,
			"daily_limit":         models.DailyMessageLimit,
		},
	})
}

// GetMessagesHandler lists session messages for the visitor. Analysis fields
// are always stripped on this surface; counselors read messages through
// their own endpoint.
func GetMessagesHandler(w http.ResponseWriter, r *http.Request) {
	user := resolveAnonymousUser(w, r)
	if user == nil {
		return
	}
	session := sessionFromPath(w, r)
	if session == nil {
		return
	}
	if session.AnonymousUserID != user.ID {
		utils.WriteJSON(w, http.StatusForbidden, utils.APIResponse{
			Success: false,
			Message: "Session does not belong to this visitor",
		})
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
		views = append(views, m.View(false))
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Messages",
		Data:    views,
	})
}

// EndChatSessionHandler lets the visitor end their own session.
func EndChatSessionHandler(w http.ResponseWriter, r *http.Request) {
	user := resolveAnonymousUser(w, r)
	if user == nil {
		return
	}
	session := sessionFromPath(w, r)
	if session == nil {
		return
	}
	if session.AnonymousUserID != user.ID {
		utils.WriteJSON(w, http.StatusForbidden, utils.APIResponse{
			Success: false,
			Message: "Session does not belong to this visitor",
		})
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

// OnlineCounselorCountHandler is a public widget endpoint showing how many
// verified counselors are currently online.
func OnlineCounselorCountHandler(w http.ResponseWriter, r *http.Request) {
	var count int64
	if err := database.DB.Model(&models.Counselor{}).
		Where("is_online = ? AND is_verified = ?", true, true).
		Count(&count).Error; err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{
			Success: false,
			Message: "Failed to count counselors",
		})
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Online counselors",
		Data:    map[string]interface{}{"online": count},
	})
}
