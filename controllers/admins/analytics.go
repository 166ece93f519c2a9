package admins

import (
	"net/http"
	"time"

	"github.com/anirudh-svg/Peer-Lift/database"
	"github.com/anirudh-svg/Peer-Lift/models"
	"github.com/anirudh-svg/Peer-Lift/utils"
)

// AnalyticsHandler returns platform aggregates: counselor counts, session
// counts by status, crisis sessions and 24h message volume.
func AnalyticsHandler(w http.ResponseWriter, r *http.Request) {
	if requireAdminWithPermission(w, r, models.PermViewAnalytics) == nil {
		return
	}

	type statusCount struct {
		Status string `json:"status"`
		Count  int64  `json:"count"`
	}

	var totalCounselors, verifiedCounselors, onlineCounselors int64
	if err := database.DB.Model(&models.Counselor{}).Count(&totalCounselors).Error; err != nil {
		writeAnalyticsError(w)
		return
	}
	if err := database.DB.Model(&models.Counselor{}).
		Where("is_verified = ?", true).Count(&verifiedCounselors).Error; err != nil {
		writeAnalyticsError(w)
		return
	}
	if err := database.DB.Model(&models.Counselor{}).
		Where("is_online = ? AND is_verified = ?", true, true).Count(&onlineCounselors).Error; err != nil {
		writeAnalyticsError(w)
		return
	}

	var sessionsByStatus []statusCount
	if err := database.DB.Model(&models.ChatSession{}).
		Select("status, COUNT(*) as count").
		Group("status").
		Scan(&sessionsByStatus).Error; err != nil {
		writeAnalyticsError(w)
		return
	}

	var crisisSessions int64
	if err := database.DB.Model(&models.ChatSession{}).
		Where("is_crisis_detected = ?", true).Count(&crisisSessions).Error; err != nil {
		writeAnalyticsError(w)
		return
	}

	var messages24h int64
	since := time.Now().Add(-24 * time.Hour)
	if err := database.DB.Model(&models.Message{}).
		Where("timestamp >= ?", since).Count(&messages24h).Error; err != nil {
		writeAnalyticsError(w)
		return
	}

	var anonymousUsers int64
	if err := database.DB.Model(&models.AnonymousUser{}).Count(&anonymousUsers).Error; err != nil {
		writeAnalyticsError(w)
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Platform analytics",
		Data: map[string]interface{}{
			"counselors": map[string]interface{}{
				"total":    totalCounselors,
				"verified": verifiedCounselors,
				"online":   onlineCounselors,
			},
			"sessions_by_status": sessionsByStatus,
			"crisis_sessions":    crisisSessions,
			"messages_24h":       messages24h,
			"anonymous_users":    anonymousUsers,
		},
	})
}

func writeAnalyticsError(w http.ResponseWriter) {
	utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{
		Success: false,
		Message: "Failed to compute analytics",
	})
}
