package auth

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/anirudh-svg/Peer-Lift/database"
	"github.com/anirudh-svg/Peer-Lift/models"
	"github.com/anirudh-svg/Peer-Lift/utils"

	"gorm.io/gorm"
)

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// RefreshHandler rotates a refresh token: the presented token is revoked and
// a fresh pair is issued in the same transaction.
func RefreshHandler(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RefreshToken == "" {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{
			Success: false,
			Message: "refresh_token is required",
		})
		return
	}

	rt, err := utils.ValidateRefreshToken(req.RefreshToken)
	if err != nil {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{
			Success: false,
			Message: "Invalid refresh token",
		})
		return
	}

	var account models.Account
	if err := database.DB.First(&account, rt.AccountID).Error; err != nil || !account.IsActive {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{
			Success: false,
			Message: "Account not available",
		})
		return
	}

	var newRefresh *models.RefreshToken
	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.RefreshToken{}).
			Where("id = ?", rt.ID).
			Update("revoked", true).Error; err != nil {
			return err
		}
		nrt, err := models.NewRefreshToken(account.ID, 7)
		if err != nil {
			return err
		}
		if err := tx.Create(nrt).Error; err != nil {
			return err
		}
		newRefresh = nrt
		return nil
	})
	if err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{
			Success: false,
			Message: "Failed to rotate refresh token",
		})
		return
	}

	accessToken, err := utils.GenerateAccessTokenWithExpiry(account.ID, account.Role, 15*time.Minute)
	if err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{
			Success: false,
			Message: "Failed to issue token",
		})
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Token refreshed",
		Data: map[string]interface{}{
			"access_token":  accessToken,
			"refresh_token": newRefresh.ID,
		},
	})
}
