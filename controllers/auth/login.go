package auth

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/anirudh-svg/Peer-Lift/middleware"
	"github.com/anirudh-svg/Peer-Lift/models"
	"github.com/anirudh-svg/Peer-Lift/utils"
)

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginHandler authenticates an account and issues an access/refresh token
// pair. Repeated failures trigger a progressive lockout.
func LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
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

	account, err := models.GetAccountByEmail(req.Email)
	if err != nil {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{
			Success: false,
			Message: "Invalid email or password",
		})
		return
	}

	if locked, remaining := middleware.IsAccountLocked(account.ID); locked {
		utils.WriteJSON(w, http.StatusTooManyRequests, utils.APIResponse{
			Success: false,
			Message: fmt.Sprintf("Account temporarily locked, try again in %d seconds", int(remaining.Seconds())+1),
		})
		return
	}

	if !account.ValidatePassword(req.Password) {
		middleware.RecordFailedLogin(account.ID)
		utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{
			Success: false,
			Message: "Invalid email or password",
		})
		return
	}

	middleware.ResetFailedLogin(account.ID)

	accessToken, err := utils.GenerateAccessToken(account.ID, account.Role)
	if err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{
			Success: false,
			Message: "Failed to issue token",
		})
		return
	}
	refreshToken, err := utils.GenerateRefreshToken(account.ID)
	if err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{
			Success: false,
			Message: "Failed to issue refresh token",
		})
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Logged in",
		Data: map[string]interface{}{
			"access_token":  accessToken,
			"refresh_token": refreshToken,
			"account":       account,
		},
	})
}
