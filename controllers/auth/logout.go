package auth

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/anirudh-svg/Peer-Lift/database"
	"github.com/anirudh-svg/Peer-Lift/models"
	"github.com/anirudh-svg/Peer-Lift/utils"
)

type logoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// LogoutHandler revokes the presented refresh token and blacklists the jti
// of the access token used on the request.
func LogoutHandler(w http.ResponseWriter, r *http.Request) {
	var req logoutRequest
	_ = json.NewDecoder(r.Body).Decode(&req)

	if req.RefreshToken != "" {
		if err := database.DB.Model(&models.RefreshToken{}).
			Where("id = ?", req.RefreshToken).
			Update("revoked", true).Error; err != nil {
			utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{
				Success: false,
				Message: "Failed to revoke refresh token",
			})
			return
		}
	}

	// Blacklist the access token's jti for the remainder of its lifetime
	authz := r.Header.Get("Authorization")
	if strings.HasPrefix(authz, "Bearer ") {
		tokenStr := strings.TrimSpace(strings.TrimPrefix(authz, "Bearer "))
		if _, claims, err := utils.ValidateAccessToken(tokenStr); err == nil {
			jti, _ := claims["jti"].(string)
			ttl := 15 * time.Minute
			if expRaw, ok := claims["exp"].(float64); ok {
				if until := time.Until(time.Unix(int64(expRaw), 0)); until > 0 {
					ttl = until
				}
			}
			if jti != "" {
				_ = utils.RevokeJTI(jti, ttl)
			}
		}
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Logged out",
	})
}
