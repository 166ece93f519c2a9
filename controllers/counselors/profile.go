package counselors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/anirudh-svg/Peer-Lift/database"
	"github.com/anirudh-svg/Peer-Lift/models"
	"github.com/anirudh-svg/Peer-Lift/utils"

	"gorm.io/gorm"
)

type createProfileRequest struct {
	NGOName         string   `json:"ngo_name" validate:"required,nameok"`
	Specializations []string `json:"specializations"`
}

type onlineStatusRequest struct {
	IsOnline bool `json:"is_online"`
}

// CreateProfileHandler creates the counselor profile for the authenticated
// account. Profiles start unverified; an admin must verify before the
// counselor can claim sessions.
func CreateProfileHandler(w http.ResponseWriter, r *http.Request) {
	accountID, ok := utils.GetAccountID(r)
	if !ok {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{Success: false, Message: "Unauthorized"})
		return
	}

	var req createProfileRequest
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

	if _, err := models.GetCounselorByAccountID(database.DB, accountID); err == nil {
		utils.WriteJSON(w, http.StatusConflict, utils.APIResponse{
			Success: false,
			Message: "Counselor profile already exists",
		})
		return
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{
			Success: false,
			Message: "Database error",
		})
		return
	}

	counselor := models.Counselor{
		AccountID:             accountID,
		NGOName:               req.NGOName,
		Specializations:       req.Specializations,
		IsVerified:            false,
		IsOnline:              false,
		MaxConcurrentSessions: models.DefaultMaxConcurrentSessions,
	}
	if err := database.DB.Create(&counselor).Error; err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{
			Success: false,
			Message: "Failed to create counselor profile",
		})
		return
	}

	utils.WriteJSON(w, http.StatusCreated, utils.APIResponse{
		Success: true,
		Message: "Counselor profile created, pending verification",
		Data:    counselor,
	})
}

// GetProfileHandler returns the authenticated counselor's profile with the
// derived active session count.
func GetProfileHandler(w http.ResponseWriter, r *http.Request) {
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

	active, err := counselor.ActiveSessionCount(database.DB)
	if err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{
			Success: false,
			Message: "Database error",
		})
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Counselor profile",
		Data: map[string]interface{}{
			"profile":         counselor,
			"active_sessions": active,
		},
	})
}

// UpdateOnlineStatusHandler flips the counselor's availability flag.
func UpdateOnlineStatusHandler(w http.ResponseWriter, r *http.Request) {
	accountID, ok := utils.GetAccountID(r)
	if !ok {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{Success: false, Message: "Unauthorized"})
		return
	}

	var req onlineStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{
			Success: false,
			Message: "Invalid request body",
		})
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

	if err := database.DB.Model(counselor).Update("is_online", req.IsOnline).Error; err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{
			Success: false,
			Message: "Failed to update status",
		})
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Status updated",
		Data:    map[string]interface{}{"is_online": req.IsOnline},
	})
}

// UploadVerificationDocumentHandler accepts a multipart document upload,
// stores it in object storage and records the key on the profile.
func UploadVerificationDocumentHandler(w http.ResponseWriter, r *http.Request) {
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

	file, header, err := r.FormFile("document")
	if err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{
			Success: false,
			Message: "document file is required",
		})
		return
	}
	defer file.Close()

	ext := strings.ToLower(path.Ext(header.Filename))
	switch ext {
	case ".pdf", ".png", ".jpg", ".jpeg":
	default:
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{
			Success: false,
			Message: "Unsupported document type",
		})
		return
	}

	objectName := fmt.Sprintf("verification/%d/%d%s", counselor.ID, time.Now().Unix(), ext)
	if err := utils.UploadToS3(objectName, file); err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{
			Success: false,
			Message: "Failed to store document",
		})
		return
	}

	if err := database.DB.Model(counselor).
		Update("verification_document", objectName).Error; err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{
			Success: false,
			Message: "Failed to record document",
		})
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Verification document uploaded",
		Data:    map[string]interface{}{"document": objectName},
	})
}
