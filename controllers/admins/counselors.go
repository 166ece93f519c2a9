package admins

import (
	"net/http"

	"github.com/anirudh-svg/Peer-Lift/database"
	"github.com/anirudh-svg/Peer-Lift/models"
	"github.com/anirudh-svg/Peer-Lift/utils"

	"github.com/gorilla/mux"
)

// ListCounselorsHandler returns all counselor profiles with account details.
func ListCounselorsHandler(w http.ResponseWriter, r *http.Request) {
	if requireAdminWithPermission(w, r, models.PermManageCounselors) == nil {
		return
	}

	var counselors []models.Counselor
	if err := database.DB.Preload("Account").
		Order("created_at DESC").
		Find(&counselors).Error; err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{
			Success: false,
			Message: "Failed to load counselors",
		})
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Counselors",
		Data:    counselors,
	})
}

// VerificationDocumentURLHandler returns a short-lived presigned URL for a
// counselor's verification document.
func VerificationDocumentURLHandler(w http.ResponseWriter, r *http.Request) {
	if requireAdminWithPermission(w, r, models.PermManageCounselors) == nil {
		return
	}

	idStr := mux.Vars(r)["id"]
	var counselor models.Counselor
	if err := database.DB.First(&counselor, "id = ?", idStr).Error; err != nil {
		utils.WriteJSON(w, http.StatusNotFound, utils.APIResponse{
			Success: false,
			Message: "Counselor not found",
		})
		return
	}
	if utils.GetStringValue(counselor.VerificationDocument) == "" {
		utils.WriteJSON(w, http.StatusNotFound, utils.APIResponse{
			Success: false,
			Message: "No verification document on file",
		})
		return
	}

	url, err := utils.GenerateSignedURL(*counselor.VerificationDocument, 600)
	if err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{
			Success: false,
			Message: "Failed to sign document URL",
		})
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Document URL",
		Data:    map[string]interface{}{"url": url},
	})
}

// VerifyCounselorHandler marks a counselor as verified.
func VerifyCounselorHandler(w http.ResponseWriter, r *http.Request) {
	if requireAdminWithPermission(w, r, models.PermManageCounselors) == nil {
		return
	}

	idStr := mux.Vars(r)["id"]
	var counselor models.Counselor
	if err := database.DB.First(&counselor, "id = ?", idStr).Error; err != nil {
		utils.WriteJSON(w, http.StatusNotFound, utils.APIResponse{
			Success: false,
			Message: "Counselor not found",
		})
		return
	}

	if err := database.DB.Model(&counselor).Update("is_verified", true).Error; err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{
			Success: false,
			Message: "Failed to verify counselor",
		})
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Counselor verified",
	})
}

// RejectCounselorHandler deletes a counselor profile and its stored
// verification document. The underlying account stays intact.
func RejectCounselorHandler(w http.ResponseWriter, r *http.Request) {
	if requireAdminWithPermission(w, r, models.PermManageCounselors) == nil {
		return
	}

	idStr := mux.Vars(r)["id"]
	var counselor models.Counselor
	if err := database.DB.First(&counselor, "id = ?", idStr).Error; err != nil {
		utils.WriteJSON(w, http.StatusNotFound, utils.APIResponse{
			Success: false,
			Message: "Counselor not found",
		})
		return
	}

	if counselor.VerificationDocument != nil && *counselor.VerificationDocument != "" {
		// Best-effort cleanup; a dangling object is harmless
		_ = utils.DeleteFromS3(*counselor.VerificationDocument)
	}

	if err := database.DB.Delete(&counselor).Error; err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{
			Success: false,
			Message: "Failed to remove counselor",
		})
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Counselor removed",
	})
}
