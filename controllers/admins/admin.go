package admins

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"

	"github.com/anirudh-svg/Peer-Lift/database"
	"github.com/anirudh-svg/Peer-Lift/models"
	"github.com/anirudh-svg/Peer-Lift/utils"

	"github.com/gorilla/mux"
	"gorm.io/gorm"
)

var allPermissions = []string{
	models.PermManageCounselors,
	models.PermViewAnalytics,
	models.PermManageAdmins,
}

type bootstrapRequest struct {
	Name         string `json:"name" validate:"required,nameok"`
	Email        string `json:"email" validate:"required,email"`
	Password     string `json:"password" validate:"required,pwdmin"`
	BootstrapKey string `json:"bootstrap_key"`
}

// BootstrapHandler registers an admin account. The very first admin must
// present ADMIN_BOOTSTRAP_KEY and becomes active with all permissions;
// every later registration lands in pending until approved.
func BootstrapHandler(w http.ResponseWriter, r *http.Request) {
	var req bootstrapRequest
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

	var adminCount int64
	if err := database.DB.Model(&models.Admin{}).Count(&adminCount).Error; err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{
			Success: false,
			Message: "Database error",
		})
		return
	}

	first := adminCount == 0
	if first {
		key := os.Getenv("ADMIN_BOOTSTRAP_KEY")
		if key == "" || req.BootstrapKey != key {
			utils.WriteJSON(w, http.StatusForbidden, utils.APIResponse{
				Success: false,
				Message: "Invalid bootstrap key",
			})
			return
		}
	}

	var existing models.Account
	err := database.DB.Where("email = ?", req.Email).First(&existing).Error
	if err == nil {
		utils.WriteJSON(w, http.StatusConflict, utils.APIResponse{
			Success: false,
			Message: "Registration failed",
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

	var admin models.Admin
	err = database.DB.Transaction(func(tx *gorm.DB) error {
		account := models.Account{
			Name:     req.Name,
			Email:    req.Email,
			Password: req.Password,
			Role:     "admin",
			IsActive: true,
		}
		if err := account.HashPassword(); err != nil {
			return err
		}
		if err := tx.Create(&account).Error; err != nil {
			return err
		}

		admin = models.Admin{
			AccountID: account.ID,
			Status:    models.AdminPending,
		}
		if first {
			admin.Status = models.AdminActive
			admin.Permissions = allPermissions
		}
		return tx.Create(&admin).Error
	})
	if err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{
			Success: false,
			Message: "Failed to create admin",
		})
		return
	}

	msg := "Admin registration pending approval"
	if first {
		msg = "Bootstrap admin created"
	}
	utils.WriteJSON(w, http.StatusCreated, utils.APIResponse{
		Success: true,
		Message: msg,
		Data:    admin,
	})
}

// requireAdminWithPermission loads the acting admin from the context and
// checks one permission. Returns nil after writing the error response.
func requireAdminWithPermission(w http.ResponseWriter, r *http.Request, perm string) *models.Admin {
	accountID, ok := utils.GetAccountID(r)
	if !ok {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{Success: false, Message: "Unauthorized"})
		return nil
	}
	admin, err := models.GetAdminByAccountID(database.DB, accountID)
	if err != nil {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{Success: false, Message: "Unauthorized"})
		return nil
	}
	if !admin.HasPermission(perm) {
		utils.WriteJSON(w, http.StatusForbidden, utils.APIResponse{
			Success: false,
			Message: "Missing permission: " + perm,
		})
		return nil
	}
	return admin
}

// PendingAdminsHandler lists admins awaiting approval.
func PendingAdminsHandler(w http.ResponseWriter, r *http.Request) {
	if requireAdminWithPermission(w, r, models.PermManageAdmins) == nil {
		return
	}

	var pending []models.Admin
	if err := database.DB.Preload("Account").
		Where("status = ?", models.AdminPending).
		Find(&pending).Error; err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{
			Success: false,
			Message: "Failed to load pending admins",
		})
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Pending admins",
		Data:    pending,
	})
}

type approveAdminRequest struct {
	Permissions []string `json:"permissions"`
}

// ApproveAdminHandler activates a pending admin with the granted permissions.
func ApproveAdminHandler(w http.ResponseWriter, r *http.Request) {
	if requireAdminWithPermission(w, r, models.PermManageAdmins) == nil {
		return
	}

	idStr := mux.Vars(r)["id"]
	var target models.Admin
	if err := database.DB.First(&target, "id = ?", idStr).Error; err != nil {
		utils.WriteJSON(w, http.StatusNotFound, utils.APIResponse{
			Success: false,
			Message: "Admin not found",
		})
		return
	}
	if target.Status == models.AdminActive {
		utils.WriteJSON(w, http.StatusConflict, utils.APIResponse{
			Success: false,
			Message: "Admin already active",
		})
		return
	}

	var req approveAdminRequest
	_ = json.NewDecoder(r.Body).Decode(&req)
	perms := req.Permissions
	if len(perms) == 0 {
		perms = []string{models.PermManageCounselors, models.PermViewAnalytics}
	}
	for _, p := range perms {
		valid := false
		for _, known := range allPermissions {
			if p == known {
				valid = true
				break
			}
		}
		if !valid {
			utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{
				Success: false,
				Message: "Unknown permission: " + p,
			})
			return
		}
	}

	if err := database.DB.Model(&target).Updates(map[string]interface{}{
		"status":      models.AdminActive,
		"permissions": perms,
	}).Error; err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{
			Success: false,
			Message: "Failed to approve admin",
		})
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Admin approved",
	})
}
