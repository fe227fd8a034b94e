package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/classroom-backend/internal/domain/user"
	"github.com/yungbote/classroom-backend/internal/http/response"
	"github.com/yungbote/classroom-backend/internal/platform/logger"
	"github.com/yungbote/classroom-backend/internal/services"
)

// AdminSettingsHandler reads and writes the classroom feature flag. Its routes
// sit outside the feature gate so an admin can always turn the surface on.
type AdminSettingsHandler struct {
	log   *logger.Logger
	guard services.Guard
	flags services.FeatureFlagService
}

func NewAdminSettingsHandler(log *logger.Logger, guard services.Guard, flags services.FeatureFlagService) *AdminSettingsHandler {
	return &AdminSettingsHandler{
		log:   log.With("handler", "AdminSettingsHandler"),
		guard: guard,
		flags: flags,
	}
}

type classroomSettingRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

func (h *AdminSettingsHandler) requireAdmin(c *gin.Context) bool {
	p, ok := principal(c)
	if !ok {
		return false
	}
	if err := h.guard.RequireRole(p, user.CapManageUsers); err != nil {
		respondErr(c, h.log, "RequireAdmin", err)
		return false
	}
	return true
}

// GET /admin/settings/classroom
func (h *AdminSettingsHandler) GetClassroom(c *gin.Context) {
	if !h.requireAdmin(c) {
		return
	}
	setting, err := h.flags.ClassroomSetting(c.Request.Context())
	if err != nil {
		respondErr(c, h.log, "GetClassroomSetting", err)
		return
	}
	response.RespondOK(c, setting)
}

// PUT /admin/settings/classroom
func (h *AdminSettingsHandler) PutClassroom(c *gin.Context) {
	if !h.requireAdmin(c) {
		return
	}
	var req classroomSettingRequest
	if !bindJSON(c, &req) {
		return
	}
	setting, err := h.flags.SetClassroom(c.Request.Context(), *req.Enabled)
	if err != nil {
		respondErr(c, h.log, "PutClassroomSetting", err)
		return
	}
	response.RespondOK(c, setting)
}
