package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/classroom-backend/internal/http/response"
	"github.com/yungbote/classroom-backend/internal/platform/logger"
	"github.com/yungbote/classroom-backend/internal/services"
)

type PresetHandler struct {
	log     *logger.Logger
	access  courseAccess
	presets services.PresetManager
}

func NewPresetHandler(log *logger.Logger, guard services.Guard, presets services.PresetManager) *PresetHandler {
	hLog := log.With("handler", "PresetHandler")
	return &PresetHandler{
		log:     hLog,
		access:  courseAccess{log: hLog, guard: guard},
		presets: presets,
	}
}

type presetPreviewRequest struct {
	Draft services.PresetInput `json:"draft"`
}

// GET /courses/:id/preset
// Answers null when the course has no preset yet.
func (h *PresetHandler) GetPreset(c *gin.Context) {
	courseID, _, ok := h.access.require(c, services.CapEnrolled)
	if !ok {
		return
	}
	preset, err := h.presets.GetByCourse(dbc(c), courseID)
	if err != nil {
		respondErr(c, h.log, "GetPreset", err)
		return
	}
	response.RespondOK(c, preset)
}

// PUT|POST /courses/:id/preset
func (h *PresetHandler) UpsertPreset(c *gin.Context) {
	courseID, _, ok := h.access.require(c, services.CapTeach)
	if !ok {
		return
	}
	var in services.PresetInput
	if !bindJSON(c, &in) {
		return
	}
	preset, err := h.presets.Upsert(dbc(c), courseID, in)
	if err != nil {
		respondErr(c, h.log, "UpsertPreset", err)
		return
	}
	response.RespondOK(c, preset)
}

// GET /courses/:id/preset/template
func (h *PresetHandler) GetTemplate(c *gin.Context) {
	if _, _, ok := h.access.require(c, services.CapTeach); !ok {
		return
	}
	response.RespondOK(c, h.presets.Template())
}

// POST /courses/:id/preset/preview
func (h *PresetHandler) PreviewPreset(c *gin.Context) {
	if _, _, ok := h.access.require(c, services.CapTeach); !ok {
		return
	}
	var req presetPreviewRequest
	if !bindJSON(c, &req) {
		return
	}
	response.RespondOK(c, h.presets.Preview(req.Draft))
}

// POST /courses/:id/preset/set-default
func (h *PresetHandler) SetDefault(c *gin.Context) {
	courseID, _, ok := h.access.require(c, services.CapTeach)
	if !ok {
		return
	}
	preset, err := h.presets.SetDefault(dbc(c), courseID)
	if err != nil {
		respondErr(c, h.log, "SetDefault", err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true, "preset": preset})
}
