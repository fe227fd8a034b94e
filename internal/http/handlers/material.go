package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/classroom-backend/internal/http/response"
	"github.com/yungbote/classroom-backend/internal/platform/logger"
	"github.com/yungbote/classroom-backend/internal/services"
)

type MaterialHandler struct {
	log       *logger.Logger
	access    courseAccess
	materials services.MaterialService
}

func NewMaterialHandler(log *logger.Logger, guard services.Guard, materials services.MaterialService) *MaterialHandler {
	hLog := log.With("handler", "MaterialHandler")
	return &MaterialHandler{
		log:       hLog,
		access:    courseAccess{log: hLog, guard: guard},
		materials: materials,
	}
}

type createMaterialRequest struct {
	Kind        string         `json:"kind" binding:"required,material_kind"`
	Title       string         `json:"title"`
	URIOrBlobID string         `json:"uri_or_blob_id"`
	Meta        map[string]any `json:"meta_json"`
}

// GET /courses/:id/materials
func (h *MaterialHandler) ListMaterials(c *gin.Context) {
	courseID, _, ok := h.access.require(c, services.CapEnrolled)
	if !ok {
		return
	}
	rows, err := h.materials.List(dbc(c), courseID)
	if err != nil {
		respondErr(c, h.log, "ListMaterials", err)
		return
	}
	response.RespondOK(c, rows)
}

// POST /courses/:id/materials
// Doc materials are ingested before the response is written; an ingestion
// failure is recorded on the row and reported as a 400.
func (h *MaterialHandler) CreateMaterial(c *gin.Context) {
	courseID, _, ok := h.access.require(c, services.CapTeach)
	if !ok {
		return
	}
	var req createMaterialRequest
	if !bindJSON(c, &req) {
		return
	}
	m, err := h.materials.Create(dbc(c), courseID, services.CreateMaterialInput{
		Kind:        req.Kind,
		Title:       req.Title,
		URIOrBlobID: req.URIOrBlobID,
		Meta:        req.Meta,
	})
	if err != nil {
		if m != nil {
			h.log.Warn("material saved but ingestion failed", "material_id", m.ID, "course_id", courseID, "error", err)
		}
		respondErr(c, h.log, "CreateMaterial", err)
		return
	}
	response.RespondOK(c, m)
}

// DELETE /courses/:id/materials/:material_id
func (h *MaterialHandler) DeleteMaterial(c *gin.Context) {
	courseID, _, ok := h.access.require(c, services.CapTeach)
	if !ok {
		return
	}
	materialID, ok := uuidParam(c, "material_id")
	if !ok {
		return
	}
	if err := h.materials.Delete(dbc(c), courseID, materialID); err != nil {
		respondErr(c, h.log, "DeleteMaterial", err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}
