package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/classroom-backend/internal/http/response"
	"github.com/yungbote/classroom-backend/internal/platform/logger"
	"github.com/yungbote/classroom-backend/internal/services"
)

type FeedbackHandler struct {
	log      *logger.Logger
	access   courseAccess
	feedback services.FeedbackService
}

func NewFeedbackHandler(log *logger.Logger, guard services.Guard, feedback services.FeedbackService) *FeedbackHandler {
	hLog := log.With("handler", "FeedbackHandler")
	return &FeedbackHandler{
		log:      hLog,
		access:   courseAccess{log: hLog, guard: guard},
		feedback: feedback,
	}
}

type feedbackRequest struct {
	Content string `json:"content"`
}

// POST /courses/:id/feedback
func (h *FeedbackHandler) SubmitFeedback(c *gin.Context) {
	courseID, p, ok := h.access.require(c, services.CapEnrolled)
	if !ok {
		return
	}
	var req feedbackRequest
	if !bindJSON(c, &req) {
		return
	}
	fb, err := h.feedback.Submit(dbc(c), p, courseID, req.Content)
	if err != nil {
		respondErr(c, h.log, "SubmitFeedback", err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true, "id": fb.ID})
}

// GET /courses/:id/feedback
func (h *FeedbackHandler) ListFeedback(c *gin.Context) {
	courseID, _, ok := h.access.require(c, services.CapTeach)
	if !ok {
		return
	}
	entries, err := h.feedback.List(dbc(c), courseID)
	if err != nil {
		respondErr(c, h.log, "ListFeedback", err)
		return
	}
	response.RespondOK(c, entries)
}
