package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/classroom-backend/internal/http/response"
	"github.com/yungbote/classroom-backend/internal/platform/logger"
	"github.com/yungbote/classroom-backend/internal/services"
)

// AssignmentHandler serves assignments and their submissions. Course-scoped
// routes are checked here; routes addressed by assignment or submission id
// are checked by the service once the owning course is known.
type AssignmentHandler struct {
	log         *logger.Logger
	access      courseAccess
	assignments services.AssignmentService
}

func NewAssignmentHandler(log *logger.Logger, guard services.Guard, assignments services.AssignmentService) *AssignmentHandler {
	hLog := log.With("handler", "AssignmentHandler")
	return &AssignmentHandler{
		log:         hLog,
		access:      courseAccess{log: hLog, guard: guard},
		assignments: assignments,
	}
}

type submissionRequest struct {
	Text   *string        `json:"text"`
	Files  map[string]any `json:"files_json"`
	Status *string        `json:"status" binding:"omitempty,submission_status"`
	Grade  map[string]any `json:"grade_json"`
}

func (r submissionRequest) input() services.SubmissionInput {
	return services.SubmissionInput{Text: r.Text, Files: r.Files, Status: r.Status, Grade: r.Grade}
}

// GET /courses/:id/assignments
func (h *AssignmentHandler) ListAssignments(c *gin.Context) {
	courseID, _, ok := h.access.require(c, services.CapEnrolled)
	if !ok {
		return
	}
	rows, err := h.assignments.List(dbc(c), courseID)
	if err != nil {
		respondErr(c, h.log, "ListAssignments", err)
		return
	}
	response.RespondOK(c, rows)
}

// POST /courses/:id/assignments
func (h *AssignmentHandler) CreateAssignment(c *gin.Context) {
	courseID, _, ok := h.access.require(c, services.CapTeach)
	if !ok {
		return
	}
	var in services.AssignmentInput
	if !bindJSON(c, &in) {
		return
	}
	a, err := h.assignments.Create(dbc(c), courseID, in)
	if err != nil {
		respondErr(c, h.log, "CreateAssignment", err)
		return
	}
	response.RespondOK(c, a)
}

// GET /assignments/:assignment_id
func (h *AssignmentHandler) GetAssignment(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "assignment_id")
	if !ok {
		return
	}
	a, err := h.assignments.Get(dbc(c), p, id)
	if err != nil {
		respondErr(c, h.log, "GetAssignment", err)
		return
	}
	response.RespondOK(c, a)
}

// PUT /assignments/:assignment_id
func (h *AssignmentHandler) UpdateAssignment(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "assignment_id")
	if !ok {
		return
	}
	var in services.AssignmentInput
	if !bindJSON(c, &in) {
		return
	}
	a, err := h.assignments.Update(dbc(c), p, id, in)
	if err != nil {
		respondErr(c, h.log, "UpdateAssignment", err)
		return
	}
	response.RespondOK(c, a)
}

// DELETE /assignments/:assignment_id
func (h *AssignmentHandler) DeleteAssignment(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "assignment_id")
	if !ok {
		return
	}
	if err := h.assignments.Delete(dbc(c), p, id); err != nil {
		respondErr(c, h.log, "DeleteAssignment", err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

// GET /assignments/:assignment_id/submissions
func (h *AssignmentHandler) ListSubmissions(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "assignment_id")
	if !ok {
		return
	}
	rows, err := h.assignments.ListSubmissions(dbc(c), p, id)
	if err != nil {
		respondErr(c, h.log, "ListSubmissions", err)
		return
	}
	response.RespondOK(c, rows)
}

// POST /assignments/:assignment_id/submissions
func (h *AssignmentHandler) CreateSubmission(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "assignment_id")
	if !ok {
		return
	}
	var req submissionRequest
	if !bindJSON(c, &req) {
		return
	}
	sub, err := h.assignments.Submit(dbc(c), p, id, req.input())
	if err != nil {
		respondErr(c, h.log, "CreateSubmission", err)
		return
	}
	response.RespondOK(c, sub)
}

// GET /submissions/:submission_id
func (h *AssignmentHandler) GetSubmission(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "submission_id")
	if !ok {
		return
	}
	sub, err := h.assignments.GetSubmission(dbc(c), p, id)
	if err != nil {
		respondErr(c, h.log, "GetSubmission", err)
		return
	}
	response.RespondOK(c, sub)
}

// PUT /submissions/:submission_id
func (h *AssignmentHandler) UpdateSubmission(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "submission_id")
	if !ok {
		return
	}
	var req submissionRequest
	if !bindJSON(c, &req) {
		return
	}
	sub, err := h.assignments.UpdateSubmission(dbc(c), p, id, req.input())
	if err != nil {
		respondErr(c, h.log, "UpdateSubmission", err)
		return
	}
	response.RespondOK(c, sub)
}

// DELETE /submissions/:submission_id
func (h *AssignmentHandler) DeleteSubmission(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "submission_id")
	if !ok {
		return
	}
	if err := h.assignments.DeleteSubmission(dbc(c), p, id); err != nil {
		respondErr(c, h.log, "DeleteSubmission", err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}
