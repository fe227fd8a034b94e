package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/classroom-backend/internal/domain/classroom"
	"github.com/yungbote/classroom-backend/internal/http/response"
	"github.com/yungbote/classroom-backend/internal/platform/logger"
	"github.com/yungbote/classroom-backend/internal/services"
)

type CourseHandler struct {
	log         *logger.Logger
	access      courseAccess
	courses     services.CourseService
	enrollments services.EnrollmentService
}

func NewCourseHandler(log *logger.Logger, guard services.Guard, courses services.CourseService, enrollments services.EnrollmentService) *CourseHandler {
	hLog := log.With("handler", "CourseHandler")
	return &CourseHandler{
		log:         hLog,
		access:      courseAccess{log: hLog, guard: guard},
		courses:     courses,
		enrollments: enrollments,
	}
}

type createCourseRequest struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Meta        map[string]any `json:"meta"`
	BaseModelID string         `json:"base_model_id"`
	FileIDs     []uuid.UUID    `json:"file_ids"`
}

type updateCourseRequest struct {
	Title       *string        `json:"title"`
	Description *string        `json:"description"`
	Status      *string        `json:"status" binding:"omitempty,course_status"`
	Meta        map[string]any `json:"meta"`
}

type enrollmentRequest struct {
	UserID    uuid.UUID `json:"user_id" binding:"required"`
	IsTeacher bool      `json:"is_teacher"`
}

// GET /courses
func (h *CourseHandler) ListCourses(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	courses, err := h.courses.List(dbc(c), p)
	if err != nil {
		respondErr(c, h.log, "ListCourses", err)
		return
	}
	response.RespondOK(c, courses)
}

// POST /courses
func (h *CourseHandler) CreateCourse(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var req createCourseRequest
	if !bindJSON(c, &req) {
		return
	}
	if !checkVisibility(c, req.Meta) {
		return
	}
	course, err := h.courses.Create(dbc(c), p, services.CreateCourseInput{
		Title:       req.Title,
		Description: req.Description,
		Meta:        req.Meta,
		BaseModelID: req.BaseModelID,
		FileIDs:     req.FileIDs,
	})
	if err != nil {
		respondErr(c, h.log, "CreateCourse", err)
		return
	}
	response.RespondOK(c, course)
}

// GET /courses/:id
func (h *CourseHandler) GetCourse(c *gin.Context) {
	courseID, _, ok := h.access.require(c, services.CapEnrolled)
	if !ok {
		return
	}
	course, err := h.courses.Get(dbc(c), courseID)
	if err != nil {
		respondErr(c, h.log, "GetCourse", err)
		return
	}
	response.RespondOK(c, course)
}

// PUT /courses/:id
func (h *CourseHandler) UpdateCourse(c *gin.Context) {
	courseID, p, ok := h.access.require(c, services.CapTeach)
	if !ok {
		return
	}
	var req updateCourseRequest
	if !bindJSON(c, &req) {
		return
	}
	if !checkVisibility(c, req.Meta) {
		return
	}
	course, err := h.courses.Update(dbc(c), p, courseID, services.UpdateCourseInput{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Meta:        req.Meta,
	})
	if err != nil {
		respondErr(c, h.log, "UpdateCourse", err)
		return
	}
	response.RespondOK(c, course)
}

// DELETE /courses/:id
func (h *CourseHandler) DeleteCourse(c *gin.Context) {
	courseID, _, ok := h.access.require(c, services.CapTeach)
	if !ok {
		return
	}
	if err := h.courses.Delete(dbc(c), courseID); err != nil {
		respondErr(c, h.log, "DeleteCourse", err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

// POST /courses/:id/activate
func (h *CourseHandler) ActivateCourse(c *gin.Context) {
	courseID, p, ok := h.access.require(c, services.CapTeach)
	if !ok {
		return
	}
	status, err := h.courses.Activate(dbc(c), p, courseID)
	if err != nil {
		respondErr(c, h.log, "ActivateCourse", err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true, "status": status})
}

// POST /courses/:id/archive
func (h *CourseHandler) ArchiveCourse(c *gin.Context) {
	courseID, _, ok := h.access.require(c, services.CapTeach)
	if !ok {
		return
	}
	status, err := h.courses.Archive(dbc(c), courseID)
	if err != nil {
		respondErr(c, h.log, "ArchiveCourse", err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true, "status": status})
}

// GET /courses/:id/enrollments
func (h *CourseHandler) ListEnrollments(c *gin.Context) {
	courseID, _, ok := h.access.require(c, services.CapTeach)
	if !ok {
		return
	}
	rows, err := h.enrollments.List(dbc(c), courseID)
	if err != nil {
		respondErr(c, h.log, "ListEnrollments", err)
		return
	}
	response.RespondOK(c, rows)
}

// POST /courses/:id/enrollments
func (h *CourseHandler) AddEnrollment(c *gin.Context) {
	courseID, _, ok := h.access.require(c, services.CapTeach)
	if !ok {
		return
	}
	var req enrollmentRequest
	if !bindJSON(c, &req) {
		return
	}
	e, err := h.enrollments.Add(dbc(c), courseID, req.UserID, req.IsTeacher)
	if err != nil {
		respondErr(c, h.log, "AddEnrollment", err)
		return
	}
	response.RespondOK(c, e)
}

// DELETE /courses/:id/enrollments/:user_id
func (h *CourseHandler) RemoveEnrollment(c *gin.Context) {
	courseID, _, ok := h.access.require(c, services.CapTeach)
	if !ok {
		return
	}
	userID, ok := uuidParam(c, "user_id")
	if !ok {
		return
	}
	if err := h.enrollments.Remove(dbc(c), courseID, userID); err != nil {
		respondErr(c, h.log, "RemoveEnrollment", err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

func checkVisibility(c *gin.Context, meta map[string]any) bool {
	raw, present := meta[classroom.MetaVisibility]
	if !present || raw == nil {
		return true
	}
	if validateValue(raw, visibilityTag) != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request",
			errors.New("meta.visibility must be private or public"))
		return false
	}
	return true
}
