package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/classroom-backend/internal/http/handlers"
	httpMW "github.com/yungbote/classroom-backend/internal/http/middleware"
	"github.com/yungbote/classroom-backend/internal/observability"
	"github.com/yungbote/classroom-backend/internal/platform/logger"
	"github.com/yungbote/classroom-backend/internal/services"
)

type RouterConfig struct {
	Log            *logger.Logger
	Metrics        *observability.Metrics
	ServiceName    string
	CORSOrigins    []string
	AuthMiddleware *httpMW.AuthMiddleware
	FeatureFlags   services.FeatureFlagService

	CourseHandler     *httpH.CourseHandler
	PresetHandler     *httpH.PresetHandler
	MaterialHandler   *httpH.MaterialHandler
	AssignmentHandler *httpH.AssignmentHandler
	FeedbackHandler   *httpH.FeedbackHandler
	ChatHandler       *httpH.ChatHandler
	AdminHandler      *httpH.AdminSettingsHandler
	HealthHandler     *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics, "/healthz"))
	r.Use(httpMW.CORS(cfg.CORSOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthz", cfg.HealthHandler.HealthCheck)
	}

	api := r.Group("/api")

	// Admin settings are never gated.
	if cfg.AdminHandler != nil {
		admin := api.Group("/admin/settings")
		if cfg.AuthMiddleware != nil {
			admin.Use(cfg.AuthMiddleware.RequireAuth())
		}
		admin.GET("/classroom", cfg.AdminHandler.GetClassroom)
		admin.PUT("/classroom", cfg.AdminHandler.PutClassroom)
	}

	// The gate runs before auth so a disabled surface answers 404 to everyone.
	classroom := api.Group("/classroom")
	if cfg.FeatureFlags != nil {
		classroom.Use(httpMW.ClassroomGate(cfg.Log, cfg.FeatureFlags))
	}
	if cfg.AuthMiddleware != nil {
		classroom.Use(cfg.AuthMiddleware.RequireAuth())
	}

	// Courses
	if cfg.CourseHandler != nil {
		classroom.GET("/courses", cfg.CourseHandler.ListCourses)
		classroom.POST("/courses", cfg.CourseHandler.CreateCourse)
		classroom.GET("/courses/:id", cfg.CourseHandler.GetCourse)
		classroom.PUT("/courses/:id", cfg.CourseHandler.UpdateCourse)
		classroom.DELETE("/courses/:id", cfg.CourseHandler.DeleteCourse)
		classroom.POST("/courses/:id/activate", cfg.CourseHandler.ActivateCourse)
		classroom.POST("/courses/:id/archive", cfg.CourseHandler.ArchiveCourse)

		classroom.GET("/courses/:id/enrollments", cfg.CourseHandler.ListEnrollments)
		classroom.POST("/courses/:id/enrollments", cfg.CourseHandler.AddEnrollment)
		classroom.DELETE("/courses/:id/enrollments/:user_id", cfg.CourseHandler.RemoveEnrollment)
	}

	// Preset
	if cfg.PresetHandler != nil {
		classroom.GET("/courses/:id/preset", cfg.PresetHandler.GetPreset)
		classroom.PUT("/courses/:id/preset", cfg.PresetHandler.UpsertPreset)
		classroom.POST("/courses/:id/preset", cfg.PresetHandler.UpsertPreset)
		classroom.GET("/courses/:id/preset/template", cfg.PresetHandler.GetTemplate)
		classroom.POST("/courses/:id/preset/preview", cfg.PresetHandler.PreviewPreset)
		classroom.POST("/courses/:id/preset/set-default", cfg.PresetHandler.SetDefault)
	}

	// Materials
	if cfg.MaterialHandler != nil {
		classroom.GET("/courses/:id/materials", cfg.MaterialHandler.ListMaterials)
		classroom.POST("/courses/:id/materials", cfg.MaterialHandler.CreateMaterial)
		classroom.DELETE("/courses/:id/materials/:material_id", cfg.MaterialHandler.DeleteMaterial)
	}

	// Assignments and submissions
	if cfg.AssignmentHandler != nil {
		classroom.GET("/courses/:id/assignments", cfg.AssignmentHandler.ListAssignments)
		classroom.POST("/courses/:id/assignments", cfg.AssignmentHandler.CreateAssignment)
		classroom.GET("/assignments/:assignment_id", cfg.AssignmentHandler.GetAssignment)
		classroom.PUT("/assignments/:assignment_id", cfg.AssignmentHandler.UpdateAssignment)
		classroom.DELETE("/assignments/:assignment_id", cfg.AssignmentHandler.DeleteAssignment)
		classroom.GET("/assignments/:assignment_id/submissions", cfg.AssignmentHandler.ListSubmissions)
		classroom.POST("/assignments/:assignment_id/submissions", cfg.AssignmentHandler.CreateSubmission)
		classroom.GET("/submissions/:submission_id", cfg.AssignmentHandler.GetSubmission)
		classroom.PUT("/submissions/:submission_id", cfg.AssignmentHandler.UpdateSubmission)
		classroom.DELETE("/submissions/:submission_id", cfg.AssignmentHandler.DeleteSubmission)
	}

	// Feedback
	if cfg.FeedbackHandler != nil {
		classroom.GET("/courses/:id/feedback", cfg.FeedbackHandler.ListFeedback)
		classroom.POST("/courses/:id/feedback", cfg.FeedbackHandler.SubmitFeedback)
	}

	// Chat
	if cfg.ChatHandler != nil {
		classroom.POST("/courses/:id/chat/completions", cfg.ChatHandler.Completions)
	}

	return r
}
