package app

import (
	"gorm.io/gorm"

	apphttp "github.com/yungbote/classroom-backend/internal/http"
	httpH "github.com/yungbote/classroom-backend/internal/http/handlers"
	httpMW "github.com/yungbote/classroom-backend/internal/http/middleware"
	"github.com/yungbote/classroom-backend/internal/observability"
	"github.com/yungbote/classroom-backend/internal/platform/logger"
)

type Middleware struct {
	Auth *httpMW.AuthMiddleware
}

type Handlers struct {
	Health     *httpH.HealthHandler
	Course     *httpH.CourseHandler
	Preset     *httpH.PresetHandler
	Material   *httpH.MaterialHandler
	Assignment *httpH.AssignmentHandler
	Feedback   *httpH.FeedbackHandler
	Chat       *httpH.ChatHandler
	Admin      *httpH.AdminSettingsHandler
}

func wireHandlers(db *gorm.DB, log *logger.Logger, services Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:     httpH.NewHealthHandler(db),
		Course:     httpH.NewCourseHandler(log, services.Guard, services.Courses, services.Enrollments),
		Preset:     httpH.NewPresetHandler(log, services.Guard, services.Presets),
		Material:   httpH.NewMaterialHandler(log, services.Guard, services.Materials),
		Assignment: httpH.NewAssignmentHandler(log, services.Guard, services.Assignments),
		Feedback:   httpH.NewFeedbackHandler(log, services.Guard, services.Feedback),
		Chat:       httpH.NewChatHandler(log, services.Guard, services.Chat),
		Admin:      httpH.NewAdminSettingsHandler(log, services.Guard, services.FeatureFlags),
	}
}

func wireMiddleware(log *logger.Logger, services Services) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Auth: httpMW.NewAuthMiddleware(log, services.Auth),
	}
}

func wireServer(log *logger.Logger, cfg Config, services Services, handlers Handlers, middleware Middleware) *apphttp.Server {
	return apphttp.NewServer(apphttp.RouterConfig{
		Log:               log,
		Metrics:           observability.Current(),
		ServiceName:       cfg.ServiceName,
		CORSOrigins:       cfg.CORSOrigins,
		AuthMiddleware:    middleware.Auth,
		FeatureFlags:      services.FeatureFlags,
		CourseHandler:     handlers.Course,
		PresetHandler:     handlers.Preset,
		MaterialHandler:   handlers.Material,
		AssignmentHandler: handlers.Assignment,
		FeedbackHandler:   handlers.Feedback,
		ChatHandler:       handlers.Chat,
		AdminHandler:      handlers.Admin,
		HealthHandler:     handlers.Health,
	})
}
