package services

import (
	"strings"

	"github.com/google/uuid"

	"github.com/yungbote/classroom-backend/internal/data/repos"
	types "github.com/yungbote/classroom-backend/internal/domain"
	"github.com/yungbote/classroom-backend/internal/pkg/dbctx"
	"github.com/yungbote/classroom-backend/internal/platform/logger"
)

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionPreset is the slice of the course preset echoed back to the caller.
type CompletionPreset struct {
	Provider    *string  `json:"provider"`
	ModelID     *string  `json:"model_id"`
	Temperature *float64 `json:"temperature"`
	MaxTokens   *int     `json:"max_tokens"`
}

type ChatCompletion struct {
	ID      string           `json:"id"`
	Object  string           `json:"object"`
	Choices []PreviewChoice  `json:"choices"`
	Preset  CompletionPreset `json:"preset"`
}

// ChatService validates a completion request against the course's state and
// preset. Generation itself happens elsewhere; the response carries no choices.
type ChatService interface {
	Complete(dbc dbctx.Context, courseID uuid.UUID, messages []ChatMessage) (*ChatCompletion, error)
}

type chatService struct {
	log     *logger.Logger
	courses repos.CourseRepo
	presets repos.PresetRepo
}

func NewChatService(baseLog *logger.Logger, courses repos.CourseRepo, presets repos.PresetRepo) ChatService {
	return &chatService{
		log:     baseLog.With("service", "ChatService"),
		courses: courses,
		presets: presets,
	}
}

func (s *chatService) Complete(dbc dbctx.Context, courseID uuid.UUID, messages []ChatMessage) (*ChatCompletion, error) {
	if len(messages) == 0 {
		return nil, invalid("messages are required")
	}
	for i, m := range messages {
		if strings.TrimSpace(m.Role) == "" || strings.TrimSpace(m.Content) == "" {
			return nil, invalid("messages[%d]: role and content are required", i)
		}
	}

	course, err := s.courses.GetByID(dbc.Ctx, dbc.Tx, courseID)
	if err != nil {
		return nil, err
	}
	if course == nil {
		return nil, notFound("course")
	}
	if course.Status != types.CourseStatusActive {
		return nil, forbidden("course is not active")
	}
	preset, err := s.presets.GetByCourse(dbc.Ctx, dbc.Tx, courseID)
	if err != nil {
		return nil, err
	}
	if preset == nil {
		return nil, invalid("preset not configured")
	}

	s.log.Debug("chat completion requested", "course_id", courseID, "messages", len(messages), "model_id", preset.ModelIDValue())
	return &ChatCompletion{
		ID:      "stub",
		Object:  "chat.completion",
		Choices: []PreviewChoice{},
		Preset: CompletionPreset{
			Provider:    preset.Provider,
			ModelID:     preset.ModelID,
			Temperature: preset.Temperature,
			MaxTokens:   preset.MaxTokens,
		},
	}, nil
}
