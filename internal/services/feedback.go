package services

import (
	"strings"

	"github.com/google/uuid"

	"github.com/yungbote/classroom-backend/internal/data/repos"
	types "github.com/yungbote/classroom-backend/internal/domain"
	"github.com/yungbote/classroom-backend/internal/pkg/dbctx"
	"github.com/yungbote/classroom-backend/internal/platform/logger"
)

const maxFeedbackLen = 10000

// FeedbackEntry is a feedback row with the author's display name.
type FeedbackEntry struct {
	types.Feedback
	UserName string `json:"user_name"`
}

type FeedbackService interface {
	Submit(dbc dbctx.Context, p types.Principal, courseID uuid.UUID, content string) (*types.Feedback, error)
	List(dbc dbctx.Context, courseID uuid.UUID) ([]FeedbackEntry, error)
}

type feedbackService struct {
	log      *logger.Logger
	feedback repos.FeedbackRepo
	users    repos.UserRepo
}

func NewFeedbackService(baseLog *logger.Logger, feedback repos.FeedbackRepo, users repos.UserRepo) FeedbackService {
	return &feedbackService{
		log:      baseLog.With("service", "FeedbackService"),
		feedback: feedback,
		users:    users,
	}
}

func (s *feedbackService) Submit(dbc dbctx.Context, p types.Principal, courseID uuid.UUID, content string) (*types.Feedback, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, invalid("content is required")
	}
	if len([]rune(content)) > maxFeedbackLen {
		return nil, invalid("content must be at most %d characters", maxFeedbackLen)
	}
	return s.feedback.Create(dbc.Ctx, dbc.Tx, &types.Feedback{
		CourseID: courseID,
		UserID:   p.ID,
		Content:  content,
	})
}

// List returns the course's feedback; authors that no longer exist get "Unknown User".
func (s *feedbackService) List(dbc dbctx.Context, courseID uuid.UUID) ([]FeedbackEntry, error) {
	rows, err := s.feedback.ListByCourse(dbc.Ctx, dbc.Tx, courseID)
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.UserID)
	}
	users, err := s.users.GetByIDs(dbc.Ctx, dbc.Tx, dedupeIDs(ids))
	if err != nil {
		return nil, err
	}
	names := make(map[uuid.UUID]string, len(users))
	for _, u := range users {
		names[u.ID] = u.Name
	}

	out := make([]FeedbackEntry, 0, len(rows))
	for _, r := range rows {
		name, ok := names[r.UserID]
		if !ok {
			name = "Unknown User"
		}
		out = append(out, FeedbackEntry{Feedback: *r, UserName: name})
	}
	return out, nil
}
