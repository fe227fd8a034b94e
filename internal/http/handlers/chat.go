package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/classroom-backend/internal/http/response"
	"github.com/yungbote/classroom-backend/internal/platform/logger"
	"github.com/yungbote/classroom-backend/internal/services"
)

type ChatHandler struct {
	log    *logger.Logger
	access courseAccess
	chat   services.ChatService
}

func NewChatHandler(log *logger.Logger, guard services.Guard, chat services.ChatService) *ChatHandler {
	hLog := log.With("handler", "ChatHandler")
	return &ChatHandler{
		log:    hLog,
		access: courseAccess{log: hLog, guard: guard},
		chat:   chat,
	}
}

type chatCompletionRequest struct {
	Messages []services.ChatMessage `json:"messages"`
	Stream   bool                   `json:"stream"`
}

// POST /courses/:id/chat/completions
func (h *ChatHandler) Completions(c *gin.Context) {
	courseID, _, ok := h.access.require(c, services.CapEnrolled)
	if !ok {
		return
	}
	var req chatCompletionRequest
	if !bindJSON(c, &req) {
		return
	}
	out, err := h.chat.Complete(dbc(c), courseID, req.Messages)
	if err != nil {
		respondErr(c, h.log, "ChatCompletions", err)
		return
	}
	response.RespondOK(c, out)
}
