package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/chali-ug/chali-be/service"
	"github.com/chali-ug/chali-be/types"
)

type ChatHandler struct {
	orchestrator *service.Orchestrator
}

func NewChatHandler(orchestrator *service.Orchestrator) *ChatHandler {
	return &ChatHandler{
		orchestrator: orchestrator,
	}
}

// HandleChat runs one message through the response pipeline. Errors are
// always returned as the structured response shape with an error kind, so
// the frontend can choose retry affordances without seeing backend detail.
func (h *ChatHandler) HandleChat(c *gin.Context) {
	var req types.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.sendError(c, types.NewPipelineError(types.ErrKindClientInput, "invalid request body", err))
		return
	}

	resp, err := h.orchestrator.Respond(c.Request.Context(), &req)
	if err != nil {
		h.sendError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ChatHandler) sendError(c *gin.Context, err error) {
	kind := types.KindOf(err)
	c.JSON(statusForKind(kind), types.ChatResponse{
		Response:     service.UserFacingMessage(err),
		QuickReplies: []string{"Contact support"},
		Source:       types.SourceFallback,
		Error:        string(kind),
	})
}

func statusForKind(kind types.ErrorKind) int {
	switch kind {
	case types.ErrKindClientInput:
		return http.StatusBadRequest
	case types.ErrKindConfiguration:
		return http.StatusNotFound
	case types.ErrKindGenerationTimeout, types.ErrKindGenerationRateLimit:
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadGateway
	}
}
