package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/chali-ug/chali-be/service"
	"github.com/chali-ug/chali-be/types"
)

// SearchHandler exposes semantic search directly. Unlike the chat
// pipeline, this endpoint does not degrade to keyword search: it is an
// explicit search tool and surfaces backend failures, under a looser
// timeout than the inline path.
type SearchHandler struct {
	semantic service.SemanticSearcher
	timeout  time.Duration
}

func NewSearchHandler(semantic service.SemanticSearcher, timeout time.Duration) *SearchHandler {
	return &SearchHandler{
		semantic: semantic,
		timeout:  timeout,
	}
}

func (h *SearchHandler) HandleSearch(c *gin.Context) {
	var req types.SemanticSearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.sendError(c, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Company == "" || req.Query == "" {
		h.sendError(c, "company and query are required", http.StatusBadRequest)
		return
	}
	if req.Limit == 0 {
		req.Limit = 5
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	chunks, err := h.semantic.Search(ctx, req.Company, req.Query, req.Limit)
	if err != nil {
		switch {
		case errors.Is(err, types.ErrBackendUnavailable):
			h.sendError(c, "No semantic index for this company", http.StatusNotFound)
		case errors.Is(err, types.ErrSearchTimeout):
			h.sendError(c, "Search timed out", http.StatusGatewayTimeout)
		default:
			h.sendError(c, "Search failed", http.StatusInternalServerError)
		}
		return
	}

	c.JSON(http.StatusOK, types.DataResponse{
		Status: "success",
		Data: types.SemanticSearchResponse{
			Company: req.Company,
			Query:   req.Query,
			Count:   len(chunks),
			Chunks:  chunks,
		},
	})
}

func (h *SearchHandler) sendError(c *gin.Context, message string, status int) {
	c.JSON(status, types.DataResponse{
		Status:  "error",
		Message: message,
	})
}
