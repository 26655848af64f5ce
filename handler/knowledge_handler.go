package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/chali-ug/chali-be/service"
	"github.com/chali-ug/chali-be/types"
)

// KnowledgeHandler gives the frontend its source of truth for which
// support agents exist and what their knowledge bases hold.
type KnowledgeHandler struct {
	knowledge *service.KnowledgeService
}

func NewKnowledgeHandler(knowledge *service.KnowledgeService) *KnowledgeHandler {
	return &KnowledgeHandler{
		knowledge: knowledge,
	}
}

func (h *KnowledgeHandler) HandleListCompanies(c *gin.Context) {
	c.JSON(http.StatusOK, types.DataResponse{
		Status: "success",
		Data:   h.knowledge.Companies(),
	})
}

func (h *KnowledgeHandler) HandleKnowledgeSummary(c *gin.Context) {
	company := c.Param("company")
	doc, err := h.knowledge.Load(c.Request.Context(), company)
	if err != nil {
		c.JSON(http.StatusNotFound, types.DataResponse{
			Status:  "error",
			Message: "No knowledge base for company",
		})
		return
	}

	names := make([]string, 0, len(doc.Entries))
	for _, entry := range doc.Entries {
		names = append(names, entry.Name)
	}
	c.JSON(http.StatusOK, types.DataResponse{
		Status: "success",
		Data: types.KnowledgeSummary{
			Company:     doc.Company,
			LastUpdated: doc.LastUpdated,
			EntryCount:  len(doc.Entries),
			EntryNames:  names,
		},
	})
}
