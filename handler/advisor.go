package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/Anshul-ydv/Legal-document-agentic-assistant/model"
	"github.com/Anshul-ydv/Legal-document-agentic-assistant/service"
	"github.com/gin-gonic/gin"
)

// AdvisorHandler exposes Pipeline B: payload intake, suggestion generation
// and report retrieval.
type AdvisorHandler struct {
	advisor *service.Advisor
}

func NewAdvisorHandler(advisor *service.Advisor) *AdvisorHandler {
	return &AdvisorHandler{advisor: advisor}
}

// GenerateSuggestions receives a finished analysis payload from the
// processor. Intake is idempotent per document id, so redelivery of an
// already-reported payload returns 200 without reprocessing.
func (h *AdvisorHandler) GenerateSuggestions(c *gin.Context) {
	var payload model.TransferPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid payload"})
		return
	}
	if payload.DocumentID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing document_id"})
		return
	}

	if err := h.advisor.GenerateSuggestions(c.Request.Context(), payload); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": payload.DocumentID, "status": "accepted"})
}

// GetReport returns the finished report, as JSON or rendered markdown when
// ?format=markdown is given.
func (h *AdvisorHandler) GetReport(c *gin.Context) {
	id := c.Param("id")

	report, err := h.advisor.GetReport(id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Report not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if c.Query("format") == "markdown" {
		c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(service.RenderMarkdown(*report)))
		return
	}

	c.JSON(http.StatusOK, report)
}

// Health reports liveness.
func (h *AdvisorHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now().UTC().Format(time.RFC3339)})
}
