package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *Handler) submitFeedback(c *gin.Context) {
	var req struct {
		Category string `json:"category"`
		Stars    int    `json:"stars"`
		Comment  string `json:"comment"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, badRequest("invalid request body"))
		return
	}
	f, err := h.Feedback.Submit(c.Request.Context(), caller(c).UserID, req.Category, req.Stars, req.Comment)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Feedback submitted successfully", "feedback_id": f.ID})
}

func (h *Handler) userFeedback(c *gin.Context) {
	list, err := h.Feedback.Mine(c.Request.Context(), caller(c).UserID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"feedback": list})
}

func (h *Handler) pendingFeedback(c *gin.Context) {
	list, err := h.Feedback.Pending(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"feedback": list})
}

func (h *Handler) updateFeedbackStatus(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		h.fail(c, err)
		return
	}
	var req struct {
		Status string `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, badRequest("invalid request body"))
		return
	}
	if err := h.Feedback.SetStatus(c.Request.Context(), id, req.Status); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Status updated", "feedback_id": id, "status": req.Status})
}
