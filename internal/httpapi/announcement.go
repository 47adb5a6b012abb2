package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type announcementRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

func (h *Handler) listAnnouncements(c *gin.Context) {
	list, err := h.Announcements.List(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) createAnnouncement(c *gin.Context) {
	var req announcementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, badRequest("invalid request body"))
		return
	}
	a, err := h.Announcements.Create(c.Request.Context(), req.Title, req.Content)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, a)
}

func (h *Handler) updateAnnouncement(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		h.fail(c, err)
		return
	}
	var req announcementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, badRequest("invalid request body"))
		return
	}
	a, err := h.Announcements.Update(c.Request.Context(), id, req.Title, req.Content)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

func (h *Handler) deleteAnnouncement(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		h.fail(c, err)
		return
	}
	if err := h.Announcements.Delete(c.Request.Context(), id); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Announcement deleted successfully"})
}
