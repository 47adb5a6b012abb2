package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"messmate/internal/meal"
)

func (h *Handler) todayAttendance(c *gin.Context) {
	rec, err := h.Attendance.Today(c.Request.Context(), caller(c).UserID, h.now())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"breakfast": rec.Breakfast, "lunch": rec.Lunch, "dinner": rec.Dinner})
}

type markRequest struct {
	Meal   string `json:"meal"`
	Amount *int64 `json:"amount"`
}

func (h *Handler) markAttendance(c *gin.Context) {
	var req markRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, badRequest("invalid request body"))
		return
	}
	userID := caller(c).UserID
	res, err := h.Attendance.Mark(c.Request.Context(), userID, req.Meal, h.now())
	if err != nil {
		h.fail(c, err)
		return
	}
	if req.Amount != nil && res.Charged && *req.Amount != res.Amount {
		h.log.Debug("client meal amount ignored",
			zap.Int64("user_id", userID),
			zap.Stringer("meal", res.Meal),
			zap.Int64("client_amount", *req.Amount),
			zap.Int64("amount", res.Amount),
		)
	}
	msg := res.Meal.String() + " attendance marked successfully"
	if res.AlreadyMarked() {
		msg = res.Meal.String() + " attendance already marked"
	}
	c.JSON(http.StatusOK, gin.H{
		"message":        msg,
		"meal":           res.Meal,
		"date":           res.Date,
		"charged":        res.Charged,
		"amount":         res.Amount,
		"already_marked": res.AlreadyMarked(),
	})
}

func (h *Handler) weeklyAttendance(c *gin.Context) {
	counts, err := h.Attendance.Weekly(c.Request.Context(), caller(c).UserID, h.now())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"weeklyData": counts})
}

func (h *Handler) nextMeal(c *gin.Context) {
	now := h.now()
	schedule := h.Attendance.Schedule()
	k, ok := schedule.NextMeal(now)
	if !ok {
		c.JSON(http.StatusOK, gin.H{"meal": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"meal":      k,
		"cutoff":    schedule.Cutoff(k).String(),
		"cutoff_at": schedule.CutoffOn(k, now),
	})
}

func (h *Handler) todayMeal(c *gin.Context) {
	items, err := h.Menu.TodayMeals(c.Request.Context(), h.now())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"mealItems": items})
}

func (h *Handler) todayStudents(c *gin.Context) {
	present, err := h.Attendance.PresentToday(c.Request.Context(), h.now())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, present)
}

func (h *Handler) emailStatus(c *gin.Context) {
	date := c.Query("date")
	if date == "" {
		date = h.Attendance.Schedule().DateKey(h.now())
	} else if _, err := time.Parse(meal.DateLayout, date); err != nil {
		h.fail(c, badRequest("date must be YYYY-MM-DD"))
		return
	}
	st, err := h.EmailStatus.Get(c.Request.Context(), date)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"date": date, "breakfast": st.Breakfast, "lunch": st.Lunch, "dinner": st.Dinner})
}
