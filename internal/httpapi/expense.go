package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"messmate/internal/expense"
)

func (h *Handler) expenseTotals(c *gin.Context) {
	userID, err := selfOrAdmin(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	period, err := expense.ParsePeriod(c.Query("period"))
	if err != nil {
		h.fail(c, err)
		return
	}
	totals, err := h.Expense.Totals(c.Request.Context(), userID, period, h.now())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"period":             totals.Period,
		"from":               totals.From,
		"to":                 totals.To,
		"total":              totals.Total,
		"byCategory":         totals.ByCategory,
		"recentTransactions": totals.Today,
	})
}

func (h *Handler) expenseSummary(c *gin.Context) {
	userID, err := selfOrAdmin(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	sum, err := h.Expense.Summary(c.Request.Context(), userID, h.now())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, sum)
}

func (h *Handler) addExpense(c *gin.Context) {
	var req struct {
		UserID   int64   `json:"user_id"`
		Name     string  `json:"name"`
		ItemName string  `json:"item_name"`
		Price    float64 `json:"price"`
		Category string  `json:"category"`
		Date     string  `json:"date"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, badRequest("invalid request body"))
		return
	}
	price, err := expense.Rupees(req.Price)
	if err != nil {
		h.fail(c, err)
		return
	}
	if req.Name == "" {
		req.Name = req.ItemName
	}
	claims := caller(c)
	if req.UserID == 0 {
		req.UserID = claims.UserID
	}
	if req.UserID != claims.UserID && !claims.IsAdmin() {
		h.fail(c, errForbidden)
		return
	}
	if req.Category == "" {
		req.Category = expense.CategoryExtraItems
	}
	e, err := h.Expense.Add(c.Request.Context(), expense.Entry{
		UserID:   req.UserID,
		ItemName: req.Name,
		Price:    price,
		Category: req.Category,
		Date:     req.Date,
	}, h.now())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Expense added successfully", "expenseId": e.ID})
}
