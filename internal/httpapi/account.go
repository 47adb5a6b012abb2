package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *Handler) verifyEmail(c *gin.Context) {
	var req struct {
		Email string `json:"email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, badRequest("invalid request body"))
		return
	}
	if err := h.Accounts.RequestOTP(c.Request.Context(), req.Email); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "OTP sent to your email"})
}

func (h *Handler) verifyOTP(c *gin.Context) {
	var req struct {
		Email string `json:"email"`
		OTP   string `json:"otp"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, badRequest("invalid request body"))
		return
	}
	if err := h.Accounts.VerifyOTP(c.Request.Context(), req.Email, req.OTP); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Email verified successfully"})
}

func (h *Handler) signup(c *gin.Context) {
	var req struct {
		FullName string `json:"full_name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, badRequest("invalid request body"))
		return
	}
	u, err := h.Accounts.Signup(c.Request.Context(), req.FullName, req.Email, req.Password)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "User registered successfully", "user": u})
}

func (h *Handler) login(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Email == "" || req.Password == "" {
		h.fail(c, badRequest("email and password required"))
		return
	}
	res, err := h.Accounts.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":       "Login successful",
		"token":         res.Tokens.AccessToken,
		"refresh_token": res.Tokens.RefreshToken,
		"expires_at":    res.Tokens.AccessExp.Unix(),
		"user": gin.H{
			"id":        res.User.ID,
			"full_name": res.User.FullName,
			"role":      res.User.Role,
		},
	})
}

func (h *Handler) profile(c *gin.Context) {
	u, err := h.Accounts.Profile(c.Request.Context(), caller(c).UserID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": u})
}

func (h *Handler) inviteStudent(c *gin.Context) {
	var req struct {
		FullName string `json:"full_name"`
		Email    string `json:"email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, badRequest("invalid request body"))
		return
	}
	u, err := h.Accounts.Invite(c.Request.Context(), req.FullName, req.Email)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Invitation sent successfully", "user": u})
}
