// Package httpapi exposes the services over gin.
package httpapi

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"messmate/internal/account"
	"messmate/internal/announcement"
	"messmate/internal/attendance"
	"messmate/internal/auth"
	"messmate/internal/expense"
	"messmate/internal/feedback"
	"messmate/internal/httpmiddleware"
	"messmate/internal/imagestore"
	"messmate/internal/menu"
	"messmate/internal/notify"
)

// HealthCheck reports whether one dependency is reachable.
type HealthCheck func(ctx context.Context) bool

// Deps are the collaborators of the router. Nil services leave their routes
// unregistered, which handler tests rely on.
type Deps struct {
	Log           *zap.Logger
	Signer        *auth.Signer
	Attendance    *attendance.Service
	Menu          *menu.Service
	Expense       *expense.Service
	Accounts      *account.Service
	Announcements *announcement.Service
	Feedback      *feedback.Service
	EmailStatus   notify.StatusStore
	Images        *imagestore.Cloudinary
	Limiter       *httpmiddleware.TokenBucket
	CORSOrigins   []string
	Gatherer      prometheus.Gatherer
	Health        map[string]HealthCheck
	Now           func() time.Time
}

// Handler holds the route handlers.
type Handler struct {
	Deps
	log *zap.Logger
	now func() time.Time
}

// NewRouter builds the gin engine with middleware and every route.
func NewRouter(d Deps) *gin.Engine {
	h := &Handler{Deps: d, log: d.Log, now: d.Now}
	if h.log == nil {
		h.log = zap.NewNop()
	}
	if h.now == nil {
		h.now = time.Now
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(httpmiddleware.RequestID())
	r.Use(httpmiddleware.Logger(h.log, "/healthz", "/metrics"))
	r.Use(httpmiddleware.CORS(d.CORSOrigins))
	r.Use(httpmiddleware.SecurityHeaders())
	if d.Limiter != nil {
		r.Use(d.Limiter.Middleware())
	}

	r.GET("/healthz", h.healthz)
	if d.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}

	bearer := auth.Bearer(d.Signer)
	admin := r.Group("/api/admin", bearer, auth.RequireRole(auth.RoleAdmin))

	if d.Accounts != nil {
		r.POST("/verifyEmail", h.verifyEmail)
		r.POST("/verifyOtp", h.verifyOTP)
		r.POST("/signup", h.signup)
		r.POST("/login", h.login)
		r.GET("/profile", bearer, h.profile)
		admin.POST("/invite-student", h.inviteStudent)
	}

	if d.Attendance != nil {
		dash := r.Group("/dashboard", bearer)
		dash.GET("/attendance/today", h.todayAttendance)
		dash.POST("/attendance/mark", h.markAttendance)
		dash.GET("/weekly-attendance", h.weeklyAttendance)
		dash.GET("/next-meal", h.nextMeal)
		if d.Menu != nil {
			dash.GET("/today-meal", h.todayMeal)
		}
		admin.GET("/attendance/today-students", h.todayStudents)
		if d.EmailStatus != nil {
			admin.GET("/attendance/email-status", h.emailStatus)
		}
	}

	if d.Menu != nil {
		r.GET("/menu/weekly", h.weeklyMenu)
		admin.GET("/menu/:day", h.menuDay)
		admin.POST("/menu/:menuId", h.setMenuItems)
		admin.GET("/food", h.listFood)
		admin.POST("/food", h.addFood)
		admin.POST("/food/:foodId/image", h.uploadFoodImage)
	}

	if d.Announcements != nil {
		r.GET("/announcements", h.listAnnouncements)
		ann := r.Group("/announcements", bearer, auth.RequireRole(auth.RoleAdmin))
		ann.POST("", h.createAnnouncement)
		ann.PUT("/:id", h.updateAnnouncement)
		ann.DELETE("/:id", h.deleteAnnouncement)
	}

	if d.Feedback != nil {
		fb := r.Group("/feedback", bearer)
		fb.POST("/submitFeedback", h.submitFeedback)
		fb.GET("/getUserFeedback", h.userFeedback)
		fb.GET("/getPendingFeedback", auth.RequireRole(auth.RoleAdmin), h.pendingFeedback)
		fb.POST("/updateStatus/:id", auth.RequireRole(auth.RoleAdmin), h.updateFeedbackStatus)
	}

	if d.Expense != nil {
		ex := r.Group("/expense", bearer)
		ex.GET("/total/:userId", h.expenseTotals)
		ex.GET("/summary/:userId", h.expenseSummary)
		ex.POST("/add", h.addExpense)
	}

	return r
}

func (h *Handler) healthz(c *gin.Context) {
	status := http.StatusOK
	body := gin.H{"status": "ok"}
	for name, check := range h.Health {
		ok := check(c.Request.Context())
		body[name] = ok
		if !ok {
			status = http.StatusServiceUnavailable
			body["status"] = "degraded"
		}
	}
	c.JSON(status, body)
}

// caller returns the claims set by the bearer middleware.
func caller(c *gin.Context) auth.Claims {
	claims, _ := auth.FromContext(c)
	return claims
}

func pathID(c *gin.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, badRequest("invalid " + name)
	}
	return id, nil
}

// selfOrAdmin resolves :userId and rejects students reading someone else's data.
func selfOrAdmin(c *gin.Context) (int64, error) {
	id, err := pathID(c, "userId")
	if err != nil {
		return 0, err
	}
	claims := caller(c)
	if claims.UserID != id && !claims.IsAdmin() {
		return 0, errForbidden
	}
	return id, nil
}
