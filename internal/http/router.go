package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sehyun-dev/taxlink/internal/auth"
	"github.com/sehyun-dev/taxlink/internal/config"
	"github.com/sehyun-dev/taxlink/internal/domain/user"
	"github.com/sehyun-dev/taxlink/internal/http/handlers"
	"github.com/sehyun-dev/taxlink/internal/http/middlewares"
	"github.com/sehyun-dev/taxlink/internal/observability"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// UsersStore is everything the user-facing handlers need from the
// users repo. Satisfied by both the postgres and memory repos.
type UsersStore interface {
	handlers.UserReader
	handlers.UserWriter
	handlers.ProfileStore
}

type Deps struct {
	Cfg config.Config
	Log *slog.Logger

	Users    UsersStore
	Notifs   handlers.NotificationReader
	Mandates handlers.MandateWorkflow
	Payments handlers.PaymentProcessor
	Verify   handlers.VerifyService

	JWT  *auth.Manager
	Prom *observability.Prom

	// Ping reports backend readiness, usually pool.Ping.
	Ping func() error

	// MetricsHandler serves /metrics when set.
	MetricsHandler http.Handler
}

func NewRouter(d Deps) *gin.Engine {
	if d.Cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// middleware

	r.Use(gin.Recovery())
	r.Use(RequestID())
	r.Use(RequestLogger(d.Log))
	r.Use(otelgin.Middleware("taxlink-api"))

	if d.Prom != nil {
		r.Use(d.Prom.GinHandleMiddleware())
	}

	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(d.Cfg.CORSOrigins))
	r.Use(middlewares.RequireJSON())
	r.Use(middlewares.MaxBodyBytes(1 << 20))

	// health

	h := handlers.NewHealthHandler(d.Ping)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)

	if d.MetricsHandler != nil {
		r.GET("/metrics", gin.WrapH(d.MetricsHandler))
	}

	// handlers

	authHandler := handlers.NewAuthHandler(d.Users, d.Users, d.Verify, d.JWT, d.Cfg)
	profileHandler := handlers.NewProfileHandler(d.Users)
	mandateHandler := handlers.NewMandateHandler(d.Mandates)
	notificationsHandler := handlers.NewNotificationsHandler(d.Notifs)
	paymentHandler := handlers.NewPaymentHandler(d.Payments)

	authMW := middlewares.NewAuthMiddleware(d.JWT)

	// codes are cheap to mint, keep the SMS endpoint on a tight budget
	smsLimiter := middlewares.NewRateLimiter(5, time.Minute)

	api := r.Group("/api")

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/verify-business-number", authHandler.VerifyBusinessNumber)
		authGroup.POST("/verify-corporate-number", authHandler.VerifyCorporateNumber)
		authGroup.POST("/send-verification-code", smsLimiter.RateLimiterMiddleware(middlewares.KeyByIP), authHandler.SendVerificationCode)
		authGroup.POST("/verify-phone-code", authHandler.VerifyPhoneCode)
	}

	users := api.Group("/users", authMW.RequireAuth())
	{
		users.GET("/me", profileHandler.Get)
		users.PUT("/me", profileHandler.Update)
	}

	mandateGroup := api.Group("/mandate", authMW.RequireAuth())
	{
		mandateGroup.POST("/request", mandateHandler.Request)
		mandateGroup.POST("/complete", mandateHandler.Complete)

		// accountant-only operations
		taxOnly := authMW.RequireRole(user.RoleTaxAccountant)
		mandateGroup.POST("/send-request", taxOnly, mandateHandler.SendRequest)
		mandateGroup.POST("/release-request", taxOnly, mandateHandler.ReleaseRequest)
		mandateGroup.GET("/list", taxOnly, mandateHandler.List)
	}

	notifGroup := api.Group("/notifications", authMW.RequireAuth())
	{
		notifGroup.GET("", notificationsHandler.List)
		notifGroup.PUT("/:id/read", notificationsHandler.MarkRead)
		notifGroup.GET("/unread-count", notificationsHandler.UnreadCount)
	}

	paymentGroup := api.Group("/payment", authMW.RequireAuth())
	{
		paymentGroup.POST("/process", paymentHandler.Process)
		paymentGroup.GET("/status", paymentHandler.Status)
	}

	return r
}
