package main

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/PrayerWall/controllers"
	"github.com/PrayerWall/initializers"
	"github.com/PrayerWall/middlewares"
	"github.com/PrayerWall/services"
)

// app holds the services shared by the HTTP handlers and the CLI commands.
type app struct {
	configs     *services.ConfigService
	codes       *services.VerificationService
	requests    *services.PendingRequestService
	submissions *services.SubmissionService
	approvals   *services.ApprovalService
	scanner     *services.StalenessScanner
	prayers     *services.PrayerService
	push        *services.PushNotificationService
}

func newApp() *app {
	db := initializers.DB
	mailer := services.GetEmailService()
	templates := services.NewEmailTemplates()
	push := services.GetPushNotificationService()

	a := &app{
		configs:   services.NewConfigService(db, initializers.GetEnvDuration("CONFIG_CACHE_TTL", 30*time.Second)),
		codes:     services.NewVerificationService(db, mailer, templates),
		approvals: services.NewApprovalService(db, mailer, templates),
		scanner:   services.NewStalenessScanner(db, mailer, templates),
		prayers:   services.NewPrayerService(db),
		push:      push,
	}
	if push != nil {
		a.requests = services.NewPendingRequestService(db, push)
	} else {
		a.requests = services.NewPendingRequestService(db, nil)
	}
	a.submissions = services.NewSubmissionService(a.codes, a.requests)
	return a
}

func setupRouter(a *app) *gin.Engine {
	router := gin.Default()

	getKey := func(c *gin.Context) string {
		if gin.Mode() == gin.DebugMode {
			return c.FullPath()
		}
		return middlewares.ClientIPKey(c)
	}

	controllers.Use(controllers.Services{
		Submissions: a.submissions,
		Configs:     a.configs,
		Requests:    a.requests,
		Decisions:   a.approvals,
		Scanner:     a.scanner,
		Prayers:     a.prayers,
		PushTokens:  a.push,
	})

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.POST("/requests/:action_type", middlewares.RateLimitMiddleware(2, 5, getKey), controllers.SubmitRequest)
	router.POST("/verifications/resend", middlewares.RateLimitMiddleware(1, 2, getKey), controllers.ResendCode)
	router.POST("/verifications/:code_id/confirm", middlewares.RateLimitMiddleware(2, 5, getKey), controllers.ConfirmCode)

	router.GET("/prayers", middlewares.RateLimitMiddleware(10, 20, getKey), controllers.GetPrayers)
	router.GET("/prayers/:prayer_id", middlewares.RateLimitMiddleware(10, 20, getKey), controllers.GetPrayer)

	router.POST("/admin/login", middlewares.RateLimitMiddleware(2, 2, getKey), controllers.AdminLogin)

	auth := router.Group("/admin")
	auth.Use(middlewares.CheckAuth)
	auth.Use(middlewares.RateLimitMiddleware(10, 10, getKey))
	{
		auth.GET("/requests", controllers.ListRequests)
		auth.GET("/requests/counts", controllers.CountRequests)
		auth.GET("/requests/:request_id", controllers.GetRequest)
		auth.POST("/requests/:request_id/approve", controllers.ApproveRequest)
		auth.POST("/requests/:request_id/deny", controllers.DenyRequest)

		auth.POST("/push-token", controllers.StorePushToken)

		//admin only routes
		admin := auth.Group("/")
		admin.Use(middlewares.CheckAdmin)
		{
			admin.GET("/config", controllers.GetConfig)
			admin.PUT("/config", controllers.UpdateConfig)

			admin.POST("/scans/reminders", controllers.RunReminderScan)
			admin.POST("/scans/auto-transition", controllers.RunAutoTransitionScan)
		}
	}

	return router
}
