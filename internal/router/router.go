package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/skilldesk/lms-api/internal/config"
	"github.com/skilldesk/lms-api/internal/handler"
	"github.com/skilldesk/lms-api/internal/middleware"
	"github.com/skilldesk/lms-api/internal/models"
	"github.com/skilldesk/lms-api/internal/observability"
	"github.com/skilldesk/lms-api/internal/utils"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	AccessHandler     *handler.AccessHandler
	EnrollmentHandler *handler.EnrollmentHandler
	PaymentHandler    *handler.PaymentHandler
	AttemptHandler    *handler.AttemptHandler
	MessageHandler    *handler.MessageHandler
	ProgressHandler   *handler.ProgressHandler
	JWTMiddleware     fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler())

	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))

	// A missing auth middleware is a wiring mistake; refuse traffic
	// instead of silently serving unauthenticated requests.
	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error {
			return utils.SendError(c, fiber.StatusUnauthorized, "authentication middleware not configured")
		}
	}

	adminOnly := middleware.RequireRole(models.RoleAdmin)

	// Course access & lecture visibility
	if deps.AccessHandler != nil {
		courses := api.Group("/courses", jwtMiddleware)
		deps.AccessHandler.Register(courses)
	}

	// Enrollments
	if deps.EnrollmentHandler != nil {
		enrollments := api.Group("/enrollments", jwtMiddleware)
		deps.EnrollmentHandler.Register(enrollments)

		adminEnrollments := api.Group("/admin/enrollments", jwtMiddleware, adminOnly)
		deps.EnrollmentHandler.RegisterAdmin(adminEnrollments)
	}

	// Payments
	if deps.PaymentHandler != nil {
		payments := api.Group("/payments", jwtMiddleware)
		deps.PaymentHandler.Register(payments)

		adminPayments := api.Group("/admin/payments", jwtMiddleware, adminOnly)
		deps.PaymentHandler.RegisterAdmin(adminPayments)
	}

	// Exam attempts & eligibility
	if deps.AttemptHandler != nil {
		attempts := api.Group("/attempts", jwtMiddleware,
			middleware.RateLimit("attempt-submit", cfg.SubmitRateLimit, cfg.SubmitRateWindow))
		deps.AttemptHandler.Register(attempts)

		exams := api.Group("/exams", jwtMiddleware)
		deps.AttemptHandler.RegisterExamStatus(exams)

		adminAttempts := api.Group("/admin/attempts", jwtMiddleware, adminOnly)
		deps.AttemptHandler.RegisterAdmin(adminAttempts)
	}

	// Direct messaging
	if deps.MessageHandler != nil {
		messages := api.Group("/messages", jwtMiddleware,
			middleware.RateLimit("message-send", cfg.MessageRateLimit, cfg.MessageRateWindow))
		deps.MessageHandler.Register(messages)
	}

	// Lecture progress
	if deps.ProgressHandler != nil {
		progress := api.Group("/progress", jwtMiddleware)
		deps.ProgressHandler.Register(progress)
	}
}
