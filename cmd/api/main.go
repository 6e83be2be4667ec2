package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/skilldesk/lms-api/internal/config"
	"github.com/skilldesk/lms-api/internal/database"
	"github.com/skilldesk/lms-api/internal/handler"
	"github.com/skilldesk/lms-api/internal/middleware"
	"github.com/skilldesk/lms-api/internal/models"
	"github.com/skilldesk/lms-api/internal/repository"
	"github.com/skilldesk/lms-api/internal/router"
	"github.com/skilldesk/lms-api/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.User{}, &models.UserCourse{},
		&models.Course{}, &models.Lecture{},
		&models.Enrollment{}, &models.Payment{},
		&models.Exam{}, &models.Question{}, &models.Attempt{},
		&models.Message{},
		&models.Progress{}, &models.ProgressLecture{},
	); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	// NATS is optional: single-node deployments run without it.
	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = database.ConnectNATS(cfg.NATSURL)
		if err != nil {
			log.Fatalf("failed to connect to nats: %v", err)
		}
		defer natsConn.Close()
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	courseRepo := repository.NewCourseRepository(db)
	lectureRepo := repository.NewLectureRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	examRepo := repository.NewExamRepository(db)
	attemptRepo := repository.NewAttemptRepository(db)
	userRepo := repository.NewUserRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	progressRepo := repository.NewProgressRepository(db)

	accessCache := service.NewAccessCache(redisClient, cfg.AccessCacheTTL, logger)

	accessService := service.NewAccessService(courseRepo, enrollmentRepo, lectureRepo, accessCache, logger)
	enrollmentService := service.NewEnrollmentService(enrollmentRepo, courseRepo, userRepo, accessCache, validate, logger)
	paymentService := service.NewPaymentService(paymentRepo, enrollmentRepo, courseRepo, accessService, accessCache, validate, logger)
	attemptService := service.NewAttemptService(attemptRepo, examRepo, validate, logger)
	messageService := service.NewMessageService(messageRepo, userRepo, redisClient, cfg.MessageChannel, natsConn, validate, logger)
	progressService := service.NewProgressService(progressRepo, lectureRepo, validate, logger)

	accessHandler := handler.NewAccessHandler(accessService, logger)
	enrollmentHandler := handler.NewEnrollmentHandler(enrollmentService, logger)
	paymentHandler := handler.NewPaymentHandler(paymentService, logger)
	attemptHandler := handler.NewAttemptHandler(attemptService, logger)
	messageHandler := handler.NewMessageHandler(messageService, logger)
	progressHandler := handler.NewProgressHandler(progressService, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		AccessHandler:     accessHandler,
		EnrollmentHandler: enrollmentHandler,
		PaymentHandler:    paymentHandler,
		AttemptHandler:    attemptHandler,
		MessageHandler:    messageHandler,
		ProgressHandler:   progressHandler,
		JWTMiddleware:     middleware.JWTProtected(cfg.JWTSecret),
	})

	serviceCtx, cancelServices := context.WithCancel(context.Background())
	defer cancelServices()
	messageService.Start(serviceCtx)

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
