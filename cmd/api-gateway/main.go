package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	_ "github.com/noah-isme/campus-api/api/swagger"
	"github.com/noah-isme/campus-api/internal/authz"
	"github.com/noah-isme/campus-api/internal/handler"
	"github.com/noah-isme/campus-api/internal/middleware"
	"github.com/noah-isme/campus-api/internal/repository"
	"github.com/noah-isme/campus-api/internal/service"
	"github.com/noah-isme/campus-api/pkg/cache"
	"github.com/noah-isme/campus-api/pkg/config"
	"github.com/noah-isme/campus-api/pkg/database"
	"github.com/noah-isme/campus-api/pkg/database/migrate"
	"github.com/noah-isme/campus-api/pkg/jobs"
	"github.com/noah-isme/campus-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/campus-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/campus-api/pkg/middleware/requestid"
	"github.com/noah-isme/campus-api/pkg/mongodb"
	"github.com/noah-isme/campus-api/pkg/response"
	"github.com/noah-isme/campus-api/pkg/storage"
)

// @title Campus API
// @version 1.0.0
// @description Campus management backend: complaints, events, skill courses, attendance, leaves and messaging.
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	response.ExposeInternalErrors(!cfg.IsProduction())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database, logr)
	if err != nil {
		logr.Fatal("postgres unavailable", zap.Error(err))
	}
	defer db.Close() //nolint:errcheck

	if cfg.Database.AutoMigrate {
		version, err := migrate.Run(ctx, db, logr)
		if err != nil {
			logr.Fatal("migrations failed", zap.Error(err))
		}
		logr.Info("schema ready", zap.Int("version", version))
	}

	mongoClient, mongoDB, err := mongodb.Connect(ctx, cfg.Mongo)
	if err != nil {
		logr.Fatal("mongo unavailable", zap.Error(err))
	}
	defer mongoClient.Disconnect(context.Background()) //nolint:errcheck
	if err := repository.EnsureMessageIndexes(ctx, mongoDB); err != nil {
		logr.Warn("message indexes not ensured", zap.Error(err))
	}

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, dashboard cache disabled", zap.Error(err))
			redisClient = nil
		} else {
			defer redisClient.Close() //nolint:errcheck
		}
	}

	app, err := buildApp(ctx, cfg, logr, db, mongoDB, redisClient)
	if err != nil {
		logr.Fatal("failed to wire application", zap.Error(err))
	}
	defer app.stop()

	r := gin.New()
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(logger.Recovery(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(app.metrics, "/metrics"))

	registerRoutes(r, app.handlers, routeDeps{
		Prefix:    cfg.APIPrefix,
		Validator: app.auth,
		Audit:     app.audit,
		Logger:    logr,
	})

	if !cfg.IsProduction() {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Warn("graceful shutdown failed", zap.Error(err))
	}
}

type application struct {
	handlers handlers
	auth     *service.AuthService
	audit    *repository.UserRepository
	metrics  *service.MetricsService
	queues   []*jobs.Queue
}

func (a *application) stop() {
	for _, q := range a.queues {
		q.Stop()
	}
}

func buildApp(ctx context.Context, cfg *config.Config, logr *zap.Logger, db *sqlx.DB, mongoDB *mongo.Database, redisClient *redis.Client) (*application, error) {
	validate := validator.New()
	metrics := service.NewMetricsService()

	userRepo := repository.NewUserRepository(db)
	classRepo := repository.NewClassRepository(db)
	complaintRepo := repository.NewComplaintRepository(db)
	eventRepo := repository.NewEventRepository(db)
	courseRepo := repository.NewSkillCourseRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	leaveRepo := repository.NewLeaveRepository(db)
	reportRepo := repository.NewReportRepository(db)
	dashboardRepo := repository.NewDashboardRepository(db)
	messageRepo := repository.NewMessageRepository(mongoDB)
	announcementRepo := repository.NewAnnouncementRepository(db)
	gradeRepo := repository.NewGradeRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	placementRepo := repository.NewPlacementRepository(db)
	skillRepo := repository.NewStudentSkillRepository(db)

	var cacheRepo service.CacheRepository
	if redisClient != nil {
		cacheRepo = repository.NewCacheRepository(redisClient, logr)
	}
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Dashboard.CacheTTL, logr, cacheRepo != nil)

	onResult := func(queue string, _ jobs.Job, err error) { metrics.RecordJob(queue, err) }

	notificationQueue := jobs.NewQueue("notifications", service.NewNotificationWorker(messageRepo, logr).Handle, jobs.QueueConfig{
		Workers:    cfg.Notifications.Workers,
		MaxRetries: cfg.Notifications.Retries,
		Logger:     logr,
		OnResult:   onResult,
	})
	notificationQueue.Start(ctx)
	notifier := service.NewNotificationService(notificationQueue, cfg.Notifications.Enabled, logr)

	effects := service.WorkflowEffects{
		Audit:    userRepo,
		Cache:    cacheSvc,
		Metrics:  metrics,
		Notifier: notifier,
		Logger:   logr,
	}
	guard := authz.NewGuard(userRepo, logr)

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.JWT.Issuer,
		Audience:           cfg.JWT.Audience,
		SingleSession:      cfg.JWT.SingleSession,
	})
	userSvc := service.NewUserService(userRepo, validate, logr)
	classSvc := service.NewClassService(classRepo, userRepo, guard, validate, effects)
	complaintSvc := service.NewComplaintService(complaintRepo, classRepo, guard, validate, effects)
	eventSvc := service.NewEventService(eventRepo, guard, effects)
	courseSvc := service.NewSkillCourseService(courseRepo, enrollmentRepo, guard, effects, cfg.Skills.DefaultPassThreshold)
	enrollmentSvc := service.NewEnrollmentService(enrollmentRepo, courseRepo, guard, validate, effects)
	attendanceSvc := service.NewAttendanceService(attendanceRepo, classRepo, userRepo, guard, validate, effects)
	leaveSvc := service.NewLeaveService(leaveRepo, classRepo, guard, validate, effects)
	messageSvc := service.NewMessageService(messageRepo, userRepo, classRepo, guard, validate, effects)
	announcementSvc := service.NewAnnouncementService(announcementRepo, guard, validate, effects)
	gradeSvc := service.NewGradeService(gradeRepo, classRepo, guard, validate, effects)
	assignmentSvc := service.NewAssignmentService(assignmentRepo, classRepo, guard, validate, effects)
	placementSvc := service.NewPlacementService(placementRepo, guard, validate, effects)
	skillSvc := service.NewStudentSkillService(skillRepo, classRepo, guard, effects)
	dashboardSvc := service.NewDashboardService(service.DashboardServiceParams{
		Counts:     dashboardRepo,
		Attendance: attendanceRepo,
		Classes:    classRepo,
		Users:      userRepo,
		Messages:   messageSvc,
		Cache:      cacheSvc,
		Logger:     logr,
		Config:     service.DashboardServiceConfig{CacheTTL: cfg.Dashboard.CacheTTL},
	})

	app := &application{
		auth:    authSvc,
		audit:   userRepo,
		metrics: metrics,
		queues:  []*jobs.Queue{notificationQueue},
	}

	var reportSvc *service.ReportService
	if cfg.Reports.Enabled {
		files, err := storage.NewLocalStorage(cfg.Reports.StorageDir)
		if err != nil {
			return nil, fmt.Errorf("report storage: %w", err)
		}
		exportSvc := service.NewExportService(service.ExportServiceParams{
			Attendance: attendanceRepo,
			Classes:    classRepo,
			Users:      userRepo,
			Storage:    files,
			Signer:     storage.NewSignedURLSigner(cfg.Reports.SignedURLSecret, cfg.Reports.SignedURLTTL),
			Logger:     logr,
			Config:     service.ExportConfig{APIPrefix: cfg.APIPrefix, ResultTTL: cfg.Reports.SignedURLTTL},
		})
		worker := service.NewReportWorker(reportRepo, exportSvc, cfg.Reports.WorkerRetries, logr)
		reportQueue := jobs.NewQueue("reports", worker.Handle, jobs.QueueConfig{
			Workers:    cfg.Reports.WorkerConcurrency,
			MaxRetries: cfg.Reports.WorkerRetries,
			RetryDelay: 2 * time.Second,
			Logger:     logr,
			OnResult:   onResult,
		})
		reportQueue.Start(ctx)
		app.queues = append(app.queues, reportQueue)

		reportSvc = service.NewReportService(reportRepo, reportQueue, exportSvc, attendanceSvc, classRepo, guard, effects, service.ReportServiceConfig{
			ResultTTL:       cfg.Reports.SignedURLTTL,
			CleanupInterval: cfg.Reports.CleanupInterval,
		})
		reportSvc.RecoverPendingJobs(ctx)
		reportSvc.StartCleanup(ctx)
	}

	checks := map[string]handler.ReadinessCheck{
		"postgres": db.PingContext,
		"mongo": func(ctx context.Context) error {
			return mongoDB.Client().Ping(ctx, nil)
		},
	}
	if redisClient != nil {
		checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}

	app.handlers = handlers{
		Auth:          handler.NewAuthHandler(authSvc, userSvc),
		Users:         handler.NewUserHandler(userSvc),
		Classes:       handler.NewClassHandler(classSvc),
		Complaints:    handler.NewComplaintHandler(complaintSvc),
		Events:        handler.NewEventHandler(eventSvc),
		Courses:       handler.NewSkillCourseHandler(courseSvc),
		Enrollments:   handler.NewEnrollmentHandler(enrollmentSvc),
		Attendance:    handler.NewAttendanceHandler(attendanceSvc),
		Leaves:        handler.NewLeaveHandler(leaveSvc),
		Messages:      handler.NewMessageHandler(messageSvc),
		Announcements: handler.NewAnnouncementHandler(announcementSvc),
		Grades:        handler.NewGradeHandler(gradeSvc),
		Assignments:   handler.NewAssignmentHandler(assignmentSvc),
		Placements:    handler.NewPlacementHandler(placementSvc),
		Skills:        handler.NewStudentSkillHandler(skillSvc),
		Dashboard:     handler.NewDashboardHandler(dashboardSvc),
		Metrics:       handler.NewMetricsHandler(metrics, checks),
	}
	if reportSvc != nil {
		app.handlers.Reports = handler.NewReportHandler(reportSvc, logr)
	} else {
		app.handlers.Reports = handler.NewReportHandler(nil, logr)
	}
	return app, nil
}
