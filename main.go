package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"meetbot/config"
	"meetbot/cron"
	"meetbot/database"
	meetingRepo "meetbot/database/repository/meeting"
	scheduleRepo "meetbot/database/repository/schedule"
	"meetbot/handlers"
	"meetbot/middleware"
	"meetbot/routes"
	"meetbot/services/availability"
	"meetbot/services/dialogue"
	"meetbot/services/directory"
	"meetbot/services/messaging"
	"meetbot/services/notification"
	"meetbot/services/session"
	"meetbot/services/tasks"
	"meetbot/services/verification"
	"meetbot/utils"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()
	defer logger.Sync()
	cfg := config.AppConfig
	loc := config.MeetingLocation()

	rootCtx, stop := context.WithCancel(context.Background())
	defer stop()

	// Busy intervals and finalized meetings.
	var (
		busyStore availability.Store
		busyWrite availability.Writer
		meetings  meetingRepo.MeetingRepository
	)
	switch cfg.AvailabilityBackend {
	case "mock":
		mock := availability.NewMockStore(availability.DemoSchedules())
		busyStore, busyWrite = mock, mock
		logger.Info("Using mock availability store")
	default:
		database.InitDB()
		busyRepo := scheduleRepo.NewMongoBusyRepo(database.DB())
		if err := busyRepo.EnsureIndexes(); err != nil {
			logger.Fatal("main: failed to create busy interval indexes", zap.Error(err))
		}
		meetings = meetingRepo.NewMongoMeetingRepo(database.DB())
		if err := meetings.EnsureIndexes(); err != nil {
			logger.Fatal("main: failed to create meeting indexes", zap.Error(err))
		}
		busyStore, busyWrite = busyRepo, busyRepo
	}

	// Sessions and the participant directory.
	seed := config.SeedParticipantList()
	if len(seed) == 0 {
		seed = availability.DemoParticipants()
	}
	var (
		sessions session.Store
		dir      directory.Directory
	)
	switch cfg.SessionBackend {
	case "memory":
		sessions = session.NewMemoryStore()
		dir = directory.NewMemoryDirectory(seed...)
		logger.Info("Using in-memory sessions and directory")
	default:
		sessions = session.NewRedisStore(utils.GetSessionCacheClient(), cfg.SessionTTL)
		redisDir := directory.NewRedisDirectory(utils.GetDirectoryCacheClient())
		seedCtx, cancel := context.WithTimeout(rootCtx, 5*time.Second)
		if err := redisDir.Seed(seedCtx, seed...); err != nil {
			logger.Fatal("main: failed to seed participant directory", zap.Error(err))
		}
		cancel()
		dir = redisDir
	}

	// Participant notifications.
	from := cfg.SMTPFrom
	if from == "" {
		from = cfg.SMTPUsername
	}
	if from == "" {
		from = "no-reply@meetbot.local"
	}
	sender := notification.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword)
	notifier, err := notification.NewEmailNotificationService(sender, from, loc, logger.Named("notification"))
	if err != nil {
		logger.Fatal("main: failed to initialize notifier", zap.Error(err))
	}

	var meetingStore tasks.MeetingStore
	var meetingLister dialogue.MeetingLister
	if meetings != nil {
		meetingStore, meetingLister = meetings, meetings
	}
	pipeline, err := tasks.NewPipeline(meetingStore, notifier, logger.Named("pipeline"))
	if err != nil {
		logger.Fatal("main: failed to initialize meeting pipeline", zap.Error(err))
	}

	// Finalized meeting submission.
	var (
		submitter   dialogue.Submitter
		queueClient *asynq.Client
		worker      *asynq.Server
	)
	switch cfg.SubmitMode {
	case "direct":
		direct, err := tasks.NewDirectSubmitter(pipeline)
		if err != nil {
			logger.Fatal("main: failed to initialize submitter", zap.Error(err))
		}
		submitter = direct
		logger.Info("Submitting meetings in-process")
	default:
		queueClient = asynq.NewClient(cron.QueueRedisOpt())
		pipeline.WithReminders(queueClient, cfg.ReminderLead)
		submitter = tasks.NewQueueSubmitter(queueClient, cfg.SubmitTimeout)
		worker = cron.InitMeetingWorker(rootCtx, pipeline, logger.Named("worker"))
	}

	// Verification links are optional; without a secret none are sent.
	var signer *verification.Signer
	if cfg.VerifySecret != "" {
		signer, err = verification.NewSigner(cfg.VerifySecret, cfg.VerifyBaseURL, cfg.VerifyTTL)
		if err != nil {
			logger.Fatal("main: failed to initialize verification signer", zap.Error(err))
		}
	} else {
		logger.Warn("VERIFY_SECRET not set, verification links disabled")
	}

	machineCfg := dialogue.Config{
		Sessions:      sessions,
		Checker:       availability.NewChecker(busyStore),
		Directory:     dir,
		Submitter:     submitter,
		Meetings:      meetingLister,
		Logger:        logger.Named("dialogue"),
		SubmitTimeout: cfg.SubmitTimeout,
		Location:      loc,
	}
	if signer != nil {
		machineCfg.Links = signer
	}
	machine, err := dialogue.NewMachine(machineCfg)
	if err != nil {
		logger.Fatal("main: failed to initialize dialogue", zap.Error(err))
	}

	channel, err := messaging.NewLineChannel(cfg.LineChannelSecret, cfg.LineChannelToken, logger.Named("line"))
	if err != nil {
		logger.Fatal("main: failed to initialize LINE channel", zap.Error(err))
	}

	utils.StartHealthMonitor(utils.RedisClients(), database.MongoClient)

	// Create the Gin router.
	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.RateLimitMiddleware(cfg.MaxRequestsPerMin))

	webhookHandler := handlers.NewWebhookHandler(channel, machine)
	calendarHandler := handlers.NewCalendarHandler(busyWrite)
	meetingHandler := handlers.NewMeetingHandler(meetingLister, submitter)
	verifyHandler := handlers.NewVerifyHandler(nil, channel)
	if signer != nil {
		verifyHandler.Tokens = signer
	}

	// Assemble the handler bundle.
	handlerBundle := &handlers.HandlerBundle{
		WebhookHandler:       webhookHandler.CallbackHandler,
		ParseCalendarHandler: calendarHandler.ParseCalendarHandler,
		ListMeetingsHandler:  meetingHandler.ListMeetingsHandler,
		SubmitMeetingHandler: meetingHandler.SubmitMeetingHandler,
		VerifyEmailHandler:   verifyHandler.VerifyEmailHandler,
		HealthHandler:        handlers.HealthHandler,
	}
	routes.RegisterRoutes(router, handlerBundle)

	// Start the HTTP server.
	port := cfg.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Errorf("main: server forced to shutdown: %v", err)
	}

	// Let confirmed meetings reach the queue before the client closes.
	machine.Wait()
	stop()
	if worker != nil {
		worker.Shutdown()
	}
	if queueClient != nil {
		if err := queueClient.Close(); err != nil {
			logger.Warn("main: failed to close queue client", zap.Error(err))
		}
	}
	if err := database.CloseDB(ctx); err != nil {
		logger.Warn("main: failed to disconnect MongoDB", zap.Error(err))
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
