package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v76"

	"salonbook/config"
	"salonbook/database"
	"salonbook/database/repository"
	"salonbook/handlers"
	"salonbook/routes"
	authsvc "salonbook/services/auth"
	bookingsvc "salonbook/services/booking"
	"salonbook/services/notification"
	"salonbook/services/payment"
	pricingsvc "salonbook/services/pricing"
	schedulesvc "salonbook/services/schedule"
	settingssvc "salonbook/services/settings"
	"salonbook/utils"
	"salonbook/workers"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()

	database.InitDB()
	utils.InitCache()
	stripe.Key = config.AppConfig.StripeKey

	db := database.GetDB()

	// repositories.
	userRepo := repository.NewUserRepository(db)
	masterRepo := repository.NewMasterRepository(db)
	serviceRepo := repository.NewServiceRepository(db)
	scheduleRepo := repository.NewScheduleRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)
	bookingRepo := repository.NewBookingRepository(db)

	// services.
	settingsStore := settingssvc.NewDefaultSettingsStore(
		settingsRepo,
		utils.GetCacheClient(),
		time.Duration(config.AppConfig.SettingsCacheTTL)*time.Second,
		logger,
	)
	authService := authsvc.NewDefaultAuthService(userRepo, masterRepo)
	pricingService := pricingsvc.NewDefaultPricingService(serviceRepo, settingsStore)
	scheduleService := schedulesvc.NewDefaultScheduleService(scheduleRepo, bookingRepo, settingsStore)

	messenger := notification.LogMessenger{}
	notifyQueue := notification.NewQueueClient()
	notificationService := notification.NewDefaultNotificationService(bookingRepo, settingsStore, notifyQueue, messenger)
	notification.InitDeliveryWorker(messenger)

	invoiceProvider := payment.NewStripeProvider()
	bookingService := bookingsvc.NewDefaultBookingService(
		bookingRepo, pricingService, notificationService, invoiceProvider, settingsStore,
	)

	// background loops.
	expiration := workers.NewExpirationWorker(bookingRepo, settingsStore)
	cleanup := workers.NewCleanupWorker(bookingRepo, notificationService, settingsStore)
	reminders := workers.NewReminderWorker(bookingRepo, notificationService, settingsStore)
	expiration.Start()
	cleanup.Start()
	reminders.Start()

	// HTTP façade.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())

	h := &handlers.Handler{
		Bookings:    bookingService,
		Schedule:    scheduleService,
		Pricing:     pricingService,
		Auth:        authService,
		Settings:    settingsStore,
		Users:       userRepo,
		Masters:     masterRepo,
		Services:    serviceRepo,
		Schedules:   scheduleRepo,
		BookingRepo: bookingRepo,
		Cache:       utils.GetCacheClient(),
	}
	routes.RegisterRoutes(router, h)

	port := config.AppConfig.AppPort
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

	expiration.Stop()
	cleanup.Stop()
	reminders.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Fatalf("main: server forced to shutdown: %v", err)
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
