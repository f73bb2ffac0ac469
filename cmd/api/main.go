package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/andhikafr19/eo-app/internal/http/handlers"
	ratelimit "github.com/andhikafr19/eo-app/internal/http/middleware"
	"github.com/andhikafr19/eo-app/internal/repository"
	"github.com/andhikafr19/eo-app/internal/service"
	"github.com/andhikafr19/eo-app/internal/ticket"
	"github.com/andhikafr19/eo-app/pkg/config"
	"github.com/andhikafr19/eo-app/pkg/database"
	"github.com/andhikafr19/eo-app/pkg/events"
	"github.com/andhikafr19/eo-app/pkg/logger"
	mw "github.com/andhikafr19/eo-app/pkg/middleware"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if cfg.Database.AutoMigrate {
		if err := database.RunMigrations(cfg.Database.URL, cfg.Database.MigrationsPath); err != nil {
			logger.Error("Failed to run migrations", "error", err)
			os.Exit(1)
		}
	}

	redisOpts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		logger.Error("Invalid redis URL", "error", err)
		os.Exit(1)
	}
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()

	eventBus, err := events.NewNATSEventBus(cfg.NATS.URL)
	if err != nil {
		logger.Error("Failed to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer eventBus.Close()

	signer, err := ticket.NewSigner(cfg.Ticket.SigningSecret, cfg.Ticket.PayloadTTL)
	if err != nil {
		logger.Error("Failed to initialize ticket signer", "error", err)
		os.Exit(1)
	}
	issuer := ticket.NewIssuer(signer)

	// Repositories
	ticketRepo := repository.NewTicketRepository(pool)
	registrationRepo := repository.NewRegistrationRepository(pool)
	eventRepo := repository.NewEventRepository(pool)
	attendanceRepo := repository.NewAttendanceRepository(pool)
	staffRepo := repository.NewStaffRepository(pool)

	// Services
	authService := service.NewAuthService(staffRepo, cfg)
	ticketService := service.NewTicketService(issuer, ticketRepo, registrationRepo, eventRepo, eventBus, cfg)
	scanService := service.NewScanService(signer, ticketRepo, registrationRepo, eventRepo, attendanceRepo, eventBus, cfg)
	attendanceQuery := service.NewAttendanceQuery(attendanceRepo, eventRepo)

	h := handlers.New(authService, ticketService, scanService, attendanceQuery, cfg)

	scanLimiter := ratelimit.NewRateLimiter(redisClient, ratelimit.RateLimitConfig{
		Requests: cfg.Scan.RateLimitPerMinute,
		Window:   time.Minute,
		KeyFunc: func(r *http.Request) []string {
			keys := []string{ratelimit.ClientIP(r)}
			if staffID := r.Context().Value(logger.StaffIDKey); staffID != nil {
				keys = append(keys, fmt.Sprintf("staff:%v", staffID))
			}
			return keys
		},
	})

	r := chi.NewRouter()

	r.Use(mw.RequestID)
	r.Use(mw.ServiceName("eo-api"))
	r.Use(mw.Logging)
	r.Use(mw.Health)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Route("/v1", func(r chi.Router) {
		r.Post("/auth/login", h.Login)

		r.Group(func(r chi.Router) {
			r.Use(h.RequireJWT("staff"))
			r.With(scanLimiter.Middleware()).Post("/scan", h.Scan)
			r.Post("/tickets/{number}/check-in", h.LegacyCheckIn)
			r.Get("/events/{id}/attendance", h.ListAttendance)
		})

		r.Group(func(r chi.Router) {
			r.Use(h.RequireJWT("organizer"))
			r.Post("/registrations/{id}/ticket", h.IssueTicket)
			r.Get("/registrations/{id}/ticket", h.GetTicket)
			r.Get("/registrations/{id}/ticket/code", h.GetTicketCode)
		})
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("Shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Shutdown error", "error", err)
		}
	}()

	logger.Info("Starting eo-api", "port", cfg.Server.Port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}
}
