package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/farellandr/ticketgate/config"
	"github.com/farellandr/ticketgate/internal/handlers"
	"github.com/farellandr/ticketgate/internal/helpers"
	"github.com/farellandr/ticketgate/internal/middleware"
	"github.com/farellandr/ticketgate/internal/models"
	"github.com/farellandr/ticketgate/internal/services"
	"github.com/farellandr/ticketgate/internal/store"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

// Dependencies are the constructed collaborators the router serves.
type Dependencies struct {
	Tickets     *services.TicketService
	Auth        *services.AuthService
	Store       store.TicketStore
	Redis       *redis.Client
	RateLimiter *middleware.RateLimiter
	Webhooks    *helpers.WebhookSigner
	CORSOrigins []string
	Log         *slog.Logger
}

// Start builds every dependency from cfg, serves HTTP until ctx is done, then
// drains in-flight requests and releases the store.
func Start(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	db, err := config.InitDatabase(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	ticketStore := store.NewGormStore(db)
	defer func() {
		if err := ticketStore.Close(); err != nil {
			log.Error("failed to close ticket store", "error", err)
		}
	}()

	redisClient, err := config.InitRedis(ctx, cfg)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
	} else {
		log.Warn("REDIS_URL not set, rate limiting disabled")
	}

	var notifier services.Notifier
	if cfg.SMTPHost != "" {
		notifier = services.NewSMTPNotifier(services.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.MailFrom,
			FromName: cfg.MailFromName,
		})
	} else {
		log.Warn("SMTP_HOST not set, ticket emails will only be logged")
		notifier = services.NewLogNotifier(log)
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := NewRouter(Dependencies{
		Tickets:     services.NewTicketService(ticketStore, notifier, services.NewQRSigner(cfg.QRSecret), log),
		Auth:        services.NewAuthService(ticketStore, cfg.JWTSecret, cfg.TokenTTL),
		Store:       ticketStore,
		Redis:       redisClient,
		RateLimiter: middleware.NewRateLimiter(redisClient, cfg.RateLimitPerMinute, time.Minute, log),
		Webhooks:    helpers.NewWebhookSigner(cfg.PaymentWebhookSecret),
		CORSOrigins: cfg.CORSOrigins,
		Log:         log,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", srv.Addr, "environment", cfg.Environment)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}

func NewRouter(deps Dependencies) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID(), middleware.RequestLogger(deps.Log))
	r.Use(cors.New(corsConfig(deps.CORSOrigins)))

	setupRoutes(r, deps)
	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.DefaultConfig()
	cfg.AllowMethods = []string{"GET", "POST", "PATCH", "OPTIONS"}
	cfg.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", middleware.HeaderRequestID}
	cfg.ExposeHeaders = []string{middleware.HeaderRequestID}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}

func setupRoutes(r *gin.Engine, deps Dependencies) {
	tickets := handlers.NewTicketHandler(deps.Tickets)
	auth := handlers.NewAuthHandler(deps.Auth)
	webhooks := handlers.NewWebhookHandler(deps.Tickets, deps.Webhooks)
	limiter := deps.RateLimiter

	r.GET("/healthz", healthHandler(deps))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	public := r.Group("/v1")
	{
		public.POST("/login", auth.Login)

		public.POST("/check-ticket-id", limiter.Limit("check"), tickets.CheckTicketID)
		public.POST("/store-ticket", tickets.StoreTicket)
		public.GET("/tickets/:ticketId", tickets.GetTicket)
		public.GET("/tickets/:ticketId/qr", tickets.GetTicketQR)
		public.GET("/validate-ticket/:ticketId", limiter.Limit("validate"), tickets.ValidateTicket)
		public.POST("/validate-qr", limiter.Limit("validate"), tickets.ValidateQR)

		public.POST("/webhooks/payment", webhooks.PaymentConfirmed)
	}

	protected := r.Group("/v1")
	protected.Use(middleware.JWTAuthMiddleware(deps.Auth))
	{
		protected.GET("/tickets", tickets.ListTickets)
		protected.PATCH("/tickets/:ticketId", tickets.UpdateTicket)
		protected.POST("/tickets/:ticketId/check-in", limiter.Limit("check-in"), tickets.CheckIn)
		protected.POST("/tickets/:ticketId/email", tickets.SendTicketEmail)

		protected.POST("/staff", middleware.RequireRole(models.RoleAdmin), auth.RegisterStaff)
	}
}

func healthHandler(deps Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := gin.H{"store": "ok"}
		healthy := true
		if err := deps.Store.Ping(ctx); err != nil {
			status["store"] = err.Error()
			healthy = false
		}
		if deps.Redis != nil {
			status["redis"] = "ok"
			if err := deps.Redis.Ping(ctx).Err(); err != nil {
				status["redis"] = err.Error()
				healthy = false
			}
		}

		if !healthy {
			c.JSON(http.StatusServiceUnavailable, status)
			return
		}
		c.JSON(http.StatusOK, status)
	}
}
