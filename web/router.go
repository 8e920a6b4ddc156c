// Package web wires the HTTP API of the donation service.
package web

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"go-donations/web/controllers"
	"go-donations/web/middleware"
)

type Options struct {
	Handler *controllers.Handler
	Auth    *middleware.Authenticator
	// Limiter throttles per client ip. Nil disables rate limiting.
	Limiter      middleware.Limiter
	CORSOrigins  []string
	WebhookToken string
	Logger       *zap.Logger
}

func NewRouter(opts Options) *gin.Engine {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(opts.Logger), middleware.Metrics())
	r.Use(cors.New(corsConfig(opts.CORSOrigins)))

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/")
	if opts.Limiter != nil {
		api.Use(middleware.RateLimit(opts.Limiter, opts.Logger))
	}
	h := opts.Handler

	api.GET("/packages", h.Packages)

	authed := api.Group("/", opts.Auth.RequireAuth)
	authed.GET("/me", h.Me)

	authed.POST("/orders", h.CreateOrder)
	authed.GET("/orders/:id", h.GetOrder)
	authed.POST("/orders/:id/capture", h.CaptureOrder)
	authed.POST("/orders/:id/redeem", h.RedeemOrder)
	authed.GET("/orders/:id/qrcode", h.OrderQRCode)

	authed.POST("/subscriptions", h.Subscribe)
	authed.GET("/subscriptions/:id", h.GetSubscription)
	authed.POST("/subscriptions/:id/agree", h.AgreeBilling)
	authed.POST("/subscriptions/:id/cancel", h.CancelSubscription)

	if opts.WebhookToken != "" {
		r.POST("/webhooks/subscriptions/payments", middleware.StaticToken(opts.WebhookToken), h.SubscriptionPayment)
	}
	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{"Origin", "Content-Type", "Content-Length", "Accept", "Authorization"},
		MaxAge:       12 * time.Hour,
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}
