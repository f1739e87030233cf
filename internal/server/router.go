package server

import (
	bidding "auction-marketplace/internal/biddingService"
	"auction-marketplace/internal/events"
	"auction-marketplace/internal/metrics"
	"auction-marketplace/internal/notification"
	query "auction-marketplace/internal/queryService"
	handler "auction-marketplace/services/auction/handler"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// Options bundles the collaborators and toggles the router needs.
type Options struct {
	BiddingService      *bidding.BiddingService
	QueryService        *query.Service
	NotificationService *notification.Service
	Broker              *events.Broker
	Recorder            metrics.Recorder
	Registry            *prometheus.Registry
	RateLimiter         *RateLimiter
	ReconcileOnRead     bool
}

// SetupRouter configures all Gin routes for the application
func SetupRouter(opts Options) *gin.Engine {
	router := gin.New() // New router without default middleware for full control over middleware and logging

	router.Use(gin.Recovery())          // recover from panics
	router.Use(RequestLoggerMiddleware) // custom request logging
	if opts.Recorder != nil {
		router.Use(MetricsMiddleware(opts.Recorder))
	}
	if opts.RateLimiter != nil {
		router.Use(opts.RateLimiter.Middleware())
	}

	auctionHandler := handler.NewAuctionHandler(opts.BiddingService, opts.QueryService, opts.Broker, opts.ReconcileOnRead)
	notificationHandler := handler.NewNotificationHandler(opts.NotificationService)

	bids := router.Group("/bids")
	{
		bids.POST("", auctionHandler.PlaceBidHandler)
	}

	auctions := router.Group("/auctions")
	{
		auctions.POST("", auctionHandler.CreateAuctionHandler)
		auctions.POST("/:auction_id/cancel", auctionHandler.CancelAuctionHandler)
		auctions.GET("/:auction_id", auctionHandler.GetAuctionHandler)
		auctions.GET("/:auction_id/bids", auctionHandler.GetBidsHandler)
		auctions.GET("/:auction_id/stream", auctionHandler.StreamAuctionHandler)
	}

	router.GET("/dashboard", auctionHandler.DashboardHandler)

	users := router.Group("/users")
	{
		users.GET("/:user_id/notifications", notificationHandler.ListNotificationsHandler)
		users.POST("/:user_id/notifications/read-all", notificationHandler.MarkAllReadHandler)
	}

	router.POST("/notifications/:notification_id/read", notificationHandler.MarkReadHandler)

	if opts.Registry != nil {
		router.GET("/metrics", gin.WrapH(metrics.Handler(opts.Registry)))
	}

	return router
}
