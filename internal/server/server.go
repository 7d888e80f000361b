package server

import (
	"context"
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/shendeyogesh11/TicketBlitz/config"
	"github.com/shendeyogesh11/TicketBlitz/internal/handlers"
	"github.com/shendeyogesh11/TicketBlitz/internal/middleware"
	"github.com/shendeyogesh11/TicketBlitz/internal/stock"
)

func Start() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %v", err)
	}

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	db, err := config.InitDatabase(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %v", err)
	}

	rc := config.InitRedis(cfg)
	if err := rc.Ping(context.Background()).Err(); err != nil {
		logger.WithError(err).Warn("redis unreachable at startup, stock cache degraded")
	}

	engine := stock.NewEngine(
		logger,
		stock.NewSQLLedger(logger, db, cfg.LockTimeout),
		stock.NewSQLJournal(logger, db),
		stock.NewRedisCache(rc),
		stock.NewRedisPublisher(rc),
	)

	// Rebuild the advisory cache from the ledger so counts survive
	// restarts and redis flushes.
	if _, err := engine.ResyncAll(context.Background()); err != nil {
		logger.WithError(err).Warn("boot-time stock resync failed")
	}

	r := gin.Default()

	setupRoutes(r, db, engine)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	return r.Run(":" + port)
}

func setupRoutes(r *gin.Engine, db *gorm.DB, engine *stock.Engine) {
	r.Use(middleware.DatabaseMiddleware(db))
	r.Use(middleware.StockEngineMiddleware(engine))

	public := r.Group("/v1")
	{
		public.POST("/register", handlers.Register)
		public.POST("/login", handlers.Login)

		eventPublic := public.Group("/events")
		{
			eventPublic.GET("", handlers.ListEvents)
			eventPublic.GET("/:id", handlers.GetEvent)
		}

		public.GET("/stock/count/:eventId/:tierId", handlers.GetStockCount)
	}

	protected := r.Group("/v1")
	protected.Use(middleware.JWTAuthMiddleware())
	{
		protected.POST("/stock/purchase", handlers.PurchaseTicket)
		protected.GET("/orders/my-orders", handlers.MyOrders)
	}

	admin := r.Group("/v1")
	admin.Use(middleware.JWTAuthMiddleware(), middleware.RequireRole("admin"))
	{
		eventAdmin := admin.Group("/events")
		{
			eventAdmin.POST("", handlers.CreateEvent)
			eventAdmin.PUT("/:id", handlers.UpdateEvent)
			eventAdmin.DELETE("/:id", handlers.DeleteEvent)
		}

		adminStock := admin.Group("/admin")
		{
			adminStock.POST("/stock/resync", handlers.ResyncTier)
			adminStock.POST("/stock/resync-all", handlers.ResyncAll)
			adminStock.GET("/events/:id/orders", handlers.EventOrders)
		}
	}
}
