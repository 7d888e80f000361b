package middleware

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/shendeyogesh11/TicketBlitz/internal/stock"
)

func DatabaseMiddleware(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("db", db)
		c.Next()
	}
}

func StockEngineMiddleware(engine *stock.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("stock_engine", engine)
		c.Next()
	}
}

func GetStockEngine(c *gin.Context) *stock.Engine {
	engine, exists := c.Get("stock_engine")
	if !exists {
		return nil
	}
	return engine.(*stock.Engine)
}
