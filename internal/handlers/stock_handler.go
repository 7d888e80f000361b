package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/shendeyogesh11/TicketBlitz/internal/helpers"
	"github.com/shendeyogesh11/TicketBlitz/internal/middleware"
	"github.com/shendeyogesh11/TicketBlitz/internal/stock"
)

type PurchaseRequest struct {
	EventID  uuid.UUID `json:"event_id" binding:"required"`
	TierID   uuid.UUID `json:"tier_id" binding:"required"`
	Quantity int       `json:"quantity" binding:"required,min=1"`
}

type ResyncRequest struct {
	EventID uuid.UUID `json:"event_id" binding:"required"`
	TierID  uuid.UUID `json:"tier_id" binding:"required"`
	Amount  int       `json:"amount" binding:"min=0"`
}

// PurchaseTicket runs the atomic purchase handshake through the stock
// engine. Declines come back with the HTTP status that matches their
// reason; only system faults are 500s.
func PurchaseTicket(c *gin.Context) {
	var req PurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. Please check your fields.")
		return
	}

	email, exists := c.Get("user_email")
	if !exists {
		helpers.RespondWithError(c, http.StatusUnauthorized, "User not authenticated.")
		return
	}
	buyerID := email.(string)

	engine := middleware.GetStockEngine(c)
	if engine == nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Stock engine not found.")
		return
	}

	result, err := engine.Reserve(c.Request.Context(), req.EventID, req.TierID, buyerID, req.Quantity)
	if err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Purchase could not be processed.")
		return
	}

	switch result.Reason {
	case stock.ReasonNotFound:
		helpers.RespondWithError(c, http.StatusNotFound, "Event or tier not found.")
		return
	case stock.ReasonInsufficientStock:
		c.JSON(http.StatusConflict, result)
		return
	case stock.ReasonBusy:
		c.Header("Retry-After", "1")
		c.JSON(http.StatusServiceUnavailable, result)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetStockCount serves the remaining count for a tier, cache-first
// with a ledger fallback.
func GetStockCount(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("eventId"))
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid event ID.")
		return
	}
	tierID, err := uuid.Parse(c.Param("tierId"))
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid tier ID.")
		return
	}

	engine := middleware.GetStockEngine(c)
	if engine == nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Stock engine not found.")
		return
	}

	remaining, err := engine.Remaining(c.Request.Context(), eventID, tierID)
	if err != nil {
		if stock.IsNotFound(err) {
			helpers.RespondWithError(c, http.StatusNotFound, "Event or tier not found.")
			return
		}
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error retrieving stock count.")
		return
	}

	c.JSON(http.StatusOK, gin.H{"remaining": remaining})
}

// MyOrders returns the caller's wallet from the order journal.
func MyOrders(c *gin.Context) {
	email, exists := c.Get("user_email")
	if !exists {
		helpers.RespondWithError(c, http.StatusUnauthorized, "User not authenticated.")
		return
	}

	engine := middleware.GetStockEngine(c)
	if engine == nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Stock engine not found.")
		return
	}

	orders, err := engine.Orders().ByBuyer(c.Request.Context(), email.(string))
	if err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error retrieving orders.")
		return
	}

	c.JSON(http.StatusOK, orders)
}

// EventOrders lists every committed order for an event (admin
// reporting).
func EventOrders(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid event ID.")
		return
	}

	engine := middleware.GetStockEngine(c)
	if engine == nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Stock engine not found.")
		return
	}

	orders, err := engine.Orders().ByEvent(c.Request.Context(), eventID)
	if err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error retrieving orders.")
		return
	}

	c.JSON(http.StatusOK, orders)
}

// ResyncTier sets a tier's stock to an absolute value and forces the
// cache to match the ledger.
func ResyncTier(c *gin.Context) {
	var req ResyncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. Please check your fields.")
		return
	}

	engine := middleware.GetStockEngine(c)
	if engine == nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Stock engine not found.")
		return
	}

	if err := engine.ResyncTier(c.Request.Context(), req.EventID, req.TierID, req.Amount); err != nil {
		if stock.IsNotFound(err) {
			helpers.RespondWithError(c, http.StatusNotFound, "Event or tier not found.")
			return
		}
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to resync tier stock.")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Tier stock resynced successfully."})
}

// ResyncAll rebuilds the whole stock cache from the ledger.
func ResyncAll(c *gin.Context) {
	engine := middleware.GetStockEngine(c)
	if engine == nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Stock engine not found.")
		return
	}

	count, err := engine.ResyncAll(c.Request.Context())
	if err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to resync stock cache.")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Stock cache resynced successfully.",
		"tiers":   count,
	})
}
