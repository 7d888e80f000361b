package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shendeyogesh11/TicketBlitz/internal/helpers"
	"github.com/shendeyogesh11/TicketBlitz/internal/middleware"
	"github.com/shendeyogesh11/TicketBlitz/internal/models"
)

type TierRequest struct {
	Name           string `json:"name" binding:"required"`
	Price          int    `json:"price" binding:"min=0"`
	Benefits       string `json:"benefits"`
	AvailableStock int    `json:"available_stock" binding:"min=0"`
}

type EventRequest struct {
	Title       string        `json:"title" binding:"required"`
	Description string        `json:"description" binding:"required"`
	Category    string        `json:"category"`
	ImageURL    string        `json:"image_url"`
	EventDate   time.Time     `json:"event_date" binding:"required"`
	VenueName   string        `json:"venue_name"`
	VenueCity   string        `json:"venue_city"`
	Tiers       []TierRequest `json:"tiers" binding:"required,min=1,dive"`
}

// CreateEvent authors an event together with its pricing structure and
// hydrates the stock cache so counts are readable before the first
// purchase.
func CreateEvent(c *gin.Context) {
	var req EventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. Please check your fields.")
		return
	}

	db, exists := c.Get("db")
	if !exists {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Database connection not found.")
		return
	}
	gormDB := db.(*gorm.DB)

	event := models.Event{
		ID:          uuid.New(),
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		ImageURL:    req.ImageURL,
		EventDate:   req.EventDate,
		VenueName:   req.VenueName,
		VenueCity:   req.VenueCity,
	}
	for _, t := range req.Tiers {
		event.Tiers = append(event.Tiers, models.Tier{
			ID:             uuid.New(),
			Name:           t.Name,
			Price:          t.Price,
			Benefits:       t.Benefits,
			AvailableStock: t.AvailableStock,
			EventID:        event.ID,
		})
	}

	if err := gormDB.Create(&event).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to create event.")
		return
	}

	if engine := middleware.GetStockEngine(c); engine != nil {
		engine.SyncTiers(c.Request.Context(), event.Tiers)
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Event created successfully.",
		"event":   event,
	})
}

func ListEvents(c *gin.Context) {
	db, exists := c.Get("db")
	if !exists {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Database connection not found.")
		return
	}
	gormDB := db.(*gorm.DB)

	var events []models.Event
	if err := gormDB.Preload("Tiers").Order("event_date ASC").Find(&events).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error retrieving events.")
		return
	}

	c.JSON(http.StatusOK, events)
}

func GetEvent(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid event ID.")
		return
	}

	db, exists := c.Get("db")
	if !exists {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Database connection not found.")
		return
	}
	gormDB := db.(*gorm.DB)

	var event models.Event
	if err := gormDB.Preload("Tiers").Where("id = ?", eventID).First(&event).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			helpers.RespondWithError(c, http.StatusNotFound, "Event not found.")
			return
		}
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error retrieving event.")
		return
	}

	c.JSON(http.StatusOK, event)
}

// UpdateEvent replaces the event's fields and its tier set in one
// transaction, then re-hydrates the cache with the fresh counts.
func UpdateEvent(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid event ID.")
		return
	}

	var req EventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. Please check your fields.")
		return
	}

	db, exists := c.Get("db")
	if !exists {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Database connection not found.")
		return
	}
	gormDB := db.(*gorm.DB)

	var event models.Event
	if err := gormDB.Preload("Tiers").Where("id = ?", eventID).First(&event).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			helpers.RespondWithError(c, http.StatusNotFound, "Event not found.")
			return
		}
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error retrieving event.")
		return
	}

	oldTierIDs := make([]uuid.UUID, 0, len(event.Tiers))
	for _, tier := range event.Tiers {
		oldTierIDs = append(oldTierIDs, tier.ID)
	}
	// Detach the loaded tiers so Save below touches only the event row.
	event.Tiers = nil

	newTiers := make([]models.Tier, 0, len(req.Tiers))
	for _, t := range req.Tiers {
		newTiers = append(newTiers, models.Tier{
			ID:             uuid.New(),
			Name:           t.Name,
			Price:          t.Price,
			Benefits:       t.Benefits,
			AvailableStock: t.AvailableStock,
			EventID:        event.ID,
		})
	}

	err = gormDB.Transaction(func(tx *gorm.DB) error {
		event.Title = req.Title
		event.Description = req.Description
		event.Category = req.Category
		event.ImageURL = req.ImageURL
		event.EventDate = req.EventDate
		event.VenueName = req.VenueName
		event.VenueCity = req.VenueCity
		if err := tx.Save(&event).Error; err != nil {
			return err
		}

		if err := tx.Unscoped().Where("event_id = ?", event.ID).Delete(&models.Tier{}).Error; err != nil {
			return err
		}
		return tx.Create(&newTiers).Error
	})
	if err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to update event.")
		return
	}
	event.Tiers = newTiers

	if engine := middleware.GetStockEngine(c); engine != nil {
		engine.SwapTiers(c.Request.Context(), event.ID, oldTierIDs, event.Tiers)
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Event updated successfully.",
		"event":   event,
	})
}

// DeleteEvent removes the event, its tiers and its orders in one
// transaction, then drops the tiers' cache entries.
func DeleteEvent(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid event ID.")
		return
	}

	db, exists := c.Get("db")
	if !exists {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Database connection not found.")
		return
	}
	gormDB := db.(*gorm.DB)

	var event models.Event
	if err := gormDB.Preload("Tiers").Where("id = ?", eventID).First(&event).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			helpers.RespondWithError(c, http.StatusNotFound, "Event not found.")
			return
		}
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error retrieving event.")
		return
	}

	tierIDs := make([]uuid.UUID, 0, len(event.Tiers))
	for _, tier := range event.Tiers {
		tierIDs = append(tierIDs, tier.ID)
	}

	err = gormDB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("event_id = ?", eventID).Delete(&models.Order{}).Error; err != nil {
			return err
		}
		if err := tx.Unscoped().Where("event_id = ?", eventID).Delete(&models.Tier{}).Error; err != nil {
			return err
		}
		return tx.Unscoped().Delete(&event).Error
	})
	if err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to delete event.")
		return
	}

	if engine := middleware.GetStockEngine(c); engine != nil {
		engine.Forget(c.Request.Context(), eventID, tierIDs)
	}

	c.JSON(http.StatusOK, gin.H{"message": "Event deleted successfully."})
}
