package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/shendeyogesh11/TicketBlitz/internal/middleware"
	"github.com/shendeyogesh11/TicketBlitz/internal/models"
	"github.com/shendeyogesh11/TicketBlitz/internal/stock"
)

func newStockRouter(t *testing.T, initialStock int) (*gin.Engine, uuid.UUID, uuid.UUID) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	ledger := stock.NewMemoryLedger(0)
	eventID, tierID := uuid.New(), uuid.New()
	ledger.AddTier(models.Tier{
		ID:             tierID,
		Name:           "General Admission",
		Price:          300,
		AvailableStock: initialStock,
		EventID:        eventID,
	})

	engine := stock.NewEngine(logger, ledger, ledger, stock.NewMemoryCache(), stock.NewMemoryPublisher())

	r := gin.New()
	r.Use(middleware.StockEngineMiddleware(engine))
	r.Use(func(c *gin.Context) {
		c.Set("user_email", "buyer@example.com")
	})
	r.POST("/v1/stock/purchase", PurchaseTicket)
	r.GET("/v1/stock/count/:eventId/:tierId", GetStockCount)
	r.GET("/v1/orders/my-orders", MyOrders)
	r.POST("/v1/admin/stock/resync", ResyncTier)

	return r, eventID, tierID
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestPurchaseEndpointHappyPath(t *testing.T) {
	r, eventID, tierID := newStockRouter(t, 10)

	w := doJSON(t, r, http.MethodPost, "/v1/stock/purchase", gin.H{
		"event_id": eventID,
		"tier_id":  tierID,
		"quantity": 2,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", w.Code, w.Body.String())
	}

	var result stock.Result
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatal(err)
	}
	if !result.Accepted || result.Remaining != 8 {
		t.Errorf("result = %+v, want accepted with remaining 8", result)
	}

	// The journal now holds the wallet entry.
	w = doJSON(t, r, http.MethodGet, "/v1/orders/my-orders", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("wallet status = %d, want 200", w.Code)
	}
	var orders []models.Order
	if err := json.Unmarshal(w.Body.Bytes(), &orders); err != nil {
		t.Fatal(err)
	}
	if len(orders) != 1 || orders[0].Quantity != 2 || orders[0].Total != 600 {
		t.Errorf("orders = %+v, want one of quantity 2 totalling 600", orders)
	}
}

func TestPurchaseEndpointDeclines(t *testing.T) {
	r, eventID, tierID := newStockRouter(t, 1)

	tests := []struct {
		name       string
		body       gin.H
		wantStatus int
	}{
		{"insufficient stock", gin.H{"event_id": eventID, "tier_id": tierID, "quantity": 2}, http.StatusConflict},
		{"unknown tier", gin.H{"event_id": eventID, "tier_id": uuid.New(), "quantity": 1}, http.StatusNotFound},
		{"zero quantity", gin.H{"event_id": eventID, "tier_id": tierID, "quantity": 0}, http.StatusBadRequest},
		{"missing fields", gin.H{"quantity": 1}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, r, http.MethodPost, "/v1/stock/purchase", tt.body)
			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d (body %s)", w.Code, tt.wantStatus, w.Body.String())
			}
		})
	}

	// The single unit is still there after every decline.
	w := doJSON(t, r, http.MethodGet, fmt.Sprintf("/v1/stock/count/%s/%s", eventID, tierID), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("count status = %d, want 200", w.Code)
	}
	var payload struct {
		Remaining int `json:"remaining"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &payload); err != nil {
		t.Fatal(err)
	}
	if payload.Remaining != 1 {
		t.Errorf("remaining = %d, want 1", payload.Remaining)
	}
}

func TestStockCountEndpoint(t *testing.T) {
	r, eventID, tierID := newStockRouter(t, 6)

	w := doJSON(t, r, http.MethodGet, fmt.Sprintf("/v1/stock/count/%s/%s", eventID, tierID), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	w = doJSON(t, r, http.MethodGet, fmt.Sprintf("/v1/stock/count/%s/%s", eventID, uuid.New()), nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown tier status = %d, want 404", w.Code)
	}

	w = doJSON(t, r, http.MethodGet, fmt.Sprintf("/v1/stock/count/not-a-uuid/%s", tierID), nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad id status = %d, want 400", w.Code)
	}
}

func TestResyncEndpointIsIdempotent(t *testing.T) {
	r, eventID, tierID := newStockRouter(t, 2)

	for i := 0; i < 2; i++ {
		w := doJSON(t, r, http.MethodPost, "/v1/admin/stock/resync", gin.H{
			"event_id": eventID,
			"tier_id":  tierID,
			"amount":   25,
		})
		if w.Code != http.StatusOK {
			t.Fatalf("resync %d status = %d, want 200 (body %s)", i+1, w.Code, w.Body.String())
		}
	}

	w := doJSON(t, r, http.MethodGet, fmt.Sprintf("/v1/stock/count/%s/%s", eventID, tierID), nil)
	var payload struct {
		Remaining int `json:"remaining"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &payload); err != nil {
		t.Fatal(err)
	}
	if payload.Remaining != 25 {
		t.Errorf("remaining = %d, want 25", payload.Remaining)
	}
}
