package stock

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/shendeyogesh11/TicketBlitz/internal/models"
)

func seededLedger(t *testing.T, stock int, lockTimeout time.Duration) (*MemoryLedger, uuid.UUID, uuid.UUID) {
	t.Helper()
	ledger := NewMemoryLedger(lockTimeout)
	eventID, tierID := uuid.New(), uuid.New()
	ledger.AddTier(models.Tier{
		ID:             tierID,
		Name:           "VIP",
		Price:          250,
		AvailableStock: stock,
		EventID:        eventID,
	})
	return ledger, eventID, tierID
}

func TestMemoryLedgerReserveFillsSnapshot(t *testing.T) {
	ledger, eventID, tierID := seededLedger(t, 10, 0)

	order := models.Order{BuyerID: "buyer@example.com", Quantity: 3}
	remaining, err := ledger.Reserve(context.Background(), eventID, tierID, 3, &order)
	if err != nil {
		t.Fatal(err)
	}
	if remaining != 7 {
		t.Errorf("remaining = %d, want 7", remaining)
	}
	if order.TierName != "VIP" || order.UnitPrice != 250 || order.Total != 750 {
		t.Errorf("snapshot = %q/%d/%d, want VIP/250/750", order.TierName, order.UnitPrice, order.Total)
	}
	if order.EventID != eventID || order.TierID != tierID {
		t.Error("order not linked to its event and tier")
	}
	if order.ID == uuid.Nil || order.CreatedAt.IsZero() {
		t.Error("order id or timestamp not assigned")
	}
}

func TestMemoryLedgerReserveErrors(t *testing.T) {
	tests := []struct {
		name     string
		stock    int
		qty      int
		badTier  bool
		badEvent bool
		want     error
	}{
		{"insufficient", 2, 3, false, false, ErrInsufficientStock},
		{"unknown tier", 2, 1, true, false, ErrTierNotFound},
		{"tier under another event", 2, 1, false, true, ErrEventNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ledger, eventID, tierID := seededLedger(t, tt.stock, 0)
			if tt.badTier {
				tierID = uuid.New()
			}
			if tt.badEvent {
				eventID = uuid.New()
			}

			order := models.Order{BuyerID: "buyer@example.com", Quantity: tt.qty}
			_, err := ledger.Reserve(context.Background(), eventID, tierID, tt.qty, &order)
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}

			if orders, _ := ledger.ByEvent(context.Background(), eventID); len(orders) != 0 {
				t.Errorf("failed reserve persisted %d orders", len(orders))
			}
		})
	}
}

func TestMemoryLedgerBoundedLockWait(t *testing.T) {
	ledger, eventID, tierID := seededLedger(t, 5, 20*time.Millisecond)

	release := ledger.LockTier(tierID)

	order := models.Order{BuyerID: "buyer@example.com", Quantity: 1}
	start := time.Now()
	_, err := ledger.Reserve(context.Background(), eventID, tierID, 1, &order)
	if !errors.Is(err, ErrBusy) {
		t.Fatalf("err = %v, want ErrBusy", err)
	}
	if waited := time.Since(start); waited > time.Second {
		t.Errorf("lock wait took %v, should have timed out around 20ms", waited)
	}

	release()

	// Once the holder releases, the same reservation goes through.
	if _, err := ledger.Reserve(context.Background(), eventID, tierID, 1, &order); err != nil {
		t.Fatalf("post-release reserve failed: %v", err)
	}
}

func TestMemoryLedgerResync(t *testing.T) {
	ledger, eventID, tierID := seededLedger(t, 5, 0)

	if err := ledger.Resync(context.Background(), eventID, tierID, 100); err != nil {
		t.Fatal(err)
	}
	tier, err := ledger.Tier(context.Background(), eventID, tierID)
	if err != nil {
		t.Fatal(err)
	}
	if tier.AvailableStock != 100 {
		t.Errorf("stock = %d, want 100", tier.AvailableStock)
	}

	if err := ledger.Resync(context.Background(), eventID, uuid.New(), 10); !errors.Is(err, ErrTierNotFound) {
		t.Errorf("unknown tier: err = %v, want ErrTierNotFound", err)
	}
	if err := ledger.Resync(context.Background(), uuid.New(), tierID, 10); !errors.Is(err, ErrEventNotFound) {
		t.Errorf("wrong event: err = %v, want ErrEventNotFound", err)
	}
}

func TestMemoryLedgerTierEventMismatch(t *testing.T) {
	ledger, _, tierID := seededLedger(t, 5, 0)

	if _, err := ledger.Tier(context.Background(), uuid.New(), tierID); !errors.Is(err, ErrEventNotFound) {
		t.Errorf("err = %v, want ErrEventNotFound", err)
	}
}

func TestMemoryLedgerTiersSnapshot(t *testing.T) {
	ledger, _, _ := seededLedger(t, 5, 0)
	ledger.AddTier(models.Tier{Name: "GA", Price: 50, AvailableStock: 9, EventID: uuid.New()})

	tiers, err := ledger.Tiers(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(tiers) != 2 {
		t.Fatalf("tiers = %d, want 2", len(tiers))
	}

	// Mutating the returned slice must not leak into the ledger.
	tiers[0].AvailableStock = -999
	fresh, _ := ledger.Tiers(context.Background())
	for _, tier := range fresh {
		if tier.AvailableStock < 0 {
			t.Error("ledger state mutated through Tiers result")
		}
	}
}
