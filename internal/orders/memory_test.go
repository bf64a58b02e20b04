package orders

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryStoreTxRollsBackOnError(t *testing.T) {
	store := NewMemoryStore()
	boom := errors.New("boom")

	err := store.ExecuteTx(context.Background(), func(ctx context.Context, tx Tx) error {
		if err := tx.UpsertUser(ctx, User{ID: 1, Name: "Alice", City: "Prague"}); err != nil {
			return err
		}
		if _, err := tx.InsertOrder(ctx, Order{ID: 1, UserID: 1, CreatedAt: time.Now().UTC()}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected the callback error, got %v", err)
	}

	users, products, orders, lines := store.Counts()
	if users+products+orders+lines != 0 {
		t.Fatalf("writes survived a failed transaction: (%d,%d,%d,%d)", users, products, orders, lines)
	}
}

func TestMemoryStoreUpsertKeepsFirstRow(t *testing.T) {
	store := NewMemoryStore()

	err := store.ExecuteTx(context.Background(), func(ctx context.Context, tx Tx) error {
		if err := tx.UpsertUser(ctx, User{ID: 1, Name: "Alice", City: "Prague"}); err != nil {
			return err
		}
		return tx.UpsertUser(ctx, User{ID: 1, Name: "Someone Else", City: "Brno"})
	})
	if err != nil {
		t.Fatalf("ExecuteTx failed: %v", err)
	}

	err = store.ExecuteTx(context.Background(), func(ctx context.Context, tx Tx) error {
		if _, err := tx.InsertOrder(ctx, Order{ID: 1, UserID: 1, CreatedAt: time.Date(2018, 10, 20, 0, 0, 0, 0, time.UTC)}); err != nil {
			return err
		}
		_, err := tx.InsertOrderLine(ctx, OrderLine{OrderID: 1, ProductID: 1, Quantity: 1})
		return err
	})
	if err != nil {
		t.Fatalf("ExecuteTx failed: %v", err)
	}

	result, err := store.OrdersInRange(context.Background(),
		time.Date(2018, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("OrdersInRange failed: %v", err)
	}
	if len(result) != 1 || result[0].User.Name != "Alice" {
		t.Fatalf("result = %+v, want the first Alice row", result)
	}
}

func TestMemoryStoreReset(t *testing.T) {
	store := NewMemoryStore()

	err := store.ExecuteTx(context.Background(), func(ctx context.Context, tx Tx) error {
		return tx.UpsertUser(ctx, User{ID: 1, Name: "Alice", City: "Prague"})
	})
	if err != nil {
		t.Fatalf("ExecuteTx failed: %v", err)
	}

	if err := store.Reset(context.Background()); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	users, _, _, _ := store.Counts()
	if users != 0 {
		t.Fatalf("users = %d after reset, want 0", users)
	}
}
