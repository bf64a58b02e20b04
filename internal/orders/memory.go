package orders

import (
	"context"
	"sort"
	"sync"
	"time"
)

var _ Store = (*MemoryStore)(nil)

type lineKey struct {
	orderID   int64
	productID int64
}

// MemoryStore implements Store with plain maps. It backs the unit
// tests and the CLI's "memory" backend. Transactions work on a copy of
// the maps that is swapped in on commit, so a failed load leaves the
// store untouched.
type MemoryStore struct {
	mu       sync.Mutex
	users    map[int64]User
	products map[int64]Product
	orders   map[int64]Order
	lines    map[lineKey]int
}

func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{}
	s.reset()
	return s
}

func (s *MemoryStore) reset() {
	s.users = map[int64]User{}
	s.products = map[int64]Product{}
	s.orders = map[int64]Order{}
	s.lines = map[lineKey]int{}
}

func (s *MemoryStore) Init(ctx context.Context) error {
	return nil
}

func (s *MemoryStore) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}

func (s *MemoryStore) ExecuteTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memTx{
		users:    make(map[int64]User, len(s.users)),
		products: make(map[int64]Product, len(s.products)),
		orders:   make(map[int64]Order, len(s.orders)),
		lines:    make(map[lineKey]int, len(s.lines)),
	}
	for id, u := range s.users {
		tx.users[id] = u
	}
	for id, p := range s.products {
		tx.products[id] = p
	}
	for id, o := range s.orders {
		tx.orders[id] = o
	}
	for k, q := range s.lines {
		tx.lines[k] = q
	}

	if err := fn(ctx, tx); err != nil {
		return err
	}

	s.users = tx.users
	s.products = tx.products
	s.orders = tx.orders
	s.lines = tx.lines
	return nil
}

type memTx struct {
	users    map[int64]User
	products map[int64]Product
	orders   map[int64]Order
	lines    map[lineKey]int
}

func (t *memTx) UpsertUser(ctx context.Context, u User) error {
	if _, ok := t.users[u.ID]; !ok {
		t.users[u.ID] = u
	}
	return nil
}

func (t *memTx) UpsertProduct(ctx context.Context, p Product) error {
	if _, ok := t.products[p.ID]; !ok {
		t.products[p.ID] = p
	}
	return nil
}

func (t *memTx) InsertOrder(ctx context.Context, o Order) (bool, error) {
	if _, ok := t.orders[o.ID]; ok {
		return false, nil
	}
	t.orders[o.ID] = o
	return true, nil
}

func (t *memTx) InsertOrderLine(ctx context.Context, l OrderLine) (bool, error) {
	k := lineKey{orderID: l.OrderID, productID: l.ProductID}
	if _, ok := t.lines[k]; ok {
		return false, nil
	}
	t.lines[k] = l.Quantity
	return true, nil
}

func (s *MemoryStore) OrdersInRange(ctx context.Context, start, end time.Time) ([]OrderSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	summaries := []OrderSummary{}
	for _, o := range s.orders {
		if o.CreatedAt.Before(start) || o.CreatedAt.After(end) {
			continue
		}
		sum := OrderSummary{
			ID:        o.ID,
			CreatedAt: o.CreatedAt,
			User:      s.users[o.UserID],
		}
		for k, q := range s.lines {
			if k.orderID == o.ID {
				sum.Lines = append(sum.Lines, OrderLine{OrderID: o.ID, ProductID: k.productID, Quantity: q})
			}
		}
		sort.Slice(sum.Lines, func(i, j int) bool {
			return sum.Lines[i].ProductID < sum.Lines[j].ProductID
		})
		summaries = append(summaries, sum)
	}

	sort.Slice(summaries, func(i, j int) bool {
		if !summaries[i].CreatedAt.Equal(summaries[j].CreatedAt) {
			return summaries[i].CreatedAt.Before(summaries[j].CreatedAt)
		}
		return summaries[i].ID < summaries[j].ID
	})
	return summaries, nil
}

func (s *MemoryStore) TopUsersByPurchaseCount(ctx context.Context, n int) ([]UserPurchases, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	totals := map[int64]int64{}
	for k, q := range s.lines {
		order, ok := s.orders[k.orderID]
		if !ok {
			continue
		}
		totals[order.UserID] += int64(q)
	}

	top := []UserPurchases{}
	for userID, count := range totals {
		top = append(top, UserPurchases{User: s.users[userID], PurchaseCount: count})
	}
	sort.Slice(top, func(i, j int) bool {
		if top[i].PurchaseCount != top[j].PurchaseCount {
			return top[i].PurchaseCount > top[j].PurchaseCount
		}
		return top[i].User.ID < top[j].User.ID
	})

	if n < len(top) {
		top = top[:n]
	}
	return top, nil
}

// Counts reports the row count of each table, used by tests to assert
// idempotence.
func (s *MemoryStore) Counts() (users, products, orders, lines int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users), len(s.products), len(s.orders), len(s.lines)
}
