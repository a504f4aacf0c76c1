package service

import (
	"context"
	"sort"
	"strconv"
	"time"

	"github.com/qloteam/Qloset-sub000/internal/models"
	"github.com/qloteam/Qloset-sub000/internal/store"
)

// fakeStore is an in-memory Store/CatalogStore. WithTx snapshots the
// whole state before running the closure and restores it on error, so
// rollback semantics match the real transaction.
type fakeStore struct {
	state *fakeState
}

type fakeState struct {
	products     map[int64]*models.Product
	variants     map[int64]*models.Variant
	users        map[string]int64
	addresses    map[int64]*models.Address
	orders       map[int64]*models.Order
	items        map[int64][]models.OrderItem
	reservations map[int64][]models.StockReservation
	nextID       int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{state: &fakeState{
		products:     map[int64]*models.Product{},
		variants:     map[int64]*models.Variant{},
		users:        map[string]int64{},
		addresses:    map[int64]*models.Address{},
		orders:       map[int64]*models.Order{},
		items:        map[int64][]models.OrderItem{},
		reservations: map[int64][]models.StockReservation{},
		nextID:       1000,
	}}
}

func (f *fakeStore) addProduct(id int64, salePrice int64) {
	f.state.products[id] = &models.Product{
		ID: id, Title: "Test Product", Slug: "test-product",
		PriceMRP: salePrice + 100, PriceSale: salePrice, Active: true,
	}
}

func (f *fakeStore) addVariant(id, productID int64, stock int) {
	f.state.variants[id] = &models.Variant{
		ID: id, ProductID: productID, Size: "M",
		SKU: "SKU-" + strconv.FormatInt(id, 10), StockQty: stock,
	}
}

func (f *fakeStore) stockOf(variantID int64) int {
	return f.state.variants[variantID].StockQty
}

func (f *fakeStore) reservationsOf(orderID int64) []models.StockReservation {
	return f.state.reservations[orderID]
}

func (s *fakeState) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *fakeState) clone() *fakeState {
	c := &fakeState{
		products:     map[int64]*models.Product{},
		variants:     map[int64]*models.Variant{},
		users:        map[string]int64{},
		addresses:    map[int64]*models.Address{},
		orders:       map[int64]*models.Order{},
		items:        map[int64][]models.OrderItem{},
		reservations: map[int64][]models.StockReservation{},
		nextID:       s.nextID,
	}
	for k, v := range s.products {
		cp := *v
		c.products[k] = &cp
	}
	for k, v := range s.variants {
		cp := *v
		c.variants[k] = &cp
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.addresses {
		cp := *v
		c.addresses[k] = &cp
	}
	for k, v := range s.orders {
		cp := *v
		c.orders[k] = &cp
	}
	for k, v := range s.items {
		c.items[k] = append([]models.OrderItem(nil), v...)
	}
	for k, v := range s.reservations {
		c.reservations[k] = append([]models.StockReservation(nil), v...)
	}
	return c
}

func (f *fakeStore) WithTx(ctx context.Context, fn func(tx store.OrderTx) error) error {
	backup := f.state.clone()
	if err := fn(&fakeTx{state: f.state}); err != nil {
		f.state = backup
		return err
	}
	return nil
}

func (f *fakeStore) GetOrderByID(ctx context.Context, id int64) (*models.Order, error) {
	o, ok := f.state.orders[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (f *fakeStore) GetOrderItems(ctx context.Context, orderID int64) ([]models.OrderItem, error) {
	return append([]models.OrderItem(nil), f.state.items[orderID]...), nil
}

func (f *fakeStore) ListOrders(ctx context.Context) ([]models.Order, error) {
	var out []models.Order
	for _, o := range f.state.orders {
		out = append(out, *o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (f *fakeStore) ExpiredPendingOrderIDs(ctx context.Context, now time.Time) ([]int64, error) {
	var ids []int64
	for orderID, res := range f.state.reservations {
		order, ok := f.state.orders[orderID]
		if !ok || order.Status != models.OrderStatusPending {
			continue
		}
		for _, r := range res {
			if r.ExpiresAt.Before(now) {
				ids = append(ids, orderID)
				break
			}
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (f *fakeStore) GetProducts(ctx context.Context) ([]models.Product, error) {
	var out []models.Product
	for _, p := range f.state.products {
		if p.Active {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeStore) GetProductByID(ctx context.Context, id int64) (*models.Product, error) {
	p, ok := f.state.products[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *p
	cp.Variants = f.state.variantsOf(id)
	return &cp, nil
}

func (f *fakeStore) GetVariantsByProduct(ctx context.Context, productID int64) ([]models.Variant, error) {
	return f.state.variantsOf(productID), nil
}

func (s *fakeState) variantsOf(productID int64) []models.Variant {
	var out []models.Variant
	for _, v := range s.variants {
		if v.ProductID == productID {
			cp := *v
			if p, ok := s.products[productID]; ok {
				cp.SalePrice = p.PriceSale
			}
			out = append(out, cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// fakeTx implements store.OrderTx against the live state; rollback is
// handled by fakeStore.WithTx.
type fakeTx struct {
	state *fakeState
}

func (t *fakeTx) VariantsByIDs(ctx context.Context, ids []int64) ([]models.Variant, error) {
	var out []models.Variant
	for _, id := range ids {
		v, ok := t.state.variants[id]
		if !ok {
			continue
		}
		cp := *v
		if p, ok := t.state.products[v.ProductID]; ok {
			cp.SalePrice = p.PriceSale
		}
		out = append(out, cp)
	}
	return out, nil
}

func (t *fakeTx) DecrementStock(ctx context.Context, variantID int64, qty int) (bool, error) {
	v, ok := t.state.variants[variantID]
	if !ok || v.StockQty < qty {
		return false, nil
	}
	v.StockQty -= qty
	return true, nil
}

func (t *fakeTx) IncrementStock(ctx context.Context, variantID int64, qty int) error {
	if v, ok := t.state.variants[variantID]; ok {
		v.StockQty += qty
	}
	return nil
}

func (t *fakeTx) UpsertUser(ctx context.Context, phone string) (int64, error) {
	if id, ok := t.state.users[phone]; ok {
		return id, nil
	}
	id := t.state.id()
	t.state.users[phone] = id
	return id, nil
}

func (t *fakeTx) CreateAddress(ctx context.Context, addr *models.Address) error {
	addr.ID = t.state.id()
	cp := *addr
	t.state.addresses[addr.ID] = &cp
	return nil
}

func (t *fakeTx) CreateOrder(ctx context.Context, order *models.Order) error {
	order.ID = t.state.id()
	order.CreatedAt = time.Now()
	order.UpdatedAt = order.CreatedAt
	cp := *order
	t.state.orders[order.ID] = &cp
	return nil
}

func (t *fakeTx) CreateOrderItem(ctx context.Context, item *models.OrderItem) error {
	item.ID = t.state.id()
	t.state.items[item.OrderID] = append(t.state.items[item.OrderID], *item)
	return nil
}

func (t *fakeTx) CreateReservation(ctx context.Context, res *models.StockReservation) error {
	res.ID = t.state.id()
	t.state.reservations[res.OrderID] = append(t.state.reservations[res.OrderID], *res)
	return nil
}

func (t *fakeTx) ReservationsByOrder(ctx context.Context, orderID int64) ([]models.StockReservation, error) {
	return append([]models.StockReservation(nil), t.state.reservations[orderID]...), nil
}

func (t *fakeTx) DeleteReservations(ctx context.Context, orderID int64) error {
	delete(t.state.reservations, orderID)
	return nil
}

func (t *fakeTx) OrderByID(ctx context.Context, orderID int64) (*models.Order, error) {
	o, ok := t.state.orders[orderID]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (t *fakeTx) OrderItemsByOrder(ctx context.Context, orderID int64) ([]models.OrderItem, error) {
	return append([]models.OrderItem(nil), t.state.items[orderID]...), nil
}

func (t *fakeTx) TransitionOrder(ctx context.Context, orderID int64, from, to string) (bool, error) {
	o, ok := t.state.orders[orderID]
	if !ok || o.Status != from {
		return false, nil
	}
	o.Status = to
	o.UpdatedAt = time.Now()
	return true, nil
}

func (t *fakeTx) VariantsByProduct(ctx context.Context, productID int64) ([]models.Variant, error) {
	return t.state.variantsOf(productID), nil
}

func (t *fakeTx) SetVariantStock(ctx context.Context, variantID int64, qty int) error {
	if v, ok := t.state.variants[variantID]; ok {
		v.StockQty = qty
	}
	return nil
}

func (t *fakeTx) CreateVariant(ctx context.Context, v *models.Variant) error {
	v.ID = t.state.id()
	cp := *v
	t.state.variants[v.ID] = &cp
	return nil
}

func (t *fakeTx) ProductByID(ctx context.Context, productID int64) (*models.Product, error) {
	p, ok := t.state.products[productID]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

// fakePublisher records published events by type
type fakePublisher struct {
	events []string
}

func (p *fakePublisher) PublishOrderCreated(ctx context.Context, e *models.OrderCreatedEvent) error {
	p.events = append(p.events, e.EventType)
	return nil
}

func (p *fakePublisher) PublishOrderConfirmed(ctx context.Context, e *models.OrderConfirmedEvent) error {
	p.events = append(p.events, e.EventType)
	return nil
}

func (p *fakePublisher) PublishOrderCancelled(ctx context.Context, e *models.OrderCancelledEvent) error {
	p.events = append(p.events, e.EventType)
	return nil
}

func (p *fakePublisher) PublishReservationExpired(ctx context.Context, e *models.ReservationExpiredEvent) error {
	p.events = append(p.events, e.EventType)
	return nil
}

// fakeCache records stock snapshot writes
type fakeCache struct {
	stock map[int64]int
}

func newFakeCache() *fakeCache {
	return &fakeCache{stock: map[int64]int{}}
}

func (c *fakeCache) SetStock(ctx context.Context, variantID int64, qty int) error {
	c.stock[variantID] = qty
	return nil
}
