package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"shop/internal/domain/model"
	"shop/internal/payment"
	repo "shop/internal/repository"
)

// memStore はテスト用のインメモリ実装。
// ロックの直列化はテストでは不要なので、整合性チェック（intentユニーク等）だけ再現する。
type memStore struct {
	mu sync.Mutex

	orders      map[int64]model.Order
	nextOrderID int64

	orderItems map[int64][]model.OrderItem

	events      []model.OrderStatusEvent
	nextEventID int64

	products map[int64]model.Product

	carts      map[int64]model.Cart
	nextCartID int64
	cartItems  map[int64][]model.CartItem
}

func newMemStore() *memStore {
	return &memStore{
		orders:     map[int64]model.Order{},
		orderItems: map[int64][]model.OrderItem{},
		products:   map[int64]model.Product{},
		carts:      map[int64]model.Cart{},
		cartItems:  map[int64][]model.CartItem{},
	}
}

func (s *memStore) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	return fn(&memTxRepos{s: s})
}

func (s *memStore) addProduct(p model.Product) {
	s.products[p.ID] = p
}

func (s *memStore) addCartWithItems(userID int64, items ...model.CartItem) int64 {
	s.nextCartID++
	id := s.nextCartID
	s.carts[id] = model.Cart{ID: id, UserID: userID, Status: model.CartStatusActive}
	for i := range items {
		items[i].CartID = id
	}
	s.cartItems[id] = items
	return id
}

func (s *memStore) eventsFor(orderID int64) []model.OrderStatusEvent {
	var out []model.OrderStatusEvent
	for _, ev := range s.events {
		if ev.OrderID == orderID {
			out = append(out, ev)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (s *memStore) intentTaken(intentID string, exceptOrderID int64) bool {
	for id, o := range s.orders {
		if id == exceptOrderID {
			continue
		}
		if o.PaymentIntentID != nil && *o.PaymentIntentID == intentID {
			return true
		}
	}
	return false
}

type memTxRepos struct{ s *memStore }

func (r *memTxRepos) Orders() repo.OrderRepository                       { return &memOrderRepo{r.s} }
func (r *memTxRepos) OrderItems() repo.OrderItemRepository               { return &memOrderItemRepo{r.s} }
func (r *memTxRepos) OrderStatusEvents() repo.OrderStatusEventRepository { return &memEventRepo{r.s} }
func (r *memTxRepos) Carts() repo.CartRepository                         { return &memCartRepo{r.s} }
func (r *memTxRepos) CartItems() repo.CartItemRepository                 { return &memCartItemRepo{r.s} }
func (r *memTxRepos) Products() repo.ProductRepository                   { return &memProductRepo{r.s} }

type memOrderRepo struct{ s *memStore }

func (r *memOrderRepo) FindByID(ctx context.Context, orderID int64) (model.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.s.orders[orderID]
	if !ok {
		return model.Order{}, repo.ErrNotFound
	}
	return o, nil
}

func (r *memOrderRepo) FindByIDForUpdate(ctx context.Context, orderID int64) (model.Order, error) {
	return r.FindByID(ctx, orderID)
}

func (r *memOrderRepo) Create(ctx context.Context, order model.Order) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if order.PaymentIntentID != nil && r.s.intentTaken(*order.PaymentIntentID, 0) {
		return 0, repo.ErrDuplicate
	}
	r.s.nextOrderID++
	order.ID = r.s.nextOrderID
	r.s.orders[order.ID] = order
	return order.ID, nil
}

func (r *memOrderRepo) Save(ctx context.Context, order model.Order) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.orders[order.ID]; !ok {
		return repo.ErrNotFound
	}
	if order.PaymentIntentID != nil && r.s.intentTaken(*order.PaymentIntentID, order.ID) {
		return repo.ErrDuplicate
	}
	r.s.orders[order.ID] = order
	return nil
}

func (r *memOrderRepo) ListByUserID(ctx context.Context, userID int64, page int, limit int) ([]model.Order, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.Order
	for _, o := range r.s.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, int64(len(out)), nil
}

func (r *memOrderRepo) FindReusableCheckout(ctx context.Context, userID int64, fingerprint string) (model.Order, bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var found model.Order
	ok := false
	for _, o := range r.s.orders {
		if o.UserID == userID &&
			o.CheckoutFingerprint == fingerprint &&
			o.Status == model.OrderStatusPending &&
			o.PaymentIntentID != nil {
			if !ok || o.ID > found.ID {
				found, ok = o, true
			}
		}
	}
	return found, ok, nil
}

func (r *memOrderRepo) ListAdmin(ctx context.Context, f repo.AdminOrderListFilter) ([]model.Order, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.Order
	for _, o := range r.s.orders {
		if f.Status != "" && string(o.Status) != f.Status {
			continue
		}
		if f.UserID != nil && o.UserID != *f.UserID {
			continue
		}
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, int64(len(out)), nil
}

type memOrderItemRepo struct{ s *memStore }

func (r *memOrderItemRepo) CreateBulk(ctx context.Context, orderID int64, items []model.OrderItem) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i := range items {
		items[i].OrderID = orderID
	}
	r.s.orderItems[orderID] = append(r.s.orderItems[orderID], items...)
	return nil
}

func (r *memOrderItemRepo) ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return append([]model.OrderItem{}, r.s.orderItems[orderID]...), nil
}

type memEventRepo struct{ s *memStore }

func (r *memEventRepo) Create(ctx context.Context, ev model.OrderStatusEvent) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.nextEventID++
	ev.ID = r.s.nextEventID
	r.s.events = append(r.s.events, ev)
	return nil
}

func (r *memEventRepo) ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderStatusEvent, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.eventsFor(orderID), nil
}

type memCartRepo struct{ s *memStore }

func (r *memCartRepo) FindActiveByUserID(ctx context.Context, userID int64) (model.Cart, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, c := range r.s.carts {
		if c.UserID == userID && c.Status == model.CartStatusActive {
			return c, nil
		}
	}
	return model.Cart{}, repo.ErrNotFound
}

func (r *memCartRepo) GetOrCreateActiveByUserID(ctx context.Context, userID int64) (model.Cart, error) {
	if c, err := r.FindActiveByUserID(ctx, userID); err == nil {
		return c, nil
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.nextCartID++
	c := model.Cart{ID: r.s.nextCartID, UserID: userID, Status: model.CartStatusActive}
	r.s.carts[c.ID] = c
	return c, nil
}

func (r *memCartRepo) UpdateStatus(ctx context.Context, cartID int64, status model.CartStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.carts[cartID]
	if !ok {
		return repo.ErrNotFound
	}
	c.Status = status
	r.s.carts[cartID] = c
	return nil
}

func (r *memCartRepo) Clear(ctx context.Context, cartID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.cartItems[cartID] = nil
	return nil
}

type memCartItemRepo struct{ s *memStore }

func (r *memCartItemRepo) ListByCartID(ctx context.Context, cartID int64) ([]model.CartItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return append([]model.CartItem{}, r.s.cartItems[cartID]...), nil
}

func (r *memCartItemRepo) Upsert(ctx context.Context, cartID int64, productID int64, quantity int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	items := r.s.cartItems[cartID]
	for i := range items {
		if items[i].ProductID == productID {
			items[i].Quantity += quantity
			r.s.cartItems[cartID] = items
			return nil
		}
	}
	r.s.cartItems[cartID] = append(items, model.CartItem{CartID: cartID, ProductID: productID, Quantity: quantity})
	return nil
}

func (r *memCartItemRepo) UpdateQuantity(ctx context.Context, cartID int64, productID int64, quantity int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	items := r.s.cartItems[cartID]
	for i := range items {
		if items[i].ProductID == productID {
			items[i].Quantity = quantity
			r.s.cartItems[cartID] = items
			return nil
		}
	}
	return repo.ErrNotFound
}

func (r *memCartItemRepo) Remove(ctx context.Context, cartID int64, productID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	items := r.s.cartItems[cartID]
	for i := range items {
		if items[i].ProductID == productID {
			r.s.cartItems[cartID] = append(items[:i], items[i+1:]...)
			return nil
		}
	}
	return repo.ErrNotFound
}

type memProductRepo struct{ s *memStore }

func (r *memProductRepo) FindByID(ctx context.Context, productID int64) (model.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.products[productID]
	if !ok {
		return model.Product{}, repo.ErrNotFound
	}
	return p, nil
}

func (r *memProductRepo) FindByIDs(ctx context.Context, productIDs []int64) ([]model.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.Product
	for _, id := range productIDs {
		if p, ok := r.s.products[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *memProductRepo) ListActive(ctx context.Context, page int, limit int) ([]model.Product, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.Product
	for _, p := range r.s.products {
		if p.IsActive {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int64(len(out)), nil
}

// stubProvider は決定的なintentを返すProvider。
type stubProvider struct {
	createCalls   int
	retrieveCalls int
	failCreate    error
}

func (p *stubProvider) CreateIntent(ctx context.Context, in payment.CreateIntentInput) (payment.Intent, error) {
	p.createCalls++
	if p.failCreate != nil {
		return payment.Intent{}, p.failCreate
	}
	id := fmt.Sprintf("pi_order_%d", in.OrderID)
	return payment.Intent{ID: id, ClientSecret: "cs_" + id}, nil
}

func (p *stubProvider) RetrieveIntent(ctx context.Context, intentID string) (payment.Intent, error) {
	p.retrieveCalls++
	return payment.Intent{ID: intentID, ClientSecret: "cs_" + intentID}, nil
}
