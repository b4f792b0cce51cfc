package handler_test

import (
	"context"
	"sort"
	"sync"

	"crm/internal/domain/model"
	"crm/internal/repository"
)

// =====================
// in-memory repos（HTTP経由のテスト用）
// =====================

type memDB struct {
	mu      sync.Mutex
	orders  map[int64]model.Order
	history []model.OrderEditHistory
	users   map[int64]*model.User
	nextID  int64
}

func newMemDB() *memDB {
	return &memDB{orders: map[int64]model.Order{}, users: map[int64]*model.User{}}
}

func (d *memDB) Orders() repository.OrderRepository          { return memOrders{d} }
func (d *memDB) History() repository.OrderHistoryRepository { return memHistory{d} }

// 失敗したらorders/historyを元に戻す
func (d *memDB) WithinTx(ctx context.Context, fn func(r repository.TxRepos) error) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	orders := make(map[int64]model.Order, len(d.orders))
	for k, v := range d.orders {
		orders[k] = v
	}
	history := append([]model.OrderEditHistory(nil), d.history...)
	next := d.nextID

	if err := fn(d); err != nil {
		d.orders, d.history, d.nextID = orders, history, next
		return err
	}
	return nil
}

type memOrders struct{ d *memDB }

func (r memOrders) FindByID(ctx context.Context, id int64) (model.Order, error) {
	o, ok := r.d.orders[id]
	if !ok {
		return model.Order{}, repository.ErrNotFound
	}
	return o, nil
}

func (r memOrders) FindByIDForUpdate(ctx context.Context, id int64) (model.Order, error) {
	return r.FindByID(ctx, id)
}

func (r memOrders) List(ctx context.Context, f repository.OrderListFilter) ([]model.Order, int64, error) {
	var out []model.Order
	for _, o := range r.d.orders {
		keep := len(f.Statuses) == 0
		for _, s := range f.Statuses {
			if s == o.Status {
				keep = true
			}
		}
		if keep {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	total := int64(len(out))
	start := (f.Page - 1) * f.Limit
	if start >= len(out) {
		return []model.Order{}, total, nil
	}
	end := start + f.Limit
	if end > len(out) {
		end = len(out)
	}
	return out[start:end], total, nil
}

func (r memOrders) Create(ctx context.Context, o model.Order) (int64, error) {
	r.d.nextID++
	o.ID = r.d.nextID
	r.d.orders[o.ID] = o
	return o.ID, nil
}

func (r memOrders) UpdateIfStatus(ctx context.Context, o model.Order, expected model.OrderStatus) error {
	cur, ok := r.d.orders[o.ID]
	if !ok || cur.Status != expected {
		return repository.ErrConflict
	}
	r.d.orders[o.ID] = o
	return nil
}

func (r memOrders) MaxOrderNumber(ctx context.Context) (int, error) {
	max := 0
	for _, o := range r.d.orders {
		if o.OrderNumber != nil && *o.OrderNumber > max {
			max = *o.OrderNumber
		}
	}
	return max, nil
}

type memHistory struct{ d *memDB }

func (r memHistory) Create(ctx context.Context, e model.OrderEditHistory) error {
	e.ID = int64(len(r.d.history) + 1)
	r.d.history = append(r.d.history, e)
	return nil
}

func (r memHistory) ListByOrderID(ctx context.Context, orderID int64) ([]repository.OrderHistoryRecord, error) {
	var out []repository.OrderHistoryRecord
	for i := len(r.d.history) - 1; i >= 0; i-- {
		h := r.d.history[i]
		if h.OrderID != orderID {
			continue
		}
		rec := repository.OrderHistoryRecord{OrderEditHistory: h}
		if u, ok := r.d.users[h.UserID]; ok {
			rec.Username = u.Username
		}
		out = append(out, rec)
	}
	return out, nil
}

type memUsers struct{ d *memDB }

func (r memUsers) Create(ctx context.Context, u *model.User) error {
	u.ID = int64(len(r.d.users) + 1)
	r.d.users[u.ID] = u
	return nil
}

func (r memUsers) FindByID(ctx context.Context, id int64) (*model.User, error) {
	u, ok := r.d.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return u, nil
}

func (r memUsers) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	for _, u := range r.d.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (r memUsers) Update(ctx context.Context, u *model.User) error {
	r.d.users[u.ID] = u
	return nil
}
