package usecase_test

import (
	"context"
	"sort"
	"time"

	"crm/internal/domain/model"
	repo "crm/internal/repository"

	"github.com/stretchr/testify/mock"
)

// =====================
// in-memory store（WithinTxでエラーなら巻き戻す）
// =====================

type memStore struct {
	orders      map[int64]model.Order
	history     []model.OrderEditHistory
	users       map[int64]string
	nextOrderID int64
	nextHistID  int64

	// 履歴書き込みを失敗させる
	historyErr error
}

func newMemStore() *memStore {
	return &memStore{
		orders: map[int64]model.Order{},
		users: map[int64]string{
			adminID.UserID:  "admin1",
			logistID.UserID: "logist",
			workID.UserID:   "work",
		},
	}
}

func (s *memStore) Orders() repo.OrderRepository          { return &memOrders{s: s} }
func (s *memStore) History() repo.OrderHistoryRepository { return &memHistory{s: s} }

func (s *memStore) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	ordersBackup := make(map[int64]model.Order, len(s.orders))
	for k, v := range s.orders {
		ordersBackup[k] = v
	}
	historyBackup := append([]model.OrderEditHistory(nil), s.history...)
	nextOrder, nextHist := s.nextOrderID, s.nextHistID

	if err := fn(s); err != nil {
		s.orders = ordersBackup
		s.history = historyBackup
		s.nextOrderID, s.nextHistID = nextOrder, nextHist
		return err
	}
	return nil
}

func (s *memStore) historyFor(orderID int64) []model.OrderEditHistory {
	var out []model.OrderEditHistory
	for _, h := range s.history {
		if h.OrderID == orderID {
			out = append(out, h)
		}
	}
	return out
}

type memOrders struct{ s *memStore }

func (r *memOrders) FindByID(ctx context.Context, orderID int64) (model.Order, error) {
	o, ok := r.s.orders[orderID]
	if !ok {
		return model.Order{}, repo.ErrNotFound
	}
	return o, nil
}

func (r *memOrders) FindByIDForUpdate(ctx context.Context, orderID int64) (model.Order, error) {
	return r.FindByID(ctx, orderID)
}

func (r *memOrders) List(ctx context.Context, f repo.OrderListFilter) ([]model.Order, int64, error) {
	var all []model.Order
	for _, o := range r.s.orders {
		if len(f.Statuses) > 0 && !containsStatus(f.Statuses, o.Status) {
			continue
		}
		all = append(all, o)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })

	total := int64(len(all))
	start := (f.Page - 1) * f.Limit
	if start >= len(all) {
		return []model.Order{}, total, nil
	}
	end := start + f.Limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

func containsStatus(list []model.OrderStatus, s model.OrderStatus) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func (r *memOrders) Create(ctx context.Context, order model.Order) (int64, error) {
	r.s.nextOrderID++
	order.ID = r.s.nextOrderID
	r.s.orders[order.ID] = order
	return order.ID, nil
}

func (r *memOrders) UpdateIfStatus(ctx context.Context, order model.Order, expected model.OrderStatus) error {
	cur, ok := r.s.orders[order.ID]
	if !ok || cur.Status != expected {
		return repo.ErrConflict
	}
	if order.OrderNumber != nil {
		for id, o := range r.s.orders {
			if id != order.ID && o.OrderNumber != nil && *o.OrderNumber == *order.OrderNumber {
				return repo.ErrConflict
			}
		}
	}
	r.s.orders[order.ID] = order
	return nil
}

func (r *memOrders) MaxOrderNumber(ctx context.Context) (int, error) {
	max := 0
	for _, o := range r.s.orders {
		if o.OrderNumber != nil && *o.OrderNumber > max {
			max = *o.OrderNumber
		}
	}
	return max, nil
}

type memHistory struct{ s *memStore }

func (r *memHistory) Create(ctx context.Context, entry model.OrderEditHistory) error {
	if r.s.historyErr != nil {
		return r.s.historyErr
	}
	r.s.nextHistID++
	entry.ID = r.s.nextHistID
	r.s.history = append(r.s.history, entry)
	return nil
}

func (r *memHistory) ListByOrderID(ctx context.Context, orderID int64) ([]repo.OrderHistoryRecord, error) {
	var out []repo.OrderHistoryRecord
	for i := len(r.s.history) - 1; i >= 0; i-- {
		h := r.s.history[i]
		if h.OrderID != orderID {
			continue
		}
		out = append(out, repo.OrderHistoryRecord{OrderEditHistory: h, Username: r.s.users[h.UserID]})
	}
	return out, nil
}

// =====================
// BlobStore mock
// =====================

type BlobStoreMock struct{ mock.Mock }

func (m *BlobStoreMock) Put(ctx context.Context, name string, data []byte) (string, error) {
	args := m.Called(ctx, name, data)
	return args.String(0), args.Error(1)
}

// =====================
// clock / identities
// =====================

type stepClock struct{ now time.Time }

func (c *stepClock) Now() time.Time {
	c.now = c.now.Add(time.Second)
	return c.now
}

var (
	adminID  = model.Identity{UserID: 1, Role: model.RoleAdmin}
	logistID = model.Identity{UserID: 2, Role: model.RoleLogist}
	workID   = model.Identity{UserID: 3, Role: model.RoleWork}
)
