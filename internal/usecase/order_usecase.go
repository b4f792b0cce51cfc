package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"crm/internal/domain/model"
	repo "crm/internal/repository"

	"go.uber.org/zap"
)

// 現在の時間
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

// 入力構造体の検証（internal/validatorが実装）
type StructValidator interface {
	Validate(i any) error
}

type OrderUsecase struct {
	orders   repo.OrderRepository
	tx       repo.TransactionManager
	numbers  *OrderNumberAllocator
	blobs    BlobStore
	validate StructValidator
	clock    Clock
	log      *zap.Logger
}

func NewOrderUsecase(
	orders repo.OrderRepository,
	tx repo.TransactionManager,
	numbers *OrderNumberAllocator,
	blobs BlobStore,
	validate StructValidator,
	clock Clock,
	log *zap.Logger,
) *OrderUsecase {
	if clock == nil {
		clock = SystemClock{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &OrderUsecase{
		orders:   orders,
		tx:       tx,
		numbers:  numbers,
		blobs:    blobs,
		validate: validate,
		clock:    clock,
		log:      log,
	}
}

type CreateOrderInput struct {
	CustomerName        string  `json:"customer_name" validate:"notblank,max=255"`
	CustomerPhone       string  `json:"customer_phone" validate:"notblank,max=50"`
	CustomerAddress     string  `json:"customer_address" validate:"notblank"`
	PhoneAgreementNotes *string `json:"phone_agreement_notes"`
}

// nilのフィールドは変更しない
type UpdateOrderInput struct {
	CustomerName        *string `json:"customer_name" validate:"omitnil,notblank,max=255"`
	CustomerPhone       *string `json:"customer_phone" validate:"omitnil,notblank,max=50"`
	CustomerAddress     *string `json:"customer_address" validate:"omitnil,notblank"`
	PhoneAgreementNotes *string `json:"phone_agreement_notes"`
}

type AddDetailsInput struct {
	CustomerRequirements string
	Deadline             string
	Price                int64
	MaterialPhoto        *PhotoUpload
	FurniturePhoto       *PhotoUpload
}

type ListOrdersInput struct {
	StatusFilter string
	Page         int
	Limit        int
}

type OrderListOutput struct {
	Items []OrderView `json:"items"`
	Total int64       `json:"total"`
	Page  int         `json:"page"`
	Limit int         `json:"limit"`
}

// 顧客情報の編集対象
func customerSnapshot(o model.Order) map[string]any {
	return map[string]any{
		"customer_name":         o.CustomerName,
		"customer_phone":        o.CustomerPhone,
		"customer_address":      o.CustomerAddress,
		"phone_agreement_notes": o.PhoneAgreementNotes,
	}
}

// add_detailsで書き込むフィールド
func detailsSnapshot(o model.Order) map[string]any {
	return map[string]any{
		"customer_requirements": o.CustomerRequirements,
		"deadline":              o.Deadline,
		"price":                 o.Price,
		"material_photo":        o.MaterialPhoto,
		"furniture_photo":       o.FurniturePhoto,
	}
}

func requireIdentity(id model.Identity) error {
	if !id.Valid() {
		return ErrUnauthenticated()
	}
	return nil
}

func requireRole(id model.Identity, role model.Role, action string) error {
	if err := requireIdentity(id); err != nil {
		return err
	}
	if id.Role != role {
		return ErrPermissionDenied(fmt.Sprintf("role %s cannot %s", id.Role, action))
	}
	return nil
}

// 遷移表のActorと一致するか
func requireActor(id model.Identity, t model.Transition, action model.OrderAction) error {
	if err := requireIdentity(id); err != nil {
		return err
	}
	if !t.AllowedFor(id.Role) {
		return ErrPermissionDenied(fmt.Sprintf("role %s cannot %s", id.Role, action))
	}
	return nil
}

// 新規注文（draft）
func (u *OrderUsecase) Create(ctx context.Context, id model.Identity, in CreateOrderInput) (OrderView, error) {
	if err := requireRole(id, model.RoleAdmin, "create orders"); err != nil {
		return OrderView{}, err
	}

	in.CustomerName = strings.TrimSpace(in.CustomerName)
	in.CustomerPhone = strings.TrimSpace(in.CustomerPhone)
	in.CustomerAddress = strings.TrimSpace(in.CustomerAddress)
	in.PhoneAgreementNotes = trimOptional(in.PhoneAgreementNotes)
	if err := u.validate.Validate(in); err != nil {
		return OrderView{}, ErrValidation(err.Error())
	}

	now := u.clock.Now()
	o := model.Order{
		CustomerName:        in.CustomerName,
		CustomerPhone:       in.CustomerPhone,
		CustomerAddress:     in.CustomerAddress,
		PhoneAgreementNotes: in.PhoneAgreementNotes,
		Status:              model.OrderStatusDraft,
		CreatedBy:           id.UserID,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	o.Touch(id.UserID, now)

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orderID, err := r.Orders().Create(ctx, o)
		if err != nil {
			return mapRepoError(err, "order not found")
		}
		o.ID = orderID
		return recordHistory(ctx, r, o.ID, id.UserID, model.HistoryActionCreated, nil, now)
	})
	if err != nil {
		return OrderView{}, err
	}

	u.log.Info("order created", zap.Int64("order_id", o.ID), zap.Int64("user_id", id.UserID))
	return Project(o, id.Role), nil
}

// ロールで絞った一覧（新しい順）
func (u *OrderUsecase) List(ctx context.Context, id model.Identity, in ListOrdersInput) (OrderListOutput, error) {
	if err := requireIdentity(id); err != nil {
		return OrderListOutput{}, err
	}

	var filter *model.OrderStatus
	if s := strings.TrimSpace(in.StatusFilter); s != "" {
		st, ok := model.ParseOrderStatus(s)
		if !ok {
			return OrderListOutput{}, ErrValidation("unknown status: " + s)
		}
		filter = &st
	}

	page, limit := normalizePage(in.Page, in.Limit)
	out := OrderListOutput{Items: []OrderView{}, Page: page, Limit: limit}

	statuses, ok := listStatuses(id.Role, filter)
	if !ok {
		return out, nil
	}

	orders, total, err := u.orders.List(ctx, repo.OrderListFilter{
		Page:     page,
		Limit:    limit,
		Statuses: statuses,
	})
	if err != nil {
		return OrderListOutput{}, mapRepoError(err, "order not found")
	}

	for _, o := range orders {
		out.Items = append(out.Items, Project(o, id.Role))
	}
	out.Total = total
	return out, nil
}

func (u *OrderUsecase) Get(ctx context.Context, id model.Identity, orderID int64) (OrderView, error) {
	if err := requireIdentity(id); err != nil {
		return OrderView{}, err
	}
	o, err := u.orders.FindByID(ctx, orderID)
	if err != nil {
		return OrderView{}, mapRepoError(err, "order not found")
	}
	if !CanView(id.Role, o.Status) {
		return OrderView{}, ErrPermissionDenied("access denied")
	}
	return Project(o, id.Role), nil
}

// 顧客情報の編集。adminのみ、どの状態でも可。
func (u *OrderUsecase) UpdateFields(ctx context.Context, id model.Identity, orderID int64, in UpdateOrderInput) (OrderView, error) {
	if err := requireRole(id, model.RoleAdmin, "update orders"); err != nil {
		return OrderView{}, err
	}

	in.CustomerName = trimPtr(in.CustomerName)
	in.CustomerPhone = trimPtr(in.CustomerPhone)
	in.CustomerAddress = trimPtr(in.CustomerAddress)
	in.PhoneAgreementNotes = trimPtr(in.PhoneAgreementNotes)
	if err := u.validate.Validate(in); err != nil {
		return OrderView{}, ErrValidation(err.Error())
	}

	var o model.Order
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		var err error
		o, err = r.Orders().FindByIDForUpdate(ctx, orderID)
		if err != nil {
			return mapRepoError(err, "order not found")
		}

		before := customerSnapshot(o)
		if in.CustomerName != nil {
			o.CustomerName = *in.CustomerName
		}
		if in.CustomerPhone != nil {
			o.CustomerPhone = *in.CustomerPhone
		}
		if in.CustomerAddress != nil {
			o.CustomerAddress = *in.CustomerAddress
		}
		if in.PhoneAgreementNotes != nil {
			// 空文字はメモの削除
			if *in.PhoneAgreementNotes == "" {
				o.PhoneAgreementNotes = nil
			} else {
				o.PhoneAgreementNotes = in.PhoneAgreementNotes
			}
		}
		changes := model.DiffFields(before, customerSnapshot(o))

		now := u.clock.Now()
		o.Touch(id.UserID, now)
		if err := r.Orders().UpdateIfStatus(ctx, o, o.Status); err != nil {
			return mapRepoError(err, "order not found")
		}
		return recordHistory(ctx, r, o.ID, id.UserID, model.HistoryActionUpdated, changes, now)
	})
	if err != nil {
		return OrderView{}, err
	}

	u.log.Info("order updated", zap.Int64("order_id", o.ID), zap.Int64("user_id", id.UserID))
	return Project(o, id.Role), nil
}

func (u *OrderUsecase) Submit(ctx context.Context, id model.Identity, orderID int64) (OrderView, error) {
	return u.transition(ctx, id, orderID, model.OrderActionSubmit, nil)
}

// order_numberを採番してconfirmedへ
func (u *OrderUsecase) Confirm(ctx context.Context, id model.Identity, orderID int64) (OrderView, error) {
	return u.transition(ctx, id, orderID, model.OrderActionConfirm, func(r repo.TxRepos, o *model.Order) (model.FieldChanges, error) {
		n, err := u.numbers.Next(ctx, r.Orders())
		if err != nil {
			return nil, err
		}
		o.OrderNumber = &n
		return model.FieldChanges{
			"order_number": {Old: nil, New: n},
		}, nil
	})
}

func (u *OrderUsecase) Complete(ctx context.Context, id model.Identity, orderID int64) (OrderView, error) {
	return u.transition(ctx, id, orderID, model.OrderActionComplete, nil)
}

func (u *OrderUsecase) MarkDelivered(ctx context.Context, id model.Identity, orderID int64) (OrderView, error) {
	return u.transition(ctx, id, orderID, model.OrderActionMarkDelivered, nil)
}

// POST /orders/:id/ready。中身はmark_deliveredと同じ（ready -> delivered）。
func (u *OrderUsecase) MarkReady(ctx context.Context, id model.Identity, orderID int64) (OrderView, error) {
	return u.MarkDelivered(ctx, id, orderID)
}

// 制作情報と写真を登録してin_progressへ。
// 検証と写真の保存はTxの前に済ませ、失敗したらDBには何も書かない。
func (u *OrderUsecase) AddDetails(ctx context.Context, id model.Identity, orderID int64, in AddDetailsInput) (OrderView, error) {
	t, _ := model.LookupTransition(model.OrderActionAddDetails)
	if err := requireActor(id, t, model.OrderActionAddDetails); err != nil {
		return OrderView{}, err
	}

	current, err := u.orders.FindByID(ctx, orderID)
	if err != nil {
		return OrderView{}, mapRepoError(err, "order not found")
	}
	if !t.AppliesTo(current.Status) {
		return OrderView{}, ErrInvalidTransition(string(t.From), string(current.Status))
	}

	if in.Price <= 0 {
		return OrderView{}, ErrValidation("price must be a positive integer")
	}
	deadline, err := ParseDeadline(in.Deadline)
	if err != nil {
		return OrderView{}, ErrValidation(err.Error())
	}

	var photos []pendingPhoto
	for _, p := range []struct {
		kind   string
		upload *PhotoUpload
	}{
		{PhotoKindMaterial, in.MaterialPhoto},
		{PhotoKindFurniture, in.FurniturePhoto},
	} {
		if !p.upload.present() {
			continue
		}
		pp, err := readPhoto(orderID, p.kind, p.upload)
		if err != nil {
			return OrderView{}, err
		}
		photos = append(photos, pp)
	}

	refs := make(map[string]string, len(photos))
	for _, p := range photos {
		ref, err := u.blobs.Put(ctx, p.name, p.data)
		if err != nil {
			u.log.Error("photo store failed",
				zap.Int64("order_id", orderID),
				zap.String("kind", p.kind),
				zap.Error(err),
			)
			return OrderView{}, ErrInternal("failed to store photo")
		}
		refs[p.kind] = ref
	}

	requirements := trimOptional(&in.CustomerRequirements)
	price := in.Price

	return u.transition(ctx, id, orderID, model.OrderActionAddDetails, func(r repo.TxRepos, o *model.Order) (model.FieldChanges, error) {
		before := detailsSnapshot(*o)
		o.CustomerRequirements = requirements
		o.Deadline = &deadline
		o.Price = &price
		if ref, ok := refs[PhotoKindMaterial]; ok {
			o.MaterialPhoto = &ref
		}
		if ref, ok := refs[PhotoKindFurniture]; ok {
			o.FurniturePhoto = &ref
		}
		return model.DiffFields(before, detailsSnapshot(*o)), nil
	})
}

// 遷移表に従って1回分の遷移を行う。
// 行ロック→状態確認→mutate→条件付き更新→履歴追記を1つのTxで。
func (u *OrderUsecase) transition(
	ctx context.Context,
	id model.Identity,
	orderID int64,
	action model.OrderAction,
	mutate func(r repo.TxRepos, o *model.Order) (model.FieldChanges, error),
) (OrderView, error) {
	t, ok := model.LookupTransition(action)
	if !ok {
		return OrderView{}, ErrInternal("unknown action " + string(action))
	}
	if err := requireActor(id, t, action); err != nil {
		return OrderView{}, err
	}

	var o model.Order
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		var err error
		o, err = r.Orders().FindByIDForUpdate(ctx, orderID)
		if err != nil {
			return mapRepoError(err, "order not found")
		}
		if !t.AppliesTo(o.Status) {
			return ErrInvalidTransition(string(t.From), string(o.Status))
		}

		var changes model.FieldChanges
		if mutate != nil {
			changes, err = mutate(r, &o)
			if err != nil {
				return err
			}
		}

		now := u.clock.Now()
		o.Status = t.To
		o.Touch(id.UserID, now)
		if err := o.CheckNumberInvariant(); err != nil {
			return ErrInternal(err.Error())
		}

		if err := r.Orders().UpdateIfStatus(ctx, o, t.From); err != nil {
			return mapRepoError(err, "order not found")
		}
		return recordHistory(ctx, r, o.ID, id.UserID, t.History, changes, now)
	})
	if err != nil {
		var he *HTTPError
		if errors.As(err, &he) && he.Code == CodeConflict {
			u.log.Warn("order transition conflict",
				zap.Int64("order_id", orderID),
				zap.String("action", string(action)),
				zap.String("reason", he.Message),
			)
		}
		return OrderView{}, err
	}

	u.log.Info("order transition",
		zap.Int64("order_id", o.ID),
		zap.String("action", string(action)),
		zap.String("from", string(t.From)),
		zap.String("to", string(t.To)),
		zap.Int64("user_id", id.UserID),
	)
	return Project(o, id.Role), nil
}

func normalizePage(page, limit int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 50
	}
	if limit > 100 {
		limit = 100
	}
	return page, limit
}

// 空白を落とす。空になったらnil。
func trimOptional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

// 空白を落とす。空文字でもnilにはしない（バリデーションで弾くため）。
func trimPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}
