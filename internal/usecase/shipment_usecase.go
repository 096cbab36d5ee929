package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"github.com/rs/zerolog"
)

type ShipmentUsecase struct {
	tx           repo.TransactionManager
	transporters repo.TransporterRepository
	shipments    repo.ShipmentRepository
	events       EventPublisher
	//trueなら支払い完了前の注文には出荷を作らない
	requirePayment bool
	now            func() time.Time
}

func NewShipmentUsecase(
	tx repo.TransactionManager,
	transporters repo.TransporterRepository,
	shipments repo.ShipmentRepository,
	events EventPublisher,
	requirePayment bool,
) *ShipmentUsecase {
	return &ShipmentUsecase{
		tx:             tx,
		transporters:   transporters,
		shipments:      shipments,
		events:         events,
		requirePayment: requirePayment,
		now:            time.Now,
	}
}

type TransporterInput struct {
	Name        string `json:"name"`
	PhoneNumber string `json:"phone_number"`
	Address     string `json:"address"`
	Email       string `json:"email"`
}

type ShipmentInput struct {
	OrderID               int64      `json:"order_id"`
	TransporterID         int64      `json:"transporter_id"`
	AddressID             int64      `json:"address_id"`
	ShipmentDate          *time.Time `json:"shipment_date"`
	EstimatedDeliveryDate *time.Time `json:"estimated_delivery_date"`
}

type ShipmentStatusInput struct {
	Status string `json:"status"`
}

type ShipmentListInput struct {
	Page          int
	Limit         int
	Status        string
	TransporterID *int64
}

type ShipmentListOutput struct {
	Items []model.Shipment `json:"items"`
	Total int64            `json:"total"`
	Page  int              `json:"page"`
	Limit int              `json:"limit"`
}

// ===== transporters =====

func (in *TransporterInput) normalize() error {
	in.Name = strings.TrimSpace(in.Name)
	in.PhoneNumber = strings.TrimSpace(in.PhoneNumber)
	in.Address = strings.TrimSpace(in.Address)
	in.Email = strings.TrimSpace(in.Email)
	if in.Name == "" || len(in.Name) > 255 {
		return NewHTTPError(http.StatusBadRequest, "name is required")
	}
	if in.Email != "" && !strings.Contains(in.Email, "@") {
		return NewHTTPError(http.StatusBadRequest, "invalid email")
	}
	return nil
}

func (u *ShipmentUsecase) ListTransporters(ctx context.Context) ([]model.Transporter, error) {
	list, err := u.transporters.List(ctx)
	if err != nil {
		return nil, dbError(err)
	}
	return list, nil
}

func (u *ShipmentUsecase) GetTransporter(ctx context.Context, id int64) (model.Transporter, error) {
	t, err := u.transporters.FindByID(ctx, id)
	if err != nil {
		return model.Transporter{}, notFoundOr(err, "transporter not found")
	}
	return t, nil
}

func (u *ShipmentUsecase) CreateTransporter(ctx context.Context, in TransporterInput) (model.Transporter, error) {
	if err := in.normalize(); err != nil {
		return model.Transporter{}, err
	}
	t, err := u.transporters.Create(ctx, model.Transporter{
		Name:        in.Name,
		PhoneNumber: in.PhoneNumber,
		Address:     in.Address,
		Email:       in.Email,
	})
	if err != nil {
		return model.Transporter{}, dbError(err)
	}
	return t, nil
}

func (u *ShipmentUsecase) UpdateTransporter(ctx context.Context, id int64, in TransporterInput) (model.Transporter, error) {
	if err := in.normalize(); err != nil {
		return model.Transporter{}, err
	}
	t, err := u.GetTransporter(ctx, id)
	if err != nil {
		return model.Transporter{}, err
	}
	t.Name = in.Name
	t.PhoneNumber = in.PhoneNumber
	t.Address = in.Address
	t.Email = in.Email
	if err := u.transporters.Update(ctx, t); err != nil {
		return model.Transporter{}, notFoundOr(err, "transporter not found")
	}
	return t, nil
}

// 出荷に使われている配送業者は消せない
func (u *ShipmentUsecase) DeleteTransporter(ctx context.Context, id int64) error {
	n, err := u.shipments.CountByTransporter(ctx, id)
	if err != nil {
		return dbError(err)
	}
	if n > 0 {
		return NewHTTPError(http.StatusConflict, "transporter has shipments")
	}
	if err := u.transporters.Delete(ctx, id); err != nil {
		return notFoundOr(err, "transporter not found")
	}
	return nil
}

// ===== shipments =====

func (u *ShipmentUsecase) List(ctx context.Context, in ShipmentListInput) (ShipmentListOutput, error) {
	if in.Page <= 0 {
		in.Page = 1
	}
	if in.Limit <= 0 {
		in.Limit = 20
	}
	if in.Limit > 100 {
		return ShipmentListOutput{}, NewHTTPError(http.StatusBadRequest, "limit must be <= 100")
	}
	if in.Status != "" && !model.ShipmentStatus(in.Status).Valid() {
		return ShipmentListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid status")
	}

	list, total, err := u.shipments.List(ctx, repo.ShipmentListFilter{
		Status:        in.Status,
		TransporterID: in.TransporterID,
		Page:          in.Page,
		Limit:         in.Limit,
	})
	if err != nil {
		return ShipmentListOutput{}, dbError(err)
	}
	return ShipmentListOutput{Items: list, Total: total, Page: in.Page, Limit: in.Limit}, nil
}

func (u *ShipmentUsecase) Get(ctx context.Context, id int64) (model.Shipment, error) {
	s, err := u.shipments.FindByID(ctx, id)
	if err != nil {
		return model.Shipment{}, notFoundOr(err, "shipment not found")
	}
	return s, nil
}

// 注文ごとに1件まで。チェックアウトとは別に管理者が作る
func (u *ShipmentUsecase) Create(ctx context.Context, actorID int64, in ShipmentInput) (model.Shipment, error) {
	if in.OrderID <= 0 || in.TransporterID <= 0 {
		return model.Shipment{}, NewHTTPError(http.StatusBadRequest, "order_id and transporter_id are required")
	}
	if err := validateShipmentDates(in.ShipmentDate, in.EstimatedDeliveryDate); err != nil {
		return model.Shipment{}, err
	}
	if _, err := u.transporters.FindByID(ctx, in.TransporterID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return model.Shipment{}, NewHTTPError(http.StatusBadRequest, "transporter not found")
		}
		return model.Shipment{}, dbError(err)
	}

	var out model.Shipment
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().LockByID(ctx, in.OrderID)
		if err != nil {
			return notFoundOr(err, "order not found")
		}
		if o.Status.Terminal() {
			return NewHTTPError(http.StatusConflict, fmt.Sprintf("order is %s", o.Status))
		}

		if u.requirePayment {
			p, err := r.Payments().FindByOrderID(ctx, o.ID)
			if err != nil && !errors.Is(err, repo.ErrNotFound) {
				return dbError(err)
			}
			if err != nil || p.Status != model.PaymentStatusCompleted {
				return NewHTTPError(http.StatusConflict, "payment is not completed")
			}
		}

		addressID := in.AddressID
		if addressID <= 0 {
			addressID = o.AddressID
		} else if err := checkShipmentAddress(ctx, r, addressID, o.UserID); err != nil {
			return err
		}
		s := &model.Shipment{
			OrderID:               o.ID,
			UserID:                o.UserID,
			TransporterID:         in.TransporterID,
			AddressID:             addressID,
			ShipmentDate:          utcPtr(in.ShipmentDate),
			EstimatedDeliveryDate: utcPtr(in.EstimatedDeliveryDate),
			Status:                model.ShipmentStatusPending,
		}
		if err := r.Shipments().Create(ctx, s); err != nil {
			if errors.Is(err, repo.ErrConflict) {
				return NewHTTPError(http.StatusConflict, "shipment already exists for order")
			}
			return dbError(err)
		}
		out = *s
		return nil
	})
	if err != nil {
		return model.Shipment{}, txError(err)
	}

	zerolog.Ctx(ctx).Info().
		Int64("shipment_id", out.ID).
		Int64("order_id", out.OrderID).
		Int64("actor_user_id", actorID).
		Msg("shipment created")
	return out, nil
}

// 日付・配送業者・住所の変更。終端状態では変更不可
func (u *ShipmentUsecase) Update(ctx context.Context, id int64, in ShipmentInput) (model.Shipment, error) {
	if err := validateShipmentDates(in.ShipmentDate, in.EstimatedDeliveryDate); err != nil {
		return model.Shipment{}, err
	}
	if in.TransporterID > 0 {
		if _, err := u.transporters.FindByID(ctx, in.TransporterID); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return model.Shipment{}, NewHTTPError(http.StatusBadRequest, "transporter not found")
			}
			return model.Shipment{}, dbError(err)
		}
	}

	var out model.Shipment
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		s, err := r.Shipments().LockByID(ctx, id)
		if err != nil {
			return notFoundOr(err, "shipment not found")
		}
		if s.Status.Terminal() {
			return NewHTTPError(http.StatusConflict, fmt.Sprintf("shipment is %s", s.Status))
		}

		if in.TransporterID > 0 {
			s.TransporterID = in.TransporterID
		}
		if in.AddressID > 0 && in.AddressID != s.AddressID {
			if err := checkShipmentAddress(ctx, r, in.AddressID, s.UserID); err != nil {
				return err
			}
			s.AddressID = in.AddressID
		}
		if in.ShipmentDate != nil {
			s.ShipmentDate = utcPtr(in.ShipmentDate)
		}
		if in.EstimatedDeliveryDate != nil {
			s.EstimatedDeliveryDate = utcPtr(in.EstimatedDeliveryDate)
		}
		//片方だけの更新でも保存済みの値と突き合わせる
		if err := validateShipmentDates(s.ShipmentDate, s.EstimatedDeliveryDate); err != nil {
			return err
		}
		if err := r.Shipments().Update(ctx, s); err != nil {
			return notFoundOr(err, "shipment not found")
		}
		out = s
		return nil
	})
	if err != nil {
		return model.Shipment{}, txError(err)
	}
	return out, nil
}

// 状態機械: pending→shipped→delivered, pending→canceled
// shipped/deliveredは注文側にも反映する
func (u *ShipmentUsecase) UpdateStatus(ctx context.Context, actorID, id int64, in ShipmentStatusInput) (model.Shipment, error) {
	next := model.ShipmentStatus(in.Status)
	if !next.Valid() {
		return model.Shipment{}, NewHTTPError(http.StatusBadRequest, "invalid status")
	}

	var (
		out     model.Shipment
		from    model.ShipmentStatus
		changed bool
	)
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		s, err := r.Shipments().LockByID(ctx, id)
		if err != nil {
			return notFoundOr(err, "shipment not found")
		}
		from, out, changed = s.Status, s, false
		if s.Status == next {
			return nil
		}
		if !s.Status.CanTransitionTo(next) {
			return NewHTTPError(http.StatusConflict, fmt.Sprintf("cannot change status from %s to %s", s.Status, next))
		}

		if err := r.Shipments().UpdateStatus(ctx, s.ID, next); err != nil {
			return dbError(err)
		}
		if next == model.ShipmentStatusShipped && s.ShipmentDate == nil {
			now := u.now().UTC()
			s.ShipmentDate = &now
			if err := r.Shipments().Update(ctx, s); err != nil {
				return dbError(err)
			}
		}
		if err := syncOrderWithShipment(ctx, r, s.OrderID, next); err != nil {
			return err
		}
		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  actorID,
			Action:       model.AuditActionUpdateShipmentStatus,
			ResourceType: model.AuditResourceShipment,
			ResourceID:   s.ID,
			BeforeJSON:   fmt.Sprintf(`{"status":%q}`, s.Status),
			AfterJSON:    fmt.Sprintf(`{"status":%q}`, next),
		}); err != nil {
			return dbError(err)
		}

		s.Status = next
		out, changed = s, true
		return nil
	})
	if err != nil {
		return model.Shipment{}, txError(err)
	}

	if changed {
		publish(ctx, u.events, EventShipmentStatusChanged, StatusChangedEvent{
			ID: out.ID, OrderID: out.OrderID, From: string(from), To: string(next),
		})
	}
	return out, nil
}

// 出荷済み→注文shipped、配達済み→注文delivered
func syncOrderWithShipment(ctx context.Context, r repo.TxRepos, orderID int64, s model.ShipmentStatus) error {
	var target model.OrderStatus
	switch s {
	case model.ShipmentStatusShipped:
		target = model.OrderStatusShipped
	case model.ShipmentStatusDelivered:
		target = model.OrderStatusDelivered
	default:
		return nil
	}

	o, err := r.Orders().LockByID(ctx, orderID)
	if err != nil {
		return notFoundOr(err, "order not found")
	}
	if o.Status == target {
		return nil
	}
	if !o.Status.CanTransitionTo(target) {
		return NewHTTPError(http.StatusConflict, fmt.Sprintf("order is %s", o.Status))
	}
	if err := r.Orders().UpdateStatus(ctx, o.ID, target); err != nil {
		return dbError(err)
	}
	return nil
}

// pendingの間だけ削除できる
func (u *ShipmentUsecase) Delete(ctx context.Context, id int64) error {
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		s, err := r.Shipments().LockByID(ctx, id)
		if err != nil {
			return notFoundOr(err, "shipment not found")
		}
		if s.Status != model.ShipmentStatusPending {
			return NewHTTPError(http.StatusConflict, "only pending shipments can be deleted")
		}
		if err := r.Shipments().Delete(ctx, id); err != nil {
			return notFoundOr(err, "shipment not found")
		}
		return nil
	})
	return txError(err)
}

// 配送先は注文者の住所のみ
func checkShipmentAddress(ctx context.Context, r repo.TxRepos, addressID, userID int64) error {
	addr, err := r.Addresses().FindByID(ctx, addressID)
	if errors.Is(err, repo.ErrNotFound) || (err == nil && addr.UserID != userID) {
		return NewHTTPError(http.StatusBadRequest, "address not found")
	}
	if err != nil {
		return dbError(err)
	}
	return nil
}

func validateShipmentDates(shipped, estimated *time.Time) error {
	if shipped != nil && estimated != nil && estimated.Before(*shipped) {
		return NewHTTPError(http.StatusBadRequest, "estimated_delivery_date must be after shipment_date")
	}
	return nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}
