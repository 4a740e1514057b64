package orders

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"github.com/angelmondragon/foodstore/pkg/auth/session"
	"github.com/angelmondragon/foodstore/pkg/backend"
	"github.com/angelmondragon/foodstore/pkg/enums"
	pkgerrors "github.com/angelmondragon/foodstore/pkg/errors"
	"github.com/angelmondragon/foodstore/pkg/logger"
	"github.com/shopspring/decimal"
)

type orderClient interface {
	ListOrders(ctx context.Context, token string) ([]backend.Order, error)
	ListUserOrders(ctx context.Context, token string, userID int64) ([]backend.Order, error)
	GetOrder(ctx context.Context, token string, id int64) (*backend.Order, error)
	CreateOrder(ctx context.Context, token string, order backend.Order) (*backend.Order, error)
	UpdateOrder(ctx context.Context, token string, id int64, order backend.Order) (*backend.Order, error)
	DeleteOrder(ctx context.Context, token string, id int64) error
	ListOrderDetails(ctx context.Context, token string) ([]backend.OrderDetail, error)
}

type statusClient interface {
	ListOrderStatuses(ctx context.Context, token string) ([]json.RawMessage, error)
	GetOrderStatus(ctx context.Context, token string, id int64) (json.RawMessage, error)
	CreateOrderStatus(ctx context.Context, token string, doc json.RawMessage) (json.RawMessage, error)
	UpdateOrderStatus(ctx context.Context, token string, id int64, doc json.RawMessage) (json.RawMessage, error)
	DeleteOrderStatus(ctx context.Context, token string, id int64) error
}

// Service exposes order history and order administration.
type Service interface {
	History(ctx context.Context, sess *session.Session) ([]OrderView, error)
	Get(ctx context.Context, sess *session.Session, id int64) (*OrderView, error)
	Details(ctx context.Context, sess *session.Session, orderID int64) ([]backend.OrderDetail, error)
	Create(ctx context.Context, sess *session.Session, input CreateOrderInput) (*OrderView, error)
	UpdateStatus(ctx context.Context, sess *session.Session, id int64, status enums.OrderStatus) (*OrderView, error)
	SetDeleted(ctx context.Context, sess *session.Session, id int64, deleted bool) (*OrderView, error)
	Delete(ctx context.Context, sess *session.Session, id int64) error

	ListStatusEntries(ctx context.Context, sess *session.Session) ([]json.RawMessage, error)
	GetStatusEntry(ctx context.Context, sess *session.Session, id int64) (json.RawMessage, error)
	CreateStatusEntry(ctx context.Context, sess *session.Session, doc json.RawMessage) (json.RawMessage, error)
	UpdateStatusEntry(ctx context.Context, sess *session.Session, id int64, doc json.RawMessage) (json.RawMessage, error)
	DeleteStatusEntry(ctx context.Context, sess *session.Session, id int64) error
}

type service struct {
	orders   orderClient
	statuses statusClient
	logg     *logger.Logger
}

// NewService builds the orders service.
func NewService(orders orderClient, statuses statusClient, logg *logger.Logger) (Service, error) {
	if orders == nil {
		return nil, fmt.Errorf("order client required")
	}
	if statuses == nil {
		return nil, fmt.Errorf("order status client required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{orders: orders, statuses: statuses, logg: logg}, nil
}

// History lists the signed-in user's orders, newest first. Admins see every
// order, customers never see soft-deleted ones.
func (s *service) History(ctx context.Context, sess *session.Session) ([]OrderView, error) {
	if err := requireSession(sess); err != nil {
		return nil, err
	}
	var (
		list []backend.Order
		err  error
	)
	if isAdmin(sess) {
		list, err = s.orders.ListOrders(ctx, sess.BackendToken)
	} else {
		list, err = s.orders.ListUserOrders(ctx, sess.BackendToken, sess.UserID)
	}
	if err != nil {
		return nil, err
	}

	views := make([]OrderView, 0, len(list))
	for _, order := range list {
		if !isAdmin(sess) && (order.Deleted || (order.UserID() != 0 && order.UserID() != sess.UserID)) {
			continue
		}
		views = append(views, newOrderView(order))
	}
	sort.SliceStable(views, func(i, j int) bool {
		return views[i].CreatedAt.After(views[j].CreatedAt.Time)
	})
	return views, nil
}

func (s *service) Get(ctx context.Context, sess *session.Session, id int64) (*OrderView, error) {
	if err := requireSession(sess); err != nil {
		return nil, err
	}
	order, err := s.orders.GetOrder(ctx, sess.BackendToken, id)
	if err != nil {
		return nil, err
	}
	if !isAdmin(sess) && (order.UserID() != sess.UserID || order.Deleted) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	view := newOrderView(*order)
	return &view, nil
}

// Details returns the order's lines, falling back to the detail resource
// when the order payload does not embed them.
func (s *service) Details(ctx context.Context, sess *session.Session, orderID int64) ([]backend.OrderDetail, error) {
	view, err := s.Get(ctx, sess, orderID)
	if err != nil {
		return nil, err
	}
	if len(view.OrderDetails) > 0 {
		return view.OrderDetails, nil
	}
	all, err := s.orders.ListOrderDetails(ctx, sess.BackendToken)
	if err != nil {
		return nil, err
	}
	details := make([]backend.OrderDetail, 0)
	for _, detail := range all {
		if detail.Order != nil && detail.Order.ID == orderID {
			details = append(details, detail)
		}
	}
	return details, nil
}

// Create submits an administrative order. The total is the sum of the line
// subtotals.
func (s *service) Create(ctx context.Context, sess *session.Session, input CreateOrderInput) (*OrderView, error) {
	if err := requireAdmin(sess); err != nil {
		return nil, err
	}
	if len(input.Details) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order needs at least one line")
	}
	status := enums.OrderStatusPending
	if input.Status != nil {
		if !input.Status.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
		}
		status = *input.Status
	}

	total := decimal.Zero
	details := make([]backend.OrderDetail, 0, len(input.Details))
	for _, line := range input.Details {
		if line.Quantity <= 0 || line.Price.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "order lines need a positive quantity and a non-negative price")
		}
		total = total.Add(line.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
		details = append(details, backend.OrderDetail{
			Food:     &backend.CartFood{ID: line.FoodID, Price: line.Price},
			Quantity: line.Quantity,
			Price:    line.Price,
		})
	}

	created, err := s.orders.CreateOrder(ctx, sess.BackendToken, backend.Order{
		User:          &backend.Ref{ID: input.UserID},
		CustomerName:  input.CustomerName,
		TotalPrice:    total,
		PaymentMethod: input.PaymentMethod,
		Status:        status,
		OrderDetails:  details,
	})
	if err != nil {
		return nil, err
	}
	s.logg.Info(s.logg.WithOrderID(ctx, strconv.FormatInt(created.ID, 10)), "orders.created")
	view := newOrderView(*created)
	return &view, nil
}

// UpdateStatus moves an order to the given status, e.g. pending to confirmed.
func (s *service) UpdateStatus(ctx context.Context, sess *session.Session, id int64, status enums.OrderStatus) (*OrderView, error) {
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
	}
	return s.mutate(ctx, sess, id, func(order *backend.Order) {
		order.Status = status
	})
}

// SetDeleted soft-deletes or restores an order.
func (s *service) SetDeleted(ctx context.Context, sess *session.Session, id int64, deleted bool) (*OrderView, error) {
	return s.mutate(ctx, sess, id, func(order *backend.Order) {
		order.Deleted = deleted
	})
}

func (s *service) Delete(ctx context.Context, sess *session.Session, id int64) error {
	if err := requireAdmin(sess); err != nil {
		return err
	}
	if err := s.orders.DeleteOrder(ctx, sess.BackendToken, id); err != nil {
		return err
	}
	s.logg.Warn(s.logg.WithOrderID(ctx, strconv.FormatInt(id, 10)), "orders.hard_deleted")
	return nil
}

func (s *service) mutate(ctx context.Context, sess *session.Session, id int64, apply func(*backend.Order)) (*OrderView, error) {
	if err := requireAdmin(sess); err != nil {
		return nil, err
	}
	order, err := s.orders.GetOrder(ctx, sess.BackendToken, id)
	if err != nil {
		return nil, err
	}
	apply(order)
	updated, err := s.orders.UpdateOrder(ctx, sess.BackendToken, id, *order)
	if err != nil {
		return nil, err
	}
	view := newOrderView(*updated)
	return &view, nil
}

func (s *service) ListStatusEntries(ctx context.Context, sess *session.Session) ([]json.RawMessage, error) {
	if err := requireSession(sess); err != nil {
		return nil, err
	}
	return s.statuses.ListOrderStatuses(ctx, sess.BackendToken)
}

func (s *service) GetStatusEntry(ctx context.Context, sess *session.Session, id int64) (json.RawMessage, error) {
	if err := requireSession(sess); err != nil {
		return nil, err
	}
	return s.statuses.GetOrderStatus(ctx, sess.BackendToken, id)
}

func (s *service) CreateStatusEntry(ctx context.Context, sess *session.Session, doc json.RawMessage) (json.RawMessage, error) {
	if err := requireAdmin(sess); err != nil {
		return nil, err
	}
	return s.statuses.CreateOrderStatus(ctx, sess.BackendToken, doc)
}

func (s *service) UpdateStatusEntry(ctx context.Context, sess *session.Session, id int64, doc json.RawMessage) (json.RawMessage, error) {
	if err := requireAdmin(sess); err != nil {
		return nil, err
	}
	return s.statuses.UpdateOrderStatus(ctx, sess.BackendToken, id, doc)
}

func (s *service) DeleteStatusEntry(ctx context.Context, sess *session.Session, id int64) error {
	if err := requireAdmin(sess); err != nil {
		return err
	}
	return s.statuses.DeleteOrderStatus(ctx, sess.BackendToken, id)
}

func isAdmin(sess *session.Session) bool {
	return sess != nil && sess.Role == enums.RoleAdmin
}

func requireSession(sess *session.Session) error {
	if sess == nil || sess.UserID <= 0 {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	return nil
}

func requireAdmin(sess *session.Session) error {
	if err := requireSession(sess); err != nil {
		return err
	}
	if !isAdmin(sess) {
		return pkgerrors.New(pkgerrors.CodeForbidden, "admin role required")
	}
	return nil
}
