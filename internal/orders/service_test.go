package orders

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/angelmondragon/foodstore/pkg/auth/session"
	"github.com/angelmondragon/foodstore/pkg/backend"
	"github.com/angelmondragon/foodstore/pkg/enums"
	pkgerrors "github.com/angelmondragon/foodstore/pkg/errors"
	"github.com/angelmondragon/foodstore/pkg/logger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type fakeOrders struct {
	all       []backend.Order
	byUser    map[int64][]backend.Order
	details   []backend.OrderDetail
	created   []backend.Order
	updated   []backend.Order
	deleted   []int64
	listedAll bool
}

func (f *fakeOrders) ListOrders(ctx context.Context, token string) ([]backend.Order, error) {
	f.listedAll = true
	return f.all, nil
}

func (f *fakeOrders) ListUserOrders(ctx context.Context, token string, userID int64) ([]backend.Order, error) {
	return f.byUser[userID], nil
}

func (f *fakeOrders) GetOrder(ctx context.Context, token string, id int64) (*backend.Order, error) {
	for _, o := range f.all {
		if o.ID == id {
			found := o
			return &found, nil
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "orders request rejected")
}

func (f *fakeOrders) CreateOrder(ctx context.Context, token string, order backend.Order) (*backend.Order, error) {
	f.created = append(f.created, order)
	order.ID = 100
	return &order, nil
}

func (f *fakeOrders) UpdateOrder(ctx context.Context, token string, id int64, order backend.Order) (*backend.Order, error) {
	f.updated = append(f.updated, order)
	return &order, nil
}

func (f *fakeOrders) DeleteOrder(ctx context.Context, token string, id int64) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeOrders) ListOrderDetails(ctx context.Context, token string) ([]backend.OrderDetail, error) {
	return f.details, nil
}

type fakeStatuses struct{ created int }

func (f *fakeStatuses) ListOrderStatuses(ctx context.Context, token string) ([]json.RawMessage, error) {
	return []json.RawMessage{json.RawMessage(`{"id":1,"name":"Pending"}`)}, nil
}

func (f *fakeStatuses) GetOrderStatus(ctx context.Context, token string, id int64) (json.RawMessage, error) {
	return json.RawMessage(`{"id":1}`), nil
}

func (f *fakeStatuses) CreateOrderStatus(ctx context.Context, token string, doc json.RawMessage) (json.RawMessage, error) {
	f.created++
	return doc, nil
}

func (f *fakeStatuses) UpdateOrderStatus(ctx context.Context, token string, id int64, doc json.RawMessage) (json.RawMessage, error) {
	return doc, nil
}

func (f *fakeStatuses) DeleteOrderStatus(ctx context.Context, token string, id int64) error {
	return nil
}

func at(day int) backend.Timestamp {
	return backend.Timestamp{Time: time.Date(2024, 5, day, 10, 0, 0, 0, time.UTC)}
}

func fixtureOrders() *fakeOrders {
	mine := []backend.Order{
		{ID: 1, User: &backend.Ref{ID: 7}, CreatedAt: at(1), Status: enums.OrderStatusPending},
		{ID: 2, User: &backend.Ref{ID: 7}, CreatedAt: at(3), Status: enums.OrderStatusConfirmed},
		{ID: 3, User: &backend.Ref{ID: 7}, CreatedAt: at(2), Deleted: true},
	}
	all := append([]backend.Order{{ID: 4, User: &backend.Ref{ID: 8}, CreatedAt: at(4)}}, mine...)
	return &fakeOrders{all: all, byUser: map[int64][]backend.Order{7: mine}}
}

var (
	customer = &session.Session{ID: "c", UserID: 7, Role: enums.RoleCustomer, BackendToken: "t"}
	admin    = &session.Session{ID: "a", UserID: 1, Role: enums.RoleAdmin, BackendToken: "t"}
)

func newTestService(t *testing.T, orders *fakeOrders) Service {
	t.Helper()
	svc, err := NewService(orders, &fakeStatuses{}, logger.Nop())
	require.NoError(t, err)
	return svc
}

func TestHistoryScopesByRole(t *testing.T) {
	orders := fixtureOrders()
	svc := newTestService(t, orders)

	mine, err := svc.History(context.Background(), customer)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	require.Equal(t, int64(2), mine[0].ID)
	require.Equal(t, "confirmed", mine[0].StatusLabel)
	require.False(t, orders.listedAll)

	everything, err := svc.History(context.Background(), admin)
	require.NoError(t, err)
	require.Len(t, everything, 4)
	require.Equal(t, int64(4), everything[0].ID)
}

func TestGetHidesOtherUsersOrders(t *testing.T) {
	svc := newTestService(t, fixtureOrders())

	_, err := svc.Get(context.Background(), customer, 4)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	view, err := svc.Get(context.Background(), admin, 4)
	require.NoError(t, err)
	require.Equal(t, int64(4), view.ID)
}

func TestDetailsFallBackToDetailResource(t *testing.T) {
	orders := fixtureOrders()
	orders.details = []backend.OrderDetail{
		{ID: 10, Order: &backend.Ref{ID: 1}, Quantity: 2},
		{ID: 11, Order: &backend.Ref{ID: 2}, Quantity: 1},
	}
	svc := newTestService(t, orders)

	details, err := svc.Details(context.Background(), customer, 1)
	require.NoError(t, err)
	require.Len(t, details, 1)
	require.Equal(t, int64(10), details[0].ID)
}

func TestCreateTotalsLineSubtotals(t *testing.T) {
	orders := fixtureOrders()
	svc := newTestService(t, orders)

	view, err := svc.Create(context.Background(), admin, CreateOrderInput{
		UserID: 7,
		Details: []CreateDetailInput{
			{FoodID: 1, Quantity: 2, Price: decimal.NewFromInt(30000)},
			{FoodID: 2, Quantity: 1, Price: decimal.NewFromInt(15000)},
		},
	})
	require.NoError(t, err)
	require.True(t, view.TotalPrice.Equal(decimal.NewFromInt(75000)))
	require.Equal(t, enums.OrderStatusPending, orders.created[0].Status)
	require.Len(t, orders.created[0].OrderDetails, 2)

	_, err = svc.Create(context.Background(), customer, CreateOrderInput{UserID: 7, Details: []CreateDetailInput{{FoodID: 1, Quantity: 1}}})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))
}

func TestUpdateStatusAndSoftDelete(t *testing.T) {
	orders := fixtureOrders()
	svc := newTestService(t, orders)

	view, err := svc.UpdateStatus(context.Background(), admin, 1, enums.OrderStatusConfirmed)
	require.NoError(t, err)
	require.Equal(t, enums.OrderStatusConfirmed, view.Status)
	require.Equal(t, "confirmed", view.StatusLabel)

	view, err = svc.SetDeleted(context.Background(), admin, 1, true)
	require.NoError(t, err)
	require.True(t, view.Deleted)
	require.Len(t, orders.updated, 2)

	_, err = svc.UpdateStatus(context.Background(), admin, 1, enums.OrderStatus(42))
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	_, err = svc.SetDeleted(context.Background(), customer, 1, true)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))
}

func TestStatusEntriesRequireAdminForMutations(t *testing.T) {
	svc := newTestService(t, fixtureOrders())

	entries, err := svc.ListStatusEntries(context.Background(), customer)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	_, err = svc.CreateStatusEntry(context.Background(), customer, json.RawMessage(`{"name":"x"}`))
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))
	_, err = svc.CreateStatusEntry(context.Background(), admin, json.RawMessage(`{"name":"x"}`))
	require.NoError(t, err)
}
