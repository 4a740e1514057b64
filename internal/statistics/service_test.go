package statistics

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

type stubUsers struct {
	page     backend.UserPage
	lastSize int
}

func (s *stubUsers) ListUsers(ctx context.Context, token, search string, page, size int) backend.UserPage {
	s.lastSize = size
	return s.page
}

type stubOrders struct {
	orders []backend.Order
}

func (s *stubOrders) ListOrders(ctx context.Context, token string) ([]backend.Order, error) {
	return s.orders, nil
}

func order(ts string, total int64) backend.Order {
	parsed, _ := time.Parse(time.RFC3339, ts)
	return backend.Order{CreatedAt: backend.Timestamp{Time: parsed}, TotalPrice: decimal.NewFromInt(total)}
}

var admin = &session.Session{UserID: 1, Role: enums.RoleAdmin, BackendToken: "t"}

func fixture() (*stubUsers, *stubOrders) {
	users := &stubUsers{page: backend.UserPage{Content: []json.RawMessage{
		json.RawMessage(`{"id":1,"account":{"locked":false}}`),
		json.RawMessage(`{"id":2,"account":{"locked":true}}`),
		json.RawMessage(`{"id":3}`),
	}}}
	orders := &stubOrders{orders: []backend.Order{
		order("2024-05-01T09:15:00Z", 100000),
		order("2024-05-01T09:45:00Z", 50000),
		order("2024-05-02T18:00:00Z", 30000),
		order("2023-12-31T23:00:00Z", 20000),
	}}
	return users, orders
}

func TestComputeAggregatesUsersAndRevenue(t *testing.T) {
	users, orders := fixture()
	svc, err := NewService(users, orders, time.UTC, logger.Nop())
	require.NoError(t, err)

	report, err := svc.Compute(context.Background(), admin, Window{})
	require.NoError(t, err)
	require.Equal(t, 1000, users.lastSize)
	require.Equal(t, 3, report.TotalUsers)
	require.Equal(t, 1, report.LockedUsers)
	require.Equal(t, 2, report.ActiveUsers)
	require.Equal(t, 4, report.TotalOrders)
	require.True(t, report.TotalRevenue.Equal(decimal.NewFromInt(200000)))

	require.Equal(t, []string{"09:00", "18:00", "23:00"}, labels(report.HourlyRevenue))
	require.Equal(t, 2, report.HourlyRevenue[0].Count)
	require.True(t, report.HourlyRevenue[0].Total.Equal(decimal.NewFromInt(150000)))
	require.Equal(t, []string{"2023-12-31", "2024-05-01", "2024-05-02"}, labels(report.DailyRevenue))
	require.Equal(t, []string{"2023-12", "2024-05"}, labels(report.MonthlyRevenue))
	require.Equal(t, []string{"2023", "2024"}, labels(report.YearlyRevenue))
}

func TestComputeWindowIsInclusive(t *testing.T) {
	users, orders := fixture()
	svc, err := NewService(users, orders, time.UTC, logger.Nop())
	require.NoError(t, err)

	from := time.Date(2024, 5, 1, 9, 45, 0, 0, time.UTC)
	to := time.Date(2024, 5, 2, 18, 0, 0, 0, time.UTC)
	report, err := svc.Compute(context.Background(), admin, Window{From: &from, To: &to})
	require.NoError(t, err)
	require.Equal(t, 2, report.TotalOrders)
	require.True(t, report.TotalRevenue.Equal(decimal.NewFromInt(80000)))
}

func TestComputeLabelsInConfiguredZone(t *testing.T) {
	users, orders := fixture()
	loc := time.FixedZone("ICT", 7*3600)
	svc, err := NewService(users, orders, loc, logger.Nop())
	require.NoError(t, err)

	report, err := svc.Compute(context.Background(), admin, Window{})
	require.NoError(t, err)
	require.Equal(t, []string{"2024"}, labels(report.YearlyRevenue))
}

func TestComputeRequiresAdminAndOrderedWindow(t *testing.T) {
	users, orders := fixture()
	svc, err := NewService(users, orders, nil, logger.Nop())
	require.NoError(t, err)

	_, err = svc.Compute(context.Background(), &session.Session{UserID: 2, Role: enums.RoleCustomer}, Window{})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	from := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	_, err = svc.Compute(context.Background(), admin, Window{From: &from, To: &to})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func labels(buckets []Bucket) []string {
	out := make([]string, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, b.Label)
	}
	return out
}
