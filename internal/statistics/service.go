package statistics

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/angelmondragon/foodstore/pkg/auth/session"
	"github.com/angelmondragon/foodstore/pkg/backend"
	"github.com/angelmondragon/foodstore/pkg/enums"
	pkgerrors "github.com/angelmondragon/foodstore/pkg/errors"
	"github.com/angelmondragon/foodstore/pkg/logger"
	"github.com/shopspring/decimal"
)

// userPageSize bounds the user scan; the back office is sized for small shops.
const userPageSize = 1000

type userLister interface {
	ListUsers(ctx context.Context, token, search string, page, size int) backend.UserPage
}

type orderLister interface {
	ListOrders(ctx context.Context, token string) ([]backend.Order, error)
}

// Service computes the admin dashboard figures.
type Service interface {
	Compute(ctx context.Context, sess *session.Session, window Window) (*Report, error)
}

// Window is an optional inclusive createdAt filter.
type Window struct {
	From *time.Time
	To   *time.Time
}

func (w Window) contains(t time.Time) bool {
	if w.From != nil && t.Before(*w.From) {
		return false
	}
	if w.To != nil && t.After(*w.To) {
		return false
	}
	return true
}

// Bucket is the revenue for one label.
type Bucket struct {
	Label string          `json:"label"`
	Total decimal.Decimal `json:"total"`
	Count int             `json:"count"`
}

// Report is the dashboard payload.
type Report struct {
	TotalUsers     int             `json:"total_users"`
	ActiveUsers    int             `json:"active_users"`
	LockedUsers    int             `json:"locked_users"`
	TotalOrders    int             `json:"total_orders"`
	TotalRevenue   decimal.Decimal `json:"total_revenue"`
	HourlyRevenue  []Bucket        `json:"hourly_revenue"`
	DailyRevenue   []Bucket        `json:"daily_revenue"`
	MonthlyRevenue []Bucket        `json:"monthly_revenue"`
	YearlyRevenue  []Bucket        `json:"yearly_revenue"`
}

type service struct {
	users    userLister
	orders   orderLister
	location *time.Location
	logg     *logger.Logger
}

// NewService builds the statistics service. Buckets are labelled in loc.
func NewService(users userLister, orders orderLister, loc *time.Location, logg *logger.Logger) (Service, error) {
	if users == nil {
		return nil, fmt.Errorf("user lister required")
	}
	if orders == nil {
		return nil, fmt.Errorf("order lister required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if loc == nil {
		loc = time.UTC
	}
	return &service{users: users, orders: orders, location: loc, logg: logg}, nil
}

func (s *service) Compute(ctx context.Context, sess *session.Session, window Window) (*Report, error) {
	if sess == nil || sess.Role != enums.RoleAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "admin role required")
	}
	if window.From != nil && window.To != nil && window.From.After(*window.To) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "from must not be after to")
	}

	page := s.users.ListUsers(ctx, sess.BackendToken, "", 0, userPageSize)
	orders, err := s.orders.ListOrders(ctx, sess.BackendToken)
	if err != nil {
		return nil, err
	}

	report := &Report{TotalUsers: len(page.Content), TotalRevenue: decimal.Zero}
	for _, raw := range page.Content {
		if isLocked(raw) {
			report.LockedUsers++
		}
	}
	report.ActiveUsers = report.TotalUsers - report.LockedUsers

	hourly := newGrouper()
	daily := newGrouper()
	monthly := newGrouper()
	yearly := newGrouper()
	for _, order := range orders {
		if !window.contains(order.CreatedAt.Time) {
			continue
		}
		report.TotalOrders++
		report.TotalRevenue = report.TotalRevenue.Add(order.TotalPrice)

		local := order.CreatedAt.In(s.location)
		hourly.add(local.Format("15")+":00", order.TotalPrice)
		daily.add(local.Format("2006-01-02"), order.TotalPrice)
		monthly.add(local.Format("2006-01"), order.TotalPrice)
		yearly.add(local.Format("2006"), order.TotalPrice)
	}
	report.HourlyRevenue = hourly.buckets()
	report.DailyRevenue = daily.buckets()
	report.MonthlyRevenue = monthly.buckets()
	report.YearlyRevenue = yearly.buckets()
	return report, nil
}

func isLocked(raw json.RawMessage) bool {
	var user struct {
		Account *struct {
			Locked bool `json:"locked"`
		} `json:"account"`
	}
	if err := json.Unmarshal(raw, &user); err != nil || user.Account == nil {
		return false
	}
	return user.Account.Locked
}

type grouper map[string]*Bucket

func newGrouper() grouper {
	return grouper{}
}

func (g grouper) add(label string, amount decimal.Decimal) {
	bucket, ok := g[label]
	if !ok {
		bucket = &Bucket{Label: label, Total: decimal.Zero}
		g[label] = bucket
	}
	bucket.Total = bucket.Total.Add(amount)
	bucket.Count++
}

func (g grouper) buckets() []Bucket {
	out := make([]Bucket, 0, len(g))
	for _, bucket := range g {
		out = append(out, *bucket)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out
}
