package checkout

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/angelmondragon/foodstore/pkg/auth/session"
	"github.com/angelmondragon/foodstore/pkg/backend"
	"github.com/angelmondragon/foodstore/pkg/enums"
	pkgerrors "github.com/angelmondragon/foodstore/pkg/errors"
	"github.com/angelmondragon/foodstore/pkg/logger"
	"github.com/shopspring/decimal"
)

const (
	stageStart   = "start"
	stageSuccess = "success"
	stageCancel  = "cancel"

	metricRedirected       = "redirected"
	metricRejected         = "rejected"
	metricAlreadyProcessed = "already_processed"
)

type cartClient interface {
	ListCartLines(ctx context.Context, token string, userID int64) ([]backend.CartLine, error)
	CheckoutCart(ctx context.Context, token string, userID int64) (json.RawMessage, error)
}

type paymentClient interface {
	CreatePayment(ctx context.Context, token string, amount decimal.Decimal, orderID string) (string, error)
	ExecutePayment(ctx context.Context, token string, ret backend.PaymentReturn) (backend.ExecutionResult, error)
	CancelPayment(ctx context.Context, token, orderID string) (string, error)
}

type countRefresher interface {
	Refresh(ctx context.Context, sess *session.Session) int
}

type outcomeRecorder interface {
	IncCheckoutOutcome(stage, outcome string)
}

// Service moves a signed-in user's cart to the payment gateway and builds
// the reconciliations that settle the gateway's return.
type Service interface {
	Start(ctx context.Context, sess *session.Session, input StartInput) (*StartResult, error)
	NewReconciliation(sess *session.Session) *Reconciliation
}

// StartInput carries the optional pending order the payment settles.
type StartInput struct {
	OrderID string `json:"order_id"`
}

// StartResult is the PendingPayment state handed back to the browser.
type StartResult struct {
	State              enums.CheckoutState `json:"state"`
	RedirectURL        string              `json:"redirect_url"`
	Total              decimal.Decimal     `json:"total"`
	DisplayCurrency    string              `json:"display_currency"`
	Amount             decimal.Decimal     `json:"amount"`
	SettlementCurrency string              `json:"settlement_currency"`
}

// ServiceParams groups the checkout dependencies.
type ServiceParams struct {
	Carts     cartClient
	Payments  paymentClient
	CartCount countRefresher
	Converter Converter
	HomePath  string
	Metrics   outcomeRecorder
	Logger    *logger.Logger
}

type service struct {
	carts     cartClient
	payments  paymentClient
	cartCount countRefresher
	converter Converter
	homePath  string
	metrics   outcomeRecorder
	logg      *logger.Logger
}

// NewService builds the checkout service.
func NewService(params ServiceParams) (Service, error) {
	if params.Carts == nil {
		return nil, fmt.Errorf("cart client required")
	}
	if params.Payments == nil {
		return nil, fmt.Errorf("payment client required")
	}
	if params.CartCount == nil {
		return nil, fmt.Errorf("cart count holder required")
	}
	if !params.Converter.rate.IsPositive() {
		return nil, fmt.Errorf("converter required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	home := strings.TrimSpace(params.HomePath)
	if home == "" {
		home = "/home"
	}
	return &service{
		carts:     params.Carts,
		payments:  params.Payments,
		cartCount: params.CartCount,
		converter: params.Converter,
		homePath:  home,
		metrics:   params.Metrics,
		logg:      params.Logger,
	}, nil
}

// Start recomputes the total from freshly fetched cart lines, converts it to
// the settlement currency and requests the gateway redirect. Any failure
// leaves the user in the Cart state; nothing is committed locally.
func (s *service) Start(ctx context.Context, sess *session.Session, input StartInput) (*StartResult, error) {
	if sess == nil || sess.UserID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "sign in to check out")
	}
	ctx = s.logg.WithUserID(ctx, strconv.FormatInt(sess.UserID, 10))

	lines, err := s.carts.ListCartLines(ctx, sess.BackendToken, sess.UserID)
	if err != nil {
		s.record(stageStart, metricRejected)
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	total := CartTotal(lines)
	amount, err := s.converter.Settle(total)
	if err != nil {
		s.record(stageStart, metricRejected)
		return nil, err
	}

	orderID := strings.TrimSpace(input.OrderID)
	if orderID != "" {
		ctx = s.logg.WithOrderID(ctx, orderID)
	}
	redirect, err := s.payments.CreatePayment(ctx, sess.BackendToken, amount, orderID)
	if err != nil {
		s.record(stageStart, metricRejected)
		return nil, err
	}
	if err := validateRedirect(redirect); err != nil {
		s.record(stageStart, metricRejected)
		return nil, err
	}

	s.record(stageStart, metricRedirected)
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"amount": amount.String(),
		"total":  total.String(),
	}), "checkout.payment_created")

	return &StartResult{
		State:              enums.CheckoutStatePendingPayment,
		RedirectURL:        redirect,
		Total:              total,
		DisplayCurrency:    s.converter.displayCurrency,
		Amount:             amount,
		SettlementCurrency: s.converter.settlementCurrency,
	}, nil
}

// NewReconciliation returns a fresh reconciliation for one return request.
// sess may be nil when the browser returns without a session.
func (s *service) NewReconciliation(sess *session.Session) *Reconciliation {
	return &Reconciliation{svc: s, sess: sess}
}

func (s *service) record(stage, outcome string) {
	if s.metrics != nil {
		s.metrics.IncCheckoutOutcome(stage, outcome)
	}
}

func validateRedirect(raw string) error {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return pkgerrors.New(pkgerrors.CodeDependency, "payment gateway returned an invalid redirect").
			WithDetails(map[string]any{"redirect": raw})
	}
	return nil
}
