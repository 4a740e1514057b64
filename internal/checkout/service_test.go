package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/angelmondragon/foodstore/pkg/auth/session"
	"github.com/angelmondragon/foodstore/pkg/backend"
	"github.com/angelmondragon/foodstore/pkg/enums"
	pkgerrors "github.com/angelmondragon/foodstore/pkg/errors"
	"github.com/angelmondragon/foodstore/pkg/logger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	calls []string

	lines       []backend.CartLine
	listErr     error
	checkoutErr error

	redirect    string
	createErr   error
	amounts     []decimal.Decimal
	orderIDs    []string
	execResult  backend.ExecutionResult
	execErr     error
	executed    []backend.PaymentReturn
	cancelMsg   string
	cancelErr   error
	cancelled   []string
	checkoutFor []int64
}

func (f *fakeBackend) ListCartLines(ctx context.Context, token string, userID int64) ([]backend.CartLine, error) {
	f.calls = append(f.calls, "list_cart")
	return f.lines, f.listErr
}

func (f *fakeBackend) CheckoutCart(ctx context.Context, token string, userID int64) (json.RawMessage, error) {
	f.calls = append(f.calls, "checkout_cart")
	f.checkoutFor = append(f.checkoutFor, userID)
	return json.RawMessage(`{}`), f.checkoutErr
}

func (f *fakeBackend) CreatePayment(ctx context.Context, token string, amount decimal.Decimal, orderID string) (string, error) {
	f.calls = append(f.calls, "create_payment")
	f.amounts = append(f.amounts, amount)
	f.orderIDs = append(f.orderIDs, orderID)
	return f.redirect, f.createErr
}

func (f *fakeBackend) ExecutePayment(ctx context.Context, token string, ret backend.PaymentReturn) (backend.ExecutionResult, error) {
	f.calls = append(f.calls, "execute_payment")
	f.executed = append(f.executed, ret)
	return f.execResult, f.execErr
}

func (f *fakeBackend) CancelPayment(ctx context.Context, token, orderID string) (string, error) {
	f.calls = append(f.calls, "cancel_payment")
	f.cancelled = append(f.cancelled, orderID)
	return f.cancelMsg, f.cancelErr
}

type fakeRefresher struct {
	backend *fakeBackend
	calls   int
	value   int
}

func (f *fakeRefresher) Refresh(ctx context.Context, sess *session.Session) int {
	f.calls++
	f.backend.calls = append(f.backend.calls, "refresh_count")
	return f.value
}

type outcomeCounter map[string]int

func (o outcomeCounter) IncCheckoutOutcome(stage, outcome string) {
	o[stage+"/"+outcome]++
}

func newTestService(t *testing.T, fb *fakeBackend) (*service, *fakeRefresher, outcomeCounter) {
	t.Helper()
	refresher := &fakeRefresher{backend: fb, value: 0}
	metrics := outcomeCounter{}
	svc, err := NewService(ServiceParams{
		Carts:     fb,
		Payments:  fb,
		CartCount: refresher,
		Converter: testConverter(t),
		HomePath:  "/home",
		Metrics:   metrics,
		Logger:    logger.Nop(),
	})
	require.NoError(t, err)
	return svc.(*service), refresher, metrics
}

func customer() *session.Session {
	return &session.Session{ID: "sess", UserID: 7, Username: "an", Role: enums.RoleCustomer, BackendToken: "upstream"}
}

func TestStartCreatesPaymentWithConvertedAmount(t *testing.T) {
	fb := &fakeBackend{
		lines:    linesFrom(t, `[{"id":1,"quantity":2,"price":50000,"food":{"id":1}},{"id":2,"quantity":1,"food":{"id":2,"price":50000}}]`),
		redirect: "https://gateway.test/approve?token=EC-1",
	}
	svc, _, metrics := newTestService(t, fb)

	res, err := svc.Start(context.Background(), customer(), StartInput{OrderID: " 12 "})
	require.NoError(t, err)
	require.Equal(t, enums.CheckoutStatePendingPayment, res.State)
	require.Equal(t, "https://gateway.test/approve?token=EC-1", res.RedirectURL)
	require.True(t, res.Total.Equal(decimal.NewFromInt(150000)))
	require.True(t, res.Amount.Equal(decimal.RequireFromString("6.25")))
	require.Equal(t, []string{"12"}, fb.orderIDs)
	require.True(t, fb.amounts[0].Equal(decimal.RequireFromString("6.25")))
	require.Equal(t, 1, metrics["start/redirected"])
}

func TestStartNeverCallsPaymentForNonPositiveTotals(t *testing.T) {
	for name, body := range map[string]string{
		"empty":    `[]`,
		"zero":     `[{"id":1,"quantity":1,"food":{"id":1,"price":0}}]`,
		"negative": `[{"id":1,"quantity":1,"food":{"id":1,"price":-5000}}]`,
	} {
		fb := &fakeBackend{lines: linesFrom(t, body), redirect: "https://gateway.test"}
		svc, _, metrics := newTestService(t, fb)

		_, err := svc.Start(context.Background(), customer(), StartInput{})
		require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), name)
		require.Equal(t, []string{"list_cart"}, fb.calls, name)
		require.Equal(t, 1, metrics["start/rejected"], name)
	}
}

func TestStartRejectsInvalidRedirect(t *testing.T) {
	for _, redirect := range []string{"", "Error: gateway down", "ftp://gateway.test/x", "/relative"} {
		fb := &fakeBackend{
			lines:    linesFrom(t, `[{"id":1,"quantity":1,"food":{"id":1,"price":24000}}]`),
			redirect: redirect,
		}
		svc, _, _ := newTestService(t, fb)
		_, err := svc.Start(context.Background(), customer(), StartInput{})
		require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency), redirect)
	}
}

func TestStartSurfacesPaymentCreationFailure(t *testing.T) {
	fb := &fakeBackend{
		lines:     linesFrom(t, `[{"id":1,"quantity":1,"food":{"id":1,"price":24000}}]`),
		createErr: pkgerrors.New(pkgerrors.CodeDependency, "payments request failed"),
	}
	svc, _, _ := newTestService(t, fb)
	_, err := svc.Start(context.Background(), customer(), StartInput{})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
}

func TestStartRequiresSession(t *testing.T) {
	svc, _, _ := newTestService(t, &fakeBackend{})
	_, err := svc.Start(context.Background(), nil, StartInput{})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
}

func TestSuccessCallsExecuteWithExactIdentifiers(t *testing.T) {
	fb := &fakeBackend{}
	svc, refresher, metrics := newTestService(t, fb)
	refresher.value = 0

	out := svc.NewReconciliation(customer()).Success(context.Background(), backend.PaymentReturn{PaymentID: "P1", PayerID: "PAY1", OrderID: "7"})

	require.Equal(t, []backend.PaymentReturn{{PaymentID: "P1", PayerID: "PAY1", OrderID: "7"}}, fb.executed)
	require.Equal(t, []string{"execute_payment", "checkout_cart", "refresh_count"}, fb.calls)
	require.Equal(t, enums.CheckoutStateTerminal, out.State)
	require.Equal(t, enums.CheckoutOutcomeConfirmed, out.Outcome)
	require.False(t, out.AlreadyProcessed)
	require.Equal(t, "/home", out.Next)
	require.NotNil(t, out.CartCount)
	require.Equal(t, 1, metrics["success/confirmed"])
}

func TestAlreadyProcessedMatchesFreshSuccessOutcome(t *testing.T) {
	ret := backend.PaymentReturn{PaymentID: "P1", PayerID: "PAY1", OrderID: "7"}

	fresh := &fakeBackend{}
	freshSvc, _, _ := newTestService(t, fresh)
	freshOut := freshSvc.NewReconciliation(customer()).Success(context.Background(), ret)

	replay := &fakeBackend{execResult: backend.ExecutionResult{AlreadyProcessed: true, Message: "PAYMENT_ALREADY_DONE"}}
	replaySvc, _, metrics := newTestService(t, replay)
	replayOut := replaySvc.NewReconciliation(customer()).Success(context.Background(), ret)

	require.Equal(t, freshOut.State, replayOut.State)
	require.Equal(t, freshOut.Outcome, replayOut.Outcome)
	require.Equal(t, freshOut.Next, replayOut.Next)
	require.True(t, replayOut.AlreadyProcessed)
	require.NotEqual(t, freshOut.Message, replayOut.Message)
	require.Equal(t, []backend.PaymentReturn{ret}, replay.executed)
	require.Equal(t, 1, metrics["success/already_processed"])
}

func TestSuccessIsLatchedPerReconciliation(t *testing.T) {
	fb := &fakeBackend{}
	svc, refresher, _ := newTestService(t, fb)
	rec := svc.NewReconciliation(customer())
	ret := backend.PaymentReturn{PaymentID: "P1", PayerID: "PAY1", OrderID: "7"}

	first := rec.Success(context.Background(), ret)
	fb.execErr = errors.New("would fail if called again")
	second := rec.Success(context.Background(), ret)

	require.True(t, rec.HasReconciled())
	require.Equal(t, first, second)
	require.Equal(t, enums.CheckoutOutcomeConfirmed, second.Outcome)
	require.Len(t, fb.executed, 1)
	require.Equal(t, []int64{7}, fb.checkoutFor)
	require.Equal(t, 1, refresher.calls)
}

func TestRepeatReturnInNewRequestReliesOnBackendReplayAnswer(t *testing.T) {
	fb := &fakeBackend{}
	svc, refresher, metrics := newTestService(t, fb)
	ret := backend.PaymentReturn{PaymentID: "P1", PayerID: "PAY1", OrderID: "7"}

	first := svc.NewReconciliation(customer()).Success(context.Background(), ret)
	fb.execResult = backend.ExecutionResult{AlreadyProcessed: true, Message: "PAYMENT_ALREADY_DONE"}
	second := svc.NewReconciliation(customer()).Success(context.Background(), ret)

	require.False(t, first.AlreadyProcessed)
	require.True(t, second.AlreadyProcessed)
	require.Equal(t, first.Outcome, second.Outcome)
	require.Len(t, fb.executed, 2)
	require.Equal(t, 2, refresher.calls)
	require.Equal(t, 1, metrics["success/confirmed"])
	require.Equal(t, 1, metrics["success/already_processed"])
}

func TestSuccessRefreshesOnceEvenWhenCartClearFails(t *testing.T) {
	fb := &fakeBackend{checkoutErr: errors.New("cart service down")}
	svc, refresher, _ := newTestService(t, fb)

	out := svc.NewReconciliation(customer()).Success(context.Background(), backend.PaymentReturn{PaymentID: "P1", PayerID: "PAY1", OrderID: "7"})

	require.Equal(t, enums.CheckoutOutcomeConfirmed, out.Outcome)
	require.Equal(t, 1, refresher.calls)
	require.Equal(t, []string{"execute_payment", "checkout_cart", "refresh_count"}, fb.calls)
}

func TestSuccessWithoutSessionSkipsCartButRefreshes(t *testing.T) {
	fb := &fakeBackend{}
	svc, refresher, _ := newTestService(t, fb)

	out := svc.NewReconciliation(nil).Success(context.Background(), backend.PaymentReturn{PaymentID: "P1", PayerID: "PAY1", OrderID: "7"})

	require.Equal(t, enums.CheckoutOutcomeConfirmed, out.Outcome)
	require.Empty(t, fb.checkoutFor)
	require.Equal(t, 1, refresher.calls)
	require.Nil(t, out.CartCount)
}

func TestSuccessExecuteFailureLeavesCartAlone(t *testing.T) {
	fb := &fakeBackend{execErr: pkgerrors.New(pkgerrors.CodeDependency, "payments request failed")}
	svc, refresher, metrics := newTestService(t, fb)

	out := svc.NewReconciliation(customer()).Success(context.Background(), backend.PaymentReturn{PaymentID: "P1", PayerID: "PAY1", OrderID: "7"})

	require.Equal(t, enums.CheckoutOutcomeFailed, out.Outcome)
	require.Equal(t, []string{"execute_payment"}, fb.calls)
	require.Zero(t, refresher.calls)
	require.Equal(t, "/home", out.Next)
	require.Equal(t, 1, metrics["success/failed"])
}

func TestSuccessMissingParametersMakesNoCalls(t *testing.T) {
	for _, ret := range []backend.PaymentReturn{
		{PaymentID: "P1", OrderID: "7"},
		{PayerID: "PAY1", OrderID: "7"},
		{PaymentID: "P1", PayerID: "PAY1"},
		{PaymentID: " ", PayerID: "PAY1", OrderID: "7"},
	} {
		fb := &fakeBackend{}
		svc, refresher, _ := newTestService(t, fb)
		rec := svc.NewReconciliation(customer())

		out := rec.Success(context.Background(), ret)
		require.Equal(t, enums.CheckoutOutcomeInvalid, out.Outcome)
		require.Equal(t, enums.CheckoutStateTerminal, out.State)
		require.Empty(t, fb.calls)
		require.Zero(t, refresher.calls)
		require.False(t, rec.HasReconciled())
	}
}

func TestCancelNeverMutatesCartOrOrder(t *testing.T) {
	fb := &fakeBackend{cancelMsg: "Payment cancelled for order 7"}
	svc, refresher, metrics := newTestService(t, fb)

	out := svc.NewReconciliation(customer()).Cancel(context.Background(), "7")

	require.Equal(t, enums.CheckoutOutcomeCancelled, out.Outcome)
	require.Equal(t, "Payment cancelled for order 7", out.Message)
	require.Equal(t, "/home", out.Next)
	require.Equal(t, []string{"cancel_payment"}, fb.calls)
	require.Zero(t, refresher.calls)
	require.Equal(t, 1, metrics["cancel/cancelled"])
}

func TestCancelFailureIsInformational(t *testing.T) {
	fb := &fakeBackend{cancelErr: errors.New("backend down")}
	svc, _, _ := newTestService(t, fb)

	out := svc.NewReconciliation(customer()).Cancel(context.Background(), "7")

	require.Equal(t, enums.CheckoutOutcomeFailed, out.Outcome)
	require.Equal(t, msgCancelFailed, out.Message)
	require.Equal(t, "/home", out.Next)
	require.Equal(t, []string{"cancel_payment"}, fb.calls)
}

func TestCancelMissingOrderIsInvalid(t *testing.T) {
	fb := &fakeBackend{}
	svc, _, _ := newTestService(t, fb)

	out := svc.NewReconciliation(customer()).Cancel(context.Background(), "")
	require.Equal(t, enums.CheckoutOutcomeInvalid, out.Outcome)
	require.Empty(t, fb.calls)
}

func TestOutcomeMessagesAreDistinct(t *testing.T) {
	seen := map[string]bool{}
	for _, msg := range []string{msgConfirmed, msgAlreadyProcessed, msgCancelled, msgPaymentFailed, msgCancelFailed, msgInvalidSuccess, msgInvalidCancel} {
		require.False(t, seen[msg], msg)
		seen[msg] = true
	}
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	fb := &fakeBackend{}
	_, err := NewService(ServiceParams{Payments: fb, CartCount: &fakeRefresher{backend: fb}, Converter: testConverter(t), Logger: logger.Nop()})
	require.Error(t, err)
	_, err = NewService(ServiceParams{Carts: fb, Payments: fb, CartCount: &fakeRefresher{backend: fb}, Logger: logger.Nop()})
	require.Error(t, err)
}
