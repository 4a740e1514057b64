package checkout

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"github.com/angelmondragon/foodstore/pkg/auth/session"
	"github.com/angelmondragon/foodstore/pkg/backend"
	"github.com/angelmondragon/foodstore/pkg/enums"
)

const (
	msgConfirmed        = "Payment confirmed and your order has been placed."
	msgAlreadyProcessed = "This payment was already processed. Your order is confirmed."
	msgCancelled        = "Payment cancelled. Your order has not been charged and remains pending."
	msgPaymentFailed    = "We could not confirm your payment. Your order remains pending."
	msgCancelFailed     = "We could not record the cancellation. Your order remains pending."
	msgInvalidSuccess   = "Invalid or missing payment data."
	msgInvalidCancel    = "Missing order information for the cancelled payment."
)

// Outcome is the terminal result of a gateway return.
type Outcome struct {
	State            enums.CheckoutState   `json:"state"`
	Outcome          enums.CheckoutOutcome `json:"outcome"`
	AlreadyProcessed bool                  `json:"already_processed"`
	Message          string                `json:"message"`
	Next             string                `json:"next"`
	OrderID          string                `json:"order_id,omitempty"`
	CartCount        *int                  `json:"cart_count,omitempty"`
}

// Reconciliation settles one gateway return. The hasReconciled latch is set
// before the first backend call; later calls on the same value return the
// recorded outcome without side effects.
//
// The payment controllers build a new Reconciliation for every return
// request, so the latch only guards re-entry within that request. It is not
// shared across requests or instances. A reload of the return URL or a second
// tab reaches the backend again, and the duplicate confirmation is recognised
// from the backend's already-processed answer (see
// backend.Client.IsAlreadyProcessed). Cart finalization and the count refresh
// run again in that case and are harmless on an already-checked-out cart.
type Reconciliation struct {
	svc  *service
	sess *session.Session

	mu            sync.Mutex
	hasReconciled bool
	outcome       Outcome
}

// HasReconciled reports whether side effects already ran.
func (r *Reconciliation) HasReconciled() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.hasReconciled
}

// Success confirms the payment, clears the cart and refreshes the cart count.
func (r *Reconciliation) Success(ctx context.Context, ret backend.PaymentReturn) Outcome {
	if !ret.Complete() {
		r.svc.record(stageSuccess, string(enums.CheckoutOutcomeInvalid))
		return r.terminal(enums.CheckoutOutcomeInvalid, msgInvalidSuccess, strings.TrimSpace(ret.OrderID))
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.hasReconciled {
		return r.outcome
	}
	r.hasReconciled = true

	ctx = r.svc.logg.WithOrderID(ctx, ret.OrderID)
	result, err := r.svc.payments.ExecutePayment(ctx, r.token(), ret)
	if err != nil {
		r.svc.logg.Error(ctx, "checkout.payment_execute_failed", err)
		r.svc.record(stageSuccess, string(enums.CheckoutOutcomeFailed))
		r.outcome = r.terminal(enums.CheckoutOutcomeFailed, msgPaymentFailed, ret.OrderID)
		return r.outcome
	}

	r.finalizeCart(ctx)
	count := r.svc.cartCount.Refresh(ctx, r.sess)

	out := r.terminal(enums.CheckoutOutcomeConfirmed, msgConfirmed, ret.OrderID)
	out.AlreadyProcessed = result.AlreadyProcessed
	if result.AlreadyProcessed {
		out.Message = msgAlreadyProcessed
		r.svc.record(stageSuccess, metricAlreadyProcessed)
		r.svc.logg.Info(ctx, "checkout.payment_already_processed")
	} else {
		r.svc.record(stageSuccess, string(enums.CheckoutOutcomeConfirmed))
		r.svc.logg.Info(ctx, "checkout.payment_confirmed")
	}
	if r.signedIn() {
		out.CartCount = &count
	}
	r.outcome = out
	return out
}

// Cancel acknowledges the cancelled approval. It never touches the cart or
// the order; the order stays pending either way.
func (r *Reconciliation) Cancel(ctx context.Context, orderID string) Outcome {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		r.svc.record(stageCancel, string(enums.CheckoutOutcomeInvalid))
		return r.terminal(enums.CheckoutOutcomeInvalid, msgInvalidCancel, "")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.hasReconciled {
		return r.outcome
	}
	r.hasReconciled = true

	ctx = r.svc.logg.WithOrderID(ctx, orderID)
	msg, err := r.svc.payments.CancelPayment(ctx, r.token(), orderID)
	if err != nil {
		r.svc.logg.WarnErr(ctx, "checkout.payment_cancel_failed", err)
		r.svc.record(stageCancel, string(enums.CheckoutOutcomeFailed))
		r.outcome = r.terminal(enums.CheckoutOutcomeFailed, msgCancelFailed, orderID)
		return r.outcome
	}

	out := r.terminal(enums.CheckoutOutcomeCancelled, msgCancelled, orderID)
	if strings.TrimSpace(msg) != "" {
		out.Message = msg
	}
	r.svc.record(stageCancel, string(enums.CheckoutOutcomeCancelled))
	r.outcome = out
	return out
}

// finalizeCart converts the remaining cart into the order. Failures are
// logged and swallowed: the payment is already captured.
func (r *Reconciliation) finalizeCart(ctx context.Context) {
	if !r.signedIn() {
		r.svc.logg.Warn(ctx, "checkout.cart_clear_skipped_no_session")
		return
	}
	ctx = r.svc.logg.WithUserID(ctx, strconv.FormatInt(r.sess.UserID, 10))
	if _, err := r.svc.carts.CheckoutCart(ctx, r.sess.BackendToken, r.sess.UserID); err != nil {
		r.svc.logg.WarnErr(ctx, "checkout.cart_clear_failed", err)
	}
}

func (r *Reconciliation) terminal(outcome enums.CheckoutOutcome, msg, orderID string) Outcome {
	return Outcome{
		State:   enums.CheckoutStateTerminal,
		Outcome: outcome,
		Message: msg,
		Next:    r.svc.homePath,
		OrderID: orderID,
	}
}

func (r *Reconciliation) signedIn() bool {
	return r.sess != nil && r.sess.UserID > 0
}

func (r *Reconciliation) token() string {
	if r.sess == nil {
		return ""
	}
	return r.sess.BackendToken
}
