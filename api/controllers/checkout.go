package controllers

import (
	"net/http"

	"github.com/angelmondragon/foodstore/api/middleware"
	"github.com/angelmondragon/foodstore/api/responses"
	"github.com/angelmondragon/foodstore/api/validators"
	"github.com/angelmondragon/foodstore/internal/checkout"
	"github.com/angelmondragon/foodstore/pkg/backend"
	"github.com/angelmondragon/foodstore/pkg/enums"
	pkgerrors "github.com/angelmondragon/foodstore/pkg/errors"
	"github.com/angelmondragon/foodstore/pkg/logger"
)

type checkoutRequest struct {
	OrderID string `json:"order_id" validate:"omitempty,max=64"`
}

// CheckoutStart turns the signed-in user's cart into a gateway redirect.
func CheckoutStart(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body checkoutRequest
		if r.ContentLength != 0 {
			if err := validators.DecodeJSONBody(r, &body); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}
		ctx := r.Context()
		if body.OrderID != "" && logg != nil {
			ctx = logg.WithOrderID(ctx, body.OrderID)
		}
		result, err := svc.Start(ctx, middleware.SessionFromContext(ctx), checkout.StartInput{OrderID: body.OrderID})
		writeCreated(w, r, logg, result, err)
	}
}

// PaymentSuccess settles the gateway's success return.
func PaymentSuccess(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		ret := backend.PaymentReturn{
			PaymentID: query.Get("paymentId"),
			PayerID:   query.Get("PayerID"),
			OrderID:   query.Get("orderId"),
		}
		ctx := r.Context()
		if ret.OrderID != "" && logg != nil {
			ctx = logg.WithOrderID(ctx, ret.OrderID)
		}
		outcome := svc.NewReconciliation(middleware.SessionFromContext(ctx)).Success(ctx, ret)
		writeOutcome(w, r.WithContext(ctx), logg, outcome, true)
	}
}

// PaymentCancel records the gateway's cancel return.
func PaymentCancel(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID := r.URL.Query().Get("orderId")
		ctx := r.Context()
		if orderID != "" && logg != nil {
			ctx = logg.WithOrderID(ctx, orderID)
		}
		outcome := svc.NewReconciliation(middleware.SessionFromContext(ctx)).Cancel(ctx, orderID)
		writeOutcome(w, r.WithContext(ctx), logg, outcome, false)
	}
}

// writeOutcome renders a reconciliation outcome. A failed payment execution
// is a dependency error; a failed cancel is informational because the order
// simply stays pending, so it goes out in the success envelope.
func writeOutcome(w http.ResponseWriter, r *http.Request, logg *logger.Logger, outcome checkout.Outcome, failureIsError bool) {
	switch {
	case outcome.Outcome == enums.CheckoutOutcomeInvalid:
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, outcome.Message).WithDetails(outcome))
	case outcome.Outcome == enums.CheckoutOutcomeFailed && failureIsError:
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeDependency, outcome.Message).WithDetails(outcome))
	default:
		responses.WriteSuccess(w, outcome)
	}
}
