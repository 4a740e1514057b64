package controllers

import (
	"net/http"
	"strconv"

	"github.com/angelmondragon/foodstore/api/middleware"
	"github.com/angelmondragon/foodstore/api/responses"
	"github.com/angelmondragon/foodstore/api/validators"
	"github.com/angelmondragon/foodstore/internal/cart"
	"github.com/angelmondragon/foodstore/pkg/logger"
)

func CartList(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view, err := svc.List(r.Context(), middleware.SessionFromContext(r.Context()))
		writeResult(w, r, logg, view, err)
	}
}

func CartAdd(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body cart.LineInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		line, err := svc.Add(r.Context(), middleware.SessionFromContext(r.Context()), body)
		writeCreated(w, r, logg, line, err)
	}
}

func CartUpdate(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lineID, err := validators.ParsePathID(r, "lineId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body cart.LineInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		line, err := svc.Update(r.Context(), middleware.SessionFromContext(r.Context()), lineID, body)
		writeResult(w, r, logg, line, err)
	}
}

func CartRemove(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lineID, err := validators.ParsePathID(r, "lineId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeNoContent(w, r, logg, svc.Remove(r.Context(), middleware.SessionFromContext(r.Context()), lineID))
	}
}

// CartCount returns the cached badge count. refresh=true recomputes it first.
func CartCount(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		refresh, _ := strconv.ParseBool(r.URL.Query().Get("refresh"))
		count := svc.Count(r.Context(), middleware.SessionFromContext(r.Context()), refresh)
		responses.WriteSuccess(w, map[string]int{"count": count})
	}
}

func CartCheckout(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		order, err := svc.Checkout(r.Context(), middleware.SessionFromContext(r.Context()))
		writeCreated(w, r, logg, order, err)
	}
}
