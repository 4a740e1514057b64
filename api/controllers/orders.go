package controllers

import (
	"net/http"

	"github.com/angelmondragon/foodstore/api/middleware"
	"github.com/angelmondragon/foodstore/api/responses"
	"github.com/angelmondragon/foodstore/api/validators"
	"github.com/angelmondragon/foodstore/internal/orders"
	"github.com/angelmondragon/foodstore/pkg/enums"
	pkgerrors "github.com/angelmondragon/foodstore/pkg/errors"
	"github.com/angelmondragon/foodstore/pkg/logger"
)

func OrderHistory(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := svc.History(r.Context(), middleware.SessionFromContext(r.Context()))
		writeResult(w, r, logg, list, err)
	}
}

func OrderGet(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := svc.Get(r.Context(), middleware.SessionFromContext(r.Context()), id)
		writeResult(w, r, logg, order, err)
	}
}

func OrderDetails(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		details, err := svc.Details(r.Context(), middleware.SessionFromContext(r.Context()), id)
		writeResult(w, r, logg, details, err)
	}
}

func AdminOrderCreate(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body orders.CreateOrderInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := svc.Create(r.Context(), middleware.SessionFromContext(r.Context()), body)
		writeCreated(w, r, logg, order, err)
	}
}

func AdminOrderUpdateStatus(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body orders.UpdateStatusInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := enums.ParseOrderStatus(body.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order status").
				WithDetails(map[string]string{"status": body.Status}))
			return
		}
		order, err := svc.UpdateStatus(r.Context(), middleware.SessionFromContext(r.Context()), id, status)
		writeResult(w, r, logg, order, err)
	}
}

// AdminOrderSetDeleted soft-deletes (deleted=true) or restores an order.
func AdminOrderSetDeleted(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body orders.SetDeletedInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := svc.SetDeleted(r.Context(), middleware.SessionFromContext(r.Context()), id, body.Deleted)
		writeResult(w, r, logg, order, err)
	}
}

func AdminOrderDelete(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeNoContent(w, r, logg, svc.Delete(r.Context(), middleware.SessionFromContext(r.Context()), id))
	}
}

func OrderStatusList(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := svc.ListStatusEntries(r.Context(), middleware.SessionFromContext(r.Context()))
		writeResult(w, r, logg, list, err)
	}
}

func OrderStatusGet(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		entry, err := svc.GetStatusEntry(r.Context(), middleware.SessionFromContext(r.Context()), id)
		writeResult(w, r, logg, entry, err)
	}
}

func AdminOrderStatusCreate(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doc, err := validators.DecodeJSONDocument(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		entry, err := svc.CreateStatusEntry(r.Context(), middleware.SessionFromContext(r.Context()), doc)
		writeCreated(w, r, logg, entry, err)
	}
}

func AdminOrderStatusUpdate(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		doc, err := validators.DecodeJSONDocument(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		entry, err := svc.UpdateStatusEntry(r.Context(), middleware.SessionFromContext(r.Context()), id, doc)
		writeResult(w, r, logg, entry, err)
	}
}

func AdminOrderStatusDelete(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeNoContent(w, r, logg, svc.DeleteStatusEntry(r.Context(), middleware.SessionFromContext(r.Context()), id))
	}
}
