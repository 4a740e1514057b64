package controllers

import (
	"net/http"

	"github.com/angelmondragon/foodstore/api/middleware"
	"github.com/angelmondragon/foodstore/api/responses"
	"github.com/angelmondragon/foodstore/api/validators"
	"github.com/angelmondragon/foodstore/internal/catalog"
	"github.com/angelmondragon/foodstore/pkg/logger"
)

func CatalogList(svc catalog.Service, kind catalog.Kind, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		docs, err := svc.List(r.Context(), middleware.SessionFromContext(r.Context()), kind)
		writeResult(w, r, logg, docs, err)
	}
}

func CatalogGet(svc catalog.Service, kind catalog.Kind, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		doc, err := svc.Get(r.Context(), middleware.SessionFromContext(r.Context()), kind, id)
		writeResult(w, r, logg, doc, err)
	}
}

func CatalogCreate(svc catalog.Service, kind catalog.Kind, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doc, err := validators.DecodeJSONDocument(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		created, err := svc.Create(r.Context(), middleware.SessionFromContext(r.Context()), kind, doc)
		writeCreated(w, r, logg, created, err)
	}
}

func CatalogUpdate(svc catalog.Service, kind catalog.Kind, logg *logger.Logger) http.HandlerFunc {
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
		updated, err := svc.Update(r.Context(), middleware.SessionFromContext(r.Context()), kind, id, doc)
		writeResult(w, r, logg, updated, err)
	}
}

func CatalogDelete(svc catalog.Service, kind catalog.Kind, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeNoContent(w, r, logg, svc.Delete(r.Context(), middleware.SessionFromContext(r.Context()), kind, id))
	}
}

func FoodReviews(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		foodID, err := validators.ParsePathID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		reviews, err := svc.Reviews(r.Context(), middleware.SessionFromContext(r.Context()), foodID)
		writeResult(w, r, logg, reviews, err)
	}
}

func ReviewCreate(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doc, err := validators.DecodeJSONDocument(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		created, err := svc.CreateReview(r.Context(), middleware.SessionFromContext(r.Context()), doc)
		writeCreated(w, r, logg, created, err)
	}
}

func ReviewDelete(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeNoContent(w, r, logg, svc.DeleteReview(r.Context(), middleware.SessionFromContext(r.Context()), id))
	}
}
