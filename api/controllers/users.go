package controllers

import (
	"net/http"

	"github.com/angelmondragon/foodstore/api/middleware"
	"github.com/angelmondragon/foodstore/api/responses"
	"github.com/angelmondragon/foodstore/api/validators"
	"github.com/angelmondragon/foodstore/internal/users"
	"github.com/angelmondragon/foodstore/pkg/logger"
	"github.com/angelmondragon/foodstore/pkg/pagination"
)

const maxSearchLength = 100

func AdminUserList(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := validators.ParseQueryInt(r, "page", 0, 0, 100000)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		size, err := validators.ParseQueryInt(r, "size", pagination.DefaultSize, 1, pagination.MaxSize)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.List(r.Context(), middleware.SessionFromContext(r.Context()), users.ListQuery{
			Search: validators.SanitizeString(r.URL.Query().Get("search"), maxSearchLength),
			Params: pagination.Params{Page: page, Size: size},
		})
		writeResult(w, r, logg, result, err)
	}
}

func AdminUserByUsername(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doc, err := svc.GetByUsername(r.Context(), middleware.SessionFromContext(r.Context()), r.URL.Query().Get("username"))
		writeResult(w, r, logg, doc, err)
	}
}

func AdminUserCreate(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doc, err := validators.DecodeJSONDocument(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		created, err := svc.Create(r.Context(), middleware.SessionFromContext(r.Context()), doc)
		writeCreated(w, r, logg, created, err)
	}
}

func AdminUserUpdate(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathID(r, "userId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		doc, err := validators.DecodeJSONDocument(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		updated, err := svc.Update(r.Context(), middleware.SessionFromContext(r.Context()), id, doc)
		writeResult(w, r, logg, updated, err)
	}
}

func AdminUserDelete(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathID(r, "userId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeNoContent(w, r, logg, svc.Delete(r.Context(), middleware.SessionFromContext(r.Context()), id))
	}
}

func AdminCheckAccount(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		check, err := svc.CheckAccount(r.Context(), middleware.SessionFromContext(r.Context()), query.Get("email"), query.Get("username"))
		writeResult(w, r, logg, check, err)
	}
}
