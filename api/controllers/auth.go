package controllers

import (
	"net/http"
	"time"

	"github.com/angelmondragon/foodstore/api/middleware"
	"github.com/angelmondragon/foodstore/api/responses"
	"github.com/angelmondragon/foodstore/api/validators"
	"github.com/angelmondragon/foodstore/internal/auth"
	pkgerrors "github.com/angelmondragon/foodstore/pkg/errors"
	"github.com/angelmondragon/foodstore/pkg/logger"
)

// SessionCookie describes the browser cookie carrying the access token.
type SessionCookie struct {
	Name   string
	Secure bool
}

func (c SessionCookie) write(w http.ResponseWriter, value string, expires time.Time) {
	if c.Name == "" {
		return
	}
	cookie := &http.Cookie{
		Name:     c.Name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	if value == "" {
		cookie.MaxAge = -1
	} else {
		cookie.Expires = expires
	}
	http.SetCookie(w, cookie)
}

// AuthLogin signs the user in against the backend and opens a session.
func AuthLogin(svc auth.Service, cookie SessionCookie, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		var body auth.LoginRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Login(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cookie.write(w, result.AccessToken, result.ExpiresAt)
		responses.WriteSuccess(w, result)
	}
}

func AuthLogout(svc auth.Service, cookie SessionCookie, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}
		if err := svc.Logout(r.Context(), middleware.SessionFromContext(r.Context())); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		cookie.write(w, "", time.Time{})
		w.WriteHeader(http.StatusNoContent)
	}
}

func AuthChangePassword(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body auth.ChangePasswordRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.ChangePassword(r.Context(), middleware.SessionFromContext(r.Context()), body)
		writeResult(w, r, logg, result, err)
	}
}

func AuthForgotPassword(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body auth.ForgotPasswordRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.ForgotPassword(r.Context(), body)
		writeResult(w, r, logg, result, err)
	}
}

func AuthVerifyOTP(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body auth.VerifyOTPRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.VerifyOTP(r.Context(), body)
		writeResult(w, r, logg, result, err)
	}
}

func AuthResetPassword(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body auth.ResetPasswordRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.ResetPassword(r.Context(), body)
		writeResult(w, r, logg, result, err)
	}
}

func AdminLockAccount(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := validators.ParsePathID(r, "userId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.LockAccount(r.Context(), middleware.SessionFromContext(r.Context()), userID)
		writeResult(w, r, logg, result, err)
	}
}

func writeResult(w http.ResponseWriter, r *http.Request, logg *logger.Logger, data any, err error) {
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return
	}
	responses.WriteSuccess(w, data)
}

func writeCreated(w http.ResponseWriter, r *http.Request, logg *logger.Logger, data any, err error) {
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return
	}
	responses.WriteSuccessStatus(w, http.StatusCreated, data)
}

func writeNoContent(w http.ResponseWriter, r *http.Request, logg *logger.Logger, err error) {
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
