package backend

import (
	"context"
	"encoding/json"
	"net/http"
)

const resourceAccounts = "accounts"

// Login exchanges credentials for the backend's bearer token.
func (c *Client) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	var result LoginResult
	if err := c.doJSON(ctx, call{
		resource: resourceAccounts,
		method:   http.MethodPost,
		path:     "/login",
		body:     map[string]string{"username": username, "password": password},
	}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) ChangePassword(ctx context.Context, token, oldPassword, newPassword string) (json.RawMessage, error) {
	return c.accountCall(ctx, http.MethodPut, "/login/change-password", token,
		map[string]string{"oldPassword": oldPassword, "newPassword": newPassword})
}

func (c *Client) ForgotPassword(ctx context.Context, emailOrUsername string) (json.RawMessage, error) {
	return c.accountCall(ctx, http.MethodPost, "/login/forgot-password", "",
		map[string]string{"emailOrUsername": emailOrUsername})
}

func (c *Client) VerifyOTP(ctx context.Context, emailOrUsername, otp string) (json.RawMessage, error) {
	return c.accountCall(ctx, http.MethodPost, "/login/verify-otp", "",
		map[string]string{"emailOrUsername": emailOrUsername, "otp": otp})
}

func (c *Client) ResetPassword(ctx context.Context, emailOrUsername, newPassword string) (json.RawMessage, error) {
	return c.accountCall(ctx, http.MethodPut, "/login/reset-password", "",
		map[string]string{"emailOrUsername": emailOrUsername, "newPassword": newPassword})
}

// LockAccount toggles the lock on a user account (admin).
func (c *Client) LockAccount(ctx context.Context, token string, userID int64) (json.RawMessage, error) {
	return c.accountCall(ctx, http.MethodPut, pathf("/login/lock/%s", userID), token, map[string]string{})
}

func (c *Client) accountCall(ctx context.Context, method, path, token string, body any) (json.RawMessage, error) {
	resp, err := c.do(ctx, call{
		resource: resourceAccounts,
		method:   method,
		path:     path,
		token:    token,
		body:     body,
	})
	if err != nil {
		return nil, err
	}
	return rawOrNull(resp), nil
}
